package stats

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetTradesPage(limit, offset int) ([]types.Trade, error) {
	var trades []types.Trade
	err := d.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

func (d *Database) GetTradesByUser(userID string, limit, offset int) ([]types.Trade, error) {
	var trades []types.Trade
	err := d.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

func (d *Database) GetTrade(tradeID string) (*types.Trade, error) {
	var trade types.Trade
	if err := d.db.Where("trade_id = ?", tradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

// GetProfilesByIDs fetches all owning profiles for a page of trades in one
// round-trip, keyed by profile id.
func (d *Database) GetProfilesByIDs(profileIDs []string) (map[string]types.Profile, error) {
	byID := make(map[string]types.Profile, len(profileIDs))
	if len(profileIDs) == 0 {
		return byID, nil
	}

	var profiles []types.Profile
	if err := d.db.Where("profile_id IN ?", profileIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		byID[p.ProfileID] = p
	}
	return byID, nil
}

// GetRatingValuesByTradeIDs fetches the raw rating values for a set of trades
// in a single grouped query, keyed by trade id. Averages are folded from
// these rows on every read, never stored.
func (d *Database) GetRatingValuesByTradeIDs(tradeIDs []string) (map[string][]int, error) {
	byTrade := make(map[string][]int, len(tradeIDs))
	if len(tradeIDs) == 0 {
		return byTrade, nil
	}

	var rows []struct {
		TradeID string
		Value   int
	}
	err := d.db.Model(&types.Rating{}).
		Select("trade_id, value").
		Where("trade_id IN ?", tradeIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		byTrade[row.TradeID] = append(byTrade[row.TradeID], row.Value)
	}
	return byTrade, nil
}

// GetLikeCountsByTradeIDs fetches like counts for a set of trades in a single
// grouped query, keyed by trade id.
func (d *Database) GetLikeCountsByTradeIDs(tradeIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(tradeIDs))
	if len(tradeIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		TradeID string
		Count   int
	}
	err := d.db.Model(&types.Like{}).
		Select("trade_id, COUNT(*) AS count").
		Where("trade_id IN ?", tradeIDs).
		Group("trade_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.TradeID] = row.Count
	}
	return counts, nil
}

// GetViewerRating returns the viewer's own rating for a trade, or nil.
func (d *Database) GetViewerRating(tradeID, viewerID string) (*types.Rating, error) {
	var rating types.Rating
	if err := d.db.Where("trade_id = ? AND rater_id = ?", tradeID, viewerID).First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

// ViewerHasLiked reports whether the viewer's like row exists for the trade.
func (d *Database) ViewerHasLiked(tradeID, viewerID string) (bool, error) {
	var count int64
	err := d.db.Model(&types.Like{}).
		Where("trade_id = ? AND user_id = ?", tradeID, viewerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserStats reads the store-side user_stats aggregate. The formula lives
// in the view installed by migrations; this is a pass-through.
func (d *Database) GetUserStats(userID string) (*types.UserStats, error) {
	var stats types.UserStats
	err := d.db.Raw("SELECT * FROM user_stats WHERE user_id = ?", userID).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.UserID == "" {
		// No trades and no profile row in the view yet; zero-value stats.
		stats.UserID = userID
	}
	return &stats, nil
}

// GetRankings reads the store-side user_rankings view ordered by its opaque
// rank score.
func (d *Database) GetRankings(limit int) ([]types.UserRanking, error) {
	var rankings []types.UserRanking
	err := d.db.Raw(
		"SELECT * FROM user_rankings ORDER BY rank_score DESC, username ASC LIMIT ?", limit,
	).Scan(&rankings).Error
	if err != nil {
		return nil, err
	}
	return rankings, nil
}
