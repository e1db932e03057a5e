package stats

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/database"
	"github.com/tradepeer/tradepeer-api/internal/types"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, id, username string) {
	t.Helper()
	require.NoError(t, db.Create(&types.Profile{
		ProfileID: id,
		Username:  username,
		Email:     username + "@example.test",
	}).Error)
}

func seedTrade(t *testing.T, db *gorm.DB, tradeID, userID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&types.Trade{
		TradeID:    tradeID,
		UserID:     userID,
		AssetPair:  "BTC/USD",
		TradeType:  types.TradeTypeLong,
		EntryPrice: 100,
		Strategy:   types.StrategySwing,
		Status:     types.TradeStatusOpen,
		TradeDate:  createdAt,
		CreatedAt:  createdAt,
	}).Error)
}

func seedRating(t *testing.T, db *gorm.DB, tradeID, raterID string, value int) {
	t.Helper()
	require.NoError(t, db.Create(&types.Rating{
		RatingID: fmt.Sprintf("r-%s-%s", tradeID, raterID),
		TradeID:  tradeID,
		RaterID:  raterID,
		Value:    value,
	}).Error)
}

func seedLike(t *testing.T, db *gorm.DB, tradeID, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&types.Like{
		LikeID:  fmt.Sprintf("l-%s-%s", tradeID, userID),
		TradeID: tradeID,
		UserID:  userID,
	}).Error)
}

func TestAverageOf(t *testing.T) {
	assert.Zero(t, averageOf(nil), "empty set averages to 0, not NaN")
	assert.Equal(t, 3.0, averageOf([]int{3}))
	assert.Equal(t, 3.0, averageOf([]int{1, 3, 5}))

	// Order-independence
	assert.Equal(t, averageOf([]int{5, 3, 1}), averageOf([]int{1, 5, 3}))
	assert.InDelta(t, 10.0/3.0, averageOf([]int{5, 4, 1}), 1e-12)
}

func TestGetFeed_AttachesAggregates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedProfile(t, db, "user-1", "alice_trades")
	seedTrade(t, db, "trade-1", "user-1", time.Now().Add(-time.Hour))
	seedTrade(t, db, "trade-2", "user-1", time.Now())

	seedRating(t, db, "trade-1", "rater-1", 5)
	seedRating(t, db, "trade-1", "rater-2", 4)
	seedLike(t, db, "trade-1", "rater-1")
	seedLike(t, db, "trade-1", "rater-2")
	seedLike(t, db, "trade-1", "rater-3")

	feed, err := svc.GetFeed(50, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	// Newest first
	assert.Equal(t, "trade-2", feed[0].TradeID)
	assert.Equal(t, "trade-1", feed[1].TradeID)

	// Unrated trade
	assert.Zero(t, feed[0].AverageRating)
	assert.Zero(t, feed[0].TotalRatings)
	assert.Zero(t, feed[0].LikeCount)
	assert.Equal(t, "alice_trades", feed[0].Username)

	// Rated trade
	assert.InDelta(t, 4.5, feed[1].AverageRating, 1e-12)
	assert.Equal(t, 2, feed[1].TotalRatings)
	assert.Equal(t, 3, feed[1].LikeCount)
}

func TestGetFeed_UnknownOwnerFallback(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedTrade(t, db, "trade-1", "ghost-user", time.Now())

	feed, err := svc.GetFeed(50, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Unknown", feed[0].Username)
	assert.Nil(t, feed[0].AvatarURL)
}

func TestGetFeed_ClampsPageSize(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedProfile(t, db, "user-1", "alice_trades")
	for i := 0; i < 60; i++ {
		seedTrade(t, db, fmt.Sprintf("trade-%02d", i), "user-1",
			time.Now().Add(-time.Duration(i)*time.Minute))
	}

	feed, err := svc.GetFeed(500, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 50, "limit clamped to page-size cap")

	feed, err = svc.GetFeed(-1, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 50)

	feed, err = svc.GetFeed(10, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 10)
}

func TestGetTradeDetail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedProfile(t, db, "user-1", "alice_trades")
	seedTrade(t, db, "trade-1", "user-1", time.Now())
	seedRating(t, db, "trade-1", "viewer", 4)
	seedLike(t, db, "trade-1", "viewer")

	// Anonymous viewer gets aggregates only
	detail, err := svc.GetTradeDetail("trade-1", "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, detail.AverageRating)
	assert.Equal(t, 1, detail.TotalRatings)
	assert.Equal(t, 1, detail.LikeCount)
	assert.Nil(t, detail.UserRating)
	assert.False(t, detail.LikedByUser)

	// The rater sees their own rating and like state
	detail, err = svc.GetTradeDetail("trade-1", "viewer")
	require.NoError(t, err)
	require.NotNil(t, detail.UserRating)
	assert.Equal(t, 4, detail.UserRating.Value)
	assert.True(t, detail.LikedByUser)

	// Another signed-in user sees neither
	detail, err = svc.GetTradeDetail("trade-1", "someone-else")
	require.NoError(t, err)
	assert.Nil(t, detail.UserRating)
	assert.False(t, detail.LikedByUser)

	_, err = svc.GetTradeDetail("missing", "")
	assert.ErrorIs(t, err, types.ErrNotFoundOrForbidden)
}

func TestAverageRecomputedPerRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedProfile(t, db, "user-1", "alice_trades")
	seedTrade(t, db, "trade-1", "user-1", time.Now())

	detail, err := svc.GetTradeDetail("trade-1", "")
	require.NoError(t, err)
	assert.Zero(t, detail.AverageRating)
	assert.Zero(t, detail.TotalRatings)

	// 0 -> 5
	seedRating(t, db, "trade-1", "rater", 5)
	detail, err = svc.GetTradeDetail("trade-1", "")
	require.NoError(t, err)
	assert.Equal(t, 5.0, detail.AverageRating)
	assert.Equal(t, 1, detail.TotalRatings)

	// 5 -> 3 after the rater changes their mind; count stays 1
	require.NoError(t, db.Model(&types.Rating{}).
		Where("trade_id = ? AND rater_id = ?", "trade-1", "rater").
		Update("value", 3).Error)
	detail, err = svc.GetTradeDetail("trade-1", "")
	require.NoError(t, err)
	assert.Equal(t, 3.0, detail.AverageRating)
	assert.Equal(t, 1, detail.TotalRatings)
}

func TestGetProfileView(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedProfile(t, db, "user-1", "alice_trades")
	seedTrade(t, db, "trade-1", "user-1", time.Now())

	exit := 110.0
	require.NoError(t, db.Create(&types.Trade{
		TradeID:    "trade-2",
		UserID:     "user-1",
		AssetPair:  "ETH/USD",
		TradeType:  types.TradeTypeLong,
		EntryPrice: 100,
		ExitPrice:  &exit,
		Strategy:   types.StrategyScalp,
		Status:     types.TradeStatusClosed,
		TradeDate:  time.Now().Add(-time.Hour),
		CreatedAt:  time.Now().Add(-time.Hour),
	}).Error)

	seedRating(t, db, "trade-1", "rater", 4)

	var profile types.Profile
	require.NoError(t, db.Where("profile_id = ?", "user-1").First(&profile).Error)

	view, err := svc.GetProfileView(&profile, 50, 0)
	require.NoError(t, err)

	assert.Equal(t, "alice_trades", view.Username)
	assert.Equal(t, 2, view.Stats.TotalTrades)
	assert.Equal(t, 1, view.Stats.TotalClosedTrades)
	assert.Equal(t, 1, view.Stats.TotalRatings)
	assert.Equal(t, 4.0, view.Stats.AverageRating)
	require.Len(t, view.Trades, 2)
}

func TestGetRankings_PassThroughShape(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	seedProfile(t, db, "user-1", "alice_trades")
	seedProfile(t, db, "user-2", "bob_trades")

	seedTrade(t, db, "trade-1", "user-1", time.Now())
	seedRating(t, db, "trade-1", "user-2", 5)
	seedRating(t, db, "trade-1", "rater-3", 4)

	rankings, err := svc.GetRankings(10)
	require.NoError(t, err)
	require.Len(t, rankings, 2)

	// Ordered by the store's score, highest first; the formula itself is
	// the store's business, only the ordering and shape are checked here.
	assert.Equal(t, "alice_trades", rankings[0].Username)
	assert.Greater(t, rankings[0].RankScore, rankings[1].RankScore)
	assert.Equal(t, 1, rankings[0].TotalTrades)
	assert.Equal(t, 2, rankings[0].TotalRatings)
	assert.InDelta(t, 4.5, rankings[0].AverageRating, 1e-12)

	// A profile with no trades still ranks, with zeroed aggregates
	assert.Equal(t, "bob_trades", rankings[1].Username)
	assert.Zero(t, rankings[1].TotalTrades)
	assert.Zero(t, rankings[1].AverageRating)
}

func TestGetRankings_Limit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	for i := 0; i < 5; i++ {
		seedProfile(t, db, fmt.Sprintf("user-%d", i), fmt.Sprintf("trader_%d", i))
	}

	rankings, err := svc.GetRankings(3)
	require.NoError(t, err)
	assert.Len(t, rankings, 3)
}

func TestGetUserStats_EmptyUser(t *testing.T) {
	db := setupTestDB(t)

	store := NewDatabase(db)
	stats, err := store.GetUserStats("nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", stats.UserID)
	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.AverageRating)
}
