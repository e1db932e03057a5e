package ratings

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

func (d *Database) CreateRating(rating *types.Rating) error {
	return d.db.Create(rating).Error
}

func (d *Database) GetRating(ratingID string) (*types.Rating, error) {
	var rating types.Rating
	if err := d.db.Where("rating_id = ?", ratingID).First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

// GetRatingByTradeAndRater returns the rater's rating for the trade, or nil.
// The (trade_id, rater_id) unique index guarantees at most one row.
func (d *Database) GetRatingByTradeAndRater(tradeID, raterID string) (*types.Rating, error) {
	var rating types.Rating
	if err := d.db.Where("trade_id = ? AND rater_id = ?", tradeID, raterID).First(&rating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

// UpdateRatingOwned sets a new value, scoped by rating_id AND rater_id. A
// zero-row match never reveals whether the rating exists under another rater.
func (d *Database) UpdateRatingOwned(ratingID, raterID string, value int) (*types.Rating, error) {
	result := d.db.Model(&types.Rating{}).
		Where("rating_id = ? AND rater_id = ?", ratingID, raterID).
		Update("value", value)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, types.ErrNotFoundOrForbidden
	}
	return d.GetRating(ratingID)
}

// DeleteRatingOwned removes the rating, scoped by rating_id AND rater_id.
// The delete is unscoped: a soft-deleted row would keep the
// (trade_id, rater_id) pair occupied in the unique index and block the rater
// from ever rating this trade again.
func (d *Database) DeleteRatingOwned(ratingID, raterID string) error {
	result := d.db.Unscoped().Where("rating_id = ? AND rater_id = ?", ratingID, raterID).
		Delete(&types.Rating{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFoundOrForbidden
	}
	return nil
}
