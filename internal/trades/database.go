package trades

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

func (d *Database) CreateTrade(trade *types.Trade) error {
	return d.db.Create(trade).Error
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

// UpdateTradeOwned applies the patch to the trade only when the acting user
// owns it. A zero-row match is indistinguishable from a missing trade.
func (d *Database) UpdateTradeOwned(tradeID, userID string, patch map[string]interface{}) (*types.Trade, error) {
	result := d.db.Model(&types.Trade{}).
		Where("trade_id = ? AND user_id = ?", tradeID, userID).
		Updates(patch)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, types.ErrNotFoundOrForbidden
	}
	return d.GetTrade(tradeID)
}

// DeleteTradeOwned removes the trade when the acting user owns it.
func (d *Database) DeleteTradeOwned(tradeID, userID string) error {
	result := d.db.Where("trade_id = ? AND user_id = ?", tradeID, userID).
		Delete(&types.Trade{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFoundOrForbidden
	}
	return nil
}
