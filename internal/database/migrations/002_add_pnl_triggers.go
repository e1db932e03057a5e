package migrations

import (
	"gorm.io/gorm"
)

// AddPnlTriggers installs the store-side PnL computation. The application
// never computes pnl_percentage: the validator hands over entry/exit prices
// and these triggers fill the figure in, mirroring the store owning the
// metric. Percentage is relative to entry price, with the sign flipped for
// shorts.
func AddPnlTriggers(db *gorm.DB) error {
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS trg_trades_pnl_insert
		 AFTER INSERT ON trades
		 BEGIN
		   UPDATE trades SET pnl_percentage =
		     CASE
		       WHEN NEW.exit_price IS NULL THEN NULL
		       WHEN NEW.trade_type = 'Long'
		         THEN (NEW.exit_price - NEW.entry_price) / NEW.entry_price * 100.0
		       ELSE (NEW.entry_price - NEW.exit_price) / NEW.entry_price * 100.0
		     END
		   WHERE id = NEW.id;
		 END`,

		`CREATE TRIGGER IF NOT EXISTS trg_trades_pnl_update
		 AFTER UPDATE OF entry_price, exit_price, trade_type ON trades
		 BEGIN
		   UPDATE trades SET pnl_percentage =
		     CASE
		       WHEN NEW.exit_price IS NULL THEN NULL
		       WHEN NEW.trade_type = 'Long'
		         THEN (NEW.exit_price - NEW.entry_price) / NEW.entry_price * 100.0
		       ELSE (NEW.entry_price - NEW.exit_price) / NEW.entry_price * 100.0
		     END
		   WHERE id = NEW.id;
		 END`,
	}

	for _, trg := range triggers {
		if err := db.Exec(trg).Error; err != nil {
			return err
		}
	}

	return nil
}
