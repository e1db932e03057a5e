package migrations

import (
	"gorm.io/gorm"
)

// AddSocialUniqueness backs the one-rating and one-like per (trade, user)
// invariants with unique indexes, plus lookup indexes for the aggregation
// reader's grouped queries.
// Using raw SQL for index creation to have more control over index types
func AddSocialUniqueness(db *gorm.DB) error {
	indexes := []string{
		// At most one rating per rater per trade
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ratings_trade_rater
		 ON ratings(trade_id, rater_id)`,

		// At most one like per user per trade
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_trade_user
		 ON likes(trade_id, user_id)`,

		// Feed page ordering
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at
		 ON trades(created_at)`,

		// Grouped aggregate fetches keyed by trade id
		`CREATE INDEX IF NOT EXISTS idx_ratings_trade_id
		 ON ratings(trade_id)`,

		`CREATE INDEX IF NOT EXISTS idx_likes_trade_id
		 ON likes(trade_id)`,

		// Comment listing per trade
		`CREATE INDEX IF NOT EXISTS idx_comments_trade_id
		 ON comments(trade_id)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
