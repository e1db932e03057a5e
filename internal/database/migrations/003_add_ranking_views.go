package migrations

import (
	"gorm.io/gorm"
)

// AddRankingViews installs the store-side aggregate views. The ranking score
// formula lives here and only here; the Go services read these views and
// pass the rows through without recomputing anything.
func AddRankingViews(db *gorm.DB) error {
	views := []string{
		`CREATE VIEW IF NOT EXISTS user_stats AS
		 SELECT
		   p.profile_id AS user_id,
		   COUNT(DISTINCT t.trade_id) AS total_trades,
		   COUNT(DISTINCT r.rating_id) AS total_ratings,
		   COALESCE(AVG(r.value), 0) AS average_rating,
		   COUNT(DISTINCT CASE WHEN t.status = 'Closed' THEN t.trade_id END) AS total_closed_trades,
		   COALESCE(AVG(CASE WHEN t.status = 'Closed' THEN t.pnl_percentage END), 0) AS average_pnl
		 FROM profiles p
		 LEFT JOIN trades t ON t.user_id = p.profile_id AND t.deleted_at IS NULL
		 LEFT JOIN ratings r ON r.trade_id = t.trade_id AND r.deleted_at IS NULL
		 WHERE p.deleted_at IS NULL
		 GROUP BY p.profile_id`,

		`CREATE VIEW IF NOT EXISTS user_rankings AS
		 SELECT
		   p.profile_id AS user_id,
		   p.username AS username,
		   p.avatar_url AS avatar_url,
		   COUNT(DISTINCT t.trade_id) AS total_trades,
		   COUNT(DISTINCT r.rating_id) AS total_ratings,
		   COALESCE(AVG(r.value), 0) AS average_rating,
		   COUNT(DISTINCT CASE WHEN t.status = 'Closed' THEN t.trade_id END) AS closed_trades,
		   COALESCE(AVG(CASE WHEN t.status = 'Closed' THEN t.pnl_percentage END), 0) AS average_pnl,
		   COALESCE(AVG(r.value), 0) * 10.0
		     + COUNT(DISTINCT r.rating_id) * 2.0
		     + COUNT(DISTINCT CASE WHEN t.status = 'Closed' THEN t.trade_id END) * 1.0
		     + COALESCE(AVG(CASE WHEN t.status = 'Closed' THEN t.pnl_percentage END), 0) * 0.5
		     AS rank_score
		 FROM profiles p
		 LEFT JOIN trades t ON t.user_id = p.profile_id AND t.deleted_at IS NULL
		 LEFT JOIN ratings r ON r.trade_id = t.trade_id AND r.deleted_at IS NULL
		 WHERE p.deleted_at IS NULL
		 GROUP BY p.profile_id, p.username, p.avatar_url`,
	}

	for _, view := range views {
		if err := db.Exec(view).Error; err != nil {
			return err
		}
	}

	return nil
}
