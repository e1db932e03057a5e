package types

import (
	"time"

	"gorm.io/gorm"
)

// Trade type values accepted by the validator.
const (
	TradeTypeLong  = "Long"
	TradeTypeShort = "Short"
)

// Strategy values accepted by the validator.
const (
	StrategyScalp    = "Scalp"
	StrategySwing    = "Swing"
	StrategyDayTrade = "Day trade"
)

// Trade status values offered by the UI. Status is not enum-restricted
// beyond defaulting to Open when absent.
const (
	TradeStatusOpen   = "Open"
	TradeStatusClosed = "Closed"
)

type Trade struct {
	gorm.Model    `json:"-"`
	TradeID       string    `gorm:"uniqueIndex" json:"trade_id"`
	UserID        string    `gorm:"index" json:"user_id"`
	AssetPair     string    `json:"asset_pair"`
	TradeType     string    `json:"trade_type"` // Long or Short
	EntryPrice    float64   `json:"entry_price"`
	ExitPrice     *float64  `json:"exit_price"`
	PositionSize  *float64  `json:"position_size"`
	PnlPercentage *float64  `json:"pnl_percentage"` // populated store-side, never by the validator
	Strategy      string    `json:"strategy"`       // Scalp, Swing, Day trade
	Notes         *string   `json:"notes"`
	Status        string    `json:"status"` // Open or Closed
	TradeDate     time.Time `json:"trade_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Rating holds a single user's 1-5 score for a trade. The composite unique
// index keeps at most one row per (trade_id, rater_id).
type Rating struct {
	gorm.Model `json:"-"`
	RatingID   string    `gorm:"uniqueIndex" json:"rating_id"`
	TradeID    string    `gorm:"uniqueIndex:idx_ratings_trade_rater" json:"trade_id"`
	RaterID    string    `gorm:"uniqueIndex:idx_ratings_trade_rater" json:"rater_id"`
	Value      int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// Like rows carry no flag: the row's presence is the liked state.
type Like struct {
	gorm.Model `json:"-"`
	LikeID     string `gorm:"uniqueIndex" json:"like_id"`
	TradeID    string `gorm:"uniqueIndex:idx_likes_trade_user" json:"trade_id"`
	UserID     string `gorm:"uniqueIndex:idx_likes_trade_user" json:"user_id"`
}

type Comment struct {
	gorm.Model `json:"-"`
	CommentID  string    `gorm:"uniqueIndex" json:"comment_id"`
	TradeID    string    `gorm:"index" json:"trade_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type Profile struct {
	gorm.Model   `json:"-"`
	ProfileID    string    `gorm:"uniqueIndex" json:"profile_id"`
	Username     string    `gorm:"uniqueIndex" json:"username"`
	Email        string    `gorm:"uniqueIndex" json:"-"`
	PasswordHash string    `json:"-"`
	AvatarURL    *string   `json:"avatar_url"`
	Bio          *string   `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
