package types

import "time"

// TradeWithStats is the read model served to feed and trade-detail consumers.
// AverageRating and TotalRatings are recomputed from raw rating rows on every
// read; nothing here is stored denormalized.
type TradeWithStats struct {
	Trade
	Username      string  `json:"username"`
	AvatarURL     *string `json:"avatar_url"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
	LikeCount     int     `json:"like_count"`
}

// TradeDetail adds the requesting user's own rating and like state, when the
// request carried a valid token.
type TradeDetail struct {
	TradeWithStats
	UserRating  *Rating `json:"user_rating,omitempty"`
	LikedByUser bool    `json:"liked_by_user"`
}

// CommentWithAuthor is a comment joined with its author's public profile.
type CommentWithAuthor struct {
	Comment
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// LikeStatus is the result of a like toggle.
type LikeStatus struct {
	Liked bool `json:"liked"`
}

// UserStats is an external store aggregate passed through unmodified.
type UserStats struct {
	UserID            string  `json:"user_id"`
	TotalTrades       int     `json:"total_trades"`
	TotalRatings      int     `json:"total_ratings"`
	AverageRating     float64 `json:"average_rating"`
	TotalClosedTrades int     `json:"total_closed_trades"`
	AveragePnl        float64 `json:"average_pnl"`
}

// UserRanking is one row of the leaderboard view. RankScore is computed
// entirely by the store; this service never recomputes it.
type UserRanking struct {
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	AvatarURL     *string `json:"avatar_url"`
	TotalTrades   int     `json:"total_trades"`
	TotalRatings  int     `json:"total_ratings"`
	AverageRating float64 `json:"average_rating"`
	RankScore     float64 `json:"rank_score"`
	ClosedTrades  int     `json:"closed_trades"`
	AveragePnl    float64 `json:"average_pnl"`
}

// ProfileView bundles a profile with its stats and trades for the profile page.
type ProfileView struct {
	Profile
	Stats  UserStats        `json:"stats"`
	Trades []TradeWithStats `json:"trades"`
}

// TokenResponse is returned by sign-in.
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
}
