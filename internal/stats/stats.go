package stats

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/types"
	"github.com/tradepeer/tradepeer-api/pkg/response"
)

const (
	maxPageSize        = 50
	defaultRankingSize = 100
)

// Service assembles per-trade and per-user derived statistics for display.
// Averages are folded from raw rating rows per read; leaderboard scores are
// read from the store's precomputed view and passed through unmodified.
type Service struct {
	db *Database
}

// NewService creates a new stats service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// averageOf folds rating values into their mean, 0 when the set is empty.
// Independent of the order rows come back in.
func averageOf(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// attachStats decorates a page of trades with owner info, rating aggregates
// and like counts using one grouped query per aggregate type, regardless of
// page size.
func (s *Service) attachStats(trades []types.Trade) ([]types.TradeWithStats, error) {
	tradeIDs := make([]string, 0, len(trades))
	ownerIDs := make([]string, 0, len(trades))
	seenOwners := make(map[string]bool, len(trades))
	for _, t := range trades {
		tradeIDs = append(tradeIDs, t.TradeID)
		if !seenOwners[t.UserID] {
			seenOwners[t.UserID] = true
			ownerIDs = append(ownerIDs, t.UserID)
		}
	}

	profiles, err := s.db.GetProfilesByIDs(ownerIDs)
	if err != nil {
		return nil, err
	}
	ratings, err := s.db.GetRatingValuesByTradeIDs(tradeIDs)
	if err != nil {
		return nil, err
	}
	likes, err := s.db.GetLikeCountsByTradeIDs(tradeIDs)
	if err != nil {
		return nil, err
	}

	result := make([]types.TradeWithStats, 0, len(trades))
	for _, t := range trades {
		ts := types.TradeWithStats{
			Trade:     t,
			Username:  "Unknown",
			LikeCount: likes[t.TradeID],
		}
		if p, ok := profiles[t.UserID]; ok {
			ts.Username = p.Username
			ts.AvatarURL = p.AvatarURL
		}
		values := ratings[t.TradeID]
		ts.AverageRating = averageOf(values)
		ts.TotalRatings = len(values)
		result = append(result, ts)
	}
	return result, nil
}

// GetFeed returns the newest trades with their aggregates attached.
func (s *Service) GetFeed(limit, offset int) ([]types.TradeWithStats, error) {
	limit = clampPageSize(limit)
	if offset < 0 {
		offset = 0
	}

	trades, err := s.db.GetTradesPage(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.attachStats(trades)
}

// GetTradeDetail returns a single trade with aggregates plus the viewer's own
// rating and like state when viewerID is non-empty.
func (s *Service) GetTradeDetail(tradeID, viewerID string) (*types.TradeDetail, error) {
	trade, err := s.db.GetTrade(tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, types.ErrNotFoundOrForbidden
	}

	withStats, err := s.attachStats([]types.Trade{*trade})
	if err != nil {
		return nil, err
	}

	detail := &types.TradeDetail{TradeWithStats: withStats[0]}

	if viewerID != "" {
		rating, err := s.db.GetViewerRating(tradeID, viewerID)
		if err != nil {
			return nil, err
		}
		detail.UserRating = rating

		liked, err := s.db.ViewerHasLiked(tradeID, viewerID)
		if err != nil {
			return nil, err
		}
		detail.LikedByUser = liked
	}

	return detail, nil
}

// GetProfileView assembles a profile page: public profile, store-side stats
// and the user's trades with aggregates.
func (s *Service) GetProfileView(profile *types.Profile, limit, offset int) (*types.ProfileView, error) {
	limit = clampPageSize(limit)
	if offset < 0 {
		offset = 0
	}

	userStats, err := s.db.GetUserStats(profile.ProfileID)
	if err != nil {
		return nil, err
	}

	trades, err := s.db.GetTradesByUser(profile.ProfileID, limit, offset)
	if err != nil {
		return nil, err
	}
	withStats, err := s.attachStats(trades)
	if err != nil {
		return nil, err
	}

	return &types.ProfileView{
		Profile: *profile,
		Stats:   *userStats,
		Trades:  withStats,
	}, nil
}

// GetRankings passes through the store-computed leaderboard.
func (s *Service) GetRankings(limit int) ([]types.UserRanking, error) {
	if limit <= 0 || limit > defaultRankingSize {
		limit = defaultRankingSize
	}

	rankings, err := s.db.GetRankings(limit)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(rankings)).Msg("fetched rankings")
	return rankings, nil
}

func clampPageSize(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// GinHandlers contains HTTP handlers for feed, trade-detail, profile and
// rankings endpoints
type GinHandlers struct {
	service     *Service
	authService *auth.Service
}

// NewGinHandlers creates a new set of HTTP handlers for read endpoints
func NewGinHandlers(service *Service, authService *auth.Service) *GinHandlers {
	return &GinHandlers{
		service:     service,
		authService: authService,
	}
}

// FeedHandler handles GET requests for the trade feed
// Query parameters: limit (max 50), offset
func (h *GinHandlers) FeedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", maxPageSize)
		offset := queryInt(c, "offset", 0)

		feed, err := h.service.GetFeed(limit, offset)
		response.Handle(c, feed, err)
	}
}

// TradeDetailHandler handles GET requests for a single trade with stats
// URL parameter: trade_id; viewer context is optional
func (h *GinHandlers) TradeDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")
		if tradeID == "" {
			response.BadRequest(c, "Trade ID is required")
			return
		}

		viewerID := c.GetString("userID")

		detail, err := h.service.GetTradeDetail(tradeID, viewerID)
		response.Handle(c, detail, err)
	}
}

// ProfileHandler handles GET requests for a profile with stats and trades
// URL parameter: username
func (h *GinHandlers) ProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if username == "" {
			response.BadRequest(c, "Username is required")
			return
		}

		profile, err := h.authService.GetProfileByUsername(username)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		if profile == nil {
			response.NotFound(c, "Profile not found")
			return
		}

		limit := queryInt(c, "limit", maxPageSize)
		offset := queryInt(c, "offset", 0)

		view, err := h.service.GetProfileView(profile, limit, offset)
		response.Handle(c, view, err)
	}
}

// RankingsHandler handles GET requests for the leaderboard
// Query parameter: limit (max 100)
func (h *GinHandlers) RankingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", defaultRankingSize)

		rankings, err := h.service.GetRankings(limit)
		response.Handle(c, rankings, err)
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
