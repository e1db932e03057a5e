package ratings

import (
	"errors"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/types"
	"github.com/tradepeer/tradepeer-api/pkg/response"
)

// Service enforces one rating per user per trade with idempotent upsert
// semantics keyed by (trade_id, rater_id).
type Service struct {
	db *Database
}

// NewService creates a new ratings service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// checkRange rejects values outside [1,5] and rounds to the nearest integer.
func checkRange(value float64) (int, error) {
	if value < 1 || value > 5 {
		return 0, types.NewValidationError("rating", "Rating must be between 1 and 5")
	}
	return int(math.Round(value)), nil
}

// UpsertRating creates the rater's rating for the trade or updates it in
// place when one already exists. The caller never needs to know prior state.
// A concurrent duplicate insert trips the (trade_id, rater_id) unique index
// and is retried as an update.
func (s *Service) UpsertRating(raterID, tradeID string, value float64) (*types.Rating, error) {
	if raterID == "" {
		return nil, types.ErrUnauthenticated
	}

	rounded, err := checkRange(value)
	if err != nil {
		return nil, err
	}

	existing, err := s.db.GetRatingByTradeAndRater(tradeID, raterID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.db.UpdateRatingOwned(existing.RatingID, raterID, rounded)
	}

	rating := &types.Rating{
		RatingID:  uuid.New().String(),
		TradeID:   tradeID,
		RaterID:   raterID,
		Value:     rounded,
		CreatedAt: time.Now(),
	}

	if err := s.db.CreateRating(rating); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against another request from the same user;
			// fall back to updating the row that won.
			winner, lookupErr := s.db.GetRatingByTradeAndRater(tradeID, raterID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if winner != nil {
				return s.db.UpdateRatingOwned(winner.RatingID, raterID, rounded)
			}
		}
		return nil, err
	}

	log.Debug().
		Str("rating_id", rating.RatingID).
		Str("trade_id", tradeID).
		Int("value", rounded).
		Msg("rating created")

	return rating, nil
}

// UpdateRating sets a new value on an existing rating, scoped by the acting
// user. Updating another user's rating yields the same not-found condition
// as a missing one.
func (s *Service) UpdateRating(raterID, ratingID string, value float64) (*types.Rating, error) {
	if raterID == "" {
		return nil, types.ErrUnauthenticated
	}

	rounded, err := checkRange(value)
	if err != nil {
		return nil, err
	}

	return s.db.UpdateRatingOwned(ratingID, raterID, rounded)
}

// RemoveRating deletes the rating, scoped by the acting user. Removing an
// already-removed id yields the not-found condition, not a crash.
func (s *Service) RemoveRating(raterID, ratingID string) error {
	if raterID == "" {
		return types.ErrUnauthenticated
	}
	return s.db.DeleteRatingOwned(ratingID, raterID)
}

// RatingRequest carries the rating value posted by a client.
type RatingRequest struct {
	Rating float64 `json:"rating"`
}

// GinHandlers contains HTTP handlers for rating endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for rating endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// UpsertRatingHandler handles POST requests to rate a trade
// URL parameter: trade_id
func (h *GinHandlers) UpsertRatingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		tradeID := c.Param("trade_id")
		if tradeID == "" {
			response.BadRequest(c, "Trade ID is required")
			return
		}

		var req RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		rating, err := h.service.UpsertRating(userID, tradeID, req.Rating)
		response.Handle(c, rating, err)
	}
}

// UpdateRatingHandler handles PUT requests to change an existing rating
// URL parameter: rating_id
func (h *GinHandlers) UpdateRatingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		ratingID := c.Param("rating_id")

		var req RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		rating, err := h.service.UpdateRating(userID, ratingID, req.Rating)
		response.Handle(c, rating, err)
	}
}

// RemoveRatingHandler handles DELETE requests to withdraw a rating
// URL parameter: rating_id
func (h *GinHandlers) RemoveRatingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		ratingID := c.Param("rating_id")

		if err := h.service.RemoveRating(userID, ratingID); err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"deleted": true})
	}
}
