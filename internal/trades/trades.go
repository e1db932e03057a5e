package trades

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/types"
	"github.com/tradepeer/tradepeer-api/pkg/response"
)

// Service handles trade submission and owner-scoped mutation
type Service struct {
	db *Database
}

// NewService creates a new trades service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// SubmitTrade validates a raw submission and persists it with ownership
// injected from the acting user, never from client input. Validation failure
// writes nothing.
func (s *Service) SubmitTrade(userID string, input TradeInput) (*types.Trade, error) {
	if userID == "" {
		return nil, types.ErrUnauthenticated
	}

	trade, err := Validate(input, time.Now())
	if err != nil {
		return nil, err
	}

	trade.TradeID = uuid.New().String()
	trade.UserID = userID
	trade.CreatedAt = time.Now()
	trade.UpdatedAt = time.Now()

	if err := s.db.CreateTrade(trade); err != nil {
		return nil, err
	}

	log.Info().
		Str("trade_id", trade.TradeID).
		Str("user_id", userID).
		Str("asset_pair", trade.AssetPair).
		Str("trade_type", trade.TradeType).
		Msg("trade created")

	return trade, nil
}

// UpdateTrade re-validates the full input and applies it to the trade,
// scoped by trade_id AND user_id.
func (s *Service) UpdateTrade(userID, tradeID string, input TradeInput) (*types.Trade, error) {
	if userID == "" {
		return nil, types.ErrUnauthenticated
	}

	validated, err := Validate(input, time.Now())
	if err != nil {
		return nil, err
	}

	patch := map[string]interface{}{
		"asset_pair":    validated.AssetPair,
		"trade_type":    validated.TradeType,
		"entry_price":   validated.EntryPrice,
		"exit_price":    validated.ExitPrice,
		"position_size": validated.PositionSize,
		"strategy":      validated.Strategy,
		"notes":         validated.Notes,
		"status":        validated.Status,
		"trade_date":    validated.TradeDate,
		"updated_at":    time.Now(),
	}

	return s.db.UpdateTradeOwned(tradeID, userID, patch)
}

// DeleteTrade removes the trade, scoped by trade_id AND user_id.
func (s *Service) DeleteTrade(userID, tradeID string) error {
	if userID == "" {
		return types.ErrUnauthenticated
	}
	return s.db.DeleteTradeOwned(tradeID, userID)
}

// GetTrade retrieves a raw trade row by its ID
func (s *Service) GetTrade(tradeID string) (*types.Trade, error) {
	return s.db.GetTrade(tradeID)
}

// GinHandlers contains HTTP handlers for trade endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trade endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SubmitTradeHandler handles POST requests to create new trades
// Requires a valid JWT token; request body carries the raw form fields
func (h *GinHandlers) SubmitTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		var input TradeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.SubmitTrade(userID, input)
		response.Handle(c, trade, err)
	}
}

// UpdateTradeHandler handles PUT requests to update an owned trade
// URL parameter: trade_id
func (h *GinHandlers) UpdateTradeHandler() gin.HandlerFunc {
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

		var input TradeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.UpdateTrade(userID, tradeID, input)
		response.Handle(c, trade, err)
	}
}

// DeleteTradeHandler handles DELETE requests for an owned trade
// URL parameter: trade_id
func (h *GinHandlers) DeleteTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		tradeID := c.Param("trade_id")

		if err := h.service.DeleteTrade(userID, tradeID); err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"deleted": true})
	}
}
