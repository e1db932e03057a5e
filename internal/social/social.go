package social

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/types"
	"github.com/tradepeer/tradepeer-api/pkg/response"
)

const maxCommentLength = 1000

// Service handles likes and comments on trades
type Service struct {
	db *Database
}

// NewService creates a new social service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// ToggleLike flips the user's like for the trade: present deletes, absent
// inserts. The lookup and the write are separate round-trips, so two
// concurrent toggles from the same user can race; both outcomes collapse to
// a consistent state here rather than surfacing as errors. Self-liking is
// not blocked - suppressing the control for the owner is presentation's job.
func (s *Service) ToggleLike(userID, tradeID string) (*types.LikeStatus, error) {
	if userID == "" {
		return nil, types.ErrUnauthenticated
	}

	existing, err := s.db.GetLikeByTradeAndUser(tradeID, userID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Unlike. A concurrent unlike may have removed the row already;
		// the delete is a no-op then and the state is what the user wanted.
		if err := s.db.DeleteLike(existing.LikeID); err != nil {
			return nil, err
		}
		return &types.LikeStatus{Liked: false}, nil
	}

	like := &types.Like{
		LikeID:  uuid.New().String(),
		TradeID: tradeID,
		UserID:  userID,
	}
	if err := s.db.CreateLike(like); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent toggle inserted first: already liked.
			return &types.LikeStatus{Liked: true}, nil
		}
		return nil, err
	}

	return &types.LikeStatus{Liked: true}, nil
}

// AddComment validates and stores a comment authored by the acting user.
func (s *Service) AddComment(userID, tradeID, content string) (*types.Comment, error) {
	if userID == "" {
		return nil, types.ErrUnauthenticated
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, types.NewValidationError("content", "Comment cannot be empty")
	}
	// Character count, not bytes: multibyte content must not hit the
	// limit early.
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, types.NewValidationError("content", "Comment must be less than 1000 characters")
	}

	comment := &types.Comment{
		CommentID: uuid.New().String(),
		TradeID:   tradeID,
		UserID:    userID,
		Content:   trimmed,
		CreatedAt: time.Now(),
	}

	if err := s.db.CreateComment(comment); err != nil {
		return nil, err
	}

	log.Debug().
		Str("comment_id", comment.CommentID).
		Str("trade_id", tradeID).
		Msg("comment created")

	return comment, nil
}

// RemoveComment deletes the comment, scoped by comment_id AND user_id. The
// caller cannot distinguish "not yours" from "doesn't exist".
func (s *Service) RemoveComment(userID, commentID string) error {
	if userID == "" {
		return types.ErrUnauthenticated
	}
	return s.db.DeleteCommentOwned(commentID, userID)
}

// GetTradeComments returns the trade's comments with author info, oldest
// first.
func (s *Service) GetTradeComments(tradeID string) ([]types.CommentWithAuthor, error) {
	return s.db.GetCommentsForTrade(tradeID)
}

// CommentRequest carries the comment text posted by a client.
type CommentRequest struct {
	Content string `json:"content"`
}

// GinHandlers contains HTTP handlers for like and comment endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for social endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ToggleLikeHandler handles POST requests to like or unlike a trade
// URL parameter: trade_id
func (h *GinHandlers) ToggleLikeHandler() gin.HandlerFunc {
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

		status, err := h.service.ToggleLike(userID, tradeID)
		response.Handle(c, status, err)
	}
}

// AddCommentHandler handles POST requests to comment on a trade
// URL parameter: trade_id
func (h *GinHandlers) AddCommentHandler() gin.HandlerFunc {
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

		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		comment, err := h.service.AddComment(userID, tradeID, req.Content)
		response.Handle(c, comment, err)
	}
}

// ListCommentsHandler handles GET requests for a trade's comments
// URL parameter: trade_id
func (h *GinHandlers) ListCommentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")
		if tradeID == "" {
			response.BadRequest(c, "Trade ID is required")
			return
		}

		comments, err := h.service.GetTradeComments(tradeID)
		response.Handle(c, comments, err)
	}
}

// RemoveCommentHandler handles DELETE requests for an authored comment
// URL parameter: comment_id
func (h *GinHandlers) RemoveCommentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		commentID := c.Param("comment_id")

		if err := h.service.RemoveComment(userID, commentID); err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"deleted": true})
	}
}
