package social

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

// GetLikeByTradeAndUser returns the user's like row for the trade, or nil.
// The row's presence is the liked state.
func (d *Database) GetLikeByTradeAndUser(tradeID, userID string) (*types.Like, error) {
	var like types.Like
	if err := d.db.Where("trade_id = ? AND user_id = ?", tradeID, userID).First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

func (d *Database) CreateLike(like *types.Like) error {
	return d.db.Create(like).Error
}

// DeleteLike removes a like row by id. The delete is unscoped: a like row is
// pure presence, and a soft-deleted row would keep the (trade_id, user_id)
// pair occupied in the unique index, blocking a later re-like. Deleting an
// already-removed row is a no-op, which makes a racing double-unlike
// harmless.
func (d *Database) DeleteLike(likeID string) error {
	return d.db.Unscoped().Where("like_id = ?", likeID).Delete(&types.Like{}).Error
}

func (d *Database) CreateComment(comment *types.Comment) error {
	return d.db.Create(comment).Error
}

// GetCommentsForTrade returns the trade's comments joined with author
// profiles, oldest first.
func (d *Database) GetCommentsForTrade(tradeID string) ([]types.CommentWithAuthor, error) {
	var comments []types.CommentWithAuthor
	err := d.db.Table("comments").
		Select("comments.*, profiles.username AS username, profiles.avatar_url AS avatar_url").
		Joins("JOIN profiles ON profiles.profile_id = comments.user_id").
		Where("comments.trade_id = ? AND comments.deleted_at IS NULL", tradeID).
		Order("comments.created_at ASC").
		Scan(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteCommentOwned removes the comment, scoped by comment_id AND user_id.
func (d *Database) DeleteCommentOwned(commentID, userID string) error {
	result := d.db.Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&types.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrNotFoundOrForbidden
	}
	return nil
}
