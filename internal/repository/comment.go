package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines comment operations. Every comment is addressed
// through its post, and every mutation runs with the post row locked.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	Get(ctx context.Context, postID uint, commentID string) (*models.Comment, error)
	Add(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, postID uint, commentID string, mutate func(c *models.Comment) error) (*models.Comment, error)
	Delete(ctx context.Context, postID uint, commentID string, authorize func(c *models.Comment) error) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// ListByPost returns the post's comments newest first, or NotFound for an unknown post.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "ListByPost", "post_comments")
	defer span.End()

	comments := []*models.Comment{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ok, err := postExists(tx, postID); err != nil {
			return err
		} else if !ok {
			return models.NewNotFoundError("Post", postID)
		}
		if err := tx.Preload("User", summaryColumns).
			Where("post_id = ?", postID).
			Order("created_at DESC, id DESC").
			Find(&comments).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Get(ctx context.Context, postID uint, commentID string) (*models.Comment, error) {
	if ok, err := postExists(r.db.WithContext(ctx), postID); err != nil {
		return nil, err
	} else if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return findComment(r.db.WithContext(ctx), postID, commentID)
}

func findComment(db *gorm.DB, postID uint, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := db.Preload("User", summaryColumns).
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error
	if err != nil {
		return nil, notFoundOrInternal(err, "Comment", commentID)
	}
	return &comment, nil
}

// Add appends the comment with a single INSERT under the post lock, so
// concurrent adds to the same post are never lost.
func (r *commentRepository) Add(ctx context.Context, comment *models.Comment) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Add", "post_comments")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, comment.PostID); err != nil {
			return err
		}
		if err := tx.Omit("User").Create(comment).Error; err != nil {
			return models.NewInternalError(err)
		}
		var user models.User
		if err := summaryColumns(tx).First(&user, comment.UserID).Error; err != nil {
			return notFoundOrInternal(err, "User", comment.UserID)
		}
		comment.User = &user
		return nil
	})
}

// Update loads the comment under the post lock, lets mutate check ownership
// and change the content, then writes the content back.
func (r *commentRepository) Update(ctx context.Context, postID uint, commentID string, mutate func(c *models.Comment) error) (*models.Comment, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Update", "post_comments")
	defer span.End()

	var updated *models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}
		comment, err := findComment(tx, postID, commentID)
		if err != nil {
			return err
		}
		if err := mutate(comment); err != nil {
			return err
		}
		if err := tx.Model(comment).Omit("User").Update("content", comment.Content).Error; err != nil {
			return models.NewInternalError(err)
		}
		updated = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the comment under the post lock once authorize allows it.
func (r *commentRepository) Delete(ctx context.Context, postID uint, commentID string, authorize func(c *models.Comment) error) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "post_comments")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}
		comment, err := findComment(tx, postID, commentID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(comment); err != nil {
				return err
			}
		}
		if err := tx.Where("id = ? AND post_id = ?", commentID, postID).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}
