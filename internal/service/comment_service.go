package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxCommentLen = 500

type CommentService struct {
	commentRepo repository.CommentRepository
}

type AddCommentInput struct {
	ActorID uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	ActorID   uint
	PostID    uint
	CommentID string
	Content   string
}

type DeleteCommentInput struct {
	ActorID   uint
	PostID    uint
	CommentID string
}

func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

func (s *CommentService) List(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *CommentService) Get(ctx context.Context, postID uint, commentID string) (*models.Comment, error) {
	if strings.TrimSpace(commentID) == "" {
		return nil, models.NewValidationError("Invalid comment ID")
	}
	return s.commentRepo.Get(ctx, postID, commentID)
}

func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	content, err := commentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.ActorID,
		Content: content,
	}
	if err := s.commentRepo.Add(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	content, err := commentContent(in.Content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CommentID) == "" {
		return nil, models.NewValidationError("Invalid comment ID")
	}

	return s.commentRepo.Update(ctx, in.PostID, in.CommentID, func(c *models.Comment) error {
		if !CanModifyComment(c, in.ActorID) {
			return models.NewForbiddenError("Access denied. You can only update your own comments.")
		}
		c.Content = content
		return nil
	})
}

func (s *CommentService) Delete(ctx context.Context, in DeleteCommentInput) error {
	if strings.TrimSpace(in.CommentID) == "" {
		return models.NewValidationError("Invalid comment ID")
	}
	return s.commentRepo.Delete(ctx, in.PostID, in.CommentID, func(c *models.Comment) error {
		if !CanModifyComment(c, in.ActorID) {
			return models.NewForbiddenError("Access denied. You can only delete your own comments.")
		}
		return nil
	})
}

func commentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxCommentLen {
		return "", models.NewValidationError(fmt.Sprintf("Comment must be between 1 and %d characters", maxCommentLen))
	}
	return content, nil
}
