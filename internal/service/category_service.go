package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxCategoryNameLen = 50

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

type CreateCategoryInput struct {
	Name string
	// ActorID is set when the caller presented a valid token.
	ActorID *uint
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return nil, models.NewValidationError(fmt.Sprintf("Category name too long (max %d characters)", maxCategoryNameLen))
	}

	existing, err := s.categoryRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Category already exists")
	}

	category := &models.Category{Name: name, CreatedBy: in.ActorID}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes an unused category. Only its creator may delete a category
// that records one; categories still referenced by posts are refused with a
// ConflictError.
func (s *CategoryService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	return s.categoryRepo.Delete(ctx, id, func(c *models.Category) error {
		if !CanDeleteCategory(c, actorID) {
			return models.NewForbiddenError("Access denied. You can only delete categories you created.")
		}
		return nil
	})
}
