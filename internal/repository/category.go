package repository

import (
	"context"
	"fmt"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint, authorize func(*models.Category) error) error
}

type categoryRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCategoryRepository returns a new CategoryRepository implementation. c may be nil.
func NewCategoryRepository(db *gorm.DB, c *cache.Cache) CategoryRepository {
	return &categoryRepository{db: db, cache: c}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "Category", id)
	}
	return &category, nil
}

// GetByName returns nil, nil when no category has exactly this name.
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(categories) == 0 {
		return nil, nil
	}
	return &categories[0], nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Category already exists")
		}
		return models.NewInternalError(err)
	}
	r.cache.Invalidate(ctx, cache.CategoriesKey)
	return nil
}

// Delete lets authorize veto, then refuses to remove a category that posts
// still reference.
func (r *categoryRepository) Delete(ctx context.Context, id uint, authorize func(*models.Category) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Select("id", "created_by").First(&category, id).Error; err != nil {
			return notFoundOrInternal(err, "Category", id)
		}
		if authorize != nil {
			if err := authorize(&category); err != nil {
				return err
			}
		}

		var inUse int64
		if err := tx.Model(&models.Post{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return models.NewInternalError(err)
		}
		if inUse > 0 {
			return models.NewConflictError(fmt.Sprintf("Category is in use by %d post(s)", inUse))
		}

		if err := tx.Delete(&models.Category{}, id).Error; err != nil {
			if isForeignKeyError(err) {
				return models.NewConflictError("Category is in use")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cache.CategoriesKey)
	return nil
}
