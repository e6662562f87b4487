package service

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		svc := NewCategoryService(noopCategoryRepo())
		_, err := svc.Create(ctx, CreateCategoryInput{Name: "   "})
		assertValidationError(t, err)
		_, err = svc.Create(ctx, CreateCategoryInput{Name: strings.Repeat("c", 51)})
		assertValidationError(t, err)
	})

	t.Run("duplicate", func(t *testing.T) {
		repo := noopCategoryRepo()
		repo.getByNameFn = func(_ context.Context, name string) (*models.Category, error) {
			return &models.Category{ID: 1, Name: name}, nil
		}
		_, err := NewCategoryService(repo).Create(ctx, CreateCategoryInput{Name: "Go"})
		assertCode(t, err, models.CodeConflict)
	})

	t.Run("records creator", func(t *testing.T) {
		repo := noopCategoryRepo()
		var saved *models.Category
		repo.createFn = func(_ context.Context, c *models.Category) error {
			c.ID = 4
			saved = c
			return nil
		}
		actor := uint(9)
		created, err := NewCategoryService(repo).Create(ctx, CreateCategoryInput{Name: "  Go ", ActorID: &actor})
		require.NoError(t, err)
		assert.Equal(t, "Go", saved.Name)
		assert.Equal(t, uint(4), created.ID)
		require.NotNil(t, created.CreatedBy)
		assert.Equal(t, uint(9), *created.CreatedBy)
	})

	t.Run("anonymous", func(t *testing.T) {
		created, err := NewCategoryService(noopCategoryRepo()).Create(ctx, CreateCategoryInput{Name: "Rust"})
		require.NoError(t, err)
		assert.Nil(t, created.CreatedBy)
	})
}

func TestCategoryService_Delete(t *testing.T) {
	t.Parallel()
	creator := uint(5)
	stored := map[uint]*models.Category{
		1: {ID: 1, CreatedBy: &creator},
		2: {ID: 2, CreatedBy: &creator},
		3: {ID: 3},
	}
	repo := noopCategoryRepo()
	repo.deleteFn = func(_ context.Context, id uint, authorize func(*models.Category) error) error {
		c, ok := stored[id]
		if !ok {
			return models.NewNotFoundError("Category", id)
		}
		if err := authorize(c); err != nil {
			return err
		}
		if id == 1 {
			return models.NewConflictError("Category is in use by 2 post(s)")
		}
		return nil
	}
	svc := NewCategoryService(repo)
	ctx := context.Background()

	assertCode(t, svc.Delete(ctx, 5, 1), models.CodeConflict)
	assert.NoError(t, svc.Delete(ctx, 5, 2))
	assertCode(t, svc.Delete(ctx, 0, 2), models.CodeUnauthorized)
	assertCode(t, svc.Delete(ctx, 5, 9), models.CodeNotFound)

	err := svc.Delete(ctx, 6, 2)
	assertCode(t, err, models.CodeForbidden)
	assert.Equal(t, "Access denied. You can only delete categories you created.", err.Error())

	assert.NoError(t, svc.Delete(ctx, 6, 3), "anonymous categories are open to any signed-in user")
}
