package repository

import (
	"errors"
	"fmt"
	"testing"

	"inkwell/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueConstraintError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isUniqueConstraintError(errors.New("connection reset")))
}

func TestIsForeignKeyError(t *testing.T) {
	assert.True(t, isForeignKeyError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isForeignKeyError(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, isForeignKeyError(&pgconn.PgError{Code: "23505"}))
}

func TestNotFoundOrInternal(t *testing.T) {
	assert.NoError(t, notFoundOrInternal(nil, "Post", 1))
	assert.True(t, models.IsCode(notFoundOrInternal(gorm.ErrRecordNotFound, "Post", 1), models.CodeNotFound))
	assert.True(t, models.IsCode(notFoundOrInternal(errors.New("boom"), "Post", 1), models.CodeInternal))
	forbidden := models.NewForbiddenError("no")
	assert.Same(t, forbidden, notFoundOrInternal(forbidden, "Post", 1))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}
