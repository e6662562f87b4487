package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/slug"

	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory database with the full schema applied.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		SQLitePath:   ":memory:",
		DBSchemaMode: database.SchemaModeAuto,
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: fmt.Sprintf("%s@example.com", name), Password: "$2a$10$placeholder"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateCategory inserts a category.
func CreateCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

// CreatePost inserts a post with a unique slug derived from its title. A zero
// createdAt is filled in by GORM.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, category *models.Category, title, content string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:         title,
		Content:       content,
		Slug:          fmt.Sprintf("%s-%d", slug.Make(title), time.Now().UnixNano()),
		FeaturedImage: models.DefaultFeaturedImage,
		AuthorID:      author.ID,
		CategoryID:    category.ID,
		CreatedAt:     createdAt,
	}
	if err := db.Omit("Author", "Category", "Comments").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
