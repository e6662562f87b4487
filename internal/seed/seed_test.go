package seed

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefaultFixtures(t *testing.T) {
	fx := DefaultFixtures()
	assert.Len(t, fx.Categories, 3)
	assert.Len(t, fx.Users, 2)
	assert.Len(t, fx.Posts, 2)
}

func TestLoadFixtures_UnknownReferences(t *testing.T) {
	_, err := LoadFixtures([]byte(`
categories: [Tech]
users: [{name: Ann, email: ann@example.com}]
posts: [{title: T, author: nobody@example.com, category: Tech, content: x}]
`))
	assert.ErrorContains(t, err, "unknown author")

	_, err = LoadFixtures([]byte(`
categories: [Tech]
users: [{name: Ann, email: ann@example.com}]
posts: [{title: T, author: ann@example.com, category: Food, content: x}]
`))
	assert.ErrorContains(t, err, "unknown category")

	_, err = LoadFixtures([]byte("categories: {"))
	assert.Error(t, err)
}

func TestSeed_FixturesAreIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, Options{BcryptCost: bcrypt.MinCost})
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx))
	require.NoError(t, s.Seed(ctx))

	var categories, users, posts int64
	db.Model(&models.Category{}).Count(&categories)
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	assert.Equal(t, int64(3), categories)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(2), posts)

	var hello models.Post
	require.NoError(t, db.Where("slug = ?", "hello-world").First(&hello).Error)
	assert.Equal(t, []string{"welcome", "meta"}, []string(hello.Tags))

	var ada models.User
	require.NoError(t, db.Where("email = ?", "ada@inkwell.dev").First(&ada).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ada.Password), []byte(DefaultPassword)))
}

func TestSeed_FakeDataAndClean(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	s := NewSeeder(db, Options{FakeUsers: 3, FakePosts: 10, BcryptCost: bcrypt.MinCost, RandSeed: 42})
	require.NoError(t, s.Seed(ctx))

	var users, posts int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	assert.Equal(t, int64(5), users)
	assert.Equal(t, int64(12), posts)

	var slugs []string
	require.NoError(t, db.Model(&models.Post{}).Pluck("slug", &slugs).Error)
	seen := map[string]bool{}
	for _, s := range slugs {
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}

	clean := NewSeeder(db, Options{ShouldClean: true, BcryptCost: bcrypt.MinCost})
	require.NoError(t, clean.Seed(ctx))
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(2), posts)
}

func TestFactory_BuildPost(t *testing.T) {
	f := NewFactory(nil, "hash", 7)
	author := &models.User{ID: 1}
	category := &models.Category{ID: 2}

	p := f.BuildPost(author, category)
	assert.NotEmpty(t, p.Title)
	assert.LessOrEqual(t, len([]rune(p.Title)), 100)
	assert.NotEmpty(t, p.Content)
	assert.Equal(t, uint(1), p.AuthorID)
	assert.Equal(t, uint(2), p.CategoryID)
	assert.Equal(t, models.DefaultFeaturedImage, p.FeaturedImage)
	assert.False(t, p.CreatedAt.After(f.now()))
}

func TestFactory_CreatePostsNeedsAuthors(t *testing.T) {
	f := NewFactory(testutil.NewSQLiteDB(t), "hash", 1)
	_, err := f.CreatePosts(context.Background(), nil, []*models.Category{{ID: 1}}, 3)
	assert.Error(t, err)

	posts, err := f.CreatePosts(context.Background(), nil, nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, posts)
}
