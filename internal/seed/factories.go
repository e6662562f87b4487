package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// maxFakeAge bounds how far back generated posts are dated.
const maxFakeAge = 90 * 24 * time.Hour

// Factory builds domain entities with fake content and persists them.
type Factory struct {
	db           *gorm.DB
	faker        *gofakeit.Faker
	passwordHash string
	now          func() time.Time
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, passwordHash string, seed int64) *Factory {
	return &Factory{
		db:           db,
		faker:        gofakeit.New(seed),
		passwordHash: passwordHash,
		now:          time.Now,
	}
}

// CreateUser persists a user with a generated name and a unique email.
func (f *Factory) CreateUser(ctx context.Context) (*models.User, error) {
	name := truncate(f.faker.Name(), 50)
	local := strings.ToLower(strings.ReplaceAll(f.faker.Username(), " ", ""))
	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s.%d@example.com", local, f.faker.Number(1000, 999999)),
		Password: f.passwordHash,
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post with markdown content and a creation time
// somewhere in the last few months.
func (f *Factory) BuildPost(author *models.User, category *models.Category) *models.Post {
	title := strings.TrimSuffix(truncate(f.faker.Sentence(f.faker.Number(3, 8)), 100), ".")
	paragraphs := make([]string, 0, 4)
	paragraphs = append(paragraphs, "## "+f.faker.HackerPhrase())
	for i := 0; i < f.faker.Number(1, 3); i++ {
		paragraphs = append(paragraphs, f.faker.Paragraph(1, 4, 12, " "))
	}

	tags := models.Tags{}
	for i := 0; i < f.faker.Number(0, 3); i++ {
		tag := strings.ToLower(f.faker.BuzzWord())
		if !containsTag(tags, tag) {
			tags = append(tags, tag)
		}
	}

	now := f.now()
	return &models.Post{
		Title:         title,
		Content:       strings.Join(paragraphs, "\n\n"),
		Excerpt:       truncate(f.faker.Sentence(12), 200),
		FeaturedImage: models.DefaultFeaturedImage,
		AuthorID:      author.ID,
		CategoryID:    category.ID,
		Tags:          tags,
		IsPublished:   f.faker.Bool(),
		ViewCount:     int64(f.faker.Number(0, 500)),
		CreatedAt:     f.faker.DateRange(now.Add(-maxFakeAge), now),
	}
}

// CreatePosts persists n generated posts, spreading them over the given
// authors and categories, each with a few comments from random authors.
func (f *Factory) CreatePosts(ctx context.Context, authors []*models.User, categories []*models.Category, n int) ([]*models.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	if len(authors) == 0 || len(categories) == 0 {
		return nil, fmt.Errorf("fake posts need at least one author and one category")
	}

	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := authors[f.faker.Number(0, len(authors)-1)]
		category := categories[f.faker.Number(0, len(categories)-1)]
		post := f.BuildPost(author, category)
		if err := insertPost(ctx, f.db, post); err != nil {
			return posts, err
		}
		for j := 0; j < f.faker.Number(0, 3); j++ {
			commenter := authors[f.faker.Number(0, len(authors)-1)]
			if _, err := f.CreateComment(ctx, post, commenter); err != nil {
				return posts, err
			}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// CreateComment persists a short generated comment on post.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   truncate(f.faker.Sentence(f.faker.Number(4, 20)), 500),
		CreatedAt: f.faker.DateRange(post.CreatedAt, f.now()),
	}
	if err := f.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}

func containsTag(tags models.Tags, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
