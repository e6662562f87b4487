// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/slug"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

//go:embed data/fixtures.yaml
var fixturesYAML []byte

// Options configuration for the seeder
type Options struct {
	FakeUsers   int
	FakePosts   int
	ShouldClean bool
	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost int
	// RandSeed makes fake data reproducible when non-zero.
	RandSeed int64
}

// Fixtures is the hand-written demo data set.
type Fixtures struct {
	Categories []string      `yaml:"categories"`
	Users      []FixtureUser `yaml:"users"`
	Posts      []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type FixturePost struct {
	Title     string   `yaml:"title"`
	Author    string   `yaml:"author"`
	Category  string   `yaml:"category"`
	Excerpt   string   `yaml:"excerpt"`
	Tags      []string `yaml:"tags"`
	Published bool     `yaml:"published"`
	Content   string   `yaml:"content"`
}

// LoadFixtures parses a fixture document and checks that every post refers to
// a declared author and category.
func LoadFixtures(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	emails := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		emails[strings.ToLower(u.Email)] = true
	}
	categories := make(map[string]bool, len(fx.Categories))
	for _, c := range fx.Categories {
		categories[c] = true
	}
	for _, p := range fx.Posts {
		if !emails[strings.ToLower(p.Author)] {
			return nil, fmt.Errorf("fixture post %q: unknown author %q", p.Title, p.Author)
		}
		if !categories[p.Category] {
			return nil, fmt.Errorf("fixture post %q: unknown category %q", p.Title, p.Category)
		}
	}
	return &fx, nil
}

// DefaultFixtures returns the embedded demo data set.
func DefaultFixtures() *Fixtures {
	fx, err := LoadFixtures(fixturesYAML)
	if err != nil {
		panic(err)
	}
	return fx
}

// Seeder writes fixtures and generated content.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{db: db, opts: opts}
}

// Seed populates the database with the embedded fixtures and, when requested,
// generated users and posts. Fixture rows that already exist are left alone.
func (s *Seeder) Seed(ctx context.Context) error {
	log.Printf("🌱 Starting database seeding (fake users=%d, fake posts=%d)...", s.opts.FakeUsers, s.opts.FakePosts)

	if s.opts.ShouldClean {
		if err := s.Clean(ctx); err != nil {
			return fmt.Errorf("failed to clean database: %w", err)
		}
	}

	fx := DefaultFixtures()
	categories, err := EnsureCategories(ctx, s.db, fx.Categories)
	if err != nil {
		return fmt.Errorf("failed to create categories: %w", err)
	}
	log.Printf("✓ %d categories available", len(categories))

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users, err := s.ensureUsers(ctx, fx.Users, string(hash))
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d fixture users available", len(users))

	created, err := s.ensurePosts(ctx, fx.Posts, users, categories)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d fixture posts created", created)

	if s.opts.FakeUsers > 0 || s.opts.FakePosts > 0 {
		f := NewFactory(s.db, string(hash), s.opts.RandSeed)
		authors := make([]*models.User, 0, len(users)+s.opts.FakeUsers)
		for _, u := range users {
			authors = append(authors, u)
		}
		for i := 0; i < s.opts.FakeUsers; i++ {
			u, err := f.CreateUser(ctx)
			if err != nil {
				return fmt.Errorf("failed to create fake user: %w", err)
			}
			authors = append(authors, u)
		}
		log.Printf("✓ %d fake users created", s.opts.FakeUsers)

		cats := make([]*models.Category, 0, len(categories))
		for _, c := range categories {
			cats = append(cats, c)
		}
		if _, err := f.CreatePosts(ctx, authors, cats, s.opts.FakePosts); err != nil {
			return fmt.Errorf("failed to create fake posts: %w", err)
		}
		log.Printf("✓ %d fake posts created", s.opts.FakePosts)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// Clean removes all blog content and accounts, children first.
func (s *Seeder) Clean(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Category{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureCategories creates any missing categories by name and returns all of
// them keyed by name.
func EnsureCategories(ctx context.Context, db *gorm.DB, names []string) (map[string]*models.Category, error) {
	out := make(map[string]*models.Category, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c := &models.Category{}
		if err := db.WithContext(ctx).Where(models.Category{Name: name}).FirstOrCreate(c).Error; err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}

func (s *Seeder) ensureUsers(ctx context.Context, users []FixtureUser, hash string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(users))
	for _, fu := range users {
		email := strings.ToLower(strings.TrimSpace(fu.Email))
		u := &models.User{}
		err := s.db.WithContext(ctx).
			Where(models.User{Email: email}).
			Attrs(models.User{Name: fu.Name, Password: hash}).
			FirstOrCreate(u).Error
		if err != nil {
			return nil, err
		}
		out[email] = u
	}
	return out, nil
}

func (s *Seeder) ensurePosts(ctx context.Context, posts []FixturePost, users map[string]*models.User, categories map[string]*models.Category) (int, error) {
	created := 0
	// Fixture posts are dated an hour apart, in file order.
	base := time.Now().Add(-time.Duration(len(posts)) * time.Hour)
	for i, fp := range posts {
		author := users[strings.ToLower(fp.Author)]
		category := categories[fp.Category]

		var existing int64
		if err := s.db.WithContext(ctx).Model(&models.Post{}).
			Where("title = ? AND author_id = ?", fp.Title, author.ID).
			Count(&existing).Error; err != nil {
			return created, err
		}
		if existing > 0 {
			continue
		}

		post := &models.Post{
			Title:         fp.Title,
			Content:       strings.TrimSpace(fp.Content),
			Excerpt:       fp.Excerpt,
			FeaturedImage: models.DefaultFeaturedImage,
			AuthorID:      author.ID,
			CategoryID:    category.ID,
			Tags:          models.Tags(fp.Tags),
			IsPublished:   fp.Published,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if err := insertPost(ctx, s.db, post); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// insertPost stores a post under the first free slug for its title.
func insertPost(ctx context.Context, db *gorm.DB, post *models.Post) error {
	db = db.WithContext(ctx)
	s, err := slug.Unique(slug.Make(post.Title), func(candidate string) (bool, error) {
		var n int64
		err := db.Model(&models.Post{}).Where("slug = ?", candidate).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return err
	}
	post.Slug = s
	if post.Tags == nil {
		post.Tags = models.Tags{}
	}
	if err := db.Omit("Author", "Category", "Comments").Create(post).Error; err != nil {
		return fmt.Errorf("insert post %q: %w", post.Title, err)
	}
	return nil
}
