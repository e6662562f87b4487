package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"inkwell/internal/markdown"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/slug"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 50

	maxTitleLen   = 100
	maxExcerptLen = 200
	maxTags       = 20
	maxTagLen     = 30
	maxImageLen   = 255
)

type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
}

type ListPostsInput struct {
	Page       int
	PageSize   int
	Search     string
	CategoryID uint
}

type CreatePostInput struct {
	AuthorID      uint
	Title         string
	Content       string
	CategoryID    uint
	Excerpt       string
	FeaturedImage string
	Tags          []string
	IsPublished   bool
}

// UpdatePostInput lists every field a client may change. Nil means unchanged.
type UpdatePostInput struct {
	ActorID       uint
	PostID        uint
	Title         *string
	Content       *string
	Excerpt       *string
	FeaturedImage *string
	CategoryID    *uint
	Tags          *[]string
	IsPublished   *bool
}

func NewPostService(postRepo repository.PostRepository, categoryRepo repository.CategoryRepository) *PostService {
	return &PostService{postRepo: postRepo, categoryRepo: categoryRepo}
}

func (s *PostService) List(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	posts, total, err := s.postRepo.List(ctx, repository.PostFilter{
		Offset:     (page - 1) * size,
		Limit:      size,
		Search:     in.Search,
		CategoryID: in.CategoryID,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		render(p)
	}

	return &models.PostPage{
		Posts: posts,
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(size))),
	}, nil
}

// Get counts a view and returns the post with its comments.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	if err := s.postRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	middleware.PostViews.Inc()

	post, err := s.postRepo.GetWithComments(ctx, id)
	if err != nil {
		return nil, err
	}
	render(post)
	return post, nil
}

func (s *PostService) GetBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	postSlug = strings.TrimSpace(postSlug)
	if postSlug == "" {
		return nil, models.NewValidationError("Slug is required")
	}
	id, err := s.postRepo.IDBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if in.CategoryID == 0 {
		return nil, models.NewValidationError("Category is required")
	}
	excerpt := strings.TrimSpace(in.Excerpt)
	if err := validateExcerpt(excerpt); err != nil {
		return nil, err
	}
	if excerpt == "" {
		excerpt = markdown.Excerpt(in.Content, maxExcerptLen)
	}
	image := strings.TrimSpace(in.FeaturedImage)
	if err := validateImage(image); err != nil {
		return nil, err
	}
	if image == "" {
		image = models.DefaultFeaturedImage
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	postSlug, err := slug.Unique(slug.Make(title), func(candidate string) (bool, error) {
		return s.postRepo.SlugTaken(ctx, candidate, 0)
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	post := &models.Post{
		Title:         title,
		Content:       in.Content,
		Excerpt:       excerpt,
		FeaturedImage: image,
		Slug:          postSlug,
		AuthorID:      in.AuthorID,
		CategoryID:    in.CategoryID,
		Tags:          tags,
		IsPublished:   in.IsPublished,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.String("slug", post.Slug),
	)

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	render(created)
	return created, nil
}

// Update applies the present fields with the post row locked. Ownership is
// checked before any field is looked at, so a new category is only resolved
// for the author. The slug follows the title whenever the title actually changes.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if err := validateUpdate(&in); err != nil {
		return nil, err
	}
	updated, err := s.postRepo.Update(ctx, in.PostID, func(post *models.Post, slugTaken func(string) (bool, error)) (map[string]any, error) {
		if !CanModifyPost(post, in.ActorID) {
			return nil, models.NewForbiddenError("Access denied. You can only update your own posts.")
		}
		return postChanges(post, &in, slugTaken)
	})
	if err != nil {
		return nil, err
	}
	render(updated)
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, actorID, id uint) error {
	err := s.postRepo.Delete(ctx, id, func(post *models.Post) error {
		if !CanModifyPost(post, actorID) {
			return models.NewForbiddenError("Access denied. You can only delete your own posts.")
		}
		return nil
	})
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "Post deleted", slog.Uint64("post_id", uint64(id)))
	return nil
}

func validateUpdate(in *UpdatePostInput) error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if err := validateTitle(t); err != nil {
			return err
		}
		in.Title = &t
	}
	if in.Content != nil {
		if err := validateContent(*in.Content); err != nil {
			return err
		}
	}
	if in.Excerpt != nil {
		e := strings.TrimSpace(*in.Excerpt)
		if err := validateExcerpt(e); err != nil {
			return err
		}
		in.Excerpt = &e
	}
	if in.FeaturedImage != nil {
		img := strings.TrimSpace(*in.FeaturedImage)
		if err := validateImage(img); err != nil {
			return err
		}
		if img == "" {
			img = models.DefaultFeaturedImage
		}
		in.FeaturedImage = &img
	}
	if in.CategoryID != nil && *in.CategoryID == 0 {
		return models.NewValidationError("Category is required")
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return err
		}
		plain := []string(tags)
		in.Tags = &plain
	}
	return nil
}

// postChanges returns only the columns whose value differs from the stored post.
func postChanges(post *models.Post, in *UpdatePostInput, slugTaken func(string) (bool, error)) (map[string]any, error) {
	changes := map[string]any{}

	if in.Title != nil && *in.Title != post.Title {
		changes["title"] = *in.Title
		postSlug, err := slug.Unique(slug.Make(*in.Title), slugTaken)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if postSlug != post.Slug {
			changes["slug"] = postSlug
		}
	}
	if in.Content != nil && *in.Content != post.Content {
		changes["content"] = *in.Content
	}
	if in.Excerpt != nil && *in.Excerpt != post.Excerpt {
		changes["excerpt"] = *in.Excerpt
	}
	if in.FeaturedImage != nil && *in.FeaturedImage != post.FeaturedImage {
		changes["featured_image"] = *in.FeaturedImage
	}
	if in.CategoryID != nil && *in.CategoryID != post.CategoryID {
		changes["category_id"] = *in.CategoryID
	}
	if in.Tags != nil && !equalTags(*in.Tags, post.Tags) {
		changes["tags"] = models.Tags(*in.Tags)
	}
	if in.IsPublished != nil && *in.IsPublished != post.IsPublished {
		changes["is_published"] = *in.IsPublished
	}
	return changes, nil
}

func render(p *models.Post) {
	if p != nil {
		p.ContentHTML = markdown.Render(p.Content)
	}
}

func validateTitle(title string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", maxTitleLen))
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	return nil
}

func validateExcerpt(excerpt string) error {
	if utf8.RuneCountInString(excerpt) > maxExcerptLen {
		return models.NewValidationError(fmt.Sprintf("Excerpt too long (max %d characters)", maxExcerptLen))
	}
	return nil
}

func validateImage(image string) error {
	if len(image) > maxImageLen {
		return models.NewValidationError(fmt.Sprintf("Featured image too long (max %d characters)", maxImageLen))
	}
	return nil
}

// normalizeTags trims, drops empties and duplicates, and keeps input order.
func normalizeTags(in []string) (models.Tags, error) {
	out := models.Tags{}
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLen {
			return nil, models.NewValidationError(fmt.Sprintf("Tag too long (max %d characters)", maxTagLen))
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, models.NewValidationError(fmt.Sprintf("Too many tags (max %d)", maxTags))
	}
	return out, nil
}

func equalTags(a []string, b models.Tags) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
