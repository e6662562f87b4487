package repository

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter selects one page of the post listing.
type PostFilter struct {
	Offset     int
	Limit      int
	Search     string
	CategoryID uint
}

// PostChanges computes, with the post row locked, the columns to write.
// slugTaken reports whether a slug is used by another post.
type PostChanges func(post *models.Post, slugTaken func(string) (bool, error)) (map[string]any, error)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetWithComments(ctx context.Context, id uint) (*models.Post, error)
	IDBySlug(ctx context.Context, slug string) (uint, error)
	Exists(ctx context.Context, id uint) (bool, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	IncrementViews(ctx context.Context, id uint) error
	Update(ctx context.Context, id uint, changes PostChanges) (*models.Post, error)
	Delete(ctx context.Context, id uint, authorize func(post *models.Post) error) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func summaryColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

func categoryColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

func withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", summaryColumns).Preload("Category", categoryColumns)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Create", "posts")
	defer span.End()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return models.NewConflictError("A post with this slug already exists")
		case isForeignKeyError(err):
			return models.NewNotFoundError("Category", post.CategoryID)
		default:
			return models.NewInternalError(err)
		}
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withRefs(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "Post", id)
	}
	return &post, nil
}

// GetWithComments loads the post with its comments newest first.
func (r *postRepository) GetWithComments(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetWithComments", "posts")
	defer span.End()

	var post models.Post
	err := withRefs(r.db.WithContext(ctx)).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Comments.User", summaryColumns).
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOrInternal(err, "Post", id)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return &post, nil
}

func (r *postRepository) IDBySlug(ctx context.Context, slug string) (uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return 0, models.NewNotFoundError("Post", slug)
	}
	return ids[0], nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return postExists(r.db.WithContext(ctx), id)
}

func postExists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return slugTaken(r.db.WithContext(ctx), slug, excludeID)
}

func slugTaken(db *gorm.DB, slug string, excludeID uint) (bool, error) {
	q := db.Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	// On sqlite LOWER folds ASCII letters only; postgres folds per locale.
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.CategoryID != 0 {
		q = q.Where("posts.category_id = ?", filter.CategoryID)
	}
	return q
}

// List returns one page of posts, newest first, and the total number of matches.
func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "List", "posts")
	defer span.End()

	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts := []*models.Post{}
	if total == 0 {
		return posts, 0, nil
	}

	err := withRefs(r.filtered(ctx, filter)).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// IncrementViews bumps the counter in a single statement so concurrent reads never lose a view.
func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func lockPost(tx *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "Post", id)
	}
	return &post, nil
}

// Update locks the post row, asks changes for the columns to write and
// applies them in the same transaction. It returns the post as stored afterwards.
func (r *postRepository) Update(ctx context.Context, id uint, changes PostChanges) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Update", "posts")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, id)
		if err != nil {
			return err
		}

		updates, err := changes(post, func(slug string) (bool, error) {
			return slugTaken(tx, slug, id)
		})
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if categoryID, ok := updates["category_id"]; ok {
			if err := tx.Select("id").First(&models.Category{}, categoryID).Error; err != nil {
				return notFoundOrInternal(err, "Category", categoryID)
			}
		}

		if err := tx.Model(post).Updates(updates).Error; err != nil {
			switch {
			case isUniqueConstraintError(err):
				return models.NewConflictError("A post with this slug already exists")
			case isForeignKeyError(err):
				return models.NewNotFoundError("Category", updates["category_id"])
			default:
				return models.NewInternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete locks the post, lets authorize veto, then removes the comments and the post together.
func (r *postRepository) Delete(ctx context.Context, id uint, authorize func(post *models.Post) error) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "posts")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(post); err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}
