package service

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn      func(context.Context) ([]models.Category, error)
	getByIDFn   func(context.Context, uint) (*models.Category, error)
	getByNameFn func(context.Context, string) (*models.Category, error)
	createFn    func(context.Context, *models.Category) error
	deleteFn    func(context.Context, uint, func(*models.Category) error) error
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return s.getByNameFn(ctx, name)
}
func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	return s.createFn(ctx, category)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint, authorize func(*models.Category) error) error {
	return s.deleteFn(ctx, id, authorize)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn:      func(_ context.Context) ([]models.Category, error) { return []models.Category{}, nil },
		getByIDFn:   func(_ context.Context, id uint) (*models.Category, error) { return &models.Category{ID: id}, nil },
		getByNameFn: func(_ context.Context, _ string) (*models.Category, error) { return nil, nil },
		createFn:    func(_ context.Context, _ *models.Category) error { return nil },
		deleteFn:    func(_ context.Context, _ uint, _ func(*models.Category) error) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getWithCommentsFn func(context.Context, uint) (*models.Post, error)
	idBySlugFn        func(context.Context, string) (uint, error)
	existsFn          func(context.Context, uint) (bool, error)
	slugTakenFn       func(context.Context, string, uint) (bool, error)
	listFn            func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	incrementViewsFn  func(context.Context, uint) error
	updateFn          func(context.Context, uint, repository.PostChanges) (*models.Post, error)
	deleteFn          func(context.Context, uint, func(*models.Post) error) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetWithComments(ctx context.Context, id uint) (*models.Post, error) {
	return s.getWithCommentsFn(ctx, id)
}
func (s *postRepoStub) IDBySlug(ctx context.Context, slug string) (uint, error) {
	return s.idBySlugFn(ctx, slug)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return s.slugTakenFn(ctx, slug, excludeID)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, id uint, changes repository.PostChanges) (*models.Post, error) {
	return s.updateFn(ctx, id, changes)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint, authorize func(*models.Post) error) error {
	return s.deleteFn(ctx, id, authorize)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:          func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getWithCommentsFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		idBySlugFn:        func(_ context.Context, _ string) (uint, error) { return 1, nil },
		existsFn:          func(_ context.Context, _ uint) (bool, error) { return true, nil },
		slugTakenFn:       func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		listFn: func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
			return []*models.Post{}, 0, nil
		},
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
		updateFn: func(_ context.Context, id uint, _ repository.PostChanges) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		},
		deleteFn: func(_ context.Context, _ uint, _ func(*models.Post) error) error { return nil },
	}
}

// lockedPostRepo runs Update and Delete callbacks against stored, the way the
// real repository does with the row locked, and records what would be written.
func lockedPostRepo(stored *models.Post, taken map[string]bool) (*postRepoStub, *map[string]any) {
	repo := noopPostRepo()
	written := map[string]any{}
	repo.updateFn = func(_ context.Context, id uint, changes repository.PostChanges) (*models.Post, error) {
		if id != stored.ID {
			return nil, models.NewNotFoundError("Post", id)
		}
		updates, err := changes(stored, func(s string) (bool, error) { return taken[s], nil })
		if err != nil {
			return nil, err
		}
		written = updates
		return stored, nil
	}
	repo.deleteFn = func(_ context.Context, id uint, authorize func(*models.Post) error) error {
		if id != stored.ID {
			return models.NewNotFoundError("Post", id)
		}
		return authorize(stored)
	}
	return repo, &written
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	getFn        func(context.Context, uint, string) (*models.Comment, error)
	addFn        func(context.Context, *models.Comment) error
	updateFn     func(context.Context, uint, string, func(*models.Comment) error) (*models.Comment, error)
	deleteFn     func(context.Context, uint, string, func(*models.Comment) error) error
}

func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Get(ctx context.Context, postID uint, commentID string) (*models.Comment, error) {
	return s.getFn(ctx, postID, commentID)
}
func (s *commentRepoStub) Add(ctx context.Context, comment *models.Comment) error {
	return s.addFn(ctx, comment)
}
func (s *commentRepoStub) Update(ctx context.Context, postID uint, commentID string, mutate func(*models.Comment) error) (*models.Comment, error) {
	return s.updateFn(ctx, postID, commentID, mutate)
}
func (s *commentRepoStub) Delete(ctx context.Context, postID uint, commentID string, authorize func(*models.Comment) error) error {
	return s.deleteFn(ctx, postID, commentID, authorize)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return []*models.Comment{}, nil },
		getFn: func(_ context.Context, postID uint, id string) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: postID}, nil
		},
		addFn: func(_ context.Context, _ *models.Comment) error { return nil },
		updateFn: func(_ context.Context, _ uint, _ string, _ func(*models.Comment) error) (*models.Comment, error) {
			return &models.Comment{}, nil
		},
		deleteFn: func(_ context.Context, _ uint, _ string, _ func(*models.Comment) error) error { return nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func ptr[T any](v T) *T {
	return &v
}
