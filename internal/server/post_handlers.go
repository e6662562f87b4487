package server

import (
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Category      uint     `json:"category"`
	Excerpt       string   `json:"excerpt"`
	FeaturedImage string   `json:"featuredImage"`
	Tags          []string `json:"tags"`
	IsPublished   bool     `json:"isPublished"`
}

// updatePostRequest lists the fields a client may change. Anything else in
// the body (author, slug, viewCount, timestamps) is ignored.
type updatePostRequest struct {
	Title         *string   `json:"title"`
	Content       *string   `json:"content"`
	Category      *uint     `json:"category"`
	Excerpt       *string   `json:"excerpt"`
	FeaturedImage *string   `json:"featuredImage"`
	Tags          *[]string `json:"tags"`
	IsPublished   *bool     `json:"isPublished"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Newest first, optionally filtered by search text and category
// @Tags posts
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 5, max 50)"
// @Param search query string false "Case-insensitive match on title or content"
// @Param category query int false "Category ID"
// @Success 200 {object} models.PostPage
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	var categoryID uint
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return respondError(c, models.NewValidationError("Invalid category ID"))
		}
		categoryID = uint(id)
	}

	page, err := s.postService.List(c.UserContext(), service.ListPostsInput{
		Page:       c.QueryInt("page", 1),
		PageSize:   c.QueryInt("limit", service.DefaultPageSize),
		Search:     strings.TrimSpace(c.Query("search")),
		CategoryID: categoryID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Description Returns the post with its comments and counts a view
// @Tags posts
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post.Detail())
}

// GetPostBySlug handles GET /api/posts/slug/:slug
// @Summary Get post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/slug/{slug} [get]
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.postService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post.Detail())
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		AuthorID:      currentUserID(c),
		Title:         req.Title,
		Content:       req.Content,
		CategoryID:    req.Category,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		Tags:          req.Tags,
		IsPublished:   req.IsPublished,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Description Only the author may update a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body updatePostRequest true "Changed fields"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		ActorID:       currentUserID(c),
		PostID:        id,
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		CategoryID:    req.Category,
		Tags:          req.Tags,
		IsPublished:   req.IsPublished,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Only the author may delete a post; its comments go with it
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
