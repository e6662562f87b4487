package server

import (
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

// GetCategories handles GET /api/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// CreateCategory handles POST /api/categories. Authentication is optional;
// when present the creator is recorded.
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body createCategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreateCategoryInput{Name: req.Name}
	if id := currentUserID(c); id != 0 {
		in.ActorID = &id
	}

	category, err := s.categoryService.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete category
// @Description Only the creator may delete a category that records one. Refused while any post still uses it.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param categoryId path int true "Category ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{categoryId} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "categoryId")
	if err != nil {
		return nil
	}

	if err := s.categoryService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}
