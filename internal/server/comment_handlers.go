package server

import (
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/comments/post/:postId
// @Summary List comments
// @Description Newest first
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {object} object{success=bool,count=int,comments=[]models.Comment}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/post/{postId} [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.List(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(comments),
		"comments": comments,
	})
}

// GetComment handles GET /api/comments/:commentId/post/:postId
// @Summary Get comment
// @Tags comments
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param postId path int true "Post ID"
// @Success 200 {object} object{success=bool,comment=models.Comment}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId}/post/{postId} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.Get(c.UserContext(), postID, c.Params("commentId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "comment": comment})
}

// CreateComment handles POST /api/comments/post/:postId
// @Summary Add comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} object{success=bool,message=string,comment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/post/{postId} [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.Add(c.UserContext(), service.AddCommentInput{
		ActorID: currentUserID(c),
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// UpdateComment handles PUT /api/comments/:commentId/post/:postId
// @Summary Edit comment
// @Description Only the comment's author may edit it
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment ID"
// @Param postId path int true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 200 {object} object{success=bool,message=string,comment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId}/post/{postId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.Update(c.UserContext(), service.UpdateCommentInput{
		ActorID:   currentUserID(c),
		PostID:    postID,
		CommentID: c.Params("commentId"),
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// DeleteComment handles DELETE /api/comments/:commentId/post/:postId
// @Summary Delete comment
// @Description Only the comment's author may delete it
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment ID"
// @Param postId path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId}/post/{postId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	err = s.commentService.Delete(c.UserContext(), service.DeleteCommentInput{
		ActorID:   currentUserID(c),
		PostID:    postID,
		CommentID: c.Params("commentId"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
