package service

import "inkwell/internal/models"

// CanModifyPost reports whether actorID may update or delete the post.
func CanModifyPost(post *models.Post, actorID uint) bool {
	return post != nil && actorID != 0 && post.AuthorID == actorID
}

// CanDeleteCategory reports whether actorID may delete the category. A
// category created anonymously may be deleted by any signed-in user.
func CanDeleteCategory(c *models.Category, actorID uint) bool {
	if c == nil || actorID == 0 {
		return false
	}
	return c.CreatedBy == nil || *c.CreatedBy == actorID
}

// CanModifyComment reports whether actorID may update or delete the comment.
// Owning the parent post grants nothing here.
func CanModifyComment(c *models.Comment, actorID uint) bool {
	return c != nil && actorID != 0 && c.UserID == actorID
}
