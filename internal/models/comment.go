package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment belongs to exactly one post and is addressed through it by its
// generated sub-id.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_post_comments_post_created,priority:1" json:"postId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_post_comments_post_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName keeps comments in a table named after their owner.
func (Comment) TableName() string {
	return "post_comments"
}

// BeforeCreate assigns the sub-id.
func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
