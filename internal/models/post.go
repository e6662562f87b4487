package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultFeaturedImage is used when a post is created without a featured image.
const DefaultFeaturedImage = "default-post.jpg"

// Tags is the JSON-encoded tag list stored on a post.
type Tags = datatypes.JSONSlice[string]

// Post is the primary content entity. Comments are owned by the post and are
// removed together with it.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ContentHTML   string    `gorm:"-" json:"contentHtml,omitempty"`
	Excerpt       string    `gorm:"size:200" json:"excerpt"`
	FeaturedImage string    `gorm:"size:255;not null" json:"featuredImage"`
	Slug          string    `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	AuthorID      uint      `gorm:"not null;index" json:"authorId"`
	Author        *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CategoryID    uint      `gorm:"not null;index" json:"categoryId"`
	Category      *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags          Tags      `json:"tags"`
	IsPublished   bool      `gorm:"not null;default:false" json:"isPublished"`
	ViewCount     int64     `gorm:"not null;default:0" json:"viewCount"`
	Comments      []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AfterFind keeps tags serialized as a list even when the column is NULL.
func (p *Post) AfterFind(*gorm.DB) error {
	if p.Tags == nil {
		p.Tags = Tags{}
	}
	return nil
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts []*Post `json:"posts"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}

// PostDetail is the single-post read view. Its comments list is always
// serialized, empty or not.
type PostDetail struct {
	*Post
	Comments []Comment `json:"comments"`
}

// Detail wraps the post for a single-post response.
func (p *Post) Detail() PostDetail {
	comments := p.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return PostDetail{Post: p, Comments: comments}
}
