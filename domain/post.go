package domain

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID      int    `json:"id"`
	UserID  int    `json:"user_id"`
	User    *User  `json:"user"`
	Content string `json:"content"`

	Likes []Like `json:"likes" gorm:"foreignKey:PostID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at"`
}

// LikeCount returns the number of likes loaded on the post.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

type PostService interface {
	// ByID returns a single post with its author and likes loaded.
	ByID(id int) (*Post, error)
	// Feed returns all posts, most recent first. A non-empty query
	// filters to posts whose content contains it, case-insensitively.
	Feed(query string) ([]Post, error)
	Create(post *Post) error
	// Update changes the post's content. Author and creation time
	// never change after Create.
	Update(post *Post, content string) error
	Delete(post *Post) error
}
