package domain

import (
	"time"
)

// Like represents a many-to-many relationship between a User and a Post.
// A user appears at most once per post, the composite unique index makes
// the pair a set membership rather than a counter.
type Like struct {
	ID     int `json:"id"`
	UserID int `json:"user_id" gorm:"not null;uniqueIndex:idx_likes_user_post"`
	PostID int `json:"post_id" gorm:"not null;uniqueIndex:idx_likes_user_post"`

	CreatedAt time.Time `json:"created_at"`
}

// LikeService is a set of methods to manipulate and work with the Like model.
type LikeService interface {
	// Toggle flips the user's like on the post: absent becomes present
	// and vice versa. It reports the new membership and the post's like
	// count after the operation.
	Toggle(postID, userID int) (liked bool, count int, err error)
	CountByPost(postID int) (int, error)
}
