package domain

import (
	"time"
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	Password     string `json:"password,omitempty" gorm:"-"`
	PasswordHash string `json:"-"`
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-"`

	Posts []Post `json:"posts,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Likes []Like `json:"likes,omitempty" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserService interface {
	ByID(id int) (*User, error)
	ByEmail(email string) (*User, error)
	// ByRemember looks a user up by the raw remember token from the
	// session cookie. Hashing happens inside the service.
	ByRemember(token string) (*User, error)
	Authenticate(email, password string) (*User, error)
	Create(user *User) error
	Update(user *User) error
}
