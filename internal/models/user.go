package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a directory profile used to resolve member IDs to display names.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// FullName is the display name of the user.
	FullName string `json:"full_name"`

	// Email is the user's email address (unique).
	Email string `json:"email"`

	// CreatedAt is the Unix timestamp when the profile was created.
	CreatedAt int64 `json:"created_at"`
}

// NewUser creates a profile with a generated ID and the current timestamp.
func NewUser(email, fullName string) *User {
	return &User{
		ID:        uuid.New().String(),
		FullName:  fullName,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}

// AsMember returns the profile as a group member.
func (u *User) AsMember() Member {
	return Member{ID: u.ID, FullName: u.FullName, Email: u.Email}
}
