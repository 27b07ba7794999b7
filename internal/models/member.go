package models

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a registered member account. Registration is what makes
// an identity eligible to create or join pots.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Name is the display name of the member.
	Name string

	// Email is the member's email address (unique). Used for login.
	Email string

	// PasswordHash is the bcrypt hash of the member's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewMember creates a member with a fresh id and timestamp.
func NewMember(email, name, passwordHash string) *Member {
	return &Member{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
