package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns resources and API keys.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// RegisterUserInput contains the parameters for creating a user account.
type RegisterUserInput struct {
	Username string
	Password string
	Role     Role
}
