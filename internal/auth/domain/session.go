package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-tracked login. Its claims are what a session token asserts.
type Session struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Role         Role
	Capabilities []Capability
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// LoginInput carries the credentials for opening a session.
type LoginInput struct {
	Username string
	Password string
}

// SessionTokens is returned by login and refresh. The refresh token is only
// ever returned here.
type SessionTokens struct {
	Session               *Session
	SessionToken          string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
