package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the stored state of a single-use opaque refresh token.
// Only the SHA-256 hash of the token is persisted.
type RefreshToken struct {
	ID        uuid.UUID
	TokenHash string
	SessionID uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsActive reports whether the token can still be rotated or revoked at now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
