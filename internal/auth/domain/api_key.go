package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxAPIKeyExpiration is the latest expiry an API key may carry.
var MaxAPIKeyExpiration = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// APIKey is a long-lived delegated credential owned by exactly one user.
// KeyHash is the SHA-256 of the secret; the secret itself is never stored.
type APIKey struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Name         string
	Capabilities []Capability
	KeyHash      string
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// IsExpired reports whether the key is unusable at now. Keys without an
// expiry never expire.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// CreateAPIKeyInput contains the parameters for issuing an API key on behalf of OwnerID.
type CreateAPIKeyInput struct {
	OwnerID      uuid.UUID
	Name         string
	Capabilities []Capability
	ExpiresAt    *time.Time
}

// Validate checks the capability set and expiry against the creation rules.
func (i *CreateAPIKeyInput) Validate(now time.Time) error {
	if err := ValidateCapabilities(i.Capabilities); err != nil {
		return err
	}
	if i.ExpiresAt != nil {
		return ValidateAPIKeyExpiration(now, *i.ExpiresAt)
	}
	return nil
}

// CreateAPIKeyOutput is returned once at creation. PlainKey is never shown again.
type CreateAPIKeyOutput struct {
	APIKey   *APIKey
	PlainKey string
}

// ValidateAPIKeyExpiration rejects expiries that are not in the future or
// beyond MaxAPIKeyExpiration. Out-of-range values are never clamped.
func ValidateAPIKeyExpiration(now, expiresAt time.Time) error {
	if expiresAt.After(MaxAPIKeyExpiration) {
		return ErrExpirationOutOfRange
	}
	if !expiresAt.After(now) {
		return ErrExpirationInPast
	}
	return nil
}
