// Package service provides the technical services behind authentication:
// signing key material, the session token codec, opaque token generation,
// password hashing and audit log signing.
package service

import (
	"context"
	"crypto/ed25519"

	"github.com/go-jose/go-jose/v4"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
)

// PasswordService hashes and verifies user passwords.
type PasswordService interface {
	// HashPassword returns an encoded Argon2id hash of the password.
	HashPassword(plainPassword string) (string, error)

	// ComparePassword reports whether the password matches the hash. An empty
	// hash is compared against a decoy so unknown users cost the same time.
	ComparePassword(plainPassword string, passwordHash string) bool
}

// TokenService generates and hashes opaque bearer secrets (refresh tokens and API keys).
type TokenService interface {
	// GenerateToken creates a random token and returns it with its SHA-256 hash.
	// Only the hash may be persisted.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken returns the hex SHA-256 of a plain token.
	HashToken(plainToken string) string

	// CompareTokenHash compares two token hashes in constant time.
	CompareTokenHash(a, b string) bool
}

// KMSKeeper seals and opens data with an external key. *secrets.Keeper satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens keepers from gocloud.dev secrets URLs.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}

// KeyStore persists signing keys.
type KeyStore interface {
	// Load returns every stored signing key. A missing store yields no keys.
	Load(ctx context.Context) ([]*SigningKey, error)

	// Save stores a signing key.
	Save(ctx context.Context, key *SigningKey) error
}

// KeyProvider holds the signing keys in memory and publishes their public halves.
type KeyProvider interface {
	// ActiveKey returns the key new session tokens are signed with.
	ActiveKey() *SigningKey

	// VerificationKey returns the public key for a key id.
	VerificationKey(keyID string) (ed25519.PublicKey, error)

	// JWKS returns the public verification key set.
	JWKS() jose.JSONWebKeySet

	// Replace swaps the whole key set atomically. An empty activeKeyID selects the newest key.
	Replace(keys []*SigningKey, activeKeyID string) error
}

// SessionTokenService is the session token codec.
type SessionTokenService interface {
	// Issue signs a session token asserting the session's claims.
	Issue(session *authDomain.Session) (string, error)

	// Verify checks signature, issuer and expiry and returns the asserted session.
	// Any failure is reported as ErrInvalidSessionToken.
	Verify(token string) (*authDomain.Session, error)
}

// AuditSigner signs audit log entries and checks their signatures.
type AuditSigner interface {
	Sign(key []byte, log *authDomain.AuditLog) ([]byte, error)
	Verify(key []byte, log *authDomain.AuditLog) error
}
