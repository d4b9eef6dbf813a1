// Package usecase implements authentication and authorization business logic:
// sessions, users, API keys, credential resolution, access decisions and the
// decision audit trail.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create stores a new user. Returns ErrUsernameTaken if the username exists.
	Create(ctx context.Context, user *authDomain.User) error

	// Get retrieves a user by ID. Returns ErrUserNotFound if not found.
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)

	// GetByUsername retrieves a user by username. Returns ErrUserNotFound if not found.
	GetByUsername(ctx context.Context, username string) (*authDomain.User, error)
}

// RefreshTokenRepository defines persistence operations for refresh tokens.
// Rotate and Revoke must be atomic: of two concurrent calls on the same hash,
// exactly one succeeds.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *authDomain.RefreshToken) error

	// GetActive returns the token with tokenHash if it is active at now, without
	// consuming it. Returns ErrInvalidToken if no active token matches.
	GetActive(ctx context.Context, tokenHash string, now time.Time) (*authDomain.RefreshToken, error)

	// Rotate consumes the token with tokenHash if it is active at now and stores
	// replacement in the same step. The replacement's SessionID and UserID are
	// copied from the consumed token. Returns the consumed token, or
	// ErrInvalidToken if no active token matches.
	Rotate(
		ctx context.Context,
		tokenHash string,
		replacement *authDomain.RefreshToken,
		now time.Time,
	) (*authDomain.RefreshToken, error)

	// Revoke consumes the token with tokenHash if it is active at now.
	// Returns ErrTokenNotFound if no active token matches.
	Revoke(ctx context.Context, tokenHash string, now time.Time) error

	// DeleteExpired removes tokens that expired or were revoked before the cutoff.
	// In dry-run mode it only counts them.
	DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error)
}

// APIKeyRepository defines persistence operations for API keys.
type APIKeyRepository interface {
	// Create stores a new API key.
	Create(ctx context.Context, key *authDomain.APIKey) error

	// Get retrieves an API key by ID. Returns ErrAPIKeyNotFound if not found.
	Get(ctx context.Context, keyID uuid.UUID) (*authDomain.APIKey, error)

	// GetByKeyHash retrieves an API key by the hash of its secret.
	// Returns ErrAPIKeyNotFound if not found.
	GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error)

	// ListByOwner returns the owner's keys ordered by ID.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*authDomain.APIKey, error)

	// Delete removes an API key. Returns ErrAPIKeyNotFound if not found.
	Delete(ctx context.Context, keyID uuid.UUID) error
}

// AuditLogRepository defines persistence operations for decision audit logs.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *authDomain.AuditLog) error

	// List returns entries ordered by created_at descending. Nil bounds are open;
	// set bounds are inclusive.
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*authDomain.AuditLog, error)

	// DeleteOlderThan removes entries created before the cutoff. In dry-run mode it only counts them.
	DeleteOlderThan(ctx context.Context, before time.Time, dryRun bool) (int64, error)
}

// SessionUseCase manages login sessions and their refresh tokens.
type SessionUseCase interface {
	// Login checks the credentials and opens a session. Unknown users and wrong
	// passwords both return ErrInvalidLogin.
	Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.SessionTokens, error)

	// Refresh rotates a refresh token and issues a new session token for the same
	// session. The presented token is consumed; presenting it again returns ErrInvalidToken.
	Refresh(ctx context.Context, refreshToken string) (*authDomain.SessionTokens, error)

	// Logout revokes a refresh token. Returns ErrTokenNotFound if it is not active.
	Logout(ctx context.Context, refreshToken string) error

	// CleanupExpired deletes refresh tokens that ended more than days ago.
	CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error)
}

// UserUseCase manages user accounts.
type UserUseCase interface {
	// Register creates a user. Returns ErrUsernameTaken if the username exists.
	Register(ctx context.Context, input *authDomain.RegisterUserInput) (*authDomain.User, error)

	// Get retrieves a user. Returns ErrUserNotFound if not found.
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)
}

// APIKeyUseCase manages API keys.
type APIKeyUseCase interface {
	// Create issues an API key. The plain key is only ever returned here.
	Create(ctx context.Context, input *authDomain.CreateAPIKeyInput) (*authDomain.CreateAPIKeyOutput, error)

	// Get retrieves an API key. Returns ErrAPIKeyNotFound if not found.
	Get(ctx context.Context, keyID uuid.UUID) (*authDomain.APIKey, error)

	// List returns the owner's keys.
	List(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*authDomain.APIKey, error)

	// Delete removes an API key. Returns ErrAPIKeyNotFound if not found.
	Delete(ctx context.Context, keyID uuid.UUID) error

	// Authenticate resolves a presented secret to its key. Unknown and expired
	// keys both return ErrInvalidCredential.
	Authenticate(ctx context.Context, plainKey string) (*authDomain.APIKey, error)
}

// CredentialResolver turns request credentials into a principal.
type CredentialResolver interface {
	// Resolve authenticates the request. A bearer token takes precedence over an
	// API key when both are present.
	Resolve(ctx context.Context, material authDomain.CredentialMaterial) (*authDomain.Principal, error)
}

// AccessUseCase evaluates access decisions and records them.
type AccessUseCase interface {
	// Authorize evaluates the query and returns the error the caller should
	// surface, or nil when access is allowed.
	Authorize(ctx context.Context, query authDomain.AuthorizationQuery) error
}

// AuditLogUseCase manages the signed decision audit trail.
type AuditLogUseCase interface {
	// Record signs and stores one decision.
	Record(ctx context.Context, auditLog *authDomain.AuditLog) error

	// List returns entries newest first.
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*authDomain.AuditLog, error)

	// Verify checks the signature of every entry in the range.
	Verify(ctx context.Context, createdAtFrom, createdAtTo *time.Time) (*authDomain.AuditLogVerification, error)

	// DeleteOlderThan removes entries older than days.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
