package domain

import (
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// Authentication failures.
var (
	// ErrUnauthenticated is returned when no usable credential was presented,
	// including any session token the codec rejects.
	ErrUnauthenticated = apperrors.Public(apperrors.ErrUnauthorized, "No authentication was provided.")

	// ErrInvalidCredential is returned for unknown or expired API keys.
	ErrInvalidCredential = apperrors.Public(apperrors.ErrUnauthorized, "The provided API key is invalid.")

	// ErrInvalidLogin is returned when a username or password does not match.
	ErrInvalidLogin = apperrors.Public(apperrors.ErrUnauthorized, "The provided username or password is invalid.")

	// ErrInvalidToken is returned when rotating a refresh token that is used, expired or unknown.
	ErrInvalidToken = apperrors.Public(apperrors.ErrUnauthorized, "The provided refresh token is invalid.")

	// ErrInvalidSessionToken is the codec's verification failure. It never reaches
	// clients directly; the resolver maps it to ErrUnauthenticated.
	ErrInvalidSessionToken = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid session token")
)

// Authorization failures.
var (
	// ErrAccessForbidden is the public form of DecisionForbidden.
	ErrAccessForbidden = apperrors.Public(apperrors.ErrForbidden, "Forbidden.")
)

// Lookup failures.
var (
	// ErrTokenNotFound is returned when logging out with a token that is not active.
	ErrTokenNotFound = apperrors.Public(apperrors.ErrNotFound, "The provided refresh token does not exist.")

	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = ResourceUser.NotFoundError()

	// ErrAPIKeyNotFound is returned when an API key does not exist.
	ErrAPIKeyNotFound = ResourceAPIKey.NotFoundError()

	// ErrSigningKeyNotFound is returned when no signing key matches a key id.
	ErrSigningKeyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "signing key not found")
)

// Conflicts.
var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = apperrors.Public(apperrors.ErrConflict, "The username is already in use.")
)

// Validation failures.
var (
	ErrEmptyCapabilities = apperrors.Public(
		apperrors.ErrInvalidInput,
		"At least one capability must be provided.",
	)
	ErrDuplicateCapability = apperrors.Public(
		apperrors.ErrInvalidInput,
		"Capabilities must not contain duplicates.",
	)
	ErrUnknownCapability = apperrors.Public(
		apperrors.ErrInvalidInput,
		"Capabilities must be one of Create, Read, Update or Delete.",
	)
	ErrExpirationInPast = apperrors.Public(
		apperrors.ErrInvalidInput,
		"The expiration must be in the future.",
	)
	ErrExpirationOutOfRange = apperrors.Public(
		apperrors.ErrInvalidInput,
		"The expiration is out of range.",
	)
)

// ErrSignatureInvalid indicates an audit log entry was altered after it was written.
var ErrSignatureInvalid = apperrors.New("audit log signature is invalid")

func newNotFoundError(message string) error {
	return apperrors.Public(apperrors.ErrNotFound, message)
}
