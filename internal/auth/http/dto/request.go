// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	customValidation "github.com/tiago-cos/prosa-sub000/internal/validation"
)

// LoginRequest contains the credentials for opening a session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request payload
}

// Validate checks if the login request is valid. Credential strength is not
// checked here so that login never reveals the password policy.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Password, validation.Required),
	)
}

// ToInput converts the request into a use case input.
func (r *LoginRequest) ToInput() *authDomain.LoginInput {
	return &authDomain.LoginInput{Username: r.Username, Password: r.Password}
}

// RefreshTokenRequest carries a refresh token for rotation or logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"` //nolint:gosec // request payload
}

// Validate checks if the refresh token request is valid.
func (r *RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required, customValidation.Base64URL),
	)
}

// RegisterUserRequest contains the parameters for creating an account.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request payload
}

// Validate checks if the registration request is valid.
func (r *RegisterUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, customValidation.Username),
		validation.Field(&r.Password, validation.Required, customValidation.DefaultPassword),
	)
}

// ToInput converts the request into a use case input. Self-registered accounts
// always get the standard role.
func (r *RegisterUserRequest) ToInput() *authDomain.RegisterUserInput {
	return &authDomain.RegisterUserInput{
		Username: r.Username,
		Password: r.Password,
		Role:     authDomain.RoleUser,
	}
}

// CreateAPIKeyRequest contains the parameters for issuing an API key.
// ExpiresAt is a unix timestamp in seconds; nil means the key never expires.
type CreateAPIKeyRequest struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
	ExpiresAt    *int64   `json:"expires_at"`
}

// Validate checks the shape of the request. Capability and expiry rules are
// applied by ToInput.
func (r *CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
	)
}

// ToInput parses the capability names and expiry and checks them against now.
// The returned errors carry the client-facing validation messages.
func (r *CreateAPIKeyRequest) ToInput(ownerID uuid.UUID, now time.Time) (*authDomain.CreateAPIKeyInput, error) {
	capabilities, err := authDomain.ParseCapabilities(r.Capabilities)
	if err != nil {
		return nil, err
	}

	input := &authDomain.CreateAPIKeyInput{
		OwnerID:      ownerID,
		Name:         r.Name,
		Capabilities: capabilities,
	}

	if r.ExpiresAt != nil {
		expiresAt, err := unixToTime(*r.ExpiresAt)
		if err != nil {
			return nil, err
		}
		input.ExpiresAt = &expiresAt
	}

	if err := input.Validate(now); err != nil {
		return nil, err
	}
	return input, nil
}

// unixToTime rejects timestamps beyond the supported range instead of clamping them.
func unixToTime(seconds int64) (time.Time, error) {
	if seconds > authDomain.MaxAPIKeyExpiration.Unix() {
		return time.Time{}, authDomain.ErrExpirationOutOfRange
	}
	return time.Unix(seconds, 0).UTC(), nil
}
