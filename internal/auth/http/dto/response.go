package dto

import (
	"time"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
)

// SessionResponse is returned by login and refresh.
// SECURITY: The refresh token is only returned here and must be stored securely.
type SessionResponse struct {
	SessionToken          string    `json:"session_token"`
	RefreshToken          string    `json:"refresh_token"` //nolint:gosec // returned once per rotation
	TokenType             string    `json:"token_type"`
	ExpiresIn             int64     `json:"expires_in"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// MapSessionTokensToResponse converts issued session tokens to an API response.
// ExpiresIn is the session token lifetime in seconds.
func MapSessionTokensToResponse(tokens *authDomain.SessionTokens) SessionResponse {
	var expiresIn int64
	if tokens.Session != nil {
		expiresIn = int64(tokens.Session.ExpiresAt.Sub(tokens.Session.IssuedAt).Seconds())
	}
	return SessionResponse{
		SessionToken:          tokens.SessionToken,
		RefreshToken:          tokens.RefreshToken,
		TokenType:             "Bearer",
		ExpiresIn:             expiresIn,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
	}
}

// UserResponse represents a user in API responses (excludes the password hash).
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MapUserToResponse converts a domain user to an API response.
func MapUserToResponse(user *authDomain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// APIKeyResponse represents an API key in API responses (excludes the secret).
type APIKeyResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Name         string     `json:"name"`
	Capabilities []string   `json:"capabilities"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// MapAPIKeyToResponse converts a domain API key to an API response.
func MapAPIKeyToResponse(key *authDomain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:           key.ID.String(),
		OwnerID:      key.OwnerID.String(),
		Name:         key.Name,
		Capabilities: authDomain.CapabilityNames(key.Capabilities),
		ExpiresAt:    key.ExpiresAt,
		CreatedAt:    key.CreatedAt,
	}
}

// CreateAPIKeyResponse contains the result of issuing an API key.
// SECURITY: The key is only returned once and must be saved securely.
type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"` //nolint:gosec // returned once on creation
}

// MapCreateAPIKeyOutputToResponse converts the creation output to an API response.
func MapCreateAPIKeyOutputToResponse(output *authDomain.CreateAPIKeyOutput) CreateAPIKeyResponse {
	return CreateAPIKeyResponse{
		APIKeyResponse: MapAPIKeyToResponse(output.APIKey),
		Key:            output.PlainKey,
	}
}

// ListAPIKeysResponse represents a paginated list of API keys in API responses.
type ListAPIKeysResponse struct {
	Data []APIKeyResponse `json:"data"`
}

// MapAPIKeysToListResponse converts a slice of domain API keys to a list API response.
func MapAPIKeysToListResponse(keys []*authDomain.APIKey) ListAPIKeysResponse {
	responses := make([]APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, MapAPIKeyToResponse(key))
	}
	return ListAPIKeysResponse{Data: responses}
}

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	PrincipalID    string    `json:"principal_id"`
	CredentialKind string    `json:"credential_kind"`
	Capability     string    `json:"capability"`
	ResourceKind   string    `json:"resource_kind"`
	Decision       string    `json:"decision"`
	CreatedAt      time.Time `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *authDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:             auditLog.ID.String(),
		RequestID:      auditLog.RequestID,
		PrincipalID:    auditLog.PrincipalID.String(),
		CredentialKind: string(auditLog.CredentialKind),
		Capability:     auditLog.Capability.String(),
		ResourceKind:   string(auditLog.ResourceKind),
		Decision:       auditLog.Decision.String(),
		CreatedAt:      auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*authDomain.AuditLog) ListAuditLogsResponse {
	auditLogResponses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		auditLogResponses = append(auditLogResponses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{
		Data: auditLogResponses,
	}
}
