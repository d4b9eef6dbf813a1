package domain

import (
	"slices"

	"github.com/google/uuid"
)

// CredentialKind identifies how a principal authenticated.
type CredentialKind string

const (
	// CredentialSession is a signed session token presented as a bearer token.
	CredentialSession CredentialKind = "session"
	// CredentialAPIKey is an opaque API key presented in the API key header.
	CredentialAPIKey CredentialKind = "api_key"
)

// Principal is the resolved caller identity for one request. It has no
// exported fields so it cannot be altered once the resolver has built it.
type Principal struct {
	userID         uuid.UUID
	role           Role
	capabilities   []Capability
	credentialKind CredentialKind
	sessionID      uuid.UUID
	apiKeyID       uuid.UUID
}

// NewSessionPrincipal builds the principal for a verified session token.
// Session credentials always carry the full capability set.
func NewSessionPrincipal(userID uuid.UUID, role Role, sessionID uuid.UUID) *Principal {
	return &Principal{
		userID:         userID,
		role:           role,
		capabilities:   AllCapabilities(),
		credentialKind: CredentialSession,
		sessionID:      sessionID,
	}
}

// NewAPIKeyPrincipal builds the principal for a valid API key. The role is
// always RoleUser, whatever role the key's owner holds, so an API key can
// never grant the elevated bypass.
func NewAPIKeyPrincipal(key *APIKey) *Principal {
	return &Principal{
		userID:         key.OwnerID,
		role:           RoleUser,
		capabilities:   slices.Clone(key.Capabilities),
		credentialKind: CredentialAPIKey,
		apiKeyID:       key.ID,
	}
}

// UserID returns the identity the principal acts as.
func (p *Principal) UserID() uuid.UUID { return p.userID }

// Role returns the effective role.
func (p *Principal) Role() Role { return p.role }

// CredentialKind returns how the principal authenticated.
func (p *Principal) CredentialKind() CredentialKind { return p.credentialKind }

// SessionID returns the session id, or uuid.Nil for API key principals.
func (p *Principal) SessionID() uuid.UUID { return p.sessionID }

// APIKeyID returns the API key id, or uuid.Nil for session principals.
func (p *Principal) APIKeyID() uuid.UUID { return p.apiKeyID }

// Capabilities returns a copy of the effective capability set.
func (p *Principal) Capabilities() []Capability {
	if p.role.IsElevated() {
		return AllCapabilities()
	}
	return slices.Clone(p.capabilities)
}

// IsElevated reports whether ownership checks are bypassed for this principal.
func (p *Principal) IsElevated() bool {
	return p.role.IsElevated()
}

// HasCapability reports whether the principal may perform operations requiring c.
func (p *Principal) HasCapability(c Capability) bool {
	if p.role.IsElevated() {
		return c.IsValid()
	}
	return slices.Contains(p.capabilities, c)
}
