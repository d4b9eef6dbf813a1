package usecase

import (
	"context"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
)

type credentialResolver struct {
	sessionTokens authService.SessionTokenService
	apiKeys       APIKeyUseCase
}

// NewCredentialResolver creates a CredentialResolver over the session token
// codec and the API key store.
func NewCredentialResolver(
	sessionTokens authService.SessionTokenService,
	apiKeys APIKeyUseCase,
) CredentialResolver {
	return &credentialResolver{
		sessionTokens: sessionTokens,
		apiKeys:       apiKeys,
	}
}

// Resolve never falls back from a rejected bearer token to the API key.
func (r *credentialResolver) Resolve(
	ctx context.Context,
	material authDomain.CredentialMaterial,
) (*authDomain.Principal, error) {
	switch {
	case material.BearerToken != "":
		session, err := r.sessionTokens.Verify(material.BearerToken)
		if err != nil {
			return nil, authDomain.ErrUnauthenticated
		}
		return authDomain.NewSessionPrincipal(session.UserID, session.Role, session.ID), nil

	case material.APIKey != "":
		key, err := r.apiKeys.Authenticate(ctx, material.APIKey)
		if err != nil {
			return nil, err
		}
		return authDomain.NewAPIKeyPrincipal(key), nil

	default:
		return nil, authDomain.ErrUnauthenticated
	}
}
