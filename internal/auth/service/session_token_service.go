package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// sessionClaims is the payload of a session token. The subject is the user id.
type sessionClaims struct {
	Role         string   `json:"role"`
	Capabilities []string `json:"caps"`
	SessionID    string   `json:"sid"`
	jwt.RegisteredClaims
}

type sessionTokenService struct {
	keys   KeyProvider
	issuer string
	parser *jwt.Parser
}

// NewSessionTokenService creates the session token codec. Tokens are EdDSA JWS
// carrying the signing key id in the kid header; expiry is evaluated against clk.
func NewSessionTokenService(keys KeyProvider, issuer string, clk clock.Clock) SessionTokenService {
	return &sessionTokenService{
		keys:   keys,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{SigningAlgorithm}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}
}

func (s *sessionTokenService) Issue(session *authDomain.Session) (string, error) {
	if !session.ExpiresAt.After(session.IssuedAt) {
		return "", apperrors.New("session expiry must be after issuance")
	}

	key := s.keys.ActiveKey()
	if key == nil {
		return "", authDomain.ErrSigningKeyNotFound
	}

	jti, err := uuid.NewV7()
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate token id")
	}

	claims := sessionClaims{
		Role:         string(session.Role),
		Capabilities: authDomain.CapabilityNames(session.Capabilities),
		SessionID:    session.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			ID:        jti.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = key.KeyID

	signed, err := token.SignedString(key.PrivateKey)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign session token")
	}
	return signed, nil
}

func (s *sessionTokenService) Verify(tokenString string) (*authDomain.Session, error) {
	claims := &sessionClaims{}
	if _, err := s.parser.ParseWithClaims(tokenString, claims, s.verificationKey); err != nil {
		return nil, invalidSessionToken(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, invalidSessionToken(err)
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, invalidSessionToken(err)
	}
	role, err := authDomain.ParseRole(claims.Role)
	if err != nil {
		return nil, invalidSessionToken(err)
	}
	capabilities, err := authDomain.ParseCapabilities(claims.Capabilities)
	if err != nil {
		return nil, invalidSessionToken(err)
	}

	session := &authDomain.Session{
		ID:           sessionID,
		UserID:       userID,
		Role:         role,
		Capabilities: capabilities,
		ExpiresAt:    claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.UTC()
	}
	return session, nil
}

func (s *sessionTokenService) verificationKey(token *jwt.Token) (any, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, errors.New("missing kid header")
	}
	return s.keys.VerificationKey(kid)
}

func invalidSessionToken(cause error) error {
	return fmt.Errorf("%w: %v", authDomain.ErrInvalidSessionToken, cause)
}
