// Package sessionverify lets other services check prosa session tokens against
// the published JWKS without access to the auth store.
package sessionverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the only signing algorithm session tokens use.
const Algorithm = "EdDSA"

var (
	// ErrInvalidToken is wrapped by every verification failure.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrIssuerRequired is returned when a Verifier is built without an issuer.
	ErrIssuerRequired = errors.New("issuer is required")
)

// Claims is what a verified session token asserts about its holder.
type Claims struct {
	UserID       string
	SessionID    string
	Role         string
	Capabilities []string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// IsAdmin reports whether the token was issued to an administrator.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// Has reports whether capability was granted to the session.
func (c *Claims) Has(capability string) bool {
	return slices.Contains(c.Capabilities, capability)
}

type tokenClaims struct {
	Role         string   `json:"role"`
	Capabilities []string `json:"caps"`
	SessionID    string   `json:"sid"`
	jwt.RegisteredClaims
}

// Options tunes token validation.
type Options struct {
	Issuer string
	Leeway time.Duration
	// Now overrides the clock used for expiry checks.
	Now func() time.Time
}

// Verifier validates session tokens against a key set.
type Verifier struct {
	keys   keyfunc.Keyfunc
	parser *jwt.Parser
}

// NewFromURL creates a Verifier that fetches the key set from jwksURL and keeps
// it refreshed in the background until ctx is cancelled. Tokens signed with a
// kid that is not yet cached trigger a rate limited refetch.
func NewFromURL(ctx context.Context, jwksURL string, opts Options) (*Verifier, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwks client: %w", err)
	}
	return newVerifier(kf, opts)
}

// NewFromJSON creates a Verifier over a fixed key set, such as the body of a
// previously fetched /.well-known/jwks.json.
func NewFromJSON(raw []byte, opts Options) (*Verifier, error) {
	kf, err := keyfunc.NewJWKSetJSON(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwks: %w", err)
	}
	return newVerifier(kf, opts)
}

func newVerifier(kf keyfunc.Keyfunc, opts Options) (*Verifier, error) {
	if opts.Issuer == "" {
		return nil, ErrIssuerRequired
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{Algorithm}),
		jwt.WithIssuer(opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(opts.Leeway),
	}
	if opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(opts.Now))
	}

	return &Verifier{keys: kf, parser: jwt.NewParser(parserOpts...)}, nil
}

// Verify checks the signature, issuer and expiry of token and returns its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &tokenClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyfunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	out := &Claims{
		UserID:       claims.Subject,
		SessionID:    claims.SessionID,
		Role:         claims.Role,
		Capabilities: claims.Capabilities,
		ExpiresAt:    claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}
	return out, nil
}

func (v *Verifier) keyfunc(token *jwt.Token) (any, error) {
	if kid, _ := token.Header["kid"].(string); kid == "" {
		return nil, errors.New("missing kid header")
	}
	return v.keys.Keyfunc(token)
}
