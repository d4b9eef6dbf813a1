package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// tokenEntropyBytes is the number of random bytes behind every opaque token.
const tokenEntropyBytes = 32

type tokenService struct{}

// NewTokenService creates a TokenService that issues 256-bit random tokens
// and identifies them by their SHA-256 digest.
func NewTokenService() TokenService {
	return &tokenService{}
}

// GenerateToken creates a random token, unpadded base64url so it can travel in headers
// and JSON without escaping.
func (t *tokenService) GenerateToken() (string, string, error) {
	raw := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken := base64.RawURLEncoding.EncodeToString(raw)
	return plainToken, t.HashToken(plainToken), nil
}

func (t *tokenService) HashToken(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

func (t *tokenService) CompareTokenHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
