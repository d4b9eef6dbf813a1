package service

import (
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

type passwordService struct {
	hasher *pwdhash.PasswordHasher

	decoyOnce sync.Once
	decoyHash string
}

// NewPasswordService creates a PasswordService using Argon2id with the Moderate policy.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// Only reachable with an invalid policy.
		panic(err)
	}

	return &passwordService{hasher: hasher}
}

func (s *passwordService) HashPassword(plainPassword string) (string, error) {
	hash, err := s.hasher.Hash([]byte(plainPassword))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

func (s *passwordService) ComparePassword(plainPassword string, passwordHash string) bool {
	if passwordHash == "" {
		_, _ = s.hasher.Verify([]byte(plainPassword), s.decoy())
		return false
	}

	ok, err := s.hasher.Verify([]byte(plainPassword), passwordHash)
	if err != nil {
		return false
	}
	return ok
}

// decoy returns a hash of a random password, computed once.
func (s *passwordService) decoy() string {
	s.decoyOnce.Do(func() {
		raw := make([]byte, 16)
		_, _ = rand.Read(raw)
		hash, err := s.hasher.Hash([]byte(base64.RawStdEncoding.EncodeToString(raw)))
		if err == nil {
			s.decoyHash = hash
		}
	})
	return s.decoyHash
}
