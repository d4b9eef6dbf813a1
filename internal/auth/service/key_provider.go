package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"slices"
	"sync"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// SigningAlgorithm is the JWS algorithm of every session token.
const SigningAlgorithm = string(jose.EdDSA)

// SigningKey is an Ed25519 key pair identified by its key id.
type SigningKey struct {
	KeyID      string
	PrivateKey ed25519.PrivateKey
}

// PublicKey returns the verification half of the key.
func (k *SigningKey) PublicKey() ed25519.PublicKey {
	return k.PrivateKey.Public().(ed25519.PublicKey)
}

// GenerateSigningKey creates a fresh Ed25519 key. Key ids are UUIDv7 strings,
// so sorting them orders keys by creation time.
func GenerateSigningKey() (*SigningKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate signing key")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate key id")
	}
	return &SigningKey{KeyID: id.String(), PrivateKey: priv}, nil
}

type keyProvider struct {
	mu       sync.RWMutex
	keys     map[string]*SigningKey
	activeID string
}

// NewKeyProvider creates a KeyProvider over keys. An empty activeKeyID selects the newest key.
func NewKeyProvider(keys []*SigningKey, activeKeyID string) (KeyProvider, error) {
	p := &keyProvider{}
	if err := p.Replace(keys, activeKeyID); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *keyProvider) ActiveKey() *SigningKey {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keys[p.activeID]
}

func (p *keyProvider) VerificationKey(keyID string) (ed25519.PublicKey, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	key, ok := p.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", authDomain.ErrSigningKeyNotFound, keyID)
	}
	return key.PublicKey(), nil
}

// JWKS lists the public keys ordered by key id. Private material is never included.
func (p *keyProvider) JWKS() jose.JSONWebKeySet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.keys))
	for id := range p.keys {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(ids))}
	for _, id := range ids {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       p.keys[id].PublicKey(),
			KeyID:     id,
			Algorithm: SigningAlgorithm,
			Use:       "sig",
		})
	}
	return set
}

func (p *keyProvider) Replace(keys []*SigningKey, activeKeyID string) error {
	if len(keys) == 0 {
		return apperrors.New("at least one signing key is required")
	}

	indexed := make(map[string]*SigningKey, len(keys))
	newest := ""
	for _, key := range keys {
		if key == nil || key.KeyID == "" || len(key.PrivateKey) != ed25519.PrivateKeySize {
			return apperrors.New("invalid signing key")
		}
		indexed[key.KeyID] = key
		if key.KeyID > newest {
			newest = key.KeyID
		}
	}

	if activeKeyID == "" {
		activeKeyID = newest
	}
	if _, ok := indexed[activeKeyID]; !ok {
		return fmt.Errorf("%w: %s", authDomain.ErrSigningKeyNotFound, activeKeyID)
	}

	p.mu.Lock()
	p.keys = indexed
	p.activeID = activeKeyID
	p.mu.Unlock()
	return nil
}
