package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-jose/go-jose/v4"

	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// SigningKeyFileExt is the extension of stored signing keys.
const SigningKeyFileExt = ".jwk"

// fileKeyStore keeps one private JWK per file, named <kid>.jwk. When a keeper
// is configured the file content is sealed with it.
type fileKeyStore struct {
	dir    string
	keeper KMSKeeper
}

// NewFileKeyStore creates a KeyStore rooted at dir. keeper may be nil to store keys in plain JWK form.
func NewFileKeyStore(dir string, keeper KMSKeeper) KeyStore {
	return &fileKeyStore{dir: dir, keeper: keeper}
}

func (s *fileKeyStore) Load(ctx context.Context) ([]*SigningKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to read signing keys directory")
	}

	var keys []*SigningKey
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != SigningKeyFileExt {
			continue
		}
		key, err := s.readKey(ctx, filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if want := strings.TrimSuffix(entry.Name(), SigningKeyFileExt); key.KeyID != want {
			return nil, fmt.Errorf("signing key %s has mismatched kid %q", entry.Name(), key.KeyID)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *fileKeyStore) readKey(ctx context.Context, path string) (*SigningKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read signing key")
	}

	if s.keeper != nil {
		data, err = s.keeper.Decrypt(ctx, data)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unseal signing key")
		}
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(data); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode signing key")
	}
	priv, ok := jwk.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key %s is not an Ed25519 private key", filepath.Base(path))
	}

	return &SigningKey{KeyID: jwk.KeyID, PrivateKey: priv}, nil
}

// Save writes the key through a temporary file and a rename, so watchers never
// observe a partial file.
func (s *fileKeyStore) Save(ctx context.Context, key *SigningKey) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return apperrors.Wrap(err, "failed to create signing keys directory")
	}

	jwk := jose.JSONWebKey{
		Key:       key.PrivateKey,
		KeyID:     key.KeyID,
		Algorithm: SigningAlgorithm,
		Use:       "sig",
	}
	data, err := jwk.MarshalJSON()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode signing key")
	}

	if s.keeper != nil {
		data, err = s.keeper.Encrypt(ctx, data)
		if err != nil {
			return apperrors.Wrap(err, "failed to seal signing key")
		}
	}

	path := filepath.Join(s.dir, key.KeyID+SigningKeyFileExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return apperrors.Wrap(err, "failed to write signing key")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(err, "failed to write signing key")
	}
	return nil
}
