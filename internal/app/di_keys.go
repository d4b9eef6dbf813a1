package app

import (
	"context"
	"fmt"
	"log/slog"

	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
)

// KMSService returns the service that opens keepers for sealed signing keys.
func (c *Container) KMSService() authService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = authService.NewKMSService()
	})
	return c.kmsService
}

// KMSKeeper returns the keeper named by AUTH_SIGNING_KEYS_KMS_KEY_URI, or nil
// when signing keys are stored unsealed.
func (c *Container) KMSKeeper() (authService.KMSKeeper, error) {
	var err error
	c.kmsKeeperInit.Do(func() {
		c.kmsKeeper, err = c.initKMSKeeper()
		if err != nil {
			c.initErrors["kmsKeeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kmsKeeper"]; exists {
		return nil, storedErr
	}
	return c.kmsKeeper, nil
}

// KeyStore returns the signing key store.
func (c *Container) KeyStore() (authService.KeyStore, error) {
	var err error
	c.keyStoreInit.Do(func() {
		c.keyStore, err = c.initKeyStore()
		if err != nil {
			c.initErrors["keyStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyStore"]; exists {
		return nil, storedErr
	}
	return c.keyStore, nil
}

// KeyProvider returns the signing key set loaded from the key store.
func (c *Container) KeyProvider() (authService.KeyProvider, error) {
	var err error
	c.keyProviderInit.Do(func() {
		c.keyProvider, err = c.initKeyProvider()
		if err != nil {
			c.initErrors["keyProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyProvider"]; exists {
		return nil, storedErr
	}
	return c.keyProvider, nil
}

// KeyWatcher returns the key directory watcher, or nil when watching is disabled.
// The watcher is not started here; see StartBackgroundTasks.
func (c *Container) KeyWatcher() (*authService.KeyWatcher, error) {
	var err error
	c.keyWatcherInit.Do(func() {
		c.keyWatcher, err = c.initKeyWatcher()
		if err != nil {
			c.initErrors["keyWatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyWatcher"]; exists {
		return nil, storedErr
	}
	return c.keyWatcher, nil
}

func (c *Container) initKMSKeeper() (authService.KMSKeeper, error) {
	if c.config.AuthSigningKeysKMSKeyURI == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.AuthSigningKeysKMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open keeper for signing keys: %w", err)
	}
	return keeper, nil
}

func (c *Container) initKeyStore() (authService.KeyStore, error) {
	keeper, err := c.KMSKeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get kms keeper for key store: %w", err)
	}
	return authService.NewFileKeyStore(c.config.AuthSigningKeysDir, keeper), nil
}

func (c *Container) initKeyProvider() (authService.KeyProvider, error) {
	store, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for key provider: %w", err)
	}

	keys, err := store.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf(
			"no signing keys found in %s, run create-signing-key first",
			c.config.AuthSigningKeysDir,
		)
	}

	provider, err := authService.NewKeyProvider(keys, c.config.AuthSigningKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to create key provider: %w", err)
	}

	c.Logger().Info("signing keys loaded",
		slog.Int("count", len(keys)),
		slog.String("active_key_id", provider.ActiveKey().KeyID),
	)
	return provider, nil
}

func (c *Container) initKeyWatcher() (*authService.KeyWatcher, error) {
	if !c.config.AuthSigningKeysWatch {
		return nil, nil
	}

	store, err := c.KeyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get key store for key watcher: %w", err)
	}
	provider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for key watcher: %w", err)
	}

	watcher, err := authService.NewKeyWatcher(
		c.config.AuthSigningKeysDir,
		store,
		provider,
		c.config.AuthSigningKeyID,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create key watcher: %w", err)
	}
	return watcher, nil
}
