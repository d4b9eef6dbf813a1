package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// KeyWatcher reloads a KeyProvider from a KeyStore whenever a key file in the
// watched directory changes. A reload that fails keeps the previous key set.
type KeyWatcher struct {
	store       KeyStore
	provider    KeyProvider
	activeKeyID string
	logger      *slog.Logger

	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewKeyWatcher watches dir, which must exist.
func NewKeyWatcher(
	dir string,
	store KeyStore,
	provider KeyProvider,
	activeKeyID string,
	logger *slog.Logger,
) (*KeyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create key watcher")
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, apperrors.Wrap(err, "failed to watch signing keys directory")
	}

	return &KeyWatcher{
		store:       store,
		provider:    provider,
		activeKeyID: activeKeyID,
		logger:      logger,
		watcher:     watcher,
		done:        make(chan struct{}),
	}, nil
}

// Start begins processing file events until ctx is cancelled or Stop is called.
func (w *KeyWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop ends event processing and releases the underlying watcher.
func (w *KeyWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.watcher.Close()
	})
	return err
}

// Reload reads the store and swaps the provider's key set.
func (w *KeyWatcher) Reload(ctx context.Context) error {
	keys, err := w.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := w.provider.Replace(keys, w.activeKeyID); err != nil {
		return apperrors.Wrap(err, "failed to replace signing keys")
	}
	return nil
}

func (w *KeyWatcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != SigningKeyFileExt {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := w.Reload(ctx); err != nil {
				w.logger.Error("failed to reload signing keys",
					slog.String("file", event.Name),
					slog.Any("error", err),
				)
				continue
			}
			w.logger.Info("signing keys reloaded", slog.String("file", event.Name))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("signing key watcher error", slog.Any("error", err))
		}
	}
}
