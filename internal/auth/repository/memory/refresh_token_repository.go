// Package memory implements an in-process refresh token store. It suits
// single-instance and development deployments; tokens do not survive restarts.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// RefreshTokenRepository keeps refresh tokens in a map keyed by token hash.
// Every read and write holds mu, so a rotation is atomic with respect to
// any other rotation or revocation of the same token.
type RefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*authDomain.RefreshToken

	clock  clock.Clock
	logger *slog.Logger

	cleanupMu sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRefreshTokenRepository creates an empty in-memory refresh token store.
func NewRefreshTokenRepository(clk clock.Clock, logger *slog.Logger) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		tokens: make(map[string]*authDomain.RefreshToken),
		clock:  clk,
		logger: logger,
	}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *authDomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(token)
}

func (r *RefreshTokenRepository) GetActive(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tokens[tokenHash]
	if !ok || !current.IsActive(now) {
		return nil, authDomain.ErrInvalidToken
	}
	return copyToken(current), nil
}

func (r *RefreshTokenRepository) Rotate(
	ctx context.Context,
	tokenHash string,
	replacement *authDomain.RefreshToken,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tokens[tokenHash]
	if !ok || !current.IsActive(now) {
		return nil, authDomain.ErrInvalidToken
	}

	replacement.SessionID = current.SessionID
	replacement.UserID = current.UserID
	if err := r.insert(replacement); err != nil {
		return nil, err
	}

	revokedAt := now
	current.RevokedAt = &revokedAt
	return copyToken(current), nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tokens[tokenHash]
	if !ok || !current.IsActive(now) {
		return authDomain.ErrTokenNotFound
	}

	revokedAt := now
	current.RevokedAt = &revokedAt
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for hash, token := range r.tokens {
		if !isStale(token, before) {
			continue
		}
		count++
		if !dryRun {
			delete(r.tokens, hash)
		}
	}
	return count, nil
}

// Len returns the number of stored tokens, including revoked and expired ones.
func (r *RefreshTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// StartCleanup drops tokens that are expired or revoked every interval until
// ctx is cancelled or Stop is called. Calling it again replaces the running sweeper.
func (r *RefreshTokenRepository) StartCleanup(ctx context.Context, interval time.Duration) {
	r.Stop()

	r.cleanupMu.Lock()
	defer r.cleanupMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, _ := r.DeleteExpired(ctx, r.clock.Now(), false)
				if count > 0 {
					r.logger.Debug("removed stale refresh tokens", slog.Int64("count", count))
				}
			}
		}
	}()
}

// Stop halts the sweeper started by StartCleanup and waits for it to exit.
func (r *RefreshTokenRepository) Stop() {
	r.cleanupMu.Lock()
	defer r.cleanupMu.Unlock()

	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

func (r *RefreshTokenRepository) insert(token *authDomain.RefreshToken) error {
	if _, exists := r.tokens[token.TokenHash]; exists {
		return apperrors.Wrap(apperrors.ErrConflict, "refresh token hash already stored")
	}
	r.tokens[token.TokenHash] = copyToken(token)
	return nil
}

func isStale(token *authDomain.RefreshToken, before time.Time) bool {
	if token.ExpiresAt.Before(before) {
		return true
	}
	return token.RevokedAt != nil && token.RevokedAt.Before(before)
}

func copyToken(token *authDomain.RefreshToken) *authDomain.RefreshToken {
	c := *token
	if token.RevokedAt != nil {
		revokedAt := *token.RevokedAt
		c.RevokedAt = &revokedAt
	}
	return &c
}
