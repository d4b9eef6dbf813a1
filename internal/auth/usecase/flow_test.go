package usecase_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository/memory"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository/mysql"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	"github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	"github.com/tiago-cos/prosa-sub000/internal/config"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

type flowFixture struct {
	clock    *clock.FakeClock
	users    usecase.UserUseCase
	sessions usecase.SessionUseCase
	apiKeys  usecase.APIKeyUseCase
	resolver usecase.CredentialResolver
	access   usecase.AccessUseCase
	keys     authService.KeyProvider
}

func setupFlowDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prosa.db")

	m, err := database.NewMigrate(database.DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	_, _ = m.Close()

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, ConnectionString: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// newFlowFixture wires the real services over SQLite. When memoryTokens is
// set, refresh tokens live in the in-memory store instead.
func newFlowFixture(t *testing.T, memoryTokens bool) *flowFixture {
	t.Helper()
	db := setupFlowDB(t)
	clk := clock.Fake(time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AuthSessionTokenExpiration: 15 * time.Minute,
		AuthRefreshTokenExpiration: 24 * time.Hour,
	}

	key, err := authService.GenerateSigningKey()
	require.NoError(t, err)
	keys, err := authService.NewKeyProvider([]*authService.SigningKey{key}, "")
	require.NoError(t, err)

	userRepo := mysql.NewMySQLUserRepository(db)
	var tokenRepo usecase.RefreshTokenRepository = mysql.NewMySQLRefreshTokenRepository(db)
	if memoryTokens {
		tokenRepo = memory.NewRefreshTokenRepository(clk, logger)
	}

	passwords := authService.NewPasswordService()
	tokens := authService.NewTokenService()
	sessionTokens := authService.NewSessionTokenService(keys, "prosa", clk)
	apiKeys := usecase.NewAPIKeyUseCase(
		database.NewTxManager(db),
		mysql.NewMySQLAPIKeyRepository(db),
		userRepo,
		tokens,
		clk,
	)

	return &flowFixture{
		clock:    clk,
		users:    usecase.NewUserUseCase(userRepo, passwords, clk),
		sessions: usecase.NewSessionUseCase(cfg, userRepo, tokenRepo, passwords, tokens, sessionTokens, clk, logger),
		apiKeys:  apiKeys,
		resolver: usecase.NewCredentialResolver(sessionTokens, apiKeys),
		access:   usecase.NewAccessUseCase(nil, clk, logger),
		keys:     keys,
	}
}

func TestSessionFlow(t *testing.T) {
	for _, store := range []string{"database", "memory"} {
		t.Run(store, func(t *testing.T) {
			ctx := context.Background()
			f := newFlowFixture(t, store == "memory")

			user, err := f.users.Register(ctx, &authDomain.RegisterUserInput{Username: "reader", Password: "s3cret-pass"})
			require.NoError(t, err)

			_, err = f.sessions.Login(ctx, &authDomain.LoginInput{Username: "reader", Password: "wrong"})
			assert.ErrorIs(t, err, authDomain.ErrInvalidLogin)
			_, err = f.sessions.Login(ctx, &authDomain.LoginInput{Username: "nobody", Password: "s3cret-pass"})
			assert.ErrorIs(t, err, authDomain.ErrInvalidLogin)

			first, err := f.sessions.Login(ctx, &authDomain.LoginInput{Username: "reader", Password: "s3cret-pass"})
			require.NoError(t, err)

			principal, err := f.resolver.Resolve(ctx, authDomain.CredentialMaterial{BearerToken: first.SessionToken})
			require.NoError(t, err)
			assert.Equal(t, user.ID, principal.UserID())
			assert.Equal(t, authDomain.CredentialSession, principal.CredentialKind())

			f.clock.Advance(time.Minute)
			second, err := f.sessions.Refresh(ctx, first.RefreshToken)
			require.NoError(t, err)
			assert.Equal(t, first.Session.ID, second.Session.ID)

			_, err = f.sessions.Refresh(ctx, first.RefreshToken)
			assert.ErrorIs(t, err, authDomain.ErrInvalidToken)

			third, err := f.sessions.Refresh(ctx, second.RefreshToken)
			require.NoError(t, err)

			require.NoError(t, f.sessions.Logout(ctx, third.RefreshToken))
			assert.ErrorIs(t, f.sessions.Logout(ctx, third.RefreshToken), authDomain.ErrTokenNotFound)
			assert.ErrorIs(t, f.sessions.Logout(ctx, "never-issued"), authDomain.ErrTokenNotFound)

			_, err = f.sessions.Refresh(ctx, third.RefreshToken)
			assert.ErrorIs(t, err, authDomain.ErrInvalidToken)

			f.clock.Advance(15 * time.Minute)
			_, err = f.resolver.Resolve(ctx, authDomain.CredentialMaterial{BearerToken: third.SessionToken})
			assert.ErrorIs(t, err, authDomain.ErrUnauthenticated)
		})
	}
}

func TestSessionFlow_SessionTokenSurvivesKeyRotation(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, true)

	_, err := f.users.Register(ctx, &authDomain.RegisterUserInput{Username: "reader", Password: "s3cret-pass"})
	require.NoError(t, err)
	tokens, err := f.sessions.Login(ctx, &authDomain.LoginInput{Username: "reader", Password: "s3cret-pass"})
	require.NoError(t, err)

	oldKey := f.keys.ActiveKey()
	newKey, err := authService.GenerateSigningKey()
	require.NoError(t, err)
	require.NoError(t, f.keys.Replace([]*authService.SigningKey{oldKey, newKey}, newKey.KeyID))

	_, err = f.resolver.Resolve(ctx, authDomain.CredentialMaterial{BearerToken: tokens.SessionToken})
	assert.NoError(t, err)

	require.NoError(t, f.keys.Replace([]*authService.SigningKey{newKey}, newKey.KeyID))
	_, err = f.resolver.Resolve(ctx, authDomain.CredentialMaterial{BearerToken: tokens.SessionToken})
	assert.ErrorIs(t, err, authDomain.ErrUnauthenticated)
}

func TestAPIKeyFlow(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, false)

	owner, err := f.users.Register(ctx, &authDomain.RegisterUserInput{Username: "owner", Password: "s3cret-pass"})
	require.NoError(t, err)
	stranger, err := f.users.Register(ctx, &authDomain.RegisterUserInput{Username: "stranger", Password: "s3cret-pass"})
	require.NoError(t, err)
	admin, err := f.users.Register(ctx, &authDomain.RegisterUserInput{
		Username: "admin",
		Password: "s3cret-pass",
		Role:     authDomain.RoleAdmin,
	})
	require.NoError(t, err)

	t.Run("Error_ValidationBeforeStorage", func(t *testing.T) {
		_, err := f.apiKeys.Create(ctx, &authDomain.CreateAPIKeyInput{OwnerID: uuid.Must(uuid.NewV7()), Name: "x"})
		assert.ErrorIs(t, err, authDomain.ErrEmptyCapabilities)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	expiresAt := f.clock.Now().Add(time.Hour)
	created, err := f.apiKeys.Create(ctx, &authDomain.CreateAPIKeyInput{
		OwnerID:      owner.ID,
		Name:         "reader",
		Capabilities: []authDomain.Capability{authDomain.CapabilityRead},
		ExpiresAt:    &expiresAt,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.PlainKey)

	principal, err := f.resolver.Resolve(ctx, authDomain.CredentialMaterial{APIKey: created.PlainKey})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, principal.UserID())
	assert.Equal(t, authDomain.RoleUser, principal.Role())

	t.Run("Success_OwnerReads", func(t *testing.T) {
		q := authDomain.OwnedResourceQuery(principal, authDomain.CapabilityRead, authDomain.ResourceBook, owner.ID)
		assert.NoError(t, f.access.Authorize(ctx, q))
	})

	t.Run("Error_OwnerWithoutCapability", func(t *testing.T) {
		q := authDomain.OwnedResourceQuery(principal, authDomain.CapabilityDelete, authDomain.ResourceBook, owner.ID)
		assert.ErrorIs(t, f.access.Authorize(ctx, q), authDomain.ErrAccessForbidden)
	})

	t.Run("Error_StrangerResourceHidden", func(t *testing.T) {
		q := authDomain.OwnedResourceQuery(principal, authDomain.CapabilityRead, authDomain.ResourceShelf, stranger.ID)
		err := f.access.Authorize(ctx, q)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
		assert.Equal(t, authDomain.ResourceShelf.NotFoundMessage(), err.Error())
	})

	t.Run("Success_AdminKeyIsStillStandardRole", func(t *testing.T) {
		adminKey, err := f.apiKeys.Create(ctx, &authDomain.CreateAPIKeyInput{
			OwnerID:      admin.ID,
			Name:         "admin-key",
			Capabilities: authDomain.AllCapabilities(),
		})
		require.NoError(t, err)

		p, err := f.resolver.Resolve(ctx, authDomain.CredentialMaterial{APIKey: adminKey.PlainKey})
		require.NoError(t, err)
		assert.False(t, p.IsElevated())

		q := authDomain.OwnedResourceQuery(p, authDomain.CapabilityRead, authDomain.ResourceBook, owner.ID)
		assert.True(t, apperrors.Is(f.access.Authorize(ctx, q), apperrors.ErrNotFound))
	})

	t.Run("Error_ExpiredKeyIsInvalid", func(t *testing.T) {
		f.clock.Set(expiresAt)
		_, err := f.resolver.Resolve(ctx, authDomain.CredentialMaterial{APIKey: created.PlainKey})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)

		_, err = f.apiKeys.Get(ctx, created.APIKey.ID)
		assert.NoError(t, err)
	})

	t.Run("Error_DeletedKeyIsInvalid", func(t *testing.T) {
		require.NoError(t, f.apiKeys.Delete(ctx, created.APIKey.ID))
		_, err := f.resolver.Resolve(ctx, authDomain.CredentialMaterial{APIKey: created.PlainKey})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
	})
}
