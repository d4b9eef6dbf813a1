package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
)

func newTestAPIKey(owner uuid.UUID, name string, expiresAt *time.Time) *authDomain.APIKey {
	return &authDomain.APIKey{
		ID:           uuid.Must(uuid.NewV7()),
		OwnerID:      owner,
		Name:         name,
		Capabilities: []authDomain.Capability{authDomain.CapabilityRead, authDomain.CapabilityDelete},
		KeyHash:      "hash-" + name,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestMySQLAPIKeyRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewMySQLAPIKeyRepository(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")
	other := createTestUser(t, db, "bob")

	expiresAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	withExpiry := newTestAPIKey(owner.ID, "sync", &expiresAt)
	noExpiry := newTestAPIKey(owner.ID, "backup", nil)
	foreign := newTestAPIKey(other.ID, "foreign", nil)

	for _, key := range []*authDomain.APIKey{withExpiry, noExpiry, foreign} {
		require.NoError(t, repo.Create(ctx, key))
	}

	t.Run("Success_Get", func(t *testing.T) {
		got, err := repo.Get(ctx, withExpiry.ID)
		require.NoError(t, err)
		assert.Equal(t, withExpiry.OwnerID, got.OwnerID)
		assert.Equal(t, withExpiry.Capabilities, got.Capabilities)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, expiresAt.Equal(*got.ExpiresAt))
	})

	t.Run("Success_GetByKeyHash", func(t *testing.T) {
		got, err := repo.GetByKeyHash(ctx, "hash-backup")
		require.NoError(t, err)
		assert.Equal(t, noExpiry.ID, got.ID)
		assert.Nil(t, got.ExpiresAt)
	})

	t.Run("Success_ListByOwner", func(t *testing.T) {
		keys, err := repo.ListByOwner(ctx, owner.ID, 0, 10)
		require.NoError(t, err)
		require.Len(t, keys, 2)
		assert.Equal(t, withExpiry.ID, keys[0].ID)
		assert.Equal(t, noExpiry.ID, keys[1].ID)

		keys, err = repo.ListByOwner(ctx, owner.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, noExpiry.ID, keys[0].ID)
	})

	t.Run("Success_Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, foreign.ID))
		_, err := repo.Get(ctx, foreign.ID)
		assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
	})

	t.Run("Error_DeleteMissing", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, uuid.Must(uuid.NewV7())), authDomain.ErrAPIKeyNotFound)
	})

	t.Run("Error_GetByKeyHashMissing", func(t *testing.T) {
		_, err := repo.GetByKeyHash(ctx, "nope")
		assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
	})
}

func TestMySQLAPIKeyRepository_DatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	repo := NewMySQLAPIKeyRepository(db)
	ctx := context.Background()

	t.Run("Error_Create", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO api_keys").WillReturnError(errors.New("boom"))
		err := repo.Create(ctx, newTestAPIKey(uuid.Must(uuid.NewV7()), "x", nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create api key")
	})

	t.Run("Error_List", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM api_keys").WillReturnError(errors.New("boom"))
		_, err := repo.ListByOwner(ctx, uuid.Must(uuid.NewV7()), 0, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list api keys")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
