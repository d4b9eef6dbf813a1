package postgresql

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

var apiKeyColumnNames = []string{"id", "owner_id", "name", "capabilities", "key_hash", "expires_at", "created_at"}

func TestPostgreSQLAPIKeyRepository_Create(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	key := &authDomain.APIKey{
		ID:           uuid.Must(uuid.NewV7()),
		OwnerID:      uuid.Must(uuid.NewV7()),
		Name:         "sync",
		Capabilities: []authDomain.Capability{authDomain.CapabilityRead, authDomain.CapabilityUpdate},
		KeyHash:      "abc",
		ExpiresAt:    &expiresAt,
		CreatedAt:    time.Now().UTC(),
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO api_keys").
			WithArgs(
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				"sync",
				`["Read","Update"]`,
				"abc",
				expiresAt,
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, NewPostgreSQLAPIKeyRepository(db).Create(ctx, key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO api_keys").WillReturnError(errors.New("boom"))

		err := NewPostgreSQLAPIKeyRepository(db).Create(ctx, key)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create api key")
	})
}

func TestPostgreSQLAPIKeyRepository_GetByKeyHash(t *testing.T) {
	ctx := context.Background()
	keyID := uuid.Must(uuid.NewV7())
	ownerID := uuid.Must(uuid.NewV7())

	t.Run("Success_NoExpiry", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash").
			WithArgs("abc").
			WillReturnRows(sqlmock.NewRows(apiKeyColumnNames).
				AddRow(keyID.String(), ownerID.String(), "sync", `["Delete"]`, "abc", nil, time.Now().UTC()))

		key, err := NewPostgreSQLAPIKeyRepository(db).GetByKeyHash(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, keyID, key.ID)
		assert.Equal(t, ownerID, key.OwnerID)
		assert.Equal(t, []authDomain.Capability{authDomain.CapabilityDelete}, key.Capabilities)
		assert.Nil(t, key.ExpiresAt)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash").WillReturnRows(sqlmock.NewRows(apiKeyColumnNames))

		_, err := NewPostgreSQLAPIKeyRepository(db).GetByKeyHash(ctx, "abc")
		assert.ErrorIs(t, err, authDomain.ErrAPIKeyNotFound)
	})

	t.Run("Error_CorruptCapabilities", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash").
			WillReturnRows(sqlmock.NewRows(apiKeyColumnNames).
				AddRow(keyID.String(), ownerID.String(), "sync", `["Admin"]`, "abc", nil, time.Now().UTC()))

		_, err := NewPostgreSQLAPIKeyRepository(db).GetByKeyHash(ctx, "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode capabilities")
	})
}

func TestPostgreSQLAPIKeyRepository_ListByOwner(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows(apiKeyColumnNames).
			AddRow(uuid.Must(uuid.NewV7()).String(), ownerID.String(), "a", `["Read"]`, "h1", nil, time.Now().UTC()).
			AddRow(uuid.Must(uuid.NewV7()).String(), ownerID.String(), "b", `["Create"]`, "h2", nil, time.Now().UTC())
		mock.ExpectQuery("SELECT (.+) FROM api_keys").
			WithArgs(sqlmock.AnyArg(), 10, 20).
			WillReturnRows(rows)

		keys, err := NewPostgreSQLAPIKeyRepository(db).ListByOwner(ctx, ownerID, 20, 10)
		require.NoError(t, err)
		require.Len(t, keys, 2)
		assert.Equal(t, "a", keys[0].Name)
		assert.Equal(t, "b", keys[1].Name)
	})

	t.Run("Success_Empty", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM api_keys").WillReturnRows(sqlmock.NewRows(apiKeyColumnNames))

		keys, err := NewPostgreSQLAPIKeyRepository(db).ListByOwner(ctx, ownerID, 0, 10)
		require.NoError(t, err)
		assert.NotNil(t, keys)
		assert.Empty(t, keys)
	})
}

func TestPostgreSQLAPIKeyRepository_Delete(t *testing.T) {
	ctx := context.Background()
	keyID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM api_keys").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgreSQLAPIKeyRepository(db).Delete(ctx, keyID))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM api_keys").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewPostgreSQLAPIKeyRepository(db).Delete(ctx, keyID), authDomain.ErrAPIKeyNotFound)
	})
}
