package mysql

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
)

func seedRefreshToken(
	t *testing.T,
	db *sql.DB,
	user *authDomain.User,
	hash string,
	expiresAt time.Time,
) *authDomain.RefreshToken {
	t.Helper()
	token := &authDomain.RefreshToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: hash,
		SessionID: uuid.Must(uuid.NewV7()),
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-time.Hour),
	}
	require.NoError(t, NewMySQLRefreshTokenRepository(db).Create(context.Background(), token))
	return token
}

func replacementToken(hash string, now time.Time) *authDomain.RefreshToken {
	return &authDomain.RefreshToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: hash,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
}

func TestMySQLRefreshTokenRepository_GetActive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	t.Run("Success_DoesNotConsume", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewMySQLRefreshTokenRepository(db)
		user := createTestUser(t, db, "alice")
		original := seedRefreshToken(t, db, user, "h0", now.Add(time.Hour))

		found, err := repo.GetActive(ctx, "h0", now)
		require.NoError(t, err)
		assert.Equal(t, original.ID, found.ID)
		assert.Equal(t, original.SessionID, found.SessionID)
		assert.Equal(t, user.ID, found.UserID)
		assert.Nil(t, found.RevokedAt)

		_, err = repo.Rotate(ctx, "h0", replacementToken("h1", now), now)
		assert.NoError(t, err)
	})

	t.Run("Error_Revoked", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewMySQLRefreshTokenRepository(db)
		user := createTestUser(t, db, "alice")
		seedRefreshToken(t, db, user, "h0", now.Add(time.Hour))
		require.NoError(t, repo.Revoke(ctx, "h0", now))

		_, err := repo.GetActive(ctx, "h0", now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("Error_Expired", func(t *testing.T) {
		db := setupSQLiteDB(t)
		user := createTestUser(t, db, "alice")
		seedRefreshToken(t, db, user, "h0", now)

		_, err := NewMySQLRefreshTokenRepository(db).GetActive(ctx, "h0", now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})
}

func TestMySQLRefreshTokenRepository_Rotate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	t.Run("Success_CopiesSessionAndUser", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewMySQLRefreshTokenRepository(db)
		user := createTestUser(t, db, "alice")
		original := seedRefreshToken(t, db, user, "h0", now.Add(time.Hour))

		replacement := replacementToken("h1", now)
		consumed, err := repo.Rotate(ctx, "h0", replacement, now)
		require.NoError(t, err)

		assert.Equal(t, original.ID, consumed.ID)
		require.NotNil(t, consumed.RevokedAt)
		assert.Equal(t, original.SessionID, replacement.SessionID)
		assert.Equal(t, user.ID, replacement.UserID)
	})

	t.Run("Success_ChainKeepsLatestSuccessorValid", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewMySQLRefreshTokenRepository(db)
		user := createTestUser(t, db, "alice")
		seedRefreshToken(t, db, user, "h0", now.Add(time.Hour))

		_, err := repo.Rotate(ctx, "h0", replacementToken("h1", now), now)
		require.NoError(t, err)
		_, err = repo.Rotate(ctx, "h1", replacementToken("h2", now), now)
		require.NoError(t, err)

		_, err = repo.Rotate(ctx, "h0", replacementToken("x0", now), now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		_, err = repo.Rotate(ctx, "h1", replacementToken("x1", now), now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)

		_, err = repo.Rotate(ctx, "h2", replacementToken("h3", now), now)
		assert.NoError(t, err)
	})

	t.Run("Error_Expired", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewMySQLRefreshTokenRepository(db)
		user := createTestUser(t, db, "alice")
		seedRefreshToken(t, db, user, "h0", now)

		_, err := repo.Rotate(ctx, "h0", replacementToken("h1", now), now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("Error_Unknown", func(t *testing.T) {
		db := setupSQLiteDB(t)

		_, err := NewMySQLRefreshTokenRepository(db).Rotate(ctx, "missing", replacementToken("h1", now), now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("Success_ConcurrentRotationsHaveOneWinner", func(t *testing.T) {
		db := setupSQLiteDB(t)
		repo := NewMySQLRefreshTokenRepository(db)
		user := createTestUser(t, db, "alice")
		seedRefreshToken(t, db, user, "h0", now.Add(time.Hour))

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.Rotate(ctx, "h0", replacementToken(uuid.NewString(), now), now)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		}
		assert.Equal(t, 1, winners)
	})
}

func TestMySQLRefreshTokenRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	db := setupSQLiteDB(t)
	repo := NewMySQLRefreshTokenRepository(db)
	user := createTestUser(t, db, "alice")
	seedRefreshToken(t, db, user, "h0", now.Add(time.Hour))
	seedRefreshToken(t, db, user, "old", now.Add(-time.Minute))

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, "h0", now))
	})

	t.Run("Error_AlreadyRevoked", func(t *testing.T) {
		assert.ErrorIs(t, repo.Revoke(ctx, "h0", now), authDomain.ErrTokenNotFound)
	})

	t.Run("Error_Expired", func(t *testing.T) {
		assert.ErrorIs(t, repo.Revoke(ctx, "old", now), authDomain.ErrTokenNotFound)
	})

	t.Run("Error_Unknown", func(t *testing.T) {
		assert.ErrorIs(t, repo.Revoke(ctx, "missing", now), authDomain.ErrTokenNotFound)
	})

	t.Run("Error_RevokedCannotRotate", func(t *testing.T) {
		_, err := repo.Rotate(ctx, "h0", replacementToken("h1", now), now)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})
}

func TestMySQLRefreshTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	db := setupSQLiteDB(t)
	repo := NewMySQLRefreshTokenRepository(db)
	user := createTestUser(t, db, "alice")

	seedRefreshToken(t, db, user, "expired", now.Add(-48*time.Hour))
	seedRefreshToken(t, db, user, "revoked", now.Add(time.Hour))
	seedRefreshToken(t, db, user, "active", now.Add(time.Hour))
	require.NoError(t, repo.Revoke(ctx, "revoked", now.Add(-48*time.Hour)))

	before := now.Add(-24 * time.Hour)

	t.Run("Success_DryRunCounts", func(t *testing.T) {
		count, err := repo.DeleteExpired(ctx, before, true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Success_Deletes", func(t *testing.T) {
		count, err := repo.DeleteExpired(ctx, before, false)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = repo.DeleteExpired(ctx, before, true)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Success_ActiveSurvives", func(t *testing.T) {
		_, err := repo.Rotate(ctx, "active", replacementToken("next", now), now)
		assert.NoError(t, err)
	})
}

func TestMySQLRefreshTokenRepository_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	now := time.Now().UTC()
	id, _ := uuid.Must(uuid.NewV7()).MarshalBinary()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token_hash", "session_id", "user_id", "expires_at", "created_at"}).
			AddRow(id, "h0", id, id, now.Add(time.Hour), now))
	mock.ExpectExec("UPDATE refresh_tokens").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = NewMySQLRefreshTokenRepository(db).Rotate(context.Background(), "h0", replacementToken("h1", now), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create refresh token")
	assert.NoError(t, mock.ExpectationsWereMet())
}
