package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/testutil"
)

// setupSQLiteDB returns a migrated SQLite database in a temporary directory.
func setupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	return testutil.SetupSQLiteDB(t)
}

func createTestUser(t *testing.T, db *sql.DB, username string) *authDomain.User {
	t.Helper()
	user := &authDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     username,
		PasswordHash: "hash",
		Role:         authDomain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, NewMySQLUserRepository(db).Create(context.Background(), user))
	return user
}
