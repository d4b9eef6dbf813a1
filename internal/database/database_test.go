package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("Success_SQLiteInMemory", func(t *testing.T) {
		db, err := Connect(Config{
			Driver:             DriverSQLite,
			ConnectionString:   ":memory:",
			MaxOpenConnections: 10,
			MaxIdleConnections: 1,
			ConnMaxLifetime:    time.Hour,
		})
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, db.Close())
		}()

		assert.Equal(t, 1, db.Stats().MaxOpenConnections)

		var one int
		require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
		assert.Equal(t, 1, one)
	})

	t.Run("Success_SQLiteInMemoryKeepsSchema", func(t *testing.T) {
		db, err := Connect(Config{
			Driver:             DriverSQLite,
			ConnectionString:   ":memory:",
			MaxOpenConnections: 10,
			MaxIdleConnections: 0,
			ConnMaxLifetime:    time.Millisecond,
		})
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, db.Close())
		}()

		_, err = db.Exec("CREATE TABLE users (username TEXT NOT NULL)")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		_, err = db.Exec("INSERT INTO users (username) VALUES ('reader')")
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("Error_UnknownDriver", func(t *testing.T) {
		db, err := Connect(Config{
			Driver:             "invalid",
			ConnectionString:   "invalid",
			MaxOpenConnections: 10,
			MaxIdleConnections: 5,
			ConnMaxLifetime:    time.Hour,
		})
		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), "sql: unknown driver")
	})
}
