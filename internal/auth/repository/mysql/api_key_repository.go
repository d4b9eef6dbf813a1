package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

const apiKeyColumns = `id, owner_id, name, capabilities, key_hash, expires_at, created_at`

// MySQLAPIKeyRepository implements APIKey persistence for MySQL and SQLite.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// NewMySQLAPIKeyRepository creates a new MySQL APIKey repository.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}

func (m *MySQLAPIKeyRepository) Create(ctx context.Context, key *authDomain.APIKey) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(key.ID, "api key id")
	if err != nil {
		return err
	}
	ownerID, err := marshalID(key.OwnerID, "owner id")
	if err != nil {
		return err
	}
	capabilities, err := repository.EncodeCapabilities(key.Capabilities)
	if err != nil {
		return err
	}

	query := `INSERT INTO api_keys (` + apiKeyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		ownerID,
		key.Name,
		capabilities,
		key.KeyHash,
		utcOrNil(key.ExpiresAt),
		key.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

func (m *MySQLAPIKeyRepository) Get(ctx context.Context, keyID uuid.UUID) (*authDomain.APIKey, error) {
	id, err := marshalID(keyID, "api key id")
	if err != nil {
		return nil, err
	}
	return m.getOne(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
}

func (m *MySQLAPIKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error) {
	return m.getOne(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, keyHash)
}

func (m *MySQLAPIKeyRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	owner, err := marshalID(ownerID, "owner id")
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys
			  WHERE owner_id = ?
			  ORDER BY id
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}
	return keys, nil
}

func (m *MySQLAPIKeyRepository) Delete(ctx context.Context, keyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(keyID, "api key id")
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}
	if affected == 0 {
		return authDomain.ErrAPIKeyNotFound
	}
	return nil
}

func (m *MySQLAPIKeyRepository) getOne(ctx context.Context, query string, arg any) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	key, err := scanAPIKey(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, err
	}
	return key, nil
}

func scanAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var key authDomain.APIKey
	var id, ownerID []byte
	var capabilities string

	err := row.Scan(&id, &ownerID, &key.Name, &capabilities, &key.KeyHash, &key.ExpiresAt, &key.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan api key")
	}

	if err := unmarshalID(id, &key.ID, "api key id"); err != nil {
		return nil, err
	}
	if err := unmarshalID(ownerID, &key.OwnerID, "owner id"); err != nil {
		return nil, err
	}
	key.Capabilities, err = repository.DecodeCapabilities(capabilities)
	if err != nil {
		return nil, err
	}
	key.ExpiresAt = utcPtr(key.ExpiresAt)
	key.CreatedAt = key.CreatedAt.UTC()
	return &key, nil
}
