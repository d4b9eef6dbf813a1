package postgresql

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

// PostgreSQLAPIKeyRepository implements APIKey persistence for PostgreSQL.
type PostgreSQLAPIKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLAPIKeyRepository creates a new PostgreSQL APIKey repository.
func NewPostgreSQLAPIKeyRepository(db *sql.DB) *PostgreSQLAPIKeyRepository {
	return &PostgreSQLAPIKeyRepository{db: db}
}

func (p *PostgreSQLAPIKeyRepository) Create(ctx context.Context, key *authDomain.APIKey) error {
	querier := database.GetTx(ctx, p.db)

	capabilities, err := repository.EncodeCapabilities(key.Capabilities)
	if err != nil {
		return err
	}

	query := `INSERT INTO api_keys (` + apiKeyColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.ID,
		key.OwnerID,
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

func (p *PostgreSQLAPIKeyRepository) Get(ctx context.Context, keyID uuid.UUID) (*authDomain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1`
	return p.getOne(ctx, query, keyID)
}

func (p *PostgreSQLAPIKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*authDomain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1`
	return p.getOne(ctx, query, keyHash)
}

func (p *PostgreSQLAPIKeyRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys
			  WHERE owner_id = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, ownerID, limit, offset)
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

func (p *PostgreSQLAPIKeyRepository) Delete(ctx context.Context, keyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, keyID)
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

func (p *PostgreSQLAPIKeyRepository) getOne(ctx context.Context, query string, arg any) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	key, err := scanAPIKey(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, err
	}
	return key, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var key authDomain.APIKey
	var capabilities string

	err := row.Scan(
		&key.ID,
		&key.OwnerID,
		&key.Name,
		&capabilities,
		&key.KeyHash,
		&key.ExpiresAt,
		&key.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan api key")
	}

	key.Capabilities, err = repository.DecodeCapabilities(capabilities)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
