package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// PostgreSQLRefreshTokenRepository implements RefreshToken persistence for PostgreSQL.
// Consuming a token is a single conditional UPDATE, so concurrent rotations of
// the same token serialize on its row lock and only the first one matches.
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL RefreshToken repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}

func (p *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *authDomain.RefreshToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO refresh_tokens (id, token_hash, session_id, user_id, expires_at, revoked_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.SessionID,
		token.UserID,
		token.ExpiresAt.UTC(),
		utcOrNil(token.RevokedAt),
		token.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

func (p *PostgreSQLRefreshTokenRepository) GetActive(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, session_id, user_id, expires_at, revoked_at, created_at
			  FROM refresh_tokens
			  WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2`

	var token authDomain.RefreshToken
	err := querier.QueryRowContext(ctx, query, tokenHash, now.UTC()).Scan(
		&token.ID,
		&token.TokenHash,
		&token.SessionID,
		&token.UserID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}
	return &token, nil
}

func (p *PostgreSQLRefreshTokenRepository) Rotate(
	ctx context.Context,
	tokenHash string,
	replacement *authDomain.RefreshToken,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	var consumed *authDomain.RefreshToken

	err := database.RunInTx(ctx, p.db, func(ctx context.Context) error {
		var err error
		consumed, err = p.consume(ctx, tokenHash, now)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return authDomain.ErrInvalidToken
			}
			return err
		}

		replacement.SessionID = consumed.SessionID
		replacement.UserID = consumed.UserID
		return p.Create(ctx, replacement)
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

func (p *PostgreSQLRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	if _, err := p.consume(ctx, tokenHash, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.ErrTokenNotFound
		}
		return err
	}
	return nil
}

func (p *PostgreSQLRefreshTokenRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)
	where := ` WHERE expires_at < $1 OR revoked_at < $1`

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM refresh_tokens`+where, before.UTC()).Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired refresh tokens")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM refresh_tokens`+where, before.UTC())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	return count, nil
}

// consume marks the active token with tokenHash as revoked and returns it.
// It returns sql.ErrNoRows when no active token matches.
func (p *PostgreSQLRefreshTokenRepository) consume(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = $1
			  WHERE token_hash = $2 AND revoked_at IS NULL AND expires_at > $1
			  RETURNING id, token_hash, session_id, user_id, expires_at, revoked_at, created_at`

	var token authDomain.RefreshToken
	err := querier.QueryRowContext(ctx, query, now.UTC(), tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.SessionID,
		&token.UserID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to consume refresh token")
	}
	return &token, nil
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
