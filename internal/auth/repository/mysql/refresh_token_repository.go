package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// MySQLRefreshTokenRepository implements RefreshToken persistence for MySQL and SQLite.
// A token is consumed by an UPDATE guarded on revoked_at IS NULL; when two
// transactions race for the same row only one of them affects it.
type MySQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewMySQLRefreshTokenRepository creates a new MySQL RefreshToken repository.
func NewMySQLRefreshTokenRepository(db *sql.DB) *MySQLRefreshTokenRepository {
	return &MySQLRefreshTokenRepository{db: db}
}

func (m *MySQLRefreshTokenRepository) Create(ctx context.Context, token *authDomain.RefreshToken) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(token.ID, "refresh token id")
	if err != nil {
		return err
	}
	sessionID, err := marshalID(token.SessionID, "session id")
	if err != nil {
		return err
	}
	userID, err := marshalID(token.UserID, "user id")
	if err != nil {
		return err
	}

	query := `INSERT INTO refresh_tokens (id, token_hash, session_id, user_id, expires_at, revoked_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		sessionID,
		userID,
		token.ExpiresAt.UTC(),
		utcOrNil(token.RevokedAt),
		token.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

func (m *MySQLRefreshTokenRepository) GetActive(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	token, _, err := m.find(ctx, tokenHash, now.UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, err
	}
	return token, nil
}

func (m *MySQLRefreshTokenRepository) Rotate(
	ctx context.Context,
	tokenHash string,
	replacement *authDomain.RefreshToken,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	var consumed *authDomain.RefreshToken

	err := database.RunInTx(ctx, m.db, func(ctx context.Context) error {
		var err error
		consumed, err = m.consume(ctx, tokenHash, now)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return authDomain.ErrInvalidToken
			}
			return err
		}

		replacement.SessionID = consumed.SessionID
		replacement.UserID = consumed.UserID
		return m.Create(ctx, replacement)
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

func (m *MySQLRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	err := database.RunInTx(ctx, m.db, func(ctx context.Context) error {
		_, err := m.consume(ctx, tokenHash, now)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.ErrTokenNotFound
		}
		return err
	}
	return nil
}

func (m *MySQLRefreshTokenRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)
	where := ` WHERE expires_at < ? OR revoked_at < ?`
	cutoff := before.UTC()

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM refresh_tokens`+where, cutoff, cutoff).Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired refresh tokens")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM refresh_tokens`+where, cutoff, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	return count, nil
}

// consume revokes the active token matching tokenHash and returns it. It must
// run inside a transaction and returns sql.ErrNoRows when no active token matches.
func (m *MySQLRefreshTokenRepository) consume(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*authDomain.RefreshToken, error) {
	querier := database.GetTx(ctx, m.db)
	at := now.UTC()

	token, rawID, err := m.find(ctx, tokenHash, at)
	if err != nil {
		return nil, err
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		at,
		rawID,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to revoke refresh token")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to revoke refresh token")
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}

	token.RevokedAt = &at
	return token, nil
}

// find loads the token matching tokenHash that is active at at, along with
// its binary id. It returns sql.ErrNoRows when no active token matches.
func (m *MySQLRefreshTokenRepository) find(
	ctx context.Context,
	tokenHash string,
	at time.Time,
) (*authDomain.RefreshToken, []byte, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, session_id, user_id, expires_at, created_at
			  FROM refresh_tokens
			  WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`

	var token authDomain.RefreshToken
	var id, sessionID, userID []byte
	err := querier.QueryRowContext(ctx, query, tokenHash, at).Scan(
		&id,
		&token.TokenHash,
		&sessionID,
		&userID,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, nil, apperrors.Wrap(err, "failed to get refresh token")
	}

	if err := unmarshalID(id, &token.ID, "refresh token id"); err != nil {
		return nil, nil, err
	}
	if err := unmarshalID(sessionID, &token.SessionID, "session id"); err != nil {
		return nil, nil, err
	}
	if err := unmarshalID(userID, &token.UserID, "user id"); err != nil {
		return nil, nil, err
	}
	token.ExpiresAt = token.ExpiresAt.UTC()
	token.CreatedAt = token.CreatedAt.UTC()
	return &token, id, nil
}
