package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// MySQLUserRepository implements User persistence for MySQL and SQLite.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL User repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a user. A duplicate username yields ErrUsernameTaken.
func (m *MySQLUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(user.ID, "user id")
	if err != nil {
		return err
	}

	query := `INSERT INTO users (id, username, password_hash, role, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return authDomain.ErrUsernameTaken
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

func (m *MySQLUserRepository) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	id, err := marshalID(userID, "user id")
	if err != nil {
		return nil, err
	}
	return m.getOne(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?`, id)
}

func (m *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*authDomain.User, error) {
	return m.getOne(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`, username)
}

func (m *MySQLUserRepository) getOne(ctx context.Context, query string, arg any) (*authDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	var user authDomain.User
	var id []byte
	var role string

	err := querier.QueryRowContext(ctx, query, arg).Scan(&id, &user.Username, &user.PasswordHash, &role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := unmarshalID(id, &user.ID, "user id"); err != nil {
		return nil, err
	}
	user.Role, err = authDomain.ParseRole(role)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse user role")
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
