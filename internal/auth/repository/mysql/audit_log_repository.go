package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL and SQLite.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *authDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(auditLog.ID, "audit log id")
	if err != nil {
		return err
	}
	principalID, err := marshalID(auditLog.PrincipalID, "principal id")
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs
			  (id, request_id, principal_id, credential_kind, capability, resource_kind, decision, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		auditLog.RequestID,
		principalID,
		string(auditLog.CredentialKind),
		auditLog.Capability.String(),
		string(auditLog.ResourceKind),
		auditLog.Decision.String(),
		auditLog.Signature,
		auditLog.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

// List retrieves audit logs newest first. Both time bounds are optional and inclusive.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*authDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any
	if createdAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, createdAtFrom.UTC())
	}
	if createdAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, createdAtTo.UTC())
	}

	query := `SELECT id, request_id, principal_id, credential_kind, capability, resource_kind, decision, signature, created_at
			  FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*authDomain.AuditLog, 0)
	for rows.Next() {
		var auditLog authDomain.AuditLog
		var id, principalID []byte
		var columns repository.AuditLogColumns

		err := rows.Scan(
			&id,
			&auditLog.RequestID,
			&principalID,
			&columns.CredentialKind,
			&columns.Capability,
			&columns.ResourceKind,
			&columns.Decision,
			&auditLog.Signature,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		if err := unmarshalID(id, &auditLog.ID, "audit log id"); err != nil {
			return nil, err
		}
		if err := unmarshalID(principalID, &auditLog.PrincipalID, "principal id"); err != nil {
			return nil, err
		}
		if err := columns.Apply(&auditLog); err != nil {
			return nil, err
		}
		auditLog.CreatedAt = auditLog.CreatedAt.UTC()
		auditLogs = append(auditLogs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}
	return auditLogs, nil
}

func (m *MySQLAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE created_at < ?`, before.UTC()).
			Scan(&count)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit logs")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return count, nil
}
