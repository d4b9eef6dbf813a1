package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

// auditVerifyBatchSize is the page size used when walking the log for verification.
const auditVerifyBatchSize = 500

type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       authService.AuditSigner
	signingKey   []byte
	clock        clock.Clock
}

// NewAuditLogUseCase creates an AuditLogUseCase that signs entries with signingKey.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer authService.AuditSigner,
	signingKey []byte,
	clk clock.Clock,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
		signingKey:   signingKey,
		clock:        clk,
	}
}

// Record truncates the timestamp to the microsecond precision every store keeps,
// so signatures survive a round trip through the database.
func (a *auditLogUseCase) Record(ctx context.Context, auditLog *authDomain.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.Must(uuid.NewV7())
	}
	auditLog.CreatedAt = auditLog.CreatedAt.UTC().Truncate(time.Microsecond)

	signature, err := a.signer.Sign(a.signingKey, auditLog)
	if err != nil {
		return apperrors.Wrap(err, "failed to sign audit log")
	}
	auditLog.Signature = signature

	if err := a.auditLogRepo.Create(ctx, auditLog); err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*authDomain.AuditLog, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	return auditLogs, nil
}

func (a *auditLogUseCase) Verify(
	ctx context.Context,
	createdAtFrom, createdAtTo *time.Time,
) (*authDomain.AuditLogVerification, error) {
	result := &authDomain.AuditLogVerification{}

	for offset := 0; ; offset += auditVerifyBatchSize {
		batch, err := a.auditLogRepo.List(ctx, offset, auditVerifyBatchSize, createdAtFrom, createdAtTo)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit logs")
		}

		for _, entry := range batch {
			result.Checked++
			err := a.signer.Verify(a.signingKey, entry)
			switch {
			case err == nil:
				result.Valid++
			case errors.Is(err, authDomain.ErrSignatureInvalid):
				result.Invalid = append(result.Invalid, entry.ID)
			default:
				return nil, apperrors.Wrap(err, "failed to verify audit log")
			}
		}

		if len(batch) < auditVerifyBatchSize {
			return result, nil
		}
	}
}

func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: days must be a positive number", apperrors.ErrInvalidInput)
	}

	before := a.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	count, err := a.auditLogRepo.DeleteOlderThan(ctx, before, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return count, nil
}
