package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
)

type accessUseCase struct {
	auditLogs AuditLogUseCase
	clock     clock.Clock
	logger    *slog.Logger
}

// NewAccessUseCase creates an AccessUseCase. auditLogs may be nil to disable the audit trail.
func NewAccessUseCase(auditLogs AuditLogUseCase, clk clock.Clock, logger *slog.Logger) AccessUseCase {
	return &accessUseCase{
		auditLogs: auditLogs,
		clock:     clk,
		logger:    logger,
	}
}

// Authorize runs the decision engine. Failing to record the decision is logged
// and does not change the outcome.
func (a *accessUseCase) Authorize(ctx context.Context, query authDomain.AuthorizationQuery) error {
	decision := authDomain.Decide(query)

	if decision != authDomain.DecisionAllow {
		attrs := []any{
			slog.String("decision", decision.String()),
			slog.String("capability", query.Capability.String()),
			slog.String("resource_kind", string(query.ResourceKind)),
		}
		if query.Principal != nil {
			attrs = append(attrs, slog.String("principal_id", query.Principal.UserID().String()))
		}
		a.logger.DebugContext(ctx, "access denied", attrs...)
	}

	if a.auditLogs != nil && query.Principal != nil {
		entry := &authDomain.AuditLog{
			ID:             uuid.Must(uuid.NewV7()),
			RequestID:      RequestIDFromContext(ctx),
			PrincipalID:    query.Principal.UserID(),
			CredentialKind: query.Principal.CredentialKind(),
			Capability:     query.Capability,
			ResourceKind:   query.ResourceKind,
			Decision:       decision,
			CreatedAt:      a.clock.Now(),
		}
		if err := a.auditLogs.Record(ctx, entry); err != nil {
			a.logger.ErrorContext(ctx, "failed to record access decision", slog.Any("error", err))
		}
	}

	return decision.Err(query.ResourceKind)
}
