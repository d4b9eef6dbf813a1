package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/metrics"
)

const metricsDomain = "auth"

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, status string) {
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{next: useCase, metrics: m}
}

func (s *sessionUseCaseWithMetrics) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.SessionTokens, error) {
	start := time.Now()
	out, err := s.next.Login(ctx, input)
	record(ctx, s.metrics, "session_login", start, statusOf(err))
	return out, err
}

func (s *sessionUseCaseWithMetrics) Refresh(ctx context.Context, refreshToken string) (*authDomain.SessionTokens, error) {
	start := time.Now()
	out, err := s.next.Refresh(ctx, refreshToken)
	record(ctx, s.metrics, "session_refresh", start, statusOf(err))
	return out, err
}

func (s *sessionUseCaseWithMetrics) Logout(ctx context.Context, refreshToken string) error {
	start := time.Now()
	err := s.next.Logout(ctx, refreshToken)
	record(ctx, s.metrics, "session_logout", start, statusOf(err))
	return err
}

func (s *sessionUseCaseWithMetrics) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := s.next.CleanupExpired(ctx, days, dryRun)
	record(ctx, s.metrics, "refresh_token_cleanup", start, statusOf(err))
	return count, err
}

// userUseCaseWithMetrics decorates UserUseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UserUseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UserUseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UserUseCase, m metrics.BusinessMetrics) UserUseCase {
	return &userUseCaseWithMetrics{next: useCase, metrics: m}
}

func (u *userUseCaseWithMetrics) Register(
	ctx context.Context,
	input *authDomain.RegisterUserInput,
) (*authDomain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)
	record(ctx, u.metrics, "user_register", start, statusOf(err))
	return user, err
}

func (u *userUseCaseWithMetrics) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	start := time.Now()
	user, err := u.next.Get(ctx, userID)
	record(ctx, u.metrics, "user_get", start, statusOf(err))
	return user, err
}

// apiKeyUseCaseWithMetrics decorates APIKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    APIKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewAPIKeyUseCaseWithMetrics wraps an APIKeyUseCase with metrics recording.
func NewAPIKeyUseCaseWithMetrics(useCase APIKeyUseCase, m metrics.BusinessMetrics) APIKeyUseCase {
	return &apiKeyUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *apiKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	start := time.Now()
	out, err := a.next.Create(ctx, input)
	record(ctx, a.metrics, "api_key_create", start, statusOf(err))
	return out, err
}

func (a *apiKeyUseCaseWithMetrics) Get(ctx context.Context, keyID uuid.UUID) (*authDomain.APIKey, error) {
	start := time.Now()
	key, err := a.next.Get(ctx, keyID)
	record(ctx, a.metrics, "api_key_get", start, statusOf(err))
	return key, err
}

func (a *apiKeyUseCaseWithMetrics) List(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	start := time.Now()
	keys, err := a.next.List(ctx, ownerID, offset, limit)
	record(ctx, a.metrics, "api_key_list", start, statusOf(err))
	return keys, err
}

func (a *apiKeyUseCaseWithMetrics) Delete(ctx context.Context, keyID uuid.UUID) error {
	start := time.Now()
	err := a.next.Delete(ctx, keyID)
	record(ctx, a.metrics, "api_key_delete", start, statusOf(err))
	return err
}

func (a *apiKeyUseCaseWithMetrics) Authenticate(ctx context.Context, plainKey string) (*authDomain.APIKey, error) {
	start := time.Now()
	key, err := a.next.Authenticate(ctx, plainKey)
	record(ctx, a.metrics, "api_key_authenticate", start, statusOf(err))
	return key, err
}

// accessUseCaseWithMetrics decorates AccessUseCase. The status label is the decision.
type accessUseCaseWithMetrics struct {
	next    AccessUseCase
	metrics metrics.BusinessMetrics
}

// NewAccessUseCaseWithMetrics wraps an AccessUseCase with metrics recording.
func NewAccessUseCaseWithMetrics(useCase AccessUseCase, m metrics.BusinessMetrics) AccessUseCase {
	return &accessUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *accessUseCaseWithMetrics) Authorize(ctx context.Context, query authDomain.AuthorizationQuery) error {
	start := time.Now()
	err := a.next.Authorize(ctx, query)
	record(ctx, a.metrics, "access_authorize", start, authDomain.Decide(query).String())
	return err
}

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *auditLogUseCaseWithMetrics) Record(ctx context.Context, auditLog *authDomain.AuditLog) error {
	start := time.Now()
	err := a.next.Record(ctx, auditLog)
	record(ctx, a.metrics, "audit_log_record", start, statusOf(err))
	return err
}

func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*authDomain.AuditLog, error) {
	start := time.Now()
	logs, err := a.next.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	record(ctx, a.metrics, "audit_log_list", start, statusOf(err))
	return logs, err
}

func (a *auditLogUseCaseWithMetrics) Verify(
	ctx context.Context,
	createdAtFrom, createdAtTo *time.Time,
) (*authDomain.AuditLogVerification, error) {
	start := time.Now()
	result, err := a.next.Verify(ctx, createdAtFrom, createdAtTo)
	record(ctx, a.metrics, "audit_log_verify", start, statusOf(err))
	return result, err
}

func (a *auditLogUseCaseWithMetrics) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := a.next.DeleteOlderThan(ctx, days, dryRun)
	record(ctx, a.metrics, "audit_log_delete", start, statusOf(err))
	return count, err
}
