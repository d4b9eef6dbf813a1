package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	"github.com/tiago-cos/prosa-sub000/internal/config"
	apperrors "github.com/tiago-cos/prosa-sub000/internal/errors"
)

type sessionUseCase struct {
	userRepo        UserRepository
	tokenRepo       RefreshTokenRepository
	passwordService authService.PasswordService
	tokenService    authService.TokenService
	sessionTokens   authService.SessionTokenService
	clock           clock.Clock
	sessionTTL      time.Duration
	refreshTTL      time.Duration
	logger          *slog.Logger
}

// NewSessionUseCase creates a SessionUseCase. Token lifetimes come from cfg.
func NewSessionUseCase(
	cfg *config.Config,
	userRepo UserRepository,
	tokenRepo RefreshTokenRepository,
	passwordService authService.PasswordService,
	tokenService authService.TokenService,
	sessionTokens authService.SessionTokenService,
	clk clock.Clock,
	logger *slog.Logger,
) SessionUseCase {
	return &sessionUseCase{
		userRepo:        userRepo,
		tokenRepo:       tokenRepo,
		passwordService: passwordService,
		tokenService:    tokenService,
		sessionTokens:   sessionTokens,
		clock:           clk,
		sessionTTL:      cfg.AuthSessionTokenExpiration,
		refreshTTL:      cfg.AuthRefreshTokenExpiration,
		logger:          logger,
	}
}

func (s *sessionUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.SessionTokens, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			// Unknown users pay for a hash comparison too.
			s.passwordService.ComparePassword(input.Password, "")
			return nil, authDomain.ErrInvalidLogin
		}
		return nil, err
	}

	if !s.passwordService.ComparePassword(input.Password, user.PasswordHash) {
		return nil, authDomain.ErrInvalidLogin
	}

	now := s.clock.Now()
	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate session id")
	}

	plainRefresh, refreshHash, err := s.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	refresh := &authDomain.RefreshToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: refreshHash,
		SessionID: sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return s.issue(user, sessionID, now, plainRefresh, refresh.ExpiresAt)
}

func (s *sessionUseCase) Refresh(ctx context.Context, refreshToken string) (*authDomain.SessionTokens, error) {
	now := s.clock.Now()
	tokenHash := s.tokenService.HashToken(refreshToken)

	current, err := s.tokenRepo.GetActive(ctx, tokenHash, now)
	if err != nil {
		return nil, s.rejectRefresh(ctx, err)
	}

	// The role is read again so a promotion or demotion applies from the next
	// refresh. The token is only consumed once the user has been loaded.
	user, err := s.userRepo.Get(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, err
	}

	plainRefresh, refreshHash, err := s.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	replacement := &authDomain.RefreshToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: refreshHash,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}

	consumed, err := s.tokenRepo.Rotate(ctx, tokenHash, replacement, now)
	if err != nil {
		return nil, s.rejectRefresh(ctx, err)
	}
	if consumed.UserID != user.ID {
		return nil, authDomain.ErrInvalidToken
	}

	return s.issue(user, consumed.SessionID, now, plainRefresh, replacement.ExpiresAt)
}

func (s *sessionUseCase) rejectRefresh(ctx context.Context, err error) error {
	if errors.Is(err, authDomain.ErrInvalidToken) {
		s.logger.WarnContext(ctx, "refresh token rejected")
	}
	return err
}

func (s *sessionUseCase) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.Revoke(ctx, s.tokenService.HashToken(refreshToken), s.clock.Now())
}

func (s *sessionUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: days must be a positive number", apperrors.ErrInvalidInput)
	}

	before := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	count, err := s.tokenRepo.DeleteExpired(ctx, before, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	return count, nil
}

// issue signs a session token. Claim times have second precision, so the
// session is built from a truncated clock reading.
func (s *sessionUseCase) issue(
	user *authDomain.User,
	sessionID uuid.UUID,
	now time.Time,
	plainRefresh string,
	refreshExpiresAt time.Time,
) (*authDomain.SessionTokens, error) {
	issuedAt := now.Truncate(time.Second)
	session := &authDomain.Session{
		ID:           sessionID,
		UserID:       user.ID,
		Role:         user.Role,
		Capabilities: authDomain.AllCapabilities(),
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(s.sessionTTL),
	}

	token, err := s.sessionTokens.Issue(session)
	if err != nil {
		return nil, err
	}

	return &authDomain.SessionTokens{
		Session:               session,
		SessionToken:          token,
		RefreshToken:          plainRefresh,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}
