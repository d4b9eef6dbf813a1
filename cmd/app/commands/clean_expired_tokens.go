package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
)

// RunCleanExpiredTokens deletes refresh tokens that expired or were revoked more
// than days ago from the configured refresh token store.
func RunCleanExpiredTokens(
	ctx context.Context,
	sessionUseCase authUseCase.SessionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning expired refresh tokens",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := sessionUseCase.CleanupExpired(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired refresh tokens: %w", err)
	}

	if format == "json" {
		if err := writeCleanupJSON(writer, count, days, dryRun); err != nil {
			return err
		}
	} else {
		writeCleanupText(writer, "expired refresh token(s)", count, days, dryRun)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}
