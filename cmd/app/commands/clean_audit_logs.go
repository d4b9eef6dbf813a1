package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
)

// RunCleanAuditLogs deletes audit logs older than the specified number of days.
// Supports dry-run mode to preview deletion count and both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanAuditLogs(
	ctx context.Context,
	auditLogUseCase authUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning audit logs",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := auditLogUseCase.DeleteOlderThan(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete audit logs: %w", err)
	}

	if format == "json" {
		if err := writeCleanupJSON(writer, count, days, dryRun); err != nil {
			return err
		}
	} else {
		writeCleanupText(writer, "audit log(s)", count, days, dryRun)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}

// writeCleanupText writes the result of a retention sweep for humans.
func writeCleanupText(writer io.Writer, noun string, count int64, days int, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d %s older than %d day(s)\n", count, noun, days)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d %s older than %d day(s)\n", count, noun, days)
	}
}

// writeCleanupJSON writes the result of a retention sweep for machine consumption.
func writeCleanupJSON(writer io.Writer, count int64, days int, dryRun bool) error {
	return writeJSON(writer, map[string]any{
		"count":   count,
		"days":    days,
		"dry_run": dryRun,
	})
}
