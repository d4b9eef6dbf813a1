package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
)

// RunCreateSigningKey generates an Ed25519 session signing key and saves it in
// the key store. Servers pick it up on restart, or at once when key watching
// is enabled, and it becomes active unless AUTH_SIGNING_KEY_ID pins another key.
func RunCreateSigningKey(
	ctx context.Context,
	keyStore authService.KeyStore,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	key, err := authService.GenerateSigningKey()
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	if err := keyStore.Save(ctx, key); err != nil {
		return fmt.Errorf("failed to save signing key: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"kid": key.KeyID,
			"alg": authService.SigningAlgorithm,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "Signing key created successfully")
		_, _ = fmt.Fprintf(writer, "Key ID:    %s\n", key.KeyID)
		_, _ = fmt.Fprintf(writer, "Algorithm: %s\n", authService.SigningAlgorithm)
	}

	logger.Info("signing key created", slog.String("kid", key.KeyID))
	return nil
}

// RunListSigningKeys prints the stored key ids, oldest first, and marks the
// one new session tokens are signed with.
func RunListSigningKeys(
	ctx context.Context,
	keyStore authService.KeyStore,
	activeKeyID string,
	writer io.Writer,
	format string,
) error {
	keys, err := keyStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load signing keys: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, key.KeyID)
	}
	slices.Sort(ids)

	active := activeKeyID
	if active == "" && len(ids) > 0 {
		active = ids[len(ids)-1]
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"keys":          ids,
			"active_key_id": active,
		})
	}

	if len(ids) == 0 {
		_, _ = fmt.Fprintln(writer, "No signing keys found")
		return nil
	}
	for _, id := range ids {
		marker := " "
		if id == active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(writer, "%s %s\n", marker, id)
	}
	return nil
}
