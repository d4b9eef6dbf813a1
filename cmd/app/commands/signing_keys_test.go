package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
)

func TestRunCreateSigningKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("text-output", func(t *testing.T) {
		dir := t.TempDir()
		store := authService.NewFileKeyStore(dir, nil)

		var out bytes.Buffer
		require.NoError(t, RunCreateSigningKey(ctx, store, logger, &out, "text"))
		require.Contains(t, out.String(), "Algorithm: EdDSA")

		keys, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		require.Contains(t, out.String(), keys[0].KeyID)
		require.FileExists(t, filepath.Join(dir, keys[0].KeyID+authService.SigningKeyFileExt))
	})

	t.Run("json-output", func(t *testing.T) {
		store := authService.NewFileKeyStore(t.TempDir(), nil)

		var out bytes.Buffer
		require.NoError(t, RunCreateSigningKey(ctx, store, logger, &out, "json"))

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, "EdDSA", result["alg"])
		require.NotEmpty(t, result["kid"])
	})

	t.Run("unwritable-directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		store := authService.NewFileKeyStore(file, nil)

		err := RunCreateSigningKey(ctx, store, logger, &bytes.Buffer{}, "text")
		require.ErrorContains(t, err, "failed to save signing key")
	})
}

func TestRunListSigningKeys(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("newest-is-active", func(t *testing.T) {
		store := authService.NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, RunCreateSigningKey(ctx, store, logger, io.Discard, "text"))
		require.NoError(t, RunCreateSigningKey(ctx, store, logger, io.Discard, "text"))

		var out bytes.Buffer
		require.NoError(t, RunListSigningKeys(ctx, store, "", &out, "text"))

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		require.True(t, strings.HasPrefix(lines[0], "  "))
		require.True(t, strings.HasPrefix(lines[1], "* "))
	})

	t.Run("pinned-active-json", func(t *testing.T) {
		store := authService.NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, RunCreateSigningKey(ctx, store, logger, io.Discard, "text"))
		keys, err := store.Load(ctx)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, RunListSigningKeys(ctx, store, keys[0].KeyID, &out, "json"))

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, keys[0].KeyID, result["active_key_id"])
	})

	t.Run("empty-store", func(t *testing.T) {
		store := authService.NewFileKeyStore(filepath.Join(t.TempDir(), "missing"), nil)

		var out bytes.Buffer
		require.NoError(t, RunListSigningKeys(ctx, store, "", &out, "text"))
		require.Contains(t, out.String(), "No signing keys found")
	})
}
