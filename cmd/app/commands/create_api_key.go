package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/http/dto"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	customValidation "github.com/tiago-cos/prosa-sub000/internal/validation"
)

// RunCreateAPIKey issues an API key for an existing user. capabilities are
// names such as "Read"; expiresIn of zero creates a key that never expires.
// The plain key is printed once and cannot be recovered afterwards.
func RunCreateAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	clk clock.Clock,
	logger *slog.Logger,
	writer io.Writer,
	userID, name string,
	capabilities []string,
	expiresIn time.Duration,
	format string,
) error {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	now := clk.Now()
	request := &dto.CreateAPIKeyRequest{Name: name, Capabilities: capabilities}
	if expiresIn != 0 {
		expiresAt := now.Add(expiresIn).Unix()
		request.ExpiresAt = &expiresAt
	}

	if err := request.Validate(); err != nil {
		return fmt.Errorf("invalid api key: %w", customValidation.WrapValidationError(err))
	}
	input, err := request.ToInput(ownerID, now)
	if err != nil {
		return fmt.Errorf("invalid api key: %w", err)
	}

	logger.Info("creating api key",
		slog.String("owner_id", ownerID.String()),
		slog.String("name", name),
		slog.Any("capabilities", authDomain.CapabilityNames(input.Capabilities)),
	)

	output, err := apiKeyUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, dto.MapCreateAPIKeyOutputToResponse(output)); err != nil {
			return err
		}
	} else {
		outputAPIKeyText(writer, output)
	}

	logger.Info("api key created successfully", slog.String("api_key_id", output.APIKey.ID.String()))
	return nil
}

func outputAPIKeyText(writer io.Writer, output *authDomain.CreateAPIKeyOutput) {
	expires := "never"
	if output.APIKey.ExpiresAt != nil {
		expires = output.APIKey.ExpiresAt.Format(time.RFC3339)
	}

	_, _ = fmt.Fprintln(writer, "API key created successfully")
	_, _ = fmt.Fprintf(writer, "ID:           %s\n", output.APIKey.ID)
	_, _ = fmt.Fprintf(writer, "Owner:        %s\n", output.APIKey.OwnerID)
	_, _ = fmt.Fprintf(writer, "Name:         %s\n", output.APIKey.Name)
	_, _ = fmt.Fprintf(writer, "Capabilities: %s\n",
		strings.Join(authDomain.CapabilityNames(output.APIKey.Capabilities), ", "))
	_, _ = fmt.Fprintf(writer, "Expires:      %s\n", expires)
	_, _ = fmt.Fprintf(writer, "Key:          %s\n\n", output.PlainKey)
	_, _ = fmt.Fprintln(writer, "WARNING: Save this key now. It will not be shown again.")
}
