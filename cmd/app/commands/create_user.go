package commands

import (
	"context"
	"fmt"
	"log/slog"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/http/dto"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	customValidation "github.com/tiago-cos/prosa-sub000/internal/validation"
)

// RunCreateUser creates an account from the command line. It is the only way
// to create an admin account. When password is empty it is read from io.Reader.
// The same username and password rules as self-registration apply.
func RunCreateUser(
	ctx context.Context,
	userUseCase authUseCase.UserUseCase,
	logger *slog.Logger,
	username, password string,
	admin bool,
	format string,
	io IOTuple,
) error {
	if password == "" {
		var err error
		password, err = promptLine(io, "Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	request := &dto.RegisterUserRequest{Username: username, Password: password}
	if err := request.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", customValidation.WrapValidationError(err))
	}

	input := request.ToInput()
	if admin {
		input.Role = authDomain.RoleAdmin
	}

	logger.Info("creating user",
		slog.String("username", username),
		slog.String("role", string(input.Role)),
	)

	user, err := userUseCase.Register(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		if err := writeJSON(io.Writer, dto.MapUserToResponse(user)); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(io.Writer, "User created successfully")
		_, _ = fmt.Fprintf(io.Writer, "ID:       %s\n", user.ID)
		_, _ = fmt.Fprintf(io.Writer, "Username: %s\n", user.Username)
		_, _ = fmt.Fprintf(io.Writer, "Role:     %s\n", user.Role)
	}

	logger.Info("user created successfully", slog.String("user_id", user.ID.String()))
	return nil
}
