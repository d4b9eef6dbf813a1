package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
)

type userUseCase struct {
	userRepo        UserRepository
	passwordService authService.PasswordService
	clock           clock.Clock
}

// NewUserUseCase creates a UserUseCase.
func NewUserUseCase(
	userRepo UserRepository,
	passwordService authService.PasswordService,
	clk clock.Clock,
) UserUseCase {
	return &userUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
		clock:           clk,
	}
}

// Register hashes the password and stores the user. An empty role means RoleUser.
func (u *userUseCase) Register(
	ctx context.Context,
	input *authDomain.RegisterUserInput,
) (*authDomain.User, error) {
	role := input.Role
	if role == "" {
		role = authDomain.RoleUser
	}

	hash, err := u.passwordService.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &authDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    u.clock.Now(),
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUseCase) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	return u.userRepo.Get(ctx, userID)
}
