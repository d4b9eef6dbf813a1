package usecase

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	"github.com/tiago-cos/prosa-sub000/internal/database"
)

type apiKeyUseCase struct {
	txManager    database.TxManager
	apiKeyRepo   APIKeyRepository
	userRepo     UserRepository
	tokenService authService.TokenService
	clock        clock.Clock
}

// NewAPIKeyUseCase creates an APIKeyUseCase.
func NewAPIKeyUseCase(
	txManager database.TxManager,
	apiKeyRepo APIKeyRepository,
	userRepo UserRepository,
	tokenService authService.TokenService,
	clk clock.Clock,
) APIKeyUseCase {
	return &apiKeyUseCase{
		txManager:    txManager,
		apiKeyRepo:   apiKeyRepo,
		userRepo:     userRepo,
		tokenService: tokenService,
		clock:        clk,
	}
}

// Create validates the capability set and expiry, then stores the key hash.
// Validation runs before the owner lookup so malformed requests never touch storage.
func (a *apiKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	now := a.clock.Now()
	if err := input.Validate(now); err != nil {
		return nil, err
	}

	plainKey, keyHash, err := a.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	key := &authDomain.APIKey{
		ID:           uuid.Must(uuid.NewV7()),
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Capabilities: slices.Clone(input.Capabilities),
		KeyHash:      keyHash,
		CreatedAt:    now,
	}
	if input.ExpiresAt != nil {
		expiresAt := input.ExpiresAt.UTC()
		key.ExpiresAt = &expiresAt
	}

	// The owner lookup and the insert share a transaction so a key never
	// outlives a concurrently removed owner.
	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := a.userRepo.Get(ctx, input.OwnerID); err != nil {
			return err
		}
		return a.apiKeyRepo.Create(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	return &authDomain.CreateAPIKeyOutput{APIKey: key, PlainKey: plainKey}, nil
}

func (a *apiKeyUseCase) Get(ctx context.Context, keyID uuid.UUID) (*authDomain.APIKey, error) {
	return a.apiKeyRepo.Get(ctx, keyID)
}

func (a *apiKeyUseCase) List(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	return a.apiKeyRepo.ListByOwner(ctx, ownerID, offset, limit)
}

func (a *apiKeyUseCase) Delete(ctx context.Context, keyID uuid.UUID) error {
	return a.apiKeyRepo.Delete(ctx, keyID)
}

// Authenticate looks the key up by the hash of the presented secret and
// confirms the match in constant time. Expiry is evaluated here, at use time.
func (a *apiKeyUseCase) Authenticate(ctx context.Context, plainKey string) (*authDomain.APIKey, error) {
	if plainKey == "" {
		return nil, authDomain.ErrInvalidCredential
	}

	keyHash := a.tokenService.HashToken(plainKey)
	key, err := a.apiKeyRepo.GetByKeyHash(ctx, keyHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrAPIKeyNotFound) {
			return nil, authDomain.ErrInvalidCredential
		}
		return nil, err
	}

	if !a.tokenService.CompareTokenHash(key.KeyHash, keyHash) {
		return nil, authDomain.ErrInvalidCredential
	}
	if key.IsExpired(a.clock.Now()) {
		return nil, authDomain.ErrInvalidCredential
	}

	return key, nil
}
