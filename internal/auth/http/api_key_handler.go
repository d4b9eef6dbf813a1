package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/http/dto"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	"github.com/tiago-cos/prosa-sub000/internal/httputil"
	customValidation "github.com/tiago-cos/prosa-sub000/internal/validation"
)

// APIKeyHandler handles HTTP requests for API key management.
// Every route is scoped to the user in the :user_id path parameter.
type APIKeyHandler struct {
	apiKeyUseCase authUseCase.APIKeyUseCase
	accessUseCase authUseCase.AccessUseCase
	clock         clock.Clock
	logger        *slog.Logger
}

// NewAPIKeyHandler creates a new API key handler with required dependencies.
func NewAPIKeyHandler(
	apiKeyUseCase authUseCase.APIKeyUseCase,
	accessUseCase authUseCase.AccessUseCase,
	clk clock.Clock,
	logger *slog.Logger,
) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyUseCase: apiKeyUseCase,
		accessUseCase: accessUseCase,
		clock:         clk,
		logger:        logger,
	}
}

// CreateHandler issues an API key for :user_id.
// POST /v1/users/:user_id/keys - Requires Create on the target user.
// Returns 201 Created with the plain key, which is never shown again.
// Capabilities and expiry are validated before the access decision.
func (h *APIKeyHandler) CreateHandler(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.logger)
	if !ok {
		return
	}

	ownerID, ok := parseIDParam(c, "user_id", authDomain.ResourceUser, h.logger)
	if !ok {
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input, err := req.ToInput(ownerID, h.clock.Now())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	query := authDomain.TargetUserQuery(principal, authDomain.CapabilityCreate, authDomain.ResourceAPIKey, ownerID)
	if err := h.accessUseCase.Authorize(c.Request.Context(), query); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.apiKeyUseCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCreateAPIKeyOutputToResponse(output))
}

// ListHandler lists the API keys of :user_id.
// GET /v1/users/:user_id/keys?offset=0&limit=50 - Requires Read; other users' keys are hidden (404).
func (h *APIKeyHandler) ListHandler(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.logger)
	if !ok {
		return
	}

	ownerID, ok := parseIDParam(c, "user_id", authDomain.ResourceUser, h.logger)
	if !ok {
		return
	}

	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	query := authDomain.OwnedResourceQuery(principal, authDomain.CapabilityRead, authDomain.ResourceAPIKey, ownerID)
	if err := h.accessUseCase.Authorize(c.Request.Context(), query); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	keys, err := h.apiKeyUseCase.List(c.Request.Context(), ownerID, page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAPIKeysToListResponse(keys))
}

// GetHandler returns one API key.
// GET /v1/users/:user_id/keys/:key_id - Requires Read on the key.
func (h *APIKeyHandler) GetHandler(c *gin.Context) {
	key, ok := h.authorizeKey(c, authDomain.CapabilityRead)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.MapAPIKeyToResponse(key))
}

// DeleteHandler removes an API key. The key stops authenticating immediately.
// DELETE /v1/users/:user_id/keys/:key_id - Requires Delete on the key.
// Returns 204 No Content.
func (h *APIKeyHandler) DeleteHandler(c *gin.Context) {
	key, ok := h.authorizeKey(c, authDomain.CapabilityDelete)
	if !ok {
		return
	}

	if err := h.apiKeyUseCase.Delete(c.Request.Context(), key.ID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// authorizeKey loads :key_id and runs the access decision with the key's owner
// as resource owner. A key that exists under another :user_id is reported as
// missing.
func (h *APIKeyHandler) authorizeKey(c *gin.Context, capability authDomain.Capability) (*authDomain.APIKey, bool) {
	principal, ok := principalOrAbort(c, h.logger)
	if !ok {
		return nil, false
	}

	ownerID, ok := parseIDParam(c, "user_id", authDomain.ResourceAPIKey, h.logger)
	if !ok {
		return nil, false
	}
	keyID, ok := parseIDParam(c, "key_id", authDomain.ResourceAPIKey, h.logger)
	if !ok {
		return nil, false
	}

	key, err := h.apiKeyUseCase.Get(c.Request.Context(), keyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return nil, false
	}
	if key.OwnerID != ownerID {
		httputil.HandleErrorGin(c, authDomain.ErrAPIKeyNotFound, h.logger)
		return nil, false
	}

	query := authDomain.OwnedResourceQuery(principal, capability, authDomain.ResourceAPIKey, key.OwnerID)
	if err := h.accessUseCase.Authorize(c.Request.Context(), query); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return nil, false
	}

	return key, true
}
