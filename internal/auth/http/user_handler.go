package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/auth/http/dto"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/httputil"
	customValidation "github.com/tiago-cos/prosa-sub000/internal/validation"
)

// UserHandler handles account registration and profile reads.
type UserHandler struct {
	userUseCase   authUseCase.UserUseCase
	accessUseCase authUseCase.AccessUseCase
	logger        *slog.Logger
}

// NewUserHandler creates a new user handler with required dependencies.
func NewUserHandler(
	userUseCase authUseCase.UserUseCase,
	accessUseCase authUseCase.AccessUseCase,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userUseCase:   userUseCase,
		accessUseCase: accessUseCase,
		logger:        logger,
	}
}

// RegisterHandler creates an account with the standard role.
// POST /v1/users - No authentication required.
// Returns 201 Created, or 409 Conflict when the username is taken.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapUserToResponse(user))
}

// GetHandler returns a user profile.
// GET /v1/users/:user_id - Requires Read on the user; other users' profiles are hidden (404).
func (h *UserHandler) GetHandler(c *gin.Context) {
	principal, ok := principalOrAbort(c, h.logger)
	if !ok {
		return
	}

	userID, ok := parseIDParam(c, "user_id", authDomain.ResourceUser, h.logger)
	if !ok {
		return
	}

	query := authDomain.OwnedResourceQuery(principal, authDomain.CapabilityRead, authDomain.ResourceUser, userID)
	if err := h.accessUseCase.Authorize(c.Request.Context(), query); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToResponse(user))
}
