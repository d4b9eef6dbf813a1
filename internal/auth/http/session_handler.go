package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-sub000/internal/auth/http/dto"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/httputil"
	customValidation "github.com/tiago-cos/prosa-sub000/internal/validation"
)

// SessionHandler handles login, refresh and logout.
type SessionHandler struct {
	sessionUseCase authUseCase.SessionUseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(sessionUseCase authUseCase.SessionUseCase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// LoginHandler opens a session.
// POST /v1/auth/login - No authentication required.
// Returns 200 OK with a session token and a refresh token.
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	tokens, err := h.sessionUseCase.Login(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionTokensToResponse(tokens))
}

// RefreshHandler rotates a refresh token.
// POST /v1/auth/refresh - No authentication required; the refresh token is the credential.
// Returns 200 OK with a new token pair. A used, expired or unknown token returns 401.
func (h *SessionHandler) RefreshHandler(c *gin.Context) {
	req, ok := h.bindRefreshToken(c)
	if !ok {
		return
	}

	tokens, err := h.sessionUseCase.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionTokensToResponse(tokens))
}

// LogoutHandler revokes a refresh token.
// POST /v1/auth/logout - No authentication required.
// Returns 204 No Content, or 404 when the token is not active.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	req, ok := h.bindRefreshToken(c)
	if !ok {
		return
	}

	if err := h.sessionUseCase.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) bindRefreshToken(c *gin.Context) (*dto.RefreshTokenRequest, bool) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return nil, false
	}
	return &req, true
}
