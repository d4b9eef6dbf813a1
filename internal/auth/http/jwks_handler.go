package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
)

// JWKSHandler publishes the public session token verification keys.
type JWKSHandler struct {
	keyProvider authService.KeyProvider
	maxAge      time.Duration
}

// NewJWKSHandler creates a JWKS handler. maxAge sets the Cache-Control max-age
// verifiers may cache the key set for.
func NewJWKSHandler(keyProvider authService.KeyProvider, maxAge time.Duration) *JWKSHandler {
	return &JWKSHandler{
		keyProvider: keyProvider,
		maxAge:      maxAge,
	}
}

// GetHandler serves the key set. Only public halves are ever published.
// GET /.well-known/jwks.json - No authentication required.
func (h *JWKSHandler) GetHandler(c *gin.Context) {
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.maxAge.Seconds())))
	c.JSON(http.StatusOK, h.keyProvider.JWKS())
}
