package http

import (
	"log/slog"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/httputil"
)

const bearerPrefix = "bearer "

// AuthenticationMiddleware resolves the request credential into a principal.
//
// The middleware:
// 1. Reads the bearer token from the Authorization header (case-insensitive "Bearer")
// 2. Reads the API key from apiKeyHeader
// 3. Resolves them with the CredentialResolver; the bearer token wins when both are present
// 4. Stores the principal and the request id in the request context
//
// Error handling:
//   - No credential, or a rejected session token → 401 "No authentication was provided."
//   - Unknown or expired API key → 401 "The provided API key is invalid."
//   - Store failures → 500
func AuthenticationMiddleware(
	resolver authUseCase.CredentialResolver,
	apiKeyHeader string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		material := authDomain.CredentialMaterial{
			BearerToken: extractBearerToken(c.GetHeader("Authorization")),
			APIKey:      strings.TrimSpace(c.GetHeader(apiKeyHeader)),
		}

		principal, err := resolver.Resolve(c.Request.Context(), material)
		if err != nil {
			logger.Debug("authentication failed",
				slog.Bool("bearer_present", material.BearerToken != ""),
				slog.Bool("api_key_present", material.APIKey != ""),
				slog.Any("error", err))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithPrincipal(c.Request.Context(), principal)
		if id := requestid.Get(c); id != "" {
			ctx = authUseCase.WithRequestID(ctx, id)
		}
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("user_id", principal.UserID().String()),
			slog.String("credential_kind", string(principal.CredentialKind())))

		c.Next()
	}
}

// extractBearerToken returns the token of a "Bearer <token>" header, or "" when
// the header is absent or uses another scheme.
func extractBearerToken(header string) string {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// RequireElevated lets only elevated principals through. The check runs through
// the access use case so that denials are logged and audited like any other
// decision. uuid.Nil never matches a real user, so a non-elevated principal
// always fails the target-user check.
//
// This middleware MUST be used after AuthenticationMiddleware.
func RequireElevated(
	access authUseCase.AccessUseCase,
	capability authDomain.Capability,
	kind authDomain.ResourceKind,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, authDomain.ErrUnauthenticated, logger)
			c.Abort()
			return
		}

		query := authDomain.TargetUserQuery(principal, capability, kind, uuid.Nil)
		if err := access.Authorize(c.Request.Context(), query); err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// principalOrAbort fetches the principal set by AuthenticationMiddleware.
func principalOrAbort(c *gin.Context, logger *slog.Logger) (*authDomain.Principal, bool) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrUnauthenticated, logger)
		return nil, false
	}
	return principal, true
}
