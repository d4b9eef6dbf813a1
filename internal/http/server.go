// Package http provides the HTTP servers: the public API router and the
// Prometheus metrics endpoint.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	authHTTP "github.com/tiago-cos/prosa-sub000/internal/auth/http"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/config"
	"github.com/tiago-cos/prosa-sub000/internal/metrics"
)

// Server represents the API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// RouterDependencies carries what SetupRouter wires into routes.
// AuditLogHandler and MetricsProvider may be nil.
type RouterDependencies struct {
	CredentialResolver authUseCase.CredentialResolver
	AccessUseCase      authUseCase.AccessUseCase
	SessionHandler     *authHTTP.SessionHandler
	UserHandler        *authHTTP.UserHandler
	APIKeyHandler      *authHTTP.APIKeyHandler
	JWKSHandler        *authHTTP.JWKSHandler
	AuditLogHandler    *authHTTP.AuditLogHandler
	MetricsProvider    *metrics.Provider
}

// NewServer creates a new HTTP server. db backs the readiness check.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every route.
//
// Public routes: /health, /ready, /.well-known/jwks.json, POST /v1/users and /v1/auth/*.
// Everything else goes through AuthenticationMiddleware.
func (s *Server) SetupRouter(cfg *config.Config, deps RouterDependencies) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, cfg.AuthAPIKeyHeader, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if deps.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(deps.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)
	router.GET("/.well-known/jwks.json", deps.JWKSHandler.GetHandler)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", deps.SessionHandler.LoginHandler)
	auth.POST("/refresh", deps.SessionHandler.RefreshHandler)
	auth.POST("/logout", deps.SessionHandler.LogoutHandler)

	v1.POST("/users", deps.UserHandler.RegisterHandler)

	authenticated := v1.Group("", authHTTP.AuthenticationMiddleware(
		deps.CredentialResolver,
		cfg.AuthAPIKeyHeader,
		s.logger,
	))

	users := authenticated.Group("/users/:user_id")
	users.GET("", deps.UserHandler.GetHandler)
	users.POST("/keys", deps.APIKeyHandler.CreateHandler)
	users.GET("/keys", deps.APIKeyHandler.ListHandler)
	users.GET("/keys/:key_id", deps.APIKeyHandler.GetHandler)
	users.DELETE("/keys/:key_id", deps.APIKeyHandler.DeleteHandler)

	if deps.AuditLogHandler != nil {
		authenticated.GET("/audit-logs",
			authHTTP.RequireElevated(
				deps.AccessUseCase,
				authDomain.CapabilityRead,
				authDomain.ResourceAuditLog,
				s.logger,
			),
			deps.AuditLogHandler.ListHandler,
		)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. SetupRouter must run first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
