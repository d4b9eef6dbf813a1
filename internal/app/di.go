// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	authHTTP "github.com/tiago-cos/prosa-sub000/internal/auth/http"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository/memory"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/clock"
	"github.com/tiago-cos/prosa-sub000/internal/config"
	"github.com/tiago-cos/prosa-sub000/internal/database"
	"github.com/tiago-cos/prosa-sub000/internal/http"
	"github.com/tiago-cos/prosa-sub000/internal/metrics"
)

const (
	// defaultPingTimeout bounds the startup check against external stores.
	defaultPingTimeout = 5 * time.Second
	// jwksMaxAge is how long clients may cache the public key set.
	jwksMaxAge = 5 * time.Minute
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	clock       clock.Clock
	db          *sql.DB
	redisClient redis.UniversalClient

	// Managers
	txManager database.TxManager

	// Signing keys
	kmsService  authService.KMSService
	kmsKeeper   authService.KMSKeeper
	keyStore    authService.KeyStore
	keyProvider authService.KeyProvider
	keyWatcher  *authService.KeyWatcher

	// Services
	passwordService     authService.PasswordService
	tokenService        authService.TokenService
	sessionTokenService authService.SessionTokenService
	auditSigner         authService.AuditSigner

	// Repositories
	userRepository         authUseCase.UserRepository
	apiKeyRepository       authUseCase.APIKeyRepository
	refreshTokenRepository authUseCase.RefreshTokenRepository
	memoryTokenStore       *memory.RefreshTokenRepository
	auditLogRepository     authUseCase.AuditLogRepository

	// Use Cases
	sessionUseCase     authUseCase.SessionUseCase
	userUseCase        authUseCase.UserUseCase
	apiKeyUseCase      authUseCase.APIKeyUseCase
	credentialResolver authUseCase.CredentialResolver
	accessUseCase      authUseCase.AccessUseCase
	auditLogUseCase    authUseCase.AuditLogUseCase

	// Handlers
	sessionHandler  *authHTTP.SessionHandler
	userHandler     *authHTTP.UserHandler
	apiKeyHandler   *authHTTP.APIKeyHandler
	jwksHandler     *authHTTP.JWKSHandler
	auditLogHandler *authHTTP.AuditLogHandler

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                         sync.Mutex
	loggerInit                 sync.Once
	clockInit                  sync.Once
	dbInit                     sync.Once
	redisClientInit            sync.Once
	txManagerInit              sync.Once
	kmsServiceInit             sync.Once
	kmsKeeperInit              sync.Once
	keyStoreInit               sync.Once
	keyProviderInit            sync.Once
	keyWatcherInit             sync.Once
	passwordServiceInit        sync.Once
	tokenServiceInit           sync.Once
	sessionTokenServiceInit    sync.Once
	auditSignerInit            sync.Once
	userRepositoryInit         sync.Once
	apiKeyRepositoryInit       sync.Once
	refreshTokenRepositoryInit sync.Once
	auditLogRepositoryInit     sync.Once
	sessionUseCaseInit         sync.Once
	userUseCaseInit            sync.Once
	apiKeyUseCaseInit          sync.Once
	credentialResolverInit     sync.Once
	accessUseCaseInit          sync.Once
	auditLogUseCaseInit        sync.Once
	sessionHandlerInit         sync.Once
	userHandlerInit            sync.Once
	apiKeyHandlerInit          sync.Once
	jwksHandlerInit            sync.Once
	auditLogHandlerInit        sync.Once
	metricsProviderInit        sync.Once
	businessMetricsInit        sync.Once
	httpServerInit             sync.Once
	metricsServerInit          sync.Once
	initErrors                 map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Clock returns the wall clock shared by every time-dependent component.
func (c *Container) Clock() clock.Clock {
	c.clockInit.Do(func() {
		c.clock = clock.Real()
	})
	return c.clock
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the Redis client used by the redis refresh token store.
func (c *Container) RedisClient() (redis.UniversalClient, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when
// metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with its routes configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// StartBackgroundTasks starts the signing key watcher and the in-memory token
// sweeper when they are configured. Both stop when ctx is cancelled.
func (c *Container) StartBackgroundTasks(ctx context.Context) error {
	watcher, err := c.KeyWatcher()
	if err != nil {
		return fmt.Errorf("failed to get key watcher: %w", err)
	}
	if watcher != nil {
		watcher.Start(ctx)
	}

	if _, err := c.RefreshTokenRepository(); err != nil {
		return fmt.Errorf("failed to get refresh token repository: %w", err)
	}
	if c.memoryTokenStore != nil {
		c.memoryTokenStore.StartCleanup(ctx, c.config.MemoryStoreCleanupInterval)
	}

	return nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.keyWatcher != nil {
		if err := c.keyWatcher.Stop(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("key watcher stop: %w", err))
		}
	}

	if c.memoryTokenStore != nil {
		c.memoryTokenStore.Stop()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRedisClient connects to Redis and checks the connection.
func (c *Container) initRedisClient() (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.config.RedisAddr,
		Password: c.config.RedisPassword,
		DB:       c.config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetricsProvider creates the meter provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	deps := http.RouterDependencies{}

	if deps.CredentialResolver, err = c.CredentialResolver(); err != nil {
		return nil, fmt.Errorf("failed to get credential resolver for http server: %w", err)
	}
	if deps.AccessUseCase, err = c.AccessUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get access use case for http server: %w", err)
	}
	if deps.SessionHandler, err = c.SessionHandler(); err != nil {
		return nil, fmt.Errorf("failed to get session handler for http server: %w", err)
	}
	if deps.UserHandler, err = c.UserHandler(); err != nil {
		return nil, fmt.Errorf("failed to get user handler for http server: %w", err)
	}
	if deps.APIKeyHandler, err = c.APIKeyHandler(); err != nil {
		return nil, fmt.Errorf("failed to get api key handler for http server: %w", err)
	}
	if deps.JWKSHandler, err = c.JWKSHandler(); err != nil {
		return nil, fmt.Errorf("failed to get jwks handler for http server: %w", err)
	}
	if c.config.AuditLogEnabled {
		if deps.AuditLogHandler, err = c.AuditLogHandler(); err != nil {
			return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
		}
	}
	if deps.MetricsProvider, err = c.MetricsProvider(); err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(c.config, deps)

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
