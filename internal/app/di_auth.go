package app

import (
	"encoding/base64"
	"fmt"

	authHTTP "github.com/tiago-cos/prosa-sub000/internal/auth/http"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository/memory"
	authMySQL "github.com/tiago-cos/prosa-sub000/internal/auth/repository/mysql"
	authPostgreSQL "github.com/tiago-cos/prosa-sub000/internal/auth/repository/postgresql"
	"github.com/tiago-cos/prosa-sub000/internal/auth/repository/redisstore"
	authService "github.com/tiago-cos/prosa-sub000/internal/auth/service"
	authUseCase "github.com/tiago-cos/prosa-sub000/internal/auth/usecase"
	"github.com/tiago-cos/prosa-sub000/internal/config"
	"github.com/tiago-cos/prosa-sub000/internal/database"
)

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() authService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = authService.NewPasswordService()
	})
	return c.passwordService
}

// TokenService returns the opaque token service used for refresh tokens and API keys.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// AuditSigner returns the audit log signer.
func (c *Container) AuditSigner() authService.AuditSigner {
	c.auditSignerInit.Do(func() {
		c.auditSigner = authService.NewAuditSigner()
	})
	return c.auditSigner
}

// SessionTokenService returns the session token codec.
func (c *Container) SessionTokenService() (authService.SessionTokenService, error) {
	var err error
	c.sessionTokenServiceInit.Do(func() {
		c.sessionTokenService, err = c.initSessionTokenService()
		if err != nil {
			c.initErrors["sessionTokenService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionTokenService"]; exists {
		return nil, storedErr
	}
	return c.sessionTokenService, nil
}

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (authUseCase.UserRepository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepository"]; exists {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// APIKeyRepository returns the API key repository based on database driver.
func (c *Container) APIKeyRepository() (authUseCase.APIKeyRepository, error) {
	var err error
	c.apiKeyRepositoryInit.Do(func() {
		c.apiKeyRepository, err = c.initAPIKeyRepository()
		if err != nil {
			c.initErrors["apiKeyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyRepository"]; exists {
		return nil, storedErr
	}
	return c.apiKeyRepository, nil
}

// RefreshTokenRepository returns the refresh token store selected by REFRESH_TOKEN_STORE.
func (c *Container) RefreshTokenRepository() (authUseCase.RefreshTokenRepository, error) {
	var err error
	c.refreshTokenRepositoryInit.Do(func() {
		c.refreshTokenRepository, err = c.initRefreshTokenRepository()
		if err != nil {
			c.initErrors["refreshTokenRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["refreshTokenRepository"]; exists {
		return nil, storedErr
	}
	return c.refreshTokenRepository, nil
}

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (authUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepository"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// SessionUseCase returns the session use case.
func (c *Container) SessionUseCase() (authUseCase.SessionUseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// UserUseCase returns the user use case.
func (c *Container) UserUseCase() (authUseCase.UserUseCase, error) {
	var err error
	c.userUseCaseInit.Do(func() {
		c.userUseCase, err = c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// APIKeyUseCase returns the API key use case.
func (c *Container) APIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	var err error
	c.apiKeyUseCaseInit.Do(func() {
		c.apiKeyUseCase, err = c.initAPIKeyUseCase()
		if err != nil {
			c.initErrors["apiKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.apiKeyUseCase, nil
}

// CredentialResolver returns the request credential resolver.
func (c *Container) CredentialResolver() (authUseCase.CredentialResolver, error) {
	var err error
	c.credentialResolverInit.Do(func() {
		c.credentialResolver, err = c.initCredentialResolver()
		if err != nil {
			c.initErrors["credentialResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialResolver"]; exists {
		return nil, storedErr
	}
	return c.credentialResolver, nil
}

// AccessUseCase returns the access decision use case.
func (c *Container) AccessUseCase() (authUseCase.AccessUseCase, error) {
	var err error
	c.accessUseCaseInit.Do(func() {
		c.accessUseCase, err = c.initAccessUseCase()
		if err != nil {
			c.initErrors["accessUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessUseCase"]; exists {
		return nil, storedErr
	}
	return c.accessUseCase, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (authUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// SessionHandler returns the HTTP handler for login, refresh and logout.
func (c *Container) SessionHandler() (*authHTTP.SessionHandler, error) {
	var err error
	c.sessionHandlerInit.Do(func() {
		c.sessionHandler, err = c.initSessionHandler()
		if err != nil {
			c.initErrors["sessionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionHandler"]; exists {
		return nil, storedErr
	}
	return c.sessionHandler, nil
}

// UserHandler returns the HTTP handler for user accounts.
func (c *Container) UserHandler() (*authHTTP.UserHandler, error) {
	var err error
	c.userHandlerInit.Do(func() {
		c.userHandler, err = c.initUserHandler()
		if err != nil {
			c.initErrors["userHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

// APIKeyHandler returns the HTTP handler for API keys.
func (c *Container) APIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	var err error
	c.apiKeyHandlerInit.Do(func() {
		c.apiKeyHandler, err = c.initAPIKeyHandler()
		if err != nil {
			c.initErrors["apiKeyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyHandler"]; exists {
		return nil, storedErr
	}
	return c.apiKeyHandler, nil
}

// JWKSHandler returns the HTTP handler publishing the verification keys.
func (c *Container) JWKSHandler() (*authHTTP.JWKSHandler, error) {
	var err error
	c.jwksHandlerInit.Do(func() {
		c.jwksHandler, err = c.initJWKSHandler()
		if err != nil {
			c.initErrors["jwksHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["jwksHandler"]; exists {
		return nil, storedErr
	}
	return c.jwksHandler, nil
}

// AuditLogHandler returns the HTTP handler for the audit trail.
func (c *Container) AuditLogHandler() (*authHTTP.AuditLogHandler, error) {
	var err error
	c.auditLogHandlerInit.Do(func() {
		c.auditLogHandler, err = c.initAuditLogHandler()
		if err != nil {
			c.initErrors["auditLogHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogHandler"]; exists {
		return nil, storedErr
	}
	return c.auditLogHandler, nil
}

func (c *Container) initSessionTokenService() (authService.SessionTokenService, error) {
	keyProvider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for session token service: %w", err)
	}
	return authService.NewSessionTokenService(keyProvider, c.config.AuthIssuer, c.Clock()), nil
}

// initUserRepository selects the repository by database driver. SQLite shares
// the MySQL dialect.
func (c *Container) initUserRepository() (authUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return authPostgreSQL.NewPostgreSQLUserRepository(db), nil
	case database.DriverMySQL, database.DriverSQLite:
		return authMySQL.NewMySQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAPIKeyRepository() (authUseCase.APIKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return authPostgreSQL.NewPostgreSQLAPIKeyRepository(db), nil
	case database.DriverMySQL, database.DriverSQLite:
		return authMySQL.NewMySQLAPIKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initRefreshTokenRepository() (authUseCase.RefreshTokenRepository, error) {
	switch c.config.RefreshTokenStore {
	case config.RefreshTokenStoreRedis:
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for refresh token repository: %w", err)
		}
		return redisstore.NewRedisRefreshTokenRepository(client, c.config.RedisKeyPrefix), nil

	case config.RefreshTokenStoreMemory:
		c.memoryTokenStore = memory.NewRefreshTokenRepository(c.Clock(), c.Logger())
		return c.memoryTokenStore, nil

	case config.RefreshTokenStoreDatabase, "":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for refresh token repository: %w", err)
		}
		switch c.config.DBDriver {
		case database.DriverPostgres:
			return authPostgreSQL.NewPostgreSQLRefreshTokenRepository(db), nil
		case database.DriverMySQL, database.DriverSQLite:
			return authMySQL.NewMySQLRefreshTokenRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}

	default:
		return nil, fmt.Errorf("unsupported refresh token store: %s", c.config.RefreshTokenStore)
	}
}

func (c *Container) initAuditLogRepository() (authUseCase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return authPostgreSQL.NewPostgreSQLAuditLogRepository(db), nil
	case database.DriverMySQL, database.DriverSQLite:
		return authMySQL.NewMySQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initSessionUseCase() (authUseCase.SessionUseCase, error) {
	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for session use case: %w", err)
	}
	refreshTokenRepository, err := c.RefreshTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token repository for session use case: %w", err)
	}
	sessionTokenService, err := c.SessionTokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get session token service for session use case: %w", err)
	}

	useCase := authUseCase.NewSessionUseCase(
		c.config,
		userRepository,
		refreshTokenRepository,
		c.PasswordService(),
		c.TokenService(),
		sessionTokenService,
		c.Clock(),
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
		}
		useCase = authUseCase.NewSessionUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

func (c *Container) initUserUseCase() (authUseCase.UserUseCase, error) {
	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	useCase := authUseCase.NewUserUseCase(userRepository, c.PasswordService(), c.Clock())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
		}
		useCase = authUseCase.NewUserUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

func (c *Container) initAPIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for api key use case: %w", err)
	}
	apiKeyRepository, err := c.APIKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for api key use case: %w", err)
	}
	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for api key use case: %w", err)
	}

	useCase := authUseCase.NewAPIKeyUseCase(
		txManager,
		apiKeyRepository,
		userRepository,
		c.TokenService(),
		c.Clock(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for api key use case: %w", err)
		}
		useCase = authUseCase.NewAPIKeyUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

func (c *Container) initCredentialResolver() (authUseCase.CredentialResolver, error) {
	sessionTokenService, err := c.SessionTokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get session token service for credential resolver: %w", err)
	}
	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for credential resolver: %w", err)
	}
	return authUseCase.NewCredentialResolver(sessionTokenService, apiKeyUseCase), nil
}

// initAccessUseCase records decisions only when the audit trail is enabled.
func (c *Container) initAccessUseCase() (authUseCase.AccessUseCase, error) {
	var useCase authUseCase.AccessUseCase
	if c.config.AuditLogEnabled {
		auditLogUseCase, err := c.AuditLogUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get audit log use case for access use case: %w", err)
		}
		useCase = authUseCase.NewAccessUseCase(auditLogUseCase, c.Clock(), c.Logger())
	} else {
		useCase = authUseCase.NewAccessUseCase(nil, c.Clock(), c.Logger())
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for access use case: %w", err)
		}
		useCase = authUseCase.NewAccessUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

func (c *Container) initAuditLogUseCase() (authUseCase.AuditLogUseCase, error) {
	if c.config.AuditLogSigningKey == "" {
		return nil, fmt.Errorf("AUDIT_LOG_SIGNING_KEY is required for audit logs")
	}
	signingKey, err := base64.StdEncoding.DecodeString(c.config.AuditLogSigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audit log signing key: %w", err)
	}

	auditLogRepository, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	useCase := authUseCase.NewAuditLogUseCase(auditLogRepository, c.AuditSigner(), signingKey, c.Clock())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
		}
		useCase = authUseCase.NewAuditLogUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

func (c *Container) initSessionHandler() (*authHTTP.SessionHandler, error) {
	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for session handler: %w", err)
	}
	return authHTTP.NewSessionHandler(sessionUseCase, c.Logger()), nil
}

func (c *Container) initUserHandler() (*authHTTP.UserHandler, error) {
	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for user handler: %w", err)
	}
	accessUseCase, err := c.AccessUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get access use case for user handler: %w", err)
	}
	return authHTTP.NewUserHandler(userUseCase, accessUseCase, c.Logger()), nil
}

func (c *Container) initAPIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for api key handler: %w", err)
	}
	accessUseCase, err := c.AccessUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get access use case for api key handler: %w", err)
	}
	return authHTTP.NewAPIKeyHandler(apiKeyUseCase, accessUseCase, c.Clock(), c.Logger()), nil
}

func (c *Container) initJWKSHandler() (*authHTTP.JWKSHandler, error) {
	keyProvider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for jwks handler: %w", err)
	}
	return authHTTP.NewJWKSHandler(keyProvider, jwksMaxAge), nil
}

func (c *Container) initAuditLogHandler() (*authHTTP.AuditLogHandler, error) {
	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for audit log handler: %w", err)
	}
	return authHTTP.NewAuditLogHandler(auditLogUseCase, c.Logger()), nil
}
