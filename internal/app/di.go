// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/allisson/captoken/internal/audit/http"
	auditUseCase "github.com/allisson/captoken/internal/audit/usecase"
	authHTTP "github.com/allisson/captoken/internal/auth/http"
	authService "github.com/allisson/captoken/internal/auth/service"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
	capabilityHTTP "github.com/allisson/captoken/internal/capability/http"
	capabilityUseCase "github.com/allisson/captoken/internal/capability/usecase"
	"github.com/allisson/captoken/internal/config"
	"github.com/allisson/captoken/internal/database"
	"github.com/allisson/captoken/internal/http"
	"github.com/allisson/captoken/internal/metrics"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
	signingHTTP "github.com/allisson/captoken/internal/signing/http"
	signingUseCase "github.com/allisson/captoken/internal/signing/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	secretService authService.SecretService
	tokenService  authService.TokenService

	// Signing key material protection
	keeper signingDomain.Keeper

	// Repositories
	clientRepository      authUseCase.ClientRepository
	accessTokenRepository authUseCase.AccessTokenRepository
	signingKeyRepository  signingUseCase.SigningKeyRepository
	policyRepository      capabilityUseCase.PolicyRepository
	eventRepository       auditUseCase.EventRepository

	// Use Cases
	clientUseCase     authUseCase.ClientUseCase
	authTokenUseCase  authUseCase.TokenUseCase
	signingKeyUseCase signingUseCase.SigningKeyUseCase
	policyUseCase     capabilityUseCase.PolicyUseCase
	tokenUseCase      capabilityUseCase.TokenUseCase
	eventUseCase      auditUseCase.EventUseCase

	// Workers
	policyCompactor *capabilityUseCase.PolicyCompactor

	// HTTP Handlers
	authTokenHandler *authHTTP.TokenHandler
	tokenHandler     *capabilityHTTP.TokenHandler
	policyHandler    *capabilityHTTP.PolicyHandler
	keyHandler       *signingHTTP.KeyHandler
	eventHandler     *auditHTTP.EventHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	txManagerInit             sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	secretServiceInit         sync.Once
	tokenServiceInit          sync.Once
	keeperInit                sync.Once
	clientRepositoryInit      sync.Once
	accessTokenRepositoryInit sync.Once
	signingKeyRepositoryInit  sync.Once
	policyRepositoryInit      sync.Once
	eventRepositoryInit       sync.Once
	clientUseCaseInit         sync.Once
	authTokenUseCaseInit      sync.Once
	signingKeyUseCaseInit     sync.Once
	policyUseCaseInit         sync.Once
	tokenUseCaseInit          sync.Once
	eventUseCaseInit          sync.Once
	policyCompactorInit       sync.Once
	authTokenHandlerInit      sync.Once
	tokenHandlerInit          sync.Once
	policyHandlerInit         sync.Once
	keyHandlerInit            sync.Once
	eventHandlerInit          sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
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

// MetricsProvider returns the OpenTelemetry metrics provider with Prometheus export.
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

// BusinessMetrics returns the business metrics recorder.
// It returns a no-op implementation when metrics are disabled.
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

// HTTPServer returns the HTTP server with the router fully configured.
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

// MetricsServer returns the standalone HTTP server that exposes the /metrics endpoint.
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

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Zero cached signing key material if the use case was initialized
	if c.signingKeyUseCase != nil {
		c.signingKeyUseCase.Close()
	}

	// Close the keeper if initialized
	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("keeper close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
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

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetricsProvider creates the metrics provider with the Prometheus exporter.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server and configures its router with all
// handlers and middleware.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	logger := c.Logger()

	authTokenUseCase, err := c.AuthTokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth token use case for http server: %w", err)
	}

	authTokenHandler, err := c.AuthTokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth token handler for http server: %w", err)
	}

	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}

	policyHandler, err := c.PolicyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy handler for http server: %w", err)
	}

	keyHandler, err := c.KeyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get key handler for http server: %w", err)
	}

	eventHandler, err := c.EventHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get event handler for http server: %w", err)
	}

	routerConfig := http.RouterConfig{
		AuthTokenUseCase:          authTokenUseCase,
		TokenService:              c.TokenService(),
		AuthTokenHandler:          authTokenHandler,
		TokenHandler:              tokenHandler,
		PolicyHandler:             policyHandler,
		KeyHandler:                keyHandler,
		EventHandler:              eventHandler,
		RateLimitEnabled:          c.config.RateLimitEnabled,
		RateLimitRequestsPerSec:   c.config.RateLimitRequestsPerSec,
		RateLimitBurst:            c.config.RateLimitBurst,
		RateLimitIPEnabled:        c.config.RateLimitIPEnabled,
		RateLimitIPRequestsPerSec: c.config.RateLimitIPRequestsPerSec,
		RateLimitIPBurst:          c.config.RateLimitIPBurst,
		CORSEnabled:               c.config.CORSEnabled,
		CORSAllowOrigins:          c.config.CORSAllowOrigins,
		MetricsEnabled:            c.config.MetricsEnabled,
		MetricsNamespace:          c.config.MetricsNamespace,
	}

	if c.config.MetricsEnabled {
		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		routerConfig.MetricsProvider = metricsProvider
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(routerConfig)

	return server, nil
}

// initMetricsServer creates the standalone metrics server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	logger := c.Logger()

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, logger, metricsProvider), nil
}
