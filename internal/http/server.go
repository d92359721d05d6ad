// Package http provides the HTTP server, router setup and request middleware.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/allisson/captoken/internal/audit/http"
	authDomain "github.com/allisson/captoken/internal/auth/domain"
	authHTTP "github.com/allisson/captoken/internal/auth/http"
	authService "github.com/allisson/captoken/internal/auth/service"
	authUseCase "github.com/allisson/captoken/internal/auth/usecase"
	capabilityHTTP "github.com/allisson/captoken/internal/capability/http"
	"github.com/allisson/captoken/internal/metrics"
	signingHTTP "github.com/allisson/captoken/internal/signing/http"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router starts empty; call
// SetupRouter before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
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

// RouterConfig carries the handlers and feature switches the router needs.
type RouterConfig struct {
	// Authentication dependencies for the Bearer middleware.
	AuthTokenUseCase authUseCase.TokenUseCase
	TokenService     authService.TokenService

	// Handlers
	AuthTokenHandler *authHTTP.TokenHandler
	TokenHandler     *capabilityHTTP.TokenHandler
	PolicyHandler    *capabilityHTTP.PolicyHandler
	KeyHandler       *signingHTTP.KeyHandler
	EventHandler     *auditHTTP.EventHandler

	// Per-client rate limiting for authenticated endpoints.
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// Per-IP rate limiting for the credential endpoints.
	RateLimitIPEnabled        bool
	RateLimitIPRequestsPerSec float64
	RateLimitIPBurst          int

	// CORS
	CORSEnabled      bool
	CORSAllowOrigins string

	// Metrics middleware on the main router. The scrape endpoint itself lives
	// on the separate metrics server.
	MetricsEnabled   bool
	MetricsProvider  *metrics.Provider
	MetricsNamespace string
}

// SetupRouter builds the gin router with all routes and middleware.
//
// Route protection layers, outermost first: authentication (Bearer token),
// authorization (operation possession; path-pattern checks happen in the
// handlers that know the resource path), then per-client rate limiting.
// Token issuance additionally gets per-IP limiting, as does the login
// endpoint, which runs unauthenticated.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.MetricsEnabled && cfg.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Probes stay unauthenticated.
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	authn := authHTTP.AuthenticationMiddleware(cfg.AuthTokenUseCase, cfg.TokenService, s.logger)
	authz := func(operation authDomain.Operation) gin.HandlerFunc {
		return authHTTP.AuthorizationMiddleware(operation, s.logger)
	}

	var clientRate gin.HandlerFunc
	if cfg.RateLimitEnabled {
		clientRate = authHTTP.RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger)
	}

	var ipRate gin.HandlerFunc
	if cfg.RateLimitIPEnabled {
		ipRate = authHTTP.IPRateLimitMiddleware(cfg.RateLimitIPRequestsPerSec, cfg.RateLimitIPBurst, s.logger)
	}

	v1 := router.Group("/v1")

	// Credential exchange
	v1.POST("/auth/token", chain(ipRate, cfg.AuthTokenHandler.LoginHandler)...)

	// Capability tokens
	v1.POST("/tokens", chain(
		authn,
		authz(authDomain.OperationTokenIssue),
		clientRate,
		ipRate,
		cfg.TokenHandler.IssueHandler,
	)...)
	v1.POST("/check", chain(
		authn,
		authz(authDomain.OperationTokenCheck),
		clientRate,
		cfg.TokenHandler.CheckHandler,
	)...)

	// Stored policies
	v1.POST("/policies", chain(
		authn,
		authz(authDomain.OperationPolicyWrite),
		clientRate,
		cfg.PolicyHandler.CreateHandler,
	)...)
	v1.GET("/policies", chain(
		authn,
		authz(authDomain.OperationPolicyRead),
		clientRate,
		cfg.PolicyHandler.ListHandler,
	)...)
	v1.GET("/policies/:id", chain(
		authn,
		authz(authDomain.OperationPolicyRead),
		clientRate,
		cfg.PolicyHandler.GetHandler,
	)...)
	v1.DELETE("/policies/:id", chain(
		authn,
		authz(authDomain.OperationPolicyWrite),
		clientRate,
		cfg.PolicyHandler.RevokeHandler,
	)...)

	// Signing keys
	v1.POST("/keys/rotate", chain(
		authn,
		authz(authDomain.OperationKeyRotate),
		clientRate,
		cfg.KeyHandler.RotateHandler,
	)...)
	v1.GET("/keys", chain(
		authn,
		authz(authDomain.OperationKeyRead),
		clientRate,
		cfg.KeyHandler.ListHandler,
	)...)

	// Audit events
	v1.GET("/audit-events", chain(
		authn,
		authz(authDomain.OperationAuditRead),
		clientRate,
		cfg.EventHandler.ListHandler,
	)...)

	s.router = router
}

// chain drops nil entries so disabled middleware falls out of the route chain.
func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	filtered := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

// GetHandler returns the configured router for tests and embedding.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can do useful work. The
// database is the only hard dependency; the keeper is exercised lazily and
// has no cheap probe.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if err := s.pingDB(c.Request.Context()); err != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// pingDB checks database connectivity with a short timeout.
func (s *Server) pingDB(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database not configured")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.db.PingContext(pingCtx)
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not initialized: call SetupRouter first")
	}

	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
