// Package httpapi exposes the credential-store HTTP API.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkarpenko/socialvault/internal/auth"
	"github.com/mkarpenko/socialvault/internal/limiter"
	"github.com/mkarpenko/socialvault/internal/service"
)

// Headers of the automation surface.
const (
	HeaderAPIKey    = "x-api-key"
	HeaderTimestamp = "x-timestamp"
	HeaderSignature = "x-signature"
)

// Server wires the integration service into HTTP handlers.
type Server struct {
	svc      service.IntegrationService
	verifier *auth.Verifier
	sessions *auth.Sessions
	lim      limiter.Limiter
	log      *zap.Logger
}

// New constructs an HTTP server with injected collaborators.
func New(svc service.IntegrationService, verifier *auth.Verifier, sessions *auth.Sessions, lim limiter.Limiter, log *zap.Logger) *Server {
	return &Server{svc: svc, verifier: verifier, sessions: sessions, lim: lim, log: log}
}

// Handler builds the gin engine with the full middleware chain.
// Request flow on mutating surfaces: authenticate, rate-limit, handle.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Automation surface: static API key, optional-mandatory HMAC signature,
	// rate-limited per key.
	automation := r.Group("/api/v1/automation")
	automation.Use(s.apiKeyAuth(), s.rateLimit(automationClientID))
	{
		automation.POST("/store-integration", s.handleStoreIntegration)
		automation.POST("/update-integration", s.handleUpdateIntegration)
	}

	// User surface: bearer session resolved to a user identity,
	// rate-limited per user.
	user := r.Group("/api/v1/integrations")
	user.Use(s.sessionAuth(), s.rateLimit(sessionClientID))
	{
		user.GET("", s.handleListIntegrations)
		user.GET("/accounts", s.handleListAccounts)
		user.GET("/:platform/token-status", s.handleTokenStatus)
		user.POST("/:platform", s.handleUserUpdate)
	}

	return r
}
