// Package http provides the HTTP adapter for the application layer.
// It translates HTTP requests to application service calls and nothing more.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AreaImporter turns an uploaded takeoff sheet into quote areas
type AreaImporter interface {
	Import(r io.Reader) ([]entity.Area, error)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string
	// WebhookSecret verifies payment webhook signatures; empty disables verification
	WebhookSecret string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MetricsPath:     "/metrics",
	}
}

// Dependencies are the application components served over HTTP
type Dependencies struct {
	Quotes   service.QuoteService
	Jobs     service.JobService
	Payments service.PaymentService
	// Gateway resolves gateway webhook notifications; nil disables the gateway webhook
	Gateway port.PaymentGateway
	Takeoff AreaImporter
	// Metrics serves the metrics endpoint when set
	Metrics http.Handler
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}
	server.setupMiddleware()
	server.setupRoutes()
	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.logger)
	hooks := NewWebhookHandler(s.deps.Payments, s.deps.Gateway, s.config.WebhookSecret, s.logger)

	s.router.GET("/health", h.HealthCheck)
	if s.deps.Metrics != nil {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(s.deps.Metrics))
	}

	webhooks := s.router.Group("/webhooks")
	{
		webhooks.POST("/payments", hooks.PaymentEvent)
		webhooks.POST("/mercadopago", hooks.MercadoPago)
	}

	api := s.router.Group("/api/v1", identityMiddleware())
	{
		api.POST("/takeoff", h.ImportTakeoff)

		api.POST("/quotes", h.CreateQuote)
		api.GET("/quotes", h.ListQuotes)
		api.GET("/quotes/by-number/:number", h.GetQuoteByNumber)
		api.GET("/quotes/:id", h.GetQuote)
		api.PATCH("/quotes/:id", h.UpdateDraft)
		api.POST("/quotes/:id/send", h.SendQuote)
		api.POST("/quotes/:id/view", h.RecordView)
		api.POST("/quotes/:id/accept", h.AcceptQuote)
		api.POST("/quotes/:id/decline", h.DeclineQuote)
		api.POST("/quotes/:id/archive", h.ArchiveQuote)
		api.POST("/quotes/:id/deactivate", h.DeactivateQuote)
		api.POST("/quotes/:id/revise", h.ReviseQuote)
		api.POST("/quotes/:id/deposit", h.OpenDeposit)
		api.GET("/quotes/:id/audit", h.QuoteAudit)

		api.GET("/jobs", h.ListJobs)
		api.GET("/jobs/:id", h.GetJob)
		api.POST("/jobs/:id/schedule", h.ScheduleJob)
		api.POST("/jobs/:id/reschedule", h.RescheduleJob)
		api.POST("/jobs/:id/start", h.StartJob)
		api.POST("/jobs/:id/progress", h.UpdateAreaProgress)
		api.POST("/jobs/:id/selections", h.SubmitSelections)
		api.POST("/jobs/:id/complete", h.CompleteJob)
		api.POST("/jobs/:id/hold", h.HoldJob)
		api.POST("/jobs/:id/pause", h.PauseJob)
		api.POST("/jobs/:id/resume", h.ResumeJob)
		api.POST("/jobs/:id/cancel", h.CancelJob)
		api.POST("/jobs/:id/final-payment", h.OpenFinalPayment)
		api.GET("/jobs/:id/payments", h.ListPayments)
		api.GET("/jobs/:id/audit", h.JobAudit)
	}
}

// Start starts the HTTP server and blocks until ctx is canceled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
