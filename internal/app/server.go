// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"kanoonwise_backend/internal/appointment"
	"kanoonwise_backend/internal/auth"
	"kanoonwise_backend/internal/common"
	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/internal/jobs"
	"kanoonwise_backend/internal/lawyer"
	"kanoonwise_backend/internal/middleware"
	"kanoonwise_backend/internal/platform/elasticsearch"
	"kanoonwise_backend/internal/shared"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	authHandler        *auth.Handler
	lawyerHandler      *lawyer.Handler
	appointmentHandler *appointment.Handler

	// Jobs
	completionJob *jobs.AppointmentCompletionJob

	// Exposed for startup tasks in cmd/server.
	ESClient  *elasticsearch.ESClientWrapper
	AppLogger *zap.Logger
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	lawyerHandler *lawyer.Handler,
	appointmentHandler *appointment.Handler,
	completionJob *jobs.AppointmentCompletionJob,
	tokenService shared.TokenService,
	authService *auth.Service,
	esClient *elasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", common.CSRFTokenHeader, middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", common.CSRFTokenHeader, middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Middleware instances shared across feature routes.
	authMW := middleware.AuthMiddleware(tokenService, logger.Named("AuthMiddleware"))
	clientRoleMW := middleware.RoleAuthMiddleware(common.RoleClient)
	lawyerRoleMW := middleware.RoleAuthMiddleware(common.RoleLawyer)
	csrfMW := middleware.CSRFMiddleware(authService, logger.Named("CSRFMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Kanoonwise API is healthy!"})
	})

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1, authMW)
	lawyerHandler.RegisterRoutes(v1, authMW, lawyerRoleMW, csrfMW)
	appointmentHandler.RegisterRoutes(v1, authMW, clientRoleMW, lawyerRoleMW, csrfMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:         httpServer,
		router:             router,
		cfg:                cfg,
		logger:             logger,
		authHandler:        authHandler,
		lawyerHandler:      lawyerHandler,
		appointmentHandler: appointmentHandler,
		completionJob:      completionJob,
		ESClient:           esClient,
		AppLogger:          logger,
	}, nil
}

// Start launches the background jobs and the HTTP listener. Blocks until the
// server stops.
func (s *Server) Start() error {
	if s.completionJob != nil {
		if err := s.completionJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start appointment completion job", zap.Error(err))
		}
	} else {
		s.logger.Info("Appointment completion job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

// Shutdown stops the jobs and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.completionJob != nil {
		s.completionJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
