package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/facelock/facelock/internal/config"
	"github.com/facelock/facelock/internal/detect"
	"github.com/facelock/facelock/internal/gallery"
	"github.com/facelock/facelock/internal/web/middleware"
)

// Server represents the web server.
type Server struct {
	config         *config.Config
	gallery        *gallery.Gallery
	detector       detect.Detector
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	log            *zap.Logger
	version        string
}

// NewServer creates a new web server.
func NewServer(
	cfg *config.Config,
	g *gallery.Gallery,
	detector detect.Detector,
	version string,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	sessionManager := middleware.NewSessionManager(
		cfg.Web.SessionSecret,
		time.Duration(cfg.Web.SessionTTLMinutes)*time.Minute,
	)

	s := &Server{
		config:         cfg,
		gallery:        g,
		detector:       detector,
		router:         r,
		sessionManager: sessionManager,
		log:            log,
		version:        version,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting web server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")

	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
