package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facelock/facelock/internal/web/handlers"
	"github.com/facelock/facelock/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	authHandler := handlers.NewAuthHandler(
		s.gallery, s.detector, s.sessionManager, s.config.Web.MaxUploadBytes, s.log)
	galleryHandler := handlers.NewGalleryHandler(s.gallery, s.version, s.log)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Face auth routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		r.Get("/info", galleryHandler.Info)

		// Gallery management requires an authenticated session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			r.Get("/gallery", galleryHandler.List)
			r.Post("/gallery/reload", galleryHandler.Reload)
		})
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves a minimal landing page pointing at the API.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Facelock</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
        code { background: #2a2a3e; padding: 2px 8px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Facelock</h1>
        <p>Face authentication API. Enroll with <code>POST /api/v1/auth/register</code>, sign in with <code>POST /api/v1/auth/login</code>.</p>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
