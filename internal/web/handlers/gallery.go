package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/facelock/facelock/internal/gallery"
	"github.com/facelock/facelock/internal/web/middleware"
)

// decodeJSON decodes a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// GalleryHandler exposes read access to the enrolled identities.
type GalleryHandler struct {
	gallery *gallery.Gallery
	version string
	log     *zap.Logger
}

// NewGalleryHandler creates a gallery handler.
func NewGalleryHandler(g *gallery.Gallery, version string, log *zap.Logger) *GalleryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GalleryHandler{gallery: g, version: version, log: log}
}

type galleryEntry struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// List returns the enrolled identities. Signatures stay server-side.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.gallery.Entries()
	out := make([]galleryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, galleryEntry{
			Name:      e.Name,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(out),
		"entries": out,
	})
}

// Reload refreshes the in-memory gallery from storage.
func (h *GalleryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	requestedBy := "unknown"
	if session := middleware.GetSessionFromContext(r.Context()); session != nil {
		requestedBy = session.Name
	}
	h.log.Info("gallery reload requested", zap.String("by", requestedBy))

	if err := h.gallery.Reload(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "reloading gallery failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"count":  h.gallery.Len(),
	})
}

// Info reports gallery size and the active match threshold.
func (h *GalleryHandler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"version":   h.version,
		"count":     h.gallery.Len(),
		"threshold": h.gallery.Threshold(),
	})
}
