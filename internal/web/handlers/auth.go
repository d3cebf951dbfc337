package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/facelock/facelock/internal/detect"
	"github.com/facelock/facelock/internal/faceprint"
	"github.com/facelock/facelock/internal/gallery"
	"github.com/facelock/facelock/internal/web/middleware"
)

// AuthHandler handles face registration and login.
type AuthHandler struct {
	gallery        *gallery.Gallery
	detector       detect.Detector
	sessionManager *middleware.SessionManager
	maxUploadBytes int64
	log            *zap.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(
	g *gallery.Gallery,
	detector detect.Detector,
	sm *middleware.SessionManager,
	maxUploadBytes int64,
	log *zap.Logger,
) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		gallery:        g,
		detector:       detector,
		sessionManager: sm,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

type registerRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type loginRequest struct {
	Image string `json:"image"`
}

// Register enrolls a face under a name. An existing identity with the
// same name is overwritten.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	name := gallery.NormalizeName(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	img, err := decodeImagePayload(req.Image, h.maxUploadBytes)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	face, err := detect.Face(r.Context(), h.detector, img)
	if err != nil {
		if errors.Is(err, detect.ErrNoFace) {
			respondError(w, http.StatusUnprocessableEntity, "no face detected")
			return
		}
		h.log.Error("face detection failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "face detection failed")
		return
	}

	sig := faceprint.Extract(face)
	if err := h.gallery.Put(r.Context(), name, sig); err != nil {
		h.log.Error("enrolling face failed", zap.String("name", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "storing face failed")
		return
	}

	h.log.Info("face enrolled", zap.String("name", name))
	respondJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// Login matches a face against the gallery and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	img, err := decodeImagePayload(req.Image, h.maxUploadBytes)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	face, err := detect.Face(r.Context(), h.detector, img)
	if err != nil {
		if errors.Is(err, detect.ErrNoFace) {
			respondError(w, http.StatusUnprocessableEntity, "no face detected")
			return
		}
		h.log.Error("face detection failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "face detection failed")
		return
	}

	sig := faceprint.Extract(face)
	name, score, ok := h.gallery.BestMatch(sig)
	if !ok {
		h.log.Info("login rejected", zap.Float64("threshold", h.gallery.Threshold()))
		respondError(w, http.StatusUnauthorized, "face not recognized")
		return
	}

	session := h.sessionManager.CreateSession(name)
	h.sessionManager.SetSessionCookie(w, session)

	h.log.Info("login accepted", zap.String("name", name), zap.Float64("score", score))
	respondJSON(w, http.StatusOK, map[string]any{
		"name":    name,
		"score":   score,
		"session": session.ToJSON(),
	})
}

// Logout ends the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Status reports whether the request carries a valid session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"session":       session.ToJSON(),
	})
}
