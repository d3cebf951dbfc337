package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/facelock/facelock/internal/web/middleware"
)

func TestGalleryListAndInfo(t *testing.T) {
	h, g, _ := newTestHandler(t)
	gh := NewGalleryHandler(g, "test", nil)

	for _, name := range []string{"bob", "alice"} {
		rec := postJSON(t, h.Register, map[string]string{
			"name":  name,
			"image": imagePayload(t, noiseImage(uint64(len(name)))),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Register(%s) status = %d", name, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	gh.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var list struct {
		Count   int `json:"count"`
		Entries []struct {
			Name      string `json:"name"`
			CreatedAt string `json:"created_at"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if list.Count != 2 {
		t.Fatalf("gallery count = %d, want 2", list.Count)
	}
	if list.Entries[0].Name != "alice" || list.Entries[1].Name != "bob" {
		t.Errorf("entries not sorted by name: %+v", list.Entries)
	}

	rec = httptest.NewRecorder()
	gh.Info(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var info struct {
		Count     int     `json:"count"`
		Threshold float64 `json:"threshold"`
		Version   string  `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if info.Count != 2 || info.Threshold != 0.35 || info.Version != "test" {
		t.Errorf("unexpected info payload: %+v", info)
	}
}

func TestGalleryReload(t *testing.T) {
	_, g, sm := newTestHandler(t)
	core, logs := observer.New(zap.InfoLevel)
	gh := NewGalleryHandler(g, "test", zap.New(core))

	// The reload is attributed to the session set by RequireAuth.
	session := sm.CreateSession("alice")
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(middleware.SetSessionInContext(req.Context(), session))

	rec := httptest.NewRecorder()
	gh.Reload(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Reload status = %d", rec.Code)
	}

	entries := logs.FilterMessage("gallery reload requested").All()
	if len(entries) != 1 {
		t.Fatalf("got %d reload log entries, want 1", len(entries))
	}
	var by string
	for _, f := range entries[0].Context {
		if f.Key == "by" {
			by = f.String
		}
	}
	if by != "alice" {
		t.Errorf("reload attributed to %q, want alice", by)
	}
}
