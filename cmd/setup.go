package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"go.uber.org/zap"

	"github.com/facelock/facelock/internal/config"
	"github.com/facelock/facelock/internal/detect"
	"github.com/facelock/facelock/internal/faceprint"
	"github.com/facelock/facelock/internal/gallery"
	"github.com/facelock/facelock/internal/gallery/postgres"
)

// app bundles the wired-up components shared by the commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	gallery *gallery.Gallery
	store   gallery.Store
	pgStore *postgres.SignatureStore // nil when using the filesystem store
	cleanup func()
}

// newApp wires the gallery from the given config. Commands load the
// config themselves so flags can override it before wiring.
// DATABASE_URL selects the PostgreSQL store; otherwise records live in
// the gallery directory.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := newLogger()
	matcher := faceprint.NewMatcher(cfg.Matcher.Threshold)

	a := &app{cfg: cfg, log: log, cleanup: func() { _ = log.Sync() }}

	var store gallery.Store
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		a.pgStore = postgres.NewSignatureStore(pool, log)
		store = a.pgStore
		a.cleanup = func() {
			pool.Close()
			_ = log.Sync()
		}
		log.Info("using PostgreSQL gallery store")
	} else {
		fsStore, err := gallery.NewFSStore(cfg.Gallery.Dir, log)
		if err != nil {
			return nil, fmt.Errorf("opening gallery directory: %w", err)
		}
		store = fsStore
		log.Info("using filesystem gallery store", zap.String("dir", cfg.Gallery.Dir))
	}

	a.store = store
	a.gallery = gallery.New(store, matcher, log)
	if err := a.gallery.Reload(ctx); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("loading gallery: %w", err)
	}
	log.Info("gallery loaded",
		zap.Int("entries", a.gallery.Len()),
		zap.Float64("threshold", a.gallery.Threshold()))

	return a, nil
}

// newDetector picks the remote detector when configured, otherwise
// the full-frame fallback for pre-cropped portraits.
func (a *app) newDetector() detect.Detector {
	if a.cfg.Detector.URL != "" {
		a.log.Info("using remote face detector", zap.String("url", a.cfg.Detector.URL))
		return detect.NewRemote(a.cfg.Detector.URL, a.log)
	}
	return detect.FullFrame{}
}

// loadImageFile reads and decodes a JPEG or PNG image from disk.
func loadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
