//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/facelock/facelock/internal/config"
	"github.com/facelock/facelock/internal/faceprint"
	"github.com/facelock/facelock/internal/gallery"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testSignature(seed float64) *faceprint.Signature {
	sig := &faceprint.Signature{
		Pixels:   make([]float64, faceprint.PixelLen),
		Texture:  make([]float64, faceprint.HistLen),
		Gradient: make([]float64, faceprint.HistLen),
	}
	for i := range sig.Pixels {
		sig.Pixels[i] = float64(i%256) * seed / 255
	}
	for i := range sig.Texture {
		sig.Texture[i] = seed / float64(i+1)
		sig.Gradient[i] = seed * float64(i) / faceprint.HistLen
	}
	return sig
}

func TestSignatureStore(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	store := NewSignatureStore(pool, nil)

	t.Run("SaveAndLoad", func(t *testing.T) {
		want := gallery.Entry{
			Name:      "alice",
			Signature: testSignature(1),
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		}
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Failed to save signature: %v", err)
		}

		entries, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Failed to load signatures: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		got := entries[0]
		if got.Name != "alice" {
			t.Errorf("Expected name 'alice', got %q", got.Name)
		}
		for i := range want.Signature.Pixels {
			if got.Signature.Pixels[i] != want.Signature.Pixels[i] {
				t.Fatalf("pixels[%d] changed across round trip", i)
			}
		}
		for i := range want.Signature.Texture {
			if got.Signature.Texture[i] != want.Signature.Texture[i] {
				t.Fatalf("texture[%d] changed across round trip", i)
			}
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		e := gallery.Entry{Name: "alice", Signature: testSignature(2), CreatedAt: time.Now().UTC()}
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Failed to re-save signature: %v", err)
		}

		entries, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Failed to load signatures: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("Expected 1 entry after upsert, got %d", len(entries))
		}
	})

	t.Run("Neighbors", func(t *testing.T) {
		for i, name := range []string{"bob", "carol", "dave"} {
			e := gallery.Entry{Name: name, Signature: testSignature(float64(i + 3)), CreatedAt: time.Now().UTC()}
			if err := store.Save(ctx, e); err != nil {
				t.Fatalf("Failed to save %s: %v", name, err)
			}
		}

		neighbors, err := store.Neighbors(ctx, "alice", 2)
		if err != nil {
			t.Fatalf("Failed to query neighbors: %v", err)
		}
		if len(neighbors) != 2 {
			t.Fatalf("Expected 2 neighbors, got %d", len(neighbors))
		}
		for _, n := range neighbors {
			if n.Name == "alice" {
				t.Error("Neighbors should exclude the query identity")
			}
		}
		if neighbors[0].Distance > neighbors[1].Distance {
			t.Error("Neighbors should be ordered by distance")
		}
	})

	t.Run("SkipsCorruptRecords", func(t *testing.T) {
		// A row whose blob no longer decodes must not abort the load.
		_, err := pool.Exec(ctx,
			"INSERT INTO signatures (name, record, texture) VALUES ($1, $2, $3::vector)",
			"mallory", []byte("not cbor"), pgvector.NewVector(make([]float32, 256)))
		if err != nil {
			t.Fatalf("Failed to insert corrupt row: %v", err)
		}

		entries, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load should skip corrupt records, got error: %v", err)
		}
		names := make(map[string]bool, len(entries))
		for _, e := range entries {
			names[e.Name] = true
		}
		if names["mallory"] {
			t.Error("Corrupt record should be skipped")
		}
		if !names["alice"] || !names["bob"] {
			t.Error("Valid records should survive a corrupt neighbor")
		}

		if err := store.Delete(ctx, "mallory"); err != nil {
			t.Fatalf("Failed to remove corrupt row: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "dave"); err != nil {
			t.Fatalf("Failed to delete signature: %v", err)
		}
		entries, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Failed to load signatures: %v", err)
		}
		for _, e := range entries {
			if e.Name == "dave" {
				t.Error("Deleted signature still present")
			}
		}
	})
}
