package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/facelock/facelock/internal/gallery"
)

// SignatureStore keeps gallery entries in PostgreSQL. Each row carries
// the serialized record (round-tripped bit for bit) plus a texture
// vector column so pgvector can answer neighbor queries.
type SignatureStore struct {
	pool *Pool
	log  *zap.Logger
}

// NewSignatureStore creates a PostgreSQL-backed gallery store.
func NewSignatureStore(pool *Pool, log *zap.Logger) *SignatureStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignatureStore{pool: pool, log: log}
}

// Load reads every stored record. Rows whose record blob no longer
// decodes are skipped with a warning; they never abort the load.
func (s *SignatureStore) Load(ctx context.Context) ([]gallery.Entry, error) {
	rows, err := s.pool.Query(ctx, "SELECT name, record FROM signatures ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	var entries []gallery.Entry
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		e, err := gallery.DecodeRecord(data)
		if err != nil {
			s.log.Warn("skipping corrupt gallery record",
				zap.String("name", name), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return entries, nil
}

// Save upserts the record for the entry's name.
func (s *SignatureStore) Save(ctx context.Context, e gallery.Entry) error {
	data, err := gallery.EncodeRecord(e)
	if err != nil {
		return err
	}

	texture := make([]float32, len(e.Signature.Texture))
	for i, v := range e.Signature.Texture {
		texture[i] = float32(v)
	}

	query := `
		INSERT INTO signatures (name, record, texture, created_at)
		VALUES ($1, $2, $3::vector, $4)
		ON CONFLICT (name) DO UPDATE SET
			record = EXCLUDED.record,
			texture = EXCLUDED.texture,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.pool.Exec(ctx, query, e.Name, data, pgvector.NewVector(texture), e.CreatedAt); err != nil {
		return fmt.Errorf("upsert signature %q: %w", e.Name, err)
	}
	return nil
}

// Neighbor is one result of a texture similarity query.
type Neighbor struct {
	Name     string
	Distance float64
}

// Neighbors returns the enrolled identities with the closest texture
// histograms by cosine distance, excluding the named identity itself.
// The texture cue alone is coarser than a full comparison; this exists
// for gallery inspection, not for authentication decisions.
func (s *SignatureStore) Neighbors(ctx context.Context, name string, limit int) ([]Neighbor, error) {
	var texture pgvector.Vector
	err := s.pool.QueryRow(ctx, "SELECT texture FROM signatures WHERE name = $1", name).Scan(&texture)
	if err != nil {
		return nil, fmt.Errorf("load texture for %q: %w", name, err)
	}

	query := `
		SELECT name, texture <=> $1::vector AS distance
		FROM signatures
		WHERE name != $2
		ORDER BY distance
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, texture, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.Name, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return neighbors, nil
}

// Delete removes the record for name. It is not part of the gallery
// Store interface; the CLI uses it directly.
func (s *SignatureStore) Delete(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM signatures WHERE name = $1", name); err != nil {
		return fmt.Errorf("delete signature %q: %w", name, err)
	}
	return nil
}

// Verify interface compliance.
var _ gallery.Store = (*SignatureStore)(nil)
