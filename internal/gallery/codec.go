package gallery

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/facelock/facelock/internal/faceprint"
)

// record is the serialized layout of one gallery entry. CBOR keeps the
// float64 vectors bit-exact across a write/read round trip.
type record struct {
	Name      string    `cbor:"name"`
	Pixels    []float64 `cbor:"pixels"`
	Texture   []float64 `cbor:"texture"`
	Gradient  []float64 `cbor:"gradient"`
	CreatedAt time.Time `cbor:"created_at"`
}

// EncodeRecord serializes an entry for storage.
func EncodeRecord(e Entry) ([]byte, error) {
	if e.Name == "" {
		return nil, errors.New("entry name is required")
	}
	if !e.Signature.Valid() {
		return nil, errors.New("signature has wrong shape")
	}
	data, err := cbor.Marshal(record{
		Name:      e.Name,
		Pixels:    e.Signature.Pixels,
		Texture:   e.Signature.Texture,
		Gradient:  e.Signature.Gradient,
		CreatedAt: e.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

// DecodeRecord deserializes a stored entry, validating its shape.
func DecodeRecord(data []byte) (Entry, error) {
	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return Entry{}, fmt.Errorf("decoding record: %w", err)
	}
	sig := &faceprint.Signature{
		Pixels:   rec.Pixels,
		Texture:  rec.Texture,
		Gradient: rec.Gradient,
	}
	if rec.Name == "" || !sig.Valid() {
		return Entry{}, errors.New("record has wrong shape")
	}
	return Entry{Name: rec.Name, Signature: sig, CreatedAt: rec.CreatedAt}, nil
}
