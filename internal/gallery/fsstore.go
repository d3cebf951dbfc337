package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const recordExt = ".sig"

// FSStore keeps one CBOR record per identity in a single directory,
// named after the identity like the gallery directories it replaces.
type FSStore struct {
	dir string
	log *zap.Logger
}

// NewFSStore creates the gallery directory if needed.
func NewFSStore(dir string, log *zap.Logger) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("gallery directory is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating gallery directory: %w", err)
	}
	return &FSStore{dir: dir, log: log}, nil
}

// Load reads every record in the directory. Unreadable or malformed
// records are skipped with a warning; they never abort the load.
func (s *FSStore) Load(ctx context.Context) ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing gallery directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), recordExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			s.log.Warn("skipping unreadable gallery record",
				zap.String("file", f.Name()), zap.Error(err))
			continue
		}
		e, err := DecodeRecord(data)
		if err != nil {
			s.log.Warn("skipping corrupt gallery record",
				zap.String("file", f.Name()), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Save writes the record atomically (temp file + rename), overwriting
// any previous record for the same name.
func (s *FSStore) Save(ctx context.Context, e Entry) error {
	if err := validateName(e.Name); err != nil {
		return err
	}
	data, err := EncodeRecord(e)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "record-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing record: %w", err)
	}

	final := filepath.Join(s.dir, e.Name+recordExt)
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storing record: %w", err)
	}
	return nil
}

// Delete removes the record for name. Deleting a name that was never
// enrolled is an error.
func (s *FSStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name+recordExt)); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// validateName rejects names that cannot serve as record file names.
func validateName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	if name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}
