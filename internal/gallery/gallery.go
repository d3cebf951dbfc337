package gallery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/facelock/facelock/internal/faceprint"
)

// ErrStorage marks failures of the backing store. Callers can test for
// it with errors.Is to distinguish storage trouble from a plain
// no-match outcome.
var ErrStorage = errors.New("gallery storage")

// Entry is one persisted identity record.
type Entry struct {
	Name      string
	Signature *faceprint.Signature
	CreatedAt time.Time
}

// Store persists gallery entries. Load returns every readable record;
// implementations skip corrupt records with a warning instead of
// failing the whole load. Save overwrites any existing record with the
// same name.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, e Entry) error
}

// Gallery is the in-memory view of all enrolled identities. The map is
// replaced wholesale by Reload under the write lock, so BestMatch can
// never observe a half-populated gallery.
type Gallery struct {
	store   Store
	matcher faceprint.Matcher
	log     *zap.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty gallery; call Reload to populate it.
func New(store Store, matcher faceprint.Matcher, log *zap.Logger) *Gallery {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gallery{
		store:   store,
		matcher: matcher,
		log:     log,
		entries: map[string]Entry{},
	}
}

// Reload replaces the in-memory mapping with the current store
// contents. The view may be stale relative to concurrent writers until
// the next Reload.
func (g *Gallery) Reload(ctx context.Context) error {
	loaded, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrStorage, err)
	}

	next := make(map[string]Entry, len(loaded))
	for _, e := range loaded {
		next[e.Name] = e
	}

	g.mu.Lock()
	g.entries = next
	g.mu.Unlock()

	g.log.Debug("gallery reloaded", zap.Int("entries", len(next)))
	return nil
}

// Put persists the signature under name (overwriting any previous
// record) and reloads so the in-memory view matches storage.
func (g *Gallery) Put(ctx context.Context, name string, sig *faceprint.Signature) error {
	e := Entry{Name: name, Signature: sig, CreatedAt: time.Now().UTC()}
	if err := g.store.Save(ctx, e); err != nil {
		return fmt.Errorf("%w: save %q: %v", ErrStorage, name, err)
	}
	return g.Reload(ctx)
}

// BestMatch compares the candidate against every enrolled signature
// and returns the highest-scoring entry whose comparison clears the
// threshold. ok is false when the gallery is empty or nothing matches.
// Ties keep whichever matching entry the iteration reached first.
func (g *Gallery) BestMatch(sig *faceprint.Signature) (name string, score float64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for n, e := range g.entries {
		match, s := g.matcher.Compare(e.Signature, sig)
		if match && s > score {
			name, score, ok = n, s, true
		}
	}
	return name, score, ok
}

// Entries returns a snapshot of the current entries sorted by name.
func (g *Gallery) Entries() []Entry {
	g.mu.RLock()
	out := make([]Entry, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of enrolled identities.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Threshold returns the matcher threshold in use.
func (g *Gallery) Threshold() float64 {
	return g.matcher.Threshold
}
