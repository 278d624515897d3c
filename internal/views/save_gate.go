package views

import (
	"sync"

	"github.com/google/uuid"
)

// SaveGate tracks drafts whose save is still outstanding. Form views are
// rebuilt for every request, so the saving flag of one draft has to outlive
// any single view.
type SaveGate struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSaveGate returns an empty gate
func NewSaveGate() *SaveGate {
	return &SaveGate{inflight: make(map[string]struct{})}
}

func (g *SaveGate) acquire(draftID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[draftID]; busy {
		return false
	}
	g.inflight[draftID] = struct{}{}
	return true
}

func (g *SaveGate) release(draftID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, draftID)
}

// InFlight reports how many drafts are being saved right now
func (g *SaveGate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}

// NewDraftID returns a fresh draft token
func NewDraftID() string {
	return uuid.NewString()
}

// ValidDraftID reports whether id looks like a token from NewDraftID
func ValidDraftID(id string) bool {
	return uuid.Validate(id) == nil
}
