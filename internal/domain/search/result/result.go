package result

import "github.com/kailas-cloud/feedsearch/internal/domain"

// Side-data keys carried by a hit.
const (
	// KeyState holds the domain.State read from the stored index field.
	KeyState = "state"
)

// Hit is a single ranked search match.
type Hit struct {
	ref      domain.EntityRef
	score    float64
	sideData map[string]any
}

// New creates a search hit.
func New(ref domain.EntityRef, score float64, sideData map[string]any) Hit {
	return Hit{ref: ref, score: score, sideData: sideData}
}

// Ref returns the matching entity.
func (h *Hit) Ref() domain.EntityRef { return h.ref }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// SideData returns the auxiliary per-hit data.
func (h *Hit) SideData() map[string]any { return h.sideData }

// State returns the lifecycle state read off the index, if present.
func (h *Hit) State() (domain.State, bool) {
	s, ok := h.sideData[KeyState].(domain.State)
	return s, ok
}
