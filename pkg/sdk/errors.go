package feedsearch

import "github.com/kailas-cloud/feedsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrInvalidCondition = domain.ErrInvalidCondition
	ErrSearchFailure    = domain.ErrSearchFailure
	ErrTooManyClauses   = domain.ErrTooManyClauses
	ErrIndexClosed      = domain.ErrIndexClosed
	ErrDrainInterrupted = domain.ErrDrainInterrupted
)
