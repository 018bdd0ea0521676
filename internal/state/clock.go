package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock stamps every document change with a monotonically increasing
// revision, so remote viewers can discard stale frames.
type Clock struct {
	revision atomic.Uint64
}

// Tick advances the clock and returns the new revision.
func (c *Clock) Tick() uint64 { return c.revision.Add(1) }

// Now returns the latest revision without advancing it.
func (c *Clock) Now() uint64 { return c.revision.Load() }

// NewID returns a fresh shape or run identifier.
func NewID() string { return uuid.NewString() }
