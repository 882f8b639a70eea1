package model

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventID uniquely identifies an event.
type EventID string

// IDGenerator produces ULID event identifiers. A seeded generator yields a
// reproducible sequence, which backtests rely on for determinism.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator creates a generator seeded for reproducibility. Seed zero
// derives from wall time.
func NewIDGenerator(seed uint64) *IDGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	source := rand.New(rand.NewSource(int64(seed)))
	return &IDGenerator{entropy: ulid.Monotonic(source, 0)}
}

// Next returns a new event ID at the given timestamp.
func (g *IDGenerator) Next(ts UnixNanos) EventID {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := uint64(ts.Time().UnixMilli())
	return EventID(ulid.MustNew(ms, g.entropy).String())
}
