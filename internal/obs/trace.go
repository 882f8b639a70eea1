package obs

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TraceGenerator creates monotonically increasing trace ids for
// correlating a command with the events it causes. Seed it with a
// fixed value in backtests to keep traces reproducible.
type TraceGenerator struct {
	next uint64
}

func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &TraceGenerator{next: seed}
}

// Next returns the next trace id.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}

// NextString returns the next trace id formatted for log fields.
func (g *TraceGenerator) NextString() string {
	return fmt.Sprintf("trace-%016x", g.Next())
}
