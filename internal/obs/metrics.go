// Package obs collects lightweight runtime observability: counters per
// order event and command variant, latency aggregates and trace ids.
// Everything is atomic so hot paths never block on a reporting reader.
package obs

import (
	"sync/atomic"
	"time"

	"main/internal/exec"
	"main/internal/order"
)

const (
	maxOrderEventType = int(order.EventFilled)
	maxCommandType    = int(exec.CommandQueryOrder)
)

// Metrics collects counters and latency stats for a trading node.
type Metrics struct {
	orderEventCounts [maxOrderEventType + 1]uint64
	commandCounts    [maxCommandType + 1]uint64
	fills            uint64
	denials          uint64
	queueDrops       uint64

	eventLatency     LatencyStats
	orderFlowLatency LatencyStats
	riskEvalLatency  LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values. Count maps only hold
// nonzero entries.
type Snapshot struct {
	OrderEventCounts map[order.EventType]uint64
	CommandCounts    map[exec.CommandType]uint64
	Fills            uint64
	Denials          uint64
	QueueDrops       uint64
	EventLatency     LatencySnapshot
	OrderFlowLatency LatencySnapshot
	RiskEvalLatency  LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveOrderEvent counts an order event and tracks its init-to-apply
// latency when both timestamps are present.
func (m *Metrics) ObserveOrderEvent(ev order.Event) {
	if m == nil {
		return
	}
	idx := int(ev.Type)
	if idx >= 0 && idx < len(m.orderEventCounts) {
		atomic.AddUint64(&m.orderEventCounts[idx], 1)
	}
	switch ev.Type {
	case order.EventFilled:
		atomic.AddUint64(&m.fills, 1)
	case order.EventDenied:
		atomic.AddUint64(&m.denials, 1)
	}
	if ev.TsEvent > 0 && ev.TsInit >= ev.TsEvent {
		m.eventLatency.Observe(time.Duration(ev.TsInit - ev.TsEvent))
	}
}

// ObserveCommand counts a trading command.
func (m *Metrics) ObserveCommand(cmd exec.Command) {
	if m == nil {
		return
	}
	idx := int(cmd.Type)
	if idx >= 0 && idx < len(m.commandCounts) {
		atomic.AddUint64(&m.commandCounts[idx], 1)
	}
}

// IncQueueDrop records a dropped boundary-queue message.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// ObserveOrderFlow measures submit-to-terminal order flow latency.
func (m *Metrics) ObserveOrderFlow(d time.Duration) {
	if m == nil {
		return
	}
	m.orderFlowLatency.Observe(d)
}

// ObserveRiskEval measures risk evaluation latency.
func (m *Metrics) ObserveRiskEval(d time.Duration) {
	if m == nil {
		return
	}
	m.riskEvalLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[order.EventType]uint64)
	for i := range m.orderEventCounts {
		if v := atomic.LoadUint64(&m.orderEventCounts[i]); v > 0 {
			eventCounts[order.EventType(i)] = v
		}
	}
	commandCounts := make(map[exec.CommandType]uint64)
	for i := range m.commandCounts {
		if v := atomic.LoadUint64(&m.commandCounts[i]); v > 0 {
			commandCounts[exec.CommandType(i)] = v
		}
	}
	return Snapshot{
		OrderEventCounts: eventCounts,
		CommandCounts:    commandCounts,
		Fills:            atomic.LoadUint64(&m.fills),
		Denials:          atomic.LoadUint64(&m.denials),
		QueueDrops:       atomic.LoadUint64(&m.queueDrops),
		EventLatency:     m.eventLatency.Snapshot(),
		OrderFlowLatency: m.orderFlowLatency.Snapshot(),
		RiskEvalLatency:  m.riskEvalLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
