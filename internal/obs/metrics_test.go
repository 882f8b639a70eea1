package obs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/exec"
	"main/internal/order"
)

func TestMetricsCountsEventsAndCommands(t *testing.T) {
	m := NewMetrics()

	m.ObserveCommand(exec.Command{Type: exec.CommandSubmitOrder})
	m.ObserveCommand(exec.Command{Type: exec.CommandSubmitOrder})
	m.ObserveCommand(exec.Command{Type: exec.CommandCancelOrder})

	m.ObserveOrderEvent(order.Event{Type: order.EventAccepted, TsEvent: 100, TsInit: 150})
	m.ObserveOrderEvent(order.Event{Type: order.EventFilled, TsEvent: 200, TsInit: 230})
	m.ObserveOrderEvent(order.Event{Type: order.EventDenied})

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.CommandCounts[exec.CommandSubmitOrder])
	assert.Equal(t, uint64(1), snap.CommandCounts[exec.CommandCancelOrder])
	assert.Equal(t, uint64(1), snap.OrderEventCounts[order.EventAccepted])
	assert.Equal(t, uint64(1), snap.OrderEventCounts[order.EventFilled])
	assert.Equal(t, uint64(1), snap.Fills)
	assert.Equal(t, uint64(1), snap.Denials)
	assert.NotContains(t, snap.OrderEventCounts, order.EventCanceled)

	require.Equal(t, uint64(2), snap.EventLatency.Count)
	assert.Equal(t, 30*time.Nanosecond, snap.EventLatency.Min)
	assert.Equal(t, 50*time.Nanosecond, snap.EventLatency.Max)
	assert.Equal(t, 40*time.Nanosecond, snap.EventLatency.Avg)
}

func TestLatencyStatsIgnoresNegativeSamples(t *testing.T) {
	var l LatencyStats
	l.Observe(-time.Second)
	assert.Equal(t, LatencySnapshot{}, l.Snapshot())

	l.Observe(10 * time.Microsecond)
	snap := l.Snapshot()
	assert.Equal(t, uint64(1), snap.Count)
	assert.Equal(t, 10*time.Microsecond, snap.Min)
	assert.Equal(t, 10*time.Microsecond, snap.Max)
}

func TestTraceGeneratorIsMonotonic(t *testing.T) {
	g := NewTraceGenerator(7)
	first := g.Next()
	second := g.Next()
	assert.Equal(t, first+1, second)
	assert.Equal(t, "trace-000000000000000a", g.NextString())
}
