package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/component"
	"main/internal/model"
)

func newRegistry(t *testing.T, b *bus.Bus, clk clock.Clock) *component.Registry {
	t.Helper()
	reg := component.NewRegistry()
	c, err := component.New("TestComponent", component.Hooks{}, b, clk, model.NewIDGenerator(1))
	require.NoError(t, err)
	require.NoError(t, reg.Register(c))
	return reg
}

func TestBacktestFiresTimersAtScheduledPosition(t *testing.T) {
	b := bus.New("test")
	clk := clock.NewTest(1)
	reg := newRegistry(t, b, clk)

	var seen []string
	r, err := NewBacktest(clk, reg, func(payload any) error {
		seen = append(seen, payload.(string))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, clk.SetTimeAlert("mid", 150, func(ev clock.TimeEvent) {
		seen = append(seen, "timer:"+ev.Name)
	}))

	require.NoError(t, r.Run([]TimedEvent{
		{Ts: 100, Payload: "a"},
		{Ts: 200, Payload: "b"},
	}))

	assert.Equal(t, []string{"a", "timer:mid", "b"}, seen)
	assert.Equal(t, uint64(2), r.Processed())
}

func TestBacktestRejectsOutOfOrderStream(t *testing.T) {
	b := bus.New("test")
	clk := clock.NewTest(1)
	reg := newRegistry(t, b, clk)

	r, err := NewBacktest(clk, reg, func(any) error { return nil })
	require.NoError(t, err)

	err = r.Run([]TimedEvent{
		{Ts: 200, Payload: "a"},
		{Ts: 100, Payload: "b"},
	})
	require.Error(t, err)
}

func TestBacktestEqualTimestampsKeepArrivalOrder(t *testing.T) {
	b := bus.New("test")
	clk := clock.NewTest(1)
	reg := newRegistry(t, b, clk)

	var seen []string
	r, err := NewBacktest(clk, reg, func(payload any) error {
		seen = append(seen, payload.(string))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.Run([]TimedEvent{
		{Ts: 100, Payload: "a"},
		{Ts: 100, Payload: "b"},
		{Ts: 100, Payload: "c"},
	}))
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestLiveDrainsQueuesUntilClosed(t *testing.T) {
	b := bus.New("test")
	clk := clock.NewTest(1)
	reg := newRegistry(t, b, clk)

	dataQ := bus.NewQueue(16)
	execQ := bus.NewQueue(16)

	var topics []string
	l, err := NewLive(dataQ, execQ, reg, func(m bus.Msg) {
		topics = append(topics, m.Topic)
	})
	require.NoError(t, err)

	require.NoError(t, dataQ.TryPublish(bus.Msg{Topic: "data.quotes"}))
	require.NoError(t, execQ.TryPublish(bus.Msg{Topic: "events.order"}))
	require.NoError(t, dataQ.TryPublish(bus.Msg{Topic: "data.trades"}))
	execQ.Close()
	dataQ.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))

	// The execution message jumps the data backlog.
	require.Len(t, topics, 3)
	assert.Equal(t, "events.order", topics[0])
	assert.ElementsMatch(t, []string{"data.quotes", "data.trades"}, topics[1:])
}
