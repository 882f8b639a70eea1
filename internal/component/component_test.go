package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/errors"
	"main/internal/model"
)

type harness struct {
	bus    *bus.Bus
	clock  *clock.TestClock
	ids    *model.IDGenerator
	states []State
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		bus:   bus.New("test"),
		clock: clock.NewTest(1),
		ids:   model.NewIDGenerator(1),
	}
	require.NoError(t, h.bus.Subscribe("system.state.*", bus.NewHandler("watch", func(msg any) {
		if ev, ok := msg.(StateChanged); ok {
			h.states = append(h.states, ev.State)
		}
	}), 0))
	return h
}

func (h *harness) component(t *testing.T, id string, hooks Hooks) *Component {
	t.Helper()
	c, err := New(model.ComponentID(id), hooks, h.bus, h.clock, h.ids)
	require.NoError(t, err)
	return c
}

func TestNewComponentInitializesToReady(t *testing.T) {
	h := newHarness(t)
	c := h.component(t, "DataEngine", Hooks{})
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, []State{StateReady}, h.states)
}

func TestStartStopResumeCycle(t *testing.T) {
	h := newHarness(t)
	var calls []string
	c := h.component(t, "ExecEngine", Hooks{
		OnStart:  func() error { calls = append(calls, "start"); return nil },
		OnStop:   func() error { calls = append(calls, "stop"); return nil },
		OnResume: func() error { calls = append(calls, "resume"); return nil },
	})

	require.NoError(t, c.Start())
	assert.True(t, c.IsRunning())

	require.NoError(t, c.Stop())
	assert.True(t, c.IsStopped())

	require.NoError(t, c.Resume())
	assert.True(t, c.IsRunning())

	assert.Equal(t, []string{"start", "stop", "resume"}, calls)
	assert.Equal(t, []State{
		StateReady,
		StateStarting, StateRunning,
		StateStopping, StateStopped,
		StateResuming, StateRunning,
	}, h.states)
}

func TestInvalidTriggerIsStateTransitionError(t *testing.T) {
	h := newHarness(t)
	c := h.component(t, "X", Hooks{})

	err := c.Stop()
	require.Error(t, err)
	assert.True(t, errors.IsStateTransition(err))
	assert.Equal(t, StateReady, c.State(), "state unchanged on invalid trigger")

	require.Error(t, c.Resume())
}

func TestResetReturnsToReady(t *testing.T) {
	h := newHarness(t)
	reset := 0
	c := h.component(t, "X", Hooks{OnReset: func() error { reset++; return nil }})

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())
	require.NoError(t, c.Reset())
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 1, reset)
}

func TestDisposeIsTerminal(t *testing.T) {
	h := newHarness(t)
	c := h.component(t, "X", Hooks{})

	require.NoError(t, c.Dispose())
	assert.True(t, c.IsDisposed())
	require.Error(t, c.Start())
	assert.True(t, c.State().IsTerminal())
}

func TestHookErrorFaultsComponent(t *testing.T) {
	h := newHarness(t)
	c := h.component(t, "X", Hooks{
		OnStart: func() error { return errors.New("boom") },
	})

	require.Error(t, c.Start())
	assert.True(t, c.IsFaulted())
	require.Error(t, c.Stop(), "faulted is terminal")
}

func TestDegradeAndResume(t *testing.T) {
	h := newHarness(t)
	c := h.component(t, "X", Hooks{})

	require.NoError(t, c.Start())
	require.NoError(t, c.Degrade())
	assert.True(t, c.IsDegraded())

	require.NoError(t, c.Resume())
	assert.True(t, c.IsRunning())
}

func TestRegistryLifecycleOrder(t *testing.T) {
	h := newHarness(t)
	var calls []string
	mk := func(id string) *Component {
		return h.component(t, id, Hooks{
			OnStart: func() error { calls = append(calls, "start-"+id); return nil },
			OnStop:  func() error { calls = append(calls, "stop-"+id); return nil },
		})
	}
	r := NewRegistry()
	require.NoError(t, r.Register(mk("a")))
	require.NoError(t, r.Register(mk("b")))
	require.Error(t, r.Register(nil))

	require.NoError(t, r.StartAll())
	require.NoError(t, r.StopAll())
	assert.Equal(t, []string{"start-a", "start-b", "stop-b", "stop-a"}, calls)

	require.NoError(t, r.DisposeAll())
	assert.Equal(t, 0, r.Len())
}

func TestRegistryDeregister(t *testing.T) {
	h := newHarness(t)
	r := NewRegistry()
	c := h.component(t, "a", Hooks{})
	require.NoError(t, r.Register(c))
	require.Error(t, r.Register(c))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, c, got)

	require.NoError(t, r.Deregister("a"))
	require.Error(t, r.Deregister("a"))
	_, ok = r.Get("a")
	assert.False(t, ok)
}
