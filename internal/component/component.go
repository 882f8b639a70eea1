// Package component implements the shared lifecycle every runtime
// component follows, plus the registry that owns component references
// and tears them down in order.
package component

import (
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/errors"
	"main/internal/model"
)

// StateChanged is published on system.state.<component-id> after every
// successful transition.
type StateChanged struct {
	ComponentID model.ComponentID
	State       State
	EventID     model.EventID
	TsEvent     model.UnixNanos
}

// Hooks are the user-supplied lifecycle callbacks. Nil hooks are
// skipped. A hook error faults the component.
type Hooks struct {
	OnStart   func() error
	OnStop    func() error
	OnResume  func() error
	OnReset   func() error
	OnDispose func() error
	OnDegrade func() error
	OnFault   func() error
}

// Component is the lifecycle core embedded by engines, strategies, and
// actors. It starts PreInitialized and must be initialized before use.
type Component struct {
	id    model.ComponentID
	state State
	hooks Hooks

	msgbus *bus.Bus
	clk    clock.Clock
	ids    *model.IDGenerator
}

// New creates a component and initializes it to Ready.
func New(id model.ComponentID, hooks Hooks, msgbus *bus.Bus, clk clock.Clock, ids *model.IDGenerator) (*Component, error) {
	if id == "" {
		return nil, errors.Validation("component requires an id")
	}
	if msgbus == nil || clk == nil || ids == nil {
		return nil, errors.Validation("component requires bus, clock, and id generator")
	}
	c := &Component{
		id:     id,
		state:  StatePreInitialized,
		hooks:  hooks,
		msgbus: msgbus,
		clk:    clk,
		ids:    ids,
	}
	if err := c.apply(TriggerInitialize); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Component) ID() model.ComponentID { return c.id }
func (c *Component) State() State          { return c.state }

func (c *Component) IsRunning() bool  { return c.state == StateRunning }
func (c *Component) IsStopped() bool  { return c.state == StateStopped }
func (c *Component) IsDisposed() bool { return c.state == StateDisposed }
func (c *Component) IsFaulted() bool  { return c.state == StateFaulted }
func (c *Component) IsDegraded() bool { return c.state == StateDegraded }

// apply performs one transition and publishes the state change.
func (c *Component) apply(trigger Trigger) error {
	next, err := transition(c.state, trigger)
	if err != nil {
		logs.Errorf("component %s, err: %+v", c.id, err)
		return err
	}
	c.state = next
	ts := c.clk.TimestampNs()
	c.msgbus.Publish(bus.TopicComponentState(c.id), StateChanged{
		ComponentID: c.id,
		State:       next,
		EventID:     c.ids.Next(ts),
		TsEvent:     ts,
	})
	return nil
}

// runHook executes a lifecycle callback, faulting the component when it
// fails.
func (c *Component) runHook(name string, hook func() error) error {
	if hook == nil {
		return nil
	}
	if err := hook(); err != nil {
		wrapped := errors.Wrapf(err, "component %s %s hook", c.id, name)
		logs.Errorf("%+v", wrapped)
		c.Fault()
		return wrapped
	}
	return nil
}

// Start transitions Ready/Stopped -> Starting -> Running.
func (c *Component) Start() error {
	if err := c.apply(TriggerStart); err != nil {
		return err
	}
	if err := c.runHook("start", c.hooks.OnStart); err != nil {
		return err
	}
	return c.apply(TriggerRunningCompleted)
}

// Stop transitions to Stopping -> Stopped.
func (c *Component) Stop() error {
	if err := c.apply(TriggerStop); err != nil {
		return err
	}
	if err := c.runHook("stop", c.hooks.OnStop); err != nil {
		return err
	}
	return c.apply(TriggerStoppedCompleted)
}

// Resume transitions Stopped/Degraded -> Resuming -> Running.
func (c *Component) Resume() error {
	if err := c.apply(TriggerResume); err != nil {
		return err
	}
	if err := c.runHook("resume", c.hooks.OnResume); err != nil {
		return err
	}
	return c.apply(TriggerRunningCompleted)
}

// Reset transitions Ready/Stopped -> Resetting -> Ready.
func (c *Component) Reset() error {
	if err := c.apply(TriggerReset); err != nil {
		return err
	}
	if err := c.runHook("reset", c.hooks.OnReset); err != nil {
		return err
	}
	return c.apply(TriggerInitialize)
}

// Dispose transitions to Disposing -> Disposed. Disposed is terminal.
func (c *Component) Dispose() error {
	if err := c.apply(TriggerDispose); err != nil {
		return err
	}
	if err := c.runHook("dispose", c.hooks.OnDispose); err != nil {
		return err
	}
	return c.apply(TriggerStoppedCompleted)
}

// Degrade moves a running component to Degraded.
func (c *Component) Degrade() error {
	if err := c.apply(TriggerDegrade); err != nil {
		return err
	}
	return c.runHook("degrade", c.hooks.OnDegrade)
}

// Fault moves the component to the terminal Faulted state.
func (c *Component) Fault() {
	if c.state.IsTerminal() {
		return
	}
	if err := c.apply(TriggerFault); err != nil {
		return
	}
	if c.hooks.OnFault != nil {
		if err := c.hooks.OnFault(); err != nil {
			logs.Errorf("component %s fault hook, err: %+v", c.id, err)
		}
	}
}
