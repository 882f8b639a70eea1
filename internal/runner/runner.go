// Package runner drives the single core thread. Every engine, the bus,
// and the cache are touched from this thread only; other goroutines
// reach it through bounded queues.
package runner

import (
	"context"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/component"
	"main/internal/errors"
	"main/internal/model"
)

// TimedEvent is one timestamped input to a backtest run.
type TimedEvent struct {
	Ts      model.UnixNanos
	Payload any
}

// Handler processes one event payload on the core thread.
type Handler func(payload any) error

// Backtest replays a prepared event stream against a test clock. Timer
// events fire at their scheduled position in the stream: before any
// input event with an equal or later timestamp.
type Backtest struct {
	clk       *clock.TestClock
	registry  *component.Registry
	handle    Handler
	processed uint64
}

func NewBacktest(clk *clock.TestClock, registry *component.Registry, handle Handler) (*Backtest, error) {
	if clk == nil || registry == nil || handle == nil {
		return nil, errors.Validation("backtest runner requires clock, registry, and handler")
	}
	return &Backtest{clk: clk, registry: registry, handle: handle}, nil
}

// Processed returns the number of handled input events.
func (r *Backtest) Processed() uint64 { return r.processed }

// Run starts all components, streams the events, and stops the system.
// The stream must be ordered by timestamp.
func (r *Backtest) Run(events []TimedEvent) error {
	if err := r.registry.StartAll(); err != nil {
		return errors.Wrap(err, "start components")
	}
	streamErr := r.stream(events)
	stopErr := r.Shutdown()
	if streamErr != nil {
		return streamErr
	}
	return stopErr
}

func (r *Backtest) stream(events []TimedEvent) error {
	var last model.UnixNanos
	for i, ev := range events {
		if ev.Ts < last {
			return errors.Validationf("event stream out of order at index %d: %d < %d", i, ev.Ts, last)
		}
		last = ev.Ts
		if err := r.AdvanceTo(ev.Ts); err != nil {
			return err
		}
		if err := r.handle(ev.Payload); err != nil {
			return errors.Wrapf(err, "handle event at %d", ev.Ts)
		}
		r.processed++
	}
	return nil
}

// AdvanceTo moves the clock forward, firing due timers in order.
func (r *Backtest) AdvanceTo(ts model.UnixNanos) error {
	if ts < r.clk.TimestampNs() {
		return nil
	}
	deliveries, err := r.clk.AdvanceTime(ts, true)
	if err != nil {
		return err
	}
	for _, d := range deliveries {
		d.Fire()
	}
	return nil
}

// Shutdown stops every component in reverse start order.
func (r *Backtest) Shutdown() error {
	return r.registry.StopAll()
}

// Live multiplexes the boundary queues onto the core thread. Producers
// enqueue from adapter goroutines; Run drains in arrival order with the
// execution queue preferred when both are ready.
type Live struct {
	dataQ    *bus.Queue
	execQ    *bus.Queue
	registry *component.Registry
	handle   func(m bus.Msg)
}

func NewLive(dataQ, execQ *bus.Queue, registry *component.Registry, handle func(m bus.Msg)) (*Live, error) {
	if dataQ == nil || execQ == nil || registry == nil || handle == nil {
		return nil, errors.Validation("live runner requires queues, registry, and handler")
	}
	return &Live{dataQ: dataQ, execQ: execQ, registry: registry, handle: handle}, nil
}

// Run starts the components and drains the queues until the context is
// canceled, then drains what remains and stops the system.
func (l *Live) Run(ctx context.Context) error {
	if err := l.registry.StartAll(); err != nil {
		return errors.Wrap(err, "start components")
	}
	for {
		// Execution messages preempt data when both are pending.
		select {
		case m, ok := <-l.execQ.C():
			if ok {
				l.handle(m)
				continue
			}
		default:
		}

		select {
		case <-ctx.Done():
			l.drainRemaining()
			return l.registry.StopAll()
		case m, ok := <-l.execQ.C():
			if !ok {
				l.drainRemaining()
				return l.registry.StopAll()
			}
			l.handle(m)
		case m, ok := <-l.dataQ.C():
			if !ok {
				l.drainRemaining()
				return l.registry.StopAll()
			}
			l.handle(m)
		}
	}
}

func (l *Live) drainRemaining() {
	l.execQ.Drain(l.handle)
	l.dataQ.Drain(l.handle)
	if n := l.execQ.Len() + l.dataQ.Len(); n > 0 {
		logs.Errorf("runner: %d messages still queued after drain", n)
	}
}
