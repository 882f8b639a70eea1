package clock

import (
	"sort"
	"time"

	"main/internal/errors"
	"main/internal/model"
)

// TestClock is a deterministic clock for backtests. Time only moves via
// SetTime or AdvanceTime.
type TestClock struct {
	timeNs model.UnixNanos
	timers []*timer
	ids    *model.IDGenerator
}

// NewTest creates a test clock at time zero with a seeded id generator.
func NewTest(seed uint64) *TestClock {
	return &TestClock{ids: model.NewIDGenerator(seed)}
}

func (c *TestClock) TimestampNs() model.UnixNanos { return c.timeNs }
func (c *TestClock) UtcNow() time.Time            { return c.timeNs.Time() }

func (c *TestClock) TimerNames() []string {
	out := make([]string, 0, len(c.timers))
	for _, t := range c.timers {
		out = append(out, t.name)
	}
	return out
}

func (c *TestClock) TimerCount() int { return len(c.timers) }

// SetTime moves the clock without firing timers.
func (c *TestClock) SetTime(ts model.UnixNanos) { c.timeNs = ts }

func (c *TestClock) SetTimeAlert(name string, alertTime model.UnixNanos, handler TimeEventHandler) error {
	return c.addTimer(&timer{
		name:     name,
		nextTime: alertTime,
		handler:  handler,
	})
}

func (c *TestClock) SetTimer(name string, interval time.Duration, start, stop model.UnixNanos, handler TimeEventHandler) error {
	if interval <= 0 {
		return errors.Validationf("timer %s requires a positive interval", name)
	}
	if start == 0 {
		start = c.timeNs
	}
	if stop != 0 && stop <= start {
		return errors.Validationf("timer %s stop time must be after start", name)
	}
	return c.addTimer(&timer{
		name:     name,
		nextTime: start.Add(interval),
		interval: int64(interval),
		stopTime: stop,
		handler:  handler,
	})
}

func (c *TestClock) addTimer(t *timer) error {
	if t.name == "" {
		return errors.Validation("timer name must not be empty")
	}
	if t.handler == nil {
		return errors.Validationf("timer %s requires a handler", t.name)
	}
	for _, existing := range c.timers {
		if existing.name == t.name {
			return errors.Validationf("timer %s already registered", t.name)
		}
	}
	c.timers = append(c.timers, t)
	return nil
}

func (c *TestClock) CancelTimer(name string) error {
	for i, t := range c.timers {
		if t.name == name {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("timer %s not registered", name)
}

func (c *TestClock) CancelTimers() { c.timers = nil }

// TimeEventDelivery pairs a fired event with the handler that should
// receive it.
type TimeEventDelivery struct {
	Event   TimeEvent
	Handler TimeEventHandler
}

// Fire invokes the handler with the event.
func (d TimeEventDelivery) Fire() { d.Handler(d.Event) }

// AdvanceTime fires every timer due at or before the given time and
// returns the events in timestamp order, ties broken by timer
// registration order. The clock itself only moves when setTime is
// true; passing false lets a caller collect due events while another
// component still owns the clock position.
// Handlers are NOT invoked; callers drive delivery so firing interleaves
// correctly with other event processing.
func (c *TestClock) AdvanceTime(to model.UnixNanos, setTime bool) ([]TimeEventDelivery, error) {
	if to < c.timeNs {
		return nil, errors.Validationf("cannot advance time backwards: %d < %d", to, c.timeNs)
	}
	var fired []TimeEventDelivery
	for _, t := range c.timers {
		for !t.expired && t.nextTime <= to {
			fired = append(fired, TimeEventDelivery{
				Event: TimeEvent{
					Name:    t.name,
					EventID: c.ids.Next(t.nextTime),
					TsEvent: t.nextTime,
					TsInit:  t.nextTime,
				},
				Handler: t.handler,
			})
			t.advanceOnce()
		}
	}
	c.dropExpired()
	sort.SliceStable(fired, func(i, j int) bool {
		return fired[i].Event.TsEvent < fired[j].Event.TsEvent
	})
	if setTime {
		c.timeNs = to
	}
	return fired, nil
}

// NextTimeNs returns the earliest pending fire time, or false when no
// timers are active.
func (c *TestClock) NextTimeNs() (model.UnixNanos, bool) {
	var next model.UnixNanos
	found := false
	for _, t := range c.timers {
		if t.expired {
			continue
		}
		if !found || t.nextTime < next {
			next = t.nextTime
			found = true
		}
	}
	return next, found
}

func (c *TestClock) dropExpired() {
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.expired {
			kept = append(kept, t)
		}
	}
	c.timers = kept
}
