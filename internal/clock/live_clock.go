package clock

import (
	"sync"
	"time"

	"main/internal/errors"
	"main/internal/model"
)

// LiveClock reads the wall clock and fires timers from background
// goroutines. Handlers run on those goroutines; live deployments hand
// the events to the runner queue rather than touching engine state
// directly.
type LiveClock struct {
	mu     sync.Mutex
	timers map[string]*liveTimer
	order  []string
	ids    *model.IDGenerator
}

type liveTimer struct {
	name   string
	stop   chan struct{}
	closed bool
}

func NewLive() *LiveClock {
	return &LiveClock{
		timers: make(map[string]*liveTimer),
		ids:    model.NewIDGenerator(0),
	}
}

func (c *LiveClock) TimestampNs() model.UnixNanos {
	return model.UnixNanosFromTime(time.Now())
}

func (c *LiveClock) UtcNow() time.Time { return time.Now().UTC() }

func (c *LiveClock) TimerNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *LiveClock) TimerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *LiveClock) SetTimeAlert(name string, alertTime model.UnixNanos, handler TimeEventHandler) error {
	if handler == nil {
		return errors.Validationf("timer %s requires a handler", name)
	}
	delay := time.Duration(alertTime - c.TimestampNs())
	if delay < 0 {
		delay = 0
	}
	t, err := c.register(name)
	if err != nil {
		return err
	}
	go func() {
		alarm := time.NewTimer(delay)
		defer alarm.Stop()
		select {
		case <-t.stop:
			return
		case <-alarm.C:
		}
		handler(TimeEvent{
			Name:    name,
			EventID: c.ids.Next(alertTime),
			TsEvent: alertTime,
			TsInit:  c.TimestampNs(),
		})
		c.remove(name)
	}()
	return nil
}

func (c *LiveClock) SetTimer(name string, interval time.Duration, start, stop model.UnixNanos, handler TimeEventHandler) error {
	if handler == nil {
		return errors.Validationf("timer %s requires a handler", name)
	}
	if interval <= 0 {
		return errors.Validationf("timer %s requires a positive interval", name)
	}
	t, err := c.register(name)
	if err != nil {
		return err
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case now := <-ticker.C:
				ts := model.UnixNanosFromTime(now)
				if stop != 0 && ts > stop {
					c.remove(name)
					return
				}
				handler(TimeEvent{
					Name:    name,
					EventID: c.ids.Next(ts),
					TsEvent: ts,
					TsInit:  ts,
				})
			}
		}
	}()
	return nil
}

func (c *LiveClock) CancelTimer(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.timers[name]
	if !ok {
		return errors.NotFoundf("timer %s not registered", name)
	}
	c.stopLocked(name, t)
	return nil
}

func (c *LiveClock) CancelTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, t := range c.timers {
		c.stopLocked(name, t)
	}
}

func (c *LiveClock) register(name string) (*liveTimer, error) {
	if name == "" {
		return nil, errors.Validation("timer name must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.timers[name]; dup {
		return nil, errors.Validationf("timer %s already registered", name)
	}
	t := &liveTimer{name: name, stop: make(chan struct{})}
	c.timers[name] = t
	c.order = append(c.order, name)
	return t, nil
}

func (c *LiveClock) remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.timers[name]
	if !ok {
		return
	}
	c.stopLocked(name, t)
}

func (c *LiveClock) stopLocked(name string, t *liveTimer) {
	if !t.closed {
		t.closed = true
		close(t.stop)
	}
	delete(c.timers, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
