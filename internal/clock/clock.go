// Package clock provides time sources and named timers. The test clock
// is fully deterministic: time moves only when advanced, and due timers
// fire in timestamp order with ties broken by registration order.
package clock

import (
	"time"

	"main/internal/model"
)

// TimeEvent is emitted when a timer fires.
type TimeEvent struct {
	Name    string
	EventID model.EventID
	TsEvent model.UnixNanos
	TsInit  model.UnixNanos
}

// TimeEventHandler receives fired time events.
type TimeEventHandler func(TimeEvent)

// Clock is a time source with named timers.
type Clock interface {
	// TimestampNs returns the current time in nanoseconds since the epoch.
	TimestampNs() model.UnixNanos

	// UtcNow returns the current time as a UTC time.Time.
	UtcNow() time.Time

	// TimerNames returns the names of active timers in registration order.
	TimerNames() []string

	// TimerCount returns the number of active timers.
	TimerCount() int

	// SetTimeAlert registers a one-shot timer firing at the given time.
	SetTimeAlert(name string, alertTime model.UnixNanos, handler TimeEventHandler) error

	// SetTimer registers a repeating timer. Start zero means now; stop
	// zero means never.
	SetTimer(name string, interval time.Duration, start, stop model.UnixNanos, handler TimeEventHandler) error

	// CancelTimer removes a timer by name.
	CancelTimer(name string) error

	// CancelTimers removes all timers.
	CancelTimers()
}

type timer struct {
	name     string
	nextTime model.UnixNanos
	interval int64
	stopTime model.UnixNanos
	handler  TimeEventHandler
	expired  bool
}

func (t *timer) advanceOnce() {
	if t.interval == 0 {
		t.expired = true
		return
	}
	next := t.nextTime.Add(time.Duration(t.interval))
	if t.stopTime != 0 && next > t.stopTime {
		t.expired = true
		return
	}
	t.nextTime = next
}
