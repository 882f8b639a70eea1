package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
)

func TestTestClockStartsAtZero(t *testing.T) {
	c := NewTest(1)
	assert.Equal(t, model.UnixNanos(0), c.TimestampNs())

	c.SetTime(1_000)
	assert.Equal(t, model.UnixNanos(1_000), c.TimestampNs())
	assert.Equal(t, int64(1_000), c.UtcNow().UnixNano())
}

func TestTimeAlertFiresOnce(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimeAlert("alert-1", 500, func(TimeEvent) {}))
	assert.Equal(t, 1, c.TimerCount())

	fired, err := c.AdvanceTime(499, true)
	require.NoError(t, err)
	assert.Empty(t, fired)

	fired, err = c.AdvanceTime(500, true)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "alert-1", fired[0].Event.Name)
	assert.Equal(t, model.UnixNanos(500), fired[0].Event.TsEvent)
	assert.NotEmpty(t, fired[0].Event.EventID)
	assert.Equal(t, 0, c.TimerCount(), "one-shot removed after firing")
}

func TestAdvanceTimeWithoutSettingClock(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimeAlert("alert-1", 500, func(TimeEvent) {}))

	fired, err := c.AdvanceTime(600, false)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, model.UnixNanos(500), fired[0].Event.TsEvent)
	assert.Equal(t, model.UnixNanos(0), c.TimestampNs(), "clock position untouched")

	fired, err = c.AdvanceTime(600, true)
	require.NoError(t, err)
	assert.Empty(t, fired, "alert already consumed")
	assert.Equal(t, model.UnixNanos(600), c.TimestampNs())
}

func TestRepeatingTimerFiresEveryInterval(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimer("bar-1m", time.Duration(100), 0, 0, func(TimeEvent) {}))

	fired, err := c.AdvanceTime(350, true)
	require.NoError(t, err)
	require.Len(t, fired, 3)
	assert.Equal(t, model.UnixNanos(100), fired[0].Event.TsEvent)
	assert.Equal(t, model.UnixNanos(200), fired[1].Event.TsEvent)
	assert.Equal(t, model.UnixNanos(300), fired[2].Event.TsEvent)
	assert.Equal(t, 1, c.TimerCount(), "repeating timer stays active")
}

func TestTimerStopTimeExpires(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimer("stops", time.Duration(100), 0, 250, func(TimeEvent) {}))

	fired, err := c.AdvanceTime(1_000, true)
	require.NoError(t, err)
	assert.Len(t, fired, 2)
	assert.Equal(t, 0, c.TimerCount())
}

func TestDuplicateTimerNameRejected(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimeAlert("dup", 100, func(TimeEvent) {}))
	require.Error(t, c.SetTimeAlert("dup", 200, func(TimeEvent) {}))
	require.Error(t, c.SetTimer("dup", time.Duration(10), 0, 0, func(TimeEvent) {}))
}

func TestTimerValidation(t *testing.T) {
	c := NewTest(1)
	require.Error(t, c.SetTimeAlert("", 100, func(TimeEvent) {}))
	require.Error(t, c.SetTimeAlert("no-handler", 100, nil))
	require.Error(t, c.SetTimer("bad-interval", 0, 0, 0, func(TimeEvent) {}))
	require.Error(t, c.SetTimer("bad-stop", time.Duration(10), 100, 50, func(TimeEvent) {}))
}

func TestAdvanceBackwardsRejected(t *testing.T) {
	c := NewTest(1)
	c.SetTime(1_000)
	_, err := c.AdvanceTime(999, true)
	require.Error(t, err)
}

func TestTieBreakByRegistrationOrder(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimeAlert("second", 100, func(TimeEvent) {}))
	require.NoError(t, c.SetTimeAlert("first", 100, func(TimeEvent) {}))

	fired, err := c.AdvanceTime(100, true)
	require.NoError(t, err)
	require.Len(t, fired, 2)
	assert.Equal(t, "second", fired[0].Event.Name)
	assert.Equal(t, "first", fired[1].Event.Name)
}

func TestInterleavedTimersSortByTimestamp(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimer("a", time.Duration(100), 0, 0, func(TimeEvent) {}))
	require.NoError(t, c.SetTimer("b", time.Duration(70), 0, 0, func(TimeEvent) {}))

	fired, err := c.AdvanceTime(220, true)
	require.NoError(t, err)
	var names []string
	var stamps []model.UnixNanos
	for _, f := range fired {
		names = append(names, f.Event.Name)
		stamps = append(stamps, f.Event.TsEvent)
	}
	assert.Equal(t, []string{"b", "a", "b", "a", "b"}, names)
	assert.Equal(t, []model.UnixNanos{70, 100, 140, 200, 210}, stamps)
}

func TestCancelTimer(t *testing.T) {
	c := NewTest(1)
	require.NoError(t, c.SetTimeAlert("x", 100, func(TimeEvent) {}))
	require.NoError(t, c.SetTimeAlert("y", 200, func(TimeEvent) {}))
	require.NoError(t, c.CancelTimer("x"))
	require.Error(t, c.CancelTimer("x"))

	next, ok := c.NextTimeNs()
	require.True(t, ok)
	assert.Equal(t, model.UnixNanos(200), next)

	c.CancelTimers()
	_, ok = c.NextTimeNs()
	assert.False(t, ok)
}

func TestDeliveryFiresHandler(t *testing.T) {
	c := NewTest(1)
	var got []TimeEvent
	require.NoError(t, c.SetTimeAlert("x", 100, func(ev TimeEvent) { got = append(got, ev) }))

	fired, err := c.AdvanceTime(100, true)
	require.NoError(t, err)
	for _, f := range fired {
		f.Fire()
	}
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Name)
}

func TestDeterministicEventIDs(t *testing.T) {
	run := func() []model.EventID {
		c := NewTest(42)
		require.NoError(t, c.SetTimer("t", time.Duration(50), 0, 0, func(TimeEvent) {}))
		fired, err := c.AdvanceTime(200, true)
		require.NoError(t, err)
		var ids []model.EventID
		for _, f := range fired {
			ids = append(ids, f.Event.EventID)
		}
		return ids
	}
	assert.Equal(t, run(), run())
}

func TestLiveClockTimestampMoves(t *testing.T) {
	c := NewLive()
	a := c.TimestampNs()
	b := c.TimestampNs()
	assert.GreaterOrEqual(t, int64(b), int64(a))
	assert.Equal(t, 0, c.TimerCount())
}

func TestLiveClockTimerLifecycle(t *testing.T) {
	c := NewLive()
	require.NoError(t, c.SetTimer("tick", 10*time.Millisecond, 0, 0, func(TimeEvent) {}))
	require.Error(t, c.SetTimer("tick", 10*time.Millisecond, 0, 0, func(TimeEvent) {}))
	assert.Equal(t, []string{"tick"}, c.TimerNames())

	require.NoError(t, c.CancelTimer("tick"))
	assert.Equal(t, 0, c.TimerCount())
}
