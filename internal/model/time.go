package model

import "time"

// UnixNanos is a timestamp in nanoseconds since the Unix epoch.
type UnixNanos int64

func UnixNanosFromTime(t time.Time) UnixNanos {
	return UnixNanos(t.UnixNano())
}

func (n UnixNanos) Time() time.Time {
	return time.Unix(0, int64(n)).UTC()
}

func (n UnixNanos) Add(d time.Duration) UnixNanos {
	return n + UnixNanos(d)
}

func (n UnixNanos) String() string {
	return n.Time().Format(time.RFC3339Nano)
}
