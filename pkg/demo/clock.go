package demo

import "time"

// Clock measures scene time from a monotonic source.
type Clock struct {
	now      func() time.Time
	start    time.Time
	previous float64
}

// NewClock starts a clock on the wall clock's monotonic reading.
func NewClock() *Clock {
	return NewClockFunc(time.Now)
}

// NewClockFunc starts a clock on a custom time source.
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now, start: now()}
}

// Elapsed returns seconds since the clock started.
func (c *Clock) Elapsed() float64 {
	return c.now().Sub(c.start).Seconds()
}

// Tick samples the clock once and returns the elapsed time and the time
// since the previous Tick.
func (c *Clock) Tick() (elapsed, delta float64) {
	elapsed = c.Elapsed()
	delta = elapsed - c.previous
	c.previous = elapsed
	return elapsed, delta
}
