package horizon

import (
	"time"
)

// Clock is the single time source for procedural motion. Elapsed is
// measured from Start and never clamped; Delta is capped at MaxDelta so a
// stalled frame cannot teleport damped values.
type Clock struct {
	Start    time.Time
	Time     time.Time
	Dt       time.Duration
	MaxDelta time.Duration

	now func() time.Time
}

func NewClock(maxDelta time.Duration) *Clock {
	return newClockWithSource(maxDelta, time.Now)
}

func newClockWithSource(maxDelta time.Duration, now func() time.Time) *Clock {
	t := now()
	return &Clock{
		Start:    t,
		Time:     t,
		MaxDelta: maxDelta,
		now:      now,
	}
}

// Tick advances the clock and returns delta and elapsed seconds.
func (c *Clock) Tick() (delta, elapsed float32) {
	now := c.now()

	c.Dt = now.Sub(c.Time)
	if c.Dt < 0 {
		c.Dt = 0
	}
	c.Time = now

	dt := c.Dt
	if c.MaxDelta > 0 && dt > c.MaxDelta {
		dt = c.MaxDelta
	}
	return float32(dt.Seconds()), float32(now.Sub(c.Start).Seconds())
}

// Elapsed returns seconds since start as of the last tick.
func (c *Clock) Elapsed() float32 {
	return float32(c.Time.Sub(c.Start).Seconds())
}
