package device

import "time"

// HostClock is a Timer backed by the host's monotonic clock.
type HostClock struct {
	start time.Time
	freq  uint64
}

var _ Timer = (*HostClock)(nil)

// NewHostClock creates a HostClock that counts freq ticks per second,
// starting at zero.
func NewHostClock(freq uint64) *HostClock {
	if freq == 0 {
		freq = 1
	}
	return &HostClock{start: time.Now(), freq: freq}
}

// Freq returns the number of ticks per second.
func (c *HostClock) Freq() uint64 {
	return c.freq
}

// Now returns the ticks elapsed since the clock was created.
func (c *HostClock) Now() uint64 {
	return c.toTicks(time.Since(c.start))
}

// SleepUntil blocks until the deadline tick has passed.
func (c *HostClock) SleepUntil(deadline uint64) {
	for {
		now := c.Now()
		if now >= deadline {
			return
		}
		time.Sleep(c.toDuration(deadline - now))
	}
}

func (c *HostClock) toTicks(d time.Duration) uint64 {
	ns := uint64(d.Nanoseconds())
	return ns/uint64(time.Second)*c.freq + ns%uint64(time.Second)*c.freq/uint64(time.Second)
}

func (c *HostClock) toDuration(ticks uint64) time.Duration {
	whole := ticks / c.freq
	rem := ticks % c.freq
	d := time.Duration(whole)*time.Second + time.Duration(rem*uint64(time.Second)/c.freq)
	if d <= 0 {
		d = time.Nanosecond
	}
	return d
}
