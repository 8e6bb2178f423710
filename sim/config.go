package sim

import (
	"fmt"
	"math"

	akitasim "github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/fifocal/sim/cache"
)

// Config holds the parameters of the simulated platform.
type Config struct {
	// ClockFreq is the frequency of the controller's memory-side clock.
	// All latencies below are counted in cycles of this clock.
	ClockFreq akitasim.Freq `json:"clock_freq"`

	// TimerFreq is the rate of the platform timer.
	TimerFreq akitasim.Freq `json:"timer_freq"`

	// QueueCapacity is the physical size of the refill queue in words.
	// A burst that lands on a queue with less room overflows it.
	QueueCapacity uint32 `json:"queue_capacity"`

	// WordPeriod is the number of cycles the display takes to consume one
	// word from the queue.
	WordPeriod uint64 `json:"word_period"`

	// RefillLatency is the number of cycles from a burst being granted the
	// memory channel until its first word arrives.
	RefillLatency uint64 `json:"refill_latency"`

	// BeatCycles is the number of channel cycles per transferred word.
	BeatCycles uint64 `json:"beat_cycles"`

	// Cache describes the CPU data cache in front of the channel.
	Cache cache.Config `json:"cache"`
}

// DefaultConfig returns a platform with a 50MHz memory clock, a 1MHz timer
// and a 640x480@60 24-bit display draining one 64-bit word every 5 cycles.
func DefaultConfig() Config {
	return Config{
		ClockFreq:     50 * akitasim.MHz,
		TimerFreq:     1 * akitasim.MHz,
		QueueCapacity: 32,
		WordPeriod:    5,
		RefillLatency: 12,
		BeatCycles:    1,
		Cache:         cache.DefaultConfig(),
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.ClockFreq <= 0 {
		return fmt.Errorf("clock_freq must be > 0")
	}
	if c.TimerFreq <= 0 {
		return fmt.Errorf("timer_freq must be > 0")
	}
	if c.TimerFreq > c.ClockFreq {
		return fmt.Errorf("timer_freq must be <= clock_freq")
	}
	if c.QueueCapacity == 0 {
		return fmt.Errorf("queue_capacity must be > 0")
	}
	if c.WordPeriod == 0 {
		return fmt.Errorf("word_period must be > 0")
	}
	if c.BeatCycles == 0 {
		return fmt.Errorf("beat_cycles must be > 0")
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// CyclesPerTick returns the number of clock cycles per timer tick.
func (c Config) CyclesPerTick() uint64 {
	n := uint64(math.Round(float64(c.ClockFreq / c.TimerFreq)))
	if n == 0 {
		return 1
	}
	return n
}

// TimerHz returns the timer rate in ticks per second.
func (c Config) TimerHz() uint64 {
	return uint64(math.Round(float64(c.TimerFreq)))
}
