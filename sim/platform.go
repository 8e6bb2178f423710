// Package sim provides a cycle-level model of the display controller's refill
// queue, the pixel drain and the memory channel the queue shares with the
// CPU. It implements the same bus, timer and memory interfaces as the real
// platform so the calibration engine can run against it unchanged.
package sim

import (
	"github.com/sarchlab/fifocal/device"
	"github.com/sarchlab/fifocal/sim/cache"
	"github.com/sarchlab/fifocal/stress"
)

// Stats holds event counters of the simulated platform.
type Stats struct {
	// Cycles is the current simulated cycle.
	Cycles uint64
	// WordsDrained is the number of words consumed by the display.
	WordsDrained uint64
	// Underruns counts drains that found the queue empty.
	Underruns uint64
	// Overflows counts bursts that landed on a queue without enough room.
	Overflows uint64
	// Bursts is the number of refill bursts issued.
	Bursts uint64
	// BurstWaitCycles is the total time bursts waited for the channel.
	BurstWaitCycles uint64
	// CPUReads is the number of 64-bit reads issued by the CPU.
	CPUReads uint64
	// CPUWaitCycles is the total time CPU line fills waited for the channel.
	CPUWaitCycles uint64
	// Fences is the number of memory barriers executed.
	Fences uint64
}

// Platform is the simulated SoC: one display controller, one CPU data cache
// and the memory channel they share.
type Platform struct {
	config        Config
	cyclesPerTick uint64

	now         uint64
	channelFree uint64

	cache *cache.Cache
	ctrl  *Controller
	stats Stats
}

// Option is a functional option for configuring the Platform.
type Option func(*Platform)

// WithRegister presets a controller register before the display starts.
func WithRegister(offset uint64, value uint32) Option {
	return func(p *Platform) {
		p.ctrl.regs[offset] = value
	}
}

// NewPlatform creates a platform whose display is running with the refill
// settings the bring-up firmware leaves behind (threshold 4, refill 4).
func NewPlatform(config Config, opts ...Option) *Platform {
	p := &Platform{
		config:        config,
		cyclesPerTick: config.CyclesPerTick(),
		cache:         cache.New(config.Cache),
	}
	p.ctrl = newController(p)

	for _, opt := range opts {
		opt(p)
	}

	p.ctrl.reload()
	p.ctrl.kick()

	return p
}

// Config returns the platform configuration.
func (p *Platform) Config() Config {
	return p.config
}

// Controller returns the display controller's register bus.
func (p *Platform) Controller() *Controller {
	return p.ctrl
}

// Clock returns the platform timer.
func (p *Platform) Clock() *Clock {
	return &Clock{p: p}
}

// Memory returns the CPU's view of main memory.
func (p *Platform) Memory() *Memory {
	return &Memory{p: p}
}

// Cache returns the CPU data cache model.
func (p *Platform) Cache() *cache.Cache {
	return p.cache
}

// Now returns the current cycle.
func (p *Platform) Now() uint64 {
	return p.now
}

// Stats returns platform statistics.
func (p *Platform) Stats() Stats {
	s := p.stats
	s.Cycles = p.now
	return s
}

// RunCycles advances the simulation by n cycles with the CPU idle.
func (p *Platform) RunCycles(n uint64) {
	p.advance(p.now + n)
}

// advance processes every display event up to and including cycle target.
func (p *Platform) advance(target uint64) {
	for p.now < target {
		next := p.ctrl.nextEvent(target)
		p.now = next
		p.ctrl.step()
	}
}

// grant reserves the memory channel for occupancy cycles starting no earlier
// than the current cycle and returns the cycle the transfer starts.
func (p *Platform) grant(occupancy uint64) uint64 {
	start := p.now
	if p.channelFree > start {
		start = p.channelFree
	}
	p.channelFree = start + occupancy
	return start
}

// read64 performs one CPU load and blocks the CPU until it completes.
func (p *Platform) read64(addr uint64) uint64 {
	p.stats.CPUReads++

	res := p.cache.Read(addr)
	done := p.now + res.Latency
	if !res.Hit {
		words := uint64(p.config.Cache.BlockSize) / stress.WordSize
		start := p.grant(words * p.config.BeatCycles)
		p.stats.CPUWaitCycles += start - p.now
		done = start + res.Latency
	}

	p.advance(done)

	return addr ^ 0x5A5A5A5A5A5A5A5A
}

// Clock is the platform timer. Sleeping advances simulated time.
type Clock struct {
	p *Platform
}

var _ device.Timer = (*Clock)(nil)

// Now returns the current timer tick.
func (c *Clock) Now() uint64 {
	return c.p.now / c.p.cyclesPerTick
}

// SleepUntil advances the simulation to the start of the deadline tick.
func (c *Clock) SleepUntil(deadline uint64) {
	c.p.advance(deadline * c.p.cyclesPerTick)
}

// Freq returns the timer rate in ticks per second.
func (c *Clock) Freq() uint64 {
	return c.p.config.TimerHz()
}

// Memory is the CPU's view of main memory. Reads go through the data cache;
// misses compete with refill bursts for the memory channel.
type Memory struct {
	p *Platform
}

var _ stress.Memory = (*Memory)(nil)

// Read64 loads one word, advancing simulated time by its latency.
func (m *Memory) Read64(addr uint64) uint64 {
	return m.p.read64(addr)
}
