package sim

import "github.com/sarchlab/fifocal/device"

// Register values the bring-up firmware programs for 640x480@60.
const (
	bringUpHVTotal     = (800 << 16) + 525
	bringUpHVActive    = (640 << 16) + 480
	bringUpHVFront     = (16 << 16) + 10
	bringUpHVSync      = ((96 << 16) + 2) | (1 << 31) | (1 << 15)
	bringUpPixelFormat = 0x08080803
	bringUpThreshold   = 4
	bringUpRefill      = 4
	powerEnable        = 1
)

// Controller is the simulated display controller. It exposes the command
// interface as a register bus and models the refill queue in front of the
// pixel pipeline.
type Controller struct {
	p    *Platform
	regs map[uint64]uint32

	enabled   bool
	threshold uint32
	refill    uint32

	fill      uint32
	nextDrain uint64

	inflight   bool
	burstWords uint32
	burstDone  uint64

	syncFail bool
}

var _ device.Bus = (*Controller)(nil)

func newController(p *Platform) *Controller {
	return &Controller{
		p: p,
		regs: map[uint64]uint32{
			device.RegHVTotal:         bringUpHVTotal,
			device.RegHVActive:        bringUpHVActive,
			device.RegHVFront:         bringUpHVFront,
			device.RegHVSync:          bringUpHVSync,
			device.RegPixelFormat:     bringUpPixelFormat,
			device.RegRefillThreshold: bringUpThreshold,
			device.RegMaxRefillAmount: bringUpRefill,
			device.RegPower:           powerEnable,
		},
	}
}

// Read32 reads a command interface register.
func (c *Controller) Read32(offset uint64) uint32 {
	switch offset {
	case device.RegSyncFailHappened:
		if c.syncFail {
			return 1
		}
		return 0
	case device.RegCurrentPointer:
		return c.regs[device.RegPointerQueue]
	default:
		return c.regs[offset]
	}
}

// Write32 writes a command interface register. Any write to the sync fail
// register clears the flag.
func (c *Controller) Write32(offset uint64, value uint32) {
	if offset == device.RegSyncFailHappened {
		c.syncFail = false
		return
	}

	c.regs[offset] = value
	c.reload()
	c.kick()
}

// Fence is a no-op apart from being counted; the model has no write buffer.
func (c *Controller) Fence() {
	c.p.stats.Fences++
}

// SyncFail reports the underrun flag without going through the bus.
func (c *Controller) SyncFail() bool {
	return c.syncFail
}

// Fill returns the number of words currently queued.
func (c *Controller) Fill() uint32 {
	return c.fill
}

// reload latches the register file into the queue model.
func (c *Controller) reload() {
	wasEnabled := c.enabled

	c.enabled = c.regs[device.RegPower]&powerEnable != 0
	c.threshold = c.regs[device.RegRefillThreshold]
	c.refill = c.regs[device.RegMaxRefillAmount]

	if c.enabled && !wasEnabled {
		c.nextDrain = c.p.now + c.p.config.WordPeriod
	}
}

// nextEvent returns the earliest of target, the next drain and the arrival
// of the outstanding burst.
func (c *Controller) nextEvent(target uint64) uint64 {
	next := target
	if c.enabled && c.nextDrain < next {
		next = c.nextDrain
	}
	if c.inflight && c.burstDone < next {
		next = c.burstDone
	}
	return next
}

// step handles the events due at the current cycle. A burst landing in the
// same cycle as a drain is counted first.
func (c *Controller) step() {
	now := c.p.now

	if c.inflight && now >= c.burstDone {
		c.land()
	}

	if c.enabled && now >= c.nextDrain {
		c.drain()
		c.nextDrain += c.p.config.WordPeriod
	}

	c.kick()
}

func (c *Controller) land() {
	c.inflight = false

	room := c.p.config.QueueCapacity - c.fill
	if c.burstWords > room {
		c.p.stats.Overflows++
		c.syncFail = true
		c.fill = c.p.config.QueueCapacity
		return
	}
	c.fill += c.burstWords
}

func (c *Controller) drain() {
	if c.fill == 0 {
		c.p.stats.Underruns++
		c.syncFail = true
		return
	}
	c.fill--
	c.p.stats.WordsDrained++
}

// kick issues a refill burst once the queue has dropped below the threshold.
// Only one burst is outstanding at a time.
func (c *Controller) kick() {
	if !c.enabled || c.inflight || c.refill == 0 || c.fill >= c.threshold {
		return
	}

	occupancy := uint64(c.refill) * c.p.config.BeatCycles
	start := c.p.grant(occupancy)

	c.p.stats.Bursts++
	c.p.stats.BurstWaitCycles += start - c.p.now

	c.inflight = true
	c.burstWords = c.refill
	c.burstDone = start + c.p.config.RefillLatency + occupancy
}
