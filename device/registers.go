// Package device provides access to the AXI2HDMI display controller's
// command interface and to the platform timer.
package device

// DefaultBase is the physical address of the controller's command interface.
const DefaultBase uint64 = 0x0300A000

// RegisterStride is the distance between two command interface registers.
const RegisterStride uint64 = 8

// Command interface register offsets, relative to the controller base.
const (
	RegPointerQueue      = 0 * RegisterStride
	RegHVTotal           = 1 * RegisterStride
	RegHVActive          = 2 * RegisterStride
	RegHVFront           = 3 * RegisterStride
	RegHVSync            = 4 * RegisterStride
	RegPower             = 5 * RegisterStride
	RegCurrentPointer    = 6 * RegisterStride
	RegTextBufferParams  = 7 * RegisterStride
	RegCursorFontParams  = 8 * RegisterStride
	RegRefillThreshold   = 9 * RegisterStride
	RegMaxRefillAmount   = 10 * RegisterStride
	RegPixelFormat       = 11 * RegisterStride
	RegSyncFailHappened  = 12 * RegisterStride
	RegForegroundPalette = 0x400
	RegBackgroundPalette = 0x800
)

// WindowSize is the size of the register window that has to be mapped to
// reach every command interface register and both palettes.
const WindowSize = 0x1000

// Bus is a 32-bit memory-mapped register bus.
type Bus interface {
	// Read32 reads the register at the given offset.
	Read32(offset uint64) uint32
	// Write32 writes the register at the given offset.
	Write32(offset uint64, value uint32)
	// Fence orders all prior accesses before any later access.
	Fence()
}

// Registers is the part of the controller the calibration engine drives.
type Registers interface {
	WriteThreshold(value uint32)
	WriteRefillAmount(value uint32)
	ReadSyncFail() bool
	ClearSyncFail()
}

// Timer is a coarse monotonic tick source.
type Timer interface {
	// Now returns the current tick count.
	Now() uint64
	// SleepUntil blocks until Now() >= deadline. It may return late but
	// never early.
	SleepUntil(deadline uint64)
}

// Controller drives the refill queue registers of one display controller.
type Controller struct {
	bus Bus
}

var _ Registers = (*Controller)(nil)

// NewController creates a Controller on top of a register bus whose offset 0
// is the controller base.
func NewController(bus Bus) *Controller {
	return &Controller{bus: bus}
}

// WriteThreshold sets the fill level at which a refill burst is triggered.
func (c *Controller) WriteThreshold(value uint32) {
	c.bus.Write32(RegRefillThreshold, value)
}

// WriteRefillAmount sets the number of words fetched per refill burst.
func (c *Controller) WriteRefillAmount(value uint32) {
	c.bus.Write32(RegMaxRefillAmount, value)
}

// ReadSyncFail reports whether the display pipeline has underrun since the
// flag was last cleared.
func (c *Controller) ReadSyncFail() bool {
	c.bus.Fence()
	return c.bus.Read32(RegSyncFailHappened) != 0
}

// ClearSyncFail resets the underrun flag.
func (c *Controller) ClearSyncFail() {
	c.bus.Write32(RegSyncFailHappened, 0)
	c.bus.Fence()
}

// Threshold reads back the refill threshold register.
func (c *Controller) Threshold() uint32 {
	return c.bus.Read32(RegRefillThreshold)
}

// RefillAmount reads back the max refill amount register.
func (c *Controller) RefillAmount() uint32 {
	return c.bus.Read32(RegMaxRefillAmount)
}
