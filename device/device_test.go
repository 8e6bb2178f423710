package device_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fifocal/device"
)

type access struct {
	op     string
	offset uint64
	value  uint32
}

// recordingBus is an in-memory register file that logs every access.
type recordingBus struct {
	regs map[uint64]uint32
	log  []access
}

func newRecordingBus() *recordingBus {
	return &recordingBus{regs: make(map[uint64]uint32)}
}

func (b *recordingBus) Read32(offset uint64) uint32 {
	b.log = append(b.log, access{op: "read", offset: offset, value: b.regs[offset]})
	return b.regs[offset]
}

func (b *recordingBus) Write32(offset uint64, value uint32) {
	b.log = append(b.log, access{op: "write", offset: offset, value: value})
	b.regs[offset] = value
}

func (b *recordingBus) Fence() {
	b.log = append(b.log, access{op: "fence"})
}

var _ = Describe("Controller", func() {
	var (
		bus  *recordingBus
		ctrl *device.Controller
	)

	BeforeEach(func() {
		bus = newRecordingBus()
		ctrl = device.NewController(bus)
	})

	It("should place registers eight bytes apart", func() {
		Expect(device.RegRefillThreshold).To(Equal(uint64(0x48)))
		Expect(device.RegMaxRefillAmount).To(Equal(uint64(0x50)))
		Expect(device.RegSyncFailHappened).To(Equal(uint64(0x60)))
	})

	It("should write the threshold and refill registers", func() {
		ctrl.WriteThreshold(4)
		ctrl.WriteRefillAmount(7)

		Expect(bus.log).To(Equal([]access{
			{op: "write", offset: device.RegRefillThreshold, value: 4},
			{op: "write", offset: device.RegMaxRefillAmount, value: 7},
		}))
		Expect(ctrl.Threshold()).To(Equal(uint32(4)))
		Expect(ctrl.RefillAmount()).To(Equal(uint32(7)))
	})

	It("should fence before reading the sync fail flag", func() {
		bus.regs[device.RegSyncFailHappened] = 1

		Expect(ctrl.ReadSyncFail()).To(BeTrue())
		Expect(bus.log).To(Equal([]access{
			{op: "fence"},
			{op: "read", offset: device.RegSyncFailHappened, value: 1},
		}))
	})

	It("should treat any non-zero flag value as set", func() {
		bus.regs[device.RegSyncFailHappened] = 0x80000000
		Expect(ctrl.ReadSyncFail()).To(BeTrue())

		bus.regs[device.RegSyncFailHappened] = 0
		Expect(ctrl.ReadSyncFail()).To(BeFalse())
	})

	It("should clear the flag with a write followed by a fence", func() {
		ctrl.ClearSyncFail()

		Expect(bus.log).To(Equal([]access{
			{op: "write", offset: device.RegSyncFailHappened, value: 0},
			{op: "fence"},
		}))
	})
})

var _ = Describe("HostClock", func() {
	It("should start near zero", func() {
		c := device.NewHostClock(1000)

		Expect(c.Freq()).To(Equal(uint64(1000)))
		Expect(c.Now()).To(BeNumerically("<", 100))
	})

	It("should never return early from SleepUntil", func() {
		c := device.NewHostClock(1000)
		deadline := c.Now() + 20

		start := time.Now()
		c.SleepUntil(deadline)

		Expect(c.Now()).To(BeNumerically(">=", deadline))
		Expect(time.Since(start)).To(BeNumerically(">=", 19*time.Millisecond))
	})

	It("should return at once for a past deadline", func() {
		c := device.NewHostClock(1000000)

		start := time.Now()
		c.SleepUntil(0)

		Expect(time.Since(start)).To(BeNumerically("<", 50*time.Millisecond))
	})

	It("should treat a zero frequency as one tick per second", func() {
		Expect(device.NewHostClock(0).Freq()).To(Equal(uint64(1)))
	})
})
