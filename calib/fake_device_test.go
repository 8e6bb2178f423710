package calib_test

import (
	"github.com/sarchlab/fifocal/calib"
)

// regWrite is one register write seen by fakeDevice.
type regWrite struct {
	reg   string
	value uint32
}

// fakeDevice is a controller, timer and stress workload in one. Whether the
// pipeline underruns is looked up per configuration, so the answers do not
// depend on the order configurations are applied in.
type fakeDevice struct {
	writes []regWrite

	threshold uint32
	refill    uint32
	flag      bool

	// failIdle reports configurations that underrun without load.
	failIdle func(calib.Config) bool
	// failStress reports configurations that underrun under load.
	failStress func(calib.Config) bool

	now        uint64
	stressRuns int
	clears     int
	reads      int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		failIdle:   func(calib.Config) bool { return false },
		failStress: func(calib.Config) bool { return false },
	}
}

func (d *fakeDevice) current() calib.Config {
	return calib.Config{
		Depth:     d.threshold + d.refill - 1,
		Threshold: d.threshold,
	}
}

func (d *fakeDevice) WriteThreshold(value uint32) {
	d.writes = append(d.writes, regWrite{reg: "threshold", value: value})
	d.threshold = value
}

func (d *fakeDevice) WriteRefillAmount(value uint32) {
	d.writes = append(d.writes, regWrite{reg: "refill", value: value})
	d.refill = value
}

func (d *fakeDevice) ReadSyncFail() bool {
	d.reads++
	return d.flag
}

func (d *fakeDevice) ClearSyncFail() {
	d.clears++
	d.flag = false
}

func (d *fakeDevice) Now() uint64 {
	return d.now
}

func (d *fakeDevice) SleepUntil(deadline uint64) {
	if deadline > d.now {
		d.now = deadline
	}
	if d.failIdle(d.current()) {
		d.flag = true
	}
}

// Run takes 100 ticks plus one per word of queue depth.
func (d *fakeDevice) Run(intensity uint) uint64 {
	d.stressRuns++
	elapsed := 100 + uint64(d.current().Depth)
	d.now += elapsed
	if d.failStress(d.current()) {
		d.flag = true
	}
	return elapsed
}

func newEngine(d *fakeDevice, params calib.Params, opts ...calib.SweeperOption) *calib.Sweeper {
	classifier := calib.NewClassifier(params, d, d, d)
	return calib.NewSweeper(d, classifier, opts...)
}

func defaultParams() calib.Params {
	return calib.Params{
		SettleTicks:     17,
		ObserveTicks:    68,
		StressIntensity: 1,
	}
}
