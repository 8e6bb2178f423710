package calib

import (
	"fmt"

	"github.com/sarchlab/fifocal/device"
)

// Stressor runs a bandwidth workload and returns its elapsed ticks.
type Stressor interface {
	Run(intensity uint) uint64
}

// Params are the timing parameters of one classification.
type Params struct {
	// SettleTicks is the wait after a configuration change before the
	// underrun flag is cleared.
	SettleTicks uint64 `json:"settle_ticks"`
	// ObserveTicks is the idle observation window.
	ObserveTicks uint64 `json:"observe_ticks"`
	// StressIntensity scales the stress workload. Zero skips the stress
	// observation and idle passes are reported as StableIdle.
	StressIntensity uint `json:"stress_intensity"`
}

// Validate checks that the observation window is not empty.
func (p Params) Validate() error {
	if p.ObserveTicks == 0 {
		return fmt.Errorf("observe_ticks must be > 0")
	}
	return nil
}

// Classifier measures the stability of whatever configuration is currently
// applied to the controller.
type Classifier struct {
	params Params
	regs   device.Registers
	timer  device.Timer
	stress Stressor
}

// NewClassifier creates a Classifier. stress may be nil when
// params.StressIntensity is zero.
func NewClassifier(
	params Params,
	regs device.Registers,
	timer device.Timer,
	stress Stressor,
) *Classifier {
	return &Classifier{
		params: params,
		regs:   regs,
		timer:  timer,
		stress: stress,
	}
}

// Params returns the classifier's timing parameters.
func (c *Classifier) Params() Params {
	return c.params
}

// Classify settles, clears the underrun flag, observes the idle pipeline and,
// if it held, observes it again under stress.
func (c *Classifier) Classify() Verdict {
	// Underruns caused by the previous configuration must not leak into
	// this one, so the flag is only cleared after the pipeline re-locked.
	c.sleep(c.params.SettleTicks)
	c.regs.ClearSyncFail()

	c.sleep(c.params.ObserveTicks)
	if c.regs.ReadSyncFail() {
		return Verdict{Outcome: UnstableImmediate}
	}

	if c.params.StressIntensity == 0 || c.stress == nil {
		return Verdict{Outcome: StableIdle}
	}

	start := c.timer.Now()
	c.stress.Run(c.params.StressIntensity)
	elapsed := c.timer.Now() - start

	if c.regs.ReadSyncFail() {
		return Verdict{Outcome: UnstableUnderStress}
	}

	return Verdict{Outcome: StableUnderStress, Duration: elapsed}
}

func (c *Classifier) sleep(ticks uint64) {
	if ticks == 0 {
		return
	}
	c.timer.SleepUntil(c.timer.Now() + ticks)
}
