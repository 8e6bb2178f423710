// Package calib implements the automatic refill calibration of the display
// controller's prefetch queue: it sweeps (queue depth, threshold) pairs,
// classifies each one on live hardware, and collects the verdicts in a
// results matrix.
package calib

import "fmt"

// Config is one point of the sweep. The refill amount is derived from the
// queue depth and the threshold and is never chosen independently.
type Config struct {
	Depth     uint32 `json:"depth"`
	Threshold uint32 `json:"threshold"`
}

// RefillAmount returns the number of words fetched per refill burst so that
// a burst triggered at the threshold fills the queue to Depth.
func (c Config) RefillAmount() uint32 {
	return c.Depth - c.Threshold + 1
}

// Validate checks 1 <= Threshold <= Depth.
func (c Config) Validate() error {
	if c.Depth == 0 {
		return fmt.Errorf("depth must be >= 1")
	}
	if c.Threshold == 0 {
		return fmt.Errorf("threshold must be >= 1")
	}
	if c.Threshold > c.Depth {
		return fmt.Errorf("threshold %d exceeds depth %d", c.Threshold, c.Depth)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("(%d,%d)", c.Depth, c.Threshold)
}

// DepthLimit is the largest queue depth a sweep may cover.
const DepthLimit = 1 << 16

// Bounds is the swept region: depths MinDepth..MaxDepth and, for each depth
// d, thresholds MinThreshold..d.
type Bounds struct {
	MinDepth     uint32 `json:"min_depth"`
	MaxDepth     uint32 `json:"max_depth"`
	MinThreshold uint32 `json:"min_threshold"`
}

// Validate checks that the bounds describe a non-empty rectangle.
func (b Bounds) Validate() error {
	if b.MinDepth == 0 {
		return fmt.Errorf("min_depth must be >= 1")
	}
	if b.MinThreshold == 0 {
		return fmt.Errorf("min_threshold must be >= 1")
	}
	if b.MaxDepth < b.MinDepth {
		return fmt.Errorf("max_depth must be >= min_depth")
	}
	if b.MaxDepth > DepthLimit {
		return fmt.Errorf("max_depth must be <= %d", DepthLimit)
	}
	if b.MinThreshold > b.MaxDepth {
		return fmt.Errorf("min_threshold must be <= max_depth")
	}
	return nil
}

// Contains reports whether c lies in the swept triangle.
func (b Bounds) Contains(c Config) bool {
	return c.Depth >= b.MinDepth && c.Depth <= b.MaxDepth &&
		c.Threshold >= b.MinThreshold && c.Threshold <= c.Depth
}

// Configs returns the swept configurations in sweep order: depth ascending,
// then threshold ascending.
func (b Bounds) Configs() []Config {
	var configs []Config
	for d := b.MinDepth; d <= b.MaxDepth; d++ {
		for t := b.MinThreshold; t <= d; t++ {
			configs = append(configs, Config{Depth: d, Threshold: t})
		}
	}
	return configs
}

// Outcome is the fine-grained result of classifying one configuration.
type Outcome uint8

const (
	// Unswept marks a cell that was never classified.
	Unswept Outcome = iota
	// UnstableImmediate: the pipeline underran without any induced load.
	UnstableImmediate
	// UnstableUnderStress: the pipeline held a static frame but underran
	// while the memory channel was saturated.
	UnstableUnderStress
	// StableIdle: no underrun without load; stress was not measured.
	StableIdle
	// StableUnderStress: no underrun, even under load.
	StableUnderStress
)

func (o Outcome) String() string {
	switch o {
	case UnstableImmediate:
		return "failed immediately"
	case UnstableUnderStress:
		return "failed under stress"
	case StableIdle:
		return "stable (idle)"
	case StableUnderStress:
		return "stable"
	default:
		return "unswept"
	}
}

// Class is the coarse tri-state stored in the results matrix.
type Class uint8

const (
	ClassNone Class = iota
	ClassUnstable
	ClassStableIdle
	ClassStableUnderStress
)

func (c Class) String() string {
	switch c {
	case ClassUnstable:
		return "Unstable"
	case ClassStableIdle:
		return "StableIdle"
	case ClassStableUnderStress:
		return "StableUnderStress"
	default:
		return "None"
	}
}

// Verdict is the classification of one configuration. Duration is the
// elapsed stress time in timer ticks and is only meaningful for
// StableUnderStress.
type Verdict struct {
	Outcome  Outcome
	Duration uint64
}

// Class projects the verdict onto the matrix tri-state. Both unstable
// outcomes map to ClassUnstable.
func (v Verdict) Class() Class {
	switch v.Outcome {
	case UnstableImmediate, UnstableUnderStress:
		return ClassUnstable
	case StableIdle:
		return ClassStableIdle
	case StableUnderStress:
		return ClassStableUnderStress
	default:
		return ClassNone
	}
}

// Stable reports whether the configuration survived every check performed.
func (v Verdict) Stable() bool {
	return v.Outcome == StableIdle || v.Outcome == StableUnderStress
}

func (v Verdict) String() string {
	if v.Outcome == StableUnderStress {
		return fmt.Sprintf("%s(%d)", v.Class(), v.Duration)
	}
	if v.Outcome == UnstableImmediate {
		return "Unstable(immediate)"
	}
	if v.Outcome == UnstableUnderStress {
		return "Unstable(under_stress)"
	}
	return v.Class().String()
}
