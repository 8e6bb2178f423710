package calib

import (
	"fmt"

	"github.com/sarchlab/fifocal/device"
)

// CellClassifier classifies the configuration currently applied to the
// controller.
type CellClassifier interface {
	Classify() Verdict
}

// Cell is one classified configuration, as handed to an Observer.
type Cell struct {
	Config  Config
	Verdict Verdict
}

// Observer is notified after each cell has been stored.
type Observer func(Cell)

// Sweeper drives the configuration sweep.
type Sweeper struct {
	regs       device.Registers
	classifier CellClassifier
	observer   Observer
	restore    *Config
}

// SweeperOption is a functional option for configuring the Sweeper.
type SweeperOption func(*Sweeper)

// WithObserver streams every classified cell to fn.
func WithObserver(fn Observer) SweeperOption {
	return func(s *Sweeper) {
		s.observer = fn
	}
}

// WithRestore applies c once the sweep has finished.
func WithRestore(c Config) SweeperOption {
	return func(s *Sweeper) {
		s.restore = &c
	}
}

// NewSweeper creates a Sweeper applying configurations through regs and
// measuring them with classifier.
func NewSweeper(
	regs device.Registers,
	classifier CellClassifier,
	opts ...SweeperOption,
) *Sweeper {
	s := &Sweeper{
		regs:       regs,
		classifier: classifier,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Apply writes c to the controller. The threshold is written before the
// refill amount so that the controller never sees a refill amount larger than
// the queue depth being configured.
func (s *Sweeper) Apply(c Config) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration %s: %w", c, err)
	}

	s.regs.WriteThreshold(c.Threshold)
	s.regs.WriteRefillAmount(c.RefillAmount())
	return nil
}

// Sweep classifies every configuration in bounds, depth-major, and returns
// the filled matrix.
func (s *Sweeper) Sweep(bounds Bounds) (*Matrix, error) {
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep bounds: %w", err)
	}
	return s.SweepOrder(bounds, bounds.Configs())
}

// SweepOrder classifies the configurations in the given order. Every
// configuration must lie inside bounds and appear at most once; nothing is
// written to the controller otherwise.
func (s *Sweeper) SweepOrder(bounds Bounds, order []Config) (*Matrix, error) {
	m, err := NewMatrix(bounds)
	if err != nil {
		return nil, err
	}

	seen := make(map[Config]bool, len(order))
	for _, c := range order {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration %s: %w", c, err)
		}
		if !bounds.Contains(c) {
			return nil, fmt.Errorf("configuration %s is outside the swept region", c)
		}
		if seen[c] {
			return nil, fmt.Errorf("configuration %s appears twice", c)
		}
		seen[c] = true
	}

	if s.restore != nil {
		if err := s.restore.Validate(); err != nil {
			return nil, fmt.Errorf("invalid baseline %s: %w", *s.restore, err)
		}
	}

	for _, c := range order {
		if err := s.Apply(c); err != nil {
			return nil, err
		}

		v := s.classifier.Classify()
		if err := m.Set(c, v); err != nil {
			return nil, err
		}

		if s.observer != nil {
			s.observer(Cell{Config: c, Verdict: v})
		}
	}

	if s.restore != nil {
		s.regs.WriteThreshold(s.restore.Threshold)
		s.regs.WriteRefillAmount(s.restore.RefillAmount())
	}

	return m, nil
}
