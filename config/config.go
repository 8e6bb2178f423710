// Package config holds the settings of a calibration run: sweep bounds,
// classifier timing, stress workload region, device addresses and the
// simulated platform.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/fifocal/calib"
	"github.com/sarchlab/fifocal/device"
	"github.com/sarchlab/fifocal/sim"
	"github.com/sarchlab/fifocal/stress"
)

// DeviceConfig locates the hardware on the real platform.
type DeviceConfig struct {
	// Base is the physical address of the controller's command interface.
	Base uint64 `json:"base"`

	// TimerFreq is the platform timer rate in ticks per second.
	TimerFreq uint64 `json:"timer_freq"`
}

// Config holds all settings of a calibration run.
type Config struct {
	// Sweep is the swept (depth, threshold) region.
	Sweep calib.Bounds `json:"sweep"`

	// Classifier holds the settle/observe windows and stress intensity.
	Classifier calib.Params `json:"classifier"`

	// Stress is the region read by the stress workload.
	Stress stress.Config `json:"stress"`

	// Baseline is applied once the sweep has finished. Nil leaves the last
	// swept configuration in place.
	Baseline *calib.Config `json:"baseline,omitempty"`

	// Device locates the controller and timer on real hardware.
	Device DeviceConfig `json:"device"`

	// Sim configures the simulated platform.
	Sim sim.Config `json:"sim"`
}

// One frame of 640x480@60 at the 1MHz platform timer.
const frameTicks = 17000

// DefaultConfig returns the settings used on hardware: a full 1..31 sweep,
// one frame of settling, four frames of idle observation and the firmware's
// stress intensity of 0x80.
func DefaultConfig() *Config {
	return &Config{
		Sweep: calib.Bounds{
			MinDepth:     1,
			MaxDepth:     31,
			MinThreshold: 1,
		},
		Classifier: calib.Params{
			SettleTicks:     frameTicks,
			ObserveTicks:    4 * frameTicks,
			StressIntensity: 0x80,
		},
		Stress: stress.DefaultConfig(),
		Baseline: &calib.Config{
			Depth:     7,
			Threshold: 4,
		},
		Device: DeviceConfig{
			Base:      device.DefaultBase,
			TimerFreq: 1000000,
		},
		Sim: sim.DefaultConfig(),
	}
}

// SimulationConfig returns settings scaled down for the simulated platform,
// where every stress read and every drained word is an event.
func SimulationConfig() *Config {
	c := DefaultConfig()
	c.Classifier = calib.Params{
		SettleTicks:     200,
		ObserveTicks:    400,
		StressIntensity: 1,
	}
	c.Stress.WordsPerUnit = 0x4000
	return c
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if c.Classifier.StressIntensity > 0 && c.Stress.WordsPerUnit == 0 {
		return fmt.Errorf("stress: words_per_unit must be > 0")
	}
	if c.Stress.Base%stress.WordSize != 0 {
		return fmt.Errorf("stress: base must be 8-byte aligned")
	}
	if c.Baseline != nil {
		if err := c.Baseline.Validate(); err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
	}
	if c.Device.TimerFreq == 0 {
		return fmt.Errorf("device: timer_freq must be > 0")
	}
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Baseline != nil {
		baseline := *c.Baseline
		clone.Baseline = &baseline
	}
	return &clone
}
