// Command fifocal sweeps the refill queue settings of the AXI2HDMI display
// controller and prints the stability matrix.
//
// Usage:
//
//	go run ./cmd/fifocal [flags]
//
// Flags:
//
//	-config       Path to a JSON configuration file
//	-devmem       Drive the real controller through /dev/mem instead of the simulator
//	-dump-config  Write the effective configuration to a JSON file and exit
//	-cpuprofile   Write a CPU profile of the run to a file
//	-memprofile   Write a heap profile to a file after the run
//	-v            Verbose output on stderr
//
// The report goes to stdout as ';'-delimited, CRLF-terminated lines, the same
// format the firmware prints on its UART.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/google/uuid"

	"github.com/sarchlab/fifocal/calib"
	"github.com/sarchlab/fifocal/config"
	"github.com/sarchlab/fifocal/device"
	"github.com/sarchlab/fifocal/report"
	"github.com/sarchlab/fifocal/sim"
	"github.com/sarchlab/fifocal/stress"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// backend is the platform the sweep runs on.
type backend struct {
	bus       device.Bus
	timer     device.Timer
	memory    stress.Memory
	timerFreq uint64

	platform *sim.Platform
	closers  []io.Closer
}

func (b *backend) Close() {
	for _, c := range b.closers {
		_ = c.Close()
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("fifocal", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to JSON configuration file")
	devmem := flags.Bool("devmem", false, "Drive the real controller through /dev/mem")
	dumpPath := flags.String("dump-config", "", "Write the effective configuration to a JSON file and exit")
	cpuProfile := flags.String("cpuprofile", "", "Write a CPU profile to file")
	memProfile := flags.String("memprofile", "", "Write a heap profile to file")
	verbose := flags.Bool("v", false, "Verbose output")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath, *devmem)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config: %v\n", err)
		return 1
	}

	if *dumpPath != "" {
		if err := cfg.SaveConfig(*dumpPath); err != nil {
			fmt.Fprintf(stderr, "Error writing config: %v\n", err)
			return 1
		}
		return 0
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Error creating CPU profile: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	var b *backend
	if *devmem {
		b, err = openDevMem(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Error opening device: %v\n", err)
			return 1
		}
	} else {
		b = openSim(cfg)
	}
	defer b.Close()

	runID := uuid.New()
	if *verbose {
		fmt.Fprintf(stderr, "Run: %s\n", runID)
		fmt.Fprintf(stderr, "Backend: %s\n", backendName(*devmem))
		fmt.Fprintf(stderr, "Sweep: depth %d..%d, threshold >= %d\n",
			cfg.Sweep.MinDepth, cfg.Sweep.MaxDepth, cfg.Sweep.MinThreshold)
		fmt.Fprintf(stderr, "Settle: %d ticks, observe: %d ticks, stress intensity: %d\n",
			cfg.Classifier.SettleTicks, cfg.Classifier.ObserveTicks, cfg.Classifier.StressIntensity)
	}

	ctrl := device.NewController(b.bus)
	gen := stress.NewGenerator(cfg.Stress, b.memory, b.timer)
	classifier := calib.NewClassifier(cfg.Classifier, ctrl, b.timer, gen)

	w := report.NewWriter(stdout, b.timerFreq)
	w.Line("Run = " + runID.String())

	opts := []calib.SweeperOption{calib.WithObserver(w.Cell)}
	if cfg.Baseline != nil {
		opts = append(opts, calib.WithRestore(*cfg.Baseline))
	}
	sweeper := calib.NewSweeper(ctrl, classifier, opts...)

	start := time.Now()
	m, err := sweeper.Sweep(cfg.Sweep)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	elapsed := time.Since(start)

	w.Matrix(m)
	w.Done()
	if err := w.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *memProfile != "" {
		if err := writeHeapProfile(*memProfile); err != nil {
			fmt.Fprintf(stderr, "Error writing memory profile: %v\n", err)
			return 1
		}
	}

	if *verbose {
		printSummary(stderr, m, gen, ctrl, b)
		fmt.Fprintf(stderr, "Elapsed time: %v\n", elapsed)
		if b.platform != nil && elapsed > 0 {
			fmt.Fprintf(stderr, "Simulated cycles/second: %.0f\n",
				float64(b.platform.Now())/elapsed.Seconds())
		}
	}

	return 0
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return pprof.WriteHeapProfile(f)
}

func loadConfig(path string, devmem bool) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if devmem {
		return config.DefaultConfig(), nil
	}
	return config.SimulationConfig(), nil
}

func backendName(devmem bool) string {
	if devmem {
		return "/dev/mem"
	}
	return "simulator"
}

func openSim(cfg *config.Config) *backend {
	p := sim.NewPlatform(cfg.Sim)
	return &backend{
		bus:       p.Controller(),
		timer:     p.Clock(),
		memory:    p.Memory(),
		timerFreq: cfg.Sim.TimerHz(),
		platform:  p,
	}
}

func openDevMem(cfg *config.Config) (*backend, error) {
	regs, err := device.OpenDevMem(cfg.Device.Base, device.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("register window: %w", err)
	}

	b := &backend{
		bus:       regs,
		timer:     device.NewHostClock(cfg.Device.TimerFreq),
		timerFreq: cfg.Device.TimerFreq,
		closers:   []io.Closer{regs},
	}

	span := cfg.Stress.Span(cfg.Classifier.StressIntensity)
	if span == 0 {
		return b, nil
	}

	page := uint64(os.Getpagesize())
	size := (span + page - 1) / page * page
	ram, err := device.OpenDevMem(cfg.Stress.Base, int(size))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("stress window: %w", err)
	}
	b.memory = ram
	b.closers = append(b.closers, ram)

	return b, nil
}

func printSummary(
	out io.Writer,
	m *calib.Matrix,
	gen *stress.Generator,
	ctrl *device.Controller,
	b *backend,
) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Cells classified: %d\n", m.Populated())
	fmt.Fprintf(out, "  Failed immediately:  %d\n", m.Count(calib.UnstableImmediate))
	fmt.Fprintf(out, "  Failed under stress: %d\n", m.Count(calib.UnstableUnderStress))
	fmt.Fprintf(out, "  Stable (idle):       %d\n", m.Count(calib.StableIdle))
	fmt.Fprintf(out, "  Stable:              %d\n", m.Count(calib.StableUnderStress))
	fmt.Fprintf(out, "Stress runs: %d\n", gen.Runs())
	fmt.Fprintf(out, "Final threshold: %d, refill amount: %d\n",
		ctrl.Threshold(), ctrl.RefillAmount())

	if b.platform == nil {
		return
	}

	stats := b.platform.Stats()
	cacheStats := b.platform.Cache().Stats()
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Simulated cycles: %d\n", stats.Cycles)
	fmt.Fprintf(out, "  Words drained:  %d\n", stats.WordsDrained)
	fmt.Fprintf(out, "  Underruns:      %d\n", stats.Underruns)
	fmt.Fprintf(out, "  Overflows:      %d\n", stats.Overflows)
	fmt.Fprintf(out, "  Bursts:         %d (waited %d cycles)\n", stats.Bursts, stats.BurstWaitCycles)
	fmt.Fprintf(out, "  CPU reads:      %d (waited %d cycles)\n", stats.CPUReads, stats.CPUWaitCycles)
	fmt.Fprintf(out, "  Fences:         %d\n", stats.Fences)
	fmt.Fprintf(out, "Cache: %d reads, %d hits, %d misses, %d evictions\n",
		cacheStats.Reads, cacheStats.Hits, cacheStats.Misses, cacheStats.Evictions)
}
