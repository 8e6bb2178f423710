// Package stress saturates memory bandwidth so that the display controller's
// refill queue has to compete for the memory channel.
package stress

import "github.com/sarchlab/fifocal/device"

// DefaultBase is the start of the region read by the workload. It is the
// frame buffer region used by the bring-up firmware.
const DefaultBase uint64 = 0x81000000

// DefaultWordsPerUnit is the number of 64-bit reads per unit of intensity.
const DefaultWordsPerUnit uint64 = 0x10000

// WordSize is the size in bytes of one read.
const WordSize uint64 = 8

// Memory is a source of 64-bit reads.
type Memory interface {
	Read64(addr uint64) uint64
}

// Config describes the region swept by the workload.
type Config struct {
	// Base is the address of the first read.
	Base uint64 `json:"base"`
	// WordsPerUnit is the number of reads issued per unit of intensity.
	WordsPerUnit uint64 `json:"words_per_unit"`
}

// DefaultConfig returns the region used by the bring-up firmware.
func DefaultConfig() Config {
	return Config{
		Base:         DefaultBase,
		WordsPerUnit: DefaultWordsPerUnit,
	}
}

// Reads returns the number of reads Run issues for the given intensity.
func (c Config) Reads(intensity uint) uint64 {
	return uint64(intensity) * c.WordsPerUnit
}

// Span returns the number of bytes Run touches for the given intensity.
func (c Config) Span(intensity uint) uint64 {
	return c.Reads(intensity) * WordSize
}

// Generator runs the bandwidth workload.
type Generator struct {
	config Config
	memory Memory
	timer  device.Timer

	// sink keeps the loads observable so they cannot be optimised away.
	sink uint64
	runs uint64
}

// NewGenerator creates a workload generator reading from memory and timing
// itself with timer.
func NewGenerator(config Config, memory Memory, timer device.Timer) *Generator {
	return &Generator{
		config: config,
		memory: memory,
		timer:  timer,
	}
}

// Config returns the generator's region configuration.
func (g *Generator) Config() Config {
	return g.config
}

// Run issues intensity*WordsPerUnit sequential reads and returns the elapsed
// timer ticks.
func (g *Generator) Run(intensity uint) uint64 {
	g.runs++

	start := g.timer.Now()

	addr := g.config.Base
	n := g.config.Reads(intensity)
	for i := uint64(0); i < n; i++ {
		g.sink ^= g.memory.Read64(addr)
		addr += WordSize
	}

	return g.timer.Now() - start
}

// Runs returns the number of times Run has been called.
func (g *Generator) Runs() uint64 {
	return g.runs
}
