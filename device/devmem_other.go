//go:build !linux

package device

import "fmt"

// DevMem is a physical address window mapped from /dev/mem. It is only
// available on Linux.
type DevMem struct{}

var _ Bus = (*DevMem)(nil)

// OpenDevMem always fails on this platform.
func OpenDevMem(base uint64, size int) (*DevMem, error) {
	return nil, fmt.Errorf("/dev/mem access is not supported on this platform")
}

// Base returns 0.
func (m *DevMem) Base() uint64 { return 0 }

// Size returns 0.
func (m *DevMem) Size() int { return 0 }

// Read32 returns 0.
func (m *DevMem) Read32(offset uint64) uint32 { return 0 }

// Write32 does nothing.
func (m *DevMem) Write32(offset uint64, value uint32) {}

// Read64 returns 0.
func (m *DevMem) Read64(addr uint64) uint64 { return 0 }

// Fence does nothing.
func (m *DevMem) Fence() {}

// Close does nothing.
func (m *DevMem) Close() error { return nil }
