//go:build linux

package device

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

var fenceWord uint32

// DevMem is a physical address window mapped from /dev/mem.
type DevMem struct {
	base uint64
	mem  []byte
}

var _ Bus = (*DevMem)(nil)

// OpenDevMem maps size bytes of physical memory starting at base. base must
// be page aligned.
func OpenDevMem(base uint64, size int) (*DevMem, error) {
	if base%uint64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("base 0x%X is not page aligned", base)
	}

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/mem: %w", err)
	}
	defer func() { _ = f.Close() }()

	mem, err := unix.Mmap(int(f.Fd()), int64(base), size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map 0x%X+0x%X: %w", base, size, err)
	}

	return &DevMem{base: base, mem: mem}, nil
}

// Base returns the physical address of offset 0.
func (m *DevMem) Base() uint64 {
	return m.base
}

// Size returns the size of the mapping in bytes.
func (m *DevMem) Size() int {
	return len(m.mem)
}

// Read32 reads a 32-bit register.
func (m *DevMem) Read32(offset uint64) uint32 {
	return atomic.LoadUint32((*uint32)(m.ptr(offset, 4)))
}

// Write32 writes a 32-bit register.
func (m *DevMem) Write32(offset uint64, value uint32) {
	atomic.StoreUint32((*uint32)(m.ptr(offset, 4)), value)
}

// Read64 reads a 64-bit word.
func (m *DevMem) Read64(addr uint64) uint64 {
	return atomic.LoadUint64((*uint64)(m.ptr(addr-m.base, 8)))
}

// Fence orders prior accesses to the mapping before later ones. Go's atomic
// read-modify-write operations are sequentially consistent and compile to a
// full barrier on every supported architecture.
func (m *DevMem) Fence() {
	atomic.AddUint32(&fenceWord, 1)
}

// Close unmaps the window.
func (m *DevMem) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	if err != nil {
		return fmt.Errorf("failed to unmap 0x%X: %w", m.base, err)
	}
	return nil
}

func (m *DevMem) ptr(offset uint64, size int) unsafe.Pointer {
	if offset+uint64(size) > uint64(len(m.mem)) || offset%uint64(size) != 0 {
		panic(fmt.Sprintf("devmem: access 0x%X+%d outside window of 0x%X bytes",
			offset, size, len(m.mem)))
	}
	return unsafe.Pointer(&m.mem[offset])
}
