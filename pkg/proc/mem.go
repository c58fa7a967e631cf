package proc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// MemoryReader is like io.ReaderAt, but the offset is a uint64 so that it
// can address all of the target's address space.
type MemoryReader interface {
	// ReadMemory is just like io.ReaderAt.ReadAt.
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// ErrMemoryNotMapped is returned for reads of addresses no region covers.
var ErrMemoryNotMapped = errors.New("memory not mapped")

// readUintRaw reads an unsigned integer of size bytes from the target's
// memory.
func readUintRaw(mem MemoryReader, addr uint64, size int, order binary.ByteOrder) (uint64, error) {
	buf := make([]byte, size)
	if _, err := mem.ReadMemory(buf, addr); err != nil {
		return 0, err
	}
	switch size {
	case 2:
		return uint64(order.Uint16(buf)), nil
	case 4:
		return uint64(order.Uint32(buf)), nil
	case 8:
		return order.Uint64(buf), nil
	}
	return 0, fmt.Errorf("invalid integer size %d", size)
}

type memoryRegion struct {
	addr uint64
	data []byte
}

// RegionMemory exposes a set of byte slices as target memory, each mapped
// at a fixed address. Reads of unmapped addresses fail with
// ErrMemoryNotMapped.
type RegionMemory struct {
	regions []memoryRegion
}

// AddRegion maps data at addr.
func (m *RegionMemory) AddRegion(addr uint64, data []byte) {
	m.regions = append(m.regions, memoryRegion{addr, data})
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].addr < m.regions[j].addr })
}

// ReadMemory implements MemoryReader.
func (m *RegionMemory) ReadMemory(buf []byte, addr uint64) (int, error) {
	for _, region := range m.regions {
		if addr >= region.addr && addr+uint64(len(buf)) <= region.addr+uint64(len(region.data)) {
			copy(buf, region.data[addr-region.addr:])
			return len(buf), nil
		}
	}
	return 0, ErrMemoryNotMapped
}
