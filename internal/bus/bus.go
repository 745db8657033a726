// Package bus implements the interpreter's address-range router: it forwards
// in-range accesses to DRAM and turns out-of-range accesses into
// architectural exceptions. There is no caching, no ordering, and no
// memory-mapped devices.
package bus

import (
	"github.com/bassosimone/rv64i/internal/dram"
	"github.com/bassosimone/rv64i/internal/exception"
)

// Bus routes sized loads and stores to DRAM, or fails with an access-fault
// exception when the address falls outside DRAM's range.
type Bus struct {
	dram *dram.DRAM
}

// New creates a Bus wrapping a freshly constructed DRAM loaded with image.
func New(image []byte) *Bus {
	return &Bus{dram: dram.New(image)}
}

// inRange reports whether the whole access [addr, addr+size/8-1] falls
// within DRAM, and the address of the first out-of-range byte otherwise.
func inRange(addr, size uint64) (firstOutOfRange uint64, ok bool) {
	if addr < dram.Base {
		return addr, false
	}
	end := addr + size/8 - 1
	if end > dram.End || end < addr /* overflow */ {
		if addr > dram.End {
			return addr, false
		}
		return dram.End + 1, false
	}
	return 0, true
}

// Load reads a size-bit (8/16/32/64) value at addr. Any byte of the access
// falling outside DRAM causes a LoadAccessFault naming the first
// out-of-range byte.
func (b *Bus) Load(addr uint64, size uint64) (uint64, exception.Exception) {
	if bad, ok := inRange(addr, size); !ok {
		return 0, exception.LoadAccessFault{Address: bad}
	}
	return b.dram.Load(addr, size), nil
}

// Store writes the low size bits of value at addr. Any byte of the access
// falling outside DRAM causes a StoreAMOAccessFault naming the first
// out-of-range byte.
func (b *Bus) Store(addr uint64, size uint64, value uint64) exception.Exception {
	if bad, ok := inRange(addr, size); !ok {
		return exception.StoreAMOAccessFault{Address: bad}
	}
	b.dram.Store(addr, size, value)
	return nil
}
