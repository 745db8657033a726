// Package dram implements the interpreter's backing memory: a fixed-size,
// byte-addressed array mapped at a constant guest base address.
package dram

const (
	// Base is the fixed guest address at which DRAM begins.
	Base = 0x8000_0000

	// Size is the size of DRAM in bytes (128 MiB).
	Size = 128 * 1024 * 1024

	// End is the last valid DRAM address (inclusive).
	End = Base + Size - 1
)

// DRAM is a contiguous byte array addressed starting at Base. Byte address
// A maps to index A-Base. Unwritten regions read as zero. The length never
// changes after construction.
type DRAM struct {
	mem []byte
}

// New creates a DRAM instance with the guest image copied in starting at
// guest address Base (i.e. at offset 0 in the backing array).
func New(image []byte) *DRAM {
	mem := make([]byte, Size)
	copy(mem, image)
	return &DRAM{mem: mem}
}

// Load reads size/8 consecutive bytes starting at addr-Base and assembles
// them little-endian into the low bits of a 64-bit word; the high bits are
// zero. size must be one of 8, 16, 32, 64. Bounds are not checked here:
// the caller (the bus) owns range enforcement.
func (d *DRAM) Load(addr uint64, size uint64) uint64 {
	index := addr - Base
	var value uint64
	nbytes := size / 8
	for i := uint64(0); i < nbytes; i++ {
		value |= uint64(d.mem[index+i]) << (8 * i)
	}
	return value
}

// Store writes the low size/8 bytes of value, little-endian, starting at
// addr-Base. size must be one of 8, 16, 32, 64.
func (d *DRAM) Store(addr uint64, size uint64, value uint64) {
	index := addr - Base
	nbytes := size / 8
	for i := uint64(0); i < nbytes; i++ {
		d.mem[index+i] = byte(value >> (8 * i))
	}
}
