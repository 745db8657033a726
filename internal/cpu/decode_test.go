package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImmIPositiveAndNegative(t *testing.T) {
	// addi x1, x0, 0x34 -> imm = 0x34
	insn := uint32(0x34)<<20 | 0<<15 | 0<<12 | 1<<7 | opOpImm
	require.Equal(t, uint64(0x34), immI(insn))

	// imm = -1 (all ones in the 12-bit field)
	insn = uint32(0xfff)<<20 | 0<<15 | 0<<12 | 1<<7 | opOpImm
	require.Equal(t, ^uint64(0), immI(insn))
}

func TestImmSMatchesReferenceEncoding(t *testing.T) {
	imm := uint32(16)
	insn := (imm>>5)<<25 | (2 << 20) | (1 << 15) | (f3SW << 12) | (imm&0x1f)<<7 | opStore
	require.Equal(t, uint64(16), immS(insn))
}

func TestImmBNegativeWraps(t *testing.T) {
	// branch offset -16
	var imm uint32 = uint32(int32(-16)) & 0x1fff
	insn := ((imm>>12)&1)<<31 | ((imm>>5)&0x3f)<<25 | (2 << 20) | (1 << 15) |
		(f3BEQ << 12) | ((imm>>1)&0xf)<<8 | ((imm>>11)&1)<<7 | opBranch
	require.Equal(t, uint64(0xFFFF_FFFF_FFFF_FFF0), immB(insn))
}

func TestImmUShiftsIntoUpperBits(t *testing.T) {
	insn := uint32(0x7)<<12 | 31<<7 | opLUI
	require.Equal(t, uint64(0x7000), immU(insn))
}

func TestImmJMatchesScenario(t *testing.T) {
	// jal x10, 0x16
	var imm uint32 = 0x16 & 0x1fffff
	insn := ((imm>>20)&1)<<31 | (imm&0xff000) | ((imm>>11)&1)<<20 | ((imm>>1)&0x3ff)<<21 |
		10<<7 | opJAL
	require.Equal(t, uint64(0x16), immJ(insn))
}

func TestSignExtend32(t *testing.T) {
	require.Equal(t, ^uint64(0), signExtend32(0xffff_ffff))
	require.Equal(t, uint64(1), signExtend32(1))
}

func TestShiftClassDistinguishesSRLIFromSRAI(t *testing.T) {
	srli := uint32(5)<<20 | 1<<15 | f3SR<<12 | 1<<7 | opOpImm
	srai := srli | (shiftArithmetic << 26)
	require.Equal(t, uint32(shiftLogical), shiftClass(srli))
	require.Equal(t, uint32(shiftArithmetic), shiftClass(srai))
}
