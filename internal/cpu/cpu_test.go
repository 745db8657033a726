package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bassosimone/rv64i/internal/dram"
	"github.com/bassosimone/rv64i/internal/exception"
)

func encodeR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeU(opcode, rd, imm20 uint32) uint32 {
	return imm20<<12 | rd<<7 | opcode
}

func encodeB(funct3, rs1, rs2 uint32, offset int32) uint32 {
	imm := uint32(offset) & 0x1fff
	return ((imm>>12)&1)<<31 | ((imm>>5)&0x3f)<<25 | rs2<<20 | rs1<<15 |
		funct3<<12 | ((imm>>1)&0xf)<<8 | ((imm>>11)&1)<<7 | opBranch
}

func newCPUAt(insn uint32) *CPU {
	image := make([]byte, 4)
	image[0] = byte(insn)
	image[1] = byte(insn >> 8)
	image[2] = byte(insn >> 16)
	image[3] = byte(insn >> 24)
	return New(image)
}

// Scenario 1: addi x31, x0, 0x34 -> regs[31] == 0x34.
func TestScenarioADDI(t *testing.T) {
	c := newCPUAt(encodeI(opOpImm, 31, f3ADD_SUB, 0, 0x34))
	pc := c.PC()
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, uint64(0x34), c.ReadReg(31))
	require.Equal(t, pc+4, c.PC())
}

// Scenario 2: add x31, x30, x29 with regs[30]=0x5, regs[29]=0x10 -> regs[31] == 0x15.
func TestScenarioADD(t *testing.T) {
	c := newCPUAt(encodeR(opOp, f3ADD_SUB, 0, 31, 30, 29))
	c.WriteReg(30, 0x5)
	c.WriteReg(29, 0x10)
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, uint64(0x15), c.ReadReg(31))
}

// Scenario 3: auipc x31, 0x7 at PC p -> regs[31] == p + 0x7000.
func TestScenarioAUIPC(t *testing.T) {
	c := newCPUAt(encodeU(opAUIPC, 31, 0x7))
	pc := c.PC()
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, pc+0x7000, c.ReadReg(31))
}

// Scenario 4: jalr x10, 0x16(x11) with regs[11]=0x100, PC p ->
// regs[10] == p+4, PC == 0x116; the next fetch from 0x116 (outside DRAM)
// yields LoadAccessFault{0x116}.
func TestScenarioJALR(t *testing.T) {
	c := newCPUAt(encodeI(opJALR, 10, 0, 11, 0x16))
	c.WriteReg(11, 0x100)
	pc := c.PC()
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, pc+4, c.ReadReg(10))
	require.Equal(t, uint64(0x116), c.PC())

	_, ferr := c.Fetch()
	require.NotNil(t, ferr)
	var fault exception.LoadAccessFault
	require.ErrorAs(t, ferr, &fault)
	require.Equal(t, uint64(0x116), fault.Address)
}

// JALR with rd == rs1 must capture the return address before overwriting rs1.
func TestJALRWithRdEqualsRs1(t *testing.T) {
	c := newCPUAt(encodeI(opJALR, 11, 0, 11, 0x16))
	c.WriteReg(11, 0x100)
	pc := c.PC()
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, pc+4, c.ReadReg(11))
	require.Equal(t, uint64(0x116), c.PC())
}

// Scenario 5: with memory[DRAM_BASE+16] = 0xFFFF_FFFF_F123_4567 (64-bit
// little-endian write, so the 32-bit word there is 0xF1234567), lw x1, 16(x2) with regs[2]=DRAM_BASE -> regs[1] sign-extends;
// lwu x1, 16(x2) zero-extends.
func TestScenarioLWAndLWU(t *testing.T) {
	for _, tc := range []struct {
		name string
		f3   uint32
		want uint64
	}{
		{"lw", f3LW, 0xFFFF_FFFF_F123_4567},
		{"lwu", f3LWU, 0x0000_0000_F123_4567},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCPUAt(encodeI(opLoad, 1, tc.f3, 2, 16))
			c.WriteReg(2, dram.Base)
			require.Nil(t, c.Bus().Store(dram.Base+16, 64, 0xFFFF_FFFF_F123_4567))
			insn, err := c.Fetch()
			require.Nil(t, err)
			require.Nil(t, c.Step(insn))
			require.Equal(t, tc.want, c.ReadReg(1))
		})
	}
}

// Scenario 6: blt/bltu with regs[1]=0x100, regs[2]=MaxUint64.
func TestScenarioBranchTable(t *testing.T) {
	t.Run("blt not taken (signed)", func(t *testing.T) {
		c := newCPUAt(encodeB(f3BLT, 1, 2, 16))
		c.WriteReg(1, 0x100)
		c.WriteReg(2, ^uint64(0))
		pc := c.PC()
		insn, err := c.Fetch()
		require.Nil(t, err)
		require.Nil(t, c.Step(insn))
		require.Equal(t, pc+4, c.PC())
	})
	t.Run("bltu taken (unsigned)", func(t *testing.T) {
		c := newCPUAt(encodeB(f3BLTU, 1, 2, 16))
		c.WriteReg(1, 0x100)
		c.WriteReg(2, ^uint64(0))
		pc := c.PC()
		insn, err := c.Fetch()
		require.Nil(t, err)
		require.Nil(t, c.Step(insn))
		require.Equal(t, pc+16, c.PC())
	})
}

func TestRegisterZeroAlwaysReadsZero(t *testing.T) {
	c := newCPUAt(encodeI(opOpImm, 0, f3ADD_SUB, 0, 0x34))
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, uint64(0), c.ReadReg(0))

	c.WriteReg(0, 0xff)
	require.Equal(t, uint64(0), c.ReadReg(0))
}

func TestStackPointerInitializedToDRAMEnd(t *testing.T) {
	c := New(nil)
	require.Equal(t, uint64(dram.End), c.ReadReg(2))
}

func TestPCInitializedToDRAMBase(t *testing.T) {
	c := New(nil)
	require.Equal(t, uint64(dram.Base), c.PC())
}

func TestFetchAtZeroFaults(t *testing.T) {
	c := New(nil)
	c2 := &CPU{bus: c.bus, csr: c.csr}
	c2.pc = 0
	_, err := c2.Fetch()
	require.NotNil(t, err)
	var fault exception.LoadAccessFault
	require.ErrorAs(t, err, &fault)
}

func TestAllZeroAndAllOnesAreIllegal(t *testing.T) {
	for _, insn := range []uint32{0, 0xffff_ffff} {
		c := newCPUAt(insn)
		fetched, err := c.Fetch()
		require.Nil(t, err)
		stepErr := c.Step(fetched)
		require.NotNil(t, stepErr)
		var illegal exception.IllegalInstruction
		require.ErrorAs(t, stepErr, &illegal)
	}
}

func TestEcallAndEbreak(t *testing.T) {
	c := newCPUAt(ecallEncoding)
	insn, err := c.Fetch()
	require.Nil(t, err)
	stepErr := c.Step(insn)
	require.NotNil(t, stepErr)
	require.Equal(t, "EnvironmentCall", stepErr.Kind())

	c = newCPUAt(ebreakEncoding)
	insn, err = c.Fetch()
	require.Nil(t, err)
	stepErr = c.Step(insn)
	require.NotNil(t, stepErr)
	require.Equal(t, "Breakpoint", stepErr.Kind())
}

func TestWFormsSignExtendLowThirtyTwoBits(t *testing.T) {
	// addiw x1, x0, -1 must sign-extend the 32-bit result to all ones.
	c := newCPUAt(encodeI(opOpImm32, 1, f3ADD_SUB, 0, -1))
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, ^uint64(0), c.ReadReg(1))
}

// The design notes flag a subtle bug surface: SRAIW/SRAW must arithmetic
// shift the sign-extended 32-bit value, not the full 64-bit register.
func TestSRAIWSignExtendsBeforeShifting(t *testing.T) {
	c := newCPUAt(0) // placeholder, unused; the test runs cpuInst below
	_ = c
	insn := uint32(shiftArithmetic)<<26 | 4<<20 | 1<<15 | f3SR<<12 | 2<<7 | opOpImm32
	cpuInst := newCPUAt(insn)
	// rs1 has bit 31 set, bits 32-63 clear: 0x0000_0000_8000_0000.
	cpuInst.WriteReg(1, 0x0000_0000_8000_0000)
	fetched, err := cpuInst.Fetch()
	require.Nil(t, err)
	require.Nil(t, cpuInst.Step(fetched))
	// (int32(0x80000000) >> 4) == -134217728, sign-extended to 64 bits.
	require.Equal(t, uint64(0xFFFF_FFFF_F800_0000), cpuInst.ReadReg(2))
}

func TestSRAWSignExtendsBeforeShifting(t *testing.T) {
	c := newCPUAt(encodeR(opOp32, f3SR, 0b0100000, 2, 1, 3))
	c.WriteReg(1, 0x0000_0000_8000_0000)
	c.WriteReg(3, 4)
	insn, err := c.Fetch()
	require.Nil(t, err)
	require.Nil(t, c.Step(insn))
	require.Equal(t, uint64(0xFFFF_FFFF_F800_0000), c.ReadReg(2))
}

func TestCSRRWRoundTrip(t *testing.T) {
	// csrrw x5, 0x7c0, x1 ; csrrw x6, 0x7c0, x0
	const csrAddr = 0x7c0
	c := New(nil)
	c.WriteReg(1, 0x42)

	writeInsn := encodeI(opSystem, 5, f3CSRRW, 1, csrAddr)
	require.Nil(t, c.Step(writeInsn))
	require.Equal(t, uint64(0x42), c.CSR().Load(csrAddr))

	clearInsn := encodeI(opSystem, 6, f3CSRRW, 0, csrAddr)
	require.Nil(t, c.Step(clearInsn))
	require.Equal(t, uint64(0), c.CSR().Load(csrAddr))
	require.Equal(t, uint64(0x42), c.ReadReg(6))
}

func TestUnknownOpcodeIsIllegal(t *testing.T) {
	c := newCPUAt(0b1111111) // not a valid RV64I opcode
	insn, err := c.Fetch()
	require.Nil(t, err)
	stepErr := c.Step(insn)
	require.NotNil(t, stepErr)
	var illegal exception.IllegalInstruction
	require.ErrorAs(t, stepErr, &illegal)
}
