package cpu

import (
	"github.com/bassosimone/rv64i/internal/exception"
)

// Opcodes implemented by this RV64I subset.
const (
	opLUI      = 0b0110111
	opAUIPC    = 0b0010111
	opJAL      = 0b1101111
	opJALR     = 0b1100111
	opBranch   = 0b1100011
	opLoad     = 0b0000011
	opStore    = 0b0100011
	opOpImm    = 0b0010011
	opOp       = 0b0110011
	opOpImm32  = 0b0011011
	opOp32     = 0b0111011
	opMiscMem  = 0b0001111
	opSystem   = 0b1110011
)

// Canonical encodings for ecall/ebreak: opSystem with rd=rs1=funct3=0 and
// the I-immediate selecting the two reserved system functions.
const (
	ecallEncoding  uint32 = opSystem
	ebreakEncoding uint32 = opSystem | (1 << 20)
)

// funct3 values within opBranch.
const (
	f3BEQ  = 0b000
	f3BNE  = 0b001
	f3BLT  = 0b100
	f3BGE  = 0b101
	f3BLTU = 0b110
	f3BGEU = 0b111
)

// funct3 values within opLoad.
const (
	f3LB  = 0b000
	f3LH  = 0b001
	f3LW  = 0b010
	f3LD  = 0b011
	f3LBU = 0b100
	f3LHU = 0b101
	f3LWU = 0b110
)

// funct3 values within opStore.
const (
	f3SB = 0b000
	f3SH = 0b001
	f3SW = 0b010
	f3SD = 0b011
)

// funct3 values within opOpImm / opOp.
const (
	f3ADD_SUB = 0b000
	f3SLL     = 0b001
	f3SLT     = 0b010
	f3SLTU    = 0b011
	f3XOR     = 0b100
	f3SR      = 0b101
	f3OR      = 0b110
	f3AND     = 0b111
)

// funct3 values within opSystem.
const (
	f3CSRRW  = 0b001
	f3CSRRS  = 0b010
	f3CSRRC  = 0b011
	f3CSRRWI = 0b101
	f3CSRRSI = 0b110
	f3CSRRCI = 0b111
)

// shift-class values distinguishing logical from arithmetic shifts.
const (
	shiftLogical    = 0b000000
	shiftArithmetic = 0b010000
)

// execute dispatches a single decoded instruction. It returns whether the
// instruction explicitly set pc (in which case the caller must not advance
// it by 4), or an exception.
func (c *CPU) execute(insn uint32) (pcSet bool, err exception.Exception) {
	switch opcode(insn) {
	case opLUI:
		c.setReg(rd(insn), signExtend32(immU(insn)))
		return false, nil
	case opAUIPC:
		c.setReg(rd(insn), c.pc+immU(insn))
		return false, nil
	case opJAL:
		c.setReg(rd(insn), c.pc+4)
		c.pc = c.pc + immJ(insn)
		return true, nil
	case opJALR:
		return c.executeJALR(insn)
	case opBranch:
		return c.executeBranch(insn)
	case opLoad:
		return false, c.executeLoad(insn)
	case opStore:
		return false, c.executeStore(insn)
	case opOpImm:
		return false, c.executeOpImm(insn)
	case opOp:
		return false, c.executeOp(insn)
	case opOpImm32:
		return false, c.executeOpImm32(insn)
	case opOp32:
		return false, c.executeOp32(insn)
	case opMiscMem:
		return false, nil // FENCE is a no-op
	case opSystem:
		return false, c.executeSystem(insn)
	default:
		return false, exception.IllegalInstruction{Instruction: insn}
	}
}

func (c *CPU) executeJALR(insn uint32) (bool, exception.Exception) {
	target := (c.ReadReg(rs1(insn)) + immI(insn)) &^ 1
	link := c.pc + 4 // captured before writing rd, since rd may equal rs1
	c.pc = target
	c.setReg(rd(insn), link)
	return true, nil
}

func (c *CPU) executeBranch(insn uint32) (bool, exception.Exception) {
	a, b := c.ReadReg(rs1(insn)), c.ReadReg(rs2(insn))
	var taken bool
	switch funct3(insn) {
	case f3BEQ:
		taken = a == b
	case f3BNE:
		taken = a != b
	case f3BLT:
		taken = int64(a) < int64(b)
	case f3BGE:
		taken = int64(a) >= int64(b)
	case f3BLTU:
		taken = a < b
	case f3BGEU:
		taken = a >= b
	default:
		return false, exception.IllegalInstruction{Instruction: insn}
	}
	if taken {
		c.pc = c.pc + immB(insn)
		return true, nil
	}
	return false, nil
}

func (c *CPU) executeLoad(insn uint32) exception.Exception {
	addr := c.ReadReg(rs1(insn)) + immI(insn)
	var size uint64
	var signed bool
	switch funct3(insn) {
	case f3LB:
		size, signed = 8, true
	case f3LH:
		size, signed = 16, true
	case f3LW:
		size, signed = 32, true
	case f3LD:
		size, signed = 64, false
	case f3LBU:
		size, signed = 8, false
	case f3LHU:
		size, signed = 16, false
	case f3LWU:
		size, signed = 32, false
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	v, err := c.bus.Load(addr, size)
	if err != nil {
		return err
	}
	if signed {
		v = signExtend(v, uint(size))
	}
	c.setReg(rd(insn), v)
	return nil
}

func (c *CPU) executeStore(insn uint32) exception.Exception {
	addr := c.ReadReg(rs1(insn)) + immS(insn)
	var size uint64
	switch funct3(insn) {
	case f3SB:
		size = 8
	case f3SH:
		size = 16
	case f3SW:
		size = 32
	case f3SD:
		size = 64
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	return c.bus.Store(addr, size, c.ReadReg(rs2(insn)))
}

func (c *CPU) executeOpImm(insn uint32) exception.Exception {
	a, imm := c.ReadReg(rs1(insn)), immI(insn)
	var v uint64
	switch funct3(insn) {
	case f3ADD_SUB:
		v = a + imm
	case f3SLT:
		v = boolToUint64(int64(a) < int64(imm))
	case f3SLTU:
		v = boolToUint64(a < imm)
	case f3XOR:
		v = a ^ imm
	case f3OR:
		v = a | imm
	case f3AND:
		v = a & imm
	case f3SLL:
		v = a << shamt(insn)
	case f3SR:
		switch shiftClass(insn) {
		case shiftLogical:
			v = a >> shamt(insn)
		case shiftArithmetic:
			v = uint64(int64(a) >> shamt(insn))
		default:
			return exception.IllegalInstruction{Instruction: insn}
		}
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	c.setReg(rd(insn), v)
	return nil
}

func (c *CPU) executeOp(insn uint32) exception.Exception {
	a, b := c.ReadReg(rs1(insn)), c.ReadReg(rs2(insn))
	var v uint64
	switch funct3(insn) {
	case f3ADD_SUB:
		switch funct7(insn) {
		case 0b0000000:
			v = a + b
		case 0b0100000:
			v = a - b
		default:
			return exception.IllegalInstruction{Instruction: insn}
		}
	case f3SLL:
		v = a << (b & 0x3f)
	case f3SLT:
		v = boolToUint64(int64(a) < int64(b))
	case f3SLTU:
		v = boolToUint64(a < b)
	case f3XOR:
		v = a ^ b
	case f3SR:
		switch funct7(insn) {
		case 0b0000000:
			v = a >> (b & 0x3f)
		case 0b0100000:
			v = uint64(int64(a) >> (b & 0x3f))
		default:
			return exception.IllegalInstruction{Instruction: insn}
		}
	case f3OR:
		v = a | b
	case f3AND:
		v = a & b
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	c.setReg(rd(insn), v)
	return nil
}

func (c *CPU) executeOpImm32(insn uint32) exception.Exception {
	a := uint32(c.ReadReg(rs1(insn)))
	var v32 uint32
	switch funct3(insn) {
	case f3ADD_SUB: // ADDIW
		v32 = a + uint32(immI(insn))
	case f3SLL: // SLLIW
		v32 = a << shamt32(insn)
	case f3SR: // SRLIW / SRAIW
		switch shiftClass(insn) {
		case shiftLogical:
			v32 = a >> shamt32(insn)
		case shiftArithmetic:
			// Right-shift the sign-extended 32-bit value, not the full
			// 64-bit register: see the design notes on the *W shift bug
			// surface.
			c.setReg(rd(insn), uint64(int64(int32(a)>>shamt32(insn))))
			return nil
		default:
			return exception.IllegalInstruction{Instruction: insn}
		}
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	c.setReg(rd(insn), signExtend32(uint64(v32)))
	return nil
}

func (c *CPU) executeOp32(insn uint32) exception.Exception {
	a, b := uint32(c.ReadReg(rs1(insn))), uint32(c.ReadReg(rs2(insn)))
	var v32 uint32
	switch funct3(insn) {
	case f3ADD_SUB:
		switch funct7(insn) {
		case 0b0000000: // ADDW
			v32 = a + b
		case 0b0100000: // SUBW
			v32 = a - b
		default:
			return exception.IllegalInstruction{Instruction: insn}
		}
	case f3SLL: // SLLW
		v32 = a << (b & 0x1f)
	case f3SR:
		switch funct7(insn) {
		case 0b0000000: // SRLW
			v32 = a >> (b & 0x1f)
		case 0b0100000: // SRAW
			c.setReg(rd(insn), uint64(int64(int32(a)>>(b&0x1f))))
			return nil
		default:
			return exception.IllegalInstruction{Instruction: insn}
		}
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	c.setReg(rd(insn), signExtend32(uint64(v32)))
	return nil
}

func (c *CPU) executeSystem(insn uint32) exception.Exception {
	index := csrIndex(insn)
	old := c.csr.Load(index)
	var source uint64
	switch funct3(insn) {
	case f3CSRRW, f3CSRRS, f3CSRRC:
		source = c.ReadReg(rs1(insn))
	case f3CSRRWI, f3CSRRSI, f3CSRRCI:
		source = uint64(rs1(insn)) // 5-bit zero-extended immediate
	default:
		return exception.IllegalInstruction{Instruction: insn}
	}
	var next uint64
	switch funct3(insn) {
	case f3CSRRW, f3CSRRWI:
		next = source
	case f3CSRRS, f3CSRRSI:
		next = old | source
	case f3CSRRC, f3CSRRCI:
		next = old &^ source
	}
	c.csr.Store(index, next)
	c.setReg(rd(insn), old)
	return nil
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
