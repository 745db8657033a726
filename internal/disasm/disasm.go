// Package disasm renders a best-effort mnemonic for a raw RV64I instruction
// word. It exists purely for diagnostics: the teacher's vm.Disassemble is
// used only by the `-v`/tracing flags of its CLIs, never on the execution
// hot path, and this package follows the same contract. It decodes using
// the same bit layouts as package cpu but does not import it, to keep the
// decoder usable without pulling in execution state.
package disasm

import "fmt"

const (
	opLUI     = 0b0110111
	opAUIPC   = 0b0010111
	opJAL     = 0b1101111
	opJALR    = 0b1100111
	opBranch  = 0b1100011
	opLoad    = 0b0000011
	opStore   = 0b0100011
	opOpImm   = 0b0010011
	opOp      = 0b0110011
	opOpImm32 = 0b0011011
	opOp32    = 0b0111011
	opMiscMem = 0b0001111
	opSystem  = 0b1110011
)

func opcode(insn uint32) uint32 { return insn & 0x7f }
func rd(insn uint32) uint32     { return (insn >> 7) & 0x1f }
func funct3(insn uint32) uint32 { return (insn >> 12) & 0x7 }
func rs1(insn uint32) uint32    { return (insn >> 15) & 0x1f }
func rs2(insn uint32) uint32    { return (insn >> 20) & 0x1f }
func funct7(insn uint32) uint32 { return (insn >> 25) & 0x7f }

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

func immI(insn uint32) int64 { return signExtend(uint64(insn)>>20, 12) }
func immU(insn uint32) int64 { return signExtend(uint64(insn)&0xffff_f000, 32) }
func immS(insn uint32) int64 {
	v := (uint64(insn)>>25<<5 | (uint64(insn)>>7)&0x1f)
	return signExtend(v, 12)
}
func immB(insn uint32) int64 {
	v := ((uint64(insn) >> 31 & 0x1) << 12) |
		((uint64(insn) >> 7 & 0x1) << 11) |
		((uint64(insn) >> 25 & 0x3f) << 5) |
		((uint64(insn) >> 8 & 0xf) << 1)
	return signExtend(v, 13)
}
func immJ(insn uint32) int64 {
	v := ((uint64(insn) >> 31 & 0x1) << 20) |
		(uint64(insn) & 0xff000) |
		((uint64(insn) >> 20 & 0x1) << 11) |
		((uint64(insn) >> 21 & 0x3ff) << 1)
	return signExtend(v, 21)
}

var loadMnemonics = map[uint32]string{
	0b000: "lb", 0b001: "lh", 0b010: "lw", 0b011: "ld",
	0b100: "lbu", 0b101: "lhu", 0b110: "lwu",
}

var storeMnemonics = map[uint32]string{
	0b000: "sb", 0b001: "sh", 0b010: "sw", 0b011: "sd",
}

var branchMnemonics = map[uint32]string{
	0b000: "beq", 0b001: "bne", 0b100: "blt",
	0b101: "bge", 0b110: "bltu", 0b111: "bgeu",
}

// Disassemble renders insn as an assembly-like mnemonic string. Unknown
// opcodes render as "<unknown: 0x...>" rather than erroring: this function
// is used only for diagnostic traces, never to gate execution.
func Disassemble(insn uint32) string {
	switch opcode(insn) {
	case opLUI:
		return fmt.Sprintf("lui x%d, 0x%x", rd(insn), uint64(immU(insn))>>12)
	case opAUIPC:
		return fmt.Sprintf("auipc x%d, 0x%x", rd(insn), uint64(immU(insn))>>12)
	case opJAL:
		return fmt.Sprintf("jal x%d, %d", rd(insn), immJ(insn))
	case opJALR:
		return fmt.Sprintf("jalr x%d, %d(x%d)", rd(insn), immI(insn), rs1(insn))
	case opBranch:
		name, ok := branchMnemonics[funct3(insn)]
		if !ok {
			break
		}
		return fmt.Sprintf("%s x%d, x%d, %d", name, rs1(insn), rs2(insn), immB(insn))
	case opLoad:
		name, ok := loadMnemonics[funct3(insn)]
		if !ok {
			break
		}
		return fmt.Sprintf("%s x%d, %d(x%d)", name, rd(insn), immI(insn), rs1(insn))
	case opStore:
		name, ok := storeMnemonics[funct3(insn)]
		if !ok {
			break
		}
		return fmt.Sprintf("%s x%d, %d(x%d)", name, rs2(insn), immS(insn), rs1(insn))
	case opOpImm:
		return fmt.Sprintf("<op-imm f3=%d> x%d, x%d, %d", funct3(insn), rd(insn), rs1(insn), immI(insn))
	case opOp:
		return fmt.Sprintf("<op f3=%d f7=%d> x%d, x%d, x%d", funct3(insn), funct7(insn), rd(insn), rs1(insn), rs2(insn))
	case opOpImm32:
		return fmt.Sprintf("<op-imm-32 f3=%d> x%d, x%d, %d", funct3(insn), rd(insn), rs1(insn), immI(insn))
	case opOp32:
		return fmt.Sprintf("<op-32 f3=%d f7=%d> x%d, x%d, x%d", funct3(insn), funct7(insn), rd(insn), rs1(insn), rs2(insn))
	case opMiscMem:
		return "fence"
	case opSystem:
		return disassembleSystem(insn)
	}
	return fmt.Sprintf("<unknown: 0x%08x>", insn)
}

func disassembleSystem(insn uint32) string {
	if insn == opSystem {
		return "ecall"
	}
	if insn == opSystem|(1<<20) {
		return "ebreak"
	}
	var name string
	switch funct3(insn) {
	case 0b001:
		name = "csrrw"
	case 0b010:
		name = "csrrs"
	case 0b011:
		name = "csrrc"
	case 0b101:
		name = "csrrwi"
	case 0b110:
		name = "csrrsi"
	case 0b111:
		name = "csrrci"
	default:
		return fmt.Sprintf("<unknown: 0x%08x>", insn)
	}
	csrNum := (insn >> 20) & 0xfff
	return fmt.Sprintf("%s x%d, 0x%x, x%d", name, rd(insn), csrNum, rs1(insn))
}
