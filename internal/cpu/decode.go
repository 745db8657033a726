package cpu

// Field extraction helpers. Bit numbering matches the RISC-V specification:
// instructions are 32 bits wide, bit 0 is the least significant bit.

func opcode(insn uint32) uint32 { return insn & 0x7f }
func rd(insn uint32) uint32     { return (insn >> 7) & 0x1f }
func funct3(insn uint32) uint32 { return (insn >> 12) & 0x7 }
func rs1(insn uint32) uint32    { return (insn >> 15) & 0x1f }
func rs2(insn uint32) uint32    { return (insn >> 20) & 0x1f }
func funct7(insn uint32) uint32 { return (insn >> 25) & 0x7f }

// shamt extracts the 6-bit shift amount used by 64-bit shift instructions.
func shamt(insn uint32) uint32 { return (insn >> 20) & 0x3f }

// shamt32 extracts the 5-bit shift amount used by 32-bit (*W) shift
// instructions.
func shamt32(insn uint32) uint32 { return (insn >> 20) & 0x1f }

// shiftClass extracts the upper shift-reserved field (bits 31:26) used to
// distinguish a logical shift (0b000000) from an arithmetic shift
// (0b010000).
func shiftClass(insn uint32) uint32 { return (insn >> 26) & 0x3f }

// csrIndex extracts the raw 12-bit CSR index, which is encoded in the same
// bit positions as the I-type immediate.
func csrIndex(insn uint32) uint64 { return uint64(insn>>20) & 0xfff }

// signExtend sign-extends the low `bits` bits of v to a full 64-bit value.
func signExtend(v uint64, bits uint) uint64 {
	shift := 64 - bits
	return uint64(int64(v<<shift) >> shift)
}

// signExtend32 reinterprets the low 32 bits of v as signed and extends it
// to 64 bits.
func signExtend32(v uint64) uint64 {
	return uint64(int64(int32(uint32(v))))
}

// immI decodes the I-type immediate: imm[11:0] = insn[31:20], sign-extended.
func immI(insn uint32) uint64 {
	return signExtend(uint64(insn)>>20, 12)
}

// immS decodes the S-type immediate: imm[11:5] = insn[31:25],
// imm[4:0] = insn[11:7], sign-extended.
func immS(insn uint32) uint64 {
	v := (uint64(insn) >> 25 << 5) | ((uint64(insn) >> 7) & 0x1f)
	return signExtend(v, 12)
}

// immB decodes the B-type immediate: imm[12] = insn[31], imm[11] = insn[7],
// imm[10:5] = insn[30:25], imm[4:1] = insn[11:8], imm[0] = 0, sign-extended.
func immB(insn uint32) uint64 {
	v := ((uint64(insn) >> 31 & 0x1) << 12) |
		((uint64(insn) >> 7 & 0x1) << 11) |
		((uint64(insn) >> 25 & 0x3f) << 5) |
		((uint64(insn) >> 8 & 0xf) << 1)
	return signExtend(v, 13)
}

// immU decodes the U-type immediate: imm[31:12] = insn[31:12], imm[11:0] = 0,
// sign-extended from bit 31 to 64.
func immU(insn uint32) uint64 {
	return signExtend(uint64(insn)&0xffff_f000, 32)
}

// immJ decodes the J-type immediate: imm[20] = insn[31], imm[19:12] =
// insn[19:12], imm[11] = insn[20], imm[10:1] = insn[30:21], imm[0] = 0,
// sign-extended.
func immJ(insn uint32) uint64 {
	v := ((uint64(insn) >> 31 & 0x1) << 20) |
		(uint64(insn) & 0xff000) |
		((uint64(insn) >> 20 & 0x1) << 11) |
		((uint64(insn) >> 21 & 0x3ff) << 1)
	return signExtend(v, 21)
}
