// Package cpu implements the interpreter's architectural state machine: the
// general-purpose register file, program counter, CSR file, and the
// fetch-decode-execute loop that drives them against the RV64I opcode
// table.
package cpu

import (
	"fmt"

	"github.com/bassosimone/rv64i/internal/bus"
	"github.com/bassosimone/rv64i/internal/csr"
	"github.com/bassosimone/rv64i/internal/dram"
	"github.com/bassosimone/rv64i/internal/exception"
)

// NumRegisters is the number of general-purpose registers, including the
// hardwired-zero x0.
const NumRegisters = 32

const (
	wordInstruction = 32 // bits; an instruction fetch is a 32-bit load
)

// CPU holds all architectural state: the register file, program counter,
// CSR file, and the memory bus. It is not goroutine-safe; a single
// goroutine should own an instance exclusively.
type CPU struct {
	regs [NumRegisters]uint64
	pc   uint64
	csr  *csr.CSR
	bus  *bus.Bus
}

// New constructs a CPU with the given guest image loaded into DRAM at the
// DRAM base address. The stack pointer (x2) is initialized to the last
// valid DRAM address; the program counter is initialized to the DRAM base.
func New(image []byte) *CPU {
	c := &CPU{
		bus: bus.New(image),
		csr: csr.New(),
		pc:  dram.Base,
	}
	c.regs[2] = dram.End
	return c
}

// ReadReg returns the value of general-purpose register i. Register 0
// always reads as zero. This is primarily a test harness entry point;
// production execution code never needs to bypass the opcode dispatch to
// read a register.
func (c *CPU) ReadReg(i uint32) uint64 {
	if i == 0 {
		return 0
	}
	return c.regs[i]
}

// WriteReg sets general-purpose register i to value. A write to register 0
// is silently discarded. This is primarily a test harness entry point.
func (c *CPU) WriteReg(i uint32, value uint64) {
	c.setReg(i, value)
}

// setReg writes value to register i, guarding x0 so it invariantly reads
// as zero even across partial updates within a single instruction (the
// guard discipline from the design notes, preferred over zeroing x0 once
// at the top of every cycle).
func (c *CPU) setReg(i uint32, value uint64) {
	if i == 0 {
		return
	}
	c.regs[i] = value
}

// PC returns the current program counter.
func (c *CPU) PC() uint64 { return c.pc }

// Bus returns the CPU's memory bus for direct, architecturally-equivalent
// access from tests or host tooling.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// CSR returns the CPU's CSR file for direct access from tests or host
// tooling.
func (c *CPU) CSR() *csr.CSR { return c.csr }

// String renders a one-line summary of the CPU state: the program counter
// and the register file.
func (c *CPU) String() string {
	return fmt.Sprintf("{pc: 0x%x, regs: %v}", c.pc, c.regs)
}

// Run executes instructions until a terminating architectural exception is
// raised, and returns that exception. The interpreter has two macro-states,
// running and halted; Run enters halted the first time fetch or execute
// signals an exception and never resumes.
func (c *CPU) Run() exception.Exception {
	for {
		insn, fetchErr := c.Fetch()
		if fetchErr != nil {
			return fetchErr
		}
		if execErr := c.Step(insn); execErr != nil {
			return execErr
		}
	}
}

// Fetch reads 32 bits from the bus at pc. A fetch is expressed as a sized
// load so that fetch faults share the same taxonomy as data access faults.
// It does not advance pc; Step (or Run) does that once execution completes.
func (c *CPU) Fetch() (uint32, exception.Exception) {
	v, err := c.bus.Load(c.pc, wordInstruction)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Step decodes and executes a single fetched instruction word, then
// advances pc by 4 unless the instruction has already set pc explicitly.
func (c *CPU) Step(insn uint32) exception.Exception {
	if insn == 0 || insn == 0xffff_ffff {
		return exception.IllegalInstruction{Instruction: insn}
	}
	if insn == ebreakEncoding {
		return exception.Breakpoint{}
	}
	if insn == ecallEncoding {
		return exception.EnvironmentCall{}
	}

	pcSet, err := c.execute(insn)
	if err != nil {
		return err
	}
	if !pcSet {
		c.pc += 4
	}
	return nil
}
