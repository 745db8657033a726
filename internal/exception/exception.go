// Package exception defines the closed set of architectural faults that can
// terminate an RV64I interpreter run.
//
// The set is small and fixed, so we model it as an interface implemented by
// a handful of concrete structs rather than as a stringly-typed error or an
// open-ended error hierarchy. Each variant carries exactly the payload a
// debugger would need: a faulting address, or nothing at all.
package exception

import "fmt"

// Exception is implemented by every architectural fault that can terminate
// the fetch-decode-execute loop. It embeds the standard error interface so
// callers already working with `error` keep working.
type Exception interface {
	error

	// Kind returns a short, stable name for the exception variant, suitable
	// for use in log messages and test assertions.
	Kind() string
}

// LoadAccessFault is raised when a load (including an instruction fetch)
// targets an address outside of DRAM.
type LoadAccessFault struct {
	Address uint64
}

// Kind implements Exception.
func (LoadAccessFault) Kind() string { return "LoadAccessFault" }

// Error implements error.
func (e LoadAccessFault) Error() string {
	return fmt.Sprintf("LoadAccessFault{address: 0x%x}", e.Address)
}

// StoreAMOAccessFault is raised when a store targets an address outside of
// DRAM.
type StoreAMOAccessFault struct {
	Address uint64
}

// Kind implements Exception.
func (StoreAMOAccessFault) Kind() string { return "StoreAMOAccessFault" }

// Error implements error.
func (e StoreAMOAccessFault) Error() string {
	return fmt.Sprintf("StoreAMOAccessFault{address: 0x%x}", e.Address)
}

// IllegalInstruction is raised for an unrecognized opcode/funct3/funct7
// combination, or for the all-zero and all-ones sentinel words.
type IllegalInstruction struct {
	Instruction uint32
}

// Kind implements Exception.
func (IllegalInstruction) Kind() string { return "IllegalInstruction" }

// Error implements error.
func (e IllegalInstruction) Error() string {
	return fmt.Sprintf("IllegalInstruction{instruction: 0x%08x}", e.Instruction)
}

// Breakpoint is raised by the canonical ebreak encoding.
type Breakpoint struct{}

// Kind implements Exception.
func (Breakpoint) Kind() string { return "Breakpoint" }

// Error implements error.
func (Breakpoint) Error() string { return "Breakpoint" }

// EnvironmentCall is raised by the canonical ecall encoding.
type EnvironmentCall struct{}

// Kind implements Exception.
func (EnvironmentCall) Kind() string { return "EnvironmentCall" }

// Error implements error.
func (EnvironmentCall) Error() string { return "EnvironmentCall" }

var (
	_ Exception = LoadAccessFault{}
	_ Exception = StoreAMOAccessFault{}
	_ Exception = IllegalInstruction{}
	_ Exception = Breakpoint{}
	_ Exception = EnvironmentCall{}
)
