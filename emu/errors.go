package emu

import "fmt"

// IrregularWriteError reports a register write whose value does not fit the
// declared signed range of the access width.
type IrregularWriteError struct {
	Register string
	Width    int
	Value    int64
}

func (e *IrregularWriteError) Error() string {
	return fmt.Sprintf("irregular write to %s: value %d does not fit %d bits", e.Register, e.Value, e.Width)
}

// AddressError reports a memory access outside the configured bounds.
type AddressError struct {
	Address uint64
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address 0x%X out of range", e.Address)
}

// NotAlignError reports a memory access misaligned for its width.
type NotAlignError struct {
	Address uint64
	Width   int
}

func (e *NotAlignError) Error() string {
	return fmt.Sprintf("address 0x%X not aligned for %d-byte access", e.Address, e.Width)
}

// MemoryElementNotFoundError reports a symbol table lookup for an unknown label.
type MemoryElementNotFoundError struct {
	Label string
}

func (e *MemoryElementNotFoundError) Error() string {
	return fmt.Sprintf("label %q not found", e.Label)
}

// SameLabelsError reports a duplicate label registration.
type SameLabelsError struct {
	Label string
}

func (e *SameLabelsError) Error() string {
	return fmt.Sprintf("label %q already defined", e.Label)
}

// StoppedCPUError reports a step attempt while the CPU is not running.
type StoppedCPUError struct{}

func (e *StoppedCPUError) Error() string {
	return "CPU is not running"
}
