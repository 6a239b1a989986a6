package insts

import "fmt"

// SyncCode identifies a synchronous exception raised by a stage behavior.
type SyncCode string

// Synchronous exception codes.
const (
	CodeIntegerOverflow    SyncCode = "IntegerOverflow"
	CodeTwosComplementSum  SyncCode = "TwosComplementSum"
	CodeDivByZero          SyncCode = "DivByZero"
	CodeTrap               SyncCode = "Trap"
	CodeFPInvalidOperation SyncCode = "FPInvalidOperation"
	CodeFPDivideByZero     SyncCode = "FPDivideByZero"
	CodeFPOverflow         SyncCode = "FPOverflow"
	CodeFPUnderflow        SyncCode = "FPUnderflow"
)

// SynchronousError is raised by EX behaviors. The cycle loop defers, masks or
// terminates on it depending on configuration.
type SynchronousError struct {
	Code SyncCode
}

func (e *SynchronousError) Error() string {
	return fmt.Sprintf("synchronous exception: %s", e.Code)
}

// JumpSignal is raised when a taken branch or jump has updated the PC. The
// cycle loop reacts by flushing the fetched instruction and refetching from
// the new PC.
type JumpSignal struct {
	Target uint32
}

func (e *JumpSignal) Error() string {
	return fmt.Sprintf("jump to 0x%X", e.Target)
}

// BreakSignal is raised by the BREAK instruction during IF; the cycle
// completes and the signal is surfaced to the caller to pause execution.
type BreakSignal struct{}

func (e *BreakSignal) Error() string { return "break" }

// WAWSignal is raised when an FP arithmetic instruction targets a register
// that already has an FP write in flight.
type WAWSignal struct {
	Register string
}

func (e *WAWSignal) Error() string {
	return fmt.Sprintf("WAW hazard on %s", e.Register)
}
