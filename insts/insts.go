// Package insts provides the decoded MIPS64 instruction set.
//
// An instruction is a value exposing one behavior per pipeline stage
// (IF, ID, EX, MEM, WB) plus Pack, which produces its 32-bit encoding.
// Families (ALU R-type, ALU I-type, loads/stores, branches and jumps, FP
// arithmetic, FP transfers, control) fix the encoding skeleton and operand
// conventions; concrete opcodes supply the stage behaviors that differ.
//
// Instructions are built by mnemonic through New:
//
//	inst, err := insts.New("add")
//	inst.SetParams([]int64{3, 1, 2}) // add r3, r1, r2
//	err = inst.Pack()
package insts

import (
	"fmt"

	"github.com/edumips64/edumips64/config"
	"github.com/edumips64/edumips64/emu"
)

// StatusHook lets instructions request CPU state transitions without
// depending on the pipeline package. HALT and SYSCALL 0 use it to move the
// CPU into its draining state.
type StatusHook interface {
	SetStopping()
}

// Context carries the architectural state a stage behavior operates on.
type Context struct {
	Regs   *emu.RegFile
	Mem    *emu.Memory
	Config *config.Config
	Status StatusHook
}

// Instruction is a decoded instruction with one behavior per pipeline stage.
// Stage behaviors default to no-ops; ID returns true when a RAW hazard
// prevents dispatch this cycle.
type Instruction interface {
	Name() string
	Syntax() string
	Repr() uint32
	Address() uint32
	Params() []int64
	SetParams(params []int64)
	SetAddress(addr uint32)
	Pack() error

	IF(ctx *Context) error
	ID(ctx *Context) (raw bool, err error)
	EX(ctx *Context) error
	MEM(ctx *Context) error
	WB(ctx *Context) error
}

// FPUnit identifies the functional unit an FP arithmetic instruction needs.
type FPUnit int

// FP functional units.
const (
	FPUnitNone FPUnit = iota
	FPUnitAdder
	FPUnitMultiplier
	FPUnitDivider
)

// FPArith is implemented by instructions dispatched into the FP sub-pipeline
// instead of the integer EX stage.
type FPArith interface {
	Instruction
	FPUnit() FPUnit
}

// base carries the state shared by every instruction: name, syntax string,
// operand parameters, code address, packed representation and the temporary
// registers loaded during ID.
type base struct {
	name   string
	syntax string
	repr   uint32
	addr   uint32
	params []int64

	// tr holds values read in ID and results produced in EX/MEM.
	tr [5]int64

	// wroteEarly is set when forwarding committed the result before WB.
	wroteEarly bool
}

func (b *base) Name() string              { return b.name }
func (b *base) Syntax() string            { return b.syntax }
func (b *base) Repr() uint32              { return b.repr }
func (b *base) Address() uint32           { return b.addr }
func (b *base) Params() []int64           { return b.params }
func (b *base) SetParams(params []int64)  { b.params = params }
func (b *base) SetAddress(addr uint32)    { b.addr = addr }
func (b *base) IF(*Context) error         { return nil }
func (b *base) ID(*Context) (bool, error) { return false, nil }
func (b *base) EX(*Context) error         { return nil }
func (b *base) MEM(*Context) error        { return nil }
func (b *base) WB(*Context) error         { return nil }
func (b *base) Pack() error               { return nil }

func (b *base) String() string {
	if len(b.params) == 0 {
		return b.name
	}
	return fmt.Sprintf("%s %v", b.name, b.params)
}

// bubbleInst is the distinguished no-op filling pipeline slots during stalls
// and drains. Every stage behavior does nothing and it is excluded from the
// committed-instruction count.
type bubbleInst struct {
	base
}

// Bubble returns the pipeline bubble.
func Bubble() Instruction {
	return &bubbleInst{base: base{name: "bubble"}}
}

// IsBubble reports whether i is the pipeline bubble.
func IsBubble(i Instruction) bool {
	_, ok := i.(*bubbleInst)
	return ok
}

// Terminating instruction encodings: HALT and SYSCALL 0.
const (
	HaltRepr     uint32 = 0x04000000
	Syscall0Repr uint32 = 0x0000000C
)

// IsTerminating reports whether the encoding belongs to a terminating
// instruction.
func IsTerminating(repr uint32) bool {
	return repr == HaltRepr || repr == Syscall0Repr
}
