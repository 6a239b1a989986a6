package insts

import "github.com/edumips64/edumips64/emu"

// halt terminates execution. Its IF behavior moves the CPU into the draining
// state so no further instructions are fetched; the pipeline empties and the
// CPU halts when halt leaves WB.
type halt struct {
	base
}

func newHalt() Instruction {
	return &halt{base: base{name: "halt"}}
}

func (i *halt) IF(ctx *Context) error {
	ctx.Status.SetStopping()
	return nil
}

func (i *halt) Pack() error {
	i.repr = HaltRepr
	return nil
}

// syscall implements the trivial exit syscall. Only code 0 is supported; the
// parser rejects anything else.
type syscall struct {
	base
}

func newSyscall() Instruction {
	return &syscall{base: base{name: "syscall", syntax: "%U"}}
}

func (i *syscall) IF(ctx *Context) error {
	if i.params[0] == 0 {
		ctx.Status.SetStopping()
	}
	return nil
}

func (i *syscall) Pack() error {
	w := packRType(0, 0, 0, 0, 0x0C)
	i.repr = emu.SetField(w, 25, 6, uint32(i.params[0]))
	return nil
}

// breakInst pauses execution: its IF behavior raises a Break signal that the
// cycle loop surfaces to the caller after finishing the cycle.
type breakInst struct {
	base
}

func newBreak() Instruction {
	return &breakInst{base: base{name: "break"}}
}

func (i *breakInst) IF(*Context) error {
	return &BreakSignal{}
}

func (i *breakInst) Pack() error {
	i.repr = packRType(0, 0, 0, 0, 0x0D)
	return nil
}

// trap raises a synchronous Trap exception in EX.
type trap struct {
	base
}

func newTrap() Instruction {
	return &trap{base: base{name: "trap"}}
}

func (i *trap) EX(*Context) error {
	return &SynchronousError{Code: CodeTrap}
}

func (i *trap) Pack() error {
	i.repr = packRType(0, 0, 0, 0, 0x34)
	return nil
}

// nop is the canonical no-op, encoded as sll r0, r0, 0.
type nop struct {
	base
}

func newNop() Instruction {
	return &nop{base: base{name: "nop"}}
}

func (i *nop) Pack() error {
	i.repr = 0
	return nil
}
