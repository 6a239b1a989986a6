package insts

import "github.com/edumips64/edumips64/emu"

func branchOffset(addr uint32, target int64) int64 {
	return (target - int64(addr) - 4) / 4
}

func setPC(ctx *Context, target int64) *JumpSignal {
	ctx.Regs.PC.WriteDoubleWord(target)
	return &JumpSignal{Target: uint32(target)}
}

// branchCmp compares two GPRs in ID and redirects the PC when taken:
// op rs, rt, target.
type branchCmp struct {
	base
	opcode uint32
	cond   func(a, b int64) bool
}

func newBranchCmp(name string, opcode uint32, cond func(a, b int64) bool) Instruction {
	return &branchCmp{
		base:   base{name: name, syntax: "%R,%R,%B"},
		opcode: opcode,
		cond:   cond,
	}
}

func (i *branchCmp) ID(ctx *Context) (bool, error) {
	rs := ctx.Regs.GPR[i.params[0]]
	rt := ctx.Regs.GPR[i.params[1]]
	if rs.WriteSemaphore() > 0 || rt.WriteSemaphore() > 0 {
		return true, nil
	}
	if i.cond(rs.Value(), rt.Value()) {
		return false, setPC(ctx, i.params[2])
	}
	return false, nil
}

func (i *branchCmp) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[0]), uint32(i.params[1]), branchOffset(i.addr, i.params[2]))
	return nil
}

// branchZero compares one GPR against zero in ID: op rs, target. Encoded
// either as an I-type with rt fixed (beqz/bnez) or through the REGIMM opcode
// (bgez/bltz).
type branchZero struct {
	base
	opcode uint32
	rtSel  uint32
	regimm bool
	cond   func(a int64) bool
}

func newBranchZero(name string, opcode, rtSel uint32, regimm bool, cond func(a int64) bool) Instruction {
	return &branchZero{
		base:   base{name: name, syntax: "%R,%B"},
		opcode: opcode,
		rtSel:  rtSel,
		regimm: regimm,
		cond:   cond,
	}
}

func (i *branchZero) ID(ctx *Context) (bool, error) {
	rs := ctx.Regs.GPR[i.params[0]]
	if rs.WriteSemaphore() > 0 {
		return true, nil
	}
	if i.cond(rs.Value()) {
		return false, setPC(ctx, i.params[1])
	}
	return false, nil
}

func (i *branchZero) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[0]), i.rtSel, branchOffset(i.addr, i.params[1]))
	return nil
}

// bAlias is the unconditional branch `b target`, encoded as beq r0, r0.
type bAlias struct {
	base
}

func newB() Instruction {
	return &bAlias{base: base{name: "b", syntax: "%B"}}
}

func (i *bAlias) ID(ctx *Context) (bool, error) {
	return false, setPC(ctx, i.params[0])
}

func (i *bAlias) Pack() error {
	i.repr = packIType(0x04, 0, 0, branchOffset(i.addr, i.params[0]))
	return nil
}

// jump is the unconditional J-type: j/jal target. jal links the address of
// the following instruction into R31.
type jump struct {
	base
	opcode uint32
	link   bool
}

func newJump(name string, opcode uint32, link bool) Instruction {
	return &jump{
		base:   base{name: name, syntax: "%B"},
		opcode: opcode,
		link:   link,
	}
}

func (i *jump) ID(ctx *Context) (bool, error) {
	if i.link {
		ctx.Regs.GPR[31].IncrWriteSemaphore()
		i.tr[2] = int64(i.addr) + 4
		i.wroteEarly = false
	}
	return false, setPC(ctx, i.params[0])
}

func (i *jump) EX(ctx *Context) error {
	if i.link && ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *jump) commit(ctx *Context) {
	ra := ctx.Regs.GPR[31]
	ra.WriteDoubleWord(i.tr[2])
	ra.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *jump) WB(ctx *Context) error {
	if i.link && !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *jump) Pack() error {
	w := i.opcode << 26
	w = emu.SetField(w, 25, 0, uint32(i.params[0])>>2)
	i.repr = w
	return nil
}

// jumpReg jumps to a register target: jr/jalr rs. jalr links into R31.
type jumpReg struct {
	base
	funct uint32
	link  bool
}

func newJumpReg(name string, funct uint32, link bool) Instruction {
	return &jumpReg{
		base:  base{name: name, syntax: "%R"},
		funct: funct,
		link:  link,
	}
}

func (i *jumpReg) ID(ctx *Context) (bool, error) {
	rs := ctx.Regs.GPR[i.params[0]]
	if rs.WriteSemaphore() > 0 {
		return true, nil
	}
	if i.link {
		ctx.Regs.GPR[31].IncrWriteSemaphore()
		i.tr[2] = int64(i.addr) + 4
		i.wroteEarly = false
	}
	return false, setPC(ctx, rs.Value())
}

func (i *jumpReg) EX(ctx *Context) error {
	if i.link && ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *jumpReg) commit(ctx *Context) {
	ra := ctx.Regs.GPR[31]
	ra.WriteDoubleWord(i.tr[2])
	ra.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *jumpReg) WB(ctx *Context) error {
	if i.link && !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *jumpReg) Pack() error {
	rd := uint32(0)
	if i.link {
		rd = 31
	}
	i.repr = packRType(uint32(i.params[0]), 0, rd, 0, i.funct)
	return nil
}
