package insts

import "github.com/edumips64/edumips64/emu"

func packIType(opcode, rs, rt uint32, imm int64) uint32 {
	w := opcode << 26
	w = emu.SetField(w, 25, 21, rs)
	w = emu.SetField(w, 20, 16, rt)
	w = emu.SetField(w, 15, 0, uint32(uint64(imm)&0xFFFF))
	return w
}

// aluI is an immediate ALU instruction: op rt, rs, imm. The parser stores the
// immediate already sign- or zero-extended per the syntax kind (%I / %U).
type aluI struct {
	base
	opcode uint32
	op     func(a, imm int64) (int64, error)
}

func newALUI(name string, opcode uint32, unsigned bool, op func(a, imm int64) (int64, error)) Instruction {
	syntax := "%R,%R,%I"
	if unsigned {
		syntax = "%R,%R,%U"
	}
	return &aluI{
		base:   base{name: name, syntax: syntax},
		opcode: opcode,
		op:     op,
	}
}

func (i *aluI) ID(ctx *Context) (bool, error) {
	rs := ctx.Regs.GPR[i.params[1]]
	if rs.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = rs.Value()
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *aluI) EX(ctx *Context) error {
	res, err := i.op(i.tr[0], i.params[2])
	if err != nil {
		return err
	}
	i.tr[2] = res
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *aluI) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *aluI) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *aluI) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[1]), uint32(i.params[0]), i.params[2])
	return nil
}

// lui loads an immediate into bits [31:16], sign-extended to 64 bits:
// lui rt, imm.
type lui struct {
	base
	opcode uint32
}

func newLUI() Instruction {
	return &lui{
		base:   base{name: "lui", syntax: "%R,%I"},
		opcode: 0x0F,
	}
}

func (i *lui) ID(ctx *Context) (bool, error) {
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *lui) EX(ctx *Context) error {
	i.tr[2] = emu.SignExtend(uint64(i.params[1])<<16, 32)
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *lui) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *lui) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *lui) Pack() error {
	i.repr = packIType(i.opcode, 0, uint32(i.params[0]), i.params[1])
	return nil
}
