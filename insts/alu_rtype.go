package insts

import (
	"math/bits"

	"github.com/edumips64/edumips64/emu"
)

const (
	opSpecial = 0x00
	opRegImm  = 0x01
)

func packRType(rs, rt, rd, sa, funct uint32) uint32 {
	w := uint32(opSpecial) << 26
	w = emu.SetField(w, 25, 21, rs)
	w = emu.SetField(w, 20, 16, rt)
	w = emu.SetField(w, 15, 11, rd)
	w = emu.SetField(w, 10, 6, sa)
	w = emu.SetField(w, 5, 0, funct)
	return w
}

// aluR3 is a three-register ALU instruction: op rd, rs, rt. Sources are read
// in ID, the result is computed in EX and committed to rd in WB, or at the
// end of EX when forwarding is enabled.
type aluR3 struct {
	base
	funct uint32
	op    func(a, b int64) (int64, error)
}

func newALUR3(name string, funct uint32, op func(a, b int64) (int64, error)) Instruction {
	return &aluR3{
		base:  base{name: name, syntax: "%R,%R,%R"},
		funct: funct,
		op:    op,
	}
}

func (i *aluR3) ID(ctx *Context) (bool, error) {
	rs := ctx.Regs.GPR[i.params[1]]
	rt := ctx.Regs.GPR[i.params[2]]
	if rs.WriteSemaphore() > 0 || rt.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = rs.Value()
	i.tr[1] = rt.Value()
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *aluR3) EX(ctx *Context) error {
	res, err := i.op(i.tr[0], i.tr[1])
	if err != nil {
		return err
	}
	i.tr[2] = res
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *aluR3) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *aluR3) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *aluR3) Pack() error {
	i.repr = packRType(uint32(i.params[1]), uint32(i.params[2]), uint32(i.params[0]), 0, i.funct)
	return nil
}

// shiftImm is a shift by immediate amount: op rd, rt, sa.
type shiftImm struct {
	base
	funct uint32
	op    func(a int64, sa uint) int64
}

func newShiftImm(name string, funct uint32, op func(a int64, sa uint) int64) Instruction {
	return &shiftImm{
		base:  base{name: name, syntax: "%R,%R,%U"},
		funct: funct,
		op:    op,
	}
}

func (i *shiftImm) ID(ctx *Context) (bool, error) {
	rt := ctx.Regs.GPR[i.params[1]]
	if rt.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = rt.Value()
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *shiftImm) EX(ctx *Context) error {
	i.tr[2] = i.op(i.tr[0], uint(i.params[2])&0x3F)
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *shiftImm) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *shiftImm) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *shiftImm) Pack() error {
	i.repr = packRType(0, uint32(i.params[1]), uint32(i.params[0]), uint32(i.params[2])&0x1F, i.funct)
	return nil
}

// shiftVar is a shift by register amount: op rd, rt, rs.
type shiftVar struct {
	base
	funct uint32
	op    func(a int64, sa uint) int64
}

func newShiftVar(name string, funct uint32, op func(a int64, sa uint) int64) Instruction {
	return &shiftVar{
		base:  base{name: name, syntax: "%R,%R,%R"},
		funct: funct,
		op:    op,
	}
}

func (i *shiftVar) ID(ctx *Context) (bool, error) {
	rt := ctx.Regs.GPR[i.params[1]]
	rs := ctx.Regs.GPR[i.params[2]]
	if rt.WriteSemaphore() > 0 || rs.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = rt.Value()
	i.tr[1] = rs.Value()
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *shiftVar) EX(ctx *Context) error {
	i.tr[2] = i.op(i.tr[0], uint(i.tr[1])&0x3F)
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *shiftVar) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *shiftVar) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *shiftVar) Pack() error {
	i.repr = packRType(uint32(i.params[2]), uint32(i.params[1]), uint32(i.params[0]), 0, i.funct)
	return nil
}

// multDiv computes a doubleword product or quotient into HI/LO: op rs, rt.
type multDiv struct {
	base
	funct  uint32
	divide bool
}

func newMultDiv(name string, funct uint32, divide bool) Instruction {
	return &multDiv{
		base:   base{name: name, syntax: "%R,%R"},
		funct:  funct,
		divide: divide,
	}
}

func (i *multDiv) ID(ctx *Context) (bool, error) {
	rs := ctx.Regs.GPR[i.params[0]]
	rt := ctx.Regs.GPR[i.params[1]]
	if rs.WriteSemaphore() > 0 || rt.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = rs.Value()
	i.tr[1] = rt.Value()
	ctx.Regs.HI.IncrWriteSemaphore()
	ctx.Regs.LO.IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *multDiv) EX(ctx *Context) error {
	a, b := i.tr[0], i.tr[1]
	if i.divide {
		if b == 0 {
			return &SynchronousError{Code: CodeDivByZero}
		}
		i.tr[3] = a % b // HI
		i.tr[2] = a / b // LO
	} else {
		hi, lo := bits.Mul64(uint64(a), uint64(b))
		if a < 0 {
			hi -= uint64(b)
		}
		if b < 0 {
			hi -= uint64(a)
		}
		i.tr[3] = int64(hi)
		i.tr[2] = int64(lo)
	}
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *multDiv) commit(ctx *Context) {
	ctx.Regs.LO.WriteDoubleWord(i.tr[2])
	ctx.Regs.HI.WriteDoubleWord(i.tr[3])
	ctx.Regs.LO.DecrWriteSemaphore()
	ctx.Regs.HI.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *multDiv) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *multDiv) Pack() error {
	i.repr = packRType(uint32(i.params[0]), uint32(i.params[1]), 0, 0, i.funct)
	return nil
}

// moveHILO copies HI or LO into a GPR: op rd.
type moveHILO struct {
	base
	funct  uint32
	fromHI bool
}

func newMoveHILO(name string, funct uint32, fromHI bool) Instruction {
	return &moveHILO{
		base:   base{name: name, syntax: "%R"},
		funct:  funct,
		fromHI: fromHI,
	}
}

func (i *moveHILO) source(ctx *Context) *emu.Register {
	if i.fromHI {
		return ctx.Regs.HI
	}
	return ctx.Regs.LO
}

func (i *moveHILO) ID(ctx *Context) (bool, error) {
	src := i.source(ctx)
	if src.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[2] = src.Value()
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *moveHILO) EX(ctx *Context) error {
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *moveHILO) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *moveHILO) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *moveHILO) Pack() error {
	i.repr = packRType(0, 0, uint32(i.params[0]), 0, i.funct)
	return nil
}

// condMove conditionally copies rs into rd depending on rt: movz/movn. rd is
// also read in ID because a false condition leaves it unchanged.
type condMove struct {
	base
	funct  uint32
	onZero bool
}

func newCondMove(name string, funct uint32, onZero bool) Instruction {
	return &condMove{
		base:   base{name: name, syntax: "%R,%R,%R"},
		funct:  funct,
		onZero: onZero,
	}
}

func (i *condMove) ID(ctx *Context) (bool, error) {
	rd := ctx.Regs.GPR[i.params[0]]
	rs := ctx.Regs.GPR[i.params[1]]
	rt := ctx.Regs.GPR[i.params[2]]
	if rd.WriteSemaphore() > 0 || rs.WriteSemaphore() > 0 || rt.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = rs.Value()
	i.tr[1] = rt.Value()
	i.tr[2] = rd.Value()
	rd.IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *condMove) EX(ctx *Context) error {
	if (i.tr[1] == 0) == i.onZero {
		i.tr[2] = i.tr[0]
	}
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *condMove) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *condMove) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *condMove) Pack() error {
	i.repr = packRType(uint32(i.params[1]), uint32(i.params[2]), uint32(i.params[0]), 0, i.funct)
	return nil
}

func checkedAdd(a, b int64) (int64, error) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, &SynchronousError{Code: CodeIntegerOverflow}
	}
	return s, nil
}

func checkedSub(a, b int64) (int64, error) {
	d := a - b
	if (a >= 0 && b < 0 && d < 0) || (a < 0 && b > 0 && d >= 0) {
		return 0, &SynchronousError{Code: CodeIntegerOverflow}
	}
	return d, nil
}

func boolTo64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
