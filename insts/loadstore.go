package insts

import "github.com/edumips64/edumips64/emu"

// load reads memory in MEM and writes a GPR: op rt, offset(base). The loaded
// value is committed in WB, or at the end of MEM when forwarding is enabled.
// A dependent instruction one cycle behind therefore stalls for one cycle
// with forwarding (load-use hazard) and for two cycles without it.
type load struct {
	base
	opcode   uint32
	width    int
	unsigned bool
}

func newLoad(name string, opcode uint32, width int, unsigned bool) Instruction {
	return &load{
		base:     base{name: name, syntax: "%R,%L(%R)"},
		opcode:   opcode,
		width:    width,
		unsigned: unsigned,
	}
}

func (i *load) ID(ctx *Context) (bool, error) {
	baseReg := ctx.Regs.GPR[i.params[2]]
	if baseReg.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = baseReg.Value()
	ctx.Regs.GPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *load) EX(*Context) error {
	i.tr[1] = i.tr[0] + i.params[1]
	return nil
}

func (i *load) MEM(ctx *Context) error {
	addr := uint64(i.tr[1])
	var v uint64
	switch i.width {
	case 1:
		b, err := ctx.Mem.ReadByte(addr)
		if err != nil {
			return err
		}
		v = uint64(b)
	case 2:
		h, err := ctx.Mem.ReadHalf(addr)
		if err != nil {
			return err
		}
		v = uint64(h)
	case 4:
		w, err := ctx.Mem.ReadWord(addr)
		if err != nil {
			return err
		}
		v = uint64(w)
	default:
		d, err := ctx.Mem.ReadDouble(addr)
		if err != nil {
			return err
		}
		v = d
	}
	if i.unsigned || i.width == 8 {
		i.tr[2] = int64(v)
	} else {
		i.tr[2] = emu.SignExtend(v, uint(i.width)*8)
	}
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *load) commit(ctx *Context) {
	dest := ctx.Regs.GPR[i.params[0]]
	dest.WriteDoubleWord(i.tr[2])
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *load) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *load) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[2]), uint32(i.params[0]), i.params[1])
	return nil
}

// store writes memory in MEM: op rt, offset(base). WB is empty.
type store struct {
	base
	opcode uint32
	width  int
}

func newStore(name string, opcode uint32, width int) Instruction {
	return &store{
		base:   base{name: name, syntax: "%R,%L(%R)"},
		opcode: opcode,
		width:  width,
	}
}

func (i *store) ID(ctx *Context) (bool, error) {
	baseReg := ctx.Regs.GPR[i.params[2]]
	src := ctx.Regs.GPR[i.params[0]]
	if baseReg.WriteSemaphore() > 0 || src.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = baseReg.Value()
	i.tr[1] = src.Value()
	return false, nil
}

func (i *store) EX(*Context) error {
	i.tr[2] = i.tr[0] + i.params[1]
	return nil
}

func (i *store) MEM(ctx *Context) error {
	addr := uint64(i.tr[2])
	switch i.width {
	case 1:
		return ctx.Mem.WriteByte(addr, uint8(i.tr[1]))
	case 2:
		return ctx.Mem.WriteHalf(addr, uint16(i.tr[1]))
	case 4:
		return ctx.Mem.WriteWord(addr, uint32(i.tr[1]))
	default:
		return ctx.Mem.WriteDouble(addr, uint64(i.tr[1]))
	}
}

func (i *store) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[2]), uint32(i.params[0]), i.params[1])
	return nil
}

// loadFP loads a doubleword into an FPR: l.d ft, offset(base).
type loadFP struct {
	base
	opcode uint32
}

func newLoadFP(name string, opcode uint32) Instruction {
	return &loadFP{
		base:   base{name: name, syntax: "%F,%L(%R)"},
		opcode: opcode,
	}
}

func (i *loadFP) ID(ctx *Context) (bool, error) {
	baseReg := ctx.Regs.GPR[i.params[2]]
	if baseReg.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = baseReg.Value()
	ctx.Regs.FPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *loadFP) EX(*Context) error {
	i.tr[1] = i.tr[0] + i.params[1]
	return nil
}

func (i *loadFP) MEM(ctx *Context) error {
	v, err := ctx.Mem.ReadDouble(uint64(i.tr[1]))
	if err != nil {
		return err
	}
	i.tr[2] = int64(v)
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *loadFP) commit(ctx *Context) {
	dest := ctx.Regs.FPR[i.params[0]]
	dest.WriteBits(uint64(i.tr[2]))
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *loadFP) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *loadFP) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[2]), uint32(i.params[0]), i.params[1])
	return nil
}

// storeFP stores an FPR doubleword: s.d ft, offset(base).
type storeFP struct {
	base
	opcode uint32
}

func newStoreFP(name string, opcode uint32) Instruction {
	return &storeFP{
		base:   base{name: name, syntax: "%F,%L(%R)"},
		opcode: opcode,
	}
}

func (i *storeFP) ID(ctx *Context) (bool, error) {
	baseReg := ctx.Regs.GPR[i.params[2]]
	src := ctx.Regs.FPR[i.params[0]]
	if baseReg.WriteSemaphore() > 0 || src.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = baseReg.Value()
	i.tr[1] = int64(src.Bits())
	return false, nil
}

func (i *storeFP) EX(*Context) error {
	i.tr[2] = i.tr[0] + i.params[1]
	return nil
}

func (i *storeFP) MEM(ctx *Context) error {
	return ctx.Mem.WriteDouble(uint64(i.tr[2]), uint64(i.tr[1]))
}

func (i *storeFP) Pack() error {
	i.repr = packIType(i.opcode, uint32(i.params[2]), uint32(i.params[0]), i.params[1])
	return nil
}
