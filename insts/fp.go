package insts

import (
	"math"

	"github.com/edumips64/edumips64/emu"
)

const (
	opCOP1  = 0x11
	fmtD    = 0x11
	fmtL    = 0x15
	fmtMTC1 = 0x05
	fmtMFC1 = 0x01
)

func packCOP1(fmt, ft, fs, fd, funct uint32) uint32 {
	w := uint32(opCOP1) << 26
	w = emu.SetField(w, 25, 21, fmt)
	w = emu.SetField(w, 20, 16, ft)
	w = emu.SetField(w, 15, 11, fs)
	w = emu.SetField(w, 10, 6, fd)
	w = emu.SetField(w, 5, 0, funct)
	return w
}

// fpArith is a double-precision arithmetic instruction: op fd, fs, ft. It is
// dispatched into its functional unit at the end of ID; EX runs when the unit
// delivers it back to the integer pipeline. ID guards the destination with
// the WAW semaphore in addition to the usual write semaphore.
type fpArith struct {
	base
	funct uint32
	unit  FPUnit
	op    func(ctx *Context, a, b float64) (float64, error)
}

func newFPArith(name string, funct uint32, unit FPUnit, op func(ctx *Context, a, b float64) (float64, error)) Instruction {
	return &fpArith{
		base:  base{name: name, syntax: "%F,%F,%F"},
		funct: funct,
		unit:  unit,
		op:    op,
	}
}

func (i *fpArith) FPUnit() FPUnit { return i.unit }

func (i *fpArith) ID(ctx *Context) (bool, error) {
	fs := ctx.Regs.FPR[i.params[1]]
	ft := ctx.Regs.FPR[i.params[2]]
	if fs.WriteSemaphore() > 0 || ft.WriteSemaphore() > 0 {
		return true, nil
	}
	fd := ctx.Regs.FPR[i.params[0]]
	if fd.WAWSemaphore() > 0 {
		return false, &WAWSignal{Register: fd.Name()}
	}
	i.tr[0] = int64(fs.Bits())
	i.tr[1] = int64(ft.Bits())
	fd.IncrWriteSemaphore()
	fd.IncrWAWSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *fpArith) EX(ctx *Context) error {
	a := math.Float64frombits(uint64(i.tr[0]))
	b := math.Float64frombits(uint64(i.tr[1]))
	res, err := i.op(ctx, a, b)
	if err != nil {
		return err
	}
	i.tr[2] = int64(math.Float64bits(res))
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *fpArith) commit(ctx *Context) {
	dest := ctx.Regs.FPR[i.params[0]]
	dest.WriteBits(uint64(i.tr[2]))
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *fpArith) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	ctx.Regs.FPR[i.params[0]].DecrWAWSemaphore()
	return nil
}

func (i *fpArith) Pack() error {
	i.repr = packCOP1(fmtD, uint32(i.params[2]), uint32(i.params[1]), uint32(i.params[0]), i.funct)
	return nil
}

// fpInvalid flags or raises an invalid-operation condition per the FCSR.
func fpInvalid(ctx *Context) (float64, error) {
	if ctx.Regs.FCSR.Enabled(emu.FPInvalidOperation) {
		ctx.Regs.FCSR.SetCause(emu.FPInvalidOperation, true)
		return 0, &SynchronousError{Code: CodeFPInvalidOperation}
	}
	ctx.Regs.FCSR.SetFlag(emu.FPInvalidOperation, true)
	return math.NaN(), nil
}

func fpCheckResult(ctx *Context, res float64, aFinite, bFinite bool) (float64, error) {
	if math.IsInf(res, 0) && aFinite && bFinite {
		if ctx.Regs.FCSR.Enabled(emu.FPOverflow) {
			ctx.Regs.FCSR.SetCause(emu.FPOverflow, true)
			return 0, &SynchronousError{Code: CodeFPOverflow}
		}
		ctx.Regs.FCSR.SetFlag(emu.FPOverflow, true)
	}
	return res, nil
}

func fpAdd(ctx *Context, a, b float64) (float64, error) {
	if math.IsNaN(a) || math.IsNaN(b) {
		return fpInvalid(ctx)
	}
	return fpCheckResult(ctx, a+b, !math.IsInf(a, 0), !math.IsInf(b, 0))
}

func fpSub(ctx *Context, a, b float64) (float64, error) {
	if math.IsNaN(a) || math.IsNaN(b) {
		return fpInvalid(ctx)
	}
	return fpCheckResult(ctx, a-b, !math.IsInf(a, 0), !math.IsInf(b, 0))
}

func fpMul(ctx *Context, a, b float64) (float64, error) {
	if math.IsNaN(a) || math.IsNaN(b) {
		return fpInvalid(ctx)
	}
	return fpCheckResult(ctx, a*b, !math.IsInf(a, 0), !math.IsInf(b, 0))
}

func fpDiv(ctx *Context, a, b float64) (float64, error) {
	if math.IsNaN(a) || math.IsNaN(b) || (a == 0 && b == 0) {
		return fpInvalid(ctx)
	}
	if b == 0 {
		if ctx.Regs.FCSR.Enabled(emu.FPDivideByZero) {
			ctx.Regs.FCSR.SetCause(emu.FPDivideByZero, true)
			return 0, &SynchronousError{Code: CodeFPDivideByZero}
		}
		ctx.Regs.FCSR.SetFlag(emu.FPDivideByZero, true)
		return math.Inf(sign(a)), nil
	}
	return fpCheckResult(ctx, a/b, !math.IsInf(a, 0), !math.IsInf(b, 0))
}

func sign(a float64) int {
	if math.Signbit(a) {
		return -1
	}
	return 1
}

// fpMove copies one FPR into another through the integer pipeline:
// mov.d fd, fs.
type fpMove struct {
	base
}

func newFPMove() Instruction {
	return &fpMove{base: base{name: "mov.d", syntax: "%F,%F"}}
}

func (i *fpMove) ID(ctx *Context) (bool, error) {
	fs := ctx.Regs.FPR[i.params[1]]
	if fs.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[2] = int64(fs.Bits())
	ctx.Regs.FPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *fpMove) EX(ctx *Context) error {
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *fpMove) commit(ctx *Context) {
	dest := ctx.Regs.FPR[i.params[0]]
	dest.WriteBits(uint64(i.tr[2]))
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *fpMove) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *fpMove) Pack() error {
	i.repr = packCOP1(fmtD, 0, uint32(i.params[1]), uint32(i.params[0]), 0x06)
	return nil
}

// fpTransfer moves raw bits between a GPR and an FPR: dmtc1/dmfc1 rt, fs.
type fpTransfer struct {
	base
	toFPR bool
}

func newFPTransfer(name string, toFPR bool) Instruction {
	return &fpTransfer{
		base:  base{name: name, syntax: "%R,%F"},
		toFPR: toFPR,
	}
}

func (i *fpTransfer) ID(ctx *Context) (bool, error) {
	rt := ctx.Regs.GPR[i.params[0]]
	fs := ctx.Regs.FPR[i.params[1]]
	if i.toFPR {
		if rt.WriteSemaphore() > 0 {
			return true, nil
		}
		i.tr[2] = rt.Value()
		fs.IncrWriteSemaphore()
	} else {
		if fs.WriteSemaphore() > 0 {
			return true, nil
		}
		i.tr[2] = int64(fs.Bits())
		rt.IncrWriteSemaphore()
	}
	i.wroteEarly = false
	return false, nil
}

func (i *fpTransfer) EX(ctx *Context) error {
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *fpTransfer) commit(ctx *Context) {
	if i.toFPR {
		dest := ctx.Regs.FPR[i.params[1]]
		dest.WriteBits(uint64(i.tr[2]))
		dest.DecrWriteSemaphore()
	} else {
		dest := ctx.Regs.GPR[i.params[0]]
		dest.WriteDoubleWord(i.tr[2])
		dest.DecrWriteSemaphore()
	}
	i.wroteEarly = true
}

func (i *fpTransfer) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *fpTransfer) Pack() error {
	fmtField := uint32(fmtMFC1)
	if i.toFPR {
		fmtField = fmtMTC1
	}
	i.repr = packCOP1(fmtField, uint32(i.params[0]), uint32(i.params[1]), 0, 0)
	return nil
}

// fpConvert converts between 64-bit integers and doubles: cvt.d.l/cvt.l.d
// fd, fs. cvt.l.d honors the FCSR rounding mode.
type fpConvert struct {
	base
	toDouble bool
}

func newFPConvert(name string, toDouble bool) Instruction {
	return &fpConvert{
		base:     base{name: name, syntax: "%F,%F"},
		toDouble: toDouble,
	}
}

func (i *fpConvert) ID(ctx *Context) (bool, error) {
	fs := ctx.Regs.FPR[i.params[1]]
	if fs.WriteSemaphore() > 0 {
		return true, nil
	}
	i.tr[0] = int64(fs.Bits())
	ctx.Regs.FPR[i.params[0]].IncrWriteSemaphore()
	i.wroteEarly = false
	return false, nil
}

func (i *fpConvert) EX(ctx *Context) error {
	if i.toDouble {
		i.tr[2] = int64(math.Float64bits(float64(i.tr[0])))
	} else {
		f := math.Float64frombits(uint64(i.tr[0]))
		if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			if ctx.Regs.FCSR.Enabled(emu.FPInvalidOperation) {
				ctx.Regs.FCSR.SetCause(emu.FPInvalidOperation, true)
				return &SynchronousError{Code: CodeFPInvalidOperation}
			}
			ctx.Regs.FCSR.SetFlag(emu.FPInvalidOperation, true)
			i.tr[2] = math.MaxInt64
		} else {
			var r float64
			switch ctx.Regs.FCSR.GetRoundingMode() {
			case emu.RoundTowardZero:
				r = math.Trunc(f)
			case emu.RoundTowardPlusInfinity:
				r = math.Ceil(f)
			case emu.RoundTowardMinusInfinity:
				r = math.Floor(f)
			default:
				r = math.RoundToEven(f)
			}
			i.tr[2] = int64(r)
		}
	}
	if ctx.Config.Forwarding {
		i.commit(ctx)
	}
	return nil
}

func (i *fpConvert) commit(ctx *Context) {
	dest := ctx.Regs.FPR[i.params[0]]
	dest.WriteBits(uint64(i.tr[2]))
	dest.DecrWriteSemaphore()
	i.wroteEarly = true
}

func (i *fpConvert) WB(ctx *Context) error {
	if !i.wroteEarly {
		i.commit(ctx)
	}
	return nil
}

func (i *fpConvert) Pack() error {
	if i.toDouble {
		i.repr = packCOP1(fmtL, 0, uint32(i.params[1]), uint32(i.params[0]), 0x21)
	} else {
		i.repr = packCOP1(fmtD, 0, uint32(i.params[1]), uint32(i.params[0]), 0x25)
	}
	return nil
}
