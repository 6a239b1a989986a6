package emu

// FPException identifies one of the five IEEE exception conditions tracked by
// the FCSR enable, cause and flag fields.
type FPException int

// FCSR exception conditions.
const (
	FPInvalidOperation FPException = iota
	FPDivideByZero
	FPOverflow
	FPUnderflow
	FPInexact
	numFPExceptions
)

// RoundingMode selects the FP rounding behavior for conversions.
type RoundingMode int

// FCSR rounding modes.
const (
	RoundToNearest RoundingMode = iota
	RoundTowardZero
	RoundTowardPlusInfinity
	RoundTowardMinusInfinity
)

// FCSR is the floating point control and status register: five enable bits,
// five cause bits, five flag bits, eight condition codes and the rounding
// mode.
type FCSR struct {
	enables [numFPExceptions]bool
	cause   [numFPExceptions]bool
	flags   [numFPExceptions]bool
	cc      [8]bool
	rm      RoundingMode
}

// NewFCSR creates an FCSR in its power-on state (round to nearest, nothing
// enabled).
func NewFCSR() *FCSR {
	return &FCSR{}
}

// SetEnabled enables or disables trapping for the given exception.
func (f *FCSR) SetEnabled(ex FPException, on bool) { f.enables[ex] = on }

// Enabled reports whether the given exception traps.
func (f *FCSR) Enabled(ex FPException) bool { return f.enables[ex] }

// SetCause records the cause bit for the given exception.
func (f *FCSR) SetCause(ex FPException, on bool) { f.cause[ex] = on }

// Cause returns the cause bit for the given exception.
func (f *FCSR) Cause(ex FPException) bool { return f.cause[ex] }

// SetFlag records the sticky flag for the given exception.
func (f *FCSR) SetFlag(ex FPException, on bool) { f.flags[ex] = on }

// Flag returns the sticky flag for the given exception.
func (f *FCSR) Flag(ex FPException) bool { return f.flags[ex] }

// SetConditionCode sets condition code cc in [0,7].
func (f *FCSR) SetConditionCode(cc int, on bool) { f.cc[cc] = on }

// ConditionCode returns condition code cc in [0,7].
func (f *FCSR) ConditionCode(cc int) bool { return f.cc[cc] }

// SetRoundingMode selects the rounding mode.
func (f *FCSR) SetRoundingMode(rm RoundingMode) { f.rm = rm }

// GetRoundingMode returns the current rounding mode.
func (f *FCSR) GetRoundingMode() RoundingMode { return f.rm }

// Word assembles the 32-bit architectural view of the register: flags in
// [6:2], enables in [11:7], cause in [16:12], condition codes in [24:17]
// (FCC0 at bit 23 per MIPS64, remaining codes at [31:25] collapsed here to a
// contiguous run) and the rounding mode in [1:0].
func (f *FCSR) Word() uint32 {
	var w uint32
	w |= uint32(f.rm) & 0x3
	for i := 0; i < int(numFPExceptions); i++ {
		if f.flags[i] {
			w |= 1 << (2 + uint(i))
		}
		if f.enables[i] {
			w |= 1 << (7 + uint(i))
		}
		if f.cause[i] {
			w |= 1 << (12 + uint(i))
		}
	}
	for i := 0; i < 8; i++ {
		if f.cc[i] {
			w |= 1 << (17 + uint(i))
		}
	}
	return w
}

// Reset clears every field.
func (f *FCSR) Reset() {
	*f = FCSR{}
}
