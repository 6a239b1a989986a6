package emu

import (
	"fmt"
	"math"
)

// Register is a named 64-bit general purpose register. It carries a write
// semaphore counting in-flight writers, used by the pipeline for RAW hazard
// detection: ID increments it when an instruction is dispatched, WB (or EX/MEM
// when forwarding is enabled) decrements it when the value is committed.
//
// The zero register R0 discards writes, reads as zero and keeps its
// semaphores pinned at zero.
type Register struct {
	name    string
	value   int64
	zero    bool
	writers int
	waw     int
}

// NewRegister creates a register with the given display name.
func NewRegister(name string) *Register {
	return &Register{name: name}
}

func newZeroRegister(name string) *Register {
	return &Register{name: name, zero: true}
}

// Name returns the register's display name.
func (r *Register) Name() string { return r.name }

// Value returns the full 64-bit signed value.
func (r *Register) Value() int64 {
	if r.zero {
		return 0
	}
	return r.value
}

// Bits returns the raw 64-bit contents.
func (r *Register) Bits() uint64 { return uint64(r.Value()) }

// WriteDoubleWord stores a full 64-bit value.
func (r *Register) WriteDoubleWord(v int64) {
	if r.zero {
		return
	}
	r.value = v
}

// WriteBits stores raw 64-bit contents.
func (r *Register) WriteBits(v uint64) { r.WriteDoubleWord(int64(v)) }

// WriteWord stores a sign-extended 32-bit value. Values outside the signed
// 32-bit range fail with IrregularWriteError.
func (r *Register) WriteWord(v int64) error {
	if !FitsSigned(v, 32) {
		return &IrregularWriteError{Register: r.name, Width: 32, Value: v}
	}
	r.WriteDoubleWord(v)
	return nil
}

// WriteWordUnsigned stores a zero-extended 32-bit value.
func (r *Register) WriteWordUnsigned(v uint32) {
	r.WriteDoubleWord(int64(v))
}

// WriteHalf stores a sign-extended 16-bit value.
func (r *Register) WriteHalf(v int64) error {
	if !FitsSigned(v, 16) {
		return &IrregularWriteError{Register: r.name, Width: 16, Value: v}
	}
	r.WriteDoubleWord(v)
	return nil
}

// WriteByte stores a sign-extended 8-bit value.
func (r *Register) WriteByte(v int64) error {
	if !FitsSigned(v, 8) {
		return &IrregularWriteError{Register: r.name, Width: 8, Value: v}
	}
	r.WriteDoubleWord(v)
	return nil
}

// IncrWriteSemaphore records an in-flight writer.
func (r *Register) IncrWriteSemaphore() {
	if r.zero {
		return
	}
	r.writers++
}

// DecrWriteSemaphore releases an in-flight writer.
func (r *Register) DecrWriteSemaphore() {
	if r.zero {
		return
	}
	if r.writers > 0 {
		r.writers--
	}
}

// WriteSemaphore returns the number of in-flight writers.
func (r *Register) WriteSemaphore() int { return r.writers }

// IncrWAWSemaphore records an in-flight FP writer for WAW detection.
func (r *Register) IncrWAWSemaphore() {
	if r.zero {
		return
	}
	r.waw++
}

// DecrWAWSemaphore releases an in-flight FP writer.
func (r *Register) DecrWAWSemaphore() {
	if r.zero {
		return
	}
	if r.waw > 0 {
		r.waw--
	}
}

// WAWSemaphore returns the number of in-flight FP writers.
func (r *Register) WAWSemaphore() int { return r.waw }

// Reset restores the register to its power-on state.
func (r *Register) Reset() {
	r.value = 0
	r.writers = 0
	r.waw = 0
}

func (r *Register) String() string {
	return fmt.Sprintf("%s=0x%016X", r.name, uint64(r.Value()))
}

// RegisterFP is a 64-bit floating point register. Contents are raw IEEE-754
// double bits so that dmtc1/dmfc1 moves are exact.
type RegisterFP struct {
	Register
}

// NewRegisterFP creates an FP register with the given display name.
func NewRegisterFP(name string) *RegisterFP {
	return &RegisterFP{Register: Register{name: name}}
}

// Double returns the contents interpreted as a float64.
func (r *RegisterFP) Double() float64 {
	return math.Float64frombits(r.Bits())
}

// WriteDouble stores a float64.
func (r *RegisterFP) WriteDouble(v float64) {
	r.WriteBits(math.Float64bits(v))
}

// RegFile is the full architectural register file: 32 GPRs (R0 hardwired to
// zero), 32 FPRs, PC, the previous PC, HI, LO and the FCSR.
type RegFile struct {
	GPR   [32]*Register
	FPR   [32]*RegisterFP
	PC    *Register
	OldPC *Register
	HI    *Register
	LO    *Register
	FCSR  *FCSR
}

// NewRegFile creates a register file in its power-on state.
func NewRegFile() *RegFile {
	rf := &RegFile{
		PC:    NewRegister("PC"),
		OldPC: NewRegister("Old PC"),
		HI:    NewRegister("HI"),
		LO:    NewRegister("LO"),
		FCSR:  NewFCSR(),
	}
	rf.GPR[0] = newZeroRegister("R0")
	for i := 1; i < 32; i++ {
		rf.GPR[i] = NewRegister(fmt.Sprintf("R%d", i))
	}
	for i := 0; i < 32; i++ {
		rf.FPR[i] = NewRegisterFP(fmt.Sprintf("F%d", i))
	}
	return rf
}

// Reset restores every register to its power-on state.
func (rf *RegFile) Reset() {
	for _, r := range rf.GPR {
		r.Reset()
	}
	for _, r := range rf.FPR {
		r.Reset()
	}
	rf.PC.Reset()
	rf.OldPC.Reset()
	rf.HI.Reset()
	rf.LO.Reset()
	rf.FCSR.Reset()
}
