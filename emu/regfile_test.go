package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edumips64/edumips64/emu"
)

var _ = Describe("Register", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = emu.NewRegFile()
	})

	Describe("R0", func() {
		It("should read as zero after any write", func() {
			rf.GPR[0].WriteDoubleWord(42)
			Expect(rf.GPR[0].Value()).To(Equal(int64(0)))
		})

		It("should keep its semaphores at zero", func() {
			rf.GPR[0].IncrWriteSemaphore()
			rf.GPR[0].IncrWAWSemaphore()
			Expect(rf.GPR[0].WriteSemaphore()).To(Equal(0))
			Expect(rf.GPR[0].WAWSemaphore()).To(Equal(0))
		})
	})

	Describe("width-checked writes", func() {
		It("should accept values in the signed 32-bit range", func() {
			Expect(rf.GPR[1].WriteWord(-(1 << 31))).To(Succeed())
			Expect(rf.GPR[1].Value()).To(Equal(int64(-(1 << 31))))
		})

		It("should reject word writes outside the signed range", func() {
			err := rf.GPR[1].WriteWord(1 << 40)
			var irr *emu.IrregularWriteError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &irr)).To(BeTrue())
		})

		It("should reject oversized half and byte writes", func() {
			Expect(rf.GPR[1].WriteHalf(1 << 20)).To(HaveOccurred())
			Expect(rf.GPR[1].WriteByte(300)).To(HaveOccurred())
		})
	})

	Describe("semaphores", func() {
		It("should count in-flight writers", func() {
			r := rf.GPR[5]
			r.IncrWriteSemaphore()
			r.IncrWriteSemaphore()
			Expect(r.WriteSemaphore()).To(Equal(2))
			r.DecrWriteSemaphore()
			Expect(r.WriteSemaphore()).To(Equal(1))
		})
	})

	Describe("FP registers", func() {
		It("should round-trip doubles through raw bits", func() {
			rf.FPR[2].WriteDouble(3.25)
			Expect(rf.FPR[2].Double()).To(Equal(3.25))
			bits := rf.FPR[2].Bits()
			rf.FPR[3].WriteBits(bits)
			Expect(rf.FPR[3].Double()).To(Equal(3.25))
		})
	})

	Describe("Reset", func() {
		It("should clear values and semaphores", func() {
			rf.GPR[7].WriteDoubleWord(99)
			rf.GPR[7].IncrWriteSemaphore()
			rf.PC.WriteDoubleWord(0x40)
			rf.Reset()
			Expect(rf.GPR[7].Value()).To(Equal(int64(0)))
			Expect(rf.GPR[7].WriteSemaphore()).To(Equal(0))
			Expect(rf.PC.Value()).To(Equal(int64(0)))
		})
	})
})

var _ = Describe("FCSR", func() {
	It("should track flags, cause bits and condition codes", func() {
		f := emu.NewFCSR()
		f.SetFlag(emu.FPDivideByZero, true)
		f.SetCause(emu.FPInvalidOperation, true)
		f.SetConditionCode(3, true)
		Expect(f.Flag(emu.FPDivideByZero)).To(BeTrue())
		Expect(f.Cause(emu.FPInvalidOperation)).To(BeTrue())
		Expect(f.ConditionCode(3)).To(BeTrue())
		Expect(f.ConditionCode(4)).To(BeFalse())
	})

	It("should default to round-to-nearest", func() {
		f := emu.NewFCSR()
		Expect(f.GetRoundingMode()).To(Equal(emu.RoundToNearest))
	})

	It("should assemble a 32-bit view", func() {
		f := emu.NewFCSR()
		f.SetRoundingMode(emu.RoundTowardZero)
		f.SetFlag(emu.FPInvalidOperation, true)
		w := f.Word()
		Expect(w & 0x3).To(Equal(uint32(emu.RoundTowardZero)))
		Expect(w & (1 << 2)).NotTo(BeZero())
	})
})
