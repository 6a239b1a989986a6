package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edumips64/edumips64/emu"
)

var _ = Describe("Memory", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory()
	})

	It("should round-trip every access width", func() {
		Expect(m.WriteDouble(0, 0x1122334455667788)).To(Succeed())
		Expect(m.ReadDouble(0)).To(Equal(uint64(0x1122334455667788)))

		Expect(m.WriteWord(8, 0xCAFEBABE)).To(Succeed())
		Expect(m.ReadWord(8)).To(Equal(uint32(0xCAFEBABE)))

		Expect(m.WriteHalf(16, 0xBEEF)).To(Succeed())
		Expect(m.ReadHalf(16)).To(Equal(uint16(0xBEEF)))

		Expect(m.WriteByte(24, 0x7F)).To(Succeed())
		Expect(m.ReadByte(24)).To(Equal(uint8(0x7F)))
	})

	It("should lay out bytes big-endian within a doubleword", func() {
		Expect(m.WriteDouble(0, 0x1122334455667788)).To(Succeed())
		Expect(m.ReadByte(0)).To(Equal(uint8(0x11)))
		Expect(m.ReadByte(7)).To(Equal(uint8(0x88)))
		Expect(m.ReadWord(4)).To(Equal(uint32(0x55667788)))
	})

	It("should reject misaligned accesses", func() {
		_, err := m.ReadDouble(4)
		var align *emu.NotAlignError
		Expect(errors.As(err, &align)).To(BeTrue())

		_, err = m.ReadWord(2)
		Expect(errors.As(err, &align)).To(BeTrue())

		Expect(m.WriteHalf(1, 0)).To(HaveOccurred())
	})

	It("should reject out-of-bounds accesses", func() {
		_, err := m.ReadDouble(m.Size())
		var addr *emu.AddressError
		Expect(errors.As(err, &addr)).To(BeTrue())
		Expect(m.WriteByte(m.Size(), 1)).To(HaveOccurred())
	})

	It("should zero everything on reset", func() {
		Expect(m.WriteDouble(0, 42)).To(Succeed())
		m.Reset()
		Expect(m.ReadDouble(0)).To(Equal(uint64(0)))
	})
})

var _ = Describe("SymbolTable", func() {
	var t *emu.SymbolTable

	BeforeEach(func() {
		t = emu.NewSymbolTable()
	})

	It("should resolve labels case-insensitively", func() {
		Expect(t.SetCellLabel(16, "Value")).To(Succeed())
		addr, err := t.CellAddress("VALUE")
		Expect(err).NotTo(HaveOccurred())
		Expect(addr).To(Equal(uint64(16)))
	})

	It("should reject duplicate labels", func() {
		Expect(t.SetCellLabel(0, "x")).To(Succeed())
		err := t.SetInstructionLabel(4, "X")
		var dup *emu.SameLabelsError
		Expect(errors.As(err, &dup)).To(BeTrue())
	})

	It("should keep instruction and cell namespaces apart on lookup", func() {
		Expect(t.SetInstructionLabel(8, "loop")).To(Succeed())
		_, err := t.CellAddress("loop")
		var missing *emu.MemoryElementNotFoundError
		Expect(errors.As(err, &missing)).To(BeTrue())

		addr, err := t.InstructionAddress("loop")
		Expect(err).NotTo(HaveOccurred())
		Expect(addr).To(Equal(uint64(8)))
	})
})

var _ = Describe("bit helpers", func() {
	It("should sign extend", func() {
		Expect(emu.SignExtend(0xFFFF, 16)).To(Equal(int64(-1)))
		Expect(emu.SignExtend(0x7FFF, 16)).To(Equal(int64(32767)))
		Expect(emu.SignExtend(0x80, 8)).To(Equal(int64(-128)))
	})

	It("should check value ranges", func() {
		Expect(emu.FitsSigned(32767, 16)).To(BeTrue())
		Expect(emu.FitsSigned(32768, 16)).To(BeFalse())
		Expect(emu.FitsSigned(-32768, 16)).To(BeTrue())
		Expect(emu.FitsUnsigned(65535, 16)).To(BeTrue())
		Expect(emu.FitsUnsigned(-1, 16)).To(BeFalse())
	})

	It("should insert and extract fields", func() {
		w := emu.SetField(0, 25, 21, 0x1F)
		Expect(emu.Field(w, 25, 21)).To(Equal(uint32(0x1F)))
		Expect(emu.Field(w, 20, 16)).To(Equal(uint32(0)))
	})
})
