package asm_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edumips64/edumips64/asm"
	"github.com/edumips64/edumips64/emu"
	"github.com/edumips64/edumips64/insts"
)

type parseResult struct {
	mem  *emu.Memory
	code *insts.CodeMemory
	sym  *emu.SymbolTable
	err  error
}

func parse(src string) parseResult {
	mem := emu.NewMemory()
	code := insts.NewCodeMemory()
	sym := emu.NewSymbolTable()
	p := asm.NewParser(mem, code, sym)
	return parseResult{mem: mem, code: code, sym: sym, err: p.Parse(src)}
}

func multi(err error) *asm.MultiError {
	var m *asm.MultiError
	ExpectWithOffset(1, errors.As(err, &m)).To(BeTrue(), "expected a MultiError, got %v", err)
	return m
}

var _ = Describe("Parser", func() {
	Describe("data section", func() {
		It("should store doublewords under their labels", func() {
			r := parse(`
.data
x: .word64 7
y: .word64 -1, 2
`)
			Expect(r.err).NotTo(HaveOccurred())

			xAddr, err := r.sym.CellAddress("x")
			Expect(err).NotTo(HaveOccurred())
			Expect(xAddr).To(Equal(uint64(0)))
			Expect(r.mem.ReadDouble(0)).To(Equal(uint64(7)))

			yAddr, err := r.sym.CellAddress("y")
			Expect(err).NotTo(HaveOccurred())
			Expect(yAddr).To(Equal(uint64(8)))
			Expect(r.mem.ReadDouble(8)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
			Expect(r.mem.ReadDouble(16)).To(Equal(uint64(2)))
		})

		It("should align each type naturally", func() {
			r := parse(`
.data
a: .byte 1
b: .word32 2
c: .word64 3
`)
			Expect(r.err).NotTo(HaveOccurred())
			bAddr, _ := r.sym.CellAddress("b")
			cAddr, _ := r.sym.CellAddress("c")
			Expect(bAddr).To(Equal(uint64(4)))
			Expect(cAddr).To(Equal(uint64(8)))
		})

		It("should treat .word as a doubleword", func() {
			r := parse(".data\nv: .word 9\n")
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.mem.ReadDouble(0)).To(Equal(uint64(9)))
		})

		It("should store double literals as IEEE bits", func() {
			r := parse(".data\nd: .double 2.5\n")
			Expect(r.err).NotTo(HaveOccurred())
			bits, _ := r.mem.ReadDouble(0)
			Expect(math.Float64frombits(bits)).To(Equal(2.5))
		})

		It("should store asciiz strings with a terminator", func() {
			r := parse(".data\ns: .asciiz \"hi\"\n")
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.mem.ReadByte(0)).To(Equal(uint8('h')))
			Expect(r.mem.ReadByte(1)).To(Equal(uint8('i')))
			Expect(r.mem.ReadByte(2)).To(Equal(uint8(0)))
		})

		It("should reserve bytes with .space", func() {
			r := parse(".data\n.space 16\nafter: .word64 1\n")
			Expect(r.err).NotTo(HaveOccurred())
			addr, _ := r.sym.CellAddress("after")
			Expect(addr).To(Equal(uint64(16)))
		})

		It("should reject out-of-range constants", func() {
			r := parse(".data\n.byte 300\n")
			Expect(multi(r.err).Errors).To(HaveLen(1))
		})
	})

	Describe("code section", func() {
		It("should load instructions at 4-byte addresses", func() {
			r := parse(`
.code
addi r1, r0, 5
add r2, r1, r1
halt
`)
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.Count()).To(Equal(3))
			Expect(r.code.At(0).Name()).To(Equal("addi"))
			Expect(r.code.At(4).Name()).To(Equal("add"))
			Expect(r.code.At(8).Name()).To(Equal("halt"))
			Expect(r.code.At(8).Repr()).To(Equal(insts.HaltRepr))
		})

		It("should accept .text as an alias of .code", func() {
			r := parse(".text\nhalt\n")
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.Count()).To(Equal(1))
		})

		It("should resolve code labels in a second pass", func() {
			r := parse(`
.code
j end
addi r1, r0, 1
end: halt
`)
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.At(0).Params()).To(Equal([]int64{8}))
		})

		It("should resolve data labels in load offsets", func() {
			r := parse(`
.data
x: .word64 7
.code
ld r1, x(r0)
halt
`)
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.At(0).Params()).To(Equal([]int64{1, 0, 0}))
		})

		It("should accept an empty offset", func() {
			r := parse(".code\nld r1, (r2)\nhalt\n")
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.At(0).Params()).To(Equal([]int64{1, 0, 2}))
		})

		It("should accept $-style register names", func() {
			r := parse(".code\nadd $3, $1, $2\nhalt\n")
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.At(0).Params()).To(Equal([]int64{3, 1, 2}))
		})

		It("should strip comments", func() {
			r := parse(".code ; section\naddi r1, r0, 1 ; set r1\nhalt\n")
			Expect(r.err).NotTo(HaveOccurred())
			Expect(r.code.Count()).To(Equal(2))
		})

		It("should reject syscalls other than 0", func() {
			r := parse(".code\nsyscall 5\n")
			Expect(multi(r.err).Errors).NotTo(BeEmpty())
		})
	})

	Describe("emit round-trip", func() {
		It("should reparse its own output into the same instruction sequence", func() {
			r := parse(`
.data
x: .word64 7
.code
start: ld r1, x(r0)
add r2, r1, r1
beq r1, r2, start
halt
`)
			Expect(r.err).NotTo(HaveOccurred())

			again := parse(asm.Emit(r.code))
			Expect(again.err).NotTo(HaveOccurred())
			Expect(again.code.Count()).To(Equal(r.code.Count()))
			for addr := uint32(0); addr < uint32(r.code.Count())*4; addr += 4 {
				Expect(again.code.At(addr).Name()).To(Equal(r.code.At(addr).Name()))
				Expect(again.code.At(addr).Params()).To(Equal(r.code.At(addr).Params()))
				Expect(again.code.At(addr).Repr()).To(Equal(r.code.At(addr).Repr()))
			}
		})
	})

	Describe("error accumulation", func() {
		It("should collect every diagnostic before failing", func() {
			r := parse(`
.code
frobnicate r1, r2
addi r1, r0
beq r1, r2, missing
halt
`)
			m := multi(r.err)
			Expect(len(m.Errors)).To(Equal(3))
		})

		It("should report duplicate labels", func() {
			r := parse(`
.data
x: .word64 1
x: .word64 2
`)
			Expect(multi(r.err).Errors).To(HaveLen(1))
		})

		It("should report operand kind mismatches", func() {
			r := parse(".code\nadd r1, 5, r2\nhalt\n")
			Expect(multi(r.err).Errors).NotTo(BeEmpty())
		})

		It("should report statements outside a section", func() {
			r := parse("addi r1, r0, 1\n")
			Expect(multi(r.err).Errors).NotTo(BeEmpty())
		})
	})
})
