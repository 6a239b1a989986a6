package insts

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// UnknownInstructionError reports a mnemonic the factory does not know.
type UnknownInstructionError struct {
	Mnemonic string
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction %q", e.Mnemonic)
}

var builders = map[string]func() Instruction{
	// ALU R-type
	"add": func() Instruction { return newALUR3("add", 0x20, checkedAdd) },
	"addu": func() Instruction {
		return newALUR3("addu", 0x21, func(a, b int64) (int64, error) { return a + b, nil })
	},
	"sub": func() Instruction { return newALUR3("sub", 0x22, checkedSub) },
	"subu": func() Instruction {
		return newALUR3("subu", 0x23, func(a, b int64) (int64, error) { return a - b, nil })
	},
	"and": func() Instruction {
		return newALUR3("and", 0x24, func(a, b int64) (int64, error) { return a & b, nil })
	},
	"or": func() Instruction { return newALUR3("or", 0x25, func(a, b int64) (int64, error) { return a | b, nil }) },
	"xor": func() Instruction {
		return newALUR3("xor", 0x26, func(a, b int64) (int64, error) { return a ^ b, nil })
	},
	"nor": func() Instruction {
		return newALUR3("nor", 0x27, func(a, b int64) (int64, error) { return ^(a | b), nil })
	},
	"slt": func() Instruction {
		return newALUR3("slt", 0x2A, func(a, b int64) (int64, error) { return boolTo64(a < b), nil })
	},
	"sltu": func() Instruction {
		return newALUR3("sltu", 0x2B, func(a, b int64) (int64, error) { return boolTo64(uint64(a) < uint64(b)), nil })
	},

	// Shifts
	"sll": func() Instruction { return newShiftImm("sll", 0x00, func(a int64, sa uint) int64 { return a << sa }) },
	"srl": func() Instruction {
		return newShiftImm("srl", 0x02, func(a int64, sa uint) int64 { return int64(uint64(a) >> sa) })
	},
	"sra":  func() Instruction { return newShiftImm("sra", 0x03, func(a int64, sa uint) int64 { return a >> sa }) },
	"sllv": func() Instruction { return newShiftVar("sllv", 0x04, func(a int64, sa uint) int64 { return a << sa }) },
	"srlv": func() Instruction {
		return newShiftVar("srlv", 0x06, func(a int64, sa uint) int64 { return int64(uint64(a) >> sa) })
	},
	"srav": func() Instruction { return newShiftVar("srav", 0x07, func(a int64, sa uint) int64 { return a >> sa }) },

	// HI/LO
	"mult": func() Instruction { return newMultDiv("mult", 0x18, false) },
	"div":  func() Instruction { return newMultDiv("div", 0x1A, true) },
	"mfhi": func() Instruction { return newMoveHILO("mfhi", 0x10, true) },
	"mflo": func() Instruction { return newMoveHILO("mflo", 0x12, false) },

	// Conditional moves
	"movz": func() Instruction { return newCondMove("movz", 0x0A, true) },
	"movn": func() Instruction { return newCondMove("movn", 0x0B, false) },

	// ALU I-type
	"addi": func() Instruction { return newALUI("addi", 0x08, false, checkedAdd) },
	"addiu": func() Instruction {
		return newALUI("addiu", 0x09, false, func(a, imm int64) (int64, error) { return a + imm, nil })
	},
	"slti": func() Instruction {
		return newALUI("slti", 0x0A, false, func(a, imm int64) (int64, error) { return boolTo64(a < imm), nil })
	},
	"sltiu": func() Instruction {
		return newALUI("sltiu", 0x0B, false, func(a, imm int64) (int64, error) { return boolTo64(uint64(a) < uint64(imm)), nil })
	},
	"andi": func() Instruction {
		return newALUI("andi", 0x0C, true, func(a, imm int64) (int64, error) { return a & (imm & 0xFFFF), nil })
	},
	"ori": func() Instruction {
		return newALUI("ori", 0x0D, true, func(a, imm int64) (int64, error) { return a | (imm & 0xFFFF), nil })
	},
	"xori": func() Instruction {
		return newALUI("xori", 0x0E, true, func(a, imm int64) (int64, error) { return a ^ (imm & 0xFFFF), nil })
	},
	"lui": newLUI,

	// Loads
	"lb":  func() Instruction { return newLoad("lb", 0x20, 1, false) },
	"lbu": func() Instruction { return newLoad("lbu", 0x24, 1, true) },
	"lh":  func() Instruction { return newLoad("lh", 0x21, 2, false) },
	"lhu": func() Instruction { return newLoad("lhu", 0x25, 2, true) },
	"lw":  func() Instruction { return newLoad("lw", 0x23, 4, false) },
	"lwu": func() Instruction { return newLoad("lwu", 0x27, 4, true) },
	"ld":  func() Instruction { return newLoad("ld", 0x37, 8, false) },

	// Stores
	"sb": func() Instruction { return newStore("sb", 0x28, 1) },
	"sh": func() Instruction { return newStore("sh", 0x29, 2) },
	"sw": func() Instruction { return newStore("sw", 0x2B, 4) },
	"sd": func() Instruction { return newStore("sd", 0x3F, 8) },

	// FP loads/stores
	"l.d":  func() Instruction { return newLoadFP("l.d", 0x35) },
	"ldc1": func() Instruction { return newLoadFP("l.d", 0x35) },
	"s.d":  func() Instruction { return newStoreFP("s.d", 0x3D) },
	"sdc1": func() Instruction { return newStoreFP("s.d", 0x3D) },

	// Branches and jumps
	"beq":  func() Instruction { return newBranchCmp("beq", 0x04, func(a, b int64) bool { return a == b }) },
	"bne":  func() Instruction { return newBranchCmp("bne", 0x05, func(a, b int64) bool { return a != b }) },
	"beqz": func() Instruction { return newBranchZero("beqz", 0x04, 0, false, func(a int64) bool { return a == 0 }) },
	"bnez": func() Instruction { return newBranchZero("bnez", 0x05, 0, false, func(a int64) bool { return a != 0 }) },
	"bltz": func() Instruction {
		return newBranchZero("bltz", opRegImm, 0x00, true, func(a int64) bool { return a < 0 })
	},
	"bgez": func() Instruction {
		return newBranchZero("bgez", opRegImm, 0x01, true, func(a int64) bool { return a >= 0 })
	},
	"b":    newB,
	"j":    func() Instruction { return newJump("j", 0x02, false) },
	"jal":  func() Instruction { return newJump("jal", 0x03, true) },
	"jr":   func() Instruction { return newJumpReg("jr", 0x08, false) },
	"jalr": func() Instruction { return newJumpReg("jalr", 0x09, true) },

	// FP arithmetic
	"add.d": func() Instruction { return newFPArith("add.d", 0x00, FPUnitAdder, fpAdd) },
	"sub.d": func() Instruction { return newFPArith("sub.d", 0x01, FPUnitAdder, fpSub) },
	"mul.d": func() Instruction { return newFPArith("mul.d", 0x02, FPUnitMultiplier, fpMul) },
	"div.d": func() Instruction { return newFPArith("div.d", 0x03, FPUnitDivider, fpDiv) },

	// FP moves and conversions
	"mov.d":   newFPMove,
	"dmtc1":   func() Instruction { return newFPTransfer("dmtc1", true) },
	"dmfc1":   func() Instruction { return newFPTransfer("dmfc1", false) },
	"cvt.d.l": func() Instruction { return newFPConvert("cvt.d.l", true) },
	"cvt.l.d": func() Instruction { return newFPConvert("cvt.l.d", false) },

	// Control
	"halt":    newHalt,
	"syscall": newSyscall,
	"break":   newBreak,
	"trap":    newTrap,
	"nop":     newNop,
}

// New builds a fresh instruction for the given mnemonic. Lookup is
// case-insensitive.
func New(mnemonic string) (Instruction, error) {
	build, ok := builders[strings.ToLower(mnemonic)]
	if !ok {
		logrus.WithField("mnemonic", mnemonic).Debug("unknown mnemonic")
		return nil, &UnknownInstructionError{Mnemonic: mnemonic}
	}
	return build(), nil
}

// Known reports whether the mnemonic names an instruction.
func Known(mnemonic string) bool {
	_, ok := builders[strings.ToLower(mnemonic)]
	return ok
}
