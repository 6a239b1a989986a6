package insts

import (
	"fmt"

	"github.com/edumips64/edumips64/emu"
)

// UnknownEncodingError reports a 32-bit word that does not decode to any
// known instruction.
type UnknownEncodingError struct {
	Word uint32
}

func (e *UnknownEncodingError) Error() string {
	return fmt.Sprintf("cannot decode word 0x%08X", e.Word)
}

// Decode reverses Pack: it rebuilds a decoded instruction from its 32-bit
// encoding and code address. Aliased encodings decode to their canonical
// form (beq with rt=r0 decodes as beqz, beq r0,r0 as b).
func Decode(word uint32, addr uint32) (Instruction, error) {
	name, params, err := decodeFields(word, addr)
	if err != nil {
		return nil, err
	}
	inst, err := New(name)
	if err != nil {
		return nil, err
	}
	inst.SetParams(params)
	inst.SetAddress(addr)
	if err := inst.Pack(); err != nil {
		return nil, err
	}
	return inst, nil
}

func branchTarget(word uint32, addr uint32) int64 {
	off := emu.SignExtend(uint64(emu.Field(word, 15, 0)), 16)
	return int64(addr) + 4 + off*4
}

func decodeFields(word uint32, addr uint32) (string, []int64, error) {
	if word == HaltRepr {
		return "halt", nil, nil
	}

	op := emu.Field(word, 31, 26)
	rs := int64(emu.Field(word, 25, 21))
	rt := int64(emu.Field(word, 20, 16))
	rd := int64(emu.Field(word, 15, 11))
	sa := int64(emu.Field(word, 10, 6))
	immS := emu.SignExtend(uint64(emu.Field(word, 15, 0)), 16)
	immU := int64(emu.Field(word, 15, 0))

	switch op {
	case opSpecial:
		funct := emu.Field(word, 5, 0)
		switch funct {
		case 0x00:
			if word == 0 {
				return "nop", nil, nil
			}
			return "sll", []int64{rd, rt, sa}, nil
		case 0x02:
			return "srl", []int64{rd, rt, sa}, nil
		case 0x03:
			return "sra", []int64{rd, rt, sa}, nil
		case 0x04:
			return "sllv", []int64{rd, rt, rs}, nil
		case 0x06:
			return "srlv", []int64{rd, rt, rs}, nil
		case 0x07:
			return "srav", []int64{rd, rt, rs}, nil
		case 0x08:
			return "jr", []int64{rs}, nil
		case 0x09:
			return "jalr", []int64{rs}, nil
		case 0x0A:
			return "movz", []int64{rd, rs, rt}, nil
		case 0x0B:
			return "movn", []int64{rd, rs, rt}, nil
		case 0x0C:
			return "syscall", []int64{int64(emu.Field(word, 25, 6))}, nil
		case 0x0D:
			return "break", nil, nil
		case 0x10:
			return "mfhi", []int64{rd}, nil
		case 0x12:
			return "mflo", []int64{rd}, nil
		case 0x18:
			return "mult", []int64{rs, rt}, nil
		case 0x1A:
			return "div", []int64{rs, rt}, nil
		case 0x20:
			return "add", []int64{rd, rs, rt}, nil
		case 0x21:
			return "addu", []int64{rd, rs, rt}, nil
		case 0x22:
			return "sub", []int64{rd, rs, rt}, nil
		case 0x23:
			return "subu", []int64{rd, rs, rt}, nil
		case 0x24:
			return "and", []int64{rd, rs, rt}, nil
		case 0x25:
			return "or", []int64{rd, rs, rt}, nil
		case 0x26:
			return "xor", []int64{rd, rs, rt}, nil
		case 0x27:
			return "nor", []int64{rd, rs, rt}, nil
		case 0x2A:
			return "slt", []int64{rd, rs, rt}, nil
		case 0x2B:
			return "sltu", []int64{rd, rs, rt}, nil
		case 0x34:
			return "trap", nil, nil
		}
	case opRegImm:
		switch rt {
		case 0x00:
			return "bltz", []int64{rs, branchTarget(word, addr)}, nil
		case 0x01:
			return "bgez", []int64{rs, branchTarget(word, addr)}, nil
		}
	case 0x02:
		return "j", []int64{int64(emu.Field(word, 25, 0)) << 2}, nil
	case 0x03:
		return "jal", []int64{int64(emu.Field(word, 25, 0)) << 2}, nil
	case 0x04:
		if rs == 0 && rt == 0 {
			return "b", []int64{branchTarget(word, addr)}, nil
		}
		if rt == 0 {
			return "beqz", []int64{rs, branchTarget(word, addr)}, nil
		}
		return "beq", []int64{rs, rt, branchTarget(word, addr)}, nil
	case 0x05:
		if rt == 0 {
			return "bnez", []int64{rs, branchTarget(word, addr)}, nil
		}
		return "bne", []int64{rs, rt, branchTarget(word, addr)}, nil
	case 0x08:
		return "addi", []int64{rt, rs, immS}, nil
	case 0x09:
		return "addiu", []int64{rt, rs, immS}, nil
	case 0x0A:
		return "slti", []int64{rt, rs, immS}, nil
	case 0x0B:
		return "sltiu", []int64{rt, rs, immS}, nil
	case 0x0C:
		return "andi", []int64{rt, rs, immU}, nil
	case 0x0D:
		return "ori", []int64{rt, rs, immU}, nil
	case 0x0E:
		return "xori", []int64{rt, rs, immU}, nil
	case 0x0F:
		return "lui", []int64{rt, immS}, nil
	case 0x20:
		return "lb", []int64{rt, immS, rs}, nil
	case 0x21:
		return "lh", []int64{rt, immS, rs}, nil
	case 0x23:
		return "lw", []int64{rt, immS, rs}, nil
	case 0x24:
		return "lbu", []int64{rt, immS, rs}, nil
	case 0x25:
		return "lhu", []int64{rt, immS, rs}, nil
	case 0x27:
		return "lwu", []int64{rt, immS, rs}, nil
	case 0x37:
		return "ld", []int64{rt, immS, rs}, nil
	case 0x28:
		return "sb", []int64{rt, immS, rs}, nil
	case 0x29:
		return "sh", []int64{rt, immS, rs}, nil
	case 0x2B:
		return "sw", []int64{rt, immS, rs}, nil
	case 0x3F:
		return "sd", []int64{rt, immS, rs}, nil
	case 0x35:
		return "l.d", []int64{rt, immS, rs}, nil
	case 0x3D:
		return "s.d", []int64{rt, immS, rs}, nil
	case opCOP1:
		fmtField := emu.Field(word, 25, 21)
		ft := rt
		fs := rd
		fd := sa
		funct := emu.Field(word, 5, 0)
		switch fmtField {
		case fmtMTC1:
			return "dmtc1", []int64{rt, fs}, nil
		case fmtMFC1:
			return "dmfc1", []int64{rt, fs}, nil
		case fmtD:
			switch funct {
			case 0x00:
				return "add.d", []int64{fd, fs, ft}, nil
			case 0x01:
				return "sub.d", []int64{fd, fs, ft}, nil
			case 0x02:
				return "mul.d", []int64{fd, fs, ft}, nil
			case 0x03:
				return "div.d", []int64{fd, fs, ft}, nil
			case 0x06:
				return "mov.d", []int64{fd, fs}, nil
			case 0x25:
				return "cvt.l.d", []int64{fd, fs}, nil
			}
		case fmtL:
			if funct == 0x21 {
				return "cvt.d.l", []int64{fd, fs}, nil
			}
		}
	}
	return "", nil, &UnknownEncodingError{Word: word}
}
