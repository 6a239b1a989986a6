package asm

import (
	"strings"

	"github.com/edumips64/edumips64/emu"
	"github.com/edumips64/edumips64/insts"
)

// codeAlgorithm consumes a .code/.text section: optional labels, a mnemonic
// and comma-separated operands validated against the instruction's syntax
// string. Instructions are accumulated for the second pass; the code cursor
// advances by 4 per instruction.
type codeAlgorithm struct {
	p *Parser
}

func (a *codeAlgorithm) parse() {
	p := a.p
	for p.pos < len(p.lines) {
		if p.atSectionStart() {
			return
		}
		a.parseLine(p.lines[p.pos])
		p.pos++
	}
}

func (a *codeAlgorithm) parseLine(line []Token) {
	p := a.p

	if len(line) >= 2 && line[0].Kind == TokenIdent && line[1].Kind == TokenColon {
		if err := p.sym.SetInstructionLabel(uint64(p.codeAddr), line[0].Text); err != nil {
			p.addError(line[0], "duplicate label")
		} else {
			p.log.WithField("label", line[0].Text).Debug("code label")
		}
		line = line[2:]
	}

	if len(line) == 0 {
		return
	}

	mnemonicTok := line[0]
	if mnemonicTok.Kind != TokenIdent {
		p.addError(mnemonicTok, "expected an instruction mnemonic")
		return
	}

	inst, err := insts.New(mnemonicTok.Text)
	if err != nil {
		p.addError(mnemonicTok, "unknown instruction")
		return
	}

	operands, ok := a.matchOperands(inst, mnemonicTok, line[1:])
	if !ok {
		return
	}

	p.pending = append(p.pending, instructionData{
		inst:     inst,
		operands: operands,
		addr:     p.codeAddr,
		tok:      mnemonicTok,
	})
	p.codeAddr += 4
}

// matchOperands walks the instruction's syntax string against the operand
// tokens, producing one operand per placeholder. Register and immediate
// operands are resolved immediately; label operands wait for the second
// pass.
func (a *codeAlgorithm) matchOperands(inst insts.Instruction, mnemonicTok Token, toks []Token) ([]operand, bool) {
	p := a.p
	syntax := inst.Syntax()
	var out []operand

	ti := 0
	next := func() (Token, bool) {
		if ti >= len(toks) {
			return Token{}, false
		}
		t := toks[ti]
		ti++
		return t, true
	}

	si := 0
	for si < len(syntax) {
		if syntax[si] == '%' {
			kind := operandKind(syntax[si+1])
			si += 2

			// An empty offset before '(' stands for 0.
			if kind == 'L' && ti < len(toks) && toks[ti].Kind == TokenLParen {
				out = append(out, operand{kind: 'I', val: 0, resolved: true})
				continue
			}

			tok, ok := next()
			if !ok {
				p.addError(mnemonicTok, "missing operand")
				return nil, false
			}
			op, ok := a.classifyOperand(inst, kind, tok)
			if !ok {
				return nil, false
			}
			out = append(out, op)
			continue
		}

		tok, ok := next()
		if !ok {
			p.addError(mnemonicTok, "missing operand")
			return nil, false
		}
		if tok.Text != string(syntax[si]) {
			p.addError(tok, "unexpected operand separator")
			return nil, false
		}
		si++
	}

	if ti != len(toks) {
		p.addError(toks[ti], "too many operands")
		return nil, false
	}
	return out, true
}

func (a *codeAlgorithm) classifyOperand(inst insts.Instruction, kind operandKind, tok Token) (operand, bool) {
	p := a.p
	switch kind {
	case 'R':
		v, ok := parseRegister(tok.Text)
		if !ok {
			p.addError(tok, "expected a general purpose register")
			return operand{}, false
		}
		return operand{kind: kind, tok: tok, val: v, resolved: true}, true
	case 'F':
		v, ok := parseFPRegister(tok.Text)
		if !ok {
			p.addError(tok, "expected a floating point register")
			return operand{}, false
		}
		return operand{kind: kind, tok: tok, val: v, resolved: true}, true
	case 'I':
		v, ok := parseInt(tok.Text)
		if !ok || !emu.FitsSigned(v, 16) {
			p.addError(tok, "expected a signed 16-bit immediate")
			return operand{}, false
		}
		return operand{kind: kind, tok: tok, val: v, resolved: true}, true
	case 'U':
		v, ok := parseInt(tok.Text)
		if !ok || !emu.FitsUnsigned(v, 16) {
			p.addError(tok, "expected an unsigned 16-bit immediate")
			return operand{}, false
		}
		if strings.EqualFold(inst.Name(), "syscall") && v != 0 {
			p.addError(tok, "only syscall 0 is supported")
			return operand{}, false
		}
		return operand{kind: kind, tok: tok, val: v, resolved: true}, true
	case 'L':
		if tok.Kind == TokenNumber {
			v, ok := parseInt(tok.Text)
			if !ok || !emu.FitsSigned(v, 16) {
				p.addError(tok, "offset out of range")
				return operand{}, false
			}
			return operand{kind: kind, tok: tok, val: v, resolved: true}, true
		}
		if tok.Kind != TokenIdent {
			p.addError(tok, "expected a label or offset")
			return operand{}, false
		}
		return operand{kind: kind, tok: tok}, true
	case 'B':
		if tok.Kind == TokenNumber {
			v, ok := parseInt(tok.Text)
			if !ok || v < 0 || v%4 != 0 {
				p.addError(tok, "invalid branch target address")
				return operand{}, false
			}
			return operand{kind: kind, tok: tok, val: v, resolved: true}, true
		}
		if tok.Kind != TokenIdent {
			p.addError(tok, "expected a code label")
			return operand{}, false
		}
		return operand{kind: kind, tok: tok}, true
	default:
		p.addError(tok, "malformed syntax string")
		return operand{}, false
	}
}
