package asm

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/edumips64/edumips64/emu"
	"github.com/edumips64/edumips64/insts"
)

// operandKind mirrors the instruction syntax string letters: R GPR, F FPR,
// I signed immediate, U unsigned immediate, L label or offset, B branch
// target (code label or absolute address).
type operandKind byte

type operand struct {
	kind     operandKind
	tok      Token
	val      int64
	resolved bool
}

// instructionData accumulates one parsed instruction for the second pass,
// when the symbol table is complete.
type instructionData struct {
	inst     insts.Instruction
	operands []operand
	addr     uint32
	tok      Token
}

type parsingAlgorithm interface {
	parse()
}

// Parser is the two-pass assembly parser. The first pass runs per-directive
// strategies that load data memory and accumulate instructions; the second
// pass resolves label operands, packs each instruction and stores it in code
// memory. Diagnostics are collected and surfaced together.
type Parser struct {
	mem  *emu.Memory
	code *insts.CodeMemory
	sym  *emu.SymbolTable

	algorithms map[string]parsingAlgorithm

	lines [][]Token
	pos   int

	pending  []instructionData
	errs     []*ParseError
	dataAddr uint64
	codeAddr uint32

	log *logrus.Entry
}

// NewParser builds a parser writing into the given memory, code memory and
// symbol table.
func NewParser(mem *emu.Memory, code *insts.CodeMemory, sym *emu.SymbolTable) *Parser {
	p := &Parser{
		mem:  mem,
		code: code,
		sym:  sym,
		log:  logrus.WithField("component", "parser"),
	}
	p.algorithms = map[string]parsingAlgorithm{
		".DATA": &dataAlgorithm{p: p},
		".CODE": &codeAlgorithm{p: p},
		".TEXT": &codeAlgorithm{p: p},
	}
	return p
}

// Parse consumes a whole source file. It returns a *MultiError carrying
// every diagnostic when anything failed, nil otherwise.
func (p *Parser) Parse(src string) error {
	lines, scanErrs := scanLines(src)
	p.lines = lines
	p.errs = append(p.errs, scanErrs...)

	// Null algorithm: scan for a recognized directive and hand over to its
	// strategy.
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		first := line[0]
		if first.Kind == TokenDirective {
			if alg, ok := p.algorithms[strings.ToUpper(first.Text)]; ok {
				p.log.WithField("directive", first.Text).Debug("switching parsing algorithm")
				p.pos++
				alg.parse()
				continue
			}
		}
		p.addError(first, "statement outside a .data/.code section")
		p.pos++
	}

	p.packPending()

	if len(p.errs) > 0 {
		return &MultiError{Errors: p.errs}
	}
	return nil
}

// atSectionStart reports whether the current line begins a new top-level
// section, ending the running strategy.
func (p *Parser) atSectionStart() bool {
	line := p.lines[p.pos]
	if line[0].Kind != TokenDirective {
		return false
	}
	_, ok := p.algorithms[strings.ToUpper(line[0].Text)]
	return ok
}

// packPending is the second pass: label operands are resolved against the
// now-complete symbol table, each instruction is packed into its 32-bit
// encoding and stored at its code address. A failing entry records an error
// and the pass continues.
func (p *Parser) packPending() {
	for idx := range p.pending {
		entry := &p.pending[idx]
		params := make([]int64, 0, len(entry.operands))
		failed := false
		for i := range entry.operands {
			v, ok := p.resolveOperand(entry, &entry.operands[i])
			if !ok {
				failed = true
				continue
			}
			params = append(params, v)
		}
		if failed {
			continue
		}
		entry.inst.SetParams(params)
		entry.inst.SetAddress(entry.addr)
		if err := entry.inst.Pack(); err != nil {
			p.addError(entry.tok, err.Error())
			continue
		}
		if err := p.code.Add(entry.inst, entry.addr); err != nil {
			p.addError(entry.tok, "address out of range")
		}
	}
}

func (p *Parser) resolveOperand(entry *instructionData, op *operand) (int64, bool) {
	switch op.kind {
	case 'L':
		if op.resolved {
			return op.val, true
		}
		addr, err := p.sym.CellAddress(op.tok.Text)
		if err != nil {
			p.addError(op.tok, "undefined data label")
			return 0, false
		}
		return int64(addr), true
	case 'B':
		target := op.val
		if !op.resolved {
			addr, err := p.sym.InstructionAddress(op.tok.Text)
			if err != nil {
				p.addError(op.tok, "undefined code label")
				return 0, false
			}
			target = int64(addr)
		}
		// J-type targets are absolute; every other control transfer packs a
		// signed 16-bit word offset.
		if name := entry.inst.Name(); name != "j" && name != "jal" {
			off := (target - int64(entry.addr) - 4) / 4
			if !emu.FitsSigned(off, 16) {
				p.addError(op.tok, "branch target out of range")
				return 0, false
			}
		}
		return target, true
	default:
		return op.val, true
	}
}

func (p *Parser) addError(tok Token, msg string) {
	p.errs = append(p.errs, &ParseError{Line: tok.Line, Column: tok.Column, Msg: msg, Near: tok.Text})
}

// parseRegister accepts R0..R31, r0..r31 and $0..$31.
func parseRegister(text string) (int64, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.HasPrefix(t, "$r"):
		t = t[2:]
	case strings.HasPrefix(t, "r"), strings.HasPrefix(t, "$"):
		t = t[1:]
	default:
		return 0, false
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 || n > 31 {
		return 0, false
	}
	return int64(n), true
}

// parseFPRegister accepts F0..F31 and f0..f31.
func parseFPRegister(text string) (int64, bool) {
	t := strings.ToLower(text)
	if !strings.HasPrefix(t, "f") {
		return 0, false
	}
	n, err := strconv.Atoi(t[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, false
	}
	return int64(n), true
}

// parseInt accepts decimal and 0x-prefixed hexadecimal literals.
func parseInt(text string) (int64, bool) {
	neg := false
	t := text
	switch {
	case strings.HasPrefix(t, "-"):
		neg = true
		t = t[1:]
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	}
	base := 10
	if strings.HasPrefix(strings.ToLower(t), "0x") {
		base = 16
		t = t[2:]
	}
	v, err := strconv.ParseUint(t, base, 64)
	if err != nil {
		return 0, false
	}
	n := int64(v)
	if neg {
		n = -n
	}
	return n, true
}
