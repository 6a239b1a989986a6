package asm

import (
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/edumips64/edumips64/emu"
)

// dataAlgorithm consumes a .data section: optional labels, data type
// sub-directives and comma-separated literals. Each stored value advances the
// data cursor with the natural alignment of its type.
type dataAlgorithm struct {
	p *Parser
}

func (a *dataAlgorithm) parse() {
	p := a.p
	for p.pos < len(p.lines) {
		if p.atSectionStart() {
			return
		}
		a.parseLine(p.lines[p.pos])
		p.pos++
	}
}

func (a *dataAlgorithm) parseLine(line []Token) {
	p := a.p

	label := ""
	var labelTok Token
	if len(line) >= 2 && line[0].Kind == TokenIdent && line[1].Kind == TokenColon {
		label = line[0].Text
		labelTok = line[0]
		line = line[2:]
	}

	if len(line) == 0 {
		// A bare label marks the next stored value.
		if label != "" {
			a.registerLabel(labelTok, label, 8)
		}
		return
	}

	dir := line[0]
	if dir.Kind != TokenDirective {
		p.addError(dir, "expected a data directive")
		return
	}

	values := line[1:]
	switch strings.ToLower(dir.Text) {
	case ".byte":
		a.storeInts(labelTok, label, values, 1)
	case ".word16":
		a.storeInts(labelTok, label, values, 2)
	case ".word32":
		a.storeInts(labelTok, label, values, 4)
	case ".word64", ".word":
		a.storeInts(labelTok, label, values, 8)
	case ".double":
		a.storeDoubles(labelTok, label, values)
	case ".float":
		a.storeFloats(labelTok, label, values)
	case ".ascii":
		a.storeString(labelTok, label, values, false)
	case ".asciiz":
		a.storeString(labelTok, label, values, true)
	case ".space":
		a.space(labelTok, label, values)
	default:
		p.addError(dir, "unknown data directive")
	}
}

func (a *dataAlgorithm) registerLabel(tok Token, label string, align uint64) {
	p := a.p
	a.align(align)
	if err := p.sym.SetCellLabel(p.dataAddr, label); err != nil {
		p.addError(tok, "duplicate label")
		return
	}
	p.log.WithFields(logrus.Fields{"label": label, "address": p.dataAddr}).Debug("data label")
}

func (a *dataAlgorithm) align(n uint64) {
	if rem := a.p.dataAddr % n; rem != 0 {
		a.p.dataAddr += n - rem
	}
}

// literals splits a comma-separated token run into single-token values.
func (a *dataAlgorithm) literals(values []Token) [][]Token {
	var (
		out []([]Token)
		cur []Token
	)
	for _, t := range values {
		if t.Kind == TokenComma {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	out = append(out, cur)
	return out
}

func (a *dataAlgorithm) storeInts(labelTok Token, label string, values []Token, width uint64) {
	p := a.p
	a.align(width)
	if label != "" {
		a.registerLabel(labelTok, label, width)
	}
	for _, lit := range a.literals(values) {
		if len(lit) != 1 || lit[0].Kind != TokenNumber {
			tok := labelTok
			if len(lit) > 0 {
				tok = lit[0]
			}
			p.addError(tok, "expected a numeric literal")
			continue
		}
		v, ok := parseInt(lit[0].Text)
		if !ok {
			p.addError(lit[0], "invalid numeric literal")
			continue
		}
		bits := uint(width) * 8
		if width < 8 && !emu.FitsSigned(v, bits) && !emu.FitsUnsigned(v, bits) {
			p.addError(lit[0], "constant out of range")
			continue
		}
		a.store(lit[0], width, uint64(v))
	}
}

func (a *dataAlgorithm) storeDoubles(labelTok Token, label string, values []Token) {
	p := a.p
	a.align(8)
	if label != "" {
		a.registerLabel(labelTok, label, 8)
	}
	for _, lit := range a.literals(values) {
		if len(lit) != 1 || lit[0].Kind != TokenNumber {
			p.addError(labelTok, "expected a floating point literal")
			continue
		}
		f, err := strconv.ParseFloat(lit[0].Text, 64)
		if err != nil {
			p.addError(lit[0], "invalid floating point literal")
			continue
		}
		a.store(lit[0], 8, math.Float64bits(f))
	}
}

func (a *dataAlgorithm) storeFloats(labelTok Token, label string, values []Token) {
	p := a.p
	a.align(4)
	if label != "" {
		a.registerLabel(labelTok, label, 4)
	}
	for _, lit := range a.literals(values) {
		if len(lit) != 1 || lit[0].Kind != TokenNumber {
			p.addError(labelTok, "expected a floating point literal")
			continue
		}
		f, err := strconv.ParseFloat(lit[0].Text, 32)
		if err != nil {
			p.addError(lit[0], "invalid floating point literal")
			continue
		}
		a.store(lit[0], 4, uint64(math.Float32bits(float32(f))))
	}
}

func (a *dataAlgorithm) storeString(labelTok Token, label string, values []Token, zeroTerminated bool) {
	p := a.p
	if label != "" {
		a.registerLabel(labelTok, label, 1)
	}
	for _, lit := range a.literals(values) {
		if len(lit) != 1 || lit[0].Kind != TokenString {
			p.addError(labelTok, "expected a string literal")
			continue
		}
		for _, b := range []byte(lit[0].Text) {
			a.store(lit[0], 1, uint64(b))
		}
		if zeroTerminated {
			a.store(lit[0], 1, 0)
		}
	}
}

func (a *dataAlgorithm) space(labelTok Token, label string, values []Token) {
	p := a.p
	if label != "" {
		a.registerLabel(labelTok, label, 1)
	}
	if len(values) != 1 || values[0].Kind != TokenNumber {
		p.addError(labelTok, ".space needs a byte count")
		return
	}
	n, ok := parseInt(values[0].Text)
	if !ok || n < 0 {
		p.addError(values[0], "invalid byte count")
		return
	}
	p.dataAddr += uint64(n)
}

func (a *dataAlgorithm) store(tok Token, width uint64, v uint64) {
	p := a.p
	var err error
	switch width {
	case 1:
		err = p.mem.WriteByte(p.dataAddr, uint8(v))
	case 2:
		err = p.mem.WriteHalf(p.dataAddr, uint16(v))
	case 4:
		err = p.mem.WriteWord(p.dataAddr, uint32(v))
	default:
		err = p.mem.WriteDouble(p.dataAddr, v)
	}
	if err != nil {
		p.addError(tok, "data segment overflow")
		return
	}
	p.dataAddr += width
}
