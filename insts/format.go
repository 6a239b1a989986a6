package insts

import (
	"fmt"
	"strings"
)

// Disassemble renders an instruction back as assembly text. Register
// operands use the r/f prefixes and label operands are rendered as absolute
// addresses, which the parser accepts back.
func Disassemble(i Instruction) string {
	syntax := i.Syntax()
	params := i.Params()
	if syntax == "" || len(params) == 0 {
		return i.Name()
	}

	var b strings.Builder
	b.WriteString(i.Name())
	b.WriteByte(' ')

	pi := 0
	for si := 0; si < len(syntax); si++ {
		if syntax[si] != '%' {
			b.WriteByte(syntax[si])
			continue
		}
		si++
		switch syntax[si] {
		case 'R':
			fmt.Fprintf(&b, "r%d", params[pi])
		case 'F':
			fmt.Fprintf(&b, "f%d", params[pi])
		default:
			fmt.Fprintf(&b, "%d", params[pi])
		}
		pi++
	}
	return b.String()
}
