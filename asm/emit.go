package asm

import (
	"strings"

	"github.com/edumips64/edumips64/insts"
)

// Emit renders the loaded code memory back as an assembly source. Label
// operands come out as absolute addresses, so reparsing the result yields
// the same instruction sequence.
func Emit(code *insts.CodeMemory) string {
	var b strings.Builder
	b.WriteString(".code\n")
	for _, inst := range code.Instructions() {
		b.WriteString(insts.Disassemble(inst))
		b.WriteByte('\n')
	}
	return b.String()
}
