package insts

import "github.com/edumips64/edumips64/emu"

// DefaultCodeWords is the number of instruction slots in code memory.
const DefaultCodeWords = 2048

// CodeMemory maps 4-byte-aligned instruction addresses to decoded
// instructions. Fetches beyond the loaded program return the pipeline bubble.
type CodeMemory struct {
	slots []Instruction
	count int
}

// NewCodeMemory creates a code memory of DefaultCodeWords slots.
func NewCodeMemory() *CodeMemory {
	return &CodeMemory{slots: make([]Instruction, DefaultCodeWords)}
}

// Add stores an instruction at the given address.
func (c *CodeMemory) Add(inst Instruction, addr uint32) error {
	if addr%4 != 0 {
		return &emu.NotAlignError{Address: uint64(addr), Width: 4}
	}
	if int(addr/4) >= len(c.slots) {
		return &emu.AddressError{Address: uint64(addr)}
	}
	if c.slots[addr/4] == nil {
		c.count++
	}
	c.slots[addr/4] = inst
	return nil
}

// At returns the instruction at addr, or a bubble when nothing is loaded
// there.
func (c *CodeMemory) At(addr uint32) Instruction {
	idx := int(addr / 4)
	if addr%4 != 0 || idx >= len(c.slots) || c.slots[idx] == nil {
		return Bubble()
	}
	return c.slots[idx]
}

// Count returns the number of loaded instructions.
func (c *CodeMemory) Count() int { return c.count }

// Instructions returns the loaded instructions in address order.
func (c *CodeMemory) Instructions() []Instruction {
	out := make([]Instruction, 0, c.count)
	for _, inst := range c.slots {
		if inst != nil {
			out = append(out, inst)
		}
	}
	return out
}

// Reset removes every instruction.
func (c *CodeMemory) Reset() {
	c.slots = make([]Instruction, len(c.slots))
	c.count = 0
}
