package pipeline

import (
	"github.com/edumips64/edumips64/insts"
	"github.com/edumips64/edumips64/timing/fpu"
)

// SlotView describes one pipeline slot occupant for observers.
type SlotView struct {
	Name   string
	Repr   uint32
	Empty  bool
	Bubble bool
}

func slotView(inst insts.Instruction) SlotView {
	if inst == nil {
		return SlotView{Empty: true}
	}
	return SlotView{
		Name:   inst.Name(),
		Repr:   inst.Repr(),
		Bubble: insts.IsBubble(inst),
	}
}

// Snapshot is a consistent view of the machine between cycles: where every
// instruction sits, the stall counters and the program counters. Renderers
// consume it; the core never exposes mid-cycle state.
type Snapshot struct {
	Cycle  uint64
	Status Status
	Stages map[Stage]SlotView
	FPU    fpu.View
	Stats  Statistics
	PC     int64
	OldPC  int64
}

// Snapshot captures the current machine state. Call it between Step calls
// only.
func (c *CPU) Snapshot() Snapshot {
	stages := make(map[Stage]SlotView, int(numStages))
	for s := IF; s < numStages; s++ {
		stages[s] = slotView(c.pipe[s])
	}
	return Snapshot{
		Cycle:  c.stats.Cycles,
		Status: c.status,
		Stages: stages,
		FPU:    c.fpPipe.Snapshot(),
		Stats:  c.stats,
		PC:     c.regs.PC.Value(),
		OldPC:  c.regs.OldPC.Value(),
	}
}
