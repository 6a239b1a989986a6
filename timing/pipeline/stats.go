package pipeline

// Statistics holds the counters the CPU maintains across a run.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of non-bubble instructions retired through WB.
	Instructions uint64
	// RAWStalls counts cycles lost to read-after-write hazards.
	RAWStalls uint64
	// WAWStalls counts cycles lost to FP write-after-write hazards.
	WAWStalls uint64
	// DividerStalls counts cycles lost waiting for the FP divider.
	DividerStalls uint64
	// FuncUnitStalls counts cycles lost waiting for the FP adder or multiplier.
	FuncUnitStalls uint64
	// MemoryStalls counts structural conflicts on the single MEM path.
	MemoryStalls uint64
	// EXStalls counts structural conflicts on the integer EX slot.
	EXStalls uint64
}

// CPI returns the cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// TotalStalls sums every stall counter.
func (s Statistics) TotalStalls() uint64 {
	return s.RAWStalls + s.WAWStalls + s.DividerStalls + s.FuncUnitStalls + s.MemoryStalls + s.EXStalls
}
