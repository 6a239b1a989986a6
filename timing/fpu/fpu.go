// Package fpu models the floating point sub-pipeline: a 4-stage adder, a
// 7-stage multiplier and an iterative, non-pipelined divider. The three units
// share the entry from ID and the single exit toward EX/MEM.
package fpu

import "github.com/edumips64/edumips64/insts"

// Unit depths and the default divider latency.
const (
	AdderStages           = 4
	MultiplierStages      = 7
	DefaultDividerLatency = 24
)

// NotAvailableError reports that the functional unit an instruction needs is
// already occupied.
type NotAvailableError struct {
	Unit insts.FPUnit
}

func (e *NotAvailableError) Error() string {
	switch e.Unit {
	case insts.FPUnitDivider:
		return "FP divider not available"
	default:
		return "FP functional unit not available"
	}
}

// Option configures the FP pipeline.
type Option func(*Pipeline)

// WithDividerLatency overrides the divider's cycle count.
func WithDividerLatency(cycles int) Option {
	return func(p *Pipeline) {
		p.divLatency = cycles
	}
}

// Pipeline holds the three functional units. Adder positions run A1..A4 and
// multiplier positions M1..M7, with the last position being the exit; the
// divider holds one instruction with a countdown.
type Pipeline struct {
	adder [AdderStages]insts.FPArith
	mult  [MultiplierStages]insts.FPArith

	div        insts.FPArith
	divCounter int
	divLatency int
}

// NewPipeline creates an empty FP pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{divLatency: DefaultDividerLatency}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanAccept reports whether the unit the instruction needs can take it this
// cycle.
func (p *Pipeline) CanAccept(inst insts.FPArith) error {
	switch inst.FPUnit() {
	case insts.FPUnitAdder:
		if p.adder[0] != nil {
			return &NotAvailableError{Unit: insts.FPUnitAdder}
		}
	case insts.FPUnitMultiplier:
		if p.mult[0] != nil {
			return &NotAvailableError{Unit: insts.FPUnitMultiplier}
		}
	case insts.FPUnitDivider:
		if p.div != nil {
			return &NotAvailableError{Unit: insts.FPUnitDivider}
		}
	}
	return nil
}

// Put dispatches an instruction into its unit's entry position. The caller
// must have checked CanAccept in the same cycle.
func (p *Pipeline) Put(inst insts.FPArith) error {
	if err := p.CanAccept(inst); err != nil {
		return err
	}
	switch inst.FPUnit() {
	case insts.FPUnitAdder:
		p.adder[0] = inst
	case insts.FPUnitMultiplier:
		p.mult[0] = inst
	case insts.FPUnitDivider:
		p.div = inst
		p.divCounter = p.divLatency
	}
	return nil
}

// Step advances every unit by one cycle: the divider counts down, the adder
// and multiplier shift toward their exit position. A position only advances
// when the next one is free, so an instruction waiting at the exit blocks
// the ones behind it.
func (p *Pipeline) Step() {
	if p.div != nil && p.divCounter > 0 {
		p.divCounter--
	}
	shift(p.adder[:])
	shift(p.mult[:])
}

func shift(unit []insts.FPArith) {
	for i := len(unit) - 1; i >= 1; i-- {
		if unit[i] == nil {
			unit[i] = unit[i-1]
			unit[i-1] = nil
		}
	}
}

// PullCompleted removes and returns the instruction ready to leave the FP
// pipeline this cycle, or nil. When several units are ready, the priority is
// Divider, then Multiplier, then Adder; the losers hold their exit position
// until a later cycle.
func (p *Pipeline) PullCompleted() insts.FPArith {
	if p.div != nil && p.divCounter == 0 {
		inst := p.div
		p.div = nil
		return inst
	}
	if inst := p.mult[MultiplierStages-1]; inst != nil {
		p.mult[MultiplierStages-1] = nil
		return inst
	}
	if inst := p.adder[AdderStages-1]; inst != nil {
		p.adder[AdderStages-1] = nil
		return inst
	}
	return nil
}

// ReadyCount returns how many units currently hold a ready-to-exit
// instruction.
func (p *Pipeline) ReadyCount() int {
	n := 0
	if p.div != nil && p.divCounter == 0 {
		n++
	}
	if p.mult[MultiplierStages-1] != nil {
		n++
	}
	if p.adder[AdderStages-1] != nil {
		n++
	}
	return n
}

// Empty reports whether every unit is idle.
func (p *Pipeline) Empty() bool {
	return p.Size() == 0
}

// Size returns the number of instructions in flight across all units.
func (p *Pipeline) Size() int {
	n := 0
	for _, inst := range p.adder {
		if inst != nil {
			n++
		}
	}
	for _, inst := range p.mult {
		if inst != nil {
			n++
		}
	}
	if p.div != nil {
		n++
	}
	return n
}

// DividerCounter returns the divider's remaining cycle count.
func (p *Pipeline) DividerCounter() int { return p.divCounter }

// View is a read-only snapshot of unit occupancy for observers. Nil entries
// are empty positions.
type View struct {
	Adder          [AdderStages]insts.Instruction
	Multiplier     [MultiplierStages]insts.Instruction
	Divider        insts.Instruction
	DividerCounter int
}

// Snapshot returns the current unit occupancy.
func (p *Pipeline) Snapshot() View {
	var v View
	for i, inst := range p.adder {
		if inst != nil {
			v.Adder[i] = inst
		}
	}
	for i, inst := range p.mult {
		if inst != nil {
			v.Multiplier[i] = inst
		}
	}
	if p.div != nil {
		v.Divider = p.div
		v.DividerCounter = p.divCounter
	}
	return v
}

// Reset empties every unit.
func (p *Pipeline) Reset() {
	p.adder = [AdderStages]insts.FPArith{}
	p.mult = [MultiplierStages]insts.FPArith{}
	p.div = nil
	p.divCounter = 0
}
