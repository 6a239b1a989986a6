// Package sim wires the simulation core together: registers, memory, symbol
// table, parser and CPU are explicitly constructed components owned by a
// Simulator value, so multiple simulations can coexist.
package sim

import (
	"errors"
	"fmt"
	"os"

	"github.com/edumips64/edumips64/asm"
	"github.com/edumips64/edumips64/config"
	"github.com/edumips64/edumips64/emu"
	"github.com/edumips64/edumips64/insts"
	"github.com/edumips64/edumips64/timing/pipeline"
)

// Simulator owns one complete simulated machine.
type Simulator struct {
	Config *config.Config
	Regs   *emu.RegFile
	Mem    *emu.Memory
	Sym    *emu.SymbolTable
	Code   *insts.CodeMemory
	CPU    *pipeline.CPU
}

// New builds a machine in its power-on state.
func New(cfg *config.Config, opts ...pipeline.Option) *Simulator {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Simulator{
		Config: cfg,
		Regs:   emu.NewRegFile(),
		Mem:    emu.NewMemory(),
		Sym:    emu.NewSymbolTable(),
		Code:   insts.NewCodeMemory(),
	}
	s.CPU = pipeline.NewCPU(s.Regs, s.Mem, s.Code, cfg, opts...)
	return s
}

// LoadSource parses an assembly program and, on success, readies the CPU for
// stepping. A failed parse leaves the CPU stopped and returns the combined
// diagnostics.
func (s *Simulator) LoadSource(src string) error {
	p := asm.NewParser(s.Mem, s.Code, s.Sym)
	if err := p.Parse(src); err != nil {
		return err
	}
	return s.CPU.Start()
}

// LoadFile reads and parses an assembly source file.
func (s *Simulator) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	return s.LoadSource(string(data))
}

// Step performs one cycle. See pipeline.CPU.Step for the signal contract.
func (s *Simulator) Step() error {
	return s.CPU.Step()
}

// Run steps until the CPU halts. A zero maxCycles means no limit. Break
// signals are surfaced to the caller; every other non-halt error aborts the
// run.
func (s *Simulator) Run(maxCycles uint64) error {
	for {
		if maxCycles > 0 && s.CPU.Stats().Cycles >= maxCycles {
			return fmt.Errorf("cycle limit of %d reached", maxCycles)
		}
		err := s.Step()
		if err == nil {
			continue
		}
		var halt *pipeline.HaltSignal
		if errors.As(err, &halt) {
			return nil
		}
		return err
	}
}

// Reset returns the whole machine to its power-on state; a new program must
// be loaded before stepping again.
func (s *Simulator) Reset() {
	s.Regs.Reset()
	s.Mem.Reset()
	s.Sym.Reset()
	s.Code.Reset()
	s.CPU.Reset()
}
