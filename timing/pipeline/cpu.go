// Package pipeline implements the five-stage integer pipeline controller.
//
// One cycle runs the stages in reverse order (WB, MEM, EX, ID, IF) so that a
// slot is consumed only after its downstream slot has been emptied. Stalls,
// jumps and halts travel as typed errors from the stage helpers to Step,
// which reacts and accounts for them.
package pipeline

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/edumips64/edumips64/config"
	"github.com/edumips64/edumips64/emu"
	"github.com/edumips64/edumips64/insts"
	"github.com/edumips64/edumips64/timing/fpu"
)

// Stage identifies a slot of the integer pipeline.
type Stage int

// Pipeline stages.
const (
	IF Stage = iota
	ID
	EX
	MEM
	WB
	numStages
)

func (s Stage) String() string {
	switch s {
	case IF:
		return "IF"
	case ID:
		return "ID"
	case EX:
		return "EX"
	case MEM:
		return "MEM"
	default:
		return "WB"
	}
}

// Status is the CPU state machine.
type Status int

// CPU states.
const (
	// Ready: built but no program started; stepping fails.
	Ready Status = iota
	// Running: fetching and executing instructions.
	Running
	// Stopping: a terminating instruction entered the pipeline; the CPU
	// drains what is in flight without fetching more.
	Stopping
	// Halted: the pipeline drained; stepping fails until reset.
	Halted
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Stopping:
		return "STOPPING"
	default:
		return "HALTED"
	}
}

// rawSignal is the internal marker for a RAW stall detected in ID.
type rawSignal struct{}

func (e *rawSignal) Error() string { return "RAW hazard" }

// Option configures the CPU.
type Option func(*CPU)

// WithDividerLatency overrides the FP divider's cycle count.
func WithDividerLatency(cycles int) Option {
	return func(c *CPU) {
		c.fpPipe = fpu.NewPipeline(fpu.WithDividerLatency(cycles))
	}
}

// WithLogger routes the CPU's cycle logging through the given logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *CPU) {
		c.log = log.WithField("component", "cpu")
	}
}

// CPU drives the integer pipeline and the FP sub-pipeline over the shared
// architectural state.
type CPU struct {
	regs   *emu.RegFile
	mem    *emu.Memory
	code   *insts.CodeMemory
	cfg    *config.Config
	fpPipe *fpu.Pipeline

	pipe   [numStages]insts.Instruction
	status Status
	stats  Statistics

	ctx *insts.Context
	log *logrus.Entry
}

// NewCPU builds a CPU over the given state. The configuration is read-only.
func NewCPU(regs *emu.RegFile, mem *emu.Memory, code *insts.CodeMemory, cfg *config.Config, opts ...Option) *CPU {
	c := &CPU{
		regs:   regs,
		mem:    mem,
		code:   code,
		cfg:    cfg,
		fpPipe: fpu.NewPipeline(),
		log:    logrus.WithField("component", "cpu"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx = &insts.Context{Regs: regs, Mem: mem, Config: cfg, Status: c}
	return c
}

// Status returns the CPU state.
func (c *CPU) Status() Status { return c.status }

// Stats returns the counters accumulated so far.
func (c *CPU) Stats() Statistics { return c.stats }

// FPPipe exposes the FP sub-pipeline for observers.
func (c *CPU) FPPipe() *fpu.Pipeline { return c.fpPipe }

// Slot returns the occupant of a pipeline stage, possibly nil.
func (c *CPU) Slot(s Stage) insts.Instruction { return c.pipe[s] }

// SetStopping moves a running CPU into its draining state. Terminating
// instructions call it through the instruction context.
func (c *CPU) SetStopping() {
	if c.status == Running {
		c.setStatus(Stopping)
	}
}

func (c *CPU) setStatus(s Status) {
	c.log.WithFields(logrus.Fields{"from": c.status, "to": s}).Debug("CPU status change")
	c.status = s
}

// Start transitions a Ready CPU to Running and fetches the first instruction
// into IF.
func (c *CPU) Start() error {
	if c.status != Ready {
		return &emu.StoppedCPUError{}
	}
	c.setStatus(Running)
	pc := c.regs.PC.Value()
	c.pipe[IF] = c.code.At(uint32(pc))
	c.regs.OldPC.WriteDoubleWord(pc)
	c.regs.PC.WriteDoubleWord(pc + 4)
	return nil
}

// Step performs one pipeline cycle. It returns nil on an ordinary cycle
// (including stall cycles), a HaltSignal on the cycle the CPU halts, a
// BreakSignal when a break instruction asks the caller to pause, a
// SynchronousError for an unmasked synchronous exception, and other errors
// for runtime faults.
func (c *CPU) Step() error {
	c.applyFPConfig()

	if c.status != Running && c.status != Stopping {
		return &emu.StoppedCPUError{}
	}

	c.stats.Cycles++
	c.log.WithField("cycle", c.stats.Cycles).Debug("starting cycle")

	err := c.runCycle()
	if err == nil {
		return nil
	}

	var (
		jump    *insts.JumpSignal
		raw     *rawSignal
		waw     *insts.WAWSignal
		fpBusy  *fpu.NotAvailableError
		exBusy  *EXNotAvailableError
		haltSig *HaltSignal
	)
	switch {
	case errors.As(err, &jump):
		c.log.WithField("target", jump.Target).Debug("executing a jump")
		return c.handleJump()
	case errors.As(err, &raw):
		c.insertBubbleEX()
		c.stats.RAWStalls++
		c.log.WithField("stalls", c.stats.RAWStalls).Debug("RAW stall")
		return nil
	case errors.As(err, &waw):
		c.insertBubbleEX()
		c.stats.WAWStalls++
		return nil
	case errors.As(err, &fpBusy):
		c.insertBubbleEX()
		if fpBusy.Unit == insts.FPUnitDivider {
			c.stats.DividerStalls++
		} else {
			c.stats.FuncUnitStalls++
		}
		return nil
	case errors.As(err, &exBusy):
		c.stats.EXStalls++
		return nil
	case errors.As(err, &haltSig):
		c.pipe[WB] = nil
		return err
	default:
		return err
	}
}

// runCycle executes the five stages in reverse order and surfaces the first
// signal raised.
func (c *CPU) runCycle() error {
	if err := c.stepWB(); err != nil {
		return err
	}
	if err := c.stepMEM(); err != nil {
		return err
	}
	syncCode, err := c.stepEX()
	if err != nil {
		return err
	}
	if err := c.stepID(); err != nil {
		return err
	}
	if err := c.stepIF(); err != nil {
		return err
	}
	if syncCode != "" {
		return &insts.SynchronousError{Code: syncCode}
	}
	return nil
}

// insertBubbleEX fills the EX slot with a bubble on a stall cycle. The slot
// may still hold an integer instruction retained by FP completion
// arbitration; that instruction must not be clobbered.
func (c *CPU) insertBubbleEX() {
	if c.pipe[EX] == nil {
		c.pipe[EX] = insts.Bubble()
	}
}

func (c *CPU) isEmptyOrBubble(s Stage) bool {
	return c.pipe[s] == nil || insts.IsBubble(c.pipe[s])
}

// pipelinesEmpty reports whether everything upstream of WB has drained. WB
// is excluded because the check runs before its occupant is removed.
func (c *CPU) pipelinesEmpty() bool {
	return c.isEmptyOrBubble(ID) && c.isEmptyOrBubble(EX) && c.isEmptyOrBubble(MEM) && c.fpPipe.Empty()
}

func (c *CPU) stepWB() error {
	w := c.pipe[WB]
	if w == nil {
		return nil
	}

	// A terminating instruction must wait for the FP pipeline and the MEM
	// path to drain before its WB runs.
	terminator := insts.IsTerminating(w.Repr())
	notWBable := terminator && (!c.fpPipe.Empty() || !c.isEmptyOrBubble(MEM))

	if !insts.IsBubble(w) {
		c.stats.Instructions++
	}

	if !notWBable {
		c.log.WithField("inst", w.Name()).Debug("executing WB")
		if err := w.WB(c.ctx); err != nil {
			return err
		}
	}

	c.pipe[WB] = nil

	if c.pipelinesEmpty() && c.status == Stopping {
		c.setStatus(Halted)
		return &HaltSignal{}
	}
	return nil
}

func (c *CPU) stepMEM() error {
	if c.pipe[MEM] != nil {
		c.log.WithField("inst", c.pipe[MEM].Name()).Debug("executing MEM")
		if err := c.pipe[MEM].MEM(c.ctx); err != nil {
			return err
		}
	}
	c.pipe[WB] = c.pipe[MEM]
	c.pipe[MEM] = nil
	return nil
}

// stepEX picks between the integer EX occupant and a completed FP
// instruction, executes it, and moves it to MEM. Synchronous exceptions are
// captured and either suppressed, returned immediately, or deferred to the
// end of the cycle per configuration.
func (c *CPU) stepEX() (insts.SyncCode, error) {
	completedFP := c.fpPipe.PullCompleted()
	shouldFP := completedFP != nil

	var instruction insts.Instruction
	if !shouldFP {
		instruction = c.pipe[EX]
	} else {
		// The FP output wins the MEM path; an integer instruction in EX (or
		// another ready FP unit) records a structural memory stall.
		if !c.isEmptyOrBubble(EX) || c.fpPipe.ReadyCount() > 0 {
			c.stats.MemoryStalls++
		}
		instruction = completedFP
	}

	var syncCode insts.SyncCode
	if instruction != nil {
		c.log.WithField("inst", instruction.Name()).Debug("executing EX")
		if err := instruction.EX(c.ctx); err != nil {
			var sync *insts.SynchronousError
			if !errors.As(err, &sync) {
				return "", err
			}
			switch {
			case c.cfg.SyncExceptionsMasked:
				c.log.WithField("code", sync.Code).Debug("masked synchronous exception")
			case c.cfg.SyncExceptionsTerminate:
				return "", sync
			default:
				syncCode = sync.Code
			}
		}
	}

	if shouldFP {
		c.pipe[MEM] = completedFP
	} else {
		c.pipe[MEM] = c.pipe[EX]
		c.pipe[EX] = nil
	}

	c.fpPipe.Step()
	return syncCode, nil
}

func (c *CPU) stepID() error {
	w := c.pipe[ID]
	if w == nil {
		return nil
	}

	fp, isFP := w.(insts.FPArith)
	if isFP {
		if err := c.fpPipe.CanAccept(fp); err != nil {
			return err
		}
	} else if c.pipe[EX] != nil && !insts.IsBubble(c.pipe[EX]) {
		return &EXNotAvailableError{}
	}

	c.log.WithField("inst", w.Name()).Debug("executing ID")
	raw, err := w.ID(c.ctx)
	if err != nil {
		return err
	}
	if raw {
		return &rawSignal{}
	}

	if isFP {
		if err := c.fpPipe.Put(fp); err != nil {
			return err
		}
	} else {
		c.pipe[EX] = w
	}
	c.pipe[ID] = nil
	return nil
}

func (c *CPU) stepIF() error {
	if c.status != Running {
		c.pipe[ID] = insts.Bubble()
		return nil
	}

	breaking := false
	if c.pipe[IF] != nil {
		if err := c.pipe[IF].IF(c.ctx); err != nil {
			var brk *insts.BreakSignal
			if !errors.As(err, &brk) {
				return err
			}
			breaking = true
		}
	}

	c.pipe[ID] = c.pipe[IF]
	pc := c.regs.PC.Value()
	c.pipe[IF] = c.code.At(uint32(pc))
	c.regs.OldPC.WriteDoubleWord(pc)
	c.regs.PC.WriteDoubleWord(pc + 4)

	if breaking {
		return &insts.BreakSignal{}
	}
	return nil
}

// handleJump completes a cycle interrupted by a taken branch: the stale IF
// instruction runs its IF behavior (a Break there is ignored, and so is a
// stopping request from a flushed halt or syscall 0, which never reaches ID),
// the branch target is fetched into IF, the branch moves on to EX and ID
// receives a bubble.
func (c *CPU) handleJump() error {
	status := c.status
	if c.pipe[IF] != nil {
		if err := c.pipe[IF].IF(c.ctx); err != nil {
			var brk *insts.BreakSignal
			if !errors.As(err, &brk) {
				return err
			}
			c.log.Debug("ignoring a break caught after a jump")
		}
	}
	c.status = status

	pc := c.regs.PC.Value()
	c.pipe[IF] = c.code.At(uint32(pc))
	c.pipe[EX] = c.pipe[ID]
	c.pipe[ID] = insts.Bubble()
	c.regs.OldPC.WriteDoubleWord(pc)
	c.regs.PC.WriteDoubleWord(pc + 4)
	return nil
}

// applyFPConfig copies the configured FP exception enables and rounding mode
// into the FCSR.
func (c *CPU) applyFPConfig() {
	fcsr := c.regs.FCSR
	fcsr.SetEnabled(emu.FPInvalidOperation, c.cfg.FPInvalidOperation)
	fcsr.SetEnabled(emu.FPOverflow, c.cfg.FPOverflow)
	fcsr.SetEnabled(emu.FPUnderflow, c.cfg.FPUnderflow)
	fcsr.SetEnabled(emu.FPDivideByZero, c.cfg.FPDivideByZero)

	switch {
	case c.cfg.FPTowardsZero:
		fcsr.SetRoundingMode(emu.RoundTowardZero)
	case c.cfg.FPTowardsPlusInfinity:
		fcsr.SetRoundingMode(emu.RoundTowardPlusInfinity)
	case c.cfg.FPTowardsMinusInfinity:
		fcsr.SetRoundingMode(emu.RoundTowardMinusInfinity)
	default:
		fcsr.SetRoundingMode(emu.RoundToNearest)
	}
}

// Reset returns the CPU (and only the CPU: registers, memory and code are
// owned by the caller) to Ready with empty pipelines and zeroed counters.
func (c *CPU) Reset() {
	c.pipe = [numStages]insts.Instruction{}
	c.fpPipe.Reset()
	c.stats = Statistics{}
	c.status = Ready
}
