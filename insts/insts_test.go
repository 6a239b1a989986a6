package insts_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edumips64/edumips64/config"
	"github.com/edumips64/edumips64/emu"
	"github.com/edumips64/edumips64/insts"
)

type nopStatus struct{ stopping bool }

func (s *nopStatus) SetStopping() { s.stopping = true }

func newContext(cfg *config.Config) (*insts.Context, *nopStatus) {
	status := &nopStatus{}
	return &insts.Context{
		Regs:   emu.NewRegFile(),
		Mem:    emu.NewMemory(),
		Config: cfg,
		Status: status,
	}, status
}

// run drives one instruction through its stage behaviors in program order,
// the way the pipeline would on consecutive cycles.
func run(ctx *insts.Context, inst insts.Instruction) error {
	if err := inst.IF(ctx); err != nil {
		return err
	}
	raw, err := inst.ID(ctx)
	if err != nil {
		return err
	}
	Expect(raw).To(BeFalse())
	if err := inst.EX(ctx); err != nil {
		return err
	}
	if err := inst.MEM(ctx); err != nil {
		return err
	}
	return inst.WB(ctx)
}

func build(name string, params ...int64) insts.Instruction {
	inst, err := insts.New(name)
	Expect(err).NotTo(HaveOccurred())
	inst.SetParams(params)
	return inst
}

var _ = Describe("Factory", func() {
	It("should be case-insensitive", func() {
		Expect(insts.Known("ADD")).To(BeTrue())
		Expect(insts.Known("add.D")).To(BeTrue())
	})

	It("should reject unknown mnemonics", func() {
		_, err := insts.New("frobnicate")
		var unknown *insts.UnknownInstructionError
		Expect(errors.As(err, &unknown)).To(BeTrue())
	})
})

var _ = Describe("ALU behaviors", func() {
	var (
		ctx *insts.Context
	)

	BeforeEach(func() {
		ctx, _ = newContext(config.Default())
	})

	It("should add registers", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(40)
		ctx.Regs.GPR[2].WriteDoubleWord(2)
		Expect(run(ctx, build("add", 3, 1, 2))).To(Succeed())
		Expect(ctx.Regs.GPR[3].Value()).To(Equal(int64(42)))
		Expect(ctx.Regs.GPR[3].WriteSemaphore()).To(Equal(0))
	})

	It("should raise IntegerOverflow on signed overflow", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(math.MaxInt64)
		ctx.Regs.GPR[2].WriteDoubleWord(1)
		err := run(ctx, build("add", 3, 1, 2))
		var sync *insts.SynchronousError
		Expect(errors.As(err, &sync)).To(BeTrue())
		Expect(sync.Code).To(Equal(insts.CodeIntegerOverflow))
	})

	It("should compare unsigned for sltu", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(-1) // largest unsigned value
		ctx.Regs.GPR[2].WriteDoubleWord(1)
		Expect(run(ctx, build("sltu", 3, 1, 2))).To(Succeed())
		Expect(ctx.Regs.GPR[3].Value()).To(Equal(int64(0)))
	})

	It("should shift by immediate", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(1)
		Expect(run(ctx, build("sll", 2, 1, 4))).To(Succeed())
		Expect(ctx.Regs.GPR[2].Value()).To(Equal(int64(16)))
	})

	It("should compute HI/LO for mult and read them back", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(-6)
		ctx.Regs.GPR[2].WriteDoubleWord(7)
		Expect(run(ctx, build("mult", 1, 2))).To(Succeed())
		Expect(ctx.Regs.LO.Value()).To(Equal(int64(-42)))
		Expect(ctx.Regs.HI.Value()).To(Equal(int64(-1)))

		Expect(run(ctx, build("mflo", 5))).To(Succeed())
		Expect(ctx.Regs.GPR[5].Value()).To(Equal(int64(-42)))
	})

	It("should raise DivByZero", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(10)
		err := run(ctx, build("div", 1, 0))
		var sync *insts.SynchronousError
		Expect(errors.As(err, &sync)).To(BeTrue())
		Expect(sync.Code).To(Equal(insts.CodeDivByZero))
	})

	It("should report RAW when a source has a pending writer", func() {
		ctx.Regs.GPR[1].IncrWriteSemaphore()
		raw, err := build("add", 3, 1, 2).ID(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(BeTrue())
	})

	It("should sign-extend addi immediates and zero-extend ori", func() {
		Expect(run(ctx, build("addi", 1, 0, -5))).To(Succeed())
		Expect(ctx.Regs.GPR[1].Value()).To(Equal(int64(-5)))

		Expect(run(ctx, build("ori", 2, 0, 0xFF00))).To(Succeed())
		Expect(ctx.Regs.GPR[2].Value()).To(Equal(int64(0xFF00)))
	})

	It("should load upper immediates", func() {
		Expect(run(ctx, build("lui", 1, 1))).To(Succeed())
		Expect(ctx.Regs.GPR[1].Value()).To(Equal(int64(0x10000)))
	})
})

var _ = Describe("Loads and stores", func() {
	var ctx *insts.Context

	BeforeEach(func() {
		ctx, _ = newContext(config.Default())
	})

	It("should store and load a doubleword", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(7)
		ctx.Regs.GPR[2].WriteDoubleWord(16)
		Expect(run(ctx, build("sd", 1, 0, 2))).To(Succeed())
		Expect(run(ctx, build("ld", 3, 0, 2))).To(Succeed())
		Expect(ctx.Regs.GPR[3].Value()).To(Equal(int64(7)))
	})

	It("should sign-extend lb and zero-extend lbu", func() {
		Expect(ctx.Mem.WriteByte(0, 0xFF)).To(Succeed())
		Expect(run(ctx, build("lb", 1, 0, 0))).To(Succeed())
		Expect(ctx.Regs.GPR[1].Value()).To(Equal(int64(-1)))

		Expect(run(ctx, build("lbu", 2, 0, 0))).To(Succeed())
		Expect(ctx.Regs.GPR[2].Value()).To(Equal(int64(255)))
	})

	It("should fault on misaligned addresses in MEM", func() {
		ctx.Regs.GPR[2].WriteDoubleWord(4)
		err := run(ctx, build("ld", 1, 0, 2))
		var align *emu.NotAlignError
		Expect(errors.As(err, &align)).To(BeTrue())
	})

	It("should move doublewords through FP load/store", func() {
		ctx.Regs.FPR[4].WriteDouble(2.5)
		Expect(run(ctx, build("s.d", 4, 8, 0))).To(Succeed())
		Expect(run(ctx, build("l.d", 6, 8, 0))).To(Succeed())
		Expect(ctx.Regs.FPR[6].Double()).To(Equal(2.5))
	})
})

var _ = Describe("Branch behaviors", func() {
	var ctx *insts.Context

	BeforeEach(func() {
		ctx, _ = newContext(config.Default())
	})

	It("should raise a jump signal when taken", func() {
		inst := build("beq", 1, 2, 64)
		_, err := inst.ID(ctx)
		var jump *insts.JumpSignal
		Expect(errors.As(err, &jump)).To(BeTrue())
		Expect(jump.Target).To(Equal(uint32(64)))
		Expect(ctx.Regs.PC.Value()).To(Equal(int64(64)))
	})

	It("should fall through when not taken", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(1)
		inst := build("beq", 1, 2, 64)
		raw, err := inst.ID(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(BeFalse())
		Expect(ctx.Regs.PC.Value()).To(Equal(int64(0)))
	})

	It("should link the return address for jal", func() {
		inst := build("jal", 256)
		inst.SetAddress(12)
		_, err := inst.ID(ctx)
		var jump *insts.JumpSignal
		Expect(errors.As(err, &jump)).To(BeTrue())
		Expect(inst.EX(ctx)).To(Succeed())
		Expect(inst.WB(ctx)).To(Succeed())
		Expect(ctx.Regs.GPR[31].Value()).To(Equal(int64(16)))
	})

	It("should jump through a register", func() {
		ctx.Regs.GPR[4].WriteDoubleWord(128)
		_, err := build("jr", 4).ID(ctx)
		var jump *insts.JumpSignal
		Expect(errors.As(err, &jump)).To(BeTrue())
		Expect(jump.Target).To(Equal(uint32(128)))
	})
})

var _ = Describe("FP behaviors", func() {
	var ctx *insts.Context

	BeforeEach(func() {
		ctx, _ = newContext(config.Default())
	})

	It("should add doubles", func() {
		ctx.Regs.FPR[1].WriteDouble(1.5)
		ctx.Regs.FPR[2].WriteDouble(2.25)
		Expect(run(ctx, build("add.d", 3, 1, 2))).To(Succeed())
		Expect(ctx.Regs.FPR[3].Double()).To(Equal(3.75))
		Expect(ctx.Regs.FPR[3].WAWSemaphore()).To(Equal(0))
	})

	It("should raise WAW when the destination has an FP write in flight", func() {
		ctx.Regs.FPR[3].IncrWAWSemaphore()
		_, err := build("add.d", 3, 1, 2).ID(ctx)
		var waw *insts.WAWSignal
		Expect(errors.As(err, &waw)).To(BeTrue())
	})

	It("should flag division by zero when the trap is disabled", func() {
		ctx.Regs.FPR[1].WriteDouble(4)
		Expect(run(ctx, build("div.d", 3, 1, 2))).To(Succeed())
		Expect(math.IsInf(ctx.Regs.FPR[3].Double(), 1)).To(BeTrue())
		Expect(ctx.Regs.FCSR.Flag(emu.FPDivideByZero)).To(BeTrue())
	})

	It("should trap division by zero when enabled", func() {
		ctx.Regs.FCSR.SetEnabled(emu.FPDivideByZero, true)
		ctx.Regs.FPR[1].WriteDouble(4)
		err := run(ctx, build("div.d", 3, 1, 2))
		var sync *insts.SynchronousError
		Expect(errors.As(err, &sync)).To(BeTrue())
		Expect(sync.Code).To(Equal(insts.CodeFPDivideByZero))
	})

	It("should move bits between GPRs and FPRs", func() {
		ctx.Regs.GPR[1].WriteDoubleWord(0x3FF0000000000000) // 1.0
		Expect(run(ctx, build("dmtc1", 1, 2))).To(Succeed())
		Expect(ctx.Regs.FPR[2].Double()).To(Equal(1.0))

		Expect(run(ctx, build("dmfc1", 3, 2))).To(Succeed())
		Expect(ctx.Regs.GPR[3].Value()).To(Equal(int64(0x3FF0000000000000)))
	})

	It("should convert with the configured rounding mode", func() {
		ctx.Regs.FPR[1].WriteDouble(2.7)
		ctx.Regs.FCSR.SetRoundingMode(emu.RoundTowardZero)
		Expect(run(ctx, build("cvt.l.d", 2, 1))).To(Succeed())
		Expect(ctx.Regs.FPR[2].Bits()).To(Equal(uint64(2)))

		ctx.Regs.FCSR.SetRoundingMode(emu.RoundTowardPlusInfinity)
		Expect(run(ctx, build("cvt.l.d", 3, 1))).To(Succeed())
		Expect(ctx.Regs.FPR[3].Bits()).To(Equal(uint64(3)))
	})
})

var _ = Describe("Control behaviors", func() {
	It("should request the stopping state from halt's IF", func() {
		ctx, status := newContext(config.Default())
		inst := build("halt")
		Expect(inst.IF(ctx)).To(Succeed())
		Expect(status.stopping).To(BeTrue())
	})

	It("should treat syscall 0 as a terminator", func() {
		ctx, status := newContext(config.Default())
		inst := build("syscall", 0)
		Expect(inst.IF(ctx)).To(Succeed())
		Expect(status.stopping).To(BeTrue())
	})

	It("should raise Break from break's IF", func() {
		ctx, _ := newContext(config.Default())
		err := build("break").IF(ctx)
		var brk *insts.BreakSignal
		Expect(errors.As(err, &brk)).To(BeTrue())
	})

	It("should pack the terminating encodings", func() {
		halt := build("halt")
		Expect(halt.Pack()).To(Succeed())
		Expect(halt.Repr()).To(Equal(insts.HaltRepr))

		sys := build("syscall", 0)
		Expect(sys.Pack()).To(Succeed())
		Expect(sys.Repr()).To(Equal(insts.Syscall0Repr))
	})
})
