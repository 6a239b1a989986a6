package fpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edumips64/edumips64/insts"
	"github.com/edumips64/edumips64/timing/fpu"
)

func fpInst(name string) insts.FPArith {
	inst, err := insts.New(name)
	Expect(err).NotTo(HaveOccurred())
	fa, ok := inst.(insts.FPArith)
	Expect(ok).To(BeTrue())
	return fa
}

var _ = Describe("Pipeline", func() {
	var p *fpu.Pipeline

	BeforeEach(func() {
		p = fpu.NewPipeline()
	})

	It("should start empty", func() {
		Expect(p.Empty()).To(BeTrue())
		Expect(p.PullCompleted()).To(BeNil())
	})

	Describe("adder", func() {
		It("should deliver an instruction on the fourth exit attempt", func() {
			add := fpInst("add.d")
			Expect(p.Put(add)).To(Succeed())
			for i := 0; i < 3; i++ {
				Expect(p.PullCompleted()).To(BeNil())
				p.Step()
			}
			Expect(p.PullCompleted()).To(BeIdenticalTo(add))
			Expect(p.Empty()).To(BeTrue())
		})

		It("should reject a second instruction while the entry is busy", func() {
			Expect(p.Put(fpInst("add.d"))).To(Succeed())
			Expect(p.CanAccept(fpInst("sub.d"))).To(HaveOccurred())
			p.Step()
			Expect(p.CanAccept(fpInst("sub.d"))).To(Succeed())
		})
	})

	Describe("multiplier", func() {
		It("should deliver an instruction on the seventh exit attempt", func() {
			mul := fpInst("mul.d")
			Expect(p.Put(mul)).To(Succeed())
			for i := 0; i < 6; i++ {
				Expect(p.PullCompleted()).To(BeNil())
				p.Step()
			}
			Expect(p.PullCompleted()).To(BeIdenticalTo(mul))
		})
	})

	Describe("divider", func() {
		It("should hold one instruction for the configured latency", func() {
			p = fpu.NewPipeline(fpu.WithDividerLatency(3))
			div := fpInst("div.d")
			Expect(p.Put(div)).To(Succeed())
			Expect(p.CanAccept(fpInst("div.d"))).To(HaveOccurred())
			for i := 0; i < 3; i++ {
				Expect(p.PullCompleted()).To(BeNil())
				p.Step()
			}
			Expect(p.PullCompleted()).To(BeIdenticalTo(div))
			Expect(p.CanAccept(fpInst("div.d"))).To(Succeed())
		})

		It("should default to 24 cycles", func() {
			div := fpInst("div.d")
			Expect(p.Put(div)).To(Succeed())
			for i := 0; i < 24; i++ {
				Expect(p.PullCompleted()).To(BeNil())
				p.Step()
			}
			Expect(p.PullCompleted()).To(BeIdenticalTo(div))
		})
	})

	Describe("completion arbitration", func() {
		It("should prefer the divider, then the multiplier, then the adder", func() {
			p = fpu.NewPipeline(fpu.WithDividerLatency(7))
			div := fpInst("div.d")
			mul := fpInst("mul.d")
			add := fpInst("add.d")
			Expect(p.Put(div)).To(Succeed())
			Expect(p.Put(mul)).To(Succeed())
			Expect(p.Put(add)).To(Succeed())

			// After seven shifts all three are ready: the adder has been
			// waiting at A4, the multiplier has been at M7 since the sixth,
			// the divider just counted down.
			for i := 0; i < 7; i++ {
				p.Step()
			}
			Expect(p.ReadyCount()).To(Equal(3))
			Expect(p.PullCompleted()).To(BeIdenticalTo(div))
			Expect(p.PullCompleted()).To(BeIdenticalTo(mul))
			Expect(p.PullCompleted()).To(BeIdenticalTo(add))
		})

		It("should retain losers for later cycles", func() {
			p = fpu.NewPipeline(fpu.WithDividerLatency(4))
			div := fpInst("div.d")
			add := fpInst("add.d")
			Expect(p.Put(div)).To(Succeed())
			Expect(p.Put(add)).To(Succeed())
			for i := 0; i < 4; i++ {
				p.Step()
			}
			Expect(p.ReadyCount()).To(Equal(2))
			Expect(p.PullCompleted()).To(BeIdenticalTo(div))
			Expect(p.ReadyCount()).To(Equal(1))
			p.Step()
			Expect(p.PullCompleted()).To(BeIdenticalTo(add))
		})
	})

	Describe("exit blocking", func() {
		It("should hold earlier positions when the exit is occupied", func() {
			first := fpInst("add.d")
			second := fpInst("sub.d")
			Expect(p.Put(first)).To(Succeed())
			p.Step()
			Expect(p.Put(second)).To(Succeed())
			for i := 0; i < 5; i++ {
				p.Step()
			}
			// first has been ready and not pulled; second is stuck behind it.
			Expect(p.PullCompleted()).To(BeIdenticalTo(first))
			p.Step()
			Expect(p.PullCompleted()).To(BeIdenticalTo(second))
		})
	})

	Describe("Snapshot", func() {
		It("should expose unit occupancy", func() {
			p = fpu.NewPipeline(fpu.WithDividerLatency(10))
			Expect(p.Put(fpInst("div.d"))).To(Succeed())
			Expect(p.Put(fpInst("add.d"))).To(Succeed())
			v := p.Snapshot()
			Expect(v.Divider).NotTo(BeNil())
			Expect(v.DividerCounter).To(Equal(10))
			Expect(v.Adder[0]).NotTo(BeNil())
		})
	})
})
