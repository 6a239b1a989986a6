// Package main provides the edumips64 command line simulator front end.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/edumips64/edumips64/config"
	"github.com/edumips64/edumips64/insts"
	"github.com/edumips64/edumips64/sim"
	"github.com/edumips64/edumips64/timing/pipeline"
)

var (
	forwarding  = flag.Bool("forwarding", true, "Enable EX/MEM forwarding")
	configPath  = flag.String("config", "", "Path to a configuration JSON file")
	verbose     = flag.Bool("v", false, "Verbose output (debug logging)")
	maxCycles   = flag.Uint64("max-cycles", 100000, "Abort after this many cycles (0 = no limit)")
	interactive = flag.Bool("i", false, "Interactive stepper")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: edumips64 [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logrus.SetLevel(logrus.WarnLevel)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Forwarding = *forwarding

	s := sim.New(cfg)
	if err := s.LoadFile(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runToHalt(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printSummary(s)
}

// runToHalt runs the program to completion, resuming over break
// instructions.
func runToHalt(s *sim.Simulator) error {
	for {
		err := s.Run(*maxCycles)
		if err == nil {
			return nil
		}
		var brk *insts.BreakSignal
		if errors.As(err, &brk) {
			fmt.Println("break: resuming")
			continue
		}
		return err
	}
}

func printSummary(s *sim.Simulator) {
	stats := s.CPU.Stats()
	fmt.Printf("Cycles:        %d\n", stats.Cycles)
	fmt.Printf("Instructions:  %d\n", stats.Instructions)
	fmt.Printf("CPI:           %.2f\n", stats.CPI())
	fmt.Printf("RAW stalls:    %d\n", stats.RAWStalls)
	fmt.Printf("WAW stalls:    %d\n", stats.WAWStalls)
	fmt.Printf("Structural:    divider=%d fu=%d mem=%d ex=%d\n",
		stats.DividerStalls, stats.FuncUnitStalls, stats.MemoryStalls, stats.EXStalls)

	fmt.Println()
	for i, r := range s.Regs.GPR {
		if v := r.Value(); v != 0 {
			fmt.Printf("R%-2d = 0x%016X (%d)\n", i, uint64(v), v)
		}
	}
	for i, r := range s.Regs.FPR {
		if r.Bits() != 0 {
			fmt.Printf("F%-2d = %g\n", i, r.Double())
		}
	}
}

func printPipeline(s *sim.Simulator) {
	snap := s.CPU.Snapshot()
	fmt.Printf("cycle %d  status %s  pc 0x%X\n", snap.Cycle, snap.Status, uint64(snap.PC))
	for _, st := range []pipeline.Stage{pipeline.IF, pipeline.ID, pipeline.EX, pipeline.MEM, pipeline.WB} {
		v := snap.Stages[st]
		switch {
		case v.Empty:
			fmt.Printf("  %-3s -\n", st)
		default:
			fmt.Printf("  %-3s %s (0x%08X)\n", st, v.Name, v.Repr)
		}
	}
	if snap.FPU.Divider != nil {
		fmt.Printf("  DIV %s (%d cycles left)\n", snap.FPU.Divider.Name(), snap.FPU.DividerCounter)
	}
}
