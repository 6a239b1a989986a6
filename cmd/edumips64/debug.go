//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/edumips64/edumips64/insts"
	"github.com/edumips64/edumips64/sim"
	"github.com/edumips64/edumips64/timing/pipeline"
)

// runInteractive steps the simulator one key at a time:
//
//	s/space  step one cycle
//	p        print the pipeline
//	r        print the registers
//	c        run to halt
//	q        quit
func runInteractive(s *sim.Simulator) error {
	if err := enterRawTerm(); err != nil {
		return fmt.Errorf("failed to enter raw terminal mode: %w", err)
	}
	defer exitRawTerm()

	fmt.Println("interactive mode: [s]tep [p]ipeline [r]egisters [c]ontinue [q]uit")
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		switch buf[0] {
		case 's', ' ':
			if done, err := stepOnce(s); done || err != nil {
				return err
			}
			printPipeline(s)
		case 'p':
			printPipeline(s)
		case 'r':
			printSummary(s)
		case 'c':
			for {
				done, err := stepOnce(s)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		case 'q':
			return nil
		}
	}
}

// stepOnce performs one cycle, reporting completion and swallowing the
// signals that are part of normal control flow.
func stepOnce(s *sim.Simulator) (done bool, err error) {
	stepErr := s.Step()
	if stepErr == nil {
		return false, nil
	}

	var (
		halt *pipeline.HaltSignal
		brk  *insts.BreakSignal
		sync *insts.SynchronousError
	)
	switch {
	case errors.As(stepErr, &halt):
		fmt.Println("halted")
		printSummary(s)
		return true, nil
	case errors.As(stepErr, &brk):
		fmt.Println("break")
		return false, nil
	case errors.As(stepErr, &sync):
		fmt.Printf("synchronous exception: %s\n", sync.Code)
		return false, nil
	default:
		return false, stepErr
	}
}
