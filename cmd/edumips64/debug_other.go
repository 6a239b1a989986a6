//go:build !linux

package main

import (
	"errors"

	"github.com/edumips64/edumips64/sim"
)

func runInteractive(*sim.Simulator) error {
	return errors.New("interactive mode is only available on Linux")
}
