// Package config holds the read-only simulator configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config enumerates every knob the simulation core reacts to. The core never
// mutates it; callers build one up front and hand it to the simulator.
type Config struct {
	// Forwarding enables the EX/MEM -> EX bypass for RAW resolution.
	Forwarding bool `json:"forwarding"`

	// SyncExceptionsMasked suppresses synchronous exceptions silently.
	SyncExceptionsMasked bool `json:"sync_exceptions_masked"`

	// SyncExceptionsTerminate aborts the run on an unmasked synchronous
	// exception instead of finishing the cycle first.
	SyncExceptionsTerminate bool `json:"sync_exceptions_terminate"`

	// FP exception enables, copied into the FCSR on every cycle.
	FPInvalidOperation bool `json:"fp_invalid_operation"`
	FPOverflow         bool `json:"fp_overflow"`
	FPUnderflow        bool `json:"fp_underflow"`
	FPDivideByZero     bool `json:"fp_divide_by_zero"`

	// Rounding mode selection; exactly one should be set. When none is,
	// round-to-nearest applies.
	FPNearest              bool `json:"fp_nearest"`
	FPTowardsZero          bool `json:"fp_towards_zero"`
	FPTowardsPlusInfinity  bool `json:"fp_towards_plus_infinity"`
	FPTowardsMinusInfinity bool `json:"fp_towards_minus_infinity"`
}

// Default returns the configuration the simulator ships with: forwarding on,
// exceptions unmasked and non-terminating, round to nearest.
func Default() *Config {
	return &Config{
		Forwarding: true,
		FPNearest:  true,
	}
}

// Load reads a configuration from a JSON file, starting from Default for any
// field the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
