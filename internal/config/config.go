// Package config holds the emulator settings loaded from a JSON file
// and overridden from the command line.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nevisdale/nescore/internal/nes"
)

const (
	DefaultMaxSteps    = 100000
	DefaultProfilePath = "."
)

// Profile modes accepted by DebugConfig.Profile.
const (
	ProfileNone  = ""
	ProfileCPU   = "cpu"
	ProfileMem   = "mem"
	ProfileTrace = "trace"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	ROM       string          `json:"rom"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
}

type EmulationConfig struct {
	MaxSteps         int `json:"max_steps"`           // instructions executed before stopping
	PPUTicksPerCycle int `json:"ppu_ticks_per_cycle"` // PPU dots per CPU cycle
}

type DebugConfig struct {
	Trace       bool   `json:"trace"`   // log every instruction
	UI          bool   `json:"ui"`      // open the debug viewer instead of running headless
	Profile     string `json:"profile"` // "", "cpu", "mem" or "trace"
	ProfilePath string `json:"profile_path"`
}

// New returns a configuration with default values.
func New() *Config {
	return &Config{
		Emulation: EmulationConfig{
			MaxSteps:         DefaultMaxSteps,
			PPUTicksPerCycle: nes.DefaultPPUTicksPerCycle,
		},
		Debug: DebugConfig{
			ProfilePath: DefaultProfilePath,
		},
	}
}

// Load reads path on top of the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := New()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("couldn't parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("couldn't encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("couldn't write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Emulation.MaxSteps <= 0 {
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalid, c.Emulation.MaxSteps)
	}
	if c.Emulation.PPUTicksPerCycle <= 0 {
		return fmt.Errorf("%w: ppu_ticks_per_cycle must be positive, got %d", ErrInvalid, c.Emulation.PPUTicksPerCycle)
	}
	switch c.Debug.Profile {
	case ProfileNone, ProfileCPU, ProfileMem, ProfileTrace:
	default:
		return fmt.Errorf("%w: unknown profile mode %q", ErrInvalid, c.Debug.Profile)
	}
	return nil
}
