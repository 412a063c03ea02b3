package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nevisdale/nescore/internal/nes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, New(), cfg)
	assert.Equal(t, DefaultMaxSteps, cfg.Emulation.MaxSteps)
	assert.Equal(t, nes.DefaultPPUTicksPerCycle, cfg.Emulation.PPUTicksPerCycle)
	assert.Equal(t, ProfileNone, cfg.Debug.Profile)
	assert.Equal(t, DefaultProfilePath, cfg.Debug.ProfilePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Partial(t *testing.T) {
	path := writeFile(t, `{"rom": "game.nes", "debug": {"trace": true, "profile": "cpu"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "game.nes", cfg.ROM)
	assert.True(t, cfg.Debug.Trace)
	assert.Equal(t, ProfileCPU, cfg.Debug.Profile)
	assert.Equal(t, DefaultMaxSteps, cfg.Emulation.MaxSteps, "missing keys keep defaults")
	assert.Equal(t, nes.DefaultPPUTicksPerCycle, cfg.Emulation.PPUTicksPerCycle)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"malformed", `{"rom": `, false},
		{"zero steps", `{"emulation": {"max_steps": 0}}`, true},
		{"negative ratio", `{"emulation": {"ppu_ticks_per_cycle": -1}}`, true},
		{"unknown profile", `{"debug": {"profile": "block"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestSave(t *testing.T) {
	cfg := New()
	cfg.ROM = "roms/nestest.nes"
	cfg.Emulation.MaxSteps = 42
	cfg.Debug.UI = true
	cfg.Debug.Profile = ProfileMem

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max_steps": 42`)
}
