package nes

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBus loads program at $8000 of a single bank cartridge with the
// reset vector pointing at it.
func newTestBus(t *testing.T, opts Options, program ...uint8) *Bus {
	t.Helper()

	data := romImage{prgBanks: 1, chrBanks: 1}.bytes()
	prg := data[headerSizeBytes : headerSizeBytes+prgBankSizeBytes]
	clear(prg)
	copy(prg, program)
	prg[0x3ffc] = 0x00
	prg[0x3ffd] = 0x80

	cart, err := NewCartFromBytes(data)
	require.NoError(t, err)

	bus := NewBus(opts)
	require.NoError(t, bus.LoadCart(cart))
	return bus
}

func TestBus_LoadCart(t *testing.T) {
	bus := newTestBus(t, Options{}, 0xea)

	info := bus.DebugInfo()
	assert.Equal(t, uint16(0x8000), info.PC)
	assert.Equal(t, uint8(0xfd), info.SP)
	assert.Equal(t, uint8(0x24), info.P)
	assert.Equal(t, uint64(7), info.TotalCycles)
	assert.Equal(t, uint8(0xea), bus.Memory().Peek8(0xc000), "single bank is mirrored")
	assert.Len(t, bus.PPU().Patterns(), chrBankSizeBytes)
}

func TestBus_LoadSecondCart(t *testing.T) {
	bus := newTestBus(t, Options{}, 0xea)
	bus.Memory().Write8(0x0010, 0x42)
	bus.Memory().Write8(0x6000, 0x99)
	bus.Memory().Write8(0x2000, 0x80)

	cart, err := NewCartFromBytes(romImage{prgBanks: 2, chrBanks: 1}.bytes())
	require.NoError(t, err)
	require.NoError(t, bus.LoadCart(cart))

	assert.Equal(t, uint8(0), bus.Memory().Peek8(0x0010), "zero page")
	assert.Equal(t, uint8(0), bus.Memory().Peek8(0x6000))
	assert.Equal(t, uint8(0), bus.Memory().Peek8(0x2000), "PPU registers")
	assert.Equal(t, uint8(1), bus.Memory().Peek8(0x8000))
	assert.Equal(t, uint8(2), bus.Memory().Peek8(0xc000), "the old mirror is gone")
	assert.Equal(t, uint16(0x0202), bus.DebugInfo().PC, "reset vector of the new cart")
}

func TestBus_WaitForVBlank(t *testing.T) {
	// $8000  LDA $2002
	// $8003  BPL $8000
	// $8005  BRK
	bus := newTestBus(t, Options{}, 0xad, 0x02, 0x20, 0x10, 0xfb, 0x00)

	err := bus.Run(1_000_000)
	require.ErrorIs(t, err, ErrHalted)

	info := bus.DebugInfo()
	assert.NotZero(t, info.A&statusVBlank, "A holds the status read that saw vblank")
	assert.Equal(t, info.A&0x80 != 0, info.P&flagN != 0)
	assert.False(t, bus.PPU().VBlank(), "the read cleared vblank")
	assert.Equal(t, uint16(ppuVBlankScanline), bus.PPU().Scanline())
	assert.Equal(t, uint64(0), bus.PPU().Frame())

	// 7 cycles per loop, 3 dots per cycle: the loop spins until scanline 241
	loops := (bus.Steps() - 1) / 2
	assert.GreaterOrEqual(t, loops*7*3, uint64(ppuCyclesPerScanline*(ppuVBlankScanline-1)))

	err = bus.Step()
	assert.ErrorIs(t, err, ErrHalted)
}

func TestBus_Run(t *testing.T) {
	t.Run("budget exhausted", func(t *testing.T) {
		bus := newTestBus(t, Options{}, 0x4c, 0x00, 0x80) // JMP $8000

		require.NoError(t, bus.Run(10))
		assert.Equal(t, uint64(10), bus.Steps())
		assert.Equal(t, uint64(7+10*3), bus.DebugInfo().TotalCycles)
		assert.Equal(t, uint16(10*3*3), bus.PPU().Cycle())
	})

	t.Run("zero budget", func(t *testing.T) {
		bus := newTestBus(t, Options{}, 0x02)

		require.NoError(t, bus.Run(0))
		assert.Equal(t, uint64(0), bus.Steps())
	})

	t.Run("unsupported opcode", func(t *testing.T) {
		bus := newTestBus(t, Options{}, 0xea, 0x02)

		err := bus.Run(10)
		assert.ErrorIs(t, err, ErrUnsupportedOpcode)
		assert.Equal(t, uint64(1), bus.Steps())
		assert.ErrorIs(t, bus.Step(), ErrHalted)
	})
}

func TestBus_PPUTicksPerCycle(t *testing.T) {
	tests := []struct {
		name  string
		ratio int
		want  uint16
	}{
		{"default", 0, 2 * DefaultPPUTicksPerCycle},
		{"one to one", 1, 2},
		{"PAL-like", 4, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newTestBus(t, Options{PPUTicksPerCycle: tt.ratio}, 0xea) // NOP

			require.NoError(t, bus.Step())
			assert.Equal(t, tt.want, bus.PPU().Cycle())
		})
	}
}

func TestBus_Tic(t *testing.T) {
	bus := newTestBus(t, Options{}, 0x4c, 0x00, 0x80) // JMP $8000

	bus.TooglePause()
	require.NoError(t, bus.Tic())
	assert.Equal(t, uint64(0), bus.Steps())

	bus.OneStepAndStop()
	require.NoError(t, bus.Tic())
	assert.Equal(t, uint64(1), bus.Steps())
	require.NoError(t, bus.Tic())
	assert.Equal(t, uint64(1), bus.Steps(), "still paused after the single step")

	bus.TooglePause()
	require.NoError(t, bus.Tic())
	assert.Equal(t, uint64(1), bus.PPU().Frame())
	assert.Equal(t, uint16(0), bus.PPU().Scanline())
}

func TestBus_TicStepBudget(t *testing.T) {
	t.Run("stops mid frame", func(t *testing.T) {
		bus := newTestBus(t, Options{MaxSteps: 5}, 0x4c, 0x00, 0x80) // JMP $8000

		assert.ErrorIs(t, bus.Tic(), ErrStepBudget)
		assert.Equal(t, uint64(5), bus.Steps())
		assert.Equal(t, uint64(0), bus.PPU().Frame())

		assert.ErrorIs(t, bus.Tic(), ErrStepBudget)
		assert.Equal(t, uint64(5), bus.Steps())
	})

	t.Run("single step honors the budget", func(t *testing.T) {
		bus := newTestBus(t, Options{MaxSteps: 1}, 0xea, 0xea)

		bus.OneStepAndStop()
		require.NoError(t, bus.Tic())
		bus.OneStepAndStop()
		assert.ErrorIs(t, bus.Tic(), ErrStepBudget)
		assert.Equal(t, uint64(1), bus.Steps())
	})

	t.Run("no budget", func(t *testing.T) {
		bus := newTestBus(t, Options{}, 0x4c, 0x00, 0x80) // JMP $8000

		require.NoError(t, bus.Tic())
		assert.Equal(t, uint64(1), bus.PPU().Frame())
	})
}

func TestBus_Reset(t *testing.T) {
	bus := newTestBus(t, Options{}, 0xe8, 0x4c, 0x00, 0x80) // INX; JMP $8000
	require.NoError(t, bus.Run(100))
	bus.Memory().Write8(0x0010, 0x42)

	bus.Reset()

	info := bus.DebugInfo()
	assert.Equal(t, uint16(0x8000), info.PC)
	assert.Equal(t, uint64(0), info.Steps)
	assert.Equal(t, uint16(0), info.PPUCycle)
	assert.Equal(t, uint8(0x42), bus.Memory().Peek8(0x0010), "memory survives a reset")
}

func TestBus_Trace(t *testing.T) {
	var out bytes.Buffer
	// LDX #$05; BRK
	bus := newTestBus(t, Options{Tracer: log.New(&out, "", 0)}, 0xa2, 0x05, 0x00)

	assert.ErrorIs(t, bus.Run(10), ErrHalted)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "$8000: LDX #$05 {IMM}")
	assert.Contains(t, lines[0], "X:00")
	assert.Contains(t, lines[1], "$8002: BRK {IMP}")
	assert.Contains(t, lines[1], "X:05")
}

func TestBus_DisassembleHasNoSideEffects(t *testing.T) {
	bus := newTestBus(t, Options{}, 0xad, 0x02, 0x20)
	bus.ppu.ppustatus = statusVBlank

	disasm := bus.Disassemble()

	assert.Equal(t, "$8000: LDA $2002 {ABS}", disasm[0x8000])
	assert.True(t, bus.PPU().VBlank())
}

func TestDebugInfo_StatusString(t *testing.T) {
	tests := []struct {
		p    uint8
		want string
	}{
		{0x00, "nv-bdizc"},
		{0x24, "nv-bdIzc"},
		{0xff, "NV-BDIZC"},
		{0x83, "Nv-bdiZC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DebugInfo{P: tt.p}.StatusString(), "P=%02X", tt.p)
	}
}
