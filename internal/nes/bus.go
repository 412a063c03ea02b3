package nes

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// DefaultPPUTicksPerCycle is the NTSC ratio of PPU dots to CPU cycles.
const DefaultPPUTicksPerCycle = 3

// ErrStepBudget is returned by Tic once Options.MaxSteps instructions ran.
var ErrStepBudget = errors.New("step budget exhausted")

type Options struct {
	// PPU ticks run after each instruction, per CPU cycle it took.
	// Zero means DefaultPPUTicksPerCycle.
	PPUTicksPerCycle int

	// Tracer receives one line per executed instruction. nil disables tracing.
	Tracer *log.Logger

	// MaxSteps caps the instructions Tic may run. Zero means no limit.
	// Run takes its own budget.
	MaxSteps int
}

// Bus owns the whole console: memory, CPU and PPU.
// It is not safe for concurrent use.
type Bus struct {
	cpu  *CPU
	ppu  *PPU
	mem  *Memory
	cart *Cart

	ppuTicksPerCycle int
	maxSteps         uint64
	steps            uint64

	paused  bool
	oneStep bool
}

func NewBus(opts Options) *Bus {
	b := &Bus{
		ppuTicksPerCycle: opts.PPUTicksPerCycle,
	}
	if b.ppuTicksPerCycle <= 0 {
		b.ppuTicksPerCycle = DefaultPPUTicksPerCycle
	}
	if opts.MaxSteps > 0 {
		b.maxSteps = uint64(opts.MaxSteps)
	}
	b.mem = NewMemory()
	b.ppu = NewPPU()
	b.mem.Map(ppuRegistersStart, ppuRegistersEnd, b.ppu)
	b.cpu = NewCPU(b.mem)
	b.cpu.SetTracer(opts.Tracer)
	return b
}

// LoadCart wipes memory left by a previous cartridge, installs this one
// and resets the console.
func (b *Bus) LoadCart(cart *Cart) error {
	b.mem.Clear()
	if err := cart.install(b.mem); err != nil {
		return fmt.Errorf("couldn't install PRG ROM: %w", err)
	}
	b.cart = cart
	b.ppu.LoadPatterns(cart.Patterns())
	b.Reset()
	return nil
}

func (b *Bus) Reset() {
	b.ppu.Reset()
	b.cpu.Reset()
	b.steps = 0
}

// Step executes one instruction and advances the PPU accordingly.
func (b *Bus) Step() error {
	cycles, err := b.cpu.Step()
	for i := 0; i < int(cycles)*b.ppuTicksPerCycle; i++ {
		b.ppu.Tic()
	}
	if err != nil {
		return err
	}
	b.steps++
	return nil
}

// Run steps until the CPU stops or maxSteps instructions were executed.
// Exhausting the budget is not an error.
func (b *Bus) Run(maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		if err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Tic runs the console for one video frame, honoring pause and single step.
// It returns ErrStepBudget once the step budget is used up.
func (b *Bus) Tic() error {
	if b.budgetExhausted() {
		return ErrStepBudget
	}
	if b.paused && !b.oneStep {
		return nil
	}
	if b.oneStep {
		b.oneStep = false
		return b.Step()
	}

	frame := b.ppu.Frame()
	for b.ppu.Frame() == frame {
		if b.budgetExhausted() {
			return ErrStepBudget
		}
		if err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) budgetExhausted() bool {
	return b.maxSteps > 0 && b.steps >= b.maxSteps
}

func (b *Bus) TooglePause() {
	b.paused = !b.paused
}

func (b *Bus) OneStepAndStop() {
	b.paused = true
	b.oneStep = true
}

func (b *Bus) Steps() uint64 {
	return b.steps
}

func (b *Bus) Disassemble() map[uint16]string {
	return b.cpu.Disassemble()
}

func (b *Bus) PPU() *PPU {
	return b.ppu
}

func (b *Bus) Memory() *Memory {
	return b.mem
}

type DebugInfo struct {
	A  uint8
	X  uint8
	Y  uint8
	P  uint8
	SP uint8
	PC uint16

	TotalCycles uint64
	Steps       uint64

	PPUStatus   uint8
	PPUCycle    uint16
	PPUScanline uint16
	PPUFrame    uint64
}

func (b *Bus) DebugInfo() DebugInfo {
	return DebugInfo{
		A:           b.cpu.a,
		X:           b.cpu.x,
		Y:           b.cpu.y,
		P:           b.cpu.p,
		SP:          b.cpu.sp,
		PC:          b.cpu.pc,
		TotalCycles: b.cpu.totalCycles,
		Steps:       b.steps,
		PPUStatus:   b.ppu.Status(),
		PPUCycle:    b.ppu.Cycle(),
		PPUScanline: b.ppu.Scanline(),
		PPUFrame:    b.ppu.Frame(),
	}
}

// StatusString renders P as NV-BDIZC, upper case for set flags.
func (d DebugInfo) StatusString() string {
	const names = "NV-BDIZC"
	var s strings.Builder
	for i := 0; i < 8; i++ {
		c := names[i]
		if d.P&(0x80>>i) == 0 && c != '-' {
			c += 'a' - 'A'
		}
		s.WriteByte(c)
	}
	return s.String()
}
