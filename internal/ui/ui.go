package ui

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/nevisdale/nescore/internal/nes"
)

// P - pause
// R - one step and stop
// C - next palette

// There is no palette RAM in the core, so pattern tables are shown
// with fixed 4-color ramps.
var palettes = []color.Palette{
	{color.Gray{0x00}, color.Gray{0x55}, color.Gray{0xaa}, color.Gray{0xff}},
	{color.RGBA{0x00, 0x00, 0x00, 0xff}, color.RGBA{0xb8, 0x1c, 0x00, 0xff}, color.RGBA{0xf8, 0x98, 0x38, 0xff}, color.RGBA{0xfc, 0xfc, 0xfc, 0xff}},
	{color.RGBA{0x00, 0x00, 0x00, 0xff}, color.RGBA{0x00, 0x78, 0x00, 0xff}, color.RGBA{0x58, 0xd8, 0x54, 0xff}, color.RGBA{0xfc, 0xfc, 0xfc, 0xff}},
	{color.RGBA{0x00, 0x00, 0x00, 0xff}, color.RGBA{0x00, 0x58, 0xf8, 0xff}, color.RGBA{0x3c, 0xbc, 0xfc, 0xff}, color.RGBA{0xfc, 0xfc, 0xfc, 0xff}},
}

type UI struct {
	bus    *nes.Bus
	disasm map[uint16]string

	palette int
}

func New(bus *nes.Bus) *UI {
	return &UI{
		bus:    bus,
		disasm: bus.Disassemble(),
	}
}

func (ui *UI) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		ui.palette = (ui.palette + 1) % len(palettes)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		ui.bus.TooglePause()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		ui.bus.OneStepAndStop()
	}

	err := ui.bus.Tic()
	if errors.Is(err, nes.ErrStepBudget) {
		return ebiten.Termination
	}
	return err
}

func (ui *UI) Draw(screen *ebiten.Image) {
	info := ui.bus.DebugInfo()
	var infoStr strings.Builder
	fmt.Fprintf(&infoStr, " FPS: %0.0f\n", ebiten.ActualFPS())
	fmt.Fprintf(&infoStr, " PALETTE: %d\n", ui.palette)
	fmt.Fprintf(&infoStr, " STATUS: %s\n", info.StatusString())
	fmt.Fprintf(&infoStr, " PC: %04X  STEPS: %d  CYC: %d\n", info.PC, info.Steps, info.TotalCycles)
	fmt.Fprintf(&infoStr, " A: $%02X [%03d]", info.A, info.A)
	fmt.Fprintf(&infoStr, " X: $%02X [%03d]", info.X, info.X)
	fmt.Fprintf(&infoStr, " Y: $%02X [%03d]\n", info.Y, info.Y)
	fmt.Fprintf(&infoStr, " SP: $%02X\n", info.SP)
	fmt.Fprintf(&infoStr, " PPU: $%02X  LINE: %03d  DOT: %03d  FRAME: %d\n",
		info.PPUStatus, info.PPUScanline, info.PPUCycle, info.PPUFrame)

	for i := max(0, int(info.PC)-7); i < int(info.PC); i++ {
		if line, ok := ui.disasm[uint16(i)]; ok {
			infoStr.WriteString(" " + line + "\n")
		}
	}
	infoStr.WriteString("*" + ui.disasm[info.PC] + "\n")
	for i := int(info.PC) + 1; i < min(0xffff, int(info.PC)+7); i++ {
		if line, ok := ui.disasm[uint16(i)]; ok {
			infoStr.WriteString(" " + line + "\n")
		}
	}

	vector.DrawFilledRect(screen, 0, 0, screenWidth, screenHeight, color.RGBA{50, 50, 50, 255}, false)
	ebitenutil.DebugPrintAt(screen, infoStr.String(), 0, 0)

	ppu := ui.bus.PPU()
	for i := 0; i < 2; i++ {
		tilesImg := ebiten.NewImageFromImage(ppu.PatternTable(uint8(i), palettes[ui.palette]))
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(patternScale, patternScale)
		op.GeoM.Translate(10+float64(i)*(128*patternScale+10), screenHeight-128*patternScale-10)
		screen.DrawImage(tilesImg, op)
	}
}

const (
	patternScale = 2

	screenWidth  = 2*128*patternScale + 30
	screenHeight = 480
)

func (ui *UI) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

func RunUI(ui *UI) error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("nescore")
	ebiten.SetTPS(60)
	return ebiten.RunGame(ui)
}
