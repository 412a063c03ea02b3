package nes

import (
	"image"
	"image/color"
)

const (
	ppuRegistersStart = uint16(0x2000)
	ppuRegistersEnd   = uint16(0x2007)
	ppuStatusAddr     = uint16(0x2002)

	ppuCyclesPerScanline = 341
	ppuScanlinesPerFrame = 262
	ppuVBlankScanline    = 241

	statusVBlank = uint8(1 << 7)
)

type PPU struct {
	// Registers
	ppuctrl   uint8
	ppumask   uint8
	ppustatus uint8
	oamaddr   uint8
	oamdata   uint8
	ppuscroll uint8
	ppuaddr   uint8
	ppudata   uint8

	// CHR ROM or CHR RAM handed over by the cartridge
	patterns []uint8

	cycles   uint16
	scanLine uint16
	frame    uint64
}

func NewPPU() *PPU {
	return &PPU{}
}

func (p *PPU) Reset() {
	*p = PPU{patterns: p.patterns}
}

// Read8 reads a PPU register. Reading $2002 clears vblank.
func (p *PPU) Read8(addr uint16) uint8 {
	v := p.Peek8(addr)
	if addr == ppuStatusAddr {
		p.ppustatus &^= statusVBlank
	}
	return v
}

func (p PPU) Peek8(addr uint16) uint8 {
	switch addr {
	case 0x2000:
		return p.ppuctrl
	case 0x2001:
		return p.ppumask
	case 0x2002:
		return p.ppustatus
	case 0x2003:
		return p.oamaddr
	case 0x2004:
		return p.oamdata
	case 0x2005:
		return p.ppuscroll
	case 0x2006:
		return p.ppuaddr
	case 0x2007:
		return p.ppudata
	default:
		return 0
	}
}

func (p *PPU) Write8(addr uint16, data uint8) {
	switch addr {
	case 0x2000:
		p.ppuctrl = data
	case 0x2001:
		p.ppumask = data
	case 0x2002:
		// read-only
	case 0x2003:
		p.oamaddr = data
	case 0x2004:
		p.oamdata = data
	case 0x2005:
		p.ppuscroll = data
	case 0x2006:
		p.ppuaddr = data
	case 0x2007:
		p.ppudata = data
	}
}

// Tic advances the PPU by one cycle.
func (p *PPU) Tic() {
	p.cycles++
	if p.cycles < ppuCyclesPerScanline {
		return
	}
	p.cycles = 0
	p.scanLine++

	if p.scanLine == ppuVBlankScanline {
		p.ppustatus |= statusVBlank
	}
	if p.scanLine == ppuScanlinesPerFrame {
		p.scanLine = 0
		p.ppustatus &^= statusVBlank
		p.frame++
	}
}

func (p PPU) Status() uint8 {
	return p.ppustatus
}

func (p PPU) Cycle() uint16 {
	return p.cycles
}

func (p PPU) Scanline() uint16 {
	return p.scanLine
}

func (p PPU) Frame() uint64 {
	return p.frame
}

func (p PPU) VBlank() bool {
	return p.ppustatus&statusVBlank != 0
}

func (p *PPU) LoadPatterns(chr []uint8) {
	p.patterns = chr
}

func (p PPU) Patterns() []uint8 {
	return p.patterns
}

// PatternTable renders one of the two 4KB pattern tables as a 128x128 image.
// Each tile is 16 bytes: 8 bytes of low bit planes followed by 8 bytes of high bit planes.
func (p PPU) PatternTable(table uint8, palette color.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 128, 128), palette)
	base := int(table&1) * 0x1000
	if base+0x1000 > len(p.patterns) {
		return img
	}

	for tileY := 0; tileY < 16; tileY++ {
		for tileX := 0; tileX < 16; tileX++ {
			offset := base + tileY*256 + tileX*16
			for row := 0; row < 8; row++ {
				lo := p.patterns[offset+row]
				hi := p.patterns[offset+row+8]
				for col := 0; col < 8; col++ {
					shift := 7 - col
					pixel := (lo>>shift)&1 | ((hi>>shift)&1)<<1
					img.SetColorIndex(tileX*8+col, tileY*8+row, pixel)
				}
			}
		}
	}
	return img
}
