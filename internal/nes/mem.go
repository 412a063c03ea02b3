package nes

import "fmt"

type ReadWriter interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, data uint8)
}

// Peeker reads a byte without triggering any side effect bound to the address.
type Peeker interface {
	Peek8(addr uint16) uint8
}

// Region is a device that owns a range of the CPU address space.
// It receives absolute addresses.
type Region interface {
	ReadWriter
	Peeker
}

type mappedRegion struct {
	lo, hi uint16
	region Region
}

// Memory is the CPU address space.
//
// $0000-$1FFF: RAM
// $2000-$2007: PPU registers ($2002 clears vblank on read)
// $2008-$7FFF: plain storage
// $8000-$BFFF: PRG-ROM, first bank
// $C000-$FFFF: PRG-ROM, second bank or mirror of the first
//
// Every address not claimed by a region is plain storage.
type Memory struct {
	ram     *RAM
	regions []mappedRegion
}

func NewMemory() *Memory {
	return &Memory{ram: NewRAM()}
}

// Map routes [lo, hi] to the region. Later mappings win over earlier ones.
func (m *Memory) Map(lo, hi uint16, r Region) {
	m.regions = append([]mappedRegion{{lo: lo, hi: hi, region: r}}, m.regions...)
}

func (m *Memory) lookup(addr uint16) Region {
	for _, mr := range m.regions {
		if addr >= mr.lo && addr <= mr.hi {
			return mr.region
		}
	}
	return m.ram
}

func (m *Memory) Read8(addr uint16) uint8 {
	return m.lookup(addr).Read8(addr)
}

func (m *Memory) Write8(addr uint16, data uint8) {
	m.lookup(addr).Write8(addr, data)
}

func (m *Memory) Peek8(addr uint16) uint8 {
	return m.lookup(addr).Peek8(addr)
}

// Load copies data into plain storage starting at base.
// Regions are bypassed: this is how program images get installed.
func (m *Memory) Load(base uint16, data []uint8) error {
	if int(base)+len(data) > len(m.ram.ram) {
		return fmt.Errorf("image of %d bytes doesn't fit at $%04X", len(data), base)
	}
	copy(m.ram.ram[base:], data)
	return nil
}

// Clear zeroes plain storage. Regions keep their state.
func (m *Memory) Clear() {
	clear(m.ram.ram[:])
}
