package nes

const ramSizeBytes = 0x10000

// RAM is flat storage for the whole address space. No side effects.
type RAM struct {
	ram [ramSizeBytes]uint8
}

func NewRAM() *RAM {
	return &RAM{}
}

func (r *RAM) Read8(addr uint16) uint8 {
	return r.ram[addr]
}

func (r *RAM) Peek8(addr uint16) uint8 {
	return r.ram[addr]
}

func (r *RAM) Write8(addr uint16, data uint8) {
	r.ram[addr] = data
}
