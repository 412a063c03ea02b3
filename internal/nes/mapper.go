package nes

import (
	"fmt"
	"log"
)

const (
	prgLowBankAddr  = uint16(0x8000)
	prgHighBankAddr = uint16(0xc000)
)

// Mapper places PRG ROM into the CPU address space.
type Mapper interface {
	Install(mem *Memory, prg []uint8) error
}

// NewMapper returns the installer for a mapper id. Only the fixed NROM
// layout is emulated; other ids are loaded as NROM.
func NewMapper(id uint8) Mapper {
	switch id {
	case 0:
		return Mapper0{}
	}
	log.Printf("unsupported mapper %d, loading as mapper 0\n", id)
	return Mapper0{}
}

// Mapper0 is NROM: 16KB mirrored into both halves of $8000-$FFFF, or 32KB flat.
type Mapper0 struct{}

func (Mapper0) Install(mem *Memory, prg []uint8) error {
	switch len(prg) {
	case prgBankSizeBytes:
		if err := mem.Load(prgLowBankAddr, prg); err != nil {
			return err
		}
		return mem.Load(prgHighBankAddr, prg)
	case 2 * prgBankSizeBytes:
		return mem.Load(prgLowBankAddr, prg)
	}
	return fmt.Errorf("%w: %d bytes of PRG ROM", ErrBankCount, len(prg))
}
