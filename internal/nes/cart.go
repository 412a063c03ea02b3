package nes

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	headerSizeBytes  = 16
	trainerSizeBytes = 512
	prgBankSizeBytes = 0x4000
	chrBankSizeBytes = 0x2000
)

var inesMagic = [4]uint8{'N', 'E', 'S', 0x1a}

var (
	ErrInvalidHeader = errors.New("invalid iNES header")
	ErrNoProgram     = errors.New("cartridge declares no PRG ROM")
	ErrBankCount     = errors.New("unsupported PRG bank count")
	ErrShortRead     = errors.New("short read")
)

// Header is the 16-byte iNES header.
type Header struct {
	Magic      [4]uint8
	PrgRomSize uint8 // in 16KB units
	ChrRomSize uint8 // in 8KB units, 0 means CHR RAM
	Flags6     uint8
	Flags7     uint8
	Flags8     uint8
	Flags9     uint8
	Flags10    uint8
	_          [5]uint8 // unused
}

func ParseHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("couldn't read the header: %w", err)
	}
	return h, nil
}

func ValidateHeader(h Header) bool {
	return h.Magic == inesMagic
}

// HasTrainer reports bit 2 of flags6.
func (h Header) HasTrainer() bool {
	return h.Flags6&0x4 != 0
}

// flag6 and flag7 contain part of the mapper ID in 4 high bits
// flag6: lower 4 bits of mapper ID
// flag7: upper 4 bits of mapper ID
func (h Header) MapperID() uint8 {
	return (h.Flags7 & 0xf0) | (h.Flags6 >> 4)
}

// Mirror returns 0 for horizontal and 1 for vertical nametable mirroring.
func (h Header) Mirror() uint8 {
	return h.Flags6 & 0x1
}

func (h Header) PrgSize() int {
	return int(h.PrgRomSize) * prgBankSizeBytes
}

func (h Header) prgOffset() int64 {
	offset := int64(headerSizeBytes)
	if h.HasTrainer() {
		offset += trainerSizeBytes
	}
	return offset
}

func readFull(r io.ReaderAt, buf []uint8, offset int64) error {
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: expected %d bytes at offset %d, read %d", ErrShortRead, len(buf), offset, n)
	}
	return err
}

func readProgram(r io.ReaderAt, h Header) ([]uint8, error) {
	if h.PrgRomSize == 0 {
		return nil, ErrNoProgram
	}
	if h.PrgRomSize > 2 {
		return nil, fmt.Errorf("%w: %d", ErrBankCount, h.PrgRomSize)
	}

	prg := make([]uint8, h.PrgSize())
	if err := readFull(r, prg, h.prgOffset()); err != nil {
		return nil, fmt.Errorf("couldn't read PRG ROM: %w", err)
	}
	return prg, nil
}

// LoadProgram reads the PRG ROM and installs it at $8000.
// A single bank is mirrored at $C000. Memory is untouched on failure.
func LoadProgram(r io.ReaderAt, h Header, mem *Memory) error {
	prg, err := readProgram(r, h)
	if err != nil {
		return err
	}
	return NewMapper(h.MapperID()).Install(mem, prg)
}

// LoadPatterns returns the CHR ROM, or a zeroed 8KB CHR RAM when
// the cartridge declares none.
func LoadPatterns(r io.ReaderAt, h Header, prgSize int) ([]uint8, error) {
	if h.ChrRomSize == 0 {
		return make([]uint8, chrBankSizeBytes), nil
	}

	chr := make([]uint8, int(h.ChrRomSize)*chrBankSizeBytes)
	if err := readFull(r, chr, h.prgOffset()+int64(prgSize)); err != nil {
		return nil, fmt.Errorf("couldn't read CHR ROM: %w", err)
	}
	return chr, nil
}

type Cart struct {
	header Header
	prgMem []uint8
	chrMem []uint8
}

// NewCart reads an iNES image. Supported layout: NROM with 1 or 2 PRG banks.
func NewCart(r io.ReaderAt) (*Cart, error) {
	h, err := ParseHeader(io.NewSectionReader(r, 0, headerSizeBytes))
	if err != nil {
		return nil, err
	}
	if !ValidateHeader(h) {
		return nil, fmt.Errorf("%w: bad magic % X", ErrInvalidHeader, h.Magic)
	}

	prg, err := readProgram(r, h)
	if err != nil {
		return nil, err
	}
	chr, err := LoadPatterns(r, h, len(prg))
	if err != nil {
		return nil, err
	}

	return &Cart{
		header: h,
		prgMem: prg,
		chrMem: chr,
	}, nil
}

// NewCartFromFile reads a .nes file and returns a Cart struct.
// Supported NES format: iNES
func NewCartFromFile(path string) (*Cart, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the file: %w", err)
	}
	defer file.Close()

	return NewCart(file)
}

// NewCartFromBytes is NewCart over an in-memory image.
func NewCartFromBytes(data []uint8) (*Cart, error) {
	return NewCart(bytes.NewReader(data))
}

func (c Cart) Header() Header {
	return c.header
}

func (c Cart) Patterns() []uint8 {
	return c.chrMem
}

func (c Cart) install(mem *Memory) error {
	return NewMapper(c.header.MapperID()).Install(mem, c.prgMem)
}
