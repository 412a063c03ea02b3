package nes

import (
	"errors"
	"fmt"
	"log"
)

const (
	resetVectorAddr = uint16(0xfffc)

	resetSP = uint8(0xfd)
	resetP  = flagU | flagI

	resetCycles = 7
)

const (
	flagC = uint8(1 << iota) // Carry
	flagZ                    // Zero
	flagI                    // Interrupt Disable
	flagD                    // Decimal Mode
	flagB                    // Break Command
	flagU                    // Unused
	flagV                    // Overflow
	flagN                    // Negative
)

var (
	// ErrHalted is returned by Step once the CPU executed the halt opcode
	// or stopped on an unsupported one.
	ErrHalted = errors.New("cpu halted")

	ErrUnsupportedOpcode = errors.New("unsupported opcode")
)

type addrMode uint8

const (
	addrModeIMM  addrMode = iota + 1 // Immediate
	addrModeZP                       // Zero Page
	addrModeZPX                      // Zero Page X
	addrModeZPY                      // Zero Page Y
	addrModeABS                      // Absolute
	addrModeABSX                     // Absolute X
	addrModeABSY                     // Absolute Y
	addrModeIND                      // Indirect
	addrModeINDX                     // Indirect X
	addrModeINDY                     // Indirect Y
	addrModeREL                      // Relative
	addrModeIMP                      // Implied
)

func (mode addrMode) String() string {
	switch mode {
	case addrModeIMM:
		return "IMM"
	case addrModeZP:
		return "ZP"
	case addrModeZPX:
		return "ZPX"
	case addrModeZPY:
		return "ZPY"
	case addrModeABS:
		return "ABS"
	case addrModeABSX:
		return "ABSX"
	case addrModeABSY:
		return "ABSY"
	case addrModeIND:
		return "IND"
	case addrModeINDX:
		return "INDX"
	case addrModeINDY:
		return "INDY"
	case addrModeREL:
		return "REL"
	case addrModeIMP:
		return "IMP"
	}
	return "???"
}

// operandBytes is the number of bytes following the opcode.
func (mode addrMode) operandBytes() uint16 {
	switch mode {
	case addrModeIMM, addrModeZP, addrModeZPX, addrModeZPY, addrModeINDX, addrModeINDY, addrModeREL:
		return 1
	case addrModeABS, addrModeABSX, addrModeABSY, addrModeIND:
		return 2
	}
	return 0
}

type instr struct {
	name   string
	mode   addrMode
	fn     func()
	cycles uint8
}

type CPU struct {
	a           uint8
	x           uint8
	y           uint8
	p           uint8
	sp          uint8
	pc          uint16
	mem         ReadWriter
	instrs      [0x100]instr
	cycles      uint8
	totalCycles uint64
	addrMode    addrMode
	operandAddr uint16
	halted      bool

	trace *log.Logger
}

func NewCPU(mem ReadWriter) *CPU {
	c := &CPU{
		mem: mem,
	}
	c.initInstructions()
	return c
}

// SetTracer enables a per-instruction trace. nil disables it.
func (c *CPU) SetTracer(l *log.Logger) {
	c.trace = l
}

func (c *CPU) read8(addr uint16) uint8 {
	return c.mem.Read8(addr)
}

func (c *CPU) read16(addr uint16) uint16 {
	return uint16(c.read8(addr)) | uint16(c.read8(addr+1))<<8
}

func (c *CPU) write8(addr uint16, data uint8) {
	c.mem.Write8(addr, data)
}

func (c *CPU) getFlag(flag uint8) bool {
	return c.p&flag > 0
}

func (c *CPU) setFlag(flag uint8, v bool) {
	if v {
		c.p |= flag
		return
	}
	c.p &= ^flag
}

func (c *CPU) setFlagsZN(value uint8) {
	c.setFlag(flagZ, value == 0)
	c.setFlag(flagN, value&flagN > 0)
}

// Reset the CPU to its initial state
func (c *CPU) Reset() {
	c.a = 0
	c.x = 0
	c.y = 0
	c.p = resetP
	c.sp = resetSP
	c.pc = c.read16(resetVectorAddr)
	c.cycles = 0
	c.totalCycles = resetCycles
	c.halted = false
}

func (c *CPU) Halted() bool {
	return c.halted
}

// Step executes exactly one instruction and
// returns the number of cycles it took.
func (c *CPU) Step() (uint8, error) {
	if c.halted {
		return 0, ErrHalted
	}

	pc := c.pc
	opcode := c.read8(c.pc)
	c.pc++
	instr := c.instrs[opcode]
	if c.trace != nil {
		// unsupported opcodes are traced too, as ???
		line, _ := c.disassembleAt(pc)
		c.trace.Printf("%-28s A:%02X X:%02X Y:%02X P:%02X SP:%02X", line, c.a, c.x, c.y, c.p, c.sp)
	}
	if instr.fn == nil {
		c.halted = true
		return 0, fmt.Errorf("%w %02X at $%04X", ErrUnsupportedOpcode, opcode, pc)
	}

	c.fetch(instr.mode)
	c.cycles = instr.cycles
	instr.fn()
	c.totalCycles += uint64(c.cycles)

	c.addrMode = 0
	c.operandAddr = 0

	if c.halted {
		return c.cycles, fmt.Errorf("%w: %s at $%04X", ErrHalted, instr.name, pc)
	}
	return c.cycles, nil
}

// fetch consumes the operand bytes and resolves the effective address.
// The operand value itself is read lazily by operand(), so stores
// never touch their target with a read.
func (c *CPU) fetch(addrMode addrMode) {
	c.addrMode = addrMode
	c.operandAddr = 0

	switch addrMode {
	case addrModeIMM:
		c.operandAddr = c.pc
		c.pc++

	case addrModeZP:
		c.operandAddr = uint16(c.read8(c.pc))
		c.pc++

	case addrModeZPX:
		// uint8 addition keeps the address in the zero page
		c.operandAddr = uint16(c.read8(c.pc) + c.x)
		c.pc++

	case addrModeZPY:
		c.operandAddr = uint16(c.read8(c.pc) + c.y)
		c.pc++

	case addrModeABS:
		c.operandAddr = c.read16(c.pc)
		c.pc += 2

	case addrModeABSX:
		c.operandAddr = c.read16(c.pc) + uint16(c.x)
		c.pc += 2

	case addrModeABSY:
		c.operandAddr = c.read16(c.pc) + uint16(c.y)
		c.pc += 2

	case addrModeIND:
		addr := c.read16(c.pc)
		c.pc += 2

		lo := addr
		hi := addr + 1
		if lo&0xff == 0xff { // simulate 6502 bug
			hi = lo & 0xff00
		}
		c.operandAddr = uint16(c.read8(lo)) | uint16(c.read8(hi))<<8

	case addrModeINDX:
		ptr := c.read8(c.pc) + c.x
		c.pc++
		lo := uint16(c.read8(uint16(ptr)))
		hi := uint16(c.read8(uint16(ptr + 1)))
		c.operandAddr = lo | hi<<8

	case addrModeINDY:
		ptr := c.read8(c.pc)
		c.pc++
		lo := uint16(c.read8(uint16(ptr)))
		hi := uint16(c.read8(uint16(ptr + 1)))
		c.operandAddr = (lo | hi<<8) + uint16(c.y)

	case addrModeREL:
		c.operandAddr = uint16(c.read8(c.pc))
		c.pc++
		if c.operandAddr&0x80 > 0 {
			c.operandAddr |= 0xff00 // add leading 1 s to save the sign
		}

	case addrModeIMP:
	}
}

func (c *CPU) operand() uint8 {
	return c.read8(c.operandAddr)
}
