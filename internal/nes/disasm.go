package nes

import "fmt"

// peek8 reads memory for the disassembler. It must not disturb
// registers with read side effects, so memories without Peek8 read as zero.
func (c *CPU) peek8(addr uint16) uint8 {
	if p, ok := c.mem.(Peeker); ok {
		return p.Peek8(addr)
	}
	return 0
}

func (c *CPU) peek16(addr uint16) uint16 {
	return uint16(c.peek8(addr)) | uint16(c.peek8(addr+1))<<8
}

// disassembleAt returns the instruction at addr and the address of the next one.
func (c *CPU) disassembleAt(addr uint16) (string, uint16) {
	opcode := c.peek8(addr)
	instr := c.instrs[opcode]
	if instr.fn == nil {
		return fmt.Sprintf("$%04X: ??? ($%02X)", addr, opcode), addr + 1
	}

	pc := addr + 1
	next := pc + instr.mode.operandBytes()
	switch instr.mode {
	case addrModeIMM:
		return fmt.Sprintf("$%04X: %s #$%02X {%s}", addr, instr.name, c.peek8(pc), instr.mode), next
	case addrModeZP:
		return fmt.Sprintf("$%04X: %s $%02X {%s}", addr, instr.name, c.peek8(pc), instr.mode), next
	case addrModeZPX:
		return fmt.Sprintf("$%04X: %s $%02X,X {%s}", addr, instr.name, c.peek8(pc), instr.mode), next
	case addrModeZPY:
		return fmt.Sprintf("$%04X: %s $%02X,Y {%s}", addr, instr.name, c.peek8(pc), instr.mode), next
	case addrModeABS:
		return fmt.Sprintf("$%04X: %s $%04X {%s}", addr, instr.name, c.peek16(pc), instr.mode), next
	case addrModeABSX:
		return fmt.Sprintf("$%04X: %s $%04X,X {%s}", addr, instr.name, c.peek16(pc), instr.mode), next
	case addrModeABSY:
		return fmt.Sprintf("$%04X: %s $%04X,Y {%s}", addr, instr.name, c.peek16(pc), instr.mode), next
	case addrModeIND:
		return fmt.Sprintf("$%04X: %s ($%04X) {%s}", addr, instr.name, c.peek16(pc), instr.mode), next
	case addrModeINDX:
		return fmt.Sprintf("$%04X: %s ($%02X,X) {%s}", addr, instr.name, c.peek8(pc), instr.mode), next
	case addrModeINDY:
		return fmt.Sprintf("$%04X: %s ($%02X),Y {%s}", addr, instr.name, c.peek8(pc), instr.mode), next
	case addrModeREL:
		offset := uint16(c.peek8(pc))
		if offset&0x80 > 0 {
			offset |= 0xff00
		}
		return fmt.Sprintf("$%04X: %s $%04X {%s}", addr, instr.name, next+offset, instr.mode), next
	}
	return fmt.Sprintf("$%04X: %s {%s}", addr, instr.name, instr.mode), next
}

// Disassemble returns a map of addresses and their corresponding instructions
// from 0x0000 to 0xffff
func (c *CPU) Disassemble() map[uint16]string {
	disasm := make(map[uint16]string, 0x10000)

	addr := uint32(0)
	for addr <= 0xffff {
		line, next := c.disassembleAt(uint16(addr))
		disasm[uint16(addr)] = line
		if uint32(next) <= addr { // wrapped past $FFFF
			break
		}
		addr = uint32(next)
	}
	return disasm
}
