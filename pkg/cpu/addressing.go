package cpu

// AddressingMode identifies how an opcode's operand is formed.
type AddressingMode int

const (
	AddrImplied AddressingMode = iota
	AddrAccumulator
	AddrImmediate
	AddrZeroPage
	AddrZeroPageX
	AddrZeroPageY
	AddrRelative
	AddrAbsolute
	AddrAbsoluteX
	AddrAbsoluteY
	AddrIndirect
	AddrIndexedIndirect
	AddrIndirectIndexed
)

// getOperandAddress resolves the effective address for mode, advancing
// PC past the operand bytes and issuing the dummy reads real hardware
// performs when an indexed address crosses a page boundary.
func (c *CPU) getOperandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case AddrImplied, AddrAccumulator:
		return 0, false

	case AddrImmediate:
		addr := c.PC
		c.PC++
		return addr, false

	case AddrZeroPage:
		addr := uint16(c.read(c.PC))
		c.PC++
		return addr, false

	case AddrZeroPageX:
		base := c.read(c.PC)
		c.PC++
		c.read(uint16(base)) // dummy read of the unindexed zero page address
		return uint16(base+c.X) & 0xFF, false

	case AddrZeroPageY:
		base := c.read(c.PC)
		c.PC++
		c.read(uint16(base))
		return uint16(base+c.Y) & 0xFF, false

	case AddrRelative:
		offset := int8(c.read(c.PC))
		c.PC++
		addr := uint16(int32(c.PC) + int32(offset))
		return addr, (c.PC & 0xFF00) != (addr & 0xFF00)

	case AddrAbsolute:
		addr := c.read16(c.PC)
		c.PC += 2
		return addr, false

	case AddrAbsoluteX:
		base := c.read16(c.PC)
		c.PC += 2
		addr := base + uint16(c.X)
		crossed := (base & 0xFF00) != (addr & 0xFF00)
		if crossed {
			dummy := (base & 0xFF00) | (addr & 0xFF)
			c.read(dummy)
		}
		return addr, crossed

	case AddrAbsoluteY:
		base := c.read16(c.PC)
		c.PC += 2
		addr := base + uint16(c.Y)
		crossed := (base & 0xFF00) != (addr & 0xFF00)
		if crossed {
			dummy := (base & 0xFF00) | (addr & 0xFF)
			c.read(dummy)
		}
		return addr, crossed

	case AddrIndirect: // JMP only; famous page-wrap bug
		ptr := c.read16(c.PC)
		c.PC += 2
		if ptr&0xFF == 0xFF {
			lo := c.read(ptr)
			hi := c.read(ptr & 0xFF00)
			return uint16(hi)<<8 | uint16(lo), false
		}
		return c.read16(ptr), false

	case AddrIndexedIndirect: // (zp,X)
		base := c.read(c.PC)
		c.PC++
		c.read(uint16(base))
		ptr := (uint16(base) + uint16(c.X)) & 0xFF
		lo := c.read(ptr)
		hi := c.read((ptr + 1) & 0xFF)
		return uint16(hi)<<8 | uint16(lo), false

	case AddrIndirectIndexed: // (zp),Y
		base := c.read(c.PC)
		c.PC++
		lo := c.read(uint16(base))
		hi := c.read((uint16(base) + 1) & 0xFF)
		baseAddr := uint16(hi)<<8 | uint16(lo)
		addr := baseAddr + uint16(c.Y)
		crossed := (baseAddr & 0xFF00) != (addr & 0xFF00)
		if crossed {
			dummy := (baseAddr & 0xFF00) | (addr & 0xFF)
			c.read(dummy)
		}
		return addr, crossed
	}
	return 0, false
}

// getOperand reads the value addressed by mode.
func (c *CPU) getOperand(mode AddressingMode) (uint8, bool) {
	if mode == AddrAccumulator {
		return c.A, false
	}
	addr, crossed := c.getOperandAddress(mode)
	return c.read(addr), crossed
}
