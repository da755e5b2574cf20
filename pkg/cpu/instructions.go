package cpu

// executeInstruction dispatches one fetched opcode byte. Only the
// documented 6502 instruction set plus the single official NOP ($EA)
// is decoded; any other byte panics with UnimplementedOpcode, since
// landing on one means the core mis-decoded something upstream, not
// that the ROM is misbehaving.
func (c *CPU) executeInstruction(opcode uint8) int {
	switch opcode {
	case 0xA9:
		return c.execLDA(AddrImmediate)
	case 0xA5:
		return c.execLDA(AddrZeroPage)
	case 0xB5:
		return c.execLDA(AddrZeroPageX)
	case 0xAD:
		return c.execLDA(AddrAbsolute)
	case 0xBD:
		return c.execLDA(AddrAbsoluteX)
	case 0xB9:
		return c.execLDA(AddrAbsoluteY)
	case 0xA1:
		return c.execLDA(AddrIndexedIndirect)
	case 0xB1:
		return c.execLDA(AddrIndirectIndexed)

	case 0xA2:
		return c.execLDX(AddrImmediate)
	case 0xA6:
		return c.execLDX(AddrZeroPage)
	case 0xB6:
		return c.execLDX(AddrZeroPageY)
	case 0xAE:
		return c.execLDX(AddrAbsolute)
	case 0xBE:
		return c.execLDX(AddrAbsoluteY)

	case 0xA0:
		return c.execLDY(AddrImmediate)
	case 0xA4:
		return c.execLDY(AddrZeroPage)
	case 0xB4:
		return c.execLDY(AddrZeroPageX)
	case 0xAC:
		return c.execLDY(AddrAbsolute)
	case 0xBC:
		return c.execLDY(AddrAbsoluteX)

	case 0x85:
		return c.execSTA(AddrZeroPage)
	case 0x95:
		return c.execSTA(AddrZeroPageX)
	case 0x8D:
		return c.execSTA(AddrAbsolute)
	case 0x9D:
		return c.execSTA(AddrAbsoluteX)
	case 0x99:
		return c.execSTA(AddrAbsoluteY)
	case 0x81:
		return c.execSTA(AddrIndexedIndirect)
	case 0x91:
		return c.execSTA(AddrIndirectIndexed)

	case 0x86:
		return c.execSTX(AddrZeroPage)
	case 0x96:
		return c.execSTX(AddrZeroPageY)
	case 0x8E:
		return c.execSTX(AddrAbsolute)

	case 0x84:
		return c.execSTY(AddrZeroPage)
	case 0x94:
		return c.execSTY(AddrZeroPageX)
	case 0x8C:
		return c.execSTY(AddrAbsolute)

	case 0x69:
		return c.execADC(AddrImmediate)
	case 0x65:
		return c.execADC(AddrZeroPage)
	case 0x75:
		return c.execADC(AddrZeroPageX)
	case 0x6D:
		return c.execADC(AddrAbsolute)
	case 0x7D:
		return c.execADC(AddrAbsoluteX)
	case 0x79:
		return c.execADC(AddrAbsoluteY)
	case 0x61:
		return c.execADC(AddrIndexedIndirect)
	case 0x71:
		return c.execADC(AddrIndirectIndexed)

	case 0xE9:
		return c.execSBC(AddrImmediate)
	case 0xE5:
		return c.execSBC(AddrZeroPage)
	case 0xF5:
		return c.execSBC(AddrZeroPageX)
	case 0xED:
		return c.execSBC(AddrAbsolute)
	case 0xFD:
		return c.execSBC(AddrAbsoluteX)
	case 0xF9:
		return c.execSBC(AddrAbsoluteY)
	case 0xE1:
		return c.execSBC(AddrIndexedIndirect)
	case 0xF1:
		return c.execSBC(AddrIndirectIndexed)

	case 0xC9:
		return c.execCMP(AddrImmediate)
	case 0xC5:
		return c.execCMP(AddrZeroPage)
	case 0xD5:
		return c.execCMP(AddrZeroPageX)
	case 0xCD:
		return c.execCMP(AddrAbsolute)
	case 0xDD:
		return c.execCMP(AddrAbsoluteX)
	case 0xD9:
		return c.execCMP(AddrAbsoluteY)
	case 0xC1:
		return c.execCMP(AddrIndexedIndirect)
	case 0xD1:
		return c.execCMP(AddrIndirectIndexed)

	case 0xAA:
		return c.execTAX()
	case 0x8A:
		return c.execTXA()
	case 0xA8:
		return c.execTAY()
	case 0x98:
		return c.execTYA()
	case 0x9A:
		return c.execTXS()
	case 0xBA:
		return c.execTSX()

	case 0x18:
		return c.execCLC()
	case 0x38:
		return c.execSEC()
	case 0x58:
		return c.execCLI()
	case 0x78:
		return c.execSEI()
	case 0xB8:
		return c.execCLV()
	case 0xD8:
		return c.execCLD()
	case 0xF8:
		return c.execSED()

	case 0x48:
		return c.execPHA()
	case 0x68:
		return c.execPLA()
	case 0x08:
		return c.execPHP()
	case 0x28:
		return c.execPLP()

	case 0x10:
		return c.execBPL()
	case 0x30:
		return c.execBMI()
	case 0x50:
		return c.execBVC()
	case 0x70:
		return c.execBVS()
	case 0x90:
		return c.execBCC()
	case 0xB0:
		return c.execBCS()
	case 0xD0:
		return c.execBNE()
	case 0xF0:
		return c.execBEQ()

	case 0x4C:
		return c.execJMPAbsolute()
	case 0x6C:
		return c.execJMPIndirect()
	case 0x20:
		return c.execJSR()
	case 0x60:
		return c.execRTS()
	case 0x40:
		return c.execRTI()

	case 0x29:
		return c.execAND(AddrImmediate)
	case 0x25:
		return c.execAND(AddrZeroPage)
	case 0x35:
		return c.execAND(AddrZeroPageX)
	case 0x2D:
		return c.execAND(AddrAbsolute)
	case 0x3D:
		return c.execAND(AddrAbsoluteX)
	case 0x39:
		return c.execAND(AddrAbsoluteY)
	case 0x21:
		return c.execAND(AddrIndexedIndirect)
	case 0x31:
		return c.execAND(AddrIndirectIndexed)

	case 0x09:
		return c.execORA(AddrImmediate)
	case 0x05:
		return c.execORA(AddrZeroPage)
	case 0x15:
		return c.execORA(AddrZeroPageX)
	case 0x0D:
		return c.execORA(AddrAbsolute)
	case 0x1D:
		return c.execORA(AddrAbsoluteX)
	case 0x19:
		return c.execORA(AddrAbsoluteY)
	case 0x01:
		return c.execORA(AddrIndexedIndirect)
	case 0x11:
		return c.execORA(AddrIndirectIndexed)

	case 0x49:
		return c.execEOR(AddrImmediate)
	case 0x45:
		return c.execEOR(AddrZeroPage)
	case 0x55:
		return c.execEOR(AddrZeroPageX)
	case 0x4D:
		return c.execEOR(AddrAbsolute)
	case 0x5D:
		return c.execEOR(AddrAbsoluteX)
	case 0x59:
		return c.execEOR(AddrAbsoluteY)
	case 0x41:
		return c.execEOR(AddrIndexedIndirect)
	case 0x51:
		return c.execEOR(AddrIndirectIndexed)

	case 0x0A:
		return c.execASLAccumulator()
	case 0x06:
		return c.execASL(AddrZeroPage)
	case 0x16:
		return c.execASL(AddrZeroPageX)
	case 0x0E:
		return c.execASL(AddrAbsolute)
	case 0x1E:
		return c.execASL(AddrAbsoluteX)

	case 0x4A:
		return c.execLSRAccumulator()
	case 0x46:
		return c.execLSR(AddrZeroPage)
	case 0x56:
		return c.execLSR(AddrZeroPageX)
	case 0x4E:
		return c.execLSR(AddrAbsolute)
	case 0x5E:
		return c.execLSR(AddrAbsoluteX)

	case 0x2A:
		return c.execROLAccumulator()
	case 0x26:
		return c.execROL(AddrZeroPage)
	case 0x36:
		return c.execROL(AddrZeroPageX)
	case 0x2E:
		return c.execROL(AddrAbsolute)
	case 0x3E:
		return c.execROL(AddrAbsoluteX)

	case 0x6A:
		return c.execRORAccumulator()
	case 0x66:
		return c.execROR(AddrZeroPage)
	case 0x76:
		return c.execROR(AddrZeroPageX)
	case 0x6E:
		return c.execROR(AddrAbsolute)
	case 0x7E:
		return c.execROR(AddrAbsoluteX)

	case 0xE6:
		return c.execINC(AddrZeroPage)
	case 0xF6:
		return c.execINC(AddrZeroPageX)
	case 0xEE:
		return c.execINC(AddrAbsolute)
	case 0xFE:
		return c.execINC(AddrAbsoluteX)

	case 0xC6:
		return c.execDEC(AddrZeroPage)
	case 0xD6:
		return c.execDEC(AddrZeroPageX)
	case 0xCE:
		return c.execDEC(AddrAbsolute)
	case 0xDE:
		return c.execDEC(AddrAbsoluteX)

	case 0xE8:
		return c.execINX()
	case 0xCA:
		return c.execDEX()
	case 0xC8:
		return c.execINY()
	case 0x88:
		return c.execDEY()

	case 0xE0:
		return c.execCPX(AddrImmediate)
	case 0xE4:
		return c.execCPX(AddrZeroPage)
	case 0xEC:
		return c.execCPX(AddrAbsolute)

	case 0xC0:
		return c.execCPY(AddrImmediate)
	case 0xC4:
		return c.execCPY(AddrZeroPage)
	case 0xCC:
		return c.execCPY(AddrAbsolute)

	case 0x24:
		return c.execBIT(AddrZeroPage)
	case 0x2C:
		return c.execBIT(AddrAbsolute)

	case 0x00:
		return c.execBRK()

	case 0xEA:
		return c.execNOP()

	default:
		panic(UnimplementedOpcode{Opcode: opcode})
	}
}

func (c *CPU) execLDA(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.A = value
	c.setZN(c.A)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execLDX(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.X = value
	c.setZN(c.X)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execLDY(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.Y = value
	c.setZN(c.Y)
	return loadCycles(mode, pageCrossed)
}

// loadCycles returns the documented cycle count for a read-only
// instruction, adding the page-cross penalty the indexed/indirect-Y
// modes incur (but absolute,X/Y and (zp),Y on stores never do, since
// those always pay the worst case — see storeCycles).
func loadCycles(mode AddressingMode, pageCrossed bool) int {
	base := map[AddressingMode]int{
		AddrImmediate:       2,
		AddrZeroPage:        3,
		AddrZeroPageX:       4,
		AddrZeroPageY:       4,
		AddrAbsolute:        4,
		AddrAbsoluteX:       4,
		AddrAbsoluteY:       4,
		AddrIndexedIndirect: 6,
		AddrIndirectIndexed: 5,
	}[mode]
	if pageCrossed && (mode == AddrAbsoluteX || mode == AddrAbsoluteY || mode == AddrIndirectIndexed) {
		base++
	}
	return base
}

func storeCycles(mode AddressingMode) int {
	switch mode {
	case AddrZeroPage:
		return 3
	case AddrZeroPageX, AddrZeroPageY:
		return 4
	case AddrAbsolute:
		return 4
	case AddrAbsoluteX, AddrAbsoluteY:
		return 5
	case AddrIndexedIndirect:
		return 6
	case AddrIndirectIndexed:
		return 6
	default:
		return 3
	}
}

func (c *CPU) execSTA(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	c.write(addr, c.A)
	return storeCycles(mode)
}

func (c *CPU) execSTX(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	c.write(addr, c.X)
	return storeCycles(mode)
}

func (c *CPU) execSTY(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	c.write(addr, c.Y)
	return storeCycles(mode)
}

// NES's 2A03/2A07 lack decimal mode; ADC/SBC always run binary.

func (c *CPU) execADC(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.addWithCarry(value)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execSBC(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.addWithCarry(^value) // SBC = ADC(operand ones-complemented)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) addWithCarry(value uint8) {
	carry := uint16(0)
	if c.getFlag(FlagCarry) {
		carry = 1
	}
	result := uint16(c.A) + uint16(value) + carry
	c.setFlag(FlagCarry, result > 0xFF)
	c.setFlag(FlagOverflow, (c.A^uint8(result))&(value^uint8(result))&0x80 != 0)
	c.A = uint8(result)
	c.setZN(c.A)
}

func (c *CPU) execCMP(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.setFlag(FlagCarry, c.A >= value)
	c.setZN(c.A - value)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execTAX() int { c.X = c.A; c.setZN(c.X); return 2 }
func (c *CPU) execTXA() int { c.A = c.X; c.setZN(c.A); return 2 }
func (c *CPU) execTAY() int { c.Y = c.A; c.setZN(c.Y); return 2 }
func (c *CPU) execTYA() int { c.A = c.Y; c.setZN(c.A); return 2 }
func (c *CPU) execTXS() int { c.SP = c.X; return 2 }
func (c *CPU) execTSX() int { c.X = c.SP; c.setZN(c.X); return 2 }

func (c *CPU) execCLC() int { c.setFlag(FlagCarry, false); return 2 }
func (c *CPU) execSEC() int { c.setFlag(FlagCarry, true); return 2 }
func (c *CPU) execCLI() int { c.setFlag(FlagInterrupt, false); return 2 }
func (c *CPU) execSEI() int { c.setFlag(FlagInterrupt, true); return 2 }
func (c *CPU) execCLV() int { c.setFlag(FlagOverflow, false); return 2 }
func (c *CPU) execCLD() int { c.setFlag(FlagDecimal, false); return 2 }
func (c *CPU) execSED() int { c.setFlag(FlagDecimal, true); return 2 }

func (c *CPU) execPHA() int { c.push(c.A); return 3 }

func (c *CPU) execPLA() int {
	c.A = c.pop()
	c.setZN(c.A)
	return 4
}

func (c *CPU) execPHP() int { c.push(c.P | FlagBreak | FlagUnused); return 3 }

func (c *CPU) execPLP() int {
	c.P = (c.pop() | FlagUnused) &^ FlagBreak
	return 4
}

func (c *CPU) execBEQ() int { return c.branch(c.getFlag(FlagZero)) }
func (c *CPU) execBNE() int { return c.branch(!c.getFlag(FlagZero)) }
func (c *CPU) execBCC() int { return c.branch(!c.getFlag(FlagCarry)) }
func (c *CPU) execBCS() int { return c.branch(c.getFlag(FlagCarry)) }
func (c *CPU) execBPL() int { return c.branch(!c.getFlag(FlagNegative)) }
func (c *CPU) execBMI() int { return c.branch(c.getFlag(FlagNegative)) }
func (c *CPU) execBVC() int { return c.branch(!c.getFlag(FlagOverflow)) }
func (c *CPU) execBVS() int { return c.branch(c.getFlag(FlagOverflow)) }

func (c *CPU) branch(condition bool) int {
	addr, crossed := c.getOperandAddress(AddrRelative)
	if !condition {
		return 2
	}
	c.PC = addr
	if crossed {
		return 4
	}
	return 3
}

func (c *CPU) execJMPAbsolute() int {
	c.PC, _ = c.getOperandAddress(AddrAbsolute)
	return 3
}

func (c *CPU) execJMPIndirect() int {
	c.PC, _ = c.getOperandAddress(AddrIndirect)
	return 5
}

func (c *CPU) execJSR() int {
	low := c.read(c.PC)
	c.PC++
	high := c.read(c.PC)
	returnAddr := c.PC
	c.push(uint8(returnAddr >> 8))
	c.push(uint8(returnAddr & 0xFF))
	c.PC = uint16(high)<<8 | uint16(low)
	return 6
}

func (c *CPU) execRTS() int {
	low := c.pop()
	high := c.pop()
	c.PC = (uint16(high)<<8 | uint16(low)) + 1
	return 6
}

func (c *CPU) execRTI() int {
	c.P = (c.pop() | FlagUnused) &^ FlagBreak
	low := c.pop()
	high := c.pop()
	c.PC = uint16(high)<<8 | uint16(low)
	return 6
}

func (c *CPU) execAND(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.A &= value
	c.setZN(c.A)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execORA(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.A |= value
	c.setZN(c.A)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execEOR(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.A ^= value
	c.setZN(c.A)
	return loadCycles(mode, pageCrossed)
}

func shiftCycles(mode AddressingMode) int {
	switch mode {
	case AddrZeroPage:
		return 5
	case AddrZeroPageX:
		return 6
	case AddrAbsolute:
		return 6
	case AddrAbsoluteX:
		return 7
	default:
		return 2
	}
}

func (c *CPU) execASLAccumulator() int {
	c.setFlag(FlagCarry, c.A&0x80 != 0)
	c.A <<= 1
	c.setZN(c.A)
	return 2
}

func (c *CPU) execASL(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.setFlag(FlagCarry, value&0x80 != 0)
	result := value << 1
	c.setZN(result)
	c.write(addr, result)
	return shiftCycles(mode)
}

func (c *CPU) execLSRAccumulator() int {
	c.setFlag(FlagCarry, c.A&0x01 != 0)
	c.A >>= 1
	c.setZN(c.A)
	return 2
}

func (c *CPU) execLSR(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.setFlag(FlagCarry, value&0x01 != 0)
	result := value >> 1
	c.setZN(result)
	c.write(addr, result)
	return shiftCycles(mode)
}

func (c *CPU) execROLAccumulator() int {
	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 1
	}
	c.setFlag(FlagCarry, c.A&0x80 != 0)
	c.A = (c.A << 1) | oldCarry
	c.setZN(c.A)
	return 2
}

func (c *CPU) execROL(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 1
	}
	c.setFlag(FlagCarry, value&0x80 != 0)
	result := (value << 1) | oldCarry
	c.setZN(result)
	c.write(addr, result)
	return shiftCycles(mode)
}

func (c *CPU) execRORAccumulator() int {
	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 0x80
	}
	c.setFlag(FlagCarry, c.A&0x01 != 0)
	c.A = (c.A >> 1) | oldCarry
	c.setZN(c.A)
	return 2
}

func (c *CPU) execROR(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 0x80
	}
	c.setFlag(FlagCarry, value&0x01 != 0)
	result := (value >> 1) | oldCarry
	c.setZN(result)
	c.write(addr, result)
	return shiftCycles(mode)
}

func (c *CPU) execINC(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr) + 1
	c.setZN(value)
	c.write(addr, value)
	return shiftCycles(mode)
}

func (c *CPU) execDEC(mode AddressingMode) int {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr) - 1
	c.setZN(value)
	c.write(addr, value)
	return shiftCycles(mode)
}

func (c *CPU) execINX() int { c.X++; c.setZN(c.X); return 2 }
func (c *CPU) execDEX() int { c.X--; c.setZN(c.X); return 2 }
func (c *CPU) execINY() int { c.Y++; c.setZN(c.Y); return 2 }
func (c *CPU) execDEY() int { c.Y--; c.setZN(c.Y); return 2 }

func (c *CPU) execCPX(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.setFlag(FlagCarry, c.X >= value)
	c.setZN(c.X - value)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execCPY(mode AddressingMode) int {
	value, pageCrossed := c.getOperand(mode)
	c.setFlag(FlagCarry, c.Y >= value)
	c.setZN(c.Y - value)
	return loadCycles(mode, pageCrossed)
}

func (c *CPU) execBIT(mode AddressingMode) int {
	value, _ := c.getOperand(mode)
	c.setFlag(FlagZero, c.A&value == 0)
	c.setFlag(FlagNegative, value&0x80 != 0)
	c.setFlag(FlagOverflow, value&0x40 != 0)
	return loadCycles(mode, false)
}

// execBRK implements the software interrupt: it reads and discards a
// padding byte after the opcode (the traditional "BRK signature" byte
// debuggers stash data in), then pushes PC and P with both B and the
// unused bit forced set before vectoring through $FFFE/F.
func (c *CPU) execBRK() int {
	c.read(c.PC) // padding byte
	c.PC++
	c.push16(c.PC)
	c.push(c.P | FlagBreak | FlagUnused)
	c.setFlag(FlagInterrupt, true)
	c.PC = c.read16(0xFFFE)
	return 7
}

func (c *CPU) execNOP() int { return 2 }

func (c *CPU) setZN(value uint8) {
	c.setFlag(FlagZero, value == 0)
	c.setFlag(FlagNegative, value&0x80 != 0)
}
