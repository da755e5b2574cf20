// Package cpu implements the 6502 (NES 2A03 core) fetch-decode-execute
// loop. Every memory access ticks the shared bus one cycle at a time
// rather than batching a whole instruction's cycles to its end, so the
// PPU and APU observe CPU-cycle-accurate interleaving.
package cpu

import "fmt"

// Bus is the shared address space the CPU reads and writes through.
// The CPU calls Tick(1) before every Read and Write, so the rest of the
// system (PPU x3, APU x1) advances for the cycle each access spends;
// Read and Write themselves only resolve the access.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	Tick(cycles int)
}

// UnimplementedOpcode is a typed, fatal panic raised for any opcode
// byte this core does not decode — an emulator bug, never a ROM bug.
type UnimplementedOpcode struct{ Opcode uint8 }

func (e UnimplementedOpcode) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode $%02X", e.Opcode)
}

// Status flag bits.
const (
	FlagCarry     = 1 << 0 // C
	FlagZero      = 1 << 1 // Z
	FlagInterrupt = 1 << 2 // I
	FlagDecimal   = 1 << 3 // D
	FlagBreak     = 1 << 4 // B
	FlagUnused    = 1 << 5 // -
	FlagOverflow  = 1 << 6 // V
	FlagNegative  = 1 << 7 // N
)

// CPU is the 6502 register file plus its bus handle.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16
	P  uint8

	Bus Bus

	// Cycles is the monotonic count of CPU cycles elapsed since Reset.
	Cycles uint64

	nmiPending bool
}

// New creates a CPU wired to bus. Call Reset before stepping it.
func New(bus Bus) *CPU {
	return &CPU{
		Bus: bus,
		SP:  0xFD,
		P:   FlagUnused | FlagInterrupt,
	}
}

// Reset performs the 7-cycle power-on/reset sequence: the stack pointer
// is set to $FD (it is not decremented from its previous value, and no
// stack writes occur), I is set, and PC loads from the reset vector.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.P = FlagUnused | FlagInterrupt
	c.Cycles = 0
	c.nmiPending = false

	c.tick(5)
	c.PC = c.read16(0xFFFC)
}

// SetNMI latches a pending non-maskable interrupt. The console scheduler
// calls this when the PPU reports an NMI (the vblank edge, or a ctrl
// write that newly enables NMI while vblank is already asserted); the
// latch is serviced at the next instruction boundary and then cleared.
func (c *CPU) SetNMI() {
	c.nmiPending = true
}

// Step services a pending interrupt if one is latched, otherwise
// fetches and executes one instruction. irqAsserted is the OR of every
// maskable interrupt source (APU frame IRQ, DMC, mapper IRQ) sampled
// for this instruction boundary; the CPU only reacts to it when the I
// flag is clear. It returns the number of CPU cycles the step consumed.
func (c *CPU) Step(irqAsserted bool) int {
	before := c.Cycles

	switch {
	case c.nmiPending:
		c.nmiPending = false
		c.serviceInterrupt(0xFFFA, false)
	case irqAsserted && !c.getFlag(FlagInterrupt):
		c.serviceInterrupt(0xFFFE, false)
	default:
		opcode := c.read(c.PC)
		c.PC++
		total := c.executeInstruction(opcode)
		consumed := int(c.Cycles - before)
		if pad := total - consumed; pad > 0 {
			c.tick(pad)
		}
	}
	return int(c.Cycles - before)
}

// serviceInterrupt pushes PC and P (break flag clear, unused set) and
// vectors through addr. Takes 7 cycles like BRK, but never touches the
// break flag and decrements PC by nothing (the interrupted instruction
// has not yet begun).
func (c *CPU) serviceInterrupt(vector uint16, _ bool) {
	c.tick(2) // two internal cycles before the push sequence begins
	c.push16(c.PC)
	c.push((c.P | FlagUnused) &^ FlagBreak)
	c.setFlag(FlagInterrupt, true)
	c.PC = c.read16(vector)
}

// TriggerOAMDMA performs the 513/514-cycle OAM DMA transfer triggered
// by a CPU write to $4014: copy page*0x100..+0xFF into OAMDATA.
func (c *CPU) TriggerOAMDMA(page uint8) {
	if c.Cycles%2 == 1 {
		c.tick(1)
	}
	c.tick(1)
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b := c.read(base + uint16(i))
		c.write(0x2004, b)
	}
}

func (c *CPU) getFlag(flag uint8) bool { return c.P&flag != 0 }

func (c *CPU) setFlag(flag uint8, value bool) {
	if value {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

func (c *CPU) tick(n int) {
	c.Cycles += uint64(n)
	c.Bus.Tick(n)
}

func (c *CPU) read(addr uint16) uint8 {
	c.tick(1)
	return c.Bus.Read(addr)
}

func (c *CPU) write(addr uint16, value uint8) {
	c.tick(1)
	c.Bus.Write(addr, value)
	if addr == 0x4014 {
		c.TriggerOAMDMA(value)
	}
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) push(value uint8) {
	c.write(0x100|uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.read(0x100 | uint16(c.SP))
}

func (c *CPU) push16(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value & 0xFF))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// GetFlag exposes flag state for tests and debug tooling.
func (c *CPU) GetFlag(flag uint8) bool { return c.getFlag(flag) }

// State is the complete, gob-encodable register snapshot a save state
// needs to resume execution at the next instruction boundary.
type State struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8
	Cycles      uint64
	NMIPending  bool
}

// Snapshot captures the current register file.
func (c *CPU) Snapshot() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP,
		PC: c.PC, P: c.P, Cycles: c.Cycles,
		NMIPending: c.nmiPending,
	}
}

// Restore overwrites the register file from a previously captured State.
func (c *CPU) Restore(s State) {
	c.A, c.X, c.Y, c.SP = s.A, s.X, s.Y, s.SP
	c.PC, c.P, c.Cycles = s.PC, s.P, s.Cycles
	c.nmiPending = s.NMIPending
}

// Stall accounts for cycles the CPU did not actively spend but that
// still need to advance the rest of the system — namely the 1-cycle
// holds a DMC sample fetch imposes on the bus. The scheduler calls
// this after Step with whatever the bus reports was queued.
func (c *CPU) Stall(cycles int) {
	if cycles > 0 {
		c.tick(cycles)
	}
}
