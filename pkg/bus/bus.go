// Package bus wires the CPU's flat 16-bit address space to RAM, the
// PPU's memory-mapped registers, the APU/IO range, OAM DMA, the two
// controller ports, and whichever cartridge is currently loaded. It is
// also the thing that ticks the PPU 3x and the APU 1x for every CPU
// cycle, which is what makes the whole core cycle-accurate.
package bus

import (
	"fmt"

	"github.com/shionji/nescore/pkg/apu"
	"github.com/shionji/nescore/pkg/controller"
	"github.com/shionji/nescore/pkg/logging"
	"github.com/shionji/nescore/pkg/ppu"
)

// BusUnreachable is a typed, fatal panic for a CPU access into
// cartridge address space ($4018-$FFFF) with no cartridge attached —
// the CPU should never be stepped before LoadCartridge wires one in.
type BusUnreachable struct{ Addr uint16 }

func (e BusUnreachable) Error() string {
	return fmt.Sprintf("bus: address $%04X unreachable: no cartridge attached", e.Addr)
}

// Cartridge is the subset of cartridge.Cartridge the bus routes CPU
// reads and writes through for the PRG address space and mapper IRQs.
type Cartridge interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, value uint8)
	IsIRQPending() bool
	ClearIRQ()
}

// Bus is the shared NES address space.
type Bus struct {
	RAM [0x0800]uint8

	PPU  *ppu.PPU
	APU  *apu.APU
	Cart Cartridge

	Controller1 *controller.Controller
	Controller2 *controller.Controller

	log *logging.Logger

	// openBus approximates the last value driven onto the data bus, so
	// unmapped/write-only register reads return something plausible
	// rather than always 0.
	openBus uint8
}

// New creates a Bus with no PPU/APU/cartridge attached; callers wire
// those in before running the CPU.
func New(log *logging.Logger) *Bus {
	if log == nil {
		log = logging.Discard()
	}
	return &Bus{
		log:         log,
		Controller1: controller.New(),
		Controller2: controller.New(),
	}
}

func (b *Bus) AttachPPU(p *ppu.PPU)     { b.PPU = p }
func (b *Bus) AttachAPU(a *apu.APU)     { b.APU = a }
func (b *Bus) AttachCartridge(c Cartridge) { b.Cart = c }

// Tick advances the rest of the system for n CPU cycles: the PPU by
// 3n dots and the APU by n cycles, matching the NES's fixed 3:1 PPU
// to CPU clock ratio.
func (b *Bus) Tick(n int) {
	for i := 0; i < n; i++ {
		if b.PPU != nil {
			b.PPU.Tick()
			b.PPU.Tick()
			b.PPU.Tick()
		}
		if b.APU != nil {
			b.APU.Step()
		}
	}
}

// Read resolves a CPU-visible address. $0000-$1FFF mirrors the 2KB
// internal RAM every 0x800 bytes; $2000-$3FFF mirrors the 8 PPU
// registers every 8 bytes; $4000-$4017 is APU/IO; $4018-$FFFF is
// handed to the cartridge mapper.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		b.openBus = b.RAM[addr&0x07FF]
	case addr < 0x4000:
		if b.PPU != nil {
			b.openBus = b.PPU.ReadRegister(0x2000 + (addr & 7))
		}
	case addr == 0x4015:
		if b.APU != nil {
			b.openBus = b.APU.ReadRegister(addr)
		}
	case addr == 0x4016:
		b.openBus = b.Controller1.Read() | (b.openBus &^ 1)
	case addr == 0x4017:
		b.openBus = b.Controller2.Read() | (b.openBus &^ 1)
	case addr < 0x4018:
		// write-only APU registers return open bus on read
	default:
		if b.Cart == nil {
			panic(BusUnreachable{Addr: addr})
		}
		b.openBus = b.Cart.ReadPRG(addr)
	}
	return b.openBus
}

// Write resolves a CPU-visible write. $4014 is a no-op here: cpu.CPU
// intercepts writes to that address itself and drives the 256-byte OAM
// DMA transfer as a sequence of ordinary bus reads/writes to $2004, one
// per CPU cycle. $4016 is the controller strobe line; both controllers
// latch off the same write since only bit 0 matters.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		b.RAM[addr&0x07FF] = value
	case addr < 0x4000:
		if b.PPU != nil {
			b.PPU.WriteRegister(0x2000+(addr&7), value)
		}
	case addr == 0x4014:
		// handled by cpu.CPU.TriggerOAMDMA, which reads this bus and
		// writes each byte to OAMDATA ($2004) in turn.
	case addr == 0x4016:
		b.Controller1.Write(value)
		b.Controller2.Write(value)
	case addr < 0x4018:
		if b.APU != nil {
			b.APU.WriteRegister(addr, value)
		}
	default:
		if b.Cart == nil {
			panic(BusUnreachable{Addr: addr})
		}
		b.Cart.WritePRG(addr, value)
	}
}

// IRQAsserted is the OR of every maskable interrupt source: the APU
// frame sequencer and DMC channel, plus any cartridge mapper IRQ
// (MMC3's scanline counter).
func (b *Bus) IRQAsserted() bool {
	apuIRQ := b.APU != nil && b.APU.IsIRQPending()
	mapperIRQ := b.Cart != nil && b.Cart.IsIRQPending()
	return apuIRQ || mapperIRQ
}

// TakeDMCStall returns and clears any CPU stall cycles the APU's DMC
// channel queued from a sample fetch since the last call.
func (b *Bus) TakeDMCStall() int {
	if b.APU == nil {
		return 0
	}
	return b.APU.TakeDMCStall()
}
