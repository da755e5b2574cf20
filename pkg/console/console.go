// Package console ties the CPU, PPU, APU, cartridge, and controllers
// together into a single runnable machine, and drives one host video
// frame at a time.
package console

import (
	"github.com/shionji/nescore/pkg/apu"
	"github.com/shionji/nescore/pkg/bus"
	"github.com/shionji/nescore/pkg/cartridge"
	"github.com/shionji/nescore/pkg/controller"
	"github.com/shionji/nescore/pkg/cpu"
	"github.com/shionji/nescore/pkg/logging"
	"github.com/shionji/nescore/pkg/ppu"
)

// cyclesPerFrame implements the original core's 29780.67-cycle NTSC
// frame approximation: two frames out of three run 29781 CPU cycles,
// the third runs 29780, which averages out to the real refresh rate
// without carrying floating-point drift across frames.
func cyclesPerFrame(frameIndex uint64) int {
	if frameIndex%3 == 0 {
		return 29780
	}
	return 29781
}

// Console owns every subsystem for one loaded cartridge.
type Console struct {
	CPU  *cpu.CPU
	PPU  *ppu.PPU
	APU  *apu.APU
	Bus  *bus.Bus
	Cart *cartridge.Cartridge

	Controller1 *controller.Controller
	Controller2 *controller.Controller

	log *logging.Logger

	frameIndex uint64
	overshoot  int // cycles the previous frame ran past its budget
}

// New builds a Console with no cartridge loaded. Call LoadCartridge
// before stepping it.
func New(log *logging.Logger) *Console {
	if log == nil {
		log = logging.Discard()
	}
	b := bus.New(log)
	p := ppu.New(log)
	a := apu.New()
	c := cpu.New(b)

	b.AttachPPU(p)
	b.AttachAPU(a)

	return &Console{
		CPU:         c,
		PPU:         p,
		APU:         a,
		Bus:         b,
		Controller1: b.Controller1,
		Controller2: b.Controller2,
		log:         log,
	}
}

// LoadCartridge wires a decoded cartridge into the bus/PPU/APU and calls
// Reset, which returns the CPU, PPU, and frame budget to power-on state.
func (c *Console) LoadCartridge(cart *cartridge.Cartridge) {
	c.Cart = cart
	c.Bus.AttachCartridge(cart)
	c.PPU.AttachCartridge(cart)
	c.APU.SetMemory(prgReader{cart})
	c.Reset()
}

// prgReader adapts cartridge.Cartridge to apu.MemoryReader for DMC
// sample fetches, which read from the full CPU address space but in
// practice only ever land in PRG-ROM/PRG-RAM.
type prgReader struct{ cart *cartridge.Cartridge }

func (r prgReader) Read(addr uint16) uint8 { return r.cart.ReadPRG(addr) }

// Reset returns CPU, PPU, and the frame budget to power-on state.
func (c *Console) Reset() {
	c.PPU.Reset()
	c.CPU.Reset()
	c.frameIndex = 0
	c.overshoot = 0
}

// StepFrame runs CPU instructions until one host video frame's cycle
// budget (minus whatever the previous frame overshot by) is consumed,
// servicing NMI/IRQ/DMA at each instruction boundary in the order the
// CPU itself already encodes them.
func (c *Console) StepFrame() {
	budget := cyclesPerFrame(c.frameIndex) - c.overshoot
	spent := 0

	for spent < budget {
		if c.PPU.TakeNMI() {
			c.CPU.SetNMI()
		}
		irq := c.Bus.IRQAsserted()
		spent += c.CPU.Step(irq)
		c.CPU.Stall(c.Bus.TakeDMCStall())
	}

	c.overshoot = spent - budget
	c.frameIndex++
}

// Framebuffer returns the most recently completed frame as packed
// ARGB8888 pixels, 256x240.
func (c *Console) Framebuffer() []uint32 { return c.PPU.Framebuffer() }

// AudioSamples drains and returns every sample the APU has buffered
// since the last call.
func (c *Console) AudioSamples() []float32 {
	samples := c.APU.Output
	c.APU.Output = make([]float32, 0, 4096)
	return samples
}
