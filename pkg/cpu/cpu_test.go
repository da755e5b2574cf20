package cpu

import "testing"

// testBus is a flat 64KB RAM image satisfying the Bus interface, with
// a tick counter so tests can assert on cycle-accurate timing without
// needing a real PPU/APU wired up.
type testBus struct {
	mem        [0x10000]uint8
	ticks      int
	writeLog   []uint16
	dmaWritten []uint8
}

func newTestBus() *testBus { return &testBus{} }

func (b *testBus) Read(addr uint16) uint8 { return b.mem[addr] }
func (b *testBus) Write(addr uint16, value uint8) {
	b.mem[addr] = value
	b.writeLog = append(b.writeLog, addr)
	if addr == 0x2004 {
		b.dmaWritten = append(b.dmaWritten, value)
	}
}
func (b *testBus) Tick(cycles int) { b.ticks += cycles }

func newTestCPU() (*CPU, *testBus) {
	bus := newTestBus()
	bus.mem[0xFFFC] = 0x00
	bus.mem[0xFFFD] = 0x02
	c := New(bus)
	c.Reset()
	return c, bus
}

func TestReset(t *testing.T) {
	c, _ := newTestCPU()

	if c.PC != 0x0200 {
		t.Errorf("expected PC=0x0200, got %04X", c.PC)
	}
	if c.SP != 0xFD {
		t.Errorf("expected SP=0xFD, got %02X", c.SP)
	}
	if c.P != FlagUnused|FlagInterrupt {
		t.Errorf("expected P=%02X, got %02X", FlagUnused|FlagInterrupt, c.P)
	}
	if c.Cycles != 7 {
		t.Errorf("expected 7 cycles consumed by reset, got %d", c.Cycles)
	}
}

func TestFlags(t *testing.T) {
	c, _ := newTestCPU()

	c.setFlag(FlagCarry, true)
	if !c.getFlag(FlagCarry) {
		t.Error("carry should be set")
	}
	c.setFlag(FlagCarry, false)
	if c.getFlag(FlagCarry) {
		t.Error("carry should be clear")
	}

	c.P = 0
	c.setFlag(FlagCarry, true)
	c.setFlag(FlagNegative, true)
	if c.P != FlagCarry|FlagNegative {
		t.Errorf("expected P=%02X, got %02X", FlagCarry|FlagNegative, c.P)
	}
}

func TestStack(t *testing.T) {
	c, _ := newTestCPU()
	initialSP := c.SP

	c.push(0x42)
	if c.SP != initialSP-1 {
		t.Errorf("expected SP=%02X, got %02X", initialSP-1, c.SP)
	}
	if v := c.pop(); v != 0x42 {
		t.Errorf("expected popped 0x42, got %02X", v)
	}
	if c.SP != initialSP {
		t.Errorf("SP did not return to %02X, got %02X", initialSP, c.SP)
	}

	c.push16(0x1234)
	if v := c.pop16(); v != 0x1234 {
		t.Errorf("expected 0x1234, got %04X", v)
	}
}

func TestStepTicksOnePerBusAccess(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x0200] = 0xA9 // LDA #$42
	bus.mem[0x0201] = 0x42

	before := bus.ticks
	cycles := c.Step(false)
	if cycles != 2 {
		t.Errorf("expected LDA immediate to consume 2 cycles, got %d", cycles)
	}
	if bus.ticks-before != 2 {
		t.Errorf("expected bus to observe 2 ticks, got %d", bus.ticks-before)
	}
	if c.A != 0x42 {
		t.Errorf("expected A=0x42, got %02X", c.A)
	}
}

func TestStepPadsInternalOnlyCyclesAtEnd(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x0200] = 0xE8 // INX, implied, 2 cycles, zero real bus reads beyond opcode fetch
	before := bus.ticks
	cycles := c.Step(false)
	if cycles != 2 {
		t.Errorf("expected INX to report 2 cycles, got %d", cycles)
	}
	if bus.ticks-before != 2 {
		t.Errorf("expected 2 bus ticks (1 real fetch + 1 padded), got %d", bus.ticks-before)
	}
}

func TestNMIServicedBeforeNextInstruction(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x03
	bus.mem[0x0200] = 0xEA // NOP, should never execute this step

	c.SetNMI()
	cycles := c.Step(false)
	if cycles != 7 {
		t.Errorf("expected NMI service to take 7 cycles, got %d", cycles)
	}
	if c.PC != 0x0300 {
		t.Errorf("expected PC to vector to 0x0300, got %04X", c.PC)
	}
	if bus.mem[0x1FB]&FlagBreak != 0 {
		t.Error("NMI must not set the break flag in pushed status")
	}
}

func TestIRQIgnoredWhenInterruptFlagSet(t *testing.T) {
	c, bus := newTestCPU()
	c.setFlag(FlagInterrupt, true)
	bus.mem[0x0200] = 0xEA // NOP

	cycles := c.Step(true)
	if cycles != 2 {
		t.Errorf("expected IRQ to be masked and NOP to execute (2 cycles), got %d", cycles)
	}
}

func TestIRQServicedWhenUnmasked(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0xFFFE] = 0x00
	bus.mem[0xFFFF] = 0x04
	bus.mem[0x0200] = 0xEA
	c.setFlag(FlagInterrupt, false) // Reset leaves I set

	cycles := c.Step(true)
	if cycles != 7 {
		t.Errorf("expected IRQ service to take 7 cycles, got %d", cycles)
	}
	if c.PC != 0x0400 {
		t.Errorf("expected PC to vector to 0x0400, got %04X", c.PC)
	}
}

func TestUnimplementedOpcodePanics(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x0200] = 0x02 // illegal KIL/JAM opcode, never dispatched

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for an unimplemented opcode")
		}
		if _, ok := r.(UnimplementedOpcode); !ok {
			t.Fatalf("expected UnimplementedOpcode panic, got %T", r)
		}
	}()
	c.Step(false)
}

func TestOAMDMAEvenCycleCount(t *testing.T) {
	c, bus := newTestCPU()
	for i := 0; i < 256; i++ {
		bus.mem[0x0300+i] = uint8(i)
	}
	c.Cycles = 0 // force even alignment
	before := bus.ticks
	c.TriggerOAMDMA(0x03)
	consumed := bus.ticks - before
	if consumed != 513 {
		t.Errorf("expected 513 cycles on even alignment, got %d", consumed)
	}
	if len(bus.dmaWritten) != 256 {
		t.Fatalf("expected 256 bytes written to OAMDATA, got %d", len(bus.dmaWritten))
	}
	if bus.dmaWritten[0] != 0 || bus.dmaWritten[255] != 255 {
		t.Errorf("DMA did not copy the page in order")
	}
}

func TestOAMDMAOddCycleCount(t *testing.T) {
	c, bus := newTestCPU()
	c.Cycles = 1 // force odd alignment
	before := bus.ticks
	c.TriggerOAMDMA(0x03)
	if got := bus.ticks - before; got != 514 {
		t.Errorf("expected 514 cycles on odd alignment, got %d", got)
	}
}

func TestWriteTo4014TriggersOAMDMAFromInstruction(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x0200] = 0x8D // STA $4014
	bus.mem[0x0201] = 0x14
	bus.mem[0x0202] = 0x40
	c.A = 0x07

	cycles := c.Step(false)
	if cycles < 513 {
		t.Errorf("expected STA $4014 to fold in a full DMA transfer, got %d cycles", cycles)
	}
}
