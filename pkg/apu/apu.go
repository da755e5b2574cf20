// Package apu implements the fixed-function NES audio processor: two
// pulse channels with sweep, a triangle, a noise LFSR channel, and a
// delta-modulation sample channel, tied together by a frame sequencer
// that clocks envelopes, the triangle's linear counter, length
// counters, and sweep units on a fixed CPU-cycle schedule.
package apu

import "github.com/shionji/nescore/pkg/bitutil"

// MemoryReader lets the DMC channel pull sample bytes from the shared
// CPU address space without importing the bus package.
type MemoryReader interface {
	Read(address uint16) uint8
}

// APU is the NES audio core. Step is called once per CPU cycle by the
// bus, matching real hardware where the APU runs off the CPU clock.
type APU struct {
	Pulse1   PulseChannel
	Pulse2   PulseChannel
	Triangle TriangleChannel
	Noise    NoiseChannel
	DMC      DMCChannel

	FrameMode    uint8 // 0 = 4-step, 1 = 5-step
	FrameStep    int
	FrameIRQInhibit bool
	FrameIRQ     bool
	resetDelay   int // cycles until a $4017 write's sequencer reset takes effect, -1 if none pending

	Cycles    uint64
	evenCycle bool

	Output []float32

	Memory MemoryReader

	dmcStall int
}

type PulseChannel struct {
	Enabled    bool
	DutyCycle  uint8
	Volume     uint8
	Sweep      SweepUnit
	Length     LengthCounter
	Envelope   EnvelopeGenerator
	TimerValue uint16
	Timer      uint16
	Sequence   uint8
}

type TriangleChannel struct {
	Enabled       bool
	LinearCounter uint8
	LinearReload  uint8
	LinearControl bool
	Length        LengthCounter
	TimerValue    uint16
	Timer         uint16
	Sequence      uint8
}

type NoiseChannel struct {
	Enabled    bool
	Volume     uint8
	Length     LengthCounter
	Envelope   EnvelopeGenerator
	TimerValue uint16
	Timer      uint16
	LFSR       bitutil.LFSR15
	Mode       bool
}

type DMCChannel struct {
	Enabled        bool
	IRQEnabled     bool
	IRQFlag        bool
	Loop           bool
	Rate           uint8
	TimerValue     uint16
	Timer          uint16
	LoadCounter    uint8
	SampleAddress  uint16
	SampleLength   uint16
	CurrentAddress uint16
	CurrentLength  uint16
	SampleBuffer   uint8
	BufferEmpty    bool
	ShiftReg       uint8
	BitsRemaining  uint8
	Silence        bool
}

type SweepUnit struct {
	Enabled bool
	Period  uint8
	Negate  bool
	Shift   uint8
	Reload  bool
	Counter uint8
}

type LengthCounter struct {
	Enabled bool
	Value   uint8
	Halt    bool
}

type EnvelopeGenerator struct {
	Start    bool
	Loop     bool
	Constant bool
	Volume   uint8
	Counter  uint8
	Divider  uint8
}

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// frame sequencer cycle tables, per spec.md section 4.3. Four-step mode's
// last step straddles three consecutive CPU cycles (29828-29830): the
// interrupt flag is asserted a cycle early and again a cycle late, matching
// the real frame counter's half-cycle alignment quirk around the sequence
// reset. Five-step mode never asserts the interrupt and runs a full step
// longer, out to 37282.
var fourStepSchedule = [6]uint64{7457, 14913, 22371, 29828, 29829, 29830}
var fiveStepSchedule = [6]uint64{7457, 14913, 22371, 29829, 37281, 37282}

func New() *APU {
	a := &APU{Output: make([]float32, 0, 4096)}
	a.initializeChannels()
	return a
}

func (a *APU) SetMemory(mem MemoryReader) { a.Memory = mem }

// State is the gob-encodable audio core state a save state restores.
// Output (the pending host-audio sample queue) and Memory (a wiring
// handle, not state) are intentionally excluded.
type State struct {
	Pulse1, Pulse2 PulseChannel
	Triangle       TriangleChannel
	Noise          NoiseChannel
	DMC            DMCChannel

	FrameMode       uint8
	FrameStep       int
	FrameIRQInhibit bool
	FrameIRQ        bool
	ResetDelay      int

	Cycles    uint64
	EvenCycle bool
	DMCStall  int
}

// Snapshot captures every channel and the frame sequencer's position.
func (a *APU) Snapshot() State {
	return State{
		Pulse1: a.Pulse1, Pulse2: a.Pulse2,
		Triangle: a.Triangle, Noise: a.Noise, DMC: a.DMC,
		FrameMode: a.FrameMode, FrameStep: a.FrameStep,
		FrameIRQInhibit: a.FrameIRQInhibit, FrameIRQ: a.FrameIRQ,
		ResetDelay: a.resetDelay,
		Cycles:     a.Cycles, EvenCycle: a.evenCycle,
		DMCStall: a.dmcStall,
	}
}

// Restore rebuilds channel and frame-sequencer state from a previously
// captured State, leaving the pending output sample queue untouched.
func (a *APU) Restore(s State) {
	a.Pulse1, a.Pulse2 = s.Pulse1, s.Pulse2
	a.Triangle, a.Noise, a.DMC = s.Triangle, s.Noise, s.DMC
	a.FrameMode, a.FrameStep = s.FrameMode, s.FrameStep
	a.FrameIRQInhibit, a.FrameIRQ = s.FrameIRQInhibit, s.FrameIRQ
	a.resetDelay = s.ResetDelay
	a.Cycles, a.evenCycle = s.Cycles, s.EvenCycle
	a.dmcStall = s.DMCStall
}

func (a *APU) Reset() {
	*a = APU{Output: make([]float32, 0, 4096), Memory: a.Memory}
	a.initializeChannels()
}

// Step advances the APU by one CPU cycle. The triangle's timer runs at
// full CPU rate; every other channel's timer runs at half rate, which
// is why evenCycle gates pulse/noise/DMC timer decrement.
func (a *APU) Step() {
	a.Cycles++
	a.evenCycle = !a.evenCycle

	a.runFrameSequencer()

	a.stepTriangleTimer()
	if a.evenCycle {
		a.stepPulseTimer(&a.Pulse1)
		a.stepPulseTimer(&a.Pulse2)
		a.stepNoiseTimer()
		a.stepDMCTimer()
	}

	if a.Cycles%20 == 0 {
		a.Output = append(a.Output, a.mixChannels())
		if len(a.Output) > 4096 {
			copy(a.Output, a.Output[len(a.Output)-2048:])
			a.Output = a.Output[:2048]
		}
	}
}

func (a *APU) runFrameSequencer() {
	schedule := fourStepSchedule
	if a.FrameMode == 1 {
		schedule = fiveStepSchedule
	}

	if a.resetDelay > 0 {
		a.resetDelay--
		if a.resetDelay == 0 {
			a.Cycles = 0
			a.FrameStep = 0
			if a.FrameMode == 1 {
				a.clockQuarterFrame()
				a.clockHalfFrame()
			}
		}
		return
	}

	if a.FrameStep >= len(schedule) {
		return
	}
	if a.Cycles != schedule[a.FrameStep] {
		return
	}

	if a.FrameMode == 0 {
		switch a.FrameStep {
		case 0:
			a.clockQuarterFrame()
		case 1:
			a.clockQuarterFrame()
			a.clockHalfFrame()
		case 2:
			a.clockQuarterFrame()
		case 3:
			if !a.FrameIRQInhibit {
				a.FrameIRQ = true
			}
		case 4:
			a.clockQuarterFrame()
			a.clockHalfFrame()
			if !a.FrameIRQInhibit {
				a.FrameIRQ = true
			}
		case 5:
			if !a.FrameIRQInhibit {
				a.FrameIRQ = true
			}
			a.Cycles = 0
			a.FrameStep = 0
			return
		}
	} else {
		switch a.FrameStep {
		case 0:
			a.clockQuarterFrame()
		case 1:
			a.clockQuarterFrame()
			a.clockHalfFrame()
		case 2:
			a.clockQuarterFrame()
		case 3:
		case 4:
			a.clockQuarterFrame()
			a.clockHalfFrame()
		case 5:
			a.Cycles = 0
			a.FrameStep = 0
			return
		}
	}
	a.FrameStep++
}

func (a *APU) clockQuarterFrame() {
	a.stepEnvelope(&a.Pulse1.Envelope)
	a.stepEnvelope(&a.Pulse2.Envelope)
	a.stepEnvelope(&a.Noise.Envelope)
	a.stepLinearCounter()
}

func (a *APU) clockHalfFrame() {
	a.stepLengthCounter(&a.Pulse1.Length)
	a.stepLengthCounter(&a.Pulse2.Length)
	a.stepLengthCounter(&a.Triangle.Length)
	a.stepLengthCounter(&a.Noise.Length)
	a.stepSweep(&a.Pulse1, &a.Pulse1.Sweep, true)
	a.stepSweep(&a.Pulse2, &a.Pulse2.Sweep, false)
}

// IsIRQPending reports whether the frame sequencer or DMC channel has
// a latched maskable interrupt, the two sources the APU contributes to
// the CPU's aggregated IRQ line.
func (a *APU) IsIRQPending() bool { return a.FrameIRQ || a.DMC.IRQFlag }

// TakeDMCStall returns and clears any CPU stall cycles queued by a DMC
// sample fetch since the last call, letting the bus fold DMA stalling
// into CPU timing without the APU reaching into the CPU directly.
func (a *APU) TakeDMCStall() int {
	n := a.dmcStall
	a.dmcStall = 0
	return n
}

func (a *APU) ReadRegister(addr uint16) uint8 {
	if addr != 0x4015 {
		return 0
	}
	status := uint8(0)
	if a.Pulse1.Length.Value > 0 {
		status |= 0x01
	}
	if a.Pulse2.Length.Value > 0 {
		status |= 0x02
	}
	if a.Triangle.Length.Value > 0 {
		status |= 0x04
	}
	if a.Noise.Length.Value > 0 {
		status |= 0x08
	}
	if a.DMC.CurrentLength > 0 {
		status |= 0x10
	}
	if a.FrameIRQ {
		status |= 0x40
	}
	if a.DMC.IRQFlag {
		status |= 0x80
	}
	a.FrameIRQ = false
	return status
}

func (a *APU) WriteRegister(addr uint16, value uint8) {
	switch addr {
	case 0x4000, 0x4001, 0x4002, 0x4003:
		a.writePulse(&a.Pulse1, addr-0x4000, value)
	case 0x4004, 0x4005, 0x4006, 0x4007:
		a.writePulse(&a.Pulse2, addr-0x4004, value)
	case 0x4008, 0x4009, 0x400A, 0x400B:
		a.writeTriangle(addr-0x4008, value)
	case 0x400C, 0x400D, 0x400E, 0x400F:
		a.writeNoise(addr-0x400C, value)
	case 0x4010, 0x4011, 0x4012, 0x4013:
		a.writeDMC(addr-0x4010, value)
	case 0x4015:
		a.writeStatus(value)
	case 0x4017:
		a.writeFrameCounter(value)
	}
}
