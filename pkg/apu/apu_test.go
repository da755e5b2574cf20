package apu

import "testing"

func createTestAPU() *APU {
	return New()
}

func TestAPUCreation(t *testing.T) {
	apu := createTestAPU()
	if apu.Cycles != 0 {
		t.Errorf("expected cycles=0, got %d", apu.Cycles)
	}
	if apu.FrameStep != 0 {
		t.Errorf("expected frame step=0, got %d", apu.FrameStep)
	}
	if apu.FrameIRQ {
		t.Error("frame IRQ should be false initially")
	}
}

func TestPulseChannelRegisters(t *testing.T) {
	apu := createTestAPU()

	apu.WriteRegister(0x4000, 0xBF) // duty=10, halt/loop, constant, volume=15
	if apu.Pulse1.DutyCycle != 2 {
		t.Errorf("expected duty cycle=2, got %d", apu.Pulse1.DutyCycle)
	}
	if !apu.Pulse1.Length.Halt {
		t.Error("length halt should be true")
	}
	if !apu.Pulse1.Envelope.Constant {
		t.Error("envelope constant should be true")
	}
	if apu.Pulse1.Volume != 15 {
		t.Errorf("expected volume=15, got %d", apu.Pulse1.Volume)
	}

	apu.WriteRegister(0x4001, 0x88)
	if !apu.Pulse1.Sweep.Enabled || !apu.Pulse1.Sweep.Negate {
		t.Error("expected sweep enabled and negate set")
	}

	apu.WriteRegister(0x4002, 0x55)
	apu.WriteRegister(0x4003, 0x12)
	if apu.Pulse1.TimerValue != 0x255 {
		t.Errorf("expected timer=0x255, got %04X", apu.Pulse1.TimerValue)
	}
}

func TestTriangleChannelRegisters(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x04)
	apu.WriteRegister(0x4008, 0x81)
	if !apu.Triangle.Length.Halt {
		t.Error("expected triangle length halt set")
	}

	apu.WriteRegister(0x400A, 0xAA)
	apu.WriteRegister(0x400B, 0x13)
	if apu.Triangle.TimerValue != 0x3AA {
		t.Errorf("expected timer=0x3AA, got %04X", apu.Triangle.TimerValue)
	}
}

func TestNoiseChannelRegisters(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x400C, 0x3A)
	if !apu.Noise.Length.Halt || !apu.Noise.Envelope.Constant || apu.Noise.Volume != 10 {
		t.Error("unexpected noise envelope register state")
	}

	apu.WriteRegister(0x400E, 0x8F)
	if !apu.Noise.Mode {
		t.Error("expected noise mode bit set")
	}
	if apu.Noise.TimerValue != noisePeriods[15] {
		t.Errorf("expected timer=%d, got %d", noisePeriods[15], apu.Noise.TimerValue)
	}
}

func TestStatusRegisterEnablesAndDisablesChannels(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x1F)
	if !apu.Pulse1.Enabled || !apu.Pulse2.Enabled || !apu.Triangle.Enabled || !apu.Noise.Enabled || !apu.DMC.Enabled {
		t.Error("expected all channels enabled")
	}

	apu.WriteRegister(0x4015, 0x00)
	if apu.Pulse1.Enabled || apu.Triangle.Enabled {
		t.Error("expected channels disabled")
	}
}

func TestEnvelopeStartReloadsCounterTo15(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4000, 0x28) // loop set, volume=8
	apu.WriteRegister(0x4003, 0x08) // trigger envelope start

	apu.stepEnvelope(&apu.Pulse1.Envelope)
	if apu.Pulse1.Envelope.Counter != 15 {
		t.Errorf("expected envelope to reset to 15 on start, got %d", apu.Pulse1.Envelope.Counter)
	}
}

func TestLengthCounterDecrementsWhenEnabledAndNotHalted(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4003, 0x08)

	before := apu.Pulse1.Length.Value
	apu.stepLengthCounter(&apu.Pulse1.Length)
	if apu.Pulse1.Length.Value != before-1 {
		t.Errorf("expected length=%d, got %d", before-1, apu.Pulse1.Length.Value)
	}
}

func TestSweepIncreasesTimerWithoutNegate(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4001, 0x81) // enabled, shift=1, no negate
	apu.WriteRegister(0x4002, 0x00)
	apu.WriteRegister(0x4003, 0x01) // timer = 0x100

	before := apu.Pulse1.TimerValue
	apu.stepSweep(&apu.Pulse1, &apu.Pulse1.Sweep, true)
	if apu.Pulse1.TimerValue <= before {
		t.Errorf("expected timer to grow from %d, got %d", before, apu.Pulse1.TimerValue)
	}
}

func TestFrameCounterWriteResetsSequencerPosition(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4017, 0x00)
	if apu.FrameStep != 0 {
		t.Errorf("expected frame step=0, got %d", apu.FrameStep)
	}
	apu.WriteRegister(0x4017, 0x80)
	if apu.FrameMode != 1 {
		t.Error("expected 5-step mode selected")
	}
}

func TestChannelOutputReflectsEnableState(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4000, 0x5F)
	apu.WriteRegister(0x4002, 0x00)
	apu.WriteRegister(0x4003, 0x01)

	apu.stepPulseTimer(&apu.Pulse1)
	if apu.getPulseOutput(&apu.Pulse1) == 0 {
		t.Error("expected non-zero output from enabled pulse channel")
	}

	apu.WriteRegister(0x4015, 0x00)
	if apu.getPulseOutput(&apu.Pulse1) != 0 {
		t.Error("expected zero output from disabled pulse channel")
	}
}

func TestAudioMixingStaysWithinRange(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x1F)
	apu.WriteRegister(0x4000, 0x1F)
	apu.WriteRegister(0x4004, 0x1F)
	apu.WriteRegister(0x4008, 0x81)
	apu.WriteRegister(0x400C, 0x1F)

	sample := apu.mixChannels()
	if sample < -1.0 || sample > 1.0 {
		t.Errorf("mixed sample out of range: %f", sample)
	}
}

func TestStepAdvancesCyclesAndBuffersAudio(t *testing.T) {
	apu := createTestAPU()
	for i := 0; i < 20; i++ {
		apu.Step()
	}
	if apu.Cycles != 20 {
		t.Errorf("expected 20 cycles consumed, got %d", apu.Cycles)
	}
	if len(apu.Output) == 0 {
		t.Error("expected at least one buffered sample after 20 cycles")
	}
}

func TestFrameIRQFiresOnFourStepModeAtScheduledCycle(t *testing.T) {
	apu := createTestAPU()
	for i := uint64(0); i < 29828; i++ {
		apu.Step()
	}
	if !apu.FrameIRQ {
		t.Error("expected frame IRQ latched by cycle 29828 in 4-step mode")
	}
}

func TestFrameIRQInhibitedWhenFlagSet(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4017, 0x40) // inhibit
	for i := uint64(0); i < 29828; i++ {
		apu.Step()
	}
	if apu.FrameIRQ {
		t.Error("expected frame IRQ suppressed while inhibit flag is set")
	}
}

func TestFiveStepModeNeverAssertsFrameIRQ(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4017, 0x80)
	for i := uint64(0); i < 40000; i++ {
		apu.Step()
	}
	if apu.FrameIRQ {
		t.Error("5-step mode must never assert the frame IRQ")
	}
}

func TestDMCFetchQueuesCPUStall(t *testing.T) {
	apu := createTestAPU()
	apu.SetMemory(constantMemory{0xAA})
	apu.WriteRegister(0x4010, 0x00) // rate index 0
	apu.WriteRegister(0x4012, 0x00) // sample address 0xC000
	apu.WriteRegister(0x4013, 0x00) // sample length 1
	apu.WriteRegister(0x4015, 0x10) // enable DMC

	for i := 0; i < int(dmcRates[0])*2+4; i++ {
		apu.Step()
	}
	if apu.TakeDMCStall() == 0 {
		t.Error("expected at least one DMC sample fetch to queue a CPU stall")
	}
}

func TestFourStepModeClocksHalfFrameAt14913Not22371(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4000, 0x00) // length counter not halted
	apu.WriteRegister(0x4003, 0x08) // load a non-zero length

	before := apu.Pulse1.Length.Value
	for i := uint64(0); i < 14913; i++ {
		apu.Step()
	}
	if apu.Pulse1.Length.Value != before-1 {
		t.Errorf("expected half-frame clock at cycle 14913, length=%d, got %d", before-1, apu.Pulse1.Length.Value)
	}

	// no further half-frame clock until 29829 (the fixed second half-frame
	// point), so length must hold steady at cycle 22371.
	for i := uint64(14913); i < 22371; i++ {
		apu.Step()
	}
	if apu.Pulse1.Length.Value != before-1 {
		t.Errorf("unexpected half-frame clock by cycle 22371, length=%d, got %d", before-1, apu.Pulse1.Length.Value)
	}
}

func TestFiveStepModeRunsFullPeriodTo37282(t *testing.T) {
	apu := createTestAPU()
	apu.WriteRegister(0x4015, 0x01)
	apu.WriteRegister(0x4017, 0x80) // select 5-step mode; this schedules the sequencer reset, which clocks one quarter+half frame when it takes effect
	for i := 0; i < 10; i++ {
		apu.Step() // let the write-triggered reset settle before measuring the schedule
	}

	apu.WriteRegister(0x4000, 0x00)
	apu.WriteRegister(0x4003, 0x08)

	before := apu.Pulse1.Length.Value
	for i := uint64(0); i < 29829; i++ {
		apu.Step()
	}
	afterFirstHalfFrame := apu.Pulse1.Length.Value
	if afterFirstHalfFrame != before-1 {
		t.Fatalf("expected one half-frame clock by cycle 29829, length=%d, got %d", before-1, afterFirstHalfFrame)
	}

	for i := uint64(29829); i < 37282; i++ {
		apu.Step()
	}
	if apu.Pulse1.Length.Value != afterFirstHalfFrame-1 {
		t.Errorf("expected second half-frame clock by cycle 37282, length=%d, got %d", afterFirstHalfFrame-1, apu.Pulse1.Length.Value)
	}
}

type constantMemory struct{ value uint8 }

func (m constantMemory) Read(addr uint16) uint8 { return m.value }
