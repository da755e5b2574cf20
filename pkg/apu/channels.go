package apu

var dutyCycles = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75% (25% inverted)
}

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriods = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// DMC rate table halved per spec.md, giving the timer reload directly
// in APU cycles rather than CPU cycles.
var dmcRates = [16]uint16{
	214, 190, 170, 160, 143, 127, 113, 107, 95, 80, 71, 64, 53, 42, 36, 27,
}

func (a *APU) stepPulseTimer(pulse *PulseChannel) {
	if pulse.Timer > 0 {
		pulse.Timer--
		return
	}
	pulse.Timer = pulse.TimerValue
	pulse.Sequence = (pulse.Sequence + 1) % 8
}

func (a *APU) stepTriangleTimer() {
	if a.Triangle.Timer > 0 {
		a.Triangle.Timer--
		return
	}
	a.Triangle.Timer = a.Triangle.TimerValue
	if a.Triangle.Length.Value > 0 && a.Triangle.LinearCounter > 0 {
		a.Triangle.Sequence = (a.Triangle.Sequence + 1) % 32
	}
}

func (a *APU) stepNoiseTimer() {
	if a.Noise.Timer > 0 {
		a.Noise.Timer--
		return
	}
	a.Noise.Timer = a.Noise.TimerValue
	a.Noise.LFSR.Clock(a.Noise.Mode)
}

func (a *APU) stepDMCTimer() {
	if a.DMC.Timer > 0 {
		a.DMC.Timer--
		return
	}
	a.DMC.Timer = a.DMC.TimerValue
	a.clockDMCOutput()
}

// clockDMCOutput implements one DMC timer expiry: refill the 8-bit
// shifter from the sample buffer when empty, otherwise shift one delta
// bit into the 7-bit output counter. Fetching a fresh sample byte when
// the buffer runs dry queues a CPU stall the bus applies later.
func (a *APU) clockDMCOutput() {
	if a.DMC.BitsRemaining == 0 {
		a.DMC.BitsRemaining = 8
		if a.DMC.BufferEmpty {
			a.DMC.Silence = true
		} else {
			a.DMC.ShiftReg = a.DMC.SampleBuffer
			a.DMC.BufferEmpty = true
			a.DMC.Silence = false
		}
	}

	if !a.DMC.Silence {
		if a.DMC.ShiftReg&1 != 0 {
			if a.DMC.LoadCounter <= 125 {
				a.DMC.LoadCounter += 2
			}
		} else if a.DMC.LoadCounter >= 2 {
			a.DMC.LoadCounter -= 2
		}
	}
	a.DMC.ShiftReg >>= 1
	a.DMC.BitsRemaining--

	a.fillDMCBufferIfNeeded()
}

func (a *APU) fillDMCBufferIfNeeded() {
	if !a.DMC.BufferEmpty || a.DMC.CurrentLength == 0 || a.Memory == nil {
		return
	}
	a.DMC.SampleBuffer = a.Memory.Read(a.DMC.CurrentAddress)
	a.DMC.BufferEmpty = false
	a.dmcStall++

	if a.DMC.CurrentAddress == 0xFFFF {
		a.DMC.CurrentAddress = 0x8000
	} else {
		a.DMC.CurrentAddress++
	}
	a.DMC.CurrentLength--

	if a.DMC.CurrentLength == 0 {
		if a.DMC.Loop {
			a.DMC.CurrentLength = a.DMC.SampleLength
			a.DMC.CurrentAddress = a.DMC.SampleAddress
		} else if a.DMC.IRQEnabled {
			a.DMC.IRQFlag = true
		}
	}
}

func (a *APU) stepEnvelope(env *EnvelopeGenerator) {
	if env.Start {
		env.Start = false
		env.Counter = 15
		env.Divider = env.Volume
		return
	}
	if env.Divider > 0 {
		env.Divider--
		return
	}
	env.Divider = env.Volume
	if env.Counter > 0 {
		env.Counter--
	} else if env.Loop {
		env.Counter = 15
	}
}

func (a *APU) stepLengthCounter(lc *LengthCounter) {
	if lc.Enabled && !lc.Halt && lc.Value > 0 {
		lc.Value--
	}
}

func (a *APU) stepSweep(pulse *PulseChannel, sweep *SweepUnit, onesComplement bool) {
	target, muted := sweepTarget(pulse, sweep, onesComplement)
	if sweep.Counter == 0 && sweep.Enabled && sweep.Shift > 0 && !muted {
		pulse.TimerValue = target
	}
	if sweep.Counter == 0 || sweep.Reload {
		sweep.Counter = sweep.Period
		sweep.Reload = false
	} else {
		sweep.Counter--
	}
}

func sweepTarget(pulse *PulseChannel, sweep *SweepUnit, onesComplement bool) (target uint16, muted bool) {
	change := pulse.TimerValue >> sweep.Shift
	if sweep.Negate {
		if onesComplement {
			target = pulse.TimerValue - change - 1
		} else {
			target = pulse.TimerValue - change
		}
		if change > pulse.TimerValue {
			target = 0
		}
	} else {
		target = pulse.TimerValue + change
	}
	muted = pulse.TimerValue < 8 || target > 0x7FF
	return target, muted
}

func (a *APU) getPulseOutput(pulse *PulseChannel) uint8 {
	if !pulse.Enabled || pulse.Length.Value == 0 {
		return 0
	}
	if pulse.TimerValue < 8 || pulse.TimerValue > 0x7FF {
		return 0
	}
	if dutyCycles[pulse.DutyCycle][pulse.Sequence] == 0 {
		return 0
	}
	if pulse.Envelope.Constant {
		return pulse.Volume
	}
	return pulse.Envelope.Counter
}

func (a *APU) getTriangleOutput() uint8 {
	if !a.Triangle.Enabled || a.Triangle.Length.Value == 0 || a.Triangle.LinearCounter == 0 {
		return 0
	}
	if a.Triangle.TimerValue < 2 {
		return 0 // avoid the ultrasonic pop from an inaudibly short period
	}
	return triangleSequence[a.Triangle.Sequence]
}

func (a *APU) getNoiseOutput() uint8 {
	if !a.Noise.Enabled || a.Noise.Length.Value == 0 {
		return 0
	}
	if a.Noise.LFSR.Output() != 0 {
		return 0
	}
	if a.Noise.Envelope.Constant {
		return a.Noise.Volume
	}
	return a.Noise.Envelope.Counter
}

func (a *APU) getDMCOutput() uint8 {
	return a.DMC.LoadCounter
}

// mixChannels applies the NES's non-linear two-term DAC approximation.
func (a *APU) mixChannels() float32 {
	p1 := float32(a.getPulseOutput(&a.Pulse1))
	p2 := float32(a.getPulseOutput(&a.Pulse2))
	tri := float32(a.getTriangleOutput())
	noi := float32(a.getNoiseOutput())
	dmc := float32(a.getDMCOutput())

	var pulseOut float32
	if p1+p2 > 0 {
		pulseOut = 95.88 / (8128.0/(p1+p2) + 100.0)
	}

	var tndOut float32
	tndSum := tri/8227.0 + noi/12241.0 + dmc/22638.0
	if tndSum > 0 {
		tndOut = 159.79 / (1.0/tndSum + 100.0)
	}

	out := (pulseOut + tndOut) * 2.0
	if out > 1.0 {
		out = 1.0
	} else if out < -1.0 {
		out = -1.0
	}
	return out
}

func (a *APU) stepLinearCounter() {
	if a.Triangle.LinearControl {
		a.Triangle.LinearCounter = a.Triangle.LinearReload
	} else if a.Triangle.LinearCounter > 0 {
		a.Triangle.LinearCounter--
	}
	if !a.Triangle.Length.Halt {
		a.Triangle.LinearControl = false
	}
}
