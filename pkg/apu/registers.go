package apu

import "github.com/shionji/nescore/pkg/bitutil"

func (a *APU) writePulse(pulse *PulseChannel, reg uint16, value uint8) {
	switch reg {
	case 0: // duty, envelope/length-halt, constant-volume, volume
		pulse.DutyCycle = (value >> 6) & 0x03
		pulse.Length.Halt = (value & 0x20) != 0
		pulse.Envelope.Loop = (value & 0x20) != 0
		pulse.Envelope.Constant = (value & 0x10) != 0
		pulse.Volume = value & 0x0F
		pulse.Envelope.Volume = value & 0x0F

	case 1: // sweep
		pulse.Sweep.Enabled = (value & 0x80) != 0
		pulse.Sweep.Period = (value >> 4) & 0x07
		pulse.Sweep.Negate = (value & 0x08) != 0
		pulse.Sweep.Shift = value & 0x07
		pulse.Sweep.Reload = true

	case 2: // timer low
		pulse.TimerValue = (pulse.TimerValue & 0xFF00) | uint16(value)

	case 3: // length load, timer high
		pulse.TimerValue = (pulse.TimerValue & 0x00FF) | ((uint16(value) & 0x07) << 8)
		if pulse.Enabled {
			pulse.Length.Value = lengthTable[(value>>3)&0x1F]
		}
		pulse.Envelope.Start = true
		pulse.Sequence = 0
	}
}

func (a *APU) writeTriangle(reg uint16, value uint8) {
	switch reg {
	case 0: // linear counter control and reload
		a.Triangle.LinearControl = (value & 0x80) != 0
		a.Triangle.Length.Halt = (value & 0x80) != 0
		a.Triangle.LinearReload = value & 0x7F

	case 1: // unused

	case 2: // timer low
		a.Triangle.TimerValue = (a.Triangle.TimerValue & 0xFF00) | uint16(value)

	case 3: // length load, timer high
		a.Triangle.TimerValue = (a.Triangle.TimerValue & 0x00FF) | ((uint16(value) & 0x07) << 8)
		if a.Triangle.Enabled {
			a.Triangle.Length.Value = lengthTable[(value>>3)&0x1F]
		}
		a.Triangle.LinearControl = true
	}
}

func (a *APU) writeNoise(reg uint16, value uint8) {
	switch reg {
	case 0:
		a.Noise.Length.Halt = (value & 0x20) != 0
		a.Noise.Envelope.Loop = (value & 0x20) != 0
		a.Noise.Envelope.Constant = (value & 0x10) != 0
		a.Noise.Volume = value & 0x0F
		a.Noise.Envelope.Volume = value & 0x0F

	case 1: // unused

	case 2:
		a.Noise.Mode = (value & 0x80) != 0
		a.Noise.TimerValue = noisePeriods[value&0x0F]

	case 3:
		if a.Noise.Enabled {
			a.Noise.Length.Value = lengthTable[(value>>3)&0x1F]
		}
		a.Noise.Envelope.Start = true
	}
}

func (a *APU) writeDMC(reg uint16, value uint8) {
	switch reg {
	case 0: // rate, loop, IRQ enable
		a.DMC.IRQEnabled = (value & 0x80) != 0
		a.DMC.Loop = (value & 0x40) != 0
		a.DMC.Rate = value & 0x0F
		a.DMC.TimerValue = dmcRates[a.DMC.Rate]
		if !a.DMC.IRQEnabled {
			a.DMC.IRQFlag = false
		}

	case 1: // direct load
		a.DMC.LoadCounter = value & 0x7F

	case 2: // sample address
		a.DMC.SampleAddress = 0xC000 + uint16(value)*64

	case 3: // sample length
		a.DMC.SampleLength = uint16(value)*16 + 1
	}
}

func (a *APU) writeStatus(value uint8) {
	a.Pulse1.Enabled = value&0x01 != 0
	a.Pulse2.Enabled = value&0x02 != 0
	a.Triangle.Enabled = value&0x04 != 0
	a.Noise.Enabled = value&0x08 != 0
	a.DMC.Enabled = value&0x10 != 0

	if !a.Pulse1.Enabled {
		a.Pulse1.Length.Value = 0
	}
	if !a.Pulse2.Enabled {
		a.Pulse2.Length.Value = 0
	}
	if !a.Triangle.Enabled {
		a.Triangle.Length.Value = 0
	}
	if !a.Noise.Enabled {
		a.Noise.Length.Value = 0
	}

	if !a.DMC.Enabled {
		a.DMC.CurrentLength = 0
	} else if a.DMC.CurrentLength == 0 {
		a.DMC.CurrentAddress = a.DMC.SampleAddress
		a.DMC.CurrentLength = a.DMC.SampleLength
	}

	a.DMC.IRQFlag = false
}

// writeFrameCounter handles $4017. It schedules a sequencer reset 3 or 4
// CPU cycles later depending on whether this write landed on an even or
// odd CPU cycle (the extra cycle accounts for the write itself landing
// mid-instruction on odd cycles). With mode=1, the quarter and half
// frame clock happens when that delayed reset takes effect, not at the
// moment of the write.
func (a *APU) writeFrameCounter(value uint8) {
	a.FrameMode = (value >> 7) & 1
	a.FrameIRQInhibit = value&0x40 != 0
	if a.FrameIRQInhibit {
		a.FrameIRQ = false
	}

	if a.evenCycle {
		a.resetDelay = 4
	} else {
		a.resetDelay = 3
	}
}

func (a *APU) initializeChannels() {
	a.Noise.LFSR = *bitutil.NewLFSR15()
	a.Pulse1.Envelope.Volume = 15
	a.Pulse2.Envelope.Volume = 15
	a.Noise.Envelope.Volume = 15
	a.Pulse1.Length.Enabled = true
	a.Pulse2.Length.Enabled = true
	a.Triangle.Length.Enabled = true
	a.Noise.Length.Enabled = true
	a.DMC.BufferEmpty = true
}
