package controller

import "testing"

func TestReadOrderMatchesHardwareShiftSequence(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonSelect, true)
	c.SetButton(ButtonRight, true)

	c.Write(1)
	c.Write(0)

	want := []uint8{1, 0, 1, 0, 0, 0, 0, 1}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Errorf("read %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestReadPastEighthBitReturnsOpenBusOnes(t *testing.T) {
	c := New()
	c.Write(1)
	c.Write(0)
	for i := 0; i < 8; i++ {
		c.Read()
	}
	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("expected open-bus 1 past 8th read, got %d", got)
		}
	}
}

func TestStrobeHighAlwaysReturnsButtonA(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(1)

	for i := 0; i < 5; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("expected button A bit while strobed, got %d", got)
		}
	}

	c.SetButton(ButtonA, false)
	if got := c.Read(); got != 0 {
		t.Errorf("expected button A to reflect live state while strobed, got %d", got)
	}
}

func TestStrobeFallingResetsShiftIndex(t *testing.T) {
	c := New()
	c.SetButton(ButtonB, true)

	c.Write(1)
	c.Write(0)
	c.Read() // A
	c.Read() // B

	c.Write(1)
	c.Write(0)
	if got := c.Read(); got != 0 {
		t.Errorf("expected shift index reset to A on re-strobe, got %d", got)
	}
}

func TestSetButtonClearsAndSetsIndependently(t *testing.T) {
	c := New()
	c.SetButton(ButtonUp, true)
	c.SetButton(ButtonDown, true)
	c.SetButton(ButtonUp, false)

	c.Write(1)
	c.Write(0)
	for i := 0; i < 4; i++ {
		c.Read() // A, B, Select, Start
	}
	if got := c.Read(); got != 0 {
		t.Errorf("expected Up cleared, got %d", got)
	}
	if got := c.Read(); got != 1 {
		t.Errorf("expected Down held, got %d", got)
	}
}
