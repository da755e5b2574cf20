package mapper

import "github.com/shionji/nescore/pkg/ppu"

// Mapper1 is MMC1: a 5-bit serial shift register loaded one bit per
// write (bit 7 of the value written resets it) that, once full, latches
// into one of four internal registers selected by the address written.
type Mapper1 struct {
	noIRQ
	batteryRAM
	data *CartridgeData

	shiftRegister uint8
	shiftCount    uint8

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgMode uint8
	chrMode uint8
	mirror  uint8
}

func NewMapper1(data *CartridgeData) *Mapper1 {
	return &Mapper1{
		batteryRAM: batteryRAM{data},
		data:       data,
		control:    0x0C,
		prgMode:    3,
	}
}

type mapper1State struct {
	ShiftRegister uint8
	ShiftCount    uint8
	Control       uint8
	ChrBank0      uint8
	ChrBank1      uint8
	PrgBank       uint8
	PrgMode       uint8
	ChrMode       uint8
	Mirror        uint8
}

func (m *Mapper1) Snapshot() []byte {
	return gobEncode(mapper1State{
		ShiftRegister: m.shiftRegister,
		ShiftCount:    m.shiftCount,
		Control:       m.control,
		ChrBank0:      m.chrBank0,
		ChrBank1:      m.chrBank1,
		PrgBank:       m.prgBank,
		PrgMode:       m.prgMode,
		ChrMode:       m.chrMode,
		Mirror:        m.mirror,
	})
}

func (m *Mapper1) Restore(data []byte) error {
	var s mapper1State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.shiftRegister = s.ShiftRegister
	m.shiftCount = s.ShiftCount
	m.control = s.Control
	m.chrBank0 = s.ChrBank0
	m.chrBank1 = s.ChrBank1
	m.prgBank = s.PrgBank
	m.prgMode = s.PrgMode
	m.chrMode = s.ChrMode
	m.mirror = s.Mirror
	return nil
}

func (m *Mapper1) Mirroring() ppu.Mirroring {
	switch m.mirror {
	case 0:
		return ppu.MirrorSingleScreenLo
	case 1:
		return ppu.MirrorSingleScreenHi
	case 2:
		return ppu.MirrorVertical
	default:
		return ppu.MirrorHorizontal
	}
}

func (m *Mapper1) ReadPRG(addr uint16) uint8 {
	if addr >= 0x8000 {
		addr -= 0x8000
		prgSize := len(m.data.PRGROM)
		switch m.prgMode {
		case 0, 1:
			bank := m.prgBank >> 1
			off := uint32(bank)*0x8000 + uint32(addr)
			if int(off) < prgSize {
				return m.data.PRGROM[off]
			}
		case 2:
			if addr < 0x4000 {
				if int(addr) < prgSize {
					return m.data.PRGROM[addr]
				}
			} else {
				bank := m.prgBank & 0x0F
				off := uint32(bank)*0x4000 + uint32(addr-0x4000)
				if int(off) < prgSize {
					return m.data.PRGROM[off]
				}
			}
		case 3:
			if addr < 0x4000 {
				bank := m.prgBank & 0x0F
				off := uint32(bank)*0x4000 + uint32(addr)
				if int(off) < prgSize {
					return m.data.PRGROM[off]
				}
			} else {
				last := uint32(prgSize/0x4000) - 1
				off := last*0x4000 + uint32(addr-0x4000)
				if int(off) < prgSize {
					return m.data.PRGROM[off]
				}
			}
		}
		return 0
	}
	if addr >= 0x6000 && len(m.data.PRGRAM) > 0 && m.prgBank&0x10 == 0 {
		off := addr - 0x6000
		if int(off) < len(m.data.PRGRAM) {
			return m.data.PRGRAM[off]
		}
	}
	return 0
}

func (m *Mapper1) WritePRG(addr uint16, value uint8) {
	if addr >= 0x8000 {
		if value&0x80 != 0 {
			m.shiftRegister = 0
			m.shiftCount = 0
			m.control |= 0x0C
			m.prgMode = 3
			return
		}
		m.shiftRegister = (m.shiftRegister >> 1) | ((value & 1) << 4)
		m.shiftCount++
		if m.shiftCount == 5 {
			m.writeRegister(addr, m.shiftRegister)
			m.shiftRegister = 0
			m.shiftCount = 0
		}
		return
	}
	if addr >= 0x6000 && len(m.data.PRGRAM) > 0 && m.prgBank&0x10 == 0 {
		off := addr - 0x6000
		if int(off) < len(m.data.PRGRAM) {
			m.data.PRGRAM[off] = value
		}
	}
}

func (m *Mapper1) writeRegister(addr uint16, value uint8) {
	switch {
	case addr <= 0x9FFF:
		m.control = value
		m.mirror = value & 3
		m.prgMode = (value >> 2) & 3
		m.chrMode = (value >> 4) & 1
	case addr <= 0xBFFF:
		m.chrBank0 = value
	case addr <= 0xDFFF:
		m.chrBank1 = value
	default:
		m.prgBank = value
	}
}

func (m *Mapper1) ReadCHR(addr uint16) uint8 {
	if len(m.data.CHRROM) > 0 {
		chrSize := len(m.data.CHRROM)
		var off uint32
		if m.chrMode == 0 {
			bank := m.chrBank0 >> 1
			off = uint32(bank)*0x2000 + uint32(addr)
		} else if addr < 0x1000 {
			off = uint32(m.chrBank0)*0x1000 + uint32(addr)
		} else {
			off = uint32(m.chrBank1)*0x1000 + uint32(addr-0x1000)
		}
		if int(off) < chrSize {
			return m.data.CHRROM[off]
		}
		return 0
	}
	if m.data.hasCHRRAM() && int(addr) < len(m.data.CHRRAM) {
		return m.data.CHRRAM[addr]
	}
	return 0
}

func (m *Mapper1) WriteCHR(addr uint16, value uint8) {
	if m.data.hasCHRRAM() && int(addr) < len(m.data.CHRRAM) {
		m.data.CHRRAM[addr] = value
	}
}
