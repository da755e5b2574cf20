package mapper

import (
	"github.com/shionji/nescore/pkg/logging"
	"github.com/shionji/nescore/pkg/ppu"
)

// Mapper4 is MMC3: eight bank-select registers (six 1KB/2KB CHR banks,
// two 8KB PRG banks), a scanline IRQ counter clocked by the PPU's
// filtered A12 rising edge, and runtime-selectable mirroring.
type Mapper4 struct {
	batteryRAM
	data *CartridgeData
	log  *logging.Logger

	bankRegisters [8]uint8
	bankSelect    uint8
	mirrorBit     uint8
	prgRAMProtect uint8

	irqReloadValue uint8
	irqCounter     uint8
	irqEnabled     bool
	irqPending     bool
	irqReloadFlag  bool

	prgBankCount uint8
	chrBankCount uint8
}

func NewMapper4(data *CartridgeData) *Mapper4 {
	m := &Mapper4{
		batteryRAM:    batteryRAM{data},
		data:          data,
		log:           logging.Discard(),
		prgBankCount:  uint8(len(data.PRGROM) / 8192),
		prgRAMProtect: 0x80,
	}
	switch {
	case len(data.CHRROM) > 0:
		m.chrBankCount = uint8(len(data.CHRROM) / 1024)
	case len(data.CHRRAM) > 0:
		m.chrBankCount = uint8(len(data.CHRRAM) / 1024)
	default:
		m.chrBankCount = 8
	}
	if m.prgBankCount >= 2 {
		m.bankRegisters[6] = m.prgBankCount - 2
		m.bankRegisters[7] = m.prgBankCount - 1
	}
	return m
}

// SetLogger attaches the shared logger for mapper-subsystem tracing.
func (m *Mapper4) SetLogger(log *logging.Logger) {
	if log != nil {
		m.log = log
	}
}

type mapper4State struct {
	BankRegisters  [8]uint8
	BankSelect     uint8
	MirrorBit      uint8
	PrgRAMProtect  uint8
	IRQReloadValue uint8
	IRQCounter     uint8
	IRQEnabled     bool
	IRQPending     bool
	IRQReloadFlag  bool
}

func (m *Mapper4) Snapshot() []byte {
	return gobEncode(mapper4State{
		BankRegisters:  m.bankRegisters,
		BankSelect:     m.bankSelect,
		MirrorBit:      m.mirrorBit,
		PrgRAMProtect:  m.prgRAMProtect,
		IRQReloadValue: m.irqReloadValue,
		IRQCounter:     m.irqCounter,
		IRQEnabled:     m.irqEnabled,
		IRQPending:     m.irqPending,
		IRQReloadFlag:  m.irqReloadFlag,
	})
}

func (m *Mapper4) Restore(data []byte) error {
	var s mapper4State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.bankRegisters = s.BankRegisters
	m.bankSelect = s.BankSelect
	m.mirrorBit = s.MirrorBit
	m.prgRAMProtect = s.PrgRAMProtect
	m.irqReloadValue = s.IRQReloadValue
	m.irqCounter = s.IRQCounter
	m.irqEnabled = s.IRQEnabled
	m.irqPending = s.IRQPending
	m.irqReloadFlag = s.IRQReloadFlag
	return nil
}

func (m *Mapper4) Mirroring() ppu.Mirroring {
	if m.mirrorBit == 0 {
		return ppu.MirrorVertical
	}
	return ppu.MirrorHorizontal
}

func (m *Mapper4) ReadPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if len(m.data.PRGRAM) > 0 && m.prgRAMProtect&0x80 != 0 {
			return m.data.PRGRAM[addr-0x6000]
		}
		return 0
	case addr >= 0x8000:
		bank := m.prgBankFor(addr)
		if bank >= m.prgBankCount {
			bank = m.prgBankCount - 1
		}
		off := uint32(bank)*0x2000 + uint32(addr&0x1FFF)
		if off < uint32(len(m.data.PRGROM)) {
			return m.data.PRGROM[off]
		}
	}
	return 0
}

func (m *Mapper4) prgBankFor(addr uint16) uint8 {
	prgMode := (m.bankSelect >> 6) & 1
	switch {
	case addr <= 0x9FFF:
		if prgMode == 0 {
			return m.bankRegisters[6]
		}
		return m.prgBankCount - 2
	case addr <= 0xBFFF:
		return m.bankRegisters[7]
	case addr <= 0xDFFF:
		if prgMode == 0 {
			return m.prgBankCount - 2
		}
		return m.bankRegisters[6]
	default:
		return m.prgBankCount - 1
	}
}

func (m *Mapper4) WritePRG(addr uint16, value uint8) {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if len(m.data.PRGRAM) > 0 && m.prgRAMProtect&0x80 != 0 && m.prgRAMProtect&0x40 == 0 {
			m.data.PRGRAM[addr-0x6000] = value
		}
	case addr >= 0x8000:
		switch addr & 0xE001 {
		case 0x8000:
			m.bankSelect = value
		case 0x8001:
			reg := m.bankSelect & 0x07
			if reg >= 6 {
				m.bankRegisters[reg] = value % m.prgBankCount
			} else if m.chrBankCount > 0 {
				m.bankRegisters[reg] = value % m.chrBankCount
			} else {
				m.bankRegisters[reg] = value
			}
		case 0xA000:
			m.mirrorBit = value & 1
		case 0xA001:
			m.prgRAMProtect = value
		case 0xC000:
			m.irqReloadValue = value
		case 0xC001:
			m.irqReloadFlag = true
			m.irqCounter = 0
		case 0xE000:
			m.irqEnabled = false
			m.irqPending = false
		case 0xE001:
			m.irqEnabled = true
		}
	}
}

func (m *Mapper4) ReadCHR(addr uint16) uint8 {
	if addr >= 0x2000 {
		return 0
	}
	bank := m.chrBankFor(addr)
	if m.chrBankCount > 0 {
		bank %= m.chrBankCount
	}
	off := uint32(bank)*0x400 + uint32(addr&0x3FF)
	if len(m.data.CHRROM) > 0 {
		if off < uint32(len(m.data.CHRROM)) {
			return m.data.CHRROM[off]
		}
		return 0
	}
	if off < uint32(len(m.data.CHRRAM)) {
		return m.data.CHRRAM[off]
	}
	return 0
}

func (m *Mapper4) WriteCHR(addr uint16, value uint8) {
	if addr >= 0x2000 || !m.data.hasCHRRAM() {
		return
	}
	bank := m.chrBankFor(addr)
	if m.chrBankCount > 0 {
		bank %= m.chrBankCount
	}
	off := uint32(bank)*0x400 + uint32(addr&0x3FF)
	if off < uint32(len(m.data.CHRRAM)) {
		m.data.CHRRAM[off] = value
	}
}

func (m *Mapper4) chrBankFor(addr uint16) uint8 {
	chrMode := (m.bankSelect >> 7) & 1
	if chrMode == 0 {
		if addr < 0x1000 {
			if addr < 0x800 {
				return (m.bankRegisters[0] &^ 1) + uint8(addr/0x400)
			}
			return (m.bankRegisters[1] &^ 1) + uint8((addr-0x800)/0x400)
		}
		return m.bankRegisters[2+(addr-0x1000)/0x400]
	}
	if addr < 0x1000 {
		return m.bankRegisters[2+addr/0x400]
	}
	if addr < 0x1800 {
		return (m.bankRegisters[0] &^ 1) + uint8((addr-0x1000)/0x400)
	}
	return (m.bankRegisters[1] &^ 1) + uint8((addr-0x1800)/0x400)
}

// NotifyA12Rise clocks the scanline counter; the PPU has already applied
// the rendering-enabled gate and the low-for-9-cycles debounce filter
// before calling this.
func (m *Mapper4) NotifyA12Rise() {
	if m.irqReloadFlag {
		m.irqCounter = m.irqReloadValue
		m.irqReloadFlag = false
	} else if m.irqCounter == 0 {
		m.irqCounter = m.irqReloadValue
	} else {
		m.irqCounter--
	}

	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
		m.log.Mapper("MMC3 IRQ fired (reload=%d)", m.irqReloadValue)
	}
}

func (m *Mapper4) IsIRQPending() bool { return m.irqPending }
func (m *Mapper4) ClearIRQ()          { m.irqPending = false }
