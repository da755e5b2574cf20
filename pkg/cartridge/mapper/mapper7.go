package mapper

import "github.com/shionji/nescore/pkg/ppu"

// Mapper7 is AxROM: a single switchable 32KB PRG bank and runtime
// single-screen mirroring selected by the same register write, with
// CHR always backed by 8KB of RAM.
type Mapper7 struct {
	noIRQ
	batteryRAM
	data *CartridgeData

	prgBankCount uint8
	prgBank      uint8
	mirror       ppu.Mirroring
}

func NewMapper7(data *CartridgeData) *Mapper7 {
	return &Mapper7{
		batteryRAM:   batteryRAM{data},
		data:         data,
		prgBankCount: uint8(len(data.PRGROM) / 32768),
		mirror:       ppu.MirrorSingleScreenLo,
	}
}

type mapper7State struct {
	PrgBank uint8
	Mirror  ppu.Mirroring
}

func (m *Mapper7) Snapshot() []byte {
	return gobEncode(mapper7State{PrgBank: m.prgBank, Mirror: m.mirror})
}

func (m *Mapper7) Restore(data []byte) error {
	var s mapper7State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.prgBank = s.PrgBank
	m.mirror = s.Mirror
	return nil
}

func (m *Mapper7) Mirroring() ppu.Mirroring { return m.mirror }

func (m *Mapper7) ReadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	off := uint32(m.prgBank)*0x8000 + uint32(addr-0x8000)
	if int(off) < len(m.data.PRGROM) {
		return m.data.PRGROM[off]
	}
	return 0
}

func (m *Mapper7) WritePRG(addr uint16, value uint8) {
	if addr < 0x8000 {
		return
	}
	bank := value & 0x07
	if m.prgBankCount > 0 {
		bank &= m.prgBankCount - 1
	}
	m.prgBank = bank
	if value&0x10 != 0 {
		m.mirror = ppu.MirrorSingleScreenHi
	} else {
		m.mirror = ppu.MirrorSingleScreenLo
	}
}

func (m *Mapper7) ReadCHR(addr uint16) uint8 {
	if int(addr) < len(m.data.CHRRAM) {
		return m.data.CHRRAM[addr]
	}
	return 0
}

func (m *Mapper7) WriteCHR(addr uint16, value uint8) {
	if int(addr) < len(m.data.CHRRAM) {
		m.data.CHRRAM[addr] = value
	}
}
