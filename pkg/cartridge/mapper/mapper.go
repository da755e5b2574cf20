// Package mapper implements the NES cartridge bank-switching chips: the
// logic that decides which PRG/CHR bank a CPU/PPU address lands on and,
// for MMC1/MMC3, the serial shift-register and IRQ-counter state that
// bank switch register writes feed into.
package mapper

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/shionji/nescore/pkg/ppu"
)

// Mapper is the bank-switching behavior of one cartridge board.
type Mapper interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, value uint8)
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)

	// Mirroring reports the current nametable mirroring; mappers that
	// can change it at runtime (MMC1, MMC3) return the live value.
	Mirroring() ppu.Mirroring

	// NotifyA12Rise is called by the PPU on every filtered A12 rising
	// edge while rendering is enabled. Mappers without a scanline
	// counter (everything but MMC3) ignore it.
	NotifyA12Rise()

	IsIRQPending() bool
	ClearIRQ()

	// BatteryRAM returns the cartridge's persistent PRG-RAM, or nil if
	// this board has none, for .sav file round-tripping.
	BatteryRAM() []uint8

	// Snapshot gob-encodes this board's bank-select/IRQ-counter state
	// (everything a save state needs beyond the ROM/RAM images the
	// cartridge already carries). Restore decodes the same encoding
	// back into a freshly constructed mapper of the same type.
	Snapshot() []byte
	Restore(data []byte) error
}

// gobEncode panics on failure: every state struct passed to it is a
// plain value type with no unsupported field, so an error here means a
// mapper's state struct was built wrong, not a runtime condition.
func gobEncode(v interface{}) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		panic(fmt.Sprintf("mapper: gob encode of %T failed: %v", v, err))
	}
	return buf.Bytes()
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// CartridgeData is the raw ROM/RAM image a mapper banks over.
type CartridgeData struct {
	PRGROM []uint8
	CHRROM []uint8
	PRGRAM []uint8
	CHRRAM []uint8

	HeaderMirroring ppu.Mirroring
	Battery         bool
}

// hasCHRRAM reports whether this board uses writable CHR memory.
func (d *CartridgeData) hasCHRRAM() bool { return len(d.CHRRAM) > 0 }

// New constructs the mapper identified by the iNES mapper number.
func New(mapperNumber uint8, data *CartridgeData) (Mapper, error) {
	switch mapperNumber {
	case 0:
		return NewMapper0(data), nil
	case 1:
		return NewMapper1(data), nil
	case 2:
		return NewMapper2(data), nil
	case 3:
		return NewMapper3(data), nil
	case 4:
		return NewMapper4(data), nil
	case 7:
		return NewMapper7(data), nil
	default:
		return nil, fmt.Errorf("mapper: unsupported iNES mapper number %d", mapperNumber)
	}
}

// noIRQ is embedded by mappers with no scanline IRQ counter.
type noIRQ struct{}

func (noIRQ) NotifyA12Rise()    {}
func (noIRQ) IsIRQPending() bool { return false }
func (noIRQ) ClearIRQ()         {}

// staticMirror is embedded by mappers that cannot change mirroring.
type staticMirror struct{ data *CartridgeData }

func (s staticMirror) Mirroring() ppu.Mirroring { return s.data.HeaderMirroring }

// batteryRAM is embedded by mappers whose PRG-RAM is the save target.
type batteryRAM struct{ data *CartridgeData }

func (b batteryRAM) BatteryRAM() []uint8 {
	if !b.data.Battery {
		return nil
	}
	return b.data.PRGRAM
}
