// Package cartridge parses iNES ROM images and owns the active mapper
// that banks PRG/CHR memory for the CPU and PPU buses.
package cartridge

import (
	"errors"
	"fmt"
	"io"

	"github.com/shionji/nescore/pkg/cartridge/mapper"
	"github.com/shionji/nescore/pkg/ppu"
)

// Sentinel load errors, wrapped with fmt.Errorf("%w", ...) so callers
// can distinguish them with errors.Is without string matching.
var (
	ErrBadRomMagic          = errors.New("cartridge: missing iNES magic number")
	ErrUnsupportedInesVersion = errors.New("cartridge: iNES 2.0 headers are not supported")
	ErrTrainerUnsupported   = errors.New("cartridge: trainer-carrying ROMs are not supported")
	ErrPrgRamTooBig         = errors.New("cartridge: header PRG-RAM size exceeds 8KB")
)

// UnsupportedMapper is returned when the header names a mapper number
// this core has no implementation for.
type UnsupportedMapper struct{ Number uint8 }

func (e UnsupportedMapper) Error() string {
	return fmt.Sprintf("cartridge: unsupported mapper number %d", e.Number)
}

// Cartridge is a loaded ROM image plus its active mapper.
type Cartridge struct {
	PRGROM []uint8
	CHRROM []uint8
	PRGRAM []uint8
	CHRRAM []uint8

	Header  Header
	Mapper  mapper.Mapper
	Battery bool
}

// Header is the 16-byte iNES file header.
type Header struct {
	Magic      [4]uint8
	PRGROMSize uint8 // 16KB units
	CHRROMSize uint8 // 8KB units
	Flags6     uint8
	Flags7     uint8
	Flags8     uint8
	Flags9     uint8
	Flags10    uint8
}

// MapperNumber returns the iNES mapper number encoded across flags 6/7.
func (h Header) MapperNumber() uint8 {
	return (h.Flags6 >> 4) | (h.Flags7 & 0xF0)
}

// Load parses an iNES ROM image and constructs its mapper.
func Load(r io.Reader) (*Cartridge, error) {
	c := &Cartridge{}
	if err := c.readHeader(r); err != nil {
		return nil, fmt.Errorf("cartridge: reading header: %w", err)
	}
	if string(c.Header.Magic[:]) != "NES\x1A" {
		return nil, fmt.Errorf("%w", ErrBadRomMagic)
	}
	if c.Header.Flags7&0x0C == 0x08 {
		return nil, fmt.Errorf("%w", ErrUnsupportedInesVersion)
	}
	if c.Header.Flags6&0x04 != 0 {
		return nil, fmt.Errorf("%w", ErrTrainerUnsupported)
	}
	if c.Header.Flags8 > 1 {
		return nil, fmt.Errorf("%w", ErrPrgRamTooBig)
	}

	prgSize := int(c.Header.PRGROMSize) * 16384
	c.PRGROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(r, c.PRGROM); err != nil {
		return nil, fmt.Errorf("cartridge: reading PRG ROM: %w", err)
	}

	chrSize := int(c.Header.CHRROMSize) * 8192
	if chrSize > 0 {
		c.CHRROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, c.CHRROM); err != nil {
			return nil, fmt.Errorf("cartridge: reading CHR ROM: %w", err)
		}
	} else {
		ramSize := 8192
		if c.Header.MapperNumber() == 4 {
			ramSize = 32768
		}
		c.CHRRAM = make([]uint8, ramSize)
	}

	c.Battery = c.Header.Flags6&0x02 != 0
	if c.Battery || c.Header.MapperNumber() == 4 {
		c.PRGRAM = make([]uint8, 8192)
	}

	var headerMirror ppu.Mirroring
	switch {
	case c.Header.Flags6&0x08 != 0:
		headerMirror = ppu.MirrorFourScreen
	case c.Header.Flags6&0x01 != 0:
		headerMirror = ppu.MirrorVertical
	default:
		headerMirror = ppu.MirrorHorizontal
	}

	data := &mapper.CartridgeData{
		PRGROM:          c.PRGROM,
		CHRROM:          c.CHRROM,
		PRGRAM:          c.PRGRAM,
		CHRRAM:          c.CHRRAM,
		HeaderMirroring: headerMirror,
		Battery:         c.Battery,
	}

	m, err := mapper.New(c.Header.MapperNumber(), data)
	if err != nil {
		return nil, fmt.Errorf("%w", UnsupportedMapper{Number: c.Header.MapperNumber()})
	}
	c.Mapper = m

	return c, nil
}

func (c *Cartridge) readHeader(r io.Reader) error {
	raw := make([]uint8, 16)
	if _, err := io.ReadFull(r, raw); err != nil {
		return err
	}
	copy(c.Header.Magic[:], raw[0:4])
	c.Header.PRGROMSize = raw[4]
	c.Header.CHRROMSize = raw[5]
	c.Header.Flags6 = raw[6]
	c.Header.Flags7 = raw[7]
	c.Header.Flags8 = raw[8]
	c.Header.Flags9 = raw[9]
	c.Header.Flags10 = raw[10]
	return nil
}

func (c *Cartridge) ReadPRG(addr uint16) uint8       { return c.Mapper.ReadPRG(addr) }
func (c *Cartridge) WritePRG(addr uint16, v uint8)   { c.Mapper.WritePRG(addr, v) }
func (c *Cartridge) ReadCHR(addr uint16) uint8       { return c.Mapper.ReadCHR(addr) }
func (c *Cartridge) WriteCHR(addr uint16, v uint8)   { c.Mapper.WriteCHR(addr, v) }
func (c *Cartridge) Mirroring() ppu.Mirroring        { return c.Mapper.Mirroring() }
func (c *Cartridge) NotifyA12Rise()                  { c.Mapper.NotifyA12Rise() }
func (c *Cartridge) IsIRQPending() bool              { return c.Mapper.IsIRQPending() }
func (c *Cartridge) ClearIRQ()                       { c.Mapper.ClearIRQ() }

// ErrPrgRamIoFailed wraps a .sav read/write failure. Callers are
// expected to log it and continue with volatile (unsaved) PRG-RAM
// rather than treat it as fatal.
var ErrPrgRamIoFailed = errors.New("cartridge: PRG-RAM save file I/O failed")

// SaveRAM writes the cartridge's battery-backed PRG-RAM, if any, to w.
func (c *Cartridge) SaveRAM(w io.Writer) error {
	ram := c.Mapper.BatteryRAM()
	if ram == nil {
		return nil
	}
	if _, err := w.Write(ram); err != nil {
		return fmt.Errorf("%w: %v", ErrPrgRamIoFailed, err)
	}
	return nil
}

// LoadRAM restores battery-backed PRG-RAM previously written by SaveRAM.
func (c *Cartridge) LoadRAM(r io.Reader) error {
	ram := c.Mapper.BatteryRAM()
	if ram == nil {
		return nil
	}
	if _, err := io.ReadFull(r, ram); err != nil {
		return fmt.Errorf("%w: %v", ErrPrgRamIoFailed, err)
	}
	return nil
}
