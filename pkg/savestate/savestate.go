// Package savestate captures and restores a full console.Console at an
// instruction boundary: CPU/PPU/APU register and channel state,
// controller shift position, cartridge PRG-RAM/CHR-RAM contents, and
// whatever bank-select/IRQ-counter state the loaded mapper carries. It
// also manages the fixed 8-slot .stat file frontends write these into.
package savestate

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shionji/nescore/pkg/apu"
	"github.com/shionji/nescore/pkg/console"
	"github.com/shionji/nescore/pkg/controller"
	"github.com/shionji/nescore/pkg/cpu"
	"github.com/shionji/nescore/pkg/ppu"
)

// ErrSaveStateCorrupt wraps any failure to decode a .stat file or an
// individual slot's payload, distinguishing it from a missing file or
// an out-of-range slot index.
var ErrSaveStateCorrupt = errors.New("savestate: corrupt or unreadable save data")

// NumSlots is the fixed number of save slots a .stat file holds.
const NumSlots = 8

// Snapshot is the complete, gob-encodable state of one loaded game.
type Snapshot struct {
	CPU                      cpu.State
	PPU                      ppu.State
	APU                      apu.State
	Controller1, Controller2 controller.State

	MapperNumber uint8
	MapperData   []byte

	PRGRAM []uint8
	CHRRAM []uint8
}

// Capture builds a Snapshot from a live Console without touching it.
func Capture(c *console.Console) *Snapshot {
	s := &Snapshot{
		CPU:          c.CPU.Snapshot(),
		PPU:          c.PPU.Snapshot(),
		APU:          c.APU.Snapshot(),
		Controller1:  c.Controller1.Snapshot(),
		Controller2:  c.Controller2.Snapshot(),
		MapperNumber: c.Cart.Header.MapperNumber(),
		MapperData:   c.Cart.Mapper.Snapshot(),
	}
	s.PRGRAM = append(s.PRGRAM, c.Cart.PRGRAM...)
	s.CHRRAM = append(s.CHRRAM, c.Cart.CHRRAM...)
	return s
}

// Apply restores a Console to exactly the state Capture saw, provided
// the same cartridge (same mapper, same PRG-RAM/CHR-RAM sizes) is
// already loaded. Mismatched mapper numbers or RAM sizes are refused
// rather than silently corrupting the running cartridge.
func Apply(s *Snapshot, c *console.Console) error {
	if got := c.Cart.Header.MapperNumber(); got != s.MapperNumber {
		return fmt.Errorf("savestate: save is for mapper %d, loaded cartridge is mapper %d", s.MapperNumber, got)
	}
	if len(s.PRGRAM) != len(c.Cart.PRGRAM) {
		return fmt.Errorf("savestate: PRG-RAM size mismatch: save has %d bytes, cartridge has %d", len(s.PRGRAM), len(c.Cart.PRGRAM))
	}
	if len(s.CHRRAM) != len(c.Cart.CHRRAM) {
		return fmt.Errorf("savestate: CHR-RAM size mismatch: save has %d bytes, cartridge has %d", len(s.CHRRAM), len(c.Cart.CHRRAM))
	}

	if err := c.Cart.Mapper.Restore(s.MapperData); err != nil {
		return fmt.Errorf("%w: mapper state: %v", ErrSaveStateCorrupt, err)
	}

	c.CPU.Restore(s.CPU)
	c.PPU.Restore(s.PPU)
	c.APU.Restore(s.APU)
	c.Controller1.Restore(s.Controller1)
	c.Controller2.Restore(s.Controller2)
	copy(c.Cart.PRGRAM, s.PRGRAM)
	copy(c.Cart.CHRRAM, s.CHRRAM)
	return nil
}

// Encode gob-encodes a point-in-time Snapshot of c to w.
func Encode(w io.Writer, c *console.Console) error {
	return gob.NewEncoder(w).Encode(Capture(c))
}

// Decode reads a Snapshot previously written by Encode.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveStateCorrupt, err)
	}
	return &s, nil
}

// slotFile is the on-disk layout of a .stat file: one gob-encoded blob
// per slot, nil for a slot never written.
type slotFile struct {
	Slots [NumSlots][]byte
}

func readSlotFile(path string) (*slotFile, error) {
	f := &slotFile{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveStateCorrupt, err)
	}
	return f, nil
}

// WriteSlot encodes c's current state into slot and rewrites the whole
// .stat file at path, truncating it first: a .stat file is small enough
// (eight snapshots at most) that there is no benefit to the added
// complexity of an in-place update, and rewriting the whole thing means
// a crash mid-write can never leave one slot's bytes straddling another
// slot's.
func WriteSlot(path string, slot int, c *console.Console) error {
	if slot < 0 || slot >= NumSlots {
		return fmt.Errorf("savestate: slot %d out of range 0-%d", slot, NumSlots-1)
	}

	var payload bytes.Buffer
	if err := Encode(&payload, c); err != nil {
		return err
	}

	f, err := readSlotFile(path)
	if err != nil {
		return err
	}
	f.Slots[slot] = payload.Bytes()

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(f); err != nil {
		return err
	}
	return os.WriteFile(path, out.Bytes(), 0644)
}

// ReadSlot decodes the Snapshot stored in slot of the .stat file at
// path.
func ReadSlot(path string, slot int) (*Snapshot, error) {
	if slot < 0 || slot >= NumSlots {
		return nil, fmt.Errorf("savestate: slot %d out of range 0-%d", slot, NumSlots-1)
	}
	f, err := readSlotFile(path)
	if err != nil {
		return nil, err
	}
	if f.Slots[slot] == nil {
		return nil, fmt.Errorf("savestate: slot %d is empty", slot)
	}
	return Decode(bytes.NewReader(f.Slots[slot]))
}

// LoadSlot reads slot from the .stat file at path and applies it to c
// in one step.
func LoadSlot(path string, slot int, c *console.Console) error {
	s, err := ReadSlot(path, slot)
	if err != nil {
		return err
	}
	return Apply(s, c)
}
