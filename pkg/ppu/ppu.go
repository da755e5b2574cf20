// Package ppu implements the picture processing unit: a 341x262 dot
// raster pipeline driven one PPU cycle at a time from the bus, two 16-bit
// background pattern/attribute shift registers, an 8-sprite secondary OAM
// evaluation pass and per-sprite pattern shifters, and the filtered A12
// line watcher MMC3-class mappers clock their scanline counter from.
package ppu

import (
	"fmt"

	"github.com/shionji/nescore/pkg/bitutil"
	"github.com/shionji/nescore/pkg/logging"
	"github.com/shionji/nescore/pkg/ppu/palette"
)

// Cartridge is the subset of cartridge.Cartridge the PPU needs: CHR bus
// access, nametable mirroring mode, and A12-edge notification for mappers
// (MMC3) that clock an IRQ counter from the pattern-table address line.
type Cartridge interface {
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)
	Mirroring() Mirroring
	NotifyA12Rise()
}

// Mirroring identifies how $2000-$2FFF nametable addresses fold down into
// the PPU's 2KB of internal VRAM.
type Mirroring int

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorSingleScreenLo
	MirrorSingleScreenHi
	MirrorFourScreen
)

// PPUCTRL ($2000) flags.
const (
	ctrlNametable   = 0x03
	ctrlIncrement   = 0x04
	ctrlSpriteTable = 0x08
	ctrlBGTable     = 0x10
	ctrlSpriteSize  = 0x20
	ctrlNMIEnable   = 0x80
)

// PPUMASK ($2001) flags.
const (
	maskGreyscale  = 0x01
	maskBGLeft     = 0x02
	maskSpriteLeft = 0x04
	maskBGShow     = 0x08
	maskSpriteShow = 0x10
	maskEmphasis   = 0xE0
)

// PPUSTATUS ($2002) flags.
const (
	statusOverflow   = 0x20
	statusSprite0Hit = 0x40
	statusVBlank     = 0x80
)

const (
	screenWidth  = 256
	screenHeight = 240
	a12FilterLen = 9 // PPU cycles A12 must stay low before a rise counts as an edge
)

type spriteUnit struct {
	patternLo, patternHi uint8
	attribute            uint8
	xCounter             uint8
	isSprite0            bool
}

// PPU is the NES picture processing unit.
type PPU struct {
	Cartridge Cartridge
	log       *logging.Logger

	ctrl   uint8
	mask   uint8
	status uint8

	oamAddr uint8
	OAM     [256]uint8
	secOAM  [32]uint8 // 8 sprites x 4 bytes
	secLen  int
	units   [8]spriteUnit

	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8

	nametables [0x800]uint8
	palRAM     [32]uint8

	Dot      int // 0-340
	Scanline int // 0-261, 261 = pre-render
	Frame    uint64

	oddFrame bool

	bgNextTile, bgNextAttr          uint8
	bgNextPatternLo, bgNextPattern2 uint8
	bgPatternLo, bgPatternHi        bitutil.ShiftReg16
	bgAttrLo, bgAttrHi              bitutil.ShiftReg16
	attrLatchLo, attrLatchHi        uint8

	a12Low      bool
	a12FilterCt int

	NMIPending bool

	FrameBuffer    [screenWidth * screenHeight]uint32
	FrameReady     bool
	suppressNMIOne bool
}

// New creates a PPU with no cartridge attached; call AttachCartridge
// before rendering anything meaningful.
func New(log *logging.Logger) *PPU {
	if log == nil {
		log = logging.Discard()
	}
	return &PPU{log: log, a12FilterCt: a12FilterLen}
}

// AttachCartridge wires the cartridge used for CHR fetches and mirroring.
func (p *PPU) AttachCartridge(c Cartridge) {
	p.Cartridge = c
}

// Reset returns the PPU to its power-on state.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.Dot, p.Scanline = 0, 0
	p.oddFrame = false
	p.NMIPending = false
	p.FrameReady = false
	p.a12FilterCt = a12FilterLen
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskBGShow|maskSpriteShow) != 0
}

// Tick advances the PPU by exactly one PPU cycle (one dot). The CPU-facing
// bus calls this three times per CPU cycle.
func (p *PPU) Tick() {
	if p.Scanline < screenHeight {
		p.visibleOrPrerenderCycle(false)
	} else if p.Scanline == 241 && p.Dot == 1 {
		p.status |= statusVBlank
		if p.ctrl&ctrlNMIEnable != 0 {
			p.NMIPending = true
		}
	} else if p.Scanline == 261 {
		if p.Dot == 1 {
			p.status &^= statusVBlank | statusSprite0Hit | statusOverflow
		}
		p.visibleOrPrerenderCycle(true)
	}

	p.advanceDot()
}

func (p *PPU) advanceDot() {
	p.Dot++
	// Pre-render line skips dot 339 on odd frames while rendering is on,
	// shaving one dot off every other frame as real hardware does.
	if p.Scanline == 261 && p.Dot == 339 && p.oddFrame && p.renderingEnabled() {
		p.Dot = 340
	}
	if p.Dot > 340 {
		p.Dot = 0
		p.Scanline++
		if p.Scanline > 261 {
			p.Scanline = 0
			p.Frame++
			p.oddFrame = !p.oddFrame
			p.FrameReady = true
		}
	}
}

func (p *PPU) visibleOrPrerenderCycle(preRender bool) {
	dot := p.Dot
	rendering := p.renderingEnabled()

	if dot >= 1 && dot <= 256 {
		if rendering {
			p.shiftBackground()
			p.fetchBackgroundByte(dot)
			if !preRender {
				p.renderPixel(dot - 1)
				p.shiftSprites()
			}
		}
		if dot == 256 && rendering {
			p.incrementY()
		}
	} else if dot == 257 {
		if rendering {
			p.reloadShiftersFromLatch()
			p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
			p.evaluateSprites()
			p.loadSpriteUnits(preRender)
		}
	} else if dot >= 321 && dot <= 336 {
		if rendering {
			p.shiftBackground()
			p.fetchBackgroundByte(dot)
		}
	}

	if preRender && dot >= 280 && dot <= 304 && rendering {
		p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
	}

	if rendering {
		p.watchA12(dot)
	}
}

// fetchBackgroundByte performs the 8-dot nametable/attribute/pattern fetch
// sequence and reloads the shift registers at every tile boundary.
func (p *PPU) fetchBackgroundByte(dot int) {
	switch dot % 8 {
	case 1:
		p.reloadShiftersFromLatch()
		ntAddr := 0x2000 | (p.v & 0x0FFF)
		p.bgNextTile = p.readVRAM(ntAddr)
	case 3:
		attrAddr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		attr := p.readVRAM(attrAddr)
		shift := ((p.v >> 4) & 4) | (p.v & 2)
		p.bgNextAttr = (attr >> shift) & 0x03
	case 5:
		fineY := (p.v >> 12) & 0x07
		base := p.bgPatternBase()
		addr := base + uint16(p.bgNextTile)*16 + fineY
		p.bgNextPatternLo = p.readCHR(addr)
	case 7:
		fineY := (p.v >> 12) & 0x07
		base := p.bgPatternBase()
		addr := base + uint16(p.bgNextTile)*16 + fineY + 8
		p.bgNextPattern2 = p.readCHR(addr)
	case 0:
		p.incrementCoarseX()
	}
}

func (p *PPU) bgPatternBase() uint16 {
	if p.ctrl&ctrlBGTable != 0 {
		return 0x1000
	}
	return 0x0000
}

func (p *PPU) reloadShiftersFromLatch() {
	p.bgPatternLo.Load(p.bgNextPatternLo)
	p.bgPatternHi.Load(p.bgNextPattern2)
	if p.bgNextAttr&1 != 0 {
		p.bgAttrLo.Load(0xFF)
	} else {
		p.bgAttrLo.Load(0x00)
	}
	if p.bgNextAttr&2 != 0 {
		p.bgAttrHi.Load(0xFF)
	} else {
		p.bgAttrHi.Load(0x00)
	}
}

func (p *PPU) shiftBackground() {
	p.bgPatternLo.ShiftLeft()
	p.bgPatternHi.ShiftLeft()
	p.bgAttrLo.ShiftLeft()
	p.bgAttrHi.ShiftLeft()
}

func (p *PPU) shiftSprites() {
	for i := 0; i < p.secLen; i++ {
		u := &p.units[i]
		if u.xCounter > 0 {
			u.xCounter--
			continue
		}
		u.patternLo <<= 1
		u.patternHi <<= 1
	}
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v & 0xFC1F) | (y << 5)
}

// evaluateSprites scans primary OAM for up to 8 sprites intersecting the
// next scanline, copying them into secondary OAM and latching the
// overflow flag (without the hardware's decoder off-by-one quirk once
// nine candidates are found).
func (p *PPU) evaluateSprites() {
	height := 8
	if p.ctrl&ctrlSpriteSize != 0 {
		height = 16
	}
	targetLine := p.Scanline + 1
	if p.Scanline == 261 {
		targetLine = 0
	}

	p.secLen = 0
	found9th := false
	for i := 0; i < 64; i++ {
		y := int(p.OAM[i*4]) + 1
		if targetLine >= y && targetLine < y+height {
			if p.secLen < 8 {
				copy(p.secOAM[p.secLen*4:p.secLen*4+4], p.OAM[i*4:i*4+4])
				p.secLen++
			} else {
				found9th = true
				break
			}
		}
	}
	if found9th {
		p.status |= statusOverflow
	}
}

func (p *PPU) loadSpriteUnits(preRender bool) {
	height := 8
	if p.ctrl&ctrlSpriteSize != 0 {
		height = 16
	}
	targetLine := p.Scanline + 1
	if preRender {
		targetLine = 0
	}

	for i := 0; i < p.secLen; i++ {
		y := p.secOAM[i*4]
		tile := p.secOAM[i*4+1]
		attr := p.secOAM[i*4+2]
		x := p.secOAM[i*4+3]

		row := targetLine - (int(y) + 1)
		flipV := attr&0x80 != 0
		flipH := attr&0x40 != 0
		if flipV {
			row = height - 1 - row
		}

		var base uint16
		var patternIndex int
		if height == 16 {
			patternIndex = int(tile &^ 1)
			if row >= 8 {
				patternIndex++
				row -= 8
			}
			if tile&1 != 0 {
				base = 0x1000
			}
		} else {
			patternIndex = int(tile)
			if p.ctrl&ctrlSpriteTable != 0 {
				base = 0x1000
			}
		}

		addr := base + uint16(patternIndex)*16 + uint16(row)
		lo := p.readCHR(addr)
		hi := p.readCHR(addr + 8)
		if flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.units[i] = spriteUnit{
			patternLo: lo,
			patternHi: hi,
			attribute: attr,
			xCounter:  x,
			isSprite0: i == 0 && p.oamIsSpriteZero(i),
		}
	}
	for i := p.secLen; i < 8; i++ {
		p.units[i] = spriteUnit{}
	}
}

// oamIsSpriteZero reports whether the sprite that landed in secondary-OAM
// slot i originated from primary OAM index 0; evaluateSprites preserves
// scan order, so slot 0 holding sprite 0 is sufficient in practice, but
// this guards against a future re-ordering of evaluateSprites.
func (p *PPU) oamIsSpriteZero(slot int) bool {
	return p.secOAM[slot*4] == p.OAM[0] && p.secOAM[slot*4+1] == p.OAM[1] &&
		p.secOAM[slot*4+2] == p.OAM[2] && p.secOAM[slot*4+3] == p.OAM[3]
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// renderPixel composes the background and sprite pipelines into the final
// ARGB pixel for (x, Scanline) and resolves sprite-0-hit.
func (p *PPU) renderPixel(x int) {
	if x < 0 || x >= screenWidth {
		return
	}

	bgPixel, bgPalette := p.backgroundPixelAt(x)
	spPixel, spPalette, spPriority, spriteZero := p.spritePixelAt(x)

	var finalIndex uint8
	var paletteBase uint8

	switch {
	case bgPixel == 0 && spPixel == 0:
		finalIndex, paletteBase = 0, 0
	case bgPixel == 0 && spPixel != 0:
		finalIndex, paletteBase = spPixel, 0x10+spPalette*4
	case bgPixel != 0 && spPixel == 0:
		finalIndex, paletteBase = bgPixel, bgPalette*4
	default:
		if spriteZero && p.spriteZeroHitEligible(x) {
			p.status |= statusSprite0Hit
		}
		if spPriority {
			finalIndex, paletteBase = spPixel, 0x10+spPalette*4
		} else {
			finalIndex, paletteBase = bgPixel, bgPalette*4
		}
	}

	colorIndex := p.readPaletteRAM(paletteBase + finalIndex)
	emphasis := (p.mask & maskEmphasis) >> 5
	c := palette.Lookup(emphasis, colorIndex)
	idx := p.Scanline*screenWidth + x
	p.FrameBuffer[idx] = uint32(0xFF)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (p *PPU) spriteZeroHitEligible(x int) bool {
	if p.status&statusSprite0Hit != 0 {
		return false
	}
	if x == 255 {
		return false
	}
	if x < 8 && (p.mask&maskBGLeft == 0 || p.mask&maskSpriteLeft == 0) {
		return false
	}
	return true
}

func (p *PPU) backgroundPixelAt(x int) (pixel, palIdx uint8) {
	if p.mask&maskBGShow == 0 {
		return 0, 0
	}
	if x < 8 && p.mask&maskBGLeft == 0 {
		return 0, 0
	}
	fineX := p.x
	lo := p.bgPatternLo.BitAt(fineX)
	hi := p.bgPatternHi.BitAt(fineX)
	pixel = (hi << 1) | lo
	alo := p.bgAttrLo.BitAt(fineX)
	ahi := p.bgAttrHi.BitAt(fineX)
	palIdx = (ahi << 1) | alo
	return pixel, palIdx
}

func (p *PPU) spritePixelAt(x int) (pixel, palIdx uint8, priority bool, isZero bool) {
	if p.mask&maskSpriteShow == 0 {
		return 0, 0, false, false
	}
	if x < 8 && p.mask&maskSpriteLeft == 0 {
		return 0, 0, false, false
	}
	for i := 0; i < p.secLen; i++ {
		u := &p.units[i]
		if u.xCounter != 0 {
			continue
		}
		lo := (u.patternLo >> 7) & 1
		hi := (u.patternHi >> 7) & 1
		px := (hi << 1) | lo
		if px == 0 {
			continue
		}
		return px, u.attribute & 0x03, u.attribute&0x20 == 0, u.isSprite0
	}
	return 0, 0, false, false
}

// watchA12 tracks the pattern-table address line (A12) for mappers (MMC3)
// that clock a scanline counter from it: a rise only counts as an edge
// once the line has been continuously low for at least a12FilterLen PPU
// cycles, matching the real PPU's RC-filtered A12 trace.
func (p *PPU) watchA12(dot int) {
	fetchingSprites := dot >= 257 && dot <= 320
	high := false
	if fetchingSprites {
		high = p.ctrl&ctrlSpriteTable != 0
	} else {
		high = p.ctrl&ctrlBGTable != 0
	}

	if !high {
		p.a12Low = true
		if p.a12FilterCt > 0 {
			p.a12FilterCt--
		}
		return
	}

	if p.a12Low && p.a12FilterCt == 0 && p.Cartridge != nil {
		p.Cartridge.NotifyA12Rise()
	}
	p.a12Low = false
	p.a12FilterCt = a12FilterLen
}

func (p *PPU) readCHR(addr uint16) uint8 {
	if p.Cartridge == nil {
		return 0
	}
	return p.Cartridge.ReadCHR(addr & 0x1FFF)
}

// readVRAM resolves a PPU-bus address ($0000-$3FFF) for internal fetches
// (nametable/attribute reads during the render pipeline).
func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.readCHR(addr)
	case addr < 0x3F00:
		return p.nametables[p.mirror(addr)]
	default:
		return p.readPaletteRAM(uint8(addr & 0x1F))
	}
}

func (p *PPU) writeVRAM(addr uint16, value uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.Cartridge != nil {
			p.Cartridge.WriteCHR(addr, value)
		}
	case addr < 0x3F00:
		p.nametables[p.mirror(addr)] = value
	default:
		p.writePaletteRAM(uint8(addr&0x1F), value)
	}
}

func (p *PPU) mirror(addr uint16) uint16 {
	offset := (addr - 0x2000) % 0x1000
	table := offset / 0x400
	cell := offset % 0x400

	m := MirrorHorizontal
	if p.Cartridge != nil {
		m = p.Cartridge.Mirroring()
	}

	switch m {
	case MirrorVertical:
		return (table%2)*0x400 + cell
	case MirrorSingleScreenLo:
		return cell
	case MirrorSingleScreenHi:
		return 0x400 + cell
	case MirrorFourScreen:
		return offset % 0x800
	default: // horizontal
		return (table/2)*0x400 + cell
	}
}

// readPaletteRAM and writePaletteRAM apply the $3F10/$3F14/$3F18/$3F1C
// mirror onto $3F00/$3F04/$3F08/$3F0C, the one quirk of palette RAM every
// emulator has to special-case.
// PaletteIndexOob is a typed, fatal panic for a palette RAM index past
// the 32-entry table after mirroring — every caller is expected to mask
// its address to 5 bits first, so reaching this means a caller forgot.
type PaletteIndexOob struct{ Index uint8 }

func (e PaletteIndexOob) Error() string {
	return fmt.Sprintf("ppu: palette index %d out of bounds", e.Index)
}

func (p *PPU) readPaletteRAM(addr uint8) uint8 {
	i := paletteMirror(addr)
	if i >= uint8(len(p.palRAM)) {
		panic(PaletteIndexOob{Index: i})
	}
	return p.palRAM[i]
}

func (p *PPU) writePaletteRAM(addr uint8, value uint8) {
	i := paletteMirror(addr)
	if i >= uint8(len(p.palRAM)) {
		panic(PaletteIndexOob{Index: i})
	}
	p.palRAM[i] = value & 0x3F
}

func paletteMirror(addr uint8) uint8 {
	addr &= 0x1F
	if addr >= 0x10 && addr%4 == 0 {
		addr -= 0x10
	}
	return addr
}

// InvalidRegister is a typed, fatal panic for a register index outside
// $2000-$2007 — the bus is responsible for folding the full $2000-$3FFF
// mirror down to that window before calling in, so seeing anything else
// here means the bus wiring itself is broken.
type InvalidRegister struct{ Reg uint16 }

func (e InvalidRegister) Error() string {
	return fmt.Sprintf("ppu: invalid register $%04X", e.Reg)
}

func registerIndex(reg uint16) uint16 {
	if reg < 0x2000 || reg > 0x2007 {
		panic(InvalidRegister{Reg: reg})
	}
	return reg - 0x2000
}

// ReadRegister services a CPU read of $2000-$2007 (mirrored every 8 bytes
// across $2000-$3FFF by the bus).
func (p *PPU) ReadRegister(reg uint16) uint8 {
	switch registerIndex(reg) {
	case 2:
		v := p.status
		p.status &^= statusVBlank
		p.w = false
		return v
	case 4:
		return p.OAM[p.oamAddr]
	case 7:
		var value uint8
		if p.v >= 0x3F00 {
			value = p.readVRAM(p.v)
			p.readBuffer = p.readVRAM(p.v - 0x1000)
		} else {
			value = p.readBuffer
			p.readBuffer = p.readVRAM(p.v)
		}
		p.advanceVRAMAddr()
		return value
	default:
		return 0
	}
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(reg uint16, value uint8) {
	switch registerIndex(reg) {
	case 0:
		if value&ctrlNMIEnable != 0 && p.ctrl&ctrlNMIEnable == 0 && p.status&statusVBlank != 0 {
			p.NMIPending = true
		}
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | (uint16(value&ctrlNametable) << 10)
	case 1:
		p.mask = value
	case 3:
		p.oamAddr = value
	case 4:
		p.OAM[p.oamAddr] = value
		p.oamAddr++
	case 5:
		if !p.w {
			p.t = (p.t & 0xFFE0) | uint16(value>>3)
			p.x = value & 0x07
		} else {
			p.t = (p.t & 0x8FFF) | (uint16(value&0x07) << 12)
			p.t = (p.t & 0xFC1F) | (uint16(value&0xF8) << 2)
		}
		p.w = !p.w
	case 6:
		if !p.w {
			p.t = (p.t & 0x80FF) | (uint16(value&0x3F) << 8)
		} else {
			p.t = (p.t & 0xFF00) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7:
		p.writeVRAM(p.v, value)
		p.advanceVRAMAddr()
	}
}

func (p *PPU) advanceVRAMAddr() {
	if p.ctrl&ctrlIncrement != 0 {
		p.v += 32
	} else {
		p.v++
	}
}

// WriteOAMByte is used by $4014 OAM DMA on the bus to stream 256 bytes in
// starting at the current OAMADDR.
func (p *PPU) WriteOAMByte(value uint8) {
	p.OAM[p.oamAddr] = value
	p.oamAddr++
}

// TakeNMI reports and clears a pending NMI request, called at each
// instruction boundary by the console scheduler.
func (p *PPU) TakeNMI() bool {
	if p.NMIPending {
		p.NMIPending = false
		return true
	}
	return false
}

// Framebuffer returns the current frame as packed ARGB8888 pixels.
func (p *PPU) Framebuffer() []uint32 {
	return p.FrameBuffer[:]
}

// ConsumeFrame reports and clears the frame-ready latch StepFrame polls.
func (p *PPU) ConsumeFrame() bool {
	if p.FrameReady {
		p.FrameReady = false
		return true
	}
	return false
}

// State is the gob-encodable rendering state a save state restores. The
// in-flight background/sprite shift pipeline (bgPatternLo and friends)
// is deliberately not captured: it only holds a handful of dots' worth
// of already-fetched tile data, so a state loaded mid-scanline redraws
// that one scanline with a brief, inaudible-to-the-eye glitch rather
// than carrying the extra complexity of snapshotting it.
type State struct {
	Ctrl, Mask, Status uint8
	OAMAddr            uint8
	OAM                [256]uint8
	SecOAM             [32]uint8
	V, T               uint16
	X                  uint8
	W                  bool
	ReadBuffer         uint8
	Nametables         [0x800]uint8
	PalRAM             [32]uint8
	Dot, Scanline      int
	Frame              uint64
	OddFrame           bool
	A12Low             bool
	A12FilterCt        int
	NMIPending         bool
	FrameReady         bool
	FrameBuffer        [screenWidth * screenHeight]uint32
}

// Snapshot captures everything needed to resume rendering at the next
// scanline boundary.
func (p *PPU) Snapshot() State {
	return State{
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status,
		OAMAddr: p.oamAddr, OAM: p.OAM, SecOAM: p.secOAM,
		V: p.v, T: p.t, X: p.x, W: p.w,
		ReadBuffer:  p.readBuffer,
		Nametables:  p.nametables,
		PalRAM:      p.palRAM,
		Dot:         p.Dot,
		Scanline:    p.Scanline,
		Frame:       p.Frame,
		OddFrame:    p.oddFrame,
		A12Low:      p.a12Low,
		A12FilterCt: p.a12FilterCt,
		NMIPending:  p.NMIPending,
		FrameReady:  p.FrameReady,
		FrameBuffer: p.FrameBuffer,
	}
}

// Restore rebuilds rendering state from a previously captured State. The
// shift-register pipeline left uncaptured by Snapshot starts clear.
func (p *PPU) Restore(s State) {
	p.ctrl, p.mask, p.status = s.Ctrl, s.Mask, s.Status
	p.oamAddr, p.OAM, p.secOAM = s.OAMAddr, s.OAM, s.SecOAM
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.readBuffer = s.ReadBuffer
	p.nametables = s.Nametables
	p.palRAM = s.PalRAM
	p.Dot, p.Scanline, p.Frame = s.Dot, s.Scanline, s.Frame
	p.oddFrame = s.OddFrame
	p.a12Low, p.a12FilterCt = s.A12Low, s.A12FilterCt
	p.NMIPending, p.FrameReady = s.NMIPending, s.FrameReady
	p.FrameBuffer = s.FrameBuffer
	p.secLen = 0
	p.bgPatternLo, p.bgPatternHi = bitutil.ShiftReg16{}, bitutil.ShiftReg16{}
	p.bgAttrLo, p.bgAttrHi = bitutil.ShiftReg16{}, bitutil.ShiftReg16{}
}
