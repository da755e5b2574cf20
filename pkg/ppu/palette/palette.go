// Package palette holds the NES's fixed 64-color master palette and the
// eight emphasis-scaled variants of it selected by PPUMASK bits 5-7.
package palette

import "image/color"

// master is the 64-entry NES master palette, grounded on the teacher
// repository's pkg/ppu/palette.go table (itself the commonly cited NESdev
// "2C02" palette).
var master = [64]color.RGBA{
	{0x80, 0x80, 0x80, 0xFF}, {0x00, 0x3D, 0xA6, 0xFF}, {0x00, 0x12, 0xB0, 0xFF}, {0x44, 0x00, 0x96, 0xFF},
	{0xA1, 0x00, 0x5E, 0xFF}, {0xC7, 0x00, 0x28, 0xFF}, {0xBA, 0x06, 0x00, 0xFF}, {0x8C, 0x17, 0x00, 0xFF},
	{0x5C, 0x2F, 0x00, 0xFF}, {0x10, 0x45, 0x00, 0xFF}, {0x05, 0x4A, 0x00, 0xFF}, {0x00, 0x47, 0x2E, 0xFF},
	{0x00, 0x41, 0x66, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x05, 0x05, 0x05, 0xFF}, {0x05, 0x05, 0x05, 0xFF},

	{0xC7, 0xC7, 0xC7, 0xFF}, {0x00, 0x77, 0xFF, 0xFF}, {0x21, 0x55, 0xFF, 0xFF}, {0x82, 0x37, 0xFA, 0xFF},
	{0xEB, 0x2F, 0xB5, 0xFF}, {0xFF, 0x29, 0x50, 0xFF}, {0xFF, 0x22, 0x00, 0xFF}, {0xD6, 0x32, 0x00, 0xFF},
	{0xC4, 0x62, 0x00, 0xFF}, {0x35, 0x80, 0x00, 0xFF}, {0x05, 0x8F, 0x00, 0xFF}, {0x00, 0x8A, 0x55, 0xFF},
	{0x00, 0x99, 0xCC, 0xFF}, {0x21, 0x21, 0x21, 0xFF}, {0x09, 0x09, 0x09, 0xFF}, {0x09, 0x09, 0x09, 0xFF},

	{0xFF, 0xFF, 0xFF, 0xFF}, {0x0F, 0xD7, 0xFF, 0xFF}, {0x69, 0xA2, 0xFF, 0xFF}, {0xD4, 0x80, 0xFF, 0xFF},
	{0xFF, 0x45, 0xF3, 0xFF}, {0xFF, 0x61, 0x8B, 0xFF}, {0xFF, 0x88, 0x33, 0xFF}, {0xFF, 0x9C, 0x12, 0xFF},
	{0xFA, 0xBC, 0x20, 0xFF}, {0x9F, 0xE3, 0x0E, 0xFF}, {0x2B, 0xF0, 0x35, 0xFF}, {0x0C, 0xF0, 0xA4, 0xFF},
	{0x05, 0xFB, 0xFF, 0xFF}, {0x5E, 0x5E, 0x5E, 0xFF}, {0x0D, 0x0D, 0x0D, 0xFF}, {0x0D, 0x0D, 0x0D, 0xFF},

	{0xFF, 0xFF, 0xFF, 0xFF}, {0xA6, 0xFC, 0xFF, 0xFF}, {0xB3, 0xEC, 0xFF, 0xFF}, {0xDA, 0xAB, 0xEB, 0xFF},
	{0xFF, 0xA8, 0xF9, 0xFF}, {0xFF, 0xAB, 0xB3, 0xFF}, {0xFF, 0xD2, 0xB0, 0xFF}, {0xFF, 0xEF, 0xA6, 0xFF},
	{0xFF, 0xF7, 0x9C, 0xFF}, {0xD7, 0xFF, 0xB3, 0xFF}, {0xC6, 0xFF, 0xDE, 0xFF}, {0xC4, 0xFF, 0xF6, 0xFF},
	{0xC4, 0xF0, 0xFF, 0xFF}, {0xCC, 0xCC, 0xCC, 0xFF}, {0x3C, 0x3C, 0x3C, 0xFF}, {0x3C, 0x3C, 0x3C, 0xFF},
}

// emphasisVariants[e][i] is master color i scaled for emphasis bitmask e
// (bit0=red, bit1=green, bit2=blue emphasized), precomputed once at
// package init so hot-path pixel emission never touches floating point.
var emphasisVariants [8][64]color.RGBA

func init() {
	for e := 0; e < 8; e++ {
		redOn := e&0x1 != 0
		greenOn := e&0x2 != 0
		blueOn := e&0x4 != 0
		for i, c := range master {
			if e == 0 {
				emphasisVariants[e][i] = c
				continue
			}
			r, g, b := c.R, c.G, c.B
			if !redOn {
				r = scale(r)
			}
			if !greenOn {
				g = scale(g)
			}
			if !blueOn {
				b = scale(b)
			}
			emphasisVariants[e][i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
		}
	}
}

// scale dims a channel to 3/4 strength, matching hardware emphasis
// behavior of darkening non-emphasized channels.
func scale(v uint8) uint8 {
	return uint8((uint16(v) * 3) / 4)
}

// Lookup returns the RGBA color for a 6-bit palette index (0..63) under
// the given 3-bit PPUMASK emphasis field (bits 5-7 shifted down to 0-2).
func Lookup(emphasis uint8, index uint8) color.RGBA {
	return emphasisVariants[emphasis&0x7][index&0x3F]
}
