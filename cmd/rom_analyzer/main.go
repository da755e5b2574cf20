// Command rom_analyzer dumps an iNES header and derived mapper/memory
// layout for a ROM file, without running it.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shionji/nescore/pkg/cartridge"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: rom_analyzer <rom_file>")
		os.Exit(1)
	}

	romFile := os.Args[1]

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("failed to open ROM file: %v", err)
	}
	defer file.Close()

	cart, err := cartridge.Load(file)
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	h := cart.Header
	fmt.Printf("=== ROM Analysis: %s ===\n\n", romFile)

	fmt.Println("=== Header ===")
	fmt.Printf("Magic: %q\n", h.Magic[:])
	fmt.Printf("PRG ROM: %d x 16KB units\n", h.PRGROMSize)
	fmt.Printf("CHR ROM: %d x 8KB units\n", h.CHRROMSize)
	fmt.Printf("Flags6:  0x%02X\n", h.Flags6)
	fmt.Printf("Flags7:  0x%02X\n", h.Flags7)
	fmt.Printf("Flags8:  0x%02X\n", h.Flags8)
	fmt.Printf("Flags9:  0x%02X\n", h.Flags9)
	fmt.Printf("Flags10: 0x%02X\n\n", h.Flags10)

	fmt.Println("=== Mapper ===")
	fmt.Printf("Number: %d\n\n", h.MapperNumber())

	fmt.Println("=== ROM Configuration ===")
	fmt.Printf("Battery backed: %v\n", h.Flags6&0x02 != 0)
	fmt.Printf("Trainer present: %v\n", h.Flags6&0x04 != 0)
	switch {
	case h.Flags6&0x08 != 0:
		fmt.Println("Mirroring: four-screen")
	case h.Flags6&0x01 != 0:
		fmt.Println("Mirroring: vertical")
	default:
		fmt.Println("Mirroring: horizontal")
	}
	fmt.Println()

	fmt.Println("=== Memory Sizes ===")
	fmt.Printf("PRG ROM: %d bytes\n", len(cart.PRGROM))
	if len(cart.CHRROM) > 0 {
		fmt.Printf("CHR ROM: %d bytes\n", len(cart.CHRROM))
	}
	if len(cart.CHRRAM) > 0 {
		fmt.Printf("CHR RAM: %d bytes\n", len(cart.CHRRAM))
	}
	if len(cart.PRGRAM) > 0 {
		fmt.Printf("PRG RAM: %d bytes\n", len(cart.PRGRAM))
	}

	fmt.Println("\n=== Raw Header Dump ===")
	raw := []uint8{
		h.Magic[0], h.Magic[1], h.Magic[2], h.Magic[3],
		h.PRGROMSize, h.CHRROMSize, h.Flags6, h.Flags7,
		h.Flags8, h.Flags9, h.Flags10,
	}
	for i, b := range raw {
		fmt.Printf("%02X ", b)
		if (i+1)%16 == 0 {
			fmt.Println()
		}
	}
	fmt.Println()
}
