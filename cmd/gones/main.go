package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/shionji/nescore/pkg/bus"
	"github.com/shionji/nescore/pkg/cartridge"
	"github.com/shionji/nescore/pkg/console"
	"github.com/shionji/nescore/pkg/cpu"
	"github.com/shionji/nescore/pkg/gui"
	"github.com/shionji/nescore/pkg/logging"
	"github.com/shionji/nescore/pkg/ppu"
)

func main() {
	var (
		logLevel   = flag.String("log-level", "info", "Log level (off, error, warn, info, debug, trace)")
		logFile    = flag.String("log-file", "", "Log file path (empty for stdout)")
		cpuLog     = flag.Bool("cpu-log", false, "Enable CPU instruction logging")
		ppuLog     = flag.Bool("ppu-log", false, "Enable PPU logging")
		apuLog     = flag.Bool("apu-log", false, "Enable APU logging")
		mapperLog  = flag.Bool("mapper-log", false, "Enable mapper logging")
		headless   = flag.Bool("headless", false, "Run in headless mode for testing")
		testFrames = flag.Int("test-frames", 600, "Number of frames to run in headless mode")
	)

	flag.Usage = func() {
		fmt.Printf("Usage: %s [options] <rom_file>\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("\nControls:")
		fmt.Println("  Z - A button")
		fmt.Println("  X - B button")
		fmt.Println("  A - Select")
		fmt.Println("  S - Start")
		fmt.Println("  Arrow keys - D-pad")
		fmt.Println("  F5/F7 - save/load state, 1-8 selects the slot")
		fmt.Println("  ESC - Quit")
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	romFile := flag.Arg(0)

	var (
		nesLog *logging.Logger
		err    error
	)
	if *logFile != "" {
		nesLog, err = logging.NewFile(logging.ParseLevel(*logLevel), *logFile)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer nesLog.Close()
	} else {
		nesLog = logging.New(logging.ParseLevel(*logLevel))
	}
	if *cpuLog {
		nesLog.Enable(logging.SubsystemCPU)
	}
	if *ppuLog {
		nesLog.Enable(logging.SubsystemPPU)
	}
	if *apuLog {
		nesLog.Enable(logging.SubsystemAPU)
	}
	if *mapperLog {
		nesLog.Enable(logging.SubsystemMapper)
	}

	nesLog.Info("nescore starting")
	nesLog.Info("log level: %s", *logLevel)

	// Every core panic that reaches here is one of the four typed,
	// fatal invariant violations (cpu.UnimplementedOpcode,
	// bus.BusUnreachable, ppu.InvalidRegister, ppu.PaletteIndexOob).
	// The core itself never recovers its own panics; this is the only
	// place that does.
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case cpu.UnimplementedOpcode, bus.BusUnreachable, ppu.InvalidRegister, ppu.PaletteIndexOob:
				nesLog.Error("fatal: %v", r)
				os.Exit(1)
			default:
				panic(r)
			}
		}
	}()

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("failed to open ROM file: %v", err)
	}
	cart, err := cartridge.Load(file)
	file.Close()
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	nesLog.Info("loaded ROM: %s", filepath.Base(romFile))
	nesLog.Info("mapper: %d", cart.Header.MapperNumber())
	nesLog.Info("PRG ROM: %d KB", len(cart.PRGROM)/1024)
	if len(cart.CHRROM) > 0 {
		nesLog.Info("CHR ROM: %d KB", len(cart.CHRROM)/1024)
	} else {
		nesLog.Info("CHR RAM: %d KB", len(cart.CHRRAM)/1024)
	}

	nes := console.New(nesLog)
	nes.LoadCartridge(cart)

	if cart.Battery {
		savPath := romFile[:len(romFile)-len(filepath.Ext(romFile))] + ".sav"
		if savFile, err := os.Open(savPath); err == nil {
			err := cart.LoadRAM(savFile)
			savFile.Close()
			if err != nil {
				nesLog.Warn("battery save load failed: %v", err)
			}
		}
		defer func() {
			savFile, err := os.Create(savPath)
			if err != nil {
				nesLog.Warn("battery save failed: %v", err)
				return
			}
			defer savFile.Close()
			if err := cart.SaveRAM(savFile); err != nil {
				nesLog.Warn("battery save failed: %v", err)
			}
		}()
	}

	if *headless {
		runHeadless(nes, *testFrames, nesLog)
		return
	}

	statPath := romFile[:len(romFile)-len(filepath.Ext(romFile))] + ".stat"
	nesLog.Info("creating window...")
	g, err := gui.New(nes, statPath, nesLog)
	if err != nil {
		log.Fatalf("failed to create GUI: %v", err)
	}
	defer g.Destroy()

	nesLog.Info("starting emulator")
	g.Run()
	nesLog.Info("emulator stopped")
}

func runHeadless(nes *console.Console, maxFrames int, nesLog *logging.Logger) {
	nesLog.Info("running headless for %d frames", maxFrames)
	start := time.Now()
	for frame := 0; frame < maxFrames; frame++ {
		nes.StepFrame()
	}
	nesLog.Info("headless run completed in %v", time.Since(start))
}
