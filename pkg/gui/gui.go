// Package gui is the SDL2 frontend: a window and texture the console's
// framebuffer blits into every frame, an audio device fed from the
// APU's sample queue, keyboard-to-controller mapping, and save-state
// hotkeys over pkg/savestate.
//
// Emulation runs on its own goroutine, paced to the NTSC frame rate
// independently of how fast SDL can present; the render/event loop
// stays on the thread SDL was initialized on and only ever touches the
// console through a mutex-guarded framebuffer/audio handoff.
package gui

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/shionji/nescore/pkg/console"
	"github.com/shionji/nescore/pkg/controller"
	"github.com/shionji/nescore/pkg/logging"
	"github.com/shionji/nescore/pkg/savestate"
)

const (
	screenWidth  = 256
	screenHeight = 240
	windowScale  = 3
	windowTitle  = "nescore"

	audioSampleRate = 44100
	audioBufferSize = 1024

	// NTSC refresh rate: 1789773 Hz CPU clock / 29780.67 cycles/frame.
	targetFPS = 60.0988
)

var frameTime = time.Duration(float64(time.Second) / targetFPS)

// keyMap associates SDL keycodes with controller 1 buttons.
var keyMap = map[sdl.Keycode]controller.Button{
	sdl.K_z:     controller.ButtonA,
	sdl.K_x:     controller.ButtonB,
	sdl.K_a:     controller.ButtonSelect,
	sdl.K_s:     controller.ButtonStart,
	sdl.K_UP:    controller.ButtonUp,
	sdl.K_DOWN:  controller.ButtonDown,
	sdl.K_LEFT:  controller.ButtonLeft,
	sdl.K_RIGHT: controller.ButtonRight,
}

// GUI owns every SDL resource and the console it is driving.
type GUI struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	statPath string
	slot     int
	running  bool
	quit     chan struct{}

	// mu guards every access to console and the two fields below it: the
	// emulation goroutine owns console between frames, the event loop
	// only reaches in under the lock. The save-state slot is not guarded.
	mu       sync.Mutex
	console  *console.Console
	frameBuf [screenWidth * screenHeight]uint32
	audioBuf []float32

	audioDevice sdl.AudioDeviceID
	audioSpec   sdl.AudioSpec

	log *logging.Logger
}

// New creates the window, renderer, texture, and audio device for c,
// and arms save-state hotkeys against statPath.
func New(c *console.Console, statPath string, log *logging.Logger) (*GUI, error) {
	if log == nil {
		log = logging.Discard()
	}
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("gui: sdl init: %w", err)
	}

	window, err := sdl.CreateWindow(windowTitle, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		screenWidth*windowScale, screenHeight*windowScale, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("gui: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("gui: create renderer: %w", err)
	}
	renderer.SetDrawBlendMode(sdl.BLENDMODE_NONE)

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, screenWidth, screenHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("gui: create texture: %w", err)
	}
	texture.SetBlendMode(sdl.BLENDMODE_NONE)

	g := &GUI{
		window:   window,
		renderer: renderer,
		texture:  texture,
		console:  c,
		statPath: statPath,
		running:  true,
		quit:     make(chan struct{}),
		log:      log,
	}

	if err := g.initAudio(); err != nil {
		g.log.Warn("gui: audio disabled: %v", err)
	}

	return g, nil
}

// Destroy tears down every SDL resource Run/New acquired.
func (g *GUI) Destroy() {
	if g.audioDevice != 0 {
		sdl.CloseAudioDevice(g.audioDevice)
	}
	g.texture.Destroy()
	g.renderer.Destroy()
	g.window.Destroy()
	sdl.Quit()
}

// Run starts the emulation goroutine and drives the SDL event/render
// loop on the calling thread until the window is closed or Escape is
// pressed.
func (g *GUI) Run() {
	go g.emulate()

	for g.running {
		g.handleEvents()

		g.mu.Lock()
		fb := g.frameBuf
		samples := g.audioBuf
		g.audioBuf = nil
		g.mu.Unlock()

		g.renderFrame(&fb)
		g.queueAudio(samples)

		// SDL presents as fast as the display allows; this loop just
		// needs to keep up with new frames the emulation goroutine is
		// producing at its own pace, not drive timing itself.
		time.Sleep(time.Millisecond)
	}
	close(g.quit)
}

// emulate steps the console one frame at a time, paced against the
// NTSC frame period, and publishes the resulting framebuffer/audio
// under g.mu for the render loop to pick up.
func (g *GUI) emulate() {
	for {
		select {
		case <-g.quit:
			return
		default:
		}

		start := time.Now()

		g.mu.Lock()
		g.console.StepFrame()
		copy(g.frameBuf[:], g.console.Framebuffer())
		g.audioBuf = append(g.audioBuf, g.console.AudioSamples()...)
		g.mu.Unlock()

		if elapsed := time.Since(start); elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}

func (g *GUI) handleEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			g.running = false
		case *sdl.KeyboardEvent:
			g.handleKeyboard(e)
		}
	}
}

func (g *GUI) handleKeyboard(e *sdl.KeyboardEvent) {
	pressed := e.State == sdl.PRESSED

	if b, ok := keyMap[e.Keysym.Sym]; ok {
		g.mu.Lock()
		g.console.Controller1.SetButton(b, pressed)
		g.mu.Unlock()
		return
	}

	if !pressed {
		return
	}
	switch e.Keysym.Sym {
	case sdl.K_ESCAPE:
		g.running = false
	case sdl.K_F5:
		g.mu.Lock()
		err := savestate.WriteSlot(g.statPath, g.slot, g.console)
		g.mu.Unlock()
		if err != nil {
			g.log.Error("gui: save state failed: %v", err)
		}
	case sdl.K_F7:
		g.mu.Lock()
		err := savestate.LoadSlot(g.statPath, g.slot, g.console)
		g.mu.Unlock()
		if err != nil {
			g.log.Error("gui: load state failed: %v", err)
		}
	default:
		if e.Keysym.Sym >= sdl.K_1 && e.Keysym.Sym <= sdl.K_8 {
			g.slot = int(e.Keysym.Sym - sdl.K_1)
		}
	}
}

func (g *GUI) renderFrame(fb *[screenWidth * screenHeight]uint32) {
	g.texture.Update(nil, unsafe.Pointer(&fb[0]), screenWidth*4)
	g.renderer.Clear()
	g.renderer.Copy(g.texture, nil, nil)
	g.renderer.Present()
}

func (g *GUI) initAudio() error {
	want := &sdl.AudioSpec{
		Freq:     audioSampleRate,
		Format:   sdl.AUDIO_F32LSB,
		Channels: 1,
		Samples:  audioBufferSize,
	}
	var have sdl.AudioSpec
	device, err := sdl.OpenAudioDevice("", false, want, &have, sdl.AUDIO_ALLOW_ANY_CHANGE)
	if err != nil {
		return err
	}
	g.audioDevice = device
	g.audioSpec = have
	sdl.PauseAudioDevice(device, false)
	return nil
}

func (g *GUI) queueAudio(samples []float32) {
	if g.audioDevice == 0 || len(samples) == 0 {
		return
	}

	queued := sdl.GetQueuedAudioSize(g.audioDevice)
	maxQueued := uint32(audioBufferSize * 4 * 2)
	if queued >= maxQueued {
		return
	}

	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		bits := *(*uint32)(unsafe.Pointer(&s))
		data[i*4+0] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}
	sdl.QueueAudio(g.audioDevice, data)
}
