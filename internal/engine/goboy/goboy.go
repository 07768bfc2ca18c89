// Package goboy binds the Humpheh/goboy emulation core to the engine
// interface. goboy constructs its Gameboy from a file on disk, so Load
// stages the cartridge bytes in a temporary file before handing them
// over.
package goboy

import (
	"errors"
	"image"
	"os"

	"github.com/Humpheh/goboy/pkg/gb"

	"github.com/mario-andreschak/mcp-gameboy/internal/engine"
)

// ErrNoCore is returned when Step or Screen is called before a
// successful Load.
var ErrNoCore = errors.New("no core loaded")

// buttonMap maps engine buttons onto goboy's button constants.
var buttonMap = map[engine.Button]gb.Button{
	engine.ButtonA:      gb.ButtonA,
	engine.ButtonB:      gb.ButtonB,
	engine.ButtonSelect: gb.ButtonSelect,
	engine.ButtonStart:  gb.ButtonStart,
	engine.ButtonRight:  gb.ButtonRight,
	engine.ButtonLeft:   gb.ButtonLeft,
	engine.ButtonUp:     gb.ButtonUp,
	engine.ButtonDown:   gb.ButtonDown,
}

// Engine adapts a goboy Gameboy to the engine interface.
type Engine struct {
	gb *gb.Gameboy
}

// New returns an empty adapter. Load must be called before stepping.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Load(rom []byte) error {
	f, err := os.CreateTemp("", "mcp-gameboy-*.gb")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(rom); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	core, err := gb.NewGameboy(f.Name(), gb.WithCGBEnabled())
	if err != nil {
		return err
	}
	e.gb = core
	return nil
}

func (e *Engine) Step(input engine.Buttons) error {
	if e.gb == nil {
		return ErrNoCore
	}

	for btn, gbBtn := range buttonMap {
		if input.Held(btn) {
			e.gb.PressButton(gbBtn)
		}
	}

	e.gb.Update()

	for btn, gbBtn := range buttonMap {
		if input.Held(btn) {
			e.gb.ReleaseButton(gbBtn)
		}
	}
	return nil
}

func (e *Engine) Screen() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, engine.ScreenWidth, engine.ScreenHeight))
	if e.gb == nil {
		return img
	}
	for x := 0; x < gb.ScreenWidth; x++ {
		for y := 0; y < gb.ScreenHeight; y++ {
			px := e.gb.PreparedData[x][y]
			i := img.PixOffset(x, y)
			img.Pix[i] = px[0]
			img.Pix[i+1] = px[1]
			img.Pix[i+2] = px[2]
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

var _ engine.Engine = (*Engine)(nil)
