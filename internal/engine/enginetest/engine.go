// Package enginetest provides a deterministic engine double for tests.
// It counts frame steps, records the input mask of every step, and
// renders a screen whose pixels are derived from the step count, so a
// test can assert both "how many frames ran" and "the screen changed
// (or didn't)".
package enginetest

import (
	"image"
	"image/color"

	"github.com/mario-andreschak/mcp-gameboy/internal/engine"
)

// Engine is a step-counting engine double.
type Engine struct {
	// Steps is the number of frames stepped since the last Load.
	Steps int
	// Inputs records the input mask passed to every Step call.
	Inputs []engine.Buttons
	// ROM is the image passed to the last successful Load.
	ROM []byte

	// LoadErr and StepErr, when set, are returned by Load and Step.
	LoadErr error
	StepErr error
}

func (e *Engine) Load(rom []byte) error {
	if e.LoadErr != nil {
		return e.LoadErr
	}
	e.ROM = rom
	e.Steps = 0
	e.Inputs = nil
	return nil
}

func (e *Engine) Step(input engine.Buttons) error {
	if e.StepErr != nil {
		return e.StepErr
	}
	e.Steps++
	e.Inputs = append(e.Inputs, input)
	return nil
}

func (e *Engine) Screen() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, engine.ScreenWidth, engine.ScreenHeight))
	// uniform fill derived from the step count, so the screen is stable
	// between steps and distinct across them
	shade := uint8(e.Steps)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = shade
		img.Pix[i+1] = shade
		img.Pix[i+2] = shade
		img.Pix[i+3] = 0xFF
	}
	return img
}

var _ engine.Engine = (*Engine)(nil)

// Shade returns the expected uniform pixel value after n steps.
func Shade(n int) color.RGBA {
	return color.RGBA{uint8(n), uint8(n), uint8(n), 0xFF}
}
