// Package engine defines the capability surface the control service
// expects from a Game Boy emulation core: load a cartridge image,
// advance exactly one frame with a set of buttons held, and expose the
// current visual output. Any conformant core substitutes transparently,
// including the step-counting double in enginetest.
package engine

import "image"

const (
	// ScreenWidth is the width of the Game Boy screen in pixels.
	ScreenWidth = 160
	// ScreenHeight is the height of the Game Boy screen in pixels.
	ScreenHeight = 144
)

// Button represents a physical button on the Game Boy.
type Button = uint8

const (
	// ButtonA is the A button.
	ButtonA Button = iota
	// ButtonB is the B button.
	ButtonB
	// ButtonSelect is the Select button.
	ButtonSelect
	// ButtonStart is the Start button.
	ButtonStart
	// ButtonRight is the Right button.
	ButtonRight
	// ButtonLeft is the Left button.
	ButtonLeft
	// ButtonUp is the Up button.
	ButtonUp
	// ButtonDown is the Down button.
	ButtonDown
)

// Buttons is a bitmask of buttons held for a single frame step. The
// zero value means no input.
type Buttons uint8

// Mask returns a Buttons mask with the given buttons held.
func Mask(buttons ...Button) Buttons {
	var b Buttons
	for _, btn := range buttons {
		b |= 1 << btn
	}
	return b
}

// Held reports whether the given button is held in the mask.
func (b Buttons) Held(btn Button) bool {
	return b&(1<<btn) != 0
}

// Engine is the emulation core behind the control service. Load resets
// the core with a new cartridge image, Step advances it by exactly one
// frame with the given inputs held, and Screen returns the current
// visual output. Step and Screen must only be called after a
// successful Load.
type Engine interface {
	Load(rom []byte) error
	Step(input Buttons) error
	Screen() image.Image
}

// ButtonName returns the lower-case name of a button, as used in
// command names.
func ButtonName(btn Button) string {
	switch btn {
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonSelect:
		return "select"
	case ButtonStart:
		return "start"
	case ButtonRight:
		return "right"
	case ButtonLeft:
		return "left"
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	default:
		return "unknown"
	}
}
