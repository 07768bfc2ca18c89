// Package protocol maps named commands onto service operations. The
// command set is a closed enum with an exhaustive dispatch switch, so
// an unhandled command is a compile-time hole rather than a runtime
// surprise, and every transport carries the same envelope contract.
package protocol

import "github.com/mario-andreschak/mcp-gameboy/internal/engine"

// Command identifies one supported command.
type Command int

const (
	// CommandPressUp presses the Up direction for duration_frames.
	CommandPressUp Command = iota
	// CommandPressDown presses the Down direction.
	CommandPressDown
	// CommandPressLeft presses the Left direction.
	CommandPressLeft
	// CommandPressRight presses the Right direction.
	CommandPressRight
	// CommandPressA presses the A button.
	CommandPressA
	// CommandPressB presses the B button.
	CommandPressB
	// CommandPressStart presses the Start button.
	CommandPressStart
	// CommandPressSelect presses the Select button.
	CommandPressSelect
	// CommandWaitFrames advances duration_frames frames with no input.
	CommandWaitFrames
	// CommandLoadROM loads a cartridge image by path.
	CommandLoadROM
	// CommandGetScreen advances one frame and captures the screen.
	CommandGetScreen
	// CommandIsROMLoaded reports the load status and ROM path.
	CommandIsROMLoaded
	// CommandListROMs lists the ROM directory.
	CommandListROMs
)

// commandNames maps wire names onto commands.
var commandNames = map[string]Command{
	"press_up":      CommandPressUp,
	"press_down":    CommandPressDown,
	"press_left":    CommandPressLeft,
	"press_right":   CommandPressRight,
	"press_a":       CommandPressA,
	"press_b":       CommandPressB,
	"press_start":   CommandPressStart,
	"press_select":  CommandPressSelect,
	"wait_frames":   CommandWaitFrames,
	"load_rom":      CommandLoadROM,
	"get_screen":    CommandGetScreen,
	"is_rom_loaded": CommandIsROMLoaded,
	"list_roms":     CommandListROMs,
}

// Lookup resolves a wire name to its command.
func Lookup(name string) (Command, bool) {
	c, ok := commandNames[name]
	return c, ok
}

// Names returns the wire names of all supported commands.
func Names() []string {
	names := make([]string, 0, len(commandNames))
	for name := range commandNames {
		names = append(names, name)
	}
	return names
}

func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "unknown"
}

// RequiresLoaded reports whether the command's precondition is a
// loaded ROM.
func (c Command) RequiresLoaded() bool {
	switch c {
	case CommandLoadROM, CommandIsROMLoaded, CommandListROMs:
		return false
	default:
		return true
	}
}

// button returns the button a press command maps to.
func (c Command) button() (engine.Button, bool) {
	switch c {
	case CommandPressUp:
		return engine.ButtonUp, true
	case CommandPressDown:
		return engine.ButtonDown, true
	case CommandPressLeft:
		return engine.ButtonLeft, true
	case CommandPressRight:
		return engine.ButtonRight, true
	case CommandPressA:
		return engine.ButtonA, true
	case CommandPressB:
		return engine.ButtonB, true
	case CommandPressStart:
		return engine.ButtonStart, true
	case CommandPressSelect:
		return engine.ButtonSelect, true
	default:
		return 0, false
	}
}
