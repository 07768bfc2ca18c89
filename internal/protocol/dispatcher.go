package protocol

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/mario-andreschak/mcp-gameboy/internal/roms"
	"github.com/mario-andreschak/mcp-gameboy/internal/service"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

// MaxDurationFrames bounds duration_frames at the validation layer.
// There is no mid-command cancellation, so latency is bounded here
// instead of interrupting the engine loop.
const MaxDurationFrames = 10000

// Dispatcher validates commands and invokes the service, wrapping
// every outcome in the uniform envelope. No service error crosses a
// transport boundary raw.
type Dispatcher struct {
	svc *service.Service
	dir *roms.Directory
	log log.Logger
}

// New returns a Dispatcher over the given service and ROM directory.
func New(svc *service.Service, dir *roms.Directory, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Dispatcher{svc: svc, dir: dir, log: logger}
}

// Dispatch resolves, validates and executes one command. Exactly one
// of the return values is non-nil.
func (d *Dispatcher) Dispatch(req Request) (*Response, *Error) {
	cmd, ok := Lookup(req.Tool)
	if !ok {
		return nil, Errorf(http.StatusBadRequest, "unknown command: %q", req.Tool)
	}

	if perr := validate(cmd, req.Params); perr != nil {
		return nil, perr
	}

	if cmd.RequiresLoaded() {
		if loaded, _ := d.svc.Status(); !loaded {
			return nil, Errorf(http.StatusConflict, "no rom loaded")
		}
	}

	d.log.Debugf("dispatching %s", cmd)
	resp, err := d.invoke(cmd, req.Params)
	if err != nil {
		return nil, d.wrapServiceError(err)
	}
	return resp, nil
}

// validate checks the parameters against the command's declared
// schema. Failures name the offending field and never reach the
// service.
func validate(cmd Command, p Params) *Error {
	switch cmd {
	case CommandWaitFrames:
		if p.DurationFrames == nil {
			return Errorf(http.StatusBadRequest, "duration_frames: required")
		}
	case CommandLoadROM:
		if p.Path == "" {
			return Errorf(http.StatusBadRequest, "path: required")
		}
		return nil
	default:
		if _, isPress := cmd.button(); !isPress {
			return nil
		}
	}

	if p.DurationFrames != nil {
		if *p.DurationFrames <= 0 {
			return Errorf(http.StatusBadRequest, "duration_frames: must be positive")
		}
		if *p.DurationFrames > MaxDurationFrames {
			return Errorf(http.StatusBadRequest, "duration_frames: must be at most %d", MaxDurationFrames)
		}
	}
	return nil
}

// invoke runs the validated command against the service. The switch is
// exhaustive over the command enum.
func (d *Dispatcher) invoke(cmd Command, p Params) (*Response, error) {
	frames := 1
	if p.DurationFrames != nil {
		frames = *p.DurationFrames
	}

	if btn, ok := cmd.button(); ok {
		snap, err := d.svc.Press(btn, frames)
		if err != nil {
			return nil, err
		}
		return respond(imageResponse(snap)), nil
	}

	switch cmd {
	case CommandWaitFrames:
		snap, err := d.svc.WaitFrames(frames)
		if err != nil {
			return nil, err
		}
		return respond(imageResponse(snap)), nil

	case CommandLoadROM:
		// bare names resolve against the ROM directory; anything else
		// is taken as a filesystem path
		path := p.Path
		if resolved, rerr := d.dir.Resolve(path); rerr == nil {
			if _, serr := os.Stat(resolved); serr == nil {
				path = resolved
			}
		}
		snap, err := d.svc.Load(path)
		if err != nil {
			return nil, err
		}
		return respond(imageResponse(snap)), nil

	case CommandGetScreen:
		snap, err := d.svc.AdvanceAndSnapshot()
		if err != nil {
			return nil, err
		}
		return respond(imageResponse(snap)), nil

	case CommandIsROMLoaded:
		loaded, path := d.svc.Status()
		text, err := json.Marshal(struct {
			Loaded bool   `json:"loaded"`
			Path   string `json:"path,omitempty"`
		}{loaded, path})
		if err != nil {
			return nil, err
		}
		return respond(textResponse(string(text))), nil

	case CommandListROMs:
		list, err := d.dir.List()
		if err != nil {
			return nil, err
		}
		text, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return respond(textResponse(string(text))), nil

	default:
		// press commands are handled above; nothing else exists
		return nil, Errorf(http.StatusBadRequest, "unknown command")
	}
}

// wrapServiceError maps service failures to HTTP-style classes:
// precondition and argument failures are the caller's fault, anything
// else is an engine or encoding fault.
func (d *Dispatcher) wrapServiceError(err error) *Error {
	switch {
	case errors.Is(err, service.ErrNotLoaded):
		return Errorf(http.StatusConflict, "no rom loaded")
	case errors.Is(err, service.ErrNotFound):
		return Errorf(http.StatusNotFound, "%s", err)
	case errors.Is(err, service.ErrInvalidFrames):
		return Errorf(http.StatusBadRequest, "%s", err)
	default:
		d.log.Errorf("command failed: %s", err)
		return Errorf(http.StatusInternalServerError, "%s", err)
	}
}

func respond(r Response) *Response {
	return &r
}
