// Package service owns the single emulator instance and translates
// high-level intents into sequences of single-frame engine steps. Every
// operation holds the service lock for its full frame sequence, so
// concurrently dispatched commands queue rather than interleave steps,
// and every mutating operation returns a snapshot taken after its last
// step.
package service

import (
	"fmt"
	"sync"

	"github.com/mario-andreschak/mcp-gameboy/internal/engine"
	"github.com/mario-andreschak/mcp-gameboy/internal/roms"
	"github.com/mario-andreschak/mcp-gameboy/internal/screen"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

// WarmupFrames is the number of frames advanced immediately after a
// load. Cores render nothing meaningful at frame 0; one second of
// emulated time reliably reaches the first real picture.
const WarmupFrames = 60

// FileLoader reads a cartridge image from a path.
type FileLoader func(path string) ([]byte, error)

// Service is the emulator control service. Construct exactly one per
// engine; the zero value is not usable.
type Service struct {
	mu sync.Mutex

	engine engine.Engine
	codec  screen.Codec

	loaded  bool
	romPath string

	loadFile FileLoader
	log.Logger
}

// Opt configures a Service.
type Opt func(s *Service)

// WithLogger sets the service logger.
func WithLogger(l log.Logger) Opt {
	return func(s *Service) {
		s.Logger = l
	}
}

// WithFileLoader replaces the default archive-aware file loader.
func WithFileLoader(f FileLoader) Opt {
	return func(s *Service) {
		s.loadFile = f
	}
}

// New returns a Service driving the given engine and codec.
func New(e engine.Engine, c screen.Codec, opts ...Opt) *Service {
	s := &Service{
		engine:   e,
		codec:    c,
		loadFile: roms.LoadFile,
		Logger:   log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the cartridge image at path, resets the engine with it and
// advances the warm-up frames. On success the service records the path
// as the loaded ROM and returns a snapshot of the first meaningful
// frame.
func (s *Service) Load(path string) (screen.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rom, err := s.loadFile(path)
	if err != nil {
		return screen.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err := s.engine.Load(rom); err != nil {
		return screen.Snapshot{}, fmt.Errorf("engine load: %w", err)
	}

	s.loaded = true
	s.romPath = path
	s.Infof("loaded rom %s (%d bytes)", path, len(rom))

	if err := s.step(WarmupFrames, 0); err != nil {
		return screen.Snapshot{}, err
	}
	return s.snapshot()
}

// Press holds the given button for the first frame of the sequence,
// then free-runs the remaining holdFrames-1 frames with no input. The
// input is injected once per call, not re-asserted every held frame.
func (s *Service) Press(btn engine.Button, holdFrames int) (screen.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return screen.Snapshot{}, ErrNotLoaded
	}
	if holdFrames < 1 {
		return screen.Snapshot{}, ErrInvalidFrames
	}

	s.Debugf("press %s for %d frames", engine.ButtonName(btn), holdFrames)
	if err := s.step(1, engine.Mask(btn)); err != nil {
		return screen.Snapshot{}, err
	}
	if err := s.step(holdFrames-1, 0); err != nil {
		return screen.Snapshot{}, err
	}
	return s.snapshot()
}

// WaitFrames advances exactly n frames with no input.
func (s *Service) WaitFrames(n int) (screen.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return screen.Snapshot{}, ErrNotLoaded
	}
	if n <= 0 {
		return screen.Snapshot{}, ErrInvalidFrames
	}

	s.Debugf("waiting %d frames", n)
	if err := s.step(n, 0); err != nil {
		return screen.Snapshot{}, err
	}
	return s.snapshot()
}

// Snapshot returns the current screen without advancing any frame.
// This is the only read-only operation; two consecutive calls with no
// intervening mutation return identical bytes.
func (s *Service) Snapshot() (screen.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return screen.Snapshot{}, ErrNotLoaded
	}
	return s.snapshot()
}

// AdvanceAndSnapshot advances exactly one frame and returns the
// snapshot. Live-view consumers poll this for continuous motion.
func (s *Service) AdvanceAndSnapshot() (screen.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return screen.Snapshot{}, ErrNotLoaded
	}
	if err := s.step(1, 0); err != nil {
		return screen.Snapshot{}, err
	}
	return s.snapshot()
}

// Status reports whether a ROM is loaded and its path.
func (s *Service) Status() (loaded bool, romPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded, s.romPath
}

// step runs n engine steps with the given input held on every step.
// Callers must hold the lock.
func (s *Service) step(n int, input engine.Buttons) error {
	for i := 0; i < n; i++ {
		if err := s.engine.Step(input); err != nil {
			return fmt.Errorf("engine step: %w", err)
		}
	}
	return nil
}

// snapshot encodes the current screen. Callers must hold the lock.
func (s *Service) snapshot() (screen.Snapshot, error) {
	snap, err := s.codec.Encode(s.engine.Screen())
	if err != nil {
		return screen.Snapshot{}, fmt.Errorf("encode screen: %w", err)
	}
	return snap, nil
}
