package service

import "errors"

var (
	// ErrNotLoaded is returned when an operation requires a loaded ROM
	// and none is present.
	ErrNotLoaded = errors.New("no rom loaded")
	// ErrNotFound is returned when a load path does not resolve to a
	// readable cartridge image.
	ErrNotFound = errors.New("rom not found")
	// ErrInvalidFrames is returned when a frame count is zero or
	// negative.
	ErrInvalidFrames = errors.New("frame count must be positive")
)
