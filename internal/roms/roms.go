// Package roms provides the ROM directory collaborator: listing,
// resolving and storing cartridge images, and loading them with
// transparent archive extraction.
package roms

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrBadName is returned when a ROM name tries to escape the
// directory or carries an unrecognised extension.
var ErrBadName = errors.New("invalid rom name")

// romExtensions are the file extensions listed and accepted for
// upload. Archives are extracted on load.
var romExtensions = map[string]bool{
	".gb":  true,
	".gbc": true,
	".zip": true,
	".7z":  true,
	".gz":  true,
}

// ROM describes one entry in the directory.
type ROM struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Directory lists and resolves ROMs under a single filesystem
// directory.
type Directory struct {
	path string
}

func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// Path returns the directory's filesystem path.
func (d *Directory) Path() string {
	return d.path
}

// List returns the ROMs in the directory ordered by name. A missing
// directory lists as empty rather than failing, so a fresh install
// answers list requests before any upload has happened.
func (d *Directory) List() ([]ROM, error) {
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return []ROM{}, nil
	}
	if err != nil {
		return nil, err
	}

	roms := []ROM{}
	for _, entry := range entries {
		if entry.IsDir() || !romExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		roms = append(roms, ROM{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(roms, func(i, j int) bool { return roms[i].Name < roms[j].Name })
	return roms, nil
}

// Resolve maps a bare ROM name to its path inside the directory,
// rejecting names that would escape it.
func (d *Directory) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", ErrBadName
	}
	return filepath.Join(d.path, name), nil
}

// Save stores an uploaded ROM in the directory, creating it if
// necessary, and returns the stored path.
func (d *Directory) Save(name string, r io.Reader) (string, error) {
	if name == "" || name != filepath.Base(name) || !romExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", ErrBadName
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(d.path, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
