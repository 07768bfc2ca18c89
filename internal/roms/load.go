package roms

import (
	"archive/zip"
	"bytes"
	"errors"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

var errEmptyArchive = errors.New("archive contains no files")

// LoadFile loads the given file and performs decompression if
// necessary. Archives yield their first file, which matches the usual
// one-ROM-per-archive packaging.
func LoadFile(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var decoder io.Reader
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz":
		decoder, err = gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	case ".zip":
		r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		if len(r.File) == 0 {
			return nil, errEmptyArchive
		}

		// read the first file in the archive
		decoder, err = r.File[0].Open()
		if err != nil {
			return nil, err
		}
	case ".7z":
		r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		if len(r.File) == 0 {
			return nil, errEmptyArchive
		}

		decoder, err = r.File[0].Open()
		if err != nil {
			return nil, err
		}
	default:
		// .gb/.gbc and anything unrecognised is returned as-is
		return data, nil
	}

	return io.ReadAll(decoder)
}
