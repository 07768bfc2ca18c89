package roms

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newZip(t *testing.T, w io.Writer, name, contents string) {
	t.Helper()
	zw := zip.NewWriter(w)
	f, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(contents)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestList(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		d := NewDirectory(t.TempDir())
		list, err := d.List()
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected an empty list, got %v", list)
		}
	})
	t.Run("missing directory", func(t *testing.T) {
		d := NewDirectory(filepath.Join(t.TempDir(), "nowhere"))
		list, err := d.List()
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected an empty list, got %v", list)
		}
	})
	t.Run("filters and sorts", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"z.gb", "a.gbc", "notes.txt", "save.sav"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte{0x00}, 0o644); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.Mkdir(filepath.Join(dir, "sub.gb"), 0o755); err != nil {
			t.Fatal(err)
		}

		list, err := NewDirectory(dir).List()
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 || list[0].Name != "a.gbc" || list[1].Name != "z.gb" {
			t.Errorf("expected [a.gbc z.gb], got %v", list)
		}
	})
}

func TestResolve(t *testing.T) {
	d := NewDirectory("/tmp/roms")

	t.Run("bare name", func(t *testing.T) {
		path, err := d.Resolve("game.gb")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if path != filepath.Join("/tmp/roms", "game.gb") {
			t.Errorf("expected the path inside the directory, got %s", path)
		}
	})
	for _, name := range []string{"", "../etc/passwd", "a/b.gb"} {
		t.Run("rejects "+name, func(t *testing.T) {
			if _, err := d.Resolve(name); !errors.Is(err, ErrBadName) {
				t.Errorf("expected ErrBadName for %q, got %v", name, err)
			}
		})
	}
}

func TestSave(t *testing.T) {
	t.Run("stores and lists", func(t *testing.T) {
		d := NewDirectory(filepath.Join(t.TempDir(), "roms"))
		path, err := d.Save("game.gb", strings.NewReader("cartridge"))
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "cartridge" {
			t.Errorf("expected the uploaded bytes, got %q", data)
		}

		list, err := d.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 || list[0].Name != "game.gb" {
			t.Errorf("expected [game.gb], got %v", list)
		}
	})
	for _, name := range []string{"", "../evil.gb", "game.exe"} {
		t.Run("rejects "+name, func(t *testing.T) {
			d := NewDirectory(t.TempDir())
			if _, err := d.Save(name, strings.NewReader("x")); !errors.Is(err, ErrBadName) {
				t.Errorf("expected ErrBadName for %q, got %v", name, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("plain rom", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "game.gb")
		if err := os.WriteFile(path, []byte{0xCE, 0xED}, 0o644); err != nil {
			t.Fatal(err)
		}
		data, err := LoadFile(path)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !bytes.Equal(data, []byte{0xCE, 0xED}) {
			t.Errorf("expected the raw bytes back, got %v", data)
		}
	})
	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte("cartridge"))
		zw.Close()

		path := filepath.Join(t.TempDir(), "game.gb.gz")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		data, err := LoadFile(path)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if string(data) != "cartridge" {
			t.Errorf("expected decompressed bytes, got %q", data)
		}
	})
	t.Run("zip extracts first file", func(t *testing.T) {
		var buf bytes.Buffer
		newZip(t, &buf, "game.gb", "cartridge")

		path := filepath.Join(t.TempDir(), "game.zip")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		data, err := LoadFile(path)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if string(data) != "cartridge" {
			t.Errorf("expected the archived bytes, got %q", data)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.gb")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
