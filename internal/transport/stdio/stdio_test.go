package stdio

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mario-andreschak/mcp-gameboy/internal/engine/enginetest"
	"github.com/mario-andreschak/mcp-gameboy/internal/protocol"
	"github.com/mario-andreschak/mcp-gameboy/internal/roms"
	"github.com/mario-andreschak/mcp-gameboy/internal/screen"
	"github.com/mario-andreschak/mcp-gameboy/internal/service"
)

func run(t *testing.T, input string) []string {
	t.Helper()

	eng := &enginetest.Engine{}
	svc := service.New(eng, screen.NewPNG(1))
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "game.gb"), []byte{0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	srv := New(protocol.New(svc, roms.NewDirectory(dir), nil), strings.NewReader(input), &out, nil)
	if err := srv.Run(context.Background()); err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] == "" {
		return nil
	}
	return lines
}

func TestRun(t *testing.T) {
	t.Run("one response per request in order", func(t *testing.T) {
		lines := run(t, strings.Join([]string{
			`{"tool":"load_rom","params":{"path":"game.gb"}}`,
			`{"tool":"press_a","params":{"duration_frames":2}}`,
			`{"tool":"is_rom_loaded"}`,
		}, "\n"))

		if len(lines) != 3 {
			t.Fatalf("expected 3 responses, got %d", len(lines))
		}
		for i, line := range lines[:2] {
			var resp protocol.Response
			if err := json.Unmarshal([]byte(line), &resp); err != nil {
				t.Fatalf("response %d is not valid json: %v", i, err)
			}
			if len(resp.Content) != 1 || resp.Content[0].Type != "image" {
				t.Errorf("expected image content in response %d", i)
			}
		}
		if !strings.Contains(lines[2], `\"loaded\":true`) {
			t.Errorf("expected response 3 to report loaded, got %s", lines[2])
		}
	})
	t.Run("malformed json answered inline", func(t *testing.T) {
		lines := run(t, "{not json}\n"+`{"tool":"is_rom_loaded"}`)
		if len(lines) != 2 {
			t.Fatalf("expected 2 responses, got %d", len(lines))
		}
		if !strings.Contains(lines[0], "malformed request") {
			t.Errorf("expected a malformed request error, got %s", lines[0])
		}
	})
	t.Run("command errors answered inline", func(t *testing.T) {
		lines := run(t, `{"tool":"press_a"}`)
		if len(lines) != 1 {
			t.Fatalf("expected 1 response, got %d", len(lines))
		}
		var perr protocol.Error
		if err := json.Unmarshal([]byte(lines[0]), &perr); err != nil {
			t.Fatal(err)
		}
		if perr.Status != 409 {
			t.Errorf("expected a 409 error, got %d", perr.Status)
		}
	})
	t.Run("blank lines skipped", func(t *testing.T) {
		lines := run(t, "\n\n"+`{"tool":"is_rom_loaded"}`+"\n\n")
		if len(lines) != 1 {
			t.Fatalf("expected 1 response, got %d", len(lines))
		}
	})
}
