package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mario-andreschak/mcp-gameboy/internal/engine/enginetest"
	"github.com/mario-andreschak/mcp-gameboy/internal/protocol"
	"github.com/mario-andreschak/mcp-gameboy/internal/roms"
	"github.com/mario-andreschak/mcp-gameboy/internal/screen"
	"github.com/mario-andreschak/mcp-gameboy/internal/service"
	"github.com/mario-andreschak/mcp-gameboy/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	eng := &enginetest.Engine{}
	svc := service.New(eng, screen.NewPNG(1))
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "game.gb"), []byte{0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	srv := New(protocol.New(svc, roms.NewDirectory(dir), nil), session.NewRegistry(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, dir
}

// stream opens the event stream and returns a reader over it plus the
// session id from the handshake.
func stream(t *testing.T, ts *httptest.Server) (*bufio.Reader, string, func()) {
	t.Helper()

	resp, err := http.Get(ts.URL + "/sse")
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	endpoint := readEvent(t, r, "endpoint")
	id := endpoint[strings.LastIndex(endpoint, "=")+1:]
	if id == "" {
		t.Fatal("expected a session id in the handshake")
	}
	return r, id, func() { resp.Body.Close() }
}

// readEvent reads one complete SSE event and returns its data line,
// asserting the event name.
func readEvent(t *testing.T, r *bufio.Reader, want string) string {
	t.Helper()

	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended while waiting for %q: %v", want, err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if event != want {
				t.Fatalf("expected event %q, got %q", want, event)
			}
			return data
		}
	}
}

func post(t *testing.T, ts *httptest.Server, id, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/messages?sessionId="+id, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStreamHandshake(t *testing.T) {
	ts, _ := newTestServer(t)
	_, id, done := stream(t, ts)
	defer done()

	if len(id) != 32 {
		t.Errorf("expected a 32 character session id, got %q", id)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	r, id, done := stream(t, ts)
	defer done()

	resp := post(t, ts, id, `{"tool":"load_rom","params":{"path":"game.gb"}}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var envelope protocol.Response
	if err := json.Unmarshal([]byte(readEvent(t, r, "message")), &envelope); err != nil {
		t.Fatal(err)
	}
	if len(envelope.Content) != 1 || envelope.Content[0].Type != "image" {
		t.Errorf("expected an image response, got %+v", envelope)
	}
}

func TestErrorsDeliveredOnStream(t *testing.T) {
	ts, _ := newTestServer(t)
	r, id, done := stream(t, ts)
	defer done()

	post(t, ts, id, `{"tool":"press_a"}`)

	var perr protocol.Error
	if err := json.Unmarshal([]byte(readEvent(t, r, "message")), &perr); err != nil {
		t.Fatal(err)
	}
	if perr.Status != http.StatusConflict {
		t.Errorf("expected a 409 error, got %d", perr.Status)
	}
}

func TestUnknownSession(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := post(t, ts, "deadbeef", `{"tool":"is_rom_loaded"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	var perr protocol.Error
	if err := json.NewDecoder(resp.Body).Decode(&perr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(perr.Message, "session not found") {
		t.Errorf("expected a session not found error, got %q", perr.Message)
	}
}

func TestIndependentSessions(t *testing.T) {
	ts, _ := newTestServer(t)

	rA, idA, doneA := stream(t, ts)
	rB, idB, doneB := stream(t, ts)
	defer doneB()

	if idA == idB {
		t.Fatalf("expected distinct session ids, got %s twice", idA)
	}

	// close A and give the server a moment to deregister it
	doneA()
	deadline := time.Now().Add(time.Second)
	for {
		resp := post(t, ts, idA, `{"tool":"is_rom_loaded"}`)
		if resp.StatusCode == http.StatusNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected session A to be deregistered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// B still dispatches
	resp := post(t, ts, idB, `{"tool":"is_rom_loaded"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 for session B, got %d", resp.StatusCode)
	}
	if data := readEvent(t, rB, "message"); !strings.Contains(data, "loaded") {
		t.Errorf("expected a status response, got %s", data)
	}

	_ = rA
}
