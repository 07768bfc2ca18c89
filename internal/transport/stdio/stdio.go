// Package stdio carries the sequential, single-shot command surface:
// one newline-delimited JSON request in, one JSON response out, in
// strict arrival order over a single logical channel. No session
// concept exists in this mode.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mario-andreschak/mcp-gameboy/internal/protocol"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

// maxLine bounds a single request line.
const maxLine = 1 << 20

// Server reads commands from in and answers them on out.
type Server struct {
	dispatcher *protocol.Dispatcher
	in         io.Reader
	out        io.Writer
	log        log.Logger
}

// New returns a Server over the given streams.
func New(d *protocol.Dispatcher, in io.Reader, out io.Writer, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Server{dispatcher: d, in: in, out: out, log: logger}
}

// Run processes commands until the input stream ends, the context is
// cancelled, or the input errors. Response N is always for request N.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	enc := json.NewEncoder(s.out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(protocol.Errorf(http.StatusBadRequest, "malformed request: %s", err)); err != nil {
				return err
			}
			continue
		}

		resp, perr := s.dispatcher.Dispatch(req)
		var out interface{} = resp
		if perr != nil {
			out = perr
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return scanner.Err()
}
