// Package sse carries the multiplexed command surface. A GET to /sse
// opens a long-lived text/event-stream channel; the handshake's first
// event tells the peer where to POST commands, tagged with the session
// id the server assigned. Responses are pushed back on the session's
// stream, so any number of channels can drive the one emulator
// concurrently, each seeing its own answers in order.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/cors"

	"github.com/mario-andreschak/mcp-gameboy/internal/protocol"
	"github.com/mario-andreschak/mcp-gameboy/internal/session"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

// Server serves the SSE transport on /sse and /messages.
type Server struct {
	dispatcher *protocol.Dispatcher
	sessions   *session.Registry
	log        log.Logger
}

// New returns a Server routing commands through the given dispatcher.
func New(d *protocol.Dispatcher, r *session.Registry, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Server{dispatcher: d, sessions: r, log: logger}
}

// Handler returns the transport's routes wrapped with permissive CORS,
// so browser-hosted agents on other origins can connect.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", s.handleStream)
	mux.HandleFunc("/messages", s.handleMessage)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

// handleStream opens a session and streams its messages until the
// peer disconnects. The session is deregistered on the way out, so
// commands tagged with its id fail from that point on.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, protocol.Errorf(http.StatusMethodNotAllowed, "method not allowed"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, protocol.Errorf(http.StatusInternalServerError, "streaming unsupported"))
		return
	}

	sess := s.sessions.Open()
	defer s.sessions.Close(sess.ID())
	s.log.Infof("session %s opened from %s", sess.ID(), r.RemoteAddr)
	defer s.log.Infof("session %s closed", sess.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.ID())
	flusher.Flush()

	for {
		select {
		case msg := <-sess.Messages():
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-sess.Done():
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleMessage dispatches one command for the session named in the
// query and pushes the response on that session's stream. The POST
// itself only acknowledges receipt.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, protocol.Errorf(http.StatusMethodNotAllowed, "method not allowed"))
		return
	}

	id := r.URL.Query().Get("sessionId")
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, protocol.ErrSessionNotFound(id))
		return
	}

	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, protocol.Errorf(http.StatusBadRequest, "malformed request: %s", err))
		return
	}

	resp, perr := s.dispatcher.Dispatch(req)
	var payload []byte
	if perr != nil {
		payload, _ = json.Marshal(perr)
	} else {
		payload, _ = json.Marshal(resp)
	}

	if !sess.Send(payload) {
		writeError(w, protocol.ErrSessionNotFound(id))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeError(w http.ResponseWriter, perr *protocol.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(perr.Status)
	_ = json.NewEncoder(w).Encode(perr)
}
