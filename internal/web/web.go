// Package web serves the browser surface: a control page, still and
// live screen endpoints polled by it, a websocket frame stream, a
// single-shot command endpoint, and ROM listing/upload. Everything
// routes through the same dispatcher and service as the remote
// transports.
package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mario-andreschak/mcp-gameboy/internal/protocol"
	"github.com/mario-andreschak/mcp-gameboy/internal/roms"
	"github.com/mario-andreschak/mcp-gameboy/internal/screen"
	"github.com/mario-andreschak/mcp-gameboy/internal/service"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

//go:embed index.html
var indexPage []byte

// maxUpload bounds a ROM upload. The largest licensed cartridges are
// 8 MiB.
const maxUpload = 16 << 20

// Server is the browser-facing glue over the service and dispatcher.
type Server struct {
	svc        *service.Service
	dispatcher *protocol.Dispatcher
	dir        *roms.Directory
	hub        *hub
	log        log.Logger
}

// New returns a web Server. The live-frame hub starts with it.
func New(svc *service.Service, d *protocol.Dispatcher, dir *roms.Directory, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	s := &Server{
		svc:        svc,
		dispatcher: d,
		dir:        dir,
		hub:        newHub(svc, logger),
		log:        logger,
	}
	go s.hub.run()
	return s
}

// Register installs the browser routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/screen", s.handleScreen)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ws", s.hub.serveWS)
	mux.HandleFunc("/api", s.handleCommand)
	mux.HandleFunc("/roms", s.handleROMs)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

// handleScreen serves the current screen without advancing a frame.
// The page polls it at ~100 ms while the user is stepping manually.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w)(s.svc.Snapshot())
}

// handleLive advances one frame per request. The page polls it at
// ~16 ms in auto-play mode to approximate 60 steps per second.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w)(s.svc.AdvanceAndSnapshot())
}

func (s *Server) writeSnapshot(w http.ResponseWriter) func(screen.Snapshot, error) {
	return func(snap screen.Snapshot, err error) {
		if errors.Is(err, service.ErrNotLoaded) {
			writeJSONError(w, protocol.Errorf(http.StatusConflict, "no rom loaded"))
			return
		}
		if err != nil {
			s.log.Errorf("snapshot failed: %s", err)
			writeJSONError(w, protocol.Errorf(http.StatusInternalServerError, "%s", err))
			return
		}
		w.Header().Set("Content-Type", snap.MimeType)
		w.Header().Set("Cache-Control", "no-store")
		w.Write(snap.Data)
	}
}

// handleCommand is the single-shot HTTP command endpoint used by the
// page's buttons. Same envelope, same dispatcher as the transports.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, protocol.Errorf(http.StatusMethodNotAllowed, "method not allowed"))
		return
	}

	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, protocol.Errorf(http.StatusBadRequest, "malformed request: %s", err))
		return
	}

	resp, perr := s.dispatcher.Dispatch(req)
	w.Header().Set("Content-Type", "application/json")
	if perr != nil {
		w.WriteHeader(perr.Status)
		json.NewEncoder(w).Encode(perr)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// handleROMs lists the ROM directory on GET and accepts a multipart
// upload on POST.
func (s *Server) handleROMs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.dir.List()
		if err != nil {
			writeJSONError(w, protocol.Errorf(http.StatusInternalServerError, "%s", err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)

	case http.MethodPost:
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			writeJSONError(w, protocol.Errorf(http.StatusBadRequest, "malformed upload: %s", err))
			return
		}
		f, header, err := r.FormFile("rom")
		if err != nil {
			writeJSONError(w, protocol.Errorf(http.StatusBadRequest, "rom: required"))
			return
		}
		defer f.Close()

		path, err := s.dir.Save(header.Filename, io.LimitReader(f, maxUpload))
		if errors.Is(err, roms.ErrBadName) {
			writeJSONError(w, protocol.Errorf(http.StatusBadRequest, "rom: %s", err))
			return
		}
		if err != nil {
			writeJSONError(w, protocol.Errorf(http.StatusInternalServerError, "%s", err))
			return
		}

		s.log.Infof("uploaded rom %s", path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Path string `json:"path"`
		}{path})

	default:
		writeJSONError(w, protocol.Errorf(http.StatusMethodNotAllowed, "method not allowed"))
	}
}

func writeJSONError(w http.ResponseWriter, perr *protocol.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(perr.Status)
	json.NewEncoder(w).Encode(perr)
}
