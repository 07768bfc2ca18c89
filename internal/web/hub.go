package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mario-andreschak/mcp-gameboy/internal/service"
	"github.com/mario-andreschak/mcp-gameboy/pkg/log"
)

// framePeriod approximates the hardware's 60 steps per second.
const framePeriod = time.Millisecond * 16

// hub pushes live frames to connected websocket clients. While at
// least one client is connected the hub advances the emulator one
// frame per tick and broadcasts the encoded screen; with no clients
// the emulator is left untouched.
type hub struct {
	svc *service.Service

	clients              map[*client]bool
	register, unregister chan *client

	log log.Logger
}

type client struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func newHub(svc *service.Service, logger log.Logger) *hub {
	return &hub{
		svc:        svc,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		log:        logger,
	}
}

// run owns the client set and the frame ticker. It never returns.
func (h *hub) run() {
	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.log.Debugf("live viewer connected (%d total)", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			snap, err := h.svc.AdvanceAndSnapshot()
			if err != nil {
				// nothing loaded yet; viewers wait
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- snap.Data:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// serveWS upgrades the connection and attaches it to the hub.
func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %s", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// clients send nothing meaningful; reading drains pings and
	// detects disconnects
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
