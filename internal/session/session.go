// Package session tracks the long-lived channels of the multiplexed
// transport. A session is a pure routing record: an opaque id and the
// sink responses are delivered on. It holds no emulator state.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
)

// ErrNotFound is returned when a command is tagged with an unknown or
// expired session id.
var ErrNotFound = errors.New("session not found")

// sendBuffer is the per-session response queue depth. A session whose
// peer stops reading is closed rather than blocked on.
const sendBuffer = 64

// Session binds one remote channel to its response sink.
type Session struct {
	id string

	send chan []byte
	done chan struct{}
	once sync.Once
}

// ID returns the session's opaque token.
func (s *Session) ID() string {
	return s.id
}

// Send queues a message for delivery on the session's channel. It
// reports false if the session is closed or its queue is full.
func (s *Session) Send(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Messages returns the channel the transport reads outgoing messages
// from.
func (s *Session) Messages() <-chan []byte {
	return s.send
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Registry is the process-wide session table. Insert on channel open,
// delete on channel close; ids are never reused while live.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open creates a fresh session with a unique id and registers it.
func (r *Registry) Open() *Session {
	s := &Session{
		id:   newID(),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// Get resolves a session id. Commands tagged with an id Get does not
// know must fail, never queue.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close deregisters the session and closes it. Closing an already
// closed or unknown id is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.close()
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
