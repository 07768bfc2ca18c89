package protocol

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/mario-andreschak/mcp-gameboy/internal/screen"
)

// Request is the transport-agnostic command envelope.
type Request struct {
	Tool   string `json:"tool"`
	Params Params `json:"params,omitempty"`
}

// Params carries the declared parameters of all commands. Pointers
// distinguish "absent" from zero so defaults can apply.
type Params struct {
	DurationFrames *int   `json:"duration_frames,omitempty"`
	Path           string `json:"path,omitempty"`
}

// Content is one item of a success response: an encoded image or a
// piece of structured text.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// Response is the uniform success envelope.
type Response struct {
	Content []Content `json:"content"`
}

// Error is the structured error envelope. Status carries the
// HTTP-style class of the failure; transports that are not HTTP keep
// it in the body.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds an error envelope.
func Errorf(status int, format string, args ...interface{}) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// imageResponse wraps a snapshot in the success envelope, base64
// encoding the payload for JSON transport.
func imageResponse(snap screen.Snapshot) Response {
	return Response{Content: []Content{{
		Type:     "image",
		MimeType: snap.MimeType,
		Data:     base64.StdEncoding.EncodeToString(snap.Data),
	}}}
}

// textResponse wraps serialized structured text in the success
// envelope.
func textResponse(text string) Response {
	return Response{Content: []Content{{Type: "text", Text: text}}}
}

// ErrSessionNotFound is the envelope for a command tagged with an
// unknown or expired session id.
func ErrSessionNotFound(id string) *Error {
	return Errorf(http.StatusNotFound, "session not found: %s", id)
}
