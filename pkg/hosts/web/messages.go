package web

import "encoding/json"

// Client message types.
const (
	msgSet    = "set"
	msgSelect = "select"
	msgToggle = "toggle"
	msgPing   = "ping"
)

// Server message types.
const (
	msgState = "state"
	msgHTML  = "html"
	msgError = "error"
	msgPong  = "pong"
)

// ClientMessage is the envelope for all client-to-server websocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "set", "select", "toggle", "ping"
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SetData is the payload for "set" messages.
type SetData struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// ToggleData is the payload for "toggle" messages.
type ToggleData struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SelectData is the payload for "select" messages and the collection POST.
type SelectData struct {
	Collection string `json:"collection"`
}

// ServerMessage is the envelope for all server-to-client websocket messages.
type ServerMessage struct {
	Type      string `json:"type"` // "state", "html", "error", "pong"
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// HTMLData carries a rendered form fragment.
type HTMLData struct {
	HTML string `json:"html"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
