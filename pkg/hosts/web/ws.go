package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/goliatone/go-dynform/pkg/render/html"
)

// handleWebsocket upgrades and runs the message loop. Every accepted change
// is answered with the new state and the re-rendered form.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("web: websocket accept", "session", e.ID, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	s.push(ctx, conn, e, "")

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				s.logger.Debug("web: websocket closed", "session", e.ID, "status", status)
			}
			return
		}
		e.Touch()

		switch msg.Type {
		case msgPing:
			s.send(ctx, conn, ServerMessage{Type: msgPong, RequestID: msg.ID})
			continue
		case msgSet, msgSelect, msgToggle:
			if err := s.apply(ctx, e, msg); err != nil {
				_, code := classify(err)
				s.sendError(ctx, conn, msg.ID, code, err.Error())
				continue
			}
			s.push(ctx, conn, e, msg.ID)
		default:
			s.sendError(ctx, conn, msg.ID, "UNKNOWN_TYPE", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (s *Server) apply(ctx context.Context, e *Entry, msg ClientMessage) error {
	switch msg.Type {
	case msgSet:
		var data SetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("web: invalid set data: %w", err)
		}
		return e.Form.Set(ctx, data.Field, data.Values...)
	case msgToggle:
		var data ToggleData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("web: invalid toggle data: %w", err)
		}
		return e.Form.Toggle(ctx, data.Field, data.Value)
	default:
		var data SelectData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("web: invalid select data: %w", err)
		}
		return e.Form.Select(ctx, data.Collection)
	}
}

// push sends the current state followed by the rendered form.
func (s *Server) push(ctx context.Context, conn *websocket.Conn, e *Entry, requestID string) {
	view := e.Form.View()
	s.send(ctx, conn, ServerMessage{Type: msgState, RequestID: requestID, Data: view})

	fragment, err := s.renderer.FormString(view, html.PageOptions{BasePath: s.basePath(e.ID), Live: true})
	if err != nil {
		s.sendError(ctx, conn, requestID, "RENDER_FAILED", err.Error())
		return
	}
	s.send(ctx, conn, ServerMessage{Type: msgHTML, RequestID: requestID, Data: HTMLData{HTML: fragment}})
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		s.logger.Debug("web: websocket write", "type", msg.Type, "error", err)
	}
}

func (s *Server) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	s.send(ctx, conn, ServerMessage{
		Type:      msgError,
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}
