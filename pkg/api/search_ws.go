package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/bohm/libris/pkg/search"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is CORS-open; the WebSocket endpoint follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSearchRequest is the first message a client sends after connecting.
type wsSearchRequest struct {
	search.Request
}

// wsCancelMessage is any later client message; receiving one cancels the
// running search.
type wsCancelMessage struct {
	Cancel bool `json:"cancel"`
}

// HandleSearchWS upgrades to a WebSocket, reads one search request, runs it
// and streams every executor event back to the client. The connection
// supports one outstanding search; a {"cancel": true} message (or the
// client going away) cancels it cooperatively.
func (s *Server) HandleSearchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	var req wsSearchRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Debugf("reading search request: %v", err)
		return
	}
	s.applySearchDefaults(&req.Request)

	executor := search.NewExecutor(s.index)
	events, err := executor.Start(r.Context(), req.Request)
	if err != nil {
		_ = conn.WriteJSON(search.Event{Kind: search.EventFailed, Err: err.Error()})
		return
	}

	// Reader goroutine: any further client message or a closed connection
	// cancels the search.
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				executor.Cancel()
				return
			}
			var msg wsCancelMessage
			if err := json.Unmarshal(data, &msg); err == nil && msg.Cancel {
				executor.Cancel()
				return
			}
		}
	}()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debugf("writing search event: %v", err)
			executor.Cancel()
			// Drain so the executor can finish and close the channel.
			for range events {
			}
			return
		}
	}
}
