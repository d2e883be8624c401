package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360studio/repodeck/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleEvents handles GET /api/sessions/{id}/events. The connection is
// upgraded to a WebSocket that receives the current status as its first
// frame, then one JSON events.StatusEvent per transition until the client
// disconnects or the session is deleted.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Debug("WebSocket upgrade failed", "session", sess.ID, "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.hub.Subscribe(sess.ID)
	defer cancel()

	snap := sess.Analyzer.Snapshot()
	current := events.StatusEvent{
		Session: sess.ID,
		From:    snap.Status,
		To:      snap.Status,
		Message: snap.Message,
		At:      time.Now(),
	}
	if err := s.writeFrame(conn, current); err != nil {
		return
	}

	// The read loop only services control frames and notices disconnects.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-updates:
			if !open {
				return
			}
			if err := s.writeFrame(conn, ev); err != nil {
				s.logger.Debug("Client disconnected during event", "session", sess.ID, "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-sess.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, ev events.StatusEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
