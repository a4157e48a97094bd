package api

import (
	"net/http"
	"time"

	"articlegen/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const streamWriteWait = 10 * time.Second

// handleStream pushes a snapshot of the slot every second until the client
// goes away. Messages from the client count as user activity, and the game
// counts as visible while any stream is open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	conn, err := s.upgr.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	defer s.watch(chi.URLParam(r, "slot"), g)()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			g.NotifyUserAction()
		}
	}()

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(g.Snapshot()); err != nil {
			s.log.Debug("stream closed", "err", err)
			return
		}
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case <-ticker.C:
		}
	}
}

// The last viewer to leave hides the game again.
func (s *Server) watch(slot string, g *game.Game) func() {
	s.viewMu.Lock()
	s.viewers[slot]++
	s.viewMu.Unlock()
	g.SetVisible(true)
	return func() {
		s.viewMu.Lock()
		defer s.viewMu.Unlock()
		s.viewers[slot]--
		if s.viewers[slot] > 0 {
			return
		}
		delete(s.viewers, slot)
		g.SetVisible(false)
	}
}
