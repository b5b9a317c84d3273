package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const wsWriteTimeout = 10 * time.Second

// handleIssueLogs streams a session's progress lines over a WebSocket. The
// subscriber attaches on upgrade and stays attached until it disconnects or
// a newer subscriber takes over the session.
func (s *Server) handleIssueLogs(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	connID, err := gonanoid.New()
	if err != nil {
		connID = sessionID
	}
	logger := s.logger.With().Str("session_id", sessionID).Str("conn_id", connID).Logger()
	logger.Info().Msg("log subscriber connected")

	ch := s.opts.Hub.Register(sessionID)
	defer s.opts.Hub.UnregisterChannel(sessionID, ch)

	// read pump, only to notice the peer going away
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line, open := <-ch:
			if !open {
				// replaced by a newer subscriber or hub-side detach
				logger.Info().Msg("log subscription closed")
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				logger.Info().Err(err).Msg("log subscriber write failed")
				return
			}
		case <-disconnected:
			logger.Info().Msg("log subscriber disconnected")
			return
		}
	}
}
