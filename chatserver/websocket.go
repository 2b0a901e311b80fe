package chatserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/martinemde/parley/agentchat"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// socketTurn is one inbound frame on a session socket.
type socketTurn struct {
	Message string `json:"message"`
}

// handleSessionSocket serves the event protocol over a websocket. Each
// inbound frame starts one turn on the connection's session; the turn's
// events are written back as JSON frames ending with done. Turns run one
// at a time per connection, matching the per-session lease.
func (s *Server) handleSessionSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	for {
		var turn socketTurn
		if err := ws.ReadJSON(&turn); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "session_id", sessionID, "error", err)
			}
			return
		}

		emitter, err := s.loop.Run(r.Context(), agentchat.TurnRequest{
			SessionID: sessionID,
			Message:   turn.Message,
		})
		if err != nil {
			code := "internal"
			switch {
			case errors.Is(err, agentchat.ErrEmptyMessage):
				code = "invalid_request"
			case errors.Is(err, agentchat.ErrSessionBusy):
				code = "session_busy"
			}
			if werr := ws.WriteJSON(apiErrorResponse{Error: apiError{Code: code, Message: err.Error()}}); werr != nil {
				return
			}
			continue
		}

		for event := range emitter.Events() {
			if err := ws.WriteJSON(event); err != nil {
				s.logger.Warn("websocket write failed, detaching client",
					"session_id", sessionID, "error", err)
				s.detach(emitter)
				return
			}
		}
	}
}
