package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/services"
)

type WebSocketHandler struct {
	responder
	hub      *brackets.Hub
	live     services.LiveService
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts connections from the given origins; "*" or an
// empty list allows any origin.
func NewWebSocketHandler(hub *brackets.Hub, live services.LiveService, allowedOrigins []string, log *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		responder: responder{log: log},
		hub:       hub,
		live:      live,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWs serves GET /ws/tournaments/{id}: one snapshot event, then every
// event of the tournament as it is published.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	// resolve before upgrading so unknown tournaments get a plain 404
	if _, err := h.live.Phase(r.Context(), id); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		h.log.Warnw("Failed to upgrade connection", "tournament_id", id, "error", err)
		return
	}

	_, err = h.hub.Join(id, conn, func() ([]byte, error) {
		snap, err := h.live.Snapshot(r.Context(), id)
		if err != nil {
			return nil, err
		}
		evt, err := events.NewEvent(id, events.Snapshot, services.SnapshotPayload{Live: snap}, time.Now())
		if err != nil {
			return nil, err
		}
		return json.Marshal(evt)
	})
	if err != nil {
		h.log.Errorw("Failed to join live room", "tournament_id", id, "error", err)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"))
		_ = conn.Close()
	}
}
