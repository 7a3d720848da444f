package http

import (
	"errors"
	"net/http"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Close codes for rejected connection attempts, one per admission
// failure so clients can tell them apart.
const (
	closeSessionNotFound  = 4004
	closeSessionCompleted = 4003
	closeInvalidToken     = 4001
	closeAlreadyConnected = 4009
	closeServerFull       = 4029
)

// WSHandler upgrades quiz play connections and pumps inbound frames into
// the engine. Each connection gets a single reader loop, so handler
// logic for one session never runs for two messages concurrently.
type WSHandler struct {
	engine   *app.Engine
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, log *zap.Logger) *WSHandler {
	return &WSHandler{
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	token := r.URL.Query().Get("token")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client, err := h.engine.Attach(r.Context(), sessionID, token, conn)
	if err != nil {
		code, reason := closeReason(err)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
		_ = conn.Close()
		return
	}
	defer func() {
		h.engine.Detach(sessionID)
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// client close and transport failure both end in teardown
			return
		}
		client.HandleMessage(r.Context(), raw)
	}
}

func closeReason(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return closeSessionNotFound, "Session not found"
	case errors.Is(err, domain.ErrSessionCompleted):
		return closeSessionCompleted, "Session already completed"
	case errors.Is(err, domain.ErrInvalidToken):
		return closeInvalidToken, "Invalid token"
	case errors.Is(err, domain.ErrAlreadyConnected):
		return closeAlreadyConnected, "Session already connected"
	case errors.Is(err, domain.ErrServerFull):
		return closeServerFull, "Server at capacity"
	default:
		return websocket.CloseInternalServerErr, "Internal error"
	}
}
