package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/events"
	"github.com/yourorg/jobtracker/internal/service"
)

// EventsHandler streams the caller's application change events over a
// WebSocket. Browsers cannot set the Authorization header on a WebSocket
// handshake, so the token may also arrive as a query parameter.
type EventsHandler struct {
	authService    *service.AuthService
	hub            *events.Hub
	allowedOrigins []string
	logger         *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(authService *service.AuthService, hub *events.Hub, allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventsHandler{
		authService:    authService,
		hub:            hub,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// EventMessage is the wire shape of one change event
type EventMessage struct {
	Action      string              `json:"action"`
	Application ApplicationResponse `json:"application"`
}

func (h *EventsHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/applications
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ch, cancel := h.hub.Subscribe(user.ID)
	defer cancel()

	h.logger.Debug("event stream opened", slog.Int64("user_id", user.ID))

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			msg := EventMessage{
				Action:      ev.Action,
				Application: toApplicationResponse(ev.Application),
			}
			if err := ws.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.Int64("user_id", user.ID))
				}
				return
			}
		case <-ticker.C:
			_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *EventsHandler) authenticate(r *http.Request) (*domain.User, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return h.authService.AuthenticateToken(r.Context(), token)
	}
	return h.authService.Authenticate(r.Context(), r.Header.Get("Authorization"))
}
