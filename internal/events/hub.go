package events

import (
	"log/slog"
	"sync"

	"github.com/yourorg/jobtracker/internal/domain"
)

// Event actions published when a user's applications change.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event describes a change to one application, delivered only to
// subscribers authenticated as its owner.
type Event struct {
	Action      string
	Application *domain.Application
}

const subscriberBuffer = 16

// Hub fans application change events out to per-user subscribers. Publish
// never blocks: a subscriber that cannot keep up has events dropped.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[chan Event]struct{}
	logger *slog.Logger
}

// NewHub creates an event hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[int64]map[chan Event]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for one user's events. The returned cancel
// function must be called when the listener goes away.
func (h *Hub) Subscribe(userID int64) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to the owner's subscribers.
func (h *Hub) Publish(userID int64, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("event subscriber full, dropping event",
				slog.Int64("user_id", userID),
				slog.String("action", ev.Action),
			)
		}
	}
}
