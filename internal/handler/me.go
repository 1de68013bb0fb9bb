package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/jobtracker/internal/security/middleware"
)

// MeHandler serves the authenticated user's own profile
type MeHandler struct {
	logger *slog.Logger
}

// NewMeHandler creates a new me handler
func NewMeHandler(logger *slog.Logger) *MeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeHandler{logger: logger}
}

// ServeHTTP handles GET /me
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.Unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
