package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/jobtracker/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse is the public shape of a user
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ApplicationResponse is the public shape of a job application
type ApplicationResponse struct {
	ID        int64     `json:"id"`
	Company   string    `json:"company"`
	RoleTitle string    `json:"role_title"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"applied_at"`
	Location  *string   `json:"location"`
	Link      *string   `json:"link"`
	Notes     *string   `json:"notes"`
	IsActive  bool      `json:"is_active"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toApplicationResponse(a *domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:        a.ID,
		Company:   a.Company,
		RoleTitle: a.RoleTitle,
		Status:    string(a.Status),
		AppliedAt: a.AppliedAt,
		Location:  a.Location,
		Link:      a.Link,
		Notes:     a.Notes,
		IsActive:  a.IsActive,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps a domain error to its HTTP status. This is the only
// place where the error taxonomy meets HTTP.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		if log != nil {
			log.Error("request failed", slog.String("error", err.Error()))
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
