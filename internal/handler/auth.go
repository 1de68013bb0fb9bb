package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/yourorg/jobtracker/internal/security/audit"
	"github.com/yourorg/jobtracker/internal/service"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	authService *service.AuthService
	auditLog    *audit.Logger // may be nil
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, auditLog *audit.Logger, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		auditLog:    auditLog,
		logger:      logger,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the request shape. The password bounds match the public
// contract: 8 to 128 characters.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 320), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode register request",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, h.logger, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogRegistration(r.Context(), user.ID, "created")
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login handles POST /auth/login. The body is form-encoded with username
// and password fields; username carries the email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, user, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogLogin(r.Context(), user.ID, "ok")
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
