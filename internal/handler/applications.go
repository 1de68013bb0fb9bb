package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/security/audit"
	"github.com/yourorg/jobtracker/internal/security/middleware"
	"github.com/yourorg/jobtracker/internal/service"
)

// ApplicationHandler handles the /applications CRUD surface. Every route is
// behind RequireAuth; the handler trusts the user in the request context.
type ApplicationHandler struct {
	applications *service.ApplicationService
	auditLog     *audit.Logger // may be nil
	logger       *slog.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications *service.ApplicationService, auditLog *audit.Logger, logger *slog.Logger) *ApplicationHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ApplicationHandler{
		applications: applications,
		auditLog:     auditLog,
		logger:       logger,
	}
}

// CreateApplicationRequest represents a new application payload. A missing
// status defaults to "applied".
type CreateApplicationRequest struct {
	Company   string  `json:"company"`
	RoleTitle string  `json:"role_title"`
	Status    *string `json:"status"`
	Location  *string `json:"location"`
	Link      *string `json:"link"`
	Notes     *string `json:"notes"`
}

func (r CreateApplicationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Company, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.RoleTitle, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Location, validation.Length(0, 200)),
		validation.Field(&r.Link, validation.Length(0, 500)),
	)
}

// Create handles POST /applications
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.Unauthorized(w)
		return
	}

	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := "applied"
	if req.Status != nil {
		status = *req.Status
	}

	app, err := h.applications.Create(r.Context(), user.ID, service.CreateInput{
		Company:   req.Company,
		RoleTitle: req.RoleTitle,
		Status:    status,
		Location:  req.Location,
		Link:      req.Link,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogApplicationChange(r.Context(), user.ID, "create", app.ID, "created")
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// List handles GET /applications?status=&include_inactive=
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.Unauthorized(w)
		return
	}

	includeInactive := false
	if raw := r.URL.Query().Get("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_inactive must be a boolean")
			return
		}
		includeInactive = v
	}

	apps, err := h.applications.List(r.Context(), user.ID, r.URL.Query().Get("status"), includeInactive)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	out := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}

	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.Unauthorized(w)
		return
	}

	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	app, err := h.applications.Get(r.Context(), user.ID, id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Update handles PATCH /applications/{id} with sparse-patch semantics:
// only keys present in the payload are applied, and a null clears a
// nullable field.
func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.Unauthorized(w)
		return
	}

	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	patch, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.applications.Update(r.Context(), user.ID, id, patch)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogApplicationChange(r.Context(), user.ID, "update", app.ID, "updated")
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Delete handles DELETE /applications/{id} (soft delete)
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.Unauthorized(w)
		return
	}

	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	if err := h.applications.Delete(r.Context(), user.ID, id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogApplicationChange(r.Context(), user.ID, "delete", id, "deleted")
	}

	w.WriteHeader(http.StatusNoContent)
}

// applicationID parses the {id} path value. A non-numeric id cannot name
// any row, so it gets the same 404 as a missing one.
func applicationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return 0, false
	}
	return id, true
}

// decodePatch reads a sparse patch, distinguishing absent keys from
// explicit nulls.
func decodePatch(r *http.Request) (service.UpdateInput, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return service.UpdateInput{}, err
	}

	var in service.UpdateInput
	var err error
	if in.Company, err = optionalString(raw, "company"); err != nil {
		return in, err
	}
	if in.RoleTitle, err = optionalString(raw, "role_title"); err != nil {
		return in, err
	}
	if in.Status, err = optionalString(raw, "status"); err != nil {
		return in, err
	}
	if in.Location, err = optionalString(raw, "location"); err != nil {
		return in, err
	}
	if in.Link, err = optionalString(raw, "link"); err != nil {
		return in, err
	}
	if in.Notes, err = optionalString(raw, "notes"); err != nil {
		return in, err
	}
	return in, nil
}

func optionalString(raw map[string]json.RawMessage, key string) (domain.Optional[string], error) {
	msg, ok := raw[key]
	if !ok {
		return domain.Optional[string]{}, nil
	}

	var v *string
	if err := json.Unmarshal(msg, &v); err != nil {
		return domain.Optional[string]{}, err
	}
	if v == nil {
		return domain.OptionalNull[string](), nil
	}
	return domain.OptionalOf(*v), nil
}
