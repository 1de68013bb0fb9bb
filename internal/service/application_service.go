package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/events"
	"github.com/yourorg/jobtracker/internal/observability/metrics"
)

// ApplicationService owns the job-application registry. Every operation is
// scoped to the calling user's id; ownership is enforced by the repository
// queries, and a foreign row surfaces as ErrNotFound.
type ApplicationService struct {
	apps   domain.ApplicationRepository
	hub    *events.Hub // may be nil
	logger *slog.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(apps domain.ApplicationRepository, hub *events.Hub, logger *slog.Logger) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ApplicationService{
		apps:   apps,
		hub:    hub,
		logger: logger,
	}
}

// CreateInput carries the fields of a new application. Status arrives raw
// and is normalized here.
type CreateInput struct {
	Company   string
	RoleTitle string
	Status    string
	Location  *string
	Link      *string
	Notes     *string
}

// Create validates and persists a new application for the user. String
// fields are trimmed of surrounding whitespace; notes is stored verbatim.
func (s *ApplicationService) Create(ctx context.Context, userID int64, in CreateInput) (*domain.Application, error) {
	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	app := &domain.Application{
		UserID:    userID,
		Company:   strings.TrimSpace(in.Company),
		RoleTitle: strings.TrimSpace(in.RoleTitle),
		Status:    status,
		Location:  trimPtr(in.Location),
		Link:      trimPtr(in.Link),
		Notes:     in.Notes,
		IsActive:  true,
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	metrics.ObserveApplicationWrite("create")
	s.publish(userID, events.ActionCreated, app)
	s.logger.Info("application created",
		slog.Int64("user_id", userID),
		slog.Int64("application_id", app.ID),
		slog.String("status", string(app.Status)),
	)

	return app, nil
}

// List returns the user's applications. An empty statusFilter means no
// filtering; a non-empty one is normalized and validated like any other
// status. Inactive rows are excluded unless includeInactive is set.
func (s *ApplicationService) List(ctx context.Context, userID int64, statusFilter string, includeInactive bool) ([]*domain.Application, error) {
	filter := domain.ApplicationFilter{IncludeInactive: includeInactive}

	if statusFilter != "" {
		status, err := domain.ParseStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	return s.apps.ListByUser(ctx, userID, filter)
}

// Get returns one of the user's applications or ErrNotFound.
func (s *ApplicationService) Get(ctx context.Context, userID, id int64) (*domain.Application, error) {
	return s.apps.GetByID(ctx, userID, id)
}

// Update applies a sparse patch: only fields present in the payload change.
// A present, non-null status is normalized and validated; present string
// fields are trimmed except notes, which is stored verbatim. Owner and id
// are not patchable.
func (s *ApplicationService) Update(ctx context.Context, userID, id int64, in UpdateInput) (*domain.Application, error) {
	patch := domain.ApplicationPatch{
		Company:   trimOptional(in.Company),
		RoleTitle: trimOptional(in.RoleTitle),
		Location:  trimOptional(in.Location),
		Link:      trimOptional(in.Link),
		Notes:     in.Notes,
	}

	if in.Status.Set && in.Status.Valid {
		status, err := domain.ParseStatus(in.Status.Value)
		if err != nil {
			return nil, err
		}
		patch.Status = domain.OptionalOf(status)
	}

	app, err := s.apps.Patch(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}

	metrics.ObserveApplicationWrite("update")
	s.publish(userID, events.ActionUpdated, app)
	s.logger.Info("application updated",
		slog.Int64("user_id", userID),
		slog.Int64("application_id", id),
	)

	return app, nil
}

// UpdateInput is the raw sparse patch before normalization.
type UpdateInput struct {
	Company   domain.Optional[string]
	RoleTitle domain.Optional[string]
	Status    domain.Optional[string]
	Location  domain.Optional[string]
	Link      domain.Optional[string]
	Notes     domain.Optional[string]
}

// Delete soft-deletes one of the user's applications. Deleting an already
// inactive row succeeds silently.
func (s *ApplicationService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.apps.SoftDelete(ctx, userID, id); err != nil {
		return err
	}

	metrics.ObserveApplicationWrite("delete")
	if s.hub != nil {
		if app, err := s.apps.GetByID(ctx, userID, id); err == nil {
			s.hub.Publish(userID, events.Event{Action: events.ActionDeleted, Application: app})
		}
	}
	s.logger.Info("application deleted",
		slog.Int64("user_id", userID),
		slog.Int64("application_id", id),
	)

	return nil
}

func (s *ApplicationService) publish(userID int64, action string, app *domain.Application) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(userID, events.Event{Action: action, Application: app})
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// trimOptional trims a present, non-null value; null and absent pass
// through untouched.
func trimOptional(o domain.Optional[string]) domain.Optional[string] {
	if o.Set && o.Valid {
		o.Value = strings.TrimSpace(o.Value)
	}
	return o
}
