package domain

import (
	"context"
	"strings"
	"time"
)

// Status is the lifecycle stage of a job application. Any transition
// between two valid statuses is allowed; the only constraint is membership
// in the enumeration.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// ParseStatus normalizes a raw status value (trim surrounding whitespace,
// lowercase) and validates membership. Returns ErrInvalidStatus otherwise.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusApplied, StatusInterview, StatusOffer, StatusRejected:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Application represents one job-application record owned by a single user.
// UserID is immutable after creation. IsActive goes true→false exactly once
// via soft delete and never back through the API.
type Application struct {
	ID        int64
	UserID    int64
	Company   string
	RoleTitle string
	Status    Status
	AppliedAt time.Time
	Location  *string
	Link      *string
	Notes     *string
	IsActive  bool
}

// ApplicationFilter narrows a listing. A nil Status means no status filter.
type ApplicationFilter struct {
	Status          *Status
	IncludeInactive bool
}

// Optional carries a sparse-patch field: Set reports whether the field was
// present in the payload at all, Valid whether it was non-null.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// OptionalOf returns a present, non-null Optional.
func OptionalOf[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// OptionalNull returns a present but explicitly null Optional.
func OptionalNull[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// ApplicationPatch describes a sparse update. Fields that are not Set are
// left untouched. ID and UserID are never patchable.
type ApplicationPatch struct {
	Company   Optional[string]
	RoleTitle Optional[string]
	Status    Optional[Status]
	Location  Optional[string]
	Link      Optional[string]
	Notes     Optional[string]
}

// ApplicationRepository defines data access for job applications. Every
// method is scoped to an owning user id; a row that exists but belongs to a
// different user is reported as ErrNotFound, identically to a missing row.
type ApplicationRepository interface {
	// Create persists a new application and fills in ID (and AppliedAt if
	// the store defaults it).
	Create(ctx context.Context, app *Application) error
	// ListByUser returns the user's applications ordered by AppliedAt
	// descending, ID descending as tiebreak.
	ListByUser(ctx context.Context, userID int64, filter ApplicationFilter) ([]*Application, error)
	GetByID(ctx context.Context, userID, id int64) (*Application, error)
	// Patch applies a sparse update atomically and returns the updated row.
	Patch(ctx context.Context, userID, id int64, patch ApplicationPatch) (*Application, error)
	// SoftDelete sets is_active=false. Idempotent: deleting an already
	// inactive row succeeds.
	SoftDelete(ctx context.Context, userID, id int64) error
	CountActive(ctx context.Context) (int64, error)
}
