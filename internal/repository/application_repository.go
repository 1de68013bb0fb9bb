package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/jobtracker/internal/domain"
)

// PostgresApplicationRepository implements domain.ApplicationRepository
// using PostgreSQL. Every query carries a user_id predicate so that a row
// owned by another user is indistinguishable from a missing row.
type PostgresApplicationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresApplicationRepository creates a new application repository
func NewPostgresApplicationRepository(db *sql.DB, logger *slog.Logger) *PostgresApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresApplicationRepository{
		db:     db,
		logger: logger,
	}
}

const applicationColumns = `id, user_id, company, role_title, status, applied_at, location, link, notes, is_active`

func scanApplication(row interface{ Scan(...any) error }) (*domain.Application, error) {
	app := &domain.Application{}
	var location, link, notes sql.NullString
	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.Company,
		&app.RoleTitle,
		&app.Status,
		&app.AppliedAt,
		&location,
		&link,
		&notes,
		&app.IsActive,
	)
	if err != nil {
		return nil, err
	}
	if location.Valid {
		app.Location = &location.String
	}
	if link.Valid {
		app.Link = &link.String
	}
	if notes.Valid {
		app.Notes = &notes.String
	}
	return app, nil
}

// Create inserts a new application row for its owner.
func (r *PostgresApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO job_applications (user_id, company, role_title, status, location, link, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, applied_at
	`

	err := r.db.QueryRowContext(ctx, query,
		app.UserID,
		app.Company,
		app.RoleTitle,
		app.Status,
		nullString(app.Location),
		nullString(app.Link),
		nullString(app.Notes),
		app.IsActive,
	).Scan(&app.ID, &app.AppliedAt)

	if err != nil {
		r.logger.Error("failed to create application",
			slog.Int64("user_id", app.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// ListByUser returns the user's applications, most recently applied first,
// id descending as a deterministic tiebreak.
func (r *PostgresApplicationRepository) ListByUser(ctx context.Context, userID int64, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM job_applications
		WHERE user_id = $1
	`
	args := []any{userID}

	if !filter.IncludeInactive {
		query += ` AND is_active = TRUE`
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY applied_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list applications",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []*domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

// GetByID retrieves one of the user's applications.
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM job_applications
		WHERE id = $1 AND user_id = $2
	`

	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

// Patch applies a sparse update inside a single transaction so concurrent
// read-modify-write sequences on the same row serialize.
func (r *PostgresApplicationRepository) Patch(ctx context.Context, userID, id int64, patch domain.ApplicationPatch) (*domain.Application, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + applicationColumns + `
		FROM job_applications
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`
	app, err := scanApplication(tx.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock application: %w", err)
	}

	applyPatch(app, patch)

	update := `
		UPDATE job_applications
		SET company = $1, role_title = $2, status = $3, location = $4, link = $5, notes = $6
		WHERE id = $7 AND user_id = $8
	`
	if _, err := tx.ExecContext(ctx, update,
		app.Company,
		app.RoleTitle,
		app.Status,
		nullString(app.Location),
		nullString(app.Link),
		nullString(app.Notes),
		id,
		userID,
	); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit application update: %w", err)
	}

	return app, nil
}

// SoftDelete marks the row inactive. The WHERE clause does not check
// is_active, so deleting an already-inactive row affects one row and
// succeeds — idempotence is guaranteed, not accidental.
func (r *PostgresApplicationRepository) SoftDelete(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE job_applications SET is_active = FALSE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// CountActive returns the number of active applications across all users.
func (r *PostgresApplicationRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM job_applications WHERE is_active = TRUE`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

// applyPatch copies the Set fields of a sparse patch onto the row. Owner
// and id are untouchable by construction: the patch has no such fields.
func applyPatch(app *domain.Application, patch domain.ApplicationPatch) {
	if patch.Company.Set && patch.Company.Valid {
		app.Company = patch.Company.Value
	}
	if patch.RoleTitle.Set && patch.RoleTitle.Valid {
		app.RoleTitle = patch.RoleTitle.Value
	}
	if patch.Status.Set && patch.Status.Valid {
		app.Status = patch.Status.Value
	}
	if patch.Location.Set {
		app.Location = optionalPtr(patch.Location)
	}
	if patch.Link.Set {
		app.Link = optionalPtr(patch.Link)
	}
	if patch.Notes.Set {
		app.Notes = optionalPtr(patch.Notes)
	}
}

func optionalPtr(o domain.Optional[string]) *string {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
