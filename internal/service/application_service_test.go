package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/yourorg/jobtracker/internal/domain"
)

type memAppRepo struct {
	nextID int64
	apps   map[int64]*domain.Application
}

func newMemAppRepo() *memAppRepo {
	return &memAppRepo{apps: map[int64]*domain.Application{}}
}

func (m *memAppRepo) Create(ctx context.Context, app *domain.Application) error {
	m.nextID++
	app.ID = m.nextID
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	clone := *app
	m.apps[app.ID] = &clone
	return nil
}

func (m *memAppRepo) ListByUser(ctx context.Context, userID int64, filter domain.ApplicationFilter) ([]*domain.Application, error) {
	out := []*domain.Application{}
	for _, app := range m.apps {
		if app.UserID != userID {
			continue
		}
		if !filter.IncludeInactive && !app.IsActive {
			continue
		}
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		clone := *app
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memAppRepo) GetByID(ctx context.Context, userID, id int64) (*domain.Application, error) {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return nil, domain.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (m *memAppRepo) Patch(ctx context.Context, userID, id int64, patch domain.ApplicationPatch) (*domain.Application, error) {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return nil, domain.ErrNotFound
	}
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
		app.Location = optPtr(patch.Location)
	}
	if patch.Link.Set {
		app.Link = optPtr(patch.Link)
	}
	if patch.Notes.Set {
		app.Notes = optPtr(patch.Notes)
	}
	clone := *app
	return &clone, nil
}

func (m *memAppRepo) SoftDelete(ctx context.Context, userID, id int64) error {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return domain.ErrNotFound
	}
	app.IsActive = false
	return nil
}

func (m *memAppRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, app := range m.apps {
		if app.IsActive {
			n++
		}
	}
	return n, nil
}

func optPtr(o domain.Optional[string]) *string {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func strPtr(s string) *string { return &s }

func TestCreateNormalizesInput(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	app, err := s.Create(ctx, 1, CreateInput{
		Company:   "  Acme  ",
		RoleTitle: " Backend Engineer ",
		Status:    " Applied ",
		Location:  strPtr("  Berlin "),
		Notes:     strPtr("  keep my spacing  "),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if app.Company != "Acme" {
		t.Errorf("expected trimmed company, got %q", app.Company)
	}
	if app.RoleTitle != "Backend Engineer" {
		t.Errorf("expected trimmed role title, got %q", app.RoleTitle)
	}
	if app.Status != domain.StatusApplied {
		t.Errorf("expected normalized status applied, got %q", app.Status)
	}
	if app.Location == nil || *app.Location != "Berlin" {
		t.Errorf("expected trimmed location, got %v", app.Location)
	}
	if app.Notes == nil || *app.Notes != "  keep my spacing  " {
		t.Errorf("expected notes stored verbatim, got %v", app.Notes)
	}
	if !app.IsActive {
		t.Errorf("expected new application to be active")
	}
	if app.ID == 0 || app.AppliedAt.IsZero() {
		t.Errorf("expected id and applied_at to be filled in")
	}
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := NewApplicationService(newMemAppRepo(), nil, nil)

	_, err := s.Create(ctx, 1, CreateInput{Company: "Acme", RoleTitle: "Dev", Status: "withdrawn"})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		status    domain.Status
		appliedAt time.Time
	}{
		{domain.StatusApplied, base},
		{domain.StatusInterview, base.Add(time.Hour)},
		{domain.StatusApplied, base.Add(time.Hour)}, // same instant as the previous row
		{domain.StatusOffer, base.Add(2 * time.Hour)},
	}
	for _, sd := range seed {
		if err := repo.Create(ctx, &domain.Application{
			UserID: 1, Company: "Acme", RoleTitle: "Dev",
			Status: sd.status, AppliedAt: sd.appliedAt, IsActive: true,
		}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	// Another user's row must never show up
	if err := repo.Create(ctx, &domain.Application{
		UserID: 2, Company: "Other", RoleTitle: "Dev",
		Status: domain.StatusApplied, AppliedAt: base, IsActive: true,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	apps, err := s.List(ctx, 1, "", false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(apps) != 4 {
		t.Fatalf("expected 4 applications, got %d", len(apps))
	}
	// Most recent first; equal applied_at breaks ties by id descending
	wantIDs := []int64{4, 3, 2, 1}
	for i, app := range apps {
		if app.ID != wantIDs[i] {
			t.Errorf("position %d: expected id %d, got %d", i, wantIDs[i], app.ID)
		}
	}

	// Status filter is normalized like any other status value
	applied, err := s.List(ctx, 1, " APPLIED ", false)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected 2 applied rows, got %d", len(applied))
	}

	if _, err := s.List(ctx, 1, "ghosted", false); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status for bad filter, got %v", err)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	app, err := s.Create(ctx, 1, CreateInput{Company: "Acme", RoleTitle: "Dev", Status: "applied"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := s.Get(ctx, 1, app.ID); err != nil {
		t.Fatalf("owner get failed: %v", err)
	}

	// A foreign row and a missing row are the same error
	if _, err := s.Get(ctx, 2, app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if _, err := s.Get(ctx, 1, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing row, got %v", err)
	}
}

func TestUpdateSparsePatch(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	app, err := s.Create(ctx, 1, CreateInput{
		Company: "Acme", RoleTitle: "Dev", Status: "applied",
		Location: strPtr("Berlin"), Notes: strPtr("original"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Patch only the status: everything else stays
	got, err := s.Update(ctx, 1, app.ID, UpdateInput{Status: domain.OptionalOf(" INTERVIEW ")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Status != domain.StatusInterview {
		t.Errorf("expected status interview, got %q", got.Status)
	}
	if got.Company != "Acme" || got.Location == nil || *got.Location != "Berlin" {
		t.Errorf("expected untouched fields to survive, got %+v", got)
	}

	// An explicit null clears a nullable field
	got, err = s.Update(ctx, 1, app.ID, UpdateInput{Location: domain.OptionalNull[string]()})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Location != nil {
		t.Errorf("expected location cleared, got %v", got.Location)
	}

	// A null for a required field is ignored rather than applied
	got, err = s.Update(ctx, 1, app.ID, UpdateInput{Company: domain.OptionalNull[string]()})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Company != "Acme" {
		t.Errorf("expected company to survive a null, got %q", got.Company)
	}

	// Notes is never trimmed
	got, err = s.Update(ctx, 1, app.ID, UpdateInput{Notes: domain.OptionalOf("  padded  ")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Notes == nil || *got.Notes != "  padded  " {
		t.Errorf("expected verbatim notes, got %v", got.Notes)
	}

	// An invalid status leaves the row untouched
	if _, err := s.Update(ctx, 1, app.ID, UpdateInput{Status: domain.OptionalOf("ghosted")}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	check, _ := s.Get(ctx, 1, app.ID)
	if check.Status != domain.StatusInterview {
		t.Errorf("expected status unchanged after rejected patch, got %q", check.Status)
	}

	// Cross-user patch is a not-found
	if _, err := s.Update(ctx, 2, app.ID, UpdateInput{Status: domain.OptionalOf("offer")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestDeleteSoftAndIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	app, err := s.Create(ctx, 1, CreateInput{Company: "Acme", RoleTitle: "Dev", Status: "applied"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := s.Delete(ctx, 1, app.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// The row survives, just inactive
	got, err := s.Get(ctx, 1, app.ID)
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if got.IsActive {
		t.Errorf("expected row inactive after delete")
	}

	// Default listing hides it; include_inactive shows it
	active, _ := s.List(ctx, 1, "", false)
	if len(active) != 0 {
		t.Errorf("expected deleted row hidden from default list, got %d rows", len(active))
	}
	all, _ := s.List(ctx, 1, "", true)
	if len(all) != 1 {
		t.Errorf("expected deleted row in include_inactive list, got %d rows", len(all))
	}

	// Deleting again succeeds
	if err := s.Delete(ctx, 1, app.ID); err != nil {
		t.Fatalf("expected repeat delete to succeed, got %v", err)
	}

	// Missing and foreign rows are not-found
	if err := s.Delete(ctx, 1, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, 2, app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}
