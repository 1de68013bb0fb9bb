package test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/events"
	"github.com/yourorg/jobtracker/internal/handler"
	"github.com/yourorg/jobtracker/internal/infrastructure/logger"
	"github.com/yourorg/jobtracker/internal/security/auth"
	"github.com/yourorg/jobtracker/internal/security/middleware"
	"github.com/yourorg/jobtracker/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// TestServerHelper runs the full HTTP surface over in-memory stores, wired
// the same way cmd/server wires the real thing.
type TestServerHelper struct {
	Server *httptest.Server
	Logger *slog.Logger
	Hub    *events.Hub
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	log := logger.NewLogger("error")

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", time.Minute)
	hub := events.NewHub(log)

	authService := service.NewAuthService(newMemUserRepo(), hasher, tokens, service.NewMemoryUserCache(time.Minute), log)
	appService := service.NewApplicationService(newMemAppRepo(), hub, log)

	authHandler := handler.NewAuthHandler(authService, nil, log)
	appHandler := handler.NewApplicationHandler(appService, nil, log)
	meHandler := handler.NewMeHandler(log)
	healthHandler := handler.NewHealthHandler(okPinger{}, nil, log)
	eventsHandler := handler.NewEventsHandler(authService, hub, []string{"*"}, log)

	requireAuth := middleware.RequireAuth(authService, nil, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.Meta)
	mux.Handle("POST /auth/register", http.HandlerFunc(authHandler.Register))
	mux.Handle("POST /auth/login", http.HandlerFunc(authHandler.Login))
	mux.Handle("GET /me", requireAuth(meHandler))
	mux.Handle("POST /applications", requireAuth(http.HandlerFunc(appHandler.Create)))
	mux.Handle("GET /applications", requireAuth(http.HandlerFunc(appHandler.List)))
	mux.Handle("GET /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Get)))
	mux.Handle("PATCH /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Update)))
	mux.Handle("DELETE /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Delete)))
	mux.Handle("GET /ws/applications", eventsHandler)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	root := middleware.RequestID(log)(
		middleware.CORS([]string{"*"})(
			middleware.ValidateJSONContentType(log)(mux),
		),
	)

	server := httptest.NewServer(root)

	return &TestServerHelper{
		Server: server,
		Logger: log,
		Hub:    hub,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

type memUserRepo struct {
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[int64]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *memUserRepo) Delete(ctx context.Context, id int64) error {
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
	return nil
}

func (m *memUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

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
