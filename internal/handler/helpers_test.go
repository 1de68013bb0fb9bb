package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/security/auth"
	"github.com/yourorg/jobtracker/internal/security/middleware"
	"github.com/yourorg/jobtracker/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[int64]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
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

func (m *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
	return nil
}

func (m *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

type fakeAppRepo struct {
	nextID int64
	apps   map[int64]*domain.Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: map[int64]*domain.Application{}}
}

func (m *fakeAppRepo) Create(ctx context.Context, app *domain.Application) error {
	m.nextID++
	app.ID = m.nextID
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	clone := *app
	m.apps[app.ID] = &clone
	return nil
}

func (m *fakeAppRepo) ListByUser(ctx context.Context, userID int64, filter domain.ApplicationFilter) ([]*domain.Application, error) {
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

func (m *fakeAppRepo) GetByID(ctx context.Context, userID, id int64) (*domain.Application, error) {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return nil, domain.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (m *fakeAppRepo) Patch(ctx context.Context, userID, id int64, patch domain.ApplicationPatch) (*domain.Application, error) {
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
		app.Location = fakeOptPtr(patch.Location)
	}
	if patch.Link.Set {
		app.Link = fakeOptPtr(patch.Link)
	}
	if patch.Notes.Set {
		app.Notes = fakeOptPtr(patch.Notes)
	}
	clone := *app
	return &clone, nil
}

func (m *fakeAppRepo) SoftDelete(ctx context.Context, userID, id int64) error {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return domain.ErrNotFound
	}
	app.IsActive = false
	return nil
}

func (m *fakeAppRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, app := range m.apps {
		if app.IsActive {
			n++
		}
	}
	return n, nil
}

func fakeOptPtr(o domain.Optional[string]) *string {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// newTestServer stands up the full HTTP surface over in-memory repositories,
// wired the same way the server main wires it.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", time.Minute)
	authService := service.NewAuthService(newFakeUserRepo(), hasher, tokens, nil, nil)
	appService := service.NewApplicationService(newFakeAppRepo(), nil, nil)

	authHandler := NewAuthHandler(authService, nil, nil)
	appHandler := NewApplicationHandler(appService, nil, nil)
	meHandler := NewMeHandler(nil)

	requireAuth := middleware.RequireAuth(authService, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", Meta)
	mux.Handle("POST /auth/register", http.HandlerFunc(authHandler.Register))
	mux.Handle("POST /auth/login", http.HandlerFunc(authHandler.Login))
	mux.Handle("GET /me", requireAuth(meHandler))
	mux.Handle("POST /applications", requireAuth(http.HandlerFunc(appHandler.Create)))
	mux.Handle("GET /applications", requireAuth(http.HandlerFunc(appHandler.List)))
	mux.Handle("GET /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Get)))
	mux.Handle("PATCH /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Update)))
	mux.Handle("DELETE /applications/{id}", requireAuth(http.HandlerFunc(appHandler.Delete)))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func registerAndLogin(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()

	resp := doJSON(t, server, "POST", "/auth/register", "", map[string]string{
		"email": email, "password": password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", email, resp.StatusCode)
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	loginResp, err := http.Post(server.URL+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, loginResp.StatusCode)
	}

	var tok TokenResponse
	if err := json.NewDecoder(loginResp.Body).Decode(&tok); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", tok)
	}
	return tok.AccessToken
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}
