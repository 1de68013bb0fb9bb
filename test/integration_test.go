package test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// TestHealthEndpoint verifies the liveness endpoint
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/health")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

// TestReadinessEndpoint verifies the readiness endpoint
func TestReadinessEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/readyz")
	if err != nil {
		t.Fatalf("Readiness check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)
}

// TestMetricsEndpoint verifies the Prometheus metrics endpoint
func TestMetricsEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/metrics")
	if err != nil {
		t.Fatalf("Metrics endpoint failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Errorf("Expected metrics data, got empty response")
	}
}

// TestRootEndpoint verifies the service info endpoint
func TestRootEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/")
	if err != nil {
		t.Fatalf("Root endpoint failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["name"] == "" {
		t.Errorf("Expected service name in response, got %v", body)
	}
}

// TestApplicationLifecycle walks the whole surface end to end: register,
// login, create, list, patch, soft delete, list again.
func TestApplicationLifecycle(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	// Register
	resp := postJSON(t, server.URL()+"/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "Password123",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	resp.Body.Close()

	// Login (form-encoded)
	form := url.Values{"username": {"alice@example.com"}, "password": {"Password123"}}
	loginResp, err := http.Post(server.URL()+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	AssertStatusCode(t, loginResp, http.StatusOK)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	json.NewDecoder(loginResp.Body).Decode(&tok)
	loginResp.Body.Close()
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", tok)
	}
	token := tok.AccessToken

	// Create
	resp = postJSON(t, server.URL()+"/applications", token, map[string]any{
		"company": "Acme", "role_title": "Backend Engineer", "location": "Berlin",
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	var created map[string]any
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created["status"] != "applied" {
		t.Fatalf("expected default status applied, got %v", created["status"])
	}
	id := int64(created["id"].(float64))
	appPath := fmt.Sprintf("%s/applications/%d", server.URL(), id)

	// List shows one row
	apps := listApps(t, server.URL()+"/applications", token)
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}

	// Patch the status
	resp = doAuthed(t, "PATCH", appPath, token, map[string]any{"status": "interview"})
	AssertStatusCode(t, resp, http.StatusOK)
	var patched map[string]any
	json.NewDecoder(resp.Body).Decode(&patched)
	resp.Body.Close()
	if patched["status"] != "interview" {
		t.Fatalf("expected status interview, got %v", patched["status"])
	}
	if patched["location"] != "Berlin" {
		t.Fatalf("expected location untouched, got %v", patched["location"])
	}

	// Soft delete
	resp = doAuthed(t, "DELETE", appPath, token, nil)
	AssertStatusCode(t, resp, http.StatusNoContent)
	resp.Body.Close()

	// Gone from the default listing, still there with include_inactive
	apps = listApps(t, server.URL()+"/applications", token)
	if len(apps) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(apps))
	}
	apps = listApps(t, server.URL()+"/applications?include_inactive=true", token)
	if len(apps) != 1 {
		t.Fatalf("expected 1 inactive application, got %d", len(apps))
	}
	if apps[0]["is_active"] != false {
		t.Fatalf("expected is_active false, got %v", apps[0]["is_active"])
	}
}

// TestContentTypeEnforcement verifies JSON endpoints reject non-JSON bodies
func TestContentTypeEnforcement(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Post(server.URL()+"/auth/register", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusUnsupportedMediaType)
}

func postJSON(t *testing.T, endpoint, token string, body any) *http.Response {
	t.Helper()
	return doAuthed(t, "POST", endpoint, token, body)
}

func doAuthed(t *testing.T, method, endpoint, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequest(method, endpoint, reader)
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

func listApps(t *testing.T, endpoint, token string) []map[string]any {
	t.Helper()

	resp := doAuthed(t, "GET", endpoint, token, nil)
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusOK)

	var apps []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&apps); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	return apps
}
