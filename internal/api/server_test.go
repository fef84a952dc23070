package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantNext   bool
	}{
		{"valid token", "Bearer secret-key", http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"wrong token", "Bearer wrong-key", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic secret-key", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			handler := requireAuth("secret-key", next)
			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
		})
	}
}

func newTestServer(adminAPIKey string) *http.Server {
	projects := project.NewService(newMockProjectRepo())
	snapshots := snapshot.NewService(projects, &mockSnapshotRepo{})
	return NewServer("8080", projects, snapshots, adminAPIKey)
}

func TestServerProtectsMutations(t *testing.T) {
	srv := newTestServer("secret-key")

	// Reads stay open.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /projects status = %d, want 200", w.Code)
	}

	// Stateless calculation stays open too.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("POST /calculate status = %d, want 200", w.Code)
	}

	// Mutations need the key.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated POST /projects status = %d, want 401", w.Code)
	}

	// With the key the request reaches the handler, which rejects the
	// empty application number.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{"inputs": {}}`))
	req.Header.Set("Authorization", "Bearer secret-key")
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("authenticated POST /projects status = %d, want 400", w.Code)
	}
}

func TestServerOpenWithoutAdminKey(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{"inputs": {}}`))
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	// No 401: the handler itself rejects the empty application number.
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServerRoutesSnapshotEndpoints(t *testing.T) {
	srv := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1/snapshots/latest", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("snapshots/latest status = %d, want 404 for empty store", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1/snapshots/2026-02-24", nil)
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("snapshots/{date} status = %d, want 404 for empty store", w.Code)
	}
}
