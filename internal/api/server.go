package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

// NewServer creates an HTTP server with all routes configured. When
// adminAPIKey is set, every mutating route requires it as a bearer token.
func NewServer(port string, projects *project.Service, snapshots *snapshot.Service, adminAPIKey string) *http.Server {
	handler := NewHandler(projects, snapshots)

	protect := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/calculate", handler.Calculate)

	mux.HandleFunc("GET /api/v1/projects", handler.ListProjects)
	mux.HandleFunc("GET /api/v1/projects/{id}", handler.GetProject)
	mux.Handle("POST /api/v1/projects", protect(handler.CreateProject))
	mux.Handle("POST /api/v1/projects/import", protect(handler.ImportLegacyProject))
	mux.Handle("PUT /api/v1/projects/{id}", protect(handler.UpdateProject))
	mux.Handle("DELETE /api/v1/projects/{id}", protect(handler.DeleteProject))

	mux.Handle("POST /api/v1/projects/{id}/calculate", protect(handler.CalculateProject))
	mux.HandleFunc("GET /api/v1/projects/{id}/snapshots", handler.ListProjectSnapshots)
	mux.HandleFunc("GET /api/v1/projects/{id}/snapshots/latest", handler.GetLatestProjectSnapshot)
	mux.HandleFunc("GET /api/v1/projects/{id}/snapshots/{date}", handler.GetProjectSnapshotByDate)

	mux.HandleFunc("GET /api/v1/projects/{id}/report.pdf", handler.DownloadPDFReport)
	mux.HandleFunc("GET /api/v1/projects/{id}/report.xlsx", handler.DownloadExcelReport)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
