package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

// Handler provides HTTP endpoints for the grant planner API.
type Handler struct {
	projects  *project.Service
	snapshots *snapshot.Service
}

// NewHandler creates a new API handler.
func NewHandler(projects *project.Service, snapshots *snapshot.Service) *Handler {
	return &Handler{projects: projects, snapshots: snapshots}
}

type projectRequest struct {
	ApplicationNumber string               `json:"applicationNumber"`
	Country           string               `json:"country"`
	Inputs            domain.FundingInputs `json:"inputs"`
}

// ListProjects handles GET /api/v1/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		slog.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		slog.Error("failed to get project", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject handles POST /api/v1/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.projects.Create(r.Context(), req.ApplicationNumber, req.Country, req.Inputs)
	if err != nil {
		switch {
		case isBadInput(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, project.ErrDuplicateApplication):
			writeError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to create project", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject handles PUT /api/v1/projects/{id}.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.projects.Update(r.Context(), r.PathValue("id"), req.Country, req.Inputs)
	if err != nil {
		switch {
		case isBadInput(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, project.ErrNotFound):
			writeError(w, http.StatusNotFound, "project not found")
		default:
			slog.Error("failed to update project", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/v1/projects/{id}.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		slog.Error("failed to delete project", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportLegacyProject handles POST /api/v1/projects/import. The request
// body is a planner document saved by the desktop tool.
func (h *Handler) ImportLegacyProject(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body failed")
		return
	}

	li, err := project.ParseLegacy(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.projects.Create(r.Context(), li.ApplicationNumber, li.Country, li.Inputs)
	if err != nil {
		switch {
		case isBadInput(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, project.ErrDuplicateApplication):
			writeError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to import project", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// isBadInput reports whether the error came from the caller's data rather
// than from storage.
func isBadInput(err error) bool {
	return errors.Is(err, project.ErrMissingApplicationNumber) ||
		errors.Is(err, domain.ErrNegativeAmount) ||
		errors.Is(err, domain.ErrMissingName) ||
		errors.Is(err, domain.ErrUnknownCategory)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
