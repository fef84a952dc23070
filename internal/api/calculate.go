package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/engine"
	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

// Calculate handles POST /api/v1/calculate. The request body is a set of
// funding inputs; nothing is stored.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var in domain.FundingInputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	breakdown, compliance, err := engine.Calculate(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.CalculationResult{Breakdown: breakdown, Compliance: compliance})
}

// CalculateProject handles POST /api/v1/projects/{id}/calculate. The result
// is stored as today's snapshot for the project and returned.
func (h *Handler) CalculateProject(w http.ResponseWriter, r *http.Request) {
	result, err := h.snapshots.Generate(r.Context(), r.PathValue("id"), utcDate(time.Now()))
	if err != nil {
		switch {
		case errors.Is(err, project.ErrNotFound):
			writeError(w, http.StatusNotFound, "project not found")
		case isBadInput(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to calculate project", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetLatestProjectSnapshot handles GET /api/v1/projects/{id}/snapshots/latest.
func (h *Handler) GetLatestProjectSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.GetLatest(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetProjectSnapshotByDate handles GET /api/v1/projects/{id}/snapshots/{date}.
func (h *Handler) GetProjectSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), r.PathValue("id"), date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListProjectSnapshots handles GET /api/v1/projects/{id}/snapshots.
func (h *Handler) ListProjectSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.List(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
