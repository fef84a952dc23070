package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/engine"
	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/report"
)

// DownloadPDFReport handles GET /api/v1/projects/{id}/report.pdf. The
// report always reflects a fresh calculation of the stored inputs.
func (h *Handler) DownloadPDFReport(w http.ResponseWriter, r *http.Request) {
	p, result, ok := h.projectResult(w, r)
	if !ok {
		return
	}

	data, err := report.BuildPDF(reportMeta(p), p.Inputs, result)
	if err != nil {
		slog.Error("failed to build pdf report", "project", p.ApplicationNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeAttachment(w, data, "application/pdf", reportFileName(p.ApplicationNumber, "pdf"))
}

// DownloadExcelReport handles GET /api/v1/projects/{id}/report.xlsx.
func (h *Handler) DownloadExcelReport(w http.ResponseWriter, r *http.Request) {
	p, result, ok := h.projectResult(w, r)
	if !ok {
		return
	}

	data, err := report.BuildExcel(reportMeta(p), p.Inputs, result)
	if err != nil {
		slog.Error("failed to build excel report", "project", p.ApplicationNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeAttachment(w, data,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		reportFileName(p.ApplicationNumber, "xlsx"))
}

func (h *Handler) projectResult(w http.ResponseWriter, r *http.Request) (project.Project, domain.CalculationResult, bool) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return project.Project{}, domain.CalculationResult{}, false
		}
		slog.Error("failed to get project", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return project.Project{}, domain.CalculationResult{}, false
	}

	breakdown, compliance, err := engine.Calculate(p.Inputs)
	if err != nil {
		slog.Error("stored inputs no longer calculate", "project", p.ApplicationNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return project.Project{}, domain.CalculationResult{}, false
	}
	return p, domain.CalculationResult{Breakdown: breakdown, Compliance: compliance}, true
}

func reportMeta(p project.Project) report.Meta {
	return report.Meta{
		ApplicationNumber: p.ApplicationNumber,
		Country:           p.Country,
		GeneratedAt:       time.Now().UTC(),
	}
}

func writeAttachment(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
	}
}

// reportFileName builds a download name from the application number,
// keeping only filesystem-safe characters.
func reportFileName(applicationNumber, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, applicationNumber)
	if safe == "" {
		safe = "project"
	}
	return "rotary_grant_report_" + safe + "." + ext
}
