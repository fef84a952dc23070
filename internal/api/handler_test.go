package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

type mockProjectRepo struct {
	projects map[string]project.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]project.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, p project.Project) error {
	for _, existing := range m.projects {
		if existing.ApplicationNumber == p.ApplicationNumber {
			return project.ErrDuplicateApplication
		}
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepo) Get(_ context.Context, id string) (project.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectRepo) GetByApplicationNumber(_ context.Context, applicationNumber string) (project.Project, error) {
	for _, p := range m.projects {
		if p.ApplicationNumber == applicationNumber {
			return p, nil
		}
	}
	return project.Project{}, project.ErrNotFound
}

func (m *mockProjectRepo) List(_ context.Context) ([]project.Project, error) {
	out := make([]project.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationNumber < out[j].ApplicationNumber })
	return out, nil
}

func (m *mockProjectRepo) Update(_ context.Context, p project.Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return project.ErrNotFound
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return project.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

type mockSnapshotRepo struct {
	saved         []snapshot.Snapshot
	lastListLimit int
}

func (m *mockSnapshotRepo) Save(_ context.Context, projectID string, date time.Time, data json.RawMessage) error {
	m.saved = append(m.saved, snapshot.Snapshot{
		ID:           len(m.saved) + 1,
		ProjectID:    projectID,
		SnapshotDate: date,
		Data:         data,
	})
	return nil
}

func (m *mockSnapshotRepo) GetLatest(_ context.Context, projectID string) (*snapshot.Snapshot, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].ProjectID == projectID {
			return &m.saved[i], nil
		}
	}
	return nil, snapshot.ErrNotFound
}

func (m *mockSnapshotRepo) GetByDate(_ context.Context, projectID string, date time.Time) (*snapshot.Snapshot, error) {
	for i := range m.saved {
		if m.saved[i].ProjectID == projectID && m.saved[i].SnapshotDate.Equal(date) {
			return &m.saved[i], nil
		}
	}
	return nil, snapshot.ErrNotFound
}

func (m *mockSnapshotRepo) List(_ context.Context, projectID string, limit int) ([]snapshot.Snapshot, error) {
	m.lastListLimit = limit
	out := make([]snapshot.Snapshot, 0)
	for _, s := range m.saved {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func newTestHandler() (*Handler, *mockProjectRepo, *mockSnapshotRepo) {
	projRepo := newMockProjectRepo()
	snapRepo := &mockSnapshotRepo{}
	projects := project.NewService(projRepo)
	snapshots := snapshot.NewService(projects, snapRepo)
	return NewHandler(projects, snapshots), projRepo, snapRepo
}

func seedProject(t *testing.T, repo *mockProjectRepo) project.Project {
	t.Helper()
	p := project.Project{
		ID:                "p-1",
		ApplicationNumber: "GG-2024-1187",
		Country:           "Uganda",
		SchemaVersion:     project.CurrentSchemaVersion,
		Inputs: domain.FundingInputs{
			HostClubs: []domain.ContributionEntry{
				{Name: "Rotary Club of Kampala", DDFAmount: decimal.NewFromInt(100_000)},
			},
			InternationalClubs: []domain.ContributionEntry{
				{Name: "Rotary Club of Zurich", CashDirect: decimal.NewFromInt(18_000)},
			},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	repo.projects[p.ID] = p
	return p
}

func TestCalculateAdhoc(t *testing.T) {
	handler, _, _ := newTestHandler()

	body := `{
		"hostClubs": [{"name": "Host Club", "ddfAmount": "100000"}],
		"internationalClubs": [{"name": "Intl Club", "cashDirect": "18000"}],
		"otherDonors": [{"name": "Foundation", "cashDirect": "2000", "notCooperatingOrg": true, "notProjectBeneficiary": true}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Calculate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result domain.CalculationResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got := result.Breakdown.GrandTotal.String(); got != "200000" {
		t.Errorf("grand total = %s, want 200000", got)
	}
	if result.Compliance.AllPassed() {
		t.Error("international minimum should fail at a 9% share")
	}
}

func TestCalculateAdhocRejectsNegative(t *testing.T) {
	handler, _, _ := newTestHandler()

	body := `{"hostClubs": [{"name": "Host Club", "ddfAmount": "-5"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Calculate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCalculateAdhocBadBody(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	handler.Calculate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateProject(t *testing.T) {
	handler, repo, _ := newTestHandler()

	body := `{
		"applicationNumber": "GG-2024-0001",
		"country": "Kenya",
		"inputs": {"hostClubs": [{"name": "Club", "ddfAmount": "1000"}]}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.CreateProject(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var p project.Project
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if p.ID == "" {
		t.Error("expected assigned project ID")
	}
	if p.ApplicationNumber != "GG-2024-0001" {
		t.Errorf("application number = %q", p.ApplicationNumber)
	}
	if len(repo.projects) != 1 {
		t.Errorf("stored projects = %d, want 1", len(repo.projects))
	}
}

func TestCreateProjectDuplicate(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seedProject(t, repo)

	body := `{"applicationNumber": "GG-2024-1187", "inputs": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.CreateProject(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestCreateProjectInvalidInputs(t *testing.T) {
	handler, _, _ := newTestHandler()

	body := `{
		"applicationNumber": "GG-2024-0002",
		"inputs": {"hostClubs": [{"name": "Club", "cashThroughTRF": "-100"}]}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.CreateProject(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateProjectMissingApplicationNumber(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{"inputs": {}}`))
	w := httptest.NewRecorder()
	handler.CreateProject(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetProject(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seeded := seedProject(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1", nil)
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.GetProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var p project.Project
	json.NewDecoder(w.Body).Decode(&p)
	if p.ApplicationNumber != seeded.ApplicationNumber {
		t.Errorf("application number = %q, want %q", p.ApplicationNumber, seeded.ApplicationNumber)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.GetProject(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListProjects(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seedProject(t, repo)
	repo.projects["p-2"] = project.Project{ID: "p-2", ApplicationNumber: "GG-2024-2000"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	handler.ListProjects(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var projects []project.Project
	json.NewDecoder(w.Body).Decode(&projects)
	if len(projects) != 2 {
		t.Errorf("project count = %d, want 2", len(projects))
	}
}

func TestUpdateProject(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seedProject(t, repo)

	body := `{
		"country": "Tanzania",
		"inputs": {"hostClubs": [{"name": "New Club", "ddfAmount": "5000"}]}
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/projects/p-1", strings.NewReader(body))
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.UpdateProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	stored := repo.projects["p-1"]
	if stored.Country != "Tanzania" {
		t.Errorf("country = %q, want Tanzania", stored.Country)
	}
	if stored.ApplicationNumber != "GG-2024-1187" {
		t.Error("application number must not change on update")
	}
	if len(stored.Inputs.HostClubs) != 1 || stored.Inputs.HostClubs[0].Name != "New Club" {
		t.Errorf("inputs not replaced: %+v", stored.Inputs.HostClubs)
	}
}

func TestUpdateProjectNotFound(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/projects/missing", strings.NewReader(`{"inputs": {}}`))
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.UpdateProject(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteProject(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seedProject(t, repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/p-1", nil)
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.DeleteProject(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if len(repo.projects) != 0 {
		t.Error("project should be removed")
	}
}

func TestImportLegacyProject(t *testing.T) {
	handler, repo, _ := newTestHandler()

	body := `{
		"application_number": "GG-1234",
		"project_country": "Peru",
		"host_clubs": [{"name": "Lima Norte", "ddf": 5000, "cash": 2000}],
		"international_clubs": [],
		"ddf": 1000,
		"other_donors": [{"name": "Benefactor", "amount": 500}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/import", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ImportLegacyProject(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var p project.Project
	json.NewDecoder(w.Body).Decode(&p)
	if len(p.Inputs.HostClubs) != 2 {
		t.Errorf("host clubs = %d, want club plus district DDF entry", len(p.Inputs.HostClubs))
	}
	if len(p.Inputs.OtherDonors) != 1 {
		t.Errorf("other donors = %d, want 1", len(p.Inputs.OtherDonors))
	}
	if len(repo.projects) != 1 {
		t.Errorf("stored projects = %d, want 1", len(repo.projects))
	}
}

func TestImportLegacyProjectBadDocument(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/import", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	handler.ImportLegacyProject(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCalculateProjectStoresSnapshot(t *testing.T) {
	handler, repo, snapRepo := newTestHandler()
	seedProject(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p-1/calculate", nil)
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.CalculateProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(snapRepo.saved) != 1 {
		t.Fatalf("saved snapshots = %d, want 1", len(snapRepo.saved))
	}
	if snapRepo.saved[0].ProjectID != "p-1" {
		t.Errorf("snapshot project = %q, want p-1", snapRepo.saved[0].ProjectID)
	}

	var stored domain.CalculationResult
	if err := json.Unmarshal(snapRepo.saved[0].Data, &stored); err != nil {
		t.Fatalf("unmarshaling stored data: %v", err)
	}
	if got := stored.Breakdown.GrandTotal.String(); got != "198000" {
		t.Errorf("stored grand total = %s, want 198000", got)
	}
}

func TestCalculateProjectNotFound(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/missing/calculate", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.CalculateProject(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetLatestProjectSnapshotNotFound(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seedProject(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1/snapshots/latest", nil)
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.GetLatestProjectSnapshot(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetProjectSnapshotByDateInvalid(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1/snapshots/not-a-date", nil)
	req.SetPathValue("id", "p-1")
	req.SetPathValue("date", "not-a-date")
	w := httptest.NewRecorder()
	handler.GetProjectSnapshotByDate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListProjectSnapshotsLimitCappedAt365(t *testing.T) {
	handler, _, snapRepo := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1/snapshots?limit=9999", nil)
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.ListProjectSnapshots(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if snapRepo.lastListLimit != 365 {
		t.Errorf("limit passed to repo = %d, want 365 (should be capped)", snapRepo.lastListLimit)
	}
}

func TestDownloadPDFReport(t *testing.T) {
	handler, repo, _ := newTestHandler()
	seedProject(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1/report.pdf", nil)
	req.SetPathValue("id", "p-1")
	w := httptest.NewRecorder()
	handler.DownloadPDFReport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "rotary_grant_report_GG-2024-1187.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF-") {
		t.Error("body should be a PDF document")
	}
}

func TestDownloadExcelReportNotFound(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/missing/report.xlsx", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.DownloadExcelReport(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestReportFileName(t *testing.T) {
	if got := reportFileName("GG-2024-1187", "pdf"); got != "rotary_grant_report_GG-2024-1187.pdf" {
		t.Errorf("got %q", got)
	}
	if got := reportFileName("GG 2024/1187", "xlsx"); got != "rotary_grant_report_GG_2024_1187.xlsx" {
		t.Errorf("got %q", got)
	}
	if got := reportFileName("", "pdf"); got != "rotary_grant_report_project.pdf" {
		t.Errorf("got %q", got)
	}
}
