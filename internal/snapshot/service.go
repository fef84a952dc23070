package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/engine"
	"github.com/rotarytools/grantcalc/internal/project"
)

// ProjectStore defines the project lookup interface.
type ProjectStore interface {
	Get(ctx context.Context, id string) (project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
}

// ProjectRun pairs a project with the calculation result stored for it.
type ProjectRun struct {
	Project project.Project
	Date    time.Time
	Result  domain.CalculationResult
}

// Service recalculates saved projects and stores the results as dated
// snapshots, one per project per day. Storing recalculated results keeps
// period-over-period comparison possible even after the policy parameters
// or a project's inputs change.
type Service struct {
	projects ProjectStore
	repo     Repository
}

// NewService creates a new snapshot Service. All dependencies are required.
func NewService(projects ProjectStore, repo Repository) *Service {
	if projects == nil {
		panic("snapshot.NewService: projects is nil")
	}
	if repo == nil {
		panic("snapshot.NewService: repo is nil")
	}
	return &Service{projects: projects, repo: repo}
}

// Generate recalculates one project and stores the result under the given
// date, replacing any snapshot already stored for that date.
func (s *Service) Generate(ctx context.Context, projectID string, date time.Time) (domain.CalculationResult, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return domain.CalculationResult{}, fmt.Errorf("getting project: %w", err)
	}
	return s.run(ctx, p, date)
}

// GenerateAll recalculates every saved project for the given date. A
// project whose stored inputs no longer calculate is logged and skipped so
// the rest of the run completes.
func (s *Service) GenerateAll(ctx context.Context, date time.Time) ([]ProjectRun, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	runs := make([]ProjectRun, 0, len(projects))
	for _, p := range projects {
		result, err := s.run(ctx, p, date)
		if err != nil {
			slog.Error("snapshot generation failed", "project", p.ApplicationNumber, "error", err)
			continue
		}
		runs = append(runs, ProjectRun{Project: p, Date: date, Result: result})
	}
	return runs, nil
}

func (s *Service) run(ctx context.Context, p project.Project, date time.Time) (domain.CalculationResult, error) {
	breakdown, compliance, err := engine.Calculate(p.Inputs)
	if err != nil {
		return domain.CalculationResult{}, fmt.Errorf("calculating %s: %w", p.ApplicationNumber, err)
	}
	result := domain.CalculationResult{Breakdown: breakdown, Compliance: compliance}

	data, err := json.Marshal(result)
	if err != nil {
		return domain.CalculationResult{}, fmt.Errorf("marshaling result: %w", err)
	}
	if err := s.repo.Save(ctx, p.ID, date, data); err != nil {
		return domain.CalculationResult{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return result, nil
}

// GetLatest retrieves the most recent snapshot for the project.
func (s *Service) GetLatest(ctx context.Context, projectID string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, projectID)
}

// GetByDate retrieves the project's snapshot for a specific date.
func (s *Service) GetByDate(ctx context.Context, projectID string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, projectID, date)
}

// List retrieves recent snapshots for the project.
func (s *Service) List(ctx context.Context, projectID string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, projectID, limit)
}
