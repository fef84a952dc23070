package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rotarytools/grantcalc/internal/domain"
)

// Service owns the lifecycle of saved projects: identity assignment, input
// validation, and storage access.
type Service struct {
	repo Repository
}

// NewService creates a new project Service.
func NewService(repo Repository) *Service {
	if repo == nil {
		panic("project.NewService: repo is nil")
	}
	return &Service{repo: repo}
}

// Create validates the inputs and saves them as a new project.
func (s *Service) Create(ctx context.Context, applicationNumber, country string, inputs domain.FundingInputs) (Project, error) {
	if applicationNumber == "" {
		return Project{}, ErrMissingApplicationNumber
	}
	if err := inputs.Validate(); err != nil {
		return Project{}, fmt.Errorf("validating inputs: %w", err)
	}

	now := time.Now().UTC()
	p := Project{
		ID:                uuid.NewString(),
		ApplicationNumber: applicationNumber,
		Country:           country,
		SchemaVersion:     CurrentSchemaVersion,
		Inputs:            inputs,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Update replaces the country and funding inputs of an existing project.
// The application number is fixed at creation and never changes.
func (s *Service) Update(ctx context.Context, id, country string, inputs domain.FundingInputs) (Project, error) {
	if err := inputs.Validate(); err != nil {
		return Project{}, fmt.Errorf("validating inputs: %w", err)
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	p.Country = country
	p.Inputs = inputs
	p.SchemaVersion = CurrentSchemaVersion
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// ImportLegacy parses a planner document from the desktop tool and saves it
// as a new project.
func (s *Service) ImportLegacy(ctx context.Context, data []byte) (Project, error) {
	li, err := ParseLegacy(data)
	if err != nil {
		return Project{}, err
	}
	return s.Create(ctx, li.ApplicationNumber, li.Country, li.Inputs)
}

// Get retrieves a project by ID.
func (s *Service) Get(ctx context.Context, id string) (Project, error) {
	return s.repo.Get(ctx, id)
}

// GetByApplicationNumber retrieves a project by its application number.
func (s *Service) GetByApplicationNumber(ctx context.Context, applicationNumber string) (Project, error) {
	return s.repo.GetByApplicationNumber(ctx, applicationNumber)
}

// List retrieves all saved projects ordered by application number.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// Delete removes a project and its stored snapshots.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
