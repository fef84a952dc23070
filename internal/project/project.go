// Package project stores saved grant funding plans as versioned records.
package project

import (
	"errors"
	"time"

	"github.com/rotarytools/grantcalc/internal/domain"
)

// CurrentSchemaVersion tags newly saved projects so stored documents stay
// interpretable when the inputs schema evolves.
const CurrentSchemaVersion = 1

var (
	// ErrNotFound indicates that the requested project was not found.
	ErrNotFound = errors.New("project not found")

	// ErrDuplicateApplication indicates that a project with the same
	// application number already exists.
	ErrDuplicateApplication = errors.New("application number already in use")

	// ErrMissingApplicationNumber indicates a project without the required
	// application number.
	ErrMissingApplicationNumber = errors.New("application number is required")
)

// Project is a saved funding plan for one grant application.
type Project struct {
	ID                string               `json:"id"`
	ApplicationNumber string               `json:"applicationNumber"`
	Country           string               `json:"country"`
	SchemaVersion     int                  `json:"schemaVersion"`
	Inputs            domain.FundingInputs `json:"inputs"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}
