package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/engine"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

// GrantRow holds one project's calculated standing for the dashboard.
type GrantRow struct {
	ApplicationNumber  string
	Country            string
	TotalDDF           decimal.Decimal
	CashContributions  decimal.Decimal
	WorldFundMatch     decimal.Decimal
	EndowedTotal       decimal.Decimal
	GrandTotal         decimal.Decimal
	InternationalShare decimal.Decimal
	InternationalOK    bool
	TotalOK            bool
	DonorsOK           bool
	Qualified          bool
	Date               time.Time
}

// SheetWriter writes grant rows to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, rows []GrantRow) error
}

// Service turns revalidation runs into dashboard rows and delegates writing
// to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	if writer == nil {
		panic("export.NewService: writer is nil")
	}
	return &Service{writer: writer}
}

// Export writes one row per revalidated project to the sheet.
// Implements worker.AfterRunHook.
func (s *Service) Export(ctx context.Context, runs []snapshot.ProjectRun) error {
	rows := lo.Map(runs, func(run snapshot.ProjectRun, _ int) GrantRow {
		return buildRow(run)
	})
	if err := s.writer.Write(ctx, rows); err != nil {
		return fmt.Errorf("writing grant rows: %w", err)
	}
	return nil
}

func buildRow(run snapshot.ProjectRun) GrantRow {
	b := run.Result.Breakdown
	c := run.Result.Compliance
	return GrantRow{
		ApplicationNumber:  run.Project.ApplicationNumber,
		Country:            run.Project.Country,
		TotalDDF:           b.TotalDDF,
		CashContributions:  b.CashContributions,
		WorldFundMatch:     b.WorldFundMatch,
		EndowedTotal:       b.EndowedTotal,
		GrandTotal:         b.GrandTotal,
		InternationalShare: b.InternationalShare,
		InternationalOK:    checkPassed(c, engine.RuleInternationalMinimum),
		TotalOK:            checkPassed(c, engine.RuleTotalMinimum),
		DonorsOK:           checkPassed(c, engine.RuleDonorEligibility),
		Qualified:          c.AllPassed(),
		Date:               run.Date,
	}
}

func checkPassed(c domain.ComplianceResult, ruleID string) bool {
	check, ok := c.Check(ruleID)
	return ok && check.Passed
}
