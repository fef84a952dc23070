package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
	"github.com/rotarytools/grantcalc/internal/engine"
	"github.com/rotarytools/grantcalc/internal/project"
	"github.com/rotarytools/grantcalc/internal/snapshot"
)

type mockSheetWriter struct {
	rows []GrantRow
	err  error
}

func (m *mockSheetWriter) Write(_ context.Context, rows []GrantRow) error {
	if m.err != nil {
		return m.err
	}
	m.rows = rows
	return nil
}

func projectRun(t *testing.T, appNum string, in domain.FundingInputs) snapshot.ProjectRun {
	t.Helper()
	breakdown, compliance, err := engine.Calculate(in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return snapshot.ProjectRun{
		Project: project.Project{ApplicationNumber: appNum, Country: "Uganda"},
		Date:    time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC),
		Result:  domain.CalculationResult{Breakdown: breakdown, Compliance: compliance},
	}
}

func TestServiceExport(t *testing.T) {
	qualified := projectRun(t, "GG-2024-0001", domain.FundingInputs{
		HostClubs: []domain.ContributionEntry{
			{Name: "Host Club", DDFAmount: decimal.NewFromInt(50_000)},
		},
		InternationalClubs: []domain.ContributionEntry{
			{Name: "Intl Club", DDFAmount: decimal.NewFromInt(50_000)},
		},
	})
	shortOnShare := projectRun(t, "GG-2024-0002", domain.FundingInputs{
		HostClubs: []domain.ContributionEntry{
			{Name: "Host Club", DDFAmount: decimal.NewFromInt(100_000)},
		},
	})

	writer := &mockSheetWriter{}
	svc := NewService(writer)

	err := svc.Export(context.Background(), []snapshot.ProjectRun{qualified, shortOnShare})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if len(writer.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(writer.rows))
	}

	first := writer.rows[0]
	if first.ApplicationNumber != "GG-2024-0001" {
		t.Errorf("application number: got %q", first.ApplicationNumber)
	}
	if !first.Qualified || !first.InternationalOK || !first.TotalOK || !first.DonorsOK {
		t.Errorf("expected fully qualified row, got %+v", first)
	}
	if got := first.GrandTotal.String(); got != "180000" {
		t.Errorf("grand total: got %s, want 180000", got)
	}

	second := writer.rows[1]
	if second.Qualified {
		t.Error("project without international funding should not qualify")
	}
	if second.InternationalOK {
		t.Error("international minimum should fail")
	}
	if !second.TotalOK || !second.DonorsOK {
		t.Errorf("only the international check should fail, got %+v", second)
	}
}

func TestServiceExportWriterError(t *testing.T) {
	wantErr := errors.New("sheet unavailable")
	svc := NewService(&mockSheetWriter{err: wantErr})

	err := svc.Export(context.Background(), nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestBuildGrantsValues(t *testing.T) {
	rows := []GrantRow{
		{
			ApplicationNumber:  "GG-2024-1187",
			Country:            "Uganda",
			TotalDDF:           decimal.NewFromInt(100_000),
			CashContributions:  decimal.NewFromInt(20_000),
			WorldFundMatch:     decimal.NewFromInt(80_000),
			GrandTotal:         decimal.NewFromInt(200_000),
			InternationalShare: decimal.NewFromFloat(0.09),
			InternationalOK:    false,
			TotalOK:            true,
			DonorsOK:           true,
			Qualified:          false,
			Date:               time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC),
		},
	}

	values := buildGrantsValues(rows)

	if len(values) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(values))
	}

	header := values[0]
	if len(header) != 13 {
		t.Errorf("header: expected 13 columns, got %d", len(header))
	}
	if header[0] != "Application #" {
		t.Errorf("header[0]: got %v", header[0])
	}
	if header[12] != "Updated" {
		t.Errorf("header[12]: got %v", header[12])
	}

	row := values[1]
	if row[0] != "GG-2024-1187" {
		t.Errorf("row[0]: got %v", row[0])
	}
	if v, ok := row[2].(float64); !ok || v != 100_000 {
		t.Errorf("row[2] total ddf: got %v", row[2])
	}
	if v, ok := row[7].(float64); !ok || v != 0.09 {
		t.Errorf("row[7] intl share: got %v", row[7])
	}
	if row[8] != "FAIL" {
		t.Errorf("row[8] intl minimum: got %v", row[8])
	}
	if row[9] != "PASS" {
		t.Errorf("row[9] funding minimum: got %v", row[9])
	}
	if row[11] != "NO" {
		t.Errorf("row[11] qualified: got %v", row[11])
	}
	if row[12] != "2026-02-24" {
		t.Errorf("row[12] updated: got %v", row[12])
	}
}

func TestBuildHistoryRow(t *testing.T) {
	row := buildHistoryRow(GrantRow{
		ApplicationNumber:  "GG-2024-1187",
		GrandTotal:         decimal.NewFromInt(200_000),
		InternationalShare: decimal.NewFromFloat(0.09),
		Qualified:          true,
		Date:               time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC),
	})

	if len(row) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(row))
	}
	if row[0] != "2026-02-24" {
		t.Errorf("date: got %v", row[0])
	}
	if row[1] != "GG-2024-1187" {
		t.Errorf("application number: got %v", row[1])
	}
	if v, ok := row[2].(float64); !ok || v != 200_000 {
		t.Errorf("total funding: got %v", row[2])
	}
	if row[4] != "YES" {
		t.Errorf("qualified: got %v", row[4])
	}
}
