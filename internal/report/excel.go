package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rotarytools/grantcalc/internal/domain"
)

const (
	sheetContributions = "Contributions"
	sheetSummary       = "Summary"
	sheetCompliance    = "Compliance"

	usdNumFmt     = "$#,##0.00"
	percentNumFmt = "0.00%"
)

type sheetStyles struct {
	header  int
	usd     int
	usdBold int
	percent int
	bold    int
}

// BuildExcel renders the financing plan as a workbook with one sheet
// for contribution entries, one for the funding summary, and one for
// the eligibility checks.
func BuildExcel(meta Meta, in domain.FundingInputs, result domain.CalculationResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetContributions)
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("creating sheet %s: %w", sheetSummary, err)
	}
	if _, err := f.NewSheet(sheetCompliance); err != nil {
		return nil, fmt.Errorf("creating sheet %s: %w", sheetCompliance, err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeContributionsSheet(f, styles, in); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, styles, meta, result.Breakdown); err != nil {
		return nil, err
	}
	if err := writeComplianceSheet(f, styles, result.Compliance); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    cellBorder(),
	})
	if err != nil {
		return s, fmt.Errorf("creating header style: %w", err)
	}

	usd := usdNumFmt
	s.usd, err = f.NewStyle(&excelize.Style{CustomNumFmt: &usd})
	if err != nil {
		return s, fmt.Errorf("creating currency style: %w", err)
	}
	s.usdBold, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &usd,
	})
	if err != nil {
		return s, fmt.Errorf("creating bold currency style: %w", err)
	}

	pct := percentNumFmt
	s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &pct})
	if err != nil {
		return s, fmt.Errorf("creating percent style: %w", err)
	}

	s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}})
	if err != nil {
		return s, fmt.Errorf("creating bold style: %w", err)
	}
	return s, nil
}

func cellBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func writeContributionsSheet(f *excelize.File, styles sheetStyles, in domain.FundingInputs) error {
	writeHeaderRow(f, sheetContributions, []string{
		"Category", "Name", "DDF (USD)", "Cash Direct to Project",
		"Cash through TRF (Gross)", "5% Fee", "Cash through TRF (Net)",
		"Total", "Attested",
	}, styles.header)

	row := 2
	appendEntries := func(category string, entries []domain.ContributionEntry, attested bool) {
		for _, e := range entries {
			att := ""
			if attested {
				att = yesNo(e.AttestedEligible())
			}
			setRow(f, sheetContributions, row, []any{
				category,
				e.Name,
				e.DDFAmount.InexactFloat64(),
				e.CashDirect.InexactFloat64(),
				e.CashThroughTRF.InexactFloat64(),
				e.TRFFee().InexactFloat64(),
				e.NetCashTRF().InexactFloat64(),
				e.Total().InexactFloat64(),
				att,
			})
			row++
		}
	}
	appendEntries("Host", in.HostClubs, false)
	appendEntries("International", in.InternationalClubs, false)
	appendEntries("Other Donor", in.OtherDonors, true)

	if row > 2 {
		f.SetCellStyle(sheetContributions, "C2", fmt.Sprintf("H%d", row-1), styles.usd)
	}
	f.SetColWidth(sheetContributions, "A", "A", 14)
	f.SetColWidth(sheetContributions, "B", "B", 36)
	f.SetColWidth(sheetContributions, "C", "H", 22)
	f.SetColWidth(sheetContributions, "I", "I", 10)
	return freezeHeader(f, sheetContributions)
}

func writeSummarySheet(f *excelize.File, styles sheetStyles, meta Meta, b domain.FundingBreakdown) error {
	writeHeaderRow(f, sheetSummary, []string{"Item", "Value"}, styles.header)

	setRow(f, sheetSummary, 2, []any{"Application #", orDash(meta.ApplicationNumber)})
	setRow(f, sheetSummary, 3, []any{"Project Country", orDash(meta.Country)})

	money := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Total DDF", b.TotalDDF},
		{"Total Cash Direct to Project", b.TotalCashDirect},
		{"Total Cash through TRF (Gross)", b.TotalCashTRF},
		{"5% TRF Fee Withheld", b.TRFFee},
		{"Net Cash through TRF", b.NetCashTRF},
		{"Cash Contributions", b.CashContributions},
		{"World Fund Match before Cap", b.WorldFundMatchRaw},
		{"TRF World Fund Match", b.WorldFundMatch},
		{"Host Contributions", b.HostTotal},
		{"International Contributions", b.InternationalTotal},
		{"Other Donor Contributions", b.OtherDonorTotal},
		{"Endowed/Directed Gift", b.EndowedTotal},
		{"Total Project Funding", b.GrandTotal},
	}
	row := 4
	for _, m := range money {
		setRow(f, sheetSummary, row, []any{m.label, m.amount.InexactFloat64()})
		cell, _ := excelize.CoordinatesToCellName(2, row)
		f.SetCellStyle(sheetSummary, cell, cell, styles.usd)
		row++
	}

	grandRow := row - 1
	labelCell, _ := excelize.CoordinatesToCellName(1, grandRow)
	f.SetCellStyle(sheetSummary, labelCell, labelCell, styles.bold)
	amountCell, _ := excelize.CoordinatesToCellName(2, grandRow)
	f.SetCellStyle(sheetSummary, amountCell, amountCell, styles.usdBold)

	setRow(f, sheetSummary, row, []any{"International Share of Funding", b.InternationalShare.InexactFloat64()})
	shareCell, _ := excelize.CoordinatesToCellName(2, row)
	f.SetCellStyle(sheetSummary, shareCell, shareCell, styles.percent)

	f.SetColWidth(sheetSummary, "A", "A", 34)
	f.SetColWidth(sheetSummary, "B", "B", 20)
	return freezeHeader(f, sheetSummary)
}

func writeComplianceSheet(f *excelize.File, styles sheetStyles, c domain.ComplianceResult) error {
	writeHeaderRow(f, sheetCompliance, []string{"Rule", "Status", "Details"}, styles.header)

	row := 2
	for _, check := range c.Checks {
		status := "PASS"
		if !check.Passed {
			status = "FAIL"
		}
		setRow(f, sheetCompliance, row, []any{check.RuleID, status, check.Message})
		row++
	}
	for _, w := range c.Warnings {
		setRow(f, sheetCompliance, row, []any{"", "WARNING", w})
		row++
	}

	f.SetColWidth(sheetCompliance, "A", "A", 8)
	f.SetColWidth(sheetCompliance, "B", "B", 12)
	f.SetColWidth(sheetCompliance, "C", "C", 90)
	return freezeHeader(f, sheetCompliance)
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, styleID int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, styleID)
	}
}

func setRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
