// Package report renders a calculated grant financing plan as
// downloadable documents (PDF and Excel).
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/rotarytools/grantcalc/internal/domain"
)

// Meta identifies the grant application a document describes.
type Meta struct {
	ApplicationNumber string
	Country           string
	GeneratedAt       time.Time
}

const (
	pageMarginLeft   = 12.0
	pageMarginTop    = 14.0
	pageMarginRight  = 12.0
	pageMarginBottom = 18.0

	headerRowHeight = 7.0
	dataRowHeight   = 6.5
	maxNameChars    = 42
)

type rgb struct{ r, g, b int }

var (
	tableHeaderFill = rgb{68, 114, 196}
	totalRowFill    = rgb{242, 242, 242}
	passColor       = rgb{0, 128, 0}
	failColor       = rgb{192, 0, 0}
	warnColor       = rgb{176, 112, 0}
)

// Funding mix palette, one color per funding source.
var mixPalette = []rgb{
	{255, 153, 153},
	{102, 179, 255},
	{153, 255, 153},
	{255, 204, 153},
	{204, 153, 255},
}

// BuildPDF renders the financing planner document: one contribution
// table per sponsor category, the funding summary, the eligibility
// checks, and a funding mix chart.
func BuildPDF(meta Meta, in domain.FundingInputs, result domain.CalculationResult) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pageMarginLeft, pageMarginTop, pageMarginRight)
	pdf.SetAutoPageBreak(true, pageMarginBottom)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	writeTitle(pdf, meta)

	writeContributionTable(pdf, "Host Rotary Clubs/Districts", "Club/District", in.HostClubs, false)
	writeContributionTable(pdf, "International Rotary Clubs/Districts", "Club/District", in.InternationalClubs, false)
	writeContributionTable(pdf, "Other Donors", "Donor", in.OtherDonors, true)
	writeEndowedGift(pdf, in.EndowedGift)

	writeSummary(pdf, result.Breakdown)
	writeCompliance(pdf, result.Compliance)
	writeFundingMix(pdf, result.Breakdown)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTitle(pdf *gofpdf.Fpdf, meta Meta) {
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Global Grant Financing Planner", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(100, 100, 100)
	subtitle := fmt.Sprintf("Application #: %s | Project Country: %s",
		orDash(meta.ApplicationNumber), orDash(meta.Country))
	pdf.CellFormat(0, 7, subtitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, "Generated: "+meta.GeneratedAt.Format("2006-01-02"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func writeSectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func writeContributionTable(pdf *gofpdf.Fpdf, title, firstCol string, entries []domain.ContributionEntry, withAttestation bool) {
	writeSectionTitle(pdf, title)
	if len(entries) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, "No entries.", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		return
	}

	headers := []string{firstCol, "DDF (USD)", "Cash Direct to Project", "Cash through TRF (Equiv USD)", "5% Fee", "Total to TRF"}
	widths := []float64{74, 30, 38, 48, 26, 38}
	aligns := []string{"L", "R", "R", "R", "R", "R"}
	if withAttestation {
		headers = append(headers, "Attested")
		widths = []float64{52, 28, 38, 48, 24, 36, 28}
		aligns = append(aligns, "C")
	}

	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(tableHeaderFill.r, tableHeaderFill.g, tableHeaderFill.b)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], headerRowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	var ddf, direct, net, fee, toTRF decimal.Decimal
	for _, e := range entries {
		cells := []string{
			truncate(e.Name, maxNameChars),
			domain.FormatUSD(e.DDFAmount),
			domain.FormatUSD(e.CashDirect),
			domain.FormatUSD(e.NetCashTRF()),
			domain.FormatUSD(e.TRFFee()),
			domain.FormatUSD(e.DDFAmount.Add(e.CashThroughTRF)),
		}
		if withAttestation {
			cells = append(cells, yesNo(e.AttestedEligible()))
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], dataRowHeight, c, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)

		ddf = ddf.Add(e.DDFAmount)
		direct = direct.Add(e.CashDirect)
		net = net.Add(e.NetCashTRF())
		fee = fee.Add(e.TRFFee())
		toTRF = toTRF.Add(e.DDFAmount).Add(e.CashThroughTRF)
	}

	totals := []string{
		"Total",
		domain.FormatUSD(ddf),
		domain.FormatUSD(direct),
		domain.FormatUSD(net),
		domain.FormatUSD(fee),
		domain.FormatUSD(toTRF),
	}
	if withAttestation {
		totals = append(totals, "")
	}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(totalRowFill.r, totalRowFill.g, totalRowFill.b)
	for i, c := range totals {
		pdf.CellFormat(widths[i], dataRowHeight, c, "1", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)
}

func writeEndowedGift(pdf *gofpdf.Fpdf, gift *domain.EndowedGift) {
	if gift == nil {
		return
	}
	writeSectionTitle(pdf, "Endowed/Directed Gift")
	label := "Directed gift (no TRF fee, no World Fund match)"
	if gift.International {
		label = "Directed gift, international sponsor (no TRF fee, no World Fund match)"
	}
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(120, dataRowHeight, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, dataRowHeight, domain.FormatUSD(gift.Amount), "1", 1, "R", false, 0, "")
}

func writeSummary(pdf *gofpdf.Fpdf, b domain.FundingBreakdown) {
	writeSectionTitle(pdf, "Funding Summary")

	rows := []struct {
		label string
		value string
		bold  bool
	}{
		{"Total Host Contributions", domain.FormatUSD(b.HostTotal), false},
		{"Total International Contributions", domain.FormatUSD(b.InternationalTotal), false},
		{"Total Other Donor Contributions", domain.FormatUSD(b.OtherDonorTotal), false},
		{"TRF World Fund Match (80% of DDF)", domain.FormatUSD(b.WorldFundMatch), false},
		{"Endowed/Directed Gift", domain.FormatUSD(b.EndowedTotal), false},
		{"5% TRF Fee Withheld", domain.FormatUSD(b.TRFFee), false},
		{"Total Project Funding", domain.FormatUSD(b.GrandTotal), true},
		{"International Share of Funding", domain.FormatPercent(b.InternationalShare), false},
	}

	for _, row := range rows {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(120, dataRowHeight, row.label, "1", 0, "L", row.bold, 0, "")
		pdf.CellFormat(40, dataRowHeight, row.value, "1", 1, "R", row.bold, 0, "")
	}
}

func writeCompliance(pdf *gofpdf.Fpdf, c domain.ComplianceResult) {
	writeSectionTitle(pdf, "Eligibility Checks")

	for _, check := range c.Checks {
		status := "PASS"
		color := passColor
		if !check.Passed {
			status = "FAIL"
			color = failColor
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(color.r, color.g, color.b)
		pdf.CellFormat(26, 6, fmt.Sprintf("%s %s", check.RuleID, status), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 6, check.Message, "", 1, "L", false, 0, "")
	}

	for _, w := range c.Warnings {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(warnColor.r, warnColor.g, warnColor.b)
		pdf.CellFormat(0, 6, "Warning: "+w, "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

func writeFundingMix(pdf *gofpdf.Fpdf, b domain.FundingBreakdown) {
	segments := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Host Contributions", b.HostTotal},
		{"International Contributions", b.InternationalTotal},
		{"World Fund Match", b.WorldFundMatch},
		{"Other Donors", b.OtherDonorTotal},
		{"Endowed Gift", b.EndowedTotal},
	}

	largest := decimal.Zero
	for _, s := range segments {
		if s.amount.GreaterThan(largest) {
			largest = s.amount
		}
	}
	if largest.IsZero() {
		return
	}

	writeSectionTitle(pdf, "Funding Mix")
	const (
		labelWidth  = 56.0
		maxBarWidth = 140.0
		barHeight   = 4.6
	)
	barLeft := pageMarginLeft + labelWidth + 2

	pdf.SetDrawColor(120, 120, 120)
	for i, s := range segments {
		if s.amount.IsZero() {
			continue
		}
		y := pdf.GetY()
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(labelWidth, dataRowHeight, s.label, "", 0, "L", false, 0, "")

		ratio, _ := s.amount.Div(largest).Float64()
		color := mixPalette[i%len(mixPalette)]
		pdf.SetFillColor(color.r, color.g, color.b)
		pdf.Rect(barLeft, y+(dataRowHeight-barHeight)/2, maxBarWidth*ratio, barHeight, "FD")

		pdf.SetXY(barLeft+maxBarWidth*ratio+2, y)
		pdf.CellFormat(0, dataRowHeight, domain.FormatUSD(s.amount), "", 1, "L", false, 0, "")
	}
	pdf.SetDrawColor(0, 0, 0)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
