package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	grantsSheet  = "GRANTS"
	historySheet = "HISTORY"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures the dashboard sheets exist, rewrites GRANTS with the current
// standing of every project, and appends one HISTORY row per run.
func (w *SheetsWriter) Write(ctx context.Context, rows []GrantRow) error {
	if err := w.ensureSheets(ctx, grantsSheet, historySheet); err != nil {
		return err
	}

	grantsValues := buildGrantsValues(rows)

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: []string{grantsSheet + "!A:M"},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: []*sheets.ValueRange{
				{Range: grantsSheet + "!A1", Values: grantsValues},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	return w.appendHistory(ctx, rows)
}

// appendHistory writes the header row if the sheet is empty, then appends
// one row per project run.
func (w *SheetsWriter) appendHistory(ctx context.Context, rows []GrantRow) error {
	existing, err := w.svc.Spreadsheets.Values.Get(
		w.spreadsheetID, historySheet+"!A1:A1",
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading HISTORY header: %w", err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			historySheet+"!A1",
			&sheets.ValueRange{Values: [][]any{historyHeader()}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing HISTORY header: %w", err)
		}
	}

	data := make([][]any, 0, len(rows))
	for _, row := range rows {
		data = append(data, buildHistoryRow(row))
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		historySheet+"!A:E",
		&sheets.ValueRange{Values: data},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending HISTORY rows: %w", err)
	}

	return nil
}

// buildGrantsValues builds the GRANTS sheet data.
// Columns: Application # | Country | Total DDF | Cash Contributions | World Fund Match |
// Endowed Gift | Total Funding | Intl Share | Intl Minimum | Funding Minimum |
// Donor Eligibility | Qualified | Updated
func buildGrantsValues(rows []GrantRow) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, []any{
		"Application #", "Country", "Total DDF", "Cash Contributions",
		"World Fund Match", "Endowed Gift", "Total Funding", "Intl Share",
		"Intl Minimum", "Funding Minimum", "Donor Eligibility", "Qualified", "Updated",
	})

	for _, row := range rows {
		data = append(data, []any{
			row.ApplicationNumber,
			row.Country,
			toFloat(row.TotalDDF),
			toFloat(row.CashContributions),
			toFloat(row.WorldFundMatch),
			toFloat(row.EndowedTotal),
			toFloat(row.GrandTotal),
			toFloat(row.InternationalShare),
			passFail(row.InternationalOK),
			passFail(row.TotalOK),
			passFail(row.DonorsOK),
			yesNo(row.Qualified),
			row.Date.UTC().Format("2006-01-02"),
		})
	}

	return data
}

// historyHeader returns the HISTORY sheet header row.
// Columns: Date | Application # | Total Funding | Intl Share | Qualified
func historyHeader() []any {
	return []any{"Date", "Application #", "Total Funding", "Intl Share", "Qualified"}
}

// buildHistoryRow builds one HISTORY append row.
func buildHistoryRow(row GrantRow) []any {
	return []any{
		row.Date.UTC().Format("2006-01-02"),
		row.ApplicationNumber,
		toFloat(row.GrandTotal),
		toFloat(row.InternationalShare),
		yesNo(row.Qualified),
	}
}

// ensureSheets creates any of the named sheets that do not already exist.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	existing := make(map[string]bool, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		existing[s.Properties.Title] = true
	}

	var requests []*sheets.Request
	for _, name := range names {
		if !existing[name] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return nil
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheets: %w", err)
	}

	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func passFail(v bool) string {
	if v {
		return "PASS"
	}
	return "FAIL"
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
