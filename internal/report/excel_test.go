package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildExcel(t *testing.T) {
	meta, in, result := planFixture(t)

	got, err := BuildExcel(meta, in, result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(got))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{sheetContributions, sheetSummary, sheetCompliance}, f.GetSheetList())

	rows, err := f.GetRows(sheetContributions)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per entry")
	assert.Equal(t, "Category", rows[0][0])
	assert.Equal(t, "Rotary Club of Kampala", rows[1][1])
	assert.Equal(t, "Other Donor", rows[3][0])

	raw := excelize.Options{RawCellValue: true}

	ddf, err := f.GetCellValue(sheetContributions, "C2", raw)
	require.NoError(t, err)
	assert.Equal(t, "100000", ddf)

	attested, err := f.GetCellValue(sheetContributions, "I4")
	require.NoError(t, err)
	assert.Equal(t, "Yes", attested)
}

func TestBuildExcelSummaryValues(t *testing.T) {
	meta, in, result := planFixture(t)

	got, err := BuildExcel(meta, in, result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(got))
	require.NoError(t, err)
	defer f.Close()

	appNum, err := f.GetCellValue(sheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "GG-2024-1187", appNum)

	raw := excelize.Options{RawCellValue: true}

	// Rows 4-16 carry the money lines; the grand total is the last of
	// them and the share follows it.
	grand, err := f.GetCellValue(sheetSummary, "B16", raw)
	require.NoError(t, err)
	assert.Equal(t, "200000", grand)

	share, err := f.GetCellValue(sheetSummary, "B17", raw)
	require.NoError(t, err)
	assert.Equal(t, "0.09", share)
}

func TestBuildExcelComplianceSheet(t *testing.T) {
	meta, in, result := planFixture(t)

	got, err := BuildExcel(meta, in, result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(got))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetCompliance)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three rule rows")

	assert.Equal(t, "R1", rows[1][0])
	assert.Equal(t, "FAIL", rows[1][1])
	assert.Equal(t, "R2", rows[2][0])
	assert.Equal(t, "PASS", rows[2][1])
	assert.Equal(t, "R3", rows[3][0])
	assert.Equal(t, "PASS", rows[3][1])
}
