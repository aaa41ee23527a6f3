package parser

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slofurno/cellmap-go/pkg/cellmap/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeFixture saves a two-sheet workbook and returns its path.
func writeFixture(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("Failed to add sheet: %v", err)
	}
	f.SetCellValue("Sheet1", "A1", "first sheet")
	f.SetCellValue("Data", "A1", "Name")
	f.SetCellValue("Data", "B1", "Qty")
	f.SetCellValue("Data", "A2", "Widget")
	f.SetCellValue("Data", "B2", 100)
	f.SetCellValue("Data", "C2", true)
	f.SetCellValue("Data", "A4", "Gadget")
	f.SetCellValue("Data", "B4", 2.5)

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	return path
}

func TestPackageReadsExcelizeWorkbook(t *testing.T) {
	pkg, err := OpenFile(writeFixture(t))
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, []string{"Sheet1", "Data"}, pkg.SheetNames())

	sst, err := pkg.SharedStrings()
	require.NoError(t, err)

	sheet, err := pkg.Sheet("Data")
	require.NoError(t, err)
	defer sheet.Close()
	assert.Equal(t, "Data", sheet.Name())

	var rows []models.RawRow
	for raw, err := range Decode(sheet, sst) {
		require.NoError(t, err)
		rows = append(rows, raw)
	}

	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Number)
	assert.Equal(t, map[int]string{1: "Name", 2: "Qty"}, rows[0].Values)
	assert.Equal(t, 2, rows[1].Number)
	assert.Equal(t, map[int]string{1: "Widget", 2: "100", 3: "1"}, rows[1].Values)
	assert.Equal(t, 4, rows[2].Number)
	assert.Equal(t, map[int]string{1: "Gadget", 2: "2.5"}, rows[2].Values)
}

func TestPackageFirstSheetByDefault(t *testing.T) {
	pkg, err := OpenFile(writeFixture(t))
	require.NoError(t, err)
	defer pkg.Close()

	sst, err := pkg.SharedStrings()
	require.NoError(t, err)

	sheet, err := pkg.Sheet("")
	require.NoError(t, err)
	defer sheet.Close()
	assert.Equal(t, "Sheet1", sheet.Name())

	row, err := sheet.Next()
	require.NoError(t, err)
	raw, err := DecodeRow(row, sst)
	require.NoError(t, err)
	assert.Equal(t, "first sheet", raw.Values[1])

	_, err = sheet.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPackageSheetNotFound(t *testing.T) {
	pkg, err := OpenFile(writeFixture(t))
	require.NoError(t, err)
	defer pkg.Close()

	_, err = pkg.Sheet("Missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), `"Missing"`)
}

func TestPackageOpenReader(t *testing.T) {
	data, err := os.ReadFile(writeFixture(t))
	require.NoError(t, err)

	pkg, err := OpenReader(strings.NewReader(string(data)), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Data"}, pkg.SheetNames())
	assert.NoError(t, pkg.Close())
	assert.NoError(t, pkg.Close())

	_, err = pkg.Sheet("")
	assert.Error(t, err)
}

func TestOpenFileRejectsNonZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestParseSharedStrings(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="3" uniqueCount="3">
  <si><t>plain</t></si>
  <si><r><t>rich </t></r><r><rPr><b/></rPr><t>text</t></r></si>
  <si><t>漢字</t><rPh sb="0" eb="2"><t>かんじ</t></rPh></si>
  <si><t xml:space="preserve"> padded </t></si>
</sst>`

	sst, err := parseSharedStrings(strings.NewReader(xml))
	require.NoError(t, err)
	assert.Equal(t, models.SharedStrings{"plain", "rich text", "漢字", " padded "}, sst)
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		target   string
		expected string
	}{
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/xl/worksheets/sheet2.xml", "xl/worksheets/sheet2.xml"},
		{"../xl/sharedStrings.xml", "xl/sharedStrings.xml"},
	}

	for _, tt := range tests {
		result := resolveRelativePath(tt.target, "xl")
		if result != tt.expected {
			t.Errorf("resolveRelativePath(%q) = %q, expected %q", tt.target, result, tt.expected)
		}
	}
}

func TestSheetReaderStreamsRows(t *testing.T) {
	xml := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <dimension ref="A1:C3"/>
  <sheetViews><sheetView workbookViewId="0"/></sheetViews>
  <sheetData>
    <row r="1"><c r="A1" t="s" s="2"><v>0</v></c><c r="C1"><v>42</v></c></row>
    <row r="3"><c r="B3" t="inlineStr"><is><t>inline</t></is></c><c r="C3"/></row>
  </sheetData>
  <mergeCells count="0"/>
</worksheet>`

	sr, err := newSheetReader("S", io.NopCloser(strings.NewReader(xml)))
	require.NoError(t, err)

	area, ok := sr.Dimension()
	require.True(t, ok)
	assert.Equal(t, models.Area{R1: 1, C1: 1, R2: 3, C2: 3}, area)

	row, err := sr.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, row.Number)
	require.Len(t, row.Cells, 2)
	assert.True(t, row.Cells[0].IsSharedString())
	assert.Equal(t, "0", *row.Cells[0].Value)
	assert.Equal(t, 2, *row.Cells[0].Style)
	assert.Equal(t, "42", *row.Cells[1].Value)

	row, err = sr.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, row.Number)
	require.Len(t, row.Cells, 2)
	assert.Equal(t, "inline", *row.Cells[0].Inline)
	assert.Nil(t, row.Cells[1].Value)
	assert.Nil(t, row.Cells[1].Inline)

	_, err = sr.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = sr.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, sr.Close())
}

func TestSheetReaderWithoutSheetData(t *testing.T) {
	sr, err := newSheetReader("Empty", io.NopCloser(strings.NewReader(`<worksheet/>`)))
	require.NoError(t, err)

	_, ok := sr.Dimension()
	assert.False(t, ok)
	_, err = sr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseRangeToArea(t *testing.T) {
	tests := []struct {
		input    string
		expected *models.Area
	}{
		{"A1:D10", &models.Area{R1: 1, C1: 1, R2: 10, C2: 4}},
		{"$B$2:$AA$5", &models.Area{R1: 2, C1: 2, R2: 5, C2: 27}},
		{"C7", &models.Area{R1: 7, C1: 3, R2: 7, C2: 3}},
		{"A1:B2:C3", nil},
		{"nonsense", nil},
	}

	for _, tt := range tests {
		result := parseRangeToArea(tt.input)
		if tt.expected == nil {
			if result != nil {
				t.Errorf("parseRangeToArea(%q) = %+v, expected nil", tt.input, result)
			}
			continue
		}
		if result == nil || *result != *tt.expected {
			t.Errorf("parseRangeToArea(%q) = %+v, expected %+v", tt.input, result, tt.expected)
		}
	}
}
