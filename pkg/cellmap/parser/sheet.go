package parser

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/slofurno/cellmap-go/pkg/cellmap/models"
	"github.com/xuri/excelize/v2"
)

// xlsxC maps the c element. Only the parts the decoder consumes are kept.
type xlsxC struct {
	R  string        `xml:"r,attr"`
	S  *int          `xml:"s,attr"`
	T  string        `xml:"t,attr"`
	V  *string       `xml:"v"`
	IS *xlsxRichText `xml:"is"`
}

// xlsxRow maps the row element.
type xlsxRow struct {
	R int     `xml:"r,attr"`
	C []xlsxC `xml:"c"`
}

func (r xlsxRow) toModel() models.Row {
	row := models.Row{Number: r.R, Cells: make([]models.Cell, len(r.C))}
	for i, c := range r.C {
		cell := models.Cell{Ref: c.R, Type: c.T, Value: c.V, Style: c.S}
		if c.IS != nil {
			text := c.IS.text()
			cell.Inline = &text
		}
		row.Cells[i] = cell
	}
	return row
}

// SheetReader streams the rows of one worksheet part. It implements RowSource.
type SheetReader struct {
	name      string
	rc        io.ReadCloser
	decoder   *xml.Decoder
	dimension string
	done      bool
}

// newSheetReader positions the decoder at the start of sheetData, recording the
// dimension element on the way.
func newSheetReader(name string, rc io.ReadCloser) (*SheetReader, error) {
	sr := &SheetReader{name: name, rc: rc, decoder: xml.NewDecoder(rc)}

	for {
		token, err := sr.decoder.Token()
		if errors.Is(err, io.EOF) {
			sr.done = true
			return sr, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "dimension":
			for _, attr := range se.Attr {
				if attr.Name.Local == "ref" {
					sr.dimension = attr.Value
				}
			}
		case "sheetData":
			return sr, nil
		}
	}
}

// Name returns the worksheet name.
func (s *SheetReader) Name() string {
	return s.name
}

// Dimension returns the used range declared by the sheet, if any.
func (s *SheetReader) Dimension() (models.Area, bool) {
	if s.dimension == "" {
		return models.Area{}, false
	}
	area := parseRangeToArea(s.dimension)
	if area == nil {
		return models.Area{}, false
	}
	return *area, true
}

// Next returns the next row element, or io.EOF after the end of sheetData.
func (s *SheetReader) Next() (models.Row, error) {
	if s.done {
		return models.Row{}, io.EOF
	}

	for {
		token, err := s.decoder.Token()
		if errors.Is(err, io.EOF) {
			s.done = true
			return models.Row{}, io.EOF
		}
		if err != nil {
			return models.Row{}, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local != "row" {
				if err := s.decoder.Skip(); err != nil {
					return models.Row{}, err
				}
				continue
			}
			var row xlsxRow
			if err := s.decoder.DecodeElement(&row, &t); err != nil {
				return models.Row{}, err
			}
			return row.toModel(), nil
		case xml.EndElement:
			if t.Name.Local == "sheetData" {
				s.done = true
				return models.Row{}, io.EOF
			}
		}
	}
}

// Close releases the underlying part reader.
func (s *SheetReader) Close() error {
	s.done = true
	return s.rc.Close()
}

// parseRangeToArea parses a range string like $A$1:$D$10 (or a single cell) to an Area.
func parseRangeToArea(rangeStr string) *models.Area {
	rangeStr = strings.ReplaceAll(rangeStr, "$", "")

	parts := strings.Split(rangeStr, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return nil
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return nil
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return nil
	}

	return &models.Area{
		R1: startRow,
		C1: startCol,
		R2: endRow,
		C2: endCol,
	}
}
