package parser

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
	"github.com/slofurno/cellmap-go/pkg/cellmap/models"
)

// RowSource yields worksheet rows in document order.
// Next returns io.EOF once the rows are exhausted.
type RowSource interface {
	Next() (models.Row, error)
}

// sliceSource serves rows from an already-parsed worksheet.
type sliceSource struct {
	rows []models.Row
	pos  int
}

// SliceSource returns a RowSource over rows.
func SliceSource(rows []models.Row) RowSource {
	return &sliceSource{rows: rows}
}

func (s *sliceSource) Next() (models.Row, error) {
	if s.pos >= len(s.rows) {
		return models.Row{}, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// DecodeRow maps each cell of row to its 1-based column index and resolved text.
// Shared-string cells are resolved against sst; blank cells and cells whose reference
// carries no column letters contribute nothing.
func DecodeRow(row models.Row, sst models.SharedStrings) (models.RawRow, error) {
	values := make(map[int]string, len(row.Cells))

	for _, c := range row.Cells {
		col := ColumnIndex(ColumnLetters(c.Ref))

		text, ok, err := cellText(c, sst)
		if err != nil {
			return models.RawRow{}, err.WithRow(row.Number).WithColumn(col)
		}
		if !ok || col == 0 {
			continue
		}

		if _, dup := values[col]; dup {
			return models.RawRow{}, cellerr.Structural(
				fmt.Sprintf("duplicate column %s in row (cell %q)", ColumnName(col), c.Ref),
			).WithRow(row.Number).WithColumn(col)
		}
		values[col] = text
	}

	return models.RawRow{Number: row.Number, Values: values}, nil
}

// cellText resolves the text of a single cell. ok is false for blank cells.
func cellText(c models.Cell, sst models.SharedStrings) (string, bool, *cellerr.Error) {
	switch {
	case c.IsSharedString():
		if c.Value == nil {
			return "", false, cellerr.Parse("shared-string cell has no index", nil)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(*c.Value))
		if err != nil {
			return "", false, cellerr.Parse("invalid shared-string index", err)
		}
		s, found := sst.Lookup(idx)
		if !found {
			return "", false, cellerr.Lookup(
				fmt.Sprintf("shared-string index %d out of range [0,%d)", idx, len(sst)), nil,
			)
		}
		return s, true, nil
	case c.Value != nil:
		return *c.Value, true, nil
	case c.Inline != nil:
		return *c.Inline, true, nil
	}
	return "", false, nil
}

// Decode lazily decodes every row of src. The sequence ends after the first error,
// which is yielded together with a zero RawRow.
func Decode(src RowSource, sst models.SharedStrings) iter.Seq2[models.RawRow, error] {
	return func(yield func(models.RawRow, error) bool) {
		for {
			row, err := src.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(models.RawRow{}, fmt.Errorf("read row: %w", err))
				return
			}

			raw, err := DecodeRow(row, sst)
			if err != nil {
				yield(models.RawRow{}, err)
				return
			}
			if !yield(raw, nil) {
				return
			}
		}
	}
}
