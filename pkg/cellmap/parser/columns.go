// Package parser decodes worksheet rows into column-indexed raw values and reads the
// xlsx package parts the decoder needs.
package parser

import (
	"github.com/xuri/excelize/v2"
)

// ColumnLetters extracts the column letters from a cell reference label.
// Only ASCII 'A'..'Z' are kept; digits, '$', lowercase and any other byte are dropped,
// so "c7" yields "" and "$AB$12" yields "AB".
func ColumnLetters(ref string) string {
	n := 0
	for i := 0; i < len(ref); i++ {
		if ref[i] >= 'A' && ref[i] <= 'Z' {
			n++
		}
	}
	if n == len(ref) {
		return ref
	}

	buf := make([]byte, 0, n)
	for i := 0; i < len(ref); i++ {
		if ref[i] >= 'A' && ref[i] <= 'Z' {
			buf = append(buf, ref[i])
		}
	}
	return string(buf)
}

// MaxColumnLetters is the longest letter prefix ColumnIndex maps ("ZZZ" = 18278).
const MaxColumnLetters = 3

// ColumnIndex converts column letters to a 1-based column index using bijective
// base-26 ("A" = 1, "Z" = 26, "AA" = 27). An empty string or one longer than
// MaxColumnLetters yields 0, which callers treat as an unmapped column. letters must
// already be filtered by ColumnLetters.
func ColumnIndex(letters string) int {
	if len(letters) > MaxColumnLetters {
		return 0
	}
	total := 0
	for i := 0; i < len(letters); i++ {
		total = total*26 + int(letters[i]-'A'+1)
	}
	return total
}

// ColumnName converts a 1-based column index back to its letters.
// It returns "" for indexes excelize cannot represent (< 1 or past "XFD").
func ColumnName(index int) string {
	name, err := excelize.ColumnNumberToName(index)
	if err != nil {
		return ""
	}
	return name
}
