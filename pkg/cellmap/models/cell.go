// Package models defines the parsed worksheet tree and the decoded row shapes.
package models

// CellTypeSharedString marks a cell whose value is an index into the shared-string table.
const CellTypeSharedString = "s"

// Cell represents a single c element of a worksheet row.
type Cell struct {
	// Ref is the reference label of the cell (e.g., "C7").
	Ref string `json:"r"`
	// Type is the cell type flag ("s" for shared strings, "n", "b", "str", "inlineStr", ...).
	Type string `json:"t,omitempty"`
	// Value is the literal text of the v element (nil if absent).
	Value *string `json:"v,omitempty"`
	// Inline is the text of an inline rich string (nil if absent).
	Inline *string `json:"is,omitempty"`
	// Style is the style format reference. It is carried but not used for decoding.
	Style *int `json:"s,omitempty"`
}

// IsSharedString reports whether the cell references the shared-string table.
func (c Cell) IsSharedString() bool {
	return c.Type == CellTypeSharedString
}

// RawRow represents one decoded row.
type RawRow struct {
	// Number is the worksheet row number (1-based, 0 if the row carried none).
	Number int `json:"r"`
	// Values maps the 1-based column index to the cell's raw text.
	Values map[int]string `json:"c"`
}
