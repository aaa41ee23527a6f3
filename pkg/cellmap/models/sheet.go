package models

// Row represents a worksheet row element.
type Row struct {
	// Number is the row index (1-based, 0 if the source omitted it).
	Number int `json:"r"`
	// Cells contains the row's cells in storage order.
	Cells []Cell `json:"c,omitempty"`
}

// Worksheet represents an already-parsed sheet.
type Worksheet struct {
	// Name is the sheet display name.
	Name string `json:"name"`
	// Dimension is the used range reference (e.g., "A1:D10"), empty if unknown.
	Dimension string `json:"dimension,omitempty"`
	// Rows contains the sheet rows in document order.
	Rows []Row `json:"rows,omitempty"`
}
