// Package cellerr defines the error taxonomy shared by the decoder and the binder.
package cellerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Kind represents the class of a decoding or binding failure.
type Kind string

const (
	// KindStructural marks schema or row-shape defects (missing declarations, duplicate columns).
	KindStructural Kind = "STRUCTURAL"
	// KindLookup marks references that cannot be resolved (missing columns, shared-string indexes).
	KindLookup Kind = "LOOKUP"
	// KindParse marks raw text that cannot be coerced to the declared type.
	KindParse Kind = "PARSE"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrStructural = errors.New("structural error")
	ErrLookup     = errors.New("lookup error")
	ErrParse      = errors.New("parse error")
)

// Error represents a failure while decoding or binding a row.
type Error struct {
	Kind Kind
	// Row is the 1-based worksheet row number (0 if unknown).
	Row int
	// Column is the 1-based column index (0 if unknown).
	Column int
	// Field is the bound field name (empty for decoder errors).
	Field   string
	Value   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	if loc := e.location(); loc != "" {
		fmt.Fprintf(&b, " at %s", loc)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %q)", e.Field)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrStructural:
		return e.Kind == KindStructural
	case ErrLookup:
		return e.Kind == KindLookup
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// location renders the cell position in A1 notation when both coordinates are known.
func (e *Error) location() string {
	switch {
	case e.Row > 0 && e.Column > 0:
		if name, err := excelize.CoordinatesToCellName(e.Column, e.Row); err == nil {
			return name
		}
		return fmt.Sprintf("row %d column %d", e.Row, e.Column)
	case e.Column > 0:
		if name, err := excelize.ColumnNumberToName(e.Column); err == nil {
			return "column " + name
		}
		return fmt.Sprintf("column %d", e.Column)
	case e.Row > 0:
		return fmt.Sprintf("row %d", e.Row)
	}
	return ""
}

// WithRow sets the worksheet row number and returns the error.
func (e *Error) WithRow(row int) *Error {
	e.Row = row
	return e
}

// WithColumn sets the column index and returns the error.
func (e *Error) WithColumn(col int) *Error {
	e.Column = col
	return e
}

// WithField sets the field name and raw value and returns the error.
func (e *Error) WithField(name, value string) *Error {
	e.Field = name
	e.Value = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Structural creates a structural error.
func Structural(message string) *Error {
	return New(KindStructural, message, nil)
}

// Lookup creates a lookup error.
func Lookup(message string, cause error) *Error {
	return New(KindLookup, message, cause)
}

// Parse creates a parse error.
func Parse(message string, cause error) *Error {
	return New(KindParse, message, cause)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
