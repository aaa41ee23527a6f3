package cellmap

import (
	"fmt"

	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
	"github.com/slofurno/cellmap-go/pkg/cellmap/parser"
)

// Sentinels for errors.Is, re-exported from cellerr and parser.
var (
	ErrStructural    = cellerr.ErrStructural
	ErrLookup        = cellerr.ErrLookup
	ErrParse         = cellerr.ErrParse
	ErrSheetNotFound = parser.ErrSheetNotFound
)

// SheetError reports where a read failed. Row-level failures wrap a *cellerr.Error.
type SheetError struct {
	File  string
	Sheet string
	Err   error
}

func (e *SheetError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("read sheet %q: %v", e.Sheet, e.Err)
	}
	return fmt.Sprintf("read sheet %q of %s: %v", e.Sheet, e.File, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// NewSheetError creates a new SheetError.
func NewSheetError(file, sheet string, err error) *SheetError {
	return &SheetError{
		File:  file,
		Sheet: sheet,
		Err:   err,
	}
}
