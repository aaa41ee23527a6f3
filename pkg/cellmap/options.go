// Package cellmap binds spreadsheet rows to typed records.
//
// A worksheet is decoded row by row into column-indexed text (package parser) and each
// row is bound to a record through a binder.Schema. Records, RecordsFrom and Bind return
// lazy sequences that end after the first error.
package cellmap

import "log/slog"

// Options configures reading.
type Options struct {
	// Sheet selects the worksheet by name. Empty selects the first sheet in workbook order.
	Sheet string
	// SkipRows drops this many leading rows (typically headers) before decoding.
	SkipRows int
	// Logger receives progress logs. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns default read options.
func DefaultOptions() Options {
	return Options{
		Logger: slog.Default(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
