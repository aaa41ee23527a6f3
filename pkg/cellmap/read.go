package cellmap

import (
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/slofurno/cellmap-go/pkg/cellmap/binder"
	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
	"github.com/slofurno/cellmap-go/pkg/cellmap/models"
	"github.com/slofurno/cellmap-go/pkg/cellmap/parser"
)

// document is the part of parser.Package the reader needs.
type document interface {
	SharedStrings() (models.SharedStrings, error)
	Sheet(name string) (*parser.SheetReader, error)
	Close() error
}

var openDocument = func(path string) (document, error) {
	return parser.OpenFile(path)
}

// Records returns the records of one worksheet of the xlsx file at path.
// The file is opened when iteration starts and closed when it ends, whether the loop
// completes, breaks early or receives an error. Ranging again re-opens the file.
func Records[T any](path string, schema *binder.Schema[T], opts Options) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		logger := opts.logger().With(slog.String("file", path))

		doc, err := openDocument(path)
		if err != nil {
			yield(zero, NewSheetError(path, opts.Sheet, err))
			return
		}
		defer func() {
			if err := doc.Close(); err != nil {
				logger.Warn("close workbook", slog.String("error", err.Error()))
			}
		}()

		readDocument(doc, path, schema, opts, logger, yield)
	}
}

// RecordsFrom is like Records but reads the xlsx package from r. r is not closed.
func RecordsFrom[T any](r io.ReaderAt, size int64, schema *binder.Schema[T], opts Options) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		logger := opts.logger()

		pkg, err := parser.OpenReader(r, size)
		if err != nil {
			yield(zero, NewSheetError("", opts.Sheet, err))
			return
		}
		defer pkg.Close()

		readDocument(pkg, "", schema, opts, logger, yield)
	}
}

// ReadFile collects the records of the xlsx file at path.
func ReadFile[T any](path string, schema *binder.Schema[T], opts Options) ([]T, error) {
	var records []T
	for rec, err := range Records(path, schema, opts) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Bind returns the records of an already-parsed worksheet.
func Bind[T any](sheet models.Worksheet, sst models.SharedStrings, schema *binder.Schema[T], opts Options) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		logger := opts.logger().With(slog.String("sheet", sheet.Name))
		if sheet.Dimension != "" {
			logger = logger.With(slog.String("dimension", sheet.Dimension))
		}
		bindRows(parser.SliceSource(sheet.Rows), sst, schema, opts.SkipRows, logger, func(rec T, err error) bool {
			if err != nil {
				return yield(rec, NewSheetError("", sheet.Name, err))
			}
			return yield(rec, nil)
		})
	}
}

func readDocument[T any](doc document, file string, schema *binder.Schema[T], opts Options, logger *slog.Logger, yield func(T, error) bool) {
	var zero T

	sst, err := doc.SharedStrings()
	if err != nil {
		yield(zero, NewSheetError(file, opts.Sheet, err))
		return
	}

	sheet, err := doc.Sheet(opts.Sheet)
	if err != nil {
		if errors.Is(err, parser.ErrSheetNotFound) {
			err = cellerr.Lookup("sheet not found", err)
		}
		yield(zero, NewSheetError(file, opts.Sheet, err))
		return
	}
	defer sheet.Close()

	logger = logger.With(slog.String("sheet", sheet.Name()))
	if area, ok := sheet.Dimension(); ok {
		logger.Info("reading sheet", slog.Int("rows", area.Rows()), slog.Int("columns", area.Columns()))
	} else {
		logger.Info("reading sheet")
	}

	n, ok := bindRows(sheet, sst, schema, opts.SkipRows, logger, func(rec T, err error) bool {
		if err != nil {
			return yield(rec, NewSheetError(file, sheet.Name(), err))
		}
		return yield(rec, nil)
	})
	if ok {
		logger.Info("sheet done", slog.Int("records", n))
	}
}

// bindRows decodes and binds every row of src after the first skip rows. It returns the
// number of records yielded and whether the rows were exhausted without error or break.
func bindRows[T any](src parser.RowSource, sst models.SharedStrings, schema *binder.Schema[T], skip int, logger *slog.Logger, yield func(T, error) bool) (int, bool) {
	var zero T
	n := 0

	for raw, err := range parser.Decode(&skipSource{src: src, skip: skip}, sst) {
		if err != nil {
			yield(zero, err)
			return n, false
		}

		rec, err := schema.Bind(raw.Values)
		if err != nil {
			var ce *cellerr.Error
			if errors.As(err, &ce) && ce.Row == 0 {
				located := *ce
				located.Row = raw.Number
				err = &located
			}
			yield(zero, err)
			return n, false
		}

		logger.Debug("bound row", slog.Int("row", raw.Number))
		n++
		if !yield(rec, nil) {
			return n, false
		}
	}
	return n, true
}

// skipSource drops the first skip rows of src.
type skipSource struct {
	src  parser.RowSource
	skip int
}

func (s *skipSource) Next() (models.Row, error) {
	for s.skip > 0 {
		if _, err := s.src.Next(); err != nil {
			return models.Row{}, err
		}
		s.skip--
	}
	return s.src.Next()
}
