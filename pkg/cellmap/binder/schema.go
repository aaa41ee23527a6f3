// Package binder converts decoded rows into typed records.
//
// A record type is described by a Schema built from Field values, one per bound field.
// Each constructor (Date, Duration, Enum, String, Int, ...) fixes the field's kind and the
// coercion applied to the raw cell text, so no reflection is involved.
package binder

import (
	"errors"
	"fmt"
	"slices"

	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
)

// FieldInfo describes a registered field.
type FieldInfo struct {
	Name   string
	Column int
	Kind   Kind
}

// Schema is a validated, column-ordered set of fields for T. It is immutable and safe
// for concurrent use.
type Schema[T any] struct {
	fields []Field[T]
}

// NewSchema validates fields and orders them by column. Fields sharing a column keep
// their declaration order.
func NewSchema[T any](fields ...Field[T]) (*Schema[T], error) {
	if len(fields) == 0 {
		return nil, cellerr.Structural("schema declares no fields")
	}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		switch {
		case f.name == "":
			return nil, cellerr.Structural("field has no name").WithColumn(f.column)
		case f.column < 1:
			return nil, cellerr.Structural(fmt.Sprintf("column %d is not a positive index", f.column)).
				WithField(f.name, "")
		case !f.hasSetter():
			return nil, cellerr.Structural("field has no setter").WithField(f.name, "")
		case f.invalid != "":
			return nil, cellerr.Structural(f.invalid).WithField(f.name, "")
		}
		if _, dup := seen[f.name]; dup {
			return nil, cellerr.Structural("duplicate field name").WithField(f.name, "")
		}
		seen[f.name] = struct{}{}
	}

	sorted := slices.Clone(fields)
	slices.SortStableFunc(sorted, func(a, b Field[T]) int {
		return a.column - b.column
	})
	return &Schema[T]{fields: sorted}, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema[T any](fields ...Field[T]) *Schema[T] {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the registered fields in processing order.
func (s *Schema[T]) Fields() []FieldInfo {
	infos := make([]FieldInfo, len(s.fields))
	for i, f := range s.fields {
		infos[i] = FieldInfo{Name: f.name, Column: f.column, Kind: f.kind}
	}
	return infos
}

// Bind builds a T from a row's column-indexed values. On error the zero T is returned;
// records are never partially populated.
func (s *Schema[T]) Bind(values map[int]string) (T, error) {
	var zero, record T

	for _, f := range s.fields {
		raw, ok := values[f.column]
		if !ok {
			return zero, cellerr.Lookup("no value for column", nil).
				WithColumn(f.column).
				WithField(f.name, "")
		}

		if err := f.coerce(&record, raw); err != nil {
			var ce *cellerr.Error
			if errors.As(err, &ce) {
				// Parsers may return shared error values; enrich a copy.
				located := *ce
				if located.Column == 0 {
					located.Column = f.column
				}
				if located.Field == "" {
					located.Field, located.Value = f.name, raw
				}
				return zero, &located
			}
			return zero, cellerr.Parse(fmt.Sprintf("cannot parse %q as %s", raw, f.target), err).
				WithColumn(f.column).
				WithField(f.name, raw)
		}
	}

	return record, nil
}
