package binder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the semantic kind of a bound field. The set is closed: a field gets its kind
// from the constructor that built it.
type Kind string

const (
	KindDate     Kind = "date"
	KindDuration Kind = "duration"
	KindEnum     Kind = "enum"
	KindScalar   Kind = "scalar"
)

// Signed is the set of signed integer types Int can bind.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is the set of unsigned integer types Uint can bind.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Floating is the set of floating point types Float can bind.
type Floating interface {
	~float32 | ~float64
}

// Field binds one column of a row to one field of T.
type Field[T any] struct {
	name   string
	column int
	kind   Kind
	// target describes the coerced type in error messages.
	target string

	setTime     func(*T, time.Time)
	setDuration func(*T, time.Duration)
	assign      func(*T, string) error

	// verbatim fields receive the cell text untrimmed.
	verbatim bool

	// invalid is set by constructors that received an unusable declaration.
	invalid string
}

// Name returns the field name.
func (f Field[T]) Name() string { return f.name }

// Column returns the 1-based column index the field binds to.
func (f Field[T]) Column() int { return f.column }

// Kind returns the field kind.
func (f Field[T]) Kind() Kind { return f.kind }

func (f Field[T]) hasSetter() bool {
	switch f.kind {
	case KindDate:
		return f.setTime != nil
	case KindDuration:
		return f.setDuration != nil
	default:
		return f.assign != nil
	}
}

// coerce converts raw according to the field kind and stores it in dst. Surrounding
// whitespace is ignored except by verbatim fields.
func (f Field[T]) coerce(dst *T, raw string) error {
	if !f.verbatim {
		raw = strings.TrimSpace(raw)
	}

	switch f.kind {
	case KindDate:
		t, err := ParseSerialTime(raw)
		if err != nil {
			return err
		}
		f.setTime(dst, t)
		return nil
	case KindDuration:
		d, err := ParseSerialDuration(raw)
		if err != nil {
			return err
		}
		f.setDuration(dst, d)
		return nil
	case KindEnum, KindScalar:
		return f.assign(dst, raw)
	default:
		return fmt.Errorf("unknown field kind %q", f.kind)
	}
}

// Date binds a serial date column.
func Date[T any](name string, column int, set func(*T, time.Time)) Field[T] {
	return Field[T]{name: name, column: column, kind: KindDate, target: "date", setTime: set}
}

// Duration binds a serial time-of-day column.
func Duration[T any](name string, column int, set func(*T, time.Duration)) Field[T] {
	return Field[T]{name: name, column: column, kind: KindDuration, target: "duration", setDuration: set}
}

// Enum binds a column holding the symbolic name of one of values.
func Enum[T any, E any](name string, column int, values map[string]E, set func(*T, E)) Field[T] {
	f := Field[T]{name: name, column: column, kind: KindEnum, target: "enum"}
	if len(values) == 0 {
		f.invalid = "enum field declares no values"
	}
	if set != nil {
		f.assign = func(dst *T, raw string) error {
			v, ok := values[raw]
			if !ok {
				return fmt.Errorf("unknown enum value %q", raw)
			}
			set(dst, v)
			return nil
		}
	}
	return f
}

// EnumValues builds an Enum lookup table keyed by each value's String().
func EnumValues[E fmt.Stringer](values ...E) map[string]E {
	m := make(map[string]E, len(values))
	for _, v := range values {
		m[v.String()] = v
	}
	return m
}

// String binds a column verbatim.
func String[T any, V ~string](name string, column int, set func(*T, V)) Field[T] {
	f := Field[T]{name: name, column: column, kind: KindScalar, target: "string", verbatim: true}
	if set != nil {
		f.assign = func(dst *T, raw string) error {
			set(dst, V(raw))
			return nil
		}
	}
	return f
}

// Int binds a base-10 integer column. Values that do not fit V are rejected.
func Int[T any, V Signed](name string, column int, set func(*T, V)) Field[T] {
	f := Field[T]{name: name, column: column, kind: KindScalar, target: "integer"}
	if set != nil {
		f.assign = func(dst *T, raw string) error {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return err
			}
			v := V(n)
			if int64(v) != n {
				return &strconv.NumError{Func: "ParseInt", Num: raw, Err: strconv.ErrRange}
			}
			set(dst, v)
			return nil
		}
	}
	return f
}

// Uint binds a base-10 unsigned integer column. Values that do not fit V are rejected.
func Uint[T any, V Unsigned](name string, column int, set func(*T, V)) Field[T] {
	f := Field[T]{name: name, column: column, kind: KindScalar, target: "unsigned integer"}
	if set != nil {
		f.assign = func(dst *T, raw string) error {
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return err
			}
			v := V(n)
			if uint64(v) != n {
				return &strconv.NumError{Func: "ParseUint", Num: raw, Err: strconv.ErrRange}
			}
			set(dst, v)
			return nil
		}
	}
	return f
}

// Float binds a floating point column.
func Float[T any, V Floating](name string, column int, set func(*T, V)) Field[T] {
	f := Field[T]{name: name, column: column, kind: KindScalar, target: "number"}
	if set != nil {
		f.assign = func(dst *T, raw string) error {
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			v := V(n)
			if math.IsInf(float64(v), 0) && !math.IsInf(n, 0) {
				return &strconv.NumError{Func: "ParseFloat", Num: raw, Err: strconv.ErrRange}
			}
			set(dst, v)
			return nil
		}
	}
	return f
}

// Bool binds a boolean column. Spreadsheet booleans are stored as 1 and 0.
func Bool[T any, V ~bool](name string, column int, set func(*T, V)) Field[T] {
	f := Field[T]{name: name, column: column, kind: KindScalar, target: "boolean"}
	if set != nil {
		f.assign = func(dst *T, raw string) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return err
			}
			set(dst, V(b))
			return nil
		}
	}
	return f
}

// Column binds a column with a caller-supplied conversion. parse receives the cell text
// untrimmed.
func Column[T any](name string, column int, parse func(*T, string) error) Field[T] {
	return Field[T]{name: name, column: column, kind: KindScalar, target: "value", assign: parse, verbatim: true}
}
