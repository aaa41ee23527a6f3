// Package layout declares record schemas in YAML for callers without a compile-time
// record type. Records built from a layout keep their fields in column order.
package layout

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/slofurno/cellmap-go/pkg/cellmap/binder"
	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
	"github.com/slofurno/cellmap-go/pkg/cellmap/parser"
)

// Field types accepted in a layout.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeBool     = "bool"
	TypeDate     = "date"
	TypeDuration = "duration"
	TypeEnum     = "enum"
)

// Layout is a YAML-declared record shape.
type Layout struct {
	// Sheet and SkipRows are defaults for readers; callers may override them.
	Sheet    string  `yaml:"sheet"`
	SkipRows int     `yaml:"skip_rows" validate:"gte=0"`
	Fields   []Field `yaml:"fields" validate:"required,min=1,dive"`
}

// Field declares one column of a layout.
type Field struct {
	Name   string    `yaml:"name" validate:"required"`
	Column ColumnRef `yaml:"column" validate:"required"`
	Type   string    `yaml:"type" validate:"required,oneof=string int float bool date duration enum"`
	Values []string  `yaml:"values" validate:"required_if=Type enum,unique"`
}

// ColumnRef is a column given either as letters ("AB") or as a 1-based number.
type ColumnRef string

// UnmarshalYAML accepts both scalar forms.
func (c *ColumnRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case int:
		*c = ColumnRef(strconv.Itoa(t))
	case string:
		*c = ColumnRef(t)
	default:
		return fmt.Errorf("column must be letters or a number, got %v", v)
	}
	return nil
}

// Index resolves the reference to a 1-based column index.
func (c ColumnRef) Index() (int, error) {
	s := strings.TrimSpace(string(c))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, cellerr.Structural(fmt.Sprintf("column %d is not a positive index", n))
		}
		return n, nil
	}

	letters := strings.ToUpper(s)
	if letters == "" || parser.ColumnLetters(letters) != letters {
		return 0, cellerr.Structural(fmt.Sprintf("column %q is neither letters nor a number", s))
	}
	idx := parser.ColumnIndex(letters)
	if idx == 0 {
		return 0, cellerr.Structural(fmt.Sprintf("column %q has more than %d letters", s, parser.MaxColumnLetters))
	}
	return idx, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.UnmarshalStrict(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads and parses the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(data)
}

// Validate checks the layout's declarations.
func (l *Layout) Validate() error {
	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return cellerr.Structural("invalid layout: " + strings.Join(msgs, "; "))
		}
		return fmt.Errorf("validate layout: %w", err)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Namespace(), fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not repeat values", fe.Namespace())
	default:
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
}

// Schema builds the binder schema for the layout.
func (l *Layout) Schema() (*binder.Schema[Record], error) {
	fields := make([]binder.Field[Record], 0, len(l.Fields))
	for _, f := range l.Fields {
		col, err := f.Column.Index()
		if err != nil {
			var ce *cellerr.Error
			if errors.As(err, &ce) {
				ce.WithField(f.Name, string(f.Column))
			}
			return nil, err
		}
		field, err := f.binderField(col)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return binder.NewSchema(fields...)
}

func (f Field) binderField(col int) (binder.Field[Record], error) {
	name := f.Name
	switch f.Type {
	case TypeString:
		return binder.String(name, col, func(r *Record, v string) { r.add(name, v) }), nil
	case TypeInt:
		return binder.Int(name, col, func(r *Record, v int64) { r.add(name, v) }), nil
	case TypeFloat:
		return binder.Float(name, col, func(r *Record, v float64) { r.add(name, v) }), nil
	case TypeBool:
		return binder.Bool(name, col, func(r *Record, v bool) { r.add(name, v) }), nil
	case TypeDate:
		return binder.Date(name, col, func(r *Record, v time.Time) { r.add(name, v) }), nil
	case TypeDuration:
		return binder.Duration(name, col, func(r *Record, v time.Duration) { r.add(name, v) }), nil
	case TypeEnum:
		values := make(map[string]string, len(f.Values))
		for _, v := range f.Values {
			values[v] = v
		}
		return binder.Enum(name, col, values, func(r *Record, v string) { r.add(name, v) }), nil
	}
	return binder.Field[Record]{}, cellerr.Structural(fmt.Sprintf("unknown field type %q", f.Type)).WithField(name, "")
}
