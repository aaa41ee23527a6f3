package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/slofurno/cellmap-go/pkg/cellmap/cellerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
sheet: Orders
skip_rows: 1
fields:
  - name: status
    column: E
    type: enum
    values: [Active, Retired]
  - name: id
    column: 1
    type: int
  - name: title
    column: b
    type: string
  - name: price
    column: C
    type: float
  - name: placed
    column: D
    type: date
  - name: shift
    column: 6
    type: duration
  - name: flagged
    column: G
    type: bool
`

func TestParse(t *testing.T) {
	l, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Orders", l.Sheet)
	assert.Equal(t, 1, l.SkipRows)
	require.Len(t, l.Fields, 7)
	assert.Equal(t, ColumnRef("E"), l.Fields[0].Column)
	assert.Equal(t, ColumnRef("1"), l.Fields[1].Column)
	assert.Equal(t, []string{"Active", "Retired"}, l.Fields[0].Values)
}

func TestSchemaBindsRecordInColumnOrder(t *testing.T) {
	l, err := Parse([]byte(sample))
	require.NoError(t, err)
	schema, err := l.Schema()
	require.NoError(t, err)

	rec, err := schema.Bind(map[int]string{
		1: "42",
		2: "Widget",
		3: "9.5",
		4: "45292",
		5: "Retired",
		6: "0.75",
		7: "TRUE",
	})
	require.NoError(t, err)

	var names []string
	for _, e := range rec {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"id", "title", "price", "placed", "status", "shift", "flagged"}, names)

	id, ok := rec.Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	_, ok = rec.Get("missing")
	assert.False(t, ok)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":42,"title":"Widget","price":9.5,"placed":"2024-01-01T00:00:00Z","status":"Retired","shift":"18h0m0s","flagged":true}`,
		string(data))
}

func TestSchemaRejectsUnknownEnumValue(t *testing.T) {
	l, err := Parse([]byte(sample))
	require.NoError(t, err)
	schema, err := l.Schema()
	require.NoError(t, err)

	_, err = schema.Bind(map[int]string{1: "1", 2: "x", 3: "1", 4: "1", 5: "Gone", 6: "0", 7: "0"})
	assert.ErrorIs(t, err, cellerr.ErrParse)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		contains string
	}{
		{
			name:     "no fields",
			doc:      "sheet: x\n",
			contains: "fields is required",
		},
		{
			name:     "unknown type",
			doc:      "fields:\n  - {name: a, column: A, type: money}\n",
			contains: "must be one of",
		},
		{
			name:     "enum without values",
			doc:      "fields:\n  - {name: a, column: A, type: enum}\n",
			contains: "values is required",
		},
		{
			name:     "missing name",
			doc:      "fields:\n  - {column: A, type: int}\n",
			contains: "name is required",
		},
		{
			name:     "repeated enum values",
			doc:      "fields:\n  - {name: a, column: A, type: enum, values: [X, X]}\n",
			contains: "must not repeat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, cellerr.ErrStructural)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("fields:\n  - {name: a, column: A, type: int, colour: red}\n"))
	assert.Error(t, err)
}

func TestSchemaStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad column", "fields:\n  - {name: a, column: A1, type: int}\n"},
		{"zero column", "fields:\n  - {name: a, column: 0, type: int}\n"},
		{"too many letters", "fields:\n  - {name: a, column: ZZZZZZZZZZZZZZZ, type: int}\n"},
		{"duplicate names", "fields:\n  - {name: a, column: A, type: int}\n  - {name: a, column: B, type: int}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = l.Schema()
			assert.ErrorIs(t, err, cellerr.ErrStructural)
		})
	}
}

func TestColumnRefIndex(t *testing.T) {
	tests := []struct {
		ref      ColumnRef
		expected int
	}{
		{"A", 1},
		{"aa", 27},
		{" XFD ", 16384},
		{"7", 7},
	}

	for _, tt := range tests {
		result, err := tt.ref.Index()
		if err != nil {
			t.Errorf("ColumnRef(%q).Index() failed: %v", tt.ref, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ColumnRef(%q).Index() = %d, expected %d", tt.ref, result, tt.expected)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, l.Fields, 7)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecordMarshalEmpty(t *testing.T) {
	data, err := json.Marshal(Record(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
