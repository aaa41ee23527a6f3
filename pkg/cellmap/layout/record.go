package layout

import (
	"bytes"
	"encoding/json"
	"time"
)

// Entry is one named value of a Record.
type Entry struct {
	Name  string
	Value any
}

// Record is a dynamically shaped row. Entries are kept in column order.
type Record []Entry

func (r *Record) add(name string, v any) {
	*r = append(*r, Entry{Name: name, Value: v})
}

// Get returns the value of the named entry.
func (r Record) Get(name string) (any, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders the record as an object with keys in column order.
// Dates use RFC 3339 and durations their Go string form ("1h30m0s").
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var v any
		switch t := e.Value.(type) {
		case time.Time:
			v = t.Format(time.RFC3339)
		case time.Duration:
			v = t.String()
		default:
			v = t
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
