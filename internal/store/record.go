package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"
)

// Field names the store assigns or defaults.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldStatus    = "status"
)

// DefaultStatus is the status given to records created without one.
const DefaultStatus = "pending"

// Record is one schema-less entry of a table.
//
// Values are always in their JSON-decoded form: strings, bools, nil,
// json.Number, []any and map[string]any. Normalizing through JSON makes a
// record returned by a write compare equal to the same record read back.
type Record map[string]any

// ID returns the record identifier. Numeric ids written by older tools are
// returned in their decimal form.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns field as a string, or "" if it is absent or not a scalar.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Status returns the status field.
func (r Record) Status() string {
	return r.String(FieldStatus)
}

// CreatedAt returns the creation timestamp, or the zero time if absent.
func (r Record) CreatedAt() time.Time {
	n, ok := r[FieldCreatedAt].(json.Number)
	if !ok {
		return time.Time{}
	}

	ms, err := n.Int64()
	if err != nil {
		return time.Time{}
	}

	return time.UnixMilli(ms)
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Normalize converts arbitrary JSON-compatible fields into a [Record] whose
// values use the decoded representation (numbers become json.Number).
func Normalize(fields map[string]any) (Record, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}

	var rec Record

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}

	if rec == nil {
		rec = Record{}
	}

	return rec, nil
}

var errNotArray = errors.New("table document is not a JSON array of objects")

// decodeTable parses a table document. Null entries are dropped.
func decodeTable(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errNotArray
	}

	var raw []Record

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", errNotArray, err)
	}

	records := make([]Record, 0, len(raw))

	for _, rec := range raw {
		if rec != nil {
			records = append(records, rec)
		}
	}

	return records, nil
}

// encodeTable renders records as an indented JSON array.
func encodeTable(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding table: %w", err)
	}

	return buf.Bytes(), nil
}

func jsonInt(n int64) json.Number {
	return json.Number(strconv.FormatInt(n, 10))
}
