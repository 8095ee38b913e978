// Package ingest turns uploaded spreadsheet/CSV exports into loosely-typed
// rows. Both sources come from systems that rename and re-case their columns
// between exports, so field lookup is tolerant and one critical column can be
// addressed by position.
package ingest

import "strings"

// Row is one record from an import file: named fields plus the raw positional
// cell values of the source line.
type Row struct {
	fields map[string]string
	raw    []string
	number int
}

// NewRow builds a row from a header slice and the matching cell values.
// Extra cells beyond the headers stay reachable through At.
func NewRow(headers []string, values []string, number int) Row {
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(values) {
			fields[h] = values[i]
		}
	}
	return Row{fields: fields, raw: values, number: number}
}

// NewRowFromMap rebuilds a row from persisted raw data.
func NewRowFromMap(fields map[string]string, raw []string, number int) Row {
	if fields == nil {
		fields = map[string]string{}
	}
	return Row{fields: fields, raw: raw, number: number}
}

// Get returns the first non-empty value among the candidate field names,
// probing each name as-is, upper-cased and lower-cased. Exports flip between
// "Situação Fiscal" and "SITUAÇÃO FISCAL" depending on who generated them.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		for _, variant := range []string{k, strings.ToUpper(k), strings.ToLower(k)} {
			if v, ok := r.fields[variant]; ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

// At returns the positional cell value at index i, or "" when out of range.
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.raw) {
		return ""
	}
	return r.raw[i]
}

// Fields exposes the named values for raw persistence.
func (r Row) Fields() map[string]string {
	return r.fields
}

// RawValues exposes the positional values for raw persistence.
func (r Row) RawValues() []string {
	return r.raw
}

// Number is the 1-based data row number in the source file (header excluded).
func (r Row) Number() int {
	return r.number
}

// IsZero reports whether the row carries no data at all.
func (r Row) IsZero() bool {
	return len(r.fields) == 0 && len(r.raw) == 0
}
