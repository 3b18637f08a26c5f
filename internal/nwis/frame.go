// In file: internal/nwis/frame.go

// Package nwis is a small client for the USGS National Water Information System
// web services. Every service answer, whether tab-delimited RDB or WaterML JSON,
// is normalized into a Frame: an ordered list of column names and string rows.
// Keeping values as strings mirrors what the services send and lets the tool layer
// serialize without guessing at numeric types.
package nwis

import "strings"

// Frame is a small column-oriented table. All rows have len(Columns) cells.
type Frame struct {
	Columns []string   `json:"column_names"`
	Rows    [][]string `json:"data"`
}

// NewFrame creates an empty frame with the given columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: columns, Rows: [][]string{}}
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame holds no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Append adds a row, padding or trimming it to the column count.
func (f *Frame) Append(row []string) {
	normalized := make([]string, len(f.Columns))
	copy(normalized, row)
	f.Rows = append(f.Rows, normalized)
}

// ColumnIndex returns the index of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every value of the named column.
func (f *Frame) Column(name string) []string {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, 0, len(f.Rows))
	for _, row := range f.Rows {
		values = append(values, row[idx])
	}
	return values
}

// DropColumns removes the named columns if present.
func (f *Frame) DropColumns(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	return f.keep(func(i int) bool { return !drop[f.Columns[i]] })
}

// DropEmptyColumns removes columns whose values are all blank or "-".
// A frame without rows keeps its columns so callers can still describe the shape.
func (f *Frame) DropEmptyColumns() *Frame {
	if f.Empty() {
		return f
	}
	return f.keep(func(i int) bool {
		for _, row := range f.Rows {
			v := strings.TrimSpace(row[i])
			if v != "" && v != "-" {
				return true
			}
		}
		return false
	})
}

func (f *Frame) keep(pred func(i int) bool) *Frame {
	var idx []int
	for i := range f.Columns {
		if pred(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == len(f.Columns) {
		return f
	}

	out := &Frame{Columns: make([]string, 0, len(idx)), Rows: make([][]string, 0, len(f.Rows))}
	for _, i := range idx {
		out.Columns = append(out.Columns, f.Columns[i])
	}
	for _, row := range f.Rows {
		kept := make([]string, 0, len(idx))
		for _, i := range idx {
			kept = append(kept, row[i])
		}
		out.Rows = append(out.Rows, kept)
	}
	return out
}
