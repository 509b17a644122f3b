package model

import "strings"

// Row is one physical spreadsheet row. Cells are float64, string, time.Time or nil.
type Row []any

// Grid is the raw tabular content of a statement, first row usually a header.
type Grid []Row

// Cell returns the cell at col, or nil when the row is shorter.
func (r Row) Cell(col int) any {
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// Blank reports whether every cell in the row is nil or whitespace.
func (r Row) Blank() bool {
	for _, c := range r {
		switch v := c.(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
