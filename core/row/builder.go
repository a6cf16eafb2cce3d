// Package row flattens extracted fields into one joined cell per column.
package row

import (
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core"
)

// Build joins every column's values with separator. Columns absent from
// fields stay absent from the row; no quoting is applied here.
func Build(fields core.Fields, separator string) core.Row {
	r := make(core.Row, len(fields))
	for col, vals := range fields {
		r[col] = strings.Join(vals, separator)
	}
	return r
}

// Cells orders a row by columns, using "" for missing columns.
func Cells(r core.Row, columns []string) []string {
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = r[col]
	}
	return cells
}
