// JSON Lines encoder.
// Writes one JSON object per row with keys in header order, so the
// output stays byte-identical across runs.

package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLEncoder writes rows as newline-delimited JSON objects.
type JSONLEncoder struct {
	w       *bufio.Writer
	columns [][]byte // pre-encoded keys
}

// NewJSONLEncoder creates a JSONLEncoder writing to w.
func NewJSONLEncoder(w io.Writer) *JSONLEncoder {
	return &JSONLEncoder{w: bufio.NewWriter(w)}
}

// WriteHeader records the key order; JSON Lines has no header line.
func (e *JSONLEncoder) WriteHeader(columns []string) error {
	e.columns = make([][]byte, len(columns))
	for i, col := range columns {
		key, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("encoding column %q: %w", col, err)
		}
		e.columns[i] = key
	}
	return nil
}

// WriteRows writes one object per row.
func (e *JSONLEncoder) WriteRows(rows [][]string) error {
	for _, cells := range rows {
		if len(cells) != len(e.columns) {
			return fmt.Errorf("row has %d cells, header has %d", len(cells), len(e.columns))
		}
		e.w.WriteByte('{')
		for i, cell := range cells {
			if i > 0 {
				e.w.WriteByte(',')
			}
			val, err := json.Marshal(cell)
			if err != nil {
				return fmt.Errorf("encoding cell: %w", err)
			}
			e.w.Write(e.columns[i])
			e.w.WriteByte(':')
			e.w.Write(val)
		}
		if _, err := e.w.WriteString("}\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered output.
func (e *JSONLEncoder) Flush() error {
	return e.w.Flush()
}

// Extension returns the file extension for JSON Lines output.
func (e *JSONLEncoder) Extension() string {
	return ".jsonl"
}
