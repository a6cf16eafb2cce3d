// Package render implements the row encoders, one per output format.
// Cells arrive already ordered like the header; quoting is done here.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core"
)

// Supported output formats.
const (
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatJSONL = "jsonl"
)

// Options tune the delimited encoders.
type Options struct {
	// CRLF terminates csv/tsv lines with \r\n, like the excel dialect.
	CRLF bool
}

// CSVEncoder writes delimited text through encoding/csv.
type CSVEncoder struct {
	w   *csv.Writer
	ext string
}

// NewCSVEncoder creates a comma-separated encoder.
func NewCSVEncoder(w io.Writer, opts Options) *CSVEncoder {
	cw := csv.NewWriter(w)
	cw.UseCRLF = opts.CRLF
	return &CSVEncoder{w: cw, ext: ".csv"}
}

// NewTSVEncoder creates a tab-separated encoder.
func NewTSVEncoder(w io.Writer, opts Options) *CSVEncoder {
	e := NewCSVEncoder(w, opts)
	e.w.Comma = '\t'
	e.ext = ".tsv"
	return e
}

// WriteHeader writes the header line.
func (e *CSVEncoder) WriteHeader(columns []string) error {
	return e.w.Write(columns)
}

// WriteRows writes each row as one line.
func (e *CSVEncoder) WriteRows(rows [][]string) error {
	for _, cells := range rows {
		if err := e.w.Write(cells); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered output and reports any earlier write error.
func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

// Extension returns the file extension for this format.
func (e *CSVEncoder) Extension() string {
	return e.ext
}

// New selects the encoder for format.
func New(format string, w io.Writer, opts Options) (core.Encoder, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return NewCSVEncoder(w, opts), nil
	case FormatTSV:
		return NewTSVEncoder(w, opts), nil
	case FormatJSONL:
		return NewJSONLEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want csv, tsv or jsonl): %w", format, core.ErrFormatMismatch)
	}
}
