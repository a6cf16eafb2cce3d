// Package output streams converted rows to the output sink.
// Rows are buffered and flushed in bounded batches; the header is written
// exactly once, and progress is logged every Step rows.
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/row"
)

// DefaultStep is the default progress and batch interval, in records.
const DefaultStep = 100

// Options configure a Writer.
type Options struct {
	BatchSize int // rows buffered before a flush; defaults to Step
	Step      int // progress interval in records; defaults to DefaultStep
	Total     int // records counted up front, used in progress lines
	Logger    *slog.Logger
}

// Writer is the only owner of the output sink during a conversion.
type Writer struct {
	enc       core.Encoder
	opts      Options
	columns   []string
	buf       [][]string
	processed int
	opened    bool
	closed    bool
}

// New creates a Writer that encodes rows with enc.
func New(enc core.Encoder, opts Options) *Writer {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = opts.Step
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Writer{enc: enc, opts: opts, buf: make([][]string, 0, opts.BatchSize)}
}

// Open writes the header. It must be called once, before Write.
func (w *Writer) Open(columns []string) error {
	if w.opened {
		return errors.New("output already opened")
	}
	w.opened = true
	w.columns = append([]string(nil), columns...)
	if err := w.enc.WriteHeader(w.columns); err != nil {
		return fmt.Errorf("writing header: %v: %w", err, core.ErrSinkWrite)
	}
	return nil
}

// Write buffers one row, flushing when the batch is full.
func (w *Writer) Write(r core.Row) error {
	if !w.opened || w.closed {
		return errors.New("output is not open")
	}
	w.buf = append(w.buf, row.Cells(r, w.columns))
	w.processed++

	if w.processed%w.opts.Step == 0 {
		w.logProgress()
	}
	if len(w.buf) >= w.opts.BatchSize {
		return w.flush()
	}
	return nil
}

// Close flushes the remaining rows and logs the final progress line.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flush(); err != nil {
		return err
	}
	w.logProgress()
	return nil
}

// Processed returns the number of rows accepted so far.
func (w *Writer) Processed() int {
	return w.processed
}

func (w *Writer) flush() error {
	if len(w.buf) > 0 {
		if err := w.enc.WriteRows(w.buf); err != nil {
			return fmt.Errorf("writing rows: %v: %w", err, core.ErrSinkWrite)
		}
		w.buf = w.buf[:0]
	}
	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("flushing rows: %v: %w", err, core.ErrSinkWrite)
	}
	return nil
}

func (w *Writer) logProgress() {
	w.opts.Logger.Info(fmt.Sprintf("%d of %d records processed", w.processed, w.opts.Total),
		"processed", w.processed, "total", w.opts.Total)
}

// Create opens path for writing, creating parent directories as needed.
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %v: %w", dir, err, core.ErrSinkWrite)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output %s: %v: %w", path, err, core.ErrSinkWrite)
	}
	return f, nil
}

// DefaultPath derives an output path from the input path by swapping the
// extension: catalog.mrc → catalog.csv.
func DefaultPath(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}
