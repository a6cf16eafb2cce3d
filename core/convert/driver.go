// Package convert runs a whole conversion: count the records, stream them
// through segmentation, extraction and row building, and write the rows.
//
// Segmentation runs in its own goroutine and hands finished blocks to a
// single consumer over a bounded channel, so rows leave in input order.
// Any error cancels both sides and aborts the run.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/extract"
	"github.com/gaurav-prasanna/marc2csv/core/fieldmap"
	"github.com/gaurav-prasanna/marc2csv/core/output"
	"github.com/gaurav-prasanna/marc2csv/core/row"
	"github.com/gaurav-prasanna/marc2csv/core/segment"
	"golang.org/x/sync/errgroup"
)

// QueueSize bounds the number of segmented blocks waiting for extraction.
var QueueSize = 64

// State is a phase of a conversion run.
type State int

const (
	Counting State = iota
	Streaming
	Flushing
	Done
)

func (s State) String() string {
	switch s {
	case Counting:
		return "counting"
	case Streaming:
		return "streaming"
	case Flushing:
		return "flushing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Source is input that can be read from the start once per pass.
type Source interface {
	Open() (io.ReadCloser, error)
}

// Config is the immutable configuration of a run.
type Config struct {
	Fields     *fieldmap.FieldMap
	Normalizer core.Normalizer // required when Fields lemmatizes anything
	Separator  string
	Step       int
	BatchSize  int
	Logger     *slog.Logger
}

// Result summarizes a finished run.
type Result struct {
	Total     int // record markers found by the counting pass
	Processed int // rows written
}

// Driver orchestrates conversions for one configuration.
type Driver struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Driver.
func New(cfg Config) (*Driver, error) {
	if cfg.Fields == nil {
		return nil, fmt.Errorf("no field map: %w", core.ErrConfigInvalid)
	}
	if cfg.Fields.NeedsNormalizer() && cfg.Normalizer == nil {
		return nil, fmt.Errorf("lemmatized fields configured without a normalizer: %w", core.ErrConfigInvalid)
	}
	if cfg.Separator == "" {
		cfg.Separator = core.DefaultSeparator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{cfg: cfg, logger: logger}, nil
}

// Count runs only the counting pass.
func (d *Driver) Count(ctx context.Context, src Source) (int, error) {
	rc, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return segment.Count(ctx, rc)
}

// Run converts src and writes every record as one row through enc.
func (d *Driver) Run(ctx context.Context, src Source, enc core.Encoder) (Result, error) {
	d.enter(Counting)
	d.logger.Info("counting records")
	total, err := d.Count(ctx, src)
	if err != nil {
		return Result{}, err
	}
	d.logger.Info(fmt.Sprintf("total %d records", total), "total", total)

	d.enter(Streaming)
	w := output.New(enc, output.Options{
		BatchSize: d.cfg.BatchSize,
		Step:      d.cfg.Step,
		Total:     total,
		Logger:    d.logger,
	})
	if err := w.Open(d.cfg.Fields.Columns()); err != nil {
		return Result{Total: total}, err
	}

	rc, err := src.Open()
	if err != nil {
		return Result{Total: total}, err
	}
	defer rc.Close()

	g, gctx := errgroup.WithContext(ctx)
	blocks := make(chan core.Block, QueueSize)

	g.Go(func() error {
		defer close(blocks)
		sc := segment.NewScanner(rc)
		for sc.Scan() {
			select {
			case blocks <- sc.Block():
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return sc.Err()
	})

	g.Go(func() error {
		ex := extract.New(d.cfg.Fields, d.cfg.Normalizer)
		for block := range blocks {
			fields, err := ex.Extract(block)
			if err != nil {
				return fmt.Errorf("record %d: %w", w.Processed()+1, err)
			}
			if err := w.Write(row.Build(fields, d.cfg.Separator)); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Result{Total: total, Processed: w.Processed()}, err
	}

	d.enter(Flushing)
	if err := w.Close(); err != nil {
		return Result{Total: total, Processed: w.Processed()}, err
	}

	d.enter(Done)
	return Result{Total: total, Processed: w.Processed()}, nil
}

func (d *Driver) enter(s State) {
	d.logger.Debug("conversion state", "state", s.String())
}
