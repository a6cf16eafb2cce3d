// convert command.
// This is the main command that orchestrates the pipeline:
// load field map → open input → count → segment → extract → normalize → write.
//
// Every input and configuration check runs before the output file is created.

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/convert"
	"github.com/gaurav-prasanna/marc2csv/core/fieldmap"
	"github.com/gaurav-prasanna/marc2csv/core/normalize"
	"github.com/gaurav-prasanna/marc2csv/core/output"
	"github.com/gaurav-prasanna/marc2csv/core/render"
	"github.com/gaurav-prasanna/marc2csv/core/source"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// stdoutPath selects standard output as the sink.
const stdoutPath = "-"

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a MARC text export to CSV",
		Long: `Convert reads every record of the input file and writes one row per record
with the fields selected in the field map (.ini or .yaml).

Examples:
  marc2csv convert --config fields.ini --input catalog.mrc
  marc2csv convert --config fields.yaml --input catalog.mrc --output out/catalog.tsv --format tsv
  marc2csv convert --config fields.ini --input catalog.mrc --encoding windows-1250 --output -`,
		Args: cobra.NoArgs,
		RunE: runConvert,
	}

	f := cmd.Flags()
	f.String("config", "", "Field map file (.ini or .yaml)")
	addInputFlags(f)
	f.String("output", "", `Output file, "-" for stdout (default: input name with the format's extension)`)
	f.String("separator", core.DefaultSeparator, "Separator joining repeated values in one cell")
	f.Int("step", output.DefaultStep, "Log progress every N records")
	f.Int("batch-size", 0, "Rows buffered between flushes (default: --step)")
	f.String("format", render.FormatCSV, "Output format: csv, tsv or jsonl")
	f.Bool("crlf", true, "End csv/tsv lines with \\r\\n")
	f.Bool("use-stop-words", true, "Drop STOP_WORDS from normalized columns")
	f.Bool("fail-on-normalize-error", false, "Abort when a value cannot be normalized instead of leaving it empty")

	return cmd
}

// addInputFlags declares the flags shared by every command that reads input.
func addInputFlags(f *pflag.FlagSet) {
	f.String("input", "", "Input file (.mrc)")
	f.String("encoding", "utf-8", "Input character set, e.g. windows-1250")
}

func runConvert(cmd *cobra.Command, args []string) error {
	v, err := settings(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()

	// --- Validate configuration and input ---
	fm, src, err := loadInputs(v)
	if err != nil {
		return err
	}

	normalizer, err := buildNormalizer(v, fm, logger)
	if err != nil {
		return err
	}

	driver, err := convert.New(convert.Config{
		Fields:     fm,
		Normalizer: normalizer,
		Separator:  v.GetString("separator"),
		Step:       v.GetInt("step"),
		BatchSize:  v.GetInt("batch-size"),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	format := strings.ToLower(v.GetString("format"))
	if _, err := render.New(format, io.Discard, render.Options{}); err != nil {
		return err
	}

	// --- Open the sink ---
	outPath := v.GetString("output")
	var sink io.Writer = cmd.OutOrStdout()
	if outPath != stdoutPath {
		if outPath == "" {
			outPath = output.DefaultPath(src.Path, "."+format)
		}
		f, err := output.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		sink = f
	}

	enc, err := render.New(format, sink, render.Options{CRLF: v.GetBool("crlf")})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := driver.Run(ctx, src, enc)
	if err != nil {
		return fmt.Errorf("converting %s: %w", src.Path, err)
	}

	if outPath == stdoutPath {
		logger.Info("conversion finished", "records", res.Processed)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Written: %s (%d records)\n", outPath, res.Processed)
	return nil
}

// loadInputs validates the field map and the input file.
func loadInputs(v *viper.Viper) (*fieldmap.FieldMap, *source.File, error) {
	configPath := v.GetString("config")
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required: %w", core.ErrConfigMissingKey)
	}
	inputPath := v.GetString("input")
	if inputPath == "" {
		return nil, nil, fmt.Errorf("--input is required: %w", core.ErrInputNotFound)
	}

	fm, err := fieldmap.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	src, err := source.New(inputPath, source.DefaultExtension, v.GetString("encoding"))
	if err != nil {
		return nil, nil, err
	}
	return fm, src, nil
}

// buildNormalizer returns nil when no field is lemmatized, so the tagger
// lexicon is only loaded when it is needed.
func buildNormalizer(v *viper.Viper, fm *fieldmap.FieldMap, logger *slog.Logger) (core.Normalizer, error) {
	if !fm.NeedsNormalizer() {
		return nil, nil
	}

	opts := fm.Options()
	if !v.GetBool("use-stop-words") {
		opts.StopWords = nil
	}

	var lemmatizer core.Lemmatizer = normalize.TokenLemmatizer{}
	if opts.Tagger != "" {
		lex, err := normalize.LoadLexicon(opts.Tagger)
		if err != nil {
			return nil, err
		}
		logger.Info("tagger lexicon loaded", "path", opts.Tagger, "forms", lex.Size())
		lemmatizer = lex
	}

	return normalize.New(lemmatizer, opts,
		normalize.WithLogger(logger),
		normalize.WithFailFast(v.GetBool("fail-on-normalize-error")),
	), nil
}
