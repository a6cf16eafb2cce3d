// Package cmd implements the CLI commands for marc2csv using Cobra.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that can stand in for flags:
// --batch-size is also read from MARC2CSV_BATCH_SIZE.
const EnvPrefix = "MARC2CSV"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "marc2csv",
		Short: "marc2csv: convert line-per-field MARC exports into CSV",
		Long: `marc2csv reads a text rendering of MARC records (one field per line,
each record opened by a LEADER line) and writes one CSV row per record,
keeping only the fields and subfields named in a field map. Selected fields
also get a normalized "<tag>_lemm" column for search and analysis.

Usage:
  marc2csv convert --config fields.ini --input catalog.mrc [flags]
  marc2csv count --input catalog.mrc`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := settings(cmd)
			if err != nil {
				return err
			}
			logging.Setup(v.GetString("log-level"), v.GetString("log-format"), cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "Log format: text or json")

	root.AddCommand(newConvertCmd(), newCountCmd())
	return root
}

// settings binds the command's flags into a fresh viper instance backed by
// the environment. Explicit flags win over environment variables.
func settings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	return v, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
