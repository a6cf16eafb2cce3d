package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/segment"
	"github.com/gaurav-prasanna/marc2csv/core/source"
	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of records in a MARC text export",
		Args:  cobra.NoArgs,
		RunE:  runCount,
	}
	addInputFlags(cmd.Flags())
	return cmd
}

func runCount(cmd *cobra.Command, args []string) error {
	v, err := settings(cmd)
	if err != nil {
		return err
	}
	inputPath := v.GetString("input")
	if inputPath == "" {
		return fmt.Errorf("--input is required: %w", core.ErrInputNotFound)
	}

	src, err := source.New(inputPath, source.DefaultExtension, v.GetString("encoding"))
	if err != nil {
		return err
	}
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total, err := segment.Count(ctx, rc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), total)
	return nil
}
