// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shipcheck/internal/batch"
	"github.com/pdiddy/shipcheck/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Check every ZIP archive in a folder and write a report",
	Long: `Batch treats each ZIP archive in the folder as one shipment. The first
three PDFs of an archive are extracted and compared; archives with fewer
than two PDFs are skipped. The report lists each archive's status (MATCH,
MISMATCH, Skipped, Error) and the values read from each document.

The report format follows the --out extension (.csv or .xlsx), falling back
to batch.report_format.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	bc := cfg.Batch
	if cmd.Flags().Changed("concurrency") {
		bc.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("limit") {
		bc.Limit, _ = cmd.Flags().GetInt("limit")
	}
	format := reportFormat(out, bc.ReportFormat)
	if out == "" {
		out = "batch_report." + string(format)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := batch.New(bc, a.conv, a.orch).Run(ctx, args[0])
	if err != nil {
		return err
	}
	if err := batch.WriteReport(out, format, results); err != nil {
		return err
	}

	s := batch.Summarize(results)
	fmt.Printf("%d archive(s): %d match, %d mismatch, %d skipped, %d error\n",
		s.Total(), s.Matched, s.Mismatched, s.Skipped, s.Errored)
	fmt.Printf("report written to %s\n", out)
	if s.HasFailures() {
		return fmt.Errorf("%d archive(s) could not be processed", s.Errored)
	}
	return nil
}

func reportFormat(out string, fallback types.ReportFormat) types.ReportFormat {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		return types.ReportXLSX
	case ".csv":
		return types.ReportCSV
	}
	if fallback == "" {
		return types.ReportCSV
	}
	return fallback
}

func init() {
	batchCmd.Flags().StringP("out", "o", "", "report path (default batch_report.<format>)")
	batchCmd.Flags().Int("concurrency", 0, "archives processed at once (overrides batch.concurrency)")
	batchCmd.Flags().Int("limit", 0, "process at most this many archives (overrides batch.limit)")
	rootCmd.AddCommand(batchCmd)
}
