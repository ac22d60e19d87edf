// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shipcheck/internal/patterns"
	"github.com/pdiddy/shipcheck/pkg/types"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and export learned patterns",
}

var patternsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learned pattern coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := patterns.Open(cfg.Patterns)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, st)
		}

		fmt.Printf("Database:  %s\n", store.Path())
		fmt.Printf("Patterns:  %d\n", st.PatternCount)
		fmt.Printf("Vendors:   %d\n", st.VendorCount)
		if st.LastUpdated != nil {
			fmt.Printf("Updated:   %s\n", st.LastUpdated.Local().Format("2006-01-02 15:04"))
		}
		for _, f := range types.Fields {
			fmt.Printf("  %-20s %d\n", f.Label(), st.FieldsCovered[f])
		}
		return nil
	},
}

var patternsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export learned patterns to YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		store, err := patterns.Open(cfg.Patterns)
		if err != nil {
			return err
		}
		defer store.Close()

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		switch format {
		case "yaml", "":
			err = store.ExportYAML(cmd.Context(), w)
		case "json":
			err = store.ExportJSON(cmd.Context(), w)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
		}
		return nil
	},
}

func init() {
	patternsStatsCmd.Flags().Bool("json", false, "print stats as JSON")
	patternsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	patternsExportCmd.Flags().StringP("out", "o", "", "write to file instead of stdout")

	patternsCmd.AddCommand(patternsStatsCmd)
	patternsCmd.AddCommand(patternsExportCmd)
	rootCmd.AddCommand(patternsCmd)
}
