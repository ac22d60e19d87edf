// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shipcheck/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the operator rules table",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse the rules table and list skipped rows",
	Long: `Check reads the configured rules table (rules.path, or --path) the same
way extraction does, prints the rules that will be applied and every row
that was skipped with the reason. It fails when the source itself cannot be
read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := cfg.Rules
		if p, _ := cmd.Flags().GetString("path"); p != "" {
			rc.Path = p
		}
		token, _ := loadedSecrets.Lookup(rc.TokenSecret)
		loader := rules.NewLoader(rc, cfg.HTTP, token)

		table, err := loader.Read(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Rules from %s\n\n", loader.Path())
		fmt.Printf("%-4s  %-24s  %-14s  %-14s  %s\n", "#", "Keyword", "Field", "Action", "Value")
		fmt.Println(strings.Repeat("-", 80))
		for i, r := range table.Rules() {
			fmt.Printf("%-4d  %-24s  %-14s  %-14s  %s\n", i+1, r.Keyword, r.Field, r.Action, r.Value)
		}

		skipped := table.Skipped()
		if len(skipped) > 0 {
			fmt.Printf("\nSkipped rows:\n")
			for _, s := range skipped {
				fmt.Printf("  row %d: %s\n", s.Row, s.Reason)
			}
		}
		fmt.Printf("\n%d rule(s), %d skipped\n", table.Len(), len(skipped))

		if strict, _ := cmd.Flags().GetBool("strict"); strict && len(skipped) > 0 {
			fmt.Fprintln(os.Stderr, "rules table has skipped rows")
			return fmt.Errorf("%d row(s) skipped", len(skipped))
		}
		return nil
	},
}

func init() {
	rulesCheckCmd.Flags().String("path", "", "rules file or URL (overrides rules.path)")
	rulesCheckCmd.Flags().Bool("strict", false, "fail when any row is skipped")
	rulesCmd.AddCommand(rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}
