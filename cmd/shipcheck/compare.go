// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shipcheck/internal/compare"
	"github.com/pdiddy/shipcheck/pkg/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare <values-file>",
	Short: "Compare confirmed values across documents",
	Long: `Compare reads confirmed values from a YAML or JSON file (use - for stdin)
and reports, per field, whether the documents agree:

  doc_a: {cartons: "150", gross_weight: "2300.5", cbm: "12.611"}
  doc_b: {cartons: "150", gross_weight: "2,300.50", cbm: "12.611"}
  doc_c: {cartons: "150", gross_weight: "", cbm: "12.61"}

A slot left out of the file is treated as not uploaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	values, err := parseConfirmed(data)
	if err != nil {
		return err
	}
	rep := compare.Compare(values)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, rep)
	}
	printReport(os.Stdout, rep)
	return nil
}

// parseConfirmed decodes slot → field → value. JSON input is accepted as
// YAML. Unknown slots and fields are rejected.
func parseConfirmed(data []byte) (types.ConfirmedValues, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing values: %w", err)
	}
	values := make(types.ConfirmedValues, len(raw))
	for s, fields := range raw {
		slot := types.Slot(s)
		if !slot.Valid() {
			return nil, fmt.Errorf("unknown slot %q: use doc_a, doc_b or doc_c", s)
		}
		cells := make(map[types.Field]types.ConfirmedValue, len(fields))
		for k, v := range fields {
			f := types.Field(k)
			if !f.Valid() {
				return nil, fmt.Errorf("unknown field %q in %s", k, s)
			}
			cells[f] = types.ConfirmedValue{Value: v, Label: f.Label()}
		}
		values[slot] = cells
	}
	return values, nil
}

func init() {
	compareCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(compareCmd)
}
