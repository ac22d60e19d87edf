// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shipcheck/internal/convert"
	"github.com/pdiddy/shipcheck/pkg/types"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file> <file> [file]",
	Short: "Extract cartons, gross weight and volume from 2 or 3 documents",
	Long: `Preview converts each PDF (or reads each .txt file), assigns it to a slot
from its filename (BL → Doc A, invoice → Doc B, packing list → Doc C) and
prints the extracted values with their source and confidence.

Values the engine is unsure of are flagged; use "shipcheck check" to confirm
them interactively.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.preview(ctx, args)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, res)
	}
	printPreview(os.Stdout, res)
	return nil
}

// preview loads the files and runs extraction on them.
func (a *app) preview(ctx context.Context, paths []string) (*types.PreviewResult, error) {
	docs, loaded := convert.LoadDocuments(ctx, a.conv, paths, os.Stderr)
	if loaded.HasFailures() {
		return nil, fmt.Errorf("%d of %d file(s) could not be read", loaded.Failed, loaded.Total())
	}
	slotted := make([]types.SlotDocument, 0, len(docs))
	for _, d := range docs {
		slotted = append(slotted, types.SlotDocument{Document: d})
	}
	return a.orch.Preview(ctx, slotted)
}

func init() {
	previewCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(previewCmd)
}
