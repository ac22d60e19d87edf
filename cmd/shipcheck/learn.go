// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shipcheck/internal/convert"
	"github.com/pdiddy/shipcheck/internal/ingest"
	"github.com/pdiddy/shipcheck/pkg/types"
)

var learnCmd = &cobra.Command{
	Use:   "learn <file>",
	Short: "Teach the correct value of a field for a document's vendor",
	Long: `Learn records that --value is the correct --field value for the given
document. The label next to the value in the document is remembered for the
vendor and document role, and used on the next document from that vendor.

The role is taken from the filename unless --role is given (OBL, INV, PKL).`,
	Args: cobra.ExactArgs(1),
	RunE: runLearn,
}

func runLearn(cmd *cobra.Command, args []string) error {
	field, _ := cmd.Flags().GetString("field")
	value, _ := cmd.Flags().GetString("value")
	role, _ := cmd.Flags().GetString("role")

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, loaded := convert.LoadDocuments(ctx, a.conv, args, os.Stderr)
	if loaded.HasFailures() {
		return fmt.Errorf("could not read %s", args[0])
	}
	doc := docs[0]
	if role != "" {
		r, err := parseRole(role)
		if err != nil {
			return err
		}
		doc = ingest.NewDocument(doc.Filename, doc.RawText, r)
	}

	// Learning needs the headers the value was read under, so the document
	// is extracted first, as in a preview.
	a.orch.Extract(ctx, doc)
	if err := a.learner.Learn(ctx, doc.DocID, types.Field(field), value); err != nil {
		return err
	}
	fmt.Printf("learned %s = %s for %s (%s)\n", types.Field(field).Label(), value, doc.VendorKey, doc.Role)
	return nil
}

func parseRole(s string) (types.Role, error) {
	switch r := types.Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case types.RoleOBL, types.RoleINV, types.RolePKL:
		return r, nil
	}
	return types.RoleUnknown, fmt.Errorf("unknown role %q: use OBL, INV or PKL", s)
}

func init() {
	learnCmd.Flags().String("field", "", "field to learn: cartons, gross_weight or cbm")
	learnCmd.Flags().String("value", "", "the correct value")
	learnCmd.Flags().String("role", "", "document role (OBL, INV, PKL); default from filename")
	_ = learnCmd.MarkFlagRequired("field")
	_ = learnCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(learnCmd)
}
