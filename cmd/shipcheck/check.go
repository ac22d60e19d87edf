// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/compare"
	"github.com/pdiddy/shipcheck/internal/normalize"
	"github.com/pdiddy/shipcheck/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <file> <file> [file]",
	Short: "Preview, confirm each value, learn corrections and compare",
	Long: `Check runs the full review flow in the terminal. Each extracted value is
shown with its proposal in brackets; press Enter to accept it or type the
correct value. Every correction is learned for the document's vendor, then
the confirmed values of all documents are compared.

With --yes the extracted values are accepted as they are.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runCheck,
}

// correction is a confirmed value that differs from the extracted one.
type correction struct {
	slot  types.Slot
	docID string
	field types.Field
	value string
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	printPreview(os.Stdout, res)

	values := compare.Confirm(res.Documents)
	var fixes []correction
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		values, fixes, err = confirmValues(os.Stdin, os.Stdout, res)
		if err != nil {
			return err
		}
	}

	for _, c := range fixes {
		if err := a.learner.Learn(ctx, c.docID, c.field, c.value); err != nil {
			// A bad correction is still compared; only learning is skipped.
			fmt.Fprintf(os.Stderr, "not learned: Doc %s %s: %v\n", c.slot.Letter(), c.field.Label(), err)
			continue
		}
		fmt.Printf("learned: Doc %s %s = %s\n", c.slot.Letter(), c.field.Label(), c.value)
	}

	rep := compare.Compare(values)
	a.metrics.ObserveReport(rep)
	fmt.Println()
	printReport(os.Stdout, rep)
	zap.L().Info("check finished", zap.Bool("all_match", rep.AllMatch), zap.Int("learned", len(fixes)))

	if strict, _ := cmd.Flags().GetBool("strict"); strict && !rep.AllMatch {
		return fmt.Errorf("documents do not match")
	}
	return nil
}

// confirmValues prompts for every field of every document. An empty answer
// keeps the extracted value. Answers that differ numerically from the
// extracted value are returned as corrections.
func confirmValues(in io.Reader, out io.Writer, res *types.PreviewResult) (types.ConfirmedValues, []correction, error) {
	sc := bufio.NewScanner(in)
	values := make(types.ConfirmedValues, len(res.Documents))
	var fixes []correction

	for _, slot := range types.Slots {
		d, ok := res.Documents[slot]
		if !ok {
			continue
		}
		fields := make(map[types.Field]types.ConfirmedValue, len(types.Fields))
		for _, f := range types.Fields {
			proposed := d.Details[f].Value
			fmt.Fprintf(out, "Doc %s %s [%s]: ", slot.Letter(), f.Label(), proposed)

			answer := proposed
			if sc.Scan() {
				if s := strings.TrimSpace(sc.Text()); s != "" {
					answer = s
				}
			} else if err := sc.Err(); err != nil {
				return nil, nil, err
			}

			fields[f] = types.ConfirmedValue{Value: answer, Label: f.Label()}
			if answer != proposed && !normalize.Equal(answer, proposed) {
				fixes = append(fixes, correction{slot: slot, docID: d.DocID, field: f, value: answer})
			}
		}
		values[slot] = fields
	}
	return values, fixes, nil
}

func init() {
	checkCmd.Flags().BoolP("yes", "y", false, "accept extracted values without prompting")
	checkCmd.Flags().Bool("strict", false, "exit with an error when the documents do not match")
	rootCmd.AddCommand(checkCmd)
}
