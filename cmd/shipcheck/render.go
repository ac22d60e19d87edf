package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/shipcheck/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPreview(w io.Writer, res *types.PreviewResult) {
	for _, slot := range types.Slots {
		d, ok := res.Documents[slot]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "Doc %s  %s (%s)  %s\n", slot.Letter(), d.Filename, roleName(d.Role), d.DocID)
		for _, f := range types.Fields {
			r := d.Details[f]
			value := r.Value
			if !r.Found() {
				value = "-"
			}
			flag := ""
			if r.NeedsUserInput {
				flag = "  <- check"
			}
			fmt.Fprintf(w, "  %-20s  %-12s  %-16s  %.2f %-6s%s\n",
				f.Label(), value, r.Source, r.Confidence, r.Band(), flag)
		}
		fmt.Fprintln(w)
	}
	if res.Warning != "" {
		fmt.Fprintln(w, res.Warning)
	}
}

func printReport(w io.Writer, rep types.ComparisonReport) {
	fmt.Fprintf(w, "%-20s  %-8s  %-10s  %-10s  %-10s  %s\n",
		"Field", "Status", "Doc A", "Doc B", "Doc C", "Message")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, c := range rep.Comparisons {
		fmt.Fprintf(w, "%-20s  %-8s  %-10s  %-10s  %-10s  %s\n",
			c.Label, c.Status,
			cell(c.Values[types.SlotA]), cell(c.Values[types.SlotB]), cell(c.Values[types.SlotC]),
			c.Message)
	}
	if rep.AllMatch {
		fmt.Fprintln(w, "\nAll documents match.")
	} else {
		fmt.Fprintln(w, "\nDocuments do not match.")
	}
}

func cell(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func roleName(r types.Role) string {
	if r == types.RoleUnknown {
		return "unknown"
	}
	return string(r)
}
