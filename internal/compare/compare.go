// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare reconciles operator-confirmed values across the documents
// of one shipment.
package compare

import (
	"fmt"
	"strings"

	"github.com/pdiddy/shipcheck/internal/normalize"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// Compare reports, per field, whether the present documents agree. A slot
// that is not a key of values was not uploaded; a present slot with an
// empty value is a document without that field. Compare never fails: a
// mismatch is an ordinary result.
func Compare(values types.ConfirmedValues) types.ComparisonReport {
	rep := types.ComparisonReport{AllMatch: true}
	for _, f := range types.Fields {
		c := compareField(values, f)
		if c.Status != types.StatusSuccess {
			rep.AllMatch = false
		}
		rep.Comparisons = append(rep.Comparisons, c)
	}
	return rep
}

func compareField(values types.ConfirmedValues, f types.Field) types.ComparisonResult {
	c := types.ComparisonResult{
		Field:  f,
		Label:  f.Label(),
		Values: make(map[types.Slot]*string, len(types.Slots)),
	}

	var (
		filled []types.Slot
		empty  []types.Slot
	)
	for _, s := range types.Slots {
		fields, present := values[s]
		if !present {
			c.Values[s] = nil
			continue
		}
		v := strings.TrimSpace(fields[f].Value)
		if v == "" {
			c.Values[s] = nil
			empty = append(empty, s)
			continue
		}
		c.Values[s] = &v
		filled = append(filled, s)
	}

	switch {
	case len(filled) == 0:
		c.Status = types.StatusMissing
		c.Message = "No values found in any document"
		return c
	case len(filled) == 1:
		c.Status = types.StatusMissing
		c.Message = fmt.Sprintf("Only Doc %s has a value", filled[0].Letter())
		return c
	}

	first := *c.Values[filled[0]]
	for _, s := range filled[1:] {
		if !normalize.Equal(first, *c.Values[s]) {
			c.Status = types.StatusError
			c.Message = "Mismatch: " + describe(c.Values, filled)
			return c
		}
	}

	c.MatchedValue = display(first)
	if len(empty) > 0 {
		c.Status = types.StatusPartial
		c.Message = fmt.Sprintf("Match (Doc %s missing)", letters(empty))
		return c
	}
	c.Status = types.StatusSuccess
	return c
}

// display returns the canonical form of a numeric value, or the trimmed
// text of a non-numeric one.
func display(v string) string {
	if c, ok := normalize.Canonical(v); ok {
		return c
	}
	return strings.TrimSpace(v)
}

func describe(values map[types.Slot]*string, slots []types.Slot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, fmt.Sprintf("%s=%s", s.Letter(), *values[s]))
	}
	return strings.Join(parts, ", ")
}

func letters(slots []types.Slot) string {
	ls := make([]string, len(slots))
	for i, s := range slots {
		ls[i] = s.Letter()
	}
	return strings.Join(ls, ", ")
}

// Confirm builds the comparison input from preview results, taking each
// extracted value as confirmed. Absent fields stay empty.
func Confirm(docs map[types.Slot]types.DocumentResult) types.ConfirmedValues {
	out := make(types.ConfirmedValues, len(docs))
	for slot, d := range docs {
		fields := make(map[types.Field]types.ConfirmedValue, len(types.Fields))
		for _, f := range types.Fields {
			r := d.Details[f]
			fields[f] = types.ConfirmedValue{Value: r.Value, Label: f.Label()}
		}
		out[slot] = fields
	}
	return out
}
