// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules loads operator override rules and answers which column
// headers to pick or ignore for a document filename and field.
//
// A rules table has exactly the columns Keyword, Field, Action, Value.
// Malformed rows are skipped, never fatal: a broken rules file must not
// block extraction.
package rules

import (
	"fmt"
	"strings"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// SkippedRow records a rules row that was dropped during loading.
type SkippedRow struct {
	Row    int    `json:"row" yaml:"row"`
	Reason string `json:"reason" yaml:"reason"`
}

// Table is an immutable, validated rules table. Rule order is preserved
// because PICK_COLUMN conflicts resolve to the last-defined rule.
type Table struct {
	rules   []types.Rule
	skipped []SkippedRow
}

// Directive is the effect of all rules matching one filename and field.
type Directive struct {
	// Ignored holds IGNORE_COLUMN header texts in definition order.
	Ignored []string

	// Picked is the PICK_COLUMN header text, empty when none matched.
	Picked string
}

// Empty reports whether no rule matched.
func (d Directive) Empty() bool {
	return len(d.Ignored) == 0 && d.Picked == ""
}

// IgnoresHeader reports whether header matches one of the ignored header
// texts. Matching is case-insensitive containment in either direction, so an
// ignored "Total Units" also covers a "TOTAL UNITS:" label.
func (d Directive) IgnoresHeader(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return false
	}
	for _, ig := range d.Ignored {
		ig = strings.ToLower(strings.TrimSpace(ig))
		if ig == "" {
			continue
		}
		if strings.Contains(h, ig) || strings.Contains(ig, h) {
			return true
		}
	}
	return false
}

// NewTable validates rows and builds a Table. Row numbers in the skipped
// list start at firstRow.
func NewTable(rows []types.Rule, firstRow int) *Table {
	t := &Table{}
	for i, r := range rows {
		rule, reason := clean(r)
		if reason != "" {
			t.skipped = append(t.skipped, SkippedRow{Row: firstRow + i, Reason: reason})
			continue
		}
		t.rules = append(t.rules, rule)
	}
	return t
}

// clean trims and canonicalizes a rule, returning a non-empty reason when
// the row is malformed.
func clean(r types.Rule) (types.Rule, string) {
	out := types.Rule{
		Keyword: strings.TrimSpace(r.Keyword),
		Field:   types.Field(strings.ToLower(strings.TrimSpace(string(r.Field)))),
		Action:  types.RuleAction(strings.ToUpper(strings.TrimSpace(string(r.Action)))),
		Value:   strings.TrimSpace(r.Value),
	}
	switch {
	case out.Keyword == "":
		return out, "missing keyword"
	case out.Field == "":
		return out, "missing field"
	case !out.Field.Valid():
		return out, fmt.Sprintf("unknown field %q", r.Field)
	case out.Action == "":
		return out, "missing action"
	case !out.Action.Valid():
		return out, fmt.Sprintf("unknown action %q", r.Action)
	case out.Value == "":
		return out, "missing value"
	}
	return out, ""
}

// Rules returns the valid rules in definition order.
func (t *Table) Rules() []types.Rule {
	if t == nil {
		return nil
	}
	return append([]types.Rule(nil), t.rules...)
}

// Skipped returns the rows dropped during loading.
func (t *Table) Skipped() []SkippedRow {
	if t == nil {
		return nil
	}
	return append([]SkippedRow(nil), t.skipped...)
}

// Len returns the number of valid rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// RulesFor returns the directive for filename and field. A nil table or no
// matching rule yields an empty Directive.
func (t *Table) RulesFor(filename string, field types.Field) Directive {
	var d Directive
	if t == nil {
		return d
	}
	name := strings.ToLower(filename)
	for _, r := range t.rules {
		if r.Field != field || !strings.Contains(name, strings.ToLower(r.Keyword)) {
			continue
		}
		switch r.Action {
		case types.ActionIgnoreColumn:
			d.Ignored = append(d.Ignored, r.Value)
		case types.ActionPickColumn:
			d.Picked = r.Value
		}
	}
	return d
}
