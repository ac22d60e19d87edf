// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/shipcheck/internal/rules"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// Heuristic confidences.
const (
	confUniqueExact   = 0.95
	confMultipleExact = 0.75
	confFuzzy         = 0.5
)

// fillerRE matches words allowed between a keyword and its value, as in
// "CTN QTY 2195" or "CTNS TOTAL: 150".
var fillerRE = regexp.MustCompile(`(?i)\b(?:Q'?TY|QTY\.|QUANTITY|TTL|TOTAL|IN)\b`)

// candidate is a number bound to a keyword occurrence.
type candidate struct {
	hit
	exact bool
	total bool
}

// heuristicCandidates scans the page for every keyword occurrence of field
// and binds each to its nearest numeric token. Occurrences whose label is
// ignored, excluded or skipped produce nothing.
func heuristicCandidates(p *Page, field types.Field, d rules.Directive) []candidate {
	v, ok := vocabularies[field]
	if !ok {
		return nil
	}

	var out []candidate
	for i := range p.lines {
		l := &p.lines[i]
		if l.blank() {
			continue
		}
		seen := map[span]bool{}
		for _, group := range []struct {
			res   []*regexp.Regexp
			exact bool
		}{{v.exact, true}, {v.fuzzy, false}} {
			for _, re := range group.res {
				for _, kw := range findAll(re, l.text) {
					if seen[kw] {
						continue
					}
					seen[kw] = true

					label := l.labelAround(kw.start)
					if label == "" {
						label = l.text[kw.start:kw.end]
					}
					if matchesAny(v.skip, label) || matchesAny(v.excluded, label) || d.IgnoresHeader(label) {
						continue
					}
					h, ok := p.bind(i, kw, field, v)
					if !ok {
						continue
					}
					h.header = label
					out = append(out, candidate{
						hit:   h,
						exact: group.exact,
						total: p.lines[h.line].isTotal(),
					})
				}
			}
		}
	}
	return out
}

// bind picks the numeric token nearest to the keyword at kw on line i:
// same line first, then the same column below, then the next line.
func (p *Page) bind(i int, kw span, field types.Field, v vocabulary) (hit, bool) {
	l := &p.lines[i]

	type sameLine struct {
		t   token
		gap int
	}
	var best *sameLine

	// Following number: "CTNS: 150", "CTN QTY 2195".
	for _, t := range l.tokens {
		if t.start < kw.end {
			continue
		}
		between := l.text[kw.end:t.start]
		if !gapIsSeparator(between) {
			break
		}
		labelled := strings.ContainsAny(between, ":=")
		if !labelled && boundToOtherLabel(l.labelRight(t.end), field, v) {
			break
		}
		best = &sameLine{t: t, gap: len(strings.TrimSpace(between))}
		break
	}

	// Preceding number: "150 CTNS", "2,300.00KGS".
	if t, ok := l.tokenBefore(kw.start); ok {
		if !boundToOtherLabel(l.labelLeft(t.start), field, v) {
			gap := kw.start - t.end
			if best == nil || gap <= best.gap {
				best = &sameLine{t: t, gap: gap}
			}
		}
	}

	if best != nil {
		return hit{value: best.t.canonical, line: i, col: best.t.start, rank: rankSameLine}, true
	}

	// Column below a header-like cell.
	if c, ok := l.cellAt(kw.start); ok && len(c.text) <= 32 && !strings.ContainsAny(c.text, "0123456789") && len(l.cells) > 1 {
		if h, ok := p.column(i, c.span); ok {
			return h, true
		}
	}

	// Keyword closing its line: "TOTAL CARTONS:" then the value below.
	if strings.TrimSpace(strings.Trim(l.text[kw.end:], ":=-#.()")) == "" {
		return p.nextLine(i)
	}
	return hit{}, false
}

// gapIsSeparator reports whether the text between a keyword and a number
// holds only punctuation and filler words.
func gapIsSeparator(s string) bool {
	s = fillerRE.ReplaceAllString(s, "")
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return false
		}
	}
	return len(strings.TrimSpace(s)) <= 6
}

// boundToOtherLabel reports whether label marks its number as a different
// quantity: an excluded label, or another field's keyword.
func boundToOtherLabel(label string, field types.Field, v vocabulary) bool {
	if label == "" {
		return false
	}
	if matchesAny(v.excluded, label) {
		return true
	}
	if matchesAny(v.exact, label) || matchesAny(v.fuzzy, label) {
		return false
	}
	return otherFieldKeyword(field, label)
}

// rankCandidates orders candidates best first: exact keywords, nearer
// proximity, TOTAL rows, then document order.
func rankCandidates(cs []candidate) {
	sort.SliceStable(cs, func(a, b int) bool {
		x, y := cs[a], cs[b]
		if x.exact != y.exact {
			return x.exact
		}
		if x.rank != y.rank {
			return x.rank < y.rank
		}
		if x.total != y.total {
			return x.total
		}
		if x.line != y.line {
			return x.line < y.line
		}
		return x.col < y.col
	})
}

// heuristicConfidence scores the winning candidate by keyword strength and
// agreement among exact matches.
func heuristicConfidence(cs []candidate) float64 {
	if len(cs) == 0 {
		return 0
	}
	if !cs[0].exact {
		return confFuzzy
	}
	distinct := map[string]bool{}
	for _, c := range cs {
		if c.exact {
			distinct[c.value] = true
		}
	}
	if len(distinct) == 1 {
		return confUniqueExact
	}
	return confMultipleExact
}
