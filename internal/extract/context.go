// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/shipcheck/internal/normalize"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// maxHeaderLen bounds a captured header; longer runs are prose, not labels.
const maxHeaderLen = 48

// CaptureContext records where value appears in text so a later document of
// the same layout can be read the same way. hint, usually the header the
// value was extracted under, is tried first.
//
// A header is only kept when locating it in text yields value again. When
// no header round-trips, only the neighborhood line is kept. A value that
// does not occur in text yields an empty context.
func CaptureContext(text, value, hint string) types.PatternContext {
	want, ok := normalize.Canonical(value)
	if !ok {
		return types.PatternContext{}
	}
	p := NewPage(text)

	if hint = strings.TrimSpace(hint); hint != "" {
		if h, ok := p.Locate(hint); ok && h.value == want {
			return types.PatternContext{Header: hint, Neighborhood: strings.TrimSpace(p.lines[h.line].text)}
		}
	}

	var fallback *types.PatternContext
	for i := range p.lines {
		l := &p.lines[i]
		for _, t := range l.tokens {
			if t.canonical != want {
				continue
			}
			nb := strings.TrimSpace(l.text)
			for _, header := range p.headersFor(i, t) {
				if h, ok := p.Locate(header); ok && h.value == want {
					return types.PatternContext{Header: header, Neighborhood: nb}
				}
			}
			if fallback == nil {
				fallback = &types.PatternContext{Neighborhood: nb}
			}
		}
	}
	if fallback != nil {
		return *fallback
	}
	return types.PatternContext{}
}

// headersFor lists plausible labels of token t on line i, nearest first:
// the label to its left, the unit to its right, the column header above,
// and the previous non-empty line.
func (p *Page) headersFor(i int, t token) []string {
	l := &p.lines[i]
	var out []string
	add := func(s string) {
		if s == "" || len(s) > maxHeaderLen {
			return
		}
		for _, o := range out {
			if strings.EqualFold(o, s) {
				return
			}
		}
		out = append(out, s)
	}

	add(l.labelLeft(t.start))
	add(l.labelRight(t.end))

	for j := i - 1; j >= 0 && j >= i-maxColumnScan; j-- {
		found := false
		for _, c := range p.lines[j].cells {
			if !c.overlaps(t.span, columnSlack) || strings.ContainsAny(c.text, "0123456789") {
				continue
			}
			if label := trimLabel(c.text); label != "" {
				add(label)
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	for j := i - 1; j >= 0; j-- {
		if p.lines[j].blank() {
			continue
		}
		prev := strings.TrimSpace(p.lines[j].text)
		if !strings.ContainsAny(prev, "0123456789") {
			add(trimLabel(prev))
		}
		break
	}
	return out
}

// locateShape finds a line with the same skeleton as neighborhood and reads
// the token at the position value held in it.
func (p *Page) locateShape(neighborhood, value string) (hit, bool) {
	if strings.TrimSpace(neighborhood) == "" {
		return hit{}, false
	}
	want, ok := normalize.Canonical(value)
	if !ok {
		return hit{}, false
	}
	ref := parseLine(0, normalize.Fold(neighborhood))
	k := -1
	for idx, t := range ref.tokens {
		if t.canonical == want {
			k = idx
			break
		}
	}
	if k < 0 {
		return hit{}, false
	}

	target := shape(neighborhood)
	for i := range p.lines {
		l := &p.lines[i]
		if len(l.tokens) <= k || shape(l.text) != target {
			continue
		}
		t := l.tokens[k]
		return hit{
			value:  t.canonical,
			header: l.labelLeft(t.start),
			line:   i,
			col:    t.start,
			rank:   rankSameLine,
		}, true
	}
	return hit{}, false
}
