// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// vocabulary is the keyword set the heuristic uses for one field.
type vocabulary struct {
	exact []*regexp.Regexp
	fuzzy []*regexp.Regexp

	// excluded labels name a different quantity (pieces, net weight); a
	// keyword whose label contains one is skipped, and a number bound to
	// one is never taken.
	excluded []*regexp.Regexp

	// skip rejects keyword labels that look like the field but are not a
	// quantity, such as carton numbering.
	skip []*regexp.Regexp
}

// wordRE builds a case-insensitive matcher for kw that does not match
// inside a longer word. RE2 has no lookaround, so the keyword is group 1.
func wordRE(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^A-Z])(` + regexp.QuoteMeta(kw) + `)(?:[^A-Z]|$)`)
}

func wordREs(kws ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(kws))
	for i, kw := range kws {
		out[i] = wordRE(kw)
	}
	return out
}

var vocabularies = map[types.Field]vocabulary{
	types.FieldCartons: {
		exact:    wordREs("CTNS", "CTN", "CARTONS", "CARTON", "CARTON(S)"),
		fuzzy:    wordREs("PKGS", "PACKAGES", "PACKAGE", "UNITS"),
		excluded: wordREs("PCS", "PIECES", "GARMENTS", "ASSORT"),
		skip: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:CTNS?|CARTONS?)\s*(?:NO|NOS|NUMBER|#)\b`),
			regexp.MustCompile(`(?i)\b(?:CTNS?|CARTONS?)\s*#`),
		},
	},
	types.FieldGrossWeight: {
		exact:    wordREs("GROSS WEIGHT", "G.W.", "G/W", "GW", "KGS"),
		fuzzy:    wordREs("WEIGHT", "WT", "KG"),
		excluded: wordREs("NET", "N.W.", "N/W", "NW"),
	},
	types.FieldCBM: {
		exact: wordREs("CBM", "CUBIC METERS", "CUBIC METRES", "M3", "M³"),
		fuzzy: wordREs("VOLUME", "VOL", "MEASUREMENT", "MEAS"),
	},
}

// findAll returns the spans of keyword matches in s. Matching restarts at
// the end of each keyword so back-to-back keywords sharing a boundary
// character are all found.
func findAll(re *regexp.Regexp, s string) []span {
	var out []span
	for pos := 0; pos < len(s); {
		m := re.FindStringSubmatchIndex(s[pos:])
		if m == nil {
			break
		}
		out = append(out, span{pos + m[2], pos + m[3]})
		pos += m[3]
	}
	return out
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// otherFieldKeyword reports whether s is an exact keyword of a field other
// than f.
func otherFieldKeyword(f types.Field, s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for other, v := range vocabularies {
		if other == f {
			continue
		}
		if matchesAny(v.exact, s) {
			return true
		}
	}
	return false
}
