// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns numeric tokens from shipping documents into
// comparable values. Tokens may carry thousands separators, a decimal comma,
// unit suffixes (KGS, CBM, M3, CTNS) and full-width digits.
package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// unitSuffixes are stripped before parsing. M3 must go before the generic
// trailing-letter trim because it ends in a digit.
var unitSuffixes = []string{"m³", "m3"}

// Fold maps full-width and other compatibility forms to their ASCII
// equivalents so that "１５０" scans like "150".
func Fold(s string) string {
	return width.Fold.String(s)
}

// Parse returns the numeric value of token. It reports false when the token
// is empty or not a well-formed number.
func Parse(token string) (float64, bool) {
	s := strings.TrimSpace(Fold(token))
	if s == "" {
		return 0, false
	}

	lower := strings.ToLower(s)
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(lower, suf) {
			s = strings.TrimSpace(s[:len(s)-len(suf)])
			lower = strings.ToLower(s)
		}
	}

	s = strings.TrimRightFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	s, ok := trimLabel(s)
	if !ok {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", "'", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0, false
	}

	for _, r := range s {
		if !(r >= '0' && r <= '9') && r != ',' && r != '.' {
			return 0, false
		}
	}

	plain, ok := canonicalSeparators(s)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(plain, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// trimLabel drops leading label text ("G.W. 2,300") up to the first digit.
// A bare leading decimal point is kept as "0.". Signed and parenthesised
// values are not quantities and are rejected.
func trimLabel(s string) (string, bool) {
	var prev rune
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			return s[i:], true
		case r == '.' && !unicode.IsLetter(prev) && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9':
			return "0" + s[i:], true
		case r == '-' || r == '+' || r == '(' || r == '\u2212':
			return "", false
		}
		prev = r
	}
	return "", false
}

// canonicalSeparators rewrites s (digits, commas, dots) into a plain
// decimal string with '.' as the only separator.
func canonicalSeparators(s string) (string, bool) {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas == 0 && dots == 0:
		return s, true

	case commas > 0 && dots > 0:
		// The separator appearing last is the decimal mark.
		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		thousands, decimal := ",", "."
		if lastComma > lastDot {
			thousands, decimal = ".", ","
		}
		if strings.Count(s, decimal) != 1 {
			return "", false
		}
		idx := strings.LastIndex(s, decimal)
		intPart, frac := s[:idx], s[idx+1:]
		if frac == "" || !validGroups(intPart, thousands) {
			return "", false
		}
		return strings.ReplaceAll(intPart, thousands, "") + "." + frac, true

	case commas == 1:
		idx := strings.Index(s, ",")
		if idx == 0 || idx == len(s)-1 {
			return "", false
		}
		if len(s)-idx-1 == 3 {
			return strings.ReplaceAll(s, ",", ""), true
		}
		return strings.Replace(s, ",", ".", 1), true

	case commas > 1:
		if !validGroups(s, ",") {
			return "", false
		}
		return strings.ReplaceAll(s, ",", ""), true

	case dots == 1:
		if s[0] == '.' || s[len(s)-1] == '.' {
			return "", false
		}
		return s, true

	default:
		if !validGroups(s, ".") {
			return "", false
		}
		return strings.ReplaceAll(s, ".", ""), true
	}
}

// validGroups checks thousands grouping: a leading group of 1-3 digits
// followed by groups of exactly 3.
func validGroups(s, sep string) bool {
	groups := strings.Split(s, sep)
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return len(groups) == 1 && len(groups[0]) > 0
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// Canonical returns the normalized string form of token ("1,234.50 KGS" →
// "1234.5"). The second result is false when token is not numeric.
func Canonical(token string) (string, bool) {
	v, ok := Parse(token)
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

// Equal compares two values numerically when both parse, and otherwise by
// trimmed, case-folded text. There is no tolerance.
func Equal(a, b string) bool {
	va, okA := Parse(a)
	vb, okB := Parse(b)
	if okA && okB {
		return va == vb
	}
	if okA != okB {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
