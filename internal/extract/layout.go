// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/shipcheck/internal/normalize"
)

// numberRE matches a numeric token with optional grouping and decimal
// separators and an optional leading decimal point. Unit suffixes are not
// part of the token.
var numberRE = regexp.MustCompile(`\.?\d(?:[\d.,]*\d)?`)

// cellSepRE separates table cells in layout-preserving text: a tab, a pipe
// or a run of two or more spaces.
var cellSepRE = regexp.MustCompile(`\t|\||\s{2,}`)

// columnSlack widens a header span when matching values below it, since
// numbers are often right-aligned under left-aligned headers.
const columnSlack = 3

// maxColumnScan bounds how many lines below a header are searched.
const maxColumnScan = 40

type span struct{ start, end int }

func (s span) overlaps(o span, slack int) bool {
	return s.start-slack < o.end && o.start < s.end+slack
}

type cell struct {
	span
	text string
}

type token struct {
	span
	raw       string
	canonical string
}

type line struct {
	no     int
	text   string
	cells  []cell
	tokens []token
}

func (l *line) blank() bool { return strings.TrimSpace(l.text) == "" }

func (l *line) isTotal() bool {
	return strings.Contains(strings.ToUpper(l.text), "TOTAL")
}

// cellAt returns the cell containing byte offset pos.
func (l *line) cellAt(pos int) (cell, bool) {
	for _, c := range l.cells {
		if pos >= c.start && pos < c.end {
			return c, true
		}
	}
	return cell{}, false
}

// Page is the line and cell structure of a document's text.
type Page struct {
	lines []line
}

// NewPage splits text into lines, cells and numeric tokens. Full-width
// characters are folded first so offsets are stable.
func NewPage(text string) *Page {
	raw := strings.Split(strings.ReplaceAll(normalize.Fold(text), "\r\n", "\n"), "\n")
	p := &Page{lines: make([]line, len(raw))}
	for i, t := range raw {
		p.lines[i] = parseLine(i, t)
	}
	return p
}

func parseLine(no int, text string) line {
	l := line{no: no, text: text}

	prev := 0
	for _, sep := range cellSepRE.FindAllStringIndex(text, -1) {
		l.cells = appendCell(l.cells, text, prev, sep[0])
		prev = sep[1]
	}
	l.cells = appendCell(l.cells, text, prev, len(text))

	for _, m := range numberRE.FindAllStringIndex(text, -1) {
		if text[m[0]] == '.' && m[0] > 0 && isAlnum(text[m[0]-1]) {
			// "G.W.150": the dot closes an abbreviation.
			m[0]++
		}
		if signed(text, m[0]) {
			continue
		}
		raw := text[m[0]:m[1]]
		canon, ok := normalize.Canonical(raw)
		if !ok {
			continue
		}
		l.tokens = append(l.tokens, token{span: span{m[0], m[1]}, raw: raw, canonical: canon})
	}
	return l
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

// signed reports whether the token at start carries a minus sign or an
// opening parenthesis. A hyphen joined to a word or number ("A-200", "1-90")
// is a separator, not a sign.
func signed(text string, start int) bool {
	if start == 0 {
		return false
	}
	switch text[start-1] {
	case '(':
		return true
	case '-', '+':
		return start == 1 || !isAlnum(text[start-2])
	}
	return false
}

func appendCell(cells []cell, text string, start, end int) []cell {
	seg := text[start:end]
	trimmed := strings.TrimSpace(seg)
	if trimmed == "" {
		return cells
	}
	lead := strings.Index(seg, trimmed)
	s := start + lead
	return append(cells, cell{span: span{s, s + len(trimmed)}, text: trimmed})
}

// hit is a value read from the page together with where it was read.
type hit struct {
	value  string
	header string
	line   int
	col    int
	rank   int
}

// Proximity ranks, nearest first.
const (
	rankSameLine = iota
	rankColumn
	rankNextLine
)

// indexFold returns the byte offsets of case-insensitive occurrences of sub
// in s.
func indexFold(s, sub string) []int {
	if sub == "" {
		return nil
	}
	us, usub := strings.ToUpper(s), strings.ToUpper(sub)
	if len(us) != len(s) {
		// Upper-casing changed byte widths; fall back to exact matching.
		us, usub = s, sub
	}
	var out []int
	for from := 0; from <= len(us)-len(usub); {
		i := strings.Index(us[from:], usub)
		if i < 0 {
			break
		}
		out = append(out, from+i)
		from += i + len(usub)
	}
	return out
}

// Locate finds header in the page and reads the numeric value adjacent to
// it. For each occurrence, in document order, it tries the rest of the
// header's cell, the next cell, the number just before the header, the same
// column in the following rows (a TOTAL row wins), and finally the next
// non-empty line.
func (p *Page) Locate(header string) (hit, bool) {
	header = strings.TrimSpace(normalize.Fold(header))
	for i := range p.lines {
		l := &p.lines[i]
		for _, pos := range indexFold(l.text, header) {
			hs := span{pos, pos + len(header)}
			if h, ok := p.adjacent(i, hs); ok {
				h.header = header
				return h, true
			}
		}
	}
	return hit{}, false
}

func (p *Page) adjacent(i int, hs span) (hit, bool) {
	l := &p.lines[i]
	c, _ := l.cellAt(hs.start)
	if c.text == "" {
		c = cell{span: hs}
	}

	// Rest of the header's own cell.
	for _, t := range l.tokens {
		if t.start >= hs.end && t.start < c.end {
			return hit{value: t.canonical, line: i, col: t.start, rank: rankSameLine}, true
		}
	}
	// The next cell, when it starts with a number.
	for _, next := range l.cells {
		if next.start < c.end {
			continue
		}
		for _, t := range l.tokens {
			if t.start == next.start {
				return hit{value: t.canonical, line: i, col: t.start, rank: rankSameLine}, true
			}
		}
		break
	}
	// "150 CTNS": the number directly before the header.
	if t, ok := l.tokenBefore(hs.start); ok && t.start >= c.start {
		return hit{value: t.canonical, line: i, col: t.start, rank: rankSameLine}, true
	}
	if h, ok := p.column(i, c.span); ok {
		return h, true
	}
	if strings.TrimSpace(strings.Trim(l.text[hs.end:], ":=-#.()")) == "" {
		return p.nextLine(i)
	}
	return hit{}, false
}

// tokenBefore returns the token ending just before pos with only blanks in
// between.
func (l *line) tokenBefore(pos int) (token, bool) {
	for k := len(l.tokens) - 1; k >= 0; k-- {
		t := l.tokens[k]
		if t.end > pos {
			continue
		}
		if strings.TrimSpace(l.text[t.end:pos]) == "" {
			return t, true
		}
		break
	}
	return token{}, false
}

// column reads the value under the header span in the rows that follow.
// A row containing TOTAL is preferred over the first row with a value.
func (p *Page) column(i int, hs span) (hit, bool) {
	var first *hit
	for j := i + 1; j < len(p.lines) && j <= i+maxColumnScan; j++ {
		for _, t := range p.lines[j].tokens {
			if !hs.overlaps(t.span, columnSlack) {
				continue
			}
			h := hit{value: t.canonical, line: j, col: t.start, rank: rankColumn}
			if p.lines[j].isTotal() {
				return h, true
			}
			if first == nil {
				first = &h
			}
			break
		}
	}
	if first != nil {
		return *first, true
	}
	return hit{}, false
}

// nextLine reads the first number of the next non-empty line, if that line
// starts with it.
func (p *Page) nextLine(i int) (hit, bool) {
	for j := i + 1; j < len(p.lines); j++ {
		l := &p.lines[j]
		if l.blank() {
			continue
		}
		if len(l.tokens) > 0 && len(l.cells) > 0 && l.tokens[0].start == l.cells[0].start {
			t := l.tokens[0]
			return hit{value: t.canonical, line: j, col: t.start, rank: rankNextLine}, true
		}
		return hit{}, false
	}
	return hit{}, false
}

// labelAround returns the digit-free run of the cell around pos, trimmed of
// blanks and separators: the label a keyword or value sits in.
func (l *line) labelAround(pos int) string {
	c, ok := l.cellAt(pos)
	if !ok {
		return ""
	}
	start, end := pos, pos
	for start > c.start && !isDigitByte(l.text[start-1]) {
		start--
	}
	for end < c.end && !isDigitByte(l.text[end]) {
		end++
	}
	return trimLabel(l.text[start:end])
}

// labelLeft returns the digit-free run of the cell ending at pos.
func (l *line) labelLeft(pos int) string {
	c, ok := l.cellAt(pos)
	if !ok {
		return ""
	}
	start := pos
	for start > c.start && !isDigitByte(l.text[start-1]) {
		start--
	}
	return trimLabel(l.text[start:pos])
}

// labelRight returns the digit-free run of the cell starting at pos.
func (l *line) labelRight(pos int) string {
	c, ok := l.cellAt(pos - 1)
	if !ok {
		return ""
	}
	end := pos
	for end < c.end && !isDigitByte(l.text[end]) {
		end++
	}
	return trimLabel(l.text[pos:end])
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func trimLabel(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(":=-#,;(", r)
	})
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 {
		return ""
	}
	return s
}

// shape reduces a line to its non-numeric skeleton so two lines from the
// same template compare equal regardless of their values.
func shape(s string) string {
	s = numberRE.ReplaceAllString(normalize.Fold(s), "#")
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
