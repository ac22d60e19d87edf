// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shipcheck/internal/httputil"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// Columns is the required header of a tabular rules source.
var Columns = []string{"Keyword", "Field", "Action", "Value"}

// Loader reads the rules table from its configured source. It holds no
// cached table: every Load reads the source again so edits apply without a
// restart.
type Loader struct {
	path      string
	token     string
	userAgent string
	client    *http.Client
}

// NewLoader creates a Loader. token is sent as a bearer token when the path
// is an http(s) URL; empty means no Authorization header.
func NewLoader(cfg types.RulesConfig, httpCfg types.HTTPConfig, token string) *Loader {
	return &Loader{
		path:      cfg.Path,
		token:     token,
		userAgent: httpCfg.UserAgent,
		client:    &http.Client{Timeout: httpCfg.Timeout},
	}
}

// Path returns the configured source.
func (l *Loader) Path() string { return l.path }

// Load reads the rules table. A missing or unreadable source is logged and
// yields an empty table.
func (l *Loader) Load(ctx context.Context) *Table {
	t, err := l.Read(ctx)
	if err != nil {
		zap.L().Warn("rules unavailable, continuing without rules",
			zap.String("path", l.path), zap.Error(err))
		return &Table{}
	}
	for _, s := range t.skipped {
		zap.L().Warn("skipping malformed rule",
			zap.String("path", l.path), zap.Int("row", s.Row), zap.String("reason", s.Reason))
	}
	return t
}

// Read reads the rules table and reports source-level failures. Row-level
// problems are recorded in Table.Skipped.
func (l *Loader) Read(ctx context.Context) (*Table, error) {
	if l.path == "" {
		return &Table{}, nil
	}
	if isURL(l.path) {
		return l.fetch(ctx)
	}

	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx":
		return ReadXLSX(l.path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, eris.Wrapf(err, "reading rules %s", l.path)
		}
		return ParseYAML(data)
	default:
		f, err := os.Open(l.path)
		if err != nil {
			return nil, eris.Wrapf(err, "opening rules %s", l.path)
		}
		defer f.Close()
		return ParseCSV(f)
	}
}

func (l *Loader) fetch(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "building rules request")
	}
	req.Header.Set("Accept", "text/csv")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := httputil.DoWithRetry(ctx, l.client, req, 0)
	if err != nil {
		return nil, eris.Wrapf(err, "fetching rules %s", l.path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetching rules %s: HTTP %d", l.path, resp.StatusCode)
	}
	return ParseCSV(resp.Body)
}

func isURL(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ParseCSV decodes a CSV rules table. Header names are matched
// case-insensitively; rows that fail to parse or decode are skipped.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "reading rules header")
	}
	header, err = canonicalHeader(header)
	if err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, eris.Wrap(err, "creating rules decoder")
	}

	var (
		rows    []types.Rule
		skipped []SkippedRow
	)
	// Data starts on line 2; the header is line 1.
	line := 1
	for {
		var rule types.Rule
		err := dec.Decode(&rule)
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// The reader resumes at the next record after a ParseError, so a
			// stray quote costs only its own row.
			skipped = append(skipped, SkippedRow{Row: line, Reason: err.Error()})
			rows = append(rows, types.Rule{})
			continue
		}
		rows = append(rows, rule)
	}

	t := NewTable(rows, 2)
	t.skipped = mergeSkipped(t.skipped, skipped)
	return t, nil
}

// mergeSkipped keeps the decoder's reason for rows it already rejected.
func mergeSkipped(validated, decoded []SkippedRow) []SkippedRow {
	if len(decoded) == 0 {
		return validated
	}
	reasons := make(map[int]string, len(decoded))
	for _, s := range decoded {
		reasons[s.Row] = s.Reason
	}
	out := make([]SkippedRow, 0, len(validated))
	for _, s := range validated {
		if r, ok := reasons[s.Row]; ok {
			s.Reason = r
		}
		out = append(out, s)
	}
	return out
}

// canonicalHeader maps header cells onto Columns. Unknown extra columns are
// kept as-is so csvutil ignores them.
func canonicalHeader(header []string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(Columns))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		out[i] = h
		for _, c := range Columns {
			if strings.EqualFold(h, c) {
				out[i] = c
				seen[c] = true
				break
			}
		}
	}
	for _, c := range Columns {
		if !seen[c] {
			return nil, eris.Errorf("rules header missing column %q (want %s)", c, strings.Join(Columns, ", "))
		}
	}
	return out, nil
}

// ReadXLSX reads a rules table from the first sheet of an XLSX workbook.
// The first row is the header.
func ReadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening rules workbook %s", path)
	}
	if len(f.Sheets) == 0 || len(f.Sheets[0].Rows) == 0 {
		return &Table{}, nil
	}
	sheet := f.Sheets[0]

	headerRow := sheet.Rows[0]
	header := make([]string, len(headerRow.Cells))
	for i, cell := range headerRow.Cells {
		header[i] = cell.String()
	}
	header, err = canonicalHeader(header)
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(Columns))
	for i, h := range header {
		col[h] = i
	}

	cellAt := func(row *xlsx.Row, name string) string {
		i := col[name]
		if i >= len(row.Cells) {
			return ""
		}
		return row.Cells[i].String()
	}

	var rows []types.Rule
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, types.Rule{
			Keyword: cellAt(row, "Keyword"),
			Field:   types.Field(cellAt(row, "Field")),
			Action:  types.RuleAction(cellAt(row, "Action")),
			Value:   cellAt(row, "Value"),
		})
	}
	return NewTable(rows, 2), nil
}

// ParseYAML decodes a YAML list of rules.
func ParseYAML(data []byte) (*Table, error) {
	var rows []types.Rule
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "parsing rules yaml")
	}
	return NewTable(rows, 1), nil
}
