// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/pdiddy/shipcheck/internal/httputil"
	"github.com/pdiddy/shipcheck/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = 0
	os.Exit(m.Run())
}

func TestRulesFor(t *testing.T) {
	table := NewTable([]types.Rule{
		{Keyword: "Acme", Field: types.FieldCartons, Action: types.ActionIgnoreColumn, Value: "Total Units"},
		{Keyword: "acme", Field: types.FieldCartons, Action: types.ActionIgnoreColumn, Value: "Inner Packs"},
		{Keyword: "acme", Field: types.FieldCartons, Action: types.ActionPickColumn, Value: "Master CTN"},
		{Keyword: "ACME", Field: types.FieldCartons, Action: types.ActionPickColumn, Value: "Outer CTNS"},
		{Keyword: "globex", Field: types.FieldCBM, Action: types.ActionPickColumn, Value: "Measurement"},
	}, 1)

	tests := []struct {
		name     string
		filename string
		field    types.Field
		want     Directive
	}{
		{
			name:     "ignores accumulate and last pick wins",
			filename: "ACME_Invoice_2291.pdf",
			field:    types.FieldCartons,
			want:     Directive{Ignored: []string{"Total Units", "Inner Packs"}, Picked: "Outer CTNS"},
		},
		{
			name:     "other field unaffected",
			filename: "acme_pl.pdf",
			field:    types.FieldGrossWeight,
			want:     Directive{},
		},
		{
			name:     "keyword must appear in filename",
			filename: "initech_obl.pdf",
			field:    types.FieldCartons,
			want:     Directive{},
		},
		{
			name:     "substring match",
			filename: "pl-globexcorp-77.pdf",
			field:    types.FieldCBM,
			want:     Directive{Picked: "Measurement"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.RulesFor(tt.filename, tt.field))
		})
	}
}

func TestRulesForNilTable(t *testing.T) {
	var table *Table
	assert.True(t, table.RulesFor("acme.pdf", types.FieldCartons).Empty())
	assert.Equal(t, 0, table.Len())
}

func TestIgnoresHeader(t *testing.T) {
	d := Directive{Ignored: []string{"Total Units"}}
	assert.True(t, d.IgnoresHeader("TOTAL UNITS:"))
	assert.True(t, d.IgnoresHeader("total units"))
	assert.False(t, d.IgnoresHeader("CTNS"))
	assert.False(t, d.IgnoresHeader(""))
}

func TestNewTableSkipsMalformedRows(t *testing.T) {
	table := NewTable([]types.Rule{
		{Keyword: "acme", Field: "cartons", Action: "ignore_column", Value: "Total Units"},
		{Keyword: "", Field: "cartons", Action: "IGNORE_COLUMN", Value: "x"},
		{Keyword: "acme", Field: "net_weight", Action: "IGNORE_COLUMN", Value: "x"},
		{Keyword: "acme", Field: "cbm", Action: "DROP", Value: "x"},
		{Keyword: "acme", Field: "cbm", Action: "PICK_COLUMN", Value: "  "},
	}, 2)

	require.Equal(t, 1, table.Len())
	assert.Equal(t, types.ActionIgnoreColumn, table.Rules()[0].Action)

	skipped := table.Skipped()
	require.Len(t, skipped, 4)
	assert.Equal(t, SkippedRow{Row: 3, Reason: "missing keyword"}, skipped[0])
	assert.Equal(t, 4, skipped[1].Row)
	assert.Contains(t, skipped[1].Reason, "unknown field")
	assert.Contains(t, skipped[2].Reason, "unknown action")
	assert.Equal(t, "missing value", skipped[3].Reason)
}

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"keyword,FIELD,Action,Value",
		"Acme,cartons,IGNORE_COLUMN,Total Units",
		"Acme,cartons",
		"Acme,bogus,PICK_COLUMN,CTNS",
		"Globex,cbm,PICK_COLUMN,Measurement",
	}, "\n")

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	require.Len(t, table.Skipped(), 2)
	assert.Equal(t, 3, table.Skipped()[0].Row)
	assert.Equal(t, 4, table.Skipped()[1].Row)

	d := table.RulesFor("acme_invoice.pdf", types.FieldCartons)
	assert.Equal(t, []string{"Total Units"}, d.Ignored)
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Keyword,Field,Value\nacme,cartons,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Action")

	table, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestParseCSVBadQuoteSkipsRow(t *testing.T) {
	input := strings.Join([]string{
		"Keyword,Field,Action,Value",
		"Acme,cartons,IGNORE_COLUMN,Total Units",
		`Acme,cbm,PICK_COLUMN,Vol "m3" x`,
		"Globex,cbm,PICK_COLUMN,Measurement",
	}, "\n")

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	require.Len(t, table.Skipped(), 1)
	assert.Equal(t, 3, table.Skipped()[0].Row)
	assert.Contains(t, table.Skipped()[0].Reason, "bare")

	assert.Equal(t, []string{"Total Units"}, table.RulesFor("acme_invoice.pdf", types.FieldCartons).Ignored)
	assert.Equal(t, "Measurement", table.RulesFor("globex_pl.pdf", types.FieldCBM).Picked)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
- keyword: acme
  field: gross_weight
  action: PICK_COLUMN
  value: G.W. (KGS)
- keyword: acme
  field: cartons
  action: PICK_COLUMN
`)
	table, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "G.W. (KGS)", table.RulesFor("acme.pdf", types.FieldGrossWeight).Picked)
	require.Len(t, table.Skipped(), 1)
	assert.Equal(t, 2, table.Skipped()[0].Row)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Rules")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"Keyword", "Field", "Action", "Value"},
		{"acme", "cartons", "IGNORE_COLUMN", "Total Units"},
		{"acme", "cbm", "PICK_COLUMN"},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(path))

	table, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	require.Len(t, table.Skipped(), 1)
	assert.Equal(t, "missing value", table.Skipped()[0].Reason)
}

func TestLoaderReadsFreshOnEveryLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")
	writeRules(t, path, "Keyword,Field,Action,Value\n")

	l := NewLoader(types.RulesConfig{Path: path}, types.HTTPConfig{}, "")
	assert.Equal(t, 0, l.Load(context.Background()).Len())

	writeRules(t, path, "Keyword,Field,Action,Value\nacme,cartons,IGNORE_COLUMN,Total Units\n")
	assert.Equal(t, 1, l.Load(context.Background()).Len())
}

func TestLoaderMissingSourceYieldsEmptyTable(t *testing.T) {
	l := NewLoader(types.RulesConfig{Path: filepath.Join(t.TempDir(), "absent.csv")}, types.HTTPConfig{}, "")

	_, err := l.Read(context.Background())
	require.Error(t, err)

	table := l.Load(context.Background())
	require.NotNil(t, table)
	assert.Equal(t, 0, table.Len())
}

func TestLoaderRemote(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("Keyword,Field,Action,Value\nacme,cbm,PICK_COLUMN,Measurement\n"))
	}))
	defer srv.Close()

	l := NewLoader(types.RulesConfig{Path: srv.URL + "/rules.csv"}, types.HTTPConfig{UserAgent: "shipcheck/test"}, "tok")
	table, err := l.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 2, calls)
}

func TestLoaderRemoteUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	l := NewLoader(types.RulesConfig{Path: srv.URL}, types.HTTPConfig{}, "")
	_, err := l.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
