// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pdiddy/shipcheck/pkg/types"
)

const reportSheet = "Batch"

// reportRow is one archive flattened into report columns.
type reportRow struct {
	Archive     string `csv:"zip_file"`
	Status      string `csv:"status"`
	Notes       string `csv:"notes"`
	DocA        string `csv:"doc_a"`
	DocACartons string `csv:"doc_a_cartons"`
	DocAWeight  string `csv:"doc_a_gross_weight"`
	DocACBM     string `csv:"doc_a_cbm"`
	DocB        string `csv:"doc_b"`
	DocBCartons string `csv:"doc_b_cartons"`
	DocBWeight  string `csv:"doc_b_gross_weight"`
	DocBCBM     string `csv:"doc_b_cbm"`
	DocC        string `csv:"doc_c"`
	DocCCartons string `csv:"doc_c_cartons"`
	DocCWeight  string `csv:"doc_c_gross_weight"`
	DocCCBM     string `csv:"doc_c_cbm"`
}

func toRow(r ArchiveResult) reportRow {
	row := reportRow{Archive: r.Archive, Status: string(r.Status), Notes: r.Message}
	for _, d := range r.Documents {
		name, cartons, weight, cbm := d.Filename, d.Values[types.FieldCartons], d.Values[types.FieldGrossWeight], d.Values[types.FieldCBM]
		switch d.Slot {
		case types.SlotA:
			row.DocA, row.DocACartons, row.DocAWeight, row.DocACBM = name, cartons, weight, cbm
		case types.SlotB:
			row.DocB, row.DocBCartons, row.DocBWeight, row.DocBCBM = name, cartons, weight, cbm
		case types.SlotC:
			row.DocC, row.DocCCartons, row.DocCWeight, row.DocCCBM = name, cartons, weight, cbm
		}
	}
	return row
}

func (r reportRow) cells() []string {
	return []string{
		r.Archive, r.Status, r.Notes,
		r.DocA, r.DocACartons, r.DocAWeight, r.DocACBM,
		r.DocB, r.DocBCartons, r.DocBWeight, r.DocBCBM,
		r.DocC, r.DocCCartons, r.DocCWeight, r.DocCCBM,
	}
}

func toRows(results []ArchiveResult) []reportRow {
	rows := make([]reportRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, toRow(r))
	}
	return rows
}

// WriteCSV writes results as CSV. The header row is written even when
// there are no results.
func WriteCSV(w io.Writer, results []ArchiveResult) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(reportRow{}); err != nil {
		return eris.Wrap(err, "encoding report header")
	}
	for _, row := range toRows(results) {
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "encoding report row %s", row.Archive)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX saves results as a single-sheet workbook at path.
func WriteXLSX(path string, results []ArchiveResult) error {
	header, err := csvutil.Header(reportRow{}, "csv")
	if err != nil {
		return eris.Wrap(err, "building report header")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(reportSheet)
	if err != nil {
		return eris.Wrap(err, "adding report sheet")
	}
	addRow(sheet, header)
	for _, row := range toRows(results) {
		addRow(sheet, row.cells())
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "saving report %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// WriteReport writes results to path in the given format.
func WriteReport(path string, format types.ReportFormat, results []ArchiveResult) error {
	if format == types.ReportXLSX {
		return WriteXLSX(path, results)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "creating report %s", path)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
