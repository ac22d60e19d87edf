// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch checks a folder of ZIP archives, one shipment per archive,
// and writes a report of which shipments reconcile.
package batch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/shipcheck/internal/compare"
	"github.com/pdiddy/shipcheck/internal/convert"
	"github.com/pdiddy/shipcheck/internal/preview"
	"github.com/pdiddy/shipcheck/pkg/types"
)

const (
	minPDFs = 2
	maxPDFs = 3
)

// Status is the verdict for one archive.
type Status string

const (
	StatusMatch    Status = "MATCH"
	StatusMismatch Status = "MISMATCH"
	StatusSkipped  Status = "Skipped"
	StatusError    Status = "Error"
)

// Document is one PDF of an archive and what was extracted from it.
type Document struct {
	Slot     types.Slot
	Filename string
	Values   map[types.Field]string
}

// ArchiveResult is the outcome for one archive.
type ArchiveResult struct {
	Archive   string
	Status    Status
	Message   string
	Documents []Document
	Report    *types.ComparisonReport
}

// Summary counts archive verdicts.
type Summary struct {
	Matched    int
	Mismatched int
	Skipped    int
	Errored    int
}

// Total returns the number of archives processed.
func (s Summary) Total() int {
	return s.Matched + s.Mismatched + s.Skipped + s.Errored
}

// HasFailures reports whether any archive errored.
func (s Summary) HasFailures() bool {
	return s.Errored > 0
}

// Summarize counts the verdicts in results.
func Summarize(results []ArchiveResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusMatch:
			s.Matched++
		case StatusMismatch:
			s.Mismatched++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Errored++
		}
	}
	return s
}

// Runner processes archives concurrently.
type Runner struct {
	conv        convert.Converter
	orch        *preview.Orchestrator
	concurrency int
	limit       int
	limiter     *rate.Limiter
}

// New creates a Runner. A zero RatePerSec leaves conversions unpaced.
func New(cfg types.BatchConfig, conv convert.Converter, orch *preview.Orchestrator) *Runner {
	r := &Runner{
		conv:        conv,
		orch:        orch,
		concurrency: cfg.Concurrency,
		limit:       cfg.Limit,
	}
	if r.concurrency <= 0 {
		r.concurrency = 1
	}
	if cfg.RatePerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return r
}

// Archives lists the ZIP files in dir in name order.
func Archives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "reading batch folder %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Run processes the archives in dir. Per-archive failures are reported in
// the results; only a cancelled context or an unreadable folder fails the
// run. Results keep archive order.
func (r *Runner) Run(ctx context.Context, dir string) ([]ArchiveResult, error) {
	paths, err := Archives(dir)
	if err != nil {
		return nil, err
	}
	if r.limit > 0 && len(paths) > r.limit {
		paths = paths[:r.limit]
	}
	zap.L().Info("processing batch",
		zap.Int("archives", len(paths)),
		zap.Int("concurrency", r.concurrency))

	results := make([]ArchiveResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var done atomic.Int64
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processArchive(gctx, p)
			zap.L().Info("archive processed",
				zap.String("archive", results[i].Archive),
				zap.String("status", string(results[i].Status)),
				zap.Int64("done", done.Add(1)),
				zap.Int("of", len(paths)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "batch processing")
	}
	return results, nil
}

func (r *Runner) processArchive(ctx context.Context, path string) ArchiveResult {
	res := ArchiveResult{Archive: filepath.Base(path)}

	tmp, err := os.MkdirTemp("", "shipcheck-batch-*")
	if err != nil {
		res.Status, res.Message = StatusError, err.Error()
		return res
	}
	defer os.RemoveAll(tmp)

	pdfs, err := extractPDFs(path, tmp)
	if err != nil {
		res.Status, res.Message = StatusError, err.Error()
		return res
	}
	if len(pdfs) < minPDFs {
		res.Status = StatusSkipped
		res.Message = fmt.Sprintf("found only %d PDFs (need at least %d)", len(pdfs), minPDFs)
		return res
	}
	if len(pdfs) > maxPDFs {
		pdfs = pdfs[:maxPDFs]
	}

	var notes []string
	docs := make([]types.SlotDocument, 0, len(pdfs))
	for _, p := range pdfs {
		text, err := r.convert(ctx, p.path)
		if err != nil {
			if ctx.Err() != nil {
				res.Status, res.Message = StatusError, ctx.Err().Error()
				return res
			}
			notes = append(notes, fmt.Sprintf("[%s: %v]", p.name, err))
		}
		docs = append(docs, types.SlotDocument{Document: types.Document{Filename: p.name, RawText: text}})
	}

	pr, err := r.orch.Preview(ctx, docs)
	if err != nil {
		res.Status, res.Message = StatusError, err.Error()
		return res
	}
	for _, slot := range types.Slots {
		d, ok := pr.Documents[slot]
		if !ok {
			continue
		}
		values := make(map[types.Field]string, len(types.Fields))
		for _, f := range types.Fields {
			values[f] = d.Details[f].Value
		}
		res.Documents = append(res.Documents, Document{Slot: slot, Filename: d.Filename, Values: values})
	}

	rep := compare.Compare(compare.Confirm(pr.Documents))
	res.Report = &rep
	res.Status = StatusMismatch
	if rep.AllMatch {
		res.Status = StatusMatch
	}
	for _, c := range rep.Comparisons {
		if c.Status != types.StatusSuccess {
			notes = append(notes, fmt.Sprintf("%s %s", c.Label, c.Status))
		}
	}
	res.Message = strings.Join(notes, "; ")
	return res
}

func (r *Runner) convert(ctx context.Context, path string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return convert.ReadText(ctx, r.conv, path)
}

type extracted struct {
	name string
	path string
}

// extractPDFs writes the PDFs of the archive at path into dir, in archive
// order. Hidden files and macOS resource forks are ignored. Entries are
// written under generated names so archive paths never escape dir.
func extractPDFs(path, dir string) ([]extracted, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening archive %s", filepath.Base(path))
	}
	defer zr.Close()

	var out []extracted
	for _, f := range zr.File {
		name := filepath.Base(filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() || strings.HasPrefix(name, ".") ||
			strings.HasPrefix(f.Name, "__MACOSX/") || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		dst := filepath.Join(dir, fmt.Sprintf("%02d_%s", len(out), name))
		if err := copyEntry(f, dst); err != nil {
			return nil, eris.Wrapf(err, "extracting %s", f.Name)
		}
		out = append(out, extracted{name: name, path: dst})
	}
	return out, nil
}

func copyEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
