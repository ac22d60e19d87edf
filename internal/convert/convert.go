// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns uploaded files into text with pluggable backends:
// pdftotext on the host, or pdftotext inside a container image.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/shipcheck/internal/container"
	"github.com/pdiddy/shipcheck/internal/ingest"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// DefaultTimeout bounds one conversion when none is configured.
const DefaultTimeout = 60 * time.Second

// Converter extracts the layout-preserving text of a PDF.
type Converter interface {
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// New returns the Converter selected by cfg. The container backend needs a
// runtime; rt may be nil for the host backend.
func New(ctx context.Context, cfg types.ConversionConfig, rt container.Runtime) (Converter, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch cfg.Backend {
	case "", types.BackendPdftotext:
		return NewPdftotext(cfg.PdftotextPath, timeout), nil
	case types.BackendContainer:
		if rt == nil {
			return nil, eris.New("container backend requires a container runtime")
		}
		return NewContainerConverter(ctx, rt, cfg.Image, timeout)
	default:
		return nil, eris.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}

// ReadText returns the text of path. Plain-text files are read as is; PDFs
// go through c.
func ReadText(ctx context.Context, c Converter, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", eris.Wrapf(err, "reading %s", path)
		}
		return string(data), nil
	case ".pdf":
		if c == nil {
			return "", eris.Errorf("no converter configured for %s", path)
		}
		text, err := c.Convert(ctx, path)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", eris.Errorf("no text extracted from %s (scanned image?)", path)
		}
		return text, nil
	default:
		return "", eris.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// BatchResult holds the outcome of loading a set of files.
type BatchResult struct {
	Converted int
	Failed    int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed
}

// HasFailures reports whether any file failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// LoadDocuments reads each path into a Document, printing per-file status
// to w. Files that fail are reported and left out.
func LoadDocuments(ctx context.Context, c Converter, paths []string, w io.Writer) ([]types.Document, BatchResult) {
	var (
		docs   []types.Document
		result BatchResult
	)
	for _, p := range paths {
		text, err := ReadText(ctx, c, p)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", filepath.Base(p), err)
			result.Failed++
			continue
		}
		doc := ingest.NewDocument(p, text, types.RoleUnknown)
		fmt.Fprintf(w, "converted: %s (%s)\n", doc.Filename, roleName(doc.Role))
		docs = append(docs, doc)
		result.Converted++
	}
	return docs, result
}

func roleName(r types.Role) string {
	if r == types.RoleUnknown {
		return "unknown role"
	}
	return string(r)
}
