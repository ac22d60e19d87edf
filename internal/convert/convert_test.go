// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/shipcheck/internal/container"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// fakeConverter returns canned text or an error.
type fakeConverter struct {
	output string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(context.Context, string) (string, error) {
	f.calls++
	return f.output, f.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "acme_inv.txt", "TOTAL 150 CTNS")
	pdf := writeFile(t, dir, "acme_bl.pdf", "%PDF-1.4")
	doc := writeFile(t, dir, "notes.docx", "x")

	tests := []struct {
		name    string
		conv    Converter
		path    string
		want    string
		wantErr string
	}{
		{name: "text file read directly", conv: nil, path: txt, want: "TOTAL 150 CTNS"},
		{name: "pdf converted", conv: &fakeConverter{output: "G.W. 900 KGS"}, path: pdf, want: "G.W. 900 KGS"},
		{name: "blank pdf text", conv: &fakeConverter{output: " \n "}, path: pdf, wantErr: "no text extracted"},
		{name: "converter failure", conv: &fakeConverter{err: errors.New("boom")}, path: pdf, wantErr: "boom"},
		{name: "no converter", conv: nil, path: pdf, wantErr: "no converter"},
		{name: "unsupported", conv: &fakeConverter{}, path: doc, wantErr: "unsupported file type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadText(context.Background(), tt.conv, tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "BL-0042.txt", "BILL OF LADING\n150 CTNS"),
		writeFile(t, dir, "broken.pdf", "%PDF"),
		writeFile(t, dir, "invoice-0042.txt", "INVOICE\n150 CARTONS"),
	}

	var log bytes.Buffer
	docs, res := LoadDocuments(context.Background(), &fakeConverter{err: errors.New("damaged xref")}, paths, &log)

	require.Len(t, docs, 2)
	assert.Equal(t, BatchResult{Converted: 2, Failed: 1}, res)
	assert.Equal(t, 3, res.Total())
	assert.True(t, res.HasFailures())

	assert.Equal(t, "BL-0042.txt", docs[0].Filename)
	assert.Equal(t, types.RoleOBL, docs[0].Role)
	assert.Equal(t, types.RoleINV, docs[1].Role)
	assert.NotEmpty(t, docs[0].DocID)
	assert.Contains(t, log.String(), "failed:    broken.pdf")
	assert.Contains(t, log.String(), "converted: BL-0042.txt (OBL)")
}

// fakeScript writes an executable shell script standing in for pdftotext.
func fakeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	p := filepath.Join(t.TempDir(), "pdftotext")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestPdftotext(t *testing.T) {
	pdf := writeFile(t, t.TempDir(), "acme_pl.pdf", "%PDF")

	t.Run("passes layout flags", func(t *testing.T) {
		bin := fakeScript(t, `echo "$@"`)
		out, err := NewPdftotext(bin, time.Second).Convert(context.Background(), pdf)
		require.NoError(t, err)
		assert.Equal(t, "-layout -enc UTF-8 "+pdf+" -\n", out)
	})

	t.Run("failure carries stderr", func(t *testing.T) {
		bin := fakeScript(t, `echo "Syntax Error: Couldn't read xref table" >&2; exit 1`)
		_, err := NewPdftotext(bin, time.Second).Convert(context.Background(), pdf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xref table")
	})

	t.Run("timeout", func(t *testing.T) {
		bin := fakeScript(t, `exec sleep 5`)
		_, err := NewPdftotext(bin, 50*time.Millisecond).Convert(context.Background(), pdf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewPdftotext("pdftotext", time.Second).Convert(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
		assert.Error(t, err)
	})
}

type fakeRuntime struct {
	hasImage bool
	spec     container.RunSpec
	output   string
}

func (f *fakeRuntime) Name() string                   { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool { return true }

func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	if f.hasImage {
		return nil
	}
	return errors.New("no such image: " + image)
}

func (f *fakeRuntime) Run(_ context.Context, spec container.RunSpec, stdout io.Writer) error {
	f.spec = spec
	_, err := io.WriteString(stdout, f.output)
	return err
}

func TestContainerConverter(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "acme_pl.pdf", "%PDF")

	rt := &fakeRuntime{hasImage: true, output: "TOTAL 150 CTNS\n"}
	c, err := NewContainerConverter(context.Background(), rt, "", time.Second)
	require.NoError(t, err)

	out, err := c.Convert(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 150 CTNS\n", out)
	assert.Equal(t, defaultImage, rt.spec.Image)
	require.Len(t, rt.spec.Mounts, 1)
	assert.Equal(t, dir, rt.spec.Mounts[0].Host)
	assert.Equal(t, "/in/acme_pl.pdf", rt.spec.Args[len(rt.spec.Args)-2])
	assert.Equal(t, "pdftotext", rt.spec.Args[0])
}

func TestContainerConverterMissingImage(t *testing.T) {
	_, err := NewContainerConverter(context.Background(), &fakeRuntime{}, "poppler:24", time.Second)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "poppler:24"))
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(context.Background(), types.ConversionConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Pdftotext{}, c)

	_, err = New(context.Background(), types.ConversionConfig{Backend: types.BackendContainer}, nil)
	assert.Error(t, err)

	c, err = New(context.Background(), types.ConversionConfig{Backend: types.BackendContainer}, &fakeRuntime{hasImage: true})
	require.NoError(t, err)
	assert.IsType(t, &ContainerConverter{}, c)

	_, err = New(context.Background(), types.ConversionConfig{Backend: "ocr"}, nil)
	assert.Error(t, err)
}
