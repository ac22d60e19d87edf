// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/shipcheck/internal/container"
)

const (
	binPdftotext   = "pdftotext"
	defaultImage   = "minidocks/poppler:latest"
	containerInDir = "/in"
)

// pdftotextArgs keeps the column layout the extractor relies on.
func pdftotextArgs(pdfPath string) []string {
	return []string{"-layout", "-enc", "UTF-8", pdfPath, "-"}
}

// Pdftotext runs the poppler pdftotext binary on the host.
type Pdftotext struct {
	bin     string
	timeout time.Duration
}

// NewPdftotext creates a host converter. An empty bin means "pdftotext" on
// PATH.
func NewPdftotext(bin string, timeout time.Duration) *Pdftotext {
	if bin == "" {
		bin = binPdftotext
	}
	return &Pdftotext{bin: bin, timeout: timeout}
}

// Convert runs pdftotext -layout on pdfPath and returns its stdout.
func (p *Pdftotext) Convert(ctx context.Context, pdfPath string) (string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return "", eris.Wrapf(err, "opening PDF %s", pdfPath)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, pdftotextArgs(pdfPath)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", eris.Wrapf(ctx.Err(), "pdftotext timed out for %s", pdfPath)
		}
		return "", eris.Wrapf(err, "pdftotext failed for %s: %s", pdfPath, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ContainerConverter runs pdftotext inside a container image with the
// PDF's directory mounted read-only.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
	timeout time.Duration
}

// NewContainerConverter verifies image exists in rt and returns a
// converter using it. An empty image selects a poppler image.
func NewContainerConverter(ctx context.Context, rt container.Runtime, image string, timeout time.Duration) (*ContainerConverter, error) {
	if image == "" {
		image = defaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, eris.Wrapf(err, "pdftotext image not available in %s", rt.Name())
	}
	return &ContainerConverter{runtime: rt, image: image, timeout: timeout}, nil
}

// Convert runs pdftotext in the container and returns its stdout.
func (c *ContainerConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "resolving %s", pdfPath)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", eris.Wrapf(err, "opening PDF %s", pdfPath)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	inside := containerInDir + "/" + filepath.Base(abs)
	var out bytes.Buffer
	err = c.runtime.Run(ctx, container.RunSpec{
		Image:  c.image,
		Mounts: []container.Mount{{Host: filepath.Dir(abs), Container: containerInDir}},
		Args:   append([]string{binPdftotext}, pdftotextArgs(inside)...),
	}, &out)
	if err != nil {
		return "", eris.Wrapf(err, "converting %s in %s", pdfPath, c.image)
	}
	return out.String(), nil
}
