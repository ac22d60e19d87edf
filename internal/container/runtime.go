// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a container runtime (docker or podman) and runs
// one-shot containers, used to convert PDFs where pdftotext is not
// installed on the host.
package container

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Mount binds a host directory into the container read-only.
type Mount struct {
	Host      string
	Container string
}

// RunSpec describes one container invocation.
type RunSpec struct {
	Image  string
	Mounts []Mount
	// Args is the command run inside the image.
	Args []string
}

// Runtime provides container operations.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists returns nil when image exists locally.
	ImageExists(ctx context.Context, image string) error

	// Run executes spec in a fresh container, writing its stdout to stdout.
	Run(ctx context.Context, spec RunSpec, stdout io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunCaptured(ctx context.Context, name string, args []string, stdout io.Writer) error
}

// osExecutor runs commands with os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (osExecutor) RunCaptured(ctx context.Context, name string, args []string, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return eris.Wrap(err, msg)
		}
		return err
	}
	return nil
}

// runtime implements Runtime for one container binary. Docker and podman
// differ only in the binary and the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, r.imageCheckCmd...), image)
	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return eris.Wrapf(err, "image %s not found in %s", image, r.bin)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, spec RunSpec, stdout io.Writer) error {
	args := []string{"run", "--rm", "--network=none"}
	for _, m := range spec.Mounts {
		args = append(args, "-v", m.Host+":"+m.Container+":ro")
	}
	args = append(args, spec.Image)
	args = append(args, spec.Args...)

	if err := r.exec.RunCaptured(ctx, r.bin, args, stdout); err != nil {
		return eris.Wrapf(err, "running %s container %s", r.bin, spec.Image)
	}
	return nil
}

func newDockerRuntime(e executor) *runtime {
	return &runtime{bin: binDocker, imageCheckCmd: []string{"image", "inspect"}, exec: e}
}

func newPodmanRuntime(e executor) *runtime {
	return &runtime{bin: binPodman, imageCheckCmd: []string{"image", "exists"}, exec: e}
}

// DetectRuntime tries docker first and falls back to podman.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, osExecutor{})
}

func detectRuntime(ctx context.Context, e executor) (Runtime, error) {
	if docker := newDockerRuntime(e); docker.Available(ctx) {
		return docker, nil
	}
	if podman := newPodmanRuntime(e); podman.Available(ctx) {
		return podman, nil
	}
	return nil, eris.Errorf("no container runtime available: neither %s nor %s found or operational", binDocker, binPodman)
}
