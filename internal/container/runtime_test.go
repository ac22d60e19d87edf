// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeExecutor answers LookPath and RunSilent from tables and records the
// last captured command.
type fakeExecutor struct {
	bins     map[string]bool
	commands map[string]bool
	captured func(name string, args []string, stdout io.Writer) error
	lastArgs []string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.bins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if f.commands[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (f *fakeExecutor) RunCaptured(_ context.Context, name string, args []string, stdout io.Writer) error {
	f.lastArgs = append([]string{name}, args...)
	if f.captured != nil {
		return f.captured(name, args, stdout)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *fakeExecutor
		wantName string
		wantErr  bool
	}{
		{
			name:     "docker available",
			exec:     &fakeExecutor{bins: map[string]bool{"docker": true}, commands: map[string]bool{"docker info": true}},
			wantName: "docker",
		},
		{
			name:     "podman when docker missing",
			exec:     &fakeExecutor{bins: map[string]bool{"podman": true}, commands: map[string]bool{"podman info": true}},
			wantName: "podman",
		},
		{
			name:     "docker daemon down",
			exec:     &fakeExecutor{bins: map[string]bool{"docker": true, "podman": true}, commands: map[string]bool{"podman info": true}},
			wantName: "podman",
		},
		{
			name:    "neither",
			exec:    &fakeExecutor{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(context.Background(), tt.exec)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "no container runtime available") {
					t.Fatalf("want no-runtime error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	const image = "minidocks/poppler:latest"
	tests := []struct {
		name    string
		mkRT    func(*fakeExecutor) Runtime
		cmds    map[string]bool
		wantErr bool
	}{
		{"docker found", func(e *fakeExecutor) Runtime { return newDockerRuntime(e) }, map[string]bool{"docker image inspect " + image: true}, false},
		{"docker missing", func(e *fakeExecutor) Runtime { return newDockerRuntime(e) }, nil, true},
		{"podman found", func(e *fakeExecutor) Runtime { return newPodmanRuntime(e) }, map[string]bool{"podman image exists " + image: true}, false},
		{"podman missing", func(e *fakeExecutor) Runtime { return newPodmanRuntime(e) }, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mkRT(&fakeExecutor{commands: tt.cmds}).ImageExists(context.Background(), image)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), image) {
					t.Fatalf("want error naming the image, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunBuildsCommand(t *testing.T) {
	e := &fakeExecutor{captured: func(_ string, _ []string, stdout io.Writer) error {
		_, err := io.WriteString(stdout, "TOTAL 150 CTNS\n")
		return err
	}}
	rt := newDockerRuntime(e)

	var out bytes.Buffer
	err := rt.Run(context.Background(), RunSpec{
		Image:  "poppler",
		Mounts: []Mount{{Host: "/tmp/in", Container: "/in"}},
		Args:   []string{"pdftotext", "-layout", "/in/a.pdf", "-"},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "TOTAL 150 CTNS\n" {
		t.Errorf("got output %q", out.String())
	}
	want := "docker run --rm --network=none -v /tmp/in:/in:ro poppler pdftotext -layout /in/a.pdf -"
	if got := strings.Join(e.lastArgs, " "); got != want {
		t.Errorf("got command %q, want %q", got, want)
	}
}

func TestRunFailureIsWrapped(t *testing.T) {
	e := &fakeExecutor{captured: func(string, []string, io.Writer) error {
		return errors.New("exit status 1")
	}}
	err := newPodmanRuntime(e).Run(context.Background(), RunSpec{Image: "poppler"}, io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "podman container poppler") {
		t.Errorf("error should name runtime and image, got %v", err)
	}
}
