// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The filename is the secret name and the trimmed contents are the value,
// e.g. .secrets/rules-token holds the bearer token for a remote rules table.
package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Secrets maps secret names to values.
type Secrets map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Unreadable files are logged and
// skipped.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, eris.Wrapf(err, "reading secrets directory %s", dir)
	}

	out := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			zap.L().Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Lookup returns the named secret. An empty name is never found.
func (s Secrets) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v, ok := s[name]
	return v, ok
}

// Names returns the loaded secret names, sorted. Values are never listed.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
