// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	ExportedAt time.Time              `json:"exported_at" yaml:"exported_at"`
	Stats      types.PatternStats     `json:"stats" yaml:"stats"`
	Patterns   []types.LearnedPattern `json:"patterns" yaml:"patterns"`
}

func (s *Store) export(ctx context.Context) (*Export, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []types.LearnedPattern{}
	}
	return &Export{ExportedAt: s.now().UTC(), Stats: stats, Patterns: list}, nil
}

// ExportYAML writes every learned pattern to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	doc, err := s.export(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "encoding pattern export")
	}
	return enc.Close()
}

// ExportJSON writes every learned pattern to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	doc, err := s.export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "encoding pattern export")
	}
	return nil
}
