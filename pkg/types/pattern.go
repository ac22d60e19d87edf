// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PatternContext is the text context a confirmed value was found under,
// enough to re-find the same value in a later document of the same layout.
type PatternContext struct {
	// Header is the label or column header preceding the value.
	Header string `json:"header,omitempty" yaml:"header,omitempty"`

	// Neighborhood is the trimmed source line holding the value.
	Neighborhood string `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
}

// LearnedPattern is a persisted, operator-confirmed extraction.
type LearnedPattern struct {
	VendorSignature string         `json:"vendor_signature" yaml:"vendor_signature"`
	Field           Field          `json:"field" yaml:"field"`
	ConfirmedValue  string         `json:"confirmed_value" yaml:"confirmed_value"`
	Context         PatternContext `json:"context" yaml:"context"`
	VendorKey       string         `json:"vendor_key,omitempty" yaml:"vendor_key,omitempty"`
	SourceFilename  string         `json:"source_filename,omitempty" yaml:"source_filename,omitempty"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" yaml:"updated_at"`
}

// PatternStats is a read-only snapshot of pattern store size and coverage.
type PatternStats struct {
	PatternCount  int           `json:"pattern_count" yaml:"pattern_count"`
	VendorCount   int           `json:"vendor_count" yaml:"vendor_count"`
	FieldsCovered map[Field]int `json:"fields_covered" yaml:"fields_covered"`
	LastUpdated   *time.Time    `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}
