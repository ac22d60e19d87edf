// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Field identifies one of the three numeric shipping quantities the engine
// extracts. The set is closed: adding a field means teaching the heuristic
// extractor new keywords.
type Field string

const (
	FieldCartons     Field = "cartons"
	FieldGrossWeight Field = "gross_weight"
	FieldCBM         Field = "cbm"
)

// Fields lists every Field in display order.
var Fields = []Field{FieldCartons, FieldGrossWeight, FieldCBM}

var fieldLabels = map[Field]string{
	FieldCartons:     "Cartons (CTN)",
	FieldGrossWeight: "Gross Weight (KGS)",
	FieldCBM:         "Volume (CBM)",
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// Label returns the human-readable caption for f.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Source records which strategy produced a value.
type Source string

const (
	SourceNone    Source = ""
	SourceRule    Source = "rule"
	SourceLearned Source = "learned_pattern"
	SourceRegex   Source = "regex"
)

// Band is a coarse confidence classification. The boundaries are fixed.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

const (
	HighThreshold   = 0.9
	MediumThreshold = 0.7
)

// BandOf classifies a confidence score.
func BandOf(confidence float64) Band {
	switch {
	case confidence >= HighThreshold:
		return BandHigh
	case confidence >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// FieldResult is the outcome of extracting one field from one document.
type FieldResult struct {
	Field Field `json:"field" yaml:"field"`

	// Value is the normalized numeric token. Empty means absent.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Confidence is in [0,1]; always 0 when Value is empty.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Source is set if and only if Value is set.
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`

	Label string `json:"label" yaml:"label"`

	// Header is the label or column header the value was read under.
	Header string `json:"header,omitempty" yaml:"header,omitempty"`

	// NeedsUserInput mirrors the UI flag: absent or low-band values.
	NeedsUserInput bool `json:"needs_user_input" yaml:"needs_user_input"`
}

// Absent returns the empty FieldResult for f.
func Absent(f Field) FieldResult {
	return FieldResult{Field: f, Label: f.Label(), NeedsUserInput: true}
}

// Found reports whether the result carries a value.
func (r FieldResult) Found() bool { return r.Value != "" }

// Band returns the confidence band of the result.
func (r FieldResult) Band() Band { return BandOf(r.Confidence) }
