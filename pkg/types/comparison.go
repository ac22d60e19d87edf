// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ComparisonStatus is the per-field reconciliation verdict.
type ComparisonStatus string

const (
	StatusSuccess ComparisonStatus = "success"
	StatusError   ComparisonStatus = "error"
	StatusPartial ComparisonStatus = "partial"
	StatusMissing ComparisonStatus = "missing"
)

// ConfirmedValue is one operator-confirmed cell as submitted for comparison.
type ConfirmedValue struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ConfirmedValues holds the confirmed cells per slot and field. A slot that
// is not a key was not uploaded.
type ConfirmedValues map[Slot]map[Field]ConfirmedValue

// ComparisonResult reconciles one field across the uploaded documents.
type ComparisonResult struct {
	Field        Field            `json:"field_key" yaml:"field_key"`
	Label        string           `json:"field" yaml:"field"`
	Values       map[Slot]*string `json:"values" yaml:"values"`
	Status       ComparisonStatus `json:"status" yaml:"status"`
	MatchedValue string           `json:"matched_value,omitempty" yaml:"matched_value,omitempty"`
	Message      string           `json:"message,omitempty" yaml:"message,omitempty"`
}

// ComparisonReport is the result of comparing all fields.
type ComparisonReport struct {
	Comparisons []ComparisonResult `json:"comparisons" yaml:"comparisons"`
	AllMatch    bool               `json:"all_match" yaml:"all_match"`
}
