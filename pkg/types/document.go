// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Role is the kind of trade document, inferred from its upload slot.
type Role string

const (
	RoleUnknown Role = ""
	RoleOBL     Role = "OBL"
	RolePKL     Role = "PKL"
	RoleINV     Role = "INV"
)

// Slot names one of the three upload positions of a comparison.
type Slot string

const (
	SlotA Slot = "doc_a"
	SlotB Slot = "doc_b"
	SlotC Slot = "doc_c"
)

// Slots lists the upload slots in display order.
var Slots = []Slot{SlotA, SlotB, SlotC}

var slotRoles = map[Slot]Role{
	SlotA: RoleOBL,
	SlotB: RoleINV,
	SlotC: RolePKL,
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	_, ok := slotRoles[s]
	return ok
}

// Role returns the document role associated with the slot.
func (s Slot) Role() Role { return slotRoles[s] }

// Letter returns the short display letter of the slot ("A", "B", "C").
func (s Slot) Letter() string {
	switch s {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	case SlotC:
		return "C"
	}
	return string(s)
}

// SlotForRole returns the upload slot conventionally used for role r.
func SlotForRole(r Role) (Slot, bool) {
	for s, sr := range slotRoles {
		if sr == r {
			return s, true
		}
	}
	return "", false
}

// Document is one uploaded source file after text extraction.
type Document struct {
	// DocID is assigned at ingestion and correlates learning feedback with
	// the extraction context.
	DocID string `json:"doc_id" yaml:"doc_id"`

	Filename string `json:"filename" yaml:"filename"`

	// RawText is owned by the text-extraction collaborator and never mutated.
	RawText string `json:"-" yaml:"-"`

	Role Role `json:"role,omitempty" yaml:"role,omitempty"`

	// VendorSignature keys learned patterns across uploads of one template.
	VendorSignature string `json:"vendor_signature,omitempty" yaml:"vendor_signature,omitempty"`

	// VendorKey is the readable input of VendorSignature.
	VendorKey string `json:"vendor_key,omitempty" yaml:"vendor_key,omitempty"`

	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
}

// SlotDocument pairs a Document with the slot it was uploaded into.
type SlotDocument struct {
	Slot     Slot
	Document Document
}

// DocumentResult is the preview output for one document.
type DocumentResult struct {
	Filename string                `json:"filename"`
	DocID    string                `json:"doc_id"`
	Role     Role                  `json:"role,omitempty"`
	Details  map[Field]FieldResult `json:"details"`
}

// PreviewResult is the outcome of extracting all fields from 2–3 documents.
type PreviewResult struct {
	Documents map[Slot]DocumentResult `json:"documents"`

	// Warning is the non-fatal extraction warning; empty when every field
	// was found with at least medium confidence.
	Warning string `json:"warning,omitempty"`
}
