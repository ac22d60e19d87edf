// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns uploaded files into Documents: it assigns doc_ids,
// classifies the document role and derives the vendor signature that keys
// learned patterns.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// NewDocument builds a Document with a fresh doc_id. role may be
// RoleUnknown, in which case it is classified from the filename.
func NewDocument(filename, text string, role types.Role) types.Document {
	if role == types.RoleUnknown {
		role = ClassifyRole(filename)
	}
	key := VendorKey(filename, text)
	return types.Document{
		DocID:           uuid.NewString(),
		Filename:        filepath.Base(filename),
		RawText:         text,
		Role:            role,
		VendorKey:       key,
		VendorSignature: Signature(key, role),
		IngestedAt:      time.Now().UTC(),
	}
}

// ClassifyRole infers the document role from its filename. Prefix matches
// take precedence over looser substring matches. Unrecognized names yield
// RoleUnknown.
func ClassifyRole(filename string) types.Role {
	name := strings.ToLower(filepath.Base(filename))

	switch {
	case strings.HasSuffix(name, "inv.pdf"):
		return types.RoleINV
	case hasAnyPrefix(name, "invoice", "inv", "in ", "td inv"):
		return types.RoleINV
	case hasAnyPrefix(name, "obl", "bl"):
		return types.RoleOBL
	case hasAnyPrefix(name, "pl", "plist"):
		return types.RolePKL
	}

	switch {
	case strings.Contains(name, "inv"):
		return types.RoleINV
	case strings.Contains(name, "lading"), strings.Contains(name, "bl"):
		return types.RoleOBL
	case strings.Contains(name, "packing"), strings.Contains(name, "pl"):
		return types.RolePKL
	}
	return types.RoleUnknown
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// noiseWords are tokens that describe the document kind, its handling or a
// company suffix rather than the vendor.
var noiseWords = map[string]bool{
	"inv": true, "invoice": true, "ci": true,
	"pl": true, "plist": true, "packing": true, "list": true, "pkl": true,
	"obl": true, "bl": true, "bol": true, "bill": true, "of": true, "lading": true,
	"doc": true, "docs": true, "scan": true, "scanned": true, "copy": true,
	"final": true, "draft": true, "rev": true, "pdf": true, "td": true,
	"ltd": true, "limited": true, "inc": true, "llc": true, "corp": true, "company": true,
}

// VendorKey derives the readable vendor part of a signature. It keeps the
// filename tokens that are not noise words, digits or shorter than three
// letters. When nothing remains it falls back to the first
// letterhead line of the text.
func VendorKey(filename, text string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if key := keyTokens(base); key != "" {
		return key
	}
	for _, line := range strings.Split(text, "\n") {
		if key := keyTokens(line); key != "" {
			return key
		}
	}
	return ""
}

func keyTokens(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var kept []string
	for _, f := range fields {
		if len([]rune(f)) < 3 || noiseWords[f] {
			continue
		}
		kept = append(kept, f)
		if len(kept) == 4 {
			break
		}
	}
	return strings.Join(kept, "-")
}

// Signature hashes the vendor key and role into a stable 16-hex-digit
// identifier. Role is part of the key because an invoice and a packing list
// from one vendor have different layouts.
func Signature(vendorKey string, role types.Role) string {
	h := sha256.Sum256([]byte(vendorKey + "|" + string(role)))
	return hex.EncodeToString(h[:8])
}
