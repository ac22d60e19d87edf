// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// InsufficientDocumentsError reports a preview request with fewer than two
// (or more than three) documents.
type InsufficientDocumentsError struct {
	Got int
}

func (e *InsufficientDocumentsError) Error() string {
	if e.Got > 3 {
		return fmt.Sprintf("at most 3 documents can be compared, got %d", e.Got)
	}
	return fmt.Sprintf("please upload at least 2 documents, got %d", e.Got)
}

// InvalidValueError reports a learning submission whose value or field is
// unusable.
type InvalidValueError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q: %s", e.Value, e.Field, e.Reason)
}

// NotFoundError reports a doc_id unknown to the current session.
type NotFoundError struct {
	DocID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found in this session", e.DocID)
}

// StorageError reports a pattern persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("pattern store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
