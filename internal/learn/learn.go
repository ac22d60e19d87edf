// Package learn turns operator corrections into learned patterns. It is the
// only writer of the pattern store.
package learn

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/extract"
	"github.com/pdiddy/shipcheck/internal/metrics"
	"github.com/pdiddy/shipcheck/internal/normalize"
	"github.com/pdiddy/shipcheck/internal/preview"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// Recorder persists a learned pattern.
type Recorder interface {
	Record(ctx context.Context, p types.LearnedPattern) error
}

// Learner records confirmed values against the documents of a session.
type Learner struct {
	session *preview.Session
	store   Recorder
	metrics *metrics.Metrics
}

// New creates a Learner. m may be nil.
func New(session *preview.Session, store Recorder, m *metrics.Metrics) *Learner {
	return &Learner{session: session, store: store, metrics: m}
}

// Learn records that value is the correct field value for the previewed
// document docID. Recording the same correction twice leaves the store
// unchanged.
func (l *Learner) Learn(ctx context.Context, docID string, field types.Field, value string) error {
	if !field.Valid() {
		l.metrics.ObserveLearnFailure("invalid_field")
		return &types.InvalidValueError{Field: field, Value: value, Reason: "unknown field"}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		l.metrics.ObserveLearnFailure("invalid_value")
		return &types.InvalidValueError{Field: field, Value: value, Reason: "value is empty"}
	}
	canonical, ok := normalize.Canonical(value)
	if !ok {
		l.metrics.ObserveLearnFailure("invalid_value")
		return &types.InvalidValueError{Field: field, Value: value, Reason: "value is not numeric"}
	}

	entry, ok := l.session.Get(docID)
	if !ok {
		l.metrics.ObserveLearnFailure("not_found")
		return &types.NotFoundError{DocID: docID}
	}
	doc := entry.Document

	pc := extract.CaptureContext(doc.RawText, canonical, entry.Headers[field])
	if pc == (types.PatternContext{}) {
		zap.L().Info("confirmed value not in document text",
			zap.String("doc_id", docID),
			zap.String("field", string(field)),
			zap.String("value", canonical))
	}

	err := l.store.Record(ctx, types.LearnedPattern{
		VendorSignature: doc.VendorSignature,
		Field:           field,
		ConfirmedValue:  canonical,
		Context:         pc,
		VendorKey:       doc.VendorKey,
		SourceFilename:  doc.Filename,
	})
	if err != nil {
		l.metrics.ObserveLearnFailure("storage")
		return err
	}

	l.metrics.ObserveLearned(field)
	zap.L().Info("pattern learned",
		zap.String("doc_id", docID),
		zap.String("signature", doc.VendorSignature),
		zap.String("field", string(field)),
		zap.String("value", canonical),
		zap.String("header", pc.Header))
	return nil
}
