// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview runs field extraction over the 2–3 documents of one
// comparison and registers them for learning feedback.
package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/extract"
	"github.com/pdiddy/shipcheck/internal/ingest"
	"github.com/pdiddy/shipcheck/internal/metrics"
	"github.com/pdiddy/shipcheck/internal/normalize"
	"github.com/pdiddy/shipcheck/internal/rules"
	"github.com/pdiddy/shipcheck/pkg/types"
)

const (
	minDocuments = 2
	maxDocuments = 3
)

// Cartons-versus-weight plausibility: a handful of cartons weighing half a
// tonne usually means the heuristic read a line number or a page count.
const (
	implausibleCartons = 50
	implausibleWeight  = 500
	downgradedConf     = 0.5
)

// RuleSource supplies the current rules table.
type RuleSource interface {
	Load(ctx context.Context) *rules.Table
}

// PatternLookup finds the learned pattern for a vendor and field.
type PatternLookup interface {
	Lookup(ctx context.Context, signature string, field types.Field) (*types.LearnedPattern, error)
}

// Orchestrator extracts every field of a set of documents.
type Orchestrator struct {
	rules     RuleSource
	patterns  PatternLookup
	session   *Session
	extractor *extract.Extractor
	metrics   *metrics.Metrics
}

// New creates an Orchestrator. patterns and m may be nil.
func New(rs RuleSource, patterns PatternLookup, session *Session, m *metrics.Metrics) *Orchestrator {
	if session == nil {
		session = NewSession(0)
	}
	return &Orchestrator{
		rules:     rs,
		patterns:  patterns,
		session:   session,
		extractor: extract.Default(),
		metrics:   m,
	}
}

// Session returns the registry documents are recorded in.
func (o *Orchestrator) Session() *Session { return o.session }

// Preview extracts cartons, gross weight and volume from each document.
// Documents without a doc_id are ingested first. Slots left empty are
// assigned from the document role.
func (o *Orchestrator) Preview(ctx context.Context, docs []types.SlotDocument) (*types.PreviewResult, error) {
	if len(docs) < minDocuments || len(docs) > maxDocuments {
		o.metrics.ObservePreview("rejected")
		return nil, &types.InsufficientDocumentsError{Got: len(docs)}
	}
	placed, err := assignSlots(docs)
	if err != nil {
		o.metrics.ObservePreview("rejected")
		return nil, err
	}

	table := o.loadRules(ctx)

	result := &types.PreviewResult{Documents: make(map[types.Slot]types.DocumentResult, len(placed))}
	var notes []string
	for _, slot := range types.Slots {
		sd, ok := placed[slot]
		if !ok {
			continue
		}
		dr, docNotes := o.extract(ctx, table, prepare(sd))
		for _, n := range docNotes {
			notes = append(notes, fmt.Sprintf("%s: %s", slot.Letter(), n))
		}
		result.Documents[slot] = dr
	}

	if len(notes) > 0 {
		result.Warning = "Please verify the highlighted values. " + strings.Join(dedupe(notes), "; ")
		o.metrics.ObservePreview("warning")
	} else {
		o.metrics.ObservePreview("ok")
	}
	return result, nil
}

// Extract runs extraction on a single document and registers it in the
// session, so that a value confirmed for it can be learned. The document is
// ingested first when it has no doc_id.
func (o *Orchestrator) Extract(ctx context.Context, doc types.Document) types.DocumentResult {
	dr, _ := o.extract(ctx, o.loadRules(ctx), prepare(types.SlotDocument{Document: doc}))
	return dr
}

func (o *Orchestrator) loadRules(ctx context.Context) *rules.Table {
	if o.rules == nil {
		return nil
	}
	return o.rules.Load(ctx)
}

// extract reads every field of doc and records the headers the values were
// found under. The notes name fields the operator should look at.
func (o *Orchestrator) extract(ctx context.Context, table *rules.Table, doc types.Document) (types.DocumentResult, []string) {
	hints := make(map[types.Field]extract.Hints, len(types.Fields))
	for _, f := range types.Fields {
		hints[f] = extract.Hints{
			Rules:   table.RulesFor(doc.Filename, f),
			Pattern: o.lookup(ctx, doc, f),
		}
	}
	details := o.extractor.ExtractAll(ctx, doc, hints)

	var notes []string
	if note, ok := sanityCheck(details); ok {
		notes = append(notes, note)
	}
	headers := make(map[types.Field]string, len(details))
	for _, f := range types.Fields {
		r := details[f]
		o.metrics.ObserveField(r)
		if r.Header != "" {
			headers[f] = r.Header
		}
		switch {
		case !r.Found():
			notes = append(notes, f.Label()+" not found")
		case r.Band() == types.BandLow:
			notes = append(notes, f.Label()+" low confidence")
		}
	}
	o.session.Put(Entry{Document: doc, Headers: headers})

	zap.L().Info("document previewed",
		zap.String("doc_id", doc.DocID),
		zap.String("role", string(doc.Role)),
		zap.String("signature", doc.VendorSignature))
	return types.DocumentResult{
		Filename: doc.Filename,
		DocID:    doc.DocID,
		Role:     doc.Role,
		Details:  details,
	}, notes
}

// lookup returns the learned pattern for doc and f. Store failures only
// cost the acceleration, so they are logged and ignored.
func (o *Orchestrator) lookup(ctx context.Context, doc types.Document, f types.Field) *types.LearnedPattern {
	if o.patterns == nil || doc.VendorSignature == "" {
		return nil
	}
	lp, err := o.patterns.Lookup(ctx, doc.VendorSignature, f)
	if err != nil {
		zap.L().Warn("pattern lookup failed",
			zap.String("doc_id", doc.DocID),
			zap.String("field", string(f)),
			zap.Error(err))
		return nil
	}
	return lp
}

// assignSlots places each document in a slot. An explicit slot is kept; an
// empty one takes the slot of the document role, or the first free slot.
func assignSlots(docs []types.SlotDocument) (map[types.Slot]types.SlotDocument, error) {
	placed := make(map[types.Slot]types.SlotDocument, len(docs))
	var pending []types.SlotDocument
	for _, sd := range docs {
		if sd.Slot == "" {
			pending = append(pending, sd)
			continue
		}
		if !sd.Slot.Valid() {
			return nil, eris.Errorf("unknown slot %q", sd.Slot)
		}
		if _, dup := placed[sd.Slot]; dup {
			return nil, eris.Errorf("slot %q given twice", sd.Slot)
		}
		placed[sd.Slot] = sd
	}
	for _, sd := range pending {
		role := sd.Document.Role
		if role == types.RoleUnknown {
			role = ingest.ClassifyRole(sd.Document.Filename)
		}
		slot, ok := types.SlotForRole(role)
		if _, taken := placed[slot]; !ok || taken {
			slot = ""
			for _, s := range types.Slots {
				if _, taken := placed[s]; !taken {
					slot = s
					break
				}
			}
		}
		sd.Slot = slot
		placed[slot] = sd
	}
	return placed, nil
}

// prepare fills in what ingestion would have: doc_id, role from the slot,
// vendor key and signature.
func prepare(sd types.SlotDocument) types.Document {
	doc := sd.Document
	role := doc.Role
	if role == types.RoleUnknown {
		role = sd.Slot.Role()
	}
	if doc.DocID == "" {
		return ingest.NewDocument(doc.Filename, doc.RawText, role)
	}
	doc.Role = role
	if doc.VendorKey == "" {
		doc.VendorKey = ingest.VendorKey(doc.Filename, doc.RawText)
	}
	if doc.VendorSignature == "" {
		doc.VendorSignature = ingest.Signature(doc.VendorKey, doc.Role)
	}
	return doc
}

// sanityCheck downgrades a heuristic carton count that is implausibly low
// for the document's gross weight. It reports a warning note when it fires.
func sanityCheck(details map[types.Field]types.FieldResult) (string, bool) {
	ctn := details[types.FieldCartons]
	gw := details[types.FieldGrossWeight]
	if ctn.Source != types.SourceRegex || !gw.Found() {
		return "", false
	}
	c, okC := normalize.Parse(ctn.Value)
	w, okW := normalize.Parse(gw.Value)
	if !okC || !okW || c >= implausibleCartons || w <= implausibleWeight {
		return "", false
	}
	if ctn.Confidence > downgradedConf {
		ctn.Confidence = downgradedConf
	}
	ctn.NeedsUserInput = true
	details[types.FieldCartons] = ctn
	return fmt.Sprintf("%s %s looks too low for %s KGS", types.FieldCartons.Label(), ctn.Value, gw.Value), true
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
