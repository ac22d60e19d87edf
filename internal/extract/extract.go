// Package extract reads the three shipping quantities out of a document's
// text. Extraction runs an ordered chain of strategies: an operator rule,
// then a learned pattern, then the keyword heuristic. The first strategy to
// produce a value wins.
package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/rules"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// Hints carries what the rules table and the pattern store know about one
// document and field.
type Hints struct {
	Rules   rules.Directive
	Pattern *types.LearnedPattern
}

// Outcome is the verdict of one strategy attempt.
type Outcome int

const (
	// Pass means the strategy has no value; the chain continues.
	Pass Outcome = iota
	// Found means the returned result carries a value.
	Found
	// Stop means no value, and no later strategy may run.
	Stop
)

// Strategy is one way of locating a field value. Implementations must not
// mutate the page.
type Strategy interface {
	Source() types.Source
	Attempt(p *Page, field types.Field, h Hints) (types.FieldResult, Outcome)
}

// Extractor runs a strategy chain.
type Extractor struct {
	strategies []Strategy
}

// New returns an Extractor running strategies in order.
func New(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Default returns the standard chain: rule, learned pattern, heuristic.
func Default() *Extractor {
	return New(RuleStrategy{}, LearnedStrategy{}, HeuristicStrategy{})
}

// Extract returns the result for one field of doc. It never fails: a field
// that no strategy can find is returned absent.
func (e *Extractor) Extract(ctx context.Context, doc types.Document, field types.Field, h Hints) types.FieldResult {
	return e.extractPage(ctx, NewPage(doc.RawText), doc, field, h)
}

// ExtractAll extracts every field of doc, parsing its text once. hints may
// omit fields.
func (e *Extractor) ExtractAll(ctx context.Context, doc types.Document, hints map[types.Field]Hints) map[types.Field]types.FieldResult {
	p := NewPage(doc.RawText)
	out := make(map[types.Field]types.FieldResult, len(types.Fields))
	for _, f := range types.Fields {
		out[f] = e.extractPage(ctx, p, doc, f, hints[f])
	}
	return out
}

func (e *Extractor) extractPage(ctx context.Context, p *Page, doc types.Document, field types.Field, h Hints) types.FieldResult {
	log := zap.L().With(zap.String("doc_id", doc.DocID), zap.String("field", string(field)))

	for _, s := range e.strategies {
		if ctx.Err() != nil {
			log.Debug("extraction cancelled", zap.Error(ctx.Err()))
			break
		}
		res, outcome := s.Attempt(p, field, h)
		switch outcome {
		case Found:
			res = finish(field, res, s.Source())
			log.Debug("field extracted",
				zap.String("source", string(res.Source)),
				zap.String("value", res.Value),
				zap.Float64("confidence", res.Confidence))
			return res
		case Stop:
			log.Debug("extraction stopped", zap.String("source", string(s.Source())))
			return types.Absent(field)
		}
	}
	return types.Absent(field)
}

// finish enforces the FieldResult invariants on a strategy's result.
func finish(field types.Field, r types.FieldResult, src types.Source) types.FieldResult {
	if r.Value == "" {
		return types.Absent(field)
	}
	r.Field = field
	r.Label = field.Label()
	r.Source = src
	if r.Confidence <= 0 || r.Confidence > 1 {
		r.Confidence = 1
	}
	r.NeedsUserInput = r.Band() == types.BandLow
	return r
}

// Confidences of the directed strategies.
const (
	confRule    = 0.95
	confLearned = 0.92
)

// RuleStrategy reads the value under an operator-picked header. A picked
// header that is not in the document stops the chain: the operator chose
// the column, so no other guess is offered.
type RuleStrategy struct{}

func (RuleStrategy) Source() types.Source { return types.SourceRule }

func (RuleStrategy) Attempt(p *Page, field types.Field, h Hints) (types.FieldResult, Outcome) {
	picked := strings.TrimSpace(h.Rules.Picked)
	if picked == "" {
		return types.FieldResult{}, Pass
	}
	hit, ok := p.Locate(picked)
	if !ok {
		zap.L().Info("picked header not found", zap.String("field", string(field)), zap.String("header", picked))
		return types.FieldResult{}, Stop
	}
	return types.FieldResult{Value: hit.value, Confidence: confRule, Header: picked}, Found
}

// LearnedStrategy re-finds a confirmed value using the context captured
// when the operator confirmed it. A stale context falls through.
type LearnedStrategy struct{}

func (LearnedStrategy) Source() types.Source { return types.SourceLearned }

func (LearnedStrategy) Attempt(p *Page, field types.Field, h Hints) (types.FieldResult, Outcome) {
	lp := h.Pattern
	if lp == nil || lp.Field != field {
		return types.FieldResult{}, Pass
	}

	if header := lp.Context.Header; header != "" && !h.Rules.IgnoresHeader(header) {
		if hit, ok := p.Locate(header); ok {
			return types.FieldResult{Value: hit.value, Confidence: confLearned, Header: header}, Found
		}
	}
	if hit, ok := p.locateShape(lp.Context.Neighborhood, lp.ConfirmedValue); ok && !h.Rules.IgnoresHeader(hit.header) {
		return types.FieldResult{Value: hit.value, Confidence: confLearned, Header: hit.header}, Found
	}

	zap.L().Debug("learned pattern stale",
		zap.String("signature", lp.VendorSignature),
		zap.String("field", string(field)),
		zap.String("header", lp.Context.Header))
	return types.FieldResult{}, Pass
}

// HeuristicStrategy applies the field's keyword vocabulary.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Source() types.Source { return types.SourceRegex }

func (HeuristicStrategy) Attempt(p *Page, field types.Field, h Hints) (types.FieldResult, Outcome) {
	cs := heuristicCandidates(p, field, h.Rules)
	if len(cs) == 0 {
		return types.FieldResult{}, Pass
	}
	rankCandidates(cs)
	return types.FieldResult{
		Value:      cs[0].value,
		Confidence: heuristicConfidence(cs),
		Header:     cs[0].header,
	}, Found
}
