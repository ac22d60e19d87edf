// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for extraction, learning and
// comparison. Metrics register once per process on the default registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/shipcheck/pkg/types"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds the shipcheck collectors. A nil *Metrics is valid and
// records nothing.
//
// Metrics:
//   - shipcheck_fields_extracted_total{field,source,band}
//   - shipcheck_previews_total{outcome}
//   - shipcheck_patterns_learned_total{field}
//   - shipcheck_learn_failures_total{reason}
//   - shipcheck_comparisons_total{status}
type Metrics struct {
	FieldsExtracted *prometheus.CounterVec
	Previews        *prometheus.CounterVec
	PatternsLearned *prometheus.CounterVec
	LearnFailures   *prometheus.CounterVec
	Comparisons     *prometheus.CounterVec
}

// New returns the process-wide Metrics, registering it on first use.
func New() *Metrics {
	once.Do(func() {
		global = &Metrics{
			FieldsExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "shipcheck_fields_extracted_total",
				Help: "Field extractions by field, winning source and confidence band",
			}, []string{"field", "source", "band"}),
			Previews: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "shipcheck_previews_total",
				Help: "Preview requests by outcome (ok, warning, rejected)",
			}, []string{"outcome"}),
			PatternsLearned: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "shipcheck_patterns_learned_total",
				Help: "Learned patterns recorded by field",
			}, []string{"field"}),
			LearnFailures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "shipcheck_learn_failures_total",
				Help: "Rejected learning submissions by reason",
			}, []string{"reason"}),
			Comparisons: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "shipcheck_comparisons_total",
				Help: "Per-field comparison verdicts",
			}, []string{"status"}),
		}
	})
	return global
}

// ObserveField counts one extracted field.
func (m *Metrics) ObserveField(r types.FieldResult) {
	if m == nil {
		return
	}
	source := string(r.Source)
	if source == "" {
		source = "none"
	}
	band := string(r.Band())
	if !r.Found() {
		band = "absent"
	}
	m.FieldsExtracted.WithLabelValues(string(r.Field), source, band).Inc()
}

// ObservePreview counts one preview request.
func (m *Metrics) ObservePreview(outcome string) {
	if m == nil {
		return
	}
	m.Previews.WithLabelValues(outcome).Inc()
}

// ObserveLearned counts one recorded pattern.
func (m *Metrics) ObserveLearned(f types.Field) {
	if m == nil {
		return
	}
	m.PatternsLearned.WithLabelValues(string(f)).Inc()
}

// ObserveLearnFailure counts one rejected learning submission.
func (m *Metrics) ObserveLearnFailure(reason string) {
	if m == nil {
		return
	}
	m.LearnFailures.WithLabelValues(reason).Inc()
}

// ObserveReport counts the per-field verdicts of a comparison report.
func (m *Metrics) ObserveReport(rep types.ComparisonReport) {
	if m == nil {
		return
	}
	for _, c := range rep.Comparisons {
		m.Comparisons.WithLabelValues(string(c.Status)).Inc()
	}
}
