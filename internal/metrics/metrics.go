// Package metrics holds the Prometheus collectors for validator outcomes,
// registered against a caller-supplied registry so a long-running service
// embedding this core can expose them alongside its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Validator counts ReferenceValidator/AuthValidator/RulesValidator
// outcomes and batch sizes.
type Validator struct {
	RequestsTotal *prometheus.CounterVec
	FailuresTotal *prometheus.CounterVec
	OverrideUsed  prometheus.Counter
	BatchSize     prometheus.Histogram
	BatchDuration prometheus.Histogram
}

// NewValidator registers the validator collectors against reg.
func NewValidator(reg prometheus.Registerer) *Validator {
	v := &Validator{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpslvalidate_requests_total",
			Help: "Total change requests validated, by object class and request type.",
		}, []string{"class", "request_type"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpslvalidate_failures_total",
			Help: "Total change requests that failed validation, by object class and failure category.",
		}, []string{"class", "category"}),
		OverrideUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpslvalidate_override_used_total",
			Help: "Total change requests authorised via override.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpslvalidate_batch_size",
			Help:    "Number of change requests per validated batch.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpslvalidate_batch_duration_seconds",
			Help:    "Wall-clock duration of validating one batch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(v.RequestsTotal, v.FailuresTotal, v.OverrideUsed, v.BatchSize, v.BatchDuration)
	return v
}

// ObserveRequest records one validated ChangeRequest's outcome.
func (v *Validator) ObserveRequest(class, requestType string, valid bool, usedOverride bool, failureCategory string) {
	v.RequestsTotal.WithLabelValues(class, requestType).Inc()
	if !valid {
		v.FailuresTotal.WithLabelValues(class, failureCategory).Inc()
	}
	if usedOverride {
		v.OverrideUsed.Inc()
	}
}
