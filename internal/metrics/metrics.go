package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ImportMetrics holds the Prometheus metrics of an import process. All
// methods are safe to call on a nil *ImportMetrics.
type ImportMetrics struct {
	registry *prometheus.Registry

	RowsTotal                *prometheus.CounterVec
	RelatedTotal             *prometheus.CounterVec
	UnresolvedAssigneesTotal prometheus.Counter
}

// New creates the import metrics on a private registry.
func New() *ImportMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &ImportMetrics{
		registry: reg,
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmimport",
			Name:      "rows_total",
			Help:      "Total number of CSV rows processed by outcome.",
		}, []string{"model", "outcome"}), // outcome: created, updated, skipped, filtered, failed
		RelatedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmimport",
			Name:      "related_total",
			Help:      "Total number of related records written by kind and action.",
		}, []string{"kind", "action"}), // action: created, updated
		UnresolvedAssigneesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crmimport",
			Name:      "unresolved_assignees_total",
			Help:      "Distinct assignee names that could not be mapped to a user.",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *ImportMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Row counts one processed row.
func (m *ImportMetrics) Row(model, outcome string) {
	if m == nil {
		return
	}
	m.RowsTotal.WithLabelValues(model, outcome).Inc()
}

// Related counts one related record write.
func (m *ImportMetrics) Related(kind, action string) {
	if m == nil {
		return
	}
	m.RelatedTotal.WithLabelValues(kind, action).Inc()
}

// UnresolvedAssignee counts a distinct assignee name that was not resolved.
func (m *ImportMetrics) UnresolvedAssignee() {
	if m == nil {
		return
	}
	m.UnresolvedAssigneesTotal.Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// for pickup by the node exporter textfile collector.
func (m *ImportMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
