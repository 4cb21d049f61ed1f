// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "akusiap"

// Subsystem for audit core metrics
const auditSubsystem = "audit"

// Metrics holds the Prometheus metrics for the audit service.
//
// # Description
//
// Counters for the mutation paths of the service. Initialize once at
// startup via InitMetrics(); all handlers share the default instance.
//
// # Thread Safety
//
// All operations are thread-safe via Prometheus's internal locking.
type Metrics struct {
	// MutationsTotal counts entity mutations by entity kind and operation.
	// Labels: entity (instrument, thread, finding, cycle),
	// operation (create, update, close)
	MutationsTotal *prometheus.CounterVec

	// ConflictsDetectedTotal counts evaluation submissions that left the
	// instrument in the conflict state.
	ConflictsDetectedTotal prometheus.Counter

	// ThreadEventsTotal counts clarification thread lifecycle events.
	// Labels: event (opened, closed)
	ThreadEventsTotal *prometheus.CounterVec

	// FindingTransitionsTotal counts derived finding status transitions.
	// Labels: status (the status entered)
	FindingTransitionsTotal *prometheus.CounterVec

	// AnalysisFallbacksTotal counts finding creations where the external
	// analysis service failed and the finding was saved without a
	// suggestion.
	AnalysisFallbacksTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of Metrics.
// Initialized by InitMetrics().
var DefaultMetrics *Metrics

// InitMetrics initializes the default metrics instance.
//
// Creates and registers all Prometheus metrics with the default
// registry. Call once at startup, before serving traffic.
func InitMetrics() *Metrics {
	DefaultMetrics = &Metrics{
		MutationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: auditSubsystem,
				Name:      "mutations_total",
				Help:      "Total entity mutations by entity kind and operation",
			},
			[]string{"entity", "operation"},
		),

		ConflictsDetectedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: auditSubsystem,
				Name:      "conflicts_detected_total",
				Help:      "Total evaluation submissions that left the instrument in conflict",
			},
		),

		ThreadEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: auditSubsystem,
				Name:      "thread_events_total",
				Help:      "Total clarification thread lifecycle events",
			},
			[]string{"event"},
		),

		FindingTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: auditSubsystem,
				Name:      "finding_transitions_total",
				Help:      "Total derived finding status transitions by status entered",
			},
			[]string{"status"},
		),

		AnalysisFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: auditSubsystem,
				Name:      "analysis_fallbacks_total",
				Help:      "Total findings saved without a suggestion after an analysis failure",
			},
		),
	}

	return DefaultMetrics
}

func (m *Metrics) mutation(entity, operation string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(entity, operation).Inc()
}

func (m *Metrics) conflictDetected() {
	if m == nil {
		return
	}
	m.ConflictsDetectedTotal.Inc()
}

func (m *Metrics) threadEvent(event string) {
	if m == nil {
		return
	}
	m.ThreadEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) findingTransition(status string) {
	if m == nil {
		return
	}
	m.FindingTransitionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) analysisFallback() {
	if m == nil {
		return
	}
	m.AnalysisFallbacksTotal.Inc()
}
