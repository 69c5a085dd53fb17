// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

type DecisionCollector struct {
	BatchesTotal  prometheus.Counter
	ReleasesTotal *prometheus.CounterVec
	BatchDuration prometheus.Histogram
}

func NewDecisionCollector(r prometheus.Registerer) *DecisionCollector {
	m := &DecisionCollector{
		BatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gamarr",
			Subsystem: "decision",
			Name:      "batches_total",
			Help:      "Total number of processed decision batches",
		}),
		ReleasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamarr",
			Subsystem: "decision",
			Name:      "releases_total",
			Help:      "Total number of releases by batch outcome and reason",
		}, []string{"outcome", "reason"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gamarr",
			Subsystem: "decision",
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing a decision batch",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	r.MustRegister(m.BatchesTotal)
	r.MustRegister(m.ReleasesTotal)
	r.MustRegister(m.BatchDuration)
	return m
}

// ObserveRelease counts one release outcome. Safe on a nil collector.
func (m *DecisionCollector) ObserveRelease(outcome, reason string) {
	if m == nil {
		return
	}
	m.ReleasesTotal.With(prometheus.Labels{"outcome": outcome, "reason": reason}).Inc()
}

// ObserveBatch records a finished batch. Safe on a nil collector.
func (m *DecisionCollector) ObserveBatch(seconds float64) {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
	m.BatchDuration.Observe(seconds)
}
