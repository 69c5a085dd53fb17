// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/database"
	"github.com/autobrr/gamarr/internal/metrics/collector"
)

type Manager struct {
	registry          *prometheus.Registry
	decisions         *collector.DecisionCollector
	trackingCollector *collector.TrackingCollector
	eventsCollector   *collector.EventsCollector
}

// NewMetricsManager registers runtime, database, decision, tracking and
// event bus metrics on a private registry. Either source may be nil.
func NewMetricsManager(tracked collector.TrackedSource, bus collector.EventSource) *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(database.NewMetricsCollector())

	trackingCollector := collector.NewTrackingCollector(tracked)
	registry.MustRegister(trackingCollector)

	eventsCollector := collector.NewEventsCollector(bus)
	registry.MustRegister(eventsCollector)

	log.Info().Msg("[METRICS] Metrics manager initialized")

	return &Manager{
		registry:          registry,
		decisions:         collector.NewDecisionCollector(registry),
		trackingCollector: trackingCollector,
		eventsCollector:   eventsCollector,
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Decisions is handed to the decision pipeline.
func (m *Manager) Decisions() *collector.DecisionCollector {
	return m.decisions
}
