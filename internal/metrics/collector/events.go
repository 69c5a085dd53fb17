// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/gamarr/internal/events"
)

type EventSource interface {
	Stats() []events.TopicStats
}

type EventsCollector struct {
	source EventSource

	publishedDesc *prometheus.Desc
	failuresDesc  *prometheus.Desc
}

func NewEventsCollector(source EventSource) *EventsCollector {
	return &EventsCollector{
		source: source,
		publishedDesc: prometheus.NewDesc(
			"gamarr_events_published_total",
			"Total number of published domain events by topic",
			[]string{"topic"},
			nil,
		),
		failuresDesc: prometheus.NewDesc(
			"gamarr_events_handler_failures_total",
			"Total number of failed event handler runs by topic",
			[]string{"topic"},
			nil,
		),
	}
}

func (c *EventsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.publishedDesc
	ch <- c.failuresDesc
}

func (c *EventsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	for _, s := range c.source.Stats() {
		ch <- prometheus.MustNewConstMetric(c.publishedDesc, prometheus.CounterValue, float64(s.Published), s.Topic)
		ch <- prometheus.MustNewConstMetric(c.failuresDesc, prometheus.CounterValue, float64(s.Failures), s.Topic)
	}
}
