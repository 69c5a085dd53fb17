// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	writesTotal             atomic.Uint64
	maintenanceDeletedTotal atomic.Uint64
)

type MetricsCollector struct {
	writesDesc             *prometheus.Desc
	maintenanceDeletedDesc *prometheus.Desc
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		writesDesc: prometheus.NewDesc(
			"gamarr_db_writes_total",
			"Number of write statements executed by the single writer",
			nil,
			nil,
		),
		maintenanceDeletedDesc: prometheus.NewDesc(
			"gamarr_db_maintenance_deleted_total",
			"Number of stale pending releases removed by database maintenance",
			nil,
			nil,
		),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.writesDesc
	ch <- c.maintenanceDeletedDesc
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.writesDesc, prometheus.CounterValue, float64(writesTotal.Load()))
	ch <- prometheus.MustNewConstMetric(c.maintenanceDeletedDesc, prometheus.CounterValue, float64(maintenanceDeletedTotal.Load()))
}
