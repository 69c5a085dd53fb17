// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/services/tracking"
)

// TrackedSource exposes tracked download snapshots.
type TrackedSource interface {
	All() []*tracking.TrackedDownload
}

type TrackingCollector struct {
	source TrackedSource

	downloadsDesc *prometheus.Desc
	unmatchedDesc *prometheus.Desc
	progressDesc  *prometheus.Desc
}

func NewTrackingCollector(source TrackedSource) *TrackingCollector {
	return &TrackingCollector{
		source: source,

		downloadsDesc: prometheus.NewDesc(
			"gamarr_tracked_downloads",
			"Number of tracked downloads by client, state and status",
			[]string{"client", "state", "status"},
			nil,
		),
		unmatchedDesc: prometheus.NewDesc(
			"gamarr_tracked_downloads_unmatched",
			"Number of tracked downloads without a game by client",
			[]string{"client"},
			nil,
		),
		progressDesc: prometheus.NewDesc(
			"gamarr_tracked_downloads_active_progress_ratio",
			"Mean progress of active downloads by client",
			[]string{"client"},
			nil,
		),
	}
}

func (c *TrackingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.downloadsDesc
	ch <- c.unmatchedDesc
	ch <- c.progressDesc
}

type stateKey struct {
	client string
	state  tracking.State
	status tracking.Status
}

type clientProgress struct {
	sum   float64
	count int
}

func (c *TrackingCollector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		log.Debug().Msg("[METRICS] No tracked download source, skipping collection")
		return
	}

	downloads := c.source.All()
	counts := make(map[stateKey]int)
	unmatched := make(map[string]int)
	progress := make(map[string]*clientProgress)

	for _, td := range downloads {
		client := td.Client.Name
		counts[stateKey{client: client, state: td.State, status: td.Status}]++
		if _, ok := unmatched[client]; !ok {
			unmatched[client] = 0
		}
		if td.RemoteGame == nil {
			unmatched[client]++
		}
		if td.State == tracking.StateDownloading {
			p := progress[client]
			if p == nil {
				p = &clientProgress{}
				progress[client] = p
			}
			p.sum += td.Progress()
			p.count++
		}
	}

	for k, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.downloadsDesc, prometheus.GaugeValue, float64(n), k.client, string(k.state), string(k.status))
	}
	for client, n := range unmatched {
		ch <- prometheus.MustNewConstMetric(c.unmatchedDesc, prometheus.GaugeValue, float64(n), client)
	}
	for client, p := range progress {
		ch <- prometheus.MustNewConstMetric(c.progressDesc, prometheus.GaugeValue, p.sum/float64(p.count), client)
	}

	log.Debug().Int("downloads", len(downloads)).Msg("[METRICS] Collected tracked downloads")
}
