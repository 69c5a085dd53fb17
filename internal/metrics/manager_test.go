// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/events"
	"github.com/autobrr/gamarr/internal/services/download"
	"github.com/autobrr/gamarr/internal/services/tracking"
)

type staticTracked []*tracking.TrackedDownload

func (s staticTracked) All() []*tracking.TrackedDownload { return s }

func TestNewMetricsManager_RegistersRuntimeAndDatabase(t *testing.T) {
	manager := NewMetricsManager(nil, nil)
	require.NotNil(t, manager.Decisions())

	families, err := manager.GetRegistry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
	assert.True(t, names["gamarr_db_writes_total"])
	if runtime.GOOS == "linux" {
		assert.True(t, names["process_cpu_seconds_total"])
	}
}

func TestNewMetricsManager_PrivateRegistries(t *testing.T) {
	a, b := NewMetricsManager(nil, nil), NewMetricsManager(nil, nil)

	assert.NotSame(t, a.GetRegistry(), b.GetRegistry())
	assert.NotSame(t, a.Decisions(), b.Decisions())
}

func TestManager_TrackedDownloads(t *testing.T) {
	tracked := staticTracked{
		{Client: download.ClientInfo{Name: "sab"}, State: tracking.StateDownloading, Status: tracking.StatusOK, Item: download.Item{TotalSize: 100, RemainingSize: 50}},
		{Client: download.ClientInfo{Name: "sab"}, State: tracking.StateDownloading, Status: tracking.StatusOK, Item: download.Item{TotalSize: 100, RemainingSize: 0}},
		{Client: download.ClientInfo{Name: "sab"}, State: tracking.StateImportBlocked, Status: tracking.StatusError},
	}
	manager := NewMetricsManager(tracked, nil)

	expected := `
# HELP gamarr_tracked_downloads Number of tracked downloads by client, state and status
# TYPE gamarr_tracked_downloads gauge
gamarr_tracked_downloads{client="sab",state="downloading",status="ok"} 2
gamarr_tracked_downloads{client="sab",state="importBlocked",status="error"} 1
# HELP gamarr_tracked_downloads_unmatched Number of tracked downloads without a game by client
# TYPE gamarr_tracked_downloads_unmatched gauge
gamarr_tracked_downloads_unmatched{client="sab"} 3
# HELP gamarr_tracked_downloads_active_progress_ratio Mean progress of active downloads by client
# TYPE gamarr_tracked_downloads_active_progress_ratio gauge
gamarr_tracked_downloads_active_progress_ratio{client="sab"} 0.75
`
	require.NoError(t, testutil.GatherAndCompare(manager.GetRegistry(), strings.NewReader(expected),
		"gamarr_tracked_downloads", "gamarr_tracked_downloads_unmatched", "gamarr_tracked_downloads_active_progress_ratio"))
}

func TestManager_EventStats(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	t.Cleanup(bus.Close)
	bus.GameDeleted.Publish(events.GameDeleted{GameID: 1})
	bus.Wait()

	manager := NewMetricsManager(nil, bus)

	families, err := manager.GetRegistry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "gamarr_events_published_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetValue() == bus.GameDeleted.Name() {
					found = true
					assert.InDelta(t, 1, m.GetCounter().GetValue(), 0)
				}
			}
		}
	}
	assert.True(t, found, "published events should be exported per topic")
}
