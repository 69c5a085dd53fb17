// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/gamarr/internal/models"
)

func TestPrioritize(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(title string, score int, published time.Time) *Decision {
		r := remote(1, title, models.ProtocolTorrent, score)
		r.Release.PublishDate = published
		return NewDecision(r, gogProfile)
	}

	lowScoreGOG := mk("Some.Game.2015.GOG-GROUP", 0, base)
	highScoreRepack := mk("Some Game [FitGirl Repack]", 50, base)
	scene := mk("Some.Game.2015-CODEX", 0, base)
	proper := mk("Some.Game.2015.PROPER-CODEX", 0, base)
	earlierScene := mk("Some.Game.2015-SKIDROW", 0, base.Add(-time.Hour))
	undated := mk("Some.Game.2015-PLAZA", 0, time.Time{})

	input := []*Decision{undated, scene, lowScoreGOG, proper, earlierScene, highScoreRepack}
	got := Prioritize(input)

	assert.Equal(t, []*Decision{highScoreRepack, lowScoreGOG, proper, earlierScene, scene, undated}, got)
	assert.Same(t, undated, input[0], "input order is untouched")
}

func TestPrioritize_StableForEqualDecisions(t *testing.T) {
	t.Parallel()

	a := NewDecision(remote(1, "Some.Game-CODEX", models.ProtocolTorrent, 0), nil)
	b := NewDecision(remote(2, "Other.Game-CODEX", models.ProtocolTorrent, 0), nil)
	assert.Equal(t, []*Decision{a, b}, Prioritize([]*Decision{a, b}))
	assert.Equal(t, []*Decision{b, a}, Prioritize([]*Decision{b, a}))
}
