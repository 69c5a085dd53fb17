// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

var gogProfile = &models.QualityProfile{
	ID:               1,
	Name:             "Originals",
	AllowedQualities: []int{releases.QualityRepack.ID, releases.QualityScene.ID, releases.QualityGOG.ID},
	UpgradeAllowed:   true,
	MinFormatScore:   0,
}

func evaluate(t *testing.T, spec Specification, s Subject) *Rejection {
	t.Helper()
	r, err := spec.Evaluate(context.Background(), s)
	require.NoError(t, err)
	return r
}

func TestUnknownAndWrongGame(t *testing.T) {
	t.Parallel()

	unmatched := remote(0, "Some.Game.2015.GOG-GROUP", models.ProtocolTorrent, 0)
	r := evaluate(t, unknownGameSpec{}, Subject{Remote: unmatched})
	require.NotNil(t, r)
	assert.Equal(t, ReasonUnknownGame, r.Reason)
	assert.Equal(t, Permanent, r.Type)

	matched := remote(1, "Some.Game.2015.GOG-GROUP", models.ProtocolTorrent, 0)
	assert.Nil(t, evaluate(t, unknownGameSpec{}, Subject{Remote: matched}))
	assert.Nil(t, evaluate(t, wrongGameSpec{}, Subject{Remote: matched}))
	assert.Nil(t, evaluate(t, wrongGameSpec{}, Subject{Remote: matched, Criteria: SearchCriteria{GameID: 1}}))

	r = evaluate(t, wrongGameSpec{}, Subject{Remote: matched, Criteria: SearchCriteria{GameID: 2}})
	require.NotNil(t, r)
	assert.Equal(t, ReasonWrongGame, r.Reason)
}

func TestQualityAllowed(t *testing.T) {
	t.Parallel()

	assert.Nil(t, evaluate(t, qualityAllowedSpec{}, Subject{Remote: remote(1, "Some.Game.2015.GOG-GROUP", models.ProtocolTorrent, 0), Profile: gogProfile}))
	assert.Nil(t, evaluate(t, qualityAllowedSpec{}, Subject{Remote: remote(1, "Some.Game.Portable", models.ProtocolTorrent, 0)}))

	r := evaluate(t, qualityAllowedSpec{}, Subject{Remote: remote(1, "Some.Game.Portable", models.ProtocolTorrent, 0), Profile: gogProfile})
	require.NotNil(t, r)
	assert.Equal(t, ReasonQualityNotAllowed, r.Reason)
	assert.Contains(t, r.Message, "Portable")
}

func TestFormatScoreMinimum(t *testing.T) {
	t.Parallel()

	profile := *gogProfile
	profile.MinFormatScore = 10

	assert.Nil(t, evaluate(t, formatScoreSpec{}, Subject{Remote: remote(1, "x", models.ProtocolTorrent, 10), Profile: &profile}))
	assert.Nil(t, evaluate(t, formatScoreSpec{}, Subject{Remote: remote(1, "x", models.ProtocolTorrent, -100)}))

	r := evaluate(t, formatScoreSpec{}, Subject{Remote: remote(1, "x", models.ProtocolTorrent, 9), Profile: &profile})
	require.NotNil(t, r)
	assert.Equal(t, ReasonFormatScore, r.Reason)
}

func TestMaximumSize(t *testing.T) {
	t.Parallel()

	spec := maximumSizeSpec{maxBytes: 1 << 30}
	small := remote(1, "x", models.ProtocolTorrent, 0)
	small.Release.Size = 1 << 29
	big := remote(1, "x", models.ProtocolTorrent, 0)
	big.Release.Size = 2 << 30

	assert.Nil(t, evaluate(t, spec, Subject{Remote: small}))
	r := evaluate(t, spec, Subject{Remote: big})
	require.NotNil(t, r)
	assert.Equal(t, ReasonMaximumSize, r.Reason)
	assert.Contains(t, r.Message, "2.0 GiB")

	assert.Nil(t, evaluate(t, maximumSizeSpec{}, Subject{Remote: big}))
}

func TestProtocolDelay(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	spec := protocolDelaySpec{
		delays: map[models.Protocol]time.Duration{models.ProtocolUsenet: 2 * time.Hour},
		now:    func() time.Time { return now },
	}

	fresh := remote(1, "x", models.ProtocolUsenet, 0) // published one hour ago
	r := evaluate(t, spec, Subject{Remote: fresh})
	require.NotNil(t, r)
	assert.Equal(t, Temporary, r.Type)
	assert.Equal(t, ReasonProtocolDelay, r.Reason)

	assert.Nil(t, evaluate(t, spec, Subject{Remote: fresh, Criteria: SearchCriteria{UserInvoked: true}}))
	assert.Nil(t, evaluate(t, spec, Subject{Remote: remote(1, "x", models.ProtocolTorrent, 0)}))

	old := remote(1, "x", models.ProtocolUsenet, 0)
	old.Release.PublishDate = now.Add(-3 * time.Hour)
	assert.Nil(t, evaluate(t, spec, Subject{Remote: old}))
}

func TestBlocklistSpec(t *testing.T) {
	t.Parallel()

	blocker := &fakeBlocker{blocked: []string{"Bad.Release"}}
	spec := blocklistSpec{blocklist: blocker}

	r := evaluate(t, spec, Subject{Remote: remote(1, "Bad.Release", models.ProtocolTorrent, 0)})
	require.NotNil(t, r)
	assert.Equal(t, ReasonBlocklisted, r.Reason)
	assert.Nil(t, evaluate(t, spec, Subject{Remote: remote(1, "Good.Release", models.ProtocolTorrent, 0)}))
}

func TestQueueSpec(t *testing.T) {
	t.Parallel()

	queued := remote(1, "Some.Game.2015-CODEX", models.ProtocolTorrent, 5)
	spec := queueSpec{queue: fakeQueue{1: {queued}}}

	better := remote(1, "Some.Game.2015.GOG-GROUP", models.ProtocolTorrent, 0)
	assert.Nil(t, evaluate(t, spec, Subject{Remote: better, Profile: gogProfile}))

	same := remote(1, "Some.Game.2015-SKIDROW", models.ProtocolTorrent, 5)
	r := evaluate(t, spec, Subject{Remote: same, Profile: gogProfile})
	require.NotNil(t, r)
	assert.Equal(t, ReasonAlreadyQueued, r.Reason)

	sameHigherScore := remote(1, "Some.Game.2015-SKIDROW", models.ProtocolTorrent, 6)
	assert.Nil(t, evaluate(t, spec, Subject{Remote: sameHigherScore, Profile: gogProfile}))

	noUpgrades := *gogProfile
	noUpgrades.UpgradeAllowed = false
	assert.NotNil(t, evaluate(t, spec, Subject{Remote: better, Profile: &noUpgrades}))

	assert.Nil(t, evaluate(t, spec, Subject{Remote: remote(2, "Other.Game-CODEX", models.ProtocolTorrent, 0), Profile: gogProfile}))
}

func TestDefaultSpecifications(t *testing.T) {
	t.Parallel()

	assert.Len(t, DefaultSpecifications(SpecOptions{}, nil, nil), 6)
	assert.Len(t, DefaultSpecifications(SpecOptions{}, &fakeBlocker{}, fakeQueue{}), 8)
}
