// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

// SearchCriteria describes why releases are being evaluated.
type SearchCriteria struct {
	// GameID is set by a search for one game.
	GameID int
	// UserInvoked searches skip the protocol delay.
	UserInvoked bool
}

// Subject is what a specification evaluates.
type Subject struct {
	Remote   *models.RemoteGame
	Profile  *models.QualityProfile
	Criteria SearchCriteria
}

// Specification is one rejection rule. A nil rejection accepts the release.
type Specification interface {
	Name() string
	Evaluate(ctx context.Context, s Subject) (*Rejection, error)
}

// Blocklist is consulted for previously rejected releases.
type Blocklist interface {
	IsBlocked(ctx context.Context, gameID int, release *models.ReleaseInfo) (bool, error)
}

// Queue lists releases of a game that are already downloading.
type Queue interface {
	QueuedFor(gameID int) []*models.RemoteGame
}

// SpecOptions tunes the default specifications.
type SpecOptions struct {
	MaximumSizeMB int
	UsenetDelay   time.Duration
	TorrentDelay  time.Duration
}

// DefaultSpecifications returns the rules in evaluation order. Blocklist
// and queue may be nil.
func DefaultSpecifications(opts SpecOptions, blocklist Blocklist, queue Queue) []Specification {
	specs := []Specification{
		unknownGameSpec{},
		wrongGameSpec{},
		qualityAllowedSpec{},
		formatScoreSpec{},
		maximumSizeSpec{maxBytes: int64(opts.MaximumSizeMB) << 20},
		protocolDelaySpec{
			delays: map[models.Protocol]time.Duration{
				models.ProtocolUsenet:  opts.UsenetDelay,
				models.ProtocolTorrent: opts.TorrentDelay,
			},
			now: time.Now,
		},
	}
	if blocklist != nil {
		specs = append(specs, blocklistSpec{blocklist: blocklist})
	}
	if queue != nil {
		specs = append(specs, queueSpec{queue: queue})
	}
	return specs
}

type unknownGameSpec struct{}

func (unknownGameSpec) Name() string { return "unknown game" }

func (unknownGameSpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	if s.Remote.Game == nil {
		return permanent(ReasonUnknownGame, "Unknown game, release title could not be matched"), nil
	}
	return nil, nil
}

type wrongGameSpec struct{}

func (wrongGameSpec) Name() string { return "wrong game" }

func (wrongGameSpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	if s.Criteria.GameID > 0 && s.Remote.GameID() != s.Criteria.GameID {
		return permanent(ReasonWrongGame, "Wrong game, release is for %s", s.Remote.Game), nil
	}
	return nil, nil
}

type qualityAllowedSpec struct{}

func (qualityAllowedSpec) Name() string { return "quality allowed" }

func (qualityAllowedSpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	q := s.Remote.Quality().Quality
	if s.Profile != nil && !s.Profile.Allows(q) {
		return permanent(ReasonQualityNotAllowed, "%s is not wanted in profile %s", q, s.Profile.Name), nil
	}
	return nil, nil
}

type formatScoreSpec struct{}

func (formatScoreSpec) Name() string { return "minimum format score" }

func (formatScoreSpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	if s.Profile == nil {
		return nil, nil
	}
	if score := s.Remote.CustomFormatScore; score < s.Profile.MinFormatScore {
		return permanent(ReasonFormatScore, "Custom format score %d is below the minimum of %d", score, s.Profile.MinFormatScore), nil
	}
	return nil, nil
}

type maximumSizeSpec struct {
	maxBytes int64
}

func (maximumSizeSpec) Name() string { return "maximum size" }

func (m maximumSizeSpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	if m.maxBytes <= 0 {
		return nil, nil
	}
	if size := s.Remote.Release.Size; size > m.maxBytes {
		return permanent(ReasonMaximumSize, "%s is larger than the maximum of %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(m.maxBytes))), nil
	}
	return nil, nil
}

type protocolDelaySpec struct {
	delays map[models.Protocol]time.Duration
	now    func() time.Time
}

func (protocolDelaySpec) Name() string { return "protocol delay" }

func (p protocolDelaySpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	if s.Criteria.UserInvoked {
		return nil, nil
	}
	release := s.Remote.Release
	delay := p.delays[release.Protocol]
	if delay <= 0 || release.PublishDate.IsZero() {
		return nil, nil
	}
	if age := release.Age(p.now()); age < delay {
		return temporary(ReasonProtocolDelay, "Waiting for better quality release, %s of %s delay remaining",
			(delay - age).Round(time.Second), delay), nil
	}
	return nil, nil
}

type blocklistSpec struct {
	blocklist Blocklist
}

func (blocklistSpec) Name() string { return "blocklist" }

func (b blocklistSpec) Evaluate(ctx context.Context, s Subject) (*Rejection, error) {
	if s.Remote.Game == nil {
		return nil, nil
	}
	blocked, err := b.blocklist.IsBlocked(ctx, s.Remote.GameID(), s.Remote.Release)
	if err != nil {
		return nil, err
	}
	if blocked {
		return permanent(ReasonBlocklisted, "Release is blocklisted"), nil
	}
	return nil, nil
}

type queueSpec struct {
	queue Queue
}

func (queueSpec) Name() string { return "queue" }

// Evaluate rejects the release unless it improves on everything already
// queued for the game.
func (q queueSpec) Evaluate(_ context.Context, s Subject) (*Rejection, error) {
	if s.Remote.Game == nil {
		return nil, nil
	}
	for _, queued := range q.queue.QueuedFor(s.Remote.GameID()) {
		if queued == nil {
			continue
		}
		if s.Profile != nil && !s.Profile.UpgradeAllowed {
			return permanent(ReasonAlreadyQueued, "Already in download queue and upgrades are disabled"), nil
		}
		if !isUpgrade(s.Profile, queued, s.Remote) {
			return permanent(ReasonAlreadyQueued, "Release in queue is of equal or better quality: %s", queued.Quality()), nil
		}
	}
	return nil, nil
}

// qualityRank orders qualities by the profile, or by id without one.
func qualityRank(profile *models.QualityProfile, q releases.Quality) int {
	if profile == nil {
		return q.ID
	}
	return profile.Rank(q)
}

func isUpgrade(profile *models.QualityProfile, current, candidate *models.RemoteGame) bool {
	cur, next := current.Quality(), candidate.Quality()
	if a, b := qualityRank(profile, next.Quality), qualityRank(profile, cur.Quality); a != b {
		return a > b
	}
	if c := next.Revision.Compare(cur.Revision); c != 0 {
		return c > 0
	}
	return candidate.CustomFormatScore > current.CustomFormatScore
}
