// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/customformats"
	"github.com/autobrr/gamarr/internal/services/matching"
)

type ProfileSource interface {
	Get(ctx context.Context, id int) (*models.QualityProfile, error)
}

type FormatSource interface {
	Engine(ctx context.Context) (*customformats.Engine, error)
}

// Maker builds decisions: validate, parse and map, score, then run every
// specification.
type Maker struct {
	validate *validator.Validate
	matcher  *matching.Matcher
	formats  FormatSource
	profiles ProfileSource
	specs    []Specification
}

func NewMaker(matcher *matching.Matcher, formats FormatSource, profiles ProfileSource, specs []Specification) *Maker {
	return &Maker{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		matcher:  matcher,
		formats:  formats,
		profiles: profiles,
		specs:    specs,
	}
}

// GetDecisions evaluates every release. Only infrastructure failures are
// returned as errors; bad releases become rejected decisions.
func (m *Maker) GetDecisions(ctx context.Context, reports []*models.ReleaseInfo, criteria SearchCriteria) ([]*Decision, error) {
	engine, err := m.formats.Engine(ctx)
	if err != nil {
		return nil, fmt.Errorf("load custom formats: %w", err)
	}

	start := time.Now()
	profiles := map[int]*models.QualityProfile{}
	decisions := make([]*Decision, 0, len(reports))

	for _, release := range reports {
		if err := ctx.Err(); err != nil {
			return decisions, err
		}
		if release == nil {
			continue
		}

		d, err := m.decide(ctx, engine, profiles, release, criteria)
		if err != nil {
			return decisions, err
		}
		decisions = append(decisions, d)
	}

	log.Debug().
		Int("releases", len(reports)).
		Int("decisions", len(decisions)).
		Dur("took", time.Since(start)).
		Msg("[DECISION] Releases evaluated")
	return decisions, nil
}

func (m *Maker) decide(ctx context.Context, engine *customformats.Engine, profiles map[int]*models.QualityProfile, release *models.ReleaseInfo, criteria SearchCriteria) (*Decision, error) {
	if err := m.validate.Struct(release); err != nil {
		remote := &models.RemoteGame{Release: release}
		return NewDecision(remote, nil, *permanent(ReasonInvalidRelease, "Invalid release: %v", err)), nil
	}
	release = withInfoHash(release)

	remote, err := m.matcher.MapTitle(ctx, release.Title, release, matching.MapOptions{GameID: criteria.GameID})
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", release.Title, err)
	}

	profile, err := m.profileFor(ctx, profiles, remote.Game)
	if err != nil {
		return nil, err
	}
	engine.Apply(remote, profile)

	d := NewDecision(remote, profile)
	subject := Subject{Remote: remote, Profile: profile, Criteria: criteria}
	for _, spec := range m.specs {
		rejection, err := spec.Evaluate(ctx, subject)
		if err != nil {
			log.Error().Err(err).Str("specification", spec.Name()).Str("release", release.Title).Msg("[DECISION] Specification failed")
			d.Reject(*temporary(ReasonError, "Unexpected error evaluating %s", spec.Name()))
			continue
		}
		if rejection == nil {
			continue
		}
		d.Reject(*rejection)
		// Nothing else is meaningful without a game.
		if rejection.Reason == ReasonUnknownGame {
			break
		}
	}

	if d.Approved() {
		log.Debug().Str("release", release.Title).Int("score", remote.CustomFormatScore).Msg("[DECISION] Release accepted")
	} else {
		log.Debug().Str("release", release.Title).Str("rejections", d.Reasons()).Msg("[DECISION] Release rejected")
	}
	return d, nil
}

// withInfoHash returns a copy of the release carrying its resolved
// info-hash. The caller's report is left as it was.
func withInfoHash(release *models.ReleaseInfo) *models.ReleaseInfo {
	hash := release.ResolveInfoHash()
	if hash == "" || hash == release.InfoHash {
		return release
	}
	derived := *release
	derived.InfoHash = hash
	return &derived
}

func (m *Maker) profileFor(ctx context.Context, cache map[int]*models.QualityProfile, game *models.Game) (*models.QualityProfile, error) {
	if game == nil || game.QualityProfileID == 0 || m.profiles == nil {
		return nil, nil
	}
	if p, ok := cache[game.QualityProfileID]; ok {
		return p, nil
	}

	p, err := m.profiles.Get(ctx, game.QualityProfileID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Warn().Int("gameID", game.ID).Int("profileID", game.QualityProfileID).Msg("[DECISION] Quality profile missing, using defaults")
		p = nil
	case err != nil:
		return nil, fmt.Errorf("load quality profile %d: %w", game.QualityProfileID, err)
	}
	cache[game.QualityProfileID] = p
	return p, nil
}
