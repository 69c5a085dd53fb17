// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/metrics/collector"
	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/internal/services/download"
)

type PendingStore interface {
	Upsert(ctx context.Context, p *models.PendingRelease) (*models.PendingRelease, error)
}

type Blocker interface {
	Block(ctx context.Context, remote *models.RemoteGame, message string) error
}

type PipelineOptions struct {
	// BlocklistUnavailable blocklists releases the indexer no longer serves.
	BlocklistUnavailable bool
}

// Grabbed pairs an issued decision with the grab the client reported.
type Grabbed struct {
	Decision *Decision     `json:"decision"`
	Grab     download.Grab `json:"grab"`
}

// BatchResult partitions a batch. Skipped holds decisions never looked at
// because the batch was cancelled.
type BatchResult struct {
	ID       string      `json:"id"`
	Grabbed  []Grabbed   `json:"grabbed"`
	Rejected []*Decision `json:"rejected"`
	Pending  []*Decision `json:"pending"`
	Skipped  []*Decision `json:"skipped,omitempty"`
}

type Pipeline struct {
	issuer    download.Issuer
	pending   PendingStore
	blocklist Blocker
	metrics   *collector.DecisionCollector
	opts      PipelineOptions
}

// NewPipeline wires the batch processor. pending, blocklist and metrics may
// be nil.
func NewPipeline(issuer download.Issuer, pending PendingStore, blocklist Blocker, metrics *collector.DecisionCollector, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		issuer:    issuer,
		pending:   pending,
		blocklist: blocklist,
		metrics:   metrics,
		opts:      opts,
	}
}

// ProcessBatch grabs the best approved release of every game. Decisions are
// processed one at a time in priority order, so at most one release per
// game is grabbed per batch. On cancellation the partial result is returned
// together with ctx.Err(); grabs already issued stand.
func (p *Pipeline) ProcessBatch(ctx context.Context, decisions []*Decision) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{
		ID:       uuid.NewString(),
		Grabbed:  []Grabbed{},
		Rejected: []*Decision{},
		Pending:  []*Decision{},
	}
	logger := log.With().Str("batch", res.ID).Logger()

	grabbedGames := map[int]string{}
	unavailable := map[models.Protocol]error{}

	sorted := Prioritize(decisions)
	for i, d := range sorted {
		if err := ctx.Err(); err != nil {
			res.Skipped = append(res.Skipped, sorted[i:]...)
			logger.Warn().Int("skipped", len(res.Skipped)).Msg("[DECISION] Batch cancelled")
			p.finish(logger, res, start)
			return res, err
		}
		if d == nil {
			continue
		}
		if d.Remote == nil || d.Remote.Release == nil {
			d.Reject(*permanent(ReasonInvalidRelease, "Decision carries no release"))
			p.reject(res, d)
			continue
		}

		gameID := d.Remote.GameID()
		if winner, dup := grabbedGames[gameID]; dup && gameID > 0 {
			d.Reject(*permanent(ReasonDuplicate, "Another release of the game was grabbed in this batch: %s", winner))
			p.reject(res, d)
			continue
		}

		switch {
		case d.PermanentlyRejected():
			p.reject(res, d)
			continue
		case d.TemporarilyRejected():
			p.hold(ctx, logger, res, d)
			continue
		case gameID <= 0:
			d.Reject(*permanent(ReasonUnknownGame, "Release is not matched to a game"))
			p.reject(res, d)
			continue
		}

		protocol := d.Remote.Release.Protocol
		if cause, down := unavailable[protocol]; down {
			d.Reject(*temporary(ReasonClientUnavailable, "%v", cause))
			p.hold(ctx, logger, res, d)
			continue
		}

		grab, err := p.issuer.Download(ctx, d.Remote)
		if err == nil {
			grabbedGames[gameID] = d.Remote.Release.Title
			res.Grabbed = append(res.Grabbed, Grabbed{Decision: d, Grab: grab})
			p.metrics.ObserveRelease("grabbed", "")
			continue
		}

		var clientDown *download.ClientUnavailableError
		var gone *download.ReleaseUnavailableError
		switch {
		case errors.As(err, &clientDown):
			unavailable[protocol] = err
			logger.Warn().Err(err).Str("protocol", string(protocol)).Msg("[DECISION] Download client unavailable, deferring protocol")
			d.Reject(*temporary(ReasonClientUnavailable, "%v", err))
			p.hold(ctx, logger, res, d)

		case errors.As(err, &gone):
			d.Reject(*permanent(ReasonReleaseUnavailable, "Release unavailable: %v", gone.Err))
			if p.opts.BlocklistUnavailable && p.blocklist != nil {
				if berr := p.blocklist.Block(context.WithoutCancel(ctx), d.Remote, d.Reasons()); berr != nil {
					logger.Error().Err(berr).Str("release", d.title()).Msg("[DECISION] Could not blocklist unavailable release")
				}
			}
			p.reject(res, d)

		default:
			logger.Warn().Err(err).Str("release", d.title()).Msg("[DECISION] Download failed, release pending")
			d.Reject(*temporary(ReasonDownloadFailed, "Download failed: %v", err))
			p.hold(ctx, logger, res, d)
		}
	}

	p.finish(logger, res, start)
	return res, nil
}

func (p *Pipeline) reject(res *BatchResult, d *Decision) {
	res.Rejected = append(res.Rejected, d)
	p.metrics.ObserveRelease("rejected", string(d.Rejections[0].Reason))
}

// hold records a temporarily rejected release as pending. Persisting
// ignores cancellation so a cancelled batch still keeps its pending work.
func (p *Pipeline) hold(ctx context.Context, logger zerolog.Logger, res *BatchResult, d *Decision) {
	res.Pending = append(res.Pending, d)
	p.metrics.ObserveRelease("pending", string(d.Rejections[0].Reason))

	if p.pending == nil {
		return
	}
	_, err := p.pending.Upsert(context.WithoutCancel(ctx), &models.PendingRelease{
		GameID:      d.Remote.GameID(),
		Fingerprint: Fingerprint(d.Remote.Release),
		Title:       d.Remote.Release.Title,
		Release:     d.Remote.Release,
		Reason:      d.Reasons(),
	})
	if err != nil {
		logger.Error().Err(err).Str("release", d.title()).Msg("[DECISION] Could not store pending release")
	}
}

func (p *Pipeline) finish(logger zerolog.Logger, res *BatchResult, start time.Time) {
	took := time.Since(start)
	p.metrics.ObserveBatch(took.Seconds())
	logger.Info().
		Int("grabbed", len(res.Grabbed)).
		Int("rejected", len(res.Rejected)).
		Int("pending", len(res.Pending)).
		Int("skipped", len(res.Skipped)).
		Dur("took", took).
		Msg("[DECISION] Batch processed")
}
