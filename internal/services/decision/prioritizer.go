// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import (
	"slices"
	"time"
)

// Prioritize returns the decisions best first: higher custom format score,
// then higher quality rank, then higher revision, then earlier publish date.
// Releases without a publish date sort after dated ones.
// Equal decisions keep their input order.
func Prioritize(decisions []*Decision) []*Decision {
	sorted := slices.Clone(decisions)
	slices.SortStableFunc(sorted, compareDecisions)
	return sorted
}

func compareDecisions(a, b *Decision) int {
	switch {
	case a == nil || a.Remote == nil:
		if b == nil || b.Remote == nil {
			return 0
		}
		return 1
	case b == nil || b.Remote == nil:
		return -1
	}

	ra, rb := a.Remote, b.Remote
	if ra.CustomFormatScore != rb.CustomFormatScore {
		return rb.CustomFormatScore - ra.CustomFormatScore
	}

	qa, qb := ra.Quality(), rb.Quality()
	if x, y := qualityRank(a.Profile, qa.Quality), qualityRank(b.Profile, qb.Quality); x != y {
		return y - x
	}
	if c := qb.Revision.Compare(qa.Revision); c != 0 {
		return c
	}

	pa, pb := publishDate(a), publishDate(b)
	switch {
	case pa.IsZero() && pb.IsZero():
		return 0
	case pa.IsZero():
		return 1
	case pb.IsZero():
		return -1
	case pa.Before(pb):
		return -1
	case pb.Before(pa):
		return 1
	}
	return 0
}

func publishDate(d *Decision) time.Time {
	if d.Remote.Release == nil {
		return time.Time{}
	}
	return d.Remote.Release.PublishDate
}
