// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package decision turns indexer releases into grab decisions and issues
// the approved ones in batches.
package decision

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/autobrr/gamarr/internal/models"
)

// Decision is the verdict on one release.
type Decision struct {
	Remote     *models.RemoteGame     `json:"remote"`
	Profile    *models.QualityProfile `json:"-"`
	Rejections []Rejection            `json:"rejections,omitempty"`
}

func NewDecision(remote *models.RemoteGame, profile *models.QualityProfile, rejections ...Rejection) *Decision {
	return &Decision{Remote: remote, Profile: profile, Rejections: rejections}
}

func (d *Decision) Approved() bool {
	return len(d.Rejections) == 0
}

// TemporarilyRejected is true when every rejection is temporary.
func (d *Decision) TemporarilyRejected() bool {
	if len(d.Rejections) == 0 {
		return false
	}
	for _, r := range d.Rejections {
		if r.Type != Temporary {
			return false
		}
	}
	return true
}

func (d *Decision) PermanentlyRejected() bool {
	return len(d.Rejections) > 0 && !d.TemporarilyRejected()
}

func (d *Decision) Reject(r Rejection) {
	d.Rejections = append(d.Rejections, r)
}

// Reasons joins the rejection messages.
func (d *Decision) Reasons() string {
	msgs := make([]string, 0, len(d.Rejections))
	for _, r := range d.Rejections {
		msgs = append(msgs, r.Message)
	}
	return strings.Join(msgs, "; ")
}

func (d *Decision) title() string {
	if d.Remote == nil {
		return ""
	}
	return d.Remote.Title()
}

// Fingerprint identifies a release across batches.
func Fingerprint(release *models.ReleaseInfo) string {
	if release == nil {
		return ""
	}
	h := xxhash.New()
	for _, part := range []string{
		string(release.Protocol),
		strings.ToLower(release.Indexer),
		release.GUID,
		strings.ToLower(release.Title),
		release.ResolveInfoHash(),
		fmt.Sprint(release.Size),
	} {
		_, _ = h.WriteString(part)
		_, _ = h.WriteString("\x00")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
