// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package decision

import "fmt"

type RejectionType int

const (
	// Permanent rejections are final for the release.
	Permanent RejectionType = iota
	// Temporary rejections keep the release pending for a later batch.
	Temporary
)

func (t RejectionType) String() string {
	if t == Temporary {
		return "temporary"
	}
	return "permanent"
}

type Reason string

const (
	ReasonInvalidRelease     Reason = "invalidRelease"
	ReasonUnknownGame        Reason = "unknownGame"
	ReasonWrongGame          Reason = "wrongGame"
	ReasonQualityNotAllowed  Reason = "qualityNotAllowed"
	ReasonFormatScore        Reason = "formatScoreBelowMinimum"
	ReasonBlocklisted        Reason = "blocklisted"
	ReasonMaximumSize        Reason = "maximumSize"
	ReasonProtocolDelay      Reason = "protocolDelay"
	ReasonAlreadyQueued      Reason = "alreadyQueued"
	ReasonDuplicate          Reason = "duplicateInBatch"
	ReasonClientUnavailable  Reason = "clientUnavailable"
	ReasonReleaseUnavailable Reason = "releaseUnavailable"
	ReasonDownloadFailed     Reason = "downloadFailed"
	ReasonError              Reason = "error"
)

type Rejection struct {
	Reason  Reason        `json:"reason"`
	Message string        `json:"message"`
	Type    RejectionType `json:"type"`
}

func (r Rejection) String() string {
	return fmt.Sprintf("[%s] %s", r.Type, r.Message)
}

func permanent(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...), Type: Permanent}
}

func temporary(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...), Type: Temporary}
}
