// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tracking

// ImportRejectionReason explains why an import did not complete.
type ImportRejectionReason string

const (
	RejectionUnknown           ImportRejectionReason = "unknown"
	RejectionDangerousFile     ImportRejectionReason = "dangerousFile"
	RejectionExecutableFile    ImportRejectionReason = "executableFile"
	RejectionSuspiciousContent ImportRejectionReason = "suspiciousContent"
	RejectionUnknownGame       ImportRejectionReason = "unknownGame"
	RejectionPartialImport     ImportRejectionReason = "partialImport"
	RejectionNoFiles           ImportRejectionReason = "noFiles"
)

// RequiresReview marks reasons that stop the import until a user looks at
// the content.
func (r ImportRejectionReason) RequiresReview() bool {
	switch r {
	case RejectionDangerousFile, RejectionExecutableFile, RejectionSuspiciousContent:
		return true
	default:
		return false
	}
}

// ImportResult is reported by the import stage for one download.
type ImportResult struct {
	ClientID   int
	DownloadID string
	// Imported counts files that made it into the library.
	Imported   int
	Rejections []ImportRejectionReason
	Message    string
}

// target picks the state an import result leads to. Review reasons win over
// everything else, then anything short of a clean import is a warning.
func (r ImportResult) target() (State, ImportRejectionReason) {
	for _, reason := range r.Rejections {
		if reason.RequiresReview() {
			return StateImportBlocked, reason
		}
	}
	if len(r.Rejections) > 0 {
		if r.Imported > 0 {
			return StateWarning, RejectionPartialImport
		}
		return StateWarning, r.Rejections[0]
	}
	if r.Imported == 0 {
		return StateWarning, RejectionNoFiles
	}
	return StateImported, ""
}
