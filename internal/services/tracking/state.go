// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tracking

import (
	"errors"
	"fmt"
)

// State is the lifecycle stage of a tracked download.
type State string

const (
	StateDownloading   State = "downloading"
	StateImporting     State = "importing"
	StateImported      State = "imported"
	StateFailedPending State = "failedPending"
	StateImportBlocked State = "importBlocked"
	StateWarning       State = "warning"
	StateFailed        State = "failed"
	StateIgnored       State = "ignored"
)

var ErrInvalidTransition = errors.New("invalid tracked download transition")

// transitions lists the forward moves out of each state. Anything not listed,
// including a move back to an earlier stage, is rejected.
var transitions = map[State][]State{
	StateDownloading:   {StateImporting, StateImported, StateFailedPending, StateImportBlocked, StateWarning, StateIgnored},
	StateImporting:     {StateImported, StateImportBlocked, StateWarning, StateFailedPending, StateIgnored},
	StateWarning:       {StateImporting, StateImported, StateImportBlocked, StateFailedPending, StateIgnored},
	StateImportBlocked: {StateImported, StateIgnored},
	StateFailedPending: {StateFailed, StateIgnored},
	StateImported:      nil,
	StateFailed:        nil,
	StateIgnored:       nil,
}

func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s State) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsActive reports whether the download still occupies its client queue.
func (s State) IsActive() bool {
	switch s {
	case StateDownloading, StateImporting, StateWarning:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from may move to to. Staying put is always
// allowed so re-delivered events are harmless.
func CanTransition(from, to State) bool {
	if from == to {
		return from.IsValid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
