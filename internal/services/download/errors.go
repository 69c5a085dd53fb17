// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package download

import (
	"fmt"

	"github.com/autobrr/gamarr/internal/models"
)

// ClientUnavailableError means no client of a protocol could take the
// release right now. Other releases of the protocol will fail the same way.
type ClientUnavailableError struct {
	Protocol models.Protocol
	Client   string
	Err      error
}

func (e *ClientUnavailableError) Error() string {
	if e.Client == "" {
		return fmt.Sprintf("no %s download client available: %v", e.Protocol, e.Err)
	}
	return fmt.Sprintf("%s download client %s unavailable: %v", e.Protocol, e.Client, e.Err)
}

func (e *ClientUnavailableError) Unwrap() error {
	return e.Err
}

// ReleaseUnavailableError means the release itself cannot be fetched, for
// example because the indexer removed it.
type ReleaseUnavailableError struct {
	Release string
	Err     error
}

func (e *ReleaseUnavailableError) Error() string {
	return fmt.Sprintf("release %q unavailable: %v", e.Release, e.Err)
}

func (e *ReleaseUnavailableError) Unwrap() error {
	return e.Err
}
