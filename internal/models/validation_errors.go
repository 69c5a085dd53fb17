// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "errors"

var (
	ErrTitleRequired = errors.New("title is required")
	ErrNameRequired  = errors.New("name is required")

	// ErrCustomFormatExists is returned when a custom format name is already taken.
	ErrCustomFormatExists = errors.New("custom format already exists")
)
