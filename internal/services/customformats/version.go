// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"github.com/hashicorp/go-version"
)

type versionSpecification struct {
	base
	constraints version.Constraints
}

func newVersionSpecification(b base) (Specification, error) {
	constraints, err := version.NewConstraint(b.def.Value)
	if err != nil {
		return nil, b.describe("invalid version constraint: %v", err)
	}
	return &versionSpecification{base: b, constraints: constraints}, nil
}

// Evaluate never matches releases without a parseable version.
func (s *versionSpecification) Evaluate(ctx ScoringContext) bool {
	raw := ctx.parsed().Version
	if raw == "" {
		return false
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return false
	}
	return s.constraints.Check(v)
}
