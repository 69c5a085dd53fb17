// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package customformats evaluates user-defined custom formats against
// releases and sums their scores.
package customformats

import (
	"fmt"
	"slices"
	"strings"

	"github.com/autobrr/gamarr/internal/models"
)

type compiledFormat struct {
	format *models.CustomFormat
	groups [][]compiledSpec
}

type compiledSpec struct {
	spec     Specification
	negate   bool
	required bool
}

// Result lists matched formats ordered by name and their total score.
type Result struct {
	Formats []*models.CustomFormat
	Score   int
}

func (r Result) Names() []string {
	names := make([]string, 0, len(r.Formats))
	for _, f := range r.Formats {
		names = append(names, f.Name)
	}
	return names
}

// Engine holds a compiled, read-only set of formats. It is safe for
// concurrent use; build a new engine when the formats change.
type Engine struct {
	formats []compiledFormat
}

// NewEngine compiles every format. One invalid specification fails the
// whole set.
func NewEngine(formats []*models.CustomFormat) (*Engine, error) {
	e := &Engine{}
	for _, f := range formats {
		if f == nil {
			continue
		}
		cf, err := compile(f)
		if err != nil {
			return nil, fmt.Errorf("custom format %q: %w", f.Name, err)
		}
		e.formats = append(e.formats, cf)
	}

	slices.SortStableFunc(e.formats, func(a, b compiledFormat) int {
		return strings.Compare(a.format.Name, b.format.Name)
	})
	return e, nil
}

// Validate compiles a single format without keeping it.
func Validate(f *models.CustomFormat) error {
	if err := f.Validate(); err != nil {
		return err
	}
	_, err := compile(f)
	return err
}

func compile(f *models.CustomFormat) (compiledFormat, error) {
	cf := compiledFormat{format: f}
	index := map[models.SpecificationKind]int{}

	for _, def := range f.Specifications {
		spec, err := NewSpecification(def)
		if err != nil {
			return compiledFormat{}, err
		}
		i, ok := index[def.Kind]
		if !ok {
			i = len(cf.groups)
			index[def.Kind] = i
			cf.groups = append(cf.groups, nil)
		}
		cf.groups[i] = append(cf.groups[i], compiledSpec{spec: spec, negate: def.Negate, required: def.Required})
	}
	return cf, nil
}

// Len is the number of formats the engine evaluates.
func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.formats)
}

// Formats returns the compiled formats ordered by name.
func (e *Engine) Formats() []*models.CustomFormat {
	if e == nil {
		return nil
	}
	out := make([]*models.CustomFormat, 0, len(e.formats))
	for _, cf := range e.formats {
		out = append(out, cf.format)
	}
	return out
}

// Score evaluates every format against ctx.
func (e *Engine) Score(ctx ScoringContext) Result {
	res := Result{Formats: []*models.CustomFormat{}}
	if e == nil {
		return res
	}

	for _, cf := range e.formats {
		if !cf.matches(ctx) {
			continue
		}
		res.Formats = append(res.Formats, cf.format)
		res.Score += ctx.Profile.FormatScore(cf.format)
	}
	return res
}

// Apply scores a matched release in place.
func (e *Engine) Apply(remote *models.RemoteGame, profile *models.QualityProfile) Result {
	res := e.Score(ContextFor(remote, profile))
	if remote != nil {
		remote.CustomFormats = res.Formats
		remote.CustomFormatScore = res.Score
	}
	return res
}

// matches requires every group to pass. Inside a group all required
// specifications must match and, when optional ones exist, at least one
// of them must match too.
func (cf compiledFormat) matches(ctx ScoringContext) bool {
	if len(cf.groups) == 0 {
		return false
	}

	for _, group := range cf.groups {
		hasOptional, optionalMatched := false, false
		for _, s := range group {
			matched := s.spec.Evaluate(ctx) != s.negate
			if s.required {
				if !matched {
					return false
				}
				continue
			}
			hasOptional = true
			if matched {
				optionalMatched = true
			}
		}
		if hasOptional && !optionalMatched {
			return false
		}
	}
	return true
}
