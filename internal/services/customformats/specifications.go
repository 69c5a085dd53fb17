// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/autobrr/gamarr/internal/models"
	"github.com/autobrr/gamarr/pkg/releases"
)

const bytesPerGB = 1 << 30

// Specification is one condition of a custom format. Evaluate reports the
// raw condition; negation and grouping are applied by the engine.
type Specification interface {
	Kind() models.SpecificationKind
	Definition() models.SpecificationDefinition
	Evaluate(ctx ScoringContext) bool
}

type base struct {
	def models.SpecificationDefinition
}

func (b base) Kind() models.SpecificationKind { return b.def.Kind }

func (b base) Definition() models.SpecificationDefinition { return b.def }

func (b base) describe(format string, args ...any) error {
	return fmt.Errorf("specification %q (%s): %s", b.def.Name, b.def.Kind, fmt.Sprintf(format, args...))
}

// NewSpecification compiles a stored definition.
func NewSpecification(def models.SpecificationDefinition) (Specification, error) {
	b := base{def: def}

	switch def.Kind {
	case models.SpecReleaseTitle, models.SpecReleaseGroup, models.SpecSourcePath, models.SpecEdition:
		re, err := compilePattern(def.Value)
		if err != nil {
			return nil, b.describe("invalid pattern: %v", err)
		}
		return &regexSpecification{base: b, re: re}, nil

	case models.SpecSize:
		if def.Min < 0 || (def.Max > 0 && def.Min > def.Max) {
			return nil, b.describe("invalid size range %.2f-%.2f", def.Min, def.Max)
		}
		return &sizeSpecification{base: b}, nil

	case models.SpecLanguage:
		lang, ok := releases.LanguageByName(def.Value)
		if !ok {
			return nil, b.describe("unknown language %q", def.Value)
		}
		return &languageSpecification{base: b, language: lang}, nil

	case models.SpecQuality:
		if def.Max > 0 && def.Min > def.Max {
			return nil, b.describe("invalid quality range %.0f-%.0f", def.Min, def.Max)
		}
		return &qualitySpecification{base: b, min: int(def.Min), max: int(def.Max)}, nil

	case models.SpecIndexerFlag:
		flags, unknown := models.ParseIndexerFlags(def.Value)
		if len(unknown) > 0 {
			return nil, b.describe("unknown indexer flags %s", strings.Join(unknown, ", "))
		}
		if flags == 0 {
			return nil, b.describe("no indexer flags")
		}
		return &indexerFlagSpecification{base: b, flags: flags}, nil

	case models.SpecVersion:
		return newVersionSpecification(b)

	case models.SpecExpression:
		return newExpressionSpecification(b)
	}

	return nil, b.describe("unsupported kind")
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile("(?i)" + pattern)
}

type regexSpecification struct {
	base
	re *regexp.Regexp
}

func (s *regexSpecification) Evaluate(ctx ScoringContext) bool {
	parsed := ctx.parsed()
	switch s.def.Kind {
	case models.SpecReleaseTitle:
		if s.re.MatchString(ctx.title()) {
			return true
		}
		return ctx.SourcePath != "" && s.re.MatchString(filepath.Base(ctx.SourcePath))
	case models.SpecReleaseGroup:
		return parsed.Group != "" && s.re.MatchString(parsed.Group)
	case models.SpecSourcePath:
		return ctx.SourcePath != "" && s.re.MatchString(ctx.SourcePath)
	case models.SpecEdition:
		return parsed.Edition != "" && s.re.MatchString(parsed.Edition)
	}
	return false
}

type sizeSpecification struct {
	base
}

// Evaluate matches sizes in (min, max]. A zero max is unbounded.
func (s *sizeSpecification) Evaluate(ctx ScoringContext) bool {
	size := ctx.size()
	if size <= 0 {
		return false
	}
	gb := float64(size) / bytesPerGB
	if gb <= s.def.Min {
		return false
	}
	return s.def.Max <= 0 || gb <= s.def.Max
}

type languageSpecification struct {
	base
	language releases.Language
}

func (s *languageSpecification) Evaluate(ctx ScoringContext) bool {
	return releases.ContainsLanguage(ctx.languages(), s.language)
}

type qualitySpecification struct {
	base
	min, max int
}

// Evaluate matches qualities ranked between min and max inclusive.
func (s *qualitySpecification) Evaluate(ctx ScoringContext) bool {
	q := ctx.quality()
	if q.ID < s.min {
		return false
	}
	return s.max <= 0 || q.ID <= s.max
}

type indexerFlagSpecification struct {
	base
	flags models.IndexerFlags
}

func (s *indexerFlagSpecification) Evaluate(ctx ScoringContext) bool {
	return ctx.flags().Has(s.flags)
}
