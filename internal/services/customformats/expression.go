// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/gamarr/internal/models"
)

// ExprEnv is the environment expression specifications are evaluated in:
//
//	Quality == "GOG" && SizeGB < 30
//	Group in ["FitGirl", "DODI"] || IsUpdate
type ExprEnv struct {
	Title      string
	Titles     []string
	Year       int
	Quality    string
	Revision   int
	Group      string
	Edition    string
	Version    string
	Platform   string
	Languages  []string
	IsUpdate   bool
	HasDLC     bool
	Protocol   string
	Indexer    string
	Size       int64
	SizeGB     float64
	Freeleech  bool
	Internal   bool
	Scene      bool
	SourcePath string
}

func newExprEnv(ctx ScoringContext) ExprEnv {
	parsed := ctx.parsed()
	env := ExprEnv{
		Title:      ctx.title(),
		Titles:     parsed.Titles,
		Year:       parsed.Year,
		Quality:    parsed.Quality.Quality.Name,
		Revision:   parsed.Quality.Revision.Version,
		Group:      parsed.Group,
		Edition:    parsed.Edition,
		Version:    parsed.Version,
		Platform:   parsed.Platform,
		IsUpdate:   parsed.IsUpdate,
		HasDLC:     parsed.HasDLC,
		Size:       ctx.size(),
		SizeGB:     float64(ctx.size()) / bytesPerGB,
		SourcePath: ctx.SourcePath,
	}
	for _, l := range parsed.Languages {
		env.Languages = append(env.Languages, l.Name)
	}
	if ctx.Release != nil {
		env.Protocol = string(ctx.Release.Protocol)
		env.Indexer = ctx.Release.Indexer
	}
	flags := ctx.flags()
	env.Freeleech = flags.Has(models.IndexerFlagFreeleech)
	env.Internal = flags.Has(models.IndexerFlagInternal)
	env.Scene = flags.Has(models.IndexerFlagScene)
	return env
}

type expressionSpecification struct {
	base
	program *vm.Program
}

func newExpressionSpecification(b base) (Specification, error) {
	program, err := expr.Compile(b.def.Value, expr.Env(ExprEnv{}), expr.AsBool())
	if err != nil {
		return nil, b.describe("invalid expression: %v", err)
	}
	return &expressionSpecification{base: b, program: program}, nil
}

func (s *expressionSpecification) Evaluate(ctx ScoringContext) bool {
	result, err := expr.Run(s.program, newExprEnv(ctx))
	if err != nil {
		log.Debug().Err(err).Str("specification", s.def.Name).Msg("[FORMATS] expression failed")
		return false
	}
	matched, ok := result.(bool)
	return ok && matched
}
