// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package releases parses game release titles into structured metadata.
package releases

import (
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
)

const defaultParserTTL = 5 * time.Minute

// Parser caches Parse results. A nil Parser parses without caching.
type Parser struct {
	cache *ttlcache.Cache[string, *ParsedReleaseInfo]
}

func NewParser(ttl time.Duration) *Parser {
	if ttl <= 0 {
		ttl = defaultParserTTL
	}
	return &Parser{
		cache: ttlcache.New(ttlcache.Options[string, *ParsedReleaseInfo]{}.SetDefaultTTL(ttl)),
	}
}

func NewDefaultParser() *Parser {
	return NewParser(defaultParserTTL)
}

// Parse returns a copy of the parsed release, reusing cached results.
func (p *Parser) Parse(name string) *ParsedReleaseInfo {
	name = strings.TrimSpace(name)
	if p == nil || p.cache == nil {
		return Parse(name)
	}

	if cached, ok := p.cache.Get(name); ok {
		return cached.Clone()
	}

	info := Parse(name)
	p.cache.Set(name, info, ttlcache.DefaultTTL)
	return info.Clone()
}

// Clear drops a cached result.
func (p *Parser) Clear(name string) {
	if p == nil || p.cache == nil {
		return
	}
	p.cache.Delete(strings.TrimSpace(name))
}
