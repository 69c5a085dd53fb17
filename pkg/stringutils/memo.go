// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stringutils

import (
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
)

const defaultMemoTTL = 5 * time.Minute

// TransformFunc maps an input to its transformed form. It must be pure.
type TransformFunc[K, V any] func(K) V

// Memo caches the output of a pure transform so hot paths (title cleaning,
// unicode folding) only pay for each distinct input once per TTL window.
type Memo[K comparable, V any] struct {
	cache     *ttlcache.Cache[K, V]
	transform TransformFunc[K, V]
}

// NewMemo returns a Memo that keeps results for ttl.
func NewMemo[K comparable, V any](ttl time.Duration, transform TransformFunc[K, V]) *Memo[K, V] {
	if ttl <= 0 {
		ttl = defaultMemoTTL
	}
	return &Memo[K, V]{
		cache:     ttlcache.New(ttlcache.Options[K, V]{}.SetDefaultTTL(ttl)),
		transform: transform,
	}
}

// Get returns the cached transform of key, computing it on a miss.
func (m *Memo[K, V]) Get(key K) V {
	if cached, ok := m.cache.Get(key); ok {
		return cached
	}

	value := m.transform(key)
	m.cache.Set(key, value, ttlcache.DefaultTTL)
	return value
}

// Forget drops a cached entry.
func (m *Memo[K, V]) Forget(key K) {
	m.cache.Delete(key)
}
