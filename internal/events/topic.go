// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultQueueSize      = 128
	defaultHandlerTimeout = 30 * time.Second
)

// Handler reacts to one event. Returned errors are logged, never propagated.
type Handler[E any] func(ctx context.Context, event E) error

type subscription[E any] struct {
	name    string
	handler Handler[E]
	queue   chan E
}

// Topic fans one event type out to its subscribers.
type Topic[E any] struct {
	name    string
	logger  zerolog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	subs   []*subscription[E]
	closed bool

	inflight  sync.WaitGroup
	published atomic.Uint64
	failures  atomic.Uint64
}

func NewTopic[E any](name string, logger zerolog.Logger) *Topic[E] {
	return &Topic[E]{
		name:    name,
		logger:  logger.With().Str("topic", name).Logger(),
		timeout: defaultHandlerTimeout,
	}
}

func (t *Topic[E]) Name() string {
	return t.name
}

// Subscribe registers a handler and starts its worker.
func (t *Topic[E]) Subscribe(name string, handler Handler[E]) {
	sub := &subscription[E]{
		name:    name,
		handler: handler,
		queue:   make(chan E, defaultQueueSize),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.logger.Warn().Str("handler", name).Msg("[EVENTS] subscribe on closed topic ignored")
		return
	}
	t.subs = append(t.subs, sub)
	t.mu.Unlock()

	go func() {
		for event := range sub.queue {
			t.deliver(sub, event)
		}
	}()
}

// Publish hands the event to every subscriber and returns immediately.
func (t *Topic[E]) Publish(event E) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.logger.Warn().Msg("[EVENTS] publish on closed topic dropped")
		return
	}

	t.published.Add(1)
	for _, sub := range t.subs {
		t.inflight.Add(1)
		select {
		case sub.queue <- event:
		default:
			t.logger.Warn().Str("handler", sub.name).Msg("[EVENTS] queue full, delivering out of band")
			go t.deliver(sub, event)
		}
	}
}

func (t *Topic[E]) deliver(sub *subscription[E], event E) {
	defer t.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			t.failures.Add(1)
			t.logger.Error().Str("handler", sub.name).Interface("panic", r).Msg("[EVENTS] handler panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := sub.handler(ctx, event); err != nil {
		t.failures.Add(1)
		t.logger.Error().Err(err).Str("handler", sub.name).Msg("[EVENTS] handler failed")
	}
}

// Wait blocks until every published event has been handled.
func (t *Topic[E]) Wait() {
	t.inflight.Wait()
}

// Close stops the workers once their queues are drained.
func (t *Topic[E]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for _, sub := range t.subs {
		close(sub.queue)
	}
}

// Stats reports how many events were published and how many handler runs failed.
func (t *Topic[E]) Stats() TopicStats {
	return TopicStats{Topic: t.name, Published: t.published.Load(), Failures: t.failures.Load()}
}

type TopicStats struct {
	Topic     string
	Published uint64
	Failures  uint64
}

func (s TopicStats) String() string {
	return fmt.Sprintf("%s: published=%d failures=%d", s.Topic, s.Published, s.Failures)
}
