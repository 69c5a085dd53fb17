// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_DeliversToEverySubscriber(t *testing.T) {
	t.Parallel()

	topic := NewTopic[GameDeleted]("game_deleted", zerolog.Nop())
	defer topic.Close()

	var mu sync.Mutex
	seen := map[string][]int{}
	record := func(name string) Handler[GameDeleted] {
		return func(_ context.Context, event GameDeleted) error {
			mu.Lock()
			defer mu.Unlock()
			seen[name] = append(seen[name], event.GameID)
			return nil
		}
	}

	topic.Subscribe("blocklist", record("blocklist"))
	topic.Subscribe("history", record("history"))

	topic.Publish(GameDeleted{GameID: 1})
	topic.Publish(GameDeleted{GameID: 2})
	topic.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen["blocklist"])
	assert.Equal(t, []int{1, 2}, seen["history"])
	assert.EqualValues(t, 2, topic.Stats().Published)
}

func TestTopic_HandlerFailureIsIsolated(t *testing.T) {
	t.Parallel()

	topic := NewTopic[GameDeleted]("game_deleted", zerolog.Nop())
	defer topic.Close()

	var mu sync.Mutex
	var delivered []int

	topic.Subscribe("panics", func(context.Context, GameDeleted) error {
		panic("boom")
	})
	topic.Subscribe("fails", func(context.Context, GameDeleted) error {
		return errors.New("database locked")
	})
	topic.Subscribe("works", func(_ context.Context, event GameDeleted) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, event.GameID)
		return nil
	})

	topic.Publish(GameDeleted{GameID: 7})
	topic.Publish(GameDeleted{GameID: 8})
	topic.Wait()

	mu.Lock()
	assert.Equal(t, []int{7, 8}, delivered)
	mu.Unlock()
	assert.EqualValues(t, 4, topic.Stats().Failures)
}

func TestTopic_PublishAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	topic := NewTopic[GameDeleted]("game_deleted", zerolog.Nop())
	called := false
	topic.Subscribe("h", func(context.Context, GameDeleted) error {
		called = true
		return nil
	})
	topic.Close()
	topic.Close()

	topic.Publish(GameDeleted{GameID: 1})
	topic.Wait()
	assert.False(t, called)
	assert.Zero(t, topic.Stats().Published)
}

func TestBus_StatsCoverEveryTopic(t *testing.T) {
	t.Parallel()

	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	bus.DownloadFailed.Publish(DownloadFailed{GameID: 1})
	bus.Wait()

	stats := bus.Stats()
	require.Len(t, stats, 5)
	for _, s := range stats {
		if s.Topic == "download_failed" {
			assert.EqualValues(t, 1, s.Published)
			continue
		}
		assert.Zero(t, s.Published, s.Topic)
	}
}
