// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package events

import "github.com/rs/zerolog"

// Bus groups the topics shared by the services.
type Bus struct {
	GameDeleted     *Topic[GameDeleted]
	ReleaseGrabbed  *Topic[ReleaseGrabbed]
	DownloadFailed  *Topic[DownloadFailed]
	ImportCompleted *Topic[ImportCompleted]
	DownloadIgnored *Topic[DownloadIgnored]
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		GameDeleted:     NewTopic[GameDeleted]("game_deleted", logger),
		ReleaseGrabbed:  NewTopic[ReleaseGrabbed]("release_grabbed", logger),
		DownloadFailed:  NewTopic[DownloadFailed]("download_failed", logger),
		ImportCompleted: NewTopic[ImportCompleted]("import_completed", logger),
		DownloadIgnored: NewTopic[DownloadIgnored]("download_ignored", logger),
	}
}

// Wait blocks until all topics are idle.
func (b *Bus) Wait() {
	b.GameDeleted.Wait()
	b.ReleaseGrabbed.Wait()
	b.DownloadFailed.Wait()
	b.ImportCompleted.Wait()
	b.DownloadIgnored.Wait()
}

func (b *Bus) Close() {
	b.GameDeleted.Close()
	b.ReleaseGrabbed.Close()
	b.DownloadFailed.Close()
	b.ImportCompleted.Close()
	b.DownloadIgnored.Close()
}

func (b *Bus) Stats() []TopicStats {
	return []TopicStats{
		b.GameDeleted.Stats(),
		b.ReleaseGrabbed.Stats(),
		b.DownloadFailed.Stats(),
		b.ImportCompleted.Stats(),
		b.DownloadIgnored.Stats(),
	}
}
