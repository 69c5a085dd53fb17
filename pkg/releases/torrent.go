// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

var ErrEmptyTorrent = errors.New("empty torrent payload")

// InfoHashFromTorrent returns the lower-case hex info-hash of a .torrent file.
func InfoHashFromTorrent(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyTorrent
	}

	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode torrent: %w", err)
	}

	return strings.ToLower(mi.HashInfoBytes().HexString()), nil
}

// NormalizeInfoHash lower-cases and trims an info-hash for comparisons.
func NormalizeInfoHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
