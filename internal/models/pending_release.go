// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/autobrr/gamarr/internal/dbinterface"
)

// PendingRelease is a release that was temporarily rejected and will be
// reconsidered later.
type PendingRelease struct {
	ID          int          `json:"id"`
	GameID      int          `json:"gameId"`
	Fingerprint string       `json:"fingerprint"`
	Title       string       `json:"title"`
	Release     *ReleaseInfo `json:"release"`
	Reason      string       `json:"reason"`
	Added       time.Time    `json:"added"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type PendingReleaseStore struct {
	db dbinterface.Querier
}

func NewPendingReleaseStore(db dbinterface.Querier) *PendingReleaseStore {
	return &PendingReleaseStore{db: db}
}

const pendingReleaseColumns = `id, game_id, fingerprint, title, release, reason, added, updated_at`

func scanPendingRelease(row interface{ Scan(...any) error }) (*PendingRelease, error) {
	var p PendingRelease
	var releaseJSON string
	if err := row.Scan(&p.ID, &p.GameID, &p.Fingerprint, &p.Title, &releaseJSON, &p.Reason, &p.Added, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Release = &ReleaseInfo{}
	if err := json.Unmarshal([]byte(releaseJSON), p.Release); err != nil {
		return nil, fmt.Errorf("pending release %d: unmarshal release: %w", p.ID, err)
	}
	return &p, nil
}

// Upsert inserts the release or, when the fingerprint is already pending,
// refreshes its reason and payload. Added keeps its first value.
func (s *PendingReleaseStore) Upsert(ctx context.Context, p *PendingRelease) (*PendingRelease, error) {
	if p == nil || p.Release == nil {
		return nil, errors.New("pending release is nil")
	}
	if p.Fingerprint == "" {
		return nil, errors.New("pending release fingerprint is required")
	}

	releaseJSON, err := json.Marshal(p.Release)
	if err != nil {
		return nil, fmt.Errorf("marshal release: %w", err)
	}

	title := p.Title
	if title == "" {
		title = p.Release.Title
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_releases (game_id, fingerprint, title, release, reason, added, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			game_id = excluded.game_id,
			title = excluded.title,
			release = excluded.release,
			reason = excluded.reason,
			updated_at = excluded.updated_at
	`, p.GameID, p.Fingerprint, title, string(releaseJSON), p.Reason, now, now); err != nil {
		return nil, err
	}

	return scanPendingRelease(s.db.QueryRowContext(ctx, `SELECT `+pendingReleaseColumns+` FROM pending_releases WHERE fingerprint = ?`, p.Fingerprint))
}

func (s *PendingReleaseStore) list(ctx context.Context, query string, args ...any) ([]*PendingRelease, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*PendingRelease
	for rows.Next() {
		p, err := scanPendingRelease(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// List returns every pending release, oldest first.
func (s *PendingReleaseStore) List(ctx context.Context) ([]*PendingRelease, error) {
	return s.list(ctx, `SELECT `+pendingReleaseColumns+` FROM pending_releases ORDER BY added ASC, id ASC`)
}

func (s *PendingReleaseStore) ListByGame(ctx context.Context, gameID int) ([]*PendingRelease, error) {
	return s.list(ctx, `SELECT `+pendingReleaseColumns+` FROM pending_releases WHERE game_id = ? ORDER BY added ASC, id ASC`, gameID)
}

// Delete removes a pending release by id. Returns sql.ErrNoRows if nothing was removed.
func (s *PendingReleaseStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_releases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByFingerprint drops a pending release once it has been grabbed.
func (s *PendingReleaseStore) DeleteByFingerprint(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_releases WHERE fingerprint = ?`, fingerprint)
	return err
}

func (s *PendingReleaseStore) DeleteByGame(ctx context.Context, gameID int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_releases WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
