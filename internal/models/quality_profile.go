// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/autobrr/gamarr/internal/dbinterface"
	"github.com/autobrr/gamarr/pkg/releases"
)

// FormatItem overrides the score of one custom format inside a profile.
type FormatItem struct {
	FormatID int `json:"formatId"`
	Score    int `json:"score"`
}

// QualityProfile ranks the qualities a game may be grabbed in and weighs
// custom formats.
type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// AllowedQualities holds quality ids from worst to best.
	AllowedQualities  []int        `json:"allowedQualities"`
	Cutoff            int          `json:"cutoff"`
	UpgradeAllowed    bool         `json:"upgradeAllowed"`
	MinFormatScore    int          `json:"minFormatScore"`
	CutoffFormatScore int          `json:"cutoffFormatScore"`
	FormatItems       []FormatItem `json:"formatItems"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// Validate returns a non-nil error if the profile is missing required data.
func (p *QualityProfile) Validate() error {
	if p == nil {
		return errors.New("quality profile is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if len(p.AllowedQualities) == 0 {
		return errors.New("quality profile must allow at least one quality")
	}
	for _, id := range p.AllowedQualities {
		if _, ok := releases.QualityByID(id); !ok {
			return fmt.Errorf("unknown quality id %d", id)
		}
	}
	if p.Cutoff != 0 && !slices.Contains(p.AllowedQualities, p.Cutoff) {
		return fmt.Errorf("cutoff quality %d is not allowed by the profile", p.Cutoff)
	}
	return nil
}

// Allows reports whether q is one of the allowed qualities.
func (p *QualityProfile) Allows(q releases.Quality) bool {
	return slices.Contains(p.AllowedQualities, q.ID)
}

// Rank is the position of q within the allowed qualities, -1 if not allowed.
func (p *QualityProfile) Rank(q releases.Quality) int {
	return slices.Index(p.AllowedQualities, q.ID)
}

// FormatScore is the profile's score for a matched format, falling back to
// the format's default score.
func (p *QualityProfile) FormatScore(cf *CustomFormat) int {
	if p != nil {
		for _, item := range p.FormatItems {
			if item.FormatID == cf.ID {
				return item.Score
			}
		}
	}
	return cf.DefaultScore
}

type QualityProfileStore struct {
	db dbinterface.Querier
}

func NewQualityProfileStore(db dbinterface.Querier) *QualityProfileStore {
	return &QualityProfileStore{db: db}
}

const qualityProfileColumns = `id, name, allowed_qualities, cutoff, upgrade_allowed, min_format_score, cutoff_format_score, format_items, created_at, updated_at`

func scanQualityProfile(row interface{ Scan(...any) error }) (*QualityProfile, error) {
	var p QualityProfile
	var allowedJSON, itemsJSON string
	if err := row.Scan(&p.ID, &p.Name, &allowedJSON, &p.Cutoff, &p.UpgradeAllowed, &p.MinFormatScore, &p.CutoffFormatScore, &itemsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(allowedJSON), &p.AllowedQualities); err != nil {
		return nil, fmt.Errorf("quality profile %d: unmarshal allowed_qualities: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &p.FormatItems); err != nil {
		return nil, fmt.Errorf("quality profile %d: unmarshal format_items: %w", p.ID, err)
	}
	if p.FormatItems == nil {
		p.FormatItems = []FormatItem{}
	}
	return &p, nil
}

// List returns all quality profiles ordered by name.
func (s *QualityProfileStore) List(ctx context.Context) ([]*QualityProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+qualityProfileColumns+` FROM quality_profiles ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*QualityProfile
	for rows.Next() {
		p, err := scanQualityProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Get returns the quality profile with the given id, or sql.ErrNoRows if not found.
func (s *QualityProfileStore) Get(ctx context.Context, id int) (*QualityProfile, error) {
	return scanQualityProfile(s.db.QueryRowContext(ctx, `SELECT `+qualityProfileColumns+` FROM quality_profiles WHERE id = ?`, id))
}

func marshalProfile(p *QualityProfile) (string, string, error) {
	allowedJSON, err := json.Marshal(p.AllowedQualities)
	if err != nil {
		return "", "", fmt.Errorf("marshal allowed_qualities: %w", err)
	}
	items := p.FormatItems
	if items == nil {
		items = []FormatItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", "", fmt.Errorf("marshal format_items: %w", err)
	}
	return string(allowedJSON), string(itemsJSON), nil
}

// Create inserts a new quality profile and returns it with the generated ID.
func (s *QualityProfileStore) Create(ctx context.Context, p *QualityProfile) (*QualityProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	allowedJSON, itemsJSON, err := marshalProfile(p)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quality_profiles (name, allowed_qualities, cutoff, upgrade_allowed, min_format_score, cutoff_format_score, format_items, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(p.Name), allowedJSON, p.Cutoff, p.UpgradeAllowed, p.MinFormatScore, p.CutoffFormatScore, itemsJSON, now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, int(id))
}

// Update replaces the mutable fields of an existing quality profile.
func (s *QualityProfileStore) Update(ctx context.Context, p *QualityProfile) (*QualityProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	allowedJSON, itemsJSON, err := marshalProfile(p)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE quality_profiles
		SET name = ?, allowed_qualities = ?, cutoff = ?, upgrade_allowed = ?, min_format_score = ?, cutoff_format_score = ?, format_items = ?, updated_at = ?
		WHERE id = ?
	`, strings.TrimSpace(p.Name), allowedJSON, p.Cutoff, p.UpgradeAllowed, p.MinFormatScore, p.CutoffFormatScore, itemsJSON, time.Now().UTC(), p.ID)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("quality profile %d: %w", p.ID, sql.ErrNoRows)
	}
	return s.Get(ctx, p.ID)
}

// Delete removes the quality profile with the given id.
func (s *QualityProfileStore) Delete(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quality_profiles WHERE id = ?`, id)
	return err
}
