// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/gamarr/internal/dbinterface"
)

// SpecificationKind names a custom format specification implementation.
// Specifications of the same kind form one group when a format is evaluated.
type SpecificationKind string

const (
	SpecReleaseTitle SpecificationKind = "releaseTitle"
	SpecSize         SpecificationKind = "size"
	SpecLanguage     SpecificationKind = "language"
	SpecQuality      SpecificationKind = "quality"
	SpecReleaseGroup SpecificationKind = "releaseGroup"
	SpecIndexerFlag  SpecificationKind = "indexerFlag"
	SpecSourcePath   SpecificationKind = "sourcePath"
	SpecEdition      SpecificationKind = "edition"
	SpecVersion      SpecificationKind = "version"
	SpecExpression   SpecificationKind = "expression"
)

var specificationKinds = map[SpecificationKind]struct{}{
	SpecReleaseTitle: {},
	SpecSize:         {},
	SpecLanguage:     {},
	SpecQuality:      {},
	SpecReleaseGroup: {},
	SpecIndexerFlag:  {},
	SpecSourcePath:   {},
	SpecEdition:      {},
	SpecVersion:      {},
	SpecExpression:   {},
}

func (k SpecificationKind) IsValid() bool {
	_, ok := specificationKinds[k]
	return ok
}

// SpecificationDefinition is the stored form of one specification.
//   - releaseTitle, releaseGroup, sourcePath, edition: Value is a regex
//   - language: Value is a language name
//   - indexerFlag: Value is a flag list such as "freeleech,internal"
//   - version: Value is a version constraint such as ">= 1.2"
//   - expression: Value is a boolean expression over the release
//   - size: Min/Max in GB, quality: Min/Max quality ids
type SpecificationDefinition struct {
	Name     string            `json:"name" yaml:"name"`
	Kind     SpecificationKind `json:"kind" yaml:"kind"`
	Negate   bool              `json:"negate,omitempty" yaml:"negate,omitempty"`
	Required bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Value    string            `json:"value,omitempty" yaml:"value,omitempty"`
	Min      float64           `json:"min,omitempty" yaml:"min,omitempty"`
	Max      float64           `json:"max,omitempty" yaml:"max,omitempty"`
}

type CustomFormat struct {
	ID                  int                       `json:"id" yaml:"-"`
	Name                string                    `json:"name" yaml:"name"`
	IncludeWhenRenaming bool                      `json:"includeWhenRenaming,omitempty" yaml:"includeWhenRenaming,omitempty"`
	DefaultScore        int                       `json:"defaultScore" yaml:"defaultScore"`
	Specifications      []SpecificationDefinition `json:"specifications" yaml:"specifications"`
	CreatedAt           time.Time                 `json:"createdAt" yaml:"-"`
	UpdatedAt           time.Time                 `json:"updatedAt" yaml:"-"`
}

func (f *CustomFormat) Validate() error {
	if f == nil {
		return errors.New("custom format is nil")
	}
	if strings.TrimSpace(f.Name) == "" {
		return ErrNameRequired
	}
	for i, spec := range f.Specifications {
		if !spec.Kind.IsValid() {
			return fmt.Errorf("specification %d (%s) has unknown kind %q", i, spec.Name, spec.Kind)
		}
		if spec.Kind == SpecSize || spec.Kind == SpecQuality {
			if spec.Max > 0 && spec.Min > spec.Max {
				return fmt.Errorf("specification %d (%s) has min greater than max", i, spec.Name)
			}
			continue
		}
		if strings.TrimSpace(spec.Value) == "" {
			return fmt.Errorf("specification %d (%s) has no value", i, spec.Name)
		}
	}
	return nil
}

type CustomFormatStore struct {
	db dbinterface.Querier
}

func NewCustomFormatStore(db dbinterface.Querier) *CustomFormatStore {
	return &CustomFormatStore{db: db}
}

const customFormatColumns = `id, name, include_when_renaming, default_score, specifications, created_at, updated_at`

func scanCustomFormat(row interface{ Scan(...any) error }) (*CustomFormat, error) {
	var f CustomFormat
	var specsJSON string
	if err := row.Scan(&f.ID, &f.Name, &f.IncludeWhenRenaming, &f.DefaultScore, &specsJSON, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(specsJSON), &f.Specifications); err != nil {
		return nil, fmt.Errorf("custom format %d: unmarshal specifications: %w", f.ID, err)
	}
	if f.Specifications == nil {
		f.Specifications = []SpecificationDefinition{}
	}
	return &f, nil
}

// List returns all custom formats ordered by name.
func (s *CustomFormatStore) List(ctx context.Context) ([]*CustomFormat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+customFormatColumns+` FROM custom_formats ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var formats []*CustomFormat
	for rows.Next() {
		f, err := scanCustomFormat(rows)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, rows.Err()
}

func (s *CustomFormatStore) Get(ctx context.Context, id int) (*CustomFormat, error) {
	return scanCustomFormat(s.db.QueryRowContext(ctx, `SELECT `+customFormatColumns+` FROM custom_formats WHERE id = ?`, id))
}

func (s *CustomFormatStore) GetByName(ctx context.Context, name string) (*CustomFormat, error) {
	return scanCustomFormat(s.db.QueryRowContext(ctx, `SELECT `+customFormatColumns+` FROM custom_formats WHERE name = ?`, strings.TrimSpace(name)))
}

func (s *CustomFormatStore) Create(ctx context.Context, f *CustomFormat) (*CustomFormat, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	specsJSON, err := json.Marshal(f.Specifications)
	if err != nil {
		return nil, fmt.Errorf("marshal specifications: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_formats (name, include_when_renaming, default_score, specifications, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(f.Name), f.IncludeWhenRenaming, f.DefaultScore, string(specsJSON), now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", ErrCustomFormatExists, f.Name)
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, int(id))
}

// Upsert creates the format or replaces the one with the same name.
func (s *CustomFormatStore) Upsert(ctx context.Context, f *CustomFormat) (*CustomFormat, error) {
	existing, err := s.GetByName(ctx, f.Name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.Create(ctx, f)
	case err != nil:
		return nil, err
	}

	f.ID = existing.ID
	return s.Update(ctx, f)
}

func (s *CustomFormatStore) Update(ctx context.Context, f *CustomFormat) (*CustomFormat, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	specsJSON, err := json.Marshal(f.Specifications)
	if err != nil {
		return nil, fmt.Errorf("marshal specifications: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE custom_formats
		SET name = ?, include_when_renaming = ?, default_score = ?, specifications = ?, updated_at = ?
		WHERE id = ?
	`, strings.TrimSpace(f.Name), f.IncludeWhenRenaming, f.DefaultScore, string(specsJSON), time.Now().UTC(), f.ID)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.Get(ctx, f.ID)
}

func (s *CustomFormatStore) Delete(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM custom_formats WHERE id = ?`, id)
	return err
}
