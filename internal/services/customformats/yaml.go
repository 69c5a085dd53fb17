// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/autobrr/gamarr/internal/models"
)

type formatFile struct {
	CustomFormats []*models.CustomFormat `yaml:"customFormats"`
}

// ParseYAML reads format definitions:
//
//	customFormats:
//	  - name: GOG
//	    defaultScore: 100
//	    specifications:
//	      - name: gog
//	        kind: releaseTitle
//	        value: '\bgog\b'
//
// Every format is validated before anything is returned.
func ParseYAML(r io.Reader) ([]*models.CustomFormat, error) {
	var file formatFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode custom formats: %w", err)
	}

	seen := make(map[string]struct{}, len(file.CustomFormats))
	for i, f := range file.CustomFormats {
		if f == nil {
			return nil, fmt.Errorf("custom format %d is empty", i)
		}
		if err := Validate(f); err != nil {
			return nil, fmt.Errorf("custom format %d (%s): %w", i, f.Name, err)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("custom format %q defined twice", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return file.CustomFormats, nil
}
