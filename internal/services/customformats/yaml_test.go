// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package customformats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/gamarr/internal/models"
)

const sampleFormats = `
customFormats:
  - name: GOG
    defaultScore: 100
    specifications:
      - name: gog
        kind: releaseTitle
        value: '\bgog\b'
  - name: Huge
    defaultScore: -20
    specifications:
      - name: over 50GB
        kind: size
        min: 50
`

func TestParseYAML(t *testing.T) {
	t.Parallel()

	formats, err := ParseYAML(strings.NewReader(sampleFormats))
	require.NoError(t, err)
	require.Len(t, formats, 2)

	assert.Equal(t, "GOG", formats[0].Name)
	assert.Equal(t, 100, formats[0].DefaultScore)
	require.Len(t, formats[0].Specifications, 1)
	assert.Equal(t, models.SpecReleaseTitle, formats[0].Specifications[0].Kind)
	assert.Equal(t, `\bgog\b`, formats[0].Specifications[0].Value)
	assert.InDelta(t, 50, formats[1].Specifications[0].Min, 0.001)
}

func TestParseYAML_Empty(t *testing.T) {
	t.Parallel()

	formats, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, formats)
}

func TestParseYAML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "customFormats:\n  - name: A\n    score: 1\n"},
		{"duplicate name", "customFormats:\n  - name: A\n    specifications: [{kind: releaseTitle, value: a}]\n  - name: A\n    specifications: [{kind: releaseTitle, value: b}]\n"},
		{"missing name", "customFormats:\n  - defaultScore: 1\n"},
		{"bad pattern", "customFormats:\n  - name: A\n    specifications: [{kind: releaseTitle, value: '('}]\n"},
		{"unknown kind", "customFormats:\n  - name: A\n    specifications: [{kind: colour, value: red}]\n"},
		{"not yaml", "customFormats: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseYAML(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}
