// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityLookups(t *testing.T) {
	t.Parallel()

	q, ok := QualityByName("gog")
	assert.True(t, ok)
	assert.Equal(t, QualityGOG, q)

	q, ok = QualityByID(QualityISO.ID)
	assert.True(t, ok)
	assert.Equal(t, QualityISO, q)

	_, ok = QualityByName("bluray")
	assert.False(t, ok)
}

func TestRevisionCompare(t *testing.T) {
	t.Parallel()

	base := Revision{Version: 1}
	proper := Revision{Version: 2}
	realFix := Revision{Version: 1, Real: 1}

	assert.Equal(t, -1, base.Compare(proper))
	assert.Equal(t, 1, proper.Compare(realFix))
	assert.Equal(t, -1, base.Compare(realFix))
	assert.Equal(t, 0, base.Compare(Revision{Version: 1}))
}

func TestQualityModelString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "GOG", QualityModel{Quality: QualityGOG, Revision: Revision{Version: 1}}.String())
	assert.Equal(t, "Scene v2", QualityModel{Quality: QualityScene, Revision: Revision{Version: 2}}.String())
}

func TestLanguageFromToken(t *testing.T) {
	t.Parallel()

	l, ok := languageFromToken("MULTi5")
	assert.True(t, ok)
	assert.Equal(t, LanguageMulti, l)

	l, ok = languageFromToken("GER")
	assert.True(t, ok)
	assert.Equal(t, LanguageGerman, l)

	_, ok = languageFromToken("klingon")
	assert.False(t, ok)
}
