// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"fmt"
	"strings"
)

// Quality is the distribution flavour of a game release.
type Quality struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

var (
	QualityUnknown  = Quality{ID: 0, Name: "Unknown"}
	QualityPortable = Quality{ID: 1, Name: "Portable"}
	QualityRepack   = Quality{ID: 2, Name: "Repack"}
	QualityScene    = Quality{ID: 3, Name: "Scene"}
	QualityISO      = Quality{ID: 4, Name: "ISO"}
	QualityGOG      = Quality{ID: 5, Name: "GOG"}
)

// AllQualities lists every quality in default rank order, lowest first.
var AllQualities = []Quality{
	QualityUnknown,
	QualityPortable,
	QualityRepack,
	QualityScene,
	QualityISO,
	QualityGOG,
}

func (q Quality) String() string {
	return q.Name
}

// QualityByName looks up a quality case-insensitively.
func QualityByName(name string) (Quality, bool) {
	for _, q := range AllQualities {
		if strings.EqualFold(q.Name, name) {
			return q, true
		}
	}
	return QualityUnknown, false
}

// QualityByID looks up a quality by its stable id.
func QualityByID(id int) (Quality, bool) {
	for _, q := range AllQualities {
		if q.ID == id {
			return q, true
		}
	}
	return QualityUnknown, false
}

// Revision counts PROPER/REPACK re-releases and REAL fixes.
type Revision struct {
	Version  int  `json:"version"`
	Real     int  `json:"real"`
	IsRepack bool `json:"isRepack"`
}

// Compare orders revisions by version first and REAL count second.
func (r Revision) Compare(other Revision) int {
	switch {
	case r.Version != other.Version:
		return cmpInt(r.Version, other.Version)
	default:
		return cmpInt(r.Real, other.Real)
	}
}

// QualityModel pairs a quality with the revision it was released at.
type QualityModel struct {
	Quality  Quality  `json:"quality"`
	Revision Revision `json:"revision"`
}

func (m QualityModel) String() string {
	if m.Revision.Version > 1 || m.Revision.Real > 0 {
		return fmt.Sprintf("%s v%d", m.Quality.Name, m.Revision.Version+m.Revision.Real)
	}
	return m.Quality.Name
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
