// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package targetlist holds the star catalog a survey observes: names,
// equatorial coordinates, distances and photometry. The catalog is an input
// artifact, loaded from JSON; target selection pipelines are out of scope.
package targetlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/ephem"
	"gonum.org/v1/gonum/spatial/r3"
)

// ParsecAU is one parsec in astronomical units.
const ParsecAU = 206264.80624548031

// Star is a single catalog entry.
type Star struct {
	Name   string  `json:"name"`
	RADeg  float64 `json:"ra_deg"`
	DecDeg float64 `json:"dec_deg"`
	DistPC float64 `json:"dist_pc"`
	// MV is the absolute V magnitude.
	MV float64 `json:"mv"`
}

// TargetList is an immutable catalog of survey targets.
type TargetList struct {
	Stars []Star
}

// ErrStarIndex reports an out of range star index.
var ErrStarIndex = errors.New("targetlist: star index out of range")

// Load reads a catalog from a JSON file.
func Load(path string) (*TargetList, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target catalog: %w", err)
	}
	var stars []Star
	if err := json.Unmarshal(buf, &stars); err != nil {
		return nil, fmt.Errorf("parse target catalog: %w", err)
	}
	tl := &TargetList{Stars: stars}
	if err := tl.validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

func (tl *TargetList) validate() error {
	if len(tl.Stars) == 0 {
		return errors.New("targetlist: catalog is empty")
	}
	seen := make(map[string]struct{}, len(tl.Stars))
	for i, s := range tl.Stars {
		if s.Name == "" {
			return fmt.Errorf("targetlist: star %d has no name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("targetlist: duplicate star name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.DistPC <= 0 {
			return fmt.Errorf("targetlist: star %q has non-positive distance", s.Name)
		}
	}
	return nil
}

// Len returns the number of targets.
func (tl *TargetList) Len() int { return len(tl.Stars) }

// Index returns the catalog index for a star name, or -1.
func (tl *TargetList) Index(name string) int {
	for i, s := range tl.Stars {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// StarPosition returns the heliocentric ecliptic position of star ind at
// mission time t, in AU. Catalog positions are treated as fixed on mission
// timescales; proper motion is below the pointing geometry noise floor here.
func (tl *TargetList) StarPosition(ind int, _ astro.MJD) (r3.Vec, error) {
	if ind < 0 || ind >= len(tl.Stars) {
		return r3.Vec{}, fmt.Errorf("%w: %d", ErrStarIndex, ind)
	}
	s := tl.Stars[ind]
	dir := ephem.StarDirection(s.RADeg, s.DecDeg)
	return r3.Scale(s.DistPC*ParsecAU, dir), nil
}

// EclipticLatitudes returns the ecliptic latitude in degrees for every
// catalog star, in catalog order.
func (tl *TargetList) EclipticLatitudes() []float64 {
	lats := make([]float64, len(tl.Stars))
	for i, s := range tl.Stars {
		lats[i] = ephem.EclipticLatitude(s.RADeg, s.DecDeg)
	}
	return lats
}
