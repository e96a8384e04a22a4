// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package zodi computes zodiacal and exozodiacal light levels with the
// Lindler model: an empirical viewing-angle polynomial for the local zodi
// plus a magnitude-scaled exozodi term per target system.
package zodi

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ManuGH/exosurvey/internal/targetlist"
)

// Lindler is the Lindler zodiacal light model.
type Lindler struct {
	// Exozodi is the mean exozodi level in zodi units.
	Exozodi float64
	// ExozodiVar is the exozodi variance; zero disables the log-normal draw.
	ExozodiVar float64
}

// NewLindler validates and builds the model.
func NewLindler(exozodi, exozodiVar float64) (*Lindler, error) {
	if exozodi <= 0 {
		return nil, fmt.Errorf("zodi: exozodi level must be positive, got %g", exozodi)
	}
	if exozodiVar < 0 {
		return nil, fmt.Errorf("zodi: exozodi variance must be non-negative, got %g", exozodiVar)
	}
	return &Lindler{Exozodi: exozodi, ExozodiVar: exozodiVar}, nil
}

// FBeta is the empirically derived variation of zodiacal light with viewing
// angle beta (degrees), in zodi units.
func FBeta(beta float64) float64 {
	return 2.44 - 0.0403*beta + 0.000269*beta*beta
}

// Fzodi returns the combined zodi plus exozodi level for each planet. inds
// holds the target list star index per planet, inclDeg the corresponding
// orbital inclinations in degrees. Inclinations beyond 90 degrees are folded
// back. When ExozodiVar is zero the mean exozodi level is used; otherwise a
// log-normal draw with the configured mean and variance scales each system.
func (l *Lindler) Fzodi(rng *rand.Rand, inds []int, inclDeg []float64, tl *targetlist.TargetList) ([]float64, error) {
	if len(inds) != len(inclDeg) {
		return nil, fmt.Errorf("zodi: %d star indices for %d inclinations", len(inds), len(inclDeg))
	}
	lats := tl.EclipticLatitudes()

	out := make([]float64, len(inds))
	for k, sInd := range inds {
		if sInd < 0 || sInd >= tl.Len() {
			return nil, fmt.Errorf("zodi: star index %d out of range", sInd)
		}
		incl := inclDeg[k]
		if incl > 90 {
			incl = 180 - incl
		}

		x := l.Exozodi
		if l.ExozodiVar > 0 {
			// Log-normal with mean Exozodi and variance ExozodiVar.
			mu := math.Log(l.Exozodi) - 0.5*math.Log(1+l.ExozodiVar/(l.Exozodi*l.Exozodi))
			sigma := math.Sqrt(math.Log(l.ExozodiVar/(l.Exozodi*l.Exozodi) + 1))
			x = math.Exp(mu + sigma*rng.NormFloat64())
		}

		mv := tl.Stars[sInd].MV
		out[k] = FBeta(lats[sInd]) + 2*x*FBeta(incl)*math.Pow(2.5, 4.78-mv)
	}
	return out, nil
}
