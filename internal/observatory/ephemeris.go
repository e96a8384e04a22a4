// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package observatory implements a space telescope on a halo orbit about the
// Sun-Earth L2 point. The halo ephemeris is loaded from a JSON data file
// (time grid plus state vectors in circular-restricted three-body units) and
// interpolated for mission-time queries in both the heliocentric and the
// rotating CR3BP frame.
package observatory

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/interp"
)

// rawEphemeris is the on-disk halo orbit format. Times and the orbit period
// are in normalized CR3BP units (2*pi per sidereal year), states are
// position in AU and velocity in normalized units, both in the heliocentric
// ecliptic frame with the Earth at 1 AU on the x axis.
type rawEphemeris struct {
	Mu     float64      `json:"mu"`
	Te     float64      `json:"te"`
	XL     float64      `json:"x_lpoint"`
	T      []float64    `json:"t"`
	States [][6]float64 `json:"state"`
}

// Ephemeris is the normalized halo orbit: everything converted to Julian
// years and AU, with the Earth offset and L2 offset already removed from the
// two position series.
type Ephemeris struct {
	Mu          float64      `json:"mu"`
	PeriodYears float64      `json:"period_years"`
	L2DistAU    float64      `json:"l2_dist_au"`
	TimesYears  []float64    `json:"times_years"`
	PosEarthRel [][3]float64 `json:"pos_earth_rel"` // AU, Earth-relative heliocentric ecliptic
	PosL2Rel    [][3]float64 `json:"pos_l2_rel"`    // AU, L2-relative rotating frame
	VelAUYr     [][3]float64 `json:"vel_au_yr"`     // AU per Julian year, rotating frame
}

var (
	// ErrEphemerisNotFound reports a missing halo data file.
	ErrEphemerisNotFound = errors.New("observatory: halo orbit data file not found")
	// ErrEphemerisInvalid reports a malformed or inconsistent halo data file.
	ErrEphemerisInvalid = errors.New("observatory: halo orbit data invalid")
)

// LoadEphemeris reads and normalizes a halo orbit data file.
func LoadEphemeris(path string) (*Ephemeris, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEphemerisNotFound, path)
		}
		return nil, fmt.Errorf("read halo data: %w", err)
	}
	var raw rawEphemeris
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEphemerisInvalid, err)
	}
	return normalize(&raw)
}

func normalize(raw *rawEphemeris) (*Ephemeris, error) {
	if len(raw.T) == 0 || len(raw.T) != len(raw.States) {
		return nil, fmt.Errorf("%w: %d time samples for %d states", ErrEphemerisInvalid, len(raw.T), len(raw.States))
	}
	if raw.Mu <= 0 || raw.Mu >= 1 {
		return nil, fmt.Errorf("%w: mass parameter mu=%g", ErrEphemerisInvalid, raw.Mu)
	}
	if raw.Te <= 0 {
		return nil, fmt.Errorf("%w: non-positive period", ErrEphemerisInvalid)
	}

	e := &Ephemeris{
		Mu:          raw.Mu,
		PeriodYears: raw.Te / (2 * math.Pi),
		L2DistAU:    raw.XL,
		TimesYears:  make([]float64, len(raw.T)),
		PosEarthRel: make([][3]float64, len(raw.States)),
		PosL2Rel:    make([][3]float64, len(raw.States)),
		VelAUYr:     make([][3]float64, len(raw.States)),
	}
	prev := math.Inf(-1)
	for i, tn := range raw.T {
		// 2*pi normalized time units per sidereal year.
		ty := tn / (2 * math.Pi)
		if ty <= prev {
			return nil, fmt.Errorf("%w: time grid not strictly increasing at index %d", ErrEphemerisInvalid, i)
		}
		prev = ty
		e.TimesYears[i] = ty

		s := raw.States[i]
		for k := 0; k < 3; k++ {
			if !isFiniteState(s) {
				return nil, fmt.Errorf("%w: non-finite state at index %d", ErrEphemerisInvalid, i)
			}
			e.PosEarthRel[i][k] = s[k]
			e.PosL2Rel[i][k] = s[k]
			e.VelAUYr[i][k] = s[k+3] * 2 * math.Pi
		}
		e.PosEarthRel[i][0] -= 1.0
		e.PosL2Rel[i][0] -= raw.XL
	}
	return e, nil
}

func isFiniteState(s [6]float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// series3 bundles three per-axis linear interpolants over the halo time grid.
type series3 [3]interp.PiecewiseLinear

func newSeries3(times []float64, values [][3]float64) (*series3, error) {
	var s series3
	n := len(times)
	for k := 0; k < 3; k++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = values[i][k]
		}
		if err := s[k].Fit(times, col); err != nil {
			return nil, fmt.Errorf("fit halo interpolant axis %d: %w", k, err)
		}
	}
	return &s, nil
}

func (s *series3) at(t float64) [3]float64 {
	return [3]float64{s[0].Predict(t), s[1].Predict(t), s[2].Predict(t)}
}
