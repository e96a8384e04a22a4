// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package universe

import "math"

// solveKepler returns the eccentric anomaly for mean anomaly m (radians)
// and eccentricity e, via Newton iteration from a high-eccentricity-safe
// starter.
func solveKepler(m, e float64) float64 {
	if e == 0 {
		return m
	}
	// Standard starter; good for all e < 1.
	ecc := m
	if e > 0.8 {
		ecc = math.Pi
	}
	for iter := 0; iter < 50; iter++ {
		f := ecc - e*math.Sin(ecc) - m
		fp := 1 - e*math.Cos(ecc)
		d := f / fp
		ecc -= d
		if math.Abs(d) < 1e-14 {
			break
		}
	}
	return ecc
}

// trueAnomaly converts eccentric anomaly to true anomaly.
func trueAnomaly(ecc, e float64) float64 {
	return 2 * math.Atan2(
		math.Sqrt(1+e)*math.Sin(ecc/2),
		math.Sqrt(1-e)*math.Cos(ecc/2),
	)
}
