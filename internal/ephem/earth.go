// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ephem provides the low-precision solar system ephemerides needed
// by the observatory model: the heliocentric position of the Earth and
// coordinate helpers for star catalog entries.
package ephem

import (
	"math"

	"github.com/ManuGH/exosurvey/internal/astro"
	"gonum.org/v1/gonum/spatial/r3"
)

// EarthPosition returns the heliocentric ecliptic position of the Earth at
// time t, in AU. The series is the standard low-accuracy solar ephemeris
// (good to ~0.01 deg in longitude), which is sufficient for halo orbit
// geometry and look-vector computation.
func EarthPosition(t astro.MJD) r3.Vec {
	n := t.Sub(astro.J2000)

	// Mean longitude and mean anomaly of the Sun, degrees.
	l := astro.Wrap(280.460+0.9856474*n, 360)
	g := astro.Deg2Rad(astro.Wrap(357.528+0.9856003*n, 360))

	// Geocentric ecliptic longitude of the Sun and Sun-Earth distance.
	lambda := astro.Deg2Rad(l) + astro.Deg2Rad(1.915)*math.Sin(g) +
		astro.Deg2Rad(0.020)*math.Sin(2*g)
	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)

	// Heliocentric Earth longitude is the anti-solar direction.
	lambdaE := lambda + math.Pi
	return r3.Vec{
		X: r * math.Cos(lambdaE),
		Y: r * math.Sin(lambdaE),
		Z: 0,
	}
}

// EclipticLatitude returns the ecliptic latitude in degrees for equatorial
// coordinates ra/dec given in degrees.
func EclipticLatitude(raDeg, decDeg float64) float64 {
	ra := astro.Deg2Rad(raDeg)
	dec := astro.Deg2Rad(decDeg)
	eps := astro.Deg2Rad(astro.ObliquityDeg)

	sinBeta := math.Sin(dec)*math.Cos(eps) - math.Cos(dec)*math.Sin(eps)*math.Sin(ra)
	return astro.Rad2Deg(math.Asin(sinBeta))
}

// StarDirection returns the unit vector in the heliocentric ecliptic frame
// for equatorial coordinates ra/dec in degrees.
func StarDirection(raDeg, decDeg float64) r3.Vec {
	ra := astro.Deg2Rad(raDeg)
	dec := astro.Deg2Rad(decDeg)
	eq := r3.Vec{
		X: math.Cos(dec) * math.Cos(ra),
		Y: math.Cos(dec) * math.Sin(ra),
		Z: math.Sin(dec),
	}
	eps := astro.Deg2Rad(astro.ObliquityDeg)
	// Equatorial -> ecliptic is a rotation by +obliquity about X.
	return r3.Vec{
		X: eq.X,
		Y: math.Cos(eps)*eq.Y + math.Sin(eps)*eq.Z,
		Z: -math.Sin(eps)*eq.Y + math.Cos(eps)*eq.Z,
	}
}
