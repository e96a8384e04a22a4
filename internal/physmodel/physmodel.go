// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package physmodel supplies the planet physical model: relations between
// mass, radius and albedo used when a catalog leaves a quantity
// unconstrained.
package physmodel

import "math"

// DefaultAlbedo is the geometric albedo assigned independently of orbit.
const DefaultAlbedo = 0.367

// AlbedoFromSMA returns the geometric albedo for a planet with the given
// semi-major axis in AU. The model is distance-independent.
func AlbedoFromSMA(smaAU float64) float64 {
	return DefaultAlbedo
}

// RadiusFromMass converts planetary mass (Earth masses) to radius (Earth
// radii) assuming Earth bulk density.
func RadiusFromMass(massEarth float64) float64 {
	if massEarth <= 0 {
		return 0
	}
	return math.Cbrt(massEarth)
}

// MassFromRadius converts planetary radius (Earth radii) to mass (Earth
// masses) assuming Earth bulk density.
func MassFromRadius(radiusEarth float64) float64 {
	if radiusEarth <= 0 {
		return 0
	}
	return radiusEarth * radiusEarth * radiusEarth
}
