// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package astro provides the time scales and physical constants shared by the
// simulation packages. Mission time is carried as Modified Julian Date (TAI)
// throughout; conversions to Julian years happen at the dynamics boundary.
package astro

import "math"

// MJD is a Modified Julian Date in days.
type MJD float64

// Physical and calendar constants.
const (
	// JulianYearDays is the length of a Julian year in days.
	JulianYearDays = 365.25

	// J2000 is the J2000.0 reference epoch as an MJD.
	J2000 MJD = 51544.5

	// SecondsPerDay is the number of SI seconds in a day.
	SecondsPerDay = 86400.0

	// AUMeters is one astronomical unit in meters.
	AUMeters = 1.495978707e11

	// ObliquityDeg is the mean obliquity of the ecliptic at J2000, degrees.
	ObliquityDeg = 23.439291

	// EarthMoonMassKg is the combined Earth-Moon system mass in kg.
	EarthMoonMassKg = 5.97e24 * (1.0 + 1.0/81.0)

	// RadiusNeptuneEarth is Neptune's radius in Earth radii.
	RadiusNeptuneEarth = 24764.0 / 6371.0

	// EarthRadiusMeters is Earth's mean radius in meters.
	EarthRadiusMeters = 6.371e6
)

// JDOffset converts between Julian Date and Modified Julian Date.
const JDOffset = 2400000.5

// FromJD converts a Julian Date to an MJD.
func FromJD(jd float64) MJD {
	return MJD(jd - JDOffset)
}

// JD returns the Julian Date for t.
func (t MJD) JD() float64 {
	return float64(t) + JDOffset
}

// Days returns t as raw days.
func (t MJD) Days() float64 {
	return float64(t)
}

// AddDays returns t shifted by d days.
func (t MJD) AddDays(d float64) MJD {
	return t + MJD(d)
}

// Sub returns the elapsed time t-u in days.
func (t MJD) Sub(u MJD) float64 {
	return float64(t - u)
}

// YearsSince returns the elapsed time t-u in Julian years.
func (t MJD) YearsSince(u MJD) float64 {
	return float64(t-u) / JulianYearDays
}

// DaysToYears converts a duration in days to Julian years.
func DaysToYears(d float64) float64 {
	return d / JulianYearDays
}

// YearsToDays converts a duration in Julian years to days.
func YearsToDays(y float64) float64 {
	return y * JulianYearDays
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Rad2Arcsec converts radians to arcseconds.
func Rad2Arcsec(rad float64) float64 {
	return Rad2Deg(rad) * 3600.0
}

// Wrap returns x modulo period, normalized into [0, period).
func Wrap(x, period float64) float64 {
	if period <= 0 {
		return x
	}
	w := math.Mod(x, period)
	if w < 0 {
		w += period
	}
	return w
}
