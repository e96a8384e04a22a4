// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package observatory

import (
	"fmt"
	"math"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/ephem"
	"github.com/ManuGH/exosurvey/internal/frames"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the observatory parameters.
type Config struct {
	// EquinoxMJD is the Earth equinox reference epoch (MJD, TAI).
	EquinoxMJD float64
	// HaloStartTimeDays offsets the spacecraft position along the halo at
	// mission start, in days.
	HaloStartTimeDays float64
	// SRP enables the solar radiation pressure force on the starshade in the
	// CR3BP equations of motion.
	SRP bool
}

// DefaultConfig matches the reference L2 halo mission setup.
func DefaultConfig() Config {
	return Config{
		EquinoxMJD:        60575.25,
		HaloStartTimeDays: 0,
		SRP:               true,
	}
}

// Observatory models a telescope on a Sun-Earth L2 halo orbit.
type Observatory struct {
	cfg Config
	eph *Ephemeris

	mu, m1, m2 float64

	posEarthRel *series3
	posL2Rel    *series3
	vel         *series3
}

// New builds an Observatory over a normalized halo ephemeris.
func New(cfg Config, eph *Ephemeris) (*Observatory, error) {
	if eph == nil {
		return nil, ErrEphemerisNotFound
	}
	pe, err := newSeries3(eph.TimesYears, eph.PosEarthRel)
	if err != nil {
		return nil, err
	}
	pl, err := newSeries3(eph.TimesYears, eph.PosL2Rel)
	if err != nil {
		return nil, err
	}
	vl, err := newSeries3(eph.TimesYears, eph.VelAUYr)
	if err != nil {
		return nil, err
	}
	return &Observatory{
		cfg:         cfg,
		eph:         eph,
		mu:          eph.Mu,
		m1:          1 - eph.Mu,
		m2:          eph.Mu,
		posEarthRel: pe,
		posL2Rel:    pl,
		vel:         vl,
	}, nil
}

// Ephemeris returns the halo ephemeris backing the observatory.
func (o *Observatory) Ephemeris() *Ephemeris { return o.eph }

// L2Dist returns the Sun-L2 distance in AU.
func (o *Observatory) L2Dist() float64 { return o.eph.L2DistAU }

// haloTime wraps mission time into the halo period, in Julian years.
func (o *Observatory) haloTime(t astro.MJD) float64 {
	dt := (t.Sub(astro.MJD(o.cfg.EquinoxMJD)) + o.cfg.HaloStartTimeDays) / astro.JulianYearDays
	return astro.Wrap(dt, o.eph.PeriodYears)
}

// Orbit returns the observatory heliocentric position at mission time t, in
// AU. With eclip true the vector stays in the heliocentric ecliptic frame;
// otherwise it is rotated into the heliocentric equatorial frame.
func (o *Observatory) Orbit(t astro.MJD, eclip bool) (r3.Vec, error) {
	p := o.posEarthRel.at(o.haloTime(t))
	rHalo := r3.Vec{X: p[0], Y: p[1], Z: p[2]}

	rEarth := ephem.EarthPosition(t)
	rEarthNorm := math.Hypot(rEarth.X, rEarth.Y)

	// Re-attach the Earth-Sun distance projected in the ecliptic plane, then
	// rotate by the Earth ecliptic longitude.
	rHalo.X += rEarthNorm
	lon := math.Copysign(math.Acos(rEarth.X/rEarthNorm), rEarth.Y)
	rObs := frames.Apply(frames.Rot(-lon, frames.Z), rHalo)

	if !finiteVec(rObs) {
		return r3.Vec{}, fmt.Errorf("observatory: non-finite orbit position at t=%v", t)
	}
	if !eclip {
		rObs = frames.Eclip2Equat(rObs)
	}
	return rObs, nil
}

// HaloPosition returns the L2-relative spacecraft position in the rotating
// CR3BP frame at mission time t, in AU.
func (o *Observatory) HaloPosition(t astro.MJD) r3.Vec {
	p := o.posL2Rel.at(o.haloTime(t))
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// HaloVelocity returns the rotating-frame spacecraft velocity at mission
// time t, in AU per Julian year.
func (o *Observatory) HaloVelocity(t astro.MJD) r3.Vec {
	v := o.vel.at(o.haloTime(t))
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Eclip2Rot rotates a heliocentric ecliptic star position into the rotating
// CR3BP frame at mission time t.
func (o *Observatory) Eclip2Rot(starPos r3.Vec, t astro.MJD) r3.Vec {
	theta := astro.DaysToYears(math.Mod(t.Days(), o.cfg.EquinoxMJD)) * 2 * math.Pi
	return frames.Apply(frames.Rot(theta, frames.Z), starPos)
}

// LookVector is a unit pointing vector from the telescope to a target.
type LookVector = r3.Vec

// LookVectors returns the slew angle (degrees) between the most recently
// observed star n1 at time tA and the next target n2 at time tB, as seen
// from the telescope on its halo orbit, together with the two unit pointing
// vectors and the telescope rotating-frame positions at both epochs.
func (o *Observatory) LookVectors(stars StarPositioner, n1, n2 int, tA, tB astro.MJD) (float64, LookVector, LookVector, [2]r3.Vec, error) {
	l2 := r3.Vec{X: o.eph.L2DistAU}
	rTscpA := r3.Add(o.HaloPosition(tA), l2)
	rTscpB := r3.Add(o.HaloPosition(tB), l2)

	star1, err := stars.StarPosition(n1, tA)
	if err != nil {
		return 0, r3.Vec{}, r3.Vec{}, [2]r3.Vec{}, fmt.Errorf("star %d: %w", n1, err)
	}
	star2, err := stars.StarPosition(n2, tB)
	if err != nil {
		return 0, r3.Vec{}, r3.Vec{}, [2]r3.Vec{}, fmt.Errorf("star %d: %w", n2, err)
	}

	u1 := r3.Unit(r3.Sub(o.Eclip2Rot(star1, tA), rTscpA))
	u2 := r3.Unit(r3.Sub(o.Eclip2Rot(star2, tB), rTscpB))

	dot := r3.Dot(u1, u2)
	// Clamp against rounding before acos.
	dot = math.Max(-1, math.Min(1, dot))
	angle := astro.Rad2Deg(math.Acos(dot))

	return angle, u1, u2, [2]r3.Vec{rTscpA, rTscpB}, nil
}

// StarPositioner resolves a star index to a heliocentric ecliptic position
// in AU at a given mission time.
type StarPositioner interface {
	StarPosition(ind int, t astro.MJD) (r3.Vec, error)
}

func finiteVec(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
