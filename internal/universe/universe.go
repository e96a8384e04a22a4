// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package universe

import (
	"errors"
	"math"
	"math/rand"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/physmodel"
	"github.com/ManuGH/exosurvey/internal/planetpop"
	"github.com/ManuGH/exosurvey/internal/targetlist"
)

// Universe is a fully sampled set of planetary systems mapped onto a target
// list. Slice fields are indexed by planet; PlanToStar maps each planet to
// its host star's target list index.
type Universe struct {
	PlanToStar []int
	SInds      []int // unique star indices hosting at least one planet
	NPlans     int

	SMA        []float64 // AU
	Eccen      []float64
	InclDeg    []float64
	NodeDeg    []float64
	ArgPeriDeg []float64
	M0Deg      []float64 // mean anomaly at mission start
	Albedo     []float64
	MassEarth  []float64
	RadEarth   []float64
	PeriodDays []float64

	StarNames []string // indexed by planet

	missionStart astro.MJD
}

// ErrNoPlanets reports that no catalog planet orbits any listed target.
var ErrNoPlanets = errors.New("universe: no catalog planets match the target list")

// NewKnownRV samples a universe from the catalog: every catalog planet whose
// host appears in the target list is instantiated with its cataloged
// parameters perturbed by the published uncertainties. Missing angles come
// from the population's angle distributions, missing radii from the physical
// model.
func NewKnownRV(rng *rand.Rand, cat *Catalog, tl *targetlist.TargetList, pop planetpop.Population, missionStart astro.MJD) (*Universe, error) {
	var planinds, starinds []int
	for j, star := range tl.Stars {
		for _, pi := range cat.ByHost(star.Name) {
			planinds = append(planinds, pi)
			starinds = append(starinds, j)
		}
	}
	n := len(planinds)
	if n == 0 {
		return nil, ErrNoPlanets
	}

	angles, err := pop.GenAngles(rng, n)
	if err != nil {
		return nil, err
	}

	u := &Universe{
		PlanToStar:   starinds,
		NPlans:       n,
		SMA:          make([]float64, n),
		Eccen:        make([]float64, n),
		InclDeg:      make([]float64, n),
		NodeDeg:      make([]float64, n),
		ArgPeriDeg:   angles.ArgPeri,
		M0Deg:        make([]float64, n),
		Albedo:       make([]float64, n),
		MassEarth:    make([]float64, n),
		RadEarth:     make([]float64, n),
		PeriodDays:   make([]float64, n),
		StarNames:    make([]string, n),
		missionStart: missionStart,
	}

	seen := make(map[int]struct{})
	for k, pi := range planinds {
		p := cat.Planets[pi]
		u.StarNames[k] = p.Hostname
		if _, ok := seen[starinds[k]]; !ok {
			seen[starinds[k]] = struct{}{}
			u.SInds = append(u.SInds, starinds[k])
		}

		// Semi-major axis: perturb, fall back to catalog if the draw went
		// non-physical.
		a := p.SMA + rng.NormFloat64()*p.SMAErr
		if a <= 0 {
			a = p.SMA
		}
		u.SMA[k] = a

		e := p.Eccen + rng.NormFloat64()*p.EccenErr
		if e < 0 {
			e = 0
		}
		if e > 0.9 {
			e = 0.9
		}
		u.Eccen[k] = e

		if p.InclDeg != nil {
			u.InclDeg[k] = *p.InclDeg + rng.NormFloat64()*p.InclErrDeg
		} else {
			u.InclDeg[k] = angles.Inclination[k]
		}

		// Longitude of ascending node from the longitude of periastron.
		if p.LongPeriDeg != nil {
			lper := *p.LongPeriDeg + rng.NormFloat64()*p.LongPeriErrDeg
			u.NodeDeg[k] = lper - u.ArgPeriDeg[k]
		} else {
			u.NodeDeg[k] = angles.Node[k]
		}

		u.Albedo[k] = physmodel.AlbedoFromSMA(a)
		u.MassEarth[k] = p.MassEarth
		if p.RadiusEarth != nil {
			u.RadEarth[k] = *p.RadiusEarth
		} else {
			u.RadEarth[k] = physmodel.RadiusFromMass(p.MassEarth)
		}

		period := p.PeriodDays + rng.NormFloat64()*p.PeriodErrDays
		if period <= 0 {
			period = p.PeriodDays
		}
		u.PeriodDays[k] = period

		// Initial mean anomaly from the perturbed periastron epoch.
		tper := astro.FromJD(p.TPerJD + rng.NormFloat64()*p.TPerErrDays)
		frac := astro.Wrap(missionStart.Sub(tper)/period, 1)
		u.M0Deg[k] = frac * 360
	}
	return u, nil
}

// MissionStart returns the epoch the mean anomalies are referenced to.
func (u *Universe) MissionStart() astro.MJD { return u.missionStart }

// PlanetsOfStar returns the planet indices hosted by target list star sInd.
func (u *Universe) PlanetsOfStar(sInd int) []int {
	var out []int
	for k, s := range u.PlanToStar {
		if s == sInd {
			out = append(out, k)
		}
	}
	return out
}

// meanAnomalyDeg returns the mean anomaly of planet k at time t, degrees.
func (u *Universe) meanAnomalyDeg(k int, t astro.MJD) float64 {
	return astro.Wrap(u.M0Deg[k]+360*t.Sub(u.missionStart)/u.PeriodDays[k], 360)
}

// PlanetRelPosition returns the position of planet k relative to its host
// star at time t, in AU, in a frame aligned with the sky plane (z toward
// the observer line of sight).
func (u *Universe) PlanetRelPosition(k int, t astro.MJD) (x, y, z float64) {
	mRad := astro.Deg2Rad(u.meanAnomalyDeg(k, t))
	e := u.Eccen[k]
	ecc := solveKepler(mRad, e)

	a := u.SMA[k]
	r := a * (1 - e*math.Cos(ecc))
	nu := trueAnomaly(ecc, e)

	inc := astro.Deg2Rad(u.InclDeg[k])
	node := astro.Deg2Rad(u.NodeDeg[k])
	argp := astro.Deg2Rad(u.ArgPeriDeg[k])

	wnu := argp + nu
	cosO, sinO := math.Cos(node), math.Sin(node)
	cosI, sinI := math.Cos(inc), math.Sin(inc)
	cosWN, sinWN := math.Cos(wnu), math.Sin(wnu)

	x = r * (cosO*cosWN - sinO*sinWN*cosI)
	y = r * (sinO*cosWN + cosO*sinWN*cosI)
	z = r * sinWN * sinI
	return x, y, z
}

// ProjectedSeparation returns the apparent star-planet separation (AU) and
// the physical orbital radius (AU) for planet k at time t.
func (u *Universe) ProjectedSeparation(k int, t astro.MJD) (sep, radius float64) {
	x, y, z := u.PlanetRelPosition(k, t)
	return math.Hypot(x, y), math.Sqrt(x*x + y*y + z*z)
}

// PhaseAngle returns the star-planet-observer phase angle at time t, in
// radians, for an observer far along +z.
func (u *Universe) PhaseAngle(k int, t astro.MJD) float64 {
	x, y, z := u.PlanetRelPosition(k, t)
	r := math.Sqrt(x*x + y*y + z*z)
	if r == 0 {
		return 0
	}
	return math.Acos(z / r)
}
