// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package planetpop

import (
	"fmt"
	"math/rand"
)

// Jupiter bulk properties relative to Earth, from the NSSDC planetary
// fact sheet.
const (
	jupiterSMAEarth    = 5.204
	jupiterRadiusEarth = 11.209
	jupiterMassEarth   = 317.83
	jupiterAlbedo      = 0.538
)

// JupiterTwin is a population of Jupiter analogs on eccentric orbits spanning
// (0.7 to 1.5 AU) * 5.204. The population is enforced regardless of other
// configuration; only the eccentricity range and orbit constraining are
// honored from the caller.
type JupiterTwin struct {
	ERange          [2]float64
	ConstrainOrbits bool

	aMin, aMax float64
}

// NewJupiterTwin builds the population. erange defaults to [0, 0.9] when
// both bounds are zero.
func NewJupiterTwin(erange [2]float64, constrainOrbits bool) (*JupiterTwin, error) {
	if erange == ([2]float64{}) {
		erange = [2]float64{0, 0.9}
	}
	if erange[0] < 0 || erange[1] >= 1 || erange[0] > erange[1] {
		return nil, fmt.Errorf("planetpop: invalid eccentricity range [%g, %g]", erange[0], erange[1])
	}
	return &JupiterTwin{
		ERange:          erange,
		ConstrainOrbits: constrainOrbits,
		aMin:            0.7 * jupiterSMAEarth,
		aMax:            1.5 * jupiterSMAEarth,
	}, nil
}

// Eta returns the planet occurrence probability, fixed at 1 for this
// population.
func (p *JupiterTwin) Eta() float64 { return 1 }

// GenPlanParams samples semi-major axis and eccentricity uniformly, with all
// other parameters held at the Jupiter values. When ConstrainOrbits is set
// the semi-major axis range is restricted so that periapsis and apoapsis
// stay inside the population bounds, and each eccentricity is capped
// accordingly.
func (p *JupiterTwin) GenPlanParams(rng *rand.Rand, n int) (*PlanParams, error) {
	if err := CheckCount(n); err != nil {
		return nil, err
	}
	out := &PlanParams{
		SMA:    make([]float64, n),
		Eccen:  make([]float64, n),
		Albedo: make([]float64, n),
		Radius: make([]float64, n),
	}

	if p.ConstrainOrbits {
		// Restrict the semi-major axis limits for the minimum eccentricity.
		lo := p.aMin / (1 - p.ERange[0])
		hi := p.aMax / (1 + p.ERange[0])
		mean := (p.aMin + p.aMax) / 2
		for i := 0; i < n; i++ {
			a := lo + (hi-lo)*rng.Float64()
			out.SMA[i] = a

			// Upper eccentricity limit for this semi-major axis.
			var elim float64
			if a <= mean {
				elim = 1 - p.aMin/a
			} else {
				elim = p.aMax/a - 1
			}
			if elim > p.ERange[1] {
				elim = p.ERange[1]
			}
			if elim < p.ERange[0] {
				elim = p.ERange[0]
			}
			out.Eccen[i] = p.ERange[0] + (elim-p.ERange[0])*rng.Float64()
		}
	} else {
		for i := 0; i < n; i++ {
			out.SMA[i] = p.aMin + (p.aMax-p.aMin)*rng.Float64()
			out.Eccen[i] = p.ERange[0] + (p.ERange[1]-p.ERange[0])*rng.Float64()
		}
	}

	for i := 0; i < n; i++ {
		out.Albedo[i] = jupiterAlbedo
		out.Radius[i] = jupiterRadiusEarth
	}
	return out, nil
}

// GenAngles samples orbital angles with the shared distributions.
func (p *JupiterTwin) GenAngles(rng *rand.Rand, n int) (*Angles, error) {
	return genAngles(rng, n)
}

// Mass returns the fixed planetary mass in Earth masses.
func (p *JupiterTwin) Mass() float64 { return jupiterMassEarth }
