// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package observatory

import (
	"math"

	"github.com/ManuGH/exosurvey/internal/astro"
	"gonum.org/v1/gonum/mat"
)

// State is a CR3BP state vector: position then velocity, in normalized
// units (distances in AU, time such that 2*pi equals one sidereal year).
type State [6]float64

// Starshade optical parameters for a non-perfectly reflecting surface,
// pitched 60 degrees to the Sun so half the cross section faces it.
const (
	starshadeRadiusM = 36.0
	srpPressureSI    = 4.473e-6 // N/m^2 at L2

	nonLambertFront = 0.038
	nonLambertBack  = 0.004
	specularFactor  = 0.975
	reflectCoeff    = 0.999
	emitFront       = 0.8
	emitBack        = 0.2
)

// srpAccel returns the normalized solar radiation pressure force components
// along the sun-line radial and tangential unit vectors.
func (o *Observatory) srpAccel() (radial, tangential float64) {
	tu := (2 * math.Pi) / (astro.JulianYearDays * astro.SecondsPerDay)
	du := astro.AUMeters
	mu := astro.EarthMoonMassKg / o.mu

	p := srpPressureSI * du / (tu * tu) / mu
	area := math.Pi * starshadeRadiusM * starshadeRadiusM

	b1 := 0.5 * (1 - specularFactor*reflectCoeff)
	b2 := specularFactor * reflectCoeff
	b3 := 0.5 * (nonLambertFront*(1-specularFactor)*reflectCoeff +
		(1-reflectCoeff)*(emitFront*nonLambertFront-emitBack*nonLambertBack)/(emitFront+emitBack))

	radial = 0.25 * p * area * (b1 + 0.25*b2 + 0.5*b3)
	tangential = (math.Sqrt(3) * 0.25) * p * area * (b2 + 2*b3)
	return radial, tangential
}

// EquationsOfMotion evaluates the CR3BP state derivative at normalized time
// t, including the starshade SRP force when enabled. The rotating frame is
// centered at the Sun/Earth-Moon barycenter.
func (o *Observatory) EquationsOfMotion(t float64, s State) State {
	mu, m1, m2 := o.mu, o.m1, o.m2
	x, y, z := s[0], s[1], s[2]
	dx, dy, dz := s[3], s[4], s[5]

	var fx, fy, fz float64
	if o.cfg.SRP {
		// Radial unit vector along the sun-line and its in-plane tangential.
		rx, ry, rz := x+m2, y, z
		rn := math.Sqrt(rx*rx + ry*ry + rz*rz)
		u1x, u1y, u1z := rx/rn, ry/rn, rz/rn
		tn := math.Hypot(u1y, u1x)
		u2x, u2y := u1y/tn, -u1x/tn

		fr, ft := o.srpAccel()
		fx = fr*u1x + ft*u2x
		fy = fr*u1y + ft*u2y
		fz = fr * u1z
	}

	r1 := math.Sqrt((x+mu)*(x+mu) + y*y + z*z)
	r2 := math.Sqrt((1-mu-x)*(1-mu-x) + y*y + z*z)
	r13 := r1 * r1 * r1
	r23 := r2 * r2 * r2

	ax := x + 2*dy + m1*(-mu-x)/r13 + m2*(1-mu-x)/r23
	ay := y - 2*dx - m1*y/r13 - m2*y/r23
	az := -m1*z/r13 - m2*z/r23

	return State{dx, dy, dz, ax + fx, ay + fy, az + fz}
}

// Jacobian returns the 6x6 Jacobian of the CR3BP state derivative with
// respect to the state, evaluated at s (SRP excluded).
func (o *Observatory) Jacobian(t float64, s State) *mat.Dense {
	mu, m1, m2 := o.mu, o.m1, o.m2
	x, y, z := s[0], s[1], s[2]

	d1x := x + mu     // offset from primary
	d2x := x - 1 + mu // offset from secondary
	r1sq := d1x*d1x + y*y + z*z
	r2sq := d2x*d2x + y*y + z*z
	r13 := math.Pow(r1sq, 1.5)
	r23 := math.Pow(r2sq, 1.5)
	r15 := math.Pow(r1sq, 2.5)
	r25 := math.Pow(r2sq, 2.5)

	uxx := 1 - m1/r13 - m2/r23 + 3*m1*d1x*d1x/r15 + 3*m2*d2x*d2x/r25
	uxy := 3*m1*d1x*y/r15 + 3*m2*d2x*y/r25
	uxz := 3*m1*d1x*z/r15 + 3*m2*d2x*z/r25
	uyy := 1 - m1/r13 - m2/r23 + 3*m1*y*y/r15 + 3*m2*y*y/r25
	uyz := 3*m1*y*z/r15 + 3*m2*y*z/r25
	uzz := -m1/r13 - m2/r23 + 3*m1*z*z/r15 + 3*m2*z*z/r25

	j := mat.NewDense(6, 6, nil)
	// Velocity rows: identity block.
	for i := 0; i < 3; i++ {
		j.Set(i, i+3, 1)
	}
	// Acceleration rows: potential curvature plus Coriolis coupling.
	j.Set(3, 0, uxx)
	j.Set(3, 1, uxy)
	j.Set(3, 2, uxz)
	j.Set(4, 0, uxy)
	j.Set(4, 1, uyy)
	j.Set(4, 2, uyz)
	j.Set(5, 0, uxz)
	j.Set(5, 1, uyz)
	j.Set(5, 2, uzz)
	j.Set(3, 4, 2)
	j.Set(4, 3, -2)
	return j
}
