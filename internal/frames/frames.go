// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package frames implements the reference frame rotations used by the
// observatory dynamics: axis rotations, ecliptic/equatorial conversion and
// the rotating/inertial velocity transforms of the circular restricted
// three body problem.
package frames

import (
	"math"

	"github.com/ManuGH/exosurvey/internal/astro"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis identifies a principal rotation axis.
type Axis int

const (
	X Axis = 1
	Y Axis = 2
	Z Axis = 3
)

// Rot returns the 3x3 direction cosine matrix for a right-handed rotation of
// the frame by angle th (radians) about the given axis.
func Rot(th float64, axis Axis) *mat.Dense {
	c, s := math.Cos(th), math.Sin(th)
	switch axis {
	case X:
		return mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, c, s,
			0, -s, c,
		})
	case Y:
		return mat.NewDense(3, 3, []float64{
			c, 0, -s,
			0, 1, 0,
			s, 0, c,
		})
	case Z:
		return mat.NewDense(3, 3, []float64{
			c, s, 0,
			-s, c, 0,
			0, 0, 1,
		})
	}
	panic("frames: invalid rotation axis")
}

// Apply rotates vector v by matrix m.
func Apply(m *mat.Dense, v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Eclip2Equat converts a heliocentric ecliptic vector into the heliocentric
// equatorial frame.
func Eclip2Equat(v r3.Vec) r3.Vec {
	return Apply(Rot(-astro.Deg2Rad(astro.ObliquityDeg), X), v)
}

// Equat2Eclip converts a heliocentric equatorial vector into the heliocentric
// ecliptic frame.
func Equat2Eclip(v r3.Vec) r3.Vec {
	return Apply(Rot(astro.Deg2Rad(astro.ObliquityDeg), X), v)
}

// Rot2InertV maps a CR3BP rotating-frame velocity to the inertial frame.
// rR is the rotating-frame position, vR the rotating-frame velocity and
// tNorm the normalized time (2*pi per sidereal year).
func Rot2InertV(rR, vR r3.Vec, tNorm float64) r3.Vec {
	at := Rot(tNorm, Z)
	var atT mat.Dense
	atT.CloneFrom(at.T())
	drR := r3.Vec{X: -rR.Y, Y: rR.X, Z: 0}
	return r3.Add(Apply(&atT, vR), Apply(&atT, drR))
}

// Inert2RotV maps an inertial-frame velocity to the CR3BP rotating frame.
func Inert2RotV(rR, vI r3.Vec, tNorm float64) r3.Vec {
	at := Rot(tNorm, Z)
	omega := r3.Vec{X: rR.Y, Y: -rR.X, Z: 0}
	return r3.Add(Apply(at, vI), omega)
}
