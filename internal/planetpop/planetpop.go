// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package planetpop generates synthetic planet populations. Each population
// defines the sampling distributions for orbital and photometric parameters;
// the simulated universe draws from them.
package planetpop

import (
	"fmt"
	"math"
	"math/rand"
)

// PlanParams holds sampled planet parameters, one entry per planet.
type PlanParams struct {
	SMA    []float64 // semi-major axis, AU
	Eccen  []float64 // eccentricity
	Albedo []float64 // geometric albedo
	Radius []float64 // planetary radius, Earth radii
}

// Angles holds sampled orbital angles in degrees.
type Angles struct {
	Inclination []float64 // [0, 180), sinusoidally distributed
	Node        []float64 // longitude of ascending node, [0, 360)
	ArgPeri     []float64 // argument of periapsis, [0, 360)
}

// Population is a planet population model.
type Population interface {
	// GenPlanParams samples n sets of planet parameters.
	GenPlanParams(rng *rand.Rand, n int) (*PlanParams, error)
	// GenAngles samples n sets of orbital angles.
	GenAngles(rng *rand.Rand, n int) (*Angles, error)
	// Eta is the planet occurrence probability per system.
	Eta() float64
}

// CheckCount validates a sample size request.
func CheckCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("planetpop: sample count must be a positive integer, got %d", n)
	}
	return nil
}

// genAngles is the sampling shared by all populations: sinusoidal
// inclination, uniform node and argument of periapsis.
func genAngles(rng *rand.Rand, n int) (*Angles, error) {
	if err := CheckCount(n); err != nil {
		return nil, err
	}
	a := &Angles{
		Inclination: make([]float64, n),
		Node:        make([]float64, n),
		ArgPeri:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		a.Inclination[i] = math.Acos(1-2*rng.Float64()) * 180 / math.Pi
		a.Node[i] = 360 * rng.Float64()
		a.ArgPeri[i] = 360 * rng.Float64()
	}
	return a, nil
}
