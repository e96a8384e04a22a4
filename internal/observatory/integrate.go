// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package observatory

import (
	"errors"
	"fmt"
	"math"
)

// Integration tolerances for CR3BP propagation.
const (
	integrateRTol    = 1e-12
	integrateATol    = 1e-14
	integrateMaxStep = 1e6
)

// ErrIntegrationStalled reports a step size underflow during propagation.
var ErrIntegrationStalled = errors.New("observatory: integration step size underflow")

// Integrate propagates the CR3BP state s0 through the normalized times ts,
// returning the state at each sample. ts must be strictly increasing; the
// first returned state is s0 itself.
func (o *Observatory) Integrate(s0 State, ts []float64) ([]State, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	out := make([]State, len(ts))
	out[0] = s0

	s := s0
	t := ts[0]
	h := initialStep(ts)

	for i := 1; i < len(ts); i++ {
		target := ts[i]
		if target <= t {
			return nil, fmt.Errorf("observatory: times not strictly increasing at index %d", i)
		}
		for t < target {
			if h > target-t {
				h = target - t
			}
			next, errEst := o.stepCK(t, s, h)
			tol := integrateATol + integrateRTol*maxAbs(s, next)
			if errEst <= tol {
				t += h
				s = next
			}
			// Standard step size controller with safety factor.
			if errEst > 0 {
				h *= 0.9 * math.Pow(tol/errEst, 0.2)
			} else {
				h *= 5
			}
			if h > integrateMaxStep {
				h = integrateMaxStep
			}
			if h < 1e-16 {
				return nil, fmt.Errorf("%w at t=%g", ErrIntegrationStalled, t)
			}
		}
		out[i] = s
	}
	return out, nil
}

func initialStep(ts []float64) float64 {
	span := ts[len(ts)-1] - ts[0]
	if span <= 0 {
		return 1e-6
	}
	return span / 1000
}

// stepCK takes one Cash-Karp 5(4) step of size h from (t, s) and returns the
// fifth-order solution together with the embedded error estimate.
func (o *Observatory) stepCK(t float64, s State, h float64) (State, float64) {
	var (
		a2 = [...]float64{1.0 / 5}
		a3 = [...]float64{3.0 / 40, 9.0 / 40}
		a4 = [...]float64{3.0 / 10, -9.0 / 10, 6.0 / 5}
		a5 = [...]float64{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27}
		a6 = [...]float64{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096}

		c  = [...]float64{0, 1.0 / 5, 3.0 / 10, 3.0 / 5, 1, 7.0 / 8}
		b5 = [...]float64{37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771}
		b4 = [...]float64{2825.0 / 27648, 0, 18575.0 / 48384, 13525.0 / 55296, 277.0 / 14336, 1.0 / 4}
	)

	k1 := o.EquationsOfMotion(t, s)
	k2 := o.EquationsOfMotion(t+c[1]*h, combine(s, h, a2[:], k1))
	k3 := o.EquationsOfMotion(t+c[2]*h, combine(s, h, a3[:], k1, k2))
	k4 := o.EquationsOfMotion(t+c[3]*h, combine(s, h, a4[:], k1, k2, k3))
	k5 := o.EquationsOfMotion(t+c[4]*h, combine(s, h, a5[:], k1, k2, k3, k4))
	k6 := o.EquationsOfMotion(t+c[5]*h, combine(s, h, a6[:], k1, k2, k3, k4, k5))

	var hi, lo State
	var errNorm float64
	ks := [6]State{k1, k2, k3, k4, k5, k6}
	for i := 0; i < 6; i++ {
		hi[i] = s[i]
		lo[i] = s[i]
		for j, k := range ks {
			hi[i] += h * b5[j] * k[i]
			lo[i] += h * b4[j] * k[i]
		}
		d := hi[i] - lo[i]
		errNorm += d * d
	}
	return hi, math.Sqrt(errNorm)
}

func combine(s State, h float64, coeffs []float64, ks ...State) State {
	out := s
	for j, coeff := range coeffs {
		for i := 0; i < 6; i++ {
			out[i] += h * coeff * ks[j][i]
		}
	}
	return out
}

func maxAbs(a, b State) float64 {
	m := 0.0
	for i := 0; i < 6; i++ {
		m = math.Max(m, math.Max(math.Abs(a[i]), math.Abs(b[i])))
	}
	return m
}
