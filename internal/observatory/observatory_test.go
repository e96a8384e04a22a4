// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package observatory

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	testMu = 3.0359e-6
	testXL = 1.0100
)

// syntheticRaw builds a planar-ellipse stand-in for the six month halo, in
// the on-disk units: normalized times, AU positions with Earth at 1 AU.
func syntheticRaw(n int) *rawEphemeris {
	te := math.Pi // half a sidereal year in normalized time
	raw := &rawEphemeris{
		Mu: testMu,
		Te: te,
		XL: testXL,
	}
	ax, ay, az := 0.002, 0.006, 0.001
	for i := 0; i < n; i++ {
		tn := te * float64(i) / float64(n-1)
		th := 2 * math.Pi * tn / te
		raw.T = append(raw.T, tn)
		raw.States = append(raw.States, [6]float64{
			testXL + ax*math.Cos(th),
			ay * math.Sin(th),
			az * math.Sin(th),
			-ax * math.Sin(th) * (2 * math.Pi / te),
			ay * math.Cos(th) * (2 * math.Pi / te),
			az * math.Cos(th) * (2 * math.Pi / te),
		})
	}
	return raw
}

func writeEphemerisFile(t *testing.T, raw *rawEphemeris) string {
	t.Helper()
	buf, err := json.Marshal(raw)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "halo.json")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func testObservatory(t *testing.T, srp bool) *Observatory {
	t.Helper()
	eph, err := normalize(syntheticRaw(721))
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.SRP = srp
	obs, err := New(cfg, eph)
	require.NoError(t, err)
	return obs
}

func TestLoadEphemeris(t *testing.T) {
	path := writeEphemerisFile(t, syntheticRaw(101))
	eph, err := LoadEphemeris(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, eph.PeriodYears, 1e-12, "pi normalized = half a year")
	assert.Equal(t, testXL, eph.L2DistAU)
	assert.Len(t, eph.TimesYears, 101)

	// Earth offset removed from the heliocentric series, L2 offset from the
	// rotating-frame series.
	assert.InDelta(t, testXL-1.0+0.002, eph.PosEarthRel[0][0], 1e-12)
	assert.InDelta(t, 0.002, eph.PosL2Rel[0][0], 1e-12)
}

func TestLoadEphemeris_Missing(t *testing.T) {
	_, err := LoadEphemeris(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, ErrEphemerisNotFound)
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*rawEphemeris)
	}{
		{name: "empty grid", mutate: func(r *rawEphemeris) { r.T = nil; r.States = nil }},
		{name: "length mismatch", mutate: func(r *rawEphemeris) { r.T = r.T[:len(r.T)-1] }},
		{name: "bad mu", mutate: func(r *rawEphemeris) { r.Mu = 0 }},
		{name: "bad period", mutate: func(r *rawEphemeris) { r.Te = -1 }},
		{name: "non-monotonic grid", mutate: func(r *rawEphemeris) { r.T[3] = r.T[2] }},
		{name: "nan state", mutate: func(r *rawEphemeris) { r.States[5][1] = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := syntheticRaw(51)
			tt.mutate(raw)
			_, err := normalize(raw)
			require.ErrorIs(t, err, ErrEphemerisInvalid)
		})
	}
}

func TestHaloPosition_PeriodicAndBounded(t *testing.T) {
	obs := testObservatory(t, false)
	t0 := astro.MJD(60575.25)

	for d := 0.0; d < 900; d += 37.0 {
		p := obs.HaloPosition(t0.AddDays(d))
		assert.Less(t, r3.Norm(p), 0.01, "halo excursion stays near L2 at day %v", d)
	}

	// One halo period later the position repeats.
	p0 := obs.HaloPosition(t0.AddDays(40))
	p1 := obs.HaloPosition(t0.AddDays(40 + 0.5*astro.JulianYearDays))
	assert.InDelta(t, p0.X, p1.X, 1e-9)
	assert.InDelta(t, p0.Y, p1.Y, 1e-9)
	assert.InDelta(t, p0.Z, p1.Z, 1e-9)
}

func TestOrbit_FiniteAndNearOneAU(t *testing.T) {
	obs := testObservatory(t, false)
	t0 := astro.MJD(60634)

	for d := 0.0; d < 730; d += 55.0 {
		rEcl, err := obs.Orbit(t0.AddDays(d), true)
		require.NoError(t, err)
		rEq, err := obs.Orbit(t0.AddDays(d), false)
		require.NoError(t, err)

		// L2 sits ~0.01 AU beyond the Earth.
		n := r3.Norm(rEcl)
		assert.Greater(t, n, 0.97, "day %v", d)
		assert.Less(t, n, 1.05, "day %v", d)

		// Frame conversion preserves length.
		assert.InDelta(t, n, r3.Norm(rEq), 1e-12, "day %v", d)
	}
}

func TestHaloVelocity_Bounded(t *testing.T) {
	obs := testObservatory(t, false)
	v := obs.HaloVelocity(astro.MJD(60600))
	// Synthetic ellipse velocity scale: amplitude * 2*pi / period(yr) * 2*pi.
	assert.Less(t, r3.Norm(v), 1.0)
	assert.Greater(t, r3.Norm(v), 0.0)
}

func TestEquationsOfMotion_CollinearSymmetry(t *testing.T) {
	obs := testObservatory(t, false)
	// On the x axis with zero velocity, the acceleration is purely axial.
	ds := obs.EquationsOfMotion(0, State{1.01, 0, 0, 0, 0, 0})
	assert.Equal(t, 0.0, ds[4])
	assert.Equal(t, 0.0, ds[5])
	assert.NotZero(t, ds[3])
}

func TestEquationsOfMotion_SRPAddsForce(t *testing.T) {
	withSRP := testObservatory(t, true)
	noSRP := testObservatory(t, false)

	s := State{1.008, 0.002, 0.0005, 0.01, -0.02, 0.001}
	a := withSRP.EquationsOfMotion(0, s)
	b := noSRP.EquationsOfMotion(0, s)

	assert.NotEqual(t, a[3], b[3], "SRP must perturb the in-plane acceleration")
	// SRP pushes outward along the sun-line.
	assert.Greater(t, a[3], b[3])
}

// jacobiConstant for the unperturbed CR3BP.
func jacobiConstant(mu float64, s State) float64 {
	x, y, z := s[0], s[1], s[2]
	r1 := math.Sqrt((x+mu)*(x+mu) + y*y + z*z)
	r2 := math.Sqrt((x-1+mu)*(x-1+mu) + y*y + z*z)
	v2 := s[3]*s[3] + s[4]*s[4] + s[5]*s[5]
	return x*x + y*y + 2*(1-mu)/r1 + 2*mu/r2 - v2
}

func TestIntegrate_ConservesJacobiConstant(t *testing.T) {
	obs := testObservatory(t, false)

	// A distant retrograde style initial condition near the secondary.
	s0 := State{1.0 - testMu - 0.002, 0, 0, 0, 0.08, 0}
	ts := make([]float64, 41)
	for i := range ts {
		ts[i] = float64(i) * 0.01
	}
	states, err := obs.Integrate(s0, ts)
	require.NoError(t, err)
	require.Len(t, states, len(ts))

	c0 := jacobiConstant(testMu, states[0])
	for i, s := range states {
		assert.InDelta(t, c0, jacobiConstant(testMu, s), 1e-8, "sample %d", i)
	}
}

func TestIntegrate_TimeOrdering(t *testing.T) {
	obs := testObservatory(t, false)
	_, err := obs.Integrate(State{1, 0, 0, 0, 0, 0}, []float64{0, 0.1, 0.1})
	require.Error(t, err)
}

func TestJacobian_MatchesFiniteDifferences(t *testing.T) {
	obs := testObservatory(t, false)
	s := State{1.005, 0.003, -0.001, 0.02, -0.01, 0.005}
	jac := obs.Jacobian(0, s)

	const h = 1e-7
	for col := 0; col < 6; col++ {
		plus, minus := s, s
		plus[col] += h
		minus[col] -= h
		dPlus := obs.EquationsOfMotion(0, plus)
		dMinus := obs.EquationsOfMotion(0, minus)
		for row := 0; row < 6; row++ {
			fd := (dPlus[row] - dMinus[row]) / (2 * h)
			assert.InDelta(t, fd, jac.At(row, col), 1e-4,
				"jacobian entry (%d,%d)", row, col)
		}
	}
}

type fixedStars map[int]r3.Vec

func (f fixedStars) StarPosition(ind int, _ astro.MJD) (r3.Vec, error) {
	return f[ind], nil
}

func TestLookVectors(t *testing.T) {
	obs := testObservatory(t, false)
	t0 := astro.MJD(60634)

	const pcAU = 206264.80624548031
	stars := fixedStars{
		0: r3.Vec{X: 10 * pcAU},
		1: r3.Vec{Y: 10 * pcAU},
	}

	// Same star, same epoch: zero slew.
	angle, u1, u2, rTscp, err := obs.LookVectors(stars, 0, 0, t0, t0)
	require.NoError(t, err)
	assert.InDelta(t, 0, angle, 1e-9)
	assert.InDelta(t, 1.0, r3.Norm(u1), 1e-12)
	assert.InDelta(t, 1.0, r3.Norm(u2), 1e-12)
	assert.InDelta(t, rTscp[0].X, rTscp[1].X, 1e-12)

	// Orthogonal directions at the same epoch: ~90 degrees from ~1 AU away.
	angle, _, _, _, err = obs.LookVectors(stars, 0, 1, t0, t0)
	require.NoError(t, err)
	assert.InDelta(t, 90, angle, 0.1)
}

func TestEphemerisCache_RoundTrip(t *testing.T) {
	path := writeEphemerisFile(t, syntheticRaw(101))

	cache, err := OpenEphemerisCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	defer func() { require.NoError(t, cache.Close()) }()

	first, err := cache.Load(path)
	require.NoError(t, err)
	second, err := cache.Load(path)
	require.NoError(t, err)

	assert.Equal(t, first.Mu, second.Mu)
	assert.Equal(t, first.PeriodYears, second.PeriodYears)
	assert.Equal(t, first.TimesYears, second.TimesYears)
	assert.Equal(t, first.PosL2Rel, second.PosL2Rel)
}
