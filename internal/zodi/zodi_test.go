// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package zodi

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ManuGH/exosurvey/internal/targetlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTL() *targetlist.TargetList {
	return &targetlist.TargetList{Stars: []targetlist.Star{
		{Name: "a", RADeg: 0, DecDeg: 0, DistPC: 5, MV: 4.78},
		{Name: "b", RADeg: 90, DecDeg: 60, DistPC: 8, MV: 7.0},
	}}
}

func TestFBeta(t *testing.T) {
	tests := []struct {
		beta float64
		want float64
	}{
		{beta: 0, want: 2.44},
		{beta: 90, want: 2.44 - 0.0403*90 + 0.000269*8100},
		{beta: 45, want: 2.44 - 0.0403*45 + 0.000269*2025},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, FBeta(tt.beta), 1e-12, "beta=%v", tt.beta)
	}
}

func TestNewLindler_Validation(t *testing.T) {
	_, err := NewLindler(0, 0)
	require.Error(t, err)
	_, err = NewLindler(1, -0.5)
	require.Error(t, err)
	_, err = NewLindler(1.0, 0)
	require.NoError(t, err)
}

func TestFzodi_Deterministic(t *testing.T) {
	l, err := NewLindler(1.0, 0)
	require.NoError(t, err)
	tl := testTL()

	// Star 0 sits on the ecliptic with MV exactly at the pivot magnitude, so
	// the exozodi term is 2*FBeta(I) and the local term is FBeta(0).
	got, err := l.Fzodi(rand.New(rand.NewSource(1)), []int{0}, []float64{0}, tl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	lat := tl.EclipticLatitudes()[0]
	assert.InDelta(t, FBeta(lat)+2*FBeta(0), got[0], 1e-9)
}

func TestFzodi_InclinationFolding(t *testing.T) {
	l, err := NewLindler(1.0, 0)
	require.NoError(t, err)
	tl := testTL()
	rng := rand.New(rand.NewSource(1))

	a, err := l.Fzodi(rng, []int{0}, []float64{30}, tl)
	require.NoError(t, err)
	b, err := l.Fzodi(rng, []int{0}, []float64{150}, tl)
	require.NoError(t, err)
	assert.InDelta(t, a[0], b[0], 1e-12, "I and 180-I are equivalent")
}

func TestFzodi_MagnitudeScaling(t *testing.T) {
	l, err := NewLindler(1.0, 0)
	require.NoError(t, err)
	tl := testTL()
	rng := rand.New(rand.NewSource(1))

	out, err := l.Fzodi(rng, []int{0, 1}, []float64{60, 60}, tl)
	require.NoError(t, err)
	// The fainter star (higher MV) has a weaker exozodi term.
	exo0 := out[0] - FBeta(tl.EclipticLatitudes()[0])
	exo1 := out[1] - FBeta(tl.EclipticLatitudes()[1])
	assert.Greater(t, exo0, exo1)
	ratio := math.Pow(2.5, 7.0-4.78)
	assert.InDelta(t, ratio, exo0/exo1, 1e-9)
}

func TestFzodi_LogNormalVariance(t *testing.T) {
	l, err := NewLindler(1.0, 0.25)
	require.NoError(t, err)
	tl := testTL()
	rng := rand.New(rand.NewSource(1234))

	const n = 20000
	inds := make([]int, n)
	incl := make([]float64, n)
	for i := 0; i < n; i++ {
		incl[i] = 45
	}
	out, err := l.Fzodi(rng, inds, incl, tl)
	require.NoError(t, err)

	// Recover the exozodi draw and check its sample mean against the
	// configured mean.
	factor := 2 * FBeta(45) * math.Pow(2.5, 4.78-tl.Stars[0].MV)
	var sum float64
	for _, v := range out {
		sum += (v - FBeta(tl.EclipticLatitudes()[0])) / factor
	}
	assert.InDelta(t, 1.0, sum/n, 0.02)
}

func TestFzodi_Errors(t *testing.T) {
	l, err := NewLindler(1.0, 0)
	require.NoError(t, err)
	tl := testTL()
	rng := rand.New(rand.NewSource(1))

	_, err = l.Fzodi(rng, []int{0, 1}, []float64{10}, tl)
	require.Error(t, err)
	_, err = l.Fzodi(rng, []int{5}, []float64{10}, tl)
	require.Error(t, err)
}
