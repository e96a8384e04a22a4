// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sim

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/observatory"
	"github.com/ManuGH/exosurvey/internal/planetpop"
	"github.com/ManuGH/exosurvey/internal/results"
	"github.com/ManuGH/exosurvey/internal/targetlist"
	"github.com/ManuGH/exosurvey/internal/universe"
	"github.com/ManuGH/exosurvey/internal/zodi"
)

const missionStart astro.MJD = 60634.0

func testObservatory(t *testing.T) *observatory.Observatory {
	t.Helper()

	const (
		n  = 64
		mu = 3.0359e-6
		te = 2 * math.Pi
		xl = 1.0100
	)
	ts := make([]float64, n)
	states := make([][6]float64, n)
	for i := 0; i < n; i++ {
		th := te * float64(i) / float64(n-1)
		ts[i] = th
		states[i] = [6]float64{
			xl + 0.002*math.Cos(th),
			0.006 * math.Sin(th),
			0.001 * math.Sin(th),
			-0.002 * math.Sin(th),
			0.006 * math.Cos(th),
			0.001 * math.Cos(th),
		}
	}
	buf, err := json.Marshal(map[string]any{
		"mu": mu, "te": te, "x_lpoint": xl, "t": ts, "state": states,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "halo.json")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	eph, err := observatory.LoadEphemeris(path)
	require.NoError(t, err)
	obs, err := observatory.New(observatory.DefaultConfig(), eph)
	require.NoError(t, err)
	return obs
}

func testTargetList() *targetlist.TargetList {
	return &targetlist.TargetList{Stars: []targetlist.Star{
		{Name: "HD 1461", RADeg: 4.4, DecDeg: -8.0, DistPC: 10, MV: 5.5},
		{Name: "55 Cnc", RADeg: 133.1, DecDeg: 28.3, DistPC: 10, MV: 9.0},
		{Name: "tau Cet", RADeg: 26.0, DecDeg: -15.9, DistPC: 3.65, MV: 3.5},
	}}
}

// Planets with zero uncertainties and face-on circular orbits so the
// projected separation equals the semi-major axis at every epoch.
func testCatalog() *universe.Catalog {
	zero := 0.0
	giant := 11.2
	small := 1.0
	return &universe.Catalog{Planets: []universe.CatalogPlanet{
		// Bright star, giant planet at 0.2 arcsec: always detectable.
		{
			Hostname: "HD 1461", SMA: 2, Eccen: 0, InclDeg: &zero, LongPeriDeg: &zero,
			PeriodDays: 1033, TPerJD: 2451234.5, MassEarth: 317.8, RadiusEarth: &giant,
		},
		// Faint star, Earth-size planet at the same separation: in band
		// but below the SNR floor.
		{
			Hostname: "55 Cnc", SMA: 2, Eccen: 0, InclDeg: &zero, LongPeriDeg: &zero,
			PeriodDays: 1033, TPerJD: 2451234.5, MassEarth: 1, RadiusEarth: &small,
		},
		// Inner planet inside the inner working angle.
		{
			Hostname: "55 Cnc", SMA: 0.1, Eccen: 0, InclDeg: &zero, LongPeriDeg: &zero,
			PeriodDays: 11.5, TPerJD: 2451234.5, MassEarth: 5,
		},
	}}
}

func testSim(t *testing.T, lifeDays float64) *Simulation {
	t.Helper()
	rng := rand.New(rand.NewSource(7))

	pop, err := planetpop.NewJupiterTwin([2]float64{0, 0.9}, true)
	require.NoError(t, err)
	u, err := universe.NewKnownRV(rng, testCatalog(), testTargetList(), pop, missionStart)
	require.NoError(t, err)
	zl, err := zodi.NewLindler(1, 0)
	require.NoError(t, err)

	s, err := New(rng, testObservatory(t), testTargetList(), u, zl, DefaultMode(), lifeDays)
	require.NoError(t, err)
	return s
}

func TestRunWalksTargets(t *testing.T) {
	s := testSim(t, 10)

	run, err := s.Run(context.Background())
	require.NoError(t, err)

	// Visit cost is 1.5 days, so a 10 day mission fits 7 observations.
	require.Len(t, run.DRM, 7)
	assert.Equal(t, missionStart.Days(), run.MissionStartMJD)

	for i, rec := range run.DRM {
		assert.Contains(t, []int{0, 1}, rec.StarInd, "only planet hosts are visited")
		assert.Equal(t, missionStart.Days()+1.5*float64(i), rec.ArrivalMJD)
		assert.Equal(t, 1.0, rec.DetTimeDays)
		assert.Positive(t, rec.DetFZ)
		require.Equal(t, len(rec.PlanInds), len(rec.DetStatus))
		require.Equal(t, len(rec.PlanInds), len(rec.DetSNR))
		require.Equal(t, len(rec.PlanInds), len(rec.DetParams.WAArcsec))
	}

	// The host stars alternate, so every slew after the first is nonzero.
	assert.Zero(t, run.DRM[0].SlewDeg)
	for _, rec := range run.DRM[1:] {
		assert.Greater(t, rec.SlewDeg, 0.0)
		assert.Less(t, rec.SlewDeg, 180.0)
	}
}

func TestRunDetectionOutcomes(t *testing.T) {
	s := testSim(t, 10)

	run, err := s.Run(context.Background())
	require.NoError(t, err)

	for _, rec := range run.DRM {
		switch rec.StarInd {
		case 0:
			// Giant around the bright star at 0.2 arcsec.
			require.Len(t, rec.DetStatus, 1)
			assert.Equal(t, results.StatusDetected, rec.DetStatus[0])
			assert.GreaterOrEqual(t, rec.DetSNR[0], s.mode.SNRTarget)
			assert.InDelta(t, 0.2, rec.DetParams.WAArcsec[0], 1e-9)
		case 1:
			require.Len(t, rec.DetStatus, 2)
			assert.Equal(t, results.StatusMissed, rec.DetStatus[0])
			assert.Less(t, rec.DetSNR[0], s.mode.SNRTarget)
			assert.Equal(t, results.StatusBelowIWA, rec.DetStatus[1])
			assert.Zero(t, rec.DetSNR[1])
		}
	}
}

func TestRunSystemsSnapshot(t *testing.T) {
	s := testSim(t, 10)

	run, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Systems.SMA, 3)
	assert.Equal(t, []int{0, 1, 1}, run.Systems.PlanToStar)
	assert.Equal(t, []string{"HD 1461", "55 Cnc", "55 Cnc"}, run.Systems.Star)

	// The snapshot must not alias the universe.
	run.Systems.SMA[0] = -1
	assert.Equal(t, 2.0, s.u.SMA[0])
}

func TestRunContextCancel(t *testing.T) {
	s := testSim(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMissionTooShort(t *testing.T) {
	s := testSim(t, 0.5)

	_, err := s.Run(context.Background())
	assert.ErrorContains(t, err, "fits no observation")
}

func TestModeValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Mode)
	}{
		{"empty working angle range", func(m *Mode) { m.OWAArcsec = m.IWAArcsec }},
		{"negative iwa", func(m *Mode) { m.IWAArcsec = -1 }},
		{"zero snr target", func(m *Mode) { m.SNRTarget = 0 }},
		{"zero integration time", func(m *Mode) { m.IntTimeDays = 0 }},
		{"negative overhead", func(m *Mode) { m.OverheadDays = -0.1 }},
		{"zero count rate", func(m *Mode) { m.CountRateZero = 0 }},
		{"zero sky aperture", func(m *Mode) { m.SkyAreaArcsec2 = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := DefaultMode()
			tc.mutate(&m)
			assert.Error(t, m.validate())
		})
	}

	assert.NoError(t, DefaultMode().validate())
}

func TestLambertPhase(t *testing.T) {
	assert.InDelta(t, 1, lambertPhase(0), 1e-12)
	assert.InDelta(t, 1/math.Pi, lambertPhase(math.Pi/2), 1e-12)
	assert.InDelta(t, 0, lambertPhase(math.Pi), 1e-12)
}

func TestDeltaMag(t *testing.T) {
	rp := 11.2 * earthRadiusAU

	near := deltaMag(0.367, rp, 1, math.Pi/2)
	far := deltaMag(0.367, rp, 5, math.Pi/2)
	assert.Greater(t, far, near, "more distant orbit is fainter")

	// Doubling the orbital radius costs 5 log10(2) magnitudes.
	assert.InDelta(t, 5*math.Log10(2), deltaMag(0.367, rp, 2, 1)-deltaMag(0.367, rp, 1, 1), 1e-10)
}
