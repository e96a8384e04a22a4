// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ensemble

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/observatory"
	"github.com/ManuGH/exosurvey/internal/planetpop"
	"github.com/ManuGH/exosurvey/internal/results"
	"github.com/ManuGH/exosurvey/internal/sim"
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

func testParams(t *testing.T) Params {
	t.Helper()

	tl := &targetlist.TargetList{Stars: []targetlist.Star{
		{Name: "HD 1461", RADeg: 4.4, DecDeg: -8.0, DistPC: 10, MV: 5.5},
		{Name: "55 Cnc", RADeg: 133.1, DecDeg: 28.3, DistPC: 12.6, MV: 6.0},
	}}
	zero := 0.0
	giant := 11.2
	cat := &universe.Catalog{Planets: []universe.CatalogPlanet{
		{
			Hostname: "HD 1461", SMA: 2, SMAErr: 0.2, Eccen: 0.05, EccenErr: 0.02,
			InclDeg: &zero, LongPeriDeg: &zero,
			PeriodDays: 1033, PeriodErrDays: 5, TPerJD: 2451234.5, TPerErrDays: 2,
			MassEarth: 317.8, RadiusEarth: &giant,
		},
		{
			Hostname: "55 Cnc", SMA: 3, SMAErr: 0.3, Eccen: 0.1, EccenErr: 0.05,
			InclDeg: &zero, LongPeriDeg: &zero,
			PeriodDays: 1900, PeriodErrDays: 10, TPerJD: 2451234.5, TPerErrDays: 2,
			MassEarth: 250, RadiusEarth: &giant,
		},
	}}

	pop, err := planetpop.NewJupiterTwin([2]float64{0, 0.9}, true)
	require.NoError(t, err)
	zl, err := zodi.NewLindler(1, 0)
	require.NoError(t, err)

	return Params{
		Obs:             testObservatory(t),
		TL:              tl,
		Cat:             cat,
		Pop:             pop,
		Zodi:            zl,
		Mode:            sim.DefaultMode(),
		MissionStart:    missionStart,
		MissionLifeDays: 5,
	}
}

func testConfig(t *testing.T, runs int) Config {
	cfg := DefaultConfig()
	cfg.Runs = runs
	cfg.Workers = 2
	cfg.OutDir = t.TempDir()
	return cfg
}

func TestEnsembleRunsAll(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig(t, 6)
	e, err := New(cfg, testParams(t))
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.Requested)
	assert.Equal(t, 6, report.Completed)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Aborted)
	require.Len(t, report.Paths, 6)

	seeds := map[int64]bool{}
	ids := map[string]bool{}
	for _, p := range report.Paths {
		run, err := results.Read(p)
		require.NoError(t, err)
		assert.Equal(t, missionStart.Days(), run.MissionStartMJD)
		assert.NotEmpty(t, run.DRM)
		assert.Positive(t, run.RunTimeSeconds)
		seeds[run.Seed] = true
		ids[run.RunID] = true
	}
	assert.Len(t, seeds, 6, "every run gets its own seed")
	assert.Len(t, ids, 6, "every run gets its own ID")

	prog := e.Progress()
	assert.EqualValues(t, 6, prog.Completed)
	assert.Zero(t, prog.Running)
}

func TestEnsembleSharedUniverse(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.GenNewPlanets = false
	e, err := New(cfg, testParams(t))
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Paths, 3)

	first, err := results.Read(report.Paths[0])
	require.NoError(t, err)
	for _, p := range report.Paths[1:] {
		run, err := results.Read(p)
		require.NoError(t, err)
		assert.Equal(t, first.Systems, run.Systems, "all runs observe the same universe")
	}
}

func TestEnsembleGenNewPlanets(t *testing.T) {
	cfg := testConfig(t, 3)
	e, err := New(cfg, testParams(t))
	require.NoError(t, err)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Paths, 3)

	first, err := results.Read(report.Paths[0])
	require.NoError(t, err)
	differs := false
	for _, p := range report.Paths[1:] {
		run, err := results.Read(p)
		require.NoError(t, err)
		if !assert.ObjectsAreEqual(first.Systems.SMA, run.Systems.SMA) {
			differs = true
		}
	}
	assert.True(t, differs, "re-sampled universes must differ")
}

func TestEnsembleCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e, err := New(testConfig(t, 4), testParams(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Completed)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero runs", func(c *Config) { c.Runs = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"no output dir", func(c *Config) { c.OutDir = "" }},
		{"straggler factor below one", func(c *Config) { c.StragglerFactor = 0.5 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.OutDir = "out"
			tc.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}

	cfg := DefaultConfig()
	cfg.OutDir = "out"
	assert.NoError(t, cfg.validate())

	// A non-positive factor disables the monitor and is valid.
	cfg.StragglerFactor = 0
	assert.NoError(t, cfg.validate())
}

func TestNewRejectsIncompleteParams(t *testing.T) {
	p := testParams(t)
	p.Zodi = nil
	_, err := New(testConfig(t, 1), p)
	assert.ErrorContains(t, err, "incomplete")
}

func TestSweepStragglers(t *testing.T) {
	e, err := New(testConfig(t, 1), testParams(t))
	require.NoError(t, err)

	// Two completed runs averaging 10ms; the limit is 30ms.
	e.doneDur = 20 * time.Millisecond
	e.doneCount = 2

	slowCancelled := false
	fastCancelled := false
	e.active[0] = &activeRun{start: time.Now().Add(-time.Second), cancel: func() { slowCancelled = true }}
	e.active[1] = &activeRun{start: time.Now(), cancel: func() { fastCancelled = true }}

	e.sweepStragglers()
	assert.True(t, slowCancelled, "run past the limit is aborted")
	assert.False(t, fastCancelled, "run within the limit keeps going")
}

func TestSweepStragglersHeldWhileQueueFull(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.StragglerMin = 1
	e, err := New(cfg, testParams(t))
	require.NoError(t, err)

	e.doneDur = 10 * time.Millisecond
	e.doneCount = 1

	cancelled := false
	e.active[0] = &activeRun{start: time.Now().Add(-time.Minute), cancel: func() { cancelled = true }}

	e.sweepStragglers()
	assert.False(t, cancelled, "monitor stays idle until the queue drains")
}
