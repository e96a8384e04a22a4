// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ensemble executes many survey simulations in parallel and persists
// each run to disk. A straggler monitor aborts runs that take far longer than
// the ensemble average once the queue has nearly drained.
package ensemble

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/metrics"
	"github.com/ManuGH/exosurvey/internal/observatory"
	"github.com/ManuGH/exosurvey/internal/planetpop"
	"github.com/ManuGH/exosurvey/internal/results"
	"github.com/ManuGH/exosurvey/internal/sim"
	"github.com/ManuGH/exosurvey/internal/targetlist"
	"github.com/ManuGH/exosurvey/internal/universe"
	"github.com/ManuGH/exosurvey/internal/zodi"
)

// Config controls ensemble execution.
type Config struct {
	// Runs is the number of survey simulations to execute.
	Runs int
	// Workers bounds the number of concurrent runs.
	Workers int
	// Seed is the base random seed; run i derives its own seed from it.
	Seed int64
	// OutDir receives one JSON file per completed run.
	OutDir string

	// GenNewPlanets re-samples the universe for every run. When false all
	// runs share one universe sampled from the base seed; each run still
	// starts its mission clock at the same epoch, so planets are rewound
	// to their initial orbital phases.
	GenNewPlanets bool

	// StragglerFactor aborts a run once its runtime exceeds this multiple
	// of the average completed runtime, but only while fewer than
	// StragglerMin runs remain outstanding. A non-positive factor disables
	// the monitor.
	StragglerFactor float64
	StragglerMin    int
}

// DefaultConfig returns ensemble settings matching a parallel local survey.
func DefaultConfig() Config {
	return Config{
		Runs:            100,
		Workers:         4,
		Seed:            1,
		GenNewPlanets:   true,
		StragglerFactor: 3,
		StragglerMin:    5,
	}
}

func (c Config) validate() error {
	switch {
	case c.Runs <= 0:
		return fmt.Errorf("ensemble: run count must be positive, got %d", c.Runs)
	case c.Workers <= 0:
		return fmt.Errorf("ensemble: worker count must be positive, got %d", c.Workers)
	case c.OutDir == "":
		return fmt.Errorf("ensemble: output directory not set")
	case c.StragglerFactor > 0 && c.StragglerFactor < 1:
		return fmt.Errorf("ensemble: straggler factor %g would abort faster-than-average runs", c.StragglerFactor)
	}
	return nil
}

// Params bundles the shared, read-only survey components every run uses.
type Params struct {
	Obs  *observatory.Observatory
	TL   *targetlist.TargetList
	Cat  *universe.Catalog
	Pop  planetpop.Population
	Zodi *zodi.Lindler
	Mode sim.Mode

	MissionStart    astro.MJD
	MissionLifeDays float64
}

// Report summarizes a finished ensemble.
type Report struct {
	Requested int
	Completed int
	Failed    int
	Aborted   int
	Paths     []string
	Elapsed   time.Duration
}

// Progress is a point-in-time snapshot of a running ensemble.
type Progress struct {
	Requested      int     `json:"requested"`
	Started        int64   `json:"started"`
	Completed      int64   `json:"completed"`
	Failed         int64   `json:"failed"`
	Aborted        int64   `json:"aborted"`
	Running        int     `json:"running"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type activeRun struct {
	start  time.Time
	cancel context.CancelFunc
}

// Ensemble runs a batch of survey simulations.
type Ensemble struct {
	cfg    Config
	params Params
	logger zerolog.Logger

	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	aborted   atomic.Int64

	mu        sync.Mutex
	active    map[int]*activeRun
	doneDur   time.Duration
	doneCount int

	startedAt time.Time
	progLimit *rate.Limiter

	sharedU *universe.Universe
}

// New validates the configuration and builds an ensemble.
func New(cfg Config, params Params) (*Ensemble, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if params.Obs == nil || params.TL == nil || params.Cat == nil || params.Pop == nil || params.Zodi == nil {
		return nil, fmt.Errorf("ensemble: incomplete survey parameters")
	}
	return &Ensemble{
		cfg:       cfg,
		params:    params,
		logger:    log.WithComponent("ensemble"),
		active:    make(map[int]*activeRun),
		progLimit: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}, nil
}

// Run executes the whole ensemble and blocks until every run has finished,
// failed or been aborted. Per-run failures are counted, not fatal; only a
// cancelled context stops the ensemble early.
func (e *Ensemble) Run(ctx context.Context) (*Report, error) {
	if err := os.MkdirAll(e.cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensemble: create output dir: %w", err)
	}
	e.startedAt = time.Now()

	if !e.cfg.GenNewPlanets {
		rng := rand.New(rand.NewSource(e.cfg.Seed))
		u, err := universe.NewKnownRV(rng, e.params.Cat, e.params.TL, e.params.Pop, e.params.MissionStart)
		if err != nil {
			return nil, err
		}
		e.sharedU = u
	}

	e.logger.Info().
		Int(log.FieldRunsTotal, e.cfg.Runs).
		Int(log.FieldWorkers, e.cfg.Workers).
		Int64(log.FieldSeed, e.cfg.Seed).
		Bool("gen_new_planets", e.cfg.GenNewPlanets).
		Msg("ensemble starting")

	monStop := make(chan struct{})
	var monWG sync.WaitGroup
	monWG.Add(1)
	go e.monitorStragglers(monStop, &monWG)

	var pathsMu sync.Mutex
	var paths []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := 0; i < e.cfg.Runs; i++ {
		i := i
		g.Go(func() error {
			path, err := e.runOne(gctx, i)
			if err != nil {
				return err
			}
			if path != "" {
				pathsMu.Lock()
				paths = append(paths, path)
				pathsMu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	close(monStop)
	monWG.Wait()

	report := &Report{
		Requested: e.cfg.Runs,
		Completed: int(e.completed.Load()),
		Failed:    int(e.failed.Load()),
		Aborted:   int(e.aborted.Load()),
		Paths:     paths,
		Elapsed:   time.Since(e.startedAt),
	}
	e.logger.Info().
		Int("completed", report.Completed).
		Int("failed", report.Failed).
		Int("aborted", report.Aborted).
		Dur("elapsed", report.Elapsed).
		Msg("ensemble finished")
	return report, err
}

// runOne executes a single survey simulation. It returns the written result
// path, or "" when the run failed or was aborted; the error is non-nil only
// when the whole ensemble should stop.
func (e *Ensemble) runOne(parent context.Context, i int) (string, error) {
	if parent.Err() != nil {
		return "", parent.Err()
	}

	runID := uuid.NewString()
	seed := e.cfg.Seed + int64(i)
	rng := rand.New(rand.NewSource(seed))
	logger := e.logger.With().Str(log.FieldRunID, runID).Int64(log.FieldSeed, seed).Logger()

	runCtx, cancel := context.WithCancel(parent)
	defer cancel()
	e.track(i, cancel)

	metrics.RunStarted()
	e.started.Add(1)
	start := time.Now()

	run, err := e.simulate(log.ContextWithRunID(runCtx, runID), rng)
	dur := time.Since(start)
	e.untrack(i, dur, err == nil)

	switch {
	case err == nil:
	case parent.Err() != nil:
		// The ensemble itself is shutting down.
		return "", parent.Err()
	case runCtx.Err() != nil:
		metrics.RunAborted()
		e.aborted.Add(1)
		logger.Warn().Dur("runtime", dur).Msg("run aborted as straggler")
		e.logProgress()
		return "", nil
	default:
		metrics.RunFailed()
		e.failed.Add(1)
		logger.Error().Err(err).Msg("run failed")
		e.logProgress()
		return "", nil
	}

	run.RunID = runID
	run.Seed = seed
	run.RunTimeSeconds = dur.Seconds()
	run.FinishedAt = time.Now().UTC()

	path, err := results.Write(e.cfg.OutDir, run)
	if err != nil {
		metrics.RunFailed()
		e.failed.Add(1)
		logger.Error().Err(err).Msg("run result write failed")
		e.logProgress()
		return "", nil
	}

	det := run.Detections()
	metrics.RunCompleted(dur, det)
	e.completed.Add(1)
	logger.Debug().
		Dur("runtime", dur).
		Int(log.FieldDetections, det).
		Str(log.FieldPath, path).
		Msg("run complete")
	e.logProgress()
	return path, nil
}

func (e *Ensemble) simulate(ctx context.Context, rng *rand.Rand) (*results.Run, error) {
	u := e.sharedU
	if e.cfg.GenNewPlanets {
		var err error
		u, err = universe.NewKnownRV(rng, e.params.Cat, e.params.TL, e.params.Pop, e.params.MissionStart)
		if err != nil {
			return nil, err
		}
	}
	s, err := sim.New(rng, e.params.Obs, e.params.TL, u, e.params.Zodi, e.params.Mode, e.params.MissionLifeDays)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// Progress reports counters for status endpoints.
func (e *Ensemble) Progress() Progress {
	e.mu.Lock()
	running := len(e.active)
	e.mu.Unlock()

	var elapsed float64
	if !e.startedAt.IsZero() {
		elapsed = time.Since(e.startedAt).Seconds()
	}
	return Progress{
		Requested:      e.cfg.Runs,
		Started:        e.started.Load(),
		Completed:      e.completed.Load(),
		Failed:         e.failed.Load(),
		Aborted:        e.aborted.Load(),
		Running:        running,
		ElapsedSeconds: elapsed,
	}
}

// logProgress emits a rate-limited progress line with an ETA estimate.
func (e *Ensemble) logProgress() {
	if !e.progLimit.Allow() {
		return
	}
	done := e.completed.Load() + e.failed.Load() + e.aborted.Load()
	if done == 0 {
		return
	}
	elapsed := time.Since(e.startedAt)
	eta := time.Duration(float64(elapsed) / float64(done) * float64(int64(e.cfg.Runs)-done))
	e.logger.Info().
		Int64("done", done).
		Int(log.FieldRunsTotal, e.cfg.Runs).
		Dur("elapsed", elapsed).
		Dur("eta", eta).
		Msg("ensemble progress")
}

func (e *Ensemble) track(i int, cancel context.CancelFunc) {
	e.mu.Lock()
	e.active[i] = &activeRun{start: time.Now(), cancel: cancel}
	e.mu.Unlock()
}

func (e *Ensemble) untrack(i int, dur time.Duration, completed bool) {
	e.mu.Lock()
	delete(e.active, i)
	if completed {
		e.doneDur += dur
		e.doneCount++
	}
	e.mu.Unlock()
}

// monitorStragglers periodically cancels runs whose runtime exceeds the
// configured multiple of the average, once the queue has nearly drained.
func (e *Ensemble) monitorStragglers(stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	if e.cfg.StragglerFactor <= 0 {
		<-stop
		return
	}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.sweepStragglers()
		}
	}
}

func (e *Ensemble) sweepStragglers() {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doneCount == 0 || len(e.active) == 0 || len(e.active) >= e.cfg.StragglerMin {
		return
	}
	limit := time.Duration(float64(e.doneDur/time.Duration(e.doneCount)) * e.cfg.StragglerFactor)
	for i, ar := range e.active {
		if elapsed := now.Sub(ar.start); elapsed > limit {
			e.logger.Warn().
				Int("run_index", i).
				Dur("runtime", elapsed).
				Dur("limit", limit).
				Msg("aborting straggler run")
			ar.cancel()
		}
	}
}
