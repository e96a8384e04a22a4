// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/exosurvey/internal/api"
	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/config"
	"github.com/ManuGH/exosurvey/internal/ensemble"
	xslog "github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/observatory"
	"github.com/ManuGH/exosurvey/internal/planetpop"
	"github.com/ManuGH/exosurvey/internal/targetlist"
	"github.com/ManuGH/exosurvey/internal/universe"
	"github.com/ManuGH/exosurvey/internal/version"
	"github.com/ManuGH/exosurvey/internal/zodi"
)

func runCmd(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
	noAPI := fs.Bool("no-api", false, "disable the status HTTP server")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "exosurvey: %v\n", err)
		return 1
	}
	if err := cfg.ValidateRun(); err != nil {
		fmt.Fprintf(os.Stderr, "exosurvey: %v\n", err)
		return 1
	}

	xslog.Configure(xslog.Config{
		Level:   cfg.LogLevel,
		Service: "exosurvey",
		Version: version.Version,
	})
	logger := xslog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params, err := buildParams(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("survey setup failed")
		return 1
	}

	e, err := ensemble.New(ensemble.Config{
		Runs:            cfg.Ensemble.Runs,
		Workers:         cfg.Ensemble.Workers,
		Seed:            cfg.Ensemble.Seed,
		OutDir:          cfg.ResultsDir(),
		GenNewPlanets:   cfg.Ensemble.GenNewPlanets,
		StragglerFactor: cfg.Ensemble.StragglerFactor,
		StragglerMin:    cfg.Ensemble.StragglerMin,
	}, *params)
	if err != nil {
		logger.Error().Err(err).Msg("ensemble setup failed")
		return 1
	}

	var srv *api.Server
	if !*noAPI {
		srv = api.New(api.Config{Listen: cfg.API.Listen, RateLimit: cfg.API.RateLimit}, e)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Msg("status server failed")
			}
		}()
	}

	report, err := e.Run(ctx)
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn().Err(serr).Msg("status server shutdown failed")
		}
		cancel()
	}
	if err != nil {
		logger.Error().Err(err).Msg("ensemble stopped early")
		return 1
	}

	fmt.Printf("ensemble complete: %d/%d runs (%d failed, %d aborted) in %s\n",
		report.Completed, report.Requested, report.Failed, report.Aborted,
		report.Elapsed.Round(time.Millisecond))
	if report.Failed > 0 {
		return 1
	}
	return 0
}

// buildParams loads the survey inputs named in the configuration.
func buildParams(cfg config.Config) (*ensemble.Params, error) {
	var eph *observatory.Ephemeris
	var err error
	if cfg.Observatory.CacheDir != "" {
		cache, cerr := observatory.OpenEphemerisCache(cfg.Observatory.CacheDir)
		if cerr != nil {
			return nil, cerr
		}
		defer func() { _ = cache.Close() }()
		eph, err = cache.Load(cfg.Observatory.HaloPath)
	} else {
		eph, err = observatory.LoadEphemeris(cfg.Observatory.HaloPath)
	}
	if err != nil {
		return nil, err
	}

	obs, err := observatory.New(observatory.Config{
		EquinoxMJD:        cfg.Mission.EquinoxMJD,
		HaloStartTimeDays: cfg.Observatory.HaloStartDays,
		SRP:               cfg.Observatory.SRP,
	}, eph)
	if err != nil {
		return nil, err
	}

	tl, err := targetlist.Load(cfg.TargetsPath)
	if err != nil {
		return nil, err
	}
	cat, err := universe.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	pop, err := planetpop.NewJupiterTwin(
		[2]float64{cfg.Population.EccenMin, cfg.Population.EccenMax},
		cfg.Population.ConstrainOrbits)
	if err != nil {
		return nil, err
	}
	zl, err := zodi.NewLindler(cfg.Zodi.Exozodi, cfg.Zodi.ExozodiVar)
	if err != nil {
		return nil, err
	}

	return &ensemble.Params{
		Obs:             obs,
		TL:              tl,
		Cat:             cat,
		Pop:             pop,
		Zodi:            zl,
		Mode:            cfg.Mode,
		MissionStart:    astro.MJD(cfg.Mission.StartMJD),
		MissionLifeDays: cfg.Mission.LifeDays,
	}, nil
}
