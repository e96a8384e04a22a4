// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ManuGH/exosurvey/internal/collate"
	"github.com/ManuGH/exosurvey/internal/config"
	xslog "github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/version"
)

func collateCmd(args []string) int {
	fs := flag.NewFlagSet("collate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
	watch := fs.Bool("watch", false, "keep watching the results directory for new runs")
	subNeptune := fs.Bool("sub-neptune", false, "keep only detections smaller than Neptune")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "exosurvey: %v\n", err)
		return 1
	}

	xslog.Configure(xslog.Config{
		Level:   cfg.LogLevel,
		Service: "exosurvey",
		Version: version.Version,
	})
	logger := xslog.WithComponent("main")

	csvPath := cfg.Collate.CSVPath
	if csvPath == "" {
		csvPath = filepath.Join(cfg.DataDir, "detections.csv")
	}
	dbPath := cfg.Collate.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, "collate.db")
	}

	c, err := collate.New(collate.Config{
		ResultsDir:     cfg.ResultsDir(),
		CSVPath:        csvPath,
		DBPath:         dbPath,
		SubNeptuneOnly: *subNeptune || cfg.Collate.SubNeptuneOnly,
	})
	if err != nil {
		logger.Error().Err(err).Msg("collator setup failed")
		return 1
	}
	defer func() { _ = c.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watch || cfg.Collate.Watch {
		if err := c.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("watch failed")
			return 1
		}
		return 0
	}

	n, err := c.CollateDir(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("collation failed")
		return 1
	}
	fmt.Printf("collated %d new detections into %s\n", n, csvPath)
	return 0
}
