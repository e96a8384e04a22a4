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
	"github.com/ManuGH/exosurvey/internal/config"
	xslog "github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/version"
)

// serveCmd runs the status server on its own, without an ensemble. Useful
// for scraping /metrics from a box that only collates.
func serveCmd(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.New(api.Config{Listen: cfg.API.Listen, RateLimit: cfg.API.RateLimit}, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("status server failed")
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("status server shutdown failed")
		return 1
	}
	return 0
}
