// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package collate

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/metrics"
)

// Watch collates the existing results directory, then keeps ingesting run
// files as they appear until ctx is cancelled. Run files are written with an
// atomic rename, so a create event means the file is complete.
func (c *Collator) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("collate: fsnotify.NewWatcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.cfg.ResultsDir); err != nil {
		return fmt.Errorf("collate: watch %s: %w", c.cfg.ResultsDir, err)
	}

	// Catch up on files written before the watch started.
	n, err := c.CollateDir(ctx)
	if err != nil {
		return err
	}
	c.logger.Info().
		Int(log.FieldDetections, n).
		Str(log.FieldDataDir, c.cfg.ResultsDir).
		Msg("watching for new runs")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("collate: watcher channel closed")
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if _, err := c.IngestFile(ctx, event.Name); err != nil {
				metrics.CollateError()
				c.logger.Error().Err(err).Str(log.FieldPath, event.Name).Msg("run file skipped")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("collate: watcher error channel closed")
			}
			c.logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}
