// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package collate aggregates finished survey runs into a detection table.
// Each run file is ingested once; the first detection of every planet per
// run is kept, indexed in SQLite and appended to a CSV shortlist.
package collate

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/metrics"
	"github.com/ManuGH/exosurvey/internal/persistence/sqlite"
	"github.com/ManuGH/exosurvey/internal/results"
)

const schemaVersion = 1

// csvHeader is the fixed detection table column order.
var csvHeader = []string{"Rp", "detected", "Mp", "starind", "sma", "p", "e", "WA", "SNR", "fZ", "fEZ", "dMag", "r"}

// Config controls collation.
type Config struct {
	// ResultsDir holds the per-run JSON files to ingest.
	ResultsDir string
	// CSVPath is the detection table, appended to across invocations.
	CSVPath string
	// DBPath is the SQLite dedupe index.
	DBPath string
	// SubNeptuneOnly keeps only detections smaller than Neptune.
	SubNeptuneOnly bool
}

func (c Config) validate() error {
	switch {
	case c.ResultsDir == "":
		return errors.New("collate: results directory not set")
	case c.CSVPath == "":
		return errors.New("collate: csv path not set")
	case c.DBPath == "":
		return errors.New("collate: database path not set")
	}
	return nil
}

// Collator ingests run files into the detection index and CSV table.
type Collator struct {
	cfg    Config
	db     *sql.DB
	logger zerolog.Logger
}

// New opens the dedupe index and prepares the collator.
func New(cfg Config) (*Collator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.DBPath); err == nil {
		problems, err := sqlite.VerifyIntegrity(cfg.DBPath, "quick")
		if err != nil {
			return nil, fmt.Errorf("collate: verify index: %w", err)
		}
		if len(problems) > 0 {
			return nil, fmt.Errorf("collate: index %s is corrupt: %s", cfg.DBPath, problems[0])
		}
	}
	db, err := sqlite.Open(cfg.DBPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	c := &Collator{cfg: cfg, db: db, logger: log.WithComponent("collate")}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("collate: migration failed: %w", err)
	}
	return c, nil
}

// Close releases the index database.
func (c *Collator) Close() error { return c.db.Close() }

func (c *Collator) migrate() error {
	var current int
	if err := c.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS ingested_files (
		path TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		ingested_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS detections (
		run_id TEXT NOT NULL,
		plan_ind INTEGER NOT NULL,
		star_ind INTEGER NOT NULL,
		star_name TEXT NOT NULL,
		rp_earth REAL NOT NULL,
		mp_earth REAL NOT NULL,
		sma_au REAL NOT NULL,
		albedo REAL NOT NULL,
		eccen REAL NOT NULL,
		wa_arcsec REAL NOT NULL,
		snr REAL NOT NULL,
		fz REAL NOT NULL,
		fez REAL NOT NULL,
		dmag REAL NOT NULL,
		dist_au REAL NOT NULL,
		PRIMARY KEY (run_id, plan_ind)
	);
	CREATE INDEX IF NOT EXISTS idx_detections_star ON detections(star_name);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// CollateDir ingests every run file in the results directory that has not
// been seen before, and returns the number of newly collated detections.
// Unreadable files are counted and skipped, not fatal.
func (c *Collator) CollateDir(ctx context.Context) (int, error) {
	paths, err := results.List(c.cfg.ResultsDir)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := c.IngestFile(ctx, path)
		if err != nil {
			metrics.CollateError()
			c.logger.Error().Err(err).Str(log.FieldPath, path).Msg("run file skipped")
			continue
		}
		total += n
	}
	return total, nil
}

// IngestFile collates one run file. Files already ingested and detections
// already indexed are ignored; the return value counts new detections.
func (c *Collator) IngestFile(ctx context.Context, path string) (int, error) {
	run, err := results.Read(path)
	if err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO ingested_files (path, run_id, ingested_at) VALUES (?, ?, ?)`,
		filepath.Base(path), run.RunID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		// Seen in an earlier invocation.
		return 0, nil
	}

	sum := results.Summarize(map[string]*results.Run{filepath.Base(path): run})
	dets := sum.Detections
	if c.cfg.SubNeptuneOnly {
		dets = sum.FilterSubNeptune()
	}

	var rows []results.Detection
	for _, d := range dets {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO detections (
				run_id, plan_ind, star_ind, star_name,
				rp_earth, mp_earth, sma_au, albedo, eccen,
				wa_arcsec, snr, fz, fez, dmag, dist_au
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.RunID, d.PlanInd, d.StarInd, d.StarName,
			d.RadEarth, d.MassEarth, d.SMA, d.Albedo, d.Eccen,
			d.WAArcsec, d.SNR, d.FZ, d.FEZ, d.DMag, d.DistAU)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			rows = append(rows, d)
		}
	}

	if err := c.appendCSV(rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	metrics.DetectionsCollated(len(rows))
	c.logger.Debug().
		Str(log.FieldRunID, run.RunID).
		Int(log.FieldDetections, len(rows)).
		Msg("run collated")
	return len(rows), nil
}

// appendCSV appends rows to the detection table, writing the header first
// when the file is new.
func (c *Collator) appendCSV(rows []results.Detection) error {
	if len(rows) == 0 {
		return nil
	}

	writeHeader := true
	if info, err := os.Stat(c.cfg.CSVPath); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(c.cfg.CSVPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open detection table: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, d := range rows {
		rec := []string{
			num(d.RadEarth),
			strconv.Itoa(d.PlanInd),
			num(d.MassEarth),
			strconv.Itoa(d.StarInd),
			num(d.SMA),
			num(d.Albedo),
			num(d.Eccen),
			num(d.WAArcsec),
			num(d.SNR),
			num(d.FZ),
			num(d.FEZ),
			num(d.DMag),
			num(d.DistAU),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write detection table: %w", err)
	}
	return f.Sync()
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Count returns the number of indexed detections.
func (c *Collator) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detections`).Scan(&n)
	return n, err
}
