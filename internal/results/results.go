// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package results defines the on-disk record of a survey simulation run: the
// DRM (design reference mission) sequence of observations, the sampled
// planetary systems, and helpers to write, read and summarize run files.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/google/renameio/v2"
)

// Detection status codes per planet and observation.
const (
	StatusDetected  = 1
	StatusMissed    = 0
	StatusBelowIWA  = -1
	StatusBeyondOWA = -2
)

// DetParams holds the time-averaged planet observables of one observation,
// indexed like the observation's PlanInds.
type DetParams struct {
	WAArcsec []float64 `json:"wa_arcsec"` // working angle
	DMag     []float64 `json:"dmag"`      // delta magnitude
	DistAU   []float64 `json:"d_au"`      // physical star-planet distance
	FEZ      []float64 `json:"fez"`       // exozodi surface brightness
}

// DRMRecord is a single observation in the design reference mission.
type DRMRecord struct {
	StarInd     int       `json:"star_ind"`
	ArrivalMJD  float64   `json:"arrival_mjd"`
	DetTimeDays float64   `json:"det_time_days"`
	PlanInds    []int     `json:"plan_inds"`
	DetStatus   []int     `json:"det_status"`
	DetSNR      []float64 `json:"det_snr"`
	DetFZ       float64   `json:"det_fz"`
	DetParams   DetParams `json:"det_params"`
	SlewDeg     float64   `json:"slew_deg"`
}

// Systems is the sampled universe snapshot stored with each run, indexed by
// planet.
type Systems struct {
	SMA        []float64 `json:"a_au"`
	Eccen      []float64 `json:"e"`
	Albedo     []float64 `json:"p"`
	RadEarth   []float64 `json:"rp_earth"`
	MassEarth  []float64 `json:"mp_earth"`
	Star       []string  `json:"star"`
	PlanToStar []int     `json:"plan2star"`
}

// Run is one complete survey simulation result.
type Run struct {
	RunID           string    `json:"run_id"`
	Seed            int64     `json:"seed"`
	MissionStartMJD float64   `json:"mission_start_mjd"`
	DRM             []DRMRecord `json:"drm"`
	Systems         Systems   `json:"systems"`
	RunTimeSeconds  float64   `json:"run_time_seconds"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Write persists the run as <dir>/<run_id>.json with an atomic, durable
// replace, and returns the final path.
func Write(dir string, run *Run) (string, error) {
	if run.RunID == "" {
		return "", fmt.Errorf("results: run has no ID")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(dir, run.RunID+".json")

	// renameio handles temp file creation, fsync, atomic rename and cleanup.
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return "", fmt.Errorf("create pending run file: %w", err)
	}
	logger := log.WithComponent("results")
	defer func() {
		if cerr := pending.Cleanup(); cerr != nil {
			logger.Debug().Err(cerr).Msg("cleanup pending run file")
		}
	}()

	enc := json.NewEncoder(pending)
	if err := enc.Encode(run); err != nil {
		return "", fmt.Errorf("encode run: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace run file: %w", err)
	}
	return path, nil
}

// Read loads one run file.
func Read(path string) (*Run, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var run Run
	if err := json.Unmarshal(buf, &run); err != nil {
		return nil, fmt.Errorf("parse run file %s: %w", filepath.Base(path), err)
	}
	if err := run.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &run, nil
}

// Detections counts the detected planet observations across the whole DRM.
func (r *Run) Detections() int {
	n := 0
	for _, rec := range r.DRM {
		for _, st := range rec.DetStatus {
			if st == StatusDetected {
				n++
			}
		}
	}
	return n
}

func (r *Run) validate() error {
	n := len(r.Systems.SMA)
	for _, l := range []int{len(r.Systems.Eccen), len(r.Systems.Albedo), len(r.Systems.RadEarth), len(r.Systems.MassEarth), len(r.Systems.Star), len(r.Systems.PlanToStar)} {
		if l != n {
			return fmt.Errorf("results: systems arrays have inconsistent lengths")
		}
	}
	for i, rec := range r.DRM {
		m := len(rec.PlanInds)
		if len(rec.DetStatus) != m || len(rec.DetSNR) != m ||
			len(rec.DetParams.WAArcsec) != m || len(rec.DetParams.DMag) != m ||
			len(rec.DetParams.DistAU) != m || len(rec.DetParams.FEZ) != m {
			return fmt.Errorf("results: observation %d has inconsistent array lengths", i)
		}
		for _, pi := range rec.PlanInds {
			if pi < 0 || pi >= n {
				return fmt.Errorf("results: observation %d references planet %d of %d", i, pi, n)
			}
		}
	}
	return nil
}

// List returns the run files in dir, sorted by name.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan results dir: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
