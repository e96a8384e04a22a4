// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID      = "run_id"
	FieldEnsembleID = "ensemble_id"
	FieldSeed       = "seed"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Simulation fields
	FieldStarIndex  = "star_index"
	FieldPlanets    = "planets"
	FieldDetections = "detections"
	FieldMissionDay = "mission_day"

	// Ensemble fields
	FieldRunsTotal     = "runs_total"
	FieldRunsDone      = "runs_done"
	FieldRunsFailed    = "runs_failed"
	FieldRunsOutstand  = "runs_outstanding"
	FieldWorkers       = "workers"
	FieldElapsedSec    = "elapsed_sec"
	FieldETASec        = "eta_sec"
	FieldAvgRunSeconds = "avg_run_sec"

	// Path / storage fields
	FieldPath       = "path"
	FieldDataDir    = "data_dir"
	FieldResultPath = "result_path"
	FieldCachePath  = "cache_path"
)
