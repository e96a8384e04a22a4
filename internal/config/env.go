// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
)

// Environment variable names. ENV has the highest precedence.
const (
	EnvDataDir   = "EXOSURVEY_DATA"
	EnvLogLevel  = "EXOSURVEY_LOG_LEVEL"
	EnvHaloPath  = "EXOSURVEY_HALO"
	EnvCacheDir  = "EXOSURVEY_CACHE_DIR"
	EnvTargets   = "EXOSURVEY_TARGETS"
	EnvCatalog   = "EXOSURVEY_CATALOG"
	EnvRuns      = "EXOSURVEY_RUNS"
	EnvWorkers   = "EXOSURVEY_WORKERS"
	EnvSeed      = "EXOSURVEY_SEED"
	EnvAPIListen = "EXOSURVEY_API_LISTEN"
	EnvCSVPath   = "EXOSURVEY_CSV"
	EnvDBPath    = "EXOSURVEY_DB"
)

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// mergeEnv overrides the merged file and default values with the process
// environment.
func mergeEnv(cfg *Config) {
	cfg.DataDir = envString(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = envString(EnvLogLevel, cfg.LogLevel)
	cfg.Observatory.HaloPath = envString(EnvHaloPath, cfg.Observatory.HaloPath)
	cfg.Observatory.CacheDir = envString(EnvCacheDir, cfg.Observatory.CacheDir)
	cfg.TargetsPath = envString(EnvTargets, cfg.TargetsPath)
	cfg.CatalogPath = envString(EnvCatalog, cfg.CatalogPath)
	cfg.Ensemble.Runs = envInt(EnvRuns, cfg.Ensemble.Runs)
	cfg.Ensemble.Workers = envInt(EnvWorkers, cfg.Ensemble.Workers)
	cfg.Ensemble.Seed = envInt64(EnvSeed, cfg.Ensemble.Seed)
	cfg.API.Listen = envString(EnvAPIListen, cfg.API.Listen)
	cfg.Collate.CSVPath = envString(EnvCSVPath, cfg.Collate.CSVPath)
	cfg.Collate.DBPath = envString(EnvDBPath, cfg.Collate.DBPath)
}
