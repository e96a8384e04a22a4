// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// VerifyIntegrity checks a database for structural corruption. Mode "quick"
// runs PRAGMA quick_check, "full" runs PRAGMA integrity_check. It returns
// the diagnostic rows when corruption is found, nil when healthy.
func VerifyIntegrity(path string, mode string) ([]string, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=2000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database for verification: %w", err)
	}
	defer func() { _ = db.Close() }()

	pragma := "PRAGMA quick_check;"
	if mode == "full" {
		pragma = "PRAGMA integrity_check;"
	}

	rows, err := db.Query(pragma)
	if err != nil {
		return nil, fmt.Errorf("integrity pragma failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("scan integrity result row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A healthy database reports exactly one "ok" row.
	if len(results) == 1 && strings.ToLower(results[0]) == "ok" {
		return nil, nil
	}
	if len(results) == 0 {
		return []string{"no results returned from integrity check"}, nil
	}
	return results, nil
}
