// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command exosurvey runs exoplanet survey simulation ensembles and collates
// their detections.
package main

import (
	"fmt"
	"os"

	"github.com/ManuGH/exosurvey/internal/version"
)

const usage = `usage: exosurvey <command> [flags]

Commands:
  run      execute a survey simulation ensemble
  collate  aggregate run results into the detection table
  serve    run the status server without an ensemble
  version  print version information

Run 'exosurvey <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCmd(os.Args[2:]))
	case "collate":
		os.Exit(collateCmd(os.Args[2:]))
	case "serve":
		os.Exit(serveCmd(os.Args[2:]))
	case "version", "-version", "--version":
		fmt.Printf("exosurvey %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "exosurvey: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}
