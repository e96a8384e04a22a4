// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package results

import "sort"

// Detection is one flattened detected-planet event, with the planet and
// observation context joined in.
type Detection struct {
	File     string
	RunID    string
	PlanInd  int
	StarInd  int
	StarName string

	RadEarth  float64
	MassEarth float64
	SMA       float64
	Albedo    float64
	Eccen     float64

	WAArcsec float64
	SNR      float64
	FZ       float64
	FEZ      float64
	DMag     float64
	DistAU   float64
}

// Summary aggregates the detections extracted from a set of runs.
type Summary struct {
	Files      []string
	Detections []Detection
}

// Summarize walks the DRM of each run and extracts every planet with
// detected status, joining in the system parameters. Files are processed in
// sorted order so the output is deterministic.
func Summarize(runs map[string]*Run) *Summary {
	files := make([]string, 0, len(runs))
	for file := range runs {
		files = append(files, file)
	}
	sort.Strings(files)

	sum := &Summary{}
	for _, file := range files {
		run := runs[file]
		sum.Files = append(sum.Files, file)
		for _, rec := range run.DRM {
			for j, pi := range rec.PlanInds {
				if rec.DetStatus[j] != StatusDetected {
					continue
				}
				sum.Detections = append(sum.Detections, Detection{
					File:      file,
					RunID:     run.RunID,
					PlanInd:   pi,
					StarInd:   rec.StarInd,
					StarName:  run.Systems.Star[pi],
					RadEarth:  run.Systems.RadEarth[pi],
					MassEarth: run.Systems.MassEarth[pi],
					SMA:       run.Systems.SMA[pi],
					Albedo:    run.Systems.Albedo[pi],
					Eccen:     run.Systems.Eccen[pi],
					WAArcsec:  rec.DetParams.WAArcsec[j],
					SNR:       rec.DetSNR[j],
					FZ:        rec.DetFZ,
					FEZ:       rec.DetParams.FEZ[j],
					DMag:      rec.DetParams.DMag[j],
					DistAU:    rec.DetParams.DistAU[j],
				})
			}
		}
	}
	return sum
}

// SubNeptune reports whether a detection falls below the Neptune radius
// threshold used for the characterization shortlist.
func (d Detection) SubNeptune() bool {
	const neptuneEarthRadii = 24764.0 / 6371.0
	return d.RadEarth < neptuneEarthRadii
}

// FilterSubNeptune returns only the detections smaller than Neptune.
func (s *Summary) FilterSubNeptune() []Detection {
	var out []Detection
	for _, d := range s.Detections {
		if d.SubNeptune() {
			out = append(out, d)
		}
	}
	return out
}
