// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sim runs a single survey simulation: it walks the mission clock
// over the target list, points the telescope from its halo orbit, evaluates
// each known planet against the observing mode and records the design
// reference mission.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/ManuGH/exosurvey/internal/astro"
	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/ManuGH/exosurvey/internal/metrics"
	"github.com/ManuGH/exosurvey/internal/observatory"
	"github.com/ManuGH/exosurvey/internal/results"
	"github.com/ManuGH/exosurvey/internal/targetlist"
	"github.com/ManuGH/exosurvey/internal/universe"
	"github.com/ManuGH/exosurvey/internal/zodi"
)

// earthRadiusAU converts planet radii from Earth radii to AU.
const earthRadiusAU = astro.EarthRadiusMeters / astro.AUMeters

// Mode is a coronagraphic detection observing mode.
type Mode struct {
	// IWAArcsec and OWAArcsec bound the usable working angle range.
	IWAArcsec float64 `yaml:"iwa_arcsec"`
	OWAArcsec float64 `yaml:"owa_arcsec"`

	// SNRTarget is the signal-to-noise ratio required to claim a detection.
	SNRTarget float64 `yaml:"snr_target"`

	// IntTimeDays is the integration time spent on each target,
	// OverheadDays the settling and slew overhead charged per visit.
	IntTimeDays  float64 `yaml:"int_time_days"`
	OverheadDays float64 `yaml:"overhead_days"`

	// CountRateZero is the detected count rate, in counts per second, for a
	// zero-magnitude source through this mode.
	CountRateZero float64 `yaml:"count_rate_zero"`

	// ZodiMag is the V surface brightness of one zodi unit, mag/arcsec^2,
	// and SkyAreaArcsec2 the photometric aperture on the sky.
	ZodiMag        float64 `yaml:"zodi_mag"`
	SkyAreaArcsec2 float64 `yaml:"sky_area_arcsec2"`
}

// DefaultMode returns a starshade detection mode with conservative values.
func DefaultMode() Mode {
	return Mode{
		IWAArcsec:      0.075,
		OWAArcsec:      1.0,
		SNRTarget:      5,
		IntTimeDays:    1,
		OverheadDays:   0.5,
		CountRateZero:  1e10,
		ZodiMag:        23,
		SkyAreaArcsec2: 0.01,
	}
}

func (m Mode) validate() error {
	switch {
	case m.IWAArcsec < 0 || m.OWAArcsec <= m.IWAArcsec:
		return fmt.Errorf("sim: working angle range [%g, %g] is empty", m.IWAArcsec, m.OWAArcsec)
	case m.SNRTarget <= 0:
		return fmt.Errorf("sim: SNR target must be positive, got %g", m.SNRTarget)
	case m.IntTimeDays <= 0:
		return fmt.Errorf("sim: integration time must be positive, got %g days", m.IntTimeDays)
	case m.OverheadDays < 0:
		return fmt.Errorf("sim: overhead must be non-negative, got %g days", m.OverheadDays)
	case m.CountRateZero <= 0:
		return fmt.Errorf("sim: zero-magnitude count rate must be positive, got %g", m.CountRateZero)
	case m.SkyAreaArcsec2 <= 0:
		return fmt.Errorf("sim: sky aperture must be positive, got %g arcsec^2", m.SkyAreaArcsec2)
	}
	return nil
}

// Simulation is one fully wired survey run over a sampled universe.
type Simulation struct {
	obs  *observatory.Observatory
	tl   *targetlist.TargetList
	u    *universe.Universe
	mode Mode

	lifeDays float64

	// fzStar is the local zodi level per target list star, fezPlan the
	// exozodi level per planet, both fixed for the run.
	fzStar  []float64
	fezPlan []float64

	logger zerolog.Logger
}

// New builds a simulation. The exozodi draw happens here, once per run, so
// repeated visits to a system see the same disk.
func New(rng *rand.Rand, obs *observatory.Observatory, tl *targetlist.TargetList,
	u *universe.Universe, zl *zodi.Lindler, mode Mode, missionLifeDays float64) (*Simulation, error) {
	if err := mode.validate(); err != nil {
		return nil, err
	}
	if missionLifeDays <= 0 {
		return nil, fmt.Errorf("sim: mission life must be positive, got %g days", missionLifeDays)
	}

	fcomb, err := zl.Fzodi(rng, u.PlanToStar, u.InclDeg, tl)
	if err != nil {
		return nil, err
	}
	lats := tl.EclipticLatitudes()
	fzStar := make([]float64, tl.Len())
	for j, lat := range lats {
		fzStar[j] = zodi.FBeta(lat)
	}
	fezPlan := make([]float64, u.NPlans)
	for k := range fcomb {
		fezPlan[k] = fcomb[k] - fzStar[u.PlanToStar[k]]
	}

	return &Simulation{
		obs:      obs,
		tl:       tl,
		u:        u,
		mode:     mode,
		lifeDays: missionLifeDays,
		fzStar:   fzStar,
		fezPlan:  fezPlan,
		logger:   log.WithComponent("sim"),
	}, nil
}

// Run executes the mission and returns the run record with the DRM and the
// universe snapshot filled in. Run identity, seed and timing are left for
// the caller.
func (s *Simulation) Run(ctx context.Context) (*results.Run, error) {
	start := s.u.MissionStart()
	end := start.AddDays(s.lifeDays)

	var drm []results.DRMRecord
	clock := start
	prevStar := -1
	prevTime := start

	for clock.AddDays(s.mode.IntTimeDays) <= end {
		for _, sInd := range s.u.SInds {
			if clock.AddDays(s.mode.IntTimeDays) > end {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			rec, err := s.observe(sInd, clock, prevStar, prevTime)
			if err != nil {
				return nil, err
			}
			drm = append(drm, rec)
			metrics.ObservationMade()

			prevStar = sInd
			prevTime = clock
			clock = clock.AddDays(s.mode.IntTimeDays + s.mode.OverheadDays)
		}
	}

	if len(drm) == 0 {
		return nil, fmt.Errorf("sim: mission life of %g days fits no observation", s.lifeDays)
	}

	run := &results.Run{
		MissionStartMJD: start.Days(),
		DRM:             drm,
		Systems:         s.snapshot(),
	}
	s.logger.Info().
		Int("observations", len(drm)).
		Int(log.FieldDetections, run.Detections()).
		Float64("mission_days", clock.Sub(start)).
		Msg("survey complete")
	return run, nil
}

// observe points at star sInd at arrival time t and evaluates every planet
// of the system against the observing mode.
func (s *Simulation) observe(sInd int, t astro.MJD, prevStar int, prevTime astro.MJD) (results.DRMRecord, error) {
	rec := results.DRMRecord{
		StarInd:     sInd,
		ArrivalMJD:  t.Days(),
		DetTimeDays: s.mode.IntTimeDays,
	}

	if prevStar >= 0 {
		slew, _, _, _, err := s.obs.LookVectors(s.tl, prevStar, sInd, prevTime, t)
		if err != nil {
			return rec, fmt.Errorf("sim: slew to star %d: %w", sInd, err)
		}
		rec.SlewDeg = slew
	}

	rec.DetFZ = s.fzStar[sInd]
	dist := s.tl.Stars[sInd].DistPC

	// Observables at the integration midpoint.
	mid := t.AddDays(s.mode.IntTimeDays / 2)
	for _, k := range s.u.PlanetsOfStar(sInd) {
		sep, r := s.u.ProjectedSeparation(k, mid)
		beta := s.u.PhaseAngle(k, mid)

		wa := sep / dist // arcsec, small-angle
		dmag := deltaMag(s.u.Albedo[k], s.u.RadEarth[k]*earthRadiusAU, r, beta)

		rec.PlanInds = append(rec.PlanInds, k)
		rec.DetParams.WAArcsec = append(rec.DetParams.WAArcsec, wa)
		rec.DetParams.DMag = append(rec.DetParams.DMag, dmag)
		rec.DetParams.DistAU = append(rec.DetParams.DistAU, r)
		rec.DetParams.FEZ = append(rec.DetParams.FEZ, s.fezPlan[k])

		status, snr := s.evaluate(sInd, k, wa, dmag)
		rec.DetStatus = append(rec.DetStatus, status)
		rec.DetSNR = append(rec.DetSNR, snr)
	}
	return rec, nil
}

// evaluate classifies one planet observation and returns its status and SNR.
func (s *Simulation) evaluate(sInd, k int, waArcsec, dmag float64) (int, float64) {
	if waArcsec < s.mode.IWAArcsec {
		return results.StatusBelowIWA, 0
	}
	if waArcsec > s.mode.OWAArcsec {
		return results.StatusBeyondOWA, 0
	}
	snr := s.snr(sInd, k, dmag)
	if snr >= s.mode.SNRTarget {
		return results.StatusDetected, snr
	}
	return results.StatusMissed, snr
}

// snr is the photon-noise signal-to-noise ratio of planet k against the
// local plus exozodiacal background over the mode's integration time.
func (s *Simulation) snr(sInd, k int, dmag float64) float64 {
	mv := s.tl.Stars[sInd].MV
	cp := s.mode.CountRateZero * math.Pow(10, -0.4*(mv+dmag))

	fsky := s.fzStar[sInd] + s.fezPlan[k]
	cb := s.mode.CountRateZero * math.Pow(10, -0.4*s.mode.ZodiMag) * fsky * s.mode.SkyAreaArcsec2

	t := s.mode.IntTimeDays * astro.SecondsPerDay
	return cp * t / math.Sqrt((cp+cb)*t)
}

// deltaMag is the star-planet magnitude difference for geometric albedo p,
// planet radius rp (AU), orbital radius r (AU) and phase angle beta (rad).
func deltaMag(p, rp, r, beta float64) float64 {
	flux := p * (rp / r) * (rp / r) * lambertPhase(beta)
	return -2.5 * math.Log10(flux)
}

// lambertPhase is the Lambert phase function, 1 at full phase and 0 at
// beta = pi.
func lambertPhase(beta float64) float64 {
	return (math.Sin(beta) + (math.Pi-beta)*math.Cos(beta)) / math.Pi
}

func (s *Simulation) snapshot() results.Systems {
	return results.Systems{
		SMA:        append([]float64(nil), s.u.SMA...),
		Eccen:      append([]float64(nil), s.u.Eccen...),
		Albedo:     append([]float64(nil), s.u.Albedo...),
		RadEarth:   append([]float64(nil), s.u.RadEarth...),
		MassEarth:  append([]float64(nil), s.u.MassEarth...),
		Star:       append([]string(nil), s.u.StarNames...),
		PlanToStar: append([]int(nil), s.u.PlanToStar...),
	}
}
