// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package universe builds simulated planetary systems for a survey run. The
// known-RV universe perturbs cataloged radial velocity planets by their
// published uncertainties; missing quantities fall back to population draws
// and the physical model.
package universe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// CatalogPlanet is one cataloged radial velocity planet. Pointer fields are
// nil when the catalog leaves the quantity unconstrained.
type CatalogPlanet struct {
	Hostname string `json:"hostname"`

	SMA    float64 `json:"sma_au"`
	SMAErr float64 `json:"sma_err_au"`

	Eccen    float64 `json:"eccen"`
	EccenErr float64 `json:"eccen_err"`

	InclDeg    *float64 `json:"incl_deg,omitempty"`
	InclErrDeg float64  `json:"incl_err_deg,omitempty"`

	LongPeriDeg    *float64 `json:"long_peri_deg,omitempty"`
	LongPeriErrDeg float64  `json:"long_peri_err_deg,omitempty"`

	PeriodDays    float64 `json:"period_days"`
	PeriodErrDays float64 `json:"period_err_days"`

	TPerJD      float64 `json:"tper_jd"`
	TPerErrDays float64 `json:"tper_err_days"`

	MassEarth float64 `json:"mass_earth"`

	RadiusEarth *float64 `json:"radius_earth,omitempty"`
	RadiusErr1  float64  `json:"radius_err1,omitempty"`
	RadiusErr2  float64  `json:"radius_err2,omitempty"`
}

// Catalog is a list of known RV planets.
type Catalog struct {
	Planets []CatalogPlanet
}

// LoadCatalog reads a planet catalog from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read planet catalog: %w", err)
	}
	var planets []CatalogPlanet
	if err := json.Unmarshal(buf, &planets); err != nil {
		return nil, fmt.Errorf("parse planet catalog: %w", err)
	}
	c := &Catalog{Planets: planets}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.Planets) == 0 {
		return errors.New("universe: planet catalog is empty")
	}
	for i, p := range c.Planets {
		if p.Hostname == "" {
			return fmt.Errorf("universe: planet %d has no host name", i)
		}
		if p.SMA <= 0 {
			return fmt.Errorf("universe: planet %d (%s) has non-positive sma", i, p.Hostname)
		}
		if p.PeriodDays <= 0 {
			return fmt.Errorf("universe: planet %d (%s) has non-positive period", i, p.Hostname)
		}
		if p.MassEarth <= 0 {
			return fmt.Errorf("universe: planet %d (%s) has non-positive mass", i, p.Hostname)
		}
	}
	return nil
}

// ByHost returns the catalog indices of planets orbiting the named host.
func (c *Catalog) ByHost(name string) []int {
	var inds []int
	for i, p := range c.Planets {
		if p.Hostname == name {
			inds = append(inds, i)
		}
	}
	return inds
}
