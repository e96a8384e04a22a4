// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package physmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlbedoFromSMA(t *testing.T) {
	assert.Equal(t, 0.367, AlbedoFromSMA(1.0))
	assert.Equal(t, 0.367, AlbedoFromSMA(30.0))
}

func TestRadiusMassRoundTrip(t *testing.T) {
	tests := []struct {
		mass   float64
		radius float64
	}{
		{mass: 1, radius: 1},
		{mass: 8, radius: 2},
		{mass: 317.83, radius: 6.825},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.radius, RadiusFromMass(tt.mass), 1e-3)
		assert.InDelta(t, tt.mass, MassFromRadius(RadiusFromMass(tt.mass)), 1e-9)
	}
}

func TestNonPositiveInputs(t *testing.T) {
	assert.Zero(t, RadiusFromMass(0))
	assert.Zero(t, RadiusFromMass(-1))
	assert.Zero(t, MassFromRadius(0))
	assert.Zero(t, MassFromRadius(-2))
}
