package units

import (
	"math"
	"testing"
)

func TestDerivedScales(t *testing.T) {
	u := Units{Length: 2, Time: 4, Mass: 3}

	if u.Velocity() != 0.5 {
		t.Errorf("expected velocity scale 0.5, got %f", u.Velocity())
	}
	if u.Energy() != 3*0.25 {
		t.Errorf("expected energy scale 0.75, got %f", u.Energy())
	}
	if u.Volume() != 8 {
		t.Errorf("expected volume scale 8, got %f", u.Volume())
	}
}

func TestRescalePreservesVelocity(t *testing.T) {
	u := Default()
	v0 := u.Velocity()

	u.RescaleLength(1.5)
	u.RescaleTime(1.5)

	if math.Abs(u.Velocity()-v0) > 1e-15 {
		t.Errorf("velocity scale changed by length/time rescale: %f -> %f", v0, u.Velocity())
	}
}
