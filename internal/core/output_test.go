package core

import (
	"math"
	"strings"
	"testing"
)

func TestMiscTracksEventsAndMFT(t *testing.T) {
	sim := newGasSim(t, 3, 10, 1.0, 77)
	misc := NewMisc(sim)
	if err := sim.AddOutputPlugin(misc); err != nil {
		t.Fatal(err)
	}
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	if !math.IsInf(misc.MFT(), 1) {
		t.Error("MFT must be infinite before any collision")
	}

	for sim.EventCount < 20 {
		if _, err := sim.RunSimulationStep(true); err != nil {
			t.Fatal(err)
		}
	}

	mft := misc.MFT()
	if math.IsInf(mft, 1) || mft <= 0 {
		t.Errorf("expected a finite positive MFT, got %v", mft)
	}

	var sb strings.Builder
	misc.PeriodicOutput(&sb)
	if !strings.Contains(sb.String(), "events=") {
		t.Errorf("periodic output missing counters: %q", sb.String())
	}

	out, ok := misc.Output().(miscOutput)
	if !ok {
		t.Fatalf("unexpected output payload %T", misc.Output())
	}
	if out.Events != sim.EventCount {
		t.Errorf("output events %d, want %d", out.Events, sim.EventCount)
	}
}

func TestVelDistTicksThroughSystemTicker(t *testing.T) {
	sim := newGasSim(t, 3, 10, 1.0, 88)
	vd := NewVelDist(sim, 0.05)
	if err := sim.AddOutputPlugin(vd); err != nil {
		t.Fatal(err)
	}
	sim.LastRunMFT = 0.1 // ticker period
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	// A ticker plugin forces the SystemTicker in.
	if !sim.hasSystem("SystemTicker") {
		t.Fatal("ticker plugin did not register a system ticker")
	}

	for i := 0; i < 300; i++ {
		if _, err := sim.RunSimulationStep(true); err != nil {
			t.Fatal(err)
		}
	}

	out, ok := vd.Output().(velDistOutput)
	if !ok {
		t.Fatalf("unexpected output payload %T", vd.Output())
	}
	if len(out.Species) == 0 {
		t.Fatal("expected sampled species after ticker events")
	}
	dims := out.Species[0].Dimensions
	if len(dims) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(dims))
	}
	if len(dims[0].Bins) == 0 {
		t.Error("expected populated histogram bins")
	}
	// Normalised by the thermal velocity, the per-axis spread is near 1.
	if math.Abs(dims[0].StdDev-1.0) > 0.5 {
		t.Errorf("normalised velocity spread %v far from 1", dims[0].StdDev)
	}
}
