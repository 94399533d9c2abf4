package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestTwoSpheresHeadOn(t *testing.T) {
	// Unit-speed approach from +-2 with contact at separation 2: the
	// impact lands at exactly t=1 and the velocities negate.
	sim := newPairSim(t, -2, 1, 2, -1, func(s *Simulation) Interaction {
		return NewHardSphere(s, 2.0, 1.0, PairAll{}, "Bulk")
	})
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	more, err := sim.RunSimulationStep(true)
	if err != nil {
		t.Fatal(err)
	}
	if !more {
		t.Fatal("event budget exhausted after one event")
	}

	if math.Abs(sim.SysTime-1.0) > 1e-12 {
		t.Errorf("expected first event at t=1.0, got %v", sim.SysTime)
	}
	if sim.EventCount != 1 {
		t.Errorf("expected 1 event, got %d", sim.EventCount)
	}

	v0 := sim.Store.Particles[0].Vel.X
	v1 := sim.Store.Particles[1].Vel.X
	if math.Abs(v0+1) > 1e-12 || math.Abs(v1-1) > 1e-12 {
		t.Errorf("expected negated velocities, got %v and %v", v0, v1)
	}

	// The pair separates forever: no further events exist.
	if _, err := sim.RunSimulationStep(true); err == nil {
		t.Error("expected the event queue to run dry")
	}
}

func TestPecTimeInvariant(t *testing.T) {
	sim := newGasSim(t, 3, 10, 1.0, 7)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 200; i++ {
		if _, err := sim.RunSimulationStep(true); err != nil {
			t.Fatal(err)
		}
		for j := range sim.Store.Particles {
			if sim.Store.Particles[j].PecTime > sim.SysTime+1e-12 {
				t.Fatalf("particle %d streamed past the clock: %v > %v", j, sim.Store.Particles[j].PecTime, sim.SysTime)
			}
		}
	}
}

func TestGasConservation(t *testing.T) {
	sim := newGasSim(t, 4, 12, 1.0, 11)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	ke0 := sim.Dyn.KineticEnergy()
	p0 := sim.Dyn.Momentum()

	lastT := 0.0
	for i := 0; i < 3000; i++ {
		if _, err := sim.RunSimulationStep(true); err != nil {
			t.Fatal(err)
		}
		if sim.SysTime < lastT {
			t.Fatalf("clock went backwards: %v after %v", sim.SysTime, lastT)
		}
		lastT = sim.SysTime
	}

	drift := math.Abs(sim.Dyn.KineticEnergy()-ke0) / ke0
	if drift > 1e-9 {
		t.Errorf("kinetic energy drift %.3g over %d events", drift, sim.EventCount)
	}

	p1 := sim.Dyn.Momentum()
	dp := r3.Norm(r3.Sub(p1, p0))
	if dp > 1e-9 {
		t.Errorf("momentum drift %.3g under periodic boundaries", dp)
	}

	if errs := sim.CheckSystem(); errs != 0 {
		t.Errorf("validateState reported %d inconsistencies", errs)
	}
}

func TestCollisionCountersMatchOnExecution(t *testing.T) {
	// Indirect check of the invalidation protocol: a long run with
	// overlapping pair events must never execute a stale event, which
	// would surface as an overlap or an energy jump.
	sim := newGasSim(t, 3, 9, 1.0, 23)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}
	ke0 := sim.Dyn.KineticEnergy()
	for i := 0; i < 1500; i++ {
		if _, err := sim.RunSimulationStep(true); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(sim.Dyn.KineticEnergy()-ke0)/ke0 > 1e-9 {
		t.Error("energy drift suggests a stale event executed")
	}
	if errs := sim.CheckSystem(); errs != 0 {
		t.Errorf("%d overlaps after run", errs)
	}
}

func TestFreestreamAccumulation(t *testing.T) {
	// A lone particle sees only virtual events (cell crossings, PBC
	// sentinels); their flight time must all land in the accumulator.
	sim := NewSimulation("lone")
	sim = loneParticleSim(t, sim)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 25; i++ {
		if err := sim.Sched.RunNextEvent(); err != nil {
			t.Fatal(err)
		}
	}
	if sim.EventCount != 0 {
		t.Errorf("virtual events must not count, got %d", sim.EventCount)
	}
	if math.Abs(sim.FreestreamAcc-sim.SysTime) > 1e-12 {
		t.Errorf("freestream accumulator %v diverged from clock %v", sim.FreestreamAcc, sim.SysTime)
	}
}

func TestShutdownStopsAtBoundary(t *testing.T) {
	sim := newGasSim(t, 3, 10, 1.0, 3)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if _, err := sim.RunSimulationStep(true); err != nil {
			t.Fatal(err)
		}
	}
	sim.Shutdown()
	more, err := sim.RunSimulationStep(true)
	if err != nil {
		t.Fatal(err)
	}
	if more {
		t.Error("expected the step after shutdown to report completion")
	}
}
