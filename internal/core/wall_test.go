package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/dynamics"
	"github.com/san-kum/dynamo/internal/particle"
)

// newBouncerSim drops one particle onto a floor at y=0 under unit
// gravity.
func newBouncerSim(t *testing.T, height float64) *Simulation {
	t.Helper()

	sim := NewSimulation("bouncer")
	store := particle.NewStore(1)
	store.Particles[0].Pos = r3.Vec{Y: height}

	box := r3.Vec{X: 100, Y: 100, Z: 100}
	bc := boundary.New(boundary.None, box)
	if err := sim.SetParticles(store, box); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetBC(bc); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddSpecies(particle.Species{Name: "A", Begin: 0, End: 1, Mass: 1}); err != nil {
		t.Fatal(err)
	}
	dyn := dynamics.New(dynamics.NewtonianGravity, store, sim.SpeciesList, bc)
	dyn.Gravity = r3.Vec{Y: -1}
	sim.SetDynamics(dyn)
	if err := sim.AddInteraction(NewHardSphere(sim, 1, 1, PairAll{}, "Bulk")); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddLocal(NewWall(sim, r3.Vec{}, r3.Vec{Y: 1}, 1.0, RangeAll{}, "Floor")); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetScheduler(SchedulerDumb); err != nil {
		t.Fatal(err)
	}
	return sim
}

func TestWallBounceUnderGravity(t *testing.T) {
	sim := newBouncerSim(t, 2.0)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	// Free fall from rest at height 2 under g=1: impact at t=2 with
	// speed 2.
	if _, err := sim.RunSimulationStep(true); err != nil {
		t.Fatal(err)
	}
	if math.Abs(sim.SysTime-2.0) > 1e-10 {
		t.Fatalf("expected wall impact at t=2, got %v", sim.SysTime)
	}
	if math.Abs(sim.Store.Particles[0].Vel.Y-2.0) > 1e-10 {
		t.Errorf("expected reflected velocity +2, got %v", sim.Store.Particles[0].Vel.Y)
	}

	// An elastic bouncer conserves total energy across many bounces
	// (the parabola sentinel fires between impacts).
	energy := func() float64 {
		sim.Dyn.UpdateAllParticles(sim.SysTime)
		p := sim.Store.Particles[0]
		return 0.5*r3.Norm2(p.Vel) + p.Pos.Y
	}
	e0 := energy()
	for i := 0; i < 40; i++ {
		if err := sim.Sched.RunNextEvent(); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(energy()-e0) > 1e-8 {
		t.Errorf("bouncer energy drifted from %v to %v", e0, energy())
	}
	if sim.Store.Particles[0].Pos.Y < -1e-9 {
		t.Errorf("particle fell through the floor to y=%v", sim.Store.Particles[0].Pos.Y)
	}
}

func TestAndersenWallRethermalises(t *testing.T) {
	sim := newBouncerSim(t, 2.0)
	w := sim.Locals[0].(*Wall)
	w.Temperature = 1.0
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	if _, err := sim.RunSimulationStep(true); err != nil {
		t.Fatal(err)
	}
	// The re-emitted velocity points away from the wall.
	if sim.Store.Particles[0].Vel.Y <= 0 {
		t.Errorf("thermal wall emitted into the floor: %v", sim.Store.Particles[0].Vel.Y)
	}
}

func TestWallValidateState(t *testing.T) {
	sim := newBouncerSim(t, 2.0)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}
	if errs := sim.CheckSystem(); errs != 0 {
		t.Errorf("particle above the wall flagged %d errors", errs)
	}

	sim.Store.Particles[0].Pos = r3.Vec{Y: -1}
	if errs := sim.CheckSystem(); errs == 0 {
		t.Error("expected a penetration to be flagged")
	}
}
