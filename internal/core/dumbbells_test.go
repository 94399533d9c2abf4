package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/dynamics"
	"github.com/san-kum/dynamo/internal/particle"
)

func newDumbbellSim(t *testing.T) *Simulation {
	t.Helper()

	sim := NewSimulation("dumbbells")
	store := particle.NewStore(2)
	store.Particles[0].Pos = r3.Vec{X: -1.5}
	store.Particles[0].Vel = r3.Vec{X: 0.5}
	store.Particles[1].Pos = r3.Vec{X: 1.5}
	store.Particles[1].Vel = r3.Vec{X: -0.5}

	box := r3.Vec{X: 100, Y: 100, Z: 100}
	bc := boundary.New(boundary.None, box)
	if err := sim.SetParticles(store, box); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetBC(bc); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddSpecies(particle.Species{Name: "Rods", Begin: 0, End: 2, Mass: 1, Inertia: 0.05}); err != nil {
		t.Fatal(err)
	}
	dyn := dynamics.New(dynamics.Newtonian, store, sim.SpeciesList, bc)
	dyn.EnableOrientation()
	store.Orientations[0].U = r3.Vec{Y: 1}
	store.Orientations[1].U = r3.Vec{X: 1}
	sim.SetDynamics(dyn)

	if err := sim.AddInteraction(NewDumbbells(sim, 0.5, 0.25, 1.0, PairAll{}, "Pairs")); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetScheduler(SchedulerDumb); err != nil {
		t.Fatal(err)
	}
	return sim
}

func TestDumbbellCaptureAndCoreCollision(t *testing.T) {
	sim := newDumbbellSim(t)
	if err := sim.Initialise(); err != nil {
		t.Fatal(err)
	}

	db := sim.Interactions[0].(*Dumbbells)
	if db.Captured(0, 1) {
		t.Fatal("separated dumbbells must start uncaptured")
	}

	p0 := sim.Dyn.Momentum()
	ke0 := sim.Dyn.KineticEnergy()

	// Bounding-sphere entry is pure bookkeeping: no impulse, no event
	// count.
	if err := sim.Sched.RunNextEvent(); err != nil {
		t.Fatal(err)
	}
	if !db.Captured(0, 1) {
		t.Fatal("expected bounding-sphere capture")
	}
	if sim.EventCount != 0 {
		t.Errorf("capture must not count as an event, got %d", sim.EventCount)
	}
	if sim.Store.Particles[0].Vel != (r3.Vec{X: 0.5}) {
		t.Error("capture must not change velocities")
	}

	// The core impact follows within the bounding sphere.
	for i := 0; i < 10 && sim.EventCount == 0; i++ {
		if err := sim.Sched.RunNextEvent(); err != nil {
			t.Fatal(err)
		}
	}
	if sim.EventCount != 1 {
		t.Fatalf("expected a core collision, ran to t=%v with %d events", sim.SysTime, sim.EventCount)
	}

	// The off-centre impulse conserves linear momentum and, with unit
	// restitution, energy; some of it lands in rotation.
	p1 := sim.Dyn.Momentum()
	if r3.Norm(r3.Sub(p1, p0)) > 1e-10 {
		t.Errorf("momentum drifted by %v", r3.Norm(r3.Sub(p1, p0)))
	}
	if math.Abs(sim.Dyn.KineticEnergy()-ke0)/ke0 > 1e-6 {
		t.Errorf("energy drifted from %v to %v", ke0, sim.Dyn.KineticEnergy())
	}
	if sim.Store.Particles[0].Vel.X >= 0.5-1e-12 {
		t.Error("core impact did not slow the approach")
	}
}
