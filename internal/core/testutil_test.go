package core

import (
	"io"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/dynamics"
	"github.com/san-kum/dynamo/internal/event"
	"github.com/san-kum/dynamo/internal/particle"
)

// newGasSim builds an initialisable hard-sphere gas: a simple cubic
// lattice of side cells in a cubic box, random velocities with the centre
// of mass at rest.
func newGasSim(t *testing.T, side int, boxL, diameter float64, seed int64) *Simulation {
	t.Helper()

	n := side * side * side
	sim := NewSimulation("test-gas")
	store := particle.NewStore(n)

	spacing := boxL / float64(side)
	if spacing <= diameter {
		t.Fatalf("lattice spacing %.3g under diameter %.3g", spacing, diameter)
	}
	rng := rand.New(rand.NewSource(seed))
	id := 0
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				store.Particles[id].Pos = r3.Vec{
					X: -boxL/2 + (float64(x)+0.5)*spacing,
					Y: -boxL/2 + (float64(y)+0.5)*spacing,
					Z: -boxL/2 + (float64(z)+0.5)*spacing,
				}
				store.Particles[id].Vel = r3.Vec{
					X: rng.NormFloat64(),
					Y: rng.NormFloat64(),
					Z: rng.NormFloat64(),
				}
				id++
			}
		}
	}

	box := r3.Vec{X: boxL, Y: boxL, Z: boxL}
	bc := boundary.New(boundary.Periodic, box)

	if err := sim.SetParticles(store, box); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetBC(bc); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddSpecies(particle.Species{Name: "Bulk", Begin: 0, End: n, Mass: 1}); err != nil {
		t.Fatal(err)
	}
	sim.SetDynamics(dynamics.New(dynamics.Newtonian, store, sim.SpeciesList, bc))
	if err := sim.AddInteraction(NewHardSphere(sim, diameter, 1.0, PairAll{}, "Bulk")); err != nil {
		t.Fatal(err)
	}
	sim.SetCOMVelocity(r3.Vec{})
	return sim
}

// newPairSim builds two particles on the x axis with open boundaries and
// the brute-force scheduler.
func newPairSim(t *testing.T, x1, v1, x2, v2 float64, intr func(*Simulation) Interaction) *Simulation {
	t.Helper()

	sim := NewSimulation("test-pair")
	store := particle.NewStore(2)
	store.Particles[0].Pos = r3.Vec{X: x1}
	store.Particles[0].Vel = r3.Vec{X: v1}
	store.Particles[1].Pos = r3.Vec{X: x2}
	store.Particles[1].Vel = r3.Vec{X: v2}

	box := r3.Vec{X: 100, Y: 100, Z: 100}
	bc := boundary.New(boundary.None, box)

	if err := sim.SetParticles(store, box); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetBC(bc); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddSpecies(particle.Species{Name: "A", Begin: 0, End: 2, Mass: 1}); err != nil {
		t.Fatal(err)
	}
	sim.SetDynamics(dynamics.New(dynamics.Newtonian, store, sim.SpeciesList, bc))
	if err := sim.AddInteraction(intr(sim)); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetScheduler(SchedulerDumb); err != nil {
		t.Fatal(err)
	}
	return sim
}

// loneParticleSim is a single particle drifting through a periodic box:
// every event it sees is virtual.
func loneParticleSim(t *testing.T, sim *Simulation) *Simulation {
	t.Helper()

	store := particle.NewStore(1)
	store.Particles[0].Vel = r3.Vec{X: 1.5, Y: 0.3}

	box := r3.Vec{X: 10, Y: 10, Z: 10}
	bc := boundary.New(boundary.Periodic, box)

	if err := sim.SetParticles(store, box); err != nil {
		t.Fatal(err)
	}
	if err := sim.SetBC(bc); err != nil {
		t.Fatal(err)
	}
	if err := sim.AddSpecies(particle.Species{Name: "A", Begin: 0, End: 1, Mass: 1}); err != nil {
		t.Fatal(err)
	}
	sim.SetDynamics(dynamics.New(dynamics.Newtonian, store, sim.SpeciesList, bc))
	if err := sim.AddInteraction(NewHardSphere(sim, 1.0, 1.0, PairAll{}, "Bulk")); err != nil {
		t.Fatal(err)
	}
	return sim
}

// recorder captures the executed event stream for assertions.
type recorder struct {
	events []string
}

func (r *recorder) Name() string                                      { return "recorder" }
func (r *recorder) Initialise() error                                 { return nil }
func (r *recorder) EventUpdate(ev event.Event, _ event.PairEventData) { r.events = append(r.events, ev.Type.String()) }
func (r *recorder) PeriodicOutput(io.Writer)                          {}
func (r *recorder) Output() any                                       { return nil }
func (r *recorder) ReplicaExchange(OutputPlugin)                      {}
func (r *recorder) TemperatureRescale(float64)                        {}
