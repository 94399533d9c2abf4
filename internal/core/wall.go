package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/dynamics"
	"github.com/san-kum/dynamo/internal/event"
)

// Wall is a planar local: particles in its range bounce off the plane
// through Origin with inward Normal. With Temperature > 0 the wall acts
// as an Andersen thermostat, re-emitting particles with thermal
// velocities.
type Wall struct {
	sim  *Simulation
	name string
	id   int
	rng  Range

	Origin      r3.Vec
	Normal      r3.Vec
	Elasticity  float64
	Temperature float64
}

func NewWall(sim *Simulation, origin, normal r3.Vec, elasticity float64, rng Range, name string) *Wall {
	n := r3.Scale(1/r3.Norm(normal), normal)
	return &Wall{sim: sim, name: name, rng: rng, Origin: origin, Normal: n, Elasticity: elasticity}
}

func (w *Wall) Name() string             { return w.name }
func (w *Wall) Initialise(id int) error  { w.id = id; return nil }
func (w *Wall) IsInteraction(p int) bool { return w.rng.Contains(p) }
func (w *Wall) ParticleRange() Range     { return w.rng }

func (w *Wall) GetEvent(p int) event.Event {
	s := w.sim
	s.Dyn.UpdateParticle(p, s.SysTime)
	part := &s.Store.Particles[p]

	// Distance above the plane along the inward normal.
	h := r3.Dot(r3.Sub(part.Pos, w.Origin), w.Normal)
	vn := r3.Dot(part.Vel, w.Normal)

	g := 0.0
	if s.Dyn.Variant == dynamics.NewtonianGravity && part.Dynamic {
		g = r3.Dot(s.Dyn.Gravity, w.Normal)
	}

	var dt float64
	if g == 0 {
		if vn >= 0 {
			return event.NewNone()
		}
		dt = -h / vn
	} else {
		// Quadratic flight onto the plane: h + vn t + g t^2/2 = 0.
		disc := vn*vn - 2*g*h
		if disc < 0 {
			return event.NewNone()
		}
		sq := math.Sqrt(disc)
		t1 := (-vn - sq) / g
		t2 := (-vn + sq) / g
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		switch {
		case t1 > 1e-12:
			dt = t1
		case t2 > 1e-12:
			dt = t2
		default:
			return event.NewNone()
		}
	}
	if dt < 0 {
		return event.NewNone()
	}
	return event.Event{
		Time: s.SysTime + dt,
		Kind: event.KindLocal, Type: event.WallCollision,
		P1: p, P2: -1, Source: w.id,
	}
}

func (w *Wall) RunEvent(ev event.Event) error {
	s := w.sim
	var data event.PairEventData
	if w.Temperature > 0 {
		sqrtT := math.Sqrt(w.Temperature / s.Store.Mass(s.SpeciesList, ev.P1))
		data = s.Dyn.RunAndersenWallCollision(ev.P1, w.Normal, sqrtT, s.rng)
	} else {
		data = s.Dyn.RunWallCollision(ev.P1, w.Normal, w.Elasticity)
	}
	s.eventExecuted(ev, data)
	return nil
}

func (w *Wall) ValidateState(p int) int {
	part := &w.sim.Store.Particles[p]
	if r3.Dot(r3.Sub(part.Pos, w.Origin), w.Normal) < -overlapTolerance {
		return 1
	}
	return 0
}
