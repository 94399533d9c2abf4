package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// Dumbbells models rigid pairs of spheres: each particle carries two
// spheres of the given radius offset half the length along its director.
// A bounding-sphere capture map brackets the expensive oriented search.
type Dumbbells struct {
	interactionBase
	length     float64
	radius     float64
	elasticity float64
	captured   *CaptureMap
}

func NewDumbbells(sim *Simulation, length, radius, elasticity float64, rng PairRange, name string) *Dumbbells {
	return &Dumbbells{
		interactionBase: interactionBase{sim: sim, name: name, rng: rng},
		length:          length,
		radius:          radius,
		elasticity:      elasticity,
		captured:        NewCaptureMap(),
	}
}

func (d *Dumbbells) Length() float64     { return d.length }
func (d *Dumbbells) Radius() float64     { return d.radius }
func (d *Dumbbells) Elasticity() float64 { return d.elasticity }

func (d *Dumbbells) MaxIntDist() float64 { return d.length + 2*d.radius }

func (d *Dumbbells) ExcludedVolume(id int) float64 {
	r := d.radius
	return 2 * (4.0 / 3.0) * math.Pi * r * r * r
}

func (d *Dumbbells) RescaleLengths(factor float64) {
	d.length *= factor
	d.radius *= factor
}

func (d *Dumbbells) Captured(p1, p2 int) bool { return d.captured.Has(p1, p2) }
func (d *Dumbbells) CaptureMap() *CaptureMap  { return d.captured }

func (d *Dumbbells) CaptureTest(p1, p2 int) bool {
	rij, _ := d.sim.Dyn.PairSeparation(p1, p2)
	return normOf(rij) <= d.MaxIntDist()
}

func (d *Dumbbells) Initialise(id int) error {
	d.id = id
	if !d.sim.Dyn.Orientation {
		return configErrorf("interaction %q requires orientation-capable dynamics", d.name)
	}
	if d.captured.Len() == 0 {
		n := d.sim.Store.N()
		for p1 := 0; p1 < n; p1++ {
			for p2 := p1 + 1; p2 < n; p2++ {
				if d.Matches(p1, p2) && d.CaptureTest(p1, p2) {
					d.captured.Add(p1, p2)
				}
			}
		}
	}
	return nil
}

func (d *Dumbbells) GetEvent(p1, p2 int) event.Event {
	s := d.sim
	s.Dyn.UpdateParticle(p1, s.SysTime)
	s.Dyn.UpdateParticle(p2, s.SysTime)

	rij, vij := s.Dyn.PairSeparation(p1, p2)
	dyn1 := s.Store.Particles[p1].Dynamic
	dyn2 := s.Store.Particles[p2].Dynamic
	bound := d.MaxIntDist()

	if d.captured.Has(p1, p2) {
		// The bounding-sphere escape caps the oriented core search.
		dtOut, okOut := s.Dyn.SphereSphereOutRoot(rij, vij, bound, dyn1, dyn2, s.SysTime)
		if !okOut {
			dtOut = math.Inf(1)
		}
		if dt, ok := s.Dyn.OffCenterSphereCollisionTime(p1, p2, d.length, d.radius, dtOut); ok {
			return s.pairEvent(dt, event.Core, p1, p2, d.id)
		}
		if okOut {
			return s.pairEvent(dtOut, event.WellOut, p1, p2, d.id)
		}
		return event.NewNone()
	}

	if dt, ok := s.Dyn.SphereSphereInRoot(rij, vij, bound, dyn1, dyn2, s.SysTime); ok {
		return s.pairEvent(dt, event.WellIn, p1, p2, d.id)
	}
	return event.NewNone()
}

func (d *Dumbbells) RunEvent(ev event.Event) error {
	s := d.sim
	switch ev.Type {
	case event.Core:
		data := s.Dyn.RunOffCenterSphereCollision(ev.P1, ev.P2, d.elasticity, d.length, d.radius)
		s.eventExecuted(ev, data)

	case event.WellIn:
		// Pure bookkeeping: the bounding spheres overlapping carries no
		// impulse.
		d.captured.Add(ev.P1, ev.P2)
		s.virtualEventExecuted(ev)

	case event.WellOut:
		d.captured.Remove(ev.P1, ev.P2)
		s.virtualEventExecuted(ev)

	default:
		return NumericalError{EventCount: s.EventCount, Msg: "unknown dumbbell event type " + ev.Type.String()}
	}
	return nil
}

func (d *Dumbbells) ValidateState(p1, p2 int) int {
	inside := d.CaptureTest(p1, p2)
	if inside != d.captured.Has(p1, p2) {
		return 1
	}
	return 0
}
