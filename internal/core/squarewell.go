package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// SquareWell is a stepped potential: a hard core of the given diameter
// surrounded by an attractive well out to lambda times the diameter.
// Captured pairs sit inside the well; the capture map is the authoritative
// record of which side of the step each pair is on.
type SquareWell struct {
	interactionBase
	diameter   float64
	lambda     float64
	wellDepth  float64
	elasticity float64
	captured   *CaptureMap
}

func NewSquareWell(sim *Simulation, diameter, lambda, wellDepth, elasticity float64, rng PairRange, name string) *SquareWell {
	return &SquareWell{
		interactionBase: interactionBase{sim: sim, name: name, rng: rng},
		diameter:        diameter,
		lambda:          lambda,
		wellDepth:       wellDepth,
		elasticity:      elasticity,
		captured:        NewCaptureMap(),
	}
}

func (w *SquareWell) Diameter() float64   { return w.diameter }
func (w *SquareWell) Lambda() float64     { return w.lambda }
func (w *SquareWell) WellDepth() float64  { return w.wellDepth }
func (w *SquareWell) Elasticity() float64 { return w.elasticity }

func (w *SquareWell) MaxIntDist() float64 { return w.lambda * w.diameter }

func (w *SquareWell) ExcludedVolume(id int) float64 {
	d := w.diameter
	return math.Pi * d * d * d / 6
}

func (w *SquareWell) InternalEnergy() float64 {
	return -w.wellDepth * float64(w.captured.Len())
}

func (w *SquareWell) RescaleLengths(factor float64) { w.diameter *= factor }

func (w *SquareWell) Captured(p1, p2 int) bool { return w.captured.Has(p1, p2) }
func (w *SquareWell) CaptureMap() *CaptureMap  { return w.captured }

// CaptureTest reports whether the pair's separation is inside the well
// right now; Initialise uses it to seed the capture map when none was
// loaded.
func (w *SquareWell) CaptureTest(p1, p2 int) bool {
	rij, _ := w.sim.Dyn.PairSeparation(p1, p2)
	wellR := w.sim.Dyn.EffectiveDiameter(w.lambda*w.diameter, w.sim.SysTime)
	return normOf(rij) <= wellR
}

func (w *SquareWell) Initialise(id int) error {
	w.id = id
	if w.captured.Len() > 0 {
		return nil
	}
	n := w.sim.Store.N()
	for p1 := 0; p1 < n; p1++ {
		for p2 := p1 + 1; p2 < n; p2++ {
			if w.Matches(p1, p2) && w.CaptureTest(p1, p2) {
				w.captured.Add(p1, p2)
			}
		}
	}
	return nil
}

func (w *SquareWell) GetEvent(p1, p2 int) event.Event {
	s := w.sim
	s.Dyn.UpdateParticle(p1, s.SysTime)
	s.Dyn.UpdateParticle(p2, s.SysTime)

	rij, vij := s.Dyn.PairSeparation(p1, p2)
	dyn1 := s.Store.Particles[p1].Dynamic
	dyn2 := s.Store.Particles[p2].Dynamic

	if w.captured.Has(p1, p2) {
		// Inside: the next event is the core impact, or failing that
		// the attempt on the well boundary.
		if dt, ok := s.Dyn.SphereSphereInRoot(rij, vij, w.diameter, dyn1, dyn2, s.SysTime); ok {
			if dtOut, okOut := s.Dyn.SphereSphereOutRoot(rij, vij, w.lambda*w.diameter, dyn1, dyn2, s.SysTime); !okOut || dt <= dtOut {
				return s.pairEvent(dt, event.Core, p1, p2, w.id)
			}
		}
		if dt, ok := s.Dyn.SphereSphereOutRoot(rij, vij, w.lambda*w.diameter, dyn1, dyn2, s.SysTime); ok {
			return s.pairEvent(dt, event.WellOut, p1, p2, w.id)
		}
		return event.NewNone()
	}

	if dt, ok := s.Dyn.SphereSphereInRoot(rij, vij, w.lambda*w.diameter, dyn1, dyn2, s.SysTime); ok {
		return s.pairEvent(dt, event.WellIn, p1, p2, w.id)
	}
	return event.NewNone()
}

func (w *SquareWell) RunEvent(ev event.Event) error {
	s := w.sim
	switch ev.Type {
	case event.Core:
		sigma := s.Dyn.EffectiveDiameter(w.diameter, s.SysTime)
		data := s.Dyn.RunSmoothSphereCollision(ev.P1, ev.P2, w.elasticity, sigma)
		s.eventExecuted(ev, data)

	case event.WellIn:
		wellR := s.Dyn.EffectiveDiameter(w.lambda*w.diameter, s.SysTime)
		data, _ := s.Dyn.RunSphereWellEvent(ev.P1, ev.P2, wellR, w.wellDepth)
		w.captured.Add(ev.P1, ev.P2)
		s.eventExecuted(ev, data)

	case event.WellOut:
		wellR := s.Dyn.EffectiveDiameter(w.lambda*w.diameter, s.SysTime)
		data, inside := s.Dyn.RunSphereWellEvent(ev.P1, ev.P2, wellR, -w.wellDepth)
		if !inside {
			w.captured.Remove(ev.P1, ev.P2)
		}
		s.eventExecuted(ev, data)

	default:
		return NumericalError{EventCount: s.EventCount, Msg: "unknown square-well event type " + ev.Type.String()}
	}
	return nil
}

func (w *SquareWell) ValidateState(p1, p2 int) int {
	rij, _ := w.sim.Dyn.PairSeparation(p1, p2)
	r := normOf(rij)
	sigma := w.sim.Dyn.EffectiveDiameter(w.diameter, w.sim.SysTime)
	wellR := w.sim.Dyn.EffectiveDiameter(w.lambda*w.diameter, w.sim.SysTime)

	errs := 0
	if r < sigma*(1-overlapTolerance) {
		errs++
	}
	if w.captured.Has(p1, p2) {
		if r > wellR*(1+overlapTolerance) {
			errs++
		}
	} else if r < wellR*(1-overlapTolerance) {
		errs++
	}
	return errs
}
