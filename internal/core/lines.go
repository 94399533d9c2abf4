package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// Lines models thin hard rods of a fixed length spinning about their
// centres. Like dumbbells, a bounding-sphere capture map brackets the
// oriented collision search.
type Lines struct {
	interactionBase
	length     float64
	elasticity float64
	captured   *CaptureMap
}

func NewLines(sim *Simulation, length, elasticity float64, rng PairRange, name string) *Lines {
	return &Lines{
		interactionBase: interactionBase{sim: sim, name: name, rng: rng},
		length:          length,
		elasticity:      elasticity,
		captured:        NewCaptureMap(),
	}
}

func (l *Lines) Length() float64     { return l.length }
func (l *Lines) Elasticity() float64 { return l.elasticity }

func (l *Lines) MaxIntDist() float64 { return l.length }

func (l *Lines) ExcludedVolume(id int) float64 { return 0 }

func (l *Lines) RescaleLengths(factor float64) { l.length *= factor }

func (l *Lines) Captured(p1, p2 int) bool { return l.captured.Has(p1, p2) }
func (l *Lines) CaptureMap() *CaptureMap  { return l.captured }

func (l *Lines) CaptureTest(p1, p2 int) bool {
	rij, _ := l.sim.Dyn.PairSeparation(p1, p2)
	return normOf(rij) <= l.length
}

func (l *Lines) Initialise(id int) error {
	l.id = id
	if !l.sim.Dyn.Orientation {
		return configErrorf("interaction %q requires orientation-capable dynamics", l.name)
	}
	if l.captured.Len() == 0 {
		n := l.sim.Store.N()
		for p1 := 0; p1 < n; p1++ {
			for p2 := p1 + 1; p2 < n; p2++ {
				if l.Matches(p1, p2) && l.CaptureTest(p1, p2) {
					l.captured.Add(p1, p2)
				}
			}
		}
	}
	return nil
}

func (l *Lines) GetEvent(p1, p2 int) event.Event {
	s := l.sim
	s.Dyn.UpdateParticle(p1, s.SysTime)
	s.Dyn.UpdateParticle(p2, s.SysTime)

	rij, vij := s.Dyn.PairSeparation(p1, p2)
	dyn1 := s.Store.Particles[p1].Dynamic
	dyn2 := s.Store.Particles[p2].Dynamic

	if l.captured.Has(p1, p2) {
		dtOut, okOut := s.Dyn.SphereSphereOutRoot(rij, vij, l.length, dyn1, dyn2, s.SysTime)
		if !okOut {
			dtOut = math.Inf(1)
		}
		if dt, ok := s.Dyn.LineLineCollisionTime(p1, p2, l.length, dtOut); ok {
			return s.pairEvent(dt, event.Core, p1, p2, l.id)
		}
		if okOut {
			return s.pairEvent(dtOut, event.WellOut, p1, p2, l.id)
		}
		return event.NewNone()
	}

	if dt, ok := s.Dyn.SphereSphereInRoot(rij, vij, l.length, dyn1, dyn2, s.SysTime); ok {
		return s.pairEvent(dt, event.WellIn, p1, p2, l.id)
	}
	return event.NewNone()
}

func (l *Lines) RunEvent(ev event.Event) error {
	s := l.sim
	switch ev.Type {
	case event.Core:
		data := s.Dyn.RunLineLineCollision(ev.P1, ev.P2, l.elasticity, l.length)
		s.eventExecuted(ev, data)

	case event.WellIn:
		l.captured.Add(ev.P1, ev.P2)
		s.virtualEventExecuted(ev)

	case event.WellOut:
		l.captured.Remove(ev.P1, ev.P2)
		s.virtualEventExecuted(ev)

	default:
		return NumericalError{EventCount: s.EventCount, Msg: "unknown line event type " + ev.Type.String()}
	}
	return nil
}

func (l *Lines) ValidateState(p1, p2 int) int {
	inside := l.CaptureTest(p1, p2)
	if inside != l.captured.Has(p1, p2) {
		return 1
	}
	return 0
}
