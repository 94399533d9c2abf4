package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// HardSphere is the impulsive hard-core pair interaction.
type HardSphere struct {
	interactionBase
	diameter   float64
	elasticity float64
}

func NewHardSphere(sim *Simulation, diameter, elasticity float64, rng PairRange, name string) *HardSphere {
	return &HardSphere{
		interactionBase: interactionBase{sim: sim, name: name, rng: rng},
		diameter:        diameter,
		elasticity:      elasticity,
	}
}

func (h *HardSphere) Diameter() float64   { return h.diameter }
func (h *HardSphere) Elasticity() float64 { return h.elasticity }

func (h *HardSphere) MaxIntDist() float64 { return h.diameter }

func (h *HardSphere) ExcludedVolume(id int) float64 {
	d := h.diameter
	return math.Pi * d * d * d / 6
}

func (h *HardSphere) RescaleLengths(factor float64) { h.diameter *= factor }

func (h *HardSphere) GetEvent(p1, p2 int) event.Event {
	s := h.sim
	s.Dyn.UpdateParticle(p1, s.SysTime)
	s.Dyn.UpdateParticle(p2, s.SysTime)

	rij, vij := s.Dyn.PairSeparation(p1, p2)
	dyn1 := s.Store.Particles[p1].Dynamic
	dyn2 := s.Store.Particles[p2].Dynamic

	dt, ok := s.Dyn.SphereSphereInRoot(rij, vij, h.diameter, dyn1, dyn2, s.SysTime)
	if !ok {
		return event.NewNone()
	}
	return s.pairEvent(dt, event.Core, p1, p2, h.id)
}

func (h *HardSphere) RunEvent(ev event.Event) error {
	if ev.Type != event.Core {
		return NumericalError{EventCount: h.sim.EventCount, Msg: "unknown hard-sphere event type " + ev.Type.String()}
	}
	sigma := h.sim.Dyn.EffectiveDiameter(h.diameter, h.sim.SysTime)
	data := h.sim.Dyn.RunSmoothSphereCollision(ev.P1, ev.P2, h.elasticity, sigma)
	h.sim.eventExecuted(ev, data)
	return nil
}

func (h *HardSphere) ValidateState(p1, p2 int) int {
	rij, _ := h.sim.Dyn.PairSeparation(p1, p2)
	sigma := h.sim.Dyn.EffectiveDiameter(h.diameter, h.sim.SysTime)
	if normOf(rij) < sigma*(1-overlapTolerance) {
		return 1
	}
	return 0
}
