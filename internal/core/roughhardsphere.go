package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// RoughHardSphere extends the hard sphere with tangential restitution,
// coupling the collision to the particles' spin.
type RoughHardSphere struct {
	interactionBase
	diameter     float64
	elasticity   float64
	tangentialE  float64
}

func NewRoughHardSphere(sim *Simulation, diameter, elasticity, tangentialE float64, rng PairRange, name string) *RoughHardSphere {
	return &RoughHardSphere{
		interactionBase: interactionBase{sim: sim, name: name, rng: rng},
		diameter:        diameter,
		elasticity:      elasticity,
		tangentialE:     tangentialE,
	}
}

func (h *RoughHardSphere) Diameter() float64    { return h.diameter }
func (h *RoughHardSphere) Elasticity() float64  { return h.elasticity }
func (h *RoughHardSphere) TangentialE() float64 { return h.tangentialE }

func (h *RoughHardSphere) Initialise(id int) error {
	h.id = id
	if !h.sim.Dyn.Orientation {
		return configErrorf("interaction %q requires orientation-capable dynamics", h.name)
	}
	return nil
}

func (h *RoughHardSphere) MaxIntDist() float64 { return h.diameter }

func (h *RoughHardSphere) ExcludedVolume(id int) float64 {
	d := h.diameter
	return math.Pi * d * d * d / 6
}

func (h *RoughHardSphere) RescaleLengths(factor float64) { h.diameter *= factor }

func (h *RoughHardSphere) GetEvent(p1, p2 int) event.Event {
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

func (h *RoughHardSphere) RunEvent(ev event.Event) error {
	sigma := h.sim.Dyn.EffectiveDiameter(h.diameter, h.sim.SysTime)
	data := h.sim.Dyn.RunRoughSphereCollision(ev.P1, ev.P2, h.elasticity, h.tangentialE, sigma)
	h.sim.eventExecuted(ev, data)
	return nil
}

func (h *RoughHardSphere) ValidateState(p1, p2 int) int {
	rij, _ := h.sim.Dyn.PairSeparation(p1, p2)
	if normOf(rij) < h.diameter*(1-overlapTolerance) {
		return 1
	}
	return 0
}
