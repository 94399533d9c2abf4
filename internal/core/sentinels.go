package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/event"
)

// PBCSentinel forces a resync event before any particle can travel half
// the primary image in one free flight, which would alias its periodic
// image in the minimum-image convention.
type PBCSentinel struct {
	sim  *Simulation
	name string
	id   int
}

func NewPBCSentinel(sim *Simulation, name string) *PBCSentinel {
	return &PBCSentinel{sim: sim, name: name}
}

func (g *PBCSentinel) Name() string            { return g.name }
func (g *PBCSentinel) Initialise(id int) error { g.id = id; return nil }

func (g *PBCSentinel) GetEvent(p int) event.Event {
	s := g.sim
	s.Dyn.UpdateParticle(p, s.SysTime)
	dt := s.Dyn.PBCSentinelTime(p, s.PrimaryCellSize)
	if math.IsInf(dt, 1) {
		return event.NewNone()
	}
	return event.Event{
		Time: s.SysTime + dt,
		Kind: event.KindGlobal, Type: event.VirtualPBC,
		P1: p, P2: -1, Source: g.id,
	}
}

// RunEvent only streams; rescheduling the particle renews its sentinel.
func (g *PBCSentinel) RunEvent(ev event.Event) error {
	g.sim.virtualEventExecuted(ev)
	return nil
}

// ParabolaSentinel pins particles at their trajectory apex under gravity,
// bounding the numerical drift of the quadratic free flight.
type ParabolaSentinel struct {
	sim  *Simulation
	name string
	id   int
}

func NewParabolaSentinel(sim *Simulation, name string) *ParabolaSentinel {
	return &ParabolaSentinel{sim: sim, name: name}
}

func (g *ParabolaSentinel) Name() string            { return g.name }
func (g *ParabolaSentinel) Initialise(id int) error { g.id = id; return nil }

func (g *ParabolaSentinel) GetEvent(p int) event.Event {
	s := g.sim
	s.Dyn.UpdateParticle(p, s.SysTime)
	dt := s.Dyn.ParabolaSentinelTime(p)
	if math.IsInf(dt, 1) {
		return event.NewNone()
	}
	return event.Event{
		Time: s.SysTime + dt,
		Kind: event.KindGlobal, Type: event.VirtualParabola,
		P1: p, P2: -1, Source: g.id,
	}
}

func (g *ParabolaSentinel) RunEvent(ev event.Event) error {
	g.sim.Dyn.EnforceParabola(ev.P1)
	g.sim.virtualEventExecuted(ev)
	return nil
}
