package core

import (
	"fmt"
	"math"

	"github.com/san-kum/dynamo/internal/event"
	"github.com/san-kum/dynamo/internal/sorter"
)

// SchedulerKind selects the neighbour strategy: the cell-list oracle, or
// the brute-force fallback used for sheared boundaries and tiny systems.
type SchedulerKind string

const (
	SchedulerNeighbourList SchedulerKind = "NeighbourList"
	SchedulerDumb          SchedulerKind = "Dumb"
)

// Scheduler owns the sorter and drives the event loop: extract the
// earliest valid event, stream to it, execute, re-enumerate.
type Scheduler struct {
	sim    *Simulation
	kind   SchedulerKind
	sorter *sorter.Sorter
}

func newScheduler(sim *Simulation, kind SchedulerKind) *Scheduler {
	return &Scheduler{sim: sim, kind: kind}
}

func (s *Scheduler) Kind() SchedulerKind { return s.kind }

func (s *Scheduler) Initialise() error {
	s.sorter = sorter.New(s.sim.Store.N())
	s.rebuildAllEvents()
	s.RebuildSystemEvents()
	return nil
}

// rebuildAllEvents re-enumerates every particle from scratch.
func (s *Scheduler) rebuildAllEvents() {
	for id := range s.sim.Store.Particles {
		s.invalidate(id)
	}
	for id := range s.sim.Store.Particles {
		s.addEvents(id)
	}
}

// FullUpdate invalidates and re-enumerates the given particles; event
// handlers call this after changing any participant's trajectory.
func (s *Scheduler) FullUpdate(ids ...int) {
	for _, id := range ids {
		s.invalidate(id)
	}
	for _, id := range ids {
		s.addEvents(id)
	}
}

// invalidate bumps the particle's collision counter, orphaning every
// queued event that references it.
func (s *Scheduler) invalidate(id int) { s.sorter.ClearParticle(id) }

func (s *Scheduler) addEvents(id int) {
	sim := s.sim
	sim.Dyn.UpdateParticle(id, sim.SysTime)

	s.neighbourhood(id, func(q int) {
		s.AddInteractionEvent(id, q)
	})

	for _, g := range sim.Globals {
		s.PushEvent(g.GetEvent(id))
	}
	for _, l := range sim.Locals {
		if l.IsInteraction(id) {
			s.PushEvent(l.GetEvent(id))
		}
	}
}

// neighbourhood enumerates candidate partners for id.
func (s *Scheduler) neighbourhood(id int, visit func(q int)) {
	if s.kind == SchedulerNeighbourList && s.sim.Cells != nil {
		s.sim.Cells.GetParticleNeighbourhood(id, visit)
		return
	}
	for q := range s.sim.Store.Particles {
		if q != id {
			visit(q)
		}
	}
}

// AddInteractionEvent computes and queues the pair's next event under id.
func (s *Scheduler) AddInteractionEvent(id, q int) {
	ev := s.sim.GetEvent(id, q)
	if !ev.Valid() {
		return
	}
	if ev.P1 != id {
		ev.P1, ev.P2 = id, ev.P1
	}
	s.sorter.Push(ev)
}

// PushEvent queues a prepared event; None events are dropped.
func (s *Scheduler) PushEvent(ev event.Event) { s.sorter.Push(ev) }

// RebuildSystemEvents re-collects the fixed-schedule system event set.
func (s *Scheduler) RebuildSystemEvents() {
	evs := make([]event.Event, 0, len(s.sim.Systems))
	for i, sys := range s.sim.Systems {
		t := sys.NextTime()
		if math.IsInf(t, 1) {
			continue
		}
		typ := event.Ticker
		switch sys.(type) {
		case *Halt:
			typ = event.Halt
		case *NBListCompressionFix:
			typ = event.NBListFix
		}
		evs = append(evs, event.Event{
			Time: t, Kind: event.KindSystem, Type: typ,
			P1: -1, P2: -1, Source: i,
		})
	}
	s.sorter.RebuildSystemEvents(evs)
}

// RescaleTimes stretches every queued event time about the current clock.
// Replica exchange does not call it: it uses retimeQueues, which also
// moves the clock origin.
func (s *Scheduler) RescaleTimes(factor float64) {
	origin := s.sim.SysTime
	s.sorter.TransformTimes(func(t float64) float64 {
		return origin + (t-origin)*factor
	})
}

// driftTolerance absorbs the float noise between a queued event time and
// its recomputation.
const driftTolerance = 1e-9

// RunNextEvent executes one event: the central loop step.
func (s *Scheduler) RunNextEvent() error {
	sim := s.sim
	for {
		ev, ok := s.sorter.PeekNext()
		if !ok {
			return fmt.Errorf("no events remain at t=%g", sim.SysTime)
		}

		if ev.Kind == event.KindSystem {
			if err := sim.streamClock(ev.Time - sim.SysTime); err != nil {
				return err
			}
			err := sim.Systems[ev.Source].Run()
			s.RebuildSystemEvents()
			return err
		}

		s.sorter.PopNext()

		// Re-verify against fresh state: under shear the image offset
		// drifts between scheduling and execution, and a stale-but-
		// countervalid event must not fire early.
		fresh := s.recompute(ev)
		if !fresh.Valid() {
			continue
		}
		if fresh.Time > ev.Time+driftTolerance*(1+math.Abs(ev.Time)) {
			s.sorter.Push(fresh)
			continue
		}

		if err := sim.streamClock(fresh.Time - sim.SysTime); err != nil {
			return err
		}

		sim.Dyn.UpdateParticle(fresh.P1, sim.SysTime)
		if fresh.P2 >= 0 {
			sim.Dyn.UpdateParticle(fresh.P2, sim.SysTime)
		}

		switch fresh.Kind {
		case event.KindInteraction:
			return sim.Interactions[fresh.Source].RunEvent(fresh)
		case event.KindCell:
			return sim.Cells.RunEvent(fresh)
		case event.KindGlobal:
			return sim.Globals[fresh.Source].RunEvent(fresh)
		case event.KindLocal:
			return sim.Locals[fresh.Source].RunEvent(fresh)
		}
		return NumericalError{EventCount: sim.EventCount, Msg: "unroutable event " + fresh.String()}
	}
}

// recompute asks the event's source for its current view of the event.
func (s *Scheduler) recompute(ev event.Event) event.Event {
	sim := s.sim
	switch ev.Kind {
	case event.KindInteraction:
		fresh := sim.GetEvent(ev.P1, ev.P2)
		if fresh.P1 != ev.P1 {
			fresh.P1, fresh.P2 = ev.P1, fresh.P1
		}
		return fresh
	case event.KindCell:
		return sim.Cells.GetEvent(ev.P1)
	case event.KindGlobal:
		return sim.Globals[ev.Source].GetEvent(ev.P1)
	case event.KindLocal:
		return sim.Locals[ev.Source].GetEvent(ev.P1)
	}
	return ev
}
