// Package core holds the simulation container and the event machinery:
// scheduler, interactions, globals, locals, system events and output
// plugins.
package core

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/dynamics"
	"github.com/san-kum/dynamo/internal/event"
	"github.com/san-kum/dynamo/internal/particle"
	"github.com/san-kum/dynamo/internal/units"
)

// Status is the simulation lifecycle phase. Transitions are monotonic;
// mutating the component lists after Initialised is a StateError.
type Status int

const (
	StatusStart Status = iota
	StatusSpeciesInit
	StatusDynamicsInit
	StatusInteractionInit
	StatusLocalInit
	StatusGlobalInit
	StatusSystemInit
	StatusEnsembleInit
	StatusSchedulerInit
	StatusOutputPluginInit
	StatusInitialised
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "START"
	case StatusSpeciesInit:
		return "SPECIES_INIT"
	case StatusDynamicsInit:
		return "DYNAMICS_INIT"
	case StatusInteractionInit:
		return "INTERACTION_INIT"
	case StatusLocalInit:
		return "LOCAL_INIT"
	case StatusGlobalInit:
		return "GLOBAL_INIT"
	case StatusSystemInit:
		return "SYSTEM_INIT"
	case StatusEnsembleInit:
		return "ENSEMBLE_INIT"
	case StatusSchedulerInit:
		return "SCHEDULER_INIT"
	case StatusOutputPluginInit:
		return "OUTPUTPLUGIN_INIT"
	case StatusInitialised:
		return "INITIALISED"
	}
	return "UNKNOWN"
}

// overlapTolerance is the rounding slack allowed by the validateState
// family before a separation counts as an overlap.
const overlapTolerance = 1e-9

// Simulation owns the particle data and every event source, enforces the
// init-phase ordering and exposes the stepping API.
type Simulation struct {
	Name string

	Store       *particle.Store
	SpeciesList []particle.Species
	BC          *boundary.BC
	Dyn         *dynamics.Dynamics

	Interactions []Interaction
	Locals       []Local
	Globals      []Global
	Systems      []System
	Plugins      []OutputPlugin

	Cells *Cells
	Sched *Scheduler
	Ens   *Ensemble
	Units units.Units

	PrimaryCellSize r3.Vec
	SysTime         float64
	EventCount      uint64
	EndEventCount   uint64

	// FreestreamAcc accumulates the flight time consumed by virtual
	// events between real collisions.
	FreestreamAcc float64
	LastRunMFT    float64

	EventPrintInterval uint64
	nextPrint          uint64
	Stderr             io.Writer

	lastDt float64
	rng    *rand.Rand
	status Status
}

func NewSimulation(name string) *Simulation {
	return &Simulation{
		Name:               name,
		Units:              units.Default(),
		EndEventCount:      100000,
		EventPrintInterval: 50000,
		Ens:                &Ensemble{},
		Stderr:             os.Stderr,
		rng:                rand.New(rand.NewSource(1)),
	}
}

func (s *Simulation) Status() Status { return s.status }

func (s *Simulation) Seed(seed int64) { s.rng = rand.New(rand.NewSource(seed)) }

func (s *Simulation) RNG() *rand.Rand { return s.rng }

// SetParticles installs the particle store and box before initialisation.
func (s *Simulation) SetParticles(store *particle.Store, box r3.Vec) error {
	if s.status != StatusStart {
		return StateError{Op: "set particles", Status: s.status}
	}
	s.Store = store
	s.PrimaryCellSize = box
	return nil
}

func (s *Simulation) SetBC(bc *boundary.BC) error {
	if s.status != StatusStart {
		return StateError{Op: "set boundary condition", Status: s.status}
	}
	s.BC = bc
	return nil
}

func (s *Simulation) SetDynamics(d *dynamics.Dynamics) error {
	if s.status != StatusStart {
		return StateError{Op: "set dynamics", Status: s.status}
	}
	s.Dyn = d
	return nil
}

func (s *Simulation) AddSpecies(sp particle.Species) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "add species", Status: s.status}
	}
	for _, have := range s.SpeciesList {
		if have.Name == sp.Name {
			return configErrorf("species name %q is not unique", sp.Name)
		}
	}
	s.SpeciesList = append(s.SpeciesList, sp)
	return nil
}

func (s *Simulation) AddInteraction(i Interaction) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "add interaction", Status: s.status}
	}
	for _, have := range s.Interactions {
		if have.Name() == i.Name() {
			return configErrorf("interaction name %q is not unique", i.Name())
		}
	}
	s.Interactions = append(s.Interactions, i)
	return nil
}

func (s *Simulation) AddLocal(l Local) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "add local", Status: s.status}
	}
	s.Locals = append(s.Locals, l)
	return nil
}

func (s *Simulation) AddGlobal(g Global) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "add global", Status: s.status}
	}
	s.Globals = append(s.Globals, g)
	return nil
}

func (s *Simulation) AddSystem(sys System) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "add system", Status: s.status}
	}
	for _, have := range s.Systems {
		if have.Name() == sys.Name() {
			return configErrorf("system name %q is not unique", sys.Name())
		}
	}
	s.Systems = append(s.Systems, sys)
	return nil
}

func (s *Simulation) AddOutputPlugin(p OutputPlugin) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "add output plugin", Status: s.status}
	}
	s.Plugins = append(s.Plugins, p)
	return nil
}

func (s *Simulation) SetScheduler(kind SchedulerKind) error {
	if s.status >= StatusInitialised {
		return StateError{Op: "set scheduler", Status: s.status}
	}
	s.Sched = newScheduler(s, kind)
	return nil
}

// Initialise walks the lifecycle phases in order and leaves the
// simulation ready to step.
func (s *Simulation) Initialise() error {
	if s.status != StatusStart {
		return StateError{Op: "initialise", Status: s.status}
	}
	if s.Store == nil || s.BC == nil || s.Dyn == nil {
		return configErrorf("simulation %q is missing particles, boundary or dynamics", s.Name)
	}

	if err := particle.ValidatePartition(s.SpeciesList, s.Store.N()); err != nil {
		return ConfigError{Msg: err.Error()}
	}
	// Inertial species need rotational state before interactions probe
	// for it.
	for _, sp := range s.SpeciesList {
		if sp.Inertia > 0 {
			s.Dyn.EnableOrientation()
		}
	}
	s.status = StatusSpeciesInit
	s.status = StatusDynamicsInit

	for i := 0; i < s.Store.N(); i++ {
		for j := i + 1; j < s.Store.N(); j++ {
			if _, err := s.GetInteraction(i, j); err != nil {
				return err
			}
		}
	}
	for id, intr := range s.Interactions {
		if err := intr.Initialise(id); err != nil {
			return err
		}
	}
	if s.BC.Kind == boundary.Periodic || s.BC.Kind == boundary.LeesEdwards {
		maxDist := s.LongestInteraction()
		for axis, l := range []float64{s.PrimaryCellSize.X, s.PrimaryCellSize.Y, s.PrimaryCellSize.Z} {
			if l <= 2*maxDist {
				return configErrorf("primary cell axis %d (%.6g) must exceed twice the longest interaction distance (%.6g) under periodic boundaries", axis, l, maxDist)
			}
		}
	}
	s.status = StatusInteractionInit

	for id, l := range s.Locals {
		if err := l.Initialise(id); err != nil {
			return err
		}
	}
	s.status = StatusLocalInit

	// The cell list and boundary sentinels are implicit globals.
	if s.Sched == nil {
		s.Sched = newScheduler(s, SchedulerNeighbourList)
	}
	if s.Sched.kind == SchedulerNeighbourList && s.BC.Kind == boundary.LeesEdwards {
		// Sheared images break the static cell adjacency; fall back to
		// exhaustive candidate enumeration.
		s.Sched.kind = SchedulerDumb
	}
	if s.Sched.kind == SchedulerNeighbourList && s.Cells == nil {
		s.Cells = NewCells(s, "SchedulerNBList")
		s.Globals = append(s.Globals, s.Cells)
	}
	if s.Cells != nil && s.Dyn.Variant == dynamics.Compression {
		// Growing diameters need sizing headroom between rebuilds.
		s.Cells.SetCellOverlap(true)
	}
	if s.BC.Kind == boundary.Periodic || s.BC.Kind == boundary.LeesEdwards {
		if !s.hasGlobal("PBCSentinel") {
			s.Globals = append(s.Globals, NewPBCSentinel(s, "PBCSentinel"))
		}
	}
	if s.Dyn.Variant == dynamics.NewtonianGravity && !s.hasGlobal("ParabolaSentinel") {
		s.Globals = append(s.Globals, NewParabolaSentinel(s, "ParabolaSentinel"))
	}
	for id, g := range s.Globals {
		if err := g.Initialise(id); err != nil {
			return err
		}
	}
	s.status = StatusGlobalInit

	needTicker := false
	for _, p := range s.Plugins {
		if _, ok := p.(TickerPlugin); ok {
			needTicker = true
			break
		}
	}
	if needTicker && !s.hasSystem("SystemTicker") {
		s.Systems = append(s.Systems, NewTicker(s, s.LastRunMFT, "SystemTicker"))
	}
	for id, sys := range s.Systems {
		if err := sys.Initialise(id); err != nil {
			return err
		}
	}
	s.status = StatusSystemInit

	s.Ens.Initialise(s)
	s.status = StatusEnsembleInit

	if s.EndEventCount > 0 {
		if err := s.Sched.Initialise(); err != nil {
			return err
		}
	}
	s.status = StatusSchedulerInit

	for _, p := range s.Plugins {
		if err := p.Initialise(); err != nil {
			return err
		}
	}
	s.status = StatusOutputPluginInit

	s.nextPrint = s.EventCount + s.EventPrintInterval
	s.status = StatusInitialised
	return nil
}

func (s *Simulation) hasGlobal(name string) bool {
	for _, g := range s.Globals {
		if g.Name() == name {
			return true
		}
	}
	return false
}

func (s *Simulation) hasSystem(name string) bool {
	for _, sys := range s.Systems {
		if sys.Name() == name {
			return true
		}
	}
	return false
}

// Reset rewinds the clock and counters of an initialised simulation so a
// fresh production run can follow an equilibration run.
func (s *Simulation) Reset() error {
	if s.status != StatusInitialised {
		return StateError{Op: "reset", Status: s.status}
	}
	s.Dyn.UpdateAllParticles(s.SysTime)
	for i := range s.Store.Particles {
		s.Store.Particles[i].PecTime = 0
	}
	s.Plugins = nil
	s.SysTime = 0
	s.EventCount = 0
	s.nextPrint = 0
	s.LastRunMFT = 0
	s.FreestreamAcc = 0
	s.status = StatusStart
	return nil
}

// streamClock advances the simulation clock and the boundary shear, but
// not the particles; they are streamed lazily when touched.
func (s *Simulation) streamClock(dt float64) error {
	if dt < -driftTolerance {
		return NumericalError{EventCount: s.EventCount, Msg: fmt.Sprintf("event %.6g in the past at t=%.6g", dt, s.SysTime)}
	}
	if dt < 0 {
		dt = 0
	}
	s.SysTime += dt
	s.BC.Update(dt)
	s.lastDt = dt
	return nil
}

// eventExecuted finishes a real (impulsive) event: count it, feed the
// plugins and re-enumerate the participants.
func (s *Simulation) eventExecuted(ev event.Event, data event.PairEventData) {
	s.EventCount++
	s.FreestreamAcc = 0
	for _, p := range s.Plugins {
		p.EventUpdate(ev, data)
	}
	if ev.P2 >= 0 {
		s.Sched.FullUpdate(ev.P1, ev.P2)
	} else {
		s.Sched.FullUpdate(ev.P1)
	}
}

// virtualEventExecuted finishes a bookkeeping-only event: the flight time
// folds into the freestream accumulator instead of the collision counts.
func (s *Simulation) virtualEventExecuted(ev event.Event) {
	s.FreestreamAcc += s.lastDt
	if ev.P2 >= 0 {
		s.Sched.FullUpdate(ev.P1, ev.P2)
	} else {
		s.Sched.FullUpdate(ev.P1)
	}
}

// RunSimulationStep executes one event and reports whether the event
// budget allows another.
func (s *Simulation) RunSimulationStep(silent bool) (bool, error) {
	if s.status < StatusInitialised {
		return false, StateError{Op: "run", Status: s.status}
	}

	if err := s.Sched.RunNextEvent(); err != nil {
		return false, fmt.Errorf("%s: executing event %d: %w", s.Name, s.EventCount, err)
	}

	if s.EventCount >= s.nextPrint && !silent && len(s.Plugins) > 0 {
		for _, p := range s.Plugins {
			p.PeriodicOutput(s.Stderr)
			fmt.Fprintln(s.Stderr)
		}
		s.nextPrint = s.EventCount + s.EventPrintInterval
	}

	return s.EventCount < s.EndEventCount, nil
}

// RunEvents drives the loop until the budget is spent or an error stops
// it.
func (s *Simulation) RunEvents(silent bool) error {
	for {
		more, err := s.RunSimulationStep(silent)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Shutdown collapses the event budget so the loop stops at the next step
// boundary. There is no mid-event cancellation.
func (s *Simulation) Shutdown() {
	s.nextPrint = s.EventCount
	s.EndEventCount = s.EventCount
}

func (s *Simulation) SimVolume() float64 {
	return s.PrimaryCellSize.X * s.PrimaryCellSize.Y * s.PrimaryCellSize.Z
}

func (s *Simulation) NumberDensity() float64 {
	return float64(s.Store.N()) / s.SimVolume()
}

// PackingFraction sums the per-particle excluded volumes over the box.
func (s *Simulation) PackingFraction() float64 {
	vol := 0.0
	for id := range s.Store.Particles {
		for _, intr := range s.Interactions {
			if intr.Matches(id, id) || s.anyPairMatch(intr, id) {
				scale := 1.0
				if s.Dyn.Variant == dynamics.Compression {
					g := 1 + s.Dyn.GrowthRate*s.SysTime
					scale = g * g * g
				}
				vol += intr.ExcludedVolume(id) * scale
				break
			}
		}
	}
	return vol / s.SimVolume()
}

func (s *Simulation) anyPairMatch(intr Interaction, id int) bool {
	for q := 0; q < s.Store.N(); q++ {
		if q != id && intr.Matches(id, q) {
			return true
		}
	}
	return false
}

func (s *Simulation) InternalEnergy() float64 {
	u := 0.0
	for _, i := range s.Interactions {
		u += i.InternalEnergy()
	}
	return u
}

// SetCOMVelocity shifts every dynamic particle so the centre-of-mass
// velocity matches the target.
func (s *Simulation) SetCOMVelocity(target r3.Vec) {
	var sumMV r3.Vec
	sumMass := 0.0
	for i := range s.Store.Particles {
		m := s.Store.Mass(s.SpeciesList, i)
		if math.IsInf(m, 1) {
			continue
		}
		sumMV = r3.Add(sumMV, r3.Scale(m, s.Store.Particles[i].Vel))
		sumMass += m
	}
	if sumMass == 0 {
		return
	}
	change := r3.Sub(target, r3.Scale(1/sumMass, sumMV))
	for i := range s.Store.Particles {
		if math.IsInf(s.Store.Mass(s.SpeciesList, i), 1) {
			continue
		}
		s.Store.Particles[i].Vel = r3.Add(s.Store.Particles[i].Vel, change)
	}
}

// CheckSystem runs the advisory consistency checks and returns the total
// error count: interaction overlaps, capture-map mismatches, wall
// penetrations, cell-list integrity.
func (s *Simulation) CheckSystem() int {
	s.Dyn.UpdateAllParticles(s.SysTime)

	errs := 0
	n := s.Store.N()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if intr, err := s.GetInteraction(i, j); err == nil {
				errs += intr.ValidateState(i, j)
			}
		}
	}
	for i := 0; i < n; i++ {
		for _, l := range s.Locals {
			if l.IsInteraction(i) {
				errs += l.ValidateState(i)
			}
		}
	}
	if s.Cells != nil {
		errs += s.Cells.ValidateLists()
	}
	return errs
}

// pairEvent builds an interaction event dt ahead of the clock.
func (s *Simulation) pairEvent(dt float64, typ event.Type, p1, p2, source int) event.Event {
	if math.IsInf(dt, 1) || math.IsNaN(dt) {
		return event.NewNone()
	}
	return event.Event{
		Time: s.SysTime + dt,
		Kind: event.KindInteraction, Type: typ,
		P1: p1, P2: p2, Source: source,
	}
}

func normOf(v r3.Vec) float64 { return r3.Norm(v) }
