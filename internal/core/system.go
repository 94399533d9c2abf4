package core

import (
	"math"
)

// Ticker fires on a fixed period and drives the ticker output plugins.
// The period defaults to the last run's mean free time so tickers sample
// roughly once per collision per particle.
type Ticker struct {
	sim    *Simulation
	name   string
	id     int
	period float64
	next   float64
}

func NewTicker(sim *Simulation, period float64, name string) *Ticker {
	if period <= 0 {
		period = 1.0
	}
	return &Ticker{sim: sim, name: name, period: period}
}

func (t *Ticker) Name() string { return t.name }

func (t *Ticker) Initialise(id int) error {
	t.id = id
	t.next = t.sim.SysTime + t.period
	return nil
}

func (t *Ticker) NextTime() float64 { return t.next }

func (t *Ticker) Period() float64 { return t.period }

func (t *Ticker) SetPeriod(period float64) {
	t.period = period
	t.next = t.sim.SysTime + period
}

func (t *Ticker) Run() error {
	t.next = t.sim.SysTime + t.period
	for _, p := range t.sim.Plugins {
		if tp, ok := p.(TickerPlugin); ok {
			tp.Tick()
		}
	}
	return nil
}

func (t *Ticker) ReplicaExchange(other System) {
	o := other.(*Ticker)
	t.period, o.period = o.period, t.period
	t.next, o.next = o.next, t.next
}

// Halt stops the simulation at a fixed time by collapsing the event
// budget.
type Halt struct {
	sim  *Simulation
	name string
	id   int
	when float64
	done bool
}

func NewHalt(sim *Simulation, dt float64, name string) *Halt {
	return &Halt{sim: sim, name: name, when: sim.SysTime + dt}
}

func (h *Halt) Name() string            { return h.name }
func (h *Halt) Initialise(id int) error { h.id = id; return nil }

func (h *Halt) NextTime() float64 {
	if h.done {
		return math.Inf(1)
	}
	return h.when
}

func (h *Halt) Run() error {
	h.done = true
	h.sim.Shutdown()
	return nil
}

func (h *Halt) ReplicaExchange(other System) {
	o := other.(*Halt)
	h.when, o.when = o.when, h.when
	h.done, o.done = o.done, h.done
}

// NBListCompressionFix rebuilds the cell list periodically during a
// compression run, before the growing diameters overrun the cell width.
type NBListCompressionFix struct {
	sim        *Simulation
	name       string
	id         int
	growthRate float64
	next       float64
}

func NewNBListCompressionFix(sim *Simulation, growthRate float64, name string) *NBListCompressionFix {
	return &NBListCompressionFix{sim: sim, name: name, growthRate: growthRate}
}

func (f *NBListCompressionFix) Name() string { return f.name }

func (f *NBListCompressionFix) Initialise(id int) error {
	f.id = id
	f.schedule()
	return nil
}

// schedule places the next rebuild where the grown interaction range
// meets the overlap headroom the cells were built with.
func (f *NBListCompressionFix) schedule() {
	if f.growthRate <= 0 || f.sim.Cells == nil {
		f.next = math.Inf(1)
		return
	}
	// Diameters grow by a factor (1+rate*t); the overlap margin buys
	// overlapLambda of headroom from now.
	now := f.sim.SysTime
	f.next = now + overlapLambda*(1+f.growthRate*now)/f.growthRate
}

func (f *NBListCompressionFix) NextTime() float64 { return f.next }

// Disarm stops further rebuilds once the compression run is restored.
func (f *NBListCompressionFix) Disarm() {
	f.growthRate = 0
	f.next = math.Inf(1)
}

func (f *NBListCompressionFix) Run() error {
	if f.sim.Cells != nil {
		if err := f.sim.Cells.Reinitialise(); err != nil {
			return err
		}
		f.sim.Sched.rebuildAllEvents()
	}
	f.schedule()
	return nil
}

func (f *NBListCompressionFix) ReplicaExchange(other System) {
	o := other.(*NBListCompressionFix)
	f.growthRate, o.growthRate = o.growthRate, f.growthRate
	f.next, o.next = o.next, f.next
}
