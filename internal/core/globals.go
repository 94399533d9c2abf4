package core

import "github.com/san-kum/dynamo/internal/event"

// Global attaches events to every particle: the cell list, the boundary
// sentinels. Globals initialise after Locals so neighbour-aware globals
// see assigned local IDs.
type Global interface {
	Name() string
	GetEvent(p int) event.Event
	RunEvent(ev event.Event) error
	Initialise(id int) error
}

// Local attaches events to a subset of particles, e.g. a wall.
type Local interface {
	Name() string
	IsInteraction(p int) bool
	GetEvent(p int) event.Event
	RunEvent(ev event.Event) error
	ValidateState(p int) int
	Initialise(id int) error
}

// System produces fixed-schedule events not tied to any particle.
type System interface {
	Name() string
	// NextTime is the absolute time of the system's next event, +inf
	// when dormant.
	NextTime() float64
	Run() error
	Initialise(id int) error
	ReplicaExchange(other System)
}
