// Package event defines the tagged event records passed between the
// scheduler, the sorter and the event sources.
package event

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind identifies which registry is responsible for executing an event.
type Kind uint8

const (
	KindInteraction Kind = iota
	KindCell
	KindGlobal
	KindLocal
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindInteraction:
		return "Interaction"
	case KindCell:
		return "Cell"
	case KindGlobal:
		return "Global"
	case KindLocal:
		return "Local"
	case KindSystem:
		return "System"
	}
	return "Unknown"
}

// Type is the event subtype within a kind.
type Type uint8

const (
	None Type = iota
	Core
	WellIn
	WellOut
	Bounce
	CellCross
	VirtualParabola
	VirtualPBC
	WallCollision
	Ticker
	Halt
	NBListFix
)

func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Core:
		return "Core"
	case WellIn:
		return "WellIn"
	case WellOut:
		return "WellOut"
	case Bounce:
		return "Bounce"
	case CellCross:
		return "CellCross"
	case VirtualParabola:
		return "VirtualParabola"
	case VirtualPBC:
		return "VirtualPBC"
	case WallCollision:
		return "WallCollision"
	case Ticker:
		return "Ticker"
	case Halt:
		return "Halt"
	case NBListFix:
		return "NBListFix"
	}
	return "Unknown"
}

// Event is a pending event. Time is absolute simulation time. P2 is -1 for
// single-particle events. Counter1/Counter2 snapshot the participants'
// collision counters at creation; the sorter rejects an event whose
// snapshot no longer matches.
type Event struct {
	Time     float64
	Kind     Kind
	Type     Type
	P1, P2   int
	Counter1 uint32
	Counter2 uint32
	Source   int // index into the owning registry

	// Cell crossings record which face is crossed so execution does not
	// have to re-derive it at the boundary.
	Axis int8
	Dir  int8
}

// NewNone is the "no event" marker at +inf.
func NewNone() Event {
	return Event{Time: math.Inf(1), Type: None, P1: -1, P2: -1}
}

func (e Event) Valid() bool { return !math.IsInf(e.Time, 1) && e.Type != None }

func (e Event) String() string {
	if e.P2 >= 0 {
		return fmt.Sprintf("%s/%s t=%g p=(%d,%d)", e.Kind, e.Type, e.Time, e.P1, e.P2)
	}
	return fmt.Sprintf("%s/%s t=%g p=%d", e.Kind, e.Type, e.Time, e.P1)
}

// Less orders events by time, breaking ties on particle IDs then type so
// execution order is deterministic.
func (e Event) Less(o Event) bool {
	if e.Time != o.Time {
		return e.Time < o.Time
	}
	if e.P1 != o.P1 {
		return e.P1 < o.P1
	}
	if e.P2 != o.P2 {
		return e.P2 < o.P2
	}
	return e.Type < o.Type
}

// PairEventData summarises the impulse applied at an executed event.
type PairEventData struct {
	P1, P2  int
	Type    Type
	Impulse r3.Vec
	DeltaKE float64
	DeltaU  float64
}
