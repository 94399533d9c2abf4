package core

import (
	"github.com/san-kum/dynamo/internal/event"
)

// Interaction is a pairwise event rule over the pairs its range matches.
// Implementations compute candidate events lazily and execute them through
// the propagator's kernels.
type Interaction interface {
	Name() string
	Matches(p1, p2 int) bool

	// GetEvent returns the soonest event for the pair at an absolute
	// time, or a None event at +inf. Both particles are streamed to the
	// current simulation time as a side effect.
	GetEvent(p1, p2 int) event.Event

	// RunEvent executes ev's state update, adjusts any capture
	// bookkeeping and requests a full scheduler update for both
	// particles.
	RunEvent(ev event.Event) error

	// MaxIntDist bounds the interaction range; the largest value over
	// all interactions sets the cell edge.
	MaxIntDist() float64

	// ExcludedVolume of one particle under this interaction, for
	// packing-fraction accounting.
	ExcludedVolume(id int) float64

	InternalEnergy() float64

	// ValidateState returns the number of detected inconsistencies for
	// the pair (overlapping cores, capture map mismatches).
	ValidateState(p1, p2 int) int

	Initialise(id int) error

	// RescaleLengths grows the stored length parameters; compression
	// restore passes the accumulated growth factor to bake it in.
	RescaleLengths(factor float64)
}

// Captor is implemented by interactions that keep a capture map.
type Captor interface {
	Captured(p1, p2 int) bool
	// CaptureTest reports whether the pair's current separation lies
	// inside the well.
	CaptureTest(p1, p2 int) bool
	CaptureMap() *CaptureMap
}

type interactionBase struct {
	sim  *Simulation
	name string
	rng  PairRange
	id   int
}

func (b *interactionBase) Name() string             { return b.name }
func (b *interactionBase) Matches(p1, p2 int) bool  { return b.rng.Matches(p1, p2) }
func (b *interactionBase) PairRange() PairRange     { return b.rng }
func (b *interactionBase) Initialise(id int) error  { b.id = id; return nil }
func (b *interactionBase) InternalEnergy() float64  { return 0 }
func (b *interactionBase) RescaleLengths(f float64) {}

// GetInteraction returns the first interaction whose range matches the
// pair; dispatch priority is list order.
func (s *Simulation) GetInteraction(p1, p2 int) (Interaction, error) {
	for _, i := range s.Interactions {
		if i.Matches(p1, p2) {
			return i, nil
		}
	}
	return nil, configErrorf("no interaction defined between particles %d and %d", p1, p2)
}

// GetEvent computes the next pair event through the responsible
// interaction.
func (s *Simulation) GetEvent(p1, p2 int) event.Event {
	for _, i := range s.Interactions {
		if i.Matches(p1, p2) {
			return i.GetEvent(p1, p2)
		}
	}
	return event.NewNone()
}

// LongestInteraction is the maximum interaction distance over the
// registry.
func (s *Simulation) LongestInteraction() float64 {
	max := 0.0
	for _, i := range s.Interactions {
		if d := i.MaxIntDist(); d > max {
			max = d
		}
	}
	return max
}
