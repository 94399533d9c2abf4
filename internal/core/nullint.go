package core

import "github.com/san-kum/dynamo/internal/event"

// NullInteraction matches pairs but never produces events; it gives
// otherwise non-interacting pairs the coverage the registry demands.
type NullInteraction struct {
	interactionBase
}

func NewNullInteraction(sim *Simulation, rng PairRange, name string) *NullInteraction {
	return &NullInteraction{interactionBase{sim: sim, name: name, rng: rng}}
}

func (n *NullInteraction) GetEvent(p1, p2 int) event.Event { return event.NewNone() }

func (n *NullInteraction) RunEvent(ev event.Event) error {
	return NumericalError{EventCount: n.sim.EventCount, Msg: "null interaction asked to run an event"}
}

func (n *NullInteraction) MaxIntDist() float64           { return 0 }
func (n *NullInteraction) ExcludedVolume(id int) float64 { return 0 }
func (n *NullInteraction) ValidateState(p1, p2 int) int  { return 0 }
