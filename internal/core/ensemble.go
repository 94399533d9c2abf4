package core

// EnsembleKind names the conserved-quantity set.
type EnsembleKind string

const (
	EnsembleNVE EnsembleKind = "NVE"
	EnsembleNVT EnsembleKind = "NVT"
)

// Ensemble records the conserved quantities. Replica exchange reads the
// third value (E or T) to derive the velocity rescaling.
type Ensemble struct {
	Kind EnsembleKind
	N    int
	V    float64
	E    float64 // NVE
	T    float64 // NVT
}

func (e *Ensemble) Initialise(sim *Simulation) {
	e.N = sim.Store.N()
	e.V = sim.SimVolume()
	switch e.Kind {
	case EnsembleNVT:
		if e.T == 0 {
			e.T = sim.Dyn.Temperature()
		}
	default:
		e.Kind = EnsembleNVE
		e.E = sim.Dyn.KineticEnergy() + sim.InternalEnergy()
	}
}

// Vals returns {N, V, E-or-T} in the fixed slot order the replica
// exchange driver expects.
func (e *Ensemble) Vals() [3]float64 {
	third := e.E
	if e.Kind == EnsembleNVT {
		third = e.T
	}
	return [3]float64{float64(e.N), e.V, third}
}

func (e *Ensemble) Swap(other *Ensemble) {
	*e, *other = *other, *e
}
