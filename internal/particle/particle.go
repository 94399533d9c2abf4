// Package particle holds the dense kinematic state arrays and the species
// partition over them.
package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Particle is a kinematic record. PecTime is the simulation time to which
// this particle's state was last advanced; everything else in the system
// may be ahead of it.
type Particle struct {
	ID      int
	Pos     r3.Vec
	Vel     r3.Vec
	PecTime float64
	Dynamic bool
}

// Orientation is the optional rotational state carried by inertial
// species. U is a unit director, AngVel the angular velocity.
type Orientation struct {
	U      r3.Vec
	AngVel r3.Vec
}

// Store owns the particle array. Orientations is nil unless the dynamics
// variant needs rotational state, in which case it parallels Particles.
type Store struct {
	Particles    []Particle
	Orientations []Orientation
}

func NewStore(n int) *Store {
	s := &Store{Particles: make([]Particle, n)}
	for i := range s.Particles {
		s.Particles[i].ID = i
		s.Particles[i].Dynamic = true
	}
	return s
}

func (s *Store) N() int { return len(s.Particles) }

func (s *Store) EnableOrientation() {
	if s.Orientations != nil {
		return
	}
	s.Orientations = make([]Orientation, len(s.Particles))
	for i := range s.Orientations {
		s.Orientations[i].U = r3.Vec{X: 1}
	}
}

func (s *Store) HasOrientation() bool { return s.Orientations != nil }

// Valid reports whether every kinematic value is finite.
func (s *Store) Valid() bool {
	for i := range s.Particles {
		p := &s.Particles[i]
		if !finite(p.Pos) || !finite(p.Vel) || math.IsNaN(p.PecTime) {
			return false
		}
	}
	return true
}

func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Species is a contiguous ID range sharing a mass and, for inertial
// species, a moment of inertia. Inertia <= 0 means a point mass.
type Species struct {
	Name    string
	IntName string
	Begin   int
	End     int // exclusive
	Mass    float64
	Inertia float64
}

func (sp Species) Contains(id int) bool { return id >= sp.Begin && id < sp.End }

func (sp Species) Count() int { return sp.End - sp.Begin }

// ValidatePartition checks that the species ranges cover every particle
// exactly once.
func ValidatePartition(species []Species, n int) error {
	seen := make([]int, n)
	for _, sp := range species {
		if sp.Begin < 0 || sp.End > n || sp.Begin >= sp.End {
			return fmt.Errorf("species %q has invalid range [%d,%d) over %d particles", sp.Name, sp.Begin, sp.End, n)
		}
		for i := sp.Begin; i < sp.End; i++ {
			seen[i]++
		}
	}
	for i, c := range seen {
		if c == 0 {
			return fmt.Errorf("particle ID=%d has no species", i)
		}
		if c > 1 {
			return fmt.Errorf("particle ID=%d has more than one species", i)
		}
	}
	return nil
}

// SpeciesOf returns the species containing id.
func SpeciesOf(species []Species, id int) (Species, error) {
	for _, sp := range species {
		if sp.Contains(id) {
			return sp, nil
		}
	}
	return Species{}, fmt.Errorf("could not find the species for particle ID=%d", id)
}

// Mass returns the mass of particle id, honouring the dynamic bit:
// non-dynamic particles behave as infinitely massive.
func (s *Store) Mass(species []Species, id int) float64 {
	if !s.Particles[id].Dynamic {
		return math.Inf(1)
	}
	sp, err := SpeciesOf(species, id)
	if err != nil {
		return math.Inf(1)
	}
	return sp.Mass
}
