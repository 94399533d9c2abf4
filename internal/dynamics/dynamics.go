// Package dynamics implements the propagator: closed-form streaming of
// particle state between events and the collision-time root finders and
// impulse kernels used at events.
package dynamics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/particle"
)

// Variant selects the analytic trajectory family.
type Variant uint8

const (
	Newtonian Variant = iota
	NewtonianGravity
	Compression
)

func (v Variant) String() string {
	switch v {
	case Newtonian:
		return "Newtonian"
	case NewtonianGravity:
		return "NewtonianGravity"
	case Compression:
		return "Compression"
	}
	return "Unknown"
}

// Dynamics is the propagator. Compression keeps Newtonian trajectories but
// grows interaction diameters at GrowthRate per unit time, measured from
// the start of the compression run.
type Dynamics struct {
	Variant     Variant
	Gravity     r3.Vec
	GrowthRate  float64
	Orientation bool

	store   *particle.Store
	species []particle.Species
	bc      *boundary.BC
}

func New(variant Variant, store *particle.Store, species []particle.Species, bc *boundary.BC) *Dynamics {
	d := &Dynamics{Variant: variant, store: store, species: species, bc: bc}
	if variant == NewtonianGravity {
		d.Gravity = r3.Vec{Y: -1}
	}
	return d
}

func (d *Dynamics) Store() *particle.Store { return d.store }

// EnableOrientation switches on rotational state for the whole store.
// Interactions that need it (lines, dumbbells) require this at init.
func (d *Dynamics) EnableOrientation() {
	d.Orientation = true
	d.store.EnableOrientation()
}

// EffectiveDiameter returns the interaction diameter at the given absolute
// time; only compression runs make this time dependent.
func (d *Dynamics) EffectiveDiameter(sigma, now float64) float64 {
	if d.Variant == Compression {
		return sigma * (1 + d.GrowthRate*now)
	}
	return sigma
}

// UpdateParticle advances particle id from its PecTime to now. Idempotent:
// a second call with the same now is a no-op.
func (d *Dynamics) UpdateParticle(id int, now float64) {
	p := &d.store.Particles[id]
	dt := now - p.PecTime
	if dt == 0 {
		return
	}
	d.freeStream(p, dt)
	p.PecTime = now

	if d.Orientation {
		o := &d.store.Orientations[id]
		o.U = rotate(o.U, o.AngVel, dt)
	}
}

// UpdateAllParticles brings every particle to the current time.
func (d *Dynamics) UpdateAllParticles(now float64) {
	for i := range d.store.Particles {
		d.UpdateParticle(i, now)
	}
}

// IsUpToDate reports whether the particle has been streamed to now.
func (d *Dynamics) IsUpToDate(id int, now float64) bool {
	return d.store.Particles[id].PecTime == now
}

func (d *Dynamics) freeStream(p *particle.Particle, dt float64) {
	if !p.Dynamic {
		p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
		return
	}
	switch d.Variant {
	case NewtonianGravity:
		p.Pos = r3.Add(p.Pos, r3.Add(r3.Scale(dt, p.Vel), r3.Scale(0.5*dt*dt, d.Gravity)))
		p.Vel = r3.Add(p.Vel, r3.Scale(dt, d.Gravity))
	default:
		p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
	}
}

// CheckFinite returns an error when any particle holds non-finite state;
// used by debug validation paths.
func (d *Dynamics) CheckFinite() error {
	if !d.store.Valid() {
		return fmt.Errorf("non-finite particle state detected")
	}
	return nil
}

// PairSeparation returns the minimum-image separation and relative
// velocity for a pair, using each particle's current state.
func (d *Dynamics) PairSeparation(p1, p2 int) (rij, vij r3.Vec) {
	a := &d.store.Particles[p1]
	b := &d.store.Particles[p2]
	rij = r3.Sub(a.Pos, b.Pos)
	vij = r3.Sub(a.Vel, b.Vel)
	d.bc.ApplyBoth(&rij, &vij)
	return rij, vij
}

func (d *Dynamics) mass(id int) float64 {
	return d.store.Mass(d.species, id)
}

func (d *Dynamics) inertia(id int) float64 {
	sp, err := particle.SpeciesOf(d.species, id)
	if err != nil || sp.Inertia <= 0 {
		return math.Inf(1)
	}
	if !d.store.Particles[id].Dynamic {
		return math.Inf(1)
	}
	return sp.Inertia
}

// reducedMass handles infinite masses: if both are infinite the pair
// cannot exchange momentum and the reduced mass is zero.
func reducedMass(m1, m2 float64) float64 {
	inf1, inf2 := math.IsInf(m1, 1), math.IsInf(m2, 1)
	switch {
	case inf1 && inf2:
		return 0
	case inf1:
		return m2
	case inf2:
		return m1
	}
	return m1 * m2 / (m1 + m2)
}

// KineticEnergy sums the translational and rotational kinetic energy.
func (d *Dynamics) KineticEnergy() float64 {
	ke := 0.0
	for i := range d.store.Particles {
		p := &d.store.Particles[i]
		m := d.mass(i)
		if math.IsInf(m, 1) {
			continue
		}
		ke += 0.5 * m * r3.Norm2(p.Vel)
		if d.Orientation {
			iMom := d.inertia(i)
			if !math.IsInf(iMom, 1) {
				ke += 0.5 * iMom * r3.Norm2(d.store.Orientations[i].AngVel)
			}
		}
	}
	return ke
}

// Momentum sums the linear momentum of all dynamic particles.
func (d *Dynamics) Momentum() r3.Vec {
	var p r3.Vec
	for i := range d.store.Particles {
		m := d.mass(i)
		if math.IsInf(m, 1) {
			continue
		}
		p = r3.Add(p, r3.Scale(m, d.store.Particles[i].Vel))
	}
	return p
}

// Temperature is the kinetic temperature 2*KE/(3N) over dynamic particles.
func (d *Dynamics) Temperature() float64 {
	n := 0
	for i := range d.store.Particles {
		if d.store.Particles[i].Dynamic {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return 2 * d.KineticEnergy() / (3 * float64(n))
}

// ScaleVelocities multiplies every dynamic particle's velocity (and
// angular velocity) by factor; used by replica exchange and thermostats.
func (d *Dynamics) ScaleVelocities(factor float64) {
	for i := range d.store.Particles {
		if !d.store.Particles[i].Dynamic {
			continue
		}
		d.store.Particles[i].Vel = r3.Scale(factor, d.store.Particles[i].Vel)
		if d.Orientation {
			d.store.Orientations[i].AngVel = r3.Scale(factor, d.store.Orientations[i].AngVel)
		}
	}
}

// ReplicaExchange swaps the dynamics-owned state (nothing beyond variant
// parameters today; particle data is swapped by the simulations).
func (d *Dynamics) ReplicaExchange(other *Dynamics) {
	d.Gravity, other.Gravity = other.Gravity, d.Gravity
	d.GrowthRate, other.GrowthRate = other.GrowthRate, d.GrowthRate
}
