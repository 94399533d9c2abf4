package dynamics

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/event"
)

// RunSmoothSphereCollision applies the elastic/inelastic impulse for two
// smooth spheres in contact at diameter sigma. Both particles must be
// streamed to the event time. e is the normal restitution coefficient.
func (d *Dynamics) RunSmoothSphereCollision(p1, p2 int, e, sigma float64) event.PairEventData {
	rij, vij := d.PairSeparation(p1, p2)
	n := r3.Scale(1/r3.Norm(rij), rij)

	m1, m2 := d.mass(p1), d.mass(p2)
	mu := reducedMass(m1, m2)

	vn := r3.Dot(vij, n)
	imp := r3.Scale(-(1+e)*mu*vn, n)

	d.applyImpulse(p1, p2, imp)

	return event.PairEventData{
		P1: p1, P2: p2, Type: event.Core,
		Impulse: imp,
		DeltaKE: -0.5 * mu * (1 - e*e) * vn * vn,
	}
}

// RunSphereWellEvent handles a square-well boundary crossing at diameter
// sigma. deltaKE is the kinetic energy gained crossing inward (+depth on
// entry, -depth on escape). Returns the event data and whether the pair
// ends up inside the well; an escape attempt without the energy to climb
// out becomes a Bounce and the pair stays captured.
func (d *Dynamics) RunSphereWellEvent(p1, p2 int, sigma, deltaKE float64) (event.PairEventData, bool) {
	rij, vij := d.PairSeparation(p1, p2)
	n := r3.Scale(1/r3.Norm(rij), rij)

	m1, m2 := d.mass(p1), d.mass(p2)
	mu := reducedMass(m1, m2)

	vn := r3.Dot(vij, n)
	arg := vn*vn + 2*deltaKE/mu

	if deltaKE < 0 && arg <= 0 {
		// Not enough normal kinetic energy to leave the well: reflect.
		imp := r3.Scale(-2*mu*vn, n)
		d.applyImpulse(p1, p2, imp)
		return event.PairEventData{P1: p1, P2: p2, Type: event.Bounce, Impulse: imp}, true
	}

	vnNew := math.Copysign(math.Sqrt(arg), vn)
	imp := r3.Scale(mu*(vnNew-vn), n)
	d.applyImpulse(p1, p2, imp)

	inside := deltaKE > 0
	typ := event.WellIn
	if !inside {
		typ = event.WellOut
	}
	return event.PairEventData{
		P1: p1, P2: p2, Type: typ,
		Impulse: imp,
		DeltaKE: deltaKE,
		DeltaU:  -deltaKE,
	}, inside
}

// RunRoughSphereCollision applies normal restitution e and tangential
// restitution et at the contact of two rough spheres, exchanging angular
// momentum through the surface velocity.
func (d *Dynamics) RunRoughSphereCollision(p1, p2 int, e, et, sigma float64) event.PairEventData {
	rij, vij := d.PairSeparation(p1, p2)
	n := r3.Scale(1/r3.Norm(rij), rij)

	m1, m2 := d.mass(p1), d.mass(p2)
	mu := reducedMass(m1, m2)
	i1, i2 := d.inertia(p1), d.inertia(p2)

	w1 := d.store.Orientations[p1].AngVel
	w2 := d.store.Orientations[p2].AngVel

	// Surface relative velocity at the contact point.
	rad := 0.5 * sigma
	g := r3.Sub(vij, r3.Scale(rad, r3.Cross(r3.Add(w1, w2), n)))
	gt := r3.Sub(g, r3.Scale(r3.Dot(g, n), n))

	// kt is the dimensionless rotational coupling; for equal solid
	// spheres it reduces to 1/kappa with kappa = I/(m rad^2).
	kt := 0.0
	if !math.IsInf(i1, 1) {
		kt += mu * rad * rad / i1
	}
	if !math.IsInf(i2, 1) {
		kt += mu * rad * rad / i2
	}

	imp := r3.Scale(-(1+e)*mu*r3.Dot(vij, n), n)
	if kt > 0 {
		imp = r3.Add(imp, r3.Scale(-(1+et)*mu/(1+kt), gt))
	}

	d.applyImpulse(p1, p2, imp)

	// The tangential impulse torques both spheres the same way: the
	// contact arm and the reaction both flip sign between partners.
	tq := r3.Cross(n, imp)
	if !math.IsInf(i1, 1) {
		d.store.Orientations[p1].AngVel = r3.Add(w1, r3.Scale(-rad/i1, tq))
	}
	if !math.IsInf(i2, 1) {
		d.store.Orientations[p2].AngVel = r3.Add(w2, r3.Scale(-rad/i2, tq))
	}

	return event.PairEventData{P1: p1, P2: p2, Type: event.Core, Impulse: imp}
}

// RunWallCollision reflects the particle's normal velocity component off a
// wall with unit normal n and restitution e.
func (d *Dynamics) RunWallCollision(id int, n r3.Vec, e float64) event.PairEventData {
	p := &d.store.Particles[id]
	vn := r3.Dot(p.Vel, n)
	imp := r3.Scale(-(1+e)*vn*d.mass(id), n)
	p.Vel = r3.Sub(p.Vel, r3.Scale((1+e)*vn, n))
	return event.PairEventData{P1: id, P2: -1, Type: event.WallCollision, Impulse: imp}
}

// RunAndersenWallCollision thermalises the particle against a wall held at
// temperature T (sqrtT = sqrt(kT/m)): the outgoing normal speed is drawn
// from a Rayleigh flux distribution and the tangential components from a
// Gaussian.
func (d *Dynamics) RunAndersenWallCollision(id int, n r3.Vec, sqrtT float64, rng *rand.Rand) event.PairEventData {
	p := &d.store.Particles[id]

	// Build a tangent frame around n.
	t1 := r3.Cross(n, r3.Vec{X: 1})
	if r3.Norm2(t1) < 1e-12 {
		t1 = r3.Cross(n, r3.Vec{Y: 1})
	}
	t1 = r3.Scale(1/r3.Norm(t1), t1)
	t2 := r3.Cross(n, t1)

	old := p.Vel
	vn := sqrtT * math.Sqrt(-2*math.Log(1-rng.Float64()))
	p.Vel = r3.Add(r3.Scale(vn, n),
		r3.Add(r3.Scale(sqrtT*rng.NormFloat64(), t1),
			r3.Scale(sqrtT*rng.NormFloat64(), t2)))

	m := d.mass(id)
	return event.PairEventData{
		P1: id, P2: -1, Type: event.WallCollision,
		Impulse: r3.Scale(m, r3.Sub(p.Vel, old)),
		DeltaKE: 0.5 * m * (r3.Norm2(p.Vel) - r3.Norm2(old)),
	}
}

// applyImpulse adds imp to p1's momentum and subtracts it from p2's,
// skipping infinite masses.
func (d *Dynamics) applyImpulse(p1, p2 int, imp r3.Vec) {
	m1, m2 := d.mass(p1), d.mass(p2)
	if !math.IsInf(m1, 1) {
		a := &d.store.Particles[p1]
		a.Vel = r3.Add(a.Vel, r3.Scale(1/m1, imp))
	}
	if !math.IsInf(m2, 1) {
		b := &d.store.Particles[p2]
		b.Vel = r3.Sub(b.Vel, r3.Scale(1/m2, imp))
	}
}
