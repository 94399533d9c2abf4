package dynamics

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/event"
)

// rotate advances a director by the free rotation about omega for dt.
func rotate(u, omega r3.Vec, dt float64) r3.Vec {
	w := r3.Norm(omega)
	if w == 0 || dt == 0 {
		return u
	}
	s, c := math.Sincos(0.5 * w * dt)
	axis := r3.Scale(s/w, omega)
	q := quat.Number{Real: c, Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z}
	p := quat.Number{Imag: u.X, Jmag: u.Y, Kmag: u.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// orientedState evaluates a particle's centre, velocity and director at an
// offset dt ahead of its current state, without mutating it.
func (d *Dynamics) orientedState(id int, dt float64) (pos, vel, u, w r3.Vec) {
	p := &d.store.Particles[id]
	o := &d.store.Orientations[id]
	pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
	vel = p.Vel
	if d.Variant == NewtonianGravity && p.Dynamic {
		pos = r3.Add(pos, r3.Scale(0.5*dt*dt, d.Gravity))
		vel = r3.Add(vel, r3.Scale(dt, d.Gravity))
	}
	u = rotate(o.U, o.AngVel, dt)
	w = o.AngVel
	return pos, vel, u, w
}

// angularStep bounds the search step so no sub-sphere sweeps more than a
// small arc between samples.
func (d *Dynamics) angularStep(p1, p2 int, length float64) float64 {
	w := math.Max(r3.Norm(d.store.Orientations[p1].AngVel), r3.Norm(d.store.Orientations[p2].AngVel))
	if w == 0 {
		return math.Inf(1)
	}
	return math.Pi / (16 * w)
}

// OffCenterSphereCollisionTime searches [0, tmax] for the first contact of
// the dumbbell sub-spheres: each particle carries two spheres of the given
// radius offset half the length along its director. The bounding in/out
// roots supply tmax.
func (d *Dynamics) OffCenterSphereCollisionTime(p1, p2 int, length, radius, tmax float64) (float64, bool) {
	if !d.Orientation || math.IsInf(tmax, 1) {
		return 0, false
	}
	half := 0.5 * length
	f := func(t float64) float64 {
		c1, _, u1, _ := d.orientedState(p1, t)
		c2, _, u2, _ := d.orientedState(p2, t)
		min := math.Inf(1)
		for _, s1 := range [2]float64{-half, half} {
			for _, s2 := range [2]float64{-half, half} {
				sep := r3.Sub(r3.Add(c1, r3.Scale(s1, u1)), r3.Add(c2, r3.Scale(s2, u2)))
				d.bc.Apply(&sep)
				if dd := r3.Norm(sep); dd < min {
					min = dd
				}
			}
		}
		return min - 2*radius
	}
	step := math.Min(tmax/64, d.angularStep(p1, p2, length))
	if math.IsInf(step, 1) {
		step = tmax / 64
	}
	return firstCrossingIn(f, step, tmax)
}

// RunOffCenterSphereCollision finds the touching sub-sphere pair and
// applies a rigid-body impulse at the contact.
func (d *Dynamics) RunOffCenterSphereCollision(p1, p2 int, e, length, radius float64) event.PairEventData {
	half := 0.5 * length
	c1, _, u1, _ := d.orientedState(p1, 0)
	c2, _, u2, _ := d.orientedState(p2, 0)

	bestS1, bestS2, bestDist := 0.0, 0.0, math.Inf(1)
	for _, s1 := range [2]float64{-half, half} {
		for _, s2 := range [2]float64{-half, half} {
			sep := r3.Sub(r3.Add(c1, r3.Scale(s1, u1)), r3.Add(c2, r3.Scale(s2, u2)))
			d.bc.Apply(&sep)
			if dd := r3.Norm(sep); dd < bestDist {
				bestS1, bestS2, bestDist = s1, s2, dd
			}
		}
	}

	arm1 := r3.Scale(bestS1, u1)
	arm2 := r3.Scale(bestS2, u2)
	sep := r3.Sub(r3.Add(c1, arm1), r3.Add(c2, arm2))
	d.bc.Apply(&sep)
	n := r3.Scale(1/r3.Norm(sep), sep)

	return d.rigidContactImpulse(p1, p2, arm1, arm2, n, e)
}

// LineLineCollisionTime searches for the first time two thin rods of the
// given length touch: the separation resolved along the mutual
// perpendicular vanishes while the closest-approach parameters lie within
// both rods.
func (d *Dynamics) LineLineCollisionTime(p1, p2 int, length, tmax float64) (float64, bool) {
	if !d.Orientation || math.IsInf(tmax, 1) {
		return 0, false
	}
	half := 0.5 * length
	sep := func(t float64) (r3.Vec, r3.Vec, r3.Vec) {
		c1, _, u1, _ := d.orientedState(p1, t)
		c2, _, u2, _ := d.orientedState(p2, t)
		rij := r3.Sub(c1, c2)
		d.bc.Apply(&rij)
		return rij, u1, u2
	}
	f := func(t float64) float64 {
		rij, u1, u2 := sep(t)
		n := r3.Cross(u1, u2)
		nn := r3.Norm(n)
		if nn < 1e-12 {
			return math.Inf(1) // parallel rods, no transversal contact
		}
		return r3.Dot(rij, r3.Scale(1/nn, n))
	}
	inSegments := func(t float64) bool {
		rij, u1, u2 := sep(t)
		a := r3.Dot(u1, u2)
		denom := 1 - a*a
		if denom < 1e-12 {
			return false
		}
		// Closest-approach parameters of the two infinite lines.
		s1 := (a*r3.Dot(rij, u2) - r3.Dot(rij, u1)) / denom
		s2 := (r3.Dot(rij, u2) - a*r3.Dot(rij, u1)) / denom
		return math.Abs(s1) <= half && math.Abs(s2) <= half
	}

	step := math.Min(tmax/64, d.angularStep(p1, p2, length))
	if math.IsInf(step, 1) {
		step = tmax / 64
	}
	if step <= 0 {
		return 0, false
	}

	prevT, prevF := 0.0, f(0)
	if math.Abs(prevF) < 1e-10 {
		// Sitting on a contact just executed; nudge off it.
		prevT = step / 16
		prevF = f(prevT)
	}
	for t := step; t <= tmax; t += step {
		cur := f(t)
		if !math.IsInf(prevF, 0) && !math.IsInf(cur, 0) && prevF*cur < 0 {
			lo, hi := prevT, t
			for k := 0; k < 96 && hi-lo > 1e-14*(1+hi); k++ {
				mid := 0.5 * (lo + hi)
				if f(lo)*f(mid) <= 0 {
					hi = mid
				} else {
					lo = mid
				}
			}
			if inSegments(hi) {
				return hi, true
			}
			// crossing outside the rod span, keep scanning
		}
		prevT, prevF = t, cur
	}
	return 0, false
}

// RunLineLineCollision applies the contact impulse for two rods touching
// at their mutual perpendicular.
func (d *Dynamics) RunLineLineCollision(p1, p2 int, e, length float64) event.PairEventData {
	c1, _, u1, _ := d.orientedState(p1, 0)
	c2, _, u2, _ := d.orientedState(p2, 0)
	rij := r3.Sub(c1, c2)
	d.bc.Apply(&rij)

	a := r3.Dot(u1, u2)
	denom := 1 - a*a
	s1 := (a*r3.Dot(rij, u2) - r3.Dot(rij, u1)) / denom
	s2 := (r3.Dot(rij, u2) - a*r3.Dot(rij, u1)) / denom

	n := r3.Cross(u1, u2)
	n = r3.Scale(1/r3.Norm(n), n)

	// The mutual perpendicular has no preferred sign; orient it against
	// the contact approach so the impulse pushes the rods apart.
	arm1, arm2 := r3.Scale(s1, u1), r3.Scale(s2, u2)
	vc := r3.Sub(
		r3.Add(d.store.Particles[p1].Vel, r3.Cross(d.store.Orientations[p1].AngVel, arm1)),
		r3.Add(d.store.Particles[p2].Vel, r3.Cross(d.store.Orientations[p2].AngVel, arm2)))
	if r3.Dot(vc, n) > 0 {
		n = r3.Scale(-1, n)
	}

	return d.rigidContactImpulse(p1, p2, arm1, arm2, n, e)
}

// rigidContactImpulse applies the standard rigid-body impulse along n at
// contact arms arm1/arm2 from the two centres, with restitution e.
func (d *Dynamics) rigidContactImpulse(p1, p2 int, arm1, arm2, n r3.Vec, e float64) event.PairEventData {
	m1, m2 := d.mass(p1), d.mass(p2)
	i1, i2 := d.inertia(p1), d.inertia(p2)
	v1 := d.store.Particles[p1].Vel
	v2 := d.store.Particles[p2].Vel
	w1 := d.store.Orientations[p1].AngVel
	w2 := d.store.Orientations[p2].AngVel

	// Contact point relative velocity.
	vc := r3.Sub(
		r3.Add(v1, r3.Cross(w1, arm1)),
		r3.Add(v2, r3.Cross(w2, arm2)))
	vn := r3.Dot(vc, n)
	if vn >= 0 {
		// Contact points already separating; a grazing root resolves as
		// a no-op rather than an attractive impulse.
		return event.PairEventData{P1: p1, P2: p2, Type: event.Core}
	}

	denom := 0.0
	if !math.IsInf(m1, 1) {
		denom += 1 / m1
	}
	if !math.IsInf(m2, 1) {
		denom += 1 / m2
	}
	if !math.IsInf(i1, 1) {
		x := r3.Cross(arm1, n)
		denom += r3.Norm2(x) / i1
	}
	if !math.IsInf(i2, 1) {
		x := r3.Cross(arm2, n)
		denom += r3.Norm2(x) / i2
	}
	if denom == 0 {
		return event.PairEventData{P1: p1, P2: p2, Type: event.Core}
	}

	j := -(1 + e) * vn / denom
	imp := r3.Scale(j, n)

	if !math.IsInf(m1, 1) {
		d.store.Particles[p1].Vel = r3.Add(v1, r3.Scale(1/m1, imp))
	}
	if !math.IsInf(m2, 1) {
		d.store.Particles[p2].Vel = r3.Sub(v2, r3.Scale(1/m2, imp))
	}
	if !math.IsInf(i1, 1) {
		d.store.Orientations[p1].AngVel = r3.Add(w1, r3.Scale(1/i1, r3.Cross(arm1, imp)))
	}
	if !math.IsInf(i2, 1) {
		d.store.Orientations[p2].AngVel = r3.Sub(w2, r3.Scale(1/i2, r3.Cross(arm2, imp)))
	}

	return event.PairEventData{P1: p1, P2: p2, Type: event.Core, Impulse: imp}
}

// firstCrossingIn finds the first down-crossing of f in [0, tmax]. A
// negative or zero start (the contact just executed, or rounding overlap)
// arms the search only once f has lifted clear, so an event cannot
// re-fire at its own execution time.
func firstCrossingIn(f func(float64) float64, step, tmax float64) (float64, bool) {
	if step <= 0 || tmax <= 0 {
		return 0, false
	}
	armed := f(0) > 1e-12
	lo := 0.0
	for t := step; t <= tmax+step; t += step {
		hi := math.Min(t, tmax)
		v := f(hi)
		if !armed {
			if v > 1e-12 {
				armed = true
			}
			lo = hi
			if hi == tmax {
				break
			}
			continue
		}
		if v < 0 {
			for k := 0; k < 96 && hi-lo > 1e-14*(1+hi); k++ {
				mid := 0.5 * (lo + hi)
				if f(mid) < 0 {
					hi = mid
				} else {
					lo = mid
				}
			}
			return hi, true
		}
		if hi == tmax {
			break
		}
		lo = hi
	}
	return 0, false
}
