package dynamics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// rootEps rejects roots an epsilon from zero when the pair is already
// separating, which would otherwise re-fire the event just executed.
const rootEps = 1e-12

// SphereSphereInRoot returns the time until |rij + vij*t| first equals the
// interaction diameter, or false when the pair never reaches it. For
// compression the diameter grows during the flight; for gravity a
// mixed dynamic/static pair needs the quartic flight equation. now is the
// absolute time the pair state corresponds to.
func (d *Dynamics) SphereSphereInRoot(rij, vij r3.Vec, sigma float64, dyn1, dyn2 bool, now float64) (float64, bool) {
	if d.Variant == Compression {
		return compressionInRoot(rij, vij, d.EffectiveDiameter(sigma, now), sigma*d.GrowthRate)
	}
	if d.Variant == NewtonianGravity && dyn1 != dyn2 {
		arel := d.Gravity
		if dyn2 {
			arel = r3.Scale(-1, arel)
		}
		return gravityInRoot(rij, vij, arel, sigma)
	}
	return newtonianInRoot(rij, vij, sigma)
}

// SphereSphereOutRoot returns the escape time from a shell of the given
// diameter. For an overlapped pair an out root always exists unless the
// relative motion is null.
func (d *Dynamics) SphereSphereOutRoot(rij, vij r3.Vec, sigma float64, dyn1, dyn2 bool, now float64) (float64, bool) {
	if d.Variant == Compression {
		return compressionOutRoot(rij, vij, d.EffectiveDiameter(sigma, now), sigma*d.GrowthRate)
	}
	if d.Variant == NewtonianGravity && dyn1 != dyn2 {
		arel := d.Gravity
		if dyn2 {
			arel = r3.Scale(-1, arel)
		}
		return gravityOutRoot(rij, vij, arel, sigma)
	}
	return newtonianOutRoot(rij, vij, sigma)
}

func newtonianInRoot(rij, vij r3.Vec, sigma float64) (float64, bool) {
	b := r3.Dot(rij, vij)
	if b >= -rootEps {
		return 0, false // separating or grazing tangentially
	}
	a := r3.Norm2(vij)
	c := r3.Norm2(rij) - sigma*sigma
	if c < 0 {
		// Overlapping and approaching: collide now. Happens when a
		// previous event left the pair within rounding of contact.
		return 0, true
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	// Stable form of the smaller quadratic root.
	return c / (-b + math.Sqrt(disc)), true
}

func newtonianOutRoot(rij, vij r3.Vec, sigma float64) (float64, bool) {
	a := r3.Norm2(vij)
	if a == 0 {
		return 0, false
	}
	b := r3.Dot(rij, vij)
	c := r3.Norm2(rij) - sigma*sigma
	disc := b*b - a*c
	if disc < 0 {
		// Numerically outside the shell already; escape immediately.
		return 0, true
	}
	t := (-b + math.Sqrt(disc)) / a
	if t < 0 {
		return 0, true
	}
	return t, true
}

// compressionInRoot solves |rij + vij t|^2 = (sigma + sdot t)^2 where sdot
// is the diameter growth velocity.
func compressionInRoot(rij, vij r3.Vec, sigma, sdot float64) (float64, bool) {
	a := r3.Norm2(vij) - sdot*sdot
	b := r3.Dot(rij, vij) - sigma*sdot
	c := r3.Norm2(rij) - sigma*sigma

	if c < 0 {
		if b < 0 {
			return 0, true
		}
		return 0, false
	}
	if b >= 0 && a >= 0 {
		return 0, false // gap growing faster than the diameters
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if a == 0 {
		if b >= 0 {
			return 0, false
		}
		return -c / (2 * b), true
	}
	var t float64
	if a > 0 {
		t = c / (-b + sq)
	} else {
		// Shrinking-gap branch: the diameters outrun the separation.
		t = (-b - sq) / a
		if t < 0 {
			t = (-b + sq) / a
		}
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

func compressionOutRoot(rij, vij r3.Vec, sigma, sdot float64) (float64, bool) {
	a := r3.Norm2(vij) - sdot*sdot
	b := r3.Dot(rij, vij) - sigma*sdot
	c := r3.Norm2(rij) - sigma*sigma

	if a >= 0 {
		if a == 0 {
			if b <= 0 {
				return 0, false // the well grows over the pair forever
			}
			return -c / (2 * b), c < 0
		}
		sq := math.Sqrt(math.Max(0, b*b-a*c))
		t := (-b + sq) / a
		if t < 0 {
			return 0, true
		}
		return t, true
	}
	// a < 0: the growing shell eventually recaptures everything; escape
	// only if the pair crosses out before the turning point.
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / a
	if t >= 0 {
		return t, true
	}
	t = (-b + sq) / a
	if t >= 0 {
		return t, true
	}
	return 0, false
}

// gravityInRoot finds the smallest positive root of
// |rij + vij t + 0.5 arel t^2|^2 = sigma^2 by bracketed bisection on the
// quartic, sampling with a step bounded by the flight scales.
func gravityInRoot(rij, vij r3.Vec, arel r3.Vec, sigma float64) (float64, bool) {
	f := func(t float64) float64 {
		p := r3.Add(rij, r3.Add(r3.Scale(t, vij), r3.Scale(0.5*t*t, arel)))
		return r3.Norm2(p) - sigma*sigma
	}
	if f(0) < 0 {
		if r3.Dot(rij, vij) < 0 {
			return 0, true
		}
		return 0, false
	}
	t, ok := firstDownCrossing(f, flightStep(rij, vij, arel, sigma))
	return t, ok
}

func gravityOutRoot(rij, vij r3.Vec, arel r3.Vec, sigma float64) (float64, bool) {
	f := func(t float64) float64 {
		p := r3.Add(rij, r3.Add(r3.Scale(t, vij), r3.Scale(0.5*t*t, arel)))
		return r3.Norm2(p) - sigma*sigma
	}
	if f(0) >= 0 {
		return 0, true
	}
	g := func(t float64) float64 { return -f(t) }
	t, ok := firstDownCrossing(g, flightStep(rij, vij, arel, sigma))
	return t, ok
}

func flightStep(rij, vij, arel r3.Vec, sigma float64) float64 {
	v := r3.Norm(vij)
	a := r3.Norm(arel)
	step := math.Inf(1)
	if v > 0 {
		step = sigma / v / 4
	}
	if a > 0 {
		step = math.Min(step, math.Sqrt(2*sigma/a)/4)
	}
	if math.IsInf(step, 1) {
		return 0
	}
	return step
}

// firstDownCrossing samples f forward from zero and bisects the first
// interval where f turns negative. The search horizon is bounded; a pair
// that stays clear for the whole horizon reports no event and is
// re-examined after its next cell crossing.
func firstDownCrossing(f func(float64) float64, step float64) (float64, bool) {
	if step <= 0 {
		return 0, false
	}
	const maxSamples = 4096
	lo := 0.0
	for i := 1; i <= maxSamples; i++ {
		hi := float64(i) * step
		if f(hi) < 0 {
			for k := 0; k < 128 && hi-lo > 1e-14*(1+hi); k++ {
				mid := 0.5 * (lo + hi)
				if f(mid) < 0 {
					hi = mid
				} else {
					lo = mid
				}
			}
			return hi, true
		}
		lo = hi
	}
	return 0, false
}

// ParabolaSentinelTime is the time until the particle's velocity along the
// field direction vanishes (the trajectory apex). Infinite when already
// falling with the field or in field-free dynamics.
func (d *Dynamics) ParabolaSentinelTime(id int) float64 {
	if d.Variant != NewtonianGravity {
		return math.Inf(1)
	}
	p := &d.store.Particles[id]
	if !p.Dynamic {
		return math.Inf(1)
	}
	g2 := r3.Norm2(d.Gravity)
	if g2 == 0 {
		return math.Inf(1)
	}
	vg := r3.Dot(p.Vel, d.Gravity)
	if vg >= 0 {
		return math.Inf(1)
	}
	return -vg / g2
}

// EnforceParabola pins the particle exactly at its apex by zeroing the
// velocity component along the field, bounding the drift the quadratic
// flight accumulates.
func (d *Dynamics) EnforceParabola(id int) {
	p := &d.store.Particles[id]
	g2 := r3.Norm2(d.Gravity)
	if g2 == 0 {
		return
	}
	vg := r3.Dot(p.Vel, d.Gravity) / g2
	p.Vel = r3.Sub(p.Vel, r3.Scale(vg, d.Gravity))
}

// PBCSentinelTime bounds free flight so a particle cannot cross half the
// primary image unseen, which would alias its periodic image.
func (d *Dynamics) PBCSentinelTime(id int, box r3.Vec) float64 {
	p := &d.store.Particles[id]
	t := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		v := math.Abs(component(p.Vel, axis))
		if v == 0 {
			continue
		}
		t = math.Min(t, 0.5*component(box, axis)/v)
	}
	return t
}

// CellCrossingTime returns the earliest time the particle leaves the slab
// [lo, hi] along any axis, together with the axis and direction (+1/-1).
func (d *Dynamics) CellCrossingTime(id int, lo, hi r3.Vec) (float64, int, int) {
	p := &d.store.Particles[id]
	best := math.Inf(1)
	axis, dir := -1, 0
	for a := 0; a < 3; a++ {
		x := component(p.Pos, a)
		v := component(p.Vel, a)
		acc := 0.0
		if d.Variant == NewtonianGravity && p.Dynamic {
			acc = component(d.Gravity, a)
		}
		if t, dd, ok := axisExitTime(x, v, acc, component(lo, a), component(hi, a)); ok && t < best {
			best, axis, dir = t, a, dd
		}
	}
	return best, axis, dir
}

// axisExitTime solves x + v t + 0.5 a t^2 = bound for both faces.
func axisExitTime(x, v, a, lo, hi float64) (float64, int, bool) {
	best := math.Inf(1)
	dir := 0
	if t, ok := boundHitTime(x-hi, v, a); ok && t < best {
		best, dir = t, +1
	}
	if t, ok := boundHitTime(x-lo, v, a); ok && t < best {
		best, dir = t, -1
	}
	return best, dir, dir != 0
}

// boundHitTime finds the smallest t > 0 with dx + v t + 0.5 a t^2 = 0.
func boundHitTime(dx, v, a float64) (float64, bool) {
	if a == 0 {
		if v == 0 {
			return 0, false
		}
		t := -dx / v
		if t <= rootEps {
			return 0, false
		}
		return t, true
	}
	disc := v*v - 2*a*dx
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t1 := (-v - sq) / a
	t2 := (-v + sq) / a
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > rootEps {
		return t1, true
	}
	if t2 > rootEps {
		return t2, true
	}
	return 0, false
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}
