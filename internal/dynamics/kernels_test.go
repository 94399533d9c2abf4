package dynamics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSmoothSphereHeadOn(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.5}
	d.store.Particles[0].Vel = r3.Vec{X: 1}
	d.store.Particles[1].Pos = r3.Vec{X: 0.5}
	d.store.Particles[1].Vel = r3.Vec{X: -1}

	data := d.RunSmoothSphereCollision(0, 1, 1.0, 1.0)

	// Elastic equal-mass head-on impact swaps the velocities.
	assert.InDelta(t, -1.0, d.store.Particles[0].Vel.X, 1e-14)
	assert.InDelta(t, 1.0, d.store.Particles[1].Vel.X, 1e-14)
	assert.InDelta(t, 0.0, data.DeltaKE, 1e-14)
}

func TestSmoothSphereConservation(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.3, Y: 0.4, Z: 0.1}
	d.store.Particles[0].Vel = r3.Vec{X: 1.3, Y: -0.2, Z: 0.7}
	d.store.Particles[1].Pos = r3.Vec{X: 0.5, Y: -0.1, Z: -0.2}
	d.store.Particles[1].Vel = r3.Vec{X: -0.4, Y: 0.9, Z: 0.3}

	ke0 := d.KineticEnergy()
	p0 := d.Momentum()

	d.RunSmoothSphereCollision(0, 1, 1.0, 1.0)

	assert.InDelta(t, ke0, d.KineticEnergy(), 1e-12)
	p1 := d.Momentum()
	assert.InDelta(t, p0.X, p1.X, 1e-12)
	assert.InDelta(t, p0.Y, p1.Y, 1e-12)
	assert.InDelta(t, p0.Z, p1.Z, 1e-12)
}

func TestInelasticCollisionLosesEnergy(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.5}
	d.store.Particles[0].Vel = r3.Vec{X: 1}
	d.store.Particles[1].Pos = r3.Vec{X: 0.5}
	d.store.Particles[1].Vel = r3.Vec{X: -1}

	ke0 := d.KineticEnergy()
	data := d.RunSmoothSphereCollision(0, 1, 0.5, 1.0)

	assert.Less(t, d.KineticEnergy(), ke0)
	assert.InDelta(t, d.KineticEnergy()-ke0, data.DeltaKE, 1e-12)
}

func TestStaticPartnerReflection(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.5}
	d.store.Particles[0].Vel = r3.Vec{X: 1}
	d.store.Particles[1].Pos = r3.Vec{X: 0.5}
	d.store.Particles[1].Dynamic = false

	d.RunSmoothSphereCollision(0, 1, 1.0, 1.0)

	assert.InDelta(t, -1.0, d.store.Particles[0].Vel.X, 1e-14)
	assert.Equal(t, r3.Vec{}, d.store.Particles[1].Vel)
}

func TestSphereWellCapture(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.75}
	d.store.Particles[0].Vel = r3.Vec{X: 0.5}
	d.store.Particles[1].Pos = r3.Vec{X: 0.75}

	// Falling into a well of depth 1 adds the depth to the normal
	// kinetic energy.
	ke0 := d.KineticEnergy()
	data, inside := d.RunSphereWellEvent(0, 1, 1.5, 1.0)

	require.True(t, inside)
	assert.Equal(t, "WellIn", data.Type.String())
	assert.InDelta(t, ke0+1.0, d.KineticEnergy(), 1e-12)
	assert.Greater(t, d.store.Particles[0].Vel.X, 0.5)
}

func TestSphereWellEscape(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.75}
	d.store.Particles[0].Vel = r3.Vec{X: -3.0}
	d.store.Particles[1].Pos = r3.Vec{X: 0.75}

	ke0 := d.KineticEnergy()
	data, inside := d.RunSphereWellEvent(0, 1, 1.5, -1.0)

	require.False(t, inside)
	assert.Equal(t, "WellOut", data.Type.String())
	assert.InDelta(t, ke0-1.0, d.KineticEnergy(), 1e-12)
}

func TestSphereWellBounce(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: -0.75}
	d.store.Particles[0].Vel = r3.Vec{X: -0.1}
	d.store.Particles[1].Pos = r3.Vec{X: 0.75}

	// Normal KE = 0.5*mu*vn^2 = 0.0025 < depth 1: reflected, stays in.
	ke0 := d.KineticEnergy()
	data, inside := d.RunSphereWellEvent(0, 1, 1.5, -1.0)

	require.True(t, inside)
	assert.Equal(t, "Bounce", data.Type.String())
	assert.InDelta(t, ke0, d.KineticEnergy(), 1e-12)
	// Equal masses split the reflection: the relative normal velocity
	// reverses while the centre of mass keeps drifting.
	assert.InDelta(t, 0.0, d.store.Particles[0].Vel.X, 1e-12)
	assert.InDelta(t, -0.1, d.store.Particles[1].Vel.X, 1e-12)
}

func TestRoughSphereCollision(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.EnableOrientation()
	d.species[0].Inertia = 0.1 // kappa = 0.4 for unit mass, unit diameter

	d.store.Particles[0].Pos = r3.Vec{X: -0.5}
	d.store.Particles[0].Vel = r3.Vec{X: 1, Y: 0.5}
	d.store.Particles[1].Pos = r3.Vec{X: 0.5}
	d.store.Particles[1].Vel = r3.Vec{X: -1}
	d.store.Orientations[0].AngVel = r3.Vec{Z: 2}

	p0 := d.Momentum()
	ke0 := d.KineticEnergy()

	d.RunRoughSphereCollision(0, 1, 1.0, 1.0, 1.0)

	// Linear momentum is always conserved.
	p1 := d.Momentum()
	assert.InDelta(t, p0.X, p1.X, 1e-12)
	assert.InDelta(t, p0.Y, p1.Y, 1e-12)

	// Perfectly rough (et=1) elastic collisions conserve energy.
	assert.InDelta(t, ke0, d.KineticEnergy(), 1e-10)

	// The surface slip must have been exchanged into rotation.
	assert.NotEqual(t, r3.Vec{Z: 2}, d.store.Orientations[0].AngVel)
}

func TestRoughSphereSmoothLimit(t *testing.T) {
	d := newTestDynamics(2, Newtonian)
	d.EnableOrientation()
	d.species[0].Inertia = 0.1

	d.store.Particles[0].Pos = r3.Vec{X: -0.5}
	d.store.Particles[0].Vel = r3.Vec{X: 1}
	d.store.Particles[1].Pos = r3.Vec{X: 0.5}
	d.store.Orientations[0].AngVel = r3.Vec{Z: 3}

	// et = -1 switches the tangential coupling off entirely.
	d.RunRoughSphereCollision(0, 1, 1.0, -1.0, 1.0)

	assert.Equal(t, r3.Vec{Z: 3}, d.store.Orientations[0].AngVel)
}

func TestWallCollision(t *testing.T) {
	d := newTestDynamics(1, Newtonian)
	d.store.Particles[0].Vel = r3.Vec{X: 1, Y: -2}

	d.RunWallCollision(0, r3.Vec{Y: 1}, 1.0)

	assert.InDelta(t, 1.0, d.store.Particles[0].Vel.X, 1e-14)
	assert.InDelta(t, 2.0, d.store.Particles[0].Vel.Y, 1e-14)
}

func TestAndersenWallCollision(t *testing.T) {
	d := newTestDynamics(1, Newtonian)
	d.store.Particles[0].Vel = r3.Vec{Y: -1}
	rng := rand.New(rand.NewSource(42))

	d.RunAndersenWallCollision(0, r3.Vec{Y: 1}, 1.0, rng)

	// The outgoing normal component must point away from the wall.
	assert.Greater(t, d.store.Particles[0].Vel.Y, 0.0)
	assert.False(t, math.IsNaN(r3.Norm(d.store.Particles[0].Vel)))
}

func TestRotateDirector(t *testing.T) {
	u := r3.Vec{X: 1}
	w := r3.Vec{Z: math.Pi} // half turn per unit time

	got := rotate(u, w, 1.0)
	assert.InDelta(t, -1.0, got.X, 1e-12)
	assert.InDelta(t, 0.0, got.Y, 1e-12)

	// Norm preserved.
	assert.InDelta(t, 1.0, r3.Norm(got), 1e-12)
}
