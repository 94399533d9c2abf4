package dynamics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/particle"
)

func newTestDynamics(n int, variant Variant) *Dynamics {
	store := particle.NewStore(n)
	species := []particle.Species{{Name: "A", Begin: 0, End: n, Mass: 1}}
	bc := boundary.New(boundary.None, r3.Vec{X: 100, Y: 100, Z: 100})
	return New(variant, store, species, bc)
}

func TestNewtonianInRootHeadOn(t *testing.T) {
	d := newTestDynamics(2, Newtonian)

	// Two unit spheres closing at relative speed 2 from separation 4:
	// contact at separation 2 after t = 1.
	rij := r3.Vec{X: -4}
	vij := r3.Vec{X: 2}

	dt, ok := d.SphereSphereInRoot(rij, vij, 2.0, true, true, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dt, 1e-14)
}

func TestNewtonianInRootSeparating(t *testing.T) {
	d := newTestDynamics(2, Newtonian)

	_, ok := d.SphereSphereInRoot(r3.Vec{X: 4}, r3.Vec{X: 2}, 1.0, true, true, 0)
	assert.False(t, ok, "separating pair must not collide")
}

func TestNewtonianInRootMiss(t *testing.T) {
	d := newTestDynamics(2, Newtonian)

	// Impact parameter 2 > diameter 1: clean miss.
	rij := r3.Vec{X: -10, Y: 2}
	vij := r3.Vec{X: 1}
	_, ok := d.SphereSphereInRoot(rij, vij, 1.0, true, true, 0)
	assert.False(t, ok)
}

func TestNewtonianInRootOverlapApproaching(t *testing.T) {
	d := newTestDynamics(2, Newtonian)

	// Slight overlap left by rounding: collide immediately.
	dt, ok := d.SphereSphereInRoot(r3.Vec{X: -0.999999}, r3.Vec{X: 1}, 1.0, true, true, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, dt)
}

func TestNewtonianOutRoot(t *testing.T) {
	d := newTestDynamics(2, Newtonian)

	// Inside a shell of diameter 3 at separation 1, receding at speed 1:
	// escape after 2 time units.
	dt, ok := d.SphereSphereOutRoot(r3.Vec{X: 1}, r3.Vec{X: 1}, 3.0, true, true, 0)
	require.True(t, ok)
	assert.InDelta(t, 2.0, dt, 1e-14)
}

func TestCompressionRootGrowingDiameter(t *testing.T) {
	d := newTestDynamics(2, Compression)
	d.GrowthRate = 0.5

	// Stationary pair at separation 2, diameter 1 growing at 0.5/unit:
	// contact when 1 + 0.5 t = 2, i.e. t = 2.
	dt, ok := d.SphereSphereInRoot(r3.Vec{X: 2}, r3.Vec{}, 1.0, true, true, 0)
	require.True(t, ok)
	assert.InDelta(t, 2.0, dt, 1e-12)
}

func TestCompressionEffectiveDiameter(t *testing.T) {
	d := newTestDynamics(2, Compression)
	d.GrowthRate = 0.01

	assert.InDelta(t, 1.1, d.EffectiveDiameter(1.0, 10.0), 1e-14)
}

func TestGravityMixedPairRoot(t *testing.T) {
	d := newTestDynamics(2, NewtonianGravity)
	d.Gravity = r3.Vec{Y: -2}

	// A particle dropped from rest 2 above a static unit-diameter pair
	// partner: contact when 0.5*2*t^2 = 1, t = 1.
	rij := r3.Vec{Y: 2}
	vij := r3.Vec{}
	dt, ok := d.SphereSphereInRoot(rij, vij, 1.0, true, false, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dt, 1e-9)
}

func TestParabolaSentinel(t *testing.T) {
	d := newTestDynamics(1, NewtonianGravity)
	d.Gravity = r3.Vec{Y: -1}
	d.store.Particles[0].Vel = r3.Vec{X: 1, Y: 2}

	// Apex when v_y = 0: t = 2.
	dt := d.ParabolaSentinelTime(0)
	assert.InDelta(t, 2.0, dt, 1e-14)

	d.EnforceParabola(0)
	assert.Equal(t, 0.0, d.store.Particles[0].Vel.Y)
	assert.Equal(t, 1.0, d.store.Particles[0].Vel.X)

	// Falling with the field: no apex ahead.
	d.store.Particles[0].Vel = r3.Vec{Y: -1}
	assert.True(t, math.IsInf(d.ParabolaSentinelTime(0), 1))
}

func TestPBCSentinelTime(t *testing.T) {
	d := newTestDynamics(1, Newtonian)
	box := r3.Vec{X: 10, Y: 10, Z: 10}
	d.store.Particles[0].Vel = r3.Vec{X: 10}

	// Speed equal to the box edge: resync at L/(2v) = 0.5.
	assert.InDelta(t, 0.5, d.PBCSentinelTime(0, box), 1e-14)
}

func TestCellCrossingTimeNewtonian(t *testing.T) {
	d := newTestDynamics(1, Newtonian)
	d.store.Particles[0].Pos = r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	d.store.Particles[0].Vel = r3.Vec{X: 1, Y: -2}

	dt, axis, dir := d.CellCrossingTime(0, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	// y reaches 0 after 0.25, before x reaches 1 at 0.5.
	assert.InDelta(t, 0.25, dt, 1e-14)
	assert.Equal(t, 1, axis)
	assert.Equal(t, -1, dir)
}

func TestCellCrossingTimeGravity(t *testing.T) {
	d := newTestDynamics(1, NewtonianGravity)
	d.Gravity = r3.Vec{Y: -2}
	d.store.Particles[0].Pos = r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}

	// Free fall from rest: reaches y=0 when 0.5*2*t^2 = 0.5, t = sqrt(0.5).
	dt, axis, dir := d.CellCrossingTime(0, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	assert.InDelta(t, math.Sqrt(0.5), dt, 1e-12)
	assert.Equal(t, 1, axis)
	assert.Equal(t, -1, dir)
}

func TestUpdateParticleIdempotent(t *testing.T) {
	d := newTestDynamics(1, Newtonian)
	d.store.Particles[0].Vel = r3.Vec{X: 2}

	d.UpdateParticle(0, 1.5)
	pos := d.store.Particles[0].Pos
	d.UpdateParticle(0, 1.5)

	assert.Equal(t, pos, d.store.Particles[0].Pos)
	assert.Equal(t, 1.5, d.store.Particles[0].PecTime)
}

func TestGravityStreaming(t *testing.T) {
	d := newTestDynamics(1, NewtonianGravity)
	d.Gravity = r3.Vec{Y: -10}
	d.store.Particles[0].Vel = r3.Vec{X: 1}

	d.UpdateParticle(0, 2.0)
	p := d.store.Particles[0]
	assert.InDelta(t, 2.0, p.Pos.X, 1e-14)
	assert.InDelta(t, -20.0, p.Pos.Y, 1e-14)
	assert.InDelta(t, -20.0, p.Vel.Y, 1e-14)
}
