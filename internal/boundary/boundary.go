// Package boundary implements the closed set of boundary conditions:
// open, periodic, and Lees-Edwards sheared periodic.
package boundary

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Kind uint8

const (
	None Kind = iota
	Periodic
	LeesEdwards
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Periodic:
		return "PBC"
	case LeesEdwards:
		return "LE"
	}
	return "Unknown"
}

// BC applies minimum-image wrapping to separation vectors. Under
// Lees-Edwards the x coordinate and velocity pick up the shear offset when
// a vector wraps through y.
type BC struct {
	Kind      Kind
	Box       r3.Vec
	ShearRate float64

	// shear image displacement, advanced by Update
	shearOffset float64
}

func New(kind Kind, box r3.Vec) *BC {
	return &BC{Kind: kind, Box: box}
}

// Update advances the shear offset with the simulation clock. A no-op for
// non-sheared conditions.
func (b *BC) Update(dt float64) {
	if b.Kind != LeesEdwards {
		return
	}
	b.shearOffset += b.ShearRate * b.Box.Y * dt
	b.shearOffset -= b.Box.X * math.Round(b.shearOffset/b.Box.X)
}

func (b *BC) ShearOffset() float64 { return b.shearOffset }

// Apply wraps pos into the primary image.
func (b *BC) Apply(pos *r3.Vec) {
	if b.Kind == None {
		return
	}
	if b.Kind == LeesEdwards {
		images := math.Round(pos.Y / b.Box.Y)
		pos.X -= images * b.shearOffset
	}
	pos.X -= b.Box.X * math.Round(pos.X/b.Box.X)
	pos.Y -= b.Box.Y * math.Round(pos.Y/b.Box.Y)
	pos.Z -= b.Box.Z * math.Round(pos.Z/b.Box.Z)
}

// ApplyBoth wraps a separation vector and corrects the relative velocity
// for the shear carried by wrapped images.
func (b *BC) ApplyBoth(pos, vel *r3.Vec) {
	if b.Kind == LeesEdwards {
		images := math.Round(pos.Y / b.Box.Y)
		pos.X -= images * b.shearOffset
		vel.X -= images * b.ShearRate * b.Box.Y
	}
	if b.Kind != None {
		pos.X -= b.Box.X * math.Round(pos.X/b.Box.X)
		pos.Y -= b.Box.Y * math.Round(pos.Y/b.Box.Y)
		pos.Z -= b.Box.Z * math.Round(pos.Z/b.Box.Z)
	}
}

// Rescale shrinks or grows the primary image, used when compression runs
// rescale the unit length.
func (b *BC) Rescale(factor float64) {
	b.Box = r3.Scale(factor, b.Box)
	b.shearOffset *= factor
}
