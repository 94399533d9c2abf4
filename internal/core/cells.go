package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/event"
)

// overlapLambda is the extra cell sizing used while diameters grow, so a
// compression run does not immediately outgrow its neighbour list.
const overlapLambda = 0.1

type cellEntry struct {
	prev, next, cell int32
}

// Cells is the neighbour oracle: a rectilinear partition of the primary
// image with an intrusive doubly-linked particle list per cell and a
// cached neighbour set per cell.
type Cells struct {
	sim     *Simulation
	name    string
	id      int
	overlap bool

	count      [3]int
	width      [3]float64
	ncells     int
	list       []int32 // per-cell list head, -1 empty
	part       []cellEntry
	neighbours [][]int32
}

func NewCells(sim *Simulation, name string) *Cells {
	return &Cells{sim: sim, name: name}
}

func (c *Cells) Name() string { return c.name }

// SetCellOverlap sizes cells above the current longest interaction so
// growing particles stay covered between rebuilds.
func (c *Cells) SetCellOverlap(on bool) { c.overlap = on }

func (c *Cells) Initialise(id int) error {
	c.id = id
	return c.Reinitialise()
}

// Reinitialise rebuilds the grid for the current interaction range and
// repopulates the lists.
func (c *Cells) Reinitialise() error {
	target := c.sim.LongestInteraction()
	if target <= 0 {
		return configErrorf("cell list %q needs a positive interaction range", c.name)
	}
	// Compression grows every interaction range; size on today's value.
	target = c.sim.Dyn.EffectiveDiameter(target, c.sim.SysTime)
	if c.overlap {
		target *= 1 + overlapLambda
	}

	box := c.sim.PrimaryCellSize
	dims := [3]float64{box.X, box.Y, box.Z}
	c.ncells = 1
	for a := 0; a < 3; a++ {
		n := int(dims[a] / target)
		if n < 1 {
			n = 1
		}
		c.count[a] = n
		c.width[a] = dims[a] / float64(n)
		c.ncells *= n
	}

	c.list = make([]int32, c.ncells)
	for i := range c.list {
		c.list[i] = -1
	}
	c.part = make([]cellEntry, c.sim.Store.N())
	c.buildNeighbours()

	// Bin particles by their positions at the current clock.
	c.sim.Dyn.UpdateAllParticles(c.sim.SysTime)
	for i := range c.sim.Store.Particles {
		c.addToCell(int32(i), c.cellOfPosition(c.sim.Store.Particles[i].Pos))
	}
	return nil
}

func (c *Cells) buildNeighbours() {
	c.neighbours = make([][]int32, c.ncells)
	for cell := 0; cell < c.ncells; cell++ {
		coords := c.coordsOf(int32(cell))
		seen := make(map[int32]struct{}, 27)
		var nbs []int32
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					n := c.cellAt([3]int{
						wrapIdx(coords[0]+dx, c.count[0]),
						wrapIdx(coords[1]+dy, c.count[1]),
						wrapIdx(coords[2]+dz, c.count[2]),
					})
					if _, dup := seen[n]; !dup {
						seen[n] = struct{}{}
						nbs = append(nbs, n)
					}
				}
			}
		}
		c.neighbours[cell] = nbs
	}
}

func wrapIdx(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (c *Cells) cellAt(coords [3]int) int32 {
	return int32((coords[2]*c.count[1]+coords[1])*c.count[0] + coords[0])
}

func (c *Cells) coordsOf(cell int32) [3]int {
	x := int(cell) % c.count[0]
	y := (int(cell) / c.count[0]) % c.count[1]
	z := int(cell) / (c.count[0] * c.count[1])
	return [3]int{x, y, z}
}

func (c *Cells) cellOfPosition(pos r3.Vec) int32 {
	w := pos
	c.sim.BC.Apply(&w)
	box := c.sim.PrimaryCellSize
	coords := [3]int{
		clampIdx(int(math.Floor((w.X+0.5*box.X)/c.width[0])), c.count[0]),
		clampIdx(int(math.Floor((w.Y+0.5*box.Y)/c.width[1])), c.count[1]),
		clampIdx(int(math.Floor((w.Z+0.5*box.Z)/c.width[2])), c.count[2]),
	}
	return c.cellAt(coords)
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (c *Cells) addToCell(id, cell int32) {
	if c.list[cell] != -1 {
		c.part[c.list[cell]].prev = id
	}
	c.part[id].next = c.list[cell]
	c.list[cell] = id
	c.part[id].prev = -1
	c.part[id].cell = cell
}

func (c *Cells) removeFromCell(id int32) {
	e := &c.part[id]
	if e.prev != -1 {
		c.part[e.prev].next = e.next
	} else {
		c.list[e.cell] = e.next
	}
	if e.next != -1 {
		c.part[e.next].prev = e.prev
	}
}

// CellOf reports the cell a particle is registered in.
func (c *Cells) CellOf(id int) int32 { return c.part[id].cell }

// GetParticleNeighbourhood invokes visit for every particle in p's cell
// and its cached neighbour cells, excluding p itself.
func (c *Cells) GetParticleNeighbourhood(p int, visit func(q int)) {
	for _, cell := range c.neighbours[c.part[p].cell] {
		for q := c.list[cell]; q != -1; q = c.part[q].next {
			if int(q) != p {
				visit(int(q))
			}
		}
	}
}

// cellBounds returns the wrapped-space slab of the particle's registered
// cell, shifted to the particle's unwrapped frame.
func (c *Cells) cellBounds(p int) (lo, hi r3.Vec) {
	coords := c.coordsOf(c.part[p].cell)
	box := c.sim.PrimaryCellSize

	lo = r3.Vec{
		X: -0.5*box.X + float64(coords[0])*c.width[0],
		Y: -0.5*box.Y + float64(coords[1])*c.width[1],
		Z: -0.5*box.Z + float64(coords[2])*c.width[2],
	}
	hi = r3.Vec{X: lo.X + c.width[0], Y: lo.Y + c.width[1], Z: lo.Z + c.width[2]}

	// The particle's stored position may sit outside the primary image;
	// shift the slab to the image of the registered cell nearest the
	// particle, so a particle resting on a box face keeps its cell's image.
	pos := c.sim.Store.Particles[p].Pos
	sep := r3.Sub(pos, r3.Scale(0.5, r3.Add(lo, hi)))
	w := sep
	c.sim.BC.Apply(&w)
	off := r3.Sub(sep, w)
	return r3.Add(lo, off), r3.Add(hi, off)
}

func (c *Cells) GetEvent(p int) event.Event {
	s := c.sim
	s.Dyn.UpdateParticle(p, s.SysTime)

	lo, hi := c.cellBounds(p)
	dt, axis, dir := s.Dyn.CellCrossingTime(p, lo, hi)
	if math.IsInf(dt, 1) {
		return event.NewNone()
	}
	return event.Event{
		Time: s.SysTime + dt,
		Kind: event.KindCell, Type: event.CellCross,
		P1: p, P2: -1, Source: c.id,
		Axis: int8(axis), Dir: int8(dir),
	}
}

// RunEvent moves the particle to the adjacent cell and schedules events
// against the newly visible plane of cells. The crossing itself carries
// no impulse.
func (c *Cells) RunEvent(ev event.Event) error {
	p := ev.P1
	oldCoords := c.coordsOf(c.part[p].cell)

	newCoords := oldCoords
	axis := int(ev.Axis)
	newCoords[axis] = wrapIdx(oldCoords[axis]+int(ev.Dir), c.count[axis])

	c.removeFromCell(int32(p))
	c.addToCell(int32(p), c.cellAt(newCoords))

	// Only the plane of cells ahead of the crossing holds particles the
	// scheduler has not yet tested against p.
	aheadAxis := wrapIdx(newCoords[axis]+int(ev.Dir), c.count[axis])
	seen := make(map[int32]struct{}, 9)
	for d1 := -1; d1 <= 1; d1++ {
		for d2 := -1; d2 <= 1; d2++ {
			coords := newCoords
			coords[axis] = aheadAxis
			o1, o2 := otherAxes(axis)
			coords[o1] = wrapIdx(newCoords[o1]+d1, c.count[o1])
			coords[o2] = wrapIdx(newCoords[o2]+d2, c.count[o2])
			cell := c.cellAt(coords)
			if _, dup := seen[cell]; dup {
				continue
			}
			seen[cell] = struct{}{}
			for q := c.list[cell]; q != -1; q = c.part[q].next {
				if int(q) != p {
					c.sim.Sched.AddInteractionEvent(p, int(q))
				}
			}
		}
	}

	c.sim.Sched.PushEvent(c.GetEvent(p))
	c.sim.FreestreamAcc += c.sim.lastDt
	return nil
}

func otherAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	}
	return 0, 1
}

// ValidateLists checks the intrusive list structure: every particle in
// exactly one cell, links consistent, registered cell matching the list
// that holds it. Particle positions are not compared with their cells.
// Returns the error count.
func (c *Cells) ValidateLists() int {
	errs := 0
	seen := make([]bool, len(c.part))
	for cell := int32(0); cell < int32(c.ncells); cell++ {
		prev := int32(-1)
		for q := c.list[cell]; q != -1; q = c.part[q].next {
			if seen[q] {
				errs++ // cycle or double membership
				break
			}
			seen[q] = true
			if c.part[q].cell != cell || c.part[q].prev != prev {
				errs++
			}
			prev = q
		}
	}
	for _, ok := range seen {
		if !ok {
			errs++
		}
	}
	return errs
}
