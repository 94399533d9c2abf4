package core

import (
	"math"

	"github.com/san-kum/dynamo/internal/dynamics"
)

// Compressor drives a compression run: particle diameters grow linearly
// until a target packing fraction halts the run, then the unit length is
// rescaled so diameters return to their nominal size.
type Compressor struct {
	sim        *Simulation
	growthRate float64
}

func NewCompressor(sim *Simulation, growthRate float64) *Compressor {
	return &Compressor{sim: sim, growthRate: growthRate}
}

// MakeGrowth switches the dynamics to the compression variant. Must run
// before Initialise.
func (c *Compressor) MakeGrowth() error {
	if c.sim.Status() >= StatusInitialised {
		return StateError{Op: "enable compression", Status: c.sim.Status()}
	}
	c.sim.Dyn.Variant = dynamics.Compression
	c.sim.Dyn.GrowthRate = c.growthRate
	return nil
}

// CellSchedulerHack keeps the cell list viable while diameters grow: the
// cells are built with overlap headroom at init, and the fix system added
// here rebuilds them before the headroom runs out.
func (c *Compressor) CellSchedulerHack() error {
	return c.sim.AddSystem(NewNBListCompressionFix(c.sim, c.growthRate, "NBListCompressionFix"))
}

// LimitPackingFraction halts the run when the growing spheres reach the
// target packing fraction.
func (c *Compressor) LimitPackingFraction(target float64) error {
	current := c.sim.PackingFraction()
	if target < current {
		return configErrorf("target packing fraction %.4g is below the current %.4g", target, current)
	}
	dt := (math.Cbrt(target/current) - 1) / c.growthRate
	return c.sim.AddSystem(NewHalt(c.sim, dt, "CompressionLimiter"))
}

// LimitDensity is LimitPackingFraction expressed as a number density.
func (c *Compressor) LimitDensity(target float64) error {
	molVol := c.sim.PackingFraction() * c.sim.SimVolume() / float64(c.sim.Store.N())
	return c.LimitPackingFraction(molVol * target)
}

// RestoreSystem finishes the compression: interaction lengths and the
// unit scales are rescaled so a diameter of 1 before the run is a
// diameter of 1 after it, with the box correspondingly smaller.
func (c *Compressor) RestoreSystem() {
	s := c.sim
	s.Dyn.UpdateAllParticles(s.SysTime)

	factor := 1 + s.SysTime*c.growthRate

	// Bake the accumulated growth into the stored lengths, then rescale
	// the unit system so those lengths read as their nominal values.
	for _, intr := range s.Interactions {
		intr.RescaleLengths(factor)
	}
	s.Units.RescaleLength(factor)
	s.Units.RescaleTime(factor)

	s.Dyn.Variant = dynamics.Newtonian
	s.Dyn.GrowthRate = 0

	for _, sys := range s.Systems {
		if fix, ok := sys.(*NBListCompressionFix); ok {
			fix.Disarm()
		}
	}

	if s.Cells != nil {
		s.Cells.SetCellOverlap(false)
		if err := s.Cells.Reinitialise(); err == nil && s.Sched != nil && s.Sched.sorter != nil {
			s.Sched.rebuildAllEvents()
			s.Sched.RebuildSystemEvents()
		}
	}
}
