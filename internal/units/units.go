// Package units handles the reduced unit system. All internal quantities
// are stored in simulation units; configuration files carry values divided
// by these scales.
package units

// Units holds the fundamental scales. Derived scales (velocity, energy)
// follow from these.
type Units struct {
	Length float64
	Time   float64
	Mass   float64
}

func Default() Units {
	return Units{Length: 1, Time: 1, Mass: 1}
}

func (u Units) Velocity() float64 { return u.Length / u.Time }

func (u Units) Energy() float64 {
	v := u.Velocity()
	return u.Mass * v * v
}

func (u Units) Area() float64 { return u.Length * u.Length }

func (u Units) Volume() float64 { return u.Length * u.Length * u.Length }

// RescaleLength is used when a compression run finishes: particle
// diameters grew during the run, and rescaling the length unit by the
// growth factor returns them to their nominal size in configured units;
// the internal diameters keep their grown values.
func (u *Units) RescaleLength(factor float64) { u.Length *= factor }

// RescaleTime accompanies RescaleLength so the velocity and energy scales
// are unchanged by the rescale.
func (u *Units) RescaleTime(factor float64) { u.Time *= factor }
