package core

import (
	"math"
)

// ReplexSwap exchanges the thermodynamic identity of two simulations:
// clocks and event counts swap, velocities rescale to the partner's
// temperature and the queued event times stretch by the inverse factor.
// Swapping twice restores both simulations.
func (s *Simulation) ReplexSwap(other *Simulation) error {
	if s.status != StatusInitialised || other.status != StatusInitialised {
		return StateError{Op: "replica exchange", Status: s.status}
	}

	s.Dyn.UpdateAllParticles(s.SysTime)
	other.Dyn.UpdateAllParticles(other.SysTime)

	s.SysTime, other.SysTime = other.SysTime, s.SysTime
	s.EventCount, other.EventCount = other.EventCount, s.EventCount

	// pecTimes follow the swapped clocks.
	for i := range s.Store.Particles {
		s.Store.Particles[i].PecTime = s.SysTime
	}
	for i := range other.Store.Particles {
		other.Store.Particles[i].PecTime = other.SysTime
	}

	if len(s.Systems) != len(other.Systems) {
		return configErrorf("replica exchange partners have mismatched system lists (%d vs %d)", len(s.Systems), len(other.Systems))
	}
	for i := range s.Systems {
		s.Systems[i].ReplicaExchange(other.Systems[i])
	}
	s.Dyn.ReplicaExchange(other.Dyn)

	scale1 := math.Sqrt(other.Ens.Vals()[2] / s.Ens.Vals()[2])
	scale2 := 1 / scale1

	s.Dyn.ScaleVelocities(scale1)
	other.Dyn.ScaleVelocities(scale2)

	// Velocities scaled by k compress all flight times by 1/k. The
	// queues also moved to the swapped clock origin.
	s.Sched.retimeQueues(other.SysTime, s.SysTime, scale2)
	other.Sched.retimeQueues(s.SysTime, other.SysTime, scale1)

	s.Sched.RebuildSystemEvents()
	other.Sched.RebuildSystemEvents()

	for i := range s.Plugins {
		if i < len(other.Plugins) {
			s.Plugins[i].ReplicaExchange(other.Plugins[i])
			s.Plugins[i].TemperatureRescale(scale1 * scale1)
			other.Plugins[i].TemperatureRescale(scale2 * scale2)
		}
	}

	s.Ens.Swap(other.Ens)
	return nil
}

// retimeQueues maps queued absolute times from the old clock origin onto
// the new one, stretching the remaining flight by factor.
func (s *Scheduler) retimeQueues(oldOrigin, newOrigin, factor float64) {
	if s.sorter == nil {
		return
	}
	s.sorter.TransformTimes(func(t float64) float64 {
		return newOrigin + (t-oldOrigin)*factor
	})
}
