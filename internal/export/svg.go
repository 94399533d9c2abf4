// Package export renders simulation snapshots to SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/dynamo/internal/core"
)

// SnapshotSVG draws the xy projection of the current configuration:
// spheres as circles sized by their interaction diameter, shaded by their
// z coordinate.
func SnapshotSVG(sim *core.Simulation, size int) string {
	sim.Dyn.UpdateAllParticles(sim.SysTime)

	box := sim.PrimaryCellSize
	scale := float64(size) / box.X
	if box.Y > box.X {
		scale = float64(size) / box.Y
	}
	width := box.X * scale
	height := box.Y * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for id := range sim.Store.Particles {
		pos := sim.Store.Particles[id].Pos
		sim.BC.Apply(&pos)

		radius := 0.5
		if intr, err := sim.GetInteraction(id, (id+1)%sim.Store.N()); err == nil {
			if d := intr.MaxIntDist(); d > 0 {
				radius = d / 2
			}
		}

		cx := (pos.X + box.X/2) * scale
		cy := height - (pos.Y+box.Y/2)*scale
		shade := 96 + int(96*(pos.Z/box.Z+0.5))
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="rgb(0,%d,64)"/>
`, cx, cy, radius*scale, shade))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TraceSVG draws a scalar series (e.g. the kinetic-energy trace) as a
// polyline.
func TraceSVG(times, values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 || len(times) < len(values) {
		return ""
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	rangeV := maxV - minV
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.1
	rangeV *= 1.2
	rangeT := times[len(values)-1] - times[0]
	if rangeT == 0 {
		rangeT = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := (times[i] - times[0]) / rangeT * float64(width)
		y := float64(height) - (v-minV)/rangeV*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
