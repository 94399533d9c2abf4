package configfile

import (
	"encoding/xml"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/boundary"
	"github.com/san-kum/dynamo/internal/core"
	"github.com/san-kum/dynamo/internal/dynamics"
	"github.com/san-kum/dynamo/internal/particle"
	"github.com/san-kum/dynamo/internal/units"
)

func vec(v VectorNode) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func node(v r3.Vec) VectorNode { return VectorNode{X: v.X, Y: v.Y, Z: v.Z} }

// Build constructs an uninitialised simulation from a parsed document,
// scaling every configured value into internal reduced units.
func Build(doc *Document, name string) (*core.Simulation, error) {
	sim := core.NewSimulation(name)
	sn := &doc.Simulation

	u := units.Default()
	if sn.Units != nil {
		u = units.Units{Length: sn.Units.Length, Time: sn.Units.Time, Mass: sn.Units.Mass}
	}
	sim.Units = u
	uLen, uTime, uMass := u.Length, u.Time, u.Mass
	uVel := u.Velocity()

	sim.LastRunMFT = sn.LastMFT * uTime

	box := r3.Scale(uLen, vec(sn.Size))
	store := particle.NewStore(len(sn.Particles.Particles))

	names := map[string]bool{}
	for _, spn := range sn.Genus.Species {
		if names[spn.Name] {
			return nil, core.ConfigError{Msg: fmt.Sprintf("species name %q is not unique", spn.Name)}
		}
		names[spn.Name] = true
		sp := particle.Species{
			Name:    spn.Name,
			IntName: spn.IntName,
			Begin:   spn.Begin,
			End:     spn.End,
			Mass:    spn.Mass * uMass,
		}
		if spn.Type == "SphericalTop" {
			sp.Inertia = spn.InertiaConstant * uMass * u.Area()
		}
		if err := sim.AddSpecies(sp); err != nil {
			return nil, err
		}
	}

	var bcKind boundary.Kind
	switch sn.BC.Type {
	case "PBC", "":
		bcKind = boundary.Periodic
	case "None":
		bcKind = boundary.None
	case "LE":
		bcKind = boundary.LeesEdwards
	default:
		return nil, core.ConfigError{Msg: fmt.Sprintf("unknown boundary condition %q", sn.BC.Type)}
	}
	bc := boundary.New(bcKind, box)
	bc.ShearRate = sn.BC.ShearRate / uTime

	if err := sim.SetParticles(store, box); err != nil {
		return nil, err
	}
	if err := sim.SetBC(bc); err != nil {
		return nil, err
	}

	var variant dynamics.Variant
	switch sn.Dynamics.Type {
	case "Newtonian", "":
		variant = dynamics.Newtonian
	case "NewtonianGravity":
		variant = dynamics.NewtonianGravity
	case "Compression":
		variant = dynamics.Compression
	default:
		return nil, core.ConfigError{Msg: fmt.Sprintf("unknown dynamics %q", sn.Dynamics.Type)}
	}
	dyn := dynamics.New(variant, store, sim.SpeciesList, bc)
	if sn.Dynamics.Gravity != nil {
		dyn.Gravity = r3.Scale(uLen/(uTime*uTime), vec(*sn.Dynamics.Gravity))
	}
	dyn.GrowthRate = sn.Dynamics.GrowthRate / uTime
	if err := sim.SetDynamics(dyn); err != nil {
		return nil, err
	}

	needOrient := false
	for _, pn := range sn.Particles.Particles {
		if pn.ID < 0 || pn.ID >= store.N() {
			return nil, core.ConfigError{Msg: fmt.Sprintf("particle ID %d out of range", pn.ID)}
		}
		p := &store.Particles[pn.ID]
		p.Pos = r3.Scale(uLen, vec(pn.Position))
		p.Vel = r3.Scale(uVel, vec(pn.Velocity))
		p.Dynamic = !pn.Static
		if pn.Director != nil {
			needOrient = true
		}
	}
	if needOrient {
		dyn.EnableOrientation()
		for _, pn := range sn.Particles.Particles {
			if pn.Director != nil {
				store.Orientations[pn.ID].U = vec(*pn.Director)
			}
			if pn.AngVel != nil {
				store.Orientations[pn.ID].AngVel = r3.Scale(1/uTime, vec(*pn.AngVel))
			}
		}
	}

	for _, in := range sn.Ints.Interactions {
		rng, err := buildPairRange(in.Range)
		if err != nil {
			return nil, err
		}
		var intr core.Interaction
		switch in.Type {
		case "HardSphere":
			intr = core.NewHardSphere(sim, in.Diameter*uLen, in.Elasticity, rng, in.Name)
		case "RoughHardSphere":
			intr = core.NewRoughHardSphere(sim, in.Diameter*uLen, in.Elasticity, in.TangentialE, rng, in.Name)
		case "SquareWell":
			sw := core.NewSquareWell(sim, in.Diameter*uLen, in.Lambda, in.WellDepth*u.Energy(), in.Elasticity, rng, in.Name)
			loadCaptureMap(sw.CaptureMap(), in.CaptureMap)
			intr = sw
		case "Dumbbells":
			db := core.NewDumbbells(sim, in.Length*uLen, in.Radius*uLen, in.Elasticity, rng, in.Name)
			loadCaptureMap(db.CaptureMap(), in.CaptureMap)
			intr = db
		case "Lines":
			ln := core.NewLines(sim, in.Length*uLen, in.Elasticity, rng, in.Name)
			loadCaptureMap(ln.CaptureMap(), in.CaptureMap)
			intr = ln
		case "Null":
			intr = core.NewNullInteraction(sim, rng, in.Name)
		default:
			return nil, core.ConfigError{Msg: fmt.Sprintf("unknown interaction type %q", in.Type)}
		}
		if err := sim.AddInteraction(intr); err != nil {
			return nil, err
		}
	}

	for _, ln := range sn.Locals.Locals {
		switch ln.Type {
		case "Wall":
			w := core.NewWall(sim, r3.Scale(uLen, vec(ln.Origin)), vec(ln.Normal), ln.Elasticity, buildRange(ln.Range), ln.Name)
			w.Temperature = ln.Temperature * u.Energy()
			if err := sim.AddLocal(w); err != nil {
				return nil, err
			}
		default:
			return nil, core.ConfigError{Msg: fmt.Sprintf("unknown local type %q", ln.Type)}
		}
	}

	for _, syn := range sn.Systems.Systems {
		switch syn.Type {
		case "Halt":
			if err := sim.AddSystem(core.NewHalt(sim, syn.Time*uTime, syn.Name)); err != nil {
				return nil, err
			}
		case "Ticker":
			if err := sim.AddSystem(core.NewTicker(sim, syn.Period*uTime, syn.Name)); err != nil {
				return nil, err
			}
		default:
			return nil, core.ConfigError{Msg: fmt.Sprintf("unknown system type %q", syn.Type)}
		}
	}

	kind := core.SchedulerKind(sn.Scheduler.Type)
	if kind == "" {
		kind = core.SchedulerNeighbourList
	}
	if kind != core.SchedulerNeighbourList && kind != core.SchedulerDumb {
		return nil, core.ConfigError{Msg: fmt.Sprintf("unknown scheduler %q", sn.Scheduler.Type)}
	}
	if err := sim.SetScheduler(kind); err != nil {
		return nil, err
	}

	return sim, nil
}

func loadCaptureMap(cm *core.CaptureMap, node *CaptureNode) {
	if node == nil {
		return
	}
	for _, p := range node.Pairs {
		cm.Add(p.ID1, p.ID2)
	}
}

func buildRange(rn RangeNode) core.Range {
	switch rn.Type {
	case "Ranged":
		return core.RangeSpan{Begin: rn.Begin, End: rn.End}
	default:
		return core.RangeAll{}
	}
}

func buildPairRange(prn PairRangeNode) (core.PairRange, error) {
	switch prn.Type {
	case "All", "":
		return core.PairAll{}, nil
	case "Within":
		if len(prn.Ranges) != 1 {
			return nil, core.ConfigError{Msg: "Within pair range needs exactly one IDRange"}
		}
		return core.PairWithin{R: buildRange(prn.Ranges[0])}, nil
	case "Pair":
		if len(prn.Ranges) != 2 {
			return nil, core.ConfigError{Msg: "Pair pair range needs exactly two IDRanges"}
		}
		return core.PairBetween{R1: buildRange(prn.Ranges[0]), R2: buildRange(prn.Ranges[1])}, nil
	case "None":
		return core.PairNone{}, nil
	}
	return nil, core.ConfigError{Msg: fmt.Sprintf("unknown pair range type %q", prn.Type)}
}

// Snapshot converts a simulation back into a document, dividing values by
// the unit scales. MFT comes from the Misc plugin when present.
func Snapshot(sim *core.Simulation) *Document {
	u := sim.Units
	uLen, uTime := u.Length, u.Time
	uVel := u.Velocity()

	sim.Dyn.UpdateAllParticles(sim.SysTime)

	sn := SimNode{
		Scheduler: SchedNode{Type: string(schedulerKind(sim)), Sorter: "BoundedPQ"},
		Size:      node(r3.Scale(1/uLen, sim.PrimaryCellSize)),
	}

	mft := sim.LastRunMFT
	for _, p := range sim.Plugins {
		if m, ok := p.(*core.Misc); ok {
			if v := m.MFT(); !isBad(v) {
				mft = v
			}
		}
	}
	sn.LastMFT = mft / uTime

	if u != units.Default() {
		sn.Units = &UnitsNode{Length: u.Length, Time: u.Time, Mass: u.Mass}
	}

	for _, sp := range sim.SpeciesList {
		spn := SpeciesNode{
			Name: sp.Name, IntName: sp.IntName, Type: "Point",
			Mass: sp.Mass / u.Mass, Begin: sp.Begin, End: sp.End,
		}
		if sp.Inertia > 0 {
			spn.Type = "SphericalTop"
			spn.InertiaConstant = sp.Inertia / (u.Mass * u.Area())
		}
		sn.Genus.Species = append(sn.Genus.Species, spn)
	}

	switch sim.BC.Kind {
	case boundary.Periodic:
		sn.BC.Type = "PBC"
	case boundary.LeesEdwards:
		sn.BC.Type = "LE"
		sn.BC.ShearRate = sim.BC.ShearRate * uTime
	default:
		sn.BC.Type = "None"
	}

	for _, intr := range sim.Interactions {
		sn.Ints.Interactions = append(sn.Ints.Interactions, snapshotInteraction(intr, u))
	}

	for _, l := range sim.Locals {
		if w, ok := l.(*core.Wall); ok {
			sn.Locals.Locals = append(sn.Locals.Locals, LocalNode{
				Type: "Wall", Name: w.Name(),
				Elasticity:  w.Elasticity,
				Temperature: w.Temperature / u.Energy(),
				Origin:      node(r3.Scale(1/uLen, w.Origin)),
				Normal:      node(w.Normal),
				Range:       snapshotRange(w.ParticleRange()),
			})
		}
	}

	for _, sys := range sim.Systems {
		switch s := sys.(type) {
		case *core.Ticker:
			sn.Systems.Systems = append(sn.Systems.Systems, SystemNode{
				Type: "Ticker", Name: s.Name(), Period: s.Period() / uTime,
			})
		}
	}

	switch sim.Dyn.Variant {
	case dynamics.NewtonianGravity:
		sn.Dynamics.Type = "NewtonianGravity"
		g := node(r3.Scale(uTime*uTime/uLen, sim.Dyn.Gravity))
		sn.Dynamics.Gravity = &g
	case dynamics.Compression:
		sn.Dynamics.Type = "Compression"
		sn.Dynamics.GrowthRate = sim.Dyn.GrowthRate * uTime
	default:
		sn.Dynamics.Type = "Newtonian"
	}

	for i := range sim.Store.Particles {
		p := &sim.Store.Particles[i]
		pn := ParticleNode{
			ID:       p.ID,
			Static:   !p.Dynamic,
			Position: node(r3.Scale(1/uLen, p.Pos)),
			Velocity: node(r3.Scale(1/uVel, p.Vel)),
		}
		if sim.Store.HasOrientation() {
			o := node(sim.Store.Orientations[i].U)
			w := node(r3.Scale(uTime, sim.Store.Orientations[i].AngVel))
			pn.Director, pn.AngVel = &o, &w
		}
		sn.Particles.Particles = append(sn.Particles.Particles, pn)
	}

	return &Document{Version: Version, Simulation: sn}
}

func schedulerKind(sim *core.Simulation) core.SchedulerKind {
	if sim.Sched != nil {
		return sim.Sched.Kind()
	}
	return core.SchedulerNeighbourList
}

func snapshotRange(r core.Range) RangeNode {
	if span, ok := r.(core.RangeSpan); ok {
		return RangeNode{Type: "Ranged", Begin: span.Begin, End: span.End}
	}
	return RangeNode{Type: "All"}
}

func snapshotPairRange(pr core.PairRange) PairRangeNode {
	switch r := pr.(type) {
	case core.PairWithin:
		return PairRangeNode{Type: "Within", Ranges: []RangeNode{snapshotRange(r.R)}}
	case core.PairBetween:
		return PairRangeNode{Type: "Pair", Ranges: []RangeNode{snapshotRange(r.R1), snapshotRange(r.R2)}}
	case core.PairNone:
		return PairRangeNode{Type: "None"}
	}
	return PairRangeNode{Type: "All"}
}

type pairRanged interface {
	PairRange() core.PairRange
}

func snapshotInteraction(intr core.Interaction, u units.Units) InteractionNode {
	uLen := u.Length
	in := InteractionNode{Name: intr.Name(), Range: PairRangeNode{Type: "All"}}
	if pr, ok := intr.(pairRanged); ok {
		in.Range = snapshotPairRange(pr.PairRange())
	}

	switch i := intr.(type) {
	case *core.HardSphere:
		in.Type = "HardSphere"
		in.Diameter = i.Diameter() / uLen
		in.Elasticity = i.Elasticity()
	case *core.RoughHardSphere:
		in.Type = "RoughHardSphere"
		in.Diameter = i.Diameter() / uLen
		in.Elasticity = i.Elasticity()
		in.TangentialE = i.TangentialE()
	case *core.SquareWell:
		in.Type = "SquareWell"
		in.Diameter = i.Diameter() / uLen
		in.Lambda = i.Lambda()
		in.WellDepth = i.WellDepth() / u.Energy()
		in.Elasticity = i.Elasticity()
		in.CaptureMap = snapshotCapture(i.CaptureMap())
	case *core.Dumbbells:
		in.Type = "Dumbbells"
		in.Length = i.Length() / uLen
		in.Radius = i.Radius() / uLen
		in.Elasticity = i.Elasticity()
		in.CaptureMap = snapshotCapture(i.CaptureMap())
	case *core.Lines:
		in.Type = "Lines"
		in.Length = i.Length() / uLen
		in.Elasticity = i.Elasticity()
		in.CaptureMap = snapshotCapture(i.CaptureMap())
	default:
		in.Type = "Null"
	}
	return in
}

func snapshotCapture(cm *core.CaptureMap) *CaptureNode {
	if cm.Len() == 0 {
		return nil
	}
	n := &CaptureNode{}
	for _, p := range cm.Pairs() {
		n.Pairs = append(n.Pairs, CapturePair{ID1: p[0], ID2: p[1]})
	}
	return n
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// WriteOutputData marshals the plugin sections into the document's
// OutputData node.
func WriteOutputData(doc *Document, sim *core.Simulation) error {
	out := &OutputDoc{}
	for _, p := range sim.Plugins {
		payload := p.Output()
		if payload == nil {
			continue
		}
		raw, err := xml.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshalling output plugin %q: %w", p.Name(), err)
		}
		var sec RawSection
		if err := xml.Unmarshal(raw, &sec); err != nil {
			return err
		}
		out.Sections = append(out.Sections, sec)
	}
	doc.Output = out
	return nil
}
