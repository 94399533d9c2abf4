package core

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dynamo/internal/event"
)

// OutputPlugin observes the event stream and contributes a section to the
// OutputData document. Output returns an encoding/xml-marshallable value.
type OutputPlugin interface {
	Name() string
	Initialise() error
	EventUpdate(ev event.Event, data event.PairEventData)
	PeriodicOutput(w io.Writer)
	Output() any
	ReplicaExchange(other OutputPlugin)
	TemperatureRescale(factor float64)
}

// TickerPlugin additionally samples on the system ticker.
type TickerPlugin interface {
	OutputPlugin
	Tick()
}

// Misc tracks the bulk counters: event totals by kind, mean free time,
// kinetic energy and momentum traces.
type Misc struct {
	sim *Simulation

	events        map[string]uint64
	particleHits  uint64
	startKE       float64
	KETrace       []float64
	TimeTrace     []float64
	traceInterval uint64
}

func NewMisc(sim *Simulation) *Misc {
	return &Misc{sim: sim, events: make(map[string]uint64), traceInterval: 256}
}

func (m *Misc) Name() string { return "Misc" }

func (m *Misc) Initialise() error {
	m.startKE = m.sim.Dyn.KineticEnergy()
	return nil
}

func (m *Misc) EventUpdate(ev event.Event, data event.PairEventData) {
	m.events[ev.Kind.String()+"/"+ev.Type.String()]++
	if ev.Kind == event.KindInteraction || ev.Kind == event.KindLocal {
		m.particleHits++
		if ev.P2 >= 0 {
			m.particleHits++
		}
	}
	if m.sim.EventCount%m.traceInterval == 0 {
		m.KETrace = append(m.KETrace, m.sim.Dyn.KineticEnergy())
		m.TimeTrace = append(m.TimeTrace, m.sim.SysTime)
	}
}

// MFT is the mean free time per particle: total particle-time over the
// number of particle-event participations.
func (m *Misc) MFT() float64 {
	if m.particleHits == 0 {
		return math.Inf(1)
	}
	return 2 * m.sim.SysTime * float64(m.sim.Store.N()) / float64(2*m.particleHits)
}

func (m *Misc) PeriodicOutput(w io.Writer) {
	fmt.Fprintf(w, "t=%.6g events=%d KE=%.8g", m.sim.SysTime, m.sim.EventCount, m.sim.Dyn.KineticEnergy())
}

type miscOutput struct {
	XMLName xml.Name `xml:"Misc"`
	MFT     float64  `xml:"MeanFreeTime,attr"`
	Events  uint64   `xml:"Events,attr"`
	KE      float64  `xml:"KineticEnergy,attr"`
	Px      float64  `xml:"MomentumX,attr"`
	Py      float64  `xml:"MomentumY,attr"`
	Pz      float64  `xml:"MomentumZ,attr"`
}

func (m *Misc) Output() any {
	p := m.sim.Dyn.Momentum()
	return miscOutput{
		MFT:    m.MFT(),
		Events: m.sim.EventCount,
		KE:     m.sim.Dyn.KineticEnergy(),
		Px:     p.X, Py: p.Y, Pz: p.Z,
	}
}

func (m *Misc) ReplicaExchange(other OutputPlugin) {
	o := other.(*Misc)
	m.events, o.events = o.events, m.events
	m.particleHits, o.particleHits = o.particleHits, m.particleHits
}

func (m *Misc) TemperatureRescale(factor float64) {
	m.startKE *= factor
}

// VelDist is a ticker plugin histogramming velocity components per
// species, normalised by the instantaneous thermal velocity.
type VelDist struct {
	sim      *Simulation
	binWidth float64
	data     map[string][3][]float64 // raw normalised samples per species
}

func NewVelDist(sim *Simulation, binWidth float64) *VelDist {
	if binWidth <= 0 {
		binWidth = 0.01
	}
	return &VelDist{sim: sim, binWidth: binWidth, data: make(map[string][3][]float64)}
}

func (v *VelDist) Name() string { return "VelDist" }

func (v *VelDist) Initialise() error { return nil }

func (v *VelDist) EventUpdate(ev event.Event, data event.PairEventData) {}

func (v *VelDist) Tick() {
	kT := v.sim.Dyn.Temperature()
	if kT <= 0 {
		return
	}
	for _, sp := range v.sim.SpeciesList {
		factor := math.Sqrt(sp.Mass / kT)
		samples := v.data[sp.Name]
		for id := sp.Begin; id < sp.End; id++ {
			vel := v.sim.Store.Particles[id].Vel
			samples[0] = append(samples[0], vel.X*factor)
			samples[1] = append(samples[1], vel.Y*factor)
			samples[2] = append(samples[2], vel.Z*factor)
		}
		v.data[sp.Name] = samples
	}
}

type velDistDim struct {
	Dim    int     `xml:"val,attr"`
	Mean   float64 `xml:"Mean,attr"`
	StdDev float64 `xml:"StdDev,attr"`
	Bins   []velDistBin `xml:"Bin"`
}

type velDistBin struct {
	X     float64 `xml:"x,attr"`
	Count int     `xml:"count,attr"`
}

type velDistSpecies struct {
	Name       string       `xml:"Name,attr"`
	Dimensions []velDistDim `xml:"Dimension"`
}

type velDistOutput struct {
	XMLName xml.Name         `xml:"VelDist"`
	Species []velDistSpecies `xml:"Species"`
}

func (v *VelDist) Output() any {
	out := velDistOutput{}
	for _, sp := range v.sim.SpeciesList {
		samples, ok := v.data[sp.Name]
		if !ok {
			continue
		}
		spOut := velDistSpecies{Name: sp.Name}
		for dim := 0; dim < 3; dim++ {
			d := velDistDim{Dim: dim}
			if len(samples[dim]) > 0 {
				d.Mean = stat.Mean(samples[dim], nil)
				d.StdDev = stat.StdDev(samples[dim], nil)
				d.Bins = v.histogram(samples[dim])
			}
			spOut.Dimensions = append(spOut.Dimensions, d)
		}
		out.Species = append(out.Species, spOut)
	}
	return out
}

func (v *VelDist) histogram(samples []float64) []velDistBin {
	counts := make(map[int]int)
	lo, hi := math.MaxInt32, math.MinInt32
	for _, s := range samples {
		b := int(math.Floor(s / v.binWidth))
		counts[b]++
		if b < lo {
			lo = b
		}
		if b > hi {
			hi = b
		}
	}
	var bins []velDistBin
	for b := lo; b <= hi; b++ {
		if c := counts[b]; c > 0 {
			bins = append(bins, velDistBin{X: (float64(b) + 0.5) * v.binWidth, Count: c})
		}
	}
	return bins
}

func (v *VelDist) PeriodicOutput(w io.Writer) {}

func (v *VelDist) ReplicaExchange(other OutputPlugin) {
	o := other.(*VelDist)
	v.data, o.data = o.data, v.data
}

func (v *VelDist) TemperatureRescale(factor float64) {}
