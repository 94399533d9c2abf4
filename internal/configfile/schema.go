// Package configfile reads and writes the DynamOconfig XML document,
// transparently handling bzip2-compressed files, and builds simulations
// from the parsed tree.
package configfile

import "encoding/xml"

// Version is the configuration schema version; a mismatch is fatal.
const Version = "1.5.0"

type Document struct {
	XMLName    xml.Name   `xml:"DynamOconfig"`
	Version    string     `xml:"version,attr"`
	Simulation SimNode    `xml:"Simulation"`
	Output     *OutputDoc `xml:"OutputData,omitempty"`
}

type SimNode struct {
	LastMFT   float64      `xml:"lastMFT,attr,omitempty"`
	Scheduler SchedNode    `xml:"Scheduler"`
	Size      VectorNode   `xml:"SimulationSize"`
	Genus     GenusNode    `xml:"Genus"`
	BC        BCNode       `xml:"BC"`
	Topology  *struct{}    `xml:"Topology"`
	Units     *UnitsNode   `xml:"Units"`
	Ints      IntsNode     `xml:"Interactions"`
	Locals    LocalsNode   `xml:"Locals"`
	Globals   GlobalsNode  `xml:"Globals"`
	Systems   SystemsNode  `xml:"SystemEvents"`
	Dynamics  DynNode      `xml:"Dynamics"`
	Particles ParticleData `xml:"ParticleData"`
}

type SchedNode struct {
	Type   string `xml:"Type,attr"`
	Sorter string `xml:"Sorter,attr,omitempty"`
}

type VectorNode struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

type UnitsNode struct {
	Length float64 `xml:"Length,attr"`
	Time   float64 `xml:"Time,attr"`
	Mass   float64 `xml:"Mass,attr"`
}

type GenusNode struct {
	Species []SpeciesNode `xml:"Species"`
}

type SpeciesNode struct {
	Name            string  `xml:"Name,attr"`
	IntName         string  `xml:"IntName,attr,omitempty"`
	Type            string  `xml:"Type,attr"`
	Mass            float64 `xml:"Mass,attr"`
	InertiaConstant float64 `xml:"InertiaConstant,attr,omitempty"`
	Begin           int     `xml:"Begin,attr"`
	End             int     `xml:"End,attr"`
}

type BCNode struct {
	Type      string  `xml:"Type,attr"`
	ShearRate float64 `xml:"ShearRate,attr,omitempty"`
}

type IntsNode struct {
	Interactions []InteractionNode `xml:"Interaction"`
}

type InteractionNode struct {
	Type        string       `xml:"Type,attr"`
	Name        string       `xml:"Name,attr"`
	Diameter    float64      `xml:"Diameter,attr,omitempty"`
	Elasticity  float64      `xml:"Elasticity,attr,omitempty"`
	TangentialE float64      `xml:"TangentialElasticity,attr,omitempty"`
	Lambda      float64      `xml:"Lambda,attr,omitempty"`
	WellDepth   float64      `xml:"WellDepth,attr,omitempty"`
	Length      float64      `xml:"Length,attr,omitempty"`
	Radius      float64      `xml:"Radius,attr,omitempty"`
	Range       PairRangeNode `xml:"IDPairRange"`
	CaptureMap  *CaptureNode  `xml:"CaptureMap"`
}

type PairRangeNode struct {
	Type   string      `xml:"Type,attr"`
	Ranges []RangeNode `xml:"IDRange"`
}

type RangeNode struct {
	Type  string `xml:"Type,attr"`
	Begin int    `xml:"Begin,attr,omitempty"`
	End   int    `xml:"End,attr,omitempty"`
}

type CaptureNode struct {
	Pairs []CapturePair `xml:"Pair"`
}

type CapturePair struct {
	ID1 int `xml:"ID1,attr"`
	ID2 int `xml:"ID2,attr"`
}

type LocalsNode struct {
	Locals []LocalNode `xml:"Local"`
}

type LocalNode struct {
	Type        string     `xml:"Type,attr"`
	Name        string     `xml:"Name,attr"`
	Elasticity  float64    `xml:"Elasticity,attr,omitempty"`
	Temperature float64    `xml:"Temperature,attr,omitempty"`
	Origin      VectorNode `xml:"Origin"`
	Normal      VectorNode `xml:"Normal"`
	Range       RangeNode  `xml:"IDRange"`
}

type GlobalsNode struct {
	Globals []GlobalNode `xml:"Global"`
}

type GlobalNode struct {
	Type string `xml:"Type,attr"`
	Name string `xml:"Name,attr"`
}

type SystemsNode struct {
	Systems []SystemNode `xml:"System"`
}

type SystemNode struct {
	Type   string  `xml:"Type,attr"`
	Name   string  `xml:"Name,attr"`
	Time   float64 `xml:"Time,attr,omitempty"`
	Period float64 `xml:"Period,attr,omitempty"`
}

type DynNode struct {
	Type       string      `xml:"Type,attr"`
	Gravity    *VectorNode `xml:"Gravity"`
	GrowthRate float64     `xml:"GrowthRate,attr,omitempty"`
}

type ParticleData struct {
	Particles []ParticleNode `xml:"Pt"`
}

type ParticleNode struct {
	ID       int         `xml:"ID,attr"`
	Static   bool        `xml:"Static,attr,omitempty"`
	Position VectorNode  `xml:"P"`
	Velocity VectorNode  `xml:"V"`
	Director *VectorNode `xml:"O"`
	AngVel   *VectorNode `xml:"W"`
}

// OutputDoc is the OutputData section appended to output configuration
// files: one child per output plugin, carried as raw XML.
type OutputDoc struct {
	Sections []RawSection `xml:",any"`
}

type RawSection struct {
	XMLName xml.Name
	Inner   string `xml:",innerxml"`
}
