package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/dynamo/internal/configfile"
	"github.com/san-kum/dynamo/internal/export"
)

var (
	particles  int
	density    float64
	temp       float64
	elasticity float64
	seed       int64
	bcType     string
	wellDepth  float64
	wellWidth  float64
	rescaleT   float64
	zeroMom    bool
	outFile    string
	svgFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynamod",
		Short: "create and modify simulation configurations",
	}

	createCmd := &cobra.Command{
		Use:   "create [output.xml]",
		Short: "generate a lattice configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  createConfig,
	}
	createCmd.Flags().IntVarP(&particles, "particles", "n", 256, "particle count (rounded up to a cube)")
	createCmd.Flags().Float64Var(&density, "density", 0.5, "number density")
	createCmd.Flags().Float64VarP(&temp, "temperature", "T", 1.0, "kinetic temperature")
	createCmd.Flags().Float64Var(&elasticity, "elasticity", 1.0, "restitution coefficient")
	createCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	createCmd.Flags().StringVar(&bcType, "bc", "PBC", "boundary condition (PBC, None, LE)")
	createCmd.Flags().Float64Var(&wellDepth, "well-depth", 0, "square-well depth (0 = hard spheres)")
	createCmd.Flags().Float64Var(&wellWidth, "well-width", 1.5, "square-well width ratio")

	modifyCmd := &cobra.Command{
		Use:   "modify [config.xml]",
		Short: "rescale or clean an existing configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  modifyConfig,
	}
	modifyCmd.Flags().Float64Var(&rescaleT, "rescale-T", 0, "rescale velocities to this kinetic temperature")
	modifyCmd.Flags().BoolVar(&zeroMom, "zero-momentum", false, "remove centre-of-mass drift")
	modifyCmd.Flags().StringVarP(&outFile, "out", "o", "", "output path (default: in place)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [config.xml]",
		Short: "print a configuration summary",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectConfig,
	}
	inspectCmd.Flags().StringVar(&svgFile, "svg", "", "write a snapshot rendering to this path")

	rootCmd.AddCommand(createCmd, modifyCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dynamod: %v\n", err)
		os.Exit(1)
	}
}

func createConfig(cmd *cobra.Command, args []string) error {
	side := int(math.Ceil(math.Cbrt(float64(particles))))
	n := side * side * side
	boxL := math.Cbrt(float64(n) / density)

	spacing := boxL / float64(side)
	if spacing <= 1.0 {
		return fmt.Errorf("density %.3g leaves lattice spacing %.3g under the unit diameter", density, spacing)
	}

	rng := rand.New(rand.NewSource(seed))
	sqrtT := math.Sqrt(temp)

	pts := make([]configfile.ParticleNode, 0, n)
	var sumV r3.Vec
	vels := make([]r3.Vec, n)
	id := 0
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				v := r3.Vec{
					X: sqrtT * rng.NormFloat64(),
					Y: sqrtT * rng.NormFloat64(),
					Z: sqrtT * rng.NormFloat64(),
				}
				vels[id] = v
				sumV = r3.Add(sumV, v)
				pts = append(pts, configfile.ParticleNode{
					ID: id,
					Position: configfile.VectorNode{
						X: -boxL/2 + (float64(x)+0.5)*spacing,
						Y: -boxL/2 + (float64(y)+0.5)*spacing,
						Z: -boxL/2 + (float64(z)+0.5)*spacing,
					},
				})
				id++
			}
		}
	}
	// Remove the centre-of-mass drift picked up from the sampling.
	drift := r3.Scale(1/float64(n), sumV)
	for i := range pts {
		v := r3.Sub(vels[i], drift)
		pts[i].Velocity = configfile.VectorNode{X: v.X, Y: v.Y, Z: v.Z}
	}

	intr := configfile.InteractionNode{
		Type: "HardSphere", Name: "Bulk",
		Diameter: 1, Elasticity: elasticity,
		Range: configfile.PairRangeNode{Type: "All"},
	}
	if wellDepth > 0 {
		intr = configfile.InteractionNode{
			Type: "SquareWell", Name: "Bulk",
			Diameter: 1, Lambda: wellWidth, WellDepth: wellDepth, Elasticity: elasticity,
			Range: configfile.PairRangeNode{Type: "All"},
		}
	}

	doc := &configfile.Document{
		Version: configfile.Version,
		Simulation: configfile.SimNode{
			Scheduler: configfile.SchedNode{Type: "NeighbourList", Sorter: "BoundedPQ"},
			Size:      configfile.VectorNode{X: boxL, Y: boxL, Z: boxL},
			Genus: configfile.GenusNode{Species: []configfile.SpeciesNode{
				{Name: "Bulk", Type: "Point", Mass: 1, Begin: 0, End: n},
			}},
			BC:        configfile.BCNode{Type: bcType},
			Ints:      configfile.IntsNode{Interactions: []configfile.InteractionNode{intr}},
			Dynamics:  configfile.DynNode{Type: "Newtonian"},
			Particles: configfile.ParticleData{Particles: pts},
		},
	}

	if err := configfile.Save(args[0], doc); err != nil {
		return err
	}
	fmt.Printf("wrote %d particles at density %.4g (box %.4g) to %s\n", n, density, boxL, args[0])
	return nil
}

func modifyConfig(cmd *cobra.Command, args []string) error {
	doc, err := configfile.Load(args[0])
	if err != nil {
		return err
	}
	sim, err := configfile.Build(doc, "modify")
	if err != nil {
		return err
	}

	if zeroMom {
		sim.SetCOMVelocity(r3.Vec{})
	}
	if rescaleT > 0 {
		cur := sim.Dyn.Temperature()
		if cur <= 0 {
			return fmt.Errorf("cannot rescale a zero-temperature configuration")
		}
		sim.Dyn.ScaleVelocities(math.Sqrt(rescaleT / cur))
	}

	path := outFile
	if path == "" {
		path = args[0]
	}
	if err := configfile.Save(path, configfile.Snapshot(sim)); err != nil {
		return err
	}
	fmt.Printf("config written to %s\n", path)
	return nil
}

func inspectConfig(cmd *cobra.Command, args []string) error {
	doc, err := configfile.Load(args[0])
	if err != nil {
		return err
	}
	sim, err := configfile.Build(doc, "inspect")
	if err != nil {
		return err
	}

	fmt.Printf("particles:        %d\n", sim.Store.N())
	fmt.Printf("box:              %.6g x %.6g x %.6g\n", sim.PrimaryCellSize.X, sim.PrimaryCellSize.Y, sim.PrimaryCellSize.Z)
	fmt.Printf("number density:   %.6g\n", sim.NumberDensity())
	fmt.Printf("packing fraction: %.6g\n", sim.PackingFraction())
	fmt.Printf("temperature:      %.6g\n", sim.Dyn.Temperature())
	fmt.Printf("species:          %d\n", len(sim.SpeciesList))
	fmt.Printf("interactions:     %d\n", len(sim.Interactions))
	for _, i := range sim.Interactions {
		fmt.Printf("  %-16s max range %.4g\n", i.Name(), i.MaxIntDist())
	}

	if svgFile != "" {
		if err := os.WriteFile(svgFile, []byte(export.SnapshotSVG(sim, 800)), 0644); err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", svgFile)
	}
	return nil
}
