package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynamo/internal/config"
	"github.com/san-kum/dynamo/internal/configfile"
	"github.com/san-kum/dynamo/internal/core"
	"github.com/san-kum/dynamo/internal/store"
	"github.com/san-kum/dynamo/internal/tui"
)

var (
	dataDir    string
	events     uint64
	haltTime   float64
	outFile    string
	seed       int64
	silent     bool
	live       bool
	veldist    bool
	configFile string
	preset     string
	growthRate float64
	targetPhi  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynarun",
		Short: "event-driven molecular dynamics runner",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dynamo", "run archive directory")

	runCmd := &cobra.Command{
		Use:   "run [config.xml]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Uint64Var(&events, "events", 100000, "event budget")
	runCmd.Flags().Float64Var(&haltTime, "time", 0, "halt at simulation time (0 = events only)")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "output config path (.xml or .xml.bz2)")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	runCmd.Flags().BoolVar(&silent, "silent", false, "suppress periodic output")
	runCmd.Flags().BoolVar(&live, "live", false, "live TUI view")
	runCmd.Flags().BoolVar(&veldist, "veldist", false, "collect velocity distributions")
	runCmd.Flags().StringVar(&configFile, "config", "", "driver config (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "driver preset name")
	runCmd.Flags().Float64Var(&growthRate, "compress", 0, "compression growth rate")
	runCmd.Flags().Float64Var(&targetPhi, "target-phi", 0, "compression target packing fraction")

	checkCmd := &cobra.Command{
		Use:   "check [config.xml]",
		Short: "validate a configuration's state invariants",
		Args:  cobra.ExactArgs(1),
		RunE:  checkConfig,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's kinetic energy trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	replexCmd := &cobra.Command{
		Use:   "replex [config.xml]",
		Short: "replica exchange over a temperature ladder",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplex,
	}
	replexCmd.Flags().StringVar(&configFile, "config", "", "driver config (yaml)")
	replexCmd.Flags().StringVar(&preset, "preset", "replex", "driver preset name")
	replexCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(runCmd, checkCmd, listCmd, plotCmd, replexCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dynarun: %v\n", err)
		os.Exit(1)
	}
}

func driverConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if preset != "" {
		if cfg := config.GetPreset(preset); cfg != nil {
			return cfg, nil
		}
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	return config.DefaultConfig(), nil
}

func buildSim(path string) (*core.Simulation, error) {
	doc, err := configfile.Load(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	sim, err := configfile.Build(doc, name)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	sim, err := buildSim(args[0])
	if err != nil {
		return err
	}
	sim.Seed(seed)
	sim.EndEventCount = events

	misc := core.NewMisc(sim)
	if err := sim.AddOutputPlugin(misc); err != nil {
		return err
	}
	if veldist {
		if err := sim.AddOutputPlugin(core.NewVelDist(sim, 0.01)); err != nil {
			return err
		}
	}

	if haltTime > 0 {
		if err := sim.AddSystem(core.NewHalt(sim, haltTime, "Halt")); err != nil {
			return err
		}
	}

	var comp *core.Compressor
	if growthRate > 0 {
		comp = core.NewCompressor(sim, growthRate)
		if err := comp.MakeGrowth(); err != nil {
			return err
		}
		if err := comp.CellSchedulerHack(); err != nil {
			return err
		}
		if targetPhi > 0 {
			if err := comp.LimitPackingFraction(targetPhi); err != nil {
				return err
			}
		}
	}

	if err := sim.Initialise(); err != nil {
		return err
	}

	start := time.Now()
	if live {
		err = runLive(sim, misc)
	} else {
		err = sim.RunEvents(silent)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if comp != nil {
		comp.RestoreSystem()
	}

	fails := sim.CheckSystem()
	fmt.Fprintf(os.Stderr, "%s: %d events, t=%.6g, %.0f events/s, %d check failures\n",
		sim.Name, sim.EventCount, sim.SysTime, float64(sim.EventCount)/elapsed.Seconds(), fails)

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := store.RunMetadata{
		Config:     args[0],
		Timestamp:  time.Now(),
		Seed:       seed,
		Events:     sim.EventCount,
		SimTime:    sim.SysTime,
		MFT:        misc.MFT(),
		KE:         sim.Dyn.KineticEnergy(),
		InternalU:  sim.InternalEnergy(),
		Particles:  sim.Store.N(),
		CheckFails: fails,
	}
	runID, err := st.Save(meta, misc.TimeTrace, misc.KETrace)
	if err != nil {
		return err
	}
	fmt.Printf("archived as %s\n", runID)

	if outFile != "" {
		doc := configfile.Snapshot(sim)
		if err := configfile.WriteOutputData(doc, sim); err != nil {
			return err
		}
		if err := configfile.Save(outFile, doc); err != nil {
			return err
		}
		fmt.Printf("config written to %s\n", outFile)
	}
	return nil
}

func runLive(sim *core.Simulation, misc *core.Misc) error {
	snaps := make(chan tui.Snapshot, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(snaps)
		start := time.Now()
		lastEvents := uint64(0)
		lastWall := start
		for {
			more, err := sim.RunSimulationStep(true)
			if err != nil {
				errc <- err
				return
			}
			now := time.Now()
			if now.Sub(lastWall) > 100*time.Millisecond {
				rate := float64(sim.EventCount-lastEvents) / now.Sub(lastWall).Seconds()
				lastEvents, lastWall = sim.EventCount, now
				snaps <- tui.Snapshot{
					Name:      sim.Name,
					SimTime:   sim.SysTime,
					Events:    sim.EventCount,
					MaxEvents: sim.EndEventCount,
					KE:        sim.Dyn.KineticEnergy(),
					MFT:       misc.MFT(),
					Rate:      rate,
				}
			}
			if !more {
				errc <- nil
				return
			}
		}
	}()

	if err := tui.Run(snaps); err != nil {
		return err
	}
	return <-errc
}

func checkConfig(cmd *cobra.Command, args []string) error {
	sim, err := buildSim(args[0])
	if err != nil {
		return err
	}
	if err := sim.Initialise(); err != nil {
		return err
	}
	fails := sim.CheckSystem()
	fmt.Printf("%s: %d particles, %d invariant failures\n", args[0], sim.Store.N(), fails)
	if fails > 0 {
		return fmt.Errorf("%d invariant failures", fails)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONFIG\tEVENTS\tSIM TIME\tMFT\tKE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6g\t%.4g\t%.6g\n", r.ID, r.Config, r.Events, r.SimTime, r.MFT, r.KE)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	_, ke, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(ke) < 2 {
		return fmt.Errorf("run %s has no energy trace", args[0])
	}

	fmt.Println(asciigraph.Plot(ke,
		asciigraph.Height(15),
		asciigraph.Width(70),
		asciigraph.Caption("kinetic energy")))
	return nil
}

func runReplex(cmd *cobra.Command, args []string) error {
	cfg, err := driverConfig()
	if err != nil {
		return err
	}
	temps := cfg.Replex.Temperatures
	if len(temps) < 2 {
		return fmt.Errorf("replica exchange needs at least two temperatures")
	}

	sims := make([]*core.Simulation, len(temps))
	for i, T := range temps {
		sim, err := buildSim(args[0])
		if err != nil {
			return err
		}
		sim.Name = fmt.Sprintf("%s[T=%.3g]", sim.Name, T)
		sim.Seed(seed + int64(i))
		sim.EndEventCount = math.MaxUint64

		cur := sim.Dyn.Temperature()
		if cur > 0 {
			sim.Dyn.ScaleVelocities(math.Sqrt(T / cur))
		}
		sim.Ens = &core.Ensemble{Kind: core.EnsembleNVT, T: T}

		if err := sim.Initialise(); err != nil {
			return err
		}
		sims[i] = sim
	}

	swaps := 0
	for attempt := 0; attempt < cfg.Replex.Attempts; attempt++ {
		for _, sim := range sims {
			target := sim.EventCount + cfg.Replex.SwapInterval
			for sim.EventCount < target {
				if _, err := sim.RunSimulationStep(true); err != nil {
					return err
				}
			}
		}

		// Attempt one adjacent-pair swap per round; for hard potentials
		// the configurational weight is unchanged so the Metropolis
		// factor depends on the internal energy alone.
		i := sims[0].RNG().Intn(len(sims) - 1)
		a, b := sims[i], sims[i+1]
		db := 1/a.Ens.T - 1/b.Ens.T
		du := b.InternalEnergy() - a.InternalEnergy()
		if db*du >= 0 || a.RNG().Float64() < math.Exp(db*du) {
			if err := a.ReplexSwap(b); err != nil {
				return err
			}
			swaps++
		}
	}

	fmt.Printf("replica exchange complete: %d attempts, %d swaps accepted\n", cfg.Replex.Attempts, swaps)
	for _, sim := range sims {
		fmt.Printf("  %s: %d events, t=%.6g, kT=%.4g\n", sim.Name, sim.EventCount, sim.SysTime, sim.Dyn.Temperature())
	}
	return nil
}
