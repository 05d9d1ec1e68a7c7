package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/optim"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/viz"
)

func newEnsembleCmd() *cobra.Command {
	var (
		runs  int
		ticks int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "ensemble [template]",
		Short: "run one template under many scatter seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := "cloud"
			if len(args) > 0 {
				template = args[0]
			}
			if !cmd.Flags().Changed("ticks") {
				ticks = cfg.Run.Ticks
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			g := cfg.G
			ens := sim.NewEnsemble(cfg, template, runs, seed, func(r *sim.Runner) {
				r.AddMetric(metrics.NewEnergyDrift(g))
				r.AddMetric(metrics.NewBound(500))
			}, logger)

			fmt.Printf("running %d members of %s for %d ticks...\n\n", runs, template, ticks)
			start := time.Now()
			results, err := ens.Run(ctx, sim.Config{Ticks: ticks, SampleEvery: ticks})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEED\tBODIES\tENERGY DRIFT\tBOUND\tMEAN TICK\tDEGENERATE")
			drifts := make([]float64, len(results))
			for i, res := range results {
				drifts[i] = res.Metrics["energy_drift"]
				fmt.Fprintf(w, "%d\t%d\t%.4g\t%.3f\t%v\t%d\n",
					seed+uint64(i),
					len(res.Final),
					drifts[i],
					res.Metrics["bound"],
					res.TickStats.Mean,
					res.DegenerateTicks,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			mean, std := stat.MeanStdDev(drifts, nil)
			fmt.Printf("\ndrift mean %.4g, stddev %.4g (%v)\n", mean, std, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 8, "ensemble size")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per member (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "first scatter seed")
	return cmd
}

func newTraceCmd() *cobra.Command {
	var (
		ticks    int
		body     int
		svgPath  string
		snapPath string
	)
	cmd := &cobra.Command{
		Use:   "trace [template]",
		Short: "trace every orbit and measure periods from axis crossings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := templateArg(args)
			eng, err := sim.NewEngine(cfg, template, cfg.Seed)
			if err != nil {
				return err
			}
			if body < 0 || body >= eng.Len() {
				return fmt.Errorf("%w: %d", gravity.ErrUnknownHandle, body)
			}

			orbits, err := analysis.TraceOrbits(eng, ticks)
			if err != nil {
				return err
			}

			fmt.Print(analysis.OrbitToASCII(orbits[body], 72, 24))
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BODY\tCROSSINGS\tPERIOD")
			for _, o := range orbits {
				period := "-"
				if p, err := o.CrossingPeriod(); err == nil {
					period = fmt.Sprintf("%.2f", p)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", o.Body, len(o.Crossings()), period)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if svgPath != "" {
				colors := make([]colorful.Color, len(orbits))
				for i, inst := range eng.Instances()[:len(orbits)] {
					colors[i] = inst.Color
				}
				if err := writeFile(svgPath, export.OrbitsToSVG(orbits, colors, 800, 800)); err != nil {
					return err
				}
			}
			if snapPath != "" {
				if err := writeFile(snapPath, export.CanvasToSVG(snapshotCanvas(eng), 4)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 2000, "ticks to trace")
	cmd.Flags().IntVar(&body, "body", 0, "body to plot")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write all orbits to this svg file")
	cmd.Flags().StringVar(&snapPath, "snapshot", "", "write the final state as a braille svg")
	return cmd
}

// snapshotCanvas draws the current instances onto a fitted canvas.
func snapshotCanvas(eng *gravity.Engine) *viz.Canvas {
	canvas := viz.NewCanvas(80, 40)
	camera := viz.NewCamera(cfg.Live.FPS)
	pw, ph := canvas.PixelSize()

	insts := eng.Instances()
	pts := make([]r3.Vec, len(insts))
	for i, inst := range insts {
		pts[i] = inst.Position
	}
	center, _ := eng.Barycenter()
	camera.Fit(center, pts, pw, ph)
	for _, inst := range insts {
		x, y := camera.Project(inst.Position, pw, ph)
		canvas.Disc(x, y, max(int(inst.Scale+0.5), 0), inst.Color)
	}
	return canvas
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	logger.Info("written", "path", path, "bytes", len(content))
	return nil
}

func newChaosCmd() *cobra.Command {
	var (
		ticks        int
		perturbation float64
	)
	cmd := &cobra.Command{
		Use:   "chaos [template]",
		Short: "per-body lyapunov exponent estimates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := templateArg(args)
			eng, err := sim.NewEngine(cfg, template, cfg.Seed)
			if err != nil {
				return err
			}

			exps, err := analysis.BodySensitivity(eng.Snapshot(), perturbation, ticks, cfg.EngineOptions()...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BODY\tMASS\tLYAPUNOV/TICK")
			for i, l := range exps {
				b, _ := eng.Body(gravity.Handle(i))
				fmt.Fprintf(w, "%d\t%.3g\t%.5f\n", i, b.Mass, l)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 2000, "ticks per estimate")
	cmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial displacement along x")
	return cmd
}

func insertFlags(cmd *cobra.Command, pos *[]float64, class *string) {
	cmd.Flags().Float64SliceVar(pos, "pos", []float64{30, 0, 0}, "insertion position x,y,z")
	cmd.Flags().StringVar(class, "class", "small", "mass class (small, medium, large)")
}

func parseInsert(pos []float64, class string) (r3.Vec, gravity.MassClass, error) {
	if len(pos) != 3 {
		return r3.Vec{}, 0, fmt.Errorf("--pos needs three components, got %d", len(pos))
	}
	c, err := gravity.ParseMassClass(class)
	if err != nil {
		return r3.Vec{}, 0, err
	}
	return r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]}, c, nil
}

func newSweepCmd() *cobra.Command {
	var (
		pos    []float64
		class  string
		lo, hi float64
		steps  int
		ticks  int
	)
	cmd := &cobra.Command{
		Use:   "sweep [template]",
		Short: "periapsis and apoapsis of an inserted body across eccentricities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := "unary"
			if len(args) > 0 {
				template = args[0]
			}
			p, c, err := parseInsert(pos, class)
			if err != nil {
				return err
			}
			build := func() (*gravity.Engine, error) { return sim.NewEngine(cfg, template, cfg.Seed) }

			data, err := analysis.SweepEccentricity(build, p, c, lo, hi, steps, ticks)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ECCENTRICITY\tANCHOR\tPERIAPSIS\tAPOAPSIS")
			for _, pt := range data {
				fmt.Fprintf(w, "%.3f\t%s\t%.2f\t%.2f\n", pt.Eccentricity, pt.Anchor, pt.Periapsis, pt.Apoapsis)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println()
			fmt.Print(analysis.SweepToASCII(data, 60, 16))
			return nil
		},
	}
	insertFlags(cmd, &pos, &class)
	cmd.Flags().Float64Var(&lo, "lo", 0.5, "lowest eccentricity factor")
	cmd.Flags().Float64Var(&hi, "hi", 1.3, "highest eccentricity factor")
	cmd.Flags().IntVar(&steps, "steps", 17, "number of factors")
	cmd.Flags().IntVar(&ticks, "ticks", 3000, "ticks per run")
	return cmd
}

func newTuneCmd() *cobra.Command {
	var (
		pos    []float64
		class  string
		lo, hi float64
		steps  int
		ticks  int
	)
	cmd := &cobra.Command{
		Use:   "tune [template]",
		Short: "grid-search insertion options for the most circular orbit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := templateArg(args)
			p, c, err := parseInsert(pos, class)
			if err != nil {
				return err
			}
			if steps < 1 {
				return fmt.Errorf("steps must be positive, got %d", steps)
			}
			eccs := make([]float64, steps)
			for i := range eccs {
				eccs[i] = lo
				if steps > 1 {
					eccs[i] = lo + (hi-lo)*float64(i)/float64(steps-1)
				}
			}
			anchorings := []gravity.Anchoring{
				gravity.AnchorHeuristic,
				gravity.AnchorGreatestForce,
				gravity.AnchorGreatestMass,
				gravity.AnchorBarycenter,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			build := func() (*gravity.Engine, error) { return sim.NewEngine(cfg, template, cfg.Seed) }
			best, all, err := optim.NewGridSearch(anchorings, eccs, logger).Search(ctx, build, p, c, ticks)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ANCHORING\tECCENTRICITY\tCIRCULARITY")
			for _, o := range all {
				score := fmt.Sprintf("%.4f", o.Score)
				if o.Err != nil {
					score = o.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%.3f\t%s\n", o.Options.Anchoring, o.Options.Eccentricity, score)
			}
			if ferr := w.Flush(); ferr != nil {
				return ferr
			}
			if err != nil {
				return err
			}
			fmt.Printf("\nbest: anchoring=%s eccentricity=%.3f circularity=%.4f\n",
				best.Options.Anchoring, best.Options.Eccentricity, best.Score)
			return nil
		},
	}
	insertFlags(cmd, &pos, &class)
	cmd.Flags().Float64Var(&lo, "lo", 0.8, "lowest eccentricity factor")
	cmd.Flags().Float64Var(&hi, "hi", 1.2, "highest eccentricity factor")
	cmd.Flags().IntVar(&steps, "steps", 5, "number of factors")
	cmd.Flags().IntVar(&ticks, "ticks", 1500, "ticks per grid point")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var (
		sizes []int
		ticks int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "tick timing for growing body counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("benchmarking %d ticks per size\n\n", ticks)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BODIES\tMEAN\tSTDDEV\tP95\tWORST\tTICKS/SEC")

			for _, n := range sizes {
				eng, err := benchEngine(n, seed)
				if err != nil {
					return err
				}
				durations := make([]time.Duration, ticks)
				for i := range durations {
					start := time.Now()
					eng.Tick()
					durations[i] = time.Since(start)
				}
				s := metrics.SummarizeTicks(durations)
				rate := 0.0
				if s.Mean > 0 {
					rate = float64(time.Second) / float64(s.Mean)
				}
				fmt.Fprintf(w, "%d\t%v\t%v\t%v\t%v\t%.0f\n", eng.Len(), s.Mean, s.StdDev, s.P95, s.Worst, rate)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "bodies", []int{2, 8, 32, 128, 512}, "body counts")
	cmd.Flags().IntVar(&ticks, "ticks", 200, "ticks per size")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "scatter seed")
	return cmd
}

// benchEngine is one heavy central body with n-1 small bodies scattered
// around it.
func benchEngine(n int, seed uint64) (*gravity.Engine, error) {
	eng, err := gravity.New([]gravity.Body{{Mass: cfg.Masses.Large * 10}}, cfg.EngineOptions()...)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	for i := 1; i < n; i++ {
		if _, err := eng.AddRandomBody(rng, gravity.Small, cfg.Insert.Spread); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "list starting templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tDESCRIPTION")
			for _, name := range cfg.ListTemplates() {
				t, err := cfg.LookupTemplate(name)
				if err != nil {
					return err
				}
				n := len(t.Bodies) + len(t.Inserts) + t.Scatter.Count
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, n, t.Description)
			}
			return w.Flush()
		},
	}
}
