package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/automation"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/tui"
)

type runFlags struct {
	ticks       int
	sampleEvery int
	seed        uint64
	watch       bool
	fps         int
	script      string
	boundRadius float64
	validate    bool
	noSave      bool
	json        bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [template]",
		Short: "run a template headless and record its metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, templateArg(args), f)
		},
	}
	cmd.Flags().IntVar(&f.ticks, "ticks", 0, "number of ticks (default from config)")
	cmd.Flags().IntVar(&f.sampleEvery, "sample-every", 0, "ticks between series samples (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "scatter seed (default from config)")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "draw the system in the terminal while running")
	cmd.Flags().IntVar(&f.fps, "fps", 15, "redraw rate for --watch")
	cmd.Flags().StringVar(&f.script, "script", "", "yaml script of timed insertions")
	cmd.Flags().Float64Var(&f.boundRadius, "bound-radius", 500, "radius for the bound metric")
	cmd.Flags().BoolVar(&f.validate, "validate", true, "stop on non-finite state")
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "do not record the run")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the result as json instead of a summary")
	return cmd
}

func runSimulation(cmd *cobra.Command, template string, f runFlags) error {
	ticks, sampleEvery, seed := cfg.Run.Ticks, cfg.Run.SampleEvery, cfg.Seed
	if cmd.Flags().Changed("ticks") {
		ticks = f.ticks
	}
	if cmd.Flags().Changed("sample-every") {
		sampleEvery = f.sampleEvery
	}
	if cmd.Flags().Changed("seed") {
		seed = f.seed
	}

	eng, err := sim.NewEngine(cfg, template, seed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := sim.NewRunner(eng, logger.With("template", template))
	runner.AddMetric(metrics.NewEnergyDrift(eng.G()))
	runner.AddMetric(metrics.NewBound(f.boundRadius))
	runner.AddProbe(metrics.NewEnergy(eng.G()))
	runner.AddProbe(metrics.NewMomentum())
	runner.AddProbe(metrics.NewSpread())
	runner.AddProbe(metrics.NewOffset(0))
	if eng.Len() >= 2 {
		runner.AddProbe(metrics.NewSeparation(0, 1))
	}

	var player *automation.Player
	if f.script != "" {
		script, err := automation.Load(f.script)
		if err != nil {
			return err
		}
		player = automation.NewPlayer(script, cfg, logger)
		player.OnTick(eng)
		runner.AddObserver(player)
	}

	var watcher *tui.Watcher
	if f.watch {
		watcher = tui.NewWatcher(os.Stdout, template, f.fps, true)
		watcher.Start()
		runner.AddObserver(watcher)
	}

	logger.Info("running", "template", template, "bodies", eng.Len(), "ticks", ticks, "seed", seed)
	start := time.Now()
	result, err := runner.Run(ctx, sim.Config{Ticks: ticks, SampleEvery: sampleEvery, ValidateState: f.validate})
	if watcher != nil {
		watcher.Draw(eng)
		watcher.Stop()
	}
	if result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted", "ticks", result.TicksTaken, "err", err)
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Template:    template,
		Seed:        seed,
		G:           eng.G(),
		Ticks:       result.TicksTaken,
		SampleEvery: sampleEvery,
	}
	if !f.noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, result)
		if err != nil {
			return err
		}
		meta.ID = runID
		logger.Info("run recorded", "id", runID, "dir", dataDir)
	}
	if f.json {
		return storage.ExportResult(os.Stdout, meta, result)
	}
	if meta.ID != "" {
		fmt.Printf("run id: %s\n", meta.ID)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d  bodies: %d  samples: %d\n", result.TicksTaken, len(result.Final), len(result.Ticks))
	if result.DegenerateTicks > 0 {
		fmt.Printf("ticks with coincident bodies: %d\n", result.DegenerateTicks)
	}
	if player != nil {
		fmt.Printf("scripted inserts: %d (rejected %d, pending %d)\n", player.Inserted(), len(player.Errors()), player.Pending())
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	fmt.Printf("mean tick: %v  p95: %v\n", result.TickStats.Mean, result.TickStats.P95)

	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	fmt.Println()

	for _, name := range []string{"separation_0_1", "energy"} {
		if data := finite(result.Series[name]); len(data) > 1 {
			fmt.Println(asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(name)))
			fmt.Println()
		}
	}
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEMPLATE\tTIME\tTICKS\tBODIES\tSEED\tDRIFT")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.3g\n",
					run.ID,
					run.Template,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Ticks,
					run.Bodies,
					run.Seed,
					run.Metrics["energy_drift"],
				)
			}
			return w.Flush()
		},
	}
}

// resolveRun accepts a run ID or "latest".
func resolveRun(st *storage.Store, id string) (*storage.RunMetadata, error) {
	if id == "latest" {
		return st.Latest()
	}
	return st.Load(id)
}

func newPlotCmd() *cobra.Command {
	var series []string
	cmd := &cobra.Command{
		Use:   "plot [run_id|latest]",
		Short: "plot the series of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := resolveRun(st, args[0])
			if err != nil {
				return err
			}
			ticks, data, err := st.LoadSeries(meta.ID)
			if err != nil {
				return err
			}
			if len(ticks) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("template: %s\n", meta.Template)
			fmt.Printf("samples: %d (ticks %d..%d)\n\n", len(ticks), ticks[0], ticks[len(ticks)-1])

			names := series
			if len(names) == 0 {
				names = sortedKeys(data)
			}
			for _, name := range names {
				values, ok := data[name]
				if !ok {
					return fmt.Errorf("run %s has no series %q (available: %s)", meta.ID, name, strings.Join(sortedKeys(data), ", "))
				}
				if values = finite(values); len(values) < 2 {
					continue
				}
				fmt.Println(asciigraph.Plot(values,
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(name),
				))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&series, "series", nil, "series to plot (default all)")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var series string
	cmd := &cobra.Command{
		Use:   "analyze [run_id|latest]",
		Short: "dominant orbital period of a recorded series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := resolveRun(st, args[0])
			if err != nil {
				return err
			}
			_, data, err := st.LoadSeries(meta.ID)
			if err != nil {
				return err
			}

			name := series
			if name == "" {
				name = "offset_x_0"
				if _, ok := data["separation_0_1"]; ok {
					name = "separation_0_1"
				}
			}
			values, ok := data[name]
			if !ok {
				return fmt.Errorf("run %s has no series %q", meta.ID, name)
			}

			fmt.Printf("frequency analysis: %s\n", meta.ID)
			fmt.Printf("series: %s, every %d ticks\n\n", name, meta.SampleEvery)

			ps := analysis.PowerSpectrum(finite(values))
			if len(ps) > 8 {
				plotData := ps[1 : len(ps)/4+1]
				fmt.Println(asciigraph.Plot(plotData,
					asciigraph.Height(12),
					asciigraph.Width(80),
					asciigraph.Caption("power spectrum ("+name+")"),
				))
				fmt.Println()
			}

			period, err := analysis.DominantPeriod(values, meta.SampleEvery)
			if err != nil {
				return err
			}
			fmt.Printf("dominant period: %.2f ticks\n", period)
			fmt.Printf("frequency: %.5f per tick\n", 1/period)
			return nil
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series to analyze (default separation_0_1 or offset_x_0)")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id|latest]",
		Short: "export a recorded run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := resolveRun(st, args[0])
			if err != nil {
				return err
			}
			return st.ExportJSON(os.Stdout, meta.ID)
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// finite drops NaN and infinite samples, which asciigraph cannot scale.
func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
