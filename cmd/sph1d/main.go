package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/sph1d/internal/analysis"
	"github.com/san-kum/sph1d/internal/config"
	"github.com/san-kum/sph1d/internal/experiment"
	"github.com/san-kum/sph1d/internal/export"
	"github.com/san-kum/sph1d/internal/optim"
	"github.com/san-kum/sph1d/internal/sim"
	"github.com/san-kum/sph1d/internal/sph"
	"github.com/san-kum/sph1d/internal/storage"
	"github.com/san-kum/sph1d/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	preset    string
	dt        float64
	endTime   float64
	particles int
	dumpEvery int
	dumpIndex int
	field     string
	output    string
	sweepN    string
	grid      []string
	svgPath   string
	theme     string
	objective string
	logger    *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sph1d",
		Short:         "one-dimensional smoothed particle hydrodynamics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Prefix:          "sph1d",
				ReportTimestamp: true,
				TimeFormat:      time.TimeOnly,
				Level:           lvl,
			})
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sph1d", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run a simulation and write dumps",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&dumpEvery, "dump-every", 1, "write a dump every n steps")

	liveCmd := &cobra.Command{
		Use:   "live [config]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name,
		"colour theme: "+strings.Join(viz.ThemeNames(), ", "))

	sweepCmd := &cobra.Command{
		Use:   "sweep [config]",
		Short: "run the same setup at several resolutions concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepN, "n", "50,100,200", "comma separated particle counts")

	tuneCmd := &cobra.Command{
		Use:   "tune [config]",
		Short: "grid search parameters against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "shock_rms", "metric to minimize")

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list available metrics",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListMetrics() {
				fmt.Println(name)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a field from a dump",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&dumpIndex, "dump", -1, "dump number, -1 for the last")
	plotCmd.Flags().StringVar(&field, "field", "density", "density, velocity, pressure, h or u")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the profile as SVG to this path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "compare a run with its analytic solution",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a dump as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().IntVar(&dumpIndex, "dump", -1, "dump number, -1 for the last")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	exportConfigCmd := &cobra.Command{
		Use:   "export-config [preset]",
		Short: "write a preset as a YAML config file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportConfig,
	}
	exportConfigCmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <preset>.yaml)")

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, tuneCmd, metricsCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, presetsCmd, exportConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", "err", err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use a named preset instead of a config file")
	cmd.Flags().Float64Var(&dt, "dt", 0, "override timestep")
	cmd.Flags().Float64Var(&endTime, "time", 0, "override end time")
	cmd.Flags().IntVar(&particles, "particles", 0, "override particle count, keeping the mean density")
}

// loadConfig resolves the preset or config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		name string
		err  error
	)
	switch {
	case len(args) == 1:
		cfg, err = config.Load(args[0])
		if err != nil {
			return nil, "", err
		}
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	default:
		return nil, "", fmt.Errorf("need a config file or --preset (available: %v)", config.ListPresets())
	}

	if cmd.Flags().Changed("dt") {
		cfg.Timestep = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.EndTime = endTime
	}
	if cmd.Flags().Changed("particles") {
		experiment.Resize(cfg, particles)
	}
	return cfg, name, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.Create(name)
	if err != nil {
		return err
	}

	dumps := storage.NewDumpWriter(run.DumpDir(), dumpEvery)
	exp := experiment.New(cfg, name, logger)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics(cfg), sim.WithObserver(dumps)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting run", "id", run.ID, "particles", cfg.Particles, "eos", cfg.EOS, "end", cfg.EndTime)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	if err := st.Finish(run, name, *cfg, dumps, result, runErr); err != nil {
		return err
	}
	if runErr != nil {
		if sph.IsFatal(runErr) {
			logger.Error("run aborted", "id", run.ID, "err", runErr)
		}
		return runErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", run.ID)
	fmt.Printf("steps: %d (t = %.4g)\n", result.Steps, result.Time)
	fmt.Printf("particles: %d alive, %d ghost\n", result.NAlive, result.NGhost)
	fmt.Printf("dumps: %d in %s\n", dumps.Count(), run.DumpDir())
	fmt.Printf("solver: %d newton, %d bisection, %d best estimate\n",
		result.Newton, result.Bisection, result.BestEstimate)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := viz.SetTheme(theme); err != nil {
		return err
	}
	// The live view owns the terminal; only errors reach stderr.
	logger.SetLevel(log.ErrorLevel)

	exp := experiment.New(cfg, name, logger)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics(cfg)); err != nil {
		return err
	}
	s := exp.Simulator()
	if err := s.Initialize(); err != nil {
		return err
	}

	final, err := tea.NewProgram(viz.NewModel(s, name), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	var counts []int
	for _, f := range strings.Split(sweepN, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n <= 0 {
			return fmt.Errorf("bad particle count %q", f)
		}
		counts = append(counts, n)
	}

	cfgs := make([]*config.Config, len(counts))
	simCfgs := make([]sim.Config, len(counts))
	for i, n := range counts {
		c := *base
		experiment.Resize(&c, n)
		if err := c.Validate(); err != nil {
			return err
		}
		cfgs[i] = &c
		if simCfgs[i], err = c.ToSim(); err != nil {
			return err
		}
	}

	profiles := make([]analysis.Profile, len(counts))
	opts := func(i int) []sim.Option {
		final := sim.ObserverFunc(func(snap sim.Snapshot) error {
			if snap.Time < simCfgs[i].EndTime-sph.CalcEpsilon {
				return nil
			}
			profiles[i] = densityProfile(snap)
			return nil
		})
		return []sim.Option{sim.WithLogger(logger), sim.WithObserver(final)}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting sweep", "setup", name, "counts", counts)
	results, err := sim.NewEnsemble(simCfgs, opts).Run(ctx)
	if err != nil {
		return err
	}

	shock, isShock := experiment.AnalyticShock(base)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tSTEPS\tGHOSTS\tNEWTON\tBISECT\tBEST\tRMS")
	for i, res := range results {
		rms := "-"
		if isShock {
			rms = fmt.Sprintf("%.4f", shockError(shock, profiles[i], cfgs[i], res.Time))
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			counts[i], res.Steps, res.NGhost, res.Newton, res.Bisection, res.BestEstimate, rms)
	}
	return w.Flush()
}

func parseGrid(args []string) ([]string, [][]float64, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("need at least one --grid (parameters: %v)", optim.TunableNames())
	}
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2", arg)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad grid value %q for %s", f, name)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	if _, err := reg.GetMetric(objective, base); err != nil {
		return err
	}

	quiet := logger.With("stage", "tune")
	quiet.SetLevel(log.WarnLevel)
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := optim.Apply(base, params)
		if err != nil {
			return nil, err
		}
		m, err := reg.GetMetric(objective, cfg)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(cfg, name, quiet)
		return exp, exp.Setup([]sim.Metric{m})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting grid search", "setup", name, "points", g.Size(), "objective", objective)
	bestParams, best, trace, err := g.Search(ctx, build, objective)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(objective))
	for _, pt := range trace {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", pt.Params[n])
		}
		if pt.Err != nil {
			fmt.Fprintf(w, "error: %v\n", pt.Err)
		} else {
			fmt.Fprintf(w, "%.6g\n", pt.Value)
		}
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6g\n", objective, best)
	for _, n := range names {
		fmt.Printf("  %s = %g\n", n, bestParams[n])
	}
	return nil
}

func densityProfile(snap sim.Snapshot) analysis.Profile {
	alive := snap.Store.Alive()
	p := analysis.Profile{X: make([]float64, len(alive)), Values: make([]float64, len(alive))}
	for i := range alive {
		p.X[i] = alive[i].Pos
		p.Values[i] = alive[i].Density
	}
	return p
}

func shockError(shock analysis.IsothermalShock, p analysis.Profile, cfg *config.Config, t float64) float64 {
	xs, rhos := analysis.Window(p, shock.ValidHalfWidth(cfg.Limit, t)-experiment.ShockMargin(cfg))
	return analysis.RMSRelative(xs, rhos, func(x float64) float64 { return shock.Density(x, t) })
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDATE\tN\tEOS\tT\tSTEPS\tDUMPS\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.4g\t%d\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Particles,
			run.Config.EOS,
			run.Time,
			run.Steps,
			run.Dumps,
			status,
		)
	}
	return w.Flush()
}

func loadDump(runID string, idx int) (*storage.Dump, *storage.RunMetadata, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	paths, err := st.Dumps(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("run %s has no dumps", runID)
	}
	if idx < 0 {
		idx = len(paths) - 1
	}
	if idx >= len(paths) {
		return nil, nil, fmt.Errorf("dump %d out of range (run has %d)", idx, len(paths))
	}
	d, err := storage.ReadDumpFile(paths[idx])
	return d, meta, err
}

func rowField(r storage.Row, name string) (float64, error) {
	switch name {
	case "density":
		return r.Density, nil
	case "velocity", "vel":
		return r.Vel, nil
	case "pressure":
		return r.Pressure, nil
	case "h":
		return r.H, nil
	case "u":
		return r.U, nil
	case "acc", "acceleration":
		return r.Acc, nil
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func plotRun(cmd *cobra.Command, args []string) error {
	d, meta, err := loadDump(args[0], dumpIndex)
	if err != nil {
		return err
	}

	alive := d.Alive()
	xs := make([]float64, len(alive))
	ys := make([]float64, len(alive))
	for i, r := range alive {
		xs[i] = r.Pos
		if ys[i], err = rowField(r, field); err != nil {
			return err
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("t = %.4g, %d particles\n\n", d.Time, len(alive))
	fmt.Println(viz.ProfilePlot(xs, ys, meta.Config.Limit, field+" vs position", 80, 15))

	if svgPath == "" {
		return nil
	}
	return writeProfileSVG(svgPath, xs, ys, &meta.Config, d.Time)
}

// writeProfileSVG writes the particle profile, overlaid with the analytic
// density when one exists.
func writeProfileSVG(path string, xs, ys []float64, cfg *config.Config, t float64) error {
	series := []export.Series{{X: xs, Y: ys, Color: "#00ff00"}}
	if shock, ok := experiment.AnalyticShock(cfg); ok && field == "density" {
		const n = 400
		ax := make([]float64, 0, n+1)
		ay := make([]float64, 0, n+1)
		for i := 0; i <= n; i++ {
			x := -cfg.Limit + 2*cfg.Limit*float64(i)/n
			ax = append(ax, x)
			ay = append(ay, shock.Density(x, t))
		}
		series = append(series, export.Series{X: ax, Y: ay, Color: "#ff5555", Line: true})
	}
	svg := export.ProfileToSVG(series, -cfg.Limit, cfg.Limit, 800, 400)
	if svg == "" {
		return fmt.Errorf("no finite %s values to plot", field)
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cfg := meta.Config
	fmt.Printf("analysis: %s\n\n", meta.ID)

	if cfg.Distribution == sph.Sinusoid.String() {
		return analyzeSoundWave(st, meta)
	}

	shock, ok := experiment.AnalyticShock(&cfg)
	if !ok {
		return errors.New("no analytic solution for adiabatic collisions")
	}
	d, _, err := loadDump(args[0], -1)
	if err != nil {
		return err
	}
	p := analysis.Profile{}
	for _, r := range d.Alive() {
		p.X = append(p.X, r.Pos)
		p.Values = append(p.Values, r.Density)
	}

	t := d.Time
	fmt.Printf("t = %.4g\n", t)
	fmt.Printf("shock speed: %.4f\n", shock.ShockSpeed())
	fmt.Printf("post-shock density: %.4f (analytic)\n", shock.PostDensity())
	fmt.Printf("plateau density: %.4f (measured)\n", analysis.MeanIn(p, 0.5*shock.ShockSpeed()*t))
	fmt.Printf("valid region: |x| < %.4f\n", shock.ValidHalfWidth(cfg.Limit, t))
	fmt.Printf("rms relative density error: %.4f\n", shockError(shock, p, &cfg, t))
	return nil
}

// analyzeSoundWave tracks the particle nearest the velocity antinode across
// all dumps and reports its oscillation frequency.
func analyzeSoundWave(st *storage.Store, meta *storage.RunMetadata) error {
	paths, err := st.Dumps(meta.ID)
	if err != nil {
		return err
	}
	if len(paths) < 4 {
		return fmt.Errorf("need at least 4 dumps, have %d", len(paths))
	}

	first, err := storage.ReadDumpFile(paths[0])
	if err != nil {
		return err
	}
	target := int64(-1)
	best := math.Inf(1)
	for _, r := range first.Alive() {
		if d := math.Abs(r.Pos + meta.Config.Limit/2); d < best {
			best, target = d, r.ID
		}
	}

	series := make([]float64, 0, len(paths))
	times := make([]float64, 0, len(paths))
	for _, path := range paths {
		d, err := storage.ReadDumpFile(path)
		if err != nil {
			return err
		}
		for _, r := range d.Rows {
			if r.ID == target {
				series = append(series, r.Vel)
				times = append(times, d.Time)
				break
			}
		}
	}

	sample := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	ps := analysis.PowerSpectrum(series)
	fmt.Println(asciigraph.Plot(ps[:max(len(ps)/4, 2)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (antinode velocity)"),
	))
	fmt.Println()

	freq := analysis.DominantFrequency(series, sample)
	expected := meta.Config.SoundSpeed / (2 * meta.Config.Limit)
	fmt.Printf("dominant frequency: %.4f\n", freq)
	fmt.Printf("expected c/(2L): %.4f\n", expected)
	if freq > 0 {
		fmt.Printf("period: %.4f\n", 1/freq)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	d, _, err := loadDump(args[0], dumpIndex)
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, d)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tN\tEOS\tKERNEL\tSMOOTHING\tDIST\tDT\tEND")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%g\t%g\n",
			name, c.Particles, c.EOS, c.Kernel, c.Smoothing, c.Distribution, c.Timestep, c.EndTime)
	}
	return w.Flush()
}

func exportConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	path := output
	if path == "" {
		path = args[0] + ".yaml"
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
