package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/solsim/internal/automation"
	"github.com/san-kum/solsim/internal/export"
	"github.com/san-kum/solsim/internal/metrics"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
	"github.com/san-kum/solsim/internal/tui"
	"github.com/san-kum/solsim/internal/viz"
)

var (
	ticks       int64
	spawnAt     string
	sampleEvery int64
	plotAfter   bool
	jsonOut     bool
	numRuns     int
	liveView    bool
	frameRate   int
	fromState   string
	saveAs      string
	svgOut      string

	sweepMin  int
	sweepMax  int
	sweepStep int
	sweepAt   string
)

func runCommands() []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation headless and record telemetry",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().Int64Var(&ticks, "ticks", 600, "number of ticks")
	runCmd.Flags().StringVar(&spawnAt, "spawn", "", "spawn a black hole at x,y before the first tick")
	runCmd.Flags().Int64Var(&sampleEvery, "sample", 1, "record telemetry every n ticks")
	runCmd.Flags().BoolVar(&plotAfter, "plot", false, "plot telemetry when done")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "write the result as JSON to stdout")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "run an ensemble over consecutive seeds")
	runCmd.Flags().BoolVar(&liveView, "live", false, "draw the orrery while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --live")
	runCmd.Flags().StringVar(&fromState, "from", "", "start from a named save state")
	runCmd.Flags().StringVar(&saveAs, "save-as", "", "store the final state under this name")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "draw the final state to this SVG file")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "replay a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	scriptCmd.Flags().BoolVar(&plotAfter, "plot", false, "plot telemetry when done")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare black hole sizes spawned at the same spot",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&sweepMin, "min", 10, "smallest size")
	sweepCmd.Flags().IntVar(&sweepMax, "max", 50, "largest size")
	sweepCmd.Flags().IntVar(&sweepStep, "step", 5, "size increment")
	sweepCmd.Flags().StringVar(&sweepAt, "at", "750,535", "spawn point x,y")
	sweepCmd.Flags().Int64Var(&ticks, "ticks", 600, "ticks per size")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the black hole radius series to this SVG file")

	inspectCmd := &cobra.Command{
		Use:   "inspect [state_file]",
		Short: "show a save file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  inspectState,
	}

	snapshotsCmd := &cobra.Command{
		Use:   "snapshots",
		Short: "list named save states",
		Args:  cobra.NoArgs,
		RunE:  listSnapshots,
	}

	return []*cobra.Command{runCmd, scriptCmd, sweepCmd, listCmd, plotCmd, inspectCmd, snapshotsCmd}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Sim.Seed == 0 {
		e.cfg.Sim.Seed = time.Now().UnixNano()
	}
	if numRuns > 1 {
		return runEnsemble(cmd, e)
	}

	s, err := e.newSimulation()
	if err != nil {
		return err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	if fromState != "" {
		st, err := e.store.LoadSnapshot(fromState)
		if err != nil {
			return err
		}
		if err := s.Restore(st.Snapshot()); err != nil {
			return err
		}
	}
	if spawnAt != "" {
		x, y, err := parsePoint(spawnAt)
		if err != nil {
			return err
		}
		if err := s.CreateBlackHole(x, y); err != nil {
			return err
		}
	}

	rec := storage.NewRecorder(sampleEvery)
	var live *tui.LiveRenderer
	var pace *time.Ticker
	if liveView {
		live = tui.NewLiveRenderer(os.Stdout, s.Bounds(), 100, 34, frameRate, viz.GetTheme(e.cfg.UI.Theme))
		s.AddObserver(live)
		live.Start()
		defer live.Stop()
		pace = time.NewTicker(time.Second / time.Duration(e.cfg.Sim.FPS))
		defer pace.Stop()
	} else if !jsonOut {
		fmt.Printf("running %d ticks (seed %d)...\n", ticks, e.cfg.Sim.Seed)
	}

	start := time.Now()
	result, err := s.RunWithCallback(cmd.Context(), ticks, func(r *sim.FrameReport) bool {
		snap := s.Snapshot()
		rec.Record(snap)
		if live != nil {
			live.OnFrame(snap)
			<-pace.C
		}
		return true
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := e.store.SaveRun(storage.RunMetadata{
		Preset:  presetName(),
		Seed:    e.cfg.Sim.Seed,
		Ticks:   result.Ticks,
		Speed:   s.Speed(),
		Metrics: result.Metrics,
	}, rec.Samples())
	if err != nil {
		return err
	}
	e.log.Info("run saved", "id", runID, "ticks", result.Ticks, "elapsed", elapsed)

	if saveAs != "" {
		if err := e.store.SaveSnapshot(saveAs, result.Final); err != nil {
			return err
		}
	}

	if svgOut != "" {
		svg := export.SnapshotToSVG(result.Final, s.Bounds(), viz.GetTheme(e.cfg.UI.Theme))
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
	}

	if jsonOut {
		return storage.ExportJSON(os.Stdout, presetName(), e.cfg.Sim.Seed, result, rec.Samples())
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	printResult(result)
	if plotAfter {
		plotSamples(rec.Samples())
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, e *env) error {
	ens := sim.NewEnsemble(e.cfg, numRuns, e.cfg.Sim.Seed, metrics.Default)
	if spawnAt != "" {
		x, y, err := parsePoint(spawnAt)
		if err != nil {
			return err
		}
		ens.Setup(func(s *sim.Simulation) error { return s.CreateBlackHole(x, y) })
	}

	fmt.Printf("running %d simulations of %d ticks...\n", numRuns, ticks)
	results, err := ens.Run(cmd.Context(), ticks)
	if err != nil {
		return err
	}

	names := metricNames(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "SEED")
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)

	mean := make(map[string]float64, len(names))
	for i, r := range results {
		fmt.Fprintf(w, "%d", e.cfg.Sim.Seed+int64(i))
		for _, n := range names {
			fmt.Fprintf(w, "\t%.3f", r.Metrics[n])
			mean[n] += r.Metrics[n] / float64(len(results))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, "mean")
	for _, n := range names {
		fmt.Fprintf(w, "\t%.3f", mean[n])
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	rec := storage.NewRecorder(1)
	runner := &automation.Runner{
		Base:      e.cfg,
		Dir:       e.store.StatesDir(),
		Log:       e.log,
		Observers: e.observers,
		Recorder:  rec,
	}

	fmt.Printf("running scenario %s (%d ticks, %d actions)\n", sc.Name, sc.Ticks, len(sc.Actions))
	report, err := runner.Run(cmd.Context(), sc)
	if err != nil {
		return err
	}

	for _, a := range report.Applied {
		fmt.Printf("  ok     %s\n", a)
	}
	for _, err := range report.Failed {
		fmt.Printf("  failed %v\n", err)
	}

	runID, err := e.store.SaveRun(storage.RunMetadata{
		Preset:  sc.Preset,
		Seed:    sc.Seed,
		Ticks:   report.Result.Ticks,
		Speed:   report.Result.Final.Speed,
		Metrics: report.Result.Metrics,
	}, rec.Samples())
	if err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	printResult(report.Result)
	if plotAfter {
		plotSamples(rec.Samples())
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d actions failed", len(report.Failed), len(sc.Actions))
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	x, y, err := parsePoint(sweepAt)
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	results, err := automation.RunSweep(cmd.Context(), e.cfg, automation.SizeSweep{
		MinSize: sweepMin,
		MaxSize: sweepMax,
		Step:    sweepStep,
		X:       x,
		Y:       y,
		Ticks:   ticks,
		Seed:    e.cfg.Sim.Seed,
		Progress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rsize %d/%d", done, total)
		},
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tACTIVE\tABSORBED\tSUN\tRADIUS\tMAX DILATION")
	for _, r := range results {
		sun := "gone"
		if r.SunActive {
			sun = "ok"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%.1f\t%.3f\n", r.Size, r.ActivePlanets, r.Absorbed, sun, r.FinalRadius, r.MaxDilation)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(storeDir(cmd))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSEED\tTICKS\tSPEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%gx\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Ticks,
			run.Speed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(storeDir(cmd))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(samples))
	plotSamples(samples)

	if svgOut != "" {
		radius := make([]float64, len(samples))
		for i, sm := range samples {
			radius[i] = sm.BlackHole
		}
		svg := export.SeriesToSVG(radius, 800, 300, "#8a2be2")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func plotSamples(samples []storage.Sample) {
	if len(samples) == 0 {
		return
	}
	active := make([]float64, len(samples))
	radius := make([]float64, len(samples))
	dilation := make([]float64, len(samples))
	for i, sm := range samples {
		active[i] = float64(sm.ActivePlanets)
		radius[i] = sm.BlackHole
		dilation[i] = sm.MaxDilation
	}

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{active, "active planets"},
		{radius, "black hole radius"},
		{dilation, "max time dilation"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
}

func inspectState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.Storage.StateFile
	if len(args) > 0 {
		path = args[0]
	}

	st, err := storage.LoadState(path)
	if err != nil {
		return err
	}

	fmt.Printf("file: %s\n", path)
	fmt.Printf("saved: %s\n", st.Timestamp)
	fmt.Printf("sun: active=%t at (%.1f, %.1f)\n", st.Sun.Active, st.Sun.X, st.Sun.Y)
	if st.BlackHole.Exists {
		fmt.Printf("black hole: radius %.1f at (%.1f, %.1f)\n", st.BlackHole.Radius, st.BlackHole.X, st.BlackHole.Y)
	} else {
		fmt.Println("black hole: none")
	}

	names := make([]string, len(cfg.Planets))
	for i, p := range cfg.Planets {
		names[i] = p.Name
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLANET\tDISTANCE\tANGLE\tACTIVE")
	for i, p := range st.Planets {
		name := fmt.Sprintf("#%d", i)
		if i < len(names) {
			name = names[i]
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%t\n", name, p.Distance, p.Angle, p.Active)
	}
	return w.Flush()
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	st := storage.New(storeDir(cmd))
	names, err := st.ListSnapshots()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no save states found")
		return nil
	}
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
	return nil
}

func printResult(result *sim.Result) {
	f := result.Final
	fmt.Printf("ticks: %d\n", result.Ticks)
	fmt.Printf("planets: %d/%d active, sun active: %t\n", f.ActivePlanets(), len(f.Planets), f.Sun.Active)
	fmt.Printf("collisions: %d, sun collisions: %d, absorbed: %d, ejected: %d, escaped: %d\n",
		f.Stats.Collisions, f.Stats.SunCollisions, f.Stats.Absorbed, f.Stats.Ejected, f.Stats.Escaped)
	if len(result.Errors) > 0 {
		fmt.Printf("phase errors: %d (last: %v)\n", len(result.Errors), result.Errors[len(result.Errors)-1])
	}
	fmt.Println("\nmetrics:")
	for _, name := range metricNames(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func presetName() string {
	if preset == "" {
		return "classic"
	}
	return preset
}

// storeDir resolves the data directory without opening logs or observers.
func storeDir(cmd *cobra.Command) string {
	if cfg, err := loadConfig(cmd); err == nil {
		return cfg.Storage.Dir
	}
	if dataDir != "" {
		return dataDir
	}
	return ".solsim"
}
