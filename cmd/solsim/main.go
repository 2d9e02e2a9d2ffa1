package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/events"
	"github.com/san-kum/solsim/internal/gui"
	"github.com/san-kum/solsim/internal/journal"
	"github.com/san-kum/solsim/internal/logging"
	"github.com/san-kum/solsim/internal/sim"
	"github.com/san-kum/solsim/internal/storage"
	"github.com/san-kum/solsim/internal/tui"
)

var (
	configFile string
	dataDir    string
	preset     string
	seed       int64
	logLevel   string
	theme      string
	stateName  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "solsim",
		Short:        "solar system with black holes",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (overrides storage.dir)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal orrery",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "desktop window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}

	for _, c := range []*cobra.Command{rootCmd, tuiCmd, guiCmd} {
		c.Flags().StringVar(&theme, "theme", "", "color theme")
		c.Flags().StringVar(&stateName, "state", "", "named save state in the data directory instead of the state file")
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-10s %s\n", name, config.Presets[name].Description)
			}
		},
	}

	rootCmd.AddCommand(tuiCmd, guiCmd, presetsCmd)
	rootCmd.AddCommand(runCommands()...)
	rootCmd.AddCommand(serveCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig starts from the config file (or the defaults), applies the
// preset on top and then the flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(cfg)
	}

	if cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if dataDir != "" {
		cfg.Storage.Dir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if theme != "" {
		cfg.UI.Theme = theme
	}
	return cfg, cfg.Validate()
}

// env is everything a command needs around a simulation: the resolved
// config, the logger, and the event observers enabled by the config.
type env struct {
	cfg       *config.Config
	log       hclog.Logger
	store     *storage.Store
	journal   *journal.Journal
	observers []sim.Observer
	closers   []io.Closer
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:     cfg,
		log:     logger,
		store:   storage.New(cfg.Storage.Dir),
		closers: []io.Closer{logCloser},
	}
	if err := e.store.Init(); err != nil {
		e.Close()
		return nil, err
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(e.journalPath(), logger.Named("journal"))
		if err != nil {
			logger.Warn("journal disabled", "path", e.journalPath(), "error", err)
		} else {
			e.journal = j
			e.observers = append(e.observers, j)
			e.closers = append(e.closers, j)
		}
	}

	if cfg.Events.Enabled {
		client, err := events.Connect(cmd.Context(), cfg.Events)
		if err != nil {
			logger.Warn("event publishing disabled", "error", err)
		} else {
			bus := events.NewBus(client, cfg.Events.Channel, logger.Named("events"))
			e.observers = append(e.observers, bus)
			// the bus flushes before the client goes away
			e.closers = append(e.closers, bus, client)
		}
	}

	logger.Info("starting", "command", cmd.Name(), "preset", preset, "seed", cfg.Sim.Seed)
	return e, nil
}

func (e *env) journalPath() string {
	if filepath.IsAbs(e.cfg.Journal.Path) {
		return e.cfg.Journal.Path
	}
	return filepath.Join(e.cfg.Storage.Dir, e.cfg.Journal.Path)
}

// statePath is the file the interactive save and load actions use.
func (e *env) statePath() string {
	if stateName != "" {
		return e.store.StatePath(stateName)
	}
	return e.cfg.Storage.StateFile
}

func (e *env) newSimulation() (*sim.Simulation, error) {
	opts := []sim.Option{sim.WithLogger(e.log.Named("sim"))}
	for _, o := range e.observers {
		opts = append(opts, sim.WithObserver(o))
	}
	return sim.New(e.cfg, opts...)
}

// Close releases resources in reverse order of acquisition. The log file
// goes last.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && i > 0 {
			e.log.Warn("close failed", "error", err)
		}
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.newSimulation()
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), s, tui.Options{StatePath: e.statePath(), Log: e.log})
}

func runGUI(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.newSimulation()
	if err != nil {
		return err
	}
	if err := gui.Run(cmd.Context(), s, gui.Options{StatePath: e.statePath(), Log: e.log}); err != nil {
		logging.Critical(e.log, "gui stopped", "error", err)
		return err
	}
	return nil
}

// parsePoint reads "x,y" in panel coordinates.
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return x, y, nil
}
