package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Config file
	configFile string
	// Preset name
	preset string
	// Flag values; only explicitly changed flags override the file or preset.
	opts = config.DefaultConfig()
)

func main() {
	os.Exit(execute(newRootCmd(), os.Stderr))
}

// execute runs root and reports a failure once on stderr. It returns the
// process exit status.
func execute(root *cobra.Command, stderr io.Writer) int {
	if err := root.Execute(); err != nil {
		log.NewWithOptions(stderr, log.Options{Prefix: "gpulife"}).Error(err)
		return 1
	}
	return 0
}

// newRootCmd registers the gpulife commands. The root runs the simulation
// when no subcommand is given.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gpulife",
		Short:         "conway's game of life on a parallel compute device",
		RunE:          runLife,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addRunFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation in a window or terminal",
		Args:  cobra.NoArgs,
		RunE:  runLife,
	}
	addRunFlags(runCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure headless throughput on the cpu device",
		Args:  cobra.NoArgs,
		RunE:  benchLife,
	}
	benchCmd.Flags().IntVar(&benchWidth, "width", 512, "grid width")
	benchCmd.Flags().IntVar(&benchHeight, "height", 512, "grid height")
	benchCmd.Flags().IntVar(&benchFrames, "frames", 300, "total frames")
	benchCmd.Flags().IntVar(&benchBatches, "batches", 10, "number of timed batches")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "worker goroutines (0 = one per cpu)")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "random seed")
	benchCmd.Flags().Float64Var(&benchDensity, "density", config.DefaultDensity, "initial live fraction")

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list compute devices",
		Args:  cobra.NoArgs,
		RunE:  listBackends,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, benchCmd, backendsCmd, presetsCmd)
	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&opts.Width, "width", opts.Width, "grid width in cells")
	f.IntVar(&opts.Height, "height", opts.Height, "grid height in cells")
	f.Float64Var(&opts.Density, "density", opts.Density, "initial live fraction")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	f.StringVar(&opts.Backend, "backend", opts.Backend, "compute device ("+strings.Join(compute.Names(), ", ")+")")
	f.StringVar(&opts.Frontend, "frontend", opts.Frontend, "surface ("+strings.Join(config.Frontends, ", ")+")")
	f.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "debug, info, warn or error")
	f.DurationVar(&opts.StatsInterval, "stats-interval", opts.StatsInterval, "throughput report interval (min 1s)")
	f.IntVar(&opts.Workers, "workers", opts.Workers, "cpu device goroutines (0 = one per cpu)")
	f.IntVar(&opts.Frames, "frames", opts.Frames, "stop after this many frames (0 = run until closed)")
}

// resolveConfig layers preset, config file and changed flags, in that
// order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("width") {
		cfg.Width = opts.Width
	}
	if f.Changed("height") {
		cfg.Height = opts.Height
	}
	if f.Changed("density") {
		cfg.Density = opts.Density
	}
	if f.Changed("seed") {
		cfg.Seed = opts.Seed
	}
	if f.Changed("backend") {
		cfg.Backend = opts.Backend
	}
	if f.Changed("frontend") {
		cfg.Frontend = opts.Frontend
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if f.Changed("stats-interval") {
		cfg.StatsInterval = opts.StatsInterval
	}
	if f.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if f.Changed("frames") {
		cfg.Frames = opts.Frames
	}
	return cfg, cfg.Validate()
}

func listBackends(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAVAILABLE\tDEVICE")
	for _, name := range compute.Names() {
		if name == "auto" {
			continue
		}
		b, err := compute.Select(name, compute.Options{})
		if err != nil {
			fmt.Fprintf(w, "%s\tno\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\tyes\t%s\n", name, b.Name())
	}
	auto := compute.AutoSelectBackend(compute.Options{})
	fmt.Fprintf(w, "auto\tyes\t%s\n", auto.Name())
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSIZE\tDENSITY\tSEED\tBACKEND\tFRONTEND")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%dx%d\t%.2f\t%d\t%s\t%s\n", name, p.Width, p.Height, p.Density, p.Seed, p.Backend, p.Frontend)
	}
	return w.Flush()
}
