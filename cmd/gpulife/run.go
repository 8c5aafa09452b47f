package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/config"
	"github.com/san-kum/gpulife/internal/engine"
	"github.com/san-kum/gpulife/internal/frame"
	"github.com/san-kum/gpulife/internal/grid"
	"github.com/san-kum/gpulife/internal/gui"
	"github.com/san-kum/gpulife/internal/render"
	"github.com/san-kum/gpulife/internal/viz"
	"github.com/spf13/cobra"
)

const logPaneLines = 8

type observer interface {
	Observe(frame.Throughput)
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "gpulife",
		Level:           lvl,
	}), nil
}

func newQuietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func runLife(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var pane *viz.LogPane
	out := io.Writer(os.Stderr)
	if cfg.Frontend == "terminal" {
		pane = viz.NewLogPane(logPaneLines)
		out = pane
	}
	logger, err := newLogger(out, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runPipeline(ctx, cfg, logger, pane)
}

// runPipeline brings up surface, device, grids, engine and renderer in that
// order and drives frames until the surface or ctx asks to stop. Only
// initialization failures are returned.
func runPipeline(ctx context.Context, cfg *config.Config, logger *log.Logger, pane *viz.LogPane) error {
	name := cfg.Backend
	if cfg.Frontend != "window" && name == "auto" {
		// Only the window provides a GL context.
		name = "cpu"
	}
	backend, err := compute.Select(name, compute.Options{Workers: cfg.Workers})
	if err != nil {
		return err
	}
	fb, _ := backend.(compute.Framebuffer)

	var teardown []func()
	fail := func(err error) error {
		for i := len(teardown) - 1; i >= 0; i-- {
			teardown[i]()
		}
		return err
	}

	surface, err := openSurface(cfg, backend, fb, logger, pane)
	if err != nil {
		return err
	}
	teardown = append(teardown, func() {
		if err := surface.Close(); err != nil {
			logger.Warn("surface close failed", "err", err)
		}
	})
	obs, _ := surface.(observer)
	surface = frame.WithFrameLimit(surface, cfg.Frames)

	if err := backend.Init(); err != nil {
		return fail(errors.Wrapf(err, "init %s device", backend.Name()))
	}
	teardown = append(teardown, backend.Cleanup)

	pair, err := grid.NewPair(backend, cfg.Width, cfg.Height, cfg.Density, grid.NewRNG(cfg.Seed))
	if err != nil {
		return fail(errors.Wrap(err, "allocate grids"))
	}
	teardown = append(teardown, pair.Release)
	logger.Info("grid seeded", "device", backend.Name(), "width", cfg.Width, "height", cfg.Height, "density", cfg.Density, "seed", cfg.Seed)

	eng, err := engine.New(backend, pair)
	if err != nil {
		logger.Error("step kernel unusable", "err", err)
	}
	ren, err := render.New(backend, cfg.Width, cfg.Height)
	if err != nil {
		logger.Error("display shader unusable", "err", err)
	}

	d := frame.NewDriver(eng, ren, surface, frame.NewFrameClock(cfg.StatsInterval), logger.With("component", "driver"))
	if obs != nil {
		d.OnThroughput(obs.Observe)
	}
	for _, fn := range teardown {
		d.OnClose(fn)
	}
	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("closed", "frames", d.Frames(), "generation", eng.Generation())
	return nil
}

func openSurface(cfg *config.Config, backend compute.Backend, fb compute.Framebuffer, logger *log.Logger, pane *viz.LogPane) (frame.Surface, error) {
	switch cfg.Frontend {
	case "window":
		win, err := gui.Open(cfg.Width, cfg.Height, "gpulife", fb, logger.With("component", "window"))
		if err != nil {
			return nil, err
		}
		return win, nil
	case "terminal":
		if fb == nil {
			return nil, errors.Errorf("%s device has no framebuffer to show in a terminal", backend.Name())
		}
		term := viz.NewTerminal(fb, viz.NewModel(backend.Name(), pane), tea.WithAltScreen())
		term.Start()
		return term, nil
	case "headless":
		if fb == nil {
			return nil, errors.Errorf("%s device needs a window", backend.Name())
		}
		return frame.NewHeadless(0), nil
	default:
		return nil, errors.Errorf("unknown frontend %q", cfg.Frontend)
	}
}
