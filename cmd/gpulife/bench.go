package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/engine"
	"github.com/san-kum/gpulife/internal/frame"
	"github.com/san-kum/gpulife/internal/grid"
	"github.com/san-kum/gpulife/internal/render"
	"github.com/spf13/cobra"
)

var (
	benchWidth   int
	benchHeight  int
	benchFrames  int
	benchBatches int
	benchWorkers int
	benchSeed    int64
	benchDensity float64
)

type benchResult struct {
	fps        []float64
	elapsed    time.Duration
	generation uint64
	population int
	grid       *grid.Grid
}

// runBench presents frames headless frames on b, split into batches, and
// records the frame rate of each batch.
func runBench(ctx context.Context, b compute.Backend, w, h, frames, batches int, density float64, seed int64) (*benchResult, error) {
	if frames <= 0 || batches <= 0 || batches > frames {
		return nil, errors.Errorf("bench: %d frames in %d batches", frames, batches)
	}
	if err := b.Init(); err != nil {
		return nil, err
	}
	defer b.Cleanup()

	pair, err := grid.NewPair(b, w, h, density, grid.NewRNG(seed))
	if err != nil {
		return nil, err
	}
	defer pair.Release()
	eng, err := engine.New(b, pair)
	if err != nil {
		return nil, err
	}
	ren, err := render.New(b, w, h)
	if err != nil {
		return nil, err
	}

	quiet := newQuietLogger()
	res := &benchResult{}
	per := frames / batches
	for i := 0; i < batches; i++ {
		n := per
		if i == batches-1 {
			n = frames - per*(batches-1)
		}
		d := frame.NewDriver(eng, ren, frame.NewHeadless(n), nil, quiet)
		start := time.Now()
		if err := d.Run(ctx); err != nil {
			return nil, err
		}
		took := time.Since(start)
		res.elapsed += took
		res.fps = append(res.fps, float64(n)/took.Seconds())
	}

	res.generation = eng.Generation()
	res.grid, err = pair.Snapshot()
	if err != nil {
		return nil, err
	}
	res.population = res.grid.Population()
	return res, nil
}

func benchLife(cmd *cobra.Command, args []string) error {
	b := compute.NewCPUBackend(benchWorkers)
	fmt.Printf("benchmarking %dx%d on %s (%d workers)\n\n", benchWidth, benchHeight, b.Name(), b.Workers())

	res, err := runBench(cmd.Context(), b, benchWidth, benchHeight, benchFrames, benchBatches, benchDensity, benchSeed)
	if err != nil {
		return err
	}

	if len(res.fps) > 1 {
		fmt.Println(asciigraph.Plot(res.fps, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("frames/sec per batch")))
		fmt.Println()
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAMES\tTIME\tFRAMES/SEC\tGENERATION\tPOPULATION")
	fmt.Fprintf(w, "%d\t%v\t%.1f\t%d\t%d (%.1f%%)\n",
		benchFrames, res.elapsed.Round(time.Millisecond), float64(benchFrames)/res.elapsed.Seconds(),
		res.generation, res.population, 100*res.grid.Fraction())
	return w.Flush()
}
