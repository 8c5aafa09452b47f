package engine_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gpulife/internal/compute"
	"github.com/san-kum/gpulife/internal/engine"
	"github.com/san-kum/gpulife/internal/grid"
	"github.com/san-kum/gpulife/internal/life"
)

// pattern builds a w×h grid with the '#' cells of rows placed at (ox, oy).
func pattern(w, h, ox, oy int, rows ...string) *grid.Grid {
	g := grid.New(w, h)
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				g.Set(ox+x, oy+y, true)
			}
		}
	}
	return g
}

// reference computes the next generation on the host.
func reference(g *grid.Grid) *grid.Grid {
	next := grid.New(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			next.Cells()[next.Index(x, y)] = life.Cell(g, x, y)
		}
	}
	return next
}

func newEngine(b compute.Backend, g *grid.Grid) (*engine.Engine, *grid.Pair) {
	pair, err := grid.NewPairFrom(b, g)
	Expect(err).NotTo(HaveOccurred())
	e, err := engine.New(b, pair)
	Expect(err).NotTo(HaveOccurred())
	Expect(e.Ready()).To(BeTrue())
	return e, pair
}

func snapshot(p *grid.Pair) *grid.Grid {
	g, err := p.Snapshot()
	Expect(err).NotTo(HaveOccurred())
	return g
}

func stepN(e *engine.Engine, n int) {
	for i := 0; i < n; i++ {
		Expect(e.Step()).To(Succeed())
	}
}

// faultyBackend fails the selected operation while its flag is set.
type faultyBackend struct {
	*compute.CPUBackend
	failDispatch bool
	failBarrier  bool
	failBind     bool
}

var errInjected = errors.New("injected device fault")

func (f *faultyBackend) Dispatch(p compute.Program, gx, gy int) error {
	if f.failDispatch {
		return errInjected
	}
	return f.CPUBackend.Dispatch(p, gx, gy)
}

func (f *faultyBackend) Barrier() error {
	err := f.CPUBackend.Barrier()
	if f.failBarrier {
		return errInjected
	}
	return err
}

func (f *faultyBackend) BindWriteImage(slot int, img compute.Image) error {
	if f.failBind {
		return errInjected
	}
	return f.CPUBackend.BindWriteImage(slot, img)
}

type brokenCompiler struct {
	*compute.CPUBackend
}

func (b *brokenCompiler) CompileCompute(src compute.ComputeSource) (compute.Program, error) {
	return nil, compute.ErrCompile
}

var _ = Describe("Engine", func() {
	var backend *compute.CPUBackend

	BeforeEach(func() {
		backend = compute.NewCPUBackend(4)
	})

	AfterEach(func() {
		backend.Cleanup()
	})

	Describe("patterns", func() {
		It("keeps a block still life unchanged", func() {
			start := pattern(8, 8, 3, 3,
				"##",
				"##",
			)
			e, pair := newEngine(backend, start)
			stepN(e, 1)
			Expect(snapshot(pair).Equal(start)).To(BeTrue())
		})

		It("returns a blinker to its phase after exactly two steps", func() {
			start := pattern(5, 5, 1, 2, "###")
			e, pair := newEngine(backend, start)

			stepN(e, 1)
			vertical := pattern(5, 5, 2, 1, "#", "#", "#")
			Expect(snapshot(pair).Equal(vertical)).To(BeTrue())
			Expect(snapshot(pair).Equal(start)).To(BeFalse())

			stepN(e, 1)
			Expect(snapshot(pair).Equal(start)).To(BeTrue())
		})

		It("translates a glider by (+1,+1) after four steps", func() {
			glider := []string{
				".#.",
				"..#",
				"###",
			}
			start := pattern(10, 10, 2, 2, glider...)
			e, pair := newEngine(backend, start)

			for i := 1; i < 4; i++ {
				stepN(e, 1)
				Expect(snapshot(pair).Equal(pattern(10, 10, 3, 3, glider...))).To(BeFalse())
			}
			stepN(e, 1)
			Expect(snapshot(pair).Equal(pattern(10, 10, 3, 3, glider...))).To(BeTrue())
			Expect(snapshot(pair).Population()).To(Equal(5))
		})

		It("carries a glider across the wrapped edges", func() {
			glider := []string{
				".#.",
				"..#",
				"###",
			}
			start := pattern(6, 6, 4, 4, glider...)
			e, pair := newEngine(backend, start)
			stepN(e, 4*6)
			Expect(snapshot(pair).Equal(start)).To(BeTrue())
		})
	})

	Describe("buffer roles", func() {
		It("makes the freshly written grid current and recycles the old one", func() {
			start := grid.New(33, 17)
			grid.Seed(start, 0.5, grid.NewRNG(11))
			e, pair := newEngine(backend, start)

			oldCurrent, oldWritable := pair.Current(), pair.Writable()
			stepN(e, 1)

			Expect(pair.Current()).To(BeIdenticalTo(oldWritable))
			Expect(pair.Writable()).To(BeIdenticalTo(oldCurrent))
			Expect(e.Current()).To(BeIdenticalTo(oldWritable))
			Expect(snapshot(pair).Equal(reference(start))).To(BeTrue())
			Expect(e.Generation()).To(Equal(uint64(1)))
		})
	})

	Describe("determinism", func() {
		It("matches the host rule on grids that are not a multiple of the group size", func() {
			start := grid.New(37, 23)
			grid.Seed(start, 0.4, grid.NewRNG(5))
			e, pair := newEngine(backend, start)
			gx, gy := e.Groups()
			Expect(gx).To(Equal(3))
			Expect(gy).To(Equal(2))

			want := start
			for i := 0; i < 10; i++ {
				want = reference(want)
				stepN(e, 1)
				Expect(snapshot(pair).Equal(want)).To(BeTrue(), "generation %d", i+1)
			}
		})

		It("produces the same generation regardless of worker count", func() {
			start := grid.New(64, 48)
			grid.Seed(start, 0.5, grid.NewRNG(9))

			var results []*grid.Grid
			for _, workers := range []int{1, 3, 16} {
				b := compute.NewCPUBackend(workers)
				e, pair := newEngine(b, start)
				stepN(e, 5)
				results = append(results, snapshot(pair))
			}
			Expect(results[0].Equal(results[1])).To(BeTrue())
			Expect(results[0].Equal(results[2])).To(BeTrue())
		})
	})

	Describe("failures", func() {
		var (
			faulty *faultyBackend
			start  *grid.Grid
		)

		BeforeEach(func() {
			faulty = &faultyBackend{CPUBackend: backend}
			start = pattern(5, 5, 1, 2, "###")
		})

		DescribeTable("leave the generation untouched",
			func(configure func(*faultyBackend)) {
				e, pair := newEngine(faulty, start)
				cur := pair.Current()
				configure(faulty)

				err := e.Step()
				Expect(err).To(MatchError(errInjected))
				Expect(pair.Current()).To(BeIdenticalTo(cur))
				Expect(e.Generation()).To(BeZero())

				*faulty = faultyBackend{CPUBackend: backend}
				Expect(snapshot(pair).Equal(start)).To(BeTrue())
				Expect(e.Step()).To(Succeed())
			},
			Entry("bind", func(f *faultyBackend) { f.failBind = true }),
			Entry("dispatch", func(f *faultyBackend) { f.failDispatch = true }),
			Entry("barrier", func(f *faultyBackend) { f.failBarrier = true }),
		)

		It("reports a kernel build failure and refuses to step", func() {
			b := &brokenCompiler{CPUBackend: backend}
			pair, err := grid.NewPairFrom(b, start)
			Expect(err).NotTo(HaveOccurred())

			e, err := engine.New(b, pair)
			Expect(err).To(MatchError(compute.ErrCompile))
			Expect(e).NotTo(BeNil())
			Expect(e.Ready()).To(BeFalse())
			Expect(e.Step()).To(MatchError(engine.ErrNotReady))
			Expect(snapshot(pair).Equal(start)).To(BeTrue())
		})
	})
})
