package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/rbdengine/internal/adapter"
	"github.com/gyaneshwarpardhi/rbdengine/internal/calculator"
	"github.com/gyaneshwarpardhi/rbdengine/internal/metrics"
	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
	"github.com/gyaneshwarpardhi/rbdengine/internal/topology"
)

// Version is reported by Info.
const Version = "1.0.0"

// TracerName is the instrumentation scope of the engine's spans.
const TracerName = "rbdengine/engine"

var (
	// ErrInvalidTimeRange is reported when the grid has fewer than two
	// points, too many points, non-finite bounds or end before start.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrInvalidRequest is reported for a missing graph, an oversized graph
	// or unknown calculation types.
	ErrInvalidRequest = errors.New("invalid calculation request")

	// ErrQueueFull is returned by Submit when the request queue is at capacity.
	ErrQueueFull = errors.New("calculation queue full")
)

// Engine runs reliability calculations. It holds no per-request state;
// Calculate may be called concurrently.
type Engine struct {
	calc   *calculator.Calculator
	opts   atomic.Pointer[Options]
	pool   *workerPool[*calcWork]
	logger *slog.Logger
	tracer trace.Tracer
}

type calcWork struct {
	ctx     context.Context
	req     *Request
	resultC chan *Result
}

// New creates an Engine and starts its request pool. A nil logger uses
// slog.Default(). Spans go to the global tracer provider in effect at the
// time of the call. The pool stops when ctx is cancelled or on Shutdown.
func New(ctx context.Context, calc *calculator.Calculator, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if calc == nil {
		calc = calculator.New(adapter.New())
	}
	opts = opts.withDefaults()
	e := &Engine{calc: calc, logger: logger, tracer: otel.Tracer(TracerName)}
	e.opts.Store(&opts)

	e.pool = newWorkerPool[*calcWork](ctx, opts.Workers, opts.QueueDepth,
		func(_ context.Context, w *calcWork) {
			w.resultC <- e.Calculate(w.ctx, w.req)
			metrics.QueueUtilization.Set(e.QueueUtilization())
		},
	)
	return e
}

// SetOptions atomically replaces the limits (used on config hot-reload).
// Workers and QueueDepth keep their construction-time values.
func (e *Engine) SetOptions(o Options) {
	cur := e.opts.Load()
	o = o.withDefaults()
	o.Workers, o.QueueDepth = cur.Workers, cur.QueueDepth
	e.opts.Store(&o)
}

// Options returns the limits in effect.
func (e *Engine) Options() Options {
	return *e.opts.Load()
}

// Submit runs req on the engine's request pool and waits for the result.
// It fails fast with ErrQueueFull when the queue is at capacity.
func (e *Engine) Submit(ctx context.Context, req *Request) (*Result, error) {
	w := &calcWork{ctx: ctx, req: req, resultC: make(chan *Result, 1)}
	if !e.pool.Submit(w) {
		metrics.RequestsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RequestsEnqueued.Inc()
	metrics.QueueUtilization.Set(e.QueueUtilization())

	select {
	case res := <-w.resultC:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the request pool.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

// Info reports the engine version and capabilities.
func (e *Engine) Info() Info {
	return Info{
		Version:                Version,
		SupportedDistributions: adapter.SupportedDistributions(),
		NodeTypes: []string{
			string(rbd.NodeStart), string(rbd.NodeEnd), string(rbd.NodeSeries),
			string(rbd.NodeParallel), string(rbd.NodeKN),
		},
		CalculationTypes: []string{CalcReliability},
		Features:         []string{"series", "parallel", "k-of-n", "path-analysis", "legacy-distributions"},
	}
}

// ValidateTopology checks g for a single start, a single end and a
// connecting path.
func (e *Engine) ValidateTopology(g *rbd.Graph) *topology.Validation {
	if g == nil {
		g = &rbd.Graph{}
	}
	return topology.New(g, topology.WithMaxPaths(e.opts.Load().MaxPaths)).ValidateTopology()
}

// AnalyzePaths returns the path tree and evaluation order for g.
func (e *Engine) AnalyzePaths(g *rbd.Graph) *topology.PathAnalysis {
	if g == nil {
		g = &rbd.Graph{}
	}
	return topology.New(g, topology.WithMaxPaths(e.opts.Load().MaxPaths)).AnalyzePaths()
}

// calculation carries request-local state between stages.
type calculation struct {
	req      *Request
	opts     Options
	res      *Result
	analyzer *topology.Analyzer
	check    *topology.Validation
	paths    *topology.PathAnalysis
	times    []float64
	curves   map[string][]float64
}

// Calculate runs every stage for req. Failures are reported in
// Result.Error, never as a Go error or panic.
func (e *Engine) Calculate(ctx context.Context, req *Request) *Result {
	start := time.Now()
	opts := *e.opts.Load()

	if req == nil {
		req = &Request{}
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := &calculation{
		req:  req,
		opts: opts,
		res: &Result{
			RequestID:         id,
			Times:             []float64{},
			SystemReliability: []float64{},
			NodeResults:       map[string]*NodeResult{},
			Stages:            []StageTiming{},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	ctx, span := e.tracer.Start(ctx, "rbd.Calculate",
		trace.WithAttributes(attribute.String("rbd.request_id", id)),
	)
	defer span.End()

	var calcStart time.Time
	err := e.stage(ctx, c, "validate", e.validateRequest)
	if err == nil {
		err = e.stage(ctx, c, "validate_topology", e.validateTopology)
	}
	if err == nil {
		err = e.stage(ctx, c, "analyze_paths", e.analyzePaths)
	}
	if err == nil {
		calcStart = time.Now()
		err = e.stage(ctx, c, "time_grid", e.timeGrid)
	}
	if err == nil {
		err = e.stage(ctx, c, "node_curves", e.nodeCurves)
	}
	if err == nil {
		err = e.stage(ctx, c, "fold", e.fold)
	}

	res := c.res
	if !calcStart.IsZero() {
		res.CalculationTimeMs = ms(time.Since(calcStart))
	}
	res.TotalTimeMs = ms(time.Since(start))
	metrics.CalculationDuration.Observe(res.TotalTimeMs)

	if err != nil {
		res.Error = err.Error()
		res.Times = []float64{}
		res.SystemReliability = []float64{}
		res.NodeResults = map[string]*NodeResult{}
		span.SetStatus(codes.Error, res.Error)
		metrics.Calculations.WithLabelValues("error").Inc()
		e.logger.Warn("calculation failed",
			slog.String("request_id", id),
			slog.String("error", res.Error),
			slog.Float64("total_ms", res.TotalTimeMs),
		)
		return res
	}

	span.SetStatus(codes.Ok, "")
	metrics.Calculations.WithLabelValues("ok").Inc()
	e.logger.Info("calculation complete",
		slog.String("request_id", id),
		slog.Int("nodes", len(res.NodeResults)),
		slog.Int("paths", len(c.paths.Paths)),
		slog.Int("points", len(res.Times)),
		slog.Float64("calculation_ms", res.CalculationTimeMs),
		slog.Float64("total_ms", res.TotalTimeMs),
	)
	return res
}

// stage runs fn in its own span and records its duration.
func (e *Engine) stage(ctx context.Context, c *calculation, name string, fn func(context.Context, *calculation) error) error {
	ctx, span := e.tracer.Start(ctx, "rbd."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx, c)
	if err == nil {
		err = ctx.Err()
	}
	d := ms(time.Since(start))
	c.res.Stages = append(c.res.Stages, StageTiming{Stage: name, DurationMs: d})
	metrics.StageDuration.WithLabelValues(name).Observe(d)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (e *Engine) validateRequest(_ context.Context, c *calculation) error {
	g := c.req.Graph
	if g == nil {
		return fmt.Errorf("%w: graphData is required", ErrInvalidRequest)
	}
	if len(g.Nodes) > c.opts.MaxNodes {
		return fmt.Errorf("%w: %d nodes exceeds limit of %d", ErrInvalidRequest, len(g.Nodes), c.opts.MaxNodes)
	}
	if err := checkCalculationTypes(c.req.Options.CalculationTypes); err != nil {
		return err
	}
	return rbd.Validate(g)
}

func checkCalculationTypes(types []string) error {
	if len(types) == 0 {
		return nil
	}
	wantsReliability := false
	for _, t := range types {
		switch t {
		case CalcReliability:
			wantsReliability = true
		case CalcAvailability, CalcMTTF:
		default:
			return fmt.Errorf("%w: unknown calculation type %q", ErrInvalidRequest, t)
		}
	}
	if !wantsReliability {
		return fmt.Errorf("%w: only %q is supported", ErrInvalidRequest, CalcReliability)
	}
	return nil
}

func (e *Engine) validateTopology(ctx context.Context, c *calculation) error {
	c.analyzer = topology.New(c.req.Graph, topology.WithMaxPaths(c.opts.MaxPaths))
	c.check = c.analyzer.ValidateTopology()
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("rbd.paths", len(c.check.Paths)),
		attribute.Int("rbd.disconnected", len(c.check.DisconnectedNodes)),
	)
	return c.check.Err()
}

func (e *Engine) analyzePaths(_ context.Context, c *calculation) error {
	c.paths = c.analyzer.AnalyzeValidation(c.check)
	return c.paths.Err()
}

func (e *Engine) timeGrid(_ context.Context, c *calculation) error {
	tr := c.req.TimeRange
	if tr.IsZero() {
		tr = c.opts.DefaultTimeRange
	}
	times, err := TimeGrid(tr, c.opts.MaxPoints)
	if err != nil {
		return err
	}
	c.times = times
	c.res.Times = times
	metrics.TimePoints.Observe(float64(len(times)))
	return nil
}

// TimeGrid returns tr.Points values linearly spaced over [tr.Start, tr.End].
// maxPoints <= 0 disables the size limit.
func TimeGrid(tr TimeRange, maxPoints int) ([]float64, error) {
	switch {
	case tr.Points < 2:
		return nil, fmt.Errorf("%w: points must be at least 2, got %d", ErrInvalidTimeRange, tr.Points)
	case maxPoints > 0 && tr.Points > maxPoints:
		return nil, fmt.Errorf("%w: %d points exceeds limit of %d", ErrInvalidTimeRange, tr.Points, maxPoints)
	case math.IsNaN(tr.Start) || math.IsInf(tr.Start, 0) || math.IsNaN(tr.End) || math.IsInf(tr.End, 0):
		return nil, fmt.Errorf("%w: bounds must be finite", ErrInvalidTimeRange)
	case tr.End < tr.Start:
		return nil, fmt.Errorf("%w: end %v is before start %v", ErrInvalidTimeRange, tr.End, tr.Start)
	}
	times := make([]float64, tr.Points)
	span := tr.End - tr.Start
	last := float64(tr.Points - 1)
	for i := range times {
		times[i] = tr.Start + span*float64(i)/last
	}
	return times, nil
}

// nodeCurves evaluates every node in the calculation order. Node curves are
// independent of each other, so they run in parallel. A node error is
// recorded on its NodeResult and does not fail the stage.
func (e *Engine) nodeCurves(ctx context.Context, c *calculation) error {
	order := c.paths.CalculationOrder
	results := make([]*NodeResult, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.NodeConcurrency)
	for i, id := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.nodeCurve(c, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.curves = make(map[string][]float64, len(order))
	for _, nr := range results {
		c.res.NodeResults[nr.NodeID] = nr
		if nr.Error != "" {
			metrics.NodeErrors.Inc()
			e.logger.Warn("node calculation failed",
				slog.String("request_id", c.res.RequestID),
				slog.String("node_id", nr.NodeID),
				slog.String("error", nr.Error),
			)
			continue
		}
		c.curves[nr.NodeID] = nr.Reliability
	}
	return nil
}

func (e *Engine) nodeCurve(c *calculation, id string) *NodeResult {
	start := time.Now()
	nr := &NodeResult{NodeID: id, Times: c.times, Reliability: []float64{}}
	node, ok := c.req.Graph.NodeByID(id)
	if !ok {
		nr.Error = fmt.Sprintf("node %s not found", id)
	} else if curve, err := e.calc.Curve(node, c.times); err != nil {
		nr.Error = err.Error()
	} else {
		nr.Reliability = curve
	}
	nr.CalculationTimeMs = ms(time.Since(start))
	return nr
}

// fold evaluates the path tree bottom-up at every time index. A component
// multiplies its own reliability by its continuation; a parallel group
// combines its branches. Nodes without a curve count as failed (0).
func (e *Engine) fold(_ context.Context, c *calculation) error {
	tree := c.paths.Tree
	post := tree.PostOrder()
	vals := make([]float64, len(tree.Nodes))
	system := make([]float64, len(c.times))
	branch := make([]float64, 0, len(tree.Nodes))

	for ti := range c.times {
		for _, idx := range post {
			n := &tree.Nodes[idx]
			branch = branch[:0]
			for _, child := range n.Children {
				branch = append(branch, vals[child])
			}
			if n.IsParallel {
				v, err := calculator.CombineParallel(branch, n.K, n.N)
				if err != nil {
					return fmt.Errorf("fold %s: %w", n.NodeID, err)
				}
				vals[idx] = v
				continue
			}
			own := 0.0
			if curve, ok := c.curves[n.NodeID]; ok && ti < len(curve) {
				own = curve[ti]
			}
			vals[idx] = own * calculator.Series(branch...)
		}

		switch len(tree.Roots) {
		case 0:
			system[ti] = 0
		case 1:
			system[ti] = vals[tree.Roots[0]]
		default:
			roots := make([]float64, len(tree.Roots))
			for i, r := range tree.Roots {
				roots[i] = vals[r]
			}
			v, err := calculator.CombineParallel(roots, 1, len(roots))
			if err != nil {
				return fmt.Errorf("fold roots: %w", err)
			}
			system[ti] = v
		}
	}
	c.res.SystemReliability = system
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
