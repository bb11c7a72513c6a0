package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/events"
	"github.com/vk/nodeflow/internal/graph"
	"github.com/vk/nodeflow/internal/inputs"
	"github.com/vk/nodeflow/internal/metrics"
	"github.com/vk/nodeflow/internal/node"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/worker"
)

// MonitorFunc is a background task run alongside each graph execution. It
// must return promptly once its context is cancelled; the engine awaits it
// before releasing the run.
type MonitorFunc func(ctx context.Context, sink events.Sink)

// Engine resolves and executes node graphs against a registry of node
// types. One Engine serves many concurrent runs; each run owns its own memo
// table and shares only the registry and the bounded worker pool.
type Engine struct {
	registry *registry.Registry
	pool     *worker.Pool
	monitor  MonitorFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithMonitor attaches a per-run background telemetry task.
func WithMonitor(fn MonitorFunc) Option {
	return func(e *Engine) { e.monitor = fn }
}

// New creates an Engine.
func New(reg *registry.Registry, pool *worker.Pool, opts ...Option) *Engine {
	e := &Engine{registry: reg, pool: pool}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is one graph execution request. Targets optionally names the
// nodes that must produce output; it only applies when no node type in the
// graph is marked terminal.
type Request struct {
	Graph   *graph.Graph
	Targets []string
}

// Execute runs the graph, emitting log and progress events over the run's
// lifetime and terminating with exactly one done event on success or
// exactly one error event on the first failure. The returned error mirrors
// the error event. The background monitor, when configured, is always
// cancelled and awaited before Execute returns.
func (e *Engine) Execute(ctx context.Context, req Request, sink events.Sink) error {
	logger := ctxlog.FromContext(ctx)
	g := req.Graph
	if g == nil {
		g = graph.New()
	}

	sink.Emit(events.Log("🚀 Engine started (local mode)..."))

	monCtx, cancelMonitor := context.WithCancel(ctx)
	var monWG sync.WaitGroup
	if e.monitor != nil {
		monWG.Add(1)
		go func() {
			defer monWG.Done()
			e.monitor(monCtx, sink)
		}()
	}
	defer func() {
		cancelMonitor()
		monWG.Wait()
	}()

	fail := func(err error) error {
		logger.Error("Graph execution failed.", "error", err)
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		sink.Emit(events.Error(err.Error()))
		return err
	}

	targets := e.selectTargets(g, req.Targets)
	logger.Debug("Resolved run targets.", "targets", targets, "node_count", g.Len())

	// Static pre-flight over the reachable subgraph. The per-chain guard in
	// resolve() is the backstop for anything this walk cannot see.
	if cycle := g.FindCycle(targets); cycle != nil {
		return fail(&CycleError{Path: cycle})
	}

	r := &run{
		engine: e,
		graph:  g,
		sink:   sink,
		memo:   make(map[string]*future, g.Len()),
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, id := range targets {
		id := id
		grp.Go(func() error {
			_, err := r.resolve(grpCtx, id, nil)
			return err
		})
	}
	if err := grp.Wait(); err != nil {
		return fail(err)
	}

	metrics.RunsTotal.WithLabelValues("ok").Inc()
	sink.Emit(events.Done())
	logger.Info("🏁 Graph execution finished.", "nodes_resolved", r.resolvedCount())
	return nil
}

// selectTargets picks the nodes a run must resolve: every node whose type
// is marked terminal; failing that, the request's explicit targets; failing
// that, the last-declared node as a single-output convenience.
func (e *Engine) selectTargets(g *graph.Graph, explicit []string) []string {
	var terminals []string
	for _, id := range g.Order() {
		spec, _ := g.Node(id)
		if rn, err := e.registry.Lookup(spec.Type); err == nil && rn.Manifest.Terminal {
			terminals = append(terminals, id)
		}
	}
	if len(terminals) > 0 {
		return terminals
	}
	if len(explicit) > 0 {
		return explicit
	}
	if last, ok := g.Last(); ok {
		return []string{last}
	}
	return nil
}

// future is the memo entry for one node: the first resolver to claim an id
// computes it, racers wait on done and read the same result.
type future struct {
	done   chan struct{}
	result node.Result
	err    error
}

// run is the state of a single graph execution: the memo table and nothing
// else. It is discarded when the run ends.
type run struct {
	engine *Engine
	graph  *graph.Graph
	sink   events.Sink

	mu   sync.Mutex
	memo map[string]*future
}

func (r *run) resolvedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memo)
}

// resolve returns the node's result, computing it at most once per run.
// ancestors carries the resolution chain that led here; finding the id
// already on its own chain means a dependency cycle.
func (r *run) resolve(ctx context.Context, id string, ancestors map[string]struct{}) (node.Result, error) {
	if _, onPath := ancestors[id]; onPath {
		return nil, &CycleError{Path: []string{id}}
	}

	r.mu.Lock()
	if f, ok := r.memo[id]; ok {
		r.mu.Unlock()
		select {
		case <-f.done:
			return f.result, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &future{done: make(chan struct{})}
	r.memo[id] = f
	r.mu.Unlock()

	f.result, f.err = r.compute(ctx, id, ancestors)
	close(f.done)
	return f.result, f.err
}

// compute resolves a node's inputs, validates them, and dispatches the
// handler. Reference inputs resolve concurrently; independent branches of
// the graph therefore execute in parallel, bounded only by the worker pool.
func (r *run) compute(ctx context.Context, id string, ancestors map[string]struct{}) (node.Result, error) {
	logger := ctxlog.FromContext(ctx).With("node", id)

	spec, ok := r.graph.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %q not found in graph", id)
	}
	logger.Debug("▶️ Resolving node.", "type", spec.Type)

	rn, err := r.engine.registry.Lookup(spec.Type)
	if err != nil {
		return nil, err
	}

	path := make(map[string]struct{}, len(ancestors)+1)
	for k := range ancestors {
		path[k] = struct{}{}
	}
	path[id] = struct{}{}

	raw := make(map[string]any, len(spec.Inputs))
	for name, iv := range spec.Inputs {
		if iv.Ref == nil {
			raw[name] = iv.Literal
		}
	}

	var rawMu sync.Mutex
	grp, grpCtx := errgroup.WithContext(ctx)
	for name, iv := range spec.Inputs {
		name := name
		if iv.Ref == nil {
			continue
		}
		ref := iv.Ref
		grp.Go(func() error {
			res, err := r.resolve(grpCtx, ref.Source, path)
			if err != nil {
				return err
			}
			rawMu.Lock()
			raw[name] = res.Slot(ref.Slot)
			rawMu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	args, err := inputs.Prepare(rn.Manifest, raw)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", id, err)
	}

	start := time.Now()
	result, err := r.engine.dispatch(ctx, id, rn, args, r.sink)
	metrics.NodeDuration.WithLabelValues(spec.Type).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NodeExecutionsTotal.WithLabelValues(spec.Type, "failed").Inc()
		return nil, err
	}
	metrics.NodeExecutionsTotal.WithLabelValues(spec.Type, "ok").Inc()

	logger.Debug("✅ Node resolved.", "type", spec.Type, "slots", len(result))
	return result, nil
}
