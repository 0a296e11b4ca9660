// Package transform defines the pluggable enrichment pipeline: a Transform
// takes one entity and produces related entities, and the Runner validates,
// executes, and folds the results back into the graph through the merge
// resolver.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/graph"
	"github.com/blackvectorops/pano/pkg/telemetry"
)

// ErrUnknownTransform is returned when a transform name is not registered.
var ErrUnknownTransform = errors.New("unknown transform")

// Transform is one enrichment step. Implementations must treat the input
// entity as read-only; the runner hands them a copy but results produced by
// mutating it are discarded.
type Transform interface {
	// Name is the unique, human-readable identifier.
	Name() string
	// Description explains what the transform does.
	Description() string
	// InputTypes lists accepted entity type names. Empty means any type.
	InputTypes() []string
	// OutputTypes lists the entity type names the transform may produce.
	// Empty means unconstrained.
	OutputTypes() []string
	// Run produces zero or more new entities derived from the input. An
	// empty result is a successful run that found nothing.
	Run(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error)
}

// ValidationError reports a transform rejected before or after execution:
// either the input entity's type is not accepted, or an output entity's
// type is outside the declared set.
type ValidationError struct {
	Transform  string
	EntityType string
	Allowed    []string
	Output     bool
}

func (e *ValidationError) Error() string {
	stage := "input"
	if e.Output {
		stage = "output"
	}
	return fmt.Sprintf("transform %s: %s type %s not in %v",
		e.Transform, stage, e.EntityType, e.Allowed)
}

// ExecutionError wraps a failure inside a transform's Run.
type ExecutionError struct {
	Transform string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transform %s failed: %v", e.Transform, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Accepts reports whether a transform accepts the given entity type.
func Accepts(t Transform, entityType string) bool {
	inputs := t.InputTypes()
	if len(inputs) == 0 {
		return true
	}
	for _, in := range inputs {
		if strings.EqualFold(in, entityType) {
			return true
		}
	}
	return false
}

// Report summarizes one transform run: the nodes the results landed on and
// the edges created from the source node.
type Report struct {
	Transform string
	SourceID  string
	Outcomes  []graph.Outcome
	Edges     []*graph.Edge
}

// MergedCount returns how many results merged into existing nodes.
func (r *Report) MergedCount() int {
	n := 0
	for _, out := range r.Outcomes {
		if out.Merged {
			n++
		}
	}
	return n
}

// Runner executes transforms against graph nodes.
type Runner struct {
	registry *Registry
	graph    *graph.Graph
	resolver *graph.Resolver
	logger   *slog.Logger
	status   Status
	pool     *Pool
	mu       sync.Mutex
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithStatus attaches a status sink that receives progress updates.
func WithStatus(s Status) RunnerOption {
	return func(r *Runner) { r.status = s }
}

// WithPool overrides the concurrency pool used by ExecuteBatch.
func WithPool(p *Pool) RunnerOption {
	return func(r *Runner) { r.pool = p }
}

// NewRunner wires a runner over a graph and its resolver.
func NewRunner(reg *Registry, g *graph.Graph, resolver *graph.Resolver, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		registry: reg,
		graph:    g,
		resolver: resolver,
		logger:   logger,
		status:   NopStatus(),
		pool:     NewPool(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// failExecution logs the failure with the transform name and entity id on
// the context, so error-persisting log handlers see both, then wraps the
// cause in an ExecutionError.
func (r *Runner) failExecution(ctx context.Context, transformName, nodeID, msg string, err error) error {
	ctx = telemetry.WithNodeID(telemetry.WithTransform(ctx, transformName), nodeID)
	r.logger.ErrorContext(ctx, msg,
		"transform", transformName,
		"node_id", nodeID,
		"error", err,
	)
	return &ExecutionError{Transform: transformName, Err: err}
}

// Execute runs a named transform against one node. The pipeline is strict:
// input validation happens before the transform runs, output validation
// before anything touches the graph, so a failing run leaves the graph
// unchanged.
func (r *Runner) Execute(ctx context.Context, transformName, nodeID string) (*Report, error) {
	t, ok := r.registry.Get(transformName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, transformName)
	}
	node, ok := r.graph.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", graph.ErrNodeNotFound, nodeID)
	}

	source := node.Entity
	if !Accepts(t, source.Type()) {
		return nil, &ValidationError{
			Transform:  t.Name(),
			EntityType: source.Type(),
			Allowed:    t.InputTypes(),
		}
	}

	r.status.StartLoading(fmt.Sprintf("Running %s on %s", t.Name(), source.Label()))
	defer r.status.StopLoading()

	produced, err := t.Run(ctx, source.Clone())
	if err != nil {
		return nil, r.failExecution(ctx, t.Name(), nodeID, "transform run failed", err)
	}

	outputs := t.OutputTypes()
	for _, e := range produced {
		if len(outputs) == 0 {
			continue
		}
		allowed := false
		for _, out := range outputs {
			if strings.EqualFold(out, e.Type()) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &ValidationError{
				Transform:  t.Name(),
				EntityType: e.Type(),
				Allowed:    outputs,
				Output:     true,
			}
		}
	}

	report := &Report{Transform: t.Name(), SourceID: nodeID}
	if len(produced) == 0 {
		r.logger.Info("transform produced no results",
			"transform", t.Name(), "source", source.Label())
		return report, nil
	}

	r.status.SetText(fmt.Sprintf("Merging %d results", len(produced)))

	// transforms run concurrently but graph integration is single-writer
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes, err := r.resolver.Resolve(ctx, produced)
	report.Outcomes = outcomes
	if err != nil {
		return report, r.failExecution(ctx, t.Name(), nodeID, "transform result merge failed", err)
	}

	seen := make(map[string]bool, len(outcomes))
	for _, out := range outcomes {
		if out.Node.ID() == nodeID {
			continue
		}
		edge, err := r.graph.AddEdge(nodeID, out.Node.ID(), t.Name())
		if err != nil {
			return report, r.failExecution(ctx, t.Name(), nodeID, "transform edge creation failed", err)
		}
		if seen[edge.ID] {
			continue
		}
		seen[edge.ID] = true
		report.Edges = append(report.Edges, edge)
	}

	r.logger.Info("transform complete",
		"transform", t.Name(),
		"source", source.Label(),
		"produced", len(produced),
		"merged", report.MergedCount(),
	)
	return report, nil
}

// BatchResult pairs one node's report with its error.
type BatchResult struct {
	NodeID string
	Report *Report
	Err    error
}

// ExecuteBatch runs one transform over several nodes concurrently. Each
// node's run is independent; failures surface per node instead of aborting
// the batch.
func (r *Runner) ExecuteBatch(ctx context.Context, transformName string, nodeIDs []string) []BatchResult {
	results := make([]BatchResult, len(nodeIDs))
	fns := make([]func() error, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		i, nodeID := i, nodeID
		fns[i] = func() error {
			report, err := r.Execute(ctx, transformName, nodeID)
			results[i] = BatchResult{NodeID: nodeID, Report: report, Err: err}
			return err
		}
	}
	errs := r.pool.Run(ctx, fns...)
	for i := range results {
		if results[i].NodeID == "" {
			// the pool never ran this entry (cancellation or panic)
			results[i] = BatchResult{NodeID: nodeIDs[i], Err: errs[i]}
		}
	}
	return results
}
