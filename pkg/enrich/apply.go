package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/graph"
)

// Applier executes parsed payloads against a graph. Individual entity or
// connection failures are logged and skipped; only a cancelled context
// aborts the whole payload.
type Applier struct {
	entities *entity.Registry
	graph    *graph.Graph
	resolver *graph.Resolver
	logger   *slog.Logger
}

// NewApplier wires an applier over the graph and its merge resolver.
func NewApplier(entities *entity.Registry, g *graph.Graph, resolver *graph.Resolver, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{entities: entities, graph: g, resolver: resolver, logger: logger}
}

// Result summarizes the graph changes one payload produced.
type Result struct {
	Nodes   []*graph.Node
	Edges   []*graph.Edge
	Updated []*graph.Node
	Skipped int
}

// Apply runs every operation of the payload in order.
func (a *Applier) Apply(ctx context.Context, payload *Payload) (*Result, error) {
	result := &Result{}
	for _, op := range payload.Operations {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch strings.ToLower(op.Action) {
		case "create":
			a.applyCreate(ctx, op, result)
		case "update":
			a.applyUpdate(ctx, op, result)
		default:
			a.logger.Warn("skipping unknown enrichment action", "action", op.Action)
			result.Skipped++
		}
	}
	return result, nil
}

func (a *Applier) applyCreate(ctx context.Context, op Operation, result *Result) {
	// nodes of this operation, index-aligned with op.Entities, nil where an
	// entity failed to build
	nodes := make([]*graph.Node, len(op.Entities))

	for i, spec := range op.Entities {
		e, err := a.entities.New(ctx, spec.Type, cleanProperties(spec.Properties))
		if err != nil {
			a.logger.Warn("skipping entity", "type", spec.Type, "error", err)
			result.Skipped++
			continue
		}
		outcome, err := a.resolver.ResolveOne(ctx, e)
		if err != nil {
			a.logger.Warn("skipping entity", "type", spec.Type, "label", e.Label(), "error", err)
			result.Skipped++
			continue
		}
		nodes[i] = outcome.Node
		result.Nodes = append(result.Nodes, outcome.Node)
	}

	seen := make(map[string]bool)
	for _, conn := range op.Connections {
		source := a.resolveEndpoint(conn.From, nodes)
		target := a.resolveEndpoint(conn.To, nodes)
		if source == nil || target == nil {
			a.logger.Warn("skipping connection with unresolved endpoint",
				"from", fmt.Sprint(conn.From), "to", fmt.Sprint(conn.To))
			result.Skipped++
			continue
		}
		if source.ID() == target.ID() {
			continue
		}
		id := graph.EdgeID(source.ID(), target.ID())
		if seen[id] {
			continue
		}
		seen[id] = true

		edge, err := a.graph.AddEdge(source.ID(), target.ID(), conn.Relationship)
		if err != nil {
			a.logger.Warn("skipping connection", "edge_id", id, "error", err)
			result.Skipped++
			continue
		}
		result.Edges = append(result.Edges, edge)
	}
}

func (a *Applier) applyUpdate(ctx context.Context, op Operation, result *Result) {
	for _, update := range op.Updates {
		node, ok := a.resolver.Find(update.Type, update.CurrentLabel)
		if !ok {
			a.logger.Warn("could not find entity to update",
				"type", update.Type, "label", update.CurrentLabel)
			result.Skipped++
			continue
		}
		if err := node.Entity.Apply(ctx, cleanProperties(update.NewProperties)); err != nil {
			a.logger.Warn("skipping update", "node_id", node.ID(), "error", err)
			result.Skipped++
			continue
		}
		if _, err := a.graph.UpdateNode(node.ID(), node.Entity); err != nil {
			result.Skipped++
			continue
		}
		result.Updated = append(result.Updated, node)
	}
}

// resolveEndpoint accepts an index into the operation's entity list or an
// entity label. JSON numbers decode as float64.
func (a *Applier) resolveEndpoint(ref any, nodes []*graph.Node) *graph.Node {
	switch v := ref.(type) {
	case float64:
		return nodeAt(nodes, int(v))
	case string:
		if idx, err := strconv.Atoi(v); err == nil {
			return nodeAt(nodes, idx)
		}
		for _, node := range nodes {
			if node != nil && strings.EqualFold(node.Entity.Label(), v) {
				return node
			}
		}
	}
	return nil
}

func nodeAt(nodes []*graph.Node, idx int) *graph.Node {
	if idx < 0 || idx >= len(nodes) {
		return nil
	}
	return nodes[idx]
}

// cleanProperties drops values that carry no information, including the
// literal "Unknown" placeholder.
func cleanProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if entity.IsEmptyValue(v) {
			continue
		}
		if s, ok := v.(string); ok && strings.EqualFold(s, "unknown") {
			continue
		}
		out[k] = v
	}
	return out
}
