// Package graph owns the node/edge container the entity and transform
// layers operate over, the merge resolver that reconciles newly produced
// entities against existing nodes, and the investigation document format.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/blackvectorops/pano/pkg/entity"
)

var (
	// ErrNodeNotFound is returned when a node id is not present in the graph.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeEndpointMissing is returned when an edge references a node id
	// that does not exist.
	ErrEdgeEndpointMissing = errors.New("edge endpoint not found")
)

// Position is a node's 2D placement on the canvas. The core never interprets
// it; it round-trips through the investigation document for presentation
// layers.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node wraps an owned entity together with its presentation position.
type Node struct {
	Entity *entity.Entity
	Pos    Position
}

// ID returns the wrapped entity's id.
func (n *Node) ID() string { return n.Entity.ID() }

// Pen styles for edge rendering, matching the persisted enum values.
const (
	PenSolid = 1
	PenDash  = 2
	PenDot   = 3
)

// EdgeStyle is the presentation hint persisted with an edge.
type EdgeStyle struct {
	PenStyle int    `json:"pen_style"`
	Color    string `json:"color"`
	Width    int    `json:"width"`
}

// DefaultEdgeStyle returns the style edges are created with.
func DefaultEdgeStyle() EdgeStyle {
	return EdgeStyle{PenStyle: PenSolid, Color: "#000000", Width: 1}
}

// Edge is a directed, labeled relationship between two nodes.
type Edge struct {
	ID           string
	Source       string
	Target       string
	Relationship string
	Style        EdgeStyle
	Label        string
	Properties   map[string]any
}

// Group is a named cluster of node ids with a color and collapse state.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Color     string   `json:"color"`
	NodeIDs   []string `json:"nodes"`
	Collapsed bool     `json:"collapsed"`
}

// Graph is the node/edge store. It exclusively owns node and edge
// existence; entities are owned by their node wrapper. Mutations are
// expected from the single orchestration goroutine, but the store locks
// internally so read paths (HTTP handlers, exports) stay safe.
type Graph struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	nodes     map[string]*Node
	edges     map[string]*Edge
	groups    map[string]*Group
	nodeOrder []string
	edgeOrder []string
}

// New creates an empty graph.
func New(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		logger: logger,
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		groups: make(map[string]*Group),
	}
}

// EdgeID derives the deterministic edge id for an ordered node pair. At most
// one directed edge exists per pair.
func EdgeID(sourceID, targetID string) string {
	return sourceID + "->" + targetID
}

// AddNode inserts an entity as a new node. Re-adding an existing id is
// idempotent: the existing node is returned with a warning.
func (g *Graph) AddNode(e *entity.Entity, pos Position) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.nodes[e.ID()]; ok {
		g.logger.Warn("node already exists", "node_id", e.ID())
		return existing
	}
	node := &Node{Entity: e, Pos: pos}
	g.nodes[e.ID()] = node
	g.nodeOrder = append(g.nodeOrder, e.ID())
	return node
}

// AddEdge creates a directed edge between two existing nodes. Re-adding the
// same ordered pair is idempotent and returns the existing edge with a
// warning rather than an error.
func (g *Graph) AddEdge(sourceID, targetID, relationship string) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[sourceID]; !ok {
		return nil, fmt.Errorf("%w: source %q", ErrEdgeEndpointMissing, sourceID)
	}
	if _, ok := g.nodes[targetID]; !ok {
		return nil, fmt.Errorf("%w: target %q", ErrEdgeEndpointMissing, targetID)
	}

	id := EdgeID(sourceID, targetID)
	if existing, ok := g.edges[id]; ok {
		g.logger.Warn("edge already exists", "edge_id", id)
		return existing, nil
	}
	edge := &Edge{
		ID:           id,
		Source:       sourceID,
		Target:       targetID,
		Relationship: relationship,
		Style:        DefaultEdgeStyle(),
	}
	g.edges[id] = edge
	g.edgeOrder = append(g.edgeOrder, id)
	return edge, nil
}

// UpdateNode replaces a node's entity and notifies dependents through the
// returned node. The node keeps its position.
func (g *Graph) UpdateNode(nodeID string, e *entity.Entity) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	node.Entity = e
	return node, nil
}

// RemoveNode deletes a node, cascading to its incident edges and group
// memberships.
func (g *Graph) RemoveNode(nodeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[nodeID]; !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}

	var keep []string
	for _, id := range g.edgeOrder {
		edge := g.edges[id]
		if edge.Source == nodeID || edge.Target == nodeID {
			delete(g.edges, id)
			continue
		}
		keep = append(keep, id)
	}
	g.edgeOrder = keep

	for _, group := range g.groups {
		group.NodeIDs = removeString(group.NodeIDs, nodeID)
	}

	delete(g.nodes, nodeID)
	g.nodeOrder = removeString(g.nodeOrder, nodeID)
	return nil
}

// Clear empties nodes, edges, and groups.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]*Node)
	g.edges = make(map[string]*Edge)
	g.groups = make(map[string]*Group)
	g.nodeOrder = nil
	g.edgeOrder = nil
}

// Node looks up a node by id.
func (g *Graph) Node(nodeID string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, ok := g.nodes[nodeID]
	return node, ok
}

// Edge looks up an edge by id.
func (g *Graph) Edge(edgeID string) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edge, ok := g.edges[edgeID]
	return edge, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// AddGroup creates a named cluster over the given node ids. Unknown ids are
// dropped with a warning.
func (g *Graph) AddGroup(name, color string, nodeIDs []string) *Group {
	g.mu.Lock()
	defer g.mu.Unlock()

	var members []string
	for _, id := range nodeIDs {
		if _, ok := g.nodes[id]; !ok {
			g.logger.Warn("group member not found", "group", name, "node_id", id)
			continue
		}
		members = append(members, id)
	}
	group := &Group{
		ID:      uuid.NewString(),
		Name:    name,
		Color:   color,
		NodeIDs: members,
	}
	g.groups[group.ID] = group
	return group
}

// RemoveGroup deletes a group. Member nodes are untouched.
func (g *Graph) RemoveGroup(groupID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.groups, groupID)
}

// Groups returns all groups.
func (g *Graph) Groups() []*Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Group, 0, len(g.groups))
	for _, group := range g.groups {
		out = append(out, group)
	}
	return out
}

// ClearGroups removes every group without touching nodes or edges.
func (g *Graph) ClearGroups() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups = make(map[string]*Group)
}

func removeString(list []string, value string) []string {
	for i, v := range list {
		if v == value {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
