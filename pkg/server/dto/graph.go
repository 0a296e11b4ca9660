package dto

import (
	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/graph"
)

// CreateNodeRequest creates a node of the given entity type.
type CreateNodeRequest struct {
	EntityType string         `json:"entity_type" binding:"required"`
	Properties map[string]any `json:"properties"`
	Pos        graph.Position `json:"pos"`
}

// UpdateNodeRequest applies property updates to an existing node.
type UpdateNodeRequest struct {
	Properties map[string]any `json:"properties" binding:"required"`
}

// CreateEdgeRequest connects two existing nodes.
type CreateEdgeRequest struct {
	Source       string `json:"source" binding:"required"`
	Target       string `json:"target" binding:"required"`
	Relationship string `json:"relationship"`
}

// NodeResponse is the wire form of a graph node.
type NodeResponse struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	Label      string         `json:"label"`
	Color      string         `json:"color,omitempty"`
	Properties map[string]any `json:"properties"`
	Pos        graph.Position `json:"pos"`
}

// EdgeResponse is the wire form of a graph edge.
type EdgeResponse struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship,omitempty"`
	Label        string `json:"label,omitempty"`
}

// GraphResponse is the full current graph.
type GraphResponse struct {
	Nodes []NodeResponse `json:"nodes"`
	Edges []EdgeResponse `json:"edges"`
}

// EntityTypeResponse describes one registered entity kind.
type EntityTypeResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Properties  []string `json:"properties"`
}

// NewNodeResponse converts a graph node to its wire form.
func NewNodeResponse(node *graph.Node) NodeResponse {
	rec := node.Entity.ToRecord()
	return NodeResponse{
		ID:         rec.ID,
		EntityType: rec.Type,
		Label:      rec.Label,
		Color:      rec.Color,
		Properties: rec.Properties,
		Pos:        node.Pos,
	}
}

// NewEdgeResponse converts a graph edge to its wire form.
func NewEdgeResponse(edge *graph.Edge) EdgeResponse {
	return EdgeResponse{
		ID:           edge.ID,
		Source:       edge.Source,
		Target:       edge.Target,
		Relationship: edge.Relationship,
		Label:        edge.Label,
	}
}

// NewEntityTypeResponse converts a registered kind to its wire form.
func NewEntityTypeResponse(k *entity.Kind) EntityTypeResponse {
	props := make([]string, 0, len(k.Properties))
	for _, p := range k.Properties {
		props = append(props, p.Name)
	}
	return EntityTypeResponse{
		Name:        k.Name,
		Description: k.Description,
		Color:       k.Color,
		Properties:  props,
	}
}
