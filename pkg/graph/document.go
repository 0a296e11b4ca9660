package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/timeline"
)

// DocumentVersion identifies the current investigation document layout.
const DocumentVersion = 1

// Document is the persisted form of an investigation: the graph's nodes,
// edges, and groups plus the manually created timeline events. Timeline
// entries sourced from Event entities are not stored; they are regenerated
// from the nodes after loading.
type Document struct {
	Version        int               `json:"version"`
	Nodes          []NodeRecord      `json:"nodes"`
	Edges          []EdgeRecord      `json:"edges"`
	TimelineEvents []timeline.Record `json:"timeline_events,omitempty"`
	Groups         []*Group          `json:"groups,omitempty"`
}

// NodeRecord is one persisted node.
type NodeRecord struct {
	ID         string        `json:"id"`
	EntityType string        `json:"entity_type"`
	Properties entity.Record `json:"properties"`
	Pos        Position      `json:"pos"`
}

// EdgeRecord is one persisted edge.
type EdgeRecord struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Relationship string         `json:"relationship,omitempty"`
	Style        EdgeStyle      `json:"style"`
	Label        string         `json:"label,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// Export snapshots the graph and the given manual timeline records into a
// document.
func Export(g *Graph, events []timeline.Record) *Document {
	doc := &Document{Version: DocumentVersion, TimelineEvents: events}

	for _, node := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{
			ID:         node.ID(),
			EntityType: node.Entity.Type(),
			Properties: node.Entity.ToRecord(),
			Pos:        node.Pos,
		})
	}
	for _, edge := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			Relationship: edge.Relationship,
			Style:        edge.Style,
			Label:        edge.Label,
			Properties:   edge.Properties,
		})
	}
	doc.Groups = g.Groups()
	return doc
}

// Restore replaces the graph's contents with the document's. Entities are
// rebuilt through the registry so validation and label derivation run again.
// Edges referencing nodes that failed to restore are skipped with a warning
// rather than aborting the load.
func Restore(ctx context.Context, reg *entity.Registry, g *Graph, doc *Document) error {
	g.Clear()

	for _, rec := range doc.Nodes {
		e, err := reg.FromRecord(ctx, rec.Properties)
		if err != nil {
			return fmt.Errorf("restoring node %s: %w", rec.ID, err)
		}
		g.AddNode(e, rec.Pos)
	}

	for _, rec := range doc.Edges {
		edge, err := g.AddEdge(rec.Source, rec.Target, rec.Relationship)
		if err != nil {
			g.logger.Warn("skipping edge with missing endpoint",
				"edge_id", rec.ID, "source", rec.Source, "target", rec.Target)
			continue
		}
		edge.Style = rec.Style
		if edge.Style == (EdgeStyle{}) {
			edge.Style = DefaultEdgeStyle()
		}
		edge.Label = rec.Label
		edge.Properties = rec.Properties
	}

	for _, group := range doc.Groups {
		restored := g.AddGroup(group.Name, group.Color, group.NodeIDs)
		restored.Collapsed = group.Collapsed
		if group.ID != "" {
			g.mu.Lock()
			delete(g.groups, restored.ID)
			restored.ID = group.ID
			g.groups[restored.ID] = restored
			g.mu.Unlock()
		}
	}
	return nil
}

// EncodeDocument writes the document as indented JSON.
func EncodeDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DecodeDocument reads a document from JSON.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding investigation document: %w", err)
	}
	return &doc, nil
}
