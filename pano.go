package pano

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackvectorops/pano/pkg/config"
	"github.com/blackvectorops/pano/pkg/enrich"
	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/geo"
	"github.com/blackvectorops/pano/pkg/graph"
	"github.com/blackvectorops/pano/pkg/snapshot"
	"github.com/blackvectorops/pano/pkg/timeline"
	"github.com/blackvectorops/pano/pkg/transform"
	"github.com/blackvectorops/pano/pkg/transform/osint"
)

// Client is the main entry point. It owns the entity registry, the
// investigation graph, the transform pipeline, the timeline, and the
// snapshot store, and exposes the operations the server and CLI build on.
type Client struct {
	config     *config.Config
	logger     *slog.Logger
	entities   *entity.Registry
	graph      *graph.Graph
	resolver   *graph.Resolver
	transforms *transform.Registry
	runner     *transform.Runner
	timeline   *timeline.Manager
	applier    *enrich.Applier
	snapshots  *snapshot.Store
	geocoder   entity.Geocoder
}

// NewClient wires a client from configuration. A nil config uses defaults;
// a nil logger uses slog.Default.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logger == nil {
		logger = slog.Default()
	}

	geocoder, err := buildGeocoder(cfg, logger)
	if err != nil {
		return nil, err
	}

	staticMap := geo.NewStaticMap(cfg.Geo.StaticMapAPIKey)
	entities := entity.NewRegistry(
		entity.WithGeocoder(geocoder),
		entity.WithStaticMap(staticMap.URL),
	)

	g := graph.New(logger)
	resolver := graph.NewResolver(g, logger, graph.MergeConfig{
		EventThreshold:   cfg.Merge.EventThreshold,
		DefaultThreshold: cfg.Merge.DefaultThreshold,
		Boost:            cfg.Merge.Boost,
	})

	transforms := transform.NewRegistry()
	if err := transforms.Register(osint.All(&osint.Sources{Entities: entities})...); err != nil {
		return nil, fmt.Errorf("registering transforms: %w", err)
	}

	runner := transform.NewRunner(transforms, g, resolver, logger,
		transform.WithPool(transform.NewPool(cfg.Transforms.Concurrency)))

	snapshots, err := snapshot.NewStore(cfg.Snapshot.Dir, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     cfg,
		logger:     logger,
		entities:   entities,
		graph:      g,
		resolver:   resolver,
		transforms: transforms,
		runner:     runner,
		timeline:   timeline.NewManager(logger),
		applier:    enrich.NewApplier(entities, g, resolver, logger),
		snapshots:  snapshots,
		geocoder:   geocoder,
	}, nil
}

func buildGeocoder(cfg *config.Config, logger *slog.Logger) (entity.Geocoder, error) {
	nominatim := geo.NewNominatim(
		geo.WithBaseURL(cfg.Geo.BaseURL),
		geo.WithUserAgent(cfg.Geo.UserAgent),
	)
	breaker := geo.NewBreaker(nominatim, geo.DefaultBreakerConfig(), logger)
	return geo.NewCached(breaker, cfg.Geo.CacheSize)
}

// Entities returns the entity kind registry.
func (c *Client) Entities() *entity.Registry { return c.entities }

// Graph returns the investigation graph.
func (c *Client) Graph() *graph.Graph { return c.graph }

// Transforms returns the transform registry.
func (c *Client) Transforms() *transform.Registry { return c.transforms }

// Timeline returns the timeline manager.
func (c *Client) Timeline() *timeline.Manager { return c.timeline }

// Geocoder returns the configured geocoder chain.
func (c *Client) Geocoder() entity.Geocoder { return c.geocoder }

// CreateNode validates props against the named entity kind and places the
// resulting entity on the graph. The new node is not merged with existing
// ones; duplicates created by hand are intentional.
func (c *Client) CreateNode(ctx context.Context, kind string, props map[string]any, pos graph.Position) (*graph.Node, error) {
	e, err := c.entities.New(ctx, kind, props)
	if err != nil {
		return nil, err
	}
	node := c.graph.AddNode(e, pos)
	c.refreshTimeline()
	return node, nil
}

// UpdateNode applies property updates to an existing node's entity.
func (c *Client) UpdateNode(ctx context.Context, nodeID string, props map[string]any) (*graph.Node, error) {
	node, ok := c.graph.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("updating node %s: %w", nodeID, graph.ErrNodeNotFound)
	}
	if err := node.Entity.Apply(ctx, props); err != nil {
		return nil, fmt.Errorf("updating node %s: %w", nodeID, err)
	}
	updated, err := c.graph.UpdateNode(nodeID, node.Entity)
	if err != nil {
		return nil, err
	}
	c.refreshTimeline()
	return updated, nil
}

// RemoveNode deletes a node and its incident edges.
func (c *Client) RemoveNode(nodeID string) error {
	if err := c.graph.RemoveNode(nodeID); err != nil {
		return err
	}
	c.refreshTimeline()
	return nil
}

// ConnectNodes adds a relationship edge between two existing nodes.
func (c *Client) ConnectNodes(sourceID, targetID, relationship string) (*graph.Edge, error) {
	return c.graph.AddEdge(sourceID, targetID, relationship)
}

// RunTransform executes the named transform against a node and integrates
// its results into the graph.
func (c *Client) RunTransform(ctx context.Context, name, nodeID string) (*transform.Report, error) {
	report, err := c.runner.Execute(ctx, name, nodeID)
	if err != nil {
		return nil, err
	}
	c.refreshTimeline()
	return report, nil
}

// RunTransformBatch executes the named transform against several nodes
// concurrently.
func (c *Client) RunTransformBatch(ctx context.Context, name string, nodeIDs []string) []transform.BatchResult {
	results := c.runner.ExecuteBatch(ctx, name, nodeIDs)
	c.refreshTimeline()
	return results
}

// Enrich parses a free-form enrichment payload and applies its operations
// to the graph.
func (c *Client) Enrich(ctx context.Context, raw string) (*enrich.Result, error) {
	payload, err := enrich.Parse(raw)
	if err != nil {
		return nil, err
	}
	result, err := c.applier.Apply(ctx, payload)
	if err != nil {
		return nil, err
	}
	c.refreshTimeline()
	return result, nil
}

// SaveInvestigation snapshots the current graph and manual timeline events
// under name.
func (c *Client) SaveInvestigation(ctx context.Context, name string) error {
	doc := graph.Export(c.graph, c.timeline.Export())
	return c.snapshots.Save(ctx, name, doc)
}

// LoadInvestigation replaces the current graph and timeline with the named
// snapshot.
func (c *Client) LoadInvestigation(ctx context.Context, name string) error {
	doc, err := c.snapshots.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := graph.Restore(ctx, c.entities, c.graph, doc); err != nil {
		return err
	}
	c.timeline.Clear()
	c.timeline.Import(doc.TimelineEvents)
	c.refreshTimeline()
	return nil
}

// ListInvestigations returns metadata for the stored snapshots.
func (c *Client) ListInvestigations(ctx context.Context) ([]snapshot.Info, error) {
	return c.snapshots.List(ctx)
}

// DeleteInvestigation removes the named snapshot.
func (c *Client) DeleteInvestigation(ctx context.Context, name string) error {
	return c.snapshots.Delete(ctx, name)
}

// CleanOldInvestigations removes snapshots last saved before maxAge ago.
func (c *Client) CleanOldInvestigations(ctx context.Context, maxAge time.Duration) (int, error) {
	return c.snapshots.CleanOld(ctx, maxAge)
}

// ClearInvestigation empties the graph and the timeline.
func (c *Client) ClearInvestigation() {
	c.graph.Clear()
	c.timeline.Clear()
}

// Close releases the snapshot store.
func (c *Client) Close(ctx context.Context) error {
	return c.snapshots.Close()
}

// refreshTimeline reprojects event entities onto the timeline after any
// graph mutation.
func (c *Client) refreshTimeline() {
	nodes := c.graph.Nodes()
	entities := make([]*entity.Entity, 0, len(nodes))
	for _, node := range nodes {
		entities = append(entities, node.Entity)
	}
	c.timeline.Regenerate(entities)
}
