package pano

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackvectorops/pano/pkg/config"
	"github.com/blackvectorops/pano/pkg/graph"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Merge: config.MergeConfig{
			EventThreshold:   0.5,
			DefaultThreshold: 0.7,
			Boost:            1.5,
		},
		Transforms: config.TransformConfig{Concurrency: 2},
		Geo:        config.GeoConfig{CacheSize: 16},
		// Empty snapshot dir keeps the store in memory.
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := NewClient(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })
	return client
}

func TestClientCreateAndConnect(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	person, err := client.CreateNode(ctx, "Person", map[string]any{"full_name": "Jane Doe"}, graph.Position{X: 1, Y: 2})
	require.NoError(t, err)
	org, err := client.CreateNode(ctx, "Company", map[string]any{"name": "Acme Corp"}, graph.Position{})
	require.NoError(t, err)

	edge, err := client.ConnectNodes(person.ID(), org.ID(), "works at")
	require.NoError(t, err)
	assert.Equal(t, "works at", edge.Relationship)
	assert.Equal(t, 2, client.Graph().NodeCount())
	assert.Equal(t, 1, client.Graph().EdgeCount())
}

func TestClientCreateNodeUnknownKind(t *testing.T) {
	client := newTestClient(t)

	_, err := client.CreateNode(context.Background(), "Spaceship", map[string]any{}, graph.Position{})
	assert.Error(t, err)
}

func TestClientUpdateNode(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	node, err := client.CreateNode(ctx, "Person", map[string]any{"full_name": "Jane Doe"}, graph.Position{})
	require.NoError(t, err)

	updated, err := client.UpdateNode(ctx, node.ID(), map[string]any{"occupation": "Analyst"})
	require.NoError(t, err)
	assert.Equal(t, "Analyst", updated.Entity.GetString("occupation"))

	_, err = client.UpdateNode(ctx, "missing", map[string]any{"occupation": "x"})
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestClientEnrichCreatesNodes(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	raw := `{"operations":[{"action":"create","entities":[{"type":"Person","properties":{"full_name":"John Smith"}},{"type":"Company","properties":{"name":"Acme Corp"}}],"connections":[{"from":0,"to":1,"relationship":"works at"}]}]}`
	result, err := client.Enrich(ctx, raw)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 2)
	assert.Len(t, result.Edges, 1)
}

func TestClientSaveAndLoadInvestigation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	a, err := client.CreateNode(ctx, "Person", map[string]any{"full_name": "Jane Doe"}, graph.Position{X: 5})
	require.NoError(t, err)
	b, err := client.CreateNode(ctx, "Website", map[string]any{"url": "https://example.com"}, graph.Position{})
	require.NoError(t, err)
	_, err = client.ConnectNodes(a.ID(), b.ID(), "operates")
	require.NoError(t, err)

	require.NoError(t, client.SaveInvestigation(ctx, "case-1"))

	client.ClearInvestigation()
	assert.Equal(t, 0, client.Graph().NodeCount())

	require.NoError(t, client.LoadInvestigation(ctx, "case-1"))
	assert.Equal(t, 2, client.Graph().NodeCount())
	assert.Equal(t, 1, client.Graph().EdgeCount())

	infos, err := client.ListInvestigations(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "case-1", infos[0].Name)

	require.NoError(t, client.DeleteInvestigation(ctx, "case-1"))
	infos, err = client.ListInvestigations(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestClientTimelineFollowsGraph(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	node, err := client.CreateNode(ctx, "Event", map[string]any{
		"name":            "Warehouse fire",
		"start_date":      "2024-03-01T22:15",
		"add_to_timeline": true,
	}, graph.Position{})
	require.NoError(t, err)

	events := client.Timeline().Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Warehouse fire", events[0].Name)

	require.NoError(t, client.RemoveNode(node.ID()))
	assert.Empty(t, client.Timeline().Events())
}

func TestClientTransformsRegistered(t *testing.T) {
	client := newTestClient(t)

	names := make([]string, 0)
	for _, tr := range client.Transforms().All() {
		names = append(names, tr.Name())
	}
	assert.Contains(t, names, "Username Search")
	assert.Contains(t, names, "Email Lookup")
	assert.Contains(t, names, "Text Search")
	assert.Contains(t, names, "Reverse Image Search")
}
