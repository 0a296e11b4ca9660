package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackvectorops/pano/pkg/entity"
)

func newPerson(t *testing.T, name string) *entity.Entity {
	t.Helper()
	e, err := entity.NewRegistry().New(context.Background(), entity.KindPerson, map[string]any{
		"full_name": name,
	})
	require.NoError(t, err)
	return e
}

func TestAddNodeIdempotent(t *testing.T) {
	g := New(nil)
	e := newPerson(t, "Jane Doe")

	first := g.AddNode(e, Position{X: 10, Y: 20})
	second := g.AddNode(e, Position{X: 99, Y: 99})

	assert.Same(t, first, second)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, Position{X: 10, Y: 20}, first.Pos)
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	a := g.AddNode(newPerson(t, "Jane Doe"), Position{})
	b := g.AddNode(newPerson(t, "John Smith"), Position{})

	edge, err := g.AddEdge(a.ID(), b.ID(), "knows")
	require.NoError(t, err)
	assert.Equal(t, a.ID()+"->"+b.ID(), edge.ID)
	assert.Equal(t, "knows", edge.Relationship)
	assert.Equal(t, DefaultEdgeStyle(), edge.Style)

	// same ordered pair returns the existing edge
	dup, err := g.AddEdge(a.ID(), b.ID(), "works with")
	require.NoError(t, err)
	assert.Same(t, edge, dup)
	assert.Equal(t, "knows", dup.Relationship)
	assert.Equal(t, 1, g.EdgeCount())

	// reversed direction is a distinct edge
	rev, err := g.AddEdge(b.ID(), a.ID(), "knows")
	require.NoError(t, err)
	assert.NotEqual(t, edge.ID, rev.ID)
	assert.Equal(t, 2, g.EdgeCount())
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	g := New(nil)
	a := g.AddNode(newPerson(t, "Jane Doe"), Position{})

	_, err := g.AddEdge(a.ID(), "nope", "knows")
	assert.ErrorIs(t, err, ErrEdgeEndpointMissing)

	_, err = g.AddEdge("nope", a.ID(), "knows")
	assert.ErrorIs(t, err, ErrEdgeEndpointMissing)
}

func TestRemoveNodeCascades(t *testing.T) {
	g := New(nil)
	a := g.AddNode(newPerson(t, "A"), Position{})
	b := g.AddNode(newPerson(t, "B"), Position{})
	c := g.AddNode(newPerson(t, "C"), Position{})

	_, err := g.AddEdge(a.ID(), b.ID(), "knows")
	require.NoError(t, err)
	_, err = g.AddEdge(b.ID(), c.ID(), "knows")
	require.NoError(t, err)
	_, err = g.AddEdge(a.ID(), c.ID(), "knows")
	require.NoError(t, err)

	group := g.AddGroup("suspects", "#ff0000", []string{a.ID(), b.ID()})

	require.NoError(t, g.RemoveNode(b.ID()))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	_, ok := g.Edge(EdgeID(a.ID(), c.ID()))
	assert.True(t, ok)
	assert.Equal(t, []string{a.ID()}, group.NodeIDs)

	assert.ErrorIs(t, g.RemoveNode(b.ID()), ErrNodeNotFound)
}

func TestClear(t *testing.T) {
	g := New(nil)
	a := g.AddNode(newPerson(t, "A"), Position{})
	b := g.AddNode(newPerson(t, "B"), Position{})
	_, err := g.AddEdge(a.ID(), b.ID(), "knows")
	require.NoError(t, err)
	g.AddGroup("g", "#fff", []string{a.ID()})

	g.Clear()

	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
	assert.Empty(t, g.Groups())
}

func TestNodesInsertionOrder(t *testing.T) {
	g := New(nil)
	var want []string
	for _, name := range []string{"A", "B", "C", "D"} {
		want = append(want, g.AddNode(newPerson(t, name), Position{}).ID())
	}
	var got []string
	for _, n := range g.Nodes() {
		got = append(got, n.ID())
	}
	assert.Equal(t, want, got)
}

func TestGroupSkipsUnknownMembers(t *testing.T) {
	g := New(nil)
	a := g.AddNode(newPerson(t, "A"), Position{})

	group := g.AddGroup("g", "#fff", []string{a.ID(), "missing"})
	assert.Equal(t, []string{a.ID()}, group.NodeIDs)
}
