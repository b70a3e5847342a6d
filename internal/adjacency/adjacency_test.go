package adjacency_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundleforge/graphcore/internal/adjacency"
)

func TestAddEdgeIsIdempotent(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()

	ok, err := a.AddEdge(n0, n1, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.AddEdge(n0, n1, 1)
	require.NoError(t, err)
	assert.False(t, ok, "second insert of the same triple must be a no-op")
	assert.Equal(t, uint32(1), a.LiveEdgeCount())
}

func TestAddEdgeRejectsTypeZero(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()

	_, err := a.AddEdge(n0, n1, adjacency.AllEdgeTypes)
	assert.Error(t, err)
}

func TestAddEdgeRejectsUnknownEndpoints(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()

	_, err := a.AddEdge(n0, n0+100, 1)
	assert.Error(t, err)
}

func TestMultigraphByType(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()

	ok1, err := a.AddEdge(n0, n1, 1)
	require.NoError(t, err)
	ok2, err := a.AddEdge(n0, n1, 2)
	require.NoError(t, err)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.True(t, a.HasEdge(n0, n1, 1))
	assert.True(t, a.HasEdge(n0, n1, 2))
	assert.ElementsMatch(t, []adjacency.NodeId{n1, n1}, a.GetNodesConnectedFrom(n0))
	assert.Equal(t, []adjacency.NodeId{n1}, a.GetNodesConnectedFrom(n0, 1))
}

func TestBidirectionalConsistency(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()
	_, err := a.AddEdge(n0, n1, 1)
	require.NoError(t, err)

	assert.Contains(t, a.GetNodesConnectedFrom(n0), n1)
	assert.Contains(t, a.GetNodesConnectedTo(n1), n0)
}

func TestRemoveEdgeUnlinksEverywhere(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()
	_, err := a.AddEdge(n0, n1, 1)
	require.NoError(t, err)

	require.NoError(t, a.RemoveEdge(n0, n1, 1))
	assert.False(t, a.HasEdge(n0, n1, 1))
	assert.Empty(t, a.GetNodesConnectedFrom(n0))
	assert.Empty(t, a.GetNodesConnectedTo(n1))
	assert.Equal(t, uint32(0), a.LiveEdgeCount())
}

func TestRemoveEdgeMissingIsError(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()
	assert.Error(t, a.RemoveEdge(n0, n1, 1))
}

func TestInsertionOrderPreserved(t *testing.T) {
	a := adjacency.New()
	root := a.AddNode()
	var targets []adjacency.NodeId
	for i := 0; i < 20; i++ {
		n := a.AddNode()
		targets = append(targets, n)
		_, err := a.AddEdge(root, n, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, targets, a.GetNodesConnectedFrom(root))
}

func TestRemoveAllEdgesOf(t *testing.T) {
	a := adjacency.New()
	n0 := a.AddNode()
	n1 := a.AddNode()
	n2 := a.AddNode()
	_, _ = a.AddEdge(n0, n1, 1)
	_, _ = a.AddEdge(n1, n2, 1)
	_, _ = a.AddEdge(n2, n1, 2)

	a.RemoveAllEdgesOf(n1)

	for _, e := range a.GetAllEdges() {
		assert.NotEqual(t, n1, e.From)
		assert.NotEqual(t, n1, e.To)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	a := adjacency.New()
	nodes := make([]adjacency.NodeId, 30)
	for i := range nodes {
		nodes[i] = a.AddNode()
	}
	for i := 0; i < 200; i++ {
		from := nodes[i%len(nodes)]
		to := nodes[(i*7+3)%len(nodes)]
		typ := adjacency.EdgeType(1 + i%3)
		_, _ = a.AddEdge(from, to, typ)
	}
	// Remove a chunk so tombstones and the free list are exercised too.
	for i := 0; i < 50; i++ {
		from := nodes[i%len(nodes)]
		to := nodes[(i*7+3)%len(nodes)]
		typ := adjacency.EdgeType(1 + i%3)
		_ = a.RemoveEdge(from, to, typ)
	}

	before := a.GetAllEdges()

	blob := a.Serialize()
	restored, err := adjacency.Deserialize(blob)
	require.NoError(t, err)

	assert.Equal(t, a.NodeCount(), restored.NodeCount())
	assert.Equal(t, a.LiveEdgeCount(), restored.LiveEdgeCount())
	assert.ElementsMatch(t, before, restored.GetAllEdges())

	for _, n := range nodes {
		assert.Equal(t, a.GetNodesConnectedFrom(n), restored.GetNodesConnectedFrom(n))
		assert.Equal(t, a.GetNodesConnectedTo(n), restored.GetNodesConnectedTo(n))
	}
}

func TestDeserializeRejectsUnknownVersion(t *testing.T) {
	a := adjacency.New()
	blob := a.Serialize()
	blob.Version = 999
	_, err := adjacency.Deserialize(blob)
	assert.Error(t, err)
}

func TestLargeGraphHashLookup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large adjacency stress test in -short mode")
	}
	const numNodes = 2000
	const numEdges = 20000

	a := adjacency.New()
	nodes := make([]adjacency.NodeId, numNodes)
	for i := range nodes {
		nodes[i] = a.AddNode()
	}

	rng := rand.New(rand.NewSource(1))
	type triple struct {
		from, to adjacency.NodeId
		typ      adjacency.EdgeType
	}
	inserted := make(map[triple]bool)
	for len(inserted) < numEdges {
		tr := triple{
			from: nodes[rng.Intn(numNodes)],
			to:   nodes[rng.Intn(numNodes)],
			typ:  adjacency.EdgeType(1 + rng.Intn(4)),
		}
		if inserted[tr] {
			continue
		}
		ok, err := a.AddEdge(tr.from, tr.to, tr.typ)
		require.NoError(t, err)
		require.True(t, ok)
		inserted[tr] = true
	}

	for tr := range inserted {
		assert.True(t, a.HasEdge(tr.from, tr.to, tr.typ))
	}

	assert.Equal(t, len(inserted), len(a.GetAllEdges()))

	// A disjoint sample of triples that were never inserted must report false.
	misses := 0
	for misses < 100 {
		tr := triple{
			from: nodes[rng.Intn(numNodes)],
			to:   nodes[rng.Intn(numNodes)],
			typ:  adjacency.EdgeType(1 + rng.Intn(4)),
		}
		if inserted[tr] {
			continue
		}
		assert.False(t, a.HasEdge(tr.from, tr.to, tr.typ))
		misses++
	}
}
