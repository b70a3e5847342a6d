package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundleforge/graphcore/internal/graph"
)

type edgeKind uint32

const (
	edgeDefault edgeKind = 1
	edgeAsync   edgeKind = 2
)

func TestAddNodeAndEdge(t *testing.T) {
	g := graph.New[string, edgeKind]()
	a := g.AddNode("a")
	b := g.AddNode("b")

	ok, err := g.AddDefaultEdge(a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, g.HasDefaultEdge(a, b))
	assert.Equal(t, []graph.NodeId{b}, g.GetNodeIdsConnectedFrom(a, graph.DefaultEdgeType[edgeKind]()))
}

func TestUpdateNodeRejectsUnknown(t *testing.T) {
	g := graph.New[string, edgeKind]()
	assert.Error(t, g.UpdateNode(graph.NodeId(9999), "x"))
}

func TestOrphanPruningWithoutRoot(t *testing.T) {
	g := graph.New[string, edgeKind]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, err := g.AddDefaultEdge(a, b)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(a, b, graph.DefaultEdgeType[edgeKind](), true))
	assert.False(t, g.HasNode(b), "b has no other inbound edges, so removing its last one must prune it")
}

func TestOrphanPruningRespectsRoot(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	require.NoError(t, g.SetRootNodeId(root))
	a := g.AddNode("a")
	b := g.AddNode("b")

	_, err := g.AddDefaultEdge(root, a)
	require.NoError(t, err)
	_, err = g.AddDefaultEdge(a, b)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(root, a, graph.DefaultEdgeType[edgeKind](), true))
	assert.False(t, g.HasNode(a), "a is unreachable from root once its only inbound edge is gone")
	assert.False(t, g.HasNode(b), "b's only path to root was through a, so it must cascade away too")
}

func TestRemoveEdgeWithoutOrphanPruningKeepsNode(t *testing.T) {
	g := graph.New[string, edgeKind]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, err := g.AddDefaultEdge(a, b)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(a, b, graph.DefaultEdgeType[edgeKind](), false))
	assert.True(t, g.HasNode(b))
}

func TestRemoveNodeDoesNotOrphanPruneInboundSide(t *testing.T) {
	// x -> target, target is being removed. x itself must survive even
	// though removing the inbound edge leaves x with one fewer outbound
	// edge — inbound removal during RemoveNode never orphan-prunes.
	g := graph.New[string, edgeKind]()
	x := g.AddNode("x")
	target := g.AddNode("target")
	require.NoError(t, g.SetRootNodeId(x))
	_, err := g.AddDefaultEdge(x, target)
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(target))
	assert.True(t, g.HasNode(x))
	assert.False(t, g.HasNode(target))
}

func TestRemoveNodeCascadesOutboundOrphans(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	require.NoError(t, g.SetRootNodeId(root))
	mid := g.AddNode("mid")
	leaf := g.AddNode("leaf")
	_, err := g.AddDefaultEdge(root, mid)
	require.NoError(t, err)
	_, err = g.AddDefaultEdge(mid, leaf)
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(mid))
	assert.False(t, g.HasNode(leaf), "leaf's only inbound path was through mid")
	assert.True(t, g.HasNode(root))
}

func TestReplaceNodeIdsConnectedTo(t *testing.T) {
	g := graph.New[string, edgeKind]()
	from := g.AddNode("from")
	keep := g.AddNode("keep")
	drop := g.AddNode("drop")
	fresh := g.AddNode("fresh")

	_, _ = g.AddDefaultEdge(from, keep)
	_, _ = g.AddDefaultEdge(from, drop)

	filter := func(id graph.NodeId) bool { return id == drop }
	err := g.ReplaceNodeIdsConnectedTo(from, []graph.NodeId{fresh}, filter, graph.DefaultEdgeType[edgeKind]())
	require.NoError(t, err)

	got := g.GetNodeIdsConnectedFrom(from, graph.DefaultEdgeType[edgeKind]())
	assert.ElementsMatch(t, []graph.NodeId{keep, fresh}, got)
	assert.False(t, g.HasNode(drop), "drop loses its only inbound edge and has no root, so it's pruned")
}

func TestMultigraphEdgeTypesAreIndependent(t *testing.T) {
	g := graph.New[string, edgeKind]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, err := g.AddEdge(a, b, edgeDefault)
	require.NoError(t, err)
	_, err = g.AddEdge(a, b, edgeAsync)
	require.NoError(t, err)

	assert.True(t, g.HasEdge(a, b, edgeDefault))
	assert.True(t, g.HasEdge(a, b, edgeAsync))
	g.RemoveEdges(a, edgeAsync)
	assert.True(t, g.HasEdge(a, b, edgeDefault))
	assert.False(t, g.HasEdge(a, b, edgeAsync))
}

func TestDFSOrderAndSkipChildren(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	left := g.AddNode("left")
	right := g.AddNode("right")
	leftChild := g.AddNode("leftChild")
	_, _ = g.AddDefaultEdge(root, left)
	_, _ = g.AddDefaultEdge(root, right)
	_, _ = g.AddDefaultEdge(left, leftChild)

	var entered []graph.NodeId
	visitor := graph.DFSVisitor[string, struct{}]{
		Enter: func(id graph.NodeId, node string, _ struct{}, actions *graph.DFSActions) struct{} {
			entered = append(entered, id)
			if id == left {
				actions.SkipChildren()
			}
			return struct{}{}
		},
	}
	graph.DFS(g, root, graph.DefaultEdgeType[edgeKind](), visitor, struct{}{}, nil)

	assert.Equal(t, []graph.NodeId{root, left, right}, entered, "leftChild must be skipped")
}

func TestDFSStopHaltsTraversal(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, _ = g.AddDefaultEdge(root, a)
	_, _ = g.AddDefaultEdge(root, b)

	var entered []graph.NodeId
	graph.Traverse(g, root, graph.DefaultEdgeType[edgeKind](), func(id graph.NodeId, node string) graph.DFSAction {
		entered = append(entered, id)
		if id == root {
			return graph.DFSStop
		}
		return graph.DFSContinue
	})
	assert.Equal(t, []graph.NodeId{root}, entered)
}

func TestDFSStopSuppressesExit(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, _ = g.AddDefaultEdge(root, a)
	_, _ = g.AddDefaultEdge(root, b)

	var exited []graph.NodeId
	visitor := graph.DFSVisitor[string, struct{}]{
		Enter: func(id graph.NodeId, node string, _ struct{}, actions *graph.DFSActions) struct{} {
			if id == a {
				actions.Stop()
			}
			return struct{}{}
		},
		Exit: func(id graph.NodeId, node string, _ struct{}) {
			exited = append(exited, id)
		},
	}
	graph.DFS(g, root, graph.DefaultEdgeType[edgeKind](), visitor, struct{}{}, nil)

	assert.Empty(t, exited, "no Exit callback fires once a node's Enter (or a descendant) requests Stop")
}

func TestBFSVisitsPoppedNode(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, _ = g.AddDefaultEdge(root, a)
	_, _ = g.AddDefaultEdge(root, b)

	var seen []graph.NodeId
	found := graph.BFS(g, root, graph.DefaultEdgeType[edgeKind](), func(id graph.NodeId, node string) bool {
		seen = append(seen, id)
		return node == "b"
	})
	assert.Equal(t, b, found)
	assert.Equal(t, []graph.NodeId{root, a, b}, seen, "visit must receive the node actually popped off the queue, in queue order")
}

func TestFindAncestorAndDescendant(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	mid := g.AddNode("mid")
	leaf := g.AddNode("leaf")
	_, _ = g.AddDefaultEdge(root, mid)
	_, _ = g.AddDefaultEdge(mid, leaf)

	ancestor, ok := graph.FindAncestor(g, leaf, graph.DefaultEdgeType[edgeKind](), func(id graph.NodeId, node string) bool {
		return node == "root"
	})
	require.True(t, ok)
	assert.Equal(t, root, ancestor)

	descendant, ok := graph.FindDescendant(g, root, graph.DefaultEdgeType[edgeKind](), func(id graph.NodeId, node string) bool {
		return node == "leaf"
	})
	require.True(t, ok)
	assert.Equal(t, leaf, descendant)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	g := graph.New[string, edgeKind]()
	root := g.AddNode("root")
	require.NoError(t, g.SetRootNodeId(root))
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, _ = g.AddDefaultEdge(root, a)
	_, _ = g.AddEdge(root, b, edgeAsync)

	blob := g.Serialize()
	restored, err := graph.Deserialize[string, edgeKind](blob)
	require.NoError(t, err)

	rootId, hasRoot := restored.RootNodeId()
	assert.True(t, hasRoot)
	assert.Equal(t, root, rootId)
	assert.ElementsMatch(t, g.GetAllEdges(), restored.GetAllEdges())

	node, ok := restored.GetNode(a)
	require.True(t, ok)
	assert.Equal(t, "a", node)
}
