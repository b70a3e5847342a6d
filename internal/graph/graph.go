// Package graph implements a generic, labelled, directed multigraph on top
// of adjacency.AdjacencyList. It owns node payloads and the notion of a
// root node; the adjacency list owns edge storage. Everything here is
// single-writer and synchronous: nothing in this package takes a lock, so
// one goroutine at a time may use a given Graph.
package graph

import (
	"fmt"

	"github.com/bundleforge/graphcore/internal/adjacency"
	"github.com/bundleforge/graphcore/internal/metrics"
)

// NodeId, EdgeType and friends are re-exported from adjacency so callers of
// this package never need to import it directly.
type NodeId = adjacency.NodeId
type EdgeType = adjacency.EdgeType

const NullNode = adjacency.NullNode
const AllEdgeTypes = adjacency.AllEdgeTypes

// TEdgeType is any small integer enum a caller wants to use for its own
// edge kinds. DefaultEdgeType(1) is what the spec calls the "null edge /
// untyped" default used when a caller doesn't care about edge kind.
type edgeTypeConstraint interface {
	~uint32
}

// DefaultEdgeType returns the untyped/null edge type (1) for a given
// TEdgeType enum, matching the reference implementation's default.
func DefaultEdgeType[TEdgeType edgeTypeConstraint]() TEdgeType {
	return TEdgeType(1)
}

// Graph is a labelled multigraph: TNode is the payload stored per node,
// TEdgeType is the caller's own small edge-kind enum (constrained to be
// convertible to adjacency.EdgeType).
type Graph[TNode any, TEdgeType edgeTypeConstraint] struct {
	adjacency *adjacency.AdjacencyList
	nodes     map[NodeId]TNode

	contentKeys map[string]NodeId
	nodeKeys    map[NodeId]string

	rootNodeId NodeId
	hasRoot    bool

	metrics *metrics.Registry
}

// SetMetrics attaches a metrics sink that every subsequent mutation reports
// to. A nil Registry (the zero value, and the default until this is called)
// makes every reported call a no-op, so callers that don't care about
// observability never need to touch this.
func (g *Graph[TNode, TEdgeType]) SetMetrics(reg *metrics.Registry) {
	g.metrics = reg
}

// New creates an empty graph with no root node.
func New[TNode any, TEdgeType edgeTypeConstraint]() *Graph[TNode, TEdgeType] {
	return &Graph[TNode, TEdgeType]{
		adjacency:   adjacency.New(),
		nodes:       make(map[NodeId]TNode),
		contentKeys: make(map[string]NodeId),
		nodeKeys:    make(map[NodeId]string),
	}
}

// AddNode stores node and allocates a fresh NodeId for it.
func (g *Graph[TNode, TEdgeType]) AddNode(node TNode) NodeId {
	id := g.adjacency.AddNode()
	g.nodes[id] = node
	g.metrics.NodeAdded()
	return id
}

// AddNodeWithKey is AddNode plus registration in the ContentKey side index,
// so the owner (the asset graph) can look nodes back up by the stable key
// it assigned them instead of by NodeId.
func (g *Graph[TNode, TEdgeType]) AddNodeWithKey(key string, node TNode) NodeId {
	id := g.AddNode(node)
	g.contentKeys[key] = id
	g.nodeKeys[id] = key
	return id
}

// NodeIdForContentKey looks up the side index.
func (g *Graph[TNode, TEdgeType]) NodeIdForContentKey(key string) (NodeId, bool) {
	id, ok := g.contentKeys[key]
	return id, ok
}

// ContentKeyForNodeId is the reverse lookup.
func (g *Graph[TNode, TEdgeType]) ContentKeyForNodeId(id NodeId) (string, bool) {
	key, ok := g.nodeKeys[id]
	return key, ok
}

// HasNode reports whether id names a node that has not been removed.
func (g *Graph[TNode, TEdgeType]) HasNode(id NodeId) bool {
	_, ok := g.nodes[id]
	return ok
}

// GetNode fetches the payload for id.
func (g *Graph[TNode, TEdgeType]) GetNode(id NodeId) (TNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// UpdateNode replaces the payload for an already-present id. It fails if id
// is absent — this is a contract violation, not a recoverable condition.
func (g *Graph[TNode, TEdgeType]) UpdateNode(id NodeId, node TNode) error {
	if !g.HasNode(id) {
		return fmt.Errorf("graph: updateNode on unknown node %d", id)
	}
	g.nodes[id] = node
	return nil
}

// SetRootNodeId designates id as the graph's root. Every reachability
// question (orphan pruning, dfs/bfs defaults) is defined relative to it.
func (g *Graph[TNode, TEdgeType]) SetRootNodeId(id NodeId) error {
	if !g.HasNode(id) {
		return fmt.Errorf("graph: setRootNodeId on unknown node %d", id)
	}
	g.rootNodeId = id
	g.hasRoot = true
	return nil
}

// RootNodeId returns the current root, if any.
func (g *Graph[TNode, TEdgeType]) RootNodeId() (NodeId, bool) {
	return g.rootNodeId, g.hasRoot
}

// AddEdge inserts an edge of the given type; see AddDefaultEdge for the
// common case of an untyped edge.
func (g *Graph[TNode, TEdgeType]) AddEdge(from, to NodeId, edgeType TEdgeType) (bool, error) {
	added, err := g.adjacency.AddEdge(from, to, adjacency.EdgeType(edgeType))
	if added {
		g.metrics.EdgeAdded(fmt.Sprintf("%d", edgeType))
	}
	return added, err
}

// AddDefaultEdge inserts an edge of the default ("null"/untyped) type.
func (g *Graph[TNode, TEdgeType]) AddDefaultEdge(from, to NodeId) (bool, error) {
	return g.AddEdge(from, to, DefaultEdgeType[TEdgeType]())
}

// HasEdge reports whether the given typed edge is present.
func (g *Graph[TNode, TEdgeType]) HasEdge(from, to NodeId, edgeType TEdgeType) bool {
	return g.adjacency.HasEdge(from, to, adjacency.EdgeType(edgeType))
}

// HasDefaultEdge reports whether an untyped edge is present.
func (g *Graph[TNode, TEdgeType]) HasDefaultEdge(from, to NodeId) bool {
	return g.HasEdge(from, to, DefaultEdgeType[TEdgeType]())
}

// RemoveEdge removes a typed edge. When removeOrphans is true (the usual
// case) and the edge's target is left unreachable, the target is removed
// too, cascading recursively — see IsOrphanedNode for the definition of
// "unreachable" the graph uses.
func (g *Graph[TNode, TEdgeType]) RemoveEdge(from, to NodeId, edgeType TEdgeType, removeOrphans bool) error {
	if err := g.adjacency.RemoveEdge(from, to, adjacency.EdgeType(edgeType)); err != nil {
		return err
	}
	g.metrics.EdgeRemoved(fmt.Sprintf("%d", edgeType))
	if removeOrphans && g.HasNode(to) && g.IsOrphanedNode(to) {
		return g.RemoveNode(to)
	}
	return nil
}

// RemoveEdges removes every outbound edge of node with the given type,
// without any orphan pruning of the far side. Callers that want pruning
// should remove edges one at a time with RemoveEdge instead.
func (g *Graph[TNode, TEdgeType]) RemoveEdges(node NodeId, edgeType TEdgeType) {
	removed := len(g.adjacency.GetNodesConnectedFrom(node, adjacency.EdgeType(edgeType)))
	g.adjacency.RemoveOutboundEdgesOfType(node, adjacency.EdgeType(edgeType))
	for i := 0; i < removed; i++ {
		g.metrics.EdgeRemoved(fmt.Sprintf("%d", edgeType))
	}
}

// RemoveNode deletes id and every edge incident to it. Inbound edges are
// unlinked without orphan pruning (id itself is being destroyed, so
// checking whether it just became an orphan is meaningless); outbound
// edges are removed with orphan pruning enabled, so nodes only reachable
// through id cascade away too.
func (g *Graph[TNode, TEdgeType]) RemoveNode(id NodeId) error {
	if !g.HasNode(id) {
		return fmt.Errorf("graph: removeNode on unknown node %d", id)
	}

	for _, e := range g.adjacency.GetInboundEdgesByType(id) {
		if g.adjacency.RemoveEdge(e.From, id, e.Type) == nil {
			g.metrics.EdgeRemoved(fmt.Sprintf("%d", e.Type))
		}
	}
	for _, e := range g.adjacency.GetOutboundEdgesByType(id) {
		if g.adjacency.RemoveEdge(id, e.To, e.Type) == nil {
			g.metrics.EdgeRemoved(fmt.Sprintf("%d", e.Type))
		}
		if g.HasNode(e.To) && g.IsOrphanedNode(e.To) {
			_ = g.RemoveNode(e.To)
		}
	}

	delete(g.nodes, id)
	if key, ok := g.nodeKeys[id]; ok {
		delete(g.nodeKeys, id)
		delete(g.contentKeys, key)
	}
	if g.hasRoot && g.rootNodeId == id {
		g.hasRoot = false
	}
	g.metrics.NodeRemoved()
	return nil
}

// ReplaceNodeIdsConnectedTo sets from's outbound neighbours of edgeType to
// the union of newTos and whichever pre-existing neighbours do not match
// filter (a nil filter matches nothing, so nil keeps every pre-existing
// neighbour). Newly added edges are fresh AddEdge calls; removed edges obey
// orphan pruning.
func (g *Graph[TNode, TEdgeType]) ReplaceNodeIdsConnectedTo(
	from NodeId,
	newTos []NodeId,
	filter func(NodeId) bool,
	edgeType TEdgeType,
) error {
	existing := g.GetNodeIdsConnectedFrom(from, edgeType)

	final := make(map[NodeId]bool, len(existing)+len(newTos))
	for _, t := range existing {
		if filter == nil || !filter(t) {
			final[t] = true
		}
	}
	for _, t := range newTos {
		final[t] = true
	}

	existingSet := make(map[NodeId]bool, len(existing))
	for _, t := range existing {
		existingSet[t] = true
	}

	for _, t := range existing {
		if !final[t] {
			if err := g.RemoveEdge(from, t, edgeType, true); err != nil {
				return err
			}
		}
	}
	for t := range final {
		if !existingSet[t] {
			if _, err := g.AddEdge(from, t, edgeType); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetNodeIdsConnectedFrom returns from's outbound neighbours of edgeType,
// de-duplicated, in first-occurrence (insertion) order.
func (g *Graph[TNode, TEdgeType]) GetNodeIdsConnectedFrom(from NodeId, edgeType TEdgeType) []NodeId {
	return dedup(g.adjacency.GetNodesConnectedFrom(from, adjacency.EdgeType(edgeType)))
}

// GetNodeIdsConnectedFromAny is GetNodeIdsConnectedFrom with AllEdgeTypes.
func (g *Graph[TNode, TEdgeType]) GetNodeIdsConnectedFromAny(from NodeId) []NodeId {
	return dedup(g.adjacency.GetNodesConnectedFrom(from))
}

// GetNodeIdsConnectedTo returns to's inbound neighbours of edgeType,
// de-duplicated, in first-occurrence (insertion) order.
func (g *Graph[TNode, TEdgeType]) GetNodeIdsConnectedTo(to NodeId, edgeType TEdgeType) []NodeId {
	return dedup(g.adjacency.GetNodesConnectedTo(to, adjacency.EdgeType(edgeType)))
}

// GetNodeIdsConnectedToAny is GetNodeIdsConnectedTo with AllEdgeTypes.
func (g *Graph[TNode, TEdgeType]) GetNodeIdsConnectedToAny(to NodeId) []NodeId {
	return dedup(g.adjacency.GetNodesConnectedTo(to))
}

// GetAllEdges streams every live edge in the graph.
func (g *Graph[TNode, TEdgeType]) GetAllEdges() []adjacency.Edge {
	return g.adjacency.GetAllEdges()
}

func dedup(ids []NodeId) []NodeId {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[NodeId]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// IsOrphanedNode reports whether id is unreachable: with no root set, that
// means id has no inbound edges; with a root set, that means no directed
// path of any edge type leads from the root to id. The check walks
// backward from id across inbound edges of every type looking for the
// root, rather than walking forward from the root, so it stays cheap for
// graphs where only a small corner changed.
func (g *Graph[TNode, TEdgeType]) IsOrphanedNode(id NodeId) bool {
	if !g.hasRoot {
		return len(g.adjacency.GetNodesConnectedTo(id)) == 0
	}
	if id == g.rootNodeId {
		return false
	}

	visited := map[NodeId]bool{id: true}
	stack := []NodeId{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == g.rootNodeId {
			return false
		}
		for _, parent := range g.adjacency.GetNodesConnectedTo(n) {
			if !visited[parent] {
				visited[parent] = true
				stack = append(stack, parent)
			}
		}
	}
	return true
}
