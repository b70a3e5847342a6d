package graph

import (
	"fmt"

	"github.com/bundleforge/graphcore/internal/adjacency"
)

// Serialized is the on-the-wire shape of a Graph: the packed adjacency
// list plus the node payload table and root pointer layered on top of it.
// Nodes is keyed by NodeId so callers can restore it with any codec that
// understands TNode (JSON, gob, msgpack, ...); this package doesn't pick
// one for them.
type Serialized[TNode any] struct {
	Nodes       map[NodeId]TNode
	ContentKeys map[string]NodeId
	Adjacency   adjacency.Serialized
	RootNodeId  NodeId
	HasRoot     bool
	NextNodeId  uint32
}

// Serialize snapshots the graph. NextNodeId is the adjacency list's
// NodeCount, the id the next AddNode will allocate; ids freed by RemoveNode
// are never reused. Deserialize restores that counter from Adjacency, not
// from NextNodeId.
func (g *Graph[TNode, TEdgeType]) Serialize() Serialized[TNode] {
	nodes := make(map[NodeId]TNode, len(g.nodes))
	for id, n := range g.nodes {
		nodes[id] = n
	}
	contentKeys := make(map[string]NodeId, len(g.contentKeys))
	for k, id := range g.contentKeys {
		contentKeys[k] = id
	}
	return Serialized[TNode]{
		Nodes:       nodes,
		ContentKeys: contentKeys,
		Adjacency:   g.adjacency.Serialize(),
		RootNodeId:  g.rootNodeId,
		HasRoot:     g.hasRoot,
		NextNodeId:  g.adjacency.NodeCount(),
	}
}

// Deserialize restores a graph from a Serialized value produced by
// Serialize. It validates that every node referenced by the adjacency list
// has a corresponding payload.
func Deserialize[TNode any, TEdgeType edgeTypeConstraint](s Serialized[TNode]) (*Graph[TNode, TEdgeType], error) {
	adj, err := adjacency.Deserialize(s.Adjacency)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	if uint32(len(s.Nodes)) > adj.NodeCount() {
		return nil, fmt.Errorf("graph: node table has more entries (%d) than the adjacency list has slots (%d)", len(s.Nodes), adj.NodeCount())
	}
	for _, e := range adj.GetAllEdges() {
		if _, ok := s.Nodes[e.From]; !ok {
			return nil, fmt.Errorf("graph: edge (%d,%d,%d) references node %d, which has no payload", e.From, e.To, e.Type, e.From)
		}
		if _, ok := s.Nodes[e.To]; !ok {
			return nil, fmt.Errorf("graph: edge (%d,%d,%d) references node %d, which has no payload", e.From, e.To, e.Type, e.To)
		}
	}

	g := &Graph[TNode, TEdgeType]{
		adjacency:   adj,
		nodes:       make(map[NodeId]TNode, len(s.Nodes)),
		contentKeys: make(map[string]NodeId, len(s.ContentKeys)),
		nodeKeys:    make(map[NodeId]string, len(s.ContentKeys)),
		rootNodeId:  s.RootNodeId,
		hasRoot:     s.HasRoot,
	}
	for id, n := range s.Nodes {
		g.nodes[id] = n
	}
	for k, id := range s.ContentKeys {
		g.contentKeys[k] = id
		g.nodeKeys[id] = k
	}
	return g, nil
}
