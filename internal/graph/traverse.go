package graph

// DFSAction is what a visitor wants to happen next after visiting a node.
type DFSAction int

const (
	DFSContinue DFSAction = iota
	DFSSkipChildren
	DFSStop
)

// DFSActions is passed to an Enter callback so it can steer the traversal.
// Calling neither method is equivalent to DFSContinue.
type DFSActions struct {
	action DFSAction
}

func (a *DFSActions) Stop()         { a.action = DFSStop }
func (a *DFSActions) SkipChildren() { a.action = DFSSkipChildren }

// DFSVisitor pairs an Enter callback (invoked pre-order, producing a
// context value threaded down to children) with an optional Exit callback
// (invoked post-order). C is the caller's context type — for a simple
// traversal that doesn't need to thread anything, use C = struct{}.
type DFSVisitor[TNode any, C any] struct {
	Enter func(nodeId NodeId, node TNode, ctx C, actions *DFSActions) C
	Exit  func(nodeId NodeId, node TNode, ctx C)
}

// DFS walks the graph depth-first starting at start, following outbound
// edges of edgeType (AllEdgeTypes to ignore edge kind). visited, if
// non-nil, is both read and written, so repeated calls can share one
// explicit visited set across a forest of starting points.
func DFS[TNode any, TEdgeType edgeTypeConstraint, C any](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	visitor DFSVisitor[TNode, C],
	initialCtx C,
	visited map[NodeId]bool,
) {
	if visited == nil {
		visited = make(map[NodeId]bool)
	}
	dfsVisit(g, start, edgeType, visitor, initialCtx, visited)
}

func dfsVisit[TNode any, TEdgeType edgeTypeConstraint, C any](
	g *Graph[TNode, TEdgeType],
	id NodeId,
	edgeType TEdgeType,
	visitor DFSVisitor[TNode, C],
	ctx C,
	visited map[NodeId]bool,
) DFSAction {
	if visited[id] {
		return DFSContinue
	}
	visited[id] = true

	node, ok := g.GetNode(id)
	if !ok {
		return DFSContinue
	}

	actions := &DFSActions{}
	childCtx := ctx
	if visitor.Enter != nil {
		childCtx = visitor.Enter(id, node, ctx, actions)
	}

	if actions.action != DFSStop && actions.action != DFSSkipChildren {
		for _, child := range g.GetNodeIdsConnectedFrom(id, edgeType) {
			if dfsVisit(g, child, edgeType, visitor, childCtx, visited) == DFSStop {
				actions.action = DFSStop
				break
			}
		}
	}

	if actions.action != DFSStop && visitor.Exit != nil {
		visitor.Exit(id, node, childCtx)
	}

	return actions.action
}

// Traverse walks forward from start (outbound edges of edgeType), calling
// visit for every reachable node including start. visit returns the action
// to take for that node's subtree.
func Traverse[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	visit func(nodeId NodeId, node TNode) DFSAction,
) {
	visitor := DFSVisitor[TNode, struct{}]{
		Enter: func(id NodeId, node TNode, _ struct{}, actions *DFSActions) struct{} {
			switch visit(id, node) {
			case DFSStop:
				actions.Stop()
			case DFSSkipChildren:
				actions.SkipChildren()
			}
			return struct{}{}
		},
	}
	DFS(g, start, edgeType, visitor, struct{}{}, nil)
}

// TraverseAncestors walks backward from start (inbound edges of edgeType),
// i.e. it treats "who points at me" as the child relation.
func TraverseAncestors[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	visit func(nodeId NodeId, node TNode) DFSAction,
) {
	visited := make(map[NodeId]bool)
	var walk func(id NodeId) DFSAction
	walk = func(id NodeId) DFSAction {
		if visited[id] {
			return DFSContinue
		}
		visited[id] = true
		node, ok := g.GetNode(id)
		if !ok {
			return DFSContinue
		}
		action := visit(id, node)
		if action == DFSStop || action == DFSSkipChildren {
			return action
		}
		for _, parent := range g.GetNodeIdsConnectedTo(id, edgeType) {
			if walk(parent) == DFSStop {
				return DFSStop
			}
		}
		return DFSContinue
	}
	walk(start)
}

// BFS walks forward breadth-first from start, following outbound edges of
// edgeType, calling visit with the node currently popped off the queue
// (not some other fixed node — a BFS that doesn't do this is a bug: the
// value passed to visit must be whichever node was just dequeued).
// Returns the first node for which visit returns true, or NullNode if
// none does.
func BFS[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	visit func(nodeId NodeId, node TNode) bool,
) NodeId {
	visited := map[NodeId]bool{start: true}
	queue := []NodeId{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		node, ok := g.GetNode(id)
		if !ok {
			continue
		}
		if visit(id, node) {
			return id
		}
		for _, child := range g.GetNodeIdsConnectedFrom(id, edgeType) {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return NullNode
}

// FindAncestor returns the first ancestor of start, in depth-first order
// searching backward across edgeType, for which match returns true, or
// (NullNode, false). The match found is not necessarily the nearest one.
func FindAncestor[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	match func(nodeId NodeId, node TNode) bool,
) (NodeId, bool) {
	found := NullNode
	TraverseAncestors(g, start, edgeType, func(id NodeId, node TNode) DFSAction {
		if id == start {
			return DFSContinue
		}
		if match(id, node) {
			found = id
			return DFSStop
		}
		return DFSContinue
	})
	return found, found != NullNode
}

// FindAncestors returns every ancestor of start for which match returns
// true, in depth-first pre-order of the backward walk.
func FindAncestors[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	match func(nodeId NodeId, node TNode) bool,
) []NodeId {
	var found []NodeId
	TraverseAncestors(g, start, edgeType, func(id NodeId, node TNode) DFSAction {
		if id != start && match(id, node) {
			found = append(found, id)
		}
		return DFSContinue
	})
	return found
}

// FindDescendant returns the first descendant of start (searching forward
// across edgeType, pre-order) for which match returns true.
func FindDescendant[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	match func(nodeId NodeId, node TNode) bool,
) (NodeId, bool) {
	found := NullNode
	Traverse(g, start, edgeType, func(id NodeId, node TNode) DFSAction {
		if id == start {
			return DFSContinue
		}
		if match(id, node) {
			found = id
			return DFSStop
		}
		return DFSContinue
	})
	return found, found != NullNode
}

// FindDescendants returns every descendant of start for which match
// returns true, pre-order.
func FindDescendants[TNode any, TEdgeType edgeTypeConstraint](
	g *Graph[TNode, TEdgeType],
	start NodeId,
	edgeType TEdgeType,
	match func(nodeId NodeId, node TNode) bool,
) []NodeId {
	var found []NodeId
	Traverse(g, start, edgeType, func(id NodeId, node TNode) DFSAction {
		if id != start && match(id, node) {
			found = append(found, id)
		}
		return DFSContinue
	})
	return found
}
