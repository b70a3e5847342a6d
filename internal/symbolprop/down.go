package symbolprop

import "github.com/bundleforge/graphcore/internal/graph"

// propagateDown runs the root-to-leaves "requested symbols" pass seeded by
// changedAssets and assetGroupsWithRemovedParents. It returns every
// dependency whose usedSymbolsDown changed, which becomes the seed set for
// propagateUp.
func propagateDown(g *AssetGraph, db DB, cfg Config, changedAssets, assetGroupsWithRemovedParents []graph.NodeId) []graph.NodeId {
	queue := make([]graph.NodeId, 0, len(changedAssets)+len(assetGroupsWithRemovedParents))
	inQueue := make(map[graph.NodeId]bool)
	enqueue := func(id graph.NodeId) {
		if !inQueue[id] {
			inQueue[id] = true
			queue = append(queue, id)
		}
	}

	for _, id := range changedAssets {
		enqueue(id)
	}
	// An asset group losing a parent doesn't itself carry propagation
	// state; what matters is that the assets it can resolve to must
	// reconsider their incoming-dependency view.
	for _, groupId := range assetGroupsWithRemovedParents {
		for _, id := range g.GetNodeIdsConnectedFromAny(groupId) {
			if n, ok := g.GetNode(id); ok && n.Kind == NodeAsset {
				enqueue(id)
			}
		}
	}

	var changedDeps []graph.NodeId
	seenChanged := make(map[graph.NodeId]bool)
	markChanged := func(id graph.NodeId) {
		if !seenChanged[id] {
			seenChanged[id] = true
			changedDeps = append(changedDeps, id)
		}
	}

	for _, id := range seedRootDemand(g, db, enqueue) {
		markChanged(id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		delete(inQueue, id)

		node, ok := g.GetNode(id)
		if !ok {
			continue
		}
		if node.Kind != NodeAsset {
			continue
		}
		node.Asset.UsedSymbolsDownDirty = false

		cfg.Metrics.AssetVisitedDown()
		for _, depId := range assetVisitorDown(g, db, id, node) {
			markChanged(depId)
			for _, targetId := range dependencyTargetAssets(g, depId) {
				if tn, ok := g.GetNode(targetId); ok && tn.Kind == NodeAsset {
					tn.Asset.UsedSymbolsDownDirty = true
					enqueue(targetId)
				}
			}
		}
	}

	return changedDeps
}

// seedRootDemand handles the one edge of the graph no asset visitor ever
// owns: the graph root's own outgoing dependencies (the program's entry
// imports). A root isn't an asset, so nothing gates or filters what it
// demands — its dependencies request exactly the symbols they declare.
// Returns the ids of dependencies whose usedSymbolsDown this changed.
func seedRootDemand(g *AssetGraph, db DB, enqueue func(graph.NodeId)) []graph.NodeId {
	rootId, hasRoot := g.RootNodeId()
	if !hasRoot {
		return nil
	}
	rootNode, ok := g.GetNode(rootId)
	if !ok || rootNode.Kind != NodeRoot {
		return nil
	}

	var changed []graph.NodeId
	for _, depId := range g.GetNodeIdsConnectedFromAny(rootId) {
		depNode, ok := g.GetNode(depId)
		if !ok || depNode.Kind != NodeDependency {
			continue
		}
		dep := depNode.Dependency
		depRec := db.GetDependency(dep.Handle)

		demand := NewSymbolSet()
		if depRec.HasSymbols {
			for _, decl := range depRec.Symbols {
				demand.Add(decl.Exported)
			}
		}

		if demand.Equal(dep.UsedSymbolsDown) {
			continue
		}
		dep.UsedSymbolsDown = demand
		dep.UsedSymbolsDownDirty = true
		dep.UsedSymbolsUpDirtyDown = true
		changed = append(changed, depId)

		for _, targetId := range dependencyTargetAssets(g, depId) {
			if tn, ok := g.GetNode(targetId); ok && tn.Kind == NodeAsset {
				tn.Asset.UsedSymbolsDownDirty = true
				enqueue(targetId)
			}
		}
	}
	return changed
}

// assetVisitorDown recomputes asset.UsedSymbols from A's incoming
// dependencies, then recomputes usedSymbolsDown on every outgoing
// dependency. It returns the ids of outgoing dependencies whose
// usedSymbolsDown changed.
func assetVisitorDown(g *AssetGraph, db DB, assetId graph.NodeId, node *Node) []graph.NodeId {
	asset := node.Asset
	rec := db.GetAsset(asset.Handle)
	star := db.StarSymbol()
	defaultSym := db.DefaultSymbol()

	incoming := incomingDependencies(g, assetId)

	usedSymbols := NewSymbolSet()
	namespaceReexported := NewSymbolSet()
	addAll := false
	isEntry := false

	if len(incoming) == 0 {
		// A runtime root: nothing imports it explicitly, so conservatively
		// assume its whole namespace is observed from outside the graph.
		usedSymbols.Add(star)
		namespaceReexported.Add(star)
	} else {
		for _, depId := range incoming {
			depNode, ok := g.GetNode(depId)
			if !ok {
				continue
			}
			dep := depNode.Dependency
			depRec := db.GetDependency(dep.Handle)

			if !depRec.HasSymbols {
				if !depRec.HasSourceAsset {
					isEntry = true
				} else {
					addAll = true
				}
				continue
			}

			for s := range dep.UsedSymbolsDown {
				if s == star {
					usedSymbols.Add(star)
					namespaceReexported.Add(star)
					continue
				}
				if !rec.HasSymbols || declares(rec, s) || declares(rec, star) {
					usedSymbols.Add(s)
				} else if s != defaultSym && assetHasNamespaceReexport(g, db, assetId, star) {
					namespaceReexported.Add(s)
				}
			}
		}
	}

	if addAll {
		usedSymbols = NewSymbolSet()
		if rec.HasSymbols {
			for _, sym := range rec.Symbols {
				usedSymbols.Add(sym.Exported)
			}
		}
	}
	asset.UsedSymbols = usedSymbols

	outgoing := outgoingDependencies(g, assetId)
	gate := rec.SideEffects || addAll || isEntry || usedSymbols.Len() > 0 || namespaceReexported.Len() > 0

	var changed []graph.NodeId
	for _, depId := range outgoing {
		depNode, ok := g.GetNode(depId)
		if !ok {
			continue
		}
		dep := depNode.Dependency
		depRec := db.GetDependency(dep.Handle)

		newDown := NewSymbolSet()
		if gate && depRec.HasSymbols {
			inverse := buildInverse(rec)

			for _, decl := range depRec.Symbols {
				if decl.Exported == star && decl.Local == star {
					if addAll {
						newDown.Add(star)
					} else {
						for s := range namespaceReexported {
							newDown.Add(s)
						}
					}
				}
			}
			for _, decl := range depRec.Symbols {
				if decl.Exported == star && decl.Local == star {
					continue
				}
				s, l := decl.Exported, decl.Local
				if len(inverse) == 0 || !decl.IsWeak {
					newDown.Add(s)
					continue
				}
				r, ok := inverse[l]
				if !ok {
					newDown.Add(s)
					continue
				}
				if usedSymbols.Has(star) {
					newDown.Add(s)
					for x := range r {
						usedSymbols.Remove(x)
					}
					continue
				}
				overlap := intersect(r, usedSymbols)
				if overlap.Len() > 0 {
					newDown.Add(s)
					for x := range overlap {
						usedSymbols.Remove(x)
					}
				}
			}
		}

		if !newDown.Equal(dep.UsedSymbolsDown) {
			dep.UsedSymbolsDown = newDown
			dep.UsedSymbolsDownDirty = true
			dep.UsedSymbolsUpDirtyDown = true
			changed = append(changed, depId)
		}
	}

	return changed
}
