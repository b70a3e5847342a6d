package symbolprop

import "github.com/bundleforge/graphcore/internal/graph"

// outgoingDependencies returns the Dependency-kind children of an asset:
// the deps it declares as imports.
func outgoingDependencies(g *AssetGraph, assetId graph.NodeId) []graph.NodeId {
	var out []graph.NodeId
	for _, id := range g.GetNodeIdsConnectedFrom(assetId, DependencyEdge) {
		if n, ok := g.GetNode(id); ok && n.Kind == NodeDependency {
			out = append(out, id)
		}
	}
	return out
}

// incomingDependencies returns the Dependency-kind parents of an asset,
// following one level of AssetGroup indirection (Dependency -> AssetGroup
// -> Asset) as well as the direct Dependency -> Asset shape.
func incomingDependencies(g *AssetGraph, assetId graph.NodeId) []graph.NodeId {
	var out []graph.NodeId
	seen := make(map[graph.NodeId]bool)
	for _, id := range g.GetNodeIdsConnectedTo(assetId, DependencyEdge) {
		n, ok := g.GetNode(id)
		if !ok {
			continue
		}
		switch n.Kind {
		case NodeDependency:
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		case NodeAssetGroup:
			for _, parentId := range g.GetNodeIdsConnectedTo(id, DependencyEdge) {
				if pn, ok := g.GetNode(parentId); ok && pn.Kind == NodeDependency && !seen[parentId] {
					seen[parentId] = true
					out = append(out, parentId)
				}
			}
		}
	}
	return out
}

// dependencyTargetAssets returns the assets a dependency resolves to,
// following AssetGroup indirection. An empty result means the dependency
// "resolves to nothing" (external specifier, unresolved import, etc).
func dependencyTargetAssets(g *AssetGraph, depId graph.NodeId) []graph.NodeId {
	var out []graph.NodeId
	for _, id := range g.GetNodeIdsConnectedFrom(depId, DependencyEdge) {
		n, ok := g.GetNode(id)
		if !ok {
			continue
		}
		switch n.Kind {
		case NodeAsset:
			out = append(out, id)
		case NodeAssetGroup:
			for _, assetId := range g.GetNodeIdsConnectedFrom(id, DependencyEdge) {
				if an, ok := g.GetNode(assetId); ok && an.Kind == NodeAsset {
					out = append(out, assetId)
				}
			}
		}
	}
	return out
}

// dependencyAssetGroups returns the direct AssetGroup neighbours of a
// dependency, without following through to assets. Used by the excluded
// recomputation, which cares about the asset GROUP's sideEffects flag.
func dependencyAssetGroups(g *AssetGraph, depId graph.NodeId) []*AssetGroupNodeState {
	var out []*AssetGroupNodeState
	for _, id := range g.GetNodeIdsConnectedFrom(depId, DependencyEdge) {
		if n, ok := g.GetNode(id); ok && n.Kind == NodeAssetGroup {
			out = append(out, n.AssetGroup)
		}
	}
	return out
}

// sourceAssetsOf returns the Asset-kind parents of a dependency: the
// asset(s) that declared it as an outgoing dependency.
func sourceAssetsOf(g *AssetGraph, depId graph.NodeId) []graph.NodeId {
	var out []graph.NodeId
	for _, id := range g.GetNodeIdsConnectedTo(depId, DependencyEdge) {
		if n, ok := g.GetNode(id); ok && n.Kind == NodeAsset {
			out = append(out, id)
		}
	}
	return out
}

func buildInverse(rec AssetRecord) map[SymbolId]SymbolSet {
	inverse := make(map[SymbolId]SymbolSet)
	if !rec.HasSymbols {
		return inverse
	}
	for _, sym := range rec.Symbols {
		set, ok := inverse[sym.Local]
		if !ok {
			set = NewSymbolSet()
			inverse[sym.Local] = set
		}
		set.Add(sym.Exported)
	}
	return inverse
}

func declares(rec AssetRecord, s SymbolId) bool {
	for _, sym := range rec.Symbols {
		if sym.Exported == s {
			return true
		}
	}
	return false
}

func dependencyHasNamespaceReexport(rec DependencyRecord, star SymbolId) bool {
	for _, decl := range rec.Symbols {
		if decl.Exported == star && decl.Local == star {
			return true
		}
	}
	return false
}

func assetHasNamespaceReexport(g *AssetGraph, db DB, assetId graph.NodeId, star SymbolId) bool {
	for _, depId := range outgoingDependencies(g, assetId) {
		depNode, ok := g.GetNode(depId)
		if !ok {
			continue
		}
		rec := db.GetDependency(depNode.Dependency.Handle)
		if dependencyHasNamespaceReexport(rec, star) {
			return true
		}
	}
	return false
}

func symbolLoc(rec DependencyRecord, s SymbolId) *SourceLocation {
	for _, decl := range rec.Symbols {
		if decl.Exported == s {
			return decl.Loc
		}
	}
	return nil
}

func intersect(a, b SymbolSet) SymbolSet {
	out := NewSymbolSet()
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for s := range small {
		if big.Has(s) {
			out.Add(s)
		}
	}
	return out
}

func resolutionMapsEqual(a, b map[SymbolId]SymbolResolution) bool {
	if len(a) != len(b) {
		return false
	}
	for s, ra := range a {
		rb, ok := b[s]
		if !ok || ra != rb {
			return false
		}
	}
	return true
}
