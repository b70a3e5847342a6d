package symbolprop

import (
	"fmt"

	"github.com/bundleforge/graphcore/internal/graph"
)

// Diagnostic is a per-node symbol-resolution problem: an import named a
// symbol its target does not export (and does not namespace-reexport).
// It carries no rendering logic; a diagnostics-rendering collaborator
// turns this plus the source file into a user-facing frame.
type Diagnostic struct {
	Message  string
	FilePath string
	Loc      *SourceLocation
}

// upResult is the per-asset outcome of one visitor invocation, used both
// to drive re-enqueueing and to build the returned diagnostics map.
type upResult struct {
	diagnostics     []Diagnostic
	changedIncoming []graph.NodeId
}

// propagateUp runs the leaves-to-root "resolved symbols" pass. seeds are
// NodeIds of assets to (re)visit; visitedAssets, if non-nil, is populated
// with every asset actually visited, so the caller can apply the
// previous-errors retention rule correctly.
func propagateUp(g *AssetGraph, db DB, cfg Config, seeds []graph.NodeId, visitedAssets map[graph.NodeId]bool) (map[graph.NodeId][]Diagnostic, map[graph.NodeId]bool) {
	queue := make([]graph.NodeId, 0, len(seeds))
	inQueue := make(map[graph.NodeId]bool)
	enqueue := func(id graph.NodeId) {
		if !inQueue[id] {
			inQueue[id] = true
			queue = append(queue, id)
		}
	}
	for _, id := range seeds {
		enqueue(id)
	}

	diagnostics := make(map[graph.NodeId][]Diagnostic)
	changedDeps := make(map[graph.NodeId]bool)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		delete(inQueue, id)

		node, ok := g.GetNode(id)
		if !ok || node.Kind != NodeAsset {
			continue
		}
		if visitedAssets != nil {
			visitedAssets[id] = true
		}

		cfg.Metrics.AssetVisitedUp()
		result := assetVisitorUp(g, db, cfg, id, node)
		if len(result.diagnostics) > 0 {
			diagnostics[id] = result.diagnostics
		} else {
			delete(diagnostics, id) // a later revisit of id may have fixed an earlier error
		}

		for _, depId := range result.changedIncoming {
			changedDeps[depId] = true
			for _, sourceId := range sourceAssetsOf(g, depId) {
				enqueue(sourceId)
			}
		}
	}

	return diagnostics, changedDeps
}

func assetVisitorUp(g *AssetGraph, db DB, cfg Config, assetId graph.NodeId, node *Node) upResult {
	asset := node.Asset
	rec := db.GetAsset(asset.Handle)
	star := db.StarSymbol()
	defaultSym := db.DefaultSymbol()

	reexportedSymbols := make(map[SymbolId]SymbolResolution)
	reexportedSource := make(map[SymbolId]graph.NodeId)

	recordReexport := func(s SymbolId, resolved SymbolResolution, source graph.NodeId) {
		if prevSource, ok := reexportedSource[s]; ok && prevSource != source {
			// Two outgoing deps each namespace-reexport the same symbol:
			// force a namespace import of this asset rather than pick one.
			if cfg.Verbose && cfg.Log.AddMsg != nil {
				cfg.Log.AddWarning(nil, fmt.Sprintf(
					"%s: ambiguous re-export of '%s' resolved to this module's own namespace",
					rec.FilePath, db.ReadCachedString(s)))
			}
			asset.UsedSymbols.Add(star)
			reexportedSymbols[s] = resolvedTo(asset.Handle, s)
			return
		}
		reexportedSymbols[s] = resolved
		reexportedSource[s] = source
	}

	for _, depId := range outgoingDependencies(g, assetId) {
		depNode, ok := g.GetNode(depId)
		if !ok {
			continue
		}
		dep := depNode.Dependency
		depRec := db.GetDependency(dep.Handle)

		targets := dependencyTargetAssets(g, depId)
		if len(targets) == 0 || dep.Excluded {
			for s := range dep.UsedSymbolsDown {
				dep.UsedSymbolsUp[s] = ambiguousResolution()
			}
			continue
		}

		if dependencyHasNamespaceReexport(depRec, star) {
			for s, resolved := range dep.UsedSymbolsUp {
				if s == defaultSym {
					continue
				}
				recordReexport(s, resolved, depId)
			}
		}

		if depRec.HasSymbols {
			inverse := buildInverse(rec)
			for _, decl := range depRec.Symbols {
				if decl.Exported == star && decl.Local == star {
					continue
				}
				s := decl.Exported
				if !dep.UsedSymbolsDown.Has(s) {
					continue
				}
				resolved, ok := dep.UsedSymbolsUp[s]
				if !ok {
					continue
				}
				if r, ok := inverse[decl.Local]; ok {
					for exported := range r {
						recordReexport(exported, resolved, depId)
					}
				}
			}
		}
	}

	var diagnostics []Diagnostic
	var changed []graph.NodeId

	for _, depId := range incomingDependencies(g, assetId) {
		depNode, ok := g.GetNode(depId)
		if !ok {
			continue
		}
		dep := depNode.Dependency
		depRec := db.GetDependency(dep.Handle)
		if !depRec.HasSymbols {
			continue
		}

		old := dep.UsedSymbolsUp
		next := make(map[SymbolId]SymbolResolution, len(dep.UsedSymbolsDown))
		hasNamespaceReexport := dependencyHasNamespaceReexport(depRec, star)

		for s := range dep.UsedSymbolsDown {
			switch {
			case !rec.HasSymbols,
				rec.BundleBehavior == BundleBehaviorIsolated,
				rec.BundleBehavior == BundleBehaviorInline,
				s == star,
				asset.UsedSymbols.Has(s):
				next[s] = resolvedTo(asset.Handle, s)

			default:
				if resolved, ok := reexportedSymbols[s]; ok {
					if rec.SideEffects {
						next[s] = resolvedTo(asset.Handle, s)
					} else {
						next[s] = resolved
					}
				} else if !hasNamespaceReexport {
					diagnostics = append(diagnostics, Diagnostic{
						Message:  fmt.Sprintf("%s does not export '%s'", rec.FilePath, db.ReadCachedString(s)),
						FilePath: rec.FilePath,
						Loc:      symbolLoc(depRec, s),
					})
				}
				// else: s is expected to resolve through a namespace
				// reexport that hasn't itself resolved yet; leave it
				// absent from next until a later pass fills it in.
			}
		}

		if !resolutionMapsEqual(old, next) {
			dep.UsedSymbolsUp = next
			dep.UsedSymbolsUpDirtyUp = true
			changed = append(changed, depId)
		}

		dep.Excluded = depRec.HasSymbols && len(dep.UsedSymbolsUp) == 0 && dependencyResolvesToSingleSideEffectFreeGroup(g, depId)
	}

	return upResult{diagnostics: diagnostics, changedIncoming: changed}
}

func dependencyResolvesToSingleSideEffectFreeGroup(g *AssetGraph, depId graph.NodeId) bool {
	groups := dependencyAssetGroups(g, depId)
	return len(groups) == 1 && !groups[0].SideEffects
}
