package symbolprop

import (
	"time"

	"github.com/bundleforge/graphcore/internal/graph"
	"github.com/bundleforge/graphcore/internal/helpers"
	"github.com/bundleforge/graphcore/internal/logger"
	"github.com/bundleforge/graphcore/internal/metrics"
)

// Config carries the ambient concerns propagation needs beyond the graph
// and DB: the verbose warning channel for ambiguous namespace re-exports
// (written by the up pass in up.go when Verbose is set and Log has an
// AddMsg), an optional metrics sink, and
// an optional phase timer. A zero Config runs silently and unobserved.
type Config struct {
	Log     logger.Log
	Verbose bool
	Metrics *metrics.Registry
	Timer   *helpers.Timer
}

// Input bundles everything propagateSymbols needs for one run.
type Input struct {
	DB     DB
	Graph  *AssetGraph
	Config Config

	// ChangedAssets are the ContentKeys of assets whose body may have
	// changed since the last propagation.
	ChangedAssets []string

	// AssetGroupsWithRemovedParents are asset groups that lost at least
	// one inbound dependency since the last propagation.
	AssetGroupsWithRemovedParents []graph.NodeId

	// PreviousErrors, if non-nil, is folded into the result per the
	// retention rule: entries for removed nodes are dropped, entries for
	// nodes not revisited this run are kept as-is, entries for nodes
	// revisited this run are replaced by their new diagnostics, or
	// dropped from the result when the node is now clean.
	PreviousErrors map[graph.NodeId][]Diagnostic
}

// PropagateSymbols runs the full two-phase fixpoint and returns the
// updated per-node diagnostic map. It never adds or removes graph nodes
// or edges — only propagation state (dirty flags and symbol sets) on
// existing asset and dependency nodes.
func PropagateSymbols(in Input) map[graph.NodeId][]Diagnostic {
	defer in.Config.Metrics.ObservePropagationRun(time.Now())

	g := in.Graph
	db := in.DB

	var changedAssetIds []graph.NodeId
	for _, key := range in.ChangedAssets {
		if id, ok := g.NodeIdForContentKey(key); ok {
			changedAssetIds = append(changedAssetIds, id)
		}
	}

	in.Config.Timer.Begin("down pass")
	changedDeps := propagateDown(g, db, in.Config, changedAssetIds, in.AssetGroupsWithRemovedParents)
	in.Config.Timer.End("down pass")

	seedSet := make(map[graph.NodeId]bool)
	for _, depId := range changedDeps {
		for _, assetId := range dependencyTargetAssets(g, depId) {
			seedSet[assetId] = true
		}
	}
	for _, id := range changedAssetIds {
		seedSet[id] = true
	}
	seeds := make([]graph.NodeId, 0, len(seedSet))
	for id := range seedSet {
		seeds = append(seeds, id)
	}

	visited := make(map[graph.NodeId]bool)
	in.Config.Timer.Begin("up pass")
	newDiagnostics, changedIncoming := propagateUp(g, db, in.Config, seeds, visited)
	in.Config.Timer.End("up pass")

	finalize(g, changedIncoming)

	result := make(map[graph.NodeId][]Diagnostic)
	for id, errs := range in.PreviousErrors {
		if !g.HasNode(id) {
			continue // pruned: the node is gone
		}
		if !visited[id] {
			result[id] = errs // not revisited: prior errors are still valid
		}
	}
	for id, diags := range newDiagnostics {
		if len(diags) > 0 {
			result[id] = diags
		} else {
			delete(result, id)
		}
	}
	for id := range visited {
		if _, ok := newDiagnostics[id]; !ok {
			delete(result, id) // revisited and now clean
		}
	}

	total := 0
	for _, diags := range result {
		total += len(diags)
	}
	in.Config.Metrics.DiagnosticsEmitted(total)
	if in.Config.Log.AddMsg != nil {
		in.Config.Timer.Log(in.Config.Log)
	}

	return result
}

// finalize re-sorts usedSymbolsUp on every dependency that changed this
// run, so downstream packaging sees a deterministic key order.
func finalize(g *AssetGraph, changedDeps map[graph.NodeId]bool) {
	for depId := range changedDeps {
		node, ok := g.GetNode(depId)
		if !ok || node.Dependency == nil {
			continue
		}
		node.Dependency.UsedSymbolsUpOrder = sortedResolutionKeys(node.Dependency.UsedSymbolsUp)
	}
}

func sortedResolutionKeys(m map[SymbolId]SymbolResolution) []SymbolId {
	set := make(SymbolSet, len(m))
	for s := range m {
		set.Add(s)
	}
	return set.SortedKeys()
}
