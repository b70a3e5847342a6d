// Package symbolprop implements the two-phase fixpoint symbol propagation
// pass that drives dead-code elimination over an asset/dependency graph: a
// down pass computes which symbols are requested of each dependency, an up
// pass resolves each requested symbol to the asset (and, if known, the
// exact local symbol) that actually defines it.
//
// The pass never adds or removes graph nodes or edges — it only mutates
// the propagation state (dirty flags and symbol sets) carried on asset and
// dependency nodes, and it never holds a payload reference across a call
// that could trigger a graph resize; every lookup goes back through the
// DB by handle.
package symbolprop

import (
	"sort"

	"github.com/bundleforge/graphcore/internal/graph"
)

// SymbolId is an interned integer naming a symbol; the DB is the only
// authority translating one to a human-readable string.
type SymbolId uint32

// EdgeType is the asset graph's sole edge kind — dependency/asset-group
// linkage doesn't need to be distinguished by type for propagation
// purposes, so every edge added through AddDefaultEdge uses this type.
type EdgeType uint32

// DependencyEdge is the default (and only) edge type this graph uses.
const DependencyEdge EdgeType = 1

// AssetGraph is a graph.Graph specialized to asset-graph nodes.
type AssetGraph = graph.Graph[*Node, EdgeType]

// NodeKind discriminates the tagged union of node payloads.
type NodeKind int

const (
	NodeRoot NodeKind = iota
	NodeAsset
	NodeDependency
	NodeAssetGroup
)

// AssetHandle, DependencyHandle and AssetGroupHandle are opaque references
// into the external DB; the graph and propagator never interpret them,
// only pass them back to DB lookups.
type AssetHandle uint32
type DependencyHandle uint32
type AssetGroupHandle uint32

// SymbolSet is a small, order-independent set of SymbolIds.
type SymbolSet map[SymbolId]struct{}

func NewSymbolSet(ids ...SymbolId) SymbolSet {
	s := make(SymbolSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SymbolSet) Add(id SymbolId)      { s[id] = struct{}{} }
func (s SymbolSet) Remove(id SymbolId)   { delete(s, id) }
func (s SymbolSet) Has(id SymbolId) bool { _, ok := s[id]; return ok }
func (s SymbolSet) Len() int             { return len(s) }

func (s SymbolSet) Clone() SymbolSet {
	out := make(SymbolSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s SymbolSet) Equal(other SymbolSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

func (s SymbolSet) SortedKeys() []SymbolId {
	out := make([]SymbolId, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SymbolResolution is what a dependency's requested symbol resolved to:
// either a concrete (asset, symbol) pair, or "ambiguous" (Ambiguous ==
// true), meaning two conflicting resolutions collapsed during the up pass.
type SymbolResolution struct {
	Ambiguous bool
	Asset     AssetHandle
	Symbol    SymbolId
	HasSymbol bool // false means "resolves to the asset's namespace as a whole"
}

func resolvedTo(asset AssetHandle, symbol SymbolId) SymbolResolution {
	return SymbolResolution{Asset: asset, Symbol: symbol, HasSymbol: true}
}

func ambiguousResolution() SymbolResolution {
	return SymbolResolution{Ambiguous: true}
}

// Node is the tagged-union payload stored at every asset-graph NodeId.
// Exactly one of Asset/Dependency/AssetGroup is non-nil, matching Kind.
type Node struct {
	Kind       NodeKind
	Asset      *AssetNodeState
	Dependency *DependencyNodeState
	AssetGroup *AssetGroupNodeState
}

// AssetNodeState is the propagation state carried by an asset node. The
// asset's declared symbols/filePath/sideEffects live in the DB, keyed by
// Handle — not here — so they survive independent of graph resizes.
type AssetNodeState struct {
	Handle               AssetHandle
	UsedSymbols          SymbolSet
	UsedSymbolsDownDirty bool
	UsedSymbolsUpDirty   bool
}

// DependencyNodeState is the propagation state carried by a dependency
// node.
type DependencyNodeState struct {
	Handle                 DependencyHandle
	UsedSymbolsDown        SymbolSet
	UsedSymbolsUp          map[SymbolId]SymbolResolution
	UsedSymbolsUpOrder     []SymbolId // ascending SymbolId order, set by finalize
	UsedSymbolsDownDirty   bool
	UsedSymbolsUpDirtyDown bool
	UsedSymbolsUpDirtyUp   bool
	Excluded               bool
}

// AssetGroupNodeState marks an indirection node: a dependency may resolve
// to one of several assets (platform-conditional exports, say) through an
// asset group rather than directly to an asset.
type AssetGroupNodeState struct {
	Handle      AssetGroupHandle
	SideEffects bool
}

func NewAssetNode(handle AssetHandle) *Node {
	return &Node{Kind: NodeAsset, Asset: &AssetNodeState{
		Handle:      handle,
		UsedSymbols: NewSymbolSet(),
	}}
}

func NewDependencyNode(handle DependencyHandle) *Node {
	return &Node{Kind: NodeDependency, Dependency: &DependencyNodeState{
		Handle:          handle,
		UsedSymbolsDown: NewSymbolSet(),
		UsedSymbolsUp:   make(map[SymbolId]SymbolResolution),
	}}
}

func NewAssetGroupNode(handle AssetGroupHandle, sideEffects bool) *Node {
	return &Node{Kind: NodeAssetGroup, AssetGroup: &AssetGroupNodeState{
		Handle:      handle,
		SideEffects: sideEffects,
	}}
}

func NewRootNode() *Node {
	return &Node{Kind: NodeRoot}
}
