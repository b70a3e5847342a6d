// Package fixture decodes a YAML description of an asset graph into a
// symbolprop.AssetGraph and its backing symbolprop.MemoryDB, so tests and
// the debug CLI can describe a graph as data instead of building it
// node-by-node in Go.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bundleforge/graphcore/internal/graph"
	"github.com/bundleforge/graphcore/internal/metrics"
	"github.com/bundleforge/graphcore/internal/symbolprop"
)

// Symbol is one entry of an asset's or a dependency's declared symbol
// table. Local defaults to Exported when left empty; Weak is only
// meaningful on a dependency's declarations.
type Symbol struct {
	Exported string `yaml:"exported"`
	Local    string `yaml:"local"`
	Weak     bool   `yaml:"weak"`
}

// Asset describes one asset node, keyed by a stable ContentKey used to
// wire edges and to address it later via graph.NodeIdForContentKey.
type Asset struct {
	Key            string   `yaml:"key"`
	FilePath       string   `yaml:"filePath"`
	Symbols        []Symbol `yaml:"symbols"`
	HasSymbols     bool     `yaml:"hasSymbols"`
	SideEffects    bool     `yaml:"sideEffects"`
	BundleBehavior string   `yaml:"bundleBehavior"` // "", "isolated", "inline"
}

// Group describes an asset-group indirection node: a dependency may
// resolve to one of several assets through a group rather than directly.
type Group struct {
	Key         string   `yaml:"key"`
	SideEffects bool     `yaml:"sideEffects"`
	Assets      []string `yaml:"assets"`
}

// Dependency describes one dependency edge: From is an asset key or the
// literal "root"; To is an asset key or a group key.
type Dependency struct {
	Key            string   `yaml:"key"`
	From           string   `yaml:"from"`
	To             string   `yaml:"to"`
	Specifier      string   `yaml:"specifier"`
	Symbols        []Symbol `yaml:"symbols"`
	HasSymbols     bool     `yaml:"hasSymbols"`
	HasSourceAsset bool     `yaml:"hasSourceAsset"`
}

// Graph is the top-level fixture document.
type Graph struct {
	Assets       []Asset      `yaml:"assets"`
	Groups       []Group      `yaml:"groups"`
	Dependencies []Dependency `yaml:"dependencies"`
}

// LoadFile reads and decodes a fixture from path.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
	}
	return Load(data)
}

// Load decodes a fixture document from raw YAML bytes.
func Load(data []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("fixture: parsing yaml: %w", err)
	}
	return &g, nil
}

// Built is everything Build produces: the graph, its DB, and the root
// NodeId if one was wired.
type Built struct {
	Graph   *symbolprop.AssetGraph
	DB      *symbolprop.MemoryDB
	RootId  graph.NodeId
	HasRoot bool
}

// Build materializes a fixture into a live asset graph and DB. Every
// asset/dependency's declared symbols are interned into db, so the
// returned DB is self-contained and ready for symbolprop.PropagateSymbols.
// reg may be nil, in which case the graph's mutation counters are no-ops.
func Build(f *Graph, reg *metrics.Registry) (*Built, error) {
	db := symbolprop.NewMemoryDB()
	g := graph.New[*symbolprop.Node, symbolprop.EdgeType]()
	g.SetMetrics(reg)

	for _, a := range f.Assets {
		if a.Key == "" {
			return nil, fmt.Errorf("fixture: asset with empty key")
		}
		rec := symbolprop.AssetRecord{
			FilePath:       a.FilePath,
			HasSymbols:     a.HasSymbols || len(a.Symbols) > 0,
			SideEffects:    a.SideEffects,
			BundleBehavior: bundleBehaviorFromString(a.BundleBehavior),
		}
		for _, s := range a.Symbols {
			rec.Symbols = append(rec.Symbols, symbolprop.ExportedSymbol{
				Exported: db.Intern(s.Exported),
				Local:    db.Intern(local(s)),
			})
		}
		handle := db.AddAsset(rec)
		g.AddNodeWithKey(a.Key, symbolprop.NewAssetNode(handle))
	}

	for i, grp := range f.Groups {
		if grp.Key == "" {
			return nil, fmt.Errorf("fixture: group with empty key")
		}
		handle := symbolprop.AssetGroupHandle(i)
		groupId := g.AddNodeWithKey(grp.Key, symbolprop.NewAssetGroupNode(handle, grp.SideEffects))
		for _, assetKey := range grp.Assets {
			assetId, ok := g.NodeIdForContentKey(assetKey)
			if !ok {
				return nil, fmt.Errorf("fixture: group %q references unknown asset %q", grp.Key, assetKey)
			}
			if _, err := g.AddDefaultEdge(groupId, assetId); err != nil {
				return nil, fmt.Errorf("fixture: wiring group %q to asset %q: %w", grp.Key, assetKey, err)
			}
		}
	}

	built := &Built{Graph: g, DB: db}
	if needsRoot(f) {
		rootId := g.AddNodeWithKey("root", symbolprop.NewRootNode())
		if err := g.SetRootNodeId(rootId); err != nil {
			return nil, fmt.Errorf("fixture: setting root: %w", err)
		}
		built.RootId, built.HasRoot = rootId, true
	}

	for _, d := range f.Dependencies {
		if d.Key == "" {
			return nil, fmt.Errorf("fixture: dependency with empty key")
		}
		rec := symbolprop.DependencyRecord{
			Specifier:      d.Specifier,
			HasSymbols:     d.HasSymbols || len(d.Symbols) > 0,
			HasSourceAsset: d.HasSourceAsset || d.From != "root",
		}
		for _, s := range d.Symbols {
			rec.Symbols = append(rec.Symbols, symbolprop.DependencySymbolDecl{
				Exported: db.Intern(s.Exported),
				Local:    db.Intern(local(s)),
				IsWeak:   s.Weak,
			})
		}
		handle := db.AddDependency(rec)
		depId := g.AddNodeWithKey(d.Key, symbolprop.NewDependencyNode(handle))

		fromId, err := resolveEndpoint(g, built, d.From)
		if err != nil {
			return nil, fmt.Errorf("fixture: dependency %q: %w", d.Key, err)
		}
		if _, err := g.AddDefaultEdge(fromId, depId); err != nil {
			return nil, fmt.Errorf("fixture: wiring dependency %q from %q: %w", d.Key, d.From, err)
		}

		toId, ok := g.NodeIdForContentKey(d.To)
		if !ok {
			return nil, fmt.Errorf("fixture: dependency %q targets unknown node %q", d.Key, d.To)
		}
		if _, err := g.AddDefaultEdge(depId, toId); err != nil {
			return nil, fmt.Errorf("fixture: wiring dependency %q to %q: %w", d.Key, d.To, err)
		}
	}

	return built, nil
}

func resolveEndpoint(g *symbolprop.AssetGraph, built *Built, key string) (graph.NodeId, error) {
	if key == "root" {
		if !built.HasRoot {
			return graph.NullNode, fmt.Errorf("references root but no root was wired")
		}
		return built.RootId, nil
	}
	id, ok := g.NodeIdForContentKey(key)
	if !ok {
		return graph.NullNode, fmt.Errorf("references unknown node %q", key)
	}
	return id, nil
}

func needsRoot(f *Graph) bool {
	for _, d := range f.Dependencies {
		if d.From == "root" {
			return true
		}
	}
	return false
}

func local(s Symbol) string {
	if s.Local == "" {
		return s.Exported
	}
	return s.Local
}

func bundleBehaviorFromString(s string) symbolprop.BundleBehavior {
	switch s {
	case "isolated":
		return symbolprop.BundleBehaviorIsolated
	case "inline":
		return symbolprop.BundleBehaviorInline
	default:
		return symbolprop.BundleBehaviorNormal
	}
}
