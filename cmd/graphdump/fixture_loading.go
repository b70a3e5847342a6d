package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bundleforge/graphcore/internal/fixture"
	"github.com/bundleforge/graphcore/internal/metrics"
	"github.com/bundleforge/graphcore/internal/symbolprop"
)

// newMetricsRegistry returns a fresh, per-invocation metrics.Registry
// backed by its own prometheus.Registry rather than the global default
// registerer, so repeated CLI runs (or table-driven tests) never collide
// over duplicate metric registration.
func newMetricsRegistry() *metrics.Registry {
	return metrics.NewRegistry(prometheus.NewRegistry())
}

// loadAndBuild loads the fixture at path and, if synthesize > 0, appends
// that many extra side-effect-free leaf assets wired directly under the
// root. Each synthetic asset's ContentKey is a fresh UUID rather than a
// name from the fixture file, since nothing in the file describes it.
// reg may be nil, in which case the built graph reports no metrics.
func loadAndBuild(path string, synthesize int, reg *metrics.Registry) (*fixture.Built, error) {
	f, err := fixture.LoadFile(path)
	if err != nil {
		return nil, err
	}
	built, err := fixture.Build(f, reg)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	if synthesize > 0 {
		if err := addSyntheticAssets(built, synthesize); err != nil {
			return nil, err
		}
	}
	return built, nil
}

func addSyntheticAssets(built *fixture.Built, count int) error {
	if !built.HasRoot {
		return fmt.Errorf("cannot synthesize assets: fixture wires no root")
	}
	for i := 0; i < count; i++ {
		key := uuid.NewString()
		handle := built.DB.AddAsset(symbolprop.AssetRecord{
			FilePath:   key + ".js",
			HasSymbols: false,
		})
		assetId := built.Graph.AddNodeWithKey(key, symbolprop.NewAssetNode(handle))

		depHandle := built.DB.AddDependency(symbolprop.DependencyRecord{
			Specifier:      "synthetic:" + key,
			HasSourceAsset: false,
		})
		depId := built.Graph.AddNode(symbolprop.NewDependencyNode(depHandle))
		if _, err := built.Graph.AddDefaultEdge(built.RootId, depId); err != nil {
			return fmt.Errorf("wiring synthetic dependency: %w", err)
		}
		if _, err := built.Graph.AddDefaultEdge(depId, assetId); err != nil {
			return fmt.Errorf("wiring synthetic asset: %w", err)
		}
	}
	return nil
}

// graphStats reports the live node count and total edge count of g.
func graphStats(g *symbolprop.AssetGraph) (nodes, edges int) {
	s := g.Serialize()
	return len(s.Nodes), len(g.GetAllEdges())
}
