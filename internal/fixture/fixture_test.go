package fixture_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundleforge/graphcore/internal/fixture"
	"github.com/bundleforge/graphcore/internal/metrics"
	"github.com/bundleforge/graphcore/internal/symbolprop"
)

// gatherMetric sums every sample of the named metric family across a
// registry, however many label combinations it was recorded under.
func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += metricValue(m)
		}
	}
	return total
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	default:
		return 0
	}
}

const chainYAML = `
assets:
  - key: a.js
    filePath: src/a.js
    symbols:
      - exported: bar
        local: bar
  - key: b.js
    filePath: src/b.js
    sideEffects: true
    symbols:
      - exported: bar
        local: bar
dependencies:
  - key: d1
    from: root
    to: a.js
    specifier: "./a"
    symbols:
      - exported: bar
        local: barName
  - key: d2
    from: a.js
    to: b.js
    specifier: "./b"
    symbols:
      - exported: bar
        local: bar
        weak: true
`

func TestLoadAndBuildChain(t *testing.T) {
	f, err := fixture.Load([]byte(chainYAML))
	require.NoError(t, err)

	built, err := fixture.Build(f, nil)
	require.NoError(t, err)
	require.True(t, built.HasRoot)

	aId, ok := built.Graph.NodeIdForContentKey("a.js")
	require.True(t, ok)
	node, ok := built.Graph.GetNode(aId)
	require.True(t, ok)
	assert.Equal(t, symbolprop.NodeAsset, node.Kind)

	d1Id, ok := built.Graph.NodeIdForContentKey("d1")
	require.True(t, ok)
	dep, ok := built.Graph.GetNode(d1Id)
	require.True(t, ok)
	require.NotNil(t, dep.Dependency)

	rec := built.DB.GetDependency(dep.Dependency.Handle)
	assert.Equal(t, "./a", rec.Specifier)
	assert.True(t, rec.HasSymbols)
}

func TestBuildRejectsDependencyToUnknownTarget(t *testing.T) {
	f, err := fixture.Load([]byte(`
assets:
  - key: a.js
dependencies:
  - key: d1
    from: root
    to: missing.js
`))
	require.NoError(t, err)

	_, err = fixture.Build(f, nil)
	assert.Error(t, err)
}

func TestGroupIndirectionWiresToEveryMember(t *testing.T) {
	f, err := fixture.Load([]byte(`
assets:
  - key: x.js
  - key: y.js
groups:
  - key: g1
    sideEffects: false
    assets: [x.js, y.js]
dependencies:
  - key: d1
    from: root
    to: g1
    specifier: "./cond"
`))
	require.NoError(t, err)

	built, err := fixture.Build(f, nil)
	require.NoError(t, err)

	d1Id, ok := built.Graph.NodeIdForContentKey("d1")
	require.True(t, ok)
	g1Id, ok := built.Graph.NodeIdForContentKey("g1")
	require.True(t, ok)

	members := built.Graph.GetNodeIdsConnectedFrom(g1Id, symbolprop.DependencyEdge)
	assert.Len(t, members, 2)
	assert.Contains(t, built.Graph.GetNodeIdsConnectedFrom(d1Id, symbolprop.DependencyEdge), g1Id)
}

func TestBuildReportsGraphMutationMetrics(t *testing.T) {
	f, err := fixture.Load([]byte(chainYAML))
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	built, err := fixture.Build(f, metrics.NewRegistry(promReg))
	require.NoError(t, err)
	require.True(t, built.HasRoot)

	// 2 assets + 1 root + 2 dependencies = 5 nodes; each dependency wires
	// two edges (from its source, to its target) = 4 edges.
	assert.Equal(t, float64(5), gatherMetric(t, promReg, "graphcore_graph_nodes_added_total"))
	assert.Equal(t, float64(4), gatherMetric(t, promReg, "graphcore_graph_live_edges"))
	assert.Equal(t, float64(4), gatherMetric(t, promReg, "graphcore_graph_edges_added_total"))
}

func TestPropagateSymbolsOverFixtureChain(t *testing.T) {
	f, err := fixture.Load([]byte(chainYAML))
	require.NoError(t, err)
	built, err := fixture.Build(f, nil)
	require.NoError(t, err)

	diags := symbolprop.PropagateSymbols(symbolprop.Input{
		DB:            built.DB,
		Graph:         built.Graph,
		ChangedAssets: []string{"a.js", "b.js"},
	})
	assert.Empty(t, diags)

	d1Id, _ := built.Graph.NodeIdForContentKey("d1")
	d1, _ := built.Graph.GetNode(d1Id)
	assert.Len(t, d1.Dependency.UsedSymbolsUp, 1)
}
