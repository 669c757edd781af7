package adapter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/rbdengine/internal/adapter"
	"github.com/gyaneshwarpardhi/rbdengine/internal/distribution"
	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

func node(id string, nt rbd.NodeType, d *rbd.DistributionBlock) *rbd.Node {
	return &rbd.Node{ID: id, Properties: &rbd.Properties{NodeType: nt, Distribution: d}}
}

func TestControlNodesAreFullyReliable(t *testing.T) {
	a := adapter.New()
	for _, nt := range []rbd.NodeType{rbd.NodeStart, rbd.NodeEnd, rbd.NodeKN} {
		r, err := a.NodeReliability(node("n", nt, nil), 500)
		require.NoError(t, err, nt)
		assert.Equal(t, 1.0, r, nt)
	}
}

func TestLegacyBlocksSelectFamily(t *testing.T) {
	a := adapter.New()
	cases := []struct {
		block *rbd.DistributionBlock
		want  distribution.Kind
	}{
		{&rbd.DistributionBlock{Type: "exponential", LegacyRate: 0.01}, distribution.Exponential1P},
		{&rbd.DistributionBlock{Type: "Exponential", LegacyRate: 0.01, Location: 5}, distribution.Exponential2P},
		{&rbd.DistributionBlock{Type: "weibull", Scale: 100, Shape: 2}, distribution.Weibull2P},
		{&rbd.DistributionBlock{Type: "weibull", Scale: 100, Shape: 2, Location: 10}, distribution.Weibull3P},
		{&rbd.DistributionBlock{Type: "gamma", Scale: 100, Shape: 2}, distribution.Gamma2P},
		{&rbd.DistributionBlock{Type: "lognormal", Mu: 4, Sigma: 0.5, Location: 1}, distribution.Lognormal3P},
		{&rbd.DistributionBlock{Type: "normal", Mu: 100, Sigma: 10}, distribution.Normal2P},
		{&rbd.DistributionBlock{Type: "gumbel", Mu: 100, Sigma: 10}, distribution.Gumbel2P},
		{&rbd.DistributionBlock{Type: "loglogistic", Scale: 50, Shape: 3}, distribution.Loglogistic2P},
	}
	for _, tc := range cases {
		spec, err := a.Spec(node("c", rbd.NodeSeries, tc.block))
		require.NoError(t, err)
		assert.Equal(t, tc.want, spec.Kind, tc.block.Type)
		require.NoError(t, a.ValidateSpec(spec), tc.block.Type)
	}
}

func TestCanonicalBlock(t *testing.T) {
	a := adapter.New()
	n := node("c", rbd.NodeParallel, &rbd.DistributionBlock{Family: "Exponential_1P", Lambda: 0.001})

	r, err := a.NodeReliability(n, 500)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.5), r, 1e-12)

	d, err := a.Distribution(n)
	require.NoError(t, err)
	assert.Equal(t, distribution.Exponential1P, d.Kind())
}

func TestErrors(t *testing.T) {
	a := adapter.New()
	cases := []struct {
		name string
		node *rbd.Node
		want error
	}{
		{"no properties", &rbd.Node{ID: "x"}, adapter.ErrMissingProperties},
		{"no distribution", node("x", rbd.NodeSeries, nil), adapter.ErrMissingProperties},
		{"no type", node("x", rbd.NodeSeries, &rbd.DistributionBlock{Scale: 1}), adapter.ErrMissingProperties},
		{"unknown legacy type", node("x", rbd.NodeSeries, &rbd.DistributionBlock{Type: "cauchy"}), adapter.ErrUnsupportedDistribution},
		{"unknown family", node("x", rbd.NodeSeries, &rbd.DistributionBlock{Family: "Beta_2P"}), adapter.ErrUnsupportedDistribution},
		{"zero rate", node("x", rbd.NodeSeries, &rbd.DistributionBlock{Type: "exponential"}), adapter.ErrInvalidParameter},
		{"negative shape", node("x", rbd.NodeSeries, &rbd.DistributionBlock{Family: "Weibull_2P", Alpha: 1, Beta: -2}), adapter.ErrInvalidParameter},
		{"infinite mu", node("x", rbd.NodeSeries, &rbd.DistributionBlock{Family: "Normal_2P", Mu: math.Inf(1), Sigma: 1}), adapter.ErrInvalidParameter},
		{"unknown node type", node("x", "bridge", nil), adapter.ErrUnknownNodeType},
		{"negative component count", &rbd.Node{ID: "x", Properties: &rbd.Properties{
			NodeType: rbd.NodeSeries, ComponentCount: -1,
			Distribution: &rbd.DistributionBlock{Type: "exponential", LegacyRate: 0.1},
		}}, adapter.ErrInvalidProperties},
		{"negative maintenance time", &rbd.Node{ID: "x", Properties: &rbd.Properties{
			NodeType: rbd.NodeStart, Maintenance: &rbd.Maintenance{MaintenanceTime: -4},
		}}, adapter.ErrInvalidProperties},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.NodeReliability(tc.node, 10)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "node x")
		})
	}
}

func TestSupportedDistributions(t *testing.T) {
	names := adapter.SupportedDistributions()
	assert.Len(t, names, 12)
	assert.Contains(t, names, "Weibull_3P")
	assert.Contains(t, names, "Loglogistic_2P")
}
