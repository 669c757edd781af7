package calculator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gyaneshwarpardhi/rbdengine/internal/adapter"
	"github.com/gyaneshwarpardhi/rbdengine/internal/calculator"
	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

const eps = 1e-12

func expNode(id string, nt rbd.NodeType, rate float64) *rbd.Node {
	return &rbd.Node{ID: id, Properties: &rbd.Properties{
		NodeType:     nt,
		Distribution: &rbd.DistributionBlock{Family: "Exponential_1P", Lambda: rate},
	}}
}

func TestKNBoundaries(t *testing.T) {
	cases := []struct {
		k, n int
		r    float64
		want float64
	}{
		{0, 5, 0.3, 1},
		{3, 3, 0.9, 0.729},
		{1, 2, 0.5, 0.75},
		{2, 3, 0.9, 0.972},
	}
	for _, tc := range cases {
		got, err := calculator.KN(tc.k, tc.n, tc.r)
		if err != nil {
			t.Fatalf("KN(%d,%d,%v): %v", tc.k, tc.n, tc.r, err)
		}
		if math.Abs(got-tc.want) > eps {
			t.Errorf("KN(%d,%d,%v) = %v, want %v", tc.k, tc.n, tc.r, got, tc.want)
		}
	}
}

func TestKNRejectsInvalidParameters(t *testing.T) {
	for _, kn := range [][2]int{{3, 2}, {-1, 2}, {1, -1}} {
		if _, err := calculator.KN(kn[0], kn[1], 0.5); !errors.Is(err, calculator.ErrInvalidKNParameters) {
			t.Errorf("KN(%d,%d) error = %v", kn[0], kn[1], err)
		}
	}
}

func TestBinomial(t *testing.T) {
	if got := calculator.Binomial(5, 2); got != 10 {
		t.Errorf("C(5,2) = %v", got)
	}
	if got := calculator.Binomial(60, 30); math.Abs(got-1.1826458156486e17)/got > 1e-9 {
		t.Errorf("C(60,30) = %v", got)
	}
	if got := calculator.Binomial(3, 4); got != 0 {
		t.Errorf("C(3,4) = %v", got)
	}
}

func TestKOfNHeterogeneous(t *testing.T) {
	// 2-of-3 with 0.9, 0.8, 0.7: P = .9*.8*.3 + .9*.2*.7 + .1*.8*.7 + .9*.8*.7
	want := 0.216 + 0.126 + 0.056 + 0.504
	got, err := calculator.KOfN(2, []float64{0.9, 0.8, 0.7})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-want) > eps {
		t.Errorf("KOfN = %v, want %v", got, want)
	}
}

func TestCombineParallel(t *testing.T) {
	r := math.Exp(-1)
	got, err := calculator.CombineParallel([]float64{r, r}, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1 - (1-r)*(1-r); math.Abs(got-want) > eps {
		t.Errorf("1-of-2 = %v, want %v", got, want)
	}

	got, _ = calculator.CombineParallel([]float64{0.5, 0.5, 0.5}, 3, 3)
	if math.Abs(got-0.875) > eps {
		t.Errorf("k=n group = %v, want 0.875", got)
	}

	// A single supplied value stands in for all n units.
	got, _ = calculator.CombineParallel([]float64{0.9}, 2, 3)
	if math.Abs(got-0.972) > eps {
		t.Errorf("padded 2-of-3 = %v, want 0.972", got)
	}

	if got, _ := calculator.CombineParallel(nil, 1, 2); got != 0 {
		t.Errorf("empty group = %v", got)
	}
	if _, err := calculator.CombineParallel([]float64{1, 1, 1}, 1, 2); !errors.Is(err, calculator.ErrInvalidKNParameters) {
		t.Errorf("too many values: %v", err)
	}
}

func TestNodeReliabilityWithCount(t *testing.T) {
	c := calculator.New(adapter.New())
	unit := math.Exp(-0.5)

	series := expNode("pump", rbd.NodeSeries, 0.001)
	series.Properties.ComponentCount = 3
	got, err := c.NodeReliabilityWithCount(series, 500)
	if err != nil {
		t.Fatal(err)
	}
	if want := math.Pow(unit, 3); math.Abs(got-want) > eps {
		t.Errorf("series x3 = %v, want %v", got, want)
	}

	// componentCount 0 means a single component.
	single := expNode("fan", rbd.NodeSeries, 0.001)
	got, _ = c.NodeReliabilityWithCount(single, 500)
	if math.Abs(got-unit) > eps {
		t.Errorf("series default count = %v, want %v", got, unit)
	}

	par := expNode("valves", rbd.NodeParallel, 0.001)
	par.Properties.K, par.Properties.N = 2, 3
	got, _ = c.NodeReliabilityWithCount(par, 500)
	want, _ := calculator.KN(2, 3, unit)
	if math.Abs(got-want) > eps {
		t.Errorf("parallel 2/3 = %v, want %v", got, want)
	}

	bad := expNode("bad", rbd.NodeParallel, 0.001)
	bad.Properties.K, bad.Properties.N = 4, 3
	if _, err := c.NodeReliabilityWithCount(bad, 500); !errors.Is(err, calculator.ErrInvalidKNParameters) {
		t.Errorf("k>n node error = %v", err)
	}

	kn := &rbd.Node{ID: "vote", Properties: &rbd.Properties{NodeType: rbd.NodeKN, K: 2, N: 3}}
	if got, err := c.NodeReliabilityWithCount(kn, 500); err != nil || got != 1 {
		t.Errorf("kn node = %v, %v", got, err)
	}
}

func TestCurve(t *testing.T) {
	c := calculator.New(adapter.New())
	got, err := c.Curve(expNode("a", rbd.NodeSeries, 0.001), []float64{0, 500, 1000})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, math.Exp(-0.5), math.Exp(-1)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > eps {
			t.Errorf("curve[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := c.Curve(&rbd.Node{ID: "x", Properties: &rbd.Properties{NodeType: rbd.NodeSeries}}, []float64{0}); !errors.Is(err, adapter.ErrMissingProperties) {
		t.Errorf("missing distribution error = %v", err)
	}
}
