// Package calculator computes node-level reliability and combines
// reliabilities under series, parallel and k-of-n rules.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/gyaneshwarpardhi/rbdengine/internal/adapter"
	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

// ErrInvalidKNParameters is returned when k > n or either is negative.
var ErrInvalidKNParameters = errors.New("invalid k/n parameters")

// Calculator applies structural multiplicity on top of the adapter's
// single-unit survival function.
type Calculator struct {
	adapter *adapter.Adapter
}

// New returns a Calculator backed by a.
func New(a *adapter.Adapter) *Calculator {
	return &Calculator{adapter: a}
}

// Reliability is the raw single-unit reliability of node at t.
func (c *Calculator) Reliability(node *rbd.Node, t float64) (float64, error) {
	return c.adapter.NodeReliability(node, t)
}

// NodeReliabilityWithCount returns the node's reliability at t including its
// multiplicity: SF^c for a series node of c components, the k-of-n binomial
// sum for a parallel node, and 1 for kn and control nodes.
func (c *Calculator) NodeReliabilityWithCount(node *rbd.Node, t float64) (float64, error) {
	eval, err := c.Prepare(node)
	if err != nil {
		return 0, err
	}
	return eval(t)
}

// Evaluator returns a node's reliability at one time point.
type Evaluator func(t float64) (float64, error)

// Prepare resolves the node's distribution and structural parameters once so
// the returned Evaluator can be called for every point of a time grid.
func (c *Calculator) Prepare(node *rbd.Node) (Evaluator, error) {
	d, err := c.adapter.Distribution(node)
	if err != nil {
		return nil, err
	}
	props := node.Properties
	switch props.NodeType {
	case rbd.NodeSeries:
		count := props.ComponentCount
		if count <= 0 {
			count = 1
		}
		return func(t float64) (float64, error) {
			return math.Pow(d.SF(t), float64(count)), nil
		}, nil
	case rbd.NodeParallel:
		k, n := props.K, props.N
		if k == 0 {
			k = 1
		}
		if n == 0 {
			n = 1
		}
		if err := checkKN(k, n); err != nil {
			return nil, fmt.Errorf("node %s: %w", node.ID, err)
		}
		return func(t float64) (float64, error) {
			return KN(k, n, d.SF(t))
		}, nil
	default:
		// start, end and kn: structural only.
		return func(float64) (float64, error) { return 1, nil }, nil
	}
}

// Curve evaluates the node at every time in times.
func (c *Calculator) Curve(node *rbd.Node, times []float64) ([]float64, error) {
	eval, err := c.Prepare(node)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(times))
	for i, t := range times {
		if out[i], err = eval(t); err != nil {
			return nil, fmt.Errorf("node %s at t=%v: %w", node.ID, t, err)
		}
	}
	return out, nil
}

func checkKN(k, n int) error {
	if k < 0 || n < 0 || k > n {
		return fmt.Errorf("%w: k=%d, n=%d", ErrInvalidKNParameters, k, n)
	}
	return nil
}

// KN is the probability that at least k of n identical units with
// reliability r survive: Σ_{i=k}^{n} C(n,i) r^i (1-r)^(n-i).
func KN(k, n int, r float64) (float64, error) {
	if err := checkKN(k, n); err != nil {
		return 0, err
	}
	if k == 0 {
		return 1, nil
	}
	if k == n {
		return math.Pow(r, float64(n)), nil
	}
	var sum float64
	for i := k; i <= n; i++ {
		sum += Binomial(n, i) * math.Pow(r, float64(i)) * math.Pow(1-r, float64(n-i))
	}
	return sum, nil
}

// Binomial returns C(n, i) using the multiplicative form
// Π_{j=1}^{i} (n-i+j)/j, which avoids factorial overflow.
func Binomial(n, i int) float64 {
	if i < 0 || i > n {
		return 0
	}
	if i > n-i {
		i = n - i
	}
	c := 1.0
	for j := 1; j <= i; j++ {
		c *= float64(n-i+j) / float64(j)
	}
	return c
}

// KOfN is the probability that at least k of the units survive when unit j
// survives independently with probability rs[j]. It sums over every subset
// using the Poisson-binomial recurrence; for equal rs it matches KN.
func KOfN(k int, rs []float64) (float64, error) {
	n := len(rs)
	if err := checkKN(k, n); err != nil {
		return 0, err
	}
	if k == 0 {
		return 1, nil
	}
	// dp[j] = P(exactly j survivors among the units seen so far)
	dp := make([]float64, n+1)
	dp[0] = 1
	for u, r := range rs {
		for j := u + 1; j >= 1; j-- {
			dp[j] = dp[j]*(1-r) + dp[j-1]*r
		}
		dp[0] *= 1 - r
	}
	var sum float64
	for j := k; j <= n; j++ {
		sum += dp[j]
	}
	return clamp01(sum), nil
}

// Series is the product of rs; an empty set is fully reliable.
func Series(rs ...float64) float64 {
	p := 1.0
	for _, r := range rs {
		p *= r
	}
	return p
}

// Parallel is 1 - Π(1 - r): the group survives while any unit survives.
func Parallel(rs ...float64) float64 {
	q := 1.0
	for _, r := range rs {
		q *= 1 - r
	}
	return 1 - q
}

// CombineParallel folds the reliabilities of a redundant group of n branches
// of which k are required. k == n denotes a plain redundant group and uses
// Parallel; k < n uses KOfN. When fewer than n values are supplied the last
// one stands in for the missing units. An empty group is 0.
func CombineParallel(rs []float64, k, n int) (float64, error) {
	if len(rs) == 0 {
		return 0, nil
	}
	if err := checkKN(k, n); err != nil {
		return 0, err
	}
	if len(rs) > n {
		return 0, fmt.Errorf("%w: %d reliabilities for n=%d", ErrInvalidKNParameters, len(rs), n)
	}
	if k == n {
		return Parallel(rs...), nil
	}
	units := rs
	if len(rs) < n {
		units = make([]float64, n)
		copy(units, rs)
		for i := len(rs); i < n; i++ {
			units[i] = rs[len(rs)-1]
		}
	}
	return KOfN(k, units)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
