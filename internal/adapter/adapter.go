// Package adapter maps diagram nodes onto lifetime distributions.
package adapter

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gyaneshwarpardhi/rbdengine/internal/distribution"
	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

var (
	// ErrMissingProperties is returned when a node lacks its property block
	// or a distribution-bearing node lacks its distribution.
	ErrMissingProperties = errors.New("missing node properties")

	// ErrUnknownNodeType is returned for node types outside start/end/series/parallel/kn.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrInvalidProperties is rbd's sentinel for a property block that breaks
	// its tag rules (negative counts or maintenance times).
	ErrInvalidProperties = rbd.ErrInvalidProperties

	// ErrUnsupportedDistribution and ErrInvalidParameter are the distribution
	// package's sentinels, re-exported so callers need only this package.
	ErrUnsupportedDistribution = distribution.ErrUnsupportedDistribution
	ErrInvalidParameter        = distribution.ErrInvalidParameter
)

var validate = validator.New()

type rule struct {
	param string
	tag   string
}

var (
	rate     = rule{"lambda_", "gt=0"}
	scale    = rule{"alpha", "gt=0"}
	shape    = rule{"beta", "gt=0"}
	location = rule{"gamma", "gte=0"}
	spread   = rule{"sigma", "gt=0"}
)

// parameterRules mirrors the distribution constructors' constraints.
var parameterRules = map[distribution.Kind][]rule{
	distribution.Exponential1P: {rate},
	distribution.Exponential2P: {rate, location},
	distribution.Weibull2P:     {scale, shape},
	distribution.Weibull3P:     {scale, shape, location},
	distribution.Gamma2P:       {scale, shape},
	distribution.Gamma3P:       {scale, shape, location},
	distribution.Loglogistic2P: {scale, shape},
	distribution.Loglogistic3P: {scale, shape, location},
	distribution.Normal2P:      {spread},
	distribution.Gumbel2P:      {spread},
	distribution.Lognormal2P:   {spread},
	distribution.Lognormal3P:   {spread, location},
}

// Adapter is stateless; one instance may serve any number of requests.
type Adapter struct{}

// New returns an Adapter.
func New() *Adapter { return &Adapter{} }

// SupportedDistributions lists every family tag the adapter accepts.
func SupportedDistributions() []string {
	kinds := distribution.Families()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// Spec extracts the distribution specification from a series or parallel
// node, normalising the editor's legacy block to a family tag.
func (a *Adapter) Spec(node *rbd.Node) (distribution.Spec, error) {
	if node.Properties == nil {
		return distribution.Spec{}, errors.Wrapf(ErrMissingProperties, "node %s", node.ID)
	}
	nt := node.Properties.NodeType
	if !nt.CarriesDistribution() {
		return distribution.Spec{}, errors.Errorf("node %s: %s nodes carry no distribution", node.ID, nt)
	}
	block := node.Properties.Distribution
	if block == nil {
		return distribution.Spec{}, errors.Wrapf(ErrMissingProperties, "node %s: distribution", node.ID)
	}
	spec, err := specFromBlock(block)
	if err != nil {
		return distribution.Spec{}, errors.Wrapf(err, "node %s", node.ID)
	}
	return spec, nil
}

func specFromBlock(b *rbd.DistributionBlock) (distribution.Spec, error) {
	if b.Family != "" {
		kind, err := distribution.ParseKind(b.Family)
		if err != nil {
			return distribution.Spec{}, err
		}
		return distribution.Spec{Kind: kind, Params: distribution.Params{
			Alpha: b.Alpha, Beta: b.Beta, Gamma: b.Gamma,
			Lambda: b.Lambda, Mu: b.Mu, Sigma: b.Sigma,
		}}, nil
	}
	return legacySpec(b)
}

// legacySpec converts {type, lambda, scale, shape, location, mu, sigma}.
// A positive location selects the shifted family.
func legacySpec(b *rbd.DistributionBlock) (distribution.Spec, error) {
	shifted := b.Location > 0
	pick := func(two, three distribution.Kind) distribution.Kind {
		if shifted {
			return three
		}
		return two
	}
	p := distribution.Params{Gamma: b.Location}

	var kind distribution.Kind
	switch strings.ToLower(strings.TrimSpace(b.Type)) {
	case "":
		return distribution.Spec{}, errors.Wrap(ErrMissingProperties, "distribution type")
	case "exponential":
		kind = pick(distribution.Exponential1P, distribution.Exponential2P)
		p.Lambda = b.LegacyRate
		if p.Lambda == 0 {
			p.Lambda = b.Lambda
		}
	case "weibull":
		kind = pick(distribution.Weibull2P, distribution.Weibull3P)
		p.Alpha, p.Beta = b.Scale, b.Shape
	case "gamma":
		kind = pick(distribution.Gamma2P, distribution.Gamma3P)
		p.Alpha, p.Beta = b.Scale, b.Shape
	case "loglogistic":
		kind = pick(distribution.Loglogistic2P, distribution.Loglogistic3P)
		p.Alpha, p.Beta = b.Scale, b.Shape
	case "lognormal":
		kind = pick(distribution.Lognormal2P, distribution.Lognormal3P)
		p.Mu, p.Sigma = b.Mu, b.Sigma
	case "normal":
		kind = distribution.Normal2P
		p.Mu, p.Sigma = b.Mu, b.Sigma
	case "gumbel":
		kind = distribution.Gumbel2P
		p.Mu, p.Sigma = b.Mu, b.Sigma
	default:
		return distribution.Spec{}, errors.Wrapf(ErrUnsupportedDistribution, "%q", b.Type)
	}
	return distribution.Spec{Kind: kind, Params: p}, nil
}

// ValidateSpec checks the parameters against the family's rules before any
// construction is attempted.
func (a *Adapter) ValidateSpec(s distribution.Spec) error {
	rules, ok := parameterRules[s.Kind]
	if !ok {
		return errors.Wrapf(ErrUnsupportedDistribution, "%q", string(s.Kind))
	}
	for _, r := range rules {
		v := paramValue(s.Params, r.param)
		if math.IsInf(v, 0) || validate.Var(v, r.tag) != nil {
			return errors.Wrapf(ErrInvalidParameter, "%s: %s=%v violates %s", s.Kind, r.param, v, r.tag)
		}
	}
	if s.Kind == distribution.Normal2P || s.Kind == distribution.Gumbel2P ||
		s.Kind == distribution.Lognormal2P || s.Kind == distribution.Lognormal3P {
		if math.IsNaN(s.Mu) || math.IsInf(s.Mu, 0) {
			return errors.Wrapf(ErrInvalidParameter, "%s: mu=%v must be finite", s.Kind, s.Mu)
		}
	}
	return nil
}

func paramValue(p distribution.Params, name string) float64 {
	switch name {
	case "alpha":
		return p.Alpha
	case "beta":
		return p.Beta
	case "gamma":
		return p.Gamma
	case "lambda_":
		return p.Lambda
	case "mu":
		return p.Mu
	case "sigma":
		return p.Sigma
	}
	return math.NaN()
}

// Distribution builds the node's distribution. Start, end and kn nodes carry
// none and yield (nil, nil).
func (a *Adapter) Distribution(node *rbd.Node) (*distribution.Distribution, error) {
	if node.Properties == nil {
		return nil, errors.Wrapf(ErrMissingProperties, "node %s", node.ID)
	}
	nt := node.Properties.NodeType
	switch nt {
	case rbd.NodeStart, rbd.NodeEnd, rbd.NodeKN, rbd.NodeSeries, rbd.NodeParallel:
	default:
		return nil, errors.Wrapf(ErrUnknownNodeType, "node %s: %q", node.ID, string(nt))
	}
	if err := rbd.ValidateProperties(node); err != nil {
		return nil, err
	}
	if !nt.CarriesDistribution() {
		return nil, nil
	}
	spec, err := a.Spec(node)
	if err != nil {
		return nil, err
	}
	if err := a.ValidateSpec(spec); err != nil {
		return nil, errors.Wrapf(err, "node %s", node.ID)
	}
	d, err := distribution.FromSpec(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "node %s", node.ID)
	}
	return d, nil
}

// ValidateNode reports whether the node's properties are usable for a
// calculation.
func (a *Adapter) ValidateNode(node *rbd.Node) error {
	_, err := a.Distribution(node)
	return err
}

// NodeReliability returns the raw single-unit reliability SF(t). Control and
// kn nodes are 1 by definition.
func (a *Adapter) NodeReliability(node *rbd.Node, t float64) (float64, error) {
	d, err := a.Distribution(node)
	if err != nil {
		return 0, err
	}
	if d == nil {
		return 1, nil
	}
	return d.SF(t), nil
}
