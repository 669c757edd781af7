// Package distribution evaluates parametric lifetime distributions.
//
// Every family exposes the same three functions (PDF, CDF, SF). Shifted
// ("3P", or "2P" for the exponential) forms are degenerate at or below their
// location parameter: pdf 0, cdf 0, sf 1.
package distribution

import (
	"fmt"
	"math"
	"strings"
)

// Kind tags a distribution family.
type Kind string

const (
	Exponential1P Kind = "Exponential_1P"
	Exponential2P Kind = "Exponential_2P"
	Weibull2P     Kind = "Weibull_2P"
	Weibull3P     Kind = "Weibull_3P"
	Gamma2P       Kind = "Gamma_2P"
	Gamma3P       Kind = "Gamma_3P"
	Lognormal2P   Kind = "Lognormal_2P"
	Lognormal3P   Kind = "Lognormal_3P"
	Normal2P      Kind = "Normal_2P"
	Gumbel2P      Kind = "Gumbel_2P"
	Loglogistic2P Kind = "Loglogistic_2P"
	Loglogistic3P Kind = "Loglogistic_3P"
)

var families = []Kind{
	Exponential1P, Exponential2P,
	Weibull2P, Weibull3P,
	Gamma2P, Gamma3P,
	Lognormal2P, Lognormal3P,
	Normal2P,
	Gumbel2P,
	Loglogistic2P, Loglogistic3P,
}

// Families returns every supported family tag.
func Families() []Kind {
	out := make([]Kind, len(families))
	copy(out, families)
	return out
}

// ParseKind resolves a family tag, ignoring case.
func ParseKind(s string) (Kind, error) {
	for _, k := range families {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDistribution, s)
}

// Shifted reports whether the family carries a location parameter.
func (k Kind) Shifted() bool {
	switch k {
	case Exponential2P, Weibull3P, Gamma3P, Lognormal3P, Loglogistic3P:
		return true
	}
	return false
}

// positiveSupport reports whether the family lives on (gamma, ∞).
// Normal and Gumbel are defined on the whole real line.
func (k Kind) positiveSupport() bool {
	return k != Normal2P && k != Gumbel2P
}

// Params is the union of every family's numeric parameters.
type Params struct {
	Alpha  float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`     // scale
	Beta   float64 `json:"beta,omitempty" yaml:"beta,omitempty"`       // shape
	Gamma  float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"`     // location
	Lambda float64 `json:"lambda_,omitempty" yaml:"lambda_,omitempty"` // rate
	Mu     float64 `json:"mu,omitempty" yaml:"mu,omitempty"`
	Sigma  float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
}

// Spec names a family together with its parameters.
type Spec struct {
	Kind Kind `json:"distribution" yaml:"distribution"`
	Params
}

// Distribution is an immutable, validated instance of one family.
type Distribution struct {
	kind Kind
	p    Params
}

// New validates p against the family's constraints and returns the instance.
// Parameters the family does not use are zeroed.
func New(kind Kind, p Params) (*Distribution, error) {
	if err := Validate(kind, p); err != nil {
		return nil, err
	}
	return &Distribution{kind: kind, p: normalize(kind, p)}, nil
}

// FromSpec is New(s.Kind, s.Params).
func FromSpec(s Spec) (*Distribution, error) {
	return New(s.Kind, s.Params)
}

// Validate checks the family-specific parameter constraints: scale, shape,
// rate and spread strictly positive, location non-negative, all finite.
func Validate(kind Kind, p Params) error {
	var checks []paramCheck
	switch kind {
	case Exponential1P:
		checks = []paramCheck{positive("lambda_", p.Lambda)}
	case Exponential2P:
		checks = []paramCheck{positive("lambda_", p.Lambda), nonNegative("gamma", p.Gamma)}
	case Weibull2P, Gamma2P, Loglogistic2P:
		checks = []paramCheck{positive("alpha", p.Alpha), positive("beta", p.Beta)}
	case Weibull3P, Gamma3P, Loglogistic3P:
		checks = []paramCheck{positive("alpha", p.Alpha), positive("beta", p.Beta), nonNegative("gamma", p.Gamma)}
	case Normal2P, Gumbel2P, Lognormal2P:
		checks = []paramCheck{finite("mu", p.Mu), positive("sigma", p.Sigma)}
	case Lognormal3P:
		checks = []paramCheck{finite("mu", p.Mu), positive("sigma", p.Sigma), nonNegative("gamma", p.Gamma)}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDistribution, string(kind))
	}
	for _, c := range checks {
		if !c.ok {
			return &ParamError{Family: kind, Param: c.name, Value: c.value, Rule: c.rule}
		}
	}
	return nil
}

type paramCheck struct {
	name  string
	value float64
	rule  string
	ok    bool
}

func positive(name string, v float64) paramCheck {
	return paramCheck{name, v, "positive", v > 0 && !math.IsInf(v, 0)}
}

func nonNegative(name string, v float64) paramCheck {
	return paramCheck{name, v, "non-negative", v >= 0 && !math.IsInf(v, 0)}
}

func finite(name string, v float64) paramCheck {
	return paramCheck{name, v, "finite", !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func normalize(kind Kind, p Params) Params {
	switch kind {
	case Exponential1P:
		return Params{Lambda: p.Lambda}
	case Exponential2P:
		return Params{Lambda: p.Lambda, Gamma: p.Gamma}
	case Weibull2P, Gamma2P, Loglogistic2P:
		return Params{Alpha: p.Alpha, Beta: p.Beta}
	case Weibull3P, Gamma3P, Loglogistic3P:
		return Params{Alpha: p.Alpha, Beta: p.Beta, Gamma: p.Gamma}
	case Normal2P, Gumbel2P, Lognormal2P:
		return Params{Mu: p.Mu, Sigma: p.Sigma}
	default:
		return Params{Mu: p.Mu, Sigma: p.Sigma, Gamma: p.Gamma}
	}
}

// Kind returns the family tag.
func (d *Distribution) Kind() Kind { return d.kind }

// Spec returns the family tag and normalised parameters.
func (d *Distribution) Spec() Spec { return Spec{Kind: d.kind, Params: d.p} }

// Parameters returns the family's parameters keyed by name.
func (d *Distribution) Parameters() map[string]float64 {
	p := d.p
	switch d.kind {
	case Exponential1P:
		return map[string]float64{"lambda_": p.Lambda}
	case Exponential2P:
		return map[string]float64{"lambda_": p.Lambda, "gamma": p.Gamma}
	case Weibull2P, Gamma2P, Loglogistic2P:
		return map[string]float64{"alpha": p.Alpha, "beta": p.Beta}
	case Weibull3P, Gamma3P, Loglogistic3P:
		return map[string]float64{"alpha": p.Alpha, "beta": p.Beta, "gamma": p.Gamma}
	case Normal2P, Gumbel2P, Lognormal2P:
		return map[string]float64{"mu": p.Mu, "sigma": p.Sigma}
	default:
		return map[string]float64{"mu": p.Mu, "sigma": p.Sigma, "gamma": p.Gamma}
	}
}

// degenerate reports whether x lies at or below the support's lower bound.
// It must be checked before any logarithm is taken.
func (d *Distribution) degenerate(x float64) bool {
	return d.kind.positiveSupport() && x <= d.p.Gamma
}

// PDF returns the probability density at x.
func (d *Distribution) PDF(x float64) float64 {
	if math.IsNaN(x) || d.degenerate(x) {
		return 0
	}
	p := d.p
	switch d.kind {
	case Exponential1P, Exponential2P:
		return p.Lambda * math.Exp(-p.Lambda*(x-p.Gamma))
	case Weibull2P, Weibull3P:
		z := (x - p.Gamma) / p.Alpha
		return (p.Beta / p.Alpha) * math.Pow(z, p.Beta-1) * math.Exp(-math.Pow(z, p.Beta))
	case Gamma2P, Gamma3P:
		z := (x - p.Gamma) / p.Alpha
		return math.Exp((p.Beta-1)*math.Log(z)-z-LnGamma(p.Beta)) / p.Alpha
	case Loglogistic2P, Loglogistic3P:
		z := (x - p.Gamma) / p.Alpha
		zb := math.Pow(z, p.Beta)
		return (p.Beta / p.Alpha) * math.Pow(z, p.Beta-1) / ((1 + zb) * (1 + zb))
	case Lognormal2P, Lognormal3P:
		y := x - p.Gamma
		z := (math.Log(y) - p.Mu) / p.Sigma
		return math.Exp(-0.5*z*z) / (y * p.Sigma * math.Sqrt(2*math.Pi))
	case Normal2P:
		z := (x - p.Mu) / p.Sigma
		return math.Exp(-0.5*z*z) / (p.Sigma * math.Sqrt(2*math.Pi))
	case Gumbel2P:
		z := (x - p.Mu) / p.Sigma
		return math.Exp(z-math.Exp(z)) / p.Sigma
	}
	return 0
}

// CDF returns the probability of failure by x.
func (d *Distribution) CDF(x float64) float64 {
	if math.IsNaN(x) || d.degenerate(x) {
		return 0
	}
	p := d.p
	switch d.kind {
	case Exponential1P, Exponential2P:
		return -math.Expm1(-p.Lambda * (x - p.Gamma))
	case Weibull2P, Weibull3P:
		z := (x - p.Gamma) / p.Alpha
		return -math.Expm1(-math.Pow(z, p.Beta))
	case Gamma2P, Gamma3P:
		return RegularizedLowerGamma(p.Beta, (x-p.Gamma)/p.Alpha)
	case Loglogistic2P, Loglogistic3P:
		z := (x - p.Gamma) / p.Alpha
		return 1 / (1 + math.Pow(z, -p.Beta))
	case Lognormal2P, Lognormal3P:
		return StandardNormalCDF((math.Log(x-p.Gamma) - p.Mu) / p.Sigma)
	case Normal2P:
		return StandardNormalCDF((x - p.Mu) / p.Sigma)
	case Gumbel2P:
		return -math.Expm1(-math.Exp((x - p.Mu) / p.Sigma))
	}
	return 0
}

// SF returns the survival function 1 - CDF(x), i.e. the reliability at x.
func (d *Distribution) SF(x float64) float64 {
	if math.IsNaN(x) || d.degenerate(x) {
		return 1
	}
	return 1 - d.CDF(x)
}

func (d *Distribution) String() string {
	return fmt.Sprintf("%s%v", d.kind, d.Parameters())
}
