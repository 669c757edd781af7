package distribution

import (
	"fmt"
	"strings"
)

// FunctionType selects which curve of a distribution to sample.
type FunctionType string

const (
	FuncPDF FunctionType = "PDF"
	FuncCDF FunctionType = "CDF"
	FuncSF  FunctionType = "SF"
)

// ParseFunctionType accepts pdf/cdf/sf in any case.
func ParseFunctionType(s string) (FunctionType, error) {
	switch ft := FunctionType(strings.ToUpper(strings.TrimSpace(s))); ft {
	case FuncPDF, FuncCDF, FuncSF:
		return ft, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFunctionType, s)
}

// Point is one (x, y) sample of a curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Evaluate returns the requested function of d at x.
func Evaluate(d *Distribution, ft FunctionType, x float64) (float64, error) {
	switch ft {
	case FuncPDF:
		return d.PDF(x), nil
	case FuncCDF:
		return d.CDF(x), nil
	case FuncSF:
		return d.SF(x), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFunctionType, string(ft))
}

// Curve evaluates ft at every x in xs.
func Curve(d *Distribution, ft FunctionType, xs []float64) ([]Point, error) {
	if _, err := Evaluate(d, ft, 0); err != nil {
		return nil, err
	}
	out := make([]Point, len(xs))
	for i, x := range xs {
		y, _ := Evaluate(d, ft, x)
		out[i] = Point{X: x, Y: y}
	}
	return out, nil
}

// Sample evaluates ft on steps+1 evenly spaced points over [0, xMax].
func Sample(d *Distribution, ft FunctionType, xMax float64, steps int) ([]Point, error) {
	if steps < 1 {
		return nil, fmt.Errorf("sample: steps must be positive, got %d", steps)
	}
	if !(xMax > 0) {
		return nil, fmt.Errorf("sample: xMax must be positive, got %v", xMax)
	}
	xs := make([]float64, steps+1)
	for i := range xs {
		xs[i] = xMax * float64(i) / float64(steps)
	}
	return Curve(d, ft, xs)
}
