package distribution

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a distribution is constructed with
	// a parameter outside the family's domain.
	ErrInvalidParameter = errors.New("invalid distribution parameter")

	// ErrUnsupportedDistribution is returned for an unrecognised family tag.
	ErrUnsupportedDistribution = errors.New("unsupported distribution")

	// ErrUnknownFunctionType is returned when a curve type other than
	// PDF, CDF or SF is requested.
	ErrUnknownFunctionType = errors.New("unknown function type")
)

// ParamError describes which parameter of which family failed validation.
type ParamError struct {
	Family Kind
	Param  string
	Value  float64
	Rule   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s: %s must be %s, got %v", ErrInvalidParameter, e.Family, e.Param, e.Rule, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}
