package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their yaml tag so errors name the keys a
// user actually wrote.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every field constraint and reports all violations at once.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	var errs []string
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// describe renders a field error using the YAML path, e.g.
// "engine.default_time_range.points: must be >= 2 (got 1)".
func describe(fe validator.FieldError) string {
	path := yamlPath(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s: is required", path)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s] (got %q)", path, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s (got %v)", path, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s (got %v)", path, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s: must not be less than %s (got %v)", path, strings.ToLower(fe.Param()), fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s", path, fe.Tag())
	}
}

// yamlPath drops the root type name from a namespace such as
// "Config.engine.max_points".
func yamlPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
