package config

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the config for:
//   - Required fields and numeric ranges declared on the schema
//   - Duplicate or blank entries in the excluded edge type list
func Validate(cfg *Config) error {
	var errs []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errors.Wrap(err, "config validation")
		}
		for _, fe := range fieldErrs {
			errs = append(errs, formatFieldError(fe))
		}
	}

	seen := make(map[string]struct{}, len(cfg.View.ExcludedEdgeTypes))
	for i, t := range cfg.View.ExcludedEdgeTypes {
		if _, dup := seen[t]; dup && t != "" {
			errs = append(errs, fmt.Sprintf("view.excluded_edge_types[%d]: duplicate %q", i, t))
		}
		seen[t] = struct{}{}
	}

	if len(errs) > 0 {
		return errors.Newf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be an absolute URL", field)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}
