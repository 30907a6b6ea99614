// Package validation holds the shared validator and its custom rules.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fee year bounds
const (
	MinFeeYear = 1900
	MaxFeeYear = 2100
)

// New returns a validator with the custom rules registered:
//
//	notblank  string is not empty after trimming spaces
//	feeyear   int lies within MinFeeYear and MaxFeeYear
//
// It panics if a rule cannot be registered.
func New() *validator.Validate {
	v := validator.New()
	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"feeyear": func(fl validator.FieldLevel) bool {
			return ValidFeeYear(int(fl.Field().Int()))
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validation: register %s: %v", tag, err))
		}
	}
	return v
}

// ValidFeeYear reports whether year can carry a fee record
func ValidFeeYear(year int) bool {
	return year >= MinFeeYear && year <= MaxFeeYear
}

// Message flattens validator errors into one readable line
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		parts = append(parts, fieldMessage(e))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return e.Namespace() + " is required"
	case "min", "gte":
		return e.Namespace() + " must be at least " + e.Param()
	case "max", "lte":
		return e.Namespace() + " must be at most " + e.Param()
	case "oneof":
		return e.Namespace() + " must be one of: " + e.Param()
	default:
		return e.Namespace() + " validation failed: " + e.Tag()
	}
}
