// Package validation provides fluent parameter validation for model and
// scenario configuration.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance for struct-tag validation
	validate *validator.Validate

	// namePattern restricts model object names to identifier-safe characters
	namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-]*$`)
)

// MaxNameLength bounds model object names.
const MaxNameLength = 100

func init() {
	validate = validator.New()
}

// Validator provides a fluent interface for validating parameter values.
// It collects all validation errors rather than failing on the first one.
type Validator struct {
	errors []error
	name   string // owning struct name for error messages
}

// New creates a new validator with the given owner name.
func New(name string) *Validator {
	return &Validator{
		name:   name,
		errors: make([]error, 0),
	}
}

// Required validates that a string field is not empty.
func (v *Validator) Required(field, value string) *Validator {
	if value == "" {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: required field is empty", v.name, field))
	}
	return v
}

// Positive validates that an int field is positive (> 0).
func (v *Validator) Positive(field string, value int) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %d must be positive", v.name, field, value))
	}
	return v
}

// NonNegative validates that an int field is non-negative (>= 0).
func (v *Validator) NonNegative(field string, value int) *Validator {
	if value < 0 {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %d must be non-negative", v.name, field, value))
	}
	return v
}

// PositiveFloat validates that a float field is positive (> 0).
func (v *Validator) PositiveFloat(field string, value float64) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %g must be positive", v.name, field, value))
	}
	return v
}

// NonNegativeFloat validates that a float field is non-negative (>= 0).
func (v *Validator) NonNegativeFloat(field string, value float64) *Validator {
	if value < 0 {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %g must be non-negative", v.name, field, value))
	}
	return v
}

// RangeFloat validates that a float field is within the specified range.
func (v *Validator) RangeFloat(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %g is outside range [%g, %g]", v.name, field, value, min, max))
	}
	return v
}

// LessThan validates that a float field is strictly below a bound.
func (v *Validator) LessThan(field string, value, bound float64) *Validator {
	if value >= bound {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %g must be below %g", v.name, field, value, bound))
	}
	return v
}

// OneOf validates that a string field is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Errorf("%s.%s: value %q must be one of %v", v.name, field, value, allowed))
	return v
}

// Custom applies a custom validation function.
func (v *Validator) Custom(field string, fn func() error) *Validator {
	if err := fn(); err != nil {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: %w", v.name, field, err))
	}
	return v
}

// When conditionally applies validations if the condition is true.
func (v *Validator) When(condition bool, validations func(*Validator)) *Validator {
	if condition {
		validations(v)
	}
	return v
}

// HasErrors returns true if any validation errors occurred.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []error {
	return v.errors
}

// Validate returns a combined error if any validations failed.
func (v *Validator) Validate() error {
	if len(v.errors) == 0 {
		return nil
	}
	if len(v.errors) == 1 {
		return v.errors[0]
	}
	return fmt.Errorf("%s validation failed with %d errors: %v", v.name, len(v.errors), v.errors[0])
}

// Validatable is an interface for types that can validate themselves.
type Validatable interface {
	Validate() error
}

// ValidateConfig validates any type that implements Validatable.
func ValidateConfig(config Validatable) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	return config.Validate()
}

// ValidateName checks a model object name against length and character rules.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name '%s' exceeds maximum length of %d characters", name, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name '%s' is invalid (must start with letter or underscore, followed by alphanumeric, underscore or dash)", name)
	}
	return nil
}

// ValidateStruct validates a struct using its `validate` tags.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		switch tag {
		case "required":
			return fmt.Errorf("%s: required field is missing", field)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, e.Param())
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "lt":
			return fmt.Errorf("%s: must be less than %s", field, e.Param())
		case "lte":
			return fmt.Errorf("%s: must be at most %s", field, e.Param())
		case "min":
			return fmt.Errorf("%s: below minimum %s", field, e.Param())
		case "max":
			return fmt.Errorf("%s: exceeds maximum %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of %s", field, e.Param())
		default:
			return fmt.Errorf("%s: failed %s validation", field, tag)
		}
	}
	return err
}
