package manifest

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// MaxNameLength bounds component names; it matches the max tag on the specs.
const MaxNameLength = 128

func init() {
	validate = validator.New()
}

// Validate checks the manifest shape: at least one component, names present
// and well-formed, durations non-negative. Graph-level problems (duplicates,
// unknown references, cycles) are left to construction.
func (m *Manifest) Validate() error {
	if m == nil {
		return errors.New("manifest cannot be nil")
	}

	if err := validate.Struct(m); err != nil {
		return formatValidationError(err)
	}

	for i, c := range m.Components {
		if !namePattern.MatchString(c.Name) {
			return fmt.Errorf("components[%d]: name %q contains invalid characters (only alphanumeric, dot, underscore and dash allowed)", i, c.Name)
		}
		if c.Startup.Duration < 0 {
			return fmt.Errorf("components[%d] %s: startup duration must not be negative, got %v", i, c.Name, c.Startup.Duration)
		}
		if c.Shutdown.Duration < 0 {
			return fmt.Errorf("components[%d] %s: shutdown duration must not be negative, got %v", i, c.Name, c.Shutdown.Duration)
		}
	}

	for i, d := range m.Dependencies {
		if !namePattern.MatchString(d.Component) {
			return fmt.Errorf("dependencies[%d]: component %q contains invalid characters", i, d.Component)
		}
		if !namePattern.MatchString(d.Requires) {
			return fmt.Errorf("dependencies[%d]: requires %q contains invalid characters", i, d.Requires)
		}
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

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
