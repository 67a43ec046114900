package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// JSONSchema describes the job variables a worker accepts.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	MinItems    *int                `json:"minItems,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Float and Int are helpers for building schema literals.
func Float(v float64) *float64 { return &v }
func Int(v int) *int { return &v }

// ValidateInput checks input against schema. Errors are reported in field
// name order.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, field := range schema.Required {
		if v, exists := input[field]; !exists || v == nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	fields := make([]string, 0, len(input))
	for name := range input {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	for _, name := range fields {
		value := input[name]
		prop, exists := schema.Properties[name]
		if !exists {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{
					Field:   name,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		if value == nil {
			continue
		}
		errs = append(errs, validateField(name, value, prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateField(name string, value interface{}, prop Property) []ValidationError {
	if err := validateType(value, prop.Type); err != nil {
		return []ValidationError{{Field: name, Message: err.Error(), Code: "INVALID_TYPE"}}
	}

	var errs []ValidationError
	fail := func(code, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf(format, args...), Code: code})
	}

	switch v := value.(type) {
	case string:
		if prop.MinLength != nil && len(v) < *prop.MinLength {
			fail("MIN_LENGTH_VIOLATION", "value must be at least %d characters", *prop.MinLength)
		}
		if prop.MaxLength != nil && len(v) > *prop.MaxLength {
			fail("MAX_LENGTH_VIOLATION", "value must be at most %d characters", *prop.MaxLength)
		}
		if prop.Pattern != nil {
			if matched, err := regexp.MatchString(*prop.Pattern, v); err != nil || !matched {
				fail("PATTERN_MISMATCH", "value must match pattern %s", *prop.Pattern)
			}
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, v) {
			fail("INVALID_ENUM_VALUE", "value must be one of %v", prop.Enum)
		}

	case []interface{}:
		if prop.MinItems != nil && len(v) < *prop.MinItems {
			fail("MIN_ITEMS_VIOLATION", "array must contain at least %d items", *prop.MinItems)
		}
		if prop.Items != nil {
			for i, item := range v {
				errs = append(errs, validateField(fmt.Sprintf("%s[%d]", name, i), item, *prop.Items)...)
			}
		}

	case map[string]interface{}:
		if prop.Properties != nil {
			nested := ValidateInput(v, JSONSchema{
				Type:                 "object",
				Properties:           prop.Properties,
				Required:             prop.Required,
				AdditionalProperties: true,
			})
			for _, e := range nested.Errors {
				errs = append(errs, ValidationError{
					Field:   name + "." + e.Field,
					Message: e.Message,
					Code:    e.Code,
				})
			}
		}

	default:
		if n, ok := toFloat(value); ok {
			if prop.Minimum != nil && n < *prop.Minimum {
				fail("MINIMUM_VIOLATION", "value must be >= %v", *prop.Minimum)
			}
			if prop.Maximum != nil && n > *prop.Maximum {
				fail("MAXIMUM_VIOLATION", "value must be <= %v", *prop.Maximum)
			}
		}
	}

	return errs
}

func validateType(value interface{}, expectedType string) error {
	ok := true
	switch expectedType {
	case "string":
		_, ok = value.(string)
	case "number":
		_, ok = toFloat(value)
	case "integer":
		var n float64
		n, ok = toFloat(value)
		ok = ok && n == float64(int64(n))
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]interface{})
	case "array":
		_, ok = value.([]interface{})
	}
	if !ok {
		return fmt.Errorf("expected %s, got %T", expectedType, value)
	}
	return nil
}

func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// GetErrorMessages returns "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Fields returns the distinct top-level fields that failed, in order.
func (vr *ValidationResult) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, err := range vr.Errors {
		top := err.Field
		if i := strings.IndexAny(top, ".["); i > 0 {
			top = top[:i]
		}
		if !seen[top] {
			seen[top] = true
			fields = append(fields, top)
		}
	}
	return fields
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)

// ValidatePhone validates basic phone number format.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
