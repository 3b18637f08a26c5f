// In file: internal/tools/validator.go
package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// validateArgs checks args against a tool's parameter schema: required fields
// present and non-blank, primitive types matching, enum values honoured.
// Unknown fields are ignored.
func validateArgs(tool string, args map[string]any, schema JSONSchema) error {
	for _, field := range schema.Required {
		value, exists := args[field]
		if !exists || value == nil {
			return &ValidationError{Tool: tool, Field: field, Reason: "is required"}
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return &ValidationError{Tool: tool, Field: field, Reason: "must not be empty"}
		}
	}

	// Sorted so the first reported problem is stable.
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop, ok := schema.Properties[key]
		if !ok || prop == nil || args[key] == nil {
			continue
		}
		value := args[key]
		if prop.integerText && isInteger(value) {
			continue
		}
		if err := validateType(value, prop.Type); err != nil {
			return &ValidationError{Tool: tool, Field: key, Reason: err.Error()}
		}
		if len(prop.Enum) > 0 {
			s, _ := value.(string)
			if !contains(prop.Enum, s) {
				return &ValidationError{Tool: tool, Field: key, Reason: fmt.Sprintf("must be one of %s", strings.Join(prop.Enum, ", "))}
			}
		}
	}
	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "":
		return nil
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %s", expected, jsonType(value))
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

// jsonType names a decoded JSON value the way a model would understand it.
func jsonType(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	}
	if isNumber(value) {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
