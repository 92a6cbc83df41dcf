// Package validate checks raw execution inputs against a process's declared
// input schema before the process implementation ever sees them.
package validate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mparks/geode/internal/model"
)

// Error describes a single invalid or missing input. It maps to a 4xx
// response at the HTTP boundary.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("input %q %s", e.Field, e.Reason)
}

// Inputs validates raw against the descriptor's declared inputs and returns a
// new map with coerced values and defaults applied. Keys not declared by the
// descriptor are passed through untouched so callers can add forward-compatible
// extras. raw is not modified.
func Inputs(desc *model.ProcessDescriptor, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	for name, decl := range desc.Inputs {
		value, present := out[name]
		if !present {
			if decl.MinOccurs >= 1 {
				return nil, &Error{Field: name, Reason: "is required but missing"}
			}
			if decl.Schema.Default != nil {
				out[name] = decl.Schema.Default
			}
			continue
		}

		coerced, err := coerce(value, decl.Schema.Type)
		if err != nil {
			return nil, &Error{Field: name, Reason: err.Error()}
		}
		out[name] = coerced
	}

	return out, nil
}

// coerce converts a JSON-decoded value to the declared schema type.
func coerce(value any, schemaType string) (any, error) {
	switch schemaType {
	case model.TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string, got %T", value)
		}
		return s, nil

	case model.TypeNumber:
		return toFloat(value)

	case model.TypeInteger:
		f, err := toFloat(value)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("must be an integer, got %v", f)
		}
		return int(f), nil

	case model.TypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("must be an object, got %T", value)
		}
		return m, nil

	default:
		// Unrecognized declared type: pass through as-is.
		return value, nil
	}
}

// toFloat accepts the numeric shapes a JSON decoder or a lenient client can
// produce: float64, int, or a numeric string.
func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("must be a number, got %T", value)
	}
}
