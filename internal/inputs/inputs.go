// Package inputs validates and coerces raw node inputs against a node
// type's declared schema, producing the complete argument set a handler is
// invoked with.
package inputs

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vk/nodeflow/internal/schema"
)

// ValidationError reports a required parameter that is still missing after
// default substitution.
type ValidationError struct {
	Param string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required input %q must not be empty", e.Param)
}

// Prepare builds the final argument mapping for one handler invocation.
//
// Required parameters take the supplied value; a missing or empty-string
// value falls back to the declared default, then to the first enumerated
// option. A value that is still missing after that fails validation only
// when the declared type is STRING — emptiness is strictly "nil or
// zero-length text", never truthiness of opaque or array-like values.
// Optional parameters are defaulted when absent and never rejected. A final
// best-effort pass coerces INT and FLOAT parameters; unconvertible values
// are kept as supplied.
func Prepare(nt *schema.NodeType, raw map[string]any) (map[string]any, error) {
	final := make(map[string]any, len(nt.Inputs)+len(nt.OptionalInputs))

	for _, spec := range nt.Inputs {
		val := raw[spec.Name]
		if isEmpty(val) {
			if spec.Default != nil {
				val = spec.Default
			} else if len(spec.Options) > 0 {
				val = spec.Options[0]
			}
		}
		if isEmpty(val) && spec.Type == schema.TypeString {
			return nil, &ValidationError{Param: spec.Name}
		}
		final[spec.Name] = val
	}

	for _, spec := range nt.OptionalInputs {
		val := raw[spec.Name]
		if val == nil && spec.Default != nil {
			val = spec.Default
		}
		final[spec.Name] = val
	}

	for name, val := range final {
		if val == nil {
			continue
		}
		spec := nt.Input(name)
		if spec == nil {
			continue
		}
		switch spec.Type {
		case schema.TypeInt:
			final[name] = coerceInt(val)
		case schema.TypeFloat:
			final[name] = coerceFloat(val)
		}
	}

	return final, nil
}

// isEmpty is deliberately narrow: nil and zero-length strings only. A
// zero-length chunked array or an empty map is a legitimate value.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func coerceInt(v any) any {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(math.Trunc(val))
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return v
}

func coerceFloat(v any) any {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return v
}
