package runtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GoFunc is a go func callable from the module, the dynamic counterpart of a
// function value handed across the binding.
type GoFunc struct {
	val  func(*Module, []any) ([]any, error)
	name string
}

func (fn *GoFunc) String() string {
	return fmt.Sprintf("[Function: %s]", fn.name)
}

// Name returns the name the function was registered with.
func (fn *GoFunc) Name() string {
	return fn.name
}

// Fn creates a value that is usable by the module from a function. This enables
// passing a go function as a loader or as a turf.
func Fn(name string, fn func(*Module, []any) ([]any, error)) *GoFunc {
	return &GoFunc{
		name: name,
		val:  fn,
	}
}

func typeName(in any) string {
	switch in.(type) {
	case int64, float64:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	case *GoFunc:
		return "function"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case []byte:
		return "buffer"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", in)
	}
}

func isArray(in any) bool {
	_, ok := in.([]any)
	return ok
}

func isNumber(in any) bool {
	switch in.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

func toFloat(val any) float64 {
	switch tval := val.(type) {
	case int64:
		return float64(tval)
	case float64:
		return tval
	default:
		return 0
	}
}

// toJSONValue swaps functions for null.
func toJSONValue(val any) any {
	switch tval := val.(type) {
	case *GoFunc:
		return nil
	case []any:
		out := make([]any, len(tval))
		for i, item := range tval {
			out[i] = toJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tval))
		for key, item := range tval {
			out[key] = toJSONValue(item)
		}
		return out
	default:
		return val
	}
}

// ToString will format a module value to a printable string.
func ToString(val any) string {
	switch tin := val.(type) {
	case nil:
		return "null"
	case string:
		return tin
	case bool:
		return strconv.FormatBool(tin)
	case int64:
		return strconv.FormatInt(tin, 10)
	case float64:
		return strconv.FormatFloat(tin, 'g', -1, 64)
	case []byte:
		return formatBuffer(tin)
	case *GoFunc:
		return tin.String()
	case []any, map[string]any:
		data, err := json.Marshal(toJSONValue(tin))
		if err != nil {
			return fmt.Sprintf("%v", tin)
		}
		return string(data)
	case fmt.Stringer:
		return tin.String()
	default:
		return fmt.Sprintf("Unknown value type: %v", val)
	}
}

func formatBuffer(buf []byte) string {
	const maxShown = 50
	parts := make([]string, 0, min(len(buf), maxShown)+1)
	for i, b := range buf {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("... %v more bytes", len(buf)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf("%02x", b))
	}
	if len(parts) == 0 {
		return "<Buffer >"
	}
	return "<Buffer " + strings.Join(parts, " ") + ">"
}
