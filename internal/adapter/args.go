// ABOUTME: Typed accessors over the loosely-typed argument map of a tool call.
// ABOUTME: Numbers arrive as float64 from JSON; helpers normalize them for argv and SQL.

package adapter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Arguments is the decoded "arguments" object of a tool call.
type Arguments map[string]any

// Has reports whether name is present and non-null.
func (a Arguments) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns the argument as text. Numbers and booleans are formatted;
// absent or null values return "" and false.
func (a Arguments) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", false
	}
	return formatScalar(v), true
}

// StringOr returns the argument as text, or def when absent or empty.
func (a Arguments) StringOr(name, def string) string {
	if s, ok := a.String(name); ok && s != "" {
		return s
	}
	return def
}

// Int returns the argument as an integer. Strings holding integers are
// accepted; fractional numbers are rejected.
func (a Arguments) Int(name string) (int, bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, true, Errorf(KindInvalidArgument, "argument %s: %v", name, err)
	}
	return n, true, nil
}

// IntOr returns the integer argument, or def when absent.
func (a Arguments) IntOr(name string, def int) (int, error) {
	n, ok, err := a.Int(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	return n, nil
}

// Number returns the argument formatted as a number for use in argv,
// or def when absent. Integral values print without a decimal point.
func (a Arguments) Number(name string, def string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return def
	}
	return formatScalar(v)
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", x)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
