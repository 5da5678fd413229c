package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ContextValue returns the request-scoped value stored under key as T.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Arg returns the processed argument name converted to T.
// Strings are parsed; values already of type T are returned as-is.
func Arg[T ~string | ~int | ~int64 | ~float64 | ~bool](args Args, name string) T {
	v, _ := convertArg[T](args[name])
	return v
}

// ArgDefault is Arg with a fallback for missing or unconvertible values.
func ArgDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](args Args, name string, def T) T {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def
	}
	v, ok := convertArg[T](raw)
	if !ok {
		return def
	}
	return v
}

func convertArg[T ~string | ~int | ~int64 | ~float64 | ~bool](raw any) (T, bool) {
	var zero T
	if v, ok := raw.(T); ok {
		return v, true
	}
	s, ok := raw.(string)
	if !ok {
		if raw == nil {
			return zero, false
		}
		s = fmt.Sprint(raw)
	}

	switch any(zero).(type) {
	case string:
		return any(s).(T), true
	case int:
		v, err := strconv.Atoi(s)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	}
	return zero, false
}

// prettyPrint renders v for humans: indented JSON when possible, Go syntax
// otherwise.
func prettyPrint(v any) string {
	if b, err := json.MarshalIndent(v, "", "  "); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%#v", v)
}
