package internal

import (
	"fmt"
	"maps"
)

// Args are the arguments a view is dispatched with: URL arguments from the
// route, forward arguments, and processed query arguments.
type Args map[string]any

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the argument formatted as a string, "" when missing or nil.
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	return maps.Clone(a)
}
