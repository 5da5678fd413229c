package settings

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Settings is a concurrency-safe tree of values addressed by dotted paths.
type Settings struct {
	mu   sync.RWMutex
	data map[string]any
}

// New returns an empty settings tree.
func New() *Settings {
	return &Settings{data: map[string]any{}}
}

// FromMap builds settings from a nested map. The map is deep-copied.
func FromMap(m map[string]any) *Settings {
	s := New()
	s.Merge(m)
	return s
}

// Get returns the value stored at path.
func (s *Settings) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.data, path)
}

// Has reports whether a value exists at path.
func (s *Settings) Has(path string) bool {
	_, ok := s.Get(path)
	return ok
}

// Set stores v at path, creating intermediate maps as needed.
// Maps are normalised so nested values stay addressable.
func (s *Settings) Set(path string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := splitPath(path)
	if len(keys) == 0 {
		return
	}
	node := s.data
	for _, k := range keys[:len(keys)-1] {
		next, ok := node[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[k] = next
		}
		node = next
	}
	node[keys[len(keys)-1]] = normalize(v)
}

// Merge deep-merges m into the settings. Maps are merged key by key,
// every other value replaces what was there.
func (s *Settings) Merge(m map[string]any) {
	if len(m) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	deepMerge(s.data, normalize(m).(map[string]any))
}

// MergeSettings deep-merges another settings tree into s.
func (s *Settings) MergeSettings(o *Settings) {
	if o == nil {
		return
	}
	s.Merge(o.AsMap())
}

// Sub returns a copy of the subtree at path. Missing or non-map values
// yield an empty tree.
func (s *Settings) Sub(path string) *Settings {
	return FromMap(s.Map(path))
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	return FromMap(s.AsMap())
}

// AsMap returns a deep copy of the whole tree.
func (s *Settings) AsMap() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(s.data).(map[string]any)
}

// Keys returns the sorted keys of the map at path.
func (s *Settings) Keys(path string) []string {
	return slices.Sorted(maps.Keys(s.Map(path)))
}

// String returns the value at path as a string or def.
func (s *Settings) String(path, def string) string {
	v, ok := s.Get(path)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Bool returns the value at path as a bool or def.
func (s *Settings) Bool(path string, def bool) bool {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return def
		}
		return b
	case int:
		return t != 0
	default:
		return def
	}
}

// Int returns the value at path as an int or def.
func (s *Settings) Int(path string, def int) int {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Duration returns the value at path as a duration or def.
// Strings use time.ParseDuration syntax, bare numbers are seconds.
func (s *Settings) Duration(path string, def time.Duration) time.Duration {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case time.Duration:
		return t
	case int:
		return time.Duration(t) * time.Second
	case int64:
		return time.Duration(t) * time.Second
	case float64:
		return time.Duration(t * float64(time.Second))
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return def
		}
		return d
	default:
		return def
	}
}

// Strings returns the value at path as a string slice.
// A single string is returned as a one-element slice.
func (s *Settings) Strings(path string) []string {
	v, ok := s.Get(path)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

// Map returns a deep copy of the map at path, or an empty map.
func (s *Settings) Map(path string) map[string]any {
	v, ok := s.Get(path)
	if !ok {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(m).(map[string]any)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func lookup(data map[string]any, path string) (any, bool) {
	keys := splitPath(path)
	if len(keys) == 0 {
		return data, true
	}
	var cur any = data
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := v.(map[string]any)
		if !ok {
			dst[k] = deepCopy(v)
			continue
		}
		dm, ok := dst[k].(map[string]any)
		if !ok {
			dm = map[string]any{}
			dst[k] = dm
		}
		deepMerge(dm, sm)
	}
}

// normalize converts map[any]any produced by YAML decoding (integer keys such
// as error_docs codes) into map[string]any, recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = item
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
