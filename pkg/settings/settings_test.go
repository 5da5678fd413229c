package settings

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileDoc = `
default:
  error_docs:
    404: "app:NotFound"
    500: "app:ServerError"
  emails:
    programmers: [dev@example.com]
  plugins:
    news:
      per_page: 25
    blog:
      enabled: false
dev:
  exception_handling: [format]
  session:
    max_age: 2h
empty:
`

func TestSettings_SetGet(t *testing.T) {
	t.Parallel()

	s := New()
	s.Set("a.b.c", 1)

	v, ok := s.Get("a.b.c")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, s.Has("a.b"))
	assert.False(t, s.Has("a.x"))

	s.Set("a.b", "flat")
	assert.False(t, s.Has("a.b.c"))
	assert.Equal(t, "flat", s.String("a.b", ""))
}

func TestSettings_Merge(t *testing.T) {
	t.Parallel()

	s := FromMap(map[string]any{
		"logs": map[string]any{"enabled": true, "level": "info"},
	})
	s.Merge(map[string]any{
		"logs": map[string]any{"level": "debug"},
	})

	assert.True(t, s.Bool("logs.enabled", false))
	assert.Equal(t, "debug", s.String("logs.level", ""))
}

func TestSettings_TypedGetters(t *testing.T) {
	t.Parallel()

	s := FromMap(map[string]any{
		"n":     "42",
		"f":     3.0,
		"d":     "90s",
		"secs":  5,
		"b":     "true",
		"list":  []any{"a", 1},
		"one":   "x",
		"dur":   time.Minute,
		"weird": struct{}{},
	})

	assert.Equal(t, 42, s.Int("n", 0))
	assert.Equal(t, 3, s.Int("f", 0))
	assert.Equal(t, 7, s.Int("missing", 7))
	assert.Equal(t, 90*time.Second, s.Duration("d", 0))
	assert.Equal(t, 5*time.Second, s.Duration("secs", 0))
	assert.Equal(t, time.Minute, s.Duration("dur", 0))
	assert.Equal(t, time.Hour, s.Duration("weird", time.Hour))
	assert.True(t, s.Bool("b", false))
	assert.Equal(t, []string{"a", "1"}, s.Strings("list"))
	assert.Equal(t, []string{"x"}, s.Strings("one"))
	assert.Nil(t, s.Strings("missing"))
}

func TestSettings_MapIsCopy(t *testing.T) {
	t.Parallel()

	s := FromMap(map[string]any{"m": map[string]any{"k": "v"}})
	m := s.Map("m")
	m["k"] = "changed"

	assert.Equal(t, "v", s.String("m.k", ""))
	assert.Equal(t, []string{"k"}, s.Keys("m"))
}

func TestParse_Profiles(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(profileDoc), "dev")
	require.NoError(t, err)

	assert.Equal(t, []string{"format"}, s.Strings("exception_handling"))
	assert.Equal(t, 2*time.Hour, s.Duration("session.max_age", 0))
	assert.Equal(t, "memory", s.String("session.type", ""), "framework defaults survive")

	ep, ok := s.ErrorDoc(404)
	require.True(t, ok)
	assert.Equal(t, "app:NotFound", ep)

	_, ok = s.ErrorDoc(403)
	assert.False(t, ok)
}

func TestParse_DefaultProfileOnly(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(profileDoc), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"handle", "email"}, s.Strings("exception_handling"))

	s, err = Parse([]byte(profileDoc), "empty")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev@example.com"}, s.Strings("emails.programmers"))
}

func TestParse_UnknownProfile(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(profileDoc), "prod")
	require.ErrorIs(t, err, ErrProfileNotFound)
	assert.Contains(t, err.Error(), `settings profile "prod" not found in this application`)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("default: [unclosed"), "")
	require.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Parse([]byte("default: 5"), "")
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestLoad_FromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"settings.yaml": {Data: []byte(profileDoc)}}
	s, err := Load(fsys, "settings.yaml", "dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"format"}, s.Strings("exception_handling"))

	_, err = Load(fsys, "missing.yaml", "")
	require.Error(t, err)
}

func TestPluginSettings(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(profileDoc), "")
	require.NoError(t, err)

	ps := s.PluginSettings("news", map[string]any{"per_page": 10, "title": "News"})
	assert.Equal(t, 25, ps.Int("per_page", 0), "app-level override wins")
	assert.Equal(t, "News", ps.String("title", ""))

	assert.True(t, s.PluginEnabled("news"))
	assert.False(t, s.PluginEnabled("blog"))
	assert.True(t, s.PluginEnabled("unknown"))
	assert.Equal(t, []string{"news", "unknown"}, s.EnabledPlugins([]string{"news", "blog", "unknown", "news"}))
}

func TestApplyTestSettings(t *testing.T) {
	t.Parallel()

	s := Defaults()
	s.ApplyTestSettings()

	assert.Empty(t, s.Strings("exception_handling"))
	assert.False(t, s.Bool("is_live", true))
	assert.True(t, s.Bool("testing", false))
	assert.False(t, s.Bool("logs.enabled", true))
}
