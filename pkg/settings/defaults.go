package settings

import (
	"slices"
	"time"
)

// Exception handling policies recognised in "exception_handling".
const (
	PolicyHandle = "handle"
	PolicyEmail  = "email"
	PolicyFormat = "format"
)

// Defaults returns the framework defaults every application starts from.
func Defaults() *Settings {
	return FromMap(map[string]any{
		"default_charset": "utf-8",
		"is_live":         true,
		"testing":         false,
		"routing": map[string]any{
			"prefix":         "",
			"strict_slashes": true,
		},
		"error_docs":         map[string]any{},
		"exception_handling": []any{PolicyHandle, PolicyEmail},
		"emails": map[string]any{
			"programmers": []any{},
			"admins":      []any{},
			"from_server": "root@localhost",
			"override":    "",
		},
		"email": map[string]any{
			"subject_prefix": "[blazeweb] ",
		},
		"session": map[string]any{
			"enabled":     true,
			"type":        "memory",
			"url":         "",
			"cookie_name": "__sid",
			"max_age":     30 * 24 * time.Hour,
			"secret":      "",
			"secure":      false,
		},
		"logs": map[string]any{
			"enabled": true,
			"level":   "info",
			"format":  "json",
			"errors": map[string]any{
				"enabled": false,
				"path":    "logs/errors.log",
			},
			"application": map[string]any{
				"enabled": false,
				"path":    "logs/application.log",
			},
			"http_requests": map[string]any{
				"enabled": false,
				"filters": map[string]any{
					"path_info":      []any{},
					"request_method": []any{},
				},
			},
			"sentry": map[string]any{
				"enabled": false,
			},
		},
		"static_files": map[string]any{
			"enabled": true,
			"prefix":  "/static/",
		},
		"templating": map[string]any{
			"autoescape": []any{"html", "htm", "xml"},
		},
		"health": map[string]any{
			"enabled":        false,
			"liveness_path":  "/health/live",
			"readiness_path": "/health/ready",
		},
		"jobs": map[string]any{
			"session_purge": "@hourly",
		},
		"plugins": map[string]any{},
	})
}

// ApplyTestSettings adjusts s for use in tests: errors escape to the caller,
// nothing is mailed and logging is silenced.
func (s *Settings) ApplyTestSettings() {
	s.Set("testing", true)
	s.Set("is_live", false)
	s.Set("exception_handling", []any{})
	s.Set("logs.enabled", false)
	s.Set("logs.errors.enabled", false)
	s.Set("logs.application.enabled", false)
	s.Set("logs.http_requests.enabled", false)
}

// PluginSettings returns the plugin's defaults overlaid with the
// application-level overrides found under "plugins.<name>".
func (s *Settings) PluginSettings(name string, defaults map[string]any) *Settings {
	ps := FromMap(defaults)
	ps.Merge(s.Map("plugins." + name))
	return ps
}

// PluginEnabled reports whether the plugin is enabled. Plugins are enabled
// unless "plugins.<name>.enabled" is false.
func (s *Settings) PluginEnabled(name string) bool {
	return s.Bool("plugins."+name+".enabled", true)
}

// EnabledPlugins filters names down to the enabled plugins, dropping
// duplicates and keeping the order.
func (s *Settings) EnabledPlugins(names []string) []string {
	var out []string
	for _, n := range names {
		if slices.Contains(out, n) || !s.PluginEnabled(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ErrorDoc returns the endpoint configured for the given status code.
func (s *Settings) ErrorDoc(code int) (string, bool) {
	v, ok := s.Get("error_docs")
	if !ok {
		return "", false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	ep, ok := m[itoa(code)].(string)
	if !ok || ep == "" {
		return "", false
	}
	return ep, true
}
