// Package settings provides the hierarchical settings tree used by blazeweb
// applications and plugins.
//
// Settings are addressed with dotted paths ("logs.errors.enabled") and can be
// loaded from YAML documents organised by profile:
//
//	default:
//	  error_docs:
//	    404: "app:NotFound"
//	dev:
//	  exception_handling: [format]
//
//	s, err := settings.Load(os.DirFS("."), "settings.yaml", "dev")
//
// The "default" profile is always applied on top of the framework defaults,
// the selected profile is deep-merged last.
//
// Plugins ship their own defaults; the application overrides them under
// "plugins.<name>":
//
//	ps := s.PluginSettings("news", map[string]any{"per_page": 10})
//	ps.Int("per_page", 0)
package settings
