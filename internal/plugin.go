package internal

import (
	"io/fs"
	"strings"
)

// Plugin is one package of a named plugin. Several packages may share a
// name; lookups walk them in registration order so earlier packages
// override later ones.
type Plugin struct {
	// Settings are the plugin defaults, overridden by "plugins.<name>".
	Settings map[string]any

	// Views maps view names (the part after "plugin:") to factories.
	Views map[string]ViewFactory

	// Templates holds "<name>" template files.
	Templates fs.FS

	// Static is served under "<static prefix><plugin name>/".
	Static fs.FS

	// Events connects signal handlers while the App is built.
	Events func(*Events)

	Name   string
	Routes []Route
}

// pluginNames returns the enabled plugin names in registration order.
func (a *App) pluginNames() []string {
	names := make([]string, 0, len(a.plugins))
	for _, p := range a.plugins {
		names = append(names, p.Name)
	}
	return a.settings.EnabledPlugins(names)
}

// pluginPackages returns the packages of an enabled plugin.
func (a *App) pluginPackages(name string) []Plugin {
	if !a.settings.PluginEnabled(name) {
		return nil
	}
	var out []Plugin
	for _, p := range a.plugins {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Plugins lists the enabled plugins.
func (a *App) Plugins() []string {
	return a.pluginNames()
}

// initPluginSettings stores every enabled plugin's merged settings under
// "plugins.<name>". Earlier packages win over later ones, application
// overrides win over all packages.
func (a *App) initPluginSettings() {
	for _, name := range a.pluginNames() {
		pkgs := a.pluginPackages(name)
		defaults := map[string]any{}
		for i := len(pkgs) - 1; i >= 0; i-- {
			mergeInto(defaults, pkgs[i].Settings)
		}
		merged := a.settings.PluginSettings(name, defaults)
		a.settings.Set("plugins."+name, merged.AsMap())
	}
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			dm, ok := dst[k].(map[string]any)
			if !ok {
				dm = map[string]any{}
				dst[k] = dm
			}
			mergeInto(dm, sm)
			continue
		}
		dst[k] = v
	}
}

// splitEndpoint splits "plugin:name" into its parts. Endpoints without a
// plugin return an empty plugin.
func splitEndpoint(endpoint string) (plugin, name string) {
	if i := strings.IndexByte(endpoint, ':'); i >= 0 {
		return endpoint[:i], endpoint[i+1:]
	}
	return "", endpoint
}
