package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultProfile is always applied before the selected profile.
const DefaultProfile = "default"

// Load reads a YAML profile document from fsys and returns the framework
// defaults merged with the "default" profile and then the selected profile.
// An empty profile selects only "default".
func Load(fsys fs.FS, name, profile string) (*Settings, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", name, err)
	}
	return Parse(data, profile)
}

// LoadFile is Load for a path on the local file system.
func LoadFile(path, profile string) (*Settings, error) {
	return Load(os.DirFS(filepath.Dir(path)), filepath.Base(path), profile)
}

// Parse decodes a YAML profile document. See Load.
func Parse(data []byte, profile string) (*Settings, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidDocument, err)
	}
	profiles, _ := normalize(doc).(map[string]any)

	s := Defaults()
	if base, ok := profiles[DefaultProfile]; ok {
		m, ok := base.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: profile %q is not a mapping", ErrInvalidDocument, DefaultProfile)
		}
		s.Merge(m)
	}

	if profile == "" || profile == DefaultProfile {
		return s, nil
	}

	selected, ok := profiles[profile]
	if !ok {
		return nil, fmt.Errorf("%w: settings profile %q not found in this application", ErrProfileNotFound, profile)
	}
	m, ok := selected.(map[string]any)
	if !ok && selected != nil {
		return nil, fmt.Errorf("%w: profile %q is not a mapping", ErrInvalidDocument, profile)
	}
	s.Merge(m)
	return s, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
