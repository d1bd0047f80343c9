package recorder

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"
)

// Preferences are the persisted recorder settings.
type Preferences struct {
	Recording      *bool `json:"recording,omitempty"`
	ClearOnSession *bool `json:"clearOnSession,omitempty"`
}

type preferenceStore struct {
	fs   vfs.FileSystem
	path string
}

// load reads the preferences. Missing preferences are not an error.
func (s *preferenceStore) load() (*Preferences, error) {
	var prefs Preferences
	if s == nil {
		return &prefs, nil
	}
	data, err := vfs.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return &prefs, nil
		}
		return nil, err
	}
	err = yaml.Unmarshal(data, &prefs)
	if err != nil {
		return nil, fmt.Errorf("preferences %q: %w", s.path, err)
	}
	return &prefs, nil
}

func (s *preferenceStore) save(prefs *Preferences) error {
	if s == nil {
		return nil
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return err
	}
	err = s.fs.MkdirAll(filepath.Dir(s.path), 0o700)
	if err != nil {
		return err
	}
	return vfs.WriteFile(s.fs, s.path, data, 0o600)
}
