package strategy

import (
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk shape of a persisted registry: a flat, human-
// diffable sequence of entries (spec §6: "implementations SHOULD use a
// human-diffable text form").
type yamlFile struct {
	Entries []Entry `yaml:"entries"`
}

// FilePersister persists the registry to a single YAML file via an
// atomic write (temp file + rename), matching the store's own write pattern.
type FilePersister struct {
	path string
}

// NewFilePersister returns a Persister backed by the YAML file at path. The
// file need not exist yet; Load returns an empty slice in that case.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Save(entries []Entry) error {
	raw, err := yaml.Marshal(yamlFile{Entries: entries})
	if err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil { // #nosec G306 -- learned strategy data, not secrets
		return err
	}
	return os.Rename(tmp, p.path)
}

func (p *FilePersister) Load() ([]Entry, error) {
	raw, err := os.ReadFile(p.path) // #nosec G304 -- path supplied by operator configuration
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f yamlFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f.Entries, nil
}
