package scanner

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// ManifestName is the file that declares a module.
const ManifestName = "module.yaml"

// Manifest is the parsed module.yaml.
// Unknown fields cause parse errors so typos surface during scans.
type Manifest struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Owner        string   `yaml:"owner"`
	Node         string   `yaml:"node"`
	Capabilities []string `yaml:"capabilities"`
	DependsOn    []string `yaml:"depends_on"`
	Tags         []string `yaml:"tags"`
}

// ManifestError describes a manifest that could not be parsed.
type ManifestError struct {
	Path    string
	Message string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %s", e.Path, e.Message)
}

// ParseManifest decodes a module.yaml. The path is only used for error
// reporting.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, &ManifestError{Path: path, Message: err.Error()}
	}
	return &m, nil
}

// apply copies manifest fields onto a module, deriving the name from the
// module path when the manifest leaves it empty.
func (m *Manifest) apply(mod *core.Module) {
	mod.Declared = true
	mod.Description = m.Description
	mod.Owner = m.Owner
	mod.Node = m.Node
	mod.Capabilities = m.Capabilities
	mod.DependsOn = m.DependsOn
	mod.Tags = m.Tags
	if m.Name != "" {
		mod.Name = m.Name
	}
}
