// Package stack describes the detected technology stack of a project. The
// stack is produced by an external detector; this package only defines its
// shape and loads a detector-written YAML file.
package stack

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/skillkit/skillkit/pkg/memory/filestore"
)

// DefaultFile is the stack file path relative to a project root
const DefaultFile = ".skillkit/stack.yaml"

// Detection is one detected technology
type Detection struct {
	Name       string  `yaml:"name" json:"name"`
	Version    string  `yaml:"version,omitempty" json:"version,omitempty"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// ProjectStack groups detections by category
type ProjectStack struct {
	Languages  []Detection `yaml:"languages" json:"languages"`
	Frameworks []Detection `yaml:"frameworks" json:"frameworks"`
	Libraries  []Detection `yaml:"libraries" json:"libraries"`
	Styling    []Detection `yaml:"styling" json:"styling"`
	Testing    []Detection `yaml:"testing" json:"testing"`
	Databases  []Detection `yaml:"databases" json:"databases"`
	Tools      []Detection `yaml:"tools" json:"tools"`
	Runtime    []Detection `yaml:"runtime" json:"runtime"`
}

// Names returns the lower-cased names of every detection in every category
func (p *ProjectStack) Names() map[string]struct{} {
	names := make(map[string]struct{})
	if p == nil {
		return names
	}

	for _, category := range [][]Detection{
		p.Languages, p.Frameworks, p.Libraries, p.Styling,
		p.Testing, p.Databases, p.Tools, p.Runtime,
	} {
		for _, d := range category {
			name := strings.ToLower(strings.TrimSpace(d.Name))
			if name != "" {
				names[name] = struct{}{}
			}
		}
	}
	return names
}

// Load reads a detector-written stack file
func Load(path string) (*ProjectStack, error) {
	var s ProjectStack
	if err := filestore.Read(path, &s); err != nil {
		if errors.Is(err, filestore.ErrNotExist) {
			return nil, errors.Wrapf(err, "stack file %s", path)
		}
		return nil, errors.Wrap(err, "failed to load project stack")
	}
	return &s, nil
}
