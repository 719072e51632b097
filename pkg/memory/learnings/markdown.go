package learnings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/skillkit/skillkit/pkg/frontmatter"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// exportMeta is the metadata block of a learning exported as Markdown
type exportMeta struct {
	ID            string   `yaml:"id,omitempty"`
	Title         string   `yaml:"title"`
	Scope         string   `yaml:"scope,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
	Frameworks    []string `yaml:"frameworks,omitempty"`
	Patterns      []string `yaml:"patterns,omitempty"`
	Effectiveness *int     `yaml:"effectiveness,omitempty"`
}

// ImportMarkdown adds the learning described by a Markdown file. The
// frontmatter may set title, tags, frameworks, patterns and effectiveness;
// without a title the first heading or the file name is used.
func (s *Store) ImportMarkdown(path string) (memtypes.Learning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return memtypes.Learning{}, errors.Wrap(err, "failed to read learning file")
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return memtypes.Learning{}, errors.Wrapf(err, "failed to import %s", path)
	}
	body := strings.TrimSpace(doc.Body)

	title := doc.String("title")
	if title == "" {
		title = doc.FirstHeading()
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	in := NewLearning{
		Title:      title,
		Content:    body,
		Source:     memtypes.SourceImported,
		Tags:       doc.Strings("tags"),
		Frameworks: doc.Strings("frameworks"),
		Patterns:   doc.Strings("patterns"),
	}
	if eff, ok := doc.Int("effectiveness"); ok {
		in.Effectiveness = &eff
	}

	learning, err := s.Add(in)
	if err != nil {
		return memtypes.Learning{}, errors.Wrapf(err, "failed to import %s", path)
	}
	return learning, nil
}

// ImportDir imports every Markdown file below dir. Files that fail to
// import are reported together while the rest are still imported.
func (s *Store) ImportDir(dir string) ([]memtypes.Learning, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.md")
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan learning directory")
	}

	var (
		imported []memtypes.Learning
		result   *multierror.Error
	)
	for _, match := range matches {
		learning, err := s.ImportMarkdown(filepath.Join(dir, filepath.FromSlash(match)))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		imported = append(imported, learning)
	}
	return imported, result.ErrorOrNil()
}

// ExportMarkdown renders a learning as Markdown with YAML frontmatter that
// ImportMarkdown accepts
func (s *Store) ExportMarkdown(id string) (string, error) {
	learning, ok := s.GetByID(id)
	if !ok {
		return "", errors.Wrapf(ErrLearningNotFound, "id %s", id)
	}

	fm, err := yaml.Marshal(exportMeta{
		ID:            learning.ID,
		Title:         learning.Title,
		Scope:         string(learning.Scope),
		Tags:          learning.Tags,
		Frameworks:    learning.Frameworks,
		Patterns:      learning.Patterns,
		Effectiveness: learning.Effectiveness,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode frontmatter")
	}

	return fmt.Sprintf("---\n%s---\n\n%s\n", fm, strings.TrimSpace(learning.Content)), nil
}
