package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/skillkit/skillkit/pkg/frontmatter"
)

const skillFileName = "SKILL.md"

// agentDirs maps agent names to the dot directory holding their skills
var agentDirs = []struct {
	agent string
	dir   string
}{
	{"skillkit", ".skillkit"},
	{"claude", ".claude"},
	{"cursor", ".cursor"},
	{"codex", ".codex"},
	{"copilot", ".github"},
}

// Dir is a directory searched for skills
type Dir struct {
	Path  string
	Agent string
}

// Discovery finds skills in an ordered list of directories. Earlier
// directories take precedence when two skills share a name.
type Discovery struct {
	dirs []Dir
}

// Option configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs searches exactly the given directories
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.dirs = d.dirs[:0]
		for _, dir := range dirs {
			d.dirs = append(d.dirs, Dir{Path: dir})
		}
		return nil
	}
}

// WithProjectDirs searches the agent skill directories of a project
// followed by those of the user's home directory
func WithProjectDirs(projectPath string) Option {
	return func(d *Discovery) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}

		d.dirs = d.dirs[:0]
		for _, root := range []string{projectPath, home} {
			for _, a := range agentDirs {
				d.dirs = append(d.dirs, Dir{Path: filepath.Join(root, a.dir, "skills"), Agent: a.agent})
			}
		}
		return nil
	}
}

// NewDiscovery creates a discovery over the current directory's agent
// skill directories unless options say otherwise
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{}
	if len(opts) == 0 {
		opts = []Option{WithProjectDirs(".")}
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Dirs returns the searched directories in precedence order
func (d *Discovery) Dirs() []Dir {
	return append([]Dir{}, d.dirs...)
}

// DiscoverSkills finds every valid skill. Unreadable directories and
// malformed SKILL.md files are skipped.
func (d *Discovery) DiscoverSkills() map[string]*Skill {
	skills := make(map[string]*Skill)
	for _, dir := range d.dirs {
		discoverFromDir(dir, skills)
	}
	return skills
}

func discoverFromDir(dir Dir, skills map[string]*Skill) {
	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		return
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir.Path, entry.Name())

		// Stat follows symlinks so linked skill directories are found
		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		skill, err := loadSkill(filepath.Join(entryPath, skillFileName))
		if err != nil {
			continue
		}
		if _, exists := skills[skill.Name]; exists {
			continue
		}

		skill.Agent = dir.Agent
		skill.Directory = entryPath
		skills[skill.Name] = skill
	}
}

// GetSkill returns a skill by name
func (d *Discovery) GetSkill(name string) (*Skill, error) {
	skill, ok := d.DiscoverSkills()[name]
	if !ok {
		return nil, errors.Errorf("skill '%s' not found", name)
	}
	return skill, nil
}

// List returns the skills sorted by name, limited to allowed when any
// names are given
func (d *Discovery) List(allowed ...string) []*Skill {
	found := FilterByAllowlist(d.DiscoverSkills(), allowed)
	out := make([]*Skill, 0, len(found))
	for _, s := range found {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func loadSkill(path string) (*Skill, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !doc.HasMeta() {
		return nil, errors.New("missing frontmatter")
	}

	md := Metadata{
		Name:        doc.String("name"),
		Description: doc.String("description"),
		Tags:        doc.Strings("tags"),
	}
	if md.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if md.Description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	return &Skill{
		Name:        md.Name,
		Description: md.Description,
		Tags:        md.Tags,
		Content:     doc.Body,
	}, nil
}

// FilterByAllowlist keeps the named skills. An empty allowlist keeps all.
func FilterByAllowlist(skills map[string]*Skill, allowed []string) map[string]*Skill {
	if len(allowed) == 0 {
		return skills
	}

	filtered := make(map[string]*Skill)
	for _, name := range allowed {
		if skill, exists := skills[name]; exists {
			filtered[name] = skill
		}
	}
	return filtered
}
