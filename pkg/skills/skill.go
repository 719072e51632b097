// Package skills discovers SKILL.md files across the skill directories of
// the supported coding agents. A skill is a directory containing a
// SKILL.md file whose YAML frontmatter names and describes it.
package skills

// Skill is a discovered skill
type Skill struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	// Agent is the agent whose directory the skill was found in
	Agent     string `json:"agent"`
	Directory string `json:"directory"`
	Content   string `json:"-"`
}

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags,omitempty"`
}
