package memory

import "time"

// DocumentVersion is the schema version written to every persisted document
const DocumentVersion = 1

// LearningSource records how a learning entered the store
type LearningSource string

const (
	SourceSession  LearningSource = "session"
	SourceManual   LearningSource = "manual"
	SourceImported LearningSource = "imported"
)

// Scope decides which store owns a learning
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// Valid reports whether s is a known scope
func (s Scope) Valid() bool {
	return s == ScopeProject || s == ScopeGlobal
}

// Learning is a durable unit of consolidated knowledge
type Learning struct {
	ID                 string         `yaml:"id" json:"id"`
	CreatedAt          time.Time      `yaml:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time      `yaml:"updatedAt" json:"updatedAt"`
	Source             LearningSource `yaml:"source" json:"source"`
	SourceObservations []string       `yaml:"sourceObservations,omitempty" json:"sourceObservations,omitempty"`

	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
	Scope   Scope  `yaml:"scope" json:"scope"`
	Project string `yaml:"project,omitempty" json:"project,omitempty"`

	Tags       []string `yaml:"tags" json:"tags"`
	Frameworks []string `yaml:"frameworks,omitempty" json:"frameworks,omitempty"`
	Patterns   []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`

	UseCount      int        `yaml:"useCount" json:"useCount"`
	LastUsed      *time.Time `yaml:"lastUsed,omitempty" json:"lastUsed,omitempty"`
	Effectiveness *int       `yaml:"effectiveness,omitempty" json:"effectiveness,omitempty" jsonschema:"minimum=0,maximum=100"`
}

// LearningDocument is the persisted form of one scope's learnings
type LearningDocument struct {
	Version   int        `yaml:"version" json:"version"`
	Learnings []Learning `yaml:"learnings" json:"learnings"`
}
