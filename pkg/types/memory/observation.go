// Package memory defines the shared data types of the skillkit session memory
// engine: session-scoped observations and durable learnings.
package memory

import "time"

// ObservationType classifies a captured observation
type ObservationType string

const (
	ObservationToolUse    ObservationType = "tool_use"
	ObservationDecision   ObservationType = "decision"
	ObservationError      ObservationType = "error"
	ObservationSolution   ObservationType = "solution"
	ObservationPattern    ObservationType = "pattern"
	ObservationFileChange ObservationType = "file_change"
	ObservationCheckpoint ObservationType = "checkpoint"
)

// ObservationTypes lists every valid observation type
var ObservationTypes = []ObservationType{
	ObservationToolUse,
	ObservationDecision,
	ObservationError,
	ObservationSolution,
	ObservationPattern,
	ObservationFileChange,
	ObservationCheckpoint,
}

// Valid reports whether t is a known observation type
func (t ObservationType) Valid() bool {
	for _, known := range ObservationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ObservationContent is the structured payload of an observation
type ObservationContent struct {
	Action   string   `yaml:"action" json:"action"`
	Context  string   `yaml:"context" json:"context"`
	Result   string   `yaml:"result,omitempty" json:"result,omitempty"`
	Files    []string `yaml:"files,omitempty" json:"files,omitempty"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Error    string   `yaml:"error,omitempty" json:"error,omitempty"`
	Solution string   `yaml:"solution,omitempty" json:"solution,omitempty"`
}

// Observation is a single captured event of an agent session. Observations
// are immutable once written.
type Observation struct {
	ID        string             `yaml:"id" json:"id"`
	Timestamp time.Time          `yaml:"timestamp" json:"timestamp"`
	SessionID string             `yaml:"sessionId" json:"sessionId"`
	Agent     string             `yaml:"agent" json:"agent"`
	Skill     string             `yaml:"skill,omitempty" json:"skill,omitempty"`
	Type      ObservationType    `yaml:"type" json:"type"`
	Content   ObservationContent `yaml:"content" json:"content"`
	Relevance int                `yaml:"relevance" json:"relevance" jsonschema:"minimum=0,maximum=100"`
}

// ObservationDocument is the persisted form of one session's observations
type ObservationDocument struct {
	Version      int           `yaml:"version" json:"version"`
	SessionID    string        `yaml:"sessionId" json:"sessionId"`
	Observations []Observation `yaml:"observations" json:"observations"`
}
